// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package exec

import "fmt"

// ErrKind classifies a QueryError the way callers (an API layer, a test)
// need to distinguish client mistakes from storage-tier trouble.
type ErrKind string

const (
	SyntaxError    ErrKind = "SYNTAX_ERROR"
	Unsupported    ErrKind = "UNSUPPORTED"
	NameError      ErrKind = "NAME_ERROR"
	TypeError      ErrKind = "TYPE_ERROR"
	DuplicateAlias ErrKind = "DUPLICATE_ALIAS"
	ExprError      ErrKind = "EXPR_ERROR"
	RemoteError    ErrKind = "REMOTE_ERROR"
	InternalError  ErrKind = "INTERNAL"
)

// QueryError is the error type returned by every exported exec entry point.
// Kind lets callers branch on the failure category without parsing Msg.
type QueryError struct {
	Kind ErrKind
	Msg  string
	Err  error // wrapped cause, if any (e.g. a storage RPC error)
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *QueryError) Unwrap() error { return e.Err }

func newErr(kind ErrKind, format string, args ...interface{}) *QueryError {
	return &QueryError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(kind ErrKind, err error, format string, args ...interface{}) *QueryError {
	return &QueryError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
