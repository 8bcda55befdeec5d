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

// Package errors has small helpers for combining errors from independent
// steps that should all be attempted regardless of earlier failures (e.g.
// writing a file, then flushing it, then closing it).
package errors

// Any returns the first non-nil error in errs, or nil if all are nil. Unlike
// stopping at the first error, callers typically want to still run every
// step (e.g. a defer'd Close after a failed Write) and then report whichever
// failed first.
func Any(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
