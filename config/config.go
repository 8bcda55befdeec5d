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

// Package config defines and loads the executor's JSON configuration file.
package config

// StorageEndpoint is one shard host the executor's storage client dials.
type StorageEndpoint struct {
	Part int
	Host string
}

// Graphwalk is the top-level executor configuration, the JSON shape Load
// and Write read and write.
type Graphwalk struct {
	// Space is a graph space id carried in the file. graphwalk-cli does not
	// read it; it takes the space from its --space flag.
	Space int32

	// FilterPushdown and TraceGo mirror exec.Options' two flags. graphwalk-cli
	// does not read them; it starts from exec.DefaultOptions() and its
	// --trace-go flag.
	FilterPushdown bool
	TraceGo        bool

	// Storage lists the shard hosts a grpcstore.Client dials, one entry per
	// partition.
	Storage []StorageEndpoint
}
