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

// Command graphwalk-cli provides command line access to the graph
// traversal executor, for demos and manual testing: it parses a GO
// sentence file, runs it through exec.Engine, and prints the rows.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	docopt "github.com/docopt/docopt-go"
	log "github.com/sirupsen/logrus"

	"github.com/zhuchaokn/nebula/config"
	"github.com/zhuchaokn/nebula/graph/exec"
	"github.com/zhuchaokn/nebula/graph/schema"
	"github.com/zhuchaokn/nebula/graph/storage"
	"github.com/zhuchaokn/nebula/graph/storage/grpcstore"
	"github.com/zhuchaokn/nebula/graph/storage/memstore"
	"github.com/zhuchaokn/nebula/graph/values"
	"github.com/zhuchaokn/nebula/util/table"
)

const usage = `graphwalk-cli runs a GO sentence against a storage backend and prints its rows.

Usage:
  graphwalk-cli [--config=FILE --space=NUM --trace-go] run FILE
  graphwalk-cli demo

Options:
  --config=FILE   JSON config file naming storage shard hosts [default: ].
  --space=NUM     Graph space id to query [default: 1].
  --trace-go      Enable per-host trace_go logging.

"run FILE" loads FILE as a JSON-encoded GO sentence (see sentence.go) and
executes it against the shards named in --config, or against an empty
in-memory store if --config is omitted.

"demo" seeds a small in-memory graph and runs a two-hop reverse traversal
against it, to show the executor end to end without any external setup.
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], "graphwalk-cli")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if demo, _ := opts.Bool("demo"); demo {
		if err := runDemo(ctx); err != nil {
			log.Fatal(err)
		}
		return
	}

	filename, _ := opts.String("FILE")
	data, err := os.ReadFile(filename)
	if err != nil {
		log.Fatal(err)
	}
	sentence, err := parseSentenceFile(data)
	if err != nil {
		log.Fatal(err)
	}

	space := int64(1)
	if s, _ := opts.String("--space"); s != "" {
		fmt.Sscanf(s, "%d", &space)
	}
	traceGo, _ := opts.Bool("--trace-go")
	runOpts := exec.DefaultOptions()
	runOpts.TraceGo = traceGo

	mgr := schema.NewInMemory()
	var client storage.Client

	configFile, _ := opts.String("--config")
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			log.Fatal(err)
		}
		c, err := grpcstore.Dial(ctx, cfg.Storage)
		if err != nil {
			log.Fatal(err)
		}
		defer c.Close()
		client = c
	} else {
		log.Warn("no --config given, running against an empty in-memory store")
		client = memstore.New(mgr, 1)
	}

	engine := exec.New(client, mgr)
	start := time.Now()
	result, err := engine.Execute(ctx, sentence, values.SpaceID(space), nil, nil, runOpts, false)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("query took %s", time.Since(start))
	printResponse(result.Response)
}

func printResponse(r *exec.ExecutionResponse) {
	t := make([][]string, len(r.Rows)+1)
	t[0] = r.ColumnNames
	for i, row := range r.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		t[i+1] = cells
	}
	table.PrettyPrint(os.Stdout, t, table.HeaderRow|table.SkipEmpty)
	fmt.Printf("%d rows.\n", len(r.Rows))
}
