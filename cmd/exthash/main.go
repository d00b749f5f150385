// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command exthash loads book records into an extendible hashing index and
// prints the resulting directory.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jessevdk/go-flags"
	"github.com/libhash/extendible"
	"github.com/libhash/extendible/book"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("exthash")

var stderrLogFormat = logging.MustStringFormatter(
	`%{color:reset}%{color}%{time:15:04:05.000} [%{level}] [%{module}/%{shortfunc}] %{message}`,
)

// Load indexes the records of a JSON or YAML file.
type Load struct {
	IndexOptions

	out io.Writer
}

// Demo indexes the two built-in sample records.
type Demo struct {
	IndexOptions

	out io.Writer
}

var parser = flags.NewParser(nil, flags.Default)

func main() {
	load := Load{out: os.Stdout}
	demo := Demo{out: os.Stdout}
	parser.AddCommand("load",
		"index records from a file",
		"The load command inserts every record of a .json, .yaml or .yml file into a new index and prints its directory",
		&load)
	parser.AddCommand("demo",
		"index the sample records",
		"The demo command inserts two sample records into an index with one record per bucket and prints its directory",
		&demo)

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}

// Execute implements flags.Commander.
func (x *Load) Execute(args []string) error {
	if len(args) != 1 {
		return errors.New("load takes exactly one record file")
	}
	cfg, err := x.resolve(defaultConfig())
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)
	return run(x.out, cfg, book.FileSource{Path: args[0]})
}

// Execute implements flags.Commander.
func (x *Demo) Execute(args []string) error {
	base := defaultConfig()
	base.Capacity = 1
	cfg, err := x.resolve(base)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)
	return run(x.out, cfg, book.Slice(book.Demo()))
}

func setupLogging(level string) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, stderrLogFormat))
	lvl, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		lvl = logging.INFO
	}
	leveled.SetLevel(lvl, "")
	logging.SetBackend(leveled)
	if err != nil {
		log.Warningf("unknown log level %q, using INFO", level)
	}
}

// run builds an index from src, writes its directory to out and reports every
// record that could not be inserted.
func run(out io.Writer, cfg Config, src book.Source) error {
	records, err := src.Records()
	if err != nil {
		return err
	}
	ix, err := extendible.New[book.Book](cfg.Capacity, book.NewDeriver(cfg.Salt),
		extendible.WithMaxDepth[book.Book](cfg.MaxDepth),
		extendible.WithEqual(book.Equal))
	if err != nil {
		return err
	}

	insertErr := ix.InsertAll(records)
	var merr *multierror.Error
	if errors.As(insertErr, &merr) {
		for _, e := range merr.Errors {
			log.Error(e)
		}
	}

	occupied, total := ix.Load()
	log.Infof("indexed %d of %d records: global depth %d, %d buckets, %d/%d slots used",
		ix.Len(), len(records), ix.GlobalDepth(), ix.BucketCount(), occupied, total)

	if _, err := fmt.Fprint(out, ix.Display()); err != nil {
		return err
	}
	if insertErr != nil {
		return fmt.Errorf("%d of %d records not indexed", len(records)-ix.Len(), len(records))
	}
	return nil
}
