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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/libhash/extendible/book"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := IndexOptions{}.resolve(defaultConfig())
		require.NoError(t, err)
		require.Equal(t, defaultConfig(), cfg)
	})

	t.Run("file", func(t *testing.T) {
		path := writeFile(t, "exthash.yaml", "capacity: 5\nmax_depth: 8\n")
		cfg, err := IndexOptions{Config: path}.resolve(defaultConfig())
		require.NoError(t, err)
		require.Equal(t, Config{Capacity: 5, Salt: book.DefaultSalt, MaxDepth: 8, LogLevel: "INFO"}, cfg)
	})

	t.Run("flags-override-file", func(t *testing.T) {
		path := writeFile(t, "exthash.yaml", "capacity: 5\nsalt: pepper\nlog_level: DEBUG\n")
		cfg, err := IndexOptions{Config: path, Capacity: 2, LogLevel: "ERROR"}.resolve(defaultConfig())
		require.NoError(t, err)
		require.Equal(t, Config{Capacity: 2, Salt: "pepper", MaxDepth: 32, LogLevel: "ERROR"}, cfg)
	})

	t.Run("unknown-key", func(t *testing.T) {
		path := writeFile(t, "exthash.yaml", "bucket_size: 5\n")
		_, err := IndexOptions{Config: path}.resolve(defaultConfig())
		require.Error(t, err)
	})

	t.Run("missing-file", func(t *testing.T) {
		_, err := IndexOptions{Config: filepath.Join(t.TempDir(), "none.yaml")}.resolve(defaultConfig())
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeFile(t, "exthash.yaml", "capacity: -1\n")
		_, err := IndexOptions{Config: path}.resolve(defaultConfig())
		require.ErrorContains(t, err, "capacity")

		_, err = IndexOptions{MaxDepth: 33}.resolve(defaultConfig())
		require.ErrorContains(t, err, "max depth")
	})
}

func TestRun(t *testing.T) {
	cfg := defaultConfig()
	cfg.Capacity = 1

	t.Run("demo", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, run(&buf, cfg, book.Slice(book.Demo())))
		out := buf.String()
		require.True(t, strings.HasPrefix(out, "Global Depth: "), out)
		require.Contains(t, out, "Directory[0]: Local Depth=")
		for _, b := range book.Demo() {
			require.Contains(t, out, b.Title)
		}
	})

	t.Run("duplicates", func(t *testing.T) {
		demo := book.Demo()
		var buf bytes.Buffer
		err := run(&buf, cfg, book.Slice{demo[0], demo[0], demo[0]})
		require.ErrorContains(t, err, "2 of 3 records not indexed")
		require.Contains(t, buf.String(), "Global Depth: 1\n")
	})

	t.Run("duplicates-low-max-depth", func(t *testing.T) {
		cfg := cfg
		cfg.MaxDepth = 2
		demo := book.Demo()
		var buf bytes.Buffer
		err := run(&buf, cfg, book.Slice{demo[0], demo[0]})
		require.ErrorContains(t, err, "1 of 2 records not indexed")
		require.Contains(t, buf.String(), "Global Depth: 1\n")
	})
}

func TestCommands(t *testing.T) {
	t.Run("demo", func(t *testing.T) {
		var buf bytes.Buffer
		cmd := Demo{IndexOptions: IndexOptions{LogLevel: "ERROR"}, out: &buf}
		require.NoError(t, cmd.Execute(nil))
		require.Contains(t, buf.String(), "Global Depth: ")
	})

	t.Run("load", func(t *testing.T) {
		path := writeFile(t, "books.yaml", `
- title: Clean Code
  author: Robert C. Martin
  publisher: Prentice Hall
- title: SICP
  author: Abelson
  publisher: MIT Press
- title: TAOCP
  author: Knuth
  publisher: Addison-Wesley
`)
		var buf bytes.Buffer
		cmd := Load{IndexOptions: IndexOptions{LogLevel: "ERROR"}, out: &buf}
		require.NoError(t, cmd.Execute([]string{path}))
		require.Contains(t, buf.String(), "TAOCP")
	})

	t.Run("load-args", func(t *testing.T) {
		cmd := Load{IndexOptions: IndexOptions{LogLevel: "ERROR"}, out: &bytes.Buffer{}}
		require.Error(t, cmd.Execute(nil))
		require.Error(t, cmd.Execute([]string{"a.json", "b.json"}))
	})
}
