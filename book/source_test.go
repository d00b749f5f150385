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

package book

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const jsonBooks = `[
  {"title": "Clean Code", "author": "Robert C. Martin", "publisher": "Prentice Hall",
   "year": 2008, "keywords": ["programming"]},
  {"title": "SICP", "author": "Abelson", "publisher": "MIT Press"}
]`

const yamlBooks = `
- title: Clean Code
  author: Robert C. Martin
  publisher: Prentice Hall
  year: 2008
  keywords: [programming]
- title: SICP
  author: Abelson
  publisher: MIT Press
`

var wantBooks = []Book{
	{Title: "Clean Code", Author: "Robert C. Martin", Publisher: "Prentice Hall",
		Year: 2008, Keywords: []string{"programming"}},
	{Title: "SICP", Author: "Abelson", Publisher: "MIT Press"},
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"a.json":        FormatJSON,
		"dir/b.JSON":    FormatJSON,
		"c.yaml":        FormatYAML,
		"/tmp/d.yml":    FormatYAML,
		"with.dots.yml": FormatYAML,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err, path)
		require.Equal(t, want, got, path)
	}
	for _, path := range []string{"books.csv", "books", "json"} {
		_, err := FormatOf(path)
		require.Error(t, err, path)
	}
}

func TestDecode(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		books, err := Decode(strings.NewReader(jsonBooks), FormatJSON)
		require.NoError(t, err)
		require.Equal(t, wantBooks, books)
	})

	t.Run("yaml", func(t *testing.T) {
		books, err := Decode(strings.NewReader(yamlBooks), FormatYAML)
		require.NoError(t, err)
		require.Equal(t, wantBooks, books)
	})

	t.Run("unknown-fields", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`[{"title": "x", "isbn": "1"}]`), FormatJSON)
		require.Error(t, err)
		_, err = Decode(strings.NewReader("- title: x\n  isbn: \"1\"\n"), FormatYAML)
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"title": "x"}`), FormatJSON)
		require.Error(t, err)
		_, err = Decode(strings.NewReader("title: [x"), FormatYAML)
		require.Error(t, err)
	})

	t.Run("unknown-format", func(t *testing.T) {
		_, err := Decode(strings.NewReader(jsonBooks), Format("toml"))
		require.Error(t, err)
	})
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	for _, name := range []string{"books.json", "books.yml"} {
		content := jsonBooks
		if strings.HasSuffix(name, ".yml") {
			content = yamlBooks
		}
		books, err := FileSource{Path: write(name, content)}.Records()
		require.NoError(t, err, name)
		require.Equal(t, wantBooks, books, name)
	}

	_, err := FileSource{Path: write("books.txt", jsonBooks)}.Records()
	require.Error(t, err)

	_, err = FileSource{Path: filepath.Join(dir, "missing.json")}.Records()
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = FileSource{Path: write("bad.json", "[")}.Records()
	require.ErrorContains(t, err, "bad.json")
}

func TestSlice(t *testing.T) {
	books, err := Slice(Demo()).Records()
	require.NoError(t, err)
	require.Equal(t, Demo(), books)
}
