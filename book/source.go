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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Format identifies the encoding of a record file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Source supplies records to be indexed.
type Source interface {
	Records() ([]Book, error)
}

// FileSource reads a list of books from a file. The format is taken from the
// file extension: .json, or .yaml/.yml.
type FileSource struct {
	Path string
}

// Records implements Source.
func (s FileSource) Records() ([]Book, error) {
	format, err := FormatOf(s.Path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	books, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return books, nil
}

// FormatOf returns the record format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported record file extension %q", ext)
	}
}

// Decode reads a list of books in the given format.
func Decode(r io.Reader, format Format) ([]Book, error) {
	var books []Book
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&books); err != nil {
			return nil, fmt.Errorf("decoding json records: %w", err)
		}
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if err := yaml.UnmarshalStrict(data, &books); err != nil {
			return nil, fmt.Errorf("decoding yaml records: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown record format %q", format)
	}
	return books, nil
}

// Slice is a Source backed by an in-memory list.
type Slice []Book

// Records implements Source.
func (s Slice) Records() ([]Book, error) {
	return s, nil
}
