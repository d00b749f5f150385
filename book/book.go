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

// Package book provides a catalog record type for the extendible index, the
// murmur3-based key derivation for it, and readers for JSON and YAML record
// files.
package book

import (
	"fmt"
	"strconv"

	"github.com/spaolacci/murmur3"
)

// Book is a catalog record. Only Title, Author and Publisher contribute to
// its key.
type Book struct {
	Title     string   `json:"title" yaml:"title"`
	Author    string   `json:"author" yaml:"author"`
	Publisher string   `json:"publisher" yaml:"publisher"`
	Year      int      `json:"year,omitempty" yaml:"year,omitempty"`
	Keywords  []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

func (b Book) String() string {
	return fmt.Sprintf("%q by %s (%s)", b.Title, b.Author, b.Publisher)
}

// Metadata is the string hashed to produce the key of b.
func (b Book) Metadata() string {
	return b.Title + b.Author + b.Publisher
}

// DefaultSalt is appended to the metadata hash before the second hashing
// stage.
const DefaultSalt = "salt"

// mixSeed seeds the second hashing stage so that it differs from the first.
const mixSeed = 0x9747b28c

// HashFunc hashes a string to 32 bits. It must be deterministic.
type HashFunc func(s string) uint32

// Murmur3 is MurmurHash3 x86_32 with a zero seed.
func Murmur3(s string) uint32 {
	return murmur3.Sum32([]byte(s))
}

// Murmur3Seeded returns MurmurHash3 x86_32 with the given seed.
func Murmur3Seeded(seed uint32) HashFunc {
	return func(s string) uint32 {
		return murmur3.Sum32WithSeed([]byte(s), seed)
	}
}

// Deriver derives index keys for books. The metadata hash is rendered as a
// signed decimal, suffixed with Salt and hashed again by Mix, which
// decorrelates clustered metadata from the directory bit patterns.
type Deriver struct {
	Salt    string
	Content HashFunc
	Mix     HashFunc
}

// NewDeriver returns a Deriver hashing both stages with murmur3.
func NewDeriver(salt string) Deriver {
	return Deriver{
		Salt:    salt,
		Content: Murmur3,
		Mix:     Murmur3Seeded(mixSeed),
	}
}

// Key implements extendible.KeyDeriver.
func (d Deriver) Key(b Book) uint32 {
	return d.Mix(d.salted(b))
}

func (d Deriver) salted(b Book) string {
	h := int32(d.Content(b.Metadata()))
	return strconv.FormatInt(int64(h), 10) + d.Salt
}

// Equal reports whether two books are the same record. Keywords are compared
// element-wise; a nil and an empty keyword list are equal.
func Equal(a, b Book) bool {
	if a.Title != b.Title || a.Author != b.Author || a.Publisher != b.Publisher ||
		a.Year != b.Year || len(a.Keywords) != len(b.Keywords) {
		return false
	}
	for i := range a.Keywords {
		if a.Keywords[i] != b.Keywords[i] {
			return false
		}
	}
	return true
}

// Demo returns the two sample records used by the demo command.
func Demo() []Book {
	return []Book{
		{
			Title:     "Introduction to Algorithms",
			Author:    "Thomas H. Cormen",
			Publisher: "MIT Press",
			Year:      2009,
			Keywords:  []string{"algorithms", "data structures", "computer science"},
		},
		{
			Title:     "Clean Code",
			Author:    "Robert C. Martin",
			Publisher: "Prentice Hall",
			Year:      2008,
			Keywords:  []string{"programming", "best practices", "software engineering"},
		},
	}
}
