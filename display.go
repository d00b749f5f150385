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

package extendible

import (
	"fmt"
	"strings"
)

// SlotSnapshot describes one directory slot.
type SlotSnapshot[R any] struct {
	Index      int
	Bucket     Handle
	LocalDepth uint
	Records    []R
}

// Snapshot is a copy of the state of an Index. It shares no memory with the
// Index it was taken from.
type Snapshot[R any] struct {
	GlobalDepth uint
	Slots       []SlotSnapshot[R]
}

// Display returns a snapshot of the directory. Slots sharing a bucket carry
// the same Bucket handle and equal copies of its records. Display never
// mutates the index.
func (ix *Index[R]) Display() Snapshot[R] {
	s := Snapshot[R]{
		GlobalDepth: ix.globalDepth,
		Slots:       make([]SlotSnapshot[R], len(ix.dir)),
	}
	for i, h := range ix.dir {
		b := ix.arena.At(h)
		records := make([]R, len(b.records))
		copy(records, b.records)
		s.Slots[i] = SlotSnapshot[R]{
			Index:      i,
			Bucket:     h,
			LocalDepth: b.localDepth,
			Records:    records,
		}
	}
	return s
}

// String renders the snapshot one directory slot per line.
func (s Snapshot[R]) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Global Depth: %d\n", s.GlobalDepth)
	for _, slot := range s.Slots {
		fmt.Fprintf(&buf, "Directory[%d]: Local Depth=%d, Records=%v\n",
			slot.Index, slot.LocalDepth, slot.Records)
	}
	return buf.String()
}
