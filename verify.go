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

import "fmt"

// Verify checks the structural invariants of the index and returns an error
// describing the first violation found:
//
//   - the directory has 1<<globalDepth slots;
//   - every bucket has 1 <= localDepth <= globalDepth and holds at most
//     capacity records;
//   - a bucket of depth d is referenced by exactly the 1<<(globalDepth-d)
//     slots sharing one d-bit prefix, and by no other slot;
//   - every record's key routes to the bucket holding it;
//   - the record count matches Len.
func (ix *Index[R]) Verify() error {
	if n := len(ix.dir); n != 1<<ix.globalDepth {
		return fmt.Errorf("directory has %d slots at global depth %d", n, ix.globalDepth)
	}
	if ix.globalDepth < 1 || ix.globalDepth > ix.maxDepth {
		return fmt.Errorf("global depth %d outside [1, %d]", ix.globalDepth, ix.maxDepth)
	}

	refs := make([]int, ix.arena.len())
	prefixes := make([]int, ix.arena.len())
	for i, h := range ix.dir {
		if int(h) >= ix.arena.len() {
			return fmt.Errorf("slot %d: dangling handle %d", i, h)
		}
		b := ix.arena.At(h)
		if b.localDepth < 1 || b.localDepth > ix.globalDepth {
			return fmt.Errorf("bucket %d: local depth %d outside [1, %d]",
				h, b.localDepth, ix.globalDepth)
		}
		// Every slot referring to a bucket must share its localDepth-bit
		// prefix. Together with the reference count below this means the
		// bucket owns exactly the slots with that prefix.
		prefix := i >> (ix.globalDepth - b.localDepth)
		if refs[h] == 0 {
			prefixes[h] = prefix
		} else if prefixes[h] != prefix {
			return fmt.Errorf("slot %d: bucket %d (depth %d) has prefix %0*b, expected %0*b",
				i, h, b.localDepth, int(b.localDepth), prefix, int(b.localDepth), prefixes[h])
		}
		refs[h]++
	}

	used := 0
	for h := range refs {
		b := ix.arena.At(Handle(h))
		// Unreferenced buckets were not checked in the slot walk.
		if b.localDepth < 1 || b.localDepth > ix.globalDepth {
			return fmt.Errorf("bucket %d: local depth %d outside [1, %d]",
				h, b.localDepth, ix.globalDepth)
		}
		if want := 1 << (ix.globalDepth - b.localDepth); refs[h] != want {
			return fmt.Errorf("bucket %d (depth %d): referenced by %d slots, expected %d",
				h, b.localDepth, refs[h], want)
		}
		if len(b.records) > b.capacity {
			return fmt.Errorf("bucket %d: %d records exceed capacity %d",
				h, len(b.records), b.capacity)
		}
		for _, r := range b.records {
			if j := ix.slot(ix.deriver.Key(r)); ix.dir[j] != Handle(h) {
				return fmt.Errorf("bucket %d: record %v routes to slot %d (bucket %d)",
					h, r, j, ix.dir[j])
			}
		}
		used += len(b.records)
	}
	if used != ix.used {
		return fmt.Errorf("found %d records, but used count is %d", used, ix.used)
	}
	return nil
}
