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

// Handle names a bucket owned by an Index. Handles are cheap to copy and
// compare by identity: two handles are equal iff they name the same bucket.
type Handle uint32

// bucket is a fixed capacity, ordered container of records.
type bucket[R any] struct {
	// capacity is fixed when the bucket is created.
	capacity int
	// localDepth is the number of leading hash bits shared by every directory
	// slot referencing this bucket. 1 <= localDepth <= Index.globalDepth.
	localDepth uint
	records    []R
}

func (b *bucket[R]) isFull() bool {
	return len(b.records) >= b.capacity
}

func (b *bucket[R]) add(r R) error {
	if b.isFull() {
		return ErrBucketFull
	}
	b.records = append(b.records, r)
	return nil
}

// remove deletes the first record equal to r, preserving the order of the
// remaining records.
func (b *bucket[R]) remove(r R, eq func(a, b R) bool) error {
	for i := range b.records {
		if eq(b.records[i], r) {
			copy(b.records[i:], b.records[i+1:])
			var zero R
			b.records[len(b.records)-1] = zero
			b.records = b.records[:len(b.records)-1]
			return nil
		}
	}
	return ErrRecordNotFound
}

func (b *bucket[R]) contains(r R, eq func(a, b R) bool) bool {
	for i := range b.records {
		if eq(b.records[i], r) {
			return true
		}
	}
	return false
}

// drain returns the records held by the bucket and leaves it empty. The
// returned slice is not shared with the bucket.
func (b *bucket[R]) drain() []R {
	records := b.records
	b.records = make([]R, 0, b.capacity)
	return records
}

func (b *bucket[R]) String() string {
	return fmt.Sprintf("Bucket(depth=%d, records=%v)", b.localDepth, b.records)
}

// arena owns every bucket of an Index. The directory refers to buckets only
// through handles. Buckets are never removed.
type arena[R any] struct {
	buckets []bucket[R]
}

func (a *arena[R]) alloc(capacity int, localDepth uint) Handle {
	a.buckets = append(a.buckets, bucket[R]{
		capacity:   capacity,
		localDepth: localDepth,
		records:    make([]R, 0, capacity),
	})
	return Handle(len(a.buckets) - 1)
}

// At returns the bucket named by h. The pointer is invalidated by the next
// alloc.
func (a *arena[R]) At(h Handle) *bucket[R] {
	return &a.buckets[h]
}

func (a *arena[R]) len() int {
	return len(a.buckets)
}
