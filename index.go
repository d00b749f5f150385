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

// Package extendible implements an extendible hashing index: a directory of
// fixed capacity buckets addressed by the leading bits of a 32-bit record
// key. See https://en.wikipedia.org/wiki/Extendible_hashing.
//
// # Directory
//
// Index.globalDepth specifies the number of leading bits of a key that are
// used to select a directory slot. The directory always has
// 1<<globalDepth slots and each slot holds the Handle of a bucket.
//
// bucket.localDepth specifies the number of leading bits shared by every key
// stored in the bucket. localDepth <= globalDepth. When localDepth <
// globalDepth, 1<<(globalDepth-localDepth) adjacent slots refer to the same
// bucket.
//
//	 dir (globalDepth=2)
//	+----+
//	| 00 | --> dir[0] \
//	+----+             +--> bucket[localDepth=1]
//	| 01 | --> dir[1] /
//	+----+
//	| 10 | --> dir[2] ----> bucket[localDepth=2]
//	+----+
//	| 11 | --> dir[3] ----> bucket[localDepth=2]
//	+----+
//
// # Splitting
//
// Inserting into a full bucket splits it. If the bucket's local depth equals
// the global depth the directory is doubled first: slot i becomes slots 2i
// and 2i+1, both referring to the bucket that i referred to, and the global
// depth grows by one. No bucket is created or destroyed by doubling.
//
// The split then increments the bucket's local depth to d, allocates a
// sibling at depth d and hands it the upper half of the bucket's slots (the
// slots whose d-th leading bit is 1). Splitting dir[3] above yields:
//
//	 dir (globalDepth=3)
//	+-----+
//	| 000 | --> dir[0] \
//	+-----+             \
//	| 001 | --> dir[1]   \
//	+-----+               +--> bucket[localDepth=1]
//	| 010 | --> dir[2]   /
//	+-----+             /
//	| 011 | --> dir[3] /
//	+-----+
//	| 100 | --> dir[4] \
//	+-----+             +----> bucket[localDepth=2]
//	| 101 | --> dir[5] /
//	+-----+
//	| 110 | --> dir[6] ------> bucket[localDepth=3]
//	+-----+
//	| 111 | --> dir[7] ------> bucket[localDepth=3]
//	+-----+
//
// The records of the split bucket are then redistributed between it and
// its sibling and the insert is retried. A single Insert performs at most
// maxDepth splits; a record that still lands in a full bucket of local depth
// maxDepth fails with ErrHashExhausted. Buckets are never merged.
//
// An Index is NOT goroutine-safe.
package extendible

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/op/go-logging"
)

const debug = false

// KeyBits is the width of a record key.
const KeyBits = 32

var log = logging.MustGetLogger("extendible")

// KeyDeriver maps a record to its key. Key must be deterministic: the Index
// re-derives keys when redistributing records and relies on getting the
// same leading bits back.
type KeyDeriver[R any] interface {
	Key(r R) uint32
}

// KeyFunc adapts an ordinary function to the KeyDeriver interface.
type KeyFunc[R any] func(r R) uint32

// Key returns f(r).
func (f KeyFunc[R]) Key(r R) uint32 {
	return f(r)
}

// Index routes records to buckets by the leading bits of their key.
type Index[R any] struct {
	deriver KeyDeriver[R]
	eq      func(a, b R) bool
	log     *logging.Logger
	// arena owns the buckets; dir refers to them by handle.
	arena arena[R]
	dir   []Handle
	// The capacity given to every bucket.
	capacity int
	// The number of records across all buckets.
	used        int
	globalDepth uint
	maxDepth    uint
}

// New constructs an Index with a global depth of 1 and two empty buckets of
// the given capacity.
func New[R any](bucketCapacity int, deriver KeyDeriver[R], options ...Option[R]) (*Index[R], error) {
	if bucketCapacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, bucketCapacity)
	}
	if deriver == nil {
		return nil, fmt.Errorf("extendible: nil KeyDeriver")
	}
	if f, ok := deriver.(KeyFunc[R]); ok && f == nil {
		return nil, fmt.Errorf("extendible: nil KeyFunc")
	}
	ix := &Index[R]{
		deriver:     deriver,
		eq:          deepEqual[R],
		log:         log,
		capacity:    bucketCapacity,
		globalDepth: 1,
		maxDepth:    KeyBits,
	}
	for _, op := range options {
		op.apply(ix)
	}
	if ix.maxDepth < 1 || ix.maxDepth > KeyBits {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxDepth, ix.maxDepth)
	}
	if ix.eq == nil {
		ix.eq = deepEqual[R]
	}
	if ix.log == nil {
		ix.log = log
	}

	ix.dir = make([]Handle, 1<<ix.globalDepth)
	for i := range ix.dir {
		ix.dir[i] = ix.arena.alloc(bucketCapacity, ix.globalDepth)
	}
	ix.checkInvariants()
	return ix, nil
}

// Insert adds r to the bucket its key routes to, splitting buckets as
// needed. Duplicate records are stored again. ErrHashExhausted is returned
// if r cannot be placed without exceeding the maximum depth. The index is
// then left unchanged: splitting only starts once some record of the full
// bucket differs from r within the leading maxDepth bits, and such a split
// always makes room for r.
func (ix *Index[R]) Insert(r R) error {
	key := ix.deriver.Key(r)

	for attempt := uint(0); attempt <= ix.maxDepth; attempt++ {
		i := ix.slot(key)
		b := ix.arena.At(ix.dir[i])
		if !b.isFull() {
			if err := b.add(r); err != nil {
				panic(fmt.Sprintf("invariant failed: slot %d: %v", i, err))
			}
			ix.used++
			ix.checkInvariants()
			return nil
		}
		if b.localDepth >= ix.maxDepth || !ix.separable(b, key) {
			ix.log.Warningf("insert: key %032b: bucket %d full at depth %d",
				key, ix.dir[i], b.localDepth)
			return fmt.Errorf("%w: key %032b collides with %d records within %d bits",
				ErrHashExhausted, key, len(b.records), ix.maxDepth)
		}
		ix.split(i)
	}

	// Every split raises the local depth of the bucket the key routes to, so
	// the depth check above returns before the loop ends.
	return fmt.Errorf("%w: key %032b", ErrHashExhausted, key)
}

// separable reports whether some record of b has a key differing from key
// in its leading maxDepth bits. Splitting a bucket where none does would
// double the directory up to the maximum depth without moving a record.
func (ix *Index[R]) separable(b *bucket[R], key uint32) bool {
	mask := ^uint32(0) << (KeyBits - ix.maxDepth)
	for i := range b.records {
		if (ix.deriver.Key(b.records[i])^key)&mask != 0 {
			return true
		}
	}
	return false
}

// InsertAll inserts every record, continuing past failures. The returned
// error aggregates the failure of each record that could not be inserted.
func (ix *Index[R]) InsertAll(records []R) error {
	var result *multierror.Error
	for i := range records {
		if err := ix.Insert(records[i]); err != nil {
			result = multierror.Append(result, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return result.ErrorOrNil()
}

// Remove removes the first record equal to r from the bucket r routes to.
// The bucket is never merged with its sibling, even when it becomes empty.
func (ix *Index[R]) Remove(r R) error {
	h := ix.dir[ix.slot(ix.deriver.Key(r))]
	if err := ix.arena.At(h).remove(r, ix.eq); err != nil {
		return err
	}
	ix.used--
	ix.checkInvariants()
	return nil
}

// Contains reports whether a record equal to r is stored.
func (ix *Index[R]) Contains(r R) bool {
	h := ix.dir[ix.slot(ix.deriver.Key(r))]
	return ix.arena.At(h).contains(r, ix.eq)
}

// All calls yield for each record, visiting buckets in directory order and
// records in insertion order within a bucket. If yield returns false the
// iteration stops. The index must not be mutated during iteration.
func (ix *Index[R]) All(yield func(r R) bool) {
	ix.buckets(func(h Handle, b *bucket[R]) bool {
		for i := range b.records {
			if !yield(b.records[i]) {
				return false
			}
		}
		return true
	})
}

// Len returns the number of records in the index.
func (ix *Index[R]) Len() int {
	return ix.used
}

// GlobalDepth returns the number of leading key bits used to index the
// directory.
func (ix *Index[R]) GlobalDepth() uint {
	return ix.globalDepth
}

// BucketCount returns the number of distinct buckets.
func (ix *Index[R]) BucketCount() int {
	return ix.arena.len()
}

// Capacity returns the capacity of each bucket.
func (ix *Index[R]) Capacity() int {
	return ix.capacity
}

// Load returns the number of occupied record slots and the total number of
// record slots across all buckets.
func (ix *Index[R]) Load() (occupied, total int) {
	return ix.used, ix.arena.len() * ix.capacity
}

// slot returns the directory index for key: its leading globalDepth bits.
func (ix *Index[R]) slot(key uint32) int {
	return int(key >> (KeyBits - ix.globalDepth))
}

// buckets calls yield for each distinct bucket in directory order. If yield
// returns false, iteration stops.
func (ix *Index[R]) buckets(yield func(h Handle, b *bucket[R]) bool) {
	for i := 0; i < len(ix.dir); {
		h := ix.dir[i]
		b := ix.arena.At(h)
		if !yield(h, b) {
			return
		}
		// A bucket of depth d occupies 1<<(globalDepth-d) adjacent slots.
		i += 1 << (ix.globalDepth - b.localDepth)
	}
}

// split splits the bucket referenced by dir[i], doubling the directory
// first if the bucket already uses every directory bit.
func (ix *Index[R]) split(i int) {
	oldH := ix.dir[i]
	oldDepth := ix.arena.At(oldH).localDepth
	if oldDepth == ix.globalDepth {
		ix.doubleDirectory()
		// Slot i became slots 2i and 2i+1.
		i <<= 1
	}

	old := ix.arena.At(oldH)
	old.localDepth++
	d := old.localDepth
	newH := ix.arena.alloc(old.capacity, d)

	// The slots referring to the old bucket are the contiguous range [lo, hi)
	// sharing its oldDepth-bit prefix. Those whose d-th leading bit is 1 are
	// the upper half [mid, hi).
	g := ix.globalDepth
	lo := (i >> (g - oldDepth)) << (g - oldDepth)
	mid := lo + 1<<(g-d)
	hi := lo + 1<<(g-oldDepth)
	for j := mid; j < hi; j++ {
		if invariants && ix.dir[j] != oldH {
			panic(fmt.Sprintf("invariant failed: split: dir[%d]=%d, expected %d\n%s",
				j, ix.dir[j], oldH, ix.debugString()))
		}
		ix.dir[j] = newH
	}

	if debug {
		fmt.Printf("split: bucket %d -> %d depth=%d slots=[%d,%d)/[%d,%d)\n",
			oldH, newH, d, lo, mid, mid, hi)
	}
	ix.log.Debugf("split: bucket %d at depth %d, sibling %d", oldH, d, newH)

	// Redistribute. The old and new buckets together have room for every
	// drained record, so no redistribution can overflow.
	records := ix.arena.At(oldH).drain()
	for _, r := range records {
		j := ix.slot(ix.deriver.Key(r))
		if err := ix.arena.At(ix.dir[j]).add(r); err != nil {
			panic(fmt.Sprintf("invariant failed: redistributing into slot %d: %v\n%s",
				j, err, ix.debugString()))
		}
	}
}

// doubleDirectory doubles the directory and increments the global depth.
// Slot i of the old directory becomes slots 2i and 2i+1 of the new one, both
// referring to the same bucket.
func (ix *Index[R]) doubleDirectory() {
	if ix.globalDepth >= ix.maxDepth {
		panic(fmt.Sprintf("invariant failed: doubling directory at depth %d (max %d)",
			ix.globalDepth, ix.maxDepth))
	}
	dir := make([]Handle, 2*len(ix.dir))
	for i, h := range ix.dir {
		dir[2*i] = h
		dir[2*i+1] = h
	}
	ix.dir = dir
	ix.globalDepth++
	ix.log.Debugf("directory doubled: global depth %d, %d slots", ix.globalDepth, len(ix.dir))
}

func (ix *Index[R]) checkInvariants() {
	if invariants {
		if err := ix.Verify(); err != nil {
			panic(fmt.Sprintf("invariant failed: %v\n%s", err, ix.debugString()))
		}
	}
}

func (ix *Index[R]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "global-depth=%d  slots=%d  buckets=%d  used=%d\n",
		ix.globalDepth, len(ix.dir), ix.arena.len(), ix.used)
	for i, h := range ix.dir {
		b := ix.arena.At(h)
		fmt.Fprintf(&buf, "  %4d: %0*b -> %d %s\n", i, int(ix.globalDepth), i, h, b)
	}
	return buf.String()
}
