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

import "errors"

var (
	// ErrBucketFull is returned when adding to a bucket that is already at
	// capacity. Insert always splits before adding, so this error escaping
	// Insert indicates a broken invariant.
	ErrBucketFull = errors.New("bucket is full")

	// ErrRecordNotFound is returned by Remove when no equal record is stored.
	ErrRecordNotFound = errors.New("record not found")

	// ErrHashExhausted is returned by Insert when the colliding records
	// cannot be separated even at the maximum depth.
	ErrHashExhausted = errors.New("hash bits exhausted")

	// ErrInvalidCapacity is returned by New for a non-positive bucket
	// capacity.
	ErrInvalidCapacity = errors.New("bucket capacity must be positive")

	// ErrInvalidMaxDepth is returned by New when WithMaxDepth is outside
	// [1, KeyBits].
	ErrInvalidMaxDepth = errors.New("max depth out of range")
)
