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
	"reflect"

	"github.com/op/go-logging"
)

// Option configures an Index while it is being created.
type Option[R any] interface {
	apply(ix *Index[R])
}

type maxDepthOption[R any] struct {
	depth uint
}

func (op maxDepthOption[R]) apply(ix *Index[R]) {
	ix.maxDepth = op.depth
}

// WithMaxDepth bounds the number of leading key bits an Index may use, and
// with it the directory size (1<<depth) and the number of splits a single
// Insert may trigger. It must be in [1, KeyBits]; the default is KeyBits.
func WithMaxDepth[R any](depth uint) Option[R] {
	return maxDepthOption[R]{depth}
}

type equalOption[R any] struct {
	eq func(a, b R) bool
}

func (op equalOption[R]) apply(ix *Index[R]) {
	ix.eq = op.eq
}

// WithEqual specifies how Remove and Contains compare records. The default
// is reflect.DeepEqual.
func WithEqual[R any](eq func(a, b R) bool) Option[R] {
	return equalOption[R]{eq}
}

type loggerOption[R any] struct {
	logger *logging.Logger
}

func (op loggerOption[R]) apply(ix *Index[R]) {
	ix.log = op.logger
}

// WithLogger replaces the package logger for a single Index.
func WithLogger[R any](logger *logging.Logger) Option[R] {
	return loggerOption[R]{logger}
}

func deepEqual[R any](a, b R) bool {
	return reflect.DeepEqual(a, b)
}
