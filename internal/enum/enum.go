// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package enum drives exhaustive enumeration of a space of choices
// in depth-first order. A builder calls Choose at each decision
// point; rerunning the builder under Next replays the recorded
// prefix and advances the final choice, so every combination of
// choices is produced exactly once.
//
// The machine tests use it to generate every small term heap shape,
// cyclic ones included, and check the traversal invariants over all
// of them.
package enum

import "fmt"

// A Space records the choice tree explored so far.
type Space struct {
	// MaxDepth bounds the number of choices along one path. Zero
	// means DefaultMaxDepth.
	MaxDepth int

	widths []int
	path   []int
	step   int
}

// DefaultMaxDepth is the path bound used when MaxDepth is zero.
const DefaultMaxDepth = 64

func (s *Space) maxDepth() int {
	if s.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return s.MaxDepth
}

// Reset forgets all explored paths.
func (s *Space) Reset() {
	s.widths = s.widths[:0]
	s.path = s.path[:0]
	s.step = 0
}

// Choose returns a value in [0, n). While replaying a previously
// explored prefix it returns the recorded value and checks that the
// builder asked for the same width; past the prefix it extends the
// path with choice zero. At the depth bound it pins the choice to
// zero so every path stays finite.
func (s *Space) Choose(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("enum: Choose(%d)", n))
	}
	if s.step < len(s.path) {
		if n != s.widths[s.step] {
			panic(fmt.Sprintf("enum: nondeterministic builder: Choose(%d) during replay of Choose(%d)", n, s.widths[s.step]))
		}
		res := s.path[s.step]
		s.step++
		return res
	}
	if len(s.path) >= s.maxDepth() {
		return 0
	}
	s.widths = append(s.widths, n)
	s.path = append(s.path, 0)
	s.step++
	return 0
}

// Next advances to the next unexplored path. It returns false when
// the space is exhausted.
func (s *Space) Next() bool {
	s.step = 0
	for i := len(s.path) - 1; i >= 0; i-- {
		s.path[i]++
		if s.path[i] < s.widths[i] {
			break
		}
		s.path = s.path[:len(s.path)-1]
	}
	s.widths = s.widths[:len(s.path)]
	return len(s.widths) > 0
}

// Run calls build once per path until the space is exhausted and
// returns the number of paths explored.
func Run(s *Space, build func(*Space)) int {
	s.Reset()
	n := 0
	for {
		n++
		s.step = 0
		build(s)
		if !s.Next() {
			return n
		}
	}
}
