// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptcost

import (
	"errors"
)

// errUnderflow is signalled by stack operations which demand more items than
// the stack holds.  The symbolic executor converts it into an Underflow
// warning on the estimate and stops.
var errUnderflow = errors.New("size stack underflow")

// sizeStack mirrors the data stack of a script interpreter while tracking
// only the byte length of each item rather than its contents.  The top of
// the stack is the most recent push.  A running total of all item sizes is
// maintained so the current stack byte usage is available in constant time.
type sizeStack struct {
	sizes      []uint64
	totalBytes uint64
}

// Depth returns the number of items on the stack.
func (s *sizeStack) Depth() int {
	return len(s.sizes)
}

// TotalBytes returns the summed size of every item on the stack.
func (s *sizeStack) TotalBytes() uint64 {
	return s.totalBytes
}

// PushSize adds an item of the given byte size to the top of the stack.
//
// Stack transformation: [... x1 x2] -> [... x1 x2 sz]
func (s *sizeStack) PushSize(sz uint64) {
	s.sizes = append(s.sizes, sz)
	s.totalBytes += sz
}

// PopSize removes the item from the top of the stack and returns its size.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2]
func (s *sizeStack) PopSize() (uint64, error) {
	depth := len(s.sizes)
	if depth == 0 {
		return 0, errUnderflow
	}

	sz := s.sizes[depth-1]
	s.sizes = s.sizes[:depth-1]
	s.totalBytes -= sz
	return sz, nil
}

// PeekSize returns the size of the item idx items down the stack without
// removing it.  The top of the stack is idx 0.
func (s *sizeStack) PeekSize(idx int) (uint64, error) {
	depth := len(s.sizes)
	if idx < 0 || idx >= depth {
		return 0, errUnderflow
	}

	return s.sizes[depth-idx-1], nil
}

// DupTop duplicates the top item of the stack.
//
// Stack transformation: [... x1 x2] -> [... x1 x2 x2]
func (s *sizeStack) DupTop() error {
	sz, err := s.PeekSize(0)
	if err != nil {
		return err
	}

	s.PushSize(sz)
	return nil
}

// SwapTopTwo exchanges the top two items of the stack.
//
// Stack transformation: [... x1 x2] -> [... x2 x1]
func (s *sizeStack) SwapTopTwo() error {
	depth := len(s.sizes)
	if depth < 2 {
		return errUnderflow
	}

	s.sizes[depth-1], s.sizes[depth-2] = s.sizes[depth-2], s.sizes[depth-1]
	return nil
}

// RotTopThree rotates the top three items of the stack to the left.
//
// Stack transformation: [... x1 x2 x3] -> [... x2 x3 x1]
func (s *sizeStack) RotTopThree() error {
	depth := len(s.sizes)
	if depth < 3 {
		return errUnderflow
	}

	s.sizes[depth-3], s.sizes[depth-2], s.sizes[depth-1] =
		s.sizes[depth-2], s.sizes[depth-1], s.sizes[depth-3]
	return nil
}

// PickN pushes a copy of the item idx items down the stack onto the top.
//
// Stack transformation:
// PickN(0): [x1 x2 x3] -> [x1 x2 x3 x3]
// PickN(1): [x1 x2 x3] -> [x1 x2 x3 x2]
// PickN(2): [x1 x2 x3] -> [x1 x2 x3 x1]
func (s *sizeStack) PickN(idx int) error {
	sz, err := s.PeekSize(idx)
	if err != nil {
		return err
	}

	s.PushSize(sz)
	return nil
}

// RollN removes the item idx items down the stack and pushes it onto the
// top.
//
// Stack transformation:
// RollN(0): [x1 x2 x3] -> [x1 x2 x3]
// RollN(1): [x1 x2 x3] -> [x1 x3 x2]
// RollN(2): [x1 x2 x3] -> [x2 x3 x1]
func (s *sizeStack) RollN(idx int) error {
	depth := len(s.sizes)
	if idx < 0 || idx >= depth {
		return errUnderflow
	}

	pos := depth - idx - 1
	sz := s.sizes[pos]
	s.sizes = append(s.sizes[:pos], s.sizes[pos+1:]...)
	s.sizes = append(s.sizes, sz)
	return nil
}

// CombineTopTwo pops the top two items and pushes a single item whose size is
// their sum, returning the combined size.  This models concatenation.
//
// Stack transformation: [... x1 x2] -> [... x1x2]
func (s *sizeStack) CombineTopTwo() (uint64, error) {
	depth := len(s.sizes)
	if depth < 2 {
		return 0, errUnderflow
	}

	combined := s.sizes[depth-1] + s.sizes[depth-2]
	s.sizes = s.sizes[:depth-2]
	s.sizes = append(s.sizes, combined)
	return combined, nil
}

// copy returns an independent deep copy of the stack.  It is used to
// snapshot the stack at conditional branch points.
func (s *sizeStack) copy() *sizeStack {
	cp := &sizeStack{
		sizes:      make([]uint64, len(s.sizes)),
		totalBytes: s.totalBytes,
	}
	copy(cp.sizes, s.sizes)
	return cp
}
