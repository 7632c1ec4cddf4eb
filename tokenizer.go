// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptcost

import (
	"encoding/binary"
)

// scriptTokenizer provides a facility for easily and efficiently tokenizing
// a script without creating allocations.  Each successive opcode is parsed
// with the next function, which returns false when iteration is complete,
// either due to successfully tokenizing the entire script or encountering a
// push opcode whose declared payload extends past the end of the script.  In
// the latter case the truncated function reports true.
//
// Upon successfully parsing an opcode, its table entry and the payload bytes
// associated with it may be obtained via the opcode and payload functions.
// The payload is a subslice of the script; it is never copied.
type scriptTokenizer struct {
	script []byte
	offset int
	op     *opcode
	data   []byte
	short  bool
}

// makeScriptTokenizer returns a new instance of a script tokenizer over the
// passed script.
func makeScriptTokenizer(script []byte) scriptTokenizer {
	return scriptTokenizer{script: script}
}

// done returns true when either all opcodes have been exhausted or a
// truncated push was encountered.
func (t *scriptTokenizer) done() bool {
	return t.short || t.offset >= len(t.script)
}

// truncated returns whether tokenization stopped because a push opcode
// declared more payload bytes than the script has remaining.
func (t *scriptTokenizer) truncated() bool {
	return t.short
}

// next attempts to parse the next opcode and returns whether or not it was
// successful.  It will not be successful if invoked when already at the end
// of the script or when a truncated push was previously encountered.
//
// In the case of a true return, the parsed opcode and payload can be obtained
// with the associated functions and the offset into the script will either
// point to the next opcode or the end of the script if the final opcode was
// parsed.
//
// In the case of a false return due to a truncated push, the opcode function
// reports the offending push opcode and the truncated function reports true.
func (t *scriptTokenizer) next() bool {
	if t.done() {
		return false
	}

	op := &opcodeArray[t.script[t.offset]]
	switch {
	// No additional data.  Note that some of the opcodes, notably OP_1NEGATE
	// and OP_1 through OP_16, represent the pushed data themselves.
	case op.length == 1:
		t.offset++
		t.op = op
		t.data = nil
		return true

	// Data pushes of specific lengths -- OP_DATA_[1-75].
	case op.length > 1:
		script := t.script[t.offset:]
		if len(script) < op.length {
			t.op = op
			t.short = true
			return false
		}

		t.offset += op.length
		t.op = op
		t.data = script[1:op.length]
		return true

	// Data pushes with parsed lengths -- OP_PUSHDATA{1,2,4}.
	case op.length < 0:
		script := t.script[t.offset+1:]
		if len(script) < -op.length {
			t.op = op
			t.short = true
			return false
		}

		// Next -length bytes are little endian length of data.
		var dataLen int
		switch op.length {
		case -1:
			dataLen = int(script[0])
		case -2:
			dataLen = int(binary.LittleEndian.Uint16(script[:2]))
		case -4:
			dataLen = int(binary.LittleEndian.Uint32(script[:4]))
		}

		// Move to the beginning of the data.
		script = script[-op.length:]

		// Disallow entries that do not fit the script.
		if dataLen > len(script) {
			t.op = op
			t.short = true
			return false
		}

		t.offset += 1 + -op.length + dataLen
		t.op = op
		t.data = script[:dataLen]
		return true
	}

	// The only remaining case is an opcode with length zero which is
	// impossible.
	panic("unreachable")
}

// opcode returns the table entry of the most recently parsed opcode.
func (t *scriptTokenizer) opcode() *opcode {
	return t.op
}

// payload returns the payload bytes associated with the most recently
// successfully parsed push opcode.
func (t *scriptTokenizer) payload() []byte {
	return t.data
}

// byteIndex returns the current offset into the full script that will be
// parsed next and therefore also implies everything before it has already
// been parsed.
func (t *scriptTokenizer) byteIndex() int {
	return t.offset
}
