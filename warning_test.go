// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptcost

import (
	"testing"
)

// TestWarningCodeStringer tests the stringized output for the WarningCode
// type.
func TestWarningCodeStringer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   WarningCode
		want string
	}{
		{WarnScriptTooLarge, "WarnScriptTooLarge"},
		{WarnOpcodeLimitExceeded, "WarnOpcodeLimitExceeded"},
		{WarnCycleLimitExceeded, "WarnCycleLimitExceeded"},
		{WarnStackBytesExceeded, "WarnStackBytesExceeded"},
		{WarnStackItemsExceeded, "WarnStackItemsExceeded"},
		{WarnUnderflow, "WarnUnderflow"},
		{WarnTruncatedPush, "WarnTruncatedPush"},
		{WarnBranchStackMismatch, "WarnBranchStackMismatch"},
		{WarnUnbalancedConditional, "WarnUnbalancedConditional"},
		{WarnUnknownOpcode, "WarnUnknownOpcode"},
		{WarnConservativeDepth, "WarnConservativeDepth"},
		{0xffff, "Unknown WarningCode (65535)"},
	}

	// Detect additional warning codes that don't have the stringer added.
	if len(tests)-1 != int(numWarningCodes) {
		t.Errorf("It appears a warning code was added without adding "+
			"an associated stringer test: got %d, want %d",
			len(tests)-1, int(numWarningCodes))
	}

	for i, test := range tests {
		result := test.in.String()
		if result != test.want {
			t.Errorf("String #%d\n got: %s want: %s", i, result,
				test.want)
		}
	}
}

// TestWarningString ensures a Warning prints as its description.
func TestWarningString(t *testing.T) {
	t.Parallel()

	w := warning(WarnUnderflow, "OP_DUP requires more items than the 0 " +
		"on the stack")
	if w.String() != w.Description {
		t.Errorf("Warning stringer: got %q want %q", w.String(),
			w.Description)
	}
}
