// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptcost

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/bsvsuite/scriptcost/costmodel"
)

// testFormulas holds deliberately simple coefficients so expected cycle
// figures can be computed by hand.
var testFormulas = map[string]costmodel.Formula{
	"OP_DUP":     {Kind: costmodel.KindLinear, C0: 10, C1: 1},
	"OP_SWAP":    {Kind: costmodel.KindConstant, C0: 8},
	"OP_ROT":     {Kind: costmodel.KindConstant, C0: 12},
	"OP_PICK":    {Kind: costmodel.KindLinear, C0: 15, C1: 1},
	"OP_ROLL":    {Kind: costmodel.KindLinear, C0: 15, C1: 2},
	"OP_CAT":     {Kind: costmodel.KindLinear, C0: 20, C1: 1},
	"OP_SPLIT":   {Kind: costmodel.KindLinear, C0: 20, C1: 1},
	"OP_NUM2BIN": {Kind: costmodel.KindLinear, C0: 25, C1: 1},
	"OP_BIN2NUM": {Kind: costmodel.KindLinear, C0: 25, C1: 1},
	"OP_SHA256":  {Kind: costmodel.KindLinear, C0: 400, C1: 3},
	"OP_CHECKSIG": {Kind: costmodel.KindSignature, CECDSA: 85000,
		CPreimagePerByte: 2.5},
	"OP_CHECKSIGVERIFY": {Kind: costmodel.KindSignature, CECDSA: 85000,
		CPreimagePerByte: 2.5},
	"OP_CHECKMULTISIG": {Kind: costmodel.KindMultisig, CECDSA: 85000,
		CPreimagePerByte: 2.5, CKeyScan: 150, CSetup: 300},
	"OP_CHECKMULTISIGVERIFY": {Kind: costmodel.KindMultisig, CECDSA: 85000,
		CPreimagePerByte: 2.5, CKeyScan: 150, CSetup: 300},
	"OP_IF":    {Kind: costmodel.KindConstant, C0: 10},
	"OP_NOTIF": {Kind: costmodel.KindConstant, C0: 10},
	"OP_ELSE":  {Kind: costmodel.KindConstant, C0: 6},
	"OP_ENDIF": {Kind: costmodel.KindConstant, C0: 4},
}

// newTestModel returns a model with a dispatch cost of 5 cycles, a parsing
// cost of 0.8 cycles per byte, and the hand-checkable opcode formulas above.
func newTestModel(t *testing.T) *costmodel.Model {
	t.Helper()
	return costmodel.New("test-profile", "", 5, 0.8, testFormulas)
}

// newTestTx returns a transaction with a single input carrying a 106 byte
// signature script and a single output carrying a 25 byte locking script.
//
// The signature hash preimage of input 0 under the all hash type is
// 4+4+4 + 1 + (36+1+106+4) + 1 + (8+1+25) = 195 bytes, so each single
// signature check in the test model costs 85000 + 2.5*195 = 85487 cycles and
// each checked multisig signature the same.
func newTestTx() *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(&wire.TxIn{SignatureScript: make([]byte, 106)})
	tx.AddTxOut(&wire.TxOut{PkScript: make([]byte, 25)})
	return tx
}

// warningCodes extracts the codes of an estimate's warnings in emission
// order.
func warningCodes(est *CostEstimate) []WarningCode {
	var codes []WarningCode
	for _, w := range est.Warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

// requireBreakdownAddsUp asserts the category sums equal the cycle total.
func requireBreakdownAddsUp(t *testing.T, est *CostEstimate) {
	t.Helper()

	bd := est.Breakdown
	sum := bd.Parsing + bd.Dispatch + bd.StackOps + bd.ByteOps +
		bd.Hashing + bd.Signatures + bd.ControlFlow + bd.Other
	require.Equal(t, est.TotalCycles, sum, "breakdown does not add up")
}

// TestEstimateScenarios runs hand-computed scripts through the estimator and
// checks the full resulting estimate.
func TestEstimateScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string        // test description
		sigScript      []byte        // unlocking script
		pkScript       []byte        // locking script
		wantTotal      uint64        // expected cycle total
		wantBreakdown  Breakdown     // expected per-category totals
		wantOpcodes    uint32        // expected executed opcode count
		wantSigs       uint32        // expected signature count
		wantPeakItems  uint32        // expected peak stack depth
		wantPeakBytes  uint64        // expected peak stack bytes
		wantWarnings   []WarningCode // expected warning codes in order
	}{{
		name:      "empty scripts",
		sigScript: nil,
		pkScript:  nil,
	}, {
		name:      "push and dup",
		sigScript: []byte{0x01, 0xaa},
		pkScript:  []byte{OP_DUP},
		// parsing 0.8*3=2, dispatch 2*5, OP_DUP 10+1*1.
		wantTotal: 23,
		wantBreakdown: Breakdown{
			Parsing: 2, Dispatch: 10, StackOps: 11,
		},
		wantOpcodes:   2,
		wantPeakItems: 2,
		wantPeakBytes: 2,
	}, {
		name: "cat",
		sigScript: append(append([]byte{0x08}, make([]byte, 8)...),
			append([]byte{0x0c}, make([]byte, 12)...)...),
		pkScript: []byte{OP_CAT},
		// parsing 0.8*23=18, dispatch 3*5, OP_CAT 20+1*20.
		wantTotal: 73,
		wantBreakdown: Breakdown{
			Parsing: 18, Dispatch: 15, ByteOps: 40,
		},
		wantOpcodes:   3,
		wantPeakItems: 2,
		wantPeakBytes: 20,
	}, {
		name:      "split",
		sigScript: append([]byte{0x0a}, make([]byte, 10)...),
		pkScript:  []byte{OP_SPLIT},
		// parsing 0.8*12=9, dispatch 2*5, OP_SPLIT 20+1*10.
		wantTotal: 49,
		wantBreakdown: Breakdown{
			Parsing: 9, Dispatch: 10, ByteOps: 30,
		},
		wantOpcodes:   2,
		wantPeakItems: 2,
		wantPeakBytes: 10,
	}, {
		name: "repeated hashing",
		sigScript: append([]byte{OP_PUSHDATA1, 100},
			make([]byte, 100)...),
		pkScript: []byte{OP_SHA256, OP_SHA256, OP_SHA256},
		// parsing 0.8*105=84, dispatch 4*5, hashing (400+3*100) +
		// 2*(400+3*32).
		wantTotal: 1796,
		wantBreakdown: Breakdown{
			Parsing: 84, Dispatch: 20, Hashing: 1692,
		},
		wantOpcodes:   4,
		wantPeakItems: 1,
		wantPeakBytes: 100,
	}, {
		name:      "checksig",
		sigScript: []byte{0x01, 0xaa, 0x01, 0xbb},
		pkScript:  []byte{OP_CHECKSIG},
		// parsing 0.8*5=4, dispatch 3*5, signature 85000+2.5*195.
		wantTotal: 85506,
		wantBreakdown: Breakdown{
			Parsing: 4, Dispatch: 15, Signatures: 85487,
		},
		wantOpcodes:   3,
		wantSigs:      1,
		wantPeakItems: 2,
		wantPeakBytes: 2,
	}, {
		name: "checkmultisig with literal key count",
		sigScript: []byte{
			0x01, 0xaa, 0x01, 0xaa, 0x01, 0xaa, 0x01, 0xaa,
		},
		pkScript: []byte{OP_1, OP_CHECKMULTISIG},
		// parsing 0.8*10=8, dispatch 6*5, multisig
		// 1*(85000+2.5*195) + 300.
		wantTotal: 85825,
		wantBreakdown: Breakdown{
			Parsing: 8, Dispatch: 30, Signatures: 85787,
		},
		wantOpcodes:   6,
		wantSigs:      1,
		wantPeakItems: 5,
		wantPeakBytes: 5,
	}, {
		name: "checkmultisig without literal key count",
		sigScript: []byte{
			0x01, 0xaa, 0x01, 0xaa, 0x01, 0xaa,
			0x01, 0xaa, 0x01, 0xaa, 0x01, 0xaa,
			0x01, 0xaa, 0x01, 0xaa, 0x01, 0xaa,
		},
		pkScript: []byte{OP_CHECKMULTISIG},
		// parsing 0.8*19=15, dispatch 10*5, multisig
		// 3*(85000+2.5*195) + 300 = 256762 with the assumed three
		// keys.
		wantTotal: 256827,
		wantBreakdown: Breakdown{
			Parsing: 15, Dispatch: 50, Signatures: 256762,
		},
		wantOpcodes:   10,
		wantSigs:      3,
		wantPeakItems: 9,
		wantPeakBytes: 9,
		wantWarnings:  []WarningCode{WarnConservativeDepth},
	}, {
		name:      "pick with literal depth",
		sigScript: []byte{0x01, 0xaa, 0x01, 0xbb},
		pkScript:  []byte{OP_0, OP_PICK},
		// parsing 0.8*6=4, dispatch 4*5, OP_PICK 15+1*1.
		wantTotal: 40,
		wantBreakdown: Breakdown{
			Parsing: 4, Dispatch: 20, StackOps: 16,
		},
		wantOpcodes:   4,
		wantPeakItems: 3,
		wantPeakBytes: 3,
	}, {
		name:      "pick without literal depth",
		sigScript: []byte{0x01, 0xaa, 0x01, 0xbb},
		pkScript:  []byte{OP_DUP, OP_PICK},
		// parsing 0.8*6=4, dispatch 4*5, OP_DUP 10+1, OP_PICK 15+1
		// against the assumed worst-case depth.
		wantTotal: 51,
		wantBreakdown: Breakdown{
			Parsing: 4, Dispatch: 20, StackOps: 27,
		},
		wantOpcodes:   4,
		wantPeakItems: 3,
		wantPeakBytes: 3,
		wantWarnings:  []WarningCode{WarnConservativeDepth},
	}, {
		name:      "both conditional arms charged",
		sigScript: []byte{OP_1},
		pkScript: []byte{
			OP_IF, 0x03, 0x01, 0x02, 0x03, OP_ELSE, 0x01, 0xaa,
			OP_ENDIF, OP_SHA256,
		},
		// parsing 0.8*11=8, dispatch 7*5, control flow 10+6+4, and
		// hashing against the larger surviving arm: 400+3*3.
		wantTotal: 472,
		wantBreakdown: Breakdown{
			Parsing: 8, Dispatch: 35, ControlFlow: 20,
			Hashing: 409,
		},
		wantOpcodes:   7,
		wantPeakItems: 1,
		wantPeakBytes: 32,
	}, {
		name:      "conditional arms leave different depths",
		sigScript: []byte{OP_1},
		pkScript: []byte{
			OP_IF, 0x01, 0xaa, 0x01, 0xbb, OP_ELSE, 0x01, 0xcc,
			OP_ENDIF,
		},
		// parsing 0.8*10=8, dispatch 7*5, control flow 10+6+4.
		wantTotal: 63,
		wantBreakdown: Breakdown{
			Parsing: 8, Dispatch: 35, ControlFlow: 20,
		},
		wantOpcodes:   7,
		wantPeakItems: 2,
		wantPeakBytes: 2,
		wantWarnings:  []WarningCode{WarnBranchStackMismatch},
	}, {
		name:      "else without matching if",
		sigScript: nil,
		pkScript:  []byte{OP_ELSE},
		// parsing 0.8*1=0, dispatch 5, no charge for the halting
		// opcode itself.
		wantTotal: 5,
		wantBreakdown: Breakdown{
			Dispatch: 5,
		},
		wantOpcodes:  1,
		wantWarnings: []WarningCode{WarnUnbalancedConditional},
	}, {
		name:      "conditional left open",
		sigScript: []byte{OP_1},
		pkScript:  []byte{OP_IF},
		// parsing 0.8*2=1, dispatch 2*5, control flow 10.
		wantTotal: 21,
		wantBreakdown: Breakdown{
			Parsing: 1, Dispatch: 10, ControlFlow: 10,
		},
		wantOpcodes:   2,
		wantPeakItems: 1,
		wantPeakBytes: 1,
		wantWarnings:  []WarningCode{WarnUnbalancedConditional},
	}, {
		name:      "underflow",
		sigScript: nil,
		pkScript:  []byte{OP_DUP},
		// parsing 0.8*1=0, dispatch 5, halted before any opcode
		// charge.
		wantTotal: 5,
		wantBreakdown: Breakdown{
			Dispatch: 5,
		},
		wantOpcodes:  1,
		wantWarnings: []WarningCode{WarnUnderflow},
	}, {
		name:      "truncated push",
		sigScript: nil,
		pkScript:  []byte{OP_PUSHDATA1, 0x05, 0x01},
		// parsing 0.8*3=2; the truncated push never executes.
		wantTotal: 2,
		wantBreakdown: Breakdown{
			Parsing: 2,
		},
		wantWarnings: []WarningCode{WarnTruncatedPush},
	}, {
		name:      "unknown opcode warned once",
		sigScript: nil,
		pkScript:  []byte{OP_NOP, OP_NOP},
		// parsing 0.8*2=1, dispatch 2*5, fallback 2*100.
		wantTotal: 211,
		wantBreakdown: Breakdown{
			Parsing: 1, Dispatch: 10, Other: 200,
		},
		wantOpcodes:  2,
		wantWarnings: []WarningCode{WarnUnknownOpcode},
	}}

	estimator := New(newTestModel(t))
	tx := newTestTx()
	for _, test := range tests {
		est, err := estimator.Estimate(test.sigScript, test.pkScript,
			tx, 0)
		require.NoError(t, err, test.name)

		require.Equal(t, test.wantTotal, est.TotalCycles, test.name)
		require.Equal(t, test.wantBreakdown, est.Breakdown, test.name)
		require.Equal(t, test.wantOpcodes, est.OpcodeCount, test.name)
		require.Equal(t, test.wantSigs, est.SignatureCount, test.name)
		require.Equal(t, test.wantPeakItems, est.PeakStackItems,
			test.name)
		require.Equal(t, test.wantPeakBytes, est.PeakStackBytes,
			test.name)
		require.Equal(t, test.wantWarnings, warningCodes(est),
			test.name)
		requireBreakdownAddsUp(t, est)
	}
}

// TestEstimateDefaultModel runs canonical scripts through the builtin model
// and checks the figures its documented coefficients produce.
func TestEstimateDefaultModel(t *testing.T) {
	t.Parallel()

	estimator := New(costmodel.DefaultModel())
	tx := newTestTx()

	t.Run("dup on empty stack", func(t *testing.T) {
		est, err := estimator.Estimate(nil, []byte{OP_DUP}, tx, 0)
		require.NoError(t, err)
		// Dispatch 5 and no charge for the halted opcode.
		require.Equal(t, uint64(5), est.TotalCycles)
		require.Equal(t, uint32(1), est.OpcodeCount)
		require.Equal(t, []WarningCode{WarnUnderflow},
			warningCodes(est))
	})

	t.Run("push then dup", func(t *testing.T) {
		est, err := estimator.Estimate([]byte{0x01, 0xaa},
			[]byte{OP_DUP}, tx, 0)
		require.NoError(t, err)
		// parsing 0.8*3=2, dispatch 2*5, OP_DUP 12+0.05*1+40.
		require.Equal(t, uint64(64), est.TotalCycles)
		require.Equal(t, uint32(2), est.PeakStackItems)
		require.Equal(t, uint64(2), est.PeakStackBytes)
		require.Empty(t, est.Warnings)
	})

	t.Run("cat of two ten byte pushes", func(t *testing.T) {
		sigScript := append(append([]byte{0x0a}, make([]byte, 10)...),
			append([]byte{0x0a}, make([]byte, 10)...)...)
		est, err := estimator.Estimate(sigScript, []byte{OP_CAT}, tx, 0)
		require.NoError(t, err)
		// parsing 0.8*23=18, dispatch 3*5, OP_CAT 20+0.1*20+60.
		require.Equal(t, uint64(115), est.TotalCycles)
		require.Equal(t, uint64(82), est.Breakdown.ByteOps)
		require.Equal(t, uint64(20), est.PeakStackBytes)
		require.Empty(t, est.Warnings)
	})

	t.Run("triple sha256", func(t *testing.T) {
		sigScript := append([]byte{0x20}, make([]byte, 32)...)
		pkScript := []byte{OP_SHA256, OP_SHA256, OP_SHA256}
		est, err := estimator.Estimate(sigScript, pkScript, tx, 0)
		require.NoError(t, err)
		// parsing 0.8*36=28, dispatch 4*5, hashing 3*(400+3*32+40).
		require.Equal(t, uint64(1656), est.TotalCycles)
		require.Equal(t, uint64(1608), est.Breakdown.Hashing)
		require.Zero(t, est.SignatureCount)
		require.Equal(t, uint64(32), est.PeakStackBytes)
		require.Empty(t, est.Warnings)
	})

	t.Run("checksig", func(t *testing.T) {
		// A 71 byte signature push and a 33 byte pubkey push, matching
		// the 106 byte signature script of the test transaction's
		// input.
		sigScript := append(append([]byte{0x47}, make([]byte, 71)...),
			append([]byte{0x21}, make([]byte, 33)...)...)
		est, err := estimator.Estimate(sigScript,
			[]byte{OP_CHECKSIG}, tx, 0)
		require.NoError(t, err)
		// signatures 85000 + 2.5*195 against the 195 byte preimage.
		require.Equal(t, uint64(85487), est.Breakdown.Signatures)
		require.Equal(t, uint32(1), est.SignatureCount)
		require.Empty(t, est.Warnings)
		requireBreakdownAddsUp(t, est)
	})
}

// TestEstimateLimits exercises each estimation limit breach.
func TestEstimateLimits(t *testing.T) {
	t.Parallel()

	estimator := New(newTestModel(t))
	tx := newTestTx()

	t.Run("script too large", func(t *testing.T) {
		limits := DefaultLimits()
		limits.MaxScriptSize = 10

		est, err := estimator.EstimateWithLimits(make([]byte, 6),
			make([]byte, 5), tx, 0, limits)
		require.NoError(t, err)
		require.Equal(t, []WarningCode{WarnScriptTooLarge},
			warningCodes(est))
		require.Zero(t, est.TotalCycles)
		require.Zero(t, est.OpcodeCount)

		// Exactly at the limit is fine.
		est, err = estimator.EstimateWithLimits(make([]byte, 5),
			make([]byte, 5), tx, 0, limits)
		require.NoError(t, err)
		require.Empty(t, est.Warnings)
	})

	t.Run("stack item count", func(t *testing.T) {
		limits := DefaultLimits()
		limits.MaxStackItems = 2

		script := []byte{0x01, 0xaa, 0x01, 0xbb, 0x01, 0xcc}
		est, err := estimator.EstimateWithLimits(nil, script, tx, 0,
			limits)
		require.NoError(t, err)
		require.Equal(t, []WarningCode{WarnStackItemsExceeded},
			warningCodes(est))
		require.Equal(t, uint32(3), est.OpcodeCount)
		require.Equal(t, uint32(3), est.PeakStackItems)
	})

	t.Run("stack item size", func(t *testing.T) {
		limits := DefaultLimits()
		limits.MaxStackItemSize = 4

		script := append([]byte{0x05}, make([]byte, 5)...)
		est, err := estimator.EstimateWithLimits(nil, script, tx, 0,
			limits)
		require.NoError(t, err)
		require.Equal(t, []WarningCode{WarnStackBytesExceeded},
			warningCodes(est))
		require.Equal(t, uint64(5), est.PeakStackBytes)
	})

	t.Run("item size via concatenation", func(t *testing.T) {
		limits := DefaultLimits()
		limits.MaxStackItemSize = 5

		script := []byte{0x03, 0x01, 0x02, 0x03, 0x03, 0x04, 0x05,
			0x06, OP_CAT}
		est, err := estimator.EstimateWithLimits(nil, script, tx, 0,
			limits)
		require.NoError(t, err)
		require.Equal(t, []WarningCode{WarnStackBytesExceeded},
			warningCodes(est))
	})

	t.Run("opcode count", func(t *testing.T) {
		limits := DefaultLimits()
		limits.MaxOpcodeCount = 2

		script := []byte{0x01, 0xaa, 0x01, 0xbb, 0x01, 0xcc}
		est, err := estimator.EstimateWithLimits(nil, script, tx, 0,
			limits)
		require.NoError(t, err)
		require.Equal(t, []WarningCode{WarnOpcodeLimitExceeded},
			warningCodes(est))
		require.Equal(t, uint32(3), est.OpcodeCount)

		// The over-limit opcode is not dispatch charged.
		require.Equal(t, uint64(2*5), est.Breakdown.Dispatch)
	})

	t.Run("cycle ceiling", func(t *testing.T) {
		limits := DefaultLimits()
		limits.MaxTotalCycles = 10

		script := []byte{0x01, 0xaa, OP_SHA256}
		est, err := estimator.EstimateWithLimits(nil, script, tx, 0,
			limits)
		require.NoError(t, err)
		require.Equal(t, []WarningCode{WarnCycleLimitExceeded},
			warningCodes(est))
		require.Equal(t, uint32(2), est.OpcodeCount)
	})
}

// TestEstimateDeterminism ensures repeated estimation of the same input
// yields identical results.
func TestEstimateDeterminism(t *testing.T) {
	t.Parallel()

	estimator := New(newTestModel(t))
	tx := newTestTx()
	sigScript := []byte{0x01, 0xaa, 0x01, 0xbb}
	pkScript := []byte{OP_DUP, OP_SHA256, OP_SWAP, OP_CHECKSIG}

	first, err := estimator.Estimate(sigScript, pkScript, tx, 0)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := estimator.Estimate(sigScript, pkScript, tx, 0)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

// TestEstimateMonotonicity ensures doubling every model coefficient does not
// lower any estimate.
func TestEstimateMonotonicity(t *testing.T) {
	t.Parallel()

	doubled := make(map[string]costmodel.Formula, len(testFormulas))
	for name, f := range testFormulas {
		f.C0 *= 2
		f.C1 *= 2
		f.CAlloc *= 2
		f.CECDSA *= 2
		f.CPreimagePerByte *= 2
		f.CKeyScan *= 2
		f.CSetup *= 2
		doubled[name] = f
	}

	base := New(newTestModel(t))
	bigger := New(costmodel.New("test-profile-2x", "", 10, 1.6, doubled))

	tx := newTestTx()
	scripts := [][]byte{
		{OP_DUP},
		append(append([]byte{0x08}, make([]byte, 8)...), OP_SHA256),
		{0x01, 0xaa, 0x01, 0xbb, OP_CHECKSIG},
	}
	for _, script := range scripts {
		baseEst, err := base.Estimate(nil, script, tx, 0)
		require.NoError(t, err)
		biggerEst, err := bigger.Estimate(nil, script, tx, 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, biggerEst.TotalCycles,
			baseEst.TotalCycles)
	}
}

// TestEstimateAdditivity ensures appending an opcode adds exactly its own
// charges when the parsing charge is unchanged by the extra byte.
func TestEstimateAdditivity(t *testing.T) {
	t.Parallel()

	estimator := New(newTestModel(t))
	tx := newTestTx()
	sigScript := []byte{0x01, 0xaa, 0x01, 0xbb}

	base, err := estimator.Estimate(sigScript, []byte{OP_CHECKSIG}, tx, 0)
	require.NoError(t, err)
	extended, err := estimator.Estimate(sigScript,
		[]byte{OP_NOP, OP_CHECKSIG}, tx, 0)
	require.NoError(t, err)

	// One extra dispatch plus the fallback charge of the unmodelled
	// OP_NOP.
	require.Equal(t, base.TotalCycles+5+100, extended.TotalCycles)
	require.Equal(t, base.SignatureCount, extended.SignatureCount)
}

// TestEstimateErrors ensures argument validation of the estimation calls.
func TestEstimateErrors(t *testing.T) {
	t.Parallel()

	estimator := New(newTestModel(t))

	_, err := estimator.Estimate(nil, nil, nil, 0)
	require.ErrorIs(t, err, ErrNilTransaction)

	tx := newTestTx()
	_, err = estimator.Estimate(nil, nil, tx, -1)
	require.ErrorIs(t, err, ErrInvalidIndex)
	_, err = estimator.Estimate(nil, nil, tx, len(tx.TxIn))
	require.ErrorIs(t, err, ErrInvalidIndex)
}

// TestEstimatePushSpansScripts ensures a push declared at the end of the
// unlocking script consumes bytes of the locking script, since the two
// execute as one stream.
func TestEstimatePushSpansScripts(t *testing.T) {
	t.Parallel()

	estimator := New(newTestModel(t))
	tx := newTestTx()

	// The 3 byte push declared in the unlocking script takes its payload
	// from the locking script.
	est, err := estimator.Estimate([]byte{0x03}, []byte{0x01, 0x02, 0x03},
		tx, 0)
	require.NoError(t, err)
	require.Empty(t, est.Warnings)
	require.Equal(t, uint32(1), est.OpcodeCount)
	require.Equal(t, uint64(3), est.PeakStackBytes)
}

// TestEstimatorProfile ensures the estimator exposes its model's profile
// metadata.
func TestEstimatorProfile(t *testing.T) {
	t.Parallel()

	model := costmodel.New("ryzen-9950x", "AMD Ryzen 9 9950X", 5, 0.8, nil)
	estimator := New(model)
	require.Equal(t, "ryzen-9950x", estimator.ProfileID())
	require.Equal(t, "AMD Ryzen 9 9950X", estimator.HardwareInfo())
}
