// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptcost

// Default limit values applied when an estimation call does not override
// them.  They mirror the consensus-free safety rails of the calibration
// deployment: scripts and individual stack items may be up to 100MB.
const (
	// DefaultMaxScriptSize is the default maximum combined byte length of
	// the unlocking and locking scripts.
	DefaultMaxScriptSize = 100000000

	// DefaultMaxStackItems is the default maximum number of items the
	// symbolic stack may hold.
	DefaultMaxStackItems = 10000

	// DefaultMaxStackItemSize is the default maximum byte size of a single
	// stack item.
	DefaultMaxStackItemSize = 100000000

	// DefaultMaxOpcodeCount is the default maximum number of opcodes a
	// single estimation will execute.
	DefaultMaxOpcodeCount = 1000000

	// DefaultMaxTotalCycles is the default ceiling on the accumulated
	// cycle total.  It is a safety rail, not a model statement.
	DefaultMaxTotalCycles = 10000000000

	// DefaultCyclesPerUnit is the default divisor converting cycle counts
	// into fee units.
	DefaultCyclesPerUnit = 100000
)

// Limits bounds the resources a single estimation may consume.  Every field
// is a hard cap; any breach stops the estimation with a warning on the
// returned estimate.
type Limits struct {
	// MaxScriptSize is the maximum combined byte length of the unlocking
	// and locking scripts.
	MaxScriptSize uint64

	// MaxStackItems is the maximum number of items the symbolic stack may
	// hold.
	MaxStackItems uint32

	// MaxStackItemSize is the maximum byte size of a single stack item.
	MaxStackItemSize uint64

	// MaxOpcodeCount is the maximum number of opcodes to execute.
	MaxOpcodeCount uint32

	// MaxTotalCycles is the ceiling on the accumulated cycle total.
	MaxTotalCycles uint64
}

// DefaultLimits returns the default estimation limits.
func DefaultLimits() Limits {
	return Limits{
		MaxScriptSize:    DefaultMaxScriptSize,
		MaxStackItems:    DefaultMaxStackItems,
		MaxStackItemSize: DefaultMaxStackItemSize,
		MaxOpcodeCount:   DefaultMaxOpcodeCount,
		MaxTotalCycles:   DefaultMaxTotalCycles,
	}
}

// Breakdown attributes the accumulated cycle total to the cost categories of
// the model.  Every charge lands in exactly one category, so the category
// sums always add up to the estimate's TotalCycles.
type Breakdown struct {
	// Parsing is the per-byte script parsing overhead charged once over
	// the combined script length.
	Parsing uint64

	// Dispatch is the per-opcode decode and dispatch overhead.
	Dispatch uint64

	// StackOps covers stack manipulation opcodes such as OP_DUP, OP_SWAP,
	// OP_PICK, and OP_ROLL.
	StackOps uint64

	// ByteOps covers byte vector opcodes such as OP_CAT and OP_SPLIT.
	ByteOps uint64

	// Hashing covers the hash opcodes.
	Hashing uint64

	// Signatures covers the signature check opcodes.
	Signatures uint64

	// ControlFlow covers the conditional opcodes.
	ControlFlow uint64

	// Other collects the conservative fallback charges of opcodes with no
	// modelled semantics.
	Other uint64
}

// CostEstimate is the result of symbolically executing an input's scripts
// against a cost model.  A fresh value is produced per call; estimates share
// no state with each other or with the estimator that produced them.
//
// An estimate carrying warnings is still a valid result: the totals hold
// everything accumulated up to the point estimation stopped.  Callers treat
// warnings as a signal that the prediction is conservative or truncated, not
// that the transaction is invalid.
type CostEstimate struct {
	// TotalCycles is the predicted number of CPU cycles.
	TotalCycles uint64

	// Breakdown attributes TotalCycles to cost categories.
	Breakdown Breakdown

	// PeakStackBytes is the largest summed byte size the symbolic stack
	// reached during execution.
	PeakStackBytes uint64

	// PeakStackItems is the largest number of items the symbolic stack
	// held during execution.
	PeakStackItems uint32

	// SignatureCount is the number of signature verifications the scripts
	// would perform.
	SignatureCount uint32

	// OpcodeCount is the number of opcodes executed.
	OpcodeCount uint32

	// Warnings documents the conditions encountered during estimation in
	// the exact order of emission.
	Warnings []Warning
}

// ToFee converts the cycle total into a floating-point fee by dividing by
// the given number of cycles per fee unit.  DefaultCyclesPerUnit is the
// conventional divisor.
func (e *CostEstimate) ToFee(cyclesPerUnit uint64) float64 {
	return float64(e.TotalCycles) / float64(cyclesPerUnit)
}

// WarningStrings returns the descriptions of the accumulated warnings in
// emission order.
func (e *CostEstimate) WarningStrings() []string {
	strs := make([]string, len(e.Warnings))
	for i, w := range e.Warnings {
		strs[i] = w.Description
	}
	return strs
}
