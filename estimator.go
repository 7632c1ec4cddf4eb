// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptcost

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"

	"github.com/bsvsuite/scriptcost/costmodel"
)

var (
	// ErrNilTransaction is returned if a nil transaction is passed to an
	// estimation call.
	ErrNilTransaction = errors.New("transaction is nil")

	// ErrInvalidIndex is returned if an out-of-range input index was
	// passed to an estimation call.
	ErrInvalidIndex = errors.New("transaction input index out of range")
)

// defaultMultisigKeys is the pubkey count assumed for an OP_CHECKMULTISIG
// whose key count cannot be read from a preceding literal push.
const defaultMultisigKeys = 3

// Estimator predicts the CPU cost of executing the scripts attached to a
// transaction input without running an interpreter.  It walks the
// concatenated unlocking and locking scripts once, tracking only the byte
// sizes of stack items, and asks its cost model for a cycle figure per
// opcode.
//
// An Estimator holds a read-only reference to its cost model and carries no
// per-call state, so a single instance may be shared by any number of
// concurrent estimation calls.  It is intentionally not copyable by value;
// construct it with New and pass the pointer around.
type Estimator struct {
	model *costmodel.Model
}

// New returns an Estimator backed by the given cost model.  The model is
// borrowed read-only for the lifetime of the estimator.
func New(model *costmodel.Model) *Estimator {
	return &Estimator{model: model}
}

// ProfileID returns the identifier of the hardware profile the underlying
// cost model was fitted for.
func (e *Estimator) ProfileID() string {
	return e.model.ProfileID()
}

// HardwareInfo returns the free-form hardware description recorded in the
// underlying cost model, if any.
func (e *Estimator) HardwareInfo() string {
	return e.model.HardwareInfo()
}

// Estimate predicts the cost of validating the given transaction input under
// the default limits.  The unlocking script is the spender-supplied
// signature script of the input; the locking script is the public key script
// of the output it spends.
//
// The returned estimate may carry warnings; see CostEstimate.  The only
// error conditions are a nil transaction and an input index which is out of
// range for it.
func (e *Estimator) Estimate(sigScript, pkScript []byte, tx *wire.MsgTx,
	idx int) (*CostEstimate, error) {

	return e.EstimateWithLimits(sigScript, pkScript, tx, idx,
		DefaultLimits())
}

// EstimateWithLimits predicts the cost of validating the given transaction
// input, bounding the estimation by the given limits instead of the
// defaults.
func (e *Estimator) EstimateWithLimits(sigScript, pkScript []byte,
	tx *wire.MsgTx, idx int, limits Limits) (*CostEstimate, error) {

	if tx == nil {
		return nil, ErrNilTransaction
	}
	if idx < 0 || idx >= len(tx.TxIn) {
		return nil, ErrInvalidIndex
	}

	cDispatch, cParsePerByte := e.model.GlobalConstants()
	eng := engine{
		model:         e.model,
		limits:        limits,
		tx:            tx,
		inputIndex:    idx,
		est:           new(CostEstimate),
		stack:         new(sizeStack),
		dispatchCost:  uint64(cDispatch),
		cParsePerByte: cParsePerByte,
		prevLiteral:   -1,
	}
	eng.run(sigScript, pkScript)

	log.Tracef("%v", newLogClosure(func() string {
		return spew.Sdump(eng.est)
	}))
	return eng.est, nil
}

// condFrame tracks one nesting level of conditional execution.  The snapshot
// holds the stack as it was when the OP_IF executed so the else arm can be
// evaluated from the same starting state, and thenArm holds the stack the
// first arm produced once an OP_ELSE transfers control.
type condFrame struct {
	snapshot *sizeStack
	thenArm  *sizeStack
	seenElse bool
}

// engine carries the state of a single symbolic execution.  A fresh engine
// is built per estimation call; nothing in it is shared.
type engine struct {
	model         *costmodel.Model
	limits        Limits
	tx            *wire.MsgTx
	inputIndex    int
	est           *CostEstimate
	stack         *sizeStack
	condStack     []condFrame
	dispatchCost  uint64
	cParsePerByte float64

	// prevLiteral is the numeric value of the immediately preceding
	// opcode when it was a literal push whose value is directly readable,
	// or -1 when no such literal precedes.  It supplies the depth operand
	// of OP_PICK and OP_ROLL and the key count of OP_CHECKMULTISIG.
	prevLiteral int64

	// preimage caches the signature hash preimage size for the input
	// once the first signature opcode asks for it.
	preimage     uint64
	havePreimage bool

	// seenUnknown tracks which opcode values have already produced an
	// UnknownOpcode warning so the warning stream stays bounded on
	// adversarial scripts.
	seenUnknown [256]bool

	stop bool
}

// charge adds the given cycles to the breakdown category and the running
// total.
func (e *engine) charge(category *uint64, cycles uint64) {
	*category += cycles
	e.est.TotalCycles += cycles
}

// warnf appends a formatted warning to the estimate.
func (e *engine) warnf(code WarningCode, format string, args ...interface{}) {
	e.est.Warnings = append(e.est.Warnings,
		warning(code, fmt.Sprintf(format, args...)))
}

// haltf appends a formatted warning and stops the execution.
func (e *engine) haltf(code WarningCode, format string, args ...interface{}) {
	e.warnf(code, format, args...)
	e.stop = true
}

// underflow stops the execution with an Underflow warning naming the
// offending opcode.
func (e *engine) underflow(op *opcode) {
	e.haltf(WarnUnderflow, "%s requires more items than the %d on the "+
		"stack", op.name, e.stack.Depth())
}

// pushSize places a new item on the stack and enforces the per-item size
// limit.  Items which merely copy or move existing stack entries do not need
// the check since their sizes were validated when first created.
func (e *engine) pushSize(sz uint64) {
	e.stack.PushSize(sz)
	if sz > e.limits.MaxStackItemSize {
		e.haltf(WarnStackBytesExceeded, "stack item of %d bytes "+
			"exceeds the item size limit of %d", sz,
			e.limits.MaxStackItemSize)
	}
}

// costOf asks the cost model for the cycle figure of the named opcode under
// the given parameters.
func (e *engine) costOf(op *opcode, params costmodel.Params) uint64 {
	return e.model.CostOf(op.name, params)
}

// preimageSize returns the signature hash preimage size a signature opcode
// verifying this input would hash, computing it on first use.
func (e *engine) preimageSize() uint64 {
	if !e.havePreimage {
		e.preimage = PreimageSize(e.tx, e.inputIndex, SigHashAll)
		e.havePreimage = true
	}
	return e.preimage
}

// run symbolically executes the concatenation of the unlocking and locking
// scripts, accumulating costs, peak metrics, and warnings into the engine's
// estimate.
func (e *engine) run(sigScript, pkScript []byte) {
	totalLen := uint64(len(sigScript)) + uint64(len(pkScript))
	if totalLen > e.limits.MaxScriptSize {
		e.warnf(WarnScriptTooLarge, "combined script of %d bytes "+
			"exceeds the size limit of %d", totalLen,
			e.limits.MaxScriptSize)
		return
	}

	// The scripts execute as a single logical stream, so a push declared
	// near the end of the unlocking script may consume bytes of the
	// locking script.
	combined := make([]byte, 0, totalLen)
	combined = append(combined, sigScript...)
	combined = append(combined, pkScript...)

	e.charge(&e.est.Breakdown.Parsing,
		uint64(e.cParsePerByte*float64(totalLen)))

	tokenizer := makeScriptTokenizer(combined)
	for !e.stop && tokenizer.next() {
		op := tokenizer.opcode()
		data := tokenizer.payload()

		e.est.OpcodeCount++
		if e.est.OpcodeCount > e.limits.MaxOpcodeCount {
			e.haltf(WarnOpcodeLimitExceeded, "opcode count "+
				"exceeds the limit of %d",
				e.limits.MaxOpcodeCount)
			break
		}

		e.charge(&e.est.Breakdown.Dispatch, e.dispatchCost)

		log.Tracef("%v", newLogClosure(func() string {
			return fmt.Sprintf("stepping %s @ %d (stack: %d "+
				"items, %d bytes)", op.name,
				tokenizer.byteIndex(), e.stack.Depth(),
				e.stack.TotalBytes())
		}))

		e.executeOpcode(op, data)
		e.trackLiteral(op, data)

		if depth := uint32(e.stack.Depth()); depth > e.est.PeakStackItems {
			e.est.PeakStackItems = depth
		}
		if bytes := e.stack.TotalBytes(); bytes > e.est.PeakStackBytes {
			e.est.PeakStackBytes = bytes
		}

		if e.stop {
			break
		}
		if uint32(e.stack.Depth()) > e.limits.MaxStackItems {
			e.haltf(WarnStackItemsExceeded, "stack of %d items "+
				"exceeds the item count limit of %d",
				e.stack.Depth(), e.limits.MaxStackItems)
			break
		}
		if e.est.TotalCycles > e.limits.MaxTotalCycles {
			e.haltf(WarnCycleLimitExceeded, "cycle total %d "+
				"exceeds the ceiling of %d", e.est.TotalCycles,
				e.limits.MaxTotalCycles)
			break
		}
	}

	if tokenizer.truncated() && !e.stop {
		e.haltf(WarnTruncatedPush, "%s declares a payload extending "+
			"past the end of the script",
			tokenizer.opcode().name)
	}
	if !e.stop && len(e.condStack) > 0 {
		e.warnf(WarnUnbalancedConditional, "%d conditional(s) left "+
			"open at the end of the script", len(e.condStack))
	}
}

// trackLiteral records whether the opcode which just executed is a literal
// push whose numeric value can be read without tracking stack contents.
// Such literals supply operands to the opcodes which consume a number from
// the stack.
func (e *engine) trackLiteral(op *opcode, data []byte) {
	switch {
	case op.value == OP_0:
		e.prevLiteral = 0
	case op.value >= OP_1 && op.value <= OP_16:
		e.prevLiteral = int64(op.value-OP_1) + 1
	case op.value == OP_DATA_1 && data[0] < OP_PUSHDATA1:
		e.prevLiteral = int64(data[0])
	default:
		e.prevLiteral = -1
	}
}

// depthOperand resolves the stack depth operand of OP_PICK and OP_ROLL
// after the operand item itself has been popped.  When the operand was not
// supplied by a readable literal, the worst-case depth is substituted and a
// warning documents the substitution.
func (e *engine) depthOperand(op *opcode) (int, bool) {
	depth := e.stack.Depth()
	if depth == 0 {
		e.underflow(op)
		return 0, false
	}
	if e.prevLiteral >= 0 {
		d := int(e.prevLiteral)
		if d >= depth {
			e.underflow(op)
			return 0, false
		}
		return d, true
	}

	e.warnf(WarnConservativeDepth, "%s depth operand is not a readable "+
		"literal; assuming worst-case depth %d", op.name, depth-1)
	return depth - 1, true
}

// executeOpcode applies the stack effect of a single opcode and charges its
// cost into the matching breakdown category.  Opcodes with no modelled
// semantics leave the stack untouched and charge the conservative fallback.
func (e *engine) executeOpcode(op *opcode, data []byte) {
	bd := &e.est.Breakdown

	if op.isPush() {
		sz := uint64(len(data))
		if op.value == OP_1NEGATE ||
			(op.value >= OP_1 && op.value <= OP_16) {
			sz = 1
		}
		e.pushSize(sz)
		return
	}

	switch op.value {
	case OP_DUP:
		sz, err := e.stack.PeekSize(0)
		if err != nil {
			e.underflow(op)
			return
		}
		e.stack.DupTop()
		e.charge(&bd.StackOps, e.costOf(op, costmodel.Params{N: sz}))

	case OP_SWAP:
		if err := e.stack.SwapTopTwo(); err != nil {
			e.underflow(op)
			return
		}
		e.charge(&bd.StackOps, e.costOf(op, costmodel.Params{}))

	case OP_ROT:
		s0, err0 := e.stack.PeekSize(0)
		s1, err1 := e.stack.PeekSize(1)
		s2, err2 := e.stack.PeekSize(2)
		if err0 != nil || err1 != nil || err2 != nil {
			e.underflow(op)
			return
		}
		e.stack.RotTopThree()
		e.charge(&bd.StackOps, e.costOf(op,
			costmodel.Params{N: s0 + s1 + s2}))

	case OP_PICK:
		if _, err := e.stack.PopSize(); err != nil {
			e.underflow(op)
			return
		}
		d, ok := e.depthOperand(op)
		if !ok {
			return
		}
		sz, _ := e.stack.PeekSize(d)
		e.stack.PickN(d)
		e.charge(&bd.StackOps, e.costOf(op, costmodel.Params{N: sz}))

	case OP_ROLL:
		if _, err := e.stack.PopSize(); err != nil {
			e.underflow(op)
			return
		}
		d, ok := e.depthOperand(op)
		if !ok {
			return
		}
		e.stack.RollN(d)
		e.charge(&bd.StackOps, e.costOf(op,
			costmodel.Params{N: uint64(d)}))

	case OP_CAT:
		combined, err := e.stack.CombineTopTwo()
		if err != nil {
			e.underflow(op)
			return
		}
		if combined > e.limits.MaxStackItemSize {
			e.haltf(WarnStackBytesExceeded, "stack item of %d "+
				"bytes exceeds the item size limit of %d",
				combined, e.limits.MaxStackItemSize)
			return
		}
		e.charge(&bd.ByteOps, e.costOf(op,
			costmodel.Params{N: combined}))

	case OP_SPLIT:
		sz, err := e.stack.PopSize()
		if err != nil {
			e.underflow(op)
			return
		}
		// The split point is unknown without value tracking, so the
		// first part is assumed to take the whole input.
		e.pushSize(sz)
		e.pushSize(0)
		e.charge(&bd.ByteOps, e.costOf(op, costmodel.Params{N: sz}))

	case OP_NUM2BIN:
		if _, err := e.stack.PopSize(); err != nil {
			e.underflow(op)
			return
		}
		numSz, err := e.stack.PopSize()
		if err != nil {
			e.underflow(op)
			return
		}
		e.pushSize(numSz)
		e.charge(&bd.ByteOps, e.costOf(op,
			costmodel.Params{N: numSz}))

	case OP_BIN2NUM:
		sz, err := e.stack.PopSize()
		if err != nil {
			e.underflow(op)
			return
		}
		numSz := sz
		if numSz > 8 {
			numSz = 8
		}
		e.pushSize(numSz)
		e.charge(&bd.ByteOps, e.costOf(op, costmodel.Params{N: sz}))

	case OP_RIPEMD160, OP_SHA1, OP_HASH160:
		e.hashOpcode(op, 20)

	case OP_SHA256, OP_HASH256:
		e.hashOpcode(op, 32)

	case OP_CHECKSIG, OP_CHECKSIGVERIFY:
		if _, err := e.stack.PopSize(); err != nil {
			e.underflow(op)
			return
		}
		if _, err := e.stack.PopSize(); err != nil {
			e.underflow(op)
			return
		}
		e.charge(&bd.Signatures, e.costOf(op,
			costmodel.Params{PreimageSize: e.preimageSize()}))
		e.est.SignatureCount++
		if op.value == OP_CHECKSIG {
			e.pushSize(1)
		}

	case OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY:
		e.checkMultiSig(op)

	case OP_IF, OP_NOTIF:
		if _, err := e.stack.PopSize(); err != nil {
			e.underflow(op)
			return
		}
		e.condStack = append(e.condStack, condFrame{
			snapshot: e.stack.copy(),
		})
		e.charge(&bd.ControlFlow, e.costOf(op, costmodel.Params{}))

	case OP_ELSE:
		if len(e.condStack) == 0 {
			e.haltf(WarnUnbalancedConditional,
				"%s with no matching OP_IF", op.name)
			return
		}
		frame := &e.condStack[len(e.condStack)-1]
		if frame.seenElse {
			e.haltf(WarnUnbalancedConditional,
				"second %s in a conditional", op.name)
			return
		}
		frame.thenArm = e.stack
		frame.seenElse = true
		e.stack = frame.snapshot.copy()
		e.charge(&bd.ControlFlow, e.costOf(op, costmodel.Params{}))

	case OP_ENDIF:
		if len(e.condStack) == 0 {
			e.haltf(WarnUnbalancedConditional,
				"%s with no matching OP_IF", op.name)
			return
		}
		frame := e.condStack[len(e.condStack)-1]
		e.condStack = e.condStack[:len(e.condStack)-1]
		e.joinBranches(frame)
		e.charge(&bd.ControlFlow, e.costOf(op, costmodel.Params{}))

	default:
		// No modelled semantics.  The stack is left untouched and the
		// model's figure for the opcode, or the conservative fallback
		// when it has none, lands in the other bucket.
		if !e.seenUnknown[op.value] {
			e.seenUnknown[op.value] = true
			e.warnf(WarnUnknownOpcode, "%s has no modelled "+
				"semantics; charging fallback cost", op.name)
		}
		e.charge(&bd.Other, e.costOf(op, costmodel.Params{}))
	}
}

// hashOpcode applies the common stack effect of the hash opcodes: the input
// item is replaced by a digest of the given size, and the cost scales with
// the input size.
func (e *engine) hashOpcode(op *opcode, digestSize uint64) {
	sz, err := e.stack.PopSize()
	if err != nil {
		e.underflow(op)
		return
	}
	e.pushSize(digestSize)
	e.charge(&e.est.Breakdown.Hashing, e.costOf(op,
		costmodel.Params{N: sz}))
}

// checkMultiSig applies the stack effect and cost of the multisig opcodes.
// The pubkey count is read from the immediately preceding literal push when
// one exists; otherwise a conservative default applies.  Without value
// tracking the signature count is unknowable, so it is assumed equal to the
// key count, which bounds the real cost from above.
func (e *engine) checkMultiSig(op *opcode) {
	numKeys := uint64(defaultMultisigKeys)
	if e.prevLiteral >= 0 {
		numKeys = uint64(e.prevLiteral)
	} else {
		e.warnf(WarnConservativeDepth, "%s key count is not a "+
			"readable literal; assuming %d keys", op.name,
			numKeys)
	}
	numSigs := numKeys

	// Pops: the key count, the keys, the signature count, the
	// signatures, and the extra dummy item the opcode historically
	// consumes.
	pops := 1 + numKeys + 1 + numSigs + 1
	if uint64(e.stack.Depth()) < pops {
		e.underflow(op)
		return
	}
	for i := uint64(0); i < pops; i++ {
		e.stack.PopSize()
	}

	e.charge(&e.est.Breakdown.Signatures, e.costOf(op, costmodel.Params{
		NumSigs:      numSigs,
		NumKeys:      numKeys,
		PreimageSize: e.preimageSize(),
	}))
	e.est.SignatureCount += uint32(numSigs)
	if op.value == OP_CHECKMULTISIG {
		e.pushSize(1)
	}
}

// joinBranches reconciles the stack at an OP_ENDIF.  Both arms were executed
// and charged, so only the stack shape needs resolving: the arms are
// expected to leave the same item count, and when they diverge the larger
// stack wins so later costs stay bounded from above.
func (e *engine) joinBranches(frame condFrame) {
	other := frame.snapshot
	if frame.seenElse {
		other = frame.thenArm
	}

	if other.Depth() != e.stack.Depth() {
		e.warnf(WarnBranchStackMismatch, "conditional arms leave %d "+
			"and %d stack items; keeping the larger",
			other.Depth(), e.stack.Depth())
		if other.Depth() > e.stack.Depth() {
			e.stack = other
		}
		return
	}
	if other.TotalBytes() > e.stack.TotalBytes() {
		e.stack = other
	}
}
