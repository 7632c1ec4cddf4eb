// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptcost

import (
	"github.com/btcsuite/btcd/wire"
)

// SigHashType represents hash type bits at the end of a signature.
type SigHashType uint32

// Hash type bits from the end of a signature.
const (
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	// sigHashMask defines which bits of the hash type identify the base
	// type once the modifier flags are masked off.
	sigHashMask = 0x1f
)

// PreimageSize returns the number of bytes of the signature hash preimage a
// signature opcode would assemble for the given transaction input under the
// given hash type.  It performs no hashing and no serialization; it only
// sums the lengths of the covered sections, making it suitable for cost
// estimation over transactions whose scripts may be very large.
//
// The transaction is only read and idx must be a valid input index.
func PreimageSize(tx *wire.MsgTx, idx int, hashType SigHashType) uint64 {
	anyOneCanPay := hashType&SigHashAnyOneCanPay != 0

	// Version, locktime, and the appended 32-bit hash type.
	size := uint64(4 + 4 + 4)

	// Inputs section.  Each covered input contributes its outpoint, a
	// one-byte script length, the signature script itself, and the
	// sequence.  A one-byte input count precedes the section.
	if anyOneCanPay {
		size += 1 + 36 + 1 + uint64(len(tx.TxIn[idx].SignatureScript)) + 4
	} else {
		size++
		for _, txIn := range tx.TxIn {
			size += 36 + 1 + uint64(len(txIn.SignatureScript)) + 4
		}
	}

	// Outputs section, selected by the base hash type.  A one-byte output
	// count always contributes.
	switch hashType & sigHashMask {
	case SigHashNone:
		size++

	case SigHashSingle:
		size++
		if idx < len(tx.TxOut) {
			size += 8 + 1 + uint64(len(tx.TxOut[idx].PkScript))
		}

	default:
		// SigHashAll and unrecognized base types cover every output.
		size++
		for _, txOut := range tx.TxOut {
			size += 8 + 1 + uint64(len(txOut.PkScript))
		}
	}

	return size
}
