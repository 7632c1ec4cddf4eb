// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package costmodel provides loadable, versionable CPU cost models for script
opcodes.

A cost model maps opcode mnemonics to parametric cycle-count formulas along
with a pair of global constants covering per-opcode dispatch overhead and
per-byte parsing overhead.  Models are produced by an external
micro-benchmark harness that fits the coefficients against measured cycle
counts on a particular machine, and are stored as JSON documents so new
hardware profiles can be deployed without recompiling consumers.

A Model is immutable once constructed and is safe for concurrent use by
multiple goroutines without additional synchronization.
*/
package costmodel
