// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package scriptcost predicts the CPU cost of executing the scripts attached
to a transaction input without running an interpreter.

Script execution time on an unbounded-size chain is dominated by data sizes:
scripts may be megabytes and individual stack items hundreds of megabytes.
Rather than evaluating values, the estimator symbolically executes the
concatenated unlocking and locking scripts, tracking only the byte length of
every stack item.  Each opcode is charged through a loadable cost model
(package costmodel) whose per-opcode formulas are fitted by an external
micro-benchmark harness, so predictions can be recalibrated for new hardware
without recompiling.

The prediction is designed to be a deterministic, conservative upper bound
rather than an exact figure: conditional arms are both executed and their
costs summed, unknown operands are replaced by worst cases, and unknown
opcodes fall back to a flat conservative charge.  Hard resource limits bound
every estimation in time and memory even on adversarial inputs; breaching a
limit stops the walk and surfaces a warning on the returned estimate instead
of failing the call.

Estimates break the cycle total down by category (parsing, dispatch, stack,
byte, hashing, signature, and control flow operations), report peak stack
usage and signature counts, and convert to a fee figure at a configurable
cycles-per-unit divisor.  Miners and wallets use these results as a fee
oracle and as an admission control gate.

An Estimator holds only an immutable cost model and may be shared freely
across goroutines; every call owns its own working state.
*/
package scriptcost
