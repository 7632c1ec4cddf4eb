// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package coststore persists cost predictions for offline analysis.

The cost model coefficients consumed by the estimator are fitted by an
external micro-benchmark harness against measured cycle counts.  Keeping a
log of the predictions the estimator actually makes, keyed by the scripts
they were made for, lets that harness join predictions against measurements
and refit coefficients when hardware changes.

Records are stored in a leveldb database keyed by the double-SHA256 of the
concatenated unlocking and locking scripts.
*/
package coststore
