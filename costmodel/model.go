// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package costmodel

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Default values applied to model files which do not specify the associated
// fields.  The numbers are the coefficients the original calibration harness
// ships with and are intentionally coarse since any serious deployment fits
// its own profile.
const (
	// DefaultDispatchCost is the per-opcode decode and dispatch overhead in
	// cycles.
	DefaultDispatchCost = 5.0

	// DefaultParsePerByteCost is the per-byte script parsing overhead in
	// cycles, charged once over the total script length.
	DefaultParsePerByteCost = 0.8

	// DefaultECDSACost is the cost of a single ECDSA signature
	// verification in cycles.
	DefaultECDSACost = 85000.0

	// DefaultPreimagePerByteCost is the per-byte cost of hashing a
	// signature hash preimage.
	DefaultPreimagePerByteCost = 2.5

	// DefaultKeyScanCost is the per-pubkey scan cost the builtin model
	// applies to multisig keys which are not paired with a checked
	// signature.  A model file which omits c_keyscan gets zero.
	DefaultKeyScanCost = 150.0

	// DefaultMultisigSetupCost is the fixed setup overhead of a multisig
	// check in the builtin model.  A model file which omits c_setup gets
	// zero.
	DefaultMultisigSetupCost = 300.0

	// UnknownOpcodeCost is the conservative flat cost, in cycles, assigned
	// to any opcode the model has no formula for.
	UnknownOpcodeCost = 100

	// defaultProfileID is used when a model file does not carry a profile
	// identifier.
	defaultProfileID = "unknown"
)

// FormulaKind identifies which parametric cost formula an opcode uses.
type FormulaKind int

// The available cost formula kinds.
const (
	// KindConstant is a flat cost: c0.
	KindConstant FormulaKind = iota

	// KindLinear scales with a byte size n: c0 + c1*n + c_alloc.
	KindLinear

	// KindSignature covers single signature checks:
	// c_ecdsa + c_preimage_per_byte*preimage.
	KindSignature

	// KindMultisig covers m-of-n signature checks:
	// m*(c_ecdsa + c_preimage_per_byte*preimage) + (n-m)*c_keyscan + c_setup.
	KindMultisig
)

// formulaKindStrings maps each formula kind to the identifier used for it in
// the model file format.
var formulaKindStrings = map[FormulaKind]string{
	KindConstant:  "constant",
	KindLinear:    "linear",
	KindSignature: "signature",
	KindMultisig:  "multisig",
}

// String returns the FormulaKind as the identifier used in model files.
func (k FormulaKind) String() string {
	if s, ok := formulaKindStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("Unknown FormulaKind (%d)", int(k))
}

// Formula holds the fitted coefficients of a single opcode cost formula.
// Only the coefficients relevant to the Kind are consulted during
// evaluation.
type Formula struct {
	Kind            FormulaKind
	C0              float64
	C1              float64
	CAlloc          float64
	CECDSA          float64
	CPreimagePerByte float64
	CKeyScan        float64
	CSetup          float64
}

// Params carries the size figures an evaluation supplies to a formula.  The
// zero value is valid and yields the formula's constant portion.
type Params struct {
	// N is the byte-size parameter consumed by linear formulas.
	N uint64

	// PreimageSize is the signature hash preimage size in bytes consumed
	// by signature and multisig formulas.
	PreimageSize uint64

	// NumSigs and NumKeys are the m and n of a multisig formula.
	NumSigs uint64
	NumKeys uint64
}

// cycles truncates a formula result toward zero and clamps it so every
// formula produces a non-negative integer.
func cycles(v float64) uint64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return uint64(v)
}

// Eval evaluates the formula against the supplied parameters and returns the
// resulting cycle count.  Results are truncated toward zero and never
// negative.
func (f *Formula) Eval(params Params) uint64 {
	switch f.Kind {
	case KindConstant:
		return cycles(f.C0)

	case KindLinear:
		n := float64(params.N)
		return cycles(f.C0 + f.C1*n + f.CAlloc)

	case KindSignature:
		preimage := float64(params.PreimageSize)
		return cycles(f.CECDSA + f.CPreimagePerByte*preimage)

	case KindMultisig:
		m := float64(params.NumSigs)
		n := float64(params.NumKeys)
		if n < m {
			n = m
		}
		preimage := float64(params.PreimageSize)
		return cycles(m*(f.CECDSA+f.CPreimagePerByte*preimage) +
			(n-m)*f.CKeyScan + f.CSetup)
	}

	return UnknownOpcodeCost
}

// Model is an immutable mapping from opcode mnemonics to cost formulas plus
// the global dispatch and parsing constants.  A Model is constructed once
// from a model file and may then be shared freely across goroutines; it has
// no mutator API.
type Model struct {
	profileID     string
	hardwareInfo  string
	cDispatch     float64
	cParsePerByte float64
	formulas      map[string]Formula
}

// ProfileID returns the identifier of the hardware profile the model was
// fitted for.
func (m *Model) ProfileID() string {
	return m.profileID
}

// HardwareInfo returns the free-form hardware description recorded in the
// model file, if any.
func (m *Model) HardwareInfo() string {
	return m.hardwareInfo
}

// GlobalConstants returns the per-opcode dispatch overhead and the per-byte
// parsing overhead, both in cycles.
func (m *Model) GlobalConstants() (cDispatch, cParsePerByte float64) {
	return m.cDispatch, m.cParsePerByte
}

// Formula returns the cost formula for the given opcode mnemonic and whether
// the model defines one.
func (m *Model) Formula(opcodeName string) (Formula, bool) {
	f, ok := m.formulas[opcodeName]
	return f, ok
}

// NumFormulas returns the number of opcode formulas the model defines.
func (m *Model) NumFormulas() int {
	return len(m.formulas)
}

// CostOf returns the cycle cost of the named opcode under the supplied
// parameters.  Opcodes the model has no formula for are assigned the
// conservative flat UnknownOpcodeCost.
func (m *Model) CostOf(opcodeName string, params Params) uint64 {
	f, ok := m.formulas[opcodeName]
	if !ok {
		return UnknownOpcodeCost
	}
	return f.Eval(params)
}

// modelJSON is the on-disk representation of a cost model.  Optional numeric
// fields use pointers so absent fields can be distinguished from explicit
// zeros and given their documented defaults.
type modelJSON struct {
	ProfileID    string                `json:"profile_id"`
	HardwareInfo string                `json:"hardware_info,omitempty"`
	Constants    *constantsJSON        `json:"constants,omitempty"`
	Opcodes      map[string]opcodeJSON `json:"opcodes,omitempty"`
}

type constantsJSON struct {
	CDispatch     *float64 `json:"c_dispatch,omitempty"`
	CParsePerByte *float64 `json:"c_parse_per_byte,omitempty"`
}

type opcodeJSON struct {
	Model            string   `json:"model"`
	C0               *float64 `json:"c0,omitempty"`
	C1               *float64 `json:"c1,omitempty"`
	CAlloc           *float64 `json:"c_alloc,omitempty"`
	CECDSA           *float64 `json:"c_ecdsa,omitempty"`
	CPreimagePerByte *float64 `json:"c_preimage_per_byte,omitempty"`
	CKeyScan         *float64 `json:"c_keyscan,omitempty"`
	CSetup           *float64 `json:"c_setup,omitempty"`
}

// valueOr dereferences an optional model file field, substituting the given
// default when the field is absent.
func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// decodeFormula converts a single opcode entry from its file representation,
// applying the documented defaults for absent coefficients.
func decodeFormula(name string, enc opcodeJSON) (Formula, error) {
	var f Formula
	switch enc.Model {
	case "constant":
		f.Kind = KindConstant
		f.C0 = valueOr(enc.C0, 0)

	case "linear":
		f.Kind = KindLinear
		f.C0 = valueOr(enc.C0, 0)
		f.C1 = valueOr(enc.C1, 0)
		f.CAlloc = valueOr(enc.CAlloc, 0)

	case "signature":
		f.Kind = KindSignature
		f.CECDSA = valueOr(enc.CECDSA, DefaultECDSACost)
		f.CPreimagePerByte = valueOr(enc.CPreimagePerByte,
			DefaultPreimagePerByteCost)

	case "multisig":
		f.Kind = KindMultisig
		f.CECDSA = valueOr(enc.CECDSA, DefaultECDSACost)
		f.CPreimagePerByte = valueOr(enc.CPreimagePerByte,
			DefaultPreimagePerByteCost)
		f.CKeyScan = valueOr(enc.CKeyScan, 0)
		f.CSetup = valueOr(enc.CSetup, 0)

	default:
		return f, fmt.Errorf("opcode %q: unrecognized model type %q",
			name, enc.Model)
	}

	return f, nil
}

// Load constructs a Model from the JSON document read from r.  The source
// string identifies the document in diagnostics.
func Load(r io.Reader, source string) (*Model, error) {
	var enc modelJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&enc); err != nil {
		return nil, fmt.Errorf("cost model %s: malformed JSON: %w",
			source, err)
	}

	m := &Model{
		profileID:     enc.ProfileID,
		hardwareInfo:  enc.HardwareInfo,
		cDispatch:     DefaultDispatchCost,
		cParsePerByte: DefaultParsePerByteCost,
		formulas:      make(map[string]Formula, len(enc.Opcodes)),
	}
	if m.profileID == "" {
		m.profileID = defaultProfileID
	}
	if enc.Constants != nil {
		m.cDispatch = valueOr(enc.Constants.CDispatch,
			DefaultDispatchCost)
		m.cParsePerByte = valueOr(enc.Constants.CParsePerByte,
			DefaultParsePerByteCost)
	}

	for name, opEnc := range enc.Opcodes {
		f, err := decodeFormula(name, opEnc)
		if err != nil {
			return nil, fmt.Errorf("cost model %s: %w", source, err)
		}
		m.formulas[name] = f
	}

	log.Debugf("Loaded cost model %q (%d opcode formulas)", m.profileID,
		len(m.formulas))
	return m, nil
}

// LoadFile constructs a Model from the JSON document at the given path.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cost model %s: %w", path, err)
	}
	defer f.Close()

	return Load(f, path)
}

// encodeFormula converts a formula back to its file representation.  All
// coefficients relevant to the kind are written explicitly so a serialized
// model reloads to an identical in-memory model regardless of which defaults
// originally applied.
func encodeFormula(f Formula) opcodeJSON {
	fp := func(v float64) *float64 { return &v }
	enc := opcodeJSON{Model: f.Kind.String()}
	switch f.Kind {
	case KindConstant:
		enc.C0 = fp(f.C0)
	case KindLinear:
		enc.C0 = fp(f.C0)
		enc.C1 = fp(f.C1)
		enc.CAlloc = fp(f.CAlloc)
	case KindSignature:
		enc.CECDSA = fp(f.CECDSA)
		enc.CPreimagePerByte = fp(f.CPreimagePerByte)
	case KindMultisig:
		enc.CECDSA = fp(f.CECDSA)
		enc.CPreimagePerByte = fp(f.CPreimagePerByte)
		enc.CKeyScan = fp(f.CKeyScan)
		enc.CSetup = fp(f.CSetup)
	}
	return enc
}

// Marshal serializes the model to the documented JSON file format.  The
// output is deterministic and round-trips through Load to an identical
// model.
func (m *Model) Marshal() ([]byte, error) {
	cDispatch, cParsePerByte := m.cDispatch, m.cParsePerByte
	enc := modelJSON{
		ProfileID:    m.profileID,
		HardwareInfo: m.hardwareInfo,
		Constants: &constantsJSON{
			CDispatch:     &cDispatch,
			CParsePerByte: &cParsePerByte,
		},
		Opcodes: make(map[string]opcodeJSON, len(m.formulas)),
	}
	for name, f := range m.formulas {
		enc.Opcodes[name] = encodeFormula(f)
	}

	return json.MarshalIndent(&enc, "", "  ")
}

// SaveFile serializes the model and writes it to the given path.
func (m *Model) SaveFile(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cost model %s: %w", path, err)
	}
	return nil
}

// New constructs a Model directly from formulas and constants.  It is
// intended for calibration tooling and tests; ordinary consumers load models
// from files.  The formulas map is copied.
func New(profileID, hardwareInfo string, cDispatch, cParsePerByte float64,
	formulas map[string]Formula) *Model {

	cp := make(map[string]Formula, len(formulas))
	for name, f := range formulas {
		cp[name] = f
	}
	return &Model{
		profileID:     profileID,
		hardwareInfo:  hardwareInfo,
		cDispatch:     cDispatch,
		cParsePerByte: cParsePerByte,
		formulas:      cp,
	}
}

// DefaultModel returns a built-in model carrying the coarse baseline
// coefficients.  It allows the estimator to run without an external model
// file, at the price of accuracy on any particular machine.
func DefaultModel() *Model {
	return New("builtin-default", "", DefaultDispatchCost,
		DefaultParsePerByteCost, map[string]Formula{
			"OP_DUP":  {Kind: KindLinear, C0: 12, C1: 0.05, CAlloc: 40},
			"OP_SWAP": {Kind: KindConstant, C0: 8},
			"OP_ROT":  {Kind: KindConstant, C0: 12},
			"OP_PICK": {Kind: KindLinear, C0: 15, C1: 0.05, CAlloc: 40},
			"OP_ROLL": {Kind: KindLinear, C0: 15, C1: 0.4},
			"OP_CAT": {Kind: KindLinear, C0: 20, C1: 0.1,
				CAlloc: 60},
			"OP_SPLIT": {Kind: KindLinear, C0: 20, C1: 0.1,
				CAlloc: 120},
			"OP_NUM2BIN": {Kind: KindLinear, C0: 25, C1: 0.1,
				CAlloc: 60},
			"OP_BIN2NUM": {Kind: KindLinear, C0: 25, C1: 0.1},
			"OP_RIPEMD160": {Kind: KindLinear, C0: 400, C1: 4.0,
				CAlloc: 40},
			"OP_SHA1": {Kind: KindLinear, C0: 350, C1: 3.0,
				CAlloc: 40},
			"OP_SHA256": {Kind: KindLinear, C0: 400, C1: 3.0,
				CAlloc: 40},
			"OP_HASH160": {Kind: KindLinear, C0: 800, C1: 3.0,
				CAlloc: 40},
			"OP_HASH256": {Kind: KindLinear, C0: 800, C1: 6.0,
				CAlloc: 40},
			"OP_CHECKSIG":       {Kind: KindSignature, CECDSA: DefaultECDSACost, CPreimagePerByte: DefaultPreimagePerByteCost},
			"OP_CHECKSIGVERIFY": {Kind: KindSignature, CECDSA: DefaultECDSACost, CPreimagePerByte: DefaultPreimagePerByteCost},
			"OP_CHECKMULTISIG": {Kind: KindMultisig,
				CECDSA:           DefaultECDSACost,
				CPreimagePerByte: DefaultPreimagePerByteCost,
				CKeyScan:         DefaultKeyScanCost,
				CSetup:           DefaultMultisigSetupCost},
			"OP_CHECKMULTISIGVERIFY": {Kind: KindMultisig,
				CECDSA:           DefaultECDSACost,
				CPreimagePerByte: DefaultPreimagePerByteCost,
				CKeyScan:         DefaultKeyScanCost,
				CSetup:           DefaultMultisigSetupCost},
			"OP_IF":    {Kind: KindConstant, C0: 10},
			"OP_NOTIF": {Kind: KindConstant, C0: 10},
			"OP_ELSE":  {Kind: KindConstant, C0: 6},
			"OP_ENDIF": {Kind: KindConstant, C0: 4},
		})
}
