// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Tool estimatecost loads a cost model, deserializes a raw transaction, and
// prints the predicted CPU cost of validating one of its inputs.
package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btclog"
	flags "github.com/jessevdk/go-flags"
	"github.com/jrick/logrotate/rotator"

	"github.com/bsvsuite/scriptcost"
	"github.com/bsvsuite/scriptcost/costmodel"
	"github.com/bsvsuite/scriptcost/coststore"
)

type config struct {
	Model         string `short:"m" long:"model" description:"Path to the cost model JSON file; when omitted, model.json in the application data directory is used, or the builtin default model if that file does not exist"`
	Tx            string `long:"tx" description:"Raw transaction as inline hex"`
	TxFile        string `long:"txfile" description:"File containing the raw transaction hex"`
	InputIndex    int    `short:"i" long:"input" description:"Index of the transaction input to estimate"`
	PrevScript    string `long:"prevscript" description:"Hex of the locking script of the spent output"`
	StatsDB       string `long:"statsdb" description:"Optional path of a prediction log database to record the estimate in"`
	CyclesPerUnit uint64 `long:"cyclesperunit" default:"100000" description:"Cycles per fee unit used for the fee conversion"`
	DebugLevel    string `short:"d" long:"debuglevel" default:"info" description:"Logging level {trace, debug, info, warn, error, critical}"`
	LogFile       string `long:"logfile" description:"Optional rotated log file"`

	MaxScriptSize    uint64 `long:"maxscriptsize" default:"100000000" description:"Maximum combined script size in bytes"`
	MaxStackItems    uint32 `long:"maxstackitems" default:"10000" description:"Maximum number of stack items"`
	MaxStackItemSize uint64 `long:"maxstackitemsize" default:"100000000" description:"Maximum size of a single stack item in bytes"`
	MaxOpcodeCount   uint32 `long:"maxopcodecount" default:"1000000" description:"Maximum number of opcodes to execute"`
	MaxTotalCycles   uint64 `long:"maxtotalcycles" default:"10000000000" description:"Ceiling on the accumulated cycle total"`
}

// logRotator is non-nil when a log file was requested.
var logRotator *rotator.Rotator

// logWriter duplicates log output to stdout and, when configured, the
// rotated log file.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// setupLogging wires btclog into every package at the requested level.
func setupLogging(cfg *config) error {
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w",
				err)
		}
		r, err := rotator.New(cfg.LogFile, 10*1024, false, 3)
		if err != nil {
			return fmt.Errorf("failed to create log rotator: %w",
				err)
		}
		logRotator = r
	}

	level, ok := btclog.LevelFromString(cfg.DebugLevel)
	if !ok {
		return fmt.Errorf("invalid debug level %q", cfg.DebugLevel)
	}

	backend := btclog.NewBackend(logWriter{})
	for _, use := range []func(btclog.Logger){
		scriptcost.UseLogger,
		costmodel.UseLogger,
		coststore.UseLogger,
	} {
		logger := backend.Logger("COST")
		logger.SetLevel(level)
		use(logger)
	}
	return nil
}

// loadModel loads the configured model file, substituting the builtin
// default model when no file was configured and the conventional location
// does not exist.
func loadModel(cfg *config) (*costmodel.Model, error) {
	path := cfg.Model
	explicit := path != ""
	if !explicit {
		path = filepath.Join(btcutil.AppDataDir("scriptcost", false),
			"model.json")
	}

	model, err := costmodel.LoadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return costmodel.DefaultModel(), nil
		}
		return nil, err
	}
	return model, nil
}

// loadTx decodes the transaction from the inline hex or the hex file.
func loadTx(cfg *config) (*wire.MsgTx, error) {
	txHex := cfg.Tx
	if txHex == "" {
		if cfg.TxFile == "" {
			return nil, errors.New("either --tx or --txfile is " +
				"required")
		}
		raw, err := os.ReadFile(cfg.TxFile)
		if err != nil {
			return nil, err
		}
		txHex = string(raw)
	}
	txHex = strings.TrimSpace(txHex)

	serialized, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, fmt.Errorf("malformed transaction hex: %w", err)
	}

	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(serialized)); err != nil {
		return nil, fmt.Errorf("malformed transaction: %w", err)
	}
	return &tx, nil
}

func realMain() error {
	cfg := config{}
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	if err := setupLogging(&cfg); err != nil {
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	model, err := loadModel(&cfg)
	if err != nil {
		return err
	}

	tx, err := loadTx(&cfg)
	if err != nil {
		return err
	}
	if cfg.InputIndex < 0 || cfg.InputIndex >= len(tx.TxIn) {
		return fmt.Errorf("input index %d out of range for a "+
			"transaction with %d inputs", cfg.InputIndex,
			len(tx.TxIn))
	}

	pkScript, err := hex.DecodeString(strings.TrimSpace(cfg.PrevScript))
	if err != nil {
		return fmt.Errorf("malformed previous output script hex: %w",
			err)
	}
	sigScript := tx.TxIn[cfg.InputIndex].SignatureScript

	limits := scriptcost.Limits{
		MaxScriptSize:    cfg.MaxScriptSize,
		MaxStackItems:    cfg.MaxStackItems,
		MaxStackItemSize: cfg.MaxStackItemSize,
		MaxOpcodeCount:   cfg.MaxOpcodeCount,
		MaxTotalCycles:   cfg.MaxTotalCycles,
	}

	estimator := scriptcost.New(model)
	est, err := estimator.EstimateWithLimits(sigScript, pkScript, tx,
		cfg.InputIndex, limits)
	if err != nil {
		return err
	}

	printEstimate(estimator, est, cfg.CyclesPerUnit)

	if cfg.StatsDB != "" {
		store, err := coststore.Open(cfg.StatsDB)
		if err != nil {
			return err
		}
		defer store.Close()

		key := coststore.ScriptKey(sigScript, pkScript)
		rec := coststore.NewRecord(estimator.ProfileID(), est)
		if err := store.Put(key, rec); err != nil {
			return err
		}
	}

	return nil
}

func printEstimate(estimator *scriptcost.Estimator,
	est *scriptcost.CostEstimate, cyclesPerUnit uint64) {

	w := os.Stdout
	fmt.Fprintf(w, "Profile:          %s\n", estimator.ProfileID())
	if info := estimator.HardwareInfo(); info != "" {
		fmt.Fprintf(w, "Hardware:         %s\n", info)
	}
	fmt.Fprintf(w, "Total cycles:     %d\n", est.TotalCycles)
	fmt.Fprintf(w, "  parsing:        %d\n", est.Breakdown.Parsing)
	fmt.Fprintf(w, "  dispatch:       %d\n", est.Breakdown.Dispatch)
	fmt.Fprintf(w, "  stack ops:      %d\n", est.Breakdown.StackOps)
	fmt.Fprintf(w, "  byte ops:       %d\n", est.Breakdown.ByteOps)
	fmt.Fprintf(w, "  hashing:        %d\n", est.Breakdown.Hashing)
	fmt.Fprintf(w, "  signatures:     %d\n", est.Breakdown.Signatures)
	fmt.Fprintf(w, "  control flow:   %d\n", est.Breakdown.ControlFlow)
	fmt.Fprintf(w, "  other:          %d\n", est.Breakdown.Other)
	fmt.Fprintf(w, "Opcodes:          %d\n", est.OpcodeCount)
	fmt.Fprintf(w, "Signatures:       %d\n", est.SignatureCount)
	fmt.Fprintf(w, "Peak stack:       %d items, %d bytes\n",
		est.PeakStackItems, est.PeakStackBytes)
	fmt.Fprintf(w, "Fee:              %f\n", est.ToFee(cyclesPerUnit))
	for _, warn := range est.Warnings {
		fmt.Fprintf(w, "Warning:          %s\n", warn)
	}
}

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
