// Copyright (c) 2024 The bsvsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coststore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bsvsuite/scriptcost"
)

const (
	// recordVersion is the version of the on-disk record encoding.
	// Records carrying an unknown version fail to decode.
	recordVersion byte = 1

	// maxProfileIDLen bounds the profile identifier length a record may
	// carry.
	maxProfileIDLen = 255
)

var (
	// ErrNoRecord is returned by Get when no record exists under the
	// given script key.
	ErrNoRecord = errors.New("no record for script key")

	dbByteOrder = binary.BigEndian
)

// Record is one logged prediction.  The calibration harness joins these
// against measured cycle counts offline to refit model coefficients.
type Record struct {
	// ProfileID identifies the hardware profile of the model which
	// produced the prediction.
	ProfileID string

	// TotalCycles is the predicted cycle total.
	TotalCycles uint64

	// SignatureCount and OpcodeCount are the counters of the estimate.
	SignatureCount uint32
	OpcodeCount    uint32

	// PeakStackBytes and PeakStackItems are the peak stack metrics of the
	// estimate.
	PeakStackBytes uint64
	PeakStackItems uint32

	// WarningCount is the number of warnings the estimate carried.  A
	// nonzero count flags the prediction as truncated or conservative, so
	// the refitting pipeline can exclude it.
	WarningCount uint32

	// Timestamp is the unix time the prediction was recorded.
	Timestamp int64
}

// NewRecord builds a Record from an estimate produced by the given profile,
// stamped with the current time.
func NewRecord(profileID string, est *scriptcost.CostEstimate) *Record {
	return &Record{
		ProfileID:      profileID,
		TotalCycles:    est.TotalCycles,
		SignatureCount: est.SignatureCount,
		OpcodeCount:    est.OpcodeCount,
		PeakStackBytes: est.PeakStackBytes,
		PeakStackItems: est.PeakStackItems,
		WarningCount:   uint32(len(est.Warnings)),
		Timestamp:      time.Now().Unix(),
	}
}

// ScriptKey returns the database key for a script pair: the double-SHA256 of
// the unlocking script followed by the locking script.
func ScriptKey(sigScript, pkScript []byte) chainhash.Hash {
	combined := make([]byte, 0, len(sigScript)+len(pkScript))
	combined = append(combined, sigScript...)
	combined = append(combined, pkScript...)
	return chainhash.DoubleHashH(combined)
}

// encodeRecord serializes a record into its versioned binary form.
func encodeRecord(rec *Record) ([]byte, error) {
	if len(rec.ProfileID) > maxProfileIDLen {
		return nil, fmt.Errorf("profile id of %d bytes exceeds the "+
			"maximum of %d", len(rec.ProfileID), maxProfileIDLen)
	}

	var b bytes.Buffer
	b.WriteByte(recordVersion)

	var buf [8]byte
	dbByteOrder.PutUint64(buf[:], rec.TotalCycles)
	b.Write(buf[:])
	dbByteOrder.PutUint32(buf[:4], rec.SignatureCount)
	b.Write(buf[:4])
	dbByteOrder.PutUint32(buf[:4], rec.OpcodeCount)
	b.Write(buf[:4])
	dbByteOrder.PutUint64(buf[:], rec.PeakStackBytes)
	b.Write(buf[:])
	dbByteOrder.PutUint32(buf[:4], rec.PeakStackItems)
	b.Write(buf[:4])
	dbByteOrder.PutUint32(buf[:4], rec.WarningCount)
	b.Write(buf[:4])
	dbByteOrder.PutUint64(buf[:], uint64(rec.Timestamp))
	b.Write(buf[:])

	b.WriteByte(byte(len(rec.ProfileID)))
	b.WriteString(rec.ProfileID)

	return b.Bytes(), nil
}

// decodeRecord deserializes a record from its versioned binary form.
func decodeRecord(data []byte) (*Record, error) {
	// Version, fixed fields, and the profile id length byte.
	const minLen = 1 + 8 + 4 + 4 + 8 + 4 + 4 + 8 + 1

	if len(data) < minLen {
		return nil, fmt.Errorf("record of %d bytes is too short",
			len(data))
	}
	if data[0] != recordVersion {
		return nil, fmt.Errorf("unknown record version %d", data[0])
	}

	var rec Record
	off := 1
	rec.TotalCycles = dbByteOrder.Uint64(data[off:])
	off += 8
	rec.SignatureCount = dbByteOrder.Uint32(data[off:])
	off += 4
	rec.OpcodeCount = dbByteOrder.Uint32(data[off:])
	off += 4
	rec.PeakStackBytes = dbByteOrder.Uint64(data[off:])
	off += 8
	rec.PeakStackItems = dbByteOrder.Uint32(data[off:])
	off += 4
	rec.WarningCount = dbByteOrder.Uint32(data[off:])
	off += 4
	rec.Timestamp = int64(dbByteOrder.Uint64(data[off:]))
	off += 8

	idLen := int(data[off])
	off++
	if len(data) < off+idLen {
		return nil, fmt.Errorf("record profile id of %d bytes "+
			"extends past the record end", idLen)
	}
	rec.ProfileID = string(data[off : off+idLen])

	return &rec, nil
}

// Store is a leveldb-backed log of produced estimates keyed by script pair.
// It is an optional collaborator of the estimator: nothing in the core
// touches it, and callers wire it in when they want predictions persisted
// for offline comparison against measured cycles.
type Store struct {
	db *leveldb.DB
}

// Open opens, creating if necessary, the store at the given directory.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("cost store %s: %w", path, err)
	}

	log.Debugf("Opened cost store %s", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores the record under the given script key, replacing any previous
// record for the same key.
func (s *Store) Put(key chainhash.Hash, rec *Record) error {
	encoded, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return s.db.Put(key[:], encoded, nil)
}

// Get fetches the record stored under the given script key.  ErrNoRecord is
// returned when the key has never been recorded.
func (s *Store) Get(key chainhash.Hash) (*Record, error) {
	data, err := s.db.Get(key[:], nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

// ForEach invokes the callback for every record in the store.  Iteration
// stops at the first callback error, which is returned.
func (s *Store) ForEach(fn func(chainhash.Hash, *Record) error) error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		var key chainhash.Hash
		if len(iter.Key()) != chainhash.HashSize {
			return fmt.Errorf("malformed store key of %d bytes",
				len(iter.Key()))
		}
		copy(key[:], iter.Key())

		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if err := fn(key, rec); err != nil {
			return err
		}
	}

	return iter.Error()
}
