package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/chazu/rbsl/pkg/bytecode"
)

// Record is one cached compilation.
type Record struct {
	ID              string    `cbor:"1,keyasint"`
	SourceHash      string    `cbor:"2,keyasint"`
	RegistryVersion uint16    `cbor:"3,keyasint"`
	Bytecode        []byte    `cbor:"4,keyasint"`
	Instructions    int       `cbor:"5,keyasint"`
	Created         time.Time `cbor:"6,keyasint"`
}

// NewRecord builds a record for freshly compiled bytecode.
func NewRecord(source string, reg *bytecode.Registry, data []byte, instructions int) *Record {
	return &Record{
		ID:              uuid.New().String(),
		SourceHash:      SourceHash(source),
		RegistryVersion: reg.Version,
		Bytecode:        data,
		Instructions:    instructions,
		Created:         time.Now().UTC(),
	}
}

// SourceHash returns the hex SHA-256 of source.
func SourceHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Key returns the cache key for compiling source against reg. Changing
// either the text or any registry entry changes the key.
func Key(source string, reg *bytecode.Registry) string {
	h := sha256.New()
	h.Write([]byte(SourceHash(source)))
	h.Write([]byte{0})
	h.Write([]byte(reg.Fingerprint()))
	return hex.EncodeToString(h.Sum(nil))
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalRecord serializes a Record to canonical CBOR.
func MarshalRecord(r *Record) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// UnmarshalRecord deserializes a Record from CBOR bytes.
func UnmarshalRecord(data []byte) (*Record, error) {
	var r Record
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("store: unmarshal record: %w", err)
	}
	return &r, nil
}
