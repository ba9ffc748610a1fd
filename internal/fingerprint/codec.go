package fingerprint

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
)

// Wire layout: 4-byte title hash, price band, seller tier, feature and
// risk bitmaps as single bytes, length-prefixed category and condition
// codes, then price, success rate, and velocity as big-endian float64
// bits. Fixed field order; round-trips losslessly.

const codecVersion = 1

// ToBytes serializes a fingerprint into its compact binary form.
func (f Fingerprint) ToBytes() ([]byte, error) {
	hash, err := hex.DecodeString(f.TitleHash)
	if err != nil || len(hash) != 4 {
		return nil, fmt.Errorf("encode fingerprint: bad title hash %q", f.TitleHash)
	}

	var buf bytes.Buffer
	buf.WriteByte(codecVersion)
	buf.Write(hash)
	buf.WriteByte(byte(f.PriceBand))
	buf.WriteByte(byte(f.SellerTier))
	buf.WriteByte(f.Features)
	buf.WriteByte(f.RiskFlags)

	writeString(&buf, f.CategoryCode)
	writeString(&buf, f.ConditionCode)
	writeFloat(&buf, f.Price)
	writeFloat(&buf, f.SuccessRate)
	writeFloat(&buf, f.VelocityScore)

	return buf.Bytes(), nil
}

// FromBytes reconstructs a fingerprint from its binary form.
func FromBytes(data []byte) (Fingerprint, error) {
	var f Fingerprint
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return f, fmt.Errorf("decode fingerprint: %w", err)
	}
	if version != codecVersion {
		return f, fmt.Errorf("decode fingerprint: unsupported version %d", version)
	}

	hash := make([]byte, 4)
	if _, err := io.ReadFull(r, hash); err != nil {
		return f, fmt.Errorf("decode fingerprint: %w", err)
	}
	f.TitleHash = hex.EncodeToString(hash)

	fields := make([]byte, 4)
	if _, err := io.ReadFull(r, fields); err != nil {
		return f, fmt.Errorf("decode fingerprint: %w", err)
	}
	f.PriceBand = int(fields[0])
	f.SellerTier = int(fields[1])
	f.Features = fields[2]
	f.RiskFlags = fields[3]

	if f.CategoryCode, err = readString(r); err != nil {
		return f, fmt.Errorf("decode fingerprint: %w", err)
	}
	if f.ConditionCode, err = readString(r); err != nil {
		return f, fmt.Errorf("decode fingerprint: %w", err)
	}
	if f.Price, err = readFloat(r); err != nil {
		return f, fmt.Errorf("decode fingerprint: %w", err)
	}
	if f.SuccessRate, err = readFloat(r); err != nil {
		return f, fmt.Errorf("decode fingerprint: %w", err)
	}
	if f.VelocityScore, err = readFloat(r); err != nil {
		return f, fmt.Errorf("decode fingerprint: %w", err)
	}

	return f, nil
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	length, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeFloat(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func readFloat(r *bytes.Reader) (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}
