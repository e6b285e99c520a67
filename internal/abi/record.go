// Package abi owns the binary contracts shared with the calling terminal:
// the packed bar record layouts and the NUL-terminated wide-string return
// convention.
package abi

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"barbridge/internal/payload"
)

// Packed record sizes in bytes. The caller allocates these layouts
// field-for-field with no padding; a size mismatch is rejected before any
// record is decoded.
const (
	RecordSize  = 44
	RecordFSize = 48
)

// Record is the integer-volume bar layout: an 8-byte little-endian
// timestamp, four 8-byte prices, and a 4-byte volume (44 bytes).
type Record struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int32
}

// RecordF is the float-volume layout used by the dual-timeframe entry;
// volume widens to 8 bytes (48 bytes).
type RecordF struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// DecodeBars converts a packed integer-volume buffer into bars. The buffer
// must hold exactly count records. Bar order is preserved as supplied; no
// semantic validation happens here.
func DecodeBars(data []byte, count int) ([]payload.Bar, error) {
	if err := checkSize(len(data), count, RecordSize); err != nil {
		return nil, err
	}
	dec := bin.NewBinDecoder(data)
	bars := make([]payload.Bar, 0, count)
	for i := 0; i < count; i++ {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		bars = append(bars, payload.Bar{
			Time:   rec.Time,
			Open:   rec.Open,
			High:   rec.High,
			Low:    rec.Low,
			Close:  rec.Close,
			Volume: float64(rec.Volume),
		})
	}
	return bars, nil
}

// DecodeBarsF is DecodeBars for the float-volume layout.
func DecodeBarsF(data []byte, count int) ([]payload.Bar, error) {
	if err := checkSize(len(data), count, RecordFSize); err != nil {
		return nil, err
	}
	dec := bin.NewBinDecoder(data)
	bars := make([]payload.Bar, 0, count)
	for i := 0; i < count; i++ {
		var rec RecordF
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		bars = append(bars, payload.Bar{
			Time:   rec.Time,
			Open:   rec.Open,
			High:   rec.High,
			Low:    rec.Low,
			Close:  rec.Close,
			Volume: rec.Volume,
		})
	}
	return bars, nil
}

// PackBars renders bars into the integer-volume packed layout, shaped
// exactly as the caller would allocate it. Fractional volume truncates.
func PackBars(bars []payload.Bar) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBinEncoder(&buf)
	for i, b := range bars {
		rec := Record{
			Time:   b.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int32(b.Volume),
		}
		if err := enc.Encode(&rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// PackBarsF renders bars into the float-volume packed layout.
func PackBarsF(bars []payload.Bar) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBinEncoder(&buf)
	for i, b := range bars {
		rec := RecordF{
			Time:   b.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
		if err := enc.Encode(&rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

func checkSize(have, count, recordSize int) error {
	if count < 0 {
		return fmt.Errorf("negative record count %d", count)
	}
	if want := count * recordSize; have != want {
		return fmt.Errorf("packed buffer holds %d bytes, want %d for %d records", have, want, count)
	}
	return nil
}
