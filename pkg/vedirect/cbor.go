// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// frameRecord is the CBOR archive layout of one frame:
// {1: unix-millis timestamp, 2: label order, 3: label/value map}
type frameRecord struct {
	Timestamp int64             `cbor:"1,keyasint"`
	Labels    []string          `cbor:"2,keyasint"`
	Fields    map[string]string `cbor:"3,keyasint"`
}

// MarshalFrame encodes a frame as one CBOR archive record
func MarshalFrame(f *Frame) ([]byte, error) {
	data, err := cbor.Marshal(recordFromFrame(f))
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR frame: %w", err)
	}
	return data, nil
}

// UnmarshalFrame decodes one CBOR archive record back into a frame. The
// frame keeps its recorded timestamp; raw wire bytes are not archived.
func UnmarshalFrame(data []byte) (*Frame, error) {
	var record frameRecord
	if err := cbor.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode CBOR frame: %w", err)
	}
	return frameFromRecord(record)
}

// FrameWriter appends frames to a CBOR archive stream
type FrameWriter struct {
	enc *cbor.Encoder
}

// NewFrameWriter creates a writer appending CBOR frame records to w
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{enc: cbor.NewEncoder(w)}
}

// WriteFrame appends one frame record to the archive
func (w *FrameWriter) WriteFrame(f *Frame) error {
	if err := w.enc.Encode(recordFromFrame(f)); err != nil {
		return fmt.Errorf("failed to encode CBOR frame: %w", err)
	}
	return nil
}

// FrameReader reads frames back from a CBOR archive stream
type FrameReader struct {
	dec *cbor.Decoder
}

// NewFrameReader creates a reader consuming CBOR frame records from r
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{dec: cbor.NewDecoder(r)}
}

// ReadFrame reads the next frame record, returning io.EOF at end of archive
func (r *FrameReader) ReadFrame() (*Frame, error) {
	var record frameRecord
	if err := r.dec.Decode(&record); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode CBOR frame: %w", err)
	}
	return frameFromRecord(record)
}

// recordFromFrame builds the archive layout for a frame
func recordFromFrame(f *Frame) frameRecord {
	return frameRecord{
		Timestamp: f.timestamp.UnixMilli(),
		Labels:    f.labels,
		Fields:    f.fields,
	}
}

// frameFromRecord rebuilds a frame from the archive layout, checking that
// the label order and field map agree
func frameFromRecord(record frameRecord) (*Frame, error) {
	if len(record.Labels) != len(record.Fields) {
		return nil, fmt.Errorf("label order lists %d labels, field map has %d entries",
			len(record.Labels), len(record.Fields))
	}
	for _, label := range record.Labels {
		if _, ok := record.Fields[label]; !ok {
			return nil, fmt.Errorf("label %q missing from field map", label)
		}
	}

	fields := record.Fields
	if fields == nil {
		fields = map[string]string{}
	}

	return &Frame{
		labels:    record.Labels,
		fields:    fields,
		timestamp: time.UnixMilli(record.Timestamp),
	}, nil
}
