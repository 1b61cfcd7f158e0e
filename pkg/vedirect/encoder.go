package vedirect

import (
	"fmt"
	"strings"
)

// Encoder encodes frames to VE.Direct text wire format.
// Handles line assembly and checksum calculation.
type Encoder struct{}

// NewEncoder creates a new frame encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode encodes a Frame to wire format.
func (e *Encoder) Encode(f *Frame) ([]byte, error) {
	return EncodeFields(f.labels, f.fields)
}

// EncodeFrame encodes a Frame to wire format: one LABEL<tab>VALUE line per
// field in frame order, closed by the checksum line and its raw value byte.
func EncodeFrame(f *Frame) ([]byte, error) {
	return EncodeFields(f.labels, f.fields)
}

// MustEncodeFrame encodes a Frame to wire format.
// Panics on encoding error (use EncodeFrame for error handling).
func MustEncodeFrame(f *Frame) []byte {
	data, err := EncodeFrame(f)
	if err != nil {
		panic(fmt.Sprintf("vedirect: encode error: %v", err))
	}
	return data
}

// EncodeFields creates a complete wire-formatted frame from a label order
// and field map. A frame with no fields is legal and encodes to a bare
// checksum line.
func EncodeFields(labels []string, fields map[string]string) ([]byte, error) {
	out := make([]byte, 0, 64)
	for _, label := range labels {
		value, ok := fields[label]
		if !ok {
			return nil, fmt.Errorf("label %q missing from field map", label)
		}
		if err := checkLabel(label); err != nil {
			return nil, err
		}
		if err := checkValue(label, value); err != nil {
			return nil, err
		}
		out = append(out, label...)
		out = append(out, FieldSeparator)
		out = append(out, value...)
		out = append(out, CarriageReturn, LineFeed)
	}
	out = append(out, ChecksumLabel...)
	out = append(out, FieldSeparator)
	out = append(out, CalculateChecksum(out))
	return out, nil
}

// EncodeHexRecord wraps a payload in HEX record framing: the ':' marker,
// the payload bytes, and the terminating line feed. The payload must not
// contain a line feed of its own.
func EncodeHexRecord(payload []byte) []byte {
	record := make([]byte, 0, len(payload)+2)
	record = append(record, HexRecordMarker)
	record = append(record, payload...)
	record = append(record, LineFeed)
	return record
}

// checkLabel rejects labels the text framing cannot carry.
func checkLabel(label string) error {
	switch {
	case label == "":
		return fmt.Errorf("empty label")
	case label == ChecksumLabel:
		return fmt.Errorf("label %q is reserved for the frame trailer", ChecksumLabel)
	case len(label) > MaxLabelSize:
		return fmt.Errorf("label %q exceeds %d bytes", label, MaxLabelSize)
	case strings.ContainsAny(label, "\t\r\n"):
		return fmt.Errorf("label %q contains a framing byte", label)
	case label[0] == HexRecordMarker:
		return fmt.Errorf("label %q would start a HEX record", label)
	}
	return nil
}

// checkValue rejects values the text framing cannot carry.
func checkValue(label, value string) error {
	switch {
	case len(value) > MaxValueSize:
		return fmt.Errorf("value for label %q exceeds %d bytes", label, MaxValueSize)
	case strings.ContainsAny(value, "\t\r\n"):
		return fmt.Errorf("value for label %q contains a framing byte", label)
	}
	return nil
}
