package vedirect

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeFields_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		fields map[string]string
	}{
		{
			name:   "no fields",
			labels: nil,
			fields: nil,
		},
		{
			name:   "single field",
			labels: []string{"V"},
			fields: map[string]string{"V": "12800"},
		},
		{
			name:   "charge controller telemetry",
			labels: []string{"PID", "FW", "SER#", "V", "I", "VPV", "PPV", "CS", "MPPT", "ERR", "LOAD", "IL", "HSDS"},
			fields: map[string]string{
				"PID": "0xA053", "FW": "159", "SER#": "HQ2129AD4QF",
				"V": "12800", "I": "-340", "VPV": "18500", "PPV": "95",
				"CS": "3", "MPPT": "2", "ERR": "0", "LOAD": "ON",
				"IL": "400", "HSDS": "212",
			},
		},
		{
			name:   "empty value",
			labels: []string{"Alarm"},
			fields: map[string]string{"Alarm": ""},
		},
		{
			name:   "max length label and value",
			labels: []string{strings.Repeat("L", MaxLabelSize)},
			fields: map[string]string{strings.Repeat("L", MaxLabelSize): strings.Repeat("v", MaxValueSize)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeFields(tt.labels, tt.fields)
			if err != nil {
				t.Fatalf("EncodeFields failed: %v", err)
			}

			// The image must close to a zero byte sum
			if !VerifyChecksum(encoded) {
				t.Error("encoded image does not verify")
			}

			// Decode the image back
			decoder := NewDecoder()
			var decoded *Frame
			for _, b := range encoded {
				frame, err := decoder.DecodeByte(b)
				if err != nil {
					t.Fatalf("Decoder error: %v", err)
				}
				if frame != nil {
					decoded = frame
				}
			}

			if decoded == nil {
				t.Fatal("Decoder did not produce a frame")
			}
			if decoded.Len() != len(tt.labels) {
				t.Errorf("field count mismatch: got %d, want %d", decoded.Len(), len(tt.labels))
			}
			for label, expected := range tt.fields {
				value, ok := decoded.Get(label)
				if !ok {
					t.Errorf("missing label %q after round-trip", label)
					continue
				}
				if value != expected {
					t.Errorf("field %q mismatch: got %q, want %q", label, value, expected)
				}
			}

			// Wire order survives the round-trip
			decodedLabels := decoded.Labels()
			for i, label := range tt.labels {
				if decodedLabels[i] != label {
					t.Errorf("label order mismatch at %d: got %q, want %q", i, decodedLabels[i], label)
				}
			}
		})
	}
}

func TestEncodeFields_KnownImage(t *testing.T) {
	encoded, err := EncodeFields(
		[]string{"V", "I"},
		map[string]string{"V": "12800", "I": "-340"},
	)
	if err != nil {
		t.Fatalf("EncodeFields failed: %v", err)
	}

	expected := append([]byte("V\t12800\r\nI\t-340\r\nChecksum\t"), 38)
	if !bytes.Equal(encoded, expected) {
		t.Errorf("encoded image = %q, want %q", encoded, expected)
	}
}

func TestEncodeFields_EmptyFrameImage(t *testing.T) {
	encoded, err := EncodeFields(nil, nil)
	if err != nil {
		t.Fatalf("EncodeFields failed: %v", err)
	}

	expected := append([]byte("Checksum\t"), 196)
	if !bytes.Equal(encoded, expected) {
		t.Errorf("encoded image = %q, want %q", encoded, expected)
	}
}

func TestEncodeFields_MissingLabel(t *testing.T) {
	_, err := EncodeFields([]string{"V", "I"}, map[string]string{"V": "12800"})
	if err == nil {
		t.Error("expected error for a label missing from the field map, got nil")
	}
}

func TestEncodeFields_RejectsBadLabels(t *testing.T) {
	tests := []struct {
		name  string
		label string
	}{
		{"empty label", ""},
		{"reserved checksum label", ChecksumLabel},
		{"oversized label", strings.Repeat("L", MaxLabelSize+1)},
		{"label with separator", "V\tI"},
		{"label with carriage return", "V\rI"},
		{"label with line feed", "V\nI"},
		{"label starting a hex record", ":A0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeFields([]string{tt.label}, map[string]string{tt.label: "1"})
			if err == nil {
				t.Errorf("expected error for label %q, got nil", tt.label)
			}
		})
	}
}

func TestEncodeFields_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"oversized value", strings.Repeat("v", MaxValueSize+1)},
		{"value with separator", "12\t800"},
		{"value with carriage return", "12\r800"},
		{"value with line feed", "12\n800"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeFields([]string{"V"}, map[string]string{"V": tt.value})
			if err == nil {
				t.Errorf("expected error for value %q, got nil", tt.value)
			}
		})
	}
}

func TestEncodeFrame_MatchesDecodedRaw(t *testing.T) {
	image := []byte("PID\t0xA053\r\nV\t12800\r\nChecksum\t")
	image = append(image, CalculateChecksum(image))

	decoder := NewDecoder()
	frames := decoder.Feed(image)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}

	// Re-encoding a decoded canonical frame reproduces its wire image
	encoded, err := EncodeFrame(frames[0])
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if !bytes.Equal(encoded, frames[0].Raw()) {
		t.Errorf("re-encoded image = %q, want %q", encoded, frames[0].Raw())
	}
}

func TestEncoder_Encode(t *testing.T) {
	f := newFrame([]string{"V"}, map[string]string{"V": "12800"}, nil)

	encoded, err := NewEncoder().Encode(f)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !VerifyChecksum(encoded) {
		t.Error("encoded image does not verify")
	}
}

func TestMustEncodeFrame(t *testing.T) {
	f := newFrame([]string{"V"}, map[string]string{"V": "12800"}, nil)

	encoded := MustEncodeFrame(f)
	if !VerifyChecksum(encoded) {
		t.Error("encoded image does not verify")
	}
}

func TestMustEncodeFrame_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustEncodeFrame should panic on an unencodable frame")
		}
	}()

	// A label carrying a separator byte cannot be framed
	f := newFrame([]string{"V\tI"}, map[string]string{"V\tI": "1"}, nil)
	MustEncodeFrame(f)
}

func TestEncodeHexRecord(t *testing.T) {
	record := EncodeHexRecord([]byte("A0002000148"))
	expected := []byte(":A0002000148\n")
	if !bytes.Equal(record, expected) {
		t.Errorf("EncodeHexRecord = %q, want %q", record, expected)
	}
}

func TestEncodeHexRecord_Empty(t *testing.T) {
	record := EncodeHexRecord(nil)
	if !bytes.Equal(record, []byte(":\n")) {
		t.Errorf("EncodeHexRecord(nil) = %q, want \":\\n\"", record)
	}
}

func TestEncodeHexRecord_DecodesBack(t *testing.T) {
	d := NewDecoder()

	var payloads []string
	d.SetHexRecordHandler(func(r HexRecord) {
		payloads = append(payloads, string(r.Payload()))
	})

	d.Feed(EncodeHexRecord([]byte("7F0ED009600DB")))

	if len(payloads) != 1 || payloads[0] != "7F0ED009600DB" {
		t.Errorf("payloads = %v, want [7F0ED009600DB]", payloads)
	}
}
