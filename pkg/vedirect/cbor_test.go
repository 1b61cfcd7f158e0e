// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"bytes"
	"io"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestMarshalFrame_RoundTrip(t *testing.T) {
	original := newFrame(
		[]string{"PID", "V", "I"},
		map[string]string{"PID": "0xA053", "V": "12800", "I": "-340"},
		[]byte("wire"),
	)

	data, err := MarshalFrame(original)
	if err != nil {
		t.Fatalf("MarshalFrame failed: %v", err)
	}

	restored, err := UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalFrame failed: %v", err)
	}

	if restored.Len() != original.Len() {
		t.Errorf("field count mismatch: got %d, want %d", restored.Len(), original.Len())
	}
	for _, label := range original.Labels() {
		want, _ := original.Get(label)
		got, ok := restored.Get(label)
		if !ok || got != want {
			t.Errorf("field %q mismatch: got %q, want %q", label, got, want)
		}
	}

	// Wire order is archived
	restoredLabels := restored.Labels()
	for i, label := range original.Labels() {
		if restoredLabels[i] != label {
			t.Errorf("label order mismatch at %d: got %q, want %q", i, restoredLabels[i], label)
		}
	}

	// Timestamps archive at millisecond precision
	if restored.Timestamp().UnixMilli() != original.Timestamp().UnixMilli() {
		t.Errorf("timestamp mismatch: got %d, want %d",
			restored.Timestamp().UnixMilli(), original.Timestamp().UnixMilli())
	}
}

func TestMarshalFrame_EmptyFrame(t *testing.T) {
	original := newFrame(nil, map[string]string{}, nil)

	data, err := MarshalFrame(original)
	if err != nil {
		t.Fatalf("MarshalFrame failed: %v", err)
	}

	restored, err := UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalFrame failed: %v", err)
	}
	if restored.Len() != 0 {
		t.Errorf("Len = %d, want 0", restored.Len())
	}
}

func TestUnmarshalFrame_Garbage(t *testing.T) {
	_, err := UnmarshalFrame([]byte{0xFF, 0x00, 0x13, 0x37})
	if err == nil {
		t.Error("expected error for garbage bytes, got nil")
	}
}

func TestUnmarshalFrame_LabelFieldMismatch(t *testing.T) {
	// A record whose label order disagrees with its field map is rejected
	data, err := cbor.Marshal(frameRecord{
		Timestamp: 1700000000000,
		Labels:    []string{"V", "I"},
		Fields:    map[string]string{"V": "12800"},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if _, err := UnmarshalFrame(data); err == nil {
		t.Error("expected error for label/field count mismatch, got nil")
	}
}

func TestUnmarshalFrame_UnknownLabelInOrder(t *testing.T) {
	data, err := cbor.Marshal(frameRecord{
		Timestamp: 1700000000000,
		Labels:    []string{"V"},
		Fields:    map[string]string{"I": "-340"},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if _, err := UnmarshalFrame(data); err == nil {
		t.Error("expected error for a label missing from the field map, got nil")
	}
}

func TestFrameWriter_FrameReader(t *testing.T) {
	frames := []*Frame{
		newFrame([]string{"V"}, map[string]string{"V": "12800"}, nil),
		newFrame([]string{"V", "I"}, map[string]string{"V": "12810", "I": "-340"}, nil),
		newFrame([]string{"PPV"}, map[string]string{"PPV": "95"}, nil),
	}

	var archive bytes.Buffer
	writer := NewFrameWriter(&archive)
	for i, frame := range frames {
		if err := writer.WriteFrame(frame); err != nil {
			t.Fatalf("WriteFrame %d failed: %v", i, err)
		}
	}

	reader := NewFrameReader(&archive)
	count := 0
	for {
		frame, err := reader.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", count, err)
		}

		want := frames[count]
		if frame.Len() != want.Len() {
			t.Errorf("frame %d: field count mismatch: got %d, want %d", count, frame.Len(), want.Len())
		}
		for _, label := range want.Labels() {
			wantValue, _ := want.Get(label)
			if gotValue, _ := frame.Get(label); gotValue != wantValue {
				t.Errorf("frame %d: field %q mismatch: got %q, want %q", count, label, gotValue, wantValue)
			}
		}
		count++
	}

	if count != len(frames) {
		t.Errorf("read %d frames, want %d", count, len(frames))
	}
}

func TestFrameReader_EmptyArchive(t *testing.T) {
	reader := NewFrameReader(bytes.NewReader(nil))
	if _, err := reader.ReadFrame(); err != io.EOF {
		t.Errorf("expected io.EOF for an empty archive, got %v", err)
	}
}

func TestFrameWriter_DecodedFrame(t *testing.T) {
	// Frames straight off the decoder archive and restore cleanly
	d := NewDecoder()
	image := []byte("V\t12800\r\nI\t-340\r\nChecksum\t")
	image = append(image, CalculateChecksum(image))

	frames := d.Feed(image)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}

	var archive bytes.Buffer
	if err := NewFrameWriter(&archive).WriteFrame(frames[0]); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	restored, err := NewFrameReader(&archive).ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if v, _ := restored.Get("V"); v != "12800" {
		t.Errorf("V = %q, want \"12800\"", v)
	}
	if v, _ := restored.Get("I"); v != "-340" {
		t.Errorf("I = %q, want \"-340\"", v)
	}
}
