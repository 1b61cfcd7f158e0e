// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"fmt"
	"time"
)

// ChecksumError reports a frame whose byte sum failed verification. The
// frame was discarded and the decoder has returned to idle.
type ChecksumError struct {
	Expected byte
	Got      byte
}

// Error implements the error interface
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%02X, got 0x%02X", e.Expected, e.Got)
}

// MalformedLineError reports a line the tokenizer could not accept. The
// staged frame was discarded and input is skipped to the next terminator.
type MalformedLineError struct {
	Reason   string
	Overflow bool // a label or value exceeded its buffer limit
}

// Error implements the error interface
func (e *MalformedLineError) Error() string {
	return e.Reason
}

// Decoder implements the VE.Direct text protocol frame decoder state machine.
// One decoder serves one byte stream; partial frame state carries across
// calls, so chunk boundaries never affect the decoded result. Decoders are
// independent of each other and safe to create per stream.
type Decoder struct {
	state          int
	tokenizer      *fieldTokenizer
	assembler      *frameAssembler
	checksum       checksumAccumulator
	rawBuffer      []byte // frame bytes as summed, for capture and re-emit
	hexBuffer      []byte
	hexReturnState int
	hexHandler     func(HexRecord)
}

// NewDecoder creates a new VE.Direct frame decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:     stateIdle,
		tokenizer: newFieldTokenizer(),
		assembler: newFrameAssembler(),
		rawBuffer: make([]byte, 0, rawBufferCap),
	}
}

// Reset resets the decoder state to idle, dropping any partial frame
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.tokenizer.reset()
	d.assembler.discard()
	d.checksum.reset()
	d.rawBuffer = d.rawBuffer[:0]
	d.hexBuffer = d.hexBuffer[:0]
	d.hexReturnState = stateIdle
}

// GetRawBytes returns the raw bytes of the frame accumulated since the last
// publish or reset; inter-frame padding and HEX records are excluded
func (d *Decoder) GetRawBytes() []byte {
	return d.rawBuffer
}

// SetHexRecordHandler registers a callback receiving each HEX record lifted
// out of the stream. Records are dropped when no handler is set.
func (d *Decoder) SetHexRecordHandler(handler func(HexRecord)) {
	d.hexHandler = handler
}

// Feed processes a chunk of stream bytes and returns the frames completed
// during the call, in wire order. Checksum failures and malformed lines are
// dropped silently; the decoder resynchronizes on the next line terminator.
func (d *Decoder) Feed(data []byte) []*Frame {
	var frames []*Frame
	for _, b := range data {
		frame, err := d.DecodeByte(b)
		if err != nil {
			continue
		}
		if frame != nil {
			frames = append(frames, frame)
		}
	}
	return frames
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed frame, or nil while the frame is incomplete.
// Returns an error describing a checksum mismatch or malformed line; the
// decoder has already resynchronized itself and the error is diagnostic only.
func (d *Decoder) DecodeByte(b byte) (*Frame, error) {
	switch d.state {
	case stateIdle:
		switch b {
		case CarriageReturn, LineFeed:
			// Inter-frame padding, not part of any checksum
			return nil, nil
		case HexRecordMarker:
			d.enterHexRecord(stateIdle)
			return nil, nil
		case FieldSeparator:
			return d.abortFrame(&MalformedLineError{Reason: "field separator before any label byte"})
		}
		// First label byte of a new frame starts the checksum
		d.checksum.reset()
		d.rawBuffer = d.rawBuffer[:0]
		d.rawBuffer = append(d.rawBuffer, b)
		d.checksum.add(b)
		if err := d.tokenizer.appendLabel(b); err != nil {
			return d.abortFrame(err)
		}
		d.state = stateLabel
		return nil, nil

	case stateLabel:
		switch b {
		case HexRecordMarker:
			if d.tokenizer.lineStart() {
				d.enterHexRecord(stateLabel)
				return nil, nil
			}
			// Mid-label ':' is an ordinary label byte
		case CarriageReturn, LineFeed:
			if d.tokenizer.lineStart() {
				// Terminator between the frame's lines, covered by the checksum
				d.rawBuffer = append(d.rawBuffer, b)
				d.checksum.add(b)
				return nil, nil
			}
			return d.abortFrame(&MalformedLineError{
				Reason: fmt.Sprintf("line terminator after label %q with no field separator", d.tokenizer.labelString()),
			})
		case FieldSeparator:
			if d.tokenizer.lineStart() {
				return d.abortFrame(&MalformedLineError{Reason: "field separator with empty label"})
			}
			d.rawBuffer = append(d.rawBuffer, b)
			d.checksum.add(b)
			if d.tokenizer.labelString() == ChecksumLabel {
				d.state = stateChecksum
			} else {
				d.state = stateValue
			}
			return nil, nil
		}
		d.rawBuffer = append(d.rawBuffer, b)
		d.checksum.add(b)
		if err := d.tokenizer.appendLabel(b); err != nil {
			return d.abortFrame(err)
		}
		return nil, nil

	case stateValue:
		if b == CarriageReturn || b == LineFeed {
			d.rawBuffer = append(d.rawBuffer, b)
			d.checksum.add(b)
			d.assembler.stage(d.tokenizer.labelString(), d.tokenizer.valueString())
			d.tokenizer.reset()
			d.state = stateLabel
			return nil, nil
		}
		// Everything else, separators and ':' included, is a value byte
		d.rawBuffer = append(d.rawBuffer, b)
		d.checksum.add(b)
		if err := d.tokenizer.appendValue(b); err != nil {
			return d.abortFrame(err)
		}
		return nil, nil

	case stateChecksum:
		// The checksum value is one raw byte; any value is legal here
		d.rawBuffer = append(d.rawBuffer, b)
		d.checksum.add(b)
		if sum := d.checksum.value(); sum != 0 {
			expected := b - sum
			d.Reset()
			return nil, &ChecksumError{Expected: expected, Got: b}
		}
		raw := make([]byte, len(d.rawBuffer))
		copy(raw, d.rawBuffer)
		frame := d.assembler.commit(raw)
		d.Reset()
		return frame, nil

	case stateHexRecord:
		if b == LineFeed {
			if d.hexHandler != nil {
				payload := make([]byte, len(d.hexBuffer))
				copy(payload, d.hexBuffer)
				d.hexHandler(HexRecord{payload: payload, timestamp: time.Now()})
			}
			d.hexBuffer = d.hexBuffer[:0]
			d.state = d.hexReturnState
			return nil, nil
		}
		d.hexBuffer = append(d.hexBuffer, b)
		return nil, nil

	case stateResync:
		if b == CarriageReturn || b == LineFeed {
			d.state = stateIdle
		}
		return nil, nil

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}

// enterHexRecord suspends the text frame state machine until the record's
// terminating line feed. The frame's checksum and staged fields are left
// untouched; the ':' marker is not summed.
func (d *Decoder) enterHexRecord(returnState int) {
	d.hexReturnState = returnState
	d.hexBuffer = d.hexBuffer[:0]
	d.state = stateHexRecord
}

// abortFrame drops the staged frame and skips input until the next line
// terminator
func (d *Decoder) abortFrame(err error) (*Frame, error) {
	d.Reset()
	d.state = stateResync
	return nil, err
}
