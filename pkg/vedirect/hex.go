// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import "time"

// HexRecord is one HEX-mode record lifted out of the text stream: the raw
// bytes between the ':' marker and the terminating line feed. Interpretation
// of the contents is left to the consumer; the text-frame checksum never
// covers these bytes.
type HexRecord struct {
	payload   []byte
	timestamp time.Time
}

// Payload returns the record's raw bytes (marker and terminator stripped)
func (r HexRecord) Payload() []byte {
	return r.payload
}

// Timestamp returns the record's decode timestamp
func (r HexRecord) Timestamp() time.Time {
	return r.timestamp
}
