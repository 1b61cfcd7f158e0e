// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

// checksumAccumulator keeps the running byte sum of the frame being decoded.
// A frame is valid when the sum over every byte from its first label byte
// through the raw checksum byte is zero modulo 256.
type checksumAccumulator struct {
	sum uint8
}

// add folds one byte into the running sum
func (c *checksumAccumulator) add(b byte) {
	c.sum += b
}

// value returns the current sum modulo 256
func (c *checksumAccumulator) value() uint8 {
	return c.sum
}

// reset clears the running sum
func (c *checksumAccumulator) reset() {
	c.sum = 0
}

// CalculateChecksum computes the checksum byte that closes a frame: the
// value bringing the sum of data plus the returned byte to zero modulo 256.
func CalculateChecksum(data []byte) byte {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return -sum
}

// VerifyChecksum reports whether the given bytes, covering a full frame from
// its first label byte through the raw checksum byte, sum to zero modulo 256.
func VerifyChecksum(data []byte) bool {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return sum == 0
}
