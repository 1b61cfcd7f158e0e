// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames     uint64
	ValidFrames     uint64
	ChecksumErrors  uint64
	MalformedLines  uint64
	Overflows       uint64
	DecodeErrors    uint64
	HexRecords      uint64
	AnomalousValues uint64
	InvalidValues   uint64
	RangeErrors     uint64
	UnknownEnums    uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates an empty statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics based on a frame and its errors
func (s *Statistics) Update(frame *Frame, decodeErr error, validationErrors []ValidationError) {
	s.TotalFrames++

	// Typed decode errors sort into their own counters; anything else is
	// an unclassified decode failure
	if decodeErr != nil {
		var checksumErr *ChecksumError
		var malformedErr *MalformedLineError
		switch {
		case errors.As(decodeErr, &checksumErr):
			s.ChecksumErrors++
		case errors.As(decodeErr, &malformedErr):
			s.MalformedLines++
			if malformedErr.Overflow {
				s.Overflows++
			}
		default:
			s.DecodeErrors++
		}
		return // a failed decode carries no frame to validate
	}

	if len(validationErrors) > 0 {
		for _, err := range validationErrors {
			switch err.Type {
			case AnomalyNonNumeric, AnomalyInvalidValue:
				s.InvalidValues++
				s.AnomalousValues++
			case AnomalyVoltageRange, AnomalyPowerRange, AnomalyDayRange:
				s.RangeErrors++
				s.AnomalousValues++
			case AnomalyUnknownEnum:
				s.UnknownEnums++
				s.AnomalousValues++
			}
		}
	} else {
		s.ValidFrames++
	}

	s.LastUpdateTime = time.Now()
}

// CountHexRecord counts one HEX record lifted out of the stream
func (s *Statistics) CountHexRecord() {
	s.HexRecords++
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		errorCount := s.ChecksumErrors + s.MalformedLines + s.DecodeErrors + s.AnomalousValues
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String renders a multi-line summary of the counters
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, checksumPercent, malformedPercent, decodePercent, anomalousPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		checksumPercent = float64(s.ChecksumErrors) * 100.0 / float64(s.TotalFrames)
		malformedPercent = float64(s.MalformedLines) * 100.0 / float64(s.TotalFrames)
		decodePercent = float64(s.DecodeErrors) * 100.0 / float64(s.TotalFrames)
		anomalousPercent = float64(s.AnomalousValues) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors, checksumPercent)
	}
	if s.MalformedLines > 0 {
		result += fmt.Sprintf("Malformed Lines: %8d (%.1f%%)\n", s.MalformedLines, malformedPercent)
		if s.Overflows > 0 {
			result += fmt.Sprintf("  Overflows:        %5d\n", s.Overflows)
		}
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d (%.1f%%)\n", s.DecodeErrors, decodePercent)
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d (%.1f%%)\n", s.AnomalousValues, anomalousPercent)
		if s.InvalidValues > 0 {
			result += fmt.Sprintf("  Invalid Values:   %5d\n", s.InvalidValues)
		}
		if s.RangeErrors > 0 {
			result += fmt.Sprintf("  Out of Range:     %5d\n", s.RangeErrors)
		}
		if s.UnknownEnums > 0 {
			result += fmt.Sprintf("  Unknown Enums:    %5d\n", s.UnknownEnums)
		}
	}
	if s.HexRecords > 0 {
		result += fmt.Sprintf("HEX Records:     %8d\n", s.HexRecords)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset clears every counter and restarts the rate window
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalFrames = 0
	s.ValidFrames = 0
	s.ChecksumErrors = 0
	s.MalformedLines = 0
	s.Overflows = 0
	s.DecodeErrors = 0
	s.HexRecords = 0
	s.AnomalousValues = 0
	s.InvalidValues = 0
	s.RangeErrors = 0
	s.UnknownEnums = 0
	s.FrameRate = 0
	s.ErrorRate = 0
}
