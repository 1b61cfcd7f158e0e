// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"math/rand"
	"strconv"
)

// Profile kinds (internal)
const (
	simKindMPPT = iota
	simKindShunt
)

// SimProfile generates a synthetic telemetry frame stream for one device
// profile. Values drift deterministically from the seed: the same seed
// replays the same stream.
type SimProfile struct {
	kind int
	rng  *rand.Rand
	step int64

	pid      string
	firmware string
	serial   string

	batteryMilliVolts int64
	batteryMilliAmps  int64
	panelMilliVolts   int64
	panelWatts        int64
	chargeState       ChargeState
	loadMilliAmps     int64
	yieldTotal        int64 // 0.01 kWh
	yieldToday        int64 // 0.01 kWh
	maxPowerToday     int64
	yieldYesterday    int64 // 0.01 kWh
	maxPowerYesterday int64
	daySequence       int64
	socPerMille       int64
}

// NewMPPTProfile creates a SmartSolar MPPT 75|15 charge controller profile
func NewMPPTProfile(seed int64) *SimProfile {
	return &SimProfile{
		kind:              simKindMPPT,
		rng:               rand.New(rand.NewSource(seed)),
		pid:               "0xA053",
		firmware:          "159",
		serial:            "HQ2129AD4QF",
		batteryMilliVolts: 12800,
		panelMilliVolts:   18500,
		panelWatts:        95,
		chargeState:       ChargeStateBulk,
		loadMilliAmps:     400,
		yieldTotal:        14510, // 145.10 kWh lifetime
		yieldYesterday:    94,    // 0.94 kWh
		maxPowerYesterday: 112,
		daySequence:       212,
	}
}

// NewShuntProfile creates a BMV-702 battery monitor profile
func NewShuntProfile(seed int64) *SimProfile {
	return &SimProfile{
		kind:              simKindShunt,
		rng:               rand.New(rand.NewSource(seed)),
		pid:               "0x204",
		firmware:          "311",
		serial:            "HQ1834XK2LN",
		batteryMilliVolts: 12650,
		batteryMilliAmps:  -2300,
		socPerMille:       874,
	}
}

// ProductID returns the profile's PID field value
func (p *SimProfile) ProductID() string {
	return p.pid
}

// NextFrame produces the next telemetry frame in the stream
func (p *SimProfile) NextFrame() *Frame {
	p.step++
	if p.kind == simKindShunt {
		return p.nextShuntFrame()
	}
	return p.nextMPPTFrame()
}

// nextMPPTFrame advances the charge cycle and emits a charge controller frame
func (p *SimProfile) nextMPPTFrame() *Frame {
	// Charge state walks the bulk/absorption/float cycle
	switch p.step % 90 {
	case 0:
		p.chargeState = ChargeStateBulk
	case 30:
		p.chargeState = ChargeStateAbsorption
	case 60:
		p.chargeState = ChargeStateFloat
	}

	p.panelMilliVolts = clampInt64(p.panelMilliVolts+p.rng.Int63n(401)-200, 15000, 24000)

	switch p.chargeState {
	case ChargeStateBulk:
		p.batteryMilliVolts = clampInt64(p.batteryMilliVolts+p.rng.Int63n(21), 12000, 14400)
		p.panelWatts = 90 + p.rng.Int63n(40)
	case ChargeStateAbsorption:
		p.batteryMilliVolts = 14400 + p.rng.Int63n(21) - 10
		p.panelWatts = 40 + p.rng.Int63n(25)
	case ChargeStateFloat:
		p.batteryMilliVolts = 13500 + p.rng.Int63n(21) - 10
		p.panelWatts = 5 + p.rng.Int63n(10)
	}

	p.batteryMilliAmps = p.panelWatts * 1000 * 1000 / p.batteryMilliVolts
	p.loadMilliAmps = 350 + p.rng.Int63n(101)

	if p.panelWatts > p.maxPowerToday {
		p.maxPowerToday = p.panelWatts
	}
	if p.step%60 == 0 && p.panelWatts > 20 {
		p.yieldToday++
		p.yieldTotal++
	}

	tracker := TrackerLimited
	if p.chargeState == ChargeStateBulk {
		tracker = TrackerActive
	}

	labels := []string{
		"PID", "FW", "SER#", "V", "I", "VPV", "PPV", "CS", "MPPT",
		"OR", "ERR", "LOAD", "IL", "H19", "H20", "H21", "H22", "H23", "HSDS",
	}
	fields := map[string]string{
		"PID":  p.pid,
		"FW":   p.firmware,
		"SER#": p.serial,
		"V":    strconv.FormatInt(p.batteryMilliVolts, 10),
		"I":    strconv.FormatInt(p.batteryMilliAmps, 10),
		"VPV":  strconv.FormatInt(p.panelMilliVolts, 10),
		"PPV":  strconv.FormatInt(p.panelWatts, 10),
		"CS":   strconv.Itoa(int(p.chargeState)),
		"MPPT": strconv.Itoa(int(tracker)),
		"OR":   "0x00000000",
		"ERR":  "0",
		"LOAD": "ON",
		"IL":   strconv.FormatInt(p.loadMilliAmps, 10),
		"H19":  strconv.FormatInt(p.yieldTotal, 10),
		"H20":  strconv.FormatInt(p.yieldToday, 10),
		"H21":  strconv.FormatInt(p.maxPowerToday, 10),
		"H22":  strconv.FormatInt(p.yieldYesterday, 10),
		"H23":  strconv.FormatInt(p.maxPowerYesterday, 10),
		"HSDS": strconv.FormatInt(p.daySequence, 10),
	}
	return newFrame(labels, fields, nil)
}

// nextShuntFrame walks a slow discharge and emits a battery monitor frame
func (p *SimProfile) nextShuntFrame() *Frame {
	p.batteryMilliAmps = -2300 + p.rng.Int63n(401) - 200
	p.batteryMilliVolts = clampInt64(p.batteryMilliVolts+p.rng.Int63n(7)-4, 11800, 13000)
	if p.step%45 == 0 && p.socPerMille > 0 {
		p.socPerMille--
	}

	powerWatts := p.batteryMilliVolts * p.batteryMilliAmps / 1000000
	consumedMilliAmpHours := -(1000 - p.socPerMille) * 210
	timeToGoMinutes := p.socPerMille * 2

	labels := []string{
		"PID", "FW", "SER#", "V", "I", "P", "CE", "SOC", "TTG",
		"Alarm", "Relay", "AR", "BMV",
	}
	fields := map[string]string{
		"PID":   p.pid,
		"FW":    p.firmware,
		"SER#":  p.serial,
		"V":     strconv.FormatInt(p.batteryMilliVolts, 10),
		"I":     strconv.FormatInt(p.batteryMilliAmps, 10),
		"P":     strconv.FormatInt(powerWatts, 10),
		"CE":    strconv.FormatInt(consumedMilliAmpHours, 10),
		"SOC":   strconv.FormatInt(p.socPerMille, 10),
		"TTG":   strconv.FormatInt(timeToGoMinutes, 10),
		"Alarm": "OFF",
		"Relay": "OFF",
		"AR":    "0",
		"BMV":   "702",
	}
	return newFrame(labels, fields, nil)
}

// clampInt64 bounds v to the inclusive range [lo, hi]
func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
