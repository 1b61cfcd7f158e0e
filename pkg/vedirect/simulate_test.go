// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"testing"
)

func TestSimProfile_Deterministic(t *testing.T) {
	a := NewMPPTProfile(42)
	b := NewMPPTProfile(42)

	for i := 0; i < 200; i++ {
		frameA := a.NextFrame()
		frameB := b.NextFrame()

		labelsA := frameA.Labels()
		labelsB := frameB.Labels()
		if len(labelsA) != len(labelsB) {
			t.Fatalf("Frame %d: label count diverged: %d != %d", i, len(labelsA), len(labelsB))
		}
		for _, label := range labelsA {
			valueA, _ := frameA.Get(label)
			valueB, _ := frameB.Get(label)
			if valueA != valueB {
				t.Fatalf("Frame %d: field %q diverged: %q != %q", i, label, valueA, valueB)
			}
		}
	}
}

func TestSimProfile_SeedsDiverge(t *testing.T) {
	a := NewMPPTProfile(1)
	b := NewMPPTProfile(2)

	diverged := false
	for i := 0; i < 50 && !diverged; i++ {
		va, _ := a.NextFrame().Get("VPV")
		vb, _ := b.NextFrame().Get("VPV")
		if va != vb {
			diverged = true
		}
	}
	if !diverged {
		t.Error("Different seeds should produce different panel voltage walks")
	}
}

func TestSimProfile_MPPTFrameShape(t *testing.T) {
	p := NewMPPTProfile(7)
	frame := p.NextFrame()

	expected := []string{
		"PID", "FW", "SER#", "V", "I", "VPV", "PPV", "CS", "MPPT",
		"OR", "ERR", "LOAD", "IL", "H19", "H20", "H21", "H22", "H23", "HSDS",
	}
	if frame.Len() != len(expected) {
		t.Errorf("Len = %d, want %d", frame.Len(), len(expected))
	}
	for _, label := range expected {
		if !frame.Has(label) {
			t.Errorf("missing label %q", label)
		}
	}

	if pid, ok := frame.ProductID(); !ok || pid != 0xA053 {
		t.Errorf("ProductID = 0x%04X, %v; want 0xA053", pid, ok)
	}
	if volts, ok := frame.BatteryVolts(); !ok || volts < 11.0 || volts > 15.0 {
		t.Errorf("BatteryVolts = %v, %v; want a plausible 12 V system value", volts, ok)
	}
	if watts, ok := frame.SolarPower(); !ok || watts < 0 {
		t.Errorf("SolarPower = %v, %v", watts, ok)
	}

	validationErrors := ValidateFrame(frame)
	if len(validationErrors) != 0 {
		t.Errorf("Simulated frame should validate clean, got %d: %v", len(validationErrors), validationErrors)
	}
}

func TestSimProfile_ShuntFrameShape(t *testing.T) {
	p := NewShuntProfile(7)
	frame := p.NextFrame()

	expected := []string{
		"PID", "FW", "SER#", "V", "I", "P", "CE", "SOC", "TTG",
		"Alarm", "Relay", "AR", "BMV",
	}
	if frame.Len() != len(expected) {
		t.Errorf("Len = %d, want %d", frame.Len(), len(expected))
	}
	for _, label := range expected {
		if !frame.Has(label) {
			t.Errorf("missing label %q", label)
		}
	}

	if amps, ok := frame.BatteryAmps(); !ok || amps >= 0 {
		t.Errorf("BatteryAmps = %v, %v; want a discharge current", amps, ok)
	}
	if soc, ok := frame.Int("SOC"); !ok || soc < 0 || soc > 1000 {
		t.Errorf("SOC = %v, %v; want 0-1000 per mille", soc, ok)
	}

	validationErrors := ValidateFrame(frame)
	if len(validationErrors) != 0 {
		t.Errorf("Simulated frame should validate clean, got %d: %v", len(validationErrors), validationErrors)
	}
}

func TestSimProfile_ChargeCycle(t *testing.T) {
	p := NewMPPTProfile(3)

	// The cycle holds bulk for 30 frames, then absorption, then float
	states := map[int64]string{}
	for step := int64(1); step <= 90; step++ {
		frame := p.NextFrame()
		cs, _ := frame.Get("CS")
		states[step] = cs
	}

	if states[1] != "3" || states[29] != "3" {
		t.Errorf("steps 1-29 should be bulk, got %q and %q", states[1], states[29])
	}
	if states[30] != "4" || states[59] != "4" {
		t.Errorf("steps 30-59 should be absorption, got %q and %q", states[30], states[59])
	}
	if states[60] != "5" || states[89] != "5" {
		t.Errorf("steps 60-89 should be float, got %q and %q", states[60], states[89])
	}
	if states[90] != "3" {
		t.Errorf("step 90 should wrap to bulk, got %q", states[90])
	}
}

func TestSimProfile_EncodeDecode(t *testing.T) {
	profiles := map[string]*SimProfile{
		"mppt":  NewMPPTProfile(11),
		"shunt": NewShuntProfile(11),
	}

	for name, p := range profiles {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 10; i++ {
				frame := p.NextFrame()
				image := MustEncodeFrame(frame)

				d := NewDecoder()
				decoded := d.Feed(image)
				if len(decoded) != 1 {
					t.Fatalf("Frame %d: expected 1 decoded frame, got %d", i, len(decoded))
				}
				for _, label := range frame.Labels() {
					want, _ := frame.Get(label)
					if got, _ := decoded[0].Get(label); got != want {
						t.Errorf("Frame %d: field %q mismatch: got %q, want %q", i, label, got, want)
					}
				}
			}
		})
	}
}

func TestSimProfile_ProductID(t *testing.T) {
	if pid := NewMPPTProfile(0).ProductID(); pid != "0xA053" {
		t.Errorf("MPPT ProductID = %q, want \"0xA053\"", pid)
	}
	if pid := NewShuntProfile(0).ProductID(); pid != "0x204" {
		t.Errorf("Shunt ProductID = %q, want \"0x204\"", pid)
	}
}
