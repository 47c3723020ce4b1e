package domain

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.234, 1.23},
		{1.235, 1.24},
		{2.345, 2.35},
		{-2.345, -2.35}, // half away from zero
		{101.581138, 101.58},
		{98.418861, 98.42},
		{150.25, 150.25},
		{0.005, 0.01},
		{-0.005, -0.01},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestChangePercent(t *testing.T) {
	tests := []struct {
		name string
		prev float64
		next float64
		want float64
	}{
		{"up", 100, 101.58, 1.58},
		{"down", 100, 98.42, -1.58},
		{"flat", 95.80, 95.80, 0},
		{"zero denominator substitutes one", 0, 5, 500},
		{"rounded", 150.25, 151.00, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChangePercent(tt.prev, tt.next); got != tt.want {
				t.Errorf("ChangePercent(%v, %v) = %v, want %v", tt.prev, tt.next, got, tt.want)
			}
		})
	}
}

func TestRound2Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64Range(-1_000_000, 1_000_000).Draw(t, "v")
		r := Round2(v)

		if Round2(r) != r {
			t.Fatalf("Round2 not idempotent: Round2(%v) = %v, again %v", v, r, Round2(r))
		}
		if math.Abs(r-v) > 0.005+1e-9 {
			t.Fatalf("Round2(%v) = %v moved more than half a cent", v, r)
		}
	})
}
