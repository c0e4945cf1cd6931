package model

import (
	"testing"
	"time"
)

func TestFormatSerial(t *testing.T) {
	date := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		model string
		seq   int
		want  string
	}{
		{"GB-200", 1, "GB-200-20260315-001"},
		{"GB-200", 42, "GB-200-20260315-042"},
		{"ZF6", 999, "ZF6-20260315-999"},
		{"ZF6", 1000, "ZF6-20260315-1000"}, // counter overflows the padding, never truncates
	}
	for _, tc := range cases {
		if got := FormatSerial(tc.model, date, tc.seq); got != tc.want {
			t.Errorf("FormatSerial(%q, _, %d) = %q, want %q", tc.model, tc.seq, got, tc.want)
		}
	}
}

func TestUnitStatusIsTerminal(t *testing.T) {
	terminal := map[UnitStatus]bool{
		StatusProducing:              false,
		StatusPendingFinalInspection: false,
		StatusInStock:                false,
		StatusShipped:                false,
		StatusInstalled:              true,
		StatusRevisionReturn:         false,
		StatusScrapped:               true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}
