package task

import (
	"errors"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"pending":    StatusPending,
		"Pendiente":  StatusPending,
		" completed": StatusCompleted,
		"completada": StatusCompleted,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		if err != nil {
			t.Errorf("ParseStatus(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}

	_, err := ParseStatus("bogus")
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "status" {
		t.Errorf("ParseStatus(bogus) error = %v, want status *ValidationError", err)
	}
}

func TestFormatTimestamp(t *testing.T) {
	whole := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := FormatTimestamp(whole); got != "2025-01-02T03:04:05" {
		t.Errorf("FormatTimestamp(whole) = %q", got)
	}
	frac := time.Date(2025, 1, 2, 3, 4, 5, 120000999, time.UTC)
	if got := FormatTimestamp(frac); got != "2025-01-02T03:04:05.120000" {
		t.Errorf("FormatTimestamp(frac) = %q", got)
	}
	local := time.Date(2025, 1, 2, 5, 4, 5, 0, time.FixedZone("UTC+2", 2*3600))
	if got := FormatTimestamp(local); got != "2025-01-02T03:04:05" {
		t.Errorf("FormatTimestamp(local) = %q, want UTC rendering", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, in := range []string{"2025-01-02T03:04:05", "2025-01-02T05:04:05+02:00", "2025-01-02 03:04:05"} {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("ParseTimestamp(yesterday) should fail")
	}
}
