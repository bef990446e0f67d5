package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		UserCount:     10,
		BaselineRate:  0.10,
		TreatmentLift: 0.05,
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:          30,
		Seed:          42,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"zero users":     func(c *Config) { c.UserCount = 0 },
		"negative users": func(c *Config) { c.UserCount = -5 },
		"baseline zero":  func(c *Config) { c.BaselineRate = 0 },
		"baseline one":   func(c *Config) { c.BaselineRate = 1 },
		"baseline 1.5":   func(c *Config) { c.BaselineRate = 1.5 },
		"baseline NaN":   func(c *Config) { c.BaselineRate = math.NaN() },
		"lift Inf":       func(c *Config) { c.TreatmentLift = math.Inf(1) },
		"zero days":      func(c *Config) { c.Days = 0 },
		"no start date":  func(c *Config) { c.StartDate = time.Time{} },
		"neg workers":    func(c *Config) { c.Workers = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestTreatmentRate(t *testing.T) {
	cfg := validConfig()
	if got := cfg.TreatmentRate(); math.Abs(got-0.105) > 1e-12 {
		t.Fatalf("got %v, want 0.105", got)
	}
	cfg.TreatmentLift = 0
	if cfg.TreatmentRate() != cfg.BaselineRate {
		t.Fatalf("zero lift should keep baseline rate")
	}
}

func TestISOTimestamp(t *testing.T) {
	r := Row{Timestamp: time.Date(2025, 1, 3, 7, 5, 0, 0, time.UTC)}
	if got := r.ISOTimestamp(); got != "2025-01-03T07:05:00" {
		t.Fatalf("got %q", got)
	}
	// offset non nul conservé
	paris := time.FixedZone("", 3600)
	r.Timestamp = time.Date(2025, 1, 3, 7, 5, 0, 0, paris)
	if got := r.ISOTimestamp(); got != "2025-01-03T07:05:00+01:00" {
		t.Fatalf("got %q", got)
	}
	// offset explicite nul ("Z" en entrée) → +00:00, pas de rendu naïf
	r.Timestamp = time.Date(2025, 1, 3, 7, 5, 0, 0, time.FixedZone("", 0))
	if got := r.ISOTimestamp(); got != "2025-01-03T07:05:00+00:00" {
		t.Fatalf("got %q", got)
	}
}

func TestEnumStrings(t *testing.T) {
	if Treatment.String() != "treatment" || BR.String() != "BR" || Mobile.String() != "mobile" {
		t.Fatal("unexpected enum names")
	}
	if Variant(9).String() != "unknown" {
		t.Fatal("out of range variant should be unknown")
	}
}
