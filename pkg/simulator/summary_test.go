package simulator

import (
	"testing"

	"ab-sim/pkg/models"
)

func TestSummarize(t *testing.T) {
	rows := []models.Row{
		{UserID: 1, Variant: models.Control, Converted: true, Revenue: 10.25},
		{UserID: 2, Variant: models.Control},
		{UserID: 3, Variant: models.Treatment, Converted: true, Revenue: 1.10},
		{UserID: 4, Variant: models.Treatment, Converted: true, Revenue: 2.20},
	}
	s := Summarize(rows)

	if s[models.Control].Users != 2 || s[models.Control].Conversions != 1 {
		t.Fatalf("control: %+v", s[models.Control])
	}
	if got := s[models.Treatment].Revenue.StringFixed(2); got != "3.30" {
		t.Fatalf("treatment revenue = %s, want 3.30", got)
	}
	if r := s[models.Control].ConversionRate(); r != 0.5 {
		t.Fatalf("control rate = %v", r)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s[models.Treatment].Variant != models.Treatment {
		t.Fatal("variant not set on empty summary")
	}
	if s[models.Treatment].ConversionRate() != 0 {
		t.Fatal("empty arm should report 0")
	}
}
