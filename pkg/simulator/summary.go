package simulator

import (
	"ab-sim/pkg/models"

	"github.com/shopspring/decimal"
)

// ArmSummary agrège les lignes d'un bras (comptes descriptifs uniquement).
type ArmSummary struct {
	Variant     models.Variant
	Users       int
	Conversions int
	Revenue     decimal.Decimal
}

// ConversionRate renvoie conversions/users, 0 pour un bras vide.
func (a ArmSummary) ConversionRate() float64 {
	if a.Users == 0 {
		return 0
	}
	return float64(a.Conversions) / float64(a.Users)
}

// Summary est indexé par models.Variant.
type Summary [len(models.Variants)]ArmSummary

// Observe ajoute une ligne au résumé.
func (s *Summary) Observe(r models.Row) {
	arm := &s[r.Variant]
	arm.Variant = r.Variant
	arm.Users++
	if r.Converted {
		arm.Conversions++
		arm.Revenue = arm.Revenue.Add(decimal.NewFromFloat(r.Revenue))
	}
}

// Summarize agrège une séquence complète.
func Summarize(rows []models.Row) Summary {
	var s Summary
	for i, v := range models.Variants {
		s[i].Variant = v
	}
	for _, r := range rows {
		s.Observe(r)
	}
	return s
}
