package simulator

import "ab-sim/pkg/models"

/*
TABLES → constantes du modèle, indexées par l'enum de la covariable
*/

var (
	variantWeights = [...]float64{models.Control: 0.5, models.Treatment: 0.5}
	countryWeights = [...]float64{models.US: 0.35, models.GB: 0.15, models.DE: 0.15, models.IN: 0.20, models.BR: 0.15}
	deviceWeights  = [...]float64{models.Desktop: 0.6, models.Mobile: 0.4}
)

// Décalage additif de probabilité par pays / appareil.
var (
	countryAdjustment = [...]float64{models.US: 0, models.GB: -0.01, models.DE: -0.015, models.IN: +0.005, models.BR: +0.003}
	deviceAdjustment  = [...]float64{models.Desktop: 0, models.Mobile: -0.008}
)

// revenueScale est la médiane (unités linéaires) du revenu lognormal par pays.
var revenueScale = [...]float64{models.US: 60, models.GB: 55, models.DE: 50, models.IN: 15, models.BR: 20}

const (
	revenueSigma = 0.5
	minProb      = 0.0001
	maxProb      = 0.9999
)

// weightedIndex tire un index selon weights avec un seul uniforme.
func weightedIndex(u float64, weights []float64) int {
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u < acc {
			return i
		}
	}
	// arrondi flottant: la somme peut valoir 0.9999999
	return len(weights) - 1
}

func clamp(p, lo, hi float64) float64 {
	if p < lo {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}
