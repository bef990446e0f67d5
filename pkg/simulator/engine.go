package simulator

import (
	"iter"
	"math"
	"math/rand/v2"
	"time"

	"ab-sim/pkg/models"

	"github.com/shopspring/decimal"
)

// sequentialStream est l'identifiant de flux PCG du mode séquentiel.
// Les flux par utilisateur utilisent userID (>= 1) et ne le croisent jamais.
const sequentialStream = 0

// maxPrealloc borne la capacité initiale de Run; append prend le relais au-delà.
const maxPrealloc = 1 << 20

// Engine produit la séquence ordonnée des lignes pour une config donnée.
type Engine struct {
	cfg           models.Config
	treatmentRate float64
}

// New valide la config avant tout tirage.
func New(cfg models.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, treatmentRate: cfg.TreatmentRate()}, nil
}

// Run matérialise toute la séquence.
func (e *Engine) Run() []models.Row {
	rows := make([]models.Row, 0, preallocRows(e.cfg.UserCount))
	for r := range e.Rows() {
		rows = append(rows, r)
	}
	return rows
}

func preallocRows(n int) int {
	return min(n, maxPrealloc)
}

// Rows returns a lazy, restartable sequence: every call reseeds a fresh source
// from the config, so two iterations always yield the same rows. Stopping the
// range loop early stops generation.
func (e *Engine) Rows() iter.Seq[models.Row] {
	if e.cfg.Workers > 1 {
		return e.partitionedRows()
	}
	return func(yield func(models.Row) bool) {
		rng := newSource(e.cfg.Seed, sequentialStream)
		for i := 0; i < e.cfg.UserCount; i++ {
			if !yield(e.draw(rng, i+1)) {
				return
			}
		}
	}
}

// Probability est la probabilité de conversion effective, bornée à [0.0001, 0.9999].
func (e *Engine) Probability(v models.Variant, c models.Country, d models.Device) float64 {
	base := e.cfg.BaselineRate
	if v == models.Treatment {
		base = e.treatmentRate
	}
	return clamp(base+countryAdjustment[c]+deviceAdjustment[d], minProb, maxProb)
}

func newSource(seed int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}

// draw génère un utilisateur. L'ordre des tirages est fixe:
// variant, country, device, jour, heure, minute, bernoulli, [revenu].
func (e *Engine) draw(rng *rand.Rand, userID int) models.Row {
	variant := models.Variant(weightedIndex(rng.Float64(), variantWeights[:]))
	country := models.Country(weightedIndex(rng.Float64(), countryWeights[:]))
	device := models.Device(weightedIndex(rng.Float64(), deviceWeights[:]))

	day := rng.IntN(e.cfg.Days)
	hour := rng.IntN(24)
	minute := rng.IntN(60)
	ts := e.cfg.StartDate.AddDate(0, 0, day).
		Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)

	p := e.Probability(variant, country, device)
	converted := rng.Float64() < p

	revenue := 0.0
	if converted {
		revenue = roundCents(math.Exp(math.Log(revenueScale[country]) + revenueSigma*rng.NormFloat64()))
	}

	return models.Row{
		UserID:    userID,
		Timestamp: ts,
		Variant:   variant,
		Country:   country,
		Device:    device,
		Converted: converted,
		Revenue:   revenue,
	}
}

// roundCents arrondit au centime, demi vers le haut (revenu toujours >= 0),
// sur la représentation décimale la plus courte du float.
func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
