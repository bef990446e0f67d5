package simulator

import (
	"iter"

	"ab-sim/pkg/models"

	"golang.org/x/sync/errgroup"
)

// partitionChunk borne la mémoire du mode partitionné.
const partitionChunk = 8192

// partitionedRows génère chaque utilisateur depuis son propre flux PCG (seed, userID),
// par blocs, avec cfg.Workers goroutines. La sortie ne dépend pas du nombre de workers
// mais diffère du mode séquentiel.
func (e *Engine) partitionedRows() iter.Seq[models.Row] {
	return func(yield func(models.Row) bool) {
		n := e.cfg.UserCount
		buf := make([]models.Row, min(partitionChunk, n))
		for start := 0; start < n; start += partitionChunk {
			chunk := buf[:min(partitionChunk, n-start)]
			e.fillChunk(chunk, start)
			for _, r := range chunk {
				if !yield(r) {
					return
				}
			}
		}
	}
}

// fillChunk remplit chunk[i] avec l'utilisateur start+i+1.
func (e *Engine) fillChunk(chunk []models.Row, start int) {
	workers := min(e.cfg.Workers, len(chunk))
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := w; i < len(chunk); i += workers {
				userID := start + i + 1
				chunk[i] = e.draw(newSource(e.cfg.Seed, uint64(userID)), userID)
			}
			return nil
		})
	}
	_ = g.Wait()
}
