package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"

	"ab-sim/pkg/models"

	"github.com/shopspring/decimal"
)

// Stdout est la destination spéciale pour écrire le CSV sur la sortie standard.
const Stdout = "-"

// progressStep: granularité des mises à jour de la barre.
const progressStep = 1024

// Progress est satisfait par *progressbar.ProgressBar.
type Progress interface {
	Add(num int) error
}

// Header est la ligne d'en-tête du CSV, dans l'ordre des colonnes.
var Header = []string{"user_id", "timestamp", "variant", "country", "device", "converted", "revenue"}

// Record sérialise une ligne dans l'ordre de Header.
func Record(r models.Row) []string {
	converted := "0"
	if r.Converted {
		converted = "1"
	}
	return []string{
		strconv.Itoa(r.UserID),
		r.ISOTimestamp(),
		r.Variant.String(),
		r.Country.String(),
		r.Device.String(),
		converted,
		decimal.NewFromFloat(r.Revenue).StringFixed(2),
	}
}

// WriteCSV écrit l'en-tête puis les lignes dans l'ordre de génération.
// Renvoie le nombre de lignes de données écrites. progress peut être nil.
// Une annulation de ctx arrête l'écriture: les lignes déjà écrites sont vidées
// et l'erreur enveloppe ctx.Err().
func WriteCSV(ctx context.Context, w io.Writer, rows iter.Seq[models.Row], progress Progress) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n, pending := 0, 0
	var stopped error
	for r := range rows {
		if err := ctx.Err(); err != nil {
			stopped = fmt.Errorf("interrupted after %d rows: %w", n, err)
			break
		}
		if err := cw.Write(Record(r)); err != nil {
			return n, fmt.Errorf("write row %d: %w", r.UserID, err)
		}
		n++
		pending++
		if progress != nil && pending == progressStep {
			_ = progress.Add(pending)
			pending = 0
		}
	}
	if progress != nil && pending > 0 {
		_ = progress.Add(pending)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	return n, stopped
}

// WriteCSVFile crée les répertoires parents puis écrit le fichier.
// Stdout ("-") écrit sur os.Stdout.
func WriteCSVFile(ctx context.Context, path string, rows iter.Seq[models.Row], progress Progress) (int, error) {
	if path == Stdout {
		return WriteCSV(ctx, os.Stdout, rows, progress)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	n, werr := WriteCSV(ctx, f, rows, progress)
	if cerr := f.Close(); werr == nil && cerr != nil {
		werr = fmt.Errorf("close %s: %w", path, cerr)
	}
	return n, werr
}
