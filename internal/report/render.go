// Package report renders a pipeline snapshot into the publishable site:
// a self-contained HTML dashboard, a machine-readable JSON feed and CSV
// exports for download.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	apperrors "github.com/kugelfisch1984/mexc-report/internal/errors"
	"github.com/kugelfisch1984/mexc-report/internal/models"
	"github.com/kugelfisch1984/mexc-report/internal/pnl"
)

// Renderer writes all report artifacts for one snapshot.
type Renderer struct {
	logger zerolog.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(logger zerolog.Logger) *Renderer {
	return &Renderer{logger: logger.With().Str("component", "report").Logger()}
}

// Render writes index.html, data/latest.json and the CSV exports into
// outDir, creating directories as needed. Artifacts are independent: the
// first failure aborts, files already written stay in place.
func (r *Renderer) Render(snapshot *models.Snapshot, outDir string) error {
	if err := os.MkdirAll(filepath.Join(outDir, "data"), 0o755); err != nil {
		return apperrors.NewRenderError("site", fmt.Sprintf("creating %s", outDir), err)
	}

	if err := r.writeHTML(snapshot, filepath.Join(outDir, "index.html")); err != nil {
		return err
	}
	if err := r.writeJSON(snapshot, filepath.Join(outDir, "data", "latest.json")); err != nil {
		return err
	}
	if err := r.writeCSVs(snapshot, outDir); err != nil {
		return err
	}

	r.logger.Info().
		Str("out_dir", outDir).
		Str("status", string(snapshot.Status)).
		Int("trades", len(snapshot.Trades)).
		Msg("Report rendered")
	return nil
}

// writeJSON writes the snapshot feed consumed by external pages and the
// scheduled-run history.
func (r *Renderer) writeJSON(snapshot *models.Snapshot, path string) error {
	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return apperrors.NewRenderError("json", "encoding snapshot", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return apperrors.NewRenderError("json", fmt.Sprintf("writing %s", path), err)
	}
	return nil
}

func (r *Renderer) writeCSVs(snapshot *models.Snapshot, outDir string) error {
	if err := writeCSV(filepath.Join(outDir, "trades_all.csv"), snapshot.Trades); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(outDir, "daily_pnl.csv"), snapshot.Daily); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(outDir, "equity_curve.csv"), snapshot.Equity); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(outDir, "positions_now.csv"), snapshot.Positions); err != nil {
		return err
	}

	// The copy-only export is skipped entirely when no trade carried
	// copy metadata, so the published site has no misleading empty file.
	copyTrades := pnl.FilterCopyTrades(snapshot.Trades)
	if len(copyTrades) > 0 {
		if err := writeCSV(filepath.Join(outDir, "copytrades.csv"), copyTrades); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewRenderError("csv", fmt.Sprintf("creating %s", path), err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return apperrors.NewRenderError("csv", fmt.Sprintf("writing %s", path), err)
	}
	return nil
}
