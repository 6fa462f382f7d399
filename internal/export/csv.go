// Package export writes score history as CSV.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/accidentalproductions/tetristats/internal/store"
)

// ErrNoScores is returned when there is nothing to export.
var ErrNoScores = errors.New("no scores to export")

// Header is the first CSV record.
var Header = []string{"ID", "Game", "Score", "Start Level", "End Level", "Lines Cleared", "Date", "Media"}

// Lister is the part of store.ScoreRepo the exporter reads from.
type Lister interface {
	All(ctx context.Context) ([]store.Score, error)
}

// FileName returns the export file name for a timestamp.
func FileName(t time.Time) string {
	return "tetris_scores_" + t.Format("20060102_150405") + ".csv"
}

// WriteCSV writes the header and one record per score. Optional fields are
// left empty and dates are written as MM/DD/YYYY.
func WriteCSV(w io.Writer, scores []store.Score) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range scores {
		rec := []string{
			strconv.Itoa(s.ID),
			string(s.Game),
			strconv.Itoa(s.Score),
			optional(s.StartLevel),
			optional(s.EndLevel),
			optional(s.LinesCleared),
			s.DateRecorded.Format("01/02/2006"),
			s.MediaPath,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write score %d: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToDir exports every score into a new timestamped file in dir and returns
// its path.
func ToDir(ctx context.Context, scores Lister, dir string, now time.Time) (string, error) {
	all, err := scores.All(ctx)
	if err != nil {
		return "", fmt.Errorf("load scores: %w", err)
	}
	if len(all) == 0 {
		return "", ErrNoScores
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := WriteCSV(f, all); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}

func optional(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
