// Package importer loads vocabulary from spreadsheets.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/sprachiz/internal/logging"
	"github.com/abhisek/sprachiz/internal/spacedrep"
)

// Columns, left to right: source, target, context, difficulty, theme.
// Only source and target are required.
const (
	colSource = iota
	colTarget
	colContext
	colDifficulty
	colTheme
)

// Row is one vocabulary entry read from a sheet.
type Row struct {
	Line       int
	Source     string
	Target     string
	Context    string
	Difficulty spacedrep.Difficulty
	ThemeID    string
}

// RowError describes a row that could not be read or imported.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ReadVocabulary reads rows from an xlsx workbook. sheet may be empty to
// use the first sheet. A first row whose first cell reads "source" is
// treated as a header. Blank rows are skipped; malformed rows are returned
// as RowErrors.
func ReadVocabulary(r io.Reader, sheet string) ([]Row, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var (
		rows []Row
		bad  []RowError
	)
	for i, cols := range cells {
		line := i + 1
		if i == 0 && strings.EqualFold(cell(cols, colSource), "source") {
			continue
		}
		if isBlank(cols) {
			continue
		}

		row := Row{
			Line:    line,
			Source:  cell(cols, colSource),
			Target:  cell(cols, colTarget),
			Context: cell(cols, colContext),
			ThemeID: cell(cols, colTheme),
		}
		if row.Source == "" || row.Target == "" {
			bad = append(bad, RowError{Line: line, Err: errors.New("source and target are required")})
			continue
		}
		d, err := spacedrep.ParseDifficulty(cell(cols, colDifficulty))
		if err != nil {
			bad = append(bad, RowError{Line: line, Err: err})
			continue
		}
		row.Difficulty = d
		rows = append(rows, row)
	}
	return rows, bad, nil
}

func cell(cols []string, i int) string {
	if i >= len(cols) {
		return ""
	}
	return strings.TrimSpace(cols[i])
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ItemAdder saves new vocabulary items.
type ItemAdder interface {
	Add(ctx context.Context, in spacedrep.NewItem, now time.Time) (*spacedrep.Item, error)
}

// Result summarizes an import.
type Result struct {
	Created    int
	Duplicates int
	Errors     []RowError
}

// Import adds rows for a learner. Duplicates are counted and skipped; other
// per-row failures are collected. Only context cancellation stops the run.
func Import(ctx context.Context, adder ItemAdder, learnerID string, rows []Row, now time.Time, log logrus.FieldLogger) (*Result, error) {
	if log == nil {
		log = logging.Discard()
	}

	res := &Result{}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, err := adder.Add(ctx, spacedrep.NewItem{
			LearnerID:       learnerID,
			SourceTerm:      row.Source,
			TargetTerm:      row.Target,
			ContextSentence: row.Context,
			ThemeID:         row.ThemeID,
			Difficulty:      row.Difficulty,
		}, now)
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, spacedrep.ErrDuplicateItem):
			res.Duplicates++
		default:
			res.Errors = append(res.Errors, RowError{Line: row.Line, Err: err})
		}
	}

	log.WithFields(logrus.Fields{
		"learner":    learnerID,
		"created":    res.Created,
		"duplicates": res.Duplicates,
		"failed":     len(res.Errors),
	}).Info("vocabulary imported")
	return res, nil
}
