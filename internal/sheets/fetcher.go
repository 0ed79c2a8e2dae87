// Package sheets fetches the CSV export of one Google Sheets tab.
//
// The whole tab is re-downloaded on every run; incrementality lives in the
// campaign cursor, not in partial-range fetches.
package sheets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FetchError reports a failed export download (transport error, timeout,
// or non-2xx status).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch sheet %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to fetch sheet %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FormatError reports export content that is not parseable as CSV at all
// (per-record parse failures are reported as malformed rows instead).
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("sheet content is not valid CSV: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Row is one sheet row. Index is the 1-based row number in the tab; the
// header occupies row 1, so data rows start at index 2.
type Row struct {
	Index int
	// Cells maps column header to cell text. Nil when Malformed.
	Cells map[string]string
	// Malformed marks a record the CSV parser rejected; the sync loop
	// counts it as a row error and moves on.
	Malformed bool
}

// Empty reports whether every cell of the row is blank.
func (r Row) Empty() bool {
	for _, v := range r.Cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Fetcher downloads and parses CSV exports. Read-only; it never touches
// stored state.
type Fetcher struct {
	client *resty.Client
	logger *zap.Logger
}

// NewFetcher builds a fetcher against baseURL (the Google Sheets host in
// production, an httptest server in tests). No retries: a failed campaign
// is simply picked up again on the next scheduled sweep.
func NewFetcher(baseURL string, timeout time.Duration, logger *zap.Logger) *Fetcher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "text/csv")
	return &Fetcher{client: client, logger: logger}
}

// FetchTab downloads the full current content of one tab, in sheet order.
func (f *Fetcher) FetchTab(ctx context.Context, loc Locator) ([]Row, error) {
	path := loc.ExportPath()

	resp, err := f.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, &FetchError{URL: path, Err: err}
	}
	if resp.IsError() {
		return nil, &FetchError{URL: path, StatusCode: resp.StatusCode()}
	}

	rows, err := parseCSV(resp.String())
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched sheet tab",
		zap.String("spreadsheet_id", loc.SpreadsheetID),
		zap.String("gid", loc.GID),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

// parseCSV turns export text into rows keyed by the header row.
// Duplicated headers collapse to the last occurrence, matching the
// behavior the dashboards were built against.
func parseCSV(text string) ([]Row, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &FormatError{Err: err}
	}

	rows := make([]Row, 0, 64)
	index := 1 // header row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		index++
		if err != nil {
			rows = append(rows, Row{Index: index, Malformed: true})
			continue
		}
		cells := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				cells[name] = record[i]
			} else {
				cells[name] = ""
			}
		}
		rows = append(rows, Row{Index: index, Cells: cells})
	}
	return rows, nil
}
