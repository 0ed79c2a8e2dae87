package sheets

import (
	"fmt"
	"regexp"
)

// Locator identifies one tab of one spreadsheet.
type Locator struct {
	SpreadsheetID string
	// GID is the tab id from the URL fragment; "0" is the first tab.
	GID string
}

var (
	spreadsheetIDRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9\-_]+)`)
	gidRe           = regexp.MustCompile(`gid=(\d+)`)
)

// ParseSheetURL extracts the document id and tab gid from a pasted Google
// Sheets URL. The gid defaults to "0" (first tab) when absent.
func ParseSheetURL(sheetURL string) (Locator, error) {
	if sheetURL == "" {
		return Locator{}, fmt.Errorf("sheet URL is empty")
	}
	m := spreadsheetIDRe.FindStringSubmatch(sheetURL)
	if m == nil {
		return Locator{}, fmt.Errorf("not a Google Sheets URL: %s", sheetURL)
	}
	loc := Locator{SpreadsheetID: m[1], GID: "0"}
	if g := gidRe.FindStringSubmatch(sheetURL); g != nil {
		loc.GID = g[1]
	}
	return loc, nil
}

// ExportPath is the CSV export endpoint for the tab, relative to the
// Sheets host.
func (l Locator) ExportPath() string {
	return fmt.Sprintf("/spreadsheets/d/%s/export?format=csv&gid=%s", l.SpreadsheetID, l.GID)
}
