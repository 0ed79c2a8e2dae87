// Package sync normalizes raw spreadsheet rows into candidate leads.
//
// The sheets feeding this system are maintained by marketing teams in a
// mix of Hebrew and English, so header matching is alias-based: each
// canonical field carries an ordered list of accepted spellings and the
// first non-empty match wins. Columns that match nothing are preserved
// verbatim for audit.
package sync

import "strings"

// Alias tables, probed in order. Spellings collected from the sheets
// observed in production exports.
var (
	nameAliases = []string{
		"שם מלא", "שם", "full name", "full_name", "name", "Name", "Full Name",
	}
	phoneAliases = []string{
		"טלפון", "מספר טלפון", "מס פלאפון", "פלאפון", "נייד",
		"Phone Number", "phone", "phone_number", "Phone", "mobile",
	}
	emailAliases = []string{
		"מייל", "אימייל", "דוא\"ל", "email", "Email", "e-mail", "E-mail",
	}
	campaignAliases = []string{
		"שם הקמפיין", "קמפיין", "campaign", "Campaign", "campaign_name",
	}
)

// Candidate is one normalized row ready for dedupe and insert.
type Candidate struct {
	Name  string
	Phone string // normalized
	Email string // normalized
	// Campaign overrides the campaign display name when the sheet carries
	// a campaign column of its own.
	Campaign string
	// Extra holds every column that did not map to a canonical field,
	// original header spelling kept.
	Extra map[string]string
}

// NormalizeRow maps one raw row to a Candidate. ok is false when the row
// should be skipped: every cell blank, no name, or neither phone nor
// email. The skip rule guarantees the duplicate detector never sees a
// candidate with both contact fields empty. Never panics on any input.
func NormalizeRow(cells map[string]string) (c Candidate, ok bool) {
	if len(cells) == 0 {
		return Candidate{}, false
	}

	c.Name = strings.TrimSpace(pick(cells, nameAliases))
	c.Phone = NormalizePhone(pick(cells, phoneAliases))
	c.Email = NormalizeEmail(pick(cells, emailAliases))
	c.Campaign = strings.TrimSpace(pick(cells, campaignAliases))

	if c.Name == "" || (c.Phone == "" && c.Email == "") {
		return Candidate{}, false
	}

	matched := map[string]bool{}
	for _, aliases := range [][]string{nameAliases, phoneAliases, emailAliases, campaignAliases} {
		for _, a := range aliases {
			matched[foldHeader(a)] = true
		}
	}
	c.Extra = make(map[string]string)
	for header, value := range cells {
		if matched[foldHeader(header)] {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			c.Extra[header] = v
		}
	}
	return c, true
}

// pick probes aliases in priority order and returns the first non-empty
// cell. Matching tolerates case and surrounding whitespace.
func pick(cells map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v, found := cells[alias]; found && strings.TrimSpace(v) != "" {
			return v
		}
	}
	// Second pass: case/whitespace-insensitive header comparison, for
	// sheets whose headers carry stray spaces or different casing.
	for _, alias := range aliases {
		want := foldHeader(alias)
		for header, v := range cells {
			if foldHeader(header) == want && strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	return ""
}

func foldHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone strips spaces, hyphens and one leading "+". No
// country-code canonicalization: "0521234567" and "972521234567" stay
// distinct values.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.TrimPrefix(s, "+")
	return s
}

// NormalizeEmail trims, lowercases and strips trailing literal dots (a
// recurring spreadsheet export artifact).
func NormalizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".")
	return s
}
