package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"052-123-4567", "0521234567"},
		{" 052 123 4567 ", "0521234567"},
		{"+972521234567", "972521234567"},
		{"0521234567", "0521234567"},
		{"", ""},
		// documented limitation: no country-code canonicalization
		{"972521234567", "972521234567"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizePhone(c.in), "input %q", c.in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"User@Example.com", "user@example.com"},
		{"user@example.com.", "user@example.com"},
		{"user@example.com...", "user@example.com"},
		{"  user@example.com \t", "user@example.com"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeEmail(c.in), "input %q", c.in)
	}
}

func TestNormalizeRow_HebrewHeaders(t *testing.T) {
	c, ok := NormalizeRow(map[string]string{
		"שם מלא":  "דנה לוי",
		"טלפון":   "052-123-4567",
		"מייל":    "Dana@Example.com.",
		"תאריך":   "01/02/2024",
		"הערות":   "",
	})
	require.True(t, ok)
	assert.Equal(t, "דנה לוי", c.Name)
	assert.Equal(t, "0521234567", c.Phone)
	assert.Equal(t, "dana@example.com", c.Email)
	// unmatched, non-empty columns land in Extra verbatim
	assert.Equal(t, map[string]string{"תאריך": "01/02/2024"}, c.Extra)
}

func TestNormalizeRow_EnglishHeaders(t *testing.T) {
	c, ok := NormalizeRow(map[string]string{
		"Full Name":    "John Doe",
		"Phone Number": "+972 52 111 2222",
		"Campaign":     "Summer Promo",
		"Budget":       "500",
	})
	require.True(t, ok)
	assert.Equal(t, "John Doe", c.Name)
	assert.Equal(t, "972521112222", c.Phone)
	assert.Equal(t, "", c.Email)
	assert.Equal(t, "Summer Promo", c.Campaign)
	assert.Equal(t, "500", c.Extra["Budget"])
}

func TestNormalizeRow_AliasPriorityFirstNonEmptyWins(t *testing.T) {
	c, ok := NormalizeRow(map[string]string{
		"שם מלא": "",
		"name":   "Fallback Name",
		"טלפון":  "0521234567",
	})
	require.True(t, ok)
	assert.Equal(t, "Fallback Name", c.Name)
}

func TestNormalizeRow_Rejections(t *testing.T) {
	// all-empty row
	_, ok := NormalizeRow(map[string]string{"name": "", "phone": "", "email": ""})
	assert.False(t, ok)

	// nil/empty cells
	_, ok = NormalizeRow(nil)
	assert.False(t, ok)

	// no name
	_, ok = NormalizeRow(map[string]string{"phone": "0521234567"})
	assert.False(t, ok)

	// name but neither phone nor email: must never reach the duplicate
	// detector with both contact fields empty
	_, ok = NormalizeRow(map[string]string{"name": "Orphan", "הערות": "no contact"})
	assert.False(t, ok)
}

func TestNormalizeRow_HeaderCaseAndWhitespaceTolerance(t *testing.T) {
	c, ok := NormalizeRow(map[string]string{
		" EMAIL ": "x@y.com",
		"NAME":    "Casey",
	})
	require.True(t, ok)
	assert.Equal(t, "Casey", c.Name)
	assert.Equal(t, "x@y.com", c.Email)
	assert.Empty(t, c.Extra)
}
