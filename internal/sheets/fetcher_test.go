package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFetcher(serverURL string) *Fetcher {
	return NewFetcher(serverURL, 5*time.Second, zap.NewNop())
}

func TestParseSheetURL(t *testing.T) {
	loc, err := ParseSheetURL("https://docs.google.com/spreadsheets/d/1lsUyiufABC_x-9/edit?gid=2095877733#gid=2095877733")
	require.NoError(t, err)
	assert.Equal(t, "1lsUyiufABC_x-9", loc.SpreadsheetID)
	assert.Equal(t, "2095877733", loc.GID)
}

func TestParseSheetURL_DefaultGID(t *testing.T) {
	loc, err := ParseSheetURL("https://docs.google.com/spreadsheets/d/abc123/edit")
	require.NoError(t, err)
	assert.Equal(t, "0", loc.GID)
	assert.Equal(t, "/spreadsheets/d/abc123/export?format=csv&gid=0", loc.ExportPath())
}

func TestParseSheetURL_Invalid(t *testing.T) {
	_, err := ParseSheetURL("")
	assert.Error(t, err)

	_, err = ParseSheetURL("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestFetchTab_Success(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("שם מלא,טלפון,מייל\nדנה לוי,052-123-4567,dana@example.com\n,,\n"))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	rows, err := f.FetchTab(context.Background(), Locator{SpreadsheetID: "sheet1", GID: "0"})
	require.NoError(t, err)
	assert.Equal(t, "/spreadsheets/d/sheet1/export?format=csv&gid=0", gotPath)

	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Index) // header is row 1
	assert.Equal(t, "דנה לוי", rows[0].Cells["שם מלא"])
	assert.Equal(t, "052-123-4567", rows[0].Cells["טלפון"])
	assert.False(t, rows[0].Empty())
	assert.True(t, rows[1].Empty())
}

func TestFetchTab_MalformedRecordDoesNotAbort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Row 3 carries a bare quote inside an unquoted field.
		_, _ = w.Write([]byte("name,phone,email\nAlice,0521111111,a@example.com\nBob,05\"2,b@example.com\nCarol,0523333333,c@example.com\n"))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	rows, err := f.FetchTab(context.Background(), Locator{SpreadsheetID: "s", GID: "0"})
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.False(t, rows[0].Malformed)
	assert.True(t, rows[1].Malformed)
	assert.Equal(t, 3, rows[1].Index)
	assert.False(t, rows[2].Malformed)
	assert.Equal(t, "Carol", rows[2].Cells["name"])
}

func TestFetchTab_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	_, err := f.FetchTab(context.Background(), Locator{SpreadsheetID: "s", GID: "0"})
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusForbidden, fe.StatusCode)
}

func TestFetchTab_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, 50*time.Millisecond, zap.NewNop())
	_, err := f.FetchTab(context.Background(), Locator{SpreadsheetID: "s", GID: "0"})

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
}

func TestFetchTab_UnreachableHost(t *testing.T) {
	f := NewFetcher("http://127.0.0.1:1", 2*time.Second, zap.NewNop())
	_, err := f.FetchTab(context.Background(), Locator{SpreadsheetID: "s", GID: "0"})

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
}

func TestFetchTab_ShortRowsPadded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("name,phone,email\nAlice,0521111111\n"))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	rows, err := f.FetchTab(context.Background(), Locator{SpreadsheetID: "s", GID: "0"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Cells["email"])
}

func TestFetchTab_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	rows, err := f.FetchTab(context.Background(), Locator{SpreadsheetID: "s", GID: "0"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
