package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shmuelia/LeadsManager/internal/domain"
	"github.com/shmuelia/LeadsManager/internal/repository"
	"github.com/shmuelia/LeadsManager/internal/sheets"
)

// fakeFetcher serves canned rows (or an error) per spreadsheet id.
type fakeFetcher struct {
	rows map[string][]sheets.Row
	errs map[string]error
}

func (f *fakeFetcher) FetchTab(_ context.Context, loc sheets.Locator) ([]sheets.Row, error) {
	if err, ok := f.errs[loc.SpreadsheetID]; ok {
		return nil, err
	}
	return f.rows[loc.SpreadsheetID], nil
}

// recordingPublisher captures published leads.
type recordingPublisher struct {
	leads []*domain.Lead
}

func (p *recordingPublisher) LeadCreated(_ context.Context, lead *domain.Lead) {
	p.leads = append(p.leads, lead)
}

// dataRows builds sheet rows from records, indexed from 2 (row 1 is the
// header).
func dataRows(headers []string, records [][]string) []sheets.Row {
	rows := make([]sheets.Row, 0, len(records))
	for i, record := range records {
		cells := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(record) {
				cells[h] = record[j]
			} else {
				cells[h] = ""
			}
		}
		rows = append(rows, sheets.Row{Index: i + 2, Cells: cells})
	}
	return rows
}

type syncFixture struct {
	campaigns *repository.MemoryCampaignsRepo
	leads     *repository.MemoryLeadsRepo
	fetcher   *fakeFetcher
	publisher *recordingPublisher
	service   *SyncService
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		campaigns: repository.NewMemoryCampaignsRepo(),
		leads:     repository.NewMemoryLeadsRepo(),
		fetcher:   &fakeFetcher{rows: map[string][]sheets.Row{}, errs: map[string]error{}},
		publisher: &recordingPublisher{},
	}
	f.service = NewSyncService(f.campaigns, f.leads, f.fetcher, f.publisher, zap.NewNop())
	return f
}

func (f *syncFixture) addCampaign(t *testing.T, customerID int64, name, spreadsheetID string) int64 {
	t.Helper()
	url := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit?gid=0", spreadsheetID)
	id, err := f.campaigns.CreateCampaign(context.Background(), &domain.Campaign{
		CustomerID:   customerID,
		CampaignName: name,
		SheetID:      sql.NullString{String: spreadsheetID, Valid: true},
		SheetURL:     sql.NullString{String: url, Valid: true},
		Active:       true,
	})
	require.NoError(t, err)
	return id
}

func (f *syncFixture) cursor(t *testing.T, campaignID int64, gid string) int {
	t.Helper()
	c, err := f.campaigns.GetCampaign(context.Background(), campaignID)
	require.NoError(t, err)
	return c.Cursor(gid)
}

var hebrewHeaders = []string{"שם מלא", "טלפון", "מייל"}

func TestSyncCampaign_ImportsNewLeads(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "Summer Promo", "sheetA")
	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"דנה לוי", "052-123-4567", "dana@example.com"},
		{"יוסי כהן", "052-222-3333", ""},
		{"Shira", "", "shira@example.com"},
	})

	result, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.NewLeads)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 0, result.Errors)

	// cursor advanced to the last row seen (rows 2..4)
	assert.Equal(t, 4, f.cursor(t, id, "0"))

	// leads carry normalized fields and provenance
	leads, total, err := f.leads.ListLeads(context.Background(), repository.LeadFilters{CustomerID: 1}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for _, l := range leads {
		assert.Equal(t, domain.LeadStatusNew, l.Status)
		assert.Equal(t, domain.PlatformSpreadsheet, l.Platform)
		assert.Equal(t, "Summer Promo", l.CampaignName)
		assert.Contains(t, string(l.RawData), `"_row_number"`)
		assert.Contains(t, string(l.RawData), `"_spreadsheet_id":"sheetA"`)

		// each import wrote exactly one audit activity
		acts, err := f.leads.ListActivities(context.Background(), l.ID)
		require.NoError(t, err)
		require.Len(t, acts, 1)
		assert.Equal(t, domain.ActivityTypeSheetImport, acts[0].ActivityType)
	}

	// every insert published a tenant event
	assert.Len(t, f.publisher.leads, 3)

	// phone was normalized before storage
	exists, err := f.leads.ExistsByContact(context.Background(), 1, "0521234567", "")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSyncCampaign_IdempotentReplay_CursorAdvanced(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "C", "sheetA")
	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"A", "0521111111", ""},
		{"B", "0522222222", ""},
	})

	first, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, first.NewLeads)

	// unchanged sheet, cursor advanced: nothing is even re-evaluated
	second, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.NewLeads)
	assert.Equal(t, 0, second.Duplicates)
	assert.Equal(t, 0, second.Errors)
}

// failingCursorCampaigns simulates a crash between row processing and the
// cursor update.
type failingCursorCampaigns struct {
	repository.CampaignsRepo
	fail bool
}

func (r *failingCursorCampaigns) AdvanceCursor(ctx context.Context, campaignID int64, gid string, row int) error {
	if r.fail {
		return fmt.Errorf("simulated crash before cursor update")
	}
	return r.CampaignsRepo.AdvanceCursor(ctx, campaignID, gid, row)
}

func TestSyncCampaign_ReplayWithoutCursorAdvance_DedupeIsTheSafetyNet(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "C", "sheetA")
	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"A", "0521111111", ""},
		{"B", "0522222222", ""},
	})

	wrapped := &failingCursorCampaigns{CampaignsRepo: f.campaigns, fail: true}
	crashy := NewSyncService(wrapped, f.leads, f.fetcher, nil, zap.NewNop())

	first, err := crashy.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, first.NewLeads)
	assert.Equal(t, 1, first.Errors) // the failed cursor update
	assert.Equal(t, 1, f.cursor(t, id, "0"))

	// replay with the cursor still at the header: every row is seen again
	// and the duplicate detector absorbs all of them
	second, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewLeads)
	assert.Equal(t, 2, second.Duplicates)
	assert.Equal(t, 3, f.cursor(t, id, "0"))
}

func TestSyncCampaign_CursorMonotonicWhenSheetShrinks(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "C", "sheetA")
	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"A", "0521111111", ""},
		{"B", "0522222222", ""},
		{"C", "0523333333", ""},
	})

	_, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 4, f.cursor(t, id, "0"))

	// rows deleted from the sheet: last index seen is now below the
	// stored cursor, which must not roll back
	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"A", "0521111111", ""},
	})
	result, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 4, f.cursor(t, id, "0"))
}

func TestSyncCampaign_DuplicateByNormalizedPhone(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "C", "sheetA")

	_, err := f.leads.InsertImportedLead(context.Background(), &domain.Lead{
		CustomerID: 1, Name: "Original", Phone: "0521234567",
	}, "seed")
	require.NoError(t, err)

	// same digits after normalization, different name
	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"Someone Else", "052-123-4567", ""},
	})

	result, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewLeads)
	assert.Equal(t, 1, result.Duplicates)
}

func TestSyncCampaign_DuplicateByEmailDotStripping(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "C", "sheetA")

	_, err := f.leads.InsertImportedLead(context.Background(), &domain.Lead{
		CustomerID: 1, Name: "Original", Email: "user@example.com",
	}, "seed")
	require.NoError(t, err)

	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"Someone Else", "", "User@Example.com."},
	})

	result, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewLeads)
	assert.Equal(t, 1, result.Duplicates)
}

func TestSyncCampaign_DuplicatesAreTenantScoped(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 2, "Other Tenant", "sheetA")

	// same phone exists for customer 1; customer 2 must still import it
	_, err := f.leads.InsertImportedLead(context.Background(), &domain.Lead{
		CustomerID: 1, Name: "Original", Phone: "0521234567",
	}, "seed")
	require.NoError(t, err)

	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"New For Tenant 2", "0521234567", ""},
	})

	result, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewLeads)
	assert.Equal(t, 0, result.Duplicates)
}

func TestSyncCampaign_RejectedRowsAdvanceCursorWithoutCounting(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "C", "sheetA")
	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"", "", ""},                 // all empty
		{"Name Only", "", ""},        // no contact
		{"", "0529999999", ""},       // no name
		{"Valid", "0528888888", ""},  // imported
	})

	result, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewLeads)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 0, result.Errors)
	// skipped rows are never retried
	assert.Equal(t, 5, f.cursor(t, id, "0"))
}

func TestSyncCampaign_PerRowFaultIsolation(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "C", "sheetA")

	rows := dataRows(hebrewHeaders, [][]string{
		{"A", "0521111111", ""},
		{"B", "0522222222", ""},
		{"", "", ""}, // placeholder, replaced below
		{"D", "0524444444", ""},
		{"E", "0525555555", ""},
	})
	rows[2] = sheets.Row{Index: 4, Malformed: true}
	f.fetcher.rows["sheetA"] = rows

	result, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 4, result.NewLeads)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 6, f.cursor(t, id, "0"))
}

func TestSyncCampaign_InsertFailureDoesNotAbortRun(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "C", "sheetA")
	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"A", "0521111111", ""},
		{"B", "0522222222", ""},
		{"C", "0523333333", ""},
	})
	f.leads.FailNextInserts = 1

	result, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, result.NewLeads)
	assert.Equal(t, 1, result.Errors)
	assert.True(t, result.Success)
}

func TestSyncCampaign_FetchErrorLeavesCursorAlone(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "C", "sheetA")
	f.fetcher.errs["sheetA"] = &sheets.FetchError{URL: "/x", StatusCode: 503}

	result, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, 1, f.cursor(t, id, "0"))
}

func TestSyncCampaign_MissingSheetURL(t *testing.T) {
	f := newSyncFixture()
	id, err := f.campaigns.CreateCampaign(context.Background(), &domain.Campaign{
		CustomerID: 1, CampaignName: "No Sheet", Active: true,
	})
	require.NoError(t, err)

	result, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "misconfigured")
}

func TestSyncCampaign_CampaignColumnOverridesName(t *testing.T) {
	f := newSyncFixture()
	id := f.addCampaign(t, 1, "Default Name", "sheetA")
	headers := []string{"name", "phone", "שם הקמפיין"}
	f.fetcher.rows["sheetA"] = dataRows(headers, [][]string{
		{"A", "0521111111", "Facebook Spring"},
		{"B", "0522222222", ""},
	})

	_, err := f.service.SyncCampaignByID(context.Background(), id)
	require.NoError(t, err)

	leads, _, err := f.leads.ListLeads(context.Background(), repository.LeadFilters{CustomerID: 1}, 1, 50)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	names := map[string]bool{}
	for _, l := range leads {
		names[l.CampaignName] = true
	}
	assert.True(t, names["Facebook Spring"])
	assert.True(t, names["Default Name"])
}

func TestSyncAllCampaigns_SweepIsolation(t *testing.T) {
	f := newSyncFixture()
	idA := f.addCampaign(t, 1, "Alpha", "sheetA")
	idB := f.addCampaign(t, 1, "Broken", "sheetB")
	idC := f.addCampaign(t, 2, "Gamma", "sheetC")

	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"A", "0521111111", ""},
	})
	f.fetcher.errs["sheetB"] = &sheets.FetchError{URL: "/b", Err: fmt.Errorf("no route to host")}
	f.fetcher.rows["sheetC"] = dataRows(hebrewHeaders, [][]string{
		{"C1", "0523333333", ""},
		{"C2", "0524444444", ""},
	})

	sweep := f.service.SyncAllCampaigns(context.Background())
	assert.True(t, sweep.Success)
	assert.NotEmpty(t, sweep.RunID)
	assert.Equal(t, 3, sweep.NewLeads)
	assert.Equal(t, 1, sweep.Errors) // the broken campaign counts once

	require.Len(t, sweep.Campaigns, 3)
	byID := map[int64]CampaignSyncResult{}
	for _, r := range sweep.Campaigns {
		byID[r.CampaignID] = r
	}
	assert.True(t, byID[idA].Success)
	assert.False(t, byID[idB].Success)
	assert.NotEmpty(t, byID[idB].Error)
	assert.True(t, byID[idC].Success)
	assert.Equal(t, 2, byID[idC].NewLeads)
}

func TestSyncAllCampaigns_InactiveAndUnconfiguredSkipped(t *testing.T) {
	f := newSyncFixture()
	active := f.addCampaign(t, 1, "Active", "sheetA")
	f.fetcher.rows["sheetA"] = dataRows(hebrewHeaders, [][]string{
		{"A", "0521111111", ""},
	})

	inactive := f.addCampaign(t, 1, "Inactive", "sheetB")
	require.NoError(t, f.campaigns.SetCampaignActive(context.Background(), inactive, false))

	_, err := f.campaigns.CreateCampaign(context.Background(), &domain.Campaign{
		CustomerID: 1, CampaignName: "No URL", Active: true,
	})
	require.NoError(t, err)

	sweep := f.service.SyncAllCampaigns(context.Background())
	require.Len(t, sweep.Campaigns, 1)
	assert.Equal(t, active, sweep.Campaigns[0].CampaignID)
}
