package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shmuelia/LeadsManager/internal/domain"
)

func setupCampaignsMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresCampaignsRepo) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresCampaignsRepo(db)
}

func campaignRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "customer_id", "campaign_name", "campaign_type", "sheet_id", "sheet_url",
		"last_synced_row", "last_synced_at", "active", "created_at", "updated_at",
	})
}

func TestGetCampaign_DecodesCursor(t *testing.T) {
	db, mock, repo := setupCampaignsMock(t)
	defer db.Close()

	now := time.Now()
	rows := campaignRows().AddRow(
		7, 1, "Summer Promo", "google_sheets", "sheet-abc", "https://docs.google.com/spreadsheets/d/sheet-abc/edit?gid=42",
		[]byte(`{"42": 17}`), now, true, now, now,
	)
	mock.ExpectQuery(`SELECT(.+)FROM campaigns WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	c, err := repo.GetCampaign(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, "Summer Promo", c.CampaignName)
	assert.Equal(t, 17, c.Cursor("42"))
	// unseen tab falls back to the header row
	assert.Equal(t, 1, c.Cursor("0"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCampaign_NotFound(t *testing.T) {
	db, mock, repo := setupCampaignsMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT(.+)FROM campaigns WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetCampaign(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveSheetCampaigns(t *testing.T) {
	db, mock, repo := setupCampaignsMock(t)
	defer db.Close()

	now := time.Now()
	rows := campaignRows().
		AddRow(1, 1, "A", "google_sheets", "s1", "https://docs.google.com/spreadsheets/d/s1/edit", []byte(`{}`), nil, true, now, now).
		AddRow(2, 2, "B", "google_sheets", "s2", "https://docs.google.com/spreadsheets/d/s2/edit", []byte(`{"0":5}`), now, true, now, now)

	mock.ExpectQuery(`SELECT(.+)FROM campaigns\s+WHERE active = true`).
		WillReturnRows(rows)

	out, err := repo.ListActiveSheetCampaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 5, out[1].Cursor("0"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceCursor(t *testing.T) {
	db, mock, repo := setupCampaignsMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE campaigns`).
		WithArgs(int64(7), "42", 31).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AdvanceCursor(context.Background(), 7, "42", 31)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceCursor_MissingCampaign(t *testing.T) {
	db, mock, repo := setupCampaignsMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE campaigns`).
		WithArgs(int64(8), "0", 10).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AdvanceCursor(context.Background(), 8, "0", 10)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCampaign_Validation(t *testing.T) {
	db, _, repo := setupCampaignsMock(t)
	defer db.Close()

	// missing customer_id
	_, err := repo.CreateCampaign(context.Background(), &domain.Campaign{CampaignName: "X"})
	assert.Error(t, err)

	// missing campaign_name
	_, err = repo.CreateCampaign(context.Background(), &domain.Campaign{CustomerID: 1})
	assert.Error(t, err)
}
