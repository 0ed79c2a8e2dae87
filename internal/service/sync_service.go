package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shmuelia/LeadsManager/internal/domain"
	"github.com/shmuelia/LeadsManager/internal/notify"
	"github.com/shmuelia/LeadsManager/internal/repository"
	"github.com/shmuelia/LeadsManager/internal/sheets"
	syncrows "github.com/shmuelia/LeadsManager/internal/sync"
)

// CampaignConfigError marks an active campaign whose sheet locator is
// missing or unparseable. The campaign is skipped; other campaigns in a
// sweep proceed.
type CampaignConfigError struct {
	CampaignID int64
	Reason     string
}

func (e *CampaignConfigError) Error() string {
	return fmt.Sprintf("campaign %d misconfigured: %s", e.CampaignID, e.Reason)
}

// SheetFetcher is the slice of the sheets package the orchestrator needs.
type SheetFetcher interface {
	FetchTab(ctx context.Context, loc sheets.Locator) ([]sheets.Row, error)
}

// CampaignSyncResult is the outcome of one campaign's sync run. It is
// always produced, even on failure.
type CampaignSyncResult struct {
	Success      bool   `json:"success"`
	CampaignID   int64  `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	NewLeads     int    `json:"new_leads"`
	Duplicates   int    `json:"duplicates"`
	Errors       int    `json:"errors"`
	Error        string `json:"error,omitempty"`
}

// SweepResult aggregates one sync-all run.
type SweepResult struct {
	Success    bool                 `json:"success"`
	RunID      string               `json:"run_id"`
	NewLeads   int                  `json:"new_leads"`
	Duplicates int                  `json:"duplicates"`
	Errors     int                  `json:"errors"`
	Campaigns  []CampaignSyncResult `json:"campaigns"`
	Error      string               `json:"error,omitempty"`
}

// SyncService drives spreadsheet imports: fetch, normalize, dedupe, write,
// advance cursor. Campaigns are processed one at a time; rows in sheet
// order. Nothing here retries: a failed campaign is picked up again by the
// next scheduled sweep.
type SyncService struct {
	campaigns repository.CampaignsRepo
	leads     repository.LeadsRepo
	fetcher   SheetFetcher
	publisher notify.Publisher
	logger    *zap.Logger
}

func NewSyncService(
	campaigns repository.CampaignsRepo,
	leads repository.LeadsRepo,
	fetcher SheetFetcher,
	publisher notify.Publisher,
	logger *zap.Logger,
) *SyncService {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &SyncService{
		campaigns: campaigns,
		leads:     leads,
		fetcher:   fetcher,
		publisher: publisher,
		logger:    logger,
	}
}

// SyncCampaignByID loads the campaign and syncs it.
func (s *SyncService) SyncCampaignByID(ctx context.Context, id int64) (CampaignSyncResult, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return CampaignSyncResult{CampaignID: id, Error: err.Error()}, err
	}
	return s.SyncCampaign(ctx, campaign), nil
}

// SyncCampaign runs one campaign's sync and always returns a result.
// Row-level failures are counted and skipped; only fetch/format/config
// failures mark the run unsuccessful, and those never advance the cursor.
func (s *SyncService) SyncCampaign(ctx context.Context, campaign *domain.Campaign) CampaignSyncResult {
	result := CampaignSyncResult{
		CampaignID:   campaign.ID,
		CampaignName: campaign.CampaignName,
	}

	if !campaign.SheetURL.Valid || campaign.SheetURL.String == "" {
		err := &CampaignConfigError{CampaignID: campaign.ID, Reason: "no sheet URL configured"}
		s.logger.Warn("Skipping misconfigured campaign", zap.Int64("campaign_id", campaign.ID), zap.Error(err))
		result.Error = err.Error()
		return result
	}
	loc, err := sheets.ParseSheetURL(campaign.SheetURL.String)
	if err != nil {
		cfgErr := &CampaignConfigError{CampaignID: campaign.ID, Reason: err.Error()}
		s.logger.Warn("Skipping misconfigured campaign", zap.Int64("campaign_id", campaign.ID), zap.Error(cfgErr))
		result.Error = cfgErr.Error()
		return result
	}

	rows, err := s.fetcher.FetchTab(ctx, loc)
	if err != nil {
		s.logger.Error("Campaign sync failed",
			zap.Int64("campaign_id", campaign.ID),
			zap.String("campaign_name", campaign.CampaignName),
			zap.Error(err),
		)
		result.Error = err.Error()
		return result
	}

	cursor := campaign.Cursor(loc.GID)
	lastRow := cursor

	for _, row := range rows {
		if row.Index > lastRow {
			lastRow = row.Index
		}
		// rows at or below the cursor were considered on a previous run
		if row.Index <= cursor {
			continue
		}
		if row.Malformed {
			result.Errors++
			s.logger.Warn("Skipping malformed row",
				zap.Int64("campaign_id", campaign.ID),
				zap.Int("row", row.Index),
			)
			continue
		}
		if row.Empty() {
			continue
		}

		candidate, ok := syncrows.NormalizeRow(row.Cells)
		if !ok {
			continue
		}

		exists, err := s.leads.ExistsByContact(ctx, campaign.CustomerID, candidate.Phone, candidate.Email)
		if err != nil {
			result.Errors++
			s.logger.Error("Duplicate check failed",
				zap.Int64("campaign_id", campaign.ID),
				zap.Int("row", row.Index),
				zap.Error(err),
			)
			continue
		}
		if exists {
			result.Duplicates++
			continue
		}

		lead := s.buildLead(campaign, loc, row, candidate)
		id, err := s.leads.InsertImportedLead(ctx, lead,
			fmt.Sprintf("Lead imported from sheet, row %d", row.Index))
		if err != nil {
			result.Errors++
			s.logger.Error("Lead insert failed",
				zap.Int64("campaign_id", campaign.ID),
				zap.Int("row", row.Index),
				zap.Error(err),
			)
			continue
		}
		lead.ID = id
		s.publisher.LeadCreated(ctx, lead)
		result.NewLeads++
	}

	// Advance past everything seen, including skipped and failed rows, so
	// they are not retried forever. Fetch failures return above and leave
	// the cursor alone.
	if err := s.campaigns.AdvanceCursor(ctx, campaign.ID, loc.GID, lastRow); err != nil {
		result.Errors++
		s.logger.Error("Cursor advance failed",
			zap.Int64("campaign_id", campaign.ID),
			zap.String("gid", loc.GID),
			zap.Error(err),
		)
	}

	result.Success = true
	s.logger.Info("Campaign synced",
		zap.Int64("campaign_id", campaign.ID),
		zap.String("campaign_name", campaign.CampaignName),
		zap.Int("new_leads", result.NewLeads),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("errors", result.Errors),
		zap.Int("cursor", lastRow),
	)
	return result
}

// SyncAllCampaigns sweeps every active campaign with a sheet URL,
// sequentially. A campaign failure is recorded in its entry and the sweep
// moves on; only a failure to list campaigns fails the sweep itself.
func (s *SyncService) SyncAllCampaigns(ctx context.Context) SweepResult {
	sweep := SweepResult{RunID: uuid.NewString()}
	start := time.Now()
	logger := s.logger.With(zap.String("run_id", sweep.RunID))
	logger.Info("Auto-sync started")

	campaigns, err := s.campaigns.ListActiveSheetCampaigns(ctx)
	if err != nil {
		logger.Error("Failed to load campaigns for sweep", zap.Error(err))
		sweep.Error = err.Error()
		return sweep
	}
	if len(campaigns) == 0 {
		logger.Info("No active campaigns to sync")
		sweep.Success = true
		return sweep
	}

	for _, campaign := range campaigns {
		result := s.SyncCampaign(ctx, campaign)
		sweep.Campaigns = append(sweep.Campaigns, result)
		if result.Success {
			sweep.NewLeads += result.NewLeads
			sweep.Duplicates += result.Duplicates
			sweep.Errors += result.Errors
		} else {
			sweep.Errors++
		}
	}

	sweep.Success = true
	logger.Info("Auto-sync completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("campaigns", len(campaigns)),
		zap.Int("new_leads", sweep.NewLeads),
		zap.Int("duplicates", sweep.Duplicates),
		zap.Int("errors", sweep.Errors),
	)
	return sweep
}

// buildLead promotes the normalized fields and keeps the full original
// row plus provenance in raw_data.
func (s *SyncService) buildLead(campaign *domain.Campaign, loc sheets.Locator, row sheets.Row, candidate syncrows.Candidate) *domain.Lead {
	campaignName := campaign.CampaignName
	if candidate.Campaign != "" {
		campaignName = candidate.Campaign
	}

	raw := make(map[string]string, len(row.Cells)+5)
	for k, v := range row.Cells {
		raw[k] = v
	}
	raw["_source"] = domain.PlatformSpreadsheet
	raw["_spreadsheet_id"] = loc.SpreadsheetID
	raw["_gid"] = loc.GID
	raw["_row_number"] = fmt.Sprintf("%d", row.Index)
	raw["_campaign"] = campaignName

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		// map[string]string cannot fail to marshal; keep the lead anyway
		s.logger.Warn("Failed to encode raw row", zap.Error(err))
		rawJSON = nil
	}

	return &domain.Lead{
		CustomerID:   campaign.CustomerID,
		Name:         candidate.Name,
		Email:        candidate.Email,
		Phone:        candidate.Phone,
		Platform:     domain.PlatformSpreadsheet,
		CampaignName: campaignName,
		Status:       domain.LeadStatusNew,
		RawData:      rawJSON,
	}
}
