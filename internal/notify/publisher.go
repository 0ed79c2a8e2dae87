// Package notify pushes lead events to the dashboards. Events travel on a
// per-customer Redis channel, one topic per tenant.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shmuelia/LeadsManager/internal/domain"
)

// Publisher delivers lead events. Delivery is best-effort: implementations
// must never fail the write that produced the event.
type Publisher interface {
	LeadCreated(ctx context.Context, lead *domain.Lead)
}

// LeadEvent is the JSON payload published on the tenant channel.
type LeadEvent struct {
	EventID      string    `json:"event_id"`
	Type         string    `json:"type"`
	CustomerID   int64     `json:"customer_id"`
	LeadID       int64     `json:"lead_id"`
	Name         string    `json:"name"`
	CampaignName string    `json:"campaign_name,omitempty"`
	Platform     string    `json:"platform,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChannelFor returns the pub/sub channel for one customer's lead events.
func ChannelFor(customerID int64) string {
	return fmt.Sprintf("leads:%d", customerID)
}

// RedisPublisher publishes lead events over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, logger: logger}
}

var _ Publisher = (*RedisPublisher)(nil)

func (p *RedisPublisher) LeadCreated(ctx context.Context, lead *domain.Lead) {
	event := LeadEvent{
		EventID:      uuid.NewString(),
		Type:         "lead_created",
		CustomerID:   lead.CustomerID,
		LeadID:       lead.ID,
		Name:         lead.Name,
		CampaignName: lead.CampaignName,
		Platform:     lead.Platform,
		CreatedAt:    time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("Failed to encode lead event", zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, ChannelFor(lead.CustomerID), payload).Err(); err != nil {
		p.logger.Warn("Failed to publish lead event",
			zap.Int64("customer_id", lead.CustomerID),
			zap.Int64("lead_id", lead.ID),
			zap.Error(err),
		)
	}
}

// NopPublisher drops events. Used when Redis is disabled.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) LeadCreated(context.Context, *domain.Lead) {}
