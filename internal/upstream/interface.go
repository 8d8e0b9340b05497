package upstream

import (
	"context"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
)

// Provider is a third-party source of mention analytics
type Provider interface {
	GetName() string
	IsEnabled() bool
	FetchSentiment(ctx context.Context, period string) (models.SentimentSummary, error)
	FetchMentions(ctx context.Context, limit int) ([]models.Mention, bool, error)
	Validate(ctx context.Context) error
}

// GeoProvider is implemented by providers that break mentions down by region
type GeoProvider interface {
	Provider
	FetchGeographic(ctx context.Context) ([]Location, error)
}
