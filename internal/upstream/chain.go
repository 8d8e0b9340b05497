package upstream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/sentiment"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SentimentReport is the provider-level sentiment breakdown for a period
type SentimentReport struct {
	models.SentimentSummary
	Period    string `json:"period"`
	Timestamp string `json:"timestamp"`
}

// MentionsFeed is a page of provider mentions
type MentionsFeed struct {
	Mentions []models.Mention `json:"mentions"`
	HasMore  bool             `json:"hasMore"`
}

// ConnectionStatus describes whether any provider is reachable
type ConnectionStatus struct {
	Status              string `json:"status"` // "connected", "not_configured", "error"
	HasAPIKey           bool   `json:"hasApiKey"`
	BrandMentionsActive bool   `json:"brandMentionsActive"`
}

// Location is the mention volume and average sentiment for one region
type Location struct {
	State     string  `json:"state"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Mentions  int     `json:"mentions"`
	Sentiment float64 `json:"sentiment"`
}

// GeoReport is the regional distribution of mentions
type GeoReport struct {
	Locations []Location `json:"locations"`
	Timestamp string     `json:"timestamp"`
}

// Chain queries providers in priority order and substitutes sample data
// when none of them can answer.
type Chain struct {
	providers []Provider
	now       func() time.Time
}

// NewChain creates a chain over the given providers, highest priority first
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers, now: time.Now}
}

// Sentiment returns the breakdown for period from the first provider that answers
func (c *Chain) Sentiment(ctx context.Context, period string) Result[SentimentReport] {
	var reasons []string

	for _, p := range c.providers {
		if !p.IsEnabled() {
			continue
		}

		summary, err := p.FetchSentiment(ctx, period)
		if err == nil {
			return Ok(SentimentReport{
				SentimentSummary: summary,
				Period:           period,
				Timestamp:        c.timestamp(),
			}, p.GetName())
		}

		if ctx.Err() != nil {
			return Failed[SentimentReport](ctx.Err().Error())
		}
		logrus.WithError(err).WithField("provider", p.GetName()).Warn("Sentiment provider failed, trying next")
		reasons = append(reasons, fmt.Sprintf("%s: %v", p.GetName(), err))
	}

	return Fallback(SentimentReport{
		SentimentSummary: models.SentimentSummary{Positive: 45, Negative: 25, Neutral: 30},
		Period:           period,
		Timestamp:        c.timestamp(),
	}, fallbackReason(reasons))
}

// Mentions returns up to limit mentions from the first provider that answers
func (c *Chain) Mentions(ctx context.Context, limit int) Result[MentionsFeed] {
	var reasons []string

	for _, p := range c.providers {
		if !p.IsEnabled() {
			continue
		}

		mentions, hasMore, err := p.FetchMentions(ctx, limit)
		if err == nil {
			return Ok(MentionsFeed{Mentions: mentions, HasMore: hasMore}, p.GetName())
		}

		if ctx.Err() != nil {
			return Failed[MentionsFeed](ctx.Err().Error())
		}
		logrus.WithError(err).WithField("provider", p.GetName()).Warn("Mentions provider failed, trying next")
		reasons = append(reasons, fmt.Sprintf("%s: %v", p.GetName(), err))
	}

	return Fallback(MentionsFeed{
		Mentions: []models.Mention{{
			ID:        "1",
			Text:      "Great progress on healthcare initiatives!",
			Author:    "PolicyWatcher",
			Platform:  "Twitter",
			Sentiment: models.SentimentPositive,
			Timestamp: c.timestamp(),
		}},
	}, fallbackReason(reasons))
}

// Geographic returns the regional breakdown from the first provider that
// supports it and answers
func (c *Chain) Geographic(ctx context.Context) Result[GeoReport] {
	var reasons []string

	for _, p := range c.providers {
		geo, ok := p.(GeoProvider)
		if !ok || !p.IsEnabled() {
			continue
		}

		locations, err := geo.FetchGeographic(ctx)
		if err == nil {
			if locations == nil {
				locations = []Location{}
			}
			return Ok(GeoReport{Locations: locations, Timestamp: c.timestamp()}, p.GetName())
		}

		if ctx.Err() != nil {
			return Failed[GeoReport](ctx.Err().Error())
		}
		logrus.WithError(err).WithField("provider", p.GetName()).Warn("Geographic provider failed, trying next")
		reasons = append(reasons, fmt.Sprintf("%s: %v", p.GetName(), err))
	}

	return Fallback(GeoReport{
		Locations: []Location{
			{State: "Pennsylvania", Lat: 41.2033, Lng: -77.1945, Mentions: 342, Sentiment: 0.65},
			{State: "Michigan", Lat: 44.3148, Lng: -85.6024, Mentions: 289, Sentiment: 0.58},
			{State: "Wisconsin", Lat: 43.7844, Lng: -88.7879, Mentions: 276, Sentiment: 0.72},
		},
		Timestamp: c.timestamp(),
	}, fallbackReason(reasons))
}

// Validate checks providers in order and reports the first reachable one
func (c *Chain) Validate(ctx context.Context) ConnectionStatus {
	status := ConnectionStatus{Status: "not_configured"}

	for _, p := range c.providers {
		if !p.IsEnabled() {
			continue
		}
		status.HasAPIKey = true

		if err := p.Validate(ctx); err != nil {
			logrus.WithError(err).WithField("provider", p.GetName()).Warn("Provider validation failed")
			status.Status = "error"
			continue
		}

		status.Status = "connected"
		status.BrandMentionsActive = p.GetName() == "brandmentions"
		return status
	}

	return status
}

func (c *Chain) timestamp() string {
	return c.now().UTC().Format(time.RFC3339Nano)
}

func fallbackReason(reasons []string) string {
	if len(reasons) == 0 {
		return "no upstream provider configured"
	}
	return strings.Join(reasons, "; ")
}

// labelOrClassify keeps a provider label when it is valid and classifies text otherwise
func labelOrClassify(label, text string) models.Sentiment {
	if parsed, ok := sentiment.Parse(label); ok {
		return parsed
	}
	return sentiment.Classify(text)
}

func newUpstreamID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
