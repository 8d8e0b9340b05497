package monitoring

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/config"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/ingestion"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/notifications"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/sentiment"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/storage"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/store"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/upstream"
	"github.com/sirupsen/logrus"
)

// Service ingests mentions, serves aggregated views and runs the
// background jobs (snapshots, crisis checks, digests) over the store.
type Service struct {
	config              *config.Config
	store               *store.Store
	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	upstream            *upstream.Chain
	metrics             *Metrics
	alerts              []models.Alert
	deliveries          []Delivery
	sentimentBaseline   *int
	mu                  sync.RWMutex
	now                 func() time.Time
}

// Metrics holds ingestion and job counters
type Metrics struct {
	StructuredDeliveries    int            `json:"structured_deliveries"`
	MalformedPayloads       int            `json:"malformed_payloads"`
	ConversationalAccepted  int            `json:"conversational_accepted"`
	ConversationalDiscarded int            `json:"conversational_discarded"`
	TotalMentions           int            `json:"total_mentions"`
	SourceMetrics           map[string]int `json:"source_metrics"`
	SentimentBreakdown      map[string]int `json:"sentiment_breakdown"`
	AlertsRaised            int            `json:"alerts_raised"`
	LastSnapshot            *time.Time     `json:"last_snapshot,omitempty"`
	LastReport              *time.Time     `json:"last_report,omitempty"`
	ErrorCount              int            `json:"error_count"`
}

// StructuredResult describes the handling of a structured delivery
type StructuredResult struct {
	Outcome ingestion.Outcome
	Social  int
	Web     int
}

// LiveView is the structured mention set with its sentiment breakdown
type LiveView struct {
	Mentions    []models.Mention        `json:"mentions"`
	TotalCount  int                     `json:"totalCount"`
	LastUpdated *string                 `json:"lastUpdated"`
	Sentiment   models.SentimentSummary `json:"sentiment"`
}

// ConversationalView is the chat mention list, newest first
type ConversationalView struct {
	Mentions    []models.Mention `json:"mentions"`
	Count       int              `json:"count"`
	LastUpdated *string          `json:"lastUpdated"`
}

// NewService creates a new monitoring service. storage may be nil, which
// disables snapshot persistence.
func NewService(cfg *config.Config, mentionStore *store.Store, storage storage.StorageInterface,
	notificationService notifications.NotificationInterface, chain *upstream.Chain) *Service {
	if chain == nil {
		chain = upstream.NewChain()
	}
	return &Service{
		config:              cfg,
		store:               mentionStore,
		storage:             storage,
		notificationService: notificationService,
		upstream:            chain,
		metrics: &Metrics{
			SourceMetrics:      make(map[string]int),
			SentimentBreakdown: make(map[string]int),
		},
		now: time.Now,
	}
}

// IngestStructured decodes and stores a structured delivery. It never
// fails: malformed bodies are counted and stored with defaults.
func (s *Service) IngestStructured(body []byte) StructuredResult {
	payload, outcome := ingestion.DecodeStructured(body)
	now := s.now()
	social, web := ingestion.NormalizeStructured(payload, now)
	s.store.ReplaceStructured(social, web, now)

	s.mu.Lock()
	s.metrics.StructuredDeliveries++
	if outcome == ingestion.OutcomeMalformed {
		s.metrics.MalformedPayloads++
	}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"social":  len(payload.Social),
		"web":     len(payload.Web),
		"outcome": outcome,
	}).Info("Stored structured mentions")

	return StructuredResult{Outcome: outcome, Social: len(payload.Social), Web: len(payload.Web)}
}

// IngestConversational parses a chat message and stores the mention it
// describes. It reports false when the content filter discarded the message.
func (s *Service) IngestConversational(payload ingestion.ConversationalPayload) (models.Mention, bool) {
	mention, ok := ingestion.ParseConversational(payload, s.config.EntityName, s.now())

	s.mu.Lock()
	if ok {
		s.metrics.ConversationalAccepted++
	} else {
		s.metrics.ConversationalDiscarded++
	}
	s.mu.Unlock()

	if !ok {
		logrus.WithField("text", payload.Text).Debug("Discarded chat message without mention content")
		return models.Mention{}, false
	}

	s.store.PrependConversational(mention)
	logrus.WithFields(logrus.Fields{
		"platform":  mention.Platform,
		"sentiment": mention.Sentiment,
	}).Info("Cached chat mention")

	return mention, true
}

// InjectSampleMention stores a synthetic chat mention and returns it with the list size
func (s *Service) InjectSampleMention() (models.Mention, int) {
	mention := ingestion.SampleMention(s.config.EntityName, s.now())
	total := s.store.PrependConversational(mention)
	return mention, total
}

// LiveMentions returns the structured mentions with a freshly computed breakdown
func (s *Service) LiveMentions() LiveView {
	mentions := s.store.Structured()

	var lastUpdated *string
	if updated, ok := s.store.StructuredUpdated(); ok {
		formatted := updated.UTC().Format(time.RFC3339Nano)
		lastUpdated = &formatted
	}

	return LiveView{
		Mentions:    mentions,
		TotalCount:  len(mentions),
		LastUpdated: lastUpdated,
		Sentiment:   sentiment.Summarize(mentions),
	}
}

// ConversationalMentions returns the chat mentions
func (s *Service) ConversationalMentions() ConversationalView {
	mentions := s.store.Conversational()
	if mentions == nil {
		mentions = []models.Mention{}
	}

	var lastUpdated *string
	if ts, ok := s.store.ConversationalUpdated(); ok {
		lastUpdated = &ts
	}

	return ConversationalView{
		Mentions:    mentions,
		Count:       len(mentions),
		LastUpdated: lastUpdated,
	}
}

// AllMentions returns every stored mention and a breakdown over all of them
func (s *Service) AllMentions() ([]models.Mention, models.SentimentSummary) {
	mentions := s.store.All()
	return mentions, sentiment.Summarize(mentions)
}

// LastUpdated returns the most recent ingestion time across sources
func (s *Service) LastUpdated() *string {
	var latest time.Time
	if updated, ok := s.store.StructuredUpdated(); ok {
		latest = updated
	}
	if ts, ok := s.store.ConversationalUpdated(); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil && parsed.After(latest) {
			latest = parsed
		}
	}
	if latest.IsZero() {
		return nil
	}
	formatted := latest.UTC().Format(time.RFC3339Nano)
	return &formatted
}

// UpstreamSentiment proxies the provider chain
func (s *Service) UpstreamSentiment(ctx context.Context, period string) upstream.Result[upstream.SentimentReport] {
	result := s.upstream.Sentiment(ctx, period)
	s.recordUpstream("sentiment", result.Status, result.Reason)
	return result
}

// UpstreamFeed proxies the provider chain
func (s *Service) UpstreamFeed(ctx context.Context, limit int) upstream.Result[upstream.MentionsFeed] {
	result := s.upstream.Mentions(ctx, limit)
	s.recordUpstream("feed", result.Status, result.Reason)
	return result
}

// UpstreamGeo proxies the provider chain
func (s *Service) UpstreamGeo(ctx context.Context) upstream.Result[upstream.GeoReport] {
	result := s.upstream.Geographic(ctx)
	s.recordUpstream("geo", result.Status, result.Reason)
	return result
}

// ValidateUpstream reports provider connectivity
func (s *Service) ValidateUpstream(ctx context.Context) upstream.ConnectionStatus {
	return s.upstream.Validate(ctx)
}

func (s *Service) recordUpstream(call string, status upstream.Status, reason string) {
	if status == upstream.StatusOK {
		return
	}

	s.mu.Lock()
	s.metrics.ErrorCount++
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"call":   call,
		"status": status,
		"reason": reason,
	}).Warn("Serving degraded upstream data")
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	mentions := s.store.All()

	s.mu.Lock()
	s.metrics.TotalMentions = len(mentions)
	s.metrics.SourceMetrics = make(map[string]int)
	for source, count := range s.store.Counts() {
		s.metrics.SourceMetrics[string(source)] = count
	}
	s.metrics.SentimentBreakdown = make(map[string]int)
	for label, count := range sentiment.Count(mentions) {
		s.metrics.SentimentBreakdown[string(label)] = count
	}
	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	s.mu.Unlock()

	return string(data)
}
