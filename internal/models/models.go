package models

import "time"

// Sentiment is the coarse polarity attached to every mention
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// SourceKind identifies which ingestion path produced a mention
type SourceKind string

const (
	SourceSocial SourceKind = "social"
	SourceWeb    SourceKind = "web"
	SourceSlack  SourceKind = "slack"
)

// Mention represents one normalized reference to the tracked entity.
// Platform is a display name such as "Social Media", "Web" or "Twitter".
// Date is provider supplied; Timestamp is the ingestion time in RFC3339Nano.
type Mention struct {
	ID        string     `json:"id"`
	Source    SourceKind `json:"-"`
	Text      string     `json:"text"`
	Author    string     `json:"author"`
	Platform  string     `json:"platform"`
	URL       string     `json:"url,omitempty"`
	Date      string     `json:"date,omitempty"`
	Timestamp string     `json:"timestamp"`
	Sentiment Sentiment  `json:"sentiment"`
}

// SentimentSummary holds rounded percentages over a set of mentions
type SentimentSummary struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Report represents a periodic digest of stored mentions
type Report struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	Period        string           `json:"period"` // "daily" or "weekly"
	TotalMentions int              `json:"total_mentions"`
	Mentions      []Mention        `json:"mentions"`
	Sentiment     SentimentSummary `json:"sentiment"`
	Platforms     map[string]int   `json:"platforms"`
	TopPlatforms  []string         `json:"top_platforms"`
}

// AlertSeverity grades a crisis alert
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Alert represents a crisis notification raised from the mention stream
type Alert struct {
	ID                 string           `json:"id"`
	Type               string           `json:"type"` // "sentiment_drop"
	Severity           AlertSeverity    `json:"severity"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Source             string           `json:"source"`
	Triggers           []string         `json:"triggers"`
	RecommendedActions []string         `json:"recommendedActions"`
	Sentiment          SentimentSummary `json:"sentiment"`
	DetectedAt         time.Time        `json:"detectedAt"`
	Status             string           `json:"status"` // "active", "acknowledged", "resolved"
}
