// Package ingestion turns provider webhook deliveries into normalized mentions.
package ingestion

import (
	"regexp"
	"strings"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/sentiment"
	"github.com/google/uuid"
)

const (
	PlatformSocial  = "Social Media"
	PlatformWeb     = "Web"
	PlatformUnknown = "Unknown"

	noContent     = "No content"
	unknownAuthor = "Unknown"
	webAuthor     = "Web Source"
	slackAuthor   = "Slack User"
)

// platforms lists the canonical spelling of every platform a chat message may name
var platforms = []string{"Twitter", "Facebook", "Reddit", "Instagram", "LinkedIn", "News"}

var (
	platformPattern  = regexp.MustCompile(`(?i)on (Twitter|Facebook|Reddit|Instagram|LinkedIn|News)`)
	sentimentPattern = regexp.MustCompile(`(?i)\[(Positive|Negative|Neutral)\]`)
	quotePattern     = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	urlPattern       = regexp.MustCompile(`https?://[^\s]+`)
)

// NewID returns a stable identifier for a mention produced by the given source
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// NormalizeStructured converts both arrays of a structured payload. The
// returned slices are nil when the payload omitted the matching key.
func NormalizeStructured(payload StructuredPayload, now time.Time) (social, web []models.Mention) {
	timestamp := now.UTC().Format(time.RFC3339Nano)

	if payload.Social != nil {
		social = make([]models.Mention, 0, len(payload.Social))
		for _, item := range payload.Social {
			social = append(social, normalizeSocial(item, timestamp))
		}
	}

	if payload.Web != nil {
		web = make([]models.Mention, 0, len(payload.Web))
		for _, item := range payload.Web {
			web = append(web, normalizeWeb(item, timestamp))
		}
	}

	return social, web
}

func normalizeSocial(item RawItem, timestamp string) models.Mention {
	return models.Mention{
		ID:        NewID(string(models.SourceSocial)),
		Source:    models.SourceSocial,
		Text:      firstNonEmpty(string(item.Title), string(item.Text), noContent),
		Author:    firstNonEmpty(string(item.Name), string(item.Username), unknownAuthor),
		Platform:  PlatformSocial,
		URL:       string(item.URL),
		Date:      string(item.Date),
		Timestamp: timestamp,
		Sentiment: classifyItem(item),
	}
}

func normalizeWeb(item RawItem, timestamp string) models.Mention {
	return models.Mention{
		ID:        NewID(string(models.SourceWeb)),
		Source:    models.SourceWeb,
		Text:      firstNonEmpty(string(item.Text), string(item.Title), noContent),
		Author:    webAuthor,
		Platform:  PlatformWeb,
		URL:       string(item.URL),
		Date:      string(item.Date),
		Timestamp: timestamp,
		Sentiment: classifyItem(item),
	}
}

// classifyItem prefers the body over the title for both item kinds
func classifyItem(item RawItem) models.Sentiment {
	return sentiment.Classify(firstNonEmpty(string(item.Text), string(item.Title)))
}

// ParseConversational extracts a mention from a chat message. It returns
// false when the message is neither a mention notice nor names the entity.
func ParseConversational(payload ConversationalPayload, entityName string, now time.Time) (models.Mention, bool) {
	text := payload.Text

	if !strings.Contains(text, "mention") && (entityName == "" || !strings.Contains(text, entityName)) {
		return models.Mention{}, false
	}

	platform := PlatformUnknown
	if match := platformPattern.FindStringSubmatch(text); match != nil {
		platform = canonicalPlatform(match[1])
	}

	// An explicit tag wins; untagged messages are neutral without classification
	label := models.SentimentNeutral
	if match := sentimentPattern.FindStringSubmatch(text); match != nil {
		if parsed, ok := sentiment.Parse(match[1]); ok {
			label = parsed
		}
	}

	mentionText := text
	if match := quotePattern.FindStringSubmatch(text); match != nil {
		mentionText = firstNonEmpty(match[1], match[2])
	}

	return models.Mention{
		ID:        NewID(string(models.SourceSlack)),
		Source:    models.SourceSlack,
		Text:      mentionText,
		Author:    firstNonEmpty(payload.UserName, slackAuthor),
		Platform:  platform,
		URL:       urlPattern.FindString(text),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Sentiment: label,
	}, true
}

func canonicalPlatform(name string) string {
	for _, p := range platforms {
		if strings.EqualFold(p, name) {
			return p
		}
	}
	return PlatformUnknown
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// SampleMention builds the synthetic mention used for smoke-testing the chat path
func SampleMention(entityName string, now time.Time) models.Mention {
	return models.Mention{
		ID:        NewID("test"),
		Source:    models.SourceSlack,
		Text:      entityName + "'s healthcare plan is exactly what Pennsylvania needs!",
		Author:    "TestUser",
		Platform:  "Twitter",
		URL:       "https://twitter.com/test/status/123",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Sentiment: models.SentimentPositive,
	}
}
