package upstream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/go-resty/resty/v2"
)

// MentionlyticsSource implements the Mentionlytics REST API
type MentionlyticsSource struct {
	token  string
	client *resty.Client
}

type mentionlyticsSentimentResponse struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

type mentionlyticsMentionsResponse struct {
	Mentions []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Author    string `json:"author"`
		Platform  string `json:"platform"`
		Sentiment string `json:"sentiment"`
		Timestamp string `json:"timestamp"`
	} `json:"mentions"`
	HasMore bool `json:"hasMore"`
}

type mentionlyticsGeographicResponse struct {
	Locations []Location `json:"locations"`
}

var _ GeoProvider = (*MentionlyticsSource)(nil)

// NewMentionlyticsSource creates a new Mentionlytics source
func NewMentionlyticsSource(baseURL, token string, timeout time.Duration) *MentionlyticsSource {
	return &MentionlyticsSource{
		token: token,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetAuthToken(token).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "War-Room/1.0"),
	}
}

func (m *MentionlyticsSource) GetName() string {
	return "mentionlytics"
}

func (m *MentionlyticsSource) IsEnabled() bool {
	return m.token != ""
}

func (m *MentionlyticsSource) get(ctx context.Context, path string, params map[string]string, result interface{}) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		Get(path)
	if err != nil {
		return fmt.Errorf("mentionlytics request %s failed: %w", path, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("mentionlytics API returned status %d for %s", resp.StatusCode(), path)
	}
	return nil
}

func (m *MentionlyticsSource) FetchSentiment(ctx context.Context, period string) (models.SentimentSummary, error) {
	var body mentionlyticsSentimentResponse
	if err := m.get(ctx, "/sentiment", map[string]string{"period": period}, &body); err != nil {
		return models.SentimentSummary{}, err
	}

	return models.SentimentSummary{
		Positive: body.Positive,
		Negative: body.Negative,
		Neutral:  body.Neutral,
	}, nil
}

func (m *MentionlyticsSource) FetchMentions(ctx context.Context, limit int) ([]models.Mention, bool, error) {
	var body mentionlyticsMentionsResponse
	if err := m.get(ctx, "/mentions", map[string]string{"limit": strconv.Itoa(limit)}, &body); err != nil {
		return nil, false, err
	}

	mentions := make([]models.Mention, 0, len(body.Mentions))
	for _, item := range body.Mentions {
		mentions = append(mentions, models.Mention{
			ID:        firstNonEmpty(item.ID, newUpstreamID("ml")),
			Text:      item.Text,
			Author:    firstNonEmpty(item.Author, "Unknown"),
			Platform:  firstNonEmpty(item.Platform, "Unknown"),
			Timestamp: firstNonEmpty(item.Timestamp, time.Now().UTC().Format(time.RFC3339Nano)),
			Sentiment: labelOrClassify(item.Sentiment, item.Text),
		})
	}

	return mentions, body.HasMore, nil
}

func (m *MentionlyticsSource) FetchGeographic(ctx context.Context) ([]Location, error) {
	var body mentionlyticsGeographicResponse
	if err := m.get(ctx, "/geographic", nil, &body); err != nil {
		return nil, err
	}
	return body.Locations, nil
}

func (m *MentionlyticsSource) Validate(ctx context.Context) error {
	var ignored map[string]interface{}
	return m.get(ctx, "/account", nil, &ignored)
}
