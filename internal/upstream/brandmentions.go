package upstream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// BrandMentionsSource implements the BrandMentions project API
type BrandMentionsSource struct {
	apiKey string
	client *resty.Client
}

type brandMentionsProjectsResponse struct {
	Projects []struct {
		ID interface{} `json:"id"`
	} `json:"projects"`
}

type brandMentionsSentimentResponse struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

type brandMentionsMentionsResponse struct {
	Mentions []brandMentionsMention `json:"mentions"`
	HasMore  bool                   `json:"has_more"`
}

type brandMentionsMention struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	AuthorName  string `json:"author_name"`
	SourceName  string `json:"source_name"`
	SourceType  string `json:"source_type"`
	Sentiment   string `json:"sentiment"`
	CreatedAt   string `json:"created_at"`
}

// NewBrandMentionsSource creates a new BrandMentions source
func NewBrandMentionsSource(baseURL, apiKey string, timeout time.Duration) *BrandMentionsSource {
	return &BrandMentionsSource{
		apiKey: apiKey,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("X-API-Key", apiKey).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "War-Room/1.0"),
	}
}

func (b *BrandMentionsSource) GetName() string {
	return "brandmentions"
}

func (b *BrandMentionsSource) IsEnabled() bool {
	return b.apiKey != ""
}

// projectID returns the first project on the account, which holds the campaign
func (b *BrandMentionsSource) projectID(ctx context.Context) (string, error) {
	var projects brandMentionsProjectsResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetResult(&projects).
		Get("/projects")
	if err != nil {
		return "", fmt.Errorf("brandmentions projects request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("brandmentions API returned status %d", resp.StatusCode())
	}
	if len(projects.Projects) == 0 {
		return "", fmt.Errorf("brandmentions account has no projects")
	}

	id := idString(projects.Projects[0].ID)
	if id == "" {
		return "", fmt.Errorf("brandmentions project has no id")
	}
	return id, nil
}

func (b *BrandMentionsSource) FetchSentiment(ctx context.Context, period string) (models.SentimentSummary, error) {
	projectID, err := b.projectID(ctx)
	if err != nil {
		return models.SentimentSummary{}, err
	}

	var body brandMentionsSentimentResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetPathParam("project", projectID).
		SetQueryParam("period", period).
		SetResult(&body).
		Get("/projects/{project}/sentiment")
	if err != nil {
		return models.SentimentSummary{}, fmt.Errorf("brandmentions sentiment request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return models.SentimentSummary{}, fmt.Errorf("brandmentions API returned status %d", resp.StatusCode())
	}

	return models.SentimentSummary{
		Positive: body.Positive,
		Negative: body.Negative,
		Neutral:  body.Neutral,
	}, nil
}

func (b *BrandMentionsSource) FetchMentions(ctx context.Context, limit int) ([]models.Mention, bool, error) {
	projectID, err := b.projectID(ctx)
	if err != nil {
		return nil, false, err
	}

	var body brandMentionsMentionsResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetPathParam("project", projectID).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&body).
		Get("/projects/{project}/mentions")
	if err != nil {
		return nil, false, fmt.Errorf("brandmentions mentions request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, false, fmt.Errorf("brandmentions API returned status %d", resp.StatusCode())
	}

	mentions := make([]models.Mention, 0, len(body.Mentions))
	for _, m := range body.Mentions {
		mentions = append(mentions, models.Mention{
			ID:        firstNonEmpty(m.ID, newUpstreamID("bm")),
			Text:      firstNonEmpty(m.Title, m.Description, m.Content),
			Author:    firstNonEmpty(m.AuthorName, m.SourceName, "Unknown"),
			Platform:  firstNonEmpty(m.SourceType, "Social Media"),
			Timestamp: firstNonEmpty(m.CreatedAt, time.Now().UTC().Format(time.RFC3339Nano)),
			Sentiment: labelOrClassify(m.Sentiment, firstNonEmpty(m.Title, m.Description, m.Content)),
		})
	}

	logrus.WithFields(logrus.Fields{
		"provider": b.GetName(),
		"count":    len(mentions),
	}).Debug("Fetched upstream mentions")

	return mentions, body.HasMore, nil
}

func (b *BrandMentionsSource) Validate(ctx context.Context) error {
	_, err := b.projectID(ctx)
	return err
}
