package monitoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/sentiment"
)

const (
	defaultMentionsLimit = 20
	trendDeadband        = 1
)

// MentionsView is a filtered page of stored mentions with platform counts
// taken over the whole store.
type MentionsView struct {
	Mentions  []models.Mention `json:"mentions"`
	Total     int              `json:"total"`
	Platforms map[string]int   `json:"platforms"`
	Timestamp string           `json:"timestamp"`
}

// SentimentScore is a breakdown plus a single 0-100 favourability score
type SentimentScore struct {
	Platform string `json:"platform,omitempty"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
	Score    int    `json:"score"`
}

// Trend compares the current score with the one seen at the last crisis check
type Trend struct {
	Direction string `json:"direction"` // "up", "down" or "stable"
	Change    int    `json:"change"`
}

type SentimentBreakdown struct {
	Overall   SentimentScore   `json:"overall"`
	Platforms []SentimentScore `json:"platforms"`
	Trending  Trend            `json:"trending"`
}

// SentimentView is the overall and per-platform sentiment of stored mentions
type SentimentView struct {
	Sentiment SentimentBreakdown `json:"sentiment"`
	Timestamp string             `json:"timestamp"`
}

// MonitoringMentions returns up to limit stored mentions, optionally
// restricted to one platform (case-insensitive). A non-positive limit uses
// the default.
func (s *Service) MonitoringMentions(limit int, platform string) MentionsView {
	if limit <= 0 {
		limit = defaultMentionsLimit
	}

	all := s.store.All()
	view := MentionsView{
		Mentions:  []models.Mention{},
		Platforms: make(map[string]int),
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
	}

	for _, mention := range all {
		view.Platforms[mention.Platform]++
		if platform != "" && !strings.EqualFold(mention.Platform, platform) {
			continue
		}
		view.Total++
		if len(view.Mentions) < limit {
			view.Mentions = append(view.Mentions, mention)
		}
	}
	return view
}

// MonitoringSentiment scores stored mentions overall and per platform.
// Platforms are ordered by mention count, then name.
func (s *Service) MonitoringSentiment() SentimentView {
	all := s.store.All()

	byPlatform := make(map[string][]models.Mention)
	for _, mention := range all {
		byPlatform[mention.Platform] = append(byPlatform[mention.Platform], mention)
	}

	names := make([]string, 0, len(byPlatform))
	for name := range byPlatform {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(byPlatform[names[i]]) != len(byPlatform[names[j]]) {
			return len(byPlatform[names[i]]) > len(byPlatform[names[j]])
		}
		return names[i] < names[j]
	})

	var view SentimentView
	view.Sentiment.Overall = scoreOf("", sentiment.Summarize(all))
	view.Sentiment.Platforms = make([]SentimentScore, 0, len(names))
	for _, name := range names {
		view.Sentiment.Platforms = append(view.Sentiment.Platforms, scoreOf(name, sentiment.Summarize(byPlatform[name])))
	}

	s.mu.RLock()
	baseline := s.sentimentBaseline
	s.mu.RUnlock()
	view.Sentiment.Trending = trendFrom(baseline, view.Sentiment.Overall.Score)

	view.Timestamp = s.now().UTC().Format(time.RFC3339Nano)
	return view
}

func (s *Service) recordSentimentBaseline(summary models.SentimentSummary) {
	score := scoreOf("", summary).Score

	s.mu.Lock()
	s.sentimentBaseline = &score
	s.mu.Unlock()
}

// scoreOf counts a neutral mention as half favourable
func scoreOf(platform string, summary models.SentimentSummary) SentimentScore {
	return SentimentScore{
		Platform: platform,
		Positive: summary.Positive,
		Negative: summary.Negative,
		Neutral:  summary.Neutral,
		Score:    int(math.Round(float64(summary.Positive) + float64(summary.Neutral)/2)),
	}
}

func trendFrom(baseline *int, current int) Trend {
	if baseline == nil {
		return Trend{Direction: "stable"}
	}

	change := current - *baseline
	switch {
	case change > trendDeadband:
		return Trend{Direction: "up", Change: change}
	case change < -trendDeadband:
		return Trend{Direction: "down", Change: change}
	default:
		return Trend{Direction: "stable", Change: change}
	}
}
