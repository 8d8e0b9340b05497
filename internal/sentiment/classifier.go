// Package sentiment labels free text with a coarse polarity and summarizes
// labelled mentions into percentages.
package sentiment

import (
	"math"
	"strings"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
)

var (
	positiveWords = []string{"good", "great", "excellent", "win", "success", "leading", "support"}
	negativeWords = []string{"bad", "fail", "loss", "against", "crisis", "problem", "issue"}
)

// Classify returns the polarity of text by counting vocabulary hits.
// Matching is plain substring containment, so "issues" counts as "issue"
// and each vocabulary word contributes at most once.
func Classify(text string) models.Sentiment {
	content := strings.ToLower(text)

	positiveCount := countHits(content, positiveWords)
	negativeCount := countHits(content, negativeWords)

	if positiveCount > negativeCount {
		return models.SentimentPositive
	} else if negativeCount > positiveCount {
		return models.SentimentNegative
	}

	return models.SentimentNeutral
}

func countHits(content string, words []string) int {
	count := 0
	for _, word := range words {
		if strings.Contains(content, word) {
			count++
		}
	}
	return count
}

// Parse maps a provider label onto the closed sentiment set. Unknown or
// empty labels yield ok == false.
func Parse(label string) (models.Sentiment, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive":
		return models.SentimentPositive, true
	case "negative":
		return models.SentimentNegative, true
	case "neutral":
		return models.SentimentNeutral, true
	}
	return "", false
}

// Summarize computes the percentage of each class. An empty list yields all zeros.
func Summarize(mentions []models.Mention) models.SentimentSummary {
	counts := Count(mentions)
	total := len(mentions)
	if total == 0 {
		return models.SentimentSummary{}
	}

	return models.SentimentSummary{
		Positive: percent(counts[models.SentimentPositive], total),
		Negative: percent(counts[models.SentimentNegative], total),
		Neutral:  percent(counts[models.SentimentNeutral], total),
	}
}

// Count tallies mentions per sentiment class
func Count(mentions []models.Mention) map[models.Sentiment]int {
	counts := map[models.Sentiment]int{
		models.SentimentPositive: 0,
		models.SentimentNegative: 0,
		models.SentimentNeutral:  0,
	}
	for _, mention := range mentions {
		counts[mention.Sentiment]++
	}
	return counts
}

// percent rounds half up, which for non-negative values matches math.Round
func percent(count, total int) int {
	return int(math.Round(float64(count) * 100 / float64(total)))
}
