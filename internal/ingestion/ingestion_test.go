package ingestion

import (
	"strings"
	"testing"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func TestDecodeStructured(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		outcome     Outcome
		socialCount int
		webCount    int
		socialNil   bool
		webNil      bool
	}{
		{
			name:        "Both arrays",
			body:        `{"social":[{"text":"a"}],"web":[{"title":"b"},{"title":"c"}]}`,
			outcome:     OutcomeAccepted,
			socialCount: 1,
			webCount:    2,
		},
		{
			name:        "Social only",
			body:        `{"social":[{"text":"a"}]}`,
			outcome:     OutcomeAccepted,
			socialCount: 1,
			webNil:      true,
		},
		{
			name:      "Explicit empty arrays",
			body:      `{"social":[],"web":[]}`,
			outcome:   OutcomeAccepted,
			socialNil: false,
			webNil:    false,
		},
		{
			name:        "Loosely typed fields",
			body:        `{"social":[{"text":42,"name":true,"date":1700000000,"performance":{"reach":10}}]}`,
			outcome:     OutcomeAccepted,
			socialCount: 1,
			webNil:      true,
		},
		{
			name:        "Object where a string is expected",
			body:        `{"social":[{"text":{"nested":1},"title":"kept"}]}`,
			outcome:     OutcomeAccepted,
			socialCount: 1,
			webNil:      true,
		},
		{
			name:      "Wrong type for one array",
			body:      `{"social":"oops","web":[{"text":"b"}]}`,
			outcome:   OutcomeMalformed,
			socialNil: true,
			webCount:  1,
		},
		{
			name:      "Not JSON",
			body:      `not json`,
			outcome:   OutcomeMalformed,
			socialNil: true,
			webNil:    true,
		},
		{
			name:      "Empty body",
			body:      ``,
			outcome:   OutcomeMalformed,
			socialNil: true,
			webNil:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, outcome := DecodeStructured([]byte(tt.body))
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.socialNil, payload.Social == nil)
			assert.Equal(t, tt.webNil, payload.Web == nil)
			assert.Len(t, payload.Social, tt.socialCount)
			assert.Len(t, payload.Web, tt.webCount)
		})
	}
}

func TestDecodeStructured_LooseValues(t *testing.T) {
	payload, _ := DecodeStructured([]byte(`{"social":[{"text":42,"name":true,"title":null,"url":["x"]}]}`))
	require.Len(t, payload.Social, 1)

	item := payload.Social[0]
	assert.Equal(t, LooseString("42"), item.Text)
	assert.Equal(t, LooseString("true"), item.Name)
	assert.Equal(t, LooseString(""), item.Title)
	assert.Equal(t, LooseString(""), item.URL)
}

func TestDecodeStructured_FalsyValuesFallThrough(t *testing.T) {
	payload, outcome := DecodeStructured([]byte(`{"social":[{"title":false,"text":"real body","name":0,"username":"ann"},{"title":0.0,"name":-0,"text":"x"}]}`))
	assert.Equal(t, OutcomeAccepted, outcome)
	require.Len(t, payload.Social, 2)
	assert.Equal(t, LooseString(""), payload.Social[0].Title)
	assert.Equal(t, LooseString(""), payload.Social[0].Name)
	assert.Equal(t, LooseString(""), payload.Social[1].Title)
	assert.Equal(t, LooseString(""), payload.Social[1].Name)

	social, _ := NormalizeStructured(payload, fixedNow)
	require.Len(t, social, 2)
	assert.Equal(t, "real body", social[0].Text)
	assert.Equal(t, "ann", social[0].Author)
	assert.Equal(t, "x", social[1].Text)
	assert.Equal(t, unknownAuthor, social[1].Author)
}

func TestNormalizeStructured_TimestampLayoutMatchesChat(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 123456789, time.UTC)

	social, _ := NormalizeStructured(StructuredPayload{Social: []RawItem{{Text: "hello"}}}, now)
	require.Len(t, social, 1)
	chat, ok := ParseConversational(ConversationalPayload{Text: "New mention: hello"}, "Candidate", now)
	require.True(t, ok)

	assert.Equal(t, "2024-10-01T12:00:00.123456789Z", social[0].Timestamp)
	assert.Equal(t, chat.Timestamp, social[0].Timestamp)
}

func TestNormalizeStructured(t *testing.T) {
	payload := StructuredPayload{
		Social: []RawItem{
			{Title: "Great rally", Text: "body text", Name: "Ann", URL: "https://x.com/1", Date: "2024-09-30"},
			{Text: "only text", Username: "bob42"},
			{},
		},
		Web: []RawItem{
			{Title: "Headline", Text: "Article body about a crisis"},
			{Title: "Only a title"},
			{},
		},
	}

	social, web := NormalizeStructured(payload, fixedNow)
	require.Len(t, social, 3)
	require.Len(t, web, 3)

	assert.Equal(t, "Great rally", social[0].Text)
	assert.Equal(t, "Ann", social[0].Author)
	assert.Equal(t, PlatformSocial, social[0].Platform)
	assert.Equal(t, "https://x.com/1", social[0].URL)
	assert.Equal(t, "2024-09-30", social[0].Date)
	assert.Equal(t, models.SourceSocial, social[0].Source)
	// Sentiment reads the body first, not the display title
	assert.Equal(t, models.SentimentNeutral, social[0].Sentiment)

	assert.Equal(t, "only text", social[1].Text)
	assert.Equal(t, "bob42", social[1].Author)

	assert.Equal(t, noContent, social[2].Text)
	assert.Equal(t, unknownAuthor, social[2].Author)
	assert.Equal(t, models.SentimentNeutral, social[2].Sentiment)

	assert.Equal(t, "Article body about a crisis", web[0].Text)
	assert.Equal(t, webAuthor, web[0].Author)
	assert.Equal(t, PlatformWeb, web[0].Platform)
	assert.Equal(t, models.SentimentNegative, web[0].Sentiment)
	assert.Equal(t, "Only a title", web[1].Text)
	assert.Equal(t, noContent, web[2].Text)

	seen := make(map[string]bool)
	for _, m := range append(social, web...) {
		assert.NotEmpty(t, m.ID)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
		assert.Equal(t, "2024-10-01T12:00:00Z", m.Timestamp)
	}
	assert.True(t, strings.HasPrefix(social[0].ID, "social-"))
	assert.True(t, strings.HasPrefix(web[0].ID, "web-"))
}

func TestNormalizeStructured_AbsentKeys(t *testing.T) {
	social, web := NormalizeStructured(StructuredPayload{Web: []RawItem{}}, fixedNow)
	assert.Nil(t, social)
	assert.NotNil(t, web)
	assert.Empty(t, web)
}

func TestParseConversational(t *testing.T) {
	tests := []struct {
		name      string
		payload   ConversationalPayload
		ok        bool
		platform  string
		sentiment models.Sentiment
		text      string
		url       string
		author    string
	}{
		{
			name: "Full notification",
			payload: ConversationalPayload{
				Text: `New mention: Jack Harrison mentioned on Twitter - "Great speech!" [Positive] https://twitter.com/x`,
			},
			ok:        true,
			platform:  "Twitter",
			sentiment: models.SentimentPositive,
			text:      "Great speech!",
			url:       "https://twitter.com/x",
			author:    slackAuthor,
		},
		{
			name: "Single quotes and lower case tags",
			payload: ConversationalPayload{
				Text:     "mention on reddit - 'terrible policy' [negative]",
				UserName: "brandbot",
			},
			ok:        true,
			platform:  "Reddit",
			sentiment: models.SentimentNegative,
			text:      "terrible policy",
			author:    "brandbot",
		},
		{
			name: "Untagged message stays neutral despite keywords",
			payload: ConversationalPayload{
				Text: "New mention of a great win on LinkedIn",
			},
			ok:        true,
			platform:  "LinkedIn",
			sentiment: models.SentimentNeutral,
			text:      "New mention of a great win on LinkedIn",
			author:    slackAuthor,
		},
		{
			name: "Entity name without the word mention",
			payload: ConversationalPayload{
				Text: "Jack Harrison trending",
			},
			ok:        true,
			platform:  PlatformUnknown,
			sentiment: models.SentimentNeutral,
			text:      "Jack Harrison trending",
			author:    slackAuthor,
		},
		{
			name: "Platform without the on prefix is unknown",
			payload: ConversationalPayload{
				Text: "mention from Facebook [Neutral]",
			},
			ok:        true,
			platform:  PlatformUnknown,
			sentiment: models.SentimentNeutral,
			text:      "mention from Facebook [Neutral]",
			author:    slackAuthor,
		},
		{
			name:    "Unrelated chatter is discarded",
			payload: ConversationalPayload{Text: "lunch at noon?"},
			ok:      false,
		},
		{
			name:    "Capitalized keyword alone is discarded",
			payload: ConversationalPayload{Text: "Mention this later"},
			ok:      false,
		},
		{
			name:    "Missing text is discarded",
			payload: ConversationalPayload{UserName: "someone"},
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mention, ok := ParseConversational(tt.payload, "Jack Harrison", fixedNow)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.platform, mention.Platform)
			assert.Equal(t, tt.sentiment, mention.Sentiment)
			assert.Equal(t, tt.text, mention.Text)
			assert.Equal(t, tt.url, mention.URL)
			assert.Equal(t, tt.author, mention.Author)
			assert.Equal(t, models.SourceSlack, mention.Source)
			assert.True(t, strings.HasPrefix(mention.ID, "slack-"))
		})
	}
}

func TestSampleMention(t *testing.T) {
	m := SampleMention("Jack Harrison", fixedNow)
	assert.True(t, strings.HasPrefix(m.ID, "test-"))
	assert.Equal(t, models.SentimentPositive, m.Sentiment)
	assert.Contains(t, m.Text, "Jack Harrison")
}
