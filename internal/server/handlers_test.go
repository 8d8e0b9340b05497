package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/config"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/monitoring"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/store"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{}

func (nopNotifier) SendReport(*models.Report) error { return nil }
func (nopNotifier) SendAlert(*models.Alert) error   { return nil }

func newTestServer(t *testing.T, token string, chain *upstream.Chain) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Port:                    "8080",
		DataMode:                "LIVE",
		CorsOrigins:             []string{"*"},
		EntityName:              "Jack Harrison",
		SlackMentionLimit:       100,
		WebhookToken:            token,
		ReportSchedule:          "daily",
		CrisisNegativeThreshold: 40,
		CrisisMinMentions:       10,
	}
	service := monitoring.NewService(cfg, store.New(cfg.SlackMentionLimit), nil, nopNotifier{}, chain)
	return New(cfg, service).Handler()
}

func do(t *testing.T, handler http.Handler, method, target, contentType, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBrandMentionsWebhook(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		social float64
		web    float64
	}{
		{"both arrays", `{"social":[{"title":"a"},{"title":"b"}],"web":[{"text":"c"}]}`, 2, 1},
		{"social only", `{"social":[{"title":"a"}]}`, 1, 0},
		{"malformed body", `{"social":`, 0, 0},
		{"empty body", ``, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestServer(t, "", nil)

			rec := do(t, handler, "POST", "/api/v1/webhook/brandmentions", "application/json", tt.body, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, "Data received and stored", body["message"])
			counts := body["counts"].(map[string]interface{})
			assert.Equal(t, tt.social, counts["social"])
			assert.Equal(t, tt.web, counts["web"])
		})
	}
}

func TestLiveMentionsOverwrite(t *testing.T) {
	handler := newTestServer(t, "", nil)

	rec := do(t, handler, "GET", "/api/v1/mentions/live", "", "", nil)
	body := decode(t, rec)
	assert.Equal(t, []interface{}{}, body["mentions"])
	assert.Nil(t, body["lastUpdated"])
	assert.Equal(t, map[string]interface{}{"positive": 0.0, "negative": 0.0, "neutral": 0.0}, body["sentiment"])

	do(t, handler, "POST", "/api/v1/webhook/brandmentions", "application/json",
		`{"social":[{"title":"great"},{"title":"b"}],"web":[{"text":"bad"}]}`, nil)
	do(t, handler, "POST", "/api/v1/webhook/brandmentions", "application/json",
		`{"social":[{"title":"great win","name":"Ann"}]}`, nil)

	rec = do(t, handler, "GET", "/api/v1/mentions/live", "", "", nil)
	body = decode(t, rec)
	mentions := body["mentions"].([]interface{})
	require.Len(t, mentions, 2)
	first := mentions[0].(map[string]interface{})
	assert.Equal(t, "great win", first["text"])
	assert.Equal(t, "Ann", first["author"])
	assert.Equal(t, "Social Media", first["platform"])
	assert.True(t, strings.HasPrefix(first["id"].(string), "social-"))
	assert.Equal(t, 2.0, body["totalCount"])
	assert.NotNil(t, body["lastUpdated"])
	assert.Equal(t, map[string]interface{}{"positive": 50.0, "negative": 50.0, "neutral": 0.0}, body["sentiment"])

	again := decode(t, do(t, handler, "GET", "/api/v1/mentions/live", "", "", nil))
	assert.Equal(t, body["mentions"], again["mentions"])
}

func TestSlackWebhook(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		stored      bool
	}{
		{
			name:        "json mention",
			contentType: "application/json",
			body:        `{"text":"New mention: Jack Harrison mentioned on Twitter - 'Great speech!' [Positive] https://twitter.com/x/1","user_name":"bob"}`,
			stored:      true,
		},
		{
			name:        "form encoded mention",
			contentType: "application/x-www-form-urlencoded",
			body:        url.Values{"text": {"mention on Reddit [Negative]"}, "user_name": {"carol"}}.Encode(),
			stored:      true,
		},
		{
			name:        "unrelated chatter",
			contentType: "application/json",
			body:        `{"text":"coffee anyone?"}`,
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{"text":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestServer(t, "", nil)

			rec := do(t, handler, "POST", "/api/v1/webhook/slack", tt.contentType, tt.body, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "Mention received and processed", body["text"])
			assert.Equal(t, "in_channel", body["response_type"])

			list := decode(t, do(t, handler, "GET", "/api/v1/webhook/slack/mentions", "", "", nil))
			if tt.stored {
				assert.Equal(t, 1.0, list["count"])
				assert.NotNil(t, list["lastUpdated"])
			} else {
				assert.Equal(t, 0.0, list["count"])
				assert.Nil(t, list["lastUpdated"])
				assert.Equal(t, []interface{}{}, list["mentions"])
			}
		})
	}
}

func TestSlackWebhookParsesMention(t *testing.T) {
	handler := newTestServer(t, "", nil)

	do(t, handler, "POST", "/api/v1/webhook/slack", "application/json",
		`{"text":"New mention: Jack Harrison mentioned on Twitter - 'Great speech!' [Positive] https://twitter.com/x/1","user_name":"bob"}`, nil)

	list := decode(t, do(t, handler, "GET", "/api/v1/webhook/slack/mentions", "", "", nil))
	mention := list["mentions"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Great speech!", mention["text"])
	assert.Equal(t, "Twitter", mention["platform"])
	assert.Equal(t, "positive", mention["sentiment"])
	assert.Equal(t, "https://twitter.com/x/1", mention["url"])
	assert.Equal(t, "bob", mention["author"])
}

func TestSlackWebhookBound(t *testing.T) {
	handler := newTestServer(t, "", nil)

	for i := 0; i < 101; i++ {
		do(t, handler, "POST", "/api/v1/webhook/slack", "application/json", `{"text":"new mention"}`, nil)
	}

	list := decode(t, do(t, handler, "GET", "/api/v1/webhook/slack/mentions", "", "", nil))
	assert.Equal(t, 100.0, list["count"])
}

func TestWebhookToken(t *testing.T) {
	handler := newTestServer(t, "s3cret", nil)

	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		headers     map[string]string
		expected    int
	}{
		{"structured without header", "/api/v1/webhook/brandmentions", "application/json", `{}`, nil, http.StatusUnauthorized},
		{"structured with header", "/api/v1/webhook/brandmentions", "application/json", `{}`, map[string]string{"X-Webhook-Token": "s3cret"}, http.StatusOK},
		{"chat wrong token", "/api/v1/webhook/slack", "application/json", `{"text":"mention","token":"nope"}`, nil, http.StatusUnauthorized},
		{"chat form token", "/api/v1/webhook/slack", "application/x-www-form-urlencoded", "text=mention&token=s3cret", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, handler, "POST", tt.target, tt.contentType, tt.body, tt.headers)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestSlackTestEndpoint(t *testing.T) {
	handler := newTestServer(t, "", nil)

	body := decode(t, do(t, handler, "GET", "/api/v1/webhook/slack/test", "", "", nil))
	assert.Equal(t, "Test mention added", body["message"])
	assert.Equal(t, 1.0, body["totalMentions"])
	mention := body["mention"].(map[string]interface{})
	assert.Equal(t, "TestUser", mention["author"])
	assert.True(t, strings.HasPrefix(mention["id"].(string), "test-"))

	body = decode(t, do(t, handler, "GET", "/api/v1/webhook/slack/test", "", "", nil))
	assert.Equal(t, 2.0, body["totalMentions"])
}

func TestCacheViews(t *testing.T) {
	handler := newTestServer(t, "", nil)

	health := decode(t, do(t, handler, "GET", "/api/v1/webhook/health", "", "", nil))
	assert.Equal(t, "active", health["status"])
	assert.Equal(t, false, health["hasData"])

	do(t, handler, "POST", "/api/v1/webhook/brandmentions", "application/json", `{"web":[{"text":"good news"}]}`, nil)
	do(t, handler, "POST", "/api/v1/webhook/slack", "application/json", `{"text":"mention on News [Negative]"}`, nil)

	cached := decode(t, do(t, handler, "GET", "/api/v1/webhook/cache/mentions", "", "", nil))
	assert.Len(t, cached["mentions"], 2)
	assert.NotNil(t, cached["lastUpdated"])

	sentiment := decode(t, do(t, handler, "GET", "/api/v1/webhook/cache/sentiment", "", "", nil))
	assert.Equal(t, map[string]interface{}{"positive": 50.0, "negative": 50.0, "neutral": 0.0}, sentiment["sentiment"])

	health = decode(t, do(t, handler, "GET", "/api/v1/webhook/health", "", "", nil))
	assert.Equal(t, true, health["hasData"])
}

func TestUpstreamFallback(t *testing.T) {
	handler := newTestServer(t, "", nil)

	rec := do(t, handler, "GET", "/api/v1/mentionlytics/sentiment", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback", rec.Header().Get("X-Data-Source"))
	body := decode(t, rec)
	assert.Equal(t, "fallback", body["source"])
	assert.Equal(t, 45.0, body["positive"])
	assert.Equal(t, "7days", body["period"])

	rec = do(t, handler, "GET", "/api/v1/mentionlytics/feed?limit=abc", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "fallback", body["source"])
	assert.Len(t, body["mentions"], 1)
	assert.Equal(t, false, body["hasMore"])

	validate := decode(t, do(t, handler, "GET", "/api/v1/mentionlytics/validate", "", "", nil))
	assert.Equal(t, "not_configured", validate["status"])
	assert.Equal(t, false, validate["hasApiKey"])

	rec = do(t, handler, "GET", "/api/v1/mentionlytics/geo", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback", rec.Header().Get("X-Data-Source"))
	body = decode(t, rec)
	assert.Equal(t, "fallback", body["source"])
	require.Len(t, body["locations"], 3)
	first := body["locations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Pennsylvania", first["state"])
	assert.Equal(t, 342.0, first["mentions"])
}

func TestUpstreamLive(t *testing.T) {
	var gotLimit string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/sentiment":
			w.Write([]byte(`{"positive":60,"negative":10,"neutral":30}`))
		case "/mentions":
			gotLimit = r.URL.Query().Get("limit")
			w.Write([]byte(`{"mentions":[{"id":"m1","text":"a big win","author":"dana","platform":"Twitter"}],"hasMore":true}`))
		case "/geographic":
			w.Write([]byte(`{"locations":[{"state":"Ohio","lat":40.4,"lng":-82.9,"mentions":12,"sentiment":0.4}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer provider.Close()

	chain := upstream.NewChain(upstream.NewMentionlyticsSource(provider.URL, "token", time.Second))
	handler := newTestServer(t, "", chain)

	rec := do(t, handler, "GET", "/api/v1/mentionlytics/sentiment?period=30days", "", "", nil)
	assert.Equal(t, "live", rec.Header().Get("X-Data-Source"))
	body := decode(t, rec)
	assert.Equal(t, 60.0, body["positive"])
	assert.Equal(t, "30days", body["period"])
	assert.NotContains(t, body, "degradedReason")

	rec = do(t, handler, "GET", "/api/v1/mentionlytics/feed?limit=500", "", "", nil)
	body = decode(t, rec)
	assert.Equal(t, "live", body["source"])
	assert.Equal(t, true, body["hasMore"])
	assert.Equal(t, "100", gotLimit)
	mention := body["mentions"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "positive", mention["sentiment"])

	rec = do(t, handler, "GET", "/api/v1/mentionlytics/geo", "", "", nil)
	assert.Equal(t, "live", rec.Header().Get("X-Data-Source"))
	body = decode(t, rec)
	assert.Equal(t, "live", body["source"])
	require.Len(t, body["locations"], 1)
	location := body["locations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Ohio", location["state"])
	assert.Equal(t, 12.0, location["mentions"])
}

func TestOperationalEndpoints(t *testing.T) {
	handler := newTestServer(t, "", nil)

	health := decode(t, do(t, handler, "GET", "/health", "", "", nil))
	assert.Equal(t, "healthy", health["status"])

	apiHealth := decode(t, do(t, handler, "GET", "/api/v1/health", "", "", nil))
	assert.Equal(t, "ok", apiHealth["status"])
	assert.Equal(t, "LIVE", apiHealth["data_mode"])

	metrics := decode(t, do(t, handler, "GET", "/metrics", "", "", nil))
	assert.Contains(t, metrics, "structured_deliveries")

	crisis := decode(t, do(t, handler, "GET", "/api/v1/alerting/crisis", "", "", nil))
	assert.Equal(t, "low", crisis["riskLevel"])
	assert.Equal(t, []interface{}{}, crisis["alerts"])

	trigger := do(t, handler, "POST", "/trigger", "", "", nil)
	assert.Equal(t, http.StatusOK, trigger.Code)

	for _, target := range []string{"/api/v1/webhook/brandmentions", "/api/v1/webhook/slack"} {
		wrongMethod := do(t, handler, "GET", target, "", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, wrongMethod.Code, target)
	}

	unknown := do(t, handler, "GET", "/api/v1/webhook/unknown", "", "", nil)
	assert.Equal(t, http.StatusNotFound, unknown.Code)
}

func TestMonitoringMentionsEndpoint(t *testing.T) {
	handler := newTestServer(t, "", nil)

	do(t, handler, "POST", "/api/v1/webhook/brandmentions", "application/json",
		`{"social":[{"title":"a"},{"title":"b"}],"web":[{"text":"c"}]}`, nil)
	do(t, handler, "POST", "/api/v1/webhook/slack", "application/json",
		`{"text":"New mention on Twitter - \"great win\" [Positive]"}`, nil)

	tests := []struct {
		name     string
		query    string
		code     int
		returned int
		total    float64
	}{
		{"default limit", "", http.StatusOK, 4, 4},
		{"limit caps the page", "?limit=2", http.StatusOK, 2, 4},
		{"platform filter ignores case", "?platform=social%20media", http.StatusOK, 2, 2},
		{"unknown platform", "?platform=TikTok", http.StatusOK, 0, 0},
		{"bad limit", "?limit=zero", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, handler, "GET", "/api/v1/monitoring/mentions"+tt.query, "", "", nil)
			require.Equal(t, tt.code, rec.Code)
			if tt.code != http.StatusOK {
				return
			}

			body := decode(t, rec)
			assert.Len(t, body["mentions"], tt.returned)
			assert.Equal(t, tt.total, body["total"])
			assert.Equal(t, map[string]interface{}{"Social Media": 2.0, "Web": 1.0, "Twitter": 1.0}, body["platforms"])
			assert.NotEmpty(t, body["timestamp"])
		})
	}
}

func TestMonitoringSentimentEndpoint(t *testing.T) {
	handler := newTestServer(t, "", nil)

	do(t, handler, "POST", "/api/v1/webhook/brandmentions", "application/json",
		`{"social":[{"text":"great win"},{"text":"bad loss"},{"text":"plain"}],"web":[{"text":"good news"}]}`, nil)

	rec := do(t, handler, "GET", "/api/v1/monitoring/sentiment", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)["sentiment"].(map[string]interface{})

	overall := body["overall"].(map[string]interface{})
	assert.Equal(t, 50.0, overall["positive"])
	assert.Equal(t, 25.0, overall["negative"])
	assert.Equal(t, 25.0, overall["neutral"])
	assert.Equal(t, 63.0, overall["score"])

	platforms := body["platforms"].([]interface{})
	require.Len(t, platforms, 2)
	assert.Equal(t, "Social Media", platforms[0].(map[string]interface{})["platform"])
	assert.Equal(t, "Web", platforms[1].(map[string]interface{})["platform"])
	assert.Equal(t, 100.0, platforms[1].(map[string]interface{})["score"])

	assert.Equal(t, map[string]interface{}{"direction": "stable", "change": 0.0}, body["trending"])
}

func TestAlertQueueEndpoint(t *testing.T) {
	handler := newTestServer(t, "", nil)

	empty := decode(t, do(t, handler, "GET", "/api/v1/alerting/queue", "", "", nil))
	assert.Equal(t, []interface{}{}, empty["alerts"])
	assert.Equal(t, map[string]interface{}{"pending": 0.0, "sending": 0.0, "sent": 0.0, "failed": 0.0}, empty["summary"])

	bad := do(t, handler, "GET", "/api/v1/alerting/queue?status=lost", "", "", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	require.Equal(t, http.StatusOK, do(t, handler, "POST", "/trigger", "", "", nil).Code)

	require.Eventually(t, func() bool {
		rec := do(t, handler, "GET", "/api/v1/alerting/queue?status=sent", "", "", nil)
		var queue monitoring.QueueView
		if err := json.Unmarshal(rec.Body.Bytes(), &queue); err != nil {
			return false
		}
		return len(queue.Alerts) == 1 && queue.Alerts[0].Type == "digest"
	}, 2*time.Second, 10*time.Millisecond)

	body := decode(t, do(t, handler, "GET", "/api/v1/alerting/queue?status=failed", "", "", nil))
	assert.Equal(t, []interface{}{}, body["alerts"])
	assert.Equal(t, 1.0, body["summary"].(map[string]interface{})["sent"])
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestServer(t, "", nil)

	req := httptest.NewRequest("OPTIONS", "/api/v1/mentions/live", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
