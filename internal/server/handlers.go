package server

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/ingestion"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/monitoring"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/upstream"
	"github.com/sirupsen/logrus"
)

const (
	dataSourceHeader = "X-Data-Source"
	tokenHeader      = "X-Webhook-Token"

	maxBodyBytes     = 5 << 20
	defaultFeedLimit = 10
	maxFeedLimit     = 100
)

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339Nano),
	})
}

func (s *Server) apiHealthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"data_mode": s.config.DataMode,
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	metrics := s.monitoring.GetMetrics()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(metrics))
}

func (s *Server) triggerHandler(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := s.monitoring.RunReport(); err != nil {
			logrus.Errorf("Manual digest trigger failed: %v", err)
		}
	}()

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Digest triggered successfully"})
}

// tokenMatches reports whether the supplied token is acceptable. Any token
// is accepted when none is configured.
func (s *Server) tokenMatches(token string) bool {
	if s.config.WebhookToken == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.config.WebhookToken)) == 1
}

func (s *Server) brandMentionsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.tokenMatches(r.Header.Get(tokenHeader)) {
		respondWithError(w, http.StatusUnauthorized, "invalid webhook token")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		// A truncated body is still a delivery; defaults apply
		logrus.WithError(err).Warn("Failed to read structured delivery body")
	}

	result := s.monitoring.IngestStructured(body)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Data received and stored",
		"counts": map[string]int{
			"social": result.Social,
			"web":    result.Web,
		},
	})
}

// decodeConversational accepts both JSON bodies and form-encoded outgoing
// webhooks. Undecodable bodies yield an empty payload.
func decodeConversational(r *http.Request) ingestion.ConversationalPayload {
	var payload ingestion.ConversationalPayload

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			logrus.WithError(err).Warn("Failed to parse chat webhook form")
			return payload
		}
		return ingestion.ConversationalPayload{
			Token:       r.PostForm.Get("token"),
			TeamID:      r.PostForm.Get("team_id"),
			ChannelID:   r.PostForm.Get("channel_id"),
			ChannelName: r.PostForm.Get("channel_name"),
			UserID:      r.PostForm.Get("user_id"),
			UserName:    r.PostForm.Get("user_name"),
			Text:        r.PostForm.Get("text"),
			Timestamp:   r.PostForm.Get("timestamp"),
			TriggerWord: r.PostForm.Get("trigger_word"),
		}
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logrus.WithError(err).Warn("Malformed chat webhook payload")
		return ingestion.ConversationalPayload{}
	}
	return payload
}

func (s *Server) slackHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload := decodeConversational(r)

	if !s.tokenMatches(payload.Token) {
		respondWithError(w, http.StatusUnauthorized, "invalid webhook token")
		return
	}

	s.monitoring.IngestConversational(payload)

	// The chat platform expects an acknowledgement whether or not a mention was found
	respondWithJSON(w, http.StatusOK, map[string]string{
		"text":          "Mention received and processed",
		"response_type": "in_channel",
	})
}

func (s *Server) slackMentionsHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.monitoring.ConversationalMentions())
}

func (s *Server) slackTestHandler(w http.ResponseWriter, r *http.Request) {
	mention, total := s.monitoring.InjectSampleMention()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Test mention added",
		"mention":       mention,
		"totalMentions": total,
	})
}

func (s *Server) liveMentionsHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.monitoring.LiveMentions())
}

func (s *Server) cachedMentionsHandler(w http.ResponseWriter, r *http.Request) {
	mentions, _ := s.monitoring.AllMentions()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"mentions":    mentions,
		"lastUpdated": s.monitoring.LastUpdated(),
	})
}

func (s *Server) cachedSentimentHandler(w http.ResponseWriter, r *http.Request) {
	_, summary := s.monitoring.AllMentions()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sentiment":   summary,
		"lastUpdated": s.monitoring.LastUpdated(),
	})
}

func (s *Server) webhookHealthHandler(w http.ResponseWriter, r *http.Request) {
	mentions, _ := s.monitoring.AllMentions()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "active",
		"hasData": len(mentions) > 0,
	})
}

type sentimentResponse struct {
	upstream.SentimentReport
	Source         upstream.Status `json:"source"`
	DegradedReason string          `json:"degradedReason,omitempty"`
}

type feedResponse struct {
	upstream.MentionsFeed
	Source         upstream.Status `json:"source"`
	DegradedReason string          `json:"degradedReason,omitempty"`
}

func (s *Server) upstreamSentimentHandler(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "7days"
	}

	result := s.monitoring.UpstreamSentiment(r.Context(), period)
	if result.Status == upstream.StatusFailed {
		respondWithError(w, http.StatusServiceUnavailable, result.Reason)
		return
	}

	w.Header().Set(dataSourceHeader, string(result.Status))
	respondWithJSON(w, http.StatusOK, sentimentResponse{
		SentimentReport: result.Data,
		Source:          result.Status,
		DegradedReason:  result.Reason,
	})
}

func (s *Server) upstreamFeedHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxFeedLimit)
		}
	}

	result := s.monitoring.UpstreamFeed(r.Context(), limit)
	if result.Status == upstream.StatusFailed {
		respondWithError(w, http.StatusServiceUnavailable, result.Reason)
		return
	}

	feed := result.Data
	if feed.Mentions == nil {
		feed.Mentions = []models.Mention{}
	}

	w.Header().Set(dataSourceHeader, string(result.Status))
	respondWithJSON(w, http.StatusOK, feedResponse{
		MentionsFeed:   feed,
		Source:         result.Status,
		DegradedReason: result.Reason,
	})
}

type geoResponse struct {
	upstream.GeoReport
	Source         upstream.Status `json:"source"`
	DegradedReason string          `json:"degradedReason,omitempty"`
}

func (s *Server) upstreamGeoHandler(w http.ResponseWriter, r *http.Request) {
	result := s.monitoring.UpstreamGeo(r.Context())
	if result.Status == upstream.StatusFailed {
		respondWithError(w, http.StatusServiceUnavailable, result.Reason)
		return
	}

	w.Header().Set(dataSourceHeader, string(result.Status))
	respondWithJSON(w, http.StatusOK, geoResponse{
		GeoReport:      result.Data,
		Source:         result.Status,
		DegradedReason: result.Reason,
	})
}

func (s *Server) upstreamValidateHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.monitoring.ValidateUpstream(r.Context()))
}

func (s *Server) crisisHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.monitoring.CrisisStatus())
}

func (s *Server) monitoringMentionsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxFeedLimit)
	}

	respondWithJSON(w, http.StatusOK, s.monitoring.MonitoringMentions(limit, r.URL.Query().Get("platform")))
}

func (s *Server) monitoringSentimentHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.monitoring.MonitoringSentiment())
}

func (s *Server) alertQueueHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch monitoring.DeliveryStatus(status) {
	case "", monitoring.DeliveryPending, monitoring.DeliverySending, monitoring.DeliverySent, monitoring.DeliveryFailed:
	default:
		respondWithError(w, http.StatusBadRequest, "status must be pending, sending, sent or failed")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	respondWithJSON(w, http.StatusOK, s.monitoring.AlertQueue(status, limit))
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
