package monitoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/sentiment"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxRetainedAlerts = 50
	alertCooldown     = time.Hour
)

// CrisisView summarizes raised alerts for the dashboard
type CrisisView struct {
	Alerts    []models.Alert `json:"alerts"`
	RiskLevel string         `json:"riskLevel"`
	Summary   CrisisSummary  `json:"summary"`
	Timestamp string         `json:"timestamp"`
}

type CrisisSummary struct {
	TotalAlerts    int `json:"totalAlerts"`
	CriticalAlerts int `json:"criticalAlerts"`
	NewAlerts      int `json:"newAlerts"`
}

// RunReport builds a digest of the stored mentions and sends it
func (s *Service) RunReport() error {
	start := s.now()
	logrus.Info("Starting digest run")

	mentions, _ := s.AllMentions()
	report := s.generateReport(mentions)

	delivery := s.recordDelivery("digest",
		fmt.Sprintf("%s mention digest", report.Period),
		fmt.Sprintf("%d mentions, %d%% positive, %d%% negative",
			report.TotalMentions, report.Sentiment.Positive, report.Sentiment.Negative),
		"normal")

	err := s.notificationService.SendReport(report)
	s.finishDelivery(delivery, err)
	if err != nil {
		s.mu.Lock()
		s.metrics.ErrorCount++
		s.mu.Unlock()
		return fmt.Errorf("failed to send digest: %w", err)
	}

	s.mu.Lock()
	s.metrics.LastReport = &start
	s.mu.Unlock()

	logrus.Infof("Digest run completed with %d mentions", report.TotalMentions)
	return nil
}

func (s *Service) generateReport(mentions []models.Mention) *models.Report {
	platforms := make(map[string]int)
	for _, mention := range mentions {
		platforms[mention.Platform]++
	}

	return &models.Report{
		GeneratedAt:   s.now(),
		Period:        s.config.ReportSchedule,
		TotalMentions: len(mentions),
		Mentions:      mentions,
		Sentiment:     sentiment.Summarize(mentions),
		Platforms:     platforms,
		TopPlatforms:  topPlatforms(platforms, 5),
	}
}

func topPlatforms(counts map[string]int, limit int) []string {
	type platformScore struct {
		platform string
		count    int
	}

	scores := make([]platformScore, 0, len(counts))
	for platform, count := range counts {
		scores = append(scores, platformScore{platform, count})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].count != scores[j].count {
			return scores[i].count > scores[j].count
		}
		return scores[i].platform < scores[j].platform
	})

	var top []string
	for i, score := range scores {
		if i >= limit {
			break
		}
		top = append(top, fmt.Sprintf("%s (%d)", score.platform, score.count))
	}
	return top
}

// RunCrisisCheck raises a sentiment_drop alert when the negative share of
// stored mentions crosses the configured threshold. It returns nil when no
// alert was raised.
func (s *Service) RunCrisisCheck() (*models.Alert, error) {
	mentions, summary := s.AllMentions()
	s.recordSentimentBaseline(summary)

	if len(mentions) < s.config.CrisisMinMentions {
		logrus.WithField("mentions", len(mentions)).Debug("Too few mentions for crisis check")
		return nil, nil
	}

	if float64(summary.Negative) < s.config.CrisisNegativeThreshold {
		return nil, nil
	}

	now := s.now()
	severity := models.SeverityMedium
	if float64(summary.Negative) >= s.config.CrisisNegativeThreshold+20 {
		severity = models.SeverityHigh
	}

	alert := models.Alert{
		ID:          "crisis-" + uuid.NewString(),
		Type:        "sentiment_drop",
		Severity:    severity,
		Title:       "Significant Sentiment Drop Detected",
		Description: fmt.Sprintf("%d%% of %d tracked mentions are negative", summary.Negative, len(mentions)),
		Source:      "Mention Monitoring",
		Triggers:    []string{"sentiment_threshold"},
		RecommendedActions: []string{
			"Review recent public statements",
			"Prepare clarifying communication",
			"Engage with key influencers",
		},
		Sentiment:  summary,
		DetectedAt: now,
		Status:     "active",
	}

	// The cooldown check and the insert share one critical section so
	// concurrent checks cannot both raise an alert.
	s.mu.Lock()
	if s.alertActiveLocked(now) {
		s.mu.Unlock()
		logrus.Debug("Negative share still above threshold, alert already active")
		return nil, nil
	}
	s.alerts = append([]models.Alert{alert}, s.alerts...)
	if len(s.alerts) > maxRetainedAlerts {
		s.alerts = s.alerts[:maxRetainedAlerts]
	}
	s.metrics.AlertsRaised++
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"severity": severity,
		"negative": summary.Negative,
	}).Warn("Crisis alert raised")

	delivery := s.recordDelivery("crisis_alert", alert.Title, alert.Description, string(severity))
	err := s.notificationService.SendAlert(&alert)
	s.finishDelivery(delivery, err)
	if err != nil {
		return &alert, fmt.Errorf("failed to send crisis alert: %w", err)
	}

	return &alert, nil
}

// alertActiveLocked reports whether an active alert is inside the cooldown.
// The caller must hold s.mu.
func (s *Service) alertActiveLocked(now time.Time) bool {
	for _, alert := range s.alerts {
		if alert.Status == "active" && now.Sub(alert.DetectedAt) < alertCooldown {
			return true
		}
	}
	return false
}

// CrisisStatus returns the raised alerts and the overall risk level
func (s *Service) CrisisStatus() CrisisView {
	s.mu.RLock()
	alerts := make([]models.Alert, len(s.alerts))
	copy(alerts, s.alerts)
	s.mu.RUnlock()

	now := s.now()
	view := CrisisView{
		Alerts:    alerts,
		RiskLevel: string(models.SeverityLow),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}

	rank := map[models.AlertSeverity]int{
		models.SeverityLow:      0,
		models.SeverityMedium:   1,
		models.SeverityHigh:     2,
		models.SeverityCritical: 3,
	}
	highest := models.SeverityLow

	for _, alert := range alerts {
		view.Summary.TotalAlerts++
		if alert.Severity == models.SeverityCritical {
			view.Summary.CriticalAlerts++
		}
		if now.Sub(alert.DetectedAt) < time.Hour {
			view.Summary.NewAlerts++
		}
		if alert.Status == "active" && rank[alert.Severity] > rank[highest] {
			highest = alert.Severity
		}
	}
	view.RiskLevel = string(highest)

	return view
}
