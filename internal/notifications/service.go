package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/config"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via Teams and email
type Service struct {
	config *config.Config
	client *resty.Client
	send   func(m *gomail.Message) error
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	s.send = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		return d.DialAndSend(m)
	}
	return s
}

// SendReport sends a digest via configured notification channels
func (s *Service) SendReport(report *models.Report) error {
	subject := fmt.Sprintf("War Room Mentions Digest - %s (%d mentions)", title(report.Period), report.TotalMentions)

	return s.dispatch(
		func() error { return s.postTeams(s.buildReportCard(report)) },
		func() error {
			html, err := renderHTML(reportTemplate, report)
			if err != nil {
				return fmt.Errorf("failed to build email HTML: %w", err)
			}
			return s.sendEmail(subject, buildReportText(report), html)
		},
	)
}

// SendAlert sends a crisis alert via configured notification channels
func (s *Service) SendAlert(alert *models.Alert) error {
	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Title)

	return s.dispatch(
		func() error { return s.postTeams(s.buildAlertCard(alert)) },
		func() error {
			html, err := renderHTML(alertTemplate, alert)
			if err != nil {
				return fmt.Errorf("failed to build email HTML: %w", err)
			}
			return s.sendEmail(subject, buildAlertText(alert), html)
		},
	)
}

func (s *Service) dispatch(teams, email func() error) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := teams(); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent notification to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := email(); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent notification via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) postTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildReportCard(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("War Room Mentions Digest - %s", title(report.Period)),
		Text:    fmt.Sprintf("%d mentions currently tracked", report.TotalMentions),
	}

	facts := []TeamsFact{
		{Name: "Total Mentions", Value: fmt.Sprintf("%d", report.TotalMentions)},
		{Name: "Positive", Value: fmt.Sprintf("%d%%", report.Sentiment.Positive)},
		{Name: "Negative", Value: fmt.Sprintf("%d%%", report.Sentiment.Negative)},
		{Name: "Neutral", Value: fmt.Sprintf("%d%%", report.Sentiment.Neutral)},
		{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	if len(report.TopPlatforms) > 0 {
		facts = append(facts, TeamsFact{Name: "Top Platforms", Value: strings.Join(report.TopPlatforms, ", ")})
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.Mentions) > 0 {
		var lines []string
		for i, mention := range report.Mentions {
			if i >= 5 {
				break
			}
			line := fmt.Sprintf("**%s** - %s (%s, %s)", truncate(mention.Text, 120), mention.Author, mention.Platform, mention.Sentiment)
			if mention.URL != "" {
				line = fmt.Sprintf("[%s](%s) - %s (%s, %s)", truncate(mention.Text, 120), mention.URL, mention.Author, mention.Platform, mention.Sentiment)
			}
			lines = append(lines, line)
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Recent Mentions",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) buildAlertCard(alert *models.Alert) *TeamsMessage {
	color := "FFA500"
	if alert.Severity == models.SeverityHigh || alert.Severity == models.SeverityCritical {
		color = "D13438"
	}

	return &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: color,
		Title:      alert.Title,
		Text:       alert.Description,
		Sections: []TeamsSection{
			{
				ActivityTitle: "Details",
				Facts: []TeamsFact{
					{Name: "Severity", Value: string(alert.Severity)},
					{Name: "Negative", Value: fmt.Sprintf("%d%%", alert.Sentiment.Negative)},
					{Name: "Triggers", Value: strings.Join(alert.Triggers, ", ")},
					{Name: "Detected", Value: alert.DetectedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
				},
			},
			{
				ActivityTitle: "Recommended Actions",
				ActivityText:  "- " + strings.Join(alert.RecommendedActions, "\n- "),
				Markdown:      true,
			},
		},
	}
}

func (s *Service) sendEmail(subject, textBody, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func buildReportText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("War Room Mentions Digest - %s\n", title(report.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Total Mentions: %d\n", report.TotalMentions))
	text.WriteString(fmt.Sprintf("Positive: %d%%  Negative: %d%%  Neutral: %d%%\n",
		report.Sentiment.Positive, report.Sentiment.Negative, report.Sentiment.Neutral))

	if len(report.Mentions) > 0 {
		text.WriteString("\nRECENT MENTIONS\n")
		text.WriteString("===============\n")

		for i, mention := range report.Mentions {
			if i >= 10 {
				break
			}
			text.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, truncate(mention.Text, 200)))
			text.WriteString(fmt.Sprintf("   Platform: %s | Author: %s | Sentiment: %s\n",
				mention.Platform, mention.Author, mention.Sentiment))
			if mention.URL != "" {
				text.WriteString(fmt.Sprintf("   URL: %s\n", mention.URL))
			}
		}
	}

	text.WriteString("\n---\nThis digest was generated automatically by War Room.\n")

	return text.String()
}

func buildAlertText(alert *models.Alert) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("%s\n\n%s\n\n", alert.Title, alert.Description))
	text.WriteString(fmt.Sprintf("Severity: %s\n", alert.Severity))
	text.WriteString(fmt.Sprintf("Detected: %s\n", alert.DetectedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	text.WriteString("\nRecommended actions:\n")
	for _, action := range alert.RecommendedActions {
		text.WriteString(fmt.Sprintf("  - %s\n", action))
	}

	return text.String()
}

const reportTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>War Room Mentions Digest</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #1f2a44; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .mention { border-left: 4px solid #605e5c; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .positive { border-left-color: #107c10; }
        .negative { border-left-color: #d13438; }
    </style>
</head>
<body>
    <div class="header">
        <h1>War Room Mentions Digest</h1>
        <p>{{.Period | title}} digest generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <p><strong>Total Mentions:</strong> {{.TotalMentions}}</p>
        <p><strong>Positive:</strong> {{.Sentiment.Positive}}% &middot;
           <strong>Negative:</strong> {{.Sentiment.Negative}}% &middot;
           <strong>Neutral:</strong> {{.Sentiment.Neutral}}%</p>
    </div>

    {{range $index, $mention := .Mentions}}
        {{if lt $index 10}}
        <div class="mention {{$mention.Sentiment}}">
            <p>{{if $mention.URL}}<a href="{{$mention.URL}}">{{$mention.Text | truncate 200}}</a>{{else}}{{$mention.Text | truncate 200}}{{end}}</p>
            <small>{{$mention.Author}} on {{$mention.Platform}}</small>
        </div>
        {{end}}
    {{end}}
</body>
</html>
`

const alertTemplate = `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
    <h1 style="color: #d13438;">{{.Title}}</h1>
    <p>{{.Description}}</p>
    <p><strong>Severity:</strong> {{.Severity}} &middot; <strong>Negative share:</strong> {{.Sentiment.Negative}}%</p>
    <h3>Recommended actions</h3>
    <ul>{{range .RecommendedActions}}<li>{{.}}</li>{{end}}</ul>
</body>
</html>
`

func renderHTML(tmpl string, data interface{}) (string, error) {
	t, err := template.New("email").Funcs(template.FuncMap{
		"title":    title,
		"truncate": func(n int, s string) string { return truncate(s, n) },
	}).Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
