package monitoring

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxRetainedDeliveries = 50
	defaultQueueLimit     = 50
)

// DeliveryStatus tracks an outbound notification through dispatch
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySending DeliveryStatus = "sending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Delivery is one crisis alert or digest handed to the notification channels
type Delivery struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"` // "crisis_alert" or "digest"
	Recipient string         `json:"recipient"`
	Subject   string         `json:"subject,omitempty"`
	Message   string         `json:"message"`
	Priority  string         `json:"priority"`
	Status    DeliveryStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	SentAt    *time.Time     `json:"sentAt,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// QueueView lists recent deliveries with a count per status
type QueueView struct {
	Alerts    []Delivery     `json:"alerts"`
	Summary   map[string]int `json:"summary"`
	Timestamp string         `json:"timestamp"`
}

// recordDelivery registers an outbound notification as in flight and
// returns its id for finishDelivery.
func (s *Service) recordDelivery(kind, subject, message, priority string) string {
	delivery := Delivery{
		ID:        "delivery-" + uuid.NewString(),
		Type:      kind,
		Recipient: s.recipients(),
		Subject:   subject,
		Message:   message,
		Priority:  priority,
		Status:    DeliverySending,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.deliveries = append([]Delivery{delivery}, s.deliveries...)
	if len(s.deliveries) > maxRetainedDeliveries {
		s.deliveries = s.deliveries[:maxRetainedDeliveries]
	}
	s.mu.Unlock()

	return delivery.ID
}

func (s *Service) finishDelivery(id string, err error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.deliveries {
		if s.deliveries[i].ID != id {
			continue
		}
		if err != nil {
			s.deliveries[i].Status = DeliveryFailed
			s.deliveries[i].Error = err.Error()
		} else {
			s.deliveries[i].Status = DeliverySent
			s.deliveries[i].SentAt = &now
		}
		return
	}
}

func (s *Service) recipients() string {
	var channels []string
	if s.config.TeamsWebhookURL != "" {
		channels = append(channels, "teams")
	}
	if s.config.NotificationEmail != "" {
		channels = append(channels, s.config.NotificationEmail)
	}
	if len(channels) == 0 {
		return "none"
	}
	return strings.Join(channels, ", ")
}

// AlertQueue returns recent deliveries, newest first. An empty status
// matches every delivery; a non-positive limit uses the default.
func (s *Service) AlertQueue(status string, limit int) QueueView {
	if limit <= 0 {
		limit = defaultQueueLimit
	}

	view := QueueView{
		Alerts: []Delivery{},
		Summary: map[string]int{
			string(DeliveryPending): 0,
			string(DeliverySending): 0,
			string(DeliverySent):    0,
			string(DeliveryFailed):  0,
		},
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, delivery := range s.deliveries {
		view.Summary[string(delivery.Status)]++
		if status != "" && string(delivery.Status) != status {
			continue
		}
		if len(view.Alerts) < limit {
			view.Alerts = append(view.Alerts, delivery)
		}
	}
	return view
}
