package notifications

import "github.com/Think-Big-Media/v2-war-room-sub005/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendReport(report *models.Report) error
	SendAlert(alert *models.Alert) error
}
