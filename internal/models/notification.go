package models

import "time"

// NotificationType classifies a user-facing outcome.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// Notification is one entry of the dashboard's outcome log.
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
}
