// model/notification.go
package model

import "time"

type NotificationType string

const (
	NotifyReturnConfirmation NotificationType = "RETURN_CONFIRMATION"
	NotifyReminder           NotificationType = "REMINDER"
	NotifyOverdue            NotificationType = "OVERDUE"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	LoanID    int64            `json:"loan_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}
