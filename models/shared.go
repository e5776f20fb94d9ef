package models

// ReminderPayload is the queued body of an appointment reminder.
type ReminderPayload struct {
	RequestID int64  `json:"requestId"`
	TargetID  int64  `json:"targetId"` // customerId or providerId
	Target    string `json:"target"`   // "customer" or "provider"
	Title     string `json:"title"`
	Body      string `json:"body"`
	FireDate  string `json:"fireDate"` // RFC3339
}
