package interfaces

// ReportNotification is the payload delivered to the configured webhook
// when a report run reaches a terminal state
type ReportNotification struct {
	RequestID string `json:"request_id"`
	DealID    string `json:"deal_id"`
	Status    string `json:"status"`
	PDFURL    string `json:"pdf_url,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// NotifyService delivers completion notifications to external consumers.
//
// Delivery is best-effort and runs detached from the report lifecycle:
// failures are logged and retried a bounded number of times, and never
// affect the stored report status.
type NotifyService interface {
	// NotifyAsync queues the notification for background delivery and
	// returns immediately
	NotifyAsync(notification ReportNotification)
}
