package common

import (
	"github.com/google/uuid"
)

// NewRequestID generates a unique analysis request ID
// Format: <uuid>
func NewRequestID() string {
	return uuid.New().String()
}

// NewDealID generates the externally visible deal identifier for a request
// Format: deal_<request_id>
func NewDealID(requestID string) string {
	return "deal_" + requestID
}
