package handlers

import "context"

// ReportRunner executes a full report generation run for a request.
// Satisfied by the report orchestrator; narrowed here so handlers can be
// tested against a stub.
type ReportRunner interface {
	Run(ctx context.Context, requestID string) error
}
