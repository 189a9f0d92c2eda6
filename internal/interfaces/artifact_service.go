package interfaces

import "context"

// ArtifactService publishes rendered report files and hands back
// retrievable URLs
type ArtifactService interface {
	// Publish stores the artifact bytes under the deal id and returns the
	// URL path it is served from (e.g. /artifacts/deal_x.pdf)
	Publish(ctx context.Context, dealID, filename string, content []byte) (string, error)

	// Dir returns the directory artifacts are stored in, for file serving
	Dir() string
}
