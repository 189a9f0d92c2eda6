// -----------------------------------------------------------------------
// Artifact Publisher - Stores rendered report files on the local filesystem
// -----------------------------------------------------------------------

package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
)

// Publisher stores report artifacts under a local directory, one
// subdirectory per deal, and serves them at /artifacts/<deal>/<file>.
type Publisher struct {
	dir    string
	logger arbor.ILogger
}

// NewPublisher creates the filesystem artifact store, creating the base
// directory if needed
func NewPublisher(config *common.ArtifactsConfig, logger arbor.ILogger) (*Publisher, error) {
	if config == nil {
		return nil, fmt.Errorf("artifacts config is required")
	}
	if logger == nil {
		logger = common.GetLogger()
	}

	dir := config.Dir
	if dir == "" {
		dir = "./data/artifacts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory %s: %w", dir, err)
	}

	return &Publisher{dir: dir, logger: logger}, nil
}

// Publish writes the artifact bytes under the deal's subdirectory and
// returns the URL path it is served from. Re-publishing the same filename
// overwrites the previous artifact.
func (p *Publisher) Publish(ctx context.Context, dealID, filename string, content []byte) (string, error) {
	if dealID == "" {
		return "", fmt.Errorf("deal id is required")
	}
	safeName := sanitizeFilename(filename)
	if safeName == "" {
		return "", fmt.Errorf("invalid artifact filename %q", filename)
	}

	dealDir := filepath.Join(p.dir, sanitizeFilename(dealID))
	if err := os.MkdirAll(dealDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create deal directory: %w", err)
	}

	path := filepath.Join(dealDir, safeName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	p.logger.Info().
		Str("deal_id", dealID).
		Str("path", path).
		Int("bytes", len(content)).
		Msg("Artifact published")

	return "/artifacts/" + sanitizeFilename(dealID) + "/" + safeName, nil
}

// Dir returns the base artifacts directory for file serving
func (p *Publisher) Dir() string {
	return p.dir
}

// sanitizeFilename strips path separators and traversal segments so deal
// ids and filenames cannot escape the artifacts directory
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

var _ interfaces.ArtifactService = (*Publisher)(nil)
