package access

import (
	"context"
	"log/slog"

	"github.com/dtnitsch/sra-classifier/models"
)

// Lookup names one project to resolve, via the run accession that will be
// queried against the registry.
type Lookup struct {
	Project string
	Run     string
}

// Resolver resolves access status per project, one registry lookup per
// distinct project.
type Resolver struct {
	client *Client
	logger *slog.Logger
}

// NewResolver builds a resolver around an eutils client.
func NewResolver(client *Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, logger: logger}
}

// Resolve looks up every distinct project in order. A lookup that fails after
// retries resolves to unknown; unknown is a valid terminal state, so Resolve
// only returns an error when the context is done.
func (r *Resolver) Resolve(ctx context.Context, lookups []Lookup) (map[string]models.AccessStatus, error) {
	statuses := make(map[string]models.AccessStatus)
	for _, l := range lookups {
		if _, done := statuses[l.Project]; done {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status, err := r.client.Status(ctx, l.Run)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("access status lookup failed",
				"project", l.Project, "run", l.Run, "error", err)
			status = models.AccessUnknown
		}
		statuses[l.Project] = status
	}
	return statuses, nil
}
