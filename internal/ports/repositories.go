package ports

import (
	"context"

	"darma/internal/domain"
)

// ProofRepository stores issued proof bundles. Persistence is optional; a
// nil repository means the service runs stateless.
type ProofRepository interface {
	SaveBundle(ctx context.Context, address string, set domain.ProofSet) error
	LatestBundle(ctx context.Context, address string) (domain.ProofSet, bool, error)
}
