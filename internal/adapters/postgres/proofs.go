package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"darma/internal/domain"
	"darma/internal/ports"
)

// ProofRepository persists issued proof bundles. Only commitment hashes,
// storage pointers and verification booleans are stored; the bank data the
// proofs were derived from never reaches the database.
type ProofRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ProofRepository = (*ProofRepository)(nil)

func NewProofRepository(pool *pgxpool.Pool) *ProofRepository {
	return &ProofRepository{pool: pool}
}

func (r *ProofRepository) SaveBundle(ctx context.Context, address string, set domain.ProofSet) error {
	records, err := json.Marshal(set.Records)
	if err != nil {
		return fmt.Errorf("encode proof records: %w", err)
	}

	const q = `
		INSERT INTO proof_bundles (address, bundle_cid, bundle_is_real, records, generated_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.pool.Exec(ctx, q, address, set.BundleCID, set.BundleIsReal, records, set.GeneratedAt); err != nil {
		return fmt.Errorf("insert proof bundle: %w", err)
	}
	return nil
}

func (r *ProofRepository) LatestBundle(ctx context.Context, address string) (domain.ProofSet, bool, error) {
	const q = `
		SELECT bundle_cid, bundle_is_real, records, generated_at
		FROM proof_bundles
		WHERE address = $1
		ORDER BY generated_at DESC
		LIMIT 1`

	var (
		set     domain.ProofSet
		records []byte
	)
	err := r.pool.QueryRow(ctx, q, address).Scan(&set.BundleCID, &set.BundleIsReal, &records, &set.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProofSet{}, false, nil
	}
	if err != nil {
		return domain.ProofSet{}, false, fmt.Errorf("query proof bundle: %w", err)
	}
	if err := json.Unmarshal(records, &set.Records); err != nil {
		return domain.ProofSet{}, false, fmt.Errorf("decode proof records: %w", err)
	}
	set.UsingRealIPFS = set.BundleIsReal
	return set, true, nil
}
