// Package sequence issues document numbers, one counter per document
// type and calendar year.
package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Allocator issues the next sequence number for a (docType, year) pair.
// The first call for a new pair returns 1; later calls increment by
// exactly one. Formatting is the caller's responsibility.
type Allocator interface {
	Next(ctx context.Context, docType string, year int) (int64, error)
}

// PGAllocator implements Allocator on PostgreSQL. The upsert takes a
// row lock, so concurrent callers for the same pair serialize and can
// never observe the same value.
type PGAllocator struct {
	pool *pgxpool.Pool
}

// NewPGAllocator constructs a PGAllocator.
func NewPGAllocator(pool *pgxpool.Pool) *PGAllocator {
	return &PGAllocator{pool: pool}
}

// Next returns the next number for the pair.
func (a *PGAllocator) Next(ctx context.Context, docType string, year int) (int64, error) {
	var seq int64
	err := a.pool.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, year, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, docType, year).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("sequence: next %s/%d: %w", docType, year, err)
	}
	return seq, nil
}
