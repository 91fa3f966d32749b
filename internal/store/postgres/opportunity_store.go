package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okaybet/crossarb/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a store backed by the given connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Create journals a detected opportunity.
func (s *OpportunityStore) Create(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			id, group_title,
			yes_venue, yes_market_id, yes_price,
			no_venue, no_market_id, no_price,
			bundle_cost, profit, detected_at
		) VALUES (
			$1, $2,
			$3, $4, $5,
			$6, $7, $8,
			$9, $10, $11
		)`

	_, err := s.pool.Exec(ctx, query,
		opp.ID, opp.GroupTitle,
		string(opp.YesLeg.Venue), opp.YesLeg.MarketID, opp.YesLeg.Price,
		string(opp.NoLeg.Venue), opp.NoLeg.MarketID, opp.NoLeg.Price,
		opp.BundleCost, opp.Profit, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// RecordDispatch updates the dispatch outcome of a journaled opportunity.
func (s *OpportunityStore) RecordDispatch(ctx context.Context, oppID string, status domain.DispatchStatus, detail string) error {
	const query = `
		UPDATE opportunities SET
			dispatch_status = $2,
			dispatch_detail = $3,
			dispatched_at   = $4
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, oppID, string(status), detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: record dispatch %s: %w", oppID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: record dispatch %s: %w", oppID, domain.ErrNotFound)
	}
	return nil
}

// ListRecent returns the most recently detected opportunities.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	query := `
		SELECT id, group_title,
			yes_venue, yes_market_id, yes_price,
			no_venue, no_market_id, no_price,
			bundle_cost, profit, detected_at
		FROM opportunities ORDER BY detected_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity
		var yesVenue, noVenue string
		err := rows.Scan(
			&opp.ID, &opp.GroupTitle,
			&yesVenue, &opp.YesLeg.MarketID, &opp.YesLeg.Price,
			&noVenue, &opp.NoLeg.MarketID, &opp.NoLeg.Price,
			&opp.BundleCost, &opp.Profit, &opp.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opp.YesLeg.Venue = domain.Venue(yesVenue)
		opp.YesLeg.Side = domain.SideYes
		opp.NoLeg.Venue = domain.Venue(noVenue)
		opp.NoLeg.Side = domain.SideNo
		out = append(out, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunities: %w", err)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)
