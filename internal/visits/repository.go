// Package visits stores landing-page visit attribution.
package visits

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"crmhub_backend/platform/logger"
)

// Visit is one tracked landing-page hit with its campaign attribution.
type Visit struct {
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMContent  string
	UTMTerm     string
	YclID       string
	CmID        string
	Block       string
}

type Repository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

func (r *Repository) Insert(ctx context.Context, v Visit) error {
	query := `
		INSERT INTO education_visits
			(utm_source, utm_medium, utm_campaign, utm_content, utm_term, yclid, cm_id, block)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		v.UTMSource, v.UTMMedium, v.UTMCampaign, v.UTMContent, v.UTMTerm, v.YclID, v.CmID, v.Block)
	if err != nil {
		r.log.DatabaseError("insert visit", err)
		return fmt.Errorf("insert visit: %w", err)
	}

	return nil
}
