// Package snapshot implements the entity snapshot providers consumed by the
// assessment service.
package snapshot

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

// Schema is the layout of the source tables read by PostgresSnapshotProvider.
// The tables are owned by the property management system.
const Schema = `
CREATE TABLE IF NOT EXISTS properties (
    id                       TEXT PRIMARY KEY,
    name                     TEXT NOT NULL DEFAULT '',
    year_built               INTEGER,
    maintenance_record_count INTEGER NOT NULL DEFAULT 0,
    vacancy_rate             DOUBLE PRECISION,
    market_trend             TEXT,
    market_value             DOUBLE PRECISION,
    total_units              INTEGER,
    property_type            TEXT
);

CREATE TABLE IF NOT EXISTS tenants (
    id                    TEXT PRIMARY KEY,
    name                  TEXT NOT NULL DEFAULT '',
    renewal_likelihood    DOUBLE PRECISION,
    lease_violation_count INTEGER NOT NULL DEFAULT 0,
    payments_total        INTEGER NOT NULL DEFAULT 0,
    payments_late         INTEGER NOT NULL DEFAULT 0,
    complaint_count       INTEGER NOT NULL DEFAULT 0,
    screening_risk_level  TEXT,
    satisfaction_rating   DOUBLE PRECISION,
    risk_trend            TEXT
);
`

const (
	selectPropertySQL = `SELECT name, year_built, maintenance_record_count, vacancy_rate,
       market_trend, market_value, total_units, property_type
  FROM properties WHERE id = $1`

	selectTenantSQL = `SELECT name, renewal_likelihood, lease_violation_count, payments_total,
       payments_late, complaint_count, screening_risk_level, satisfaction_rating, risk_trend
  FROM tenants WHERE id = $1`

	listPropertiesSQL = `SELECT id, name FROM properties ORDER BY id`
	listTenantsSQL    = `SELECT id, name FROM tenants ORDER BY id`
)

// PostgresSnapshotProvider reads entity attributes inside a read-only
// REPEATABLE READ transaction so every attribute comes from one snapshot.
type PostgresSnapshotProvider struct {
	pool   *pgxpool.Pool
	logger logger.Logger
	now    func() time.Time
}

// NewPostgresSnapshotProvider creates a provider over pool.
func NewPostgresSnapshotProvider(pool *pgxpool.Pool, log logger.Logger) service.SnapshotProvider {
	return &PostgresSnapshotProvider{
		pool:   pool,
		logger: log.WithComponent("snapshot_provider"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (p *PostgresSnapshotProvider) GetEntitySnapshot(ctx context.Context, entityType models.EntityType, entityID string) (*models.EntitySnapshot, error) {
	snap := &models.EntitySnapshot{EntityType: entityType, EntityID: entityID}

	err := p.readOnly(ctx, func(tx pgx.Tx) error {
		switch entityType {
		case models.EntityTypeProperty:
			return p.readProperty(ctx, tx, snap)
		case models.EntityTypeTenant:
			return p.readTenant(ctx, tx, snap)
		default:
			return errors.ErrValidation("snapshots are only available for properties and tenants").
				WithMetadata("entity_type", string(entityType))
		}
	})
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound(string(entityType), entityID)
		}
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		p.logger.Error(ctx, "Failed to read entity snapshot", err,
			logger.String("entity_type", string(entityType)),
			logger.String("entity_id", entityID),
		)
		return nil, errors.ErrUnavailable("snapshot source unavailable").WithCause(err)
	}

	snap.CapturedAt = p.now()
	return snap, nil
}

func (p *PostgresSnapshotProvider) ListEntities(ctx context.Context, entityType models.EntityType) ([]models.EntityRef, error) {
	var query string
	switch entityType {
	case models.EntityTypeProperty:
		query = listPropertiesSQL
	case models.EntityTypeTenant:
		query = listTenantsSQL
	default:
		return nil, errors.ErrValidation("only properties and tenants can be listed").
			WithMetadata("entity_type", string(entityType))
	}

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.ErrUnavailable("snapshot source unavailable").WithCause(err)
	}
	defer rows.Close()

	var refs []models.EntityRef
	for rows.Next() {
		ref := models.EntityRef{EntityType: entityType}
		if err := rows.Scan(&ref.EntityID, &ref.Name); err != nil {
			return nil, errors.ErrInternal("failed to scan entity row").WithCause(err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrUnavailable("snapshot source unavailable").WithCause(err)
	}
	return refs, nil
}

func (p *PostgresSnapshotProvider) readOnly(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *PostgresSnapshotProvider) readProperty(ctx context.Context, tx pgx.Tx, snap *models.EntitySnapshot) error {
	attrs := &models.PropertyAttributes{}
	var marketTrend, propertyType *string

	err := tx.QueryRow(ctx, selectPropertySQL, snap.EntityID).Scan(
		&snap.Name,
		&attrs.YearBuilt,
		&attrs.MaintenanceRecordCount,
		&attrs.VacancyRate,
		&marketTrend,
		&attrs.MarketValue,
		&attrs.TotalUnits,
		&propertyType,
	)
	if err != nil {
		return err
	}
	if marketTrend != nil {
		attrs.MarketTrend = models.MarketTrend(*marketTrend)
	}
	if propertyType != nil {
		attrs.PropertyType = *propertyType
	}
	snap.Property = attrs
	return nil
}

func (p *PostgresSnapshotProvider) readTenant(ctx context.Context, tx pgx.Tx, snap *models.EntitySnapshot) error {
	attrs := &models.TenantAttributes{}
	var screening, riskTrend *string

	err := tx.QueryRow(ctx, selectTenantSQL, snap.EntityID).Scan(
		&snap.Name,
		&attrs.RenewalLikelihood,
		&attrs.LeaseViolationCount,
		&attrs.PaymentsTotal,
		&attrs.PaymentsLate,
		&attrs.ComplaintCount,
		&screening,
		&attrs.SatisfactionRating,
		&riskTrend,
	)
	if err != nil {
		return err
	}
	if screening != nil {
		attrs.ScreeningRiskLevel = *screening
	}
	if riskTrend != nil {
		attrs.RiskTrend = models.Trend(*riskTrend)
	}
	snap.Tenant = attrs
	return nil
}
