package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"myaje.io/checkout/driver"
	"myaje.io/checkout/models"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository persists the cart snapshot in a single-row-per-owner
// table:
//
//	CREATE TABLE cart_snapshots (
//	    owner_key  TEXT PRIMARY KEY,
//	    payload    JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresRepository struct {
	conn     driver.PostgresPool
	ownerKey string
	logger   *zap.Logger
}

func NewPostgresRepository(conn driver.PostgresPool, ownerKey string, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		conn:     conn,
		ownerKey: ownerKey,
		logger:   logger,
	}
}

func (r *PostgresRepository) Load(ctx context.Context) ([]models.CartItem, error) {
	var data []byte
	err := r.conn.QueryRow(ctx,
		`SELECT payload FROM cart_snapshots WHERE owner_key = $1`,
		r.ownerKey,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	return decodeItems(data)
}

func (r *PostgresRepository) Save(ctx context.Context, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx,
		`INSERT INTO cart_snapshots (owner_key, payload, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (owner_key)
		 DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		r.ownerKey, data,
	)
	if err != nil {
		r.logger.Error("Failed to save cart snapshot", zap.String("owner", r.ownerKey), zap.Error(err))
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context) error {
	_, err := r.conn.Exec(ctx,
		`DELETE FROM cart_snapshots WHERE owner_key = $1`,
		r.ownerKey,
	)
	if err != nil {
		return fmt.Errorf("delete cart snapshot: %w", err)
	}
	return nil
}
