package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oliveandembers/backoffice-api/internal/models"
)

// VariableRepository persists config variables, the single source of truth
// read by the pricing and booking paths.
type VariableRepository struct {
	db *sqlx.DB
}

// NewVariableRepository constructs the repository.
func NewVariableRepository(db *sqlx.DB) *VariableRepository {
	return &VariableRepository{db: db}
}

// List returns every variable ordered by category then key.
func (r *VariableRepository) List(ctx context.Context) ([]models.ConfigVariable, error) {
	const query = `SELECT category, key, value, type, description, updated_by, updated_at
FROM config_variables ORDER BY category ASC, key ASC`
	var vars []models.ConfigVariable
	if err := r.db.SelectContext(ctx, &vars, query); err != nil {
		return nil, fmt.Errorf("list config variables: %w", err)
	}
	return vars, nil
}

// ListByCategories returns variables whose category is in the provided set.
func (r *VariableRepository) ListByCategories(ctx context.Context, categories []models.VariableCategory) ([]models.ConfigVariable, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT category, key, value, type, description, updated_by, updated_at
FROM config_variables WHERE category IN (?) ORDER BY category ASC, key ASC`, categories)
	if err != nil {
		return nil, fmt.Errorf("build category query: %w", err)
	}
	query = r.db.Rebind(query)
	var vars []models.ConfigVariable
	if err := r.db.SelectContext(ctx, &vars, query, args...); err != nil {
		return nil, fmt.Errorf("list config variables by category: %w", err)
	}
	return vars, nil
}

// Get fetches a single variable by category and key.
func (r *VariableRepository) Get(ctx context.Context, category models.VariableCategory, key string) (*models.ConfigVariable, error) {
	const query = `SELECT category, key, value, type, description, updated_by, updated_at
FROM config_variables WHERE category = $1 AND key = $2`
	var v models.ConfigVariable
	if err := r.db.GetContext(ctx, &v, query, category, key); err != nil {
		return nil, err
	}
	return &v, nil
}

// Upsert inserts or updates a variable. The type tag never changes on
// conflict; callers validate type compatibility before writing.
func (r *VariableRepository) Upsert(ctx context.Context, v *models.ConfigVariable) error {
	const query = `INSERT INTO config_variables (category, key, value, type, description, updated_by, updated_at)
VALUES (:category, :key, :value, :type, :description, :updated_by, :updated_at)
ON CONFLICT (category, key)
DO UPDATE SET value = EXCLUDED.value, description = EXCLUDED.description,
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	v.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, v); err != nil {
		return fmt.Errorf("upsert config variable: %w", err)
	}
	return nil
}

// BulkUpsert performs upserts within a transaction.
func (r *VariableRepository) BulkUpsert(ctx context.Context, vars []models.ConfigVariable) error {
	if len(vars) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk variable tx: %w", err)
	}
	const query = `INSERT INTO config_variables (category, key, value, type, description, updated_by, updated_at)
VALUES (:category, :key, :value, :type, :description, :updated_by, :updated_at)
ON CONFLICT (category, key)
DO UPDATE SET value = EXCLUDED.value, description = EXCLUDED.description,
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	for i := range vars {
		vars[i].UpdatedAt = time.Now().UTC()
		if _, err := tx.NamedExecContext(ctx, query, vars[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk upsert config variable: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk variable tx: %w", err)
	}
	return nil
}

// Delete removes a variable. Only force sync uses this path.
func (r *VariableRepository) Delete(ctx context.Context, category models.VariableCategory, key string) error {
	const query = `DELETE FROM config_variables WHERE category = $1 AND key = $2`
	result, err := r.db.ExecContext(ctx, query, category, key)
	if err != nil {
		return fmt.Errorf("delete config variable: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check variable delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Ping verifies store reachability for health checks.
func (r *VariableRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
