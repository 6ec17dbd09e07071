package param

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of Store. Parameter values
// are stored as JSON, scoped per node.
type PostgresStore struct {
	pool *pgxpool.Pool
	node string
}

// NewPostgresStore creates a store reading the given node's parameters.
func NewPostgresStore(pool *pgxpool.Pool, node string) *PostgresStore {
	return &PostgresStore{pool: pool, node: node}
}

// Get retrieves a parameter value by name.
func (s *PostgresStore) Get(ctx context.Context, name string) (any, error) {
	query := `
		SELECT value
		FROM node_parameters
		WHERE node = $1 AND name = $2
	`

	var valueJSON []byte
	err := s.pool.QueryRow(ctx, query, s.node, name).Scan(&valueJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParameterNotFound
		}
		return nil, fmt.Errorf("querying parameter %q: %w", name, err)
	}

	var value any
	if err := json.Unmarshal(valueJSON, &value); err != nil {
		return nil, fmt.Errorf("decoding parameter %q: %w", name, err)
	}
	return value, nil
}

var _ Store = (*PostgresStore)(nil)
