package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// DefaultTable is the settings table read by LoadPostgres
const DefaultTable = "config"

// LoadPostgres reads every row of a conf_name/conf_value table into a Map.
// The table is read once; later changes in the database are not seen.
func LoadPostgres(ctx context.Context, dsn, table string) (Map, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	defer db.Close()

	return LoadTable(ctx, db, table)
}

// LoadTable reads settings from an open database handle.
// NULL values are left out of the result.
func LoadTable(ctx context.Context, db *sql.DB, table string) (Map, error) {
	if table == "" {
		table = DefaultTable
	}

	query := fmt.Sprintf("SELECT conf_name, conf_value FROM %s", pq.QuoteIdentifier(table))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings table %s: %w", table, err)
	}
	defer rows.Close()

	m := Map{}
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan settings row: %w", err)
		}
		if !value.Valid {
			continue
		}
		m[name] = value.String
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings table %s: %w", table, err)
	}

	return m, nil
}
