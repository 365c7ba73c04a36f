package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DefaultTable is the table name used when none is given.
const DefaultTable = "operational_metrics"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func openSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

func checkTable(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// LoadSQLite reads every row of table (date, facility, metric, value, unit).
// Rows whose date cannot be parsed or whose value is NaN or infinite are
// skipped with a warning.
func LoadSQLite(ctx context.Context, path, table string) ([]Record, error) {
	table, err := checkTable(table)
	if err != nil {
		return nil, err
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT date, facility, metric, value, unit FROM %s`, table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			date string
			rec  Record
			unit sql.NullString
		)
		if err := rows.Scan(&date, &rec.Facility, &rec.Metric, &rec.Value, &unit); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		rec.Date, err = ParseDate(date)
		if err != nil {
			log.Warn().Err(err).Str("table", table).Msg("Skipping row with invalid date")
			continue
		}
		if !finite(rec.Value) {
			log.Warn().Str("table", table).Str("date", date).Msg("Skipping row with non-finite value")
			continue
		}
		rec.Unit = unit.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}

	log.Debug().Str("path", path).Str("table", table).Int("count", len(records)).Msg("Loaded records from sqlite")
	return records, nil
}

// WriteSQLite replaces table with records inside a single transaction.
func WriteSQLite(ctx context.Context, path, table string, records []Record) error {
	table, err := checkTable(table)
	if err != nil {
		return err
	}
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table),
		fmt.Sprintf(`CREATE TABLE %s (
			date TEXT NOT NULL,
			facility TEXT NOT NULL,
			metric TEXT NOT NULL,
			value REAL NOT NULL,
			unit TEXT
		)`, table),
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("prepare %s: %w", table, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (date, facility, metric, value, unit) VALUES (?, ?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	for _, r := range records {
		if _, err := insert.ExecContext(ctx, r.Date.Format(DateLayout), r.Facility, r.Metric, r.Value, r.Unit); err != nil {
			return fmt.Errorf("insert %s: %w", r.Facility, err)
		}
	}
	return tx.Commit()
}
