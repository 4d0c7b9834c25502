package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// Execer runs a statement. *sql.DB and *sql.Tx satisfy it.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Querier runs a query. *sql.DB and *sql.Tx satisfy it.
type Querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// SplitStatements breaks a SQL script on semicolons. Comments (--, # and
// /* */) are dropped; semicolons inside quoted strings or identifiers are
// kept. Empty statements are skipped.
func SplitStatements(script string) []string {
	var (
		stmts []string
		cur   strings.Builder
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	rs := []rune(script)
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		next := rune(0)
		if i+1 < len(rs) {
			next = rs[i+1]
		}

		if quote != 0 {
			cur.WriteRune(c)
			if c == quote {
				// A doubled quote is an escaped quote.
				if next == quote {
					cur.WriteRune(next)
					i++
					continue
				}
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			quote = c
			cur.WriteRune(c)
		case c == '-' && next == '-', c == '#':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
			cur.WriteRune('\n')
		case c == '/' && next == '*':
			i += 2
			for i < len(rs) && !(rs[i] == '*' && i+1 < len(rs) && rs[i+1] == '/') {
				i++
			}
			i++
			cur.WriteRune(' ')
		case c == ';':
			flush()
		default:
			cur.WriteRune(c)
		}
	}
	flush()
	return stmts
}

// ExecScript runs every statement of script in order and returns how many
// ran. It stops at the first failure.
func ExecScript(db Execer, script string) (int, error) {
	stmts := SplitStatements(script)
	for i, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return i, fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}
	return len(stmts), nil
}

// Exec runs one statement and returns the rows it affected.
func Exec(db Execer, query string, args ...any) (int64, error) {
	result, err := db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// SelectMaps runs query and returns each row keyed by column name. Byte
// slices are returned as strings.
func SelectMaps(db Querier, query string, args ...any) ([]map[string]any, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}
