package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
)

type Type interface {
	ScanRows(rows *Rows) (any, error)
}

type Rows struct {
	*sql.Rows
	QueryErr   error
	Many, Done bool
}

type Map[T any] map[string]T

var NoResultsErr = fmt.Errorf("empty results")

func CheckExec(c Connection, q string, args ...any) (id, count int64, err error) {
	result, err := c.Exec(q, args...)
	if err != nil {
		return 0, 0, err
	}
	id, idErr := result.LastInsertId()
	count, countErr := result.RowsAffected()
	return id, count, errors.Join(idErr, countErr)
}

func Query[T Type](c Connection, q string, args ...any) ([]T, error) {
	return scan[T](queryRows(c, true, q, args...))
}

func QueryOne[T Type](c Connection, q string, args ...any) (T, error) {
	return scanOne[T](queryRows(c, false, q, args...))
}

func queryRows(c Connection, many bool, q string, args ...any) *Rows {
	rows, err := c.Query(q, args...)
	return &Rows{rows, err, many, false}
}

func scanOne[T Type](rows *Rows) (T, error) {
	vs, err := scan[T](rows)
	if len(vs) == 1 && err == nil {
		return vs[0], nil
	}
	return *new(T), errors.Join(err, NoResultsErr)
}

func scan[T Type](rows *Rows) ([]T, error) {
	if rows.QueryErr != nil {
		return nil, fmt.Errorf("failed to query: %w", rows.QueryErr)
	}
	defer rows.Close()
	t := *new(T)
	vs, err := t.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return vs.([]T), nil
}

func (r *Rows) Next() bool {
	if r.Done {
		return false
	} else if !r.Many {
		r.Done = true
	}
	return r.Rows.Next()
}

// ScanRows scans each row into a map keyed by column name.
func (m Map[T]) ScanRows(rows *Rows) (any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	vs := []Map[T]{}
	for rows.Next() {
		m, row := Map[T]{}, make([]any, len(cols))
		for i := range cols {
			row[i] = new(T)
		}
		if err := rows.Scan(row...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, c := range cols {
			m[c] = *(row[i]).(*T)
		}
		vs = append(vs, m)
	}
	return vs, nil
}
