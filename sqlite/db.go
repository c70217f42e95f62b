package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/nw0220/Jumony/dom"
	"github.com/nw0220/Jumony/soup"
	"github.com/nw0220/Jumony/util"
)

type Connection interface {
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

type DB struct {
	*sql.DB
}

type Tx struct {
	*sql.Tx
	*DB
}

type PureFunc any

var driverIndex = 0
var regexps util.Memo[string, *regexp.Regexp]
var funcs = map[string]any{
	"re_extract": PureFunc(regexpExtract),
	"css_count":  PureFunc(cssCount),
}

// New opens the database and applies the migrations that have not been
// applied yet. Connections provide the SQL functions
//
//	css_count(html, selector) - number of elements of html matching selector
//	re_extract(input, regexp, i) - i-th submatch of regexp in input
func New(name string, migrations []string) (*DB, error) {
	driver := fmt.Sprintf("sqlite3-jumony-%d", driverIndex)
	driverIndex++
	sql.Register(driver, &sqlite3.SQLiteDriver{ConnectHook: connectHook})
	db, err := sql.Open(driver, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %w", err)
	}
	d := &DB{db}
	if err := d.migrate(migrations); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (db *DB) Begin() (*Tx, error) {
	return db.BeginTx(context.Background(), nil)
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	return &Tx{tx, db}, err
}

func connectHook(c *sqlite3.SQLiteConn) error {
	for name, f := range funcs {
		_, isPure := f.(PureFunc)
		if err := c.RegisterFunc(name, f, isPure); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) migrate(migrations []string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	_, err = tx.Exec(`CREATE TABLE IF NOT EXISTS _migrations (sql TEXT)`)
	if err != nil {
		return fmt.Errorf("failed to create _migrations table: %w", err)
	}
	appliedMigrations, err := Query[Map[string]](tx, "SELECT sql FROM _migrations")
	if err != nil {
		return fmt.Errorf("failed to query _migrations: %w", err)
	}
	if len(migrations) < len(appliedMigrations) {
		return fmt.Errorf("database has %d migrations applied, only %d known", len(appliedMigrations), len(migrations))
	}
	for i := range appliedMigrations {
		if migrations[i] != appliedMigrations[i]["sql"] {
			return fmt.Errorf("migration %d changed after it was applied: %q", i, appliedMigrations[i]["sql"])
		}
	}
	for _, stmt := range migrations[len(appliedMigrations):] {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply migration %q: %w", stmt, err)
		}
		if _, err := tx.Exec("INSERT INTO _migrations (sql) VALUES (?)", stmt); err != nil {
			return fmt.Errorf("failed to record migration %q: %w", stmt, err)
		}
	}
	return tx.Commit()
}

func cssCount(html, selector string) (int, error) {
	d, err := dom.ParseString(html)
	if err != nil {
		return 0, err
	}
	ns, err := soup.All(d.Root(), selector)
	return len(ns), err
}

func regexpExtract(input, regexpString string, i int) (string, error) {
	r, err := regexps.Get(regexpString, regexp.Compile)
	if err != nil {
		return "", err
	}
	if m := r.FindStringSubmatch(input); len(m) > i {
		return m[i], nil
	}
	return "", nil
}
