// Package postgres implements the interface for PostgreSQL.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" //nolint:gci // load the postgres driver that is used by the system

	"github.com/tarancss/solview/lib/store"
)

const schema = `CREATE TABLE IF NOT EXISTS lookups (
	net      TEXT NOT NULL,
	address  TEXT NOT NULL,
	lamports NUMERIC(20) NOT NULL,
	found    BOOLEAN NOT NULL,
	ts       TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (net, address)
)`

type Postgres struct {
	db *sql.DB
}

// New returns a postgres client connection to the specified database in 'connection' and creates the lookups table
// if missing.
func New(connection string) (*Postgres, error) {
	db, err := sql.Open("postgres", connection)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to DB in %s: %w", connection, err)
	}

	return newWithDB(db)
}

func newWithDB(db *sql.DB) (*Postgres, error) {
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("cannot create lookups table: %w", err)
	}

	return &Postgres{db: db}, nil
}

// ClosePostgres will close any database connection. Must be called at termination time.
func (p *Postgres) ClosePostgres() error {
	return p.db.Close()
}

// AddLookup saves a lookup, replacing the previous lookup of the same address.
func (p *Postgres) AddLookup(net string, l store.Lookup) error {
	_, err := p.db.Exec(`INSERT INTO lookups (net, address, lamports, found, ts) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (net, address) DO UPDATE SET lamports = EXCLUDED.lamports, found = EXCLUDED.found, ts = EXCLUDED.ts`,
		net, l.Address, fmt.Sprint(l.Lamports), l.Found, l.TS)
	if err != nil {
		return fmt.Errorf("could not save lookup in db: %w", err)
	}

	return nil
}

// GetLookups returns up to limit lookups of net, most recent first. A limit <= 0 returns all of them.
func (p *Postgres) GetLookups(net string, limit int) ([]store.Lookup, error) {
	q := `SELECT address, lamports, found, ts FROM lookups WHERE net = $1 ORDER BY ts DESC`
	args := []interface{}{net}

	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := p.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("error getting lookups from DB: %w", err)
	}
	defer rows.Close()

	ls := []store.Lookup{}

	for rows.Next() {
		var l store.Lookup

		var lamports string
		if err = rows.Scan(&l.Address, &lamports, &l.Found, &l.TS); err != nil {
			return nil, fmt.Errorf("error reading lookup: %w", err)
		}

		if _, err = fmt.Sscan(lamports, &l.Lamports); err != nil {
			return nil, fmt.Errorf("error reading lamports %q: %w", lamports, err)
		}

		ls = append(ls, l)
	}

	return ls, rows.Err()
}

// DeleteLookups deletes all the lookups of net.
func (p *Postgres) DeleteLookups(net string) error {
	_, err := p.db.Exec(`DELETE FROM lookups WHERE net = $1`, net)

	return err
}
