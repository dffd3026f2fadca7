// Package aisdb stores validated AIS messages in PostgreSQL.
//
// Every write is recorded in a marker table in the same transaction, keyed by an update id. A unit of work whose
// update id is already recorded is complete and is never run again, so an interrupted ingestion can be resumed
// without duplicating rows.
package aisdb

import (
	"context"
	"os"
	"sync"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Source is a row of ais_sources, one per csv file loaded.
type Source struct {
	Filename string
	Ext      string
	Invalid  int64
	Clean    int64
	Dirty    int64
	Source   int64
}

// DB is the AIS database.
type DB struct {
	pool   *pgxpool.Pool
	specs  Specs
	logger *zap.Logger

	// serialises CREATE TABLE, concurrent creations of the same table fail in PostgreSQL
	createMu sync.Mutex
}

// Open connects to the database and creates the marker table if needed.
func Open(ctx context.Context, connString string, logger *zap.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create connection pool")
	}
	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()

		return nil, errors.Wrap(err, "unable to reach database")
	}

	db := &DB{
		pool:   pool,
		specs:  DefaultSpecs(),
		logger: logger.Named("aisdb"),
	}
	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+quoteIdent(MarkerTable)+` (
		update_id text PRIMARY KEY,
		target_table text NOT NULL,
		inserted timestamp with time zone NOT NULL DEFAULT now()
	)`)
	if err != nil {
		pool.Close()

		return nil, errors.Wrap(err, "unable to create marker table")
	}

	return db, nil
}

// Close closes every connection.
func (db *DB) Close() {
	db.pool.Close()
}

// Specs returns the table specifications of the database.
func (db *DB) Specs() Specs {
	return db.specs
}

// Done reports whether updateID is recorded.
func (db *DB) Done(ctx context.Context, updateID string) (bool, error) {
	var done bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+quoteIdent(MarkerTable)+` WHERE update_id = $1)`, updateID,
	).Scan(&done)
	if err != nil {
		return false, errors.Wrapf(err, "unable to check %s", updateID)
	}

	return done, nil
}

// claim records updateID inside tx and reports whether this transaction recorded it. A concurrent transaction
// claiming the same id waits on the primary key until tx ends, then sees the row and gets false.
func claim(ctx context.Context, tx pgx.Tx, updateID, table string) (bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO `+quoteIdent(MarkerTable)+` (update_id, target_table) VALUES ($1, $2) ON CONFLICT (update_id) DO NOTHING`,
		updateID, table,
	)
	if err != nil {
		return false, errors.Wrapf(err, "unable to record %s", updateID)
	}

	return tag.RowsAffected() == 1, nil
}

// CreateTable creates table from its specification if it does not exist.
func (db *DB) CreateTable(ctx context.Context, table string) error {
	spec, err := db.specs.Get(table)
	if err != nil {
		return err
	}

	db.createMu.Lock()
	defer db.createMu.Unlock()

	_, err = db.pool.Exec(ctx, spec.CreateTableSQL())

	return errors.Wrapf(err, "unable to create table %s", table)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}

// inTable runs fn in a transaction. When the first attempt fails because table does not exist, the table is
// created and fn is run a second time.
func (db *DB) inTable(ctx context.Context, table string, fn func(tx pgx.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := pgx.BeginFunc(ctx, db.pool, fn)
		if err == nil {
			return nil
		}
		if attempt > 0 || !isUndefinedTable(err) {
			return err
		}

		db.logger.Info("creating table", zap.String("table", table))
		err = db.CreateTable(ctx, table)
		if err != nil {
			return err
		}
	}
}

// CopyCSV loads the clean csv file at path into table with COPY and records updateID in the same transaction.
// updateID is claimed before the copy starts: when it is already recorded, nothing is copied and CopyCSV returns
// false. Otherwise it returns the number of rows copied.
func (db *DB) CopyCSV(ctx context.Context, table, updateID, path string) (int64, bool, error) {
	spec, err := db.specs.Get(table)
	if err != nil {
		return 0, false, err
	}

	var (
		rows    int64
		claimed bool
	)
	err = db.inTable(ctx, table, func(tx pgx.Tx) error {
		var err error
		claimed, err = claim(ctx, tx, updateID, table)
		if err != nil || !claimed {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "unable to open %s", path)
		}
		defer f.Close()

		tag, err := tx.Conn().PgConn().CopyFrom(ctx, f, spec.CopySQL())
		if err != nil {
			return errors.Wrapf(err, "unable to copy %s into %s", path, table)
		}
		rows = tag.RowsAffected()

		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return rows, claimed, nil
}

// RecordSource inserts src into ais_sources and records updateID in the same transaction. It returns false
// without inserting when updateID is already recorded.
func (db *DB) RecordSource(ctx context.Context, updateID string, src Source) (bool, error) {
	var claimed bool
	err := db.inTable(ctx, SourcesTable, func(tx pgx.Tx) error {
		var err error
		claimed, err = claim(ctx, tx, updateID, SourcesTable)
		if err != nil || !claimed {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO `+quoteIdent(SourcesTable)+` (filename, ext, invalid, clean, dirty, source) VALUES ($1, $2, $3, $4, $5, $6)`,
			src.Filename, src.Ext, src.Invalid, src.Clean, src.Dirty, src.Source,
		)

		return errors.Wrapf(err, "unable to insert source %s", src.Filename)
	})
	if err != nil {
		return false, err
	}

	return claimed, nil
}

// RunQuery runs query once: it returns false without running it when updateID is already recorded.
func (db *DB) RunQuery(ctx context.Context, table string, query Query) (bool, error) {
	var claimed bool
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		var err error
		claimed, err = claim(ctx, tx, query.UpdateID, table)
		if err != nil || !claimed {
			return err
		}

		_, err = tx.Exec(ctx, query.SQL)

		return errors.Wrapf(err, "unable to run %s", query.UpdateID)
	})
	if err != nil {
		return false, err
	}

	return claimed, nil
}
