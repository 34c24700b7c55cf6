package sql

import (
	"database/sql"
	"database/sql/driver"
	"net"
	"net/url"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/util"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect holds everything that differs between the relational engines: DDL and the way
// driver errors are classified. All statements outside a dialect use $n placeholders, which
// both drivers accept.
type Dialect interface {
	Engine() util.SQLEngine
	// SessionSQL is run on every new connection before any other statement.
	SessionSQL(schemaName string) []string
	CreateTablesSQL() []string
	CreateIndexesSQL() []string
	DropTablesSQL() []string
	BalanceSQL() string
	IsDuplicateKeyError(err error) bool
	IsUnavailableError(err error) bool
	IsCorruptionError(err error) bool
}

// DialectForURL picks the dialect matching the scheme of storeURL.
func DialectForURL(storeURL *url.URL) (Dialect, error) {
	switch util.SQLEngine(storeURL.Scheme) {
	case util.Postgres:
		return PostgresDialect{}, nil
	case util.Sqlite, util.SqliteMemory:
		return SQLiteDialect{}, nil
	default:
		return nil, errors.NewConfigurationError("unknown database engine: %s", storeURL.Scheme)
	}
}

type baseDialect struct{}

func (baseDialect) CreateIndexesSQL() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_undoableblocks_height ON undoableblocks (height);`,
		`CREATE INDEX IF NOT EXISTS idx_openoutputs_toaddress ON openoutputs (toaddress);`,
	}
}

func (baseDialect) DropTablesSQL() []string {
	return []string{
		`DROP TABLE IF EXISTS settings;`,
		`DROP TABLE IF EXISTS headers;`,
		`DROP TABLE IF EXISTS undoableblocks;`,
		`DROP TABLE IF EXISTS openoutputs;`,
	}
}

func (baseDialect) BalanceSQL() string {
	return `SELECT COALESCE(SUM(value), 0) FROM openoutputs WHERE toaddress = $1`
}

func (baseDialect) isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var netErr *net.OpError

	return errors.As(err, &netErr)
}

type PostgresDialect struct {
	baseDialect
}

func (PostgresDialect) Engine() util.SQLEngine {
	return util.Postgres
}

func (PostgresDialect) SessionSQL(schemaName string) []string {
	if schemaName == "" {
		return nil
	}

	quoted := pq.QuoteIdentifier(schemaName)

	return []string{
		`CREATE SCHEMA IF NOT EXISTS ` + quoted + `;`,
		`SET search_path TO ` + quoted + `;`,
	}
}

func (PostgresDialect) CreateTablesSQL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS settings (
		  name           VARCHAR(32) NOT NULL CONSTRAINT settings_pk PRIMARY KEY
		  ,value         BYTEA
		);`,
		`CREATE TABLE IF NOT EXISTS headers (
		  hash           BYTEA NOT NULL CONSTRAINT headers_pk PRIMARY KEY
		  ,chainwork     BYTEA NOT NULL
		  ,height        INTEGER NOT NULL
		  ,header        BYTEA NOT NULL
		  ,wasundoable   BOOLEAN NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS undoableblocks (
		  hash           BYTEA NOT NULL CONSTRAINT undoableblocks_pk PRIMARY KEY
		  ,height        INTEGER NOT NULL
		  ,txoutchanges  BYTEA
		  ,transactions  BYTEA
		);`,
		`CREATE TABLE IF NOT EXISTS openoutputs (
		  hash               BYTEA NOT NULL
		  ,"index"           INTEGER NOT NULL
		  ,height            INTEGER NOT NULL
		  ,value             BIGINT NOT NULL
		  ,scriptbytes       BYTEA NOT NULL
		  ,toaddress         VARCHAR(35)
		  ,addresstargetable SMALLINT
		  ,coinbase          BOOLEAN
		  ,CONSTRAINT openoutputs_pk PRIMARY KEY (hash, "index")
		);`,
	}
}

func (PostgresDialect) IsDuplicateKeyError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return false
}

func (d PostgresDialect) IsUnavailableError(err error) bool {
	if d.isConnectionError(err) {
		return true
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	switch {
	case pqErr.Code.Class() == "08": // connection exception
		return true
	case pqErr.Code == "57P01", pqErr.Code == "57P02", pqErr.Code == "57P03": // admin or crash shutdown, cannot connect now
		return true
	case pqErr.Code == "53300": // too many connections
		return true
	}

	return false
}

func (PostgresDialect) IsCorruptionError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "XX001" || pqErr.Code == "XX002"
	}

	return false
}

type SQLiteDialect struct {
	baseDialect
}

func (SQLiteDialect) Engine() util.SQLEngine {
	return util.Sqlite
}

func (SQLiteDialect) SessionSQL(string) []string {
	return nil
}

func (SQLiteDialect) CreateTablesSQL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS settings (
		  name           VARCHAR(32) NOT NULL PRIMARY KEY
		  ,value         BLOB
		);`,
		`CREATE TABLE IF NOT EXISTS headers (
		  hash           BLOB NOT NULL PRIMARY KEY
		  ,chainwork     BLOB NOT NULL
		  ,height        INTEGER NOT NULL
		  ,header        BLOB NOT NULL
		  ,wasundoable   BOOLEAN NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS undoableblocks (
		  hash           BLOB NOT NULL PRIMARY KEY
		  ,height        INTEGER NOT NULL
		  ,txoutchanges  BLOB
		  ,transactions  BLOB
		);`,
		`CREATE TABLE IF NOT EXISTS openoutputs (
		  hash               BLOB NOT NULL
		  ,"index"           INTEGER NOT NULL
		  ,height            INTEGER NOT NULL
		  ,value             BIGINT NOT NULL
		  ,scriptbytes       BLOB NOT NULL
		  ,toaddress         VARCHAR(35)
		  ,addresstargetable SMALLINT
		  ,coinbase          BOOLEAN
		  ,PRIMARY KEY (hash, "index")
		);`,
	}
}

func (SQLiteDialect) IsDuplicateKeyError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()

		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3.SQLITE_CONSTRAINT
	}

	return false
}

func (d SQLiteDialect) IsUnavailableError(err error) bool {
	if d.isConnectionError(err) {
		return true
	}

	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL:
		return true
	}

	return false
}

func (SQLiteDialect) IsCorruptionError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		return true
	}

	return false
}
