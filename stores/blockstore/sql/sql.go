// Package sql implements the full pruned block store on top of postgres or sqlite.
//
// The store keeps four tables: settings (chain head pointers and schema version), headers,
// undoableblocks (undo data for recent blocks) and openoutputs (the UTXO set). Every mutation
// runs inside a transaction on a connection owned by a Session. The Store methods delegate to a
// default session; callers that write from several goroutines should open a session each.
package sql

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
	"github.com/bsv-blockchain/teranode-blockstore/settings"
	"github.com/bsv-blockchain/teranode-blockstore/stores/blockstore/options"
	"github.com/bsv-blockchain/teranode-blockstore/ulogger"
	"github.com/bsv-blockchain/teranode-blockstore/util"
	"github.com/bsv-blockchain/teranode-blockstore/util/usql"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	_ "github.com/lib/pq"
	"go.uber.org/atomic"
	_ "modernc.org/sqlite"
)

const (
	schemaVersion = "03"

	settingChainHead         = "chainhead"
	settingVerifiedChainHead = "verifiedchainhead"
	settingVersion           = "version"
)

// chainHeads is an immutable snapshot of both head pointers.
type chainHeads struct {
	chainHead    *model.StoredBlock
	verifiedHead *model.StoredBlock
}

type Store struct {
	logger   ulogger.Logger
	settings *settings.Settings
	db       *usql.DB
	engine   util.SQLEngine
	dialect  Dialect
	params   *chaincfg.Params
	opts     *options.StoreOptions
	timeout  time.Duration

	headsMu     sync.Mutex
	heads       *atomic.Pointer[chainHeads]
	headerCache *ttlcache.Cache[chainhash.Hash, *model.StoredBlock]

	defaultMu      sync.Mutex
	sessionsMu     sync.Mutex
	sessions       map[*Session]struct{}
	defaultSession *Session

	closed *atomic.Bool
}

// New opens the database named by storeURL, creating the tables and seeding the genesis block
// when they do not exist yet.
func New(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL, opts ...options.StoreOption) (*Store, error) {
	dialect, err := DialectForURL(storeURL)
	if err != nil {
		return nil, err
	}

	return NewWithDialect(ctx, logger, tSettings, storeURL, dialect, opts...)
}

// NewWithDialect is New with an explicit dialect, for engines reachable through one of the
// registered drivers but needing different DDL.
func NewWithDialect(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL, dialect Dialect,
	opts ...options.StoreOption) (*Store, error) {
	storeOptions, err := options.NewStoreOptions(tSettings, opts...)
	if err != nil {
		return nil, err
	}

	db, err := util.InitSQLDB(logger, storeURL, tSettings)
	if err != nil {
		return nil, err
	}

	s, err := newStore(ctx, logger, tSettings, db, util.SQLEngine(storeURL.Scheme), dialect, storeOptions)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func newStore(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, db *usql.DB, engine util.SQLEngine, dialect Dialect,
	storeOptions *options.StoreOptions) (*Store, error) {
	initPrometheusMetrics()

	if tSettings.ChainCfgParams == nil {
		return nil, errors.NewConfigurationError("no chain parameters configured")
	}

	if storeOptions.SchemaName != "" && dialect.Engine() != util.Postgres {
		logger.Warnf("[BlockStore] schema name %q ignored, %s has no schemas", storeOptions.SchemaName, engine)
	}

	s := &Store{
		logger:   logger,
		settings: tSettings,
		db:       db,
		engine:   engine,
		dialect:  dialect,
		params:   tSettings.ChainCfgParams,
		opts:     storeOptions,
		timeout:  tSettings.BlockStore.DBTimeout,
		heads:    atomic.NewPointer(&chainHeads{}),
		sessions: make(map[*Session]struct{}),
		closed:   atomic.NewBool(false),
	}

	if storeOptions.HeaderCacheSize > 0 {
		s.headerCache = ttlcache.New[chainhash.Hash, *model.StoredBlock](
			ttlcache.WithCapacity[chainhash.Hash, *model.StoredBlock](uint64(storeOptions.HeaderCacheSize)),
		)
	}

	session, err := s.DefaultSession(ctx)
	if err != nil {
		return nil, err
	}

	if err = s.bootstrap(ctx, session); err != nil {
		_ = session.Close()
		return nil, err
	}

	heads := s.heads.Load()
	s.logger.Infof("[BlockStore] %s store ready on %s, chain head %s, verified chain head %s",
		engine, s.params.Name, heads.chainHead, heads.verifiedHead)

	return s, nil
}

// bootstrap creates a fresh store or validates an existing one and loads its chain heads.
func (s *Store) bootstrap(ctx context.Context, session *Session) error {
	if err := session.lock(); err != nil {
		return err
	}
	defer session.mu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if !session.tablesExist(ctx) {
		s.logger.Infof("[BlockStore] creating new %s block store", s.engine)

		return session.createNewStore(ctx)
	}

	if err := session.checkCompatible(ctx); err != nil {
		return err
	}

	return session.loadHeads(ctx)
}

func (s *Store) GetParams() *chaincfg.Params {
	return s.params
}

// GetDB returns the underlying database handle.
func (s *Store) GetDB() *usql.DB {
	return s.db
}

func (s *Store) GetDBEngine() util.SQLEngine {
	return s.engine
}

// NewSession opens a session on its own connection. Sessions are not safe for concurrent use
// by themselves but any number of sessions may be used concurrently. On postgres and file backed
// sqlite a reader sees the last commit while another session holds a batch open. In memory sqlite
// serializes them, a reader waits for the batch to end.
func (s *Store) NewSession(ctx context.Context) (*Session, error) {
	if s.closed.Load() {
		return nil, errors.NewStoreClosedError("block store is closed")
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, s.sqlError(err, "failed to reserve a database connection")
	}

	for _, stmt := range s.dialect.SessionSQL(s.opts.SchemaName) {
		if _, err = conn.ExecContext(ctx, stmt); err != nil {
			_ = conn.Close()
			return nil, s.sqlError(err, "failed to prepare database connection")
		}
	}

	session := &Session{
		store: s,
		id:    uuid.New(),
		conn:  conn,
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	// the store may have been closed while the connection was being prepared
	if s.closed.Load() {
		_ = conn.Close()
		return nil, errors.NewStoreClosedError("block store is closed")
	}

	s.sessions[session] = struct{}{}

	return session, nil
}

// DefaultSession returns the session used by the Store methods, opening it on first use.
func (s *Store) DefaultSession(ctx context.Context) (*Session, error) {
	s.defaultMu.Lock()
	defer s.defaultMu.Unlock()

	s.sessionsMu.Lock()
	session := s.defaultSession
	s.sessionsMu.Unlock()

	if session != nil {
		return session, nil
	}

	session, err := s.NewSession(ctx)
	if err != nil {
		return nil, err
	}

	s.sessionsMu.Lock()
	s.defaultSession = session
	s.sessionsMu.Unlock()

	return session, nil
}

// Close rolls back any open batch, releases every session and closes the database. Subsequent
// calls on the store or its sessions fail with a store closed error.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.sessionsMu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))

	for session := range s.sessions {
		sessions = append(sessions, session)
	}

	s.sessions = make(map[*Session]struct{})
	s.defaultSession = nil
	s.sessionsMu.Unlock()

	var errs []error

	for _, session := range sessions {
		session.mu.Lock()
		errs = append(errs, session.release())
		session.mu.Unlock()
	}

	if s.headerCache != nil {
		s.headerCache.DeleteAll()
	}

	if err := s.db.Close(); err != nil {
		errs = append(errs, s.sqlError(err, "failed to close database"))
	}

	s.logger.Infof("[BlockStore] %s store closed", s.engine)

	return errors.Join(errs...)
}

func (s *Store) unregister(session *Session) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	delete(s.sessions, session)

	if s.defaultSession == session {
		s.defaultSession = nil
	}
}

// publish makes the effects of a committed transaction visible to every session.
func (s *Store) publish(p *pendingState) {
	if p.chainHead != nil || p.verifiedHead != nil {
		s.headsMu.Lock()

		next := *s.heads.Load()

		if p.chainHead != nil {
			next.chainHead = p.chainHead
		}

		if p.verifiedHead != nil {
			next.verifiedHead = p.verifiedHead
		}

		s.heads.Store(&next)
		s.headsMu.Unlock()
	}

	for _, block := range p.headers {
		s.cacheHeader(block)
	}
}

func (s *Store) cacheHeader(block *model.StoredBlock) {
	if s.headerCache == nil {
		return
	}

	s.headerCache.Set(*block.Hash(), block, ttlcache.NoTTL)
}

func (s *Store) cachedHeader(hash *chainhash.Hash) *model.StoredBlock {
	if s.headerCache == nil {
		return nil
	}

	item := s.headerCache.Get(*hash)
	if item == nil {
		return nil
	}

	return item.Value()
}

func (s *Store) clearHeaderCache() {
	if s.headerCache != nil {
		s.headerCache.DeleteAll()
	}
}
