package sql

import (
	"context"
	"database/sql"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
)

// tablesExist probes the settings table. Any failure is read as a missing schema; a database
// that is really unreachable fails again when the tables are created.
func (s *Session) tablesExist(ctx context.Context) bool {
	rows, err := s.conn.QueryContext(ctx, `SELECT * FROM settings WHERE 1 = 2`)
	if err != nil {
		return false
	}

	_ = rows.Close()

	return true
}

// checkCompatible rejects stores written by an older layout of the tables.
func (s *Session) checkCompatible(ctx context.Context) error {
	rows, err := s.conn.QueryContext(ctx, `SELECT coinbase FROM openoutputs WHERE 1 = 2`)
	if err != nil {
		return errors.NewConfigurationError("database schema is not compatible with this version, openoutputs has no coinbase column", err)
	}

	_ = rows.Close()

	version, found, err := s.getSetting(ctx, s.conn, settingVersion)
	if err != nil {
		return err
	}

	if !found {
		s.store.logger.Warnf("[BlockStore] no schema version recorded, assuming %s", schemaVersion)
		return nil
	}

	if string(version) != schemaVersion {
		return errors.NewConfigurationError("database schema version %q is not supported, expected %q", string(version), schemaVersion)
	}

	return nil
}

func (s *Session) createTables(ctx context.Context) error {
	statements := append(s.store.dialect.CreateTablesSQL(), s.store.dialect.CreateIndexesSQL()...)

	for _, stmt := range statements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return s.store.sqlError(err, "failed to create block store tables")
		}
	}

	return nil
}

func (s *Session) dropTables(ctx context.Context) error {
	for _, stmt := range s.store.dialect.DropTablesSQL() {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return s.store.sqlError(err, "failed to drop block store tables")
		}
	}

	return nil
}

// createNewStore creates the tables and seeds them with the genesis block of the configured
// network, which becomes both the chain head and the verified chain head.
func (s *Session) createNewStore(ctx context.Context) error {
	if err := s.createTables(ctx); err != nil {
		return err
	}

	genesis, err := model.GenesisStoredBlock(s.store.params)
	if err != nil {
		return errors.NewConfigurationError("failed to build genesis block for %s", s.store.params.Name, err)
	}

	hash := genesis.Hash()

	err = s.inTx(ctx, func(q querier) error {
		for name, value := range map[string][]byte{
			settingVersion:           []byte(schemaVersion),
			settingChainHead:         hash[:],
			settingVerifiedChainHead: hash[:],
		} {
			if _, err := q.ExecContext(ctx, `INSERT INTO settings (name, value) VALUES ($1, $2)`, name, value); err != nil {
				return s.store.sqlError(err, "failed to insert setting %s", name)
			}
		}

		if err := s.putHeader(ctx, q, genesis, true); err != nil {
			return err
		}

		if err := s.putUndo(ctx, q, genesis.Height, model.NewStoredUndoableBlockFromTransactions(hash, model.TransactionList{})); err != nil {
			return err
		}

		s.pending.chainHead = genesis
		s.pending.verifiedHead = genesis

		return nil
	})
	if err != nil {
		return err
	}

	s.store.logger.Infof("[BlockStore] seeded %s genesis block %s", s.store.params.Name, hash)

	return nil
}

func (s *Session) loadHeads(ctx context.Context) error {
	chainHead, err := s.loadHead(ctx, settingChainHead)
	if err != nil {
		return err
	}

	verifiedHead, err := s.loadHead(ctx, settingVerifiedChainHead)
	if err != nil {
		return err
	}

	s.store.publish(&pendingState{
		chainHead:    chainHead,
		verifiedHead: verifiedHead,
	})

	return nil
}

func (s *Session) loadHead(ctx context.Context, name string) (*model.StoredBlock, error) {
	value, found, err := s.getSetting(ctx, s.conn, name)
	if err != nil {
		return nil, err
	}

	if !found || value == nil {
		return nil, errors.NewStorageCorruptionError("setting %s is missing", name)
	}

	hash, err := chainhash.NewHash(value)
	if err != nil {
		return nil, errors.NewStorageCorruptionError("setting %s does not hold a block hash", name, err)
	}

	block, err := s.getHeader(ctx, s.conn, hash, false)
	if err != nil {
		return nil, err
	}

	if block == nil {
		return nil, errors.NewInvariantViolationError("setting %s points at block %s which is not stored", name, hash)
	}

	return block, nil
}

func (s *Session) getSetting(ctx context.Context, q querier, name string) ([]byte, bool, error) {
	var value []byte

	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, s.store.sqlError(err, "failed to read setting %s", name)
	}

	return value, true, nil
}

func (s *Session) updateSetting(ctx context.Context, q querier, name string, value []byte) error {
	res, err := q.ExecContext(ctx, `UPDATE settings SET value = $2 WHERE name = $1`, name, value)
	if err != nil {
		return s.store.sqlError(err, "failed to update setting %s", name)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return s.store.sqlError(err, "failed to update setting %s", name)
	}

	if n == 0 {
		return errors.NewStorageCorruptionError("setting %s is missing", name)
	}

	return nil
}

// headerKey is the primary key of a header row, the first 28 bytes of the hash to keep the index
// small. The dropped bytes are not assumed to be zero. Keys stay unique in practice and getHeader
// checks the stored header against the full hash.
func headerKey(hash *chainhash.Hash) []byte {
	return hash[:28]
}
