package sql

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
	"github.com/bsv-blockchain/teranode-blockstore/stores/blockstore/options"
)

func (s *Store) GetTransactionOutput(ctx context.Context, hash *chainhash.Hash, index uint32) (*model.UTXO, error) {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.GetTransactionOutput(ctx, hash, index)
}

func (s *Store) AddUnspentTransactionOutput(ctx context.Context, utxo *model.UTXO) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.AddUnspentTransactionOutput(ctx, utxo)
}

func (s *Store) RemoveUnspentTransactionOutput(ctx context.Context, utxo *model.UTXO) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.RemoveUnspentTransactionOutput(ctx, utxo)
}

func (s *Store) HasUnspentOutputs(ctx context.Context, hash *chainhash.Hash, numOutputs int) (bool, error) {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return false, err
	}

	return session.HasUnspentOutputs(ctx, hash, numOutputs)
}

func (s *Store) GetOpenTransactionOutputs(ctx context.Context, addresses []string) ([]*model.UTXO, error) {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.GetOpenTransactionOutputs(ctx, addresses)
}

// GetTransactionOutput returns the unspent output at hash:index, or nil when it is not in the
// UTXO set.
func (s *Session) GetTransactionOutput(ctx context.Context, hash *chainhash.Hash, index uint32) (utxo *model.UTXO, err error) {
	ctx, deferFn := s.store.startOperation(ctx, "GetTransactionOutput", &err, prometheusBlockStoreUtxoGet)
	defer deferFn()

	if err = s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	var (
		height      uint32
		value       int64
		scriptBytes []byte
		coinbase    sql.NullBool
		address     sql.NullString
	)

	err = s.querier().QueryRowContext(ctx, `
		SELECT height, value, scriptbytes, coinbase, toaddress FROM openoutputs
		WHERE hash = $1 AND "index" = $2`,
		hash[:], index,
	).Scan(&height, &value, &scriptBytes, &coinbase, &address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, s.store.sqlError(err, "failed to read output %s:%d", hash, index)
	}

	if value < 0 {
		return nil, errors.NewStorageCorruptionError("output %s:%d has negative value %d", hash, index, value)
	}

	script := bscript.Script(scriptBytes)

	return model.NewUTXO(hash, index, uint64(value), height, coinbase.Bool, &script, address.String), nil
}

// AddUnspentTransactionOutput adds utxo to the UTXO set. An output that is already present is
// handled according to the duplicate utxo policy.
func (s *Session) AddUnspentTransactionOutput(ctx context.Context, utxo *model.UTXO) (err error) {
	ctx, deferFn := s.store.startOperation(ctx, "AddUnspentTransactionOutput", &err, prometheusBlockStoreUtxoAdd)
	defer deferFn()

	if utxo == nil {
		return errors.NewInvalidArgumentError("cannot add a nil output")
	}

	value, err := safeconversion.Uint64ToInt64(utxo.Value)
	if err != nil {
		return errors.NewInvalidArgumentError("output %s:%d value %d out of range", utxo.Hash, utxo.Index, utxo.Value, err)
	}

	address := utxo.Address
	if address == "" {
		address = model.AddressFromScript(utxo.Script, s.store.params)
	}

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	return s.inTx(ctx, func(q querier) error {
		duplicate, err := s.execInsert(ctx, q, `
			INSERT INTO openoutputs (hash, "index", height, value, scriptbytes, toaddress, addresstargetable, coinbase)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			utxo.Hash[:], utxo.Index, utxo.Height, value, utxo.ScriptBytes(),
			nullableString(address), int(utxo.ScriptType()), utxo.Coinbase,
		)
		if err != nil {
			return s.store.sqlError(err, "failed to add output %s:%d", utxo.Hash, utxo.Index)
		}

		if !duplicate {
			return nil
		}

		if s.store.opts.DuplicateUtxoPolicy == options.DuplicateUtxoError {
			return errors.NewInvariantViolationError("output %s:%d is already unspent",
				utxo.Hash, utxo.Index, errors.NewUtxoExistsError("%s:%d", utxo.Hash, utxo.Index))
		}

		s.store.logger.Debugf("[BlockStore] ignoring duplicate unspent output %s:%d", utxo.Hash, utxo.Index)

		return nil
	})
}

// RemoveUnspentTransactionOutput removes utxo from the UTXO set. Removing an output that is not
// in the set is an invariant violation.
func (s *Session) RemoveUnspentTransactionOutput(ctx context.Context, utxo *model.UTXO) (err error) {
	ctx, deferFn := s.store.startOperation(ctx, "RemoveUnspentTransactionOutput", &err, prometheusBlockStoreUtxoRemove)
	defer deferFn()

	if utxo == nil {
		return errors.NewInvalidArgumentError("cannot remove a nil output")
	}

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	return s.inTx(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM openoutputs WHERE hash = $1 AND "index" = $2`, utxo.Hash[:], utxo.Index)
		if err != nil {
			return s.store.sqlError(err, "failed to remove output %s:%d", utxo.Hash, utxo.Index)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return s.store.sqlError(err, "failed to remove output %s:%d", utxo.Hash, utxo.Index)
		}

		if n == 0 {
			return errors.NewInvariantViolationError("tried to remove output %s:%d which is not unspent",
				utxo.Hash, utxo.Index, errors.NewUtxoNotFoundError("%s:%d", utxo.Hash, utxo.Index))
		}

		return nil
	})
}

// HasUnspentOutputs reports whether any output of the transaction is still unspent. numOutputs
// is accepted for interface compatibility, the check is a single existence probe.
func (s *Session) HasUnspentOutputs(ctx context.Context, hash *chainhash.Hash, _ int) (found bool, err error) {
	ctx, deferFn := s.store.startOperation(ctx, "HasUnspentOutputs", &err, prometheusBlockStoreUtxoGet)
	defer deferFn()

	if err = s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	var one int

	err = s.querier().QueryRowContext(ctx, `SELECT 1 FROM openoutputs WHERE hash = $1 LIMIT 1`, hash[:]).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, s.store.sqlError(err, "failed to look up outputs of %s", hash)
	}

	return true, nil
}

// GetOpenTransactionOutputs lists the unspent outputs paying to any of addresses.
func (s *Session) GetOpenTransactionOutputs(ctx context.Context, addresses []string) (utxos []*model.UTXO, err error) {
	ctx, deferFn := s.store.startOperation(ctx, "GetOpenTransactionOutputs", &err, prometheusBlockStoreUtxoGet)
	defer deferFn()

	if len(addresses) == 0 {
		return []*model.UTXO{}, nil
	}

	if err = s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	placeholders := make([]string, len(addresses))
	args := make([]interface{}, len(addresses))

	for i, address := range addresses {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = address
	}

	rows, err := s.querier().QueryContext(ctx, `
		SELECT hash, "index", height, value, scriptbytes, coinbase, toaddress FROM openoutputs
		WHERE toaddress IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY hash, "index"`,
		args...,
	)
	if err != nil {
		return nil, s.store.sqlError(err, "failed to list outputs for %d addresses", len(addresses))
	}

	defer rows.Close()

	utxos = make([]*model.UTXO, 0)

	for rows.Next() {
		var (
			hashBytes   []byte
			index       uint32
			height      uint32
			value       int64
			scriptBytes []byte
			coinbase    sql.NullBool
			address     sql.NullString
		)

		if err = rows.Scan(&hashBytes, &index, &height, &value, &scriptBytes, &coinbase, &address); err != nil {
			return nil, s.store.sqlError(err, "failed to read output row")
		}

		hash, hashErr := chainhash.NewHash(hashBytes)
		if hashErr != nil {
			return nil, errors.NewStorageCorruptionError("output row holds an invalid hash", hashErr)
		}

		if value < 0 {
			return nil, errors.NewStorageCorruptionError("output %s:%d has negative value %d", hash, index, value)
		}

		script := bscript.Script(scriptBytes)

		utxos = append(utxos, model.NewUTXO(hash, index, uint64(value), height, coinbase.Bool, &script, address.String))
	}

	if err = rows.Err(); err != nil {
		return nil, s.store.sqlError(err, "failed to list outputs for %d addresses", len(addresses))
	}

	return utxos, nil
}
