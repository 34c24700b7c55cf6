package sql

import (
	"context"
	"database/sql"
	"math/big"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
)

// CalculateBalanceForAddress sums the value of every unspent output paying to address.
func (s *Store) CalculateBalanceForAddress(ctx context.Context, address string) (*big.Int, error) {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.CalculateBalanceForAddress(ctx, address)
}

func (s *Session) CalculateBalanceForAddress(ctx context.Context, address string) (balance *big.Int, err error) {
	ctx, deferFn := s.store.startOperation(ctx, "CalculateBalanceForAddress", &err, nil)
	defer deferFn()

	if err = s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	// postgres sums bigint into numeric, scanning as text keeps the full range
	var sum sql.NullString

	if err = s.querier().QueryRowContext(ctx, s.store.dialect.BalanceSQL(), address).Scan(&sum); err != nil {
		return nil, s.store.sqlError(err, "failed to calculate balance of %s", address)
	}

	if !sum.Valid || sum.String == "" {
		return big.NewInt(0), nil
	}

	balance, ok := new(big.Int).SetString(sum.String, 10)
	if !ok {
		return nil, errors.NewStorageCorruptionError("balance of %s is not a number: %q", address, sum.String)
	}

	return balance, nil
}
