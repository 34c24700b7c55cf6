package options

import (
	"strings"

	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/settings"
)

// DuplicateUtxoPolicy decides what adding an output that is already in the UTXO set does.
type DuplicateUtxoPolicy int

const (
	// DuplicateUtxoIgnore keeps the existing row and reports success.
	DuplicateUtxoIgnore DuplicateUtxoPolicy = iota
	// DuplicateUtxoError fails the add with an invariant violation.
	DuplicateUtxoError
)

func (p DuplicateUtxoPolicy) String() string {
	switch p {
	case DuplicateUtxoIgnore:
		return "ignore"
	case DuplicateUtxoError:
		return "error"
	default:
		return "unknown"
	}
}

func ParseDuplicateUtxoPolicy(s string) (DuplicateUtxoPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return DuplicateUtxoIgnore, nil
	case "error":
		return DuplicateUtxoError, nil
	default:
		return DuplicateUtxoIgnore, errors.NewConfigurationError("unknown duplicate utxo policy %q", s)
	}
}

type StoreOptions struct {
	// FullStoreDepth is the number of blocks below the verified chain head whose undo data is kept.
	FullStoreDepth      uint32
	DuplicateUtxoPolicy DuplicateUtxoPolicy
	SchemaName          string
	Capacity            int
	HeaderCacheSize     int
}

type StoreOption func(*StoreOptions)

func WithFullStoreDepth(depth uint32) StoreOption {
	return func(opts *StoreOptions) {
		opts.FullStoreDepth = depth
	}
}

func WithDuplicateUtxoPolicy(policy DuplicateUtxoPolicy) StoreOption {
	return func(opts *StoreOptions) {
		opts.DuplicateUtxoPolicy = policy
	}
}

func WithSchemaName(name string) StoreOption {
	return func(opts *StoreOptions) {
		opts.SchemaName = name
	}
}

// WithCapacity bounds the number of headers held by the in-memory store.
func WithCapacity(capacity int) StoreOption {
	return func(opts *StoreOptions) {
		opts.Capacity = capacity
	}
}

// WithHeaderCacheSize bounds the relational store's header cache, 0 disables it.
func WithHeaderCacheSize(size int) StoreOption {
	return func(opts *StoreOptions) {
		opts.HeaderCacheSize = size
	}
}

// NewStoreOptions starts from the block store settings and applies opts on top.
func NewStoreOptions(tSettings *settings.Settings, opts ...StoreOption) (*StoreOptions, error) {
	policy, err := ParseDuplicateUtxoPolicy(tSettings.BlockStore.DuplicateUtxoPolicy)
	if err != nil {
		return nil, err
	}

	depth, err := safeconversion.IntToUint32(tSettings.BlockStore.FullStoreDepth)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid blockstore_fullStoreDepth %d", tSettings.BlockStore.FullStoreDepth, err)
	}

	storeOptions := &StoreOptions{
		FullStoreDepth:      depth,
		DuplicateUtxoPolicy: policy,
		SchemaName:          tSettings.BlockStore.SchemaName,
		Capacity:            tSettings.BlockStore.MemoryCapacity,
		HeaderCacheSize:     tSettings.BlockStore.HeaderCacheSize,
	}

	for _, opt := range opts {
		opt(storeOptions)
	}

	if storeOptions.Capacity <= 0 {
		return nil, errors.NewConfigurationError("block store capacity must be positive, got %d", storeOptions.Capacity)
	}

	if storeOptions.HeaderCacheSize < 0 {
		return nil, errors.NewConfigurationError("header cache size must not be negative, got %d", storeOptions.HeaderCacheSize)
	}

	return storeOptions, nil
}
