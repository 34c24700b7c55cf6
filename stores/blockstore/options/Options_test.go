package options

import (
	"testing"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreOptions(t *testing.T) {
	t.Run("defaults from settings", func(t *testing.T) {
		tSettings := settings.NewSettings()
		tSettings.BlockStore.FullStoreDepth = 288
		tSettings.BlockStore.DuplicateUtxoPolicy = "error"

		opts, err := NewStoreOptions(tSettings)
		require.NoError(t, err)

		assert.Equal(t, uint32(288), opts.FullStoreDepth)
		assert.Equal(t, DuplicateUtxoError, opts.DuplicateUtxoPolicy)
		assert.Equal(t, tSettings.BlockStore.MemoryCapacity, opts.Capacity)
	})

	t.Run("options override settings", func(t *testing.T) {
		tSettings := settings.NewSettings()

		opts, err := NewStoreOptions(tSettings,
			WithFullStoreDepth(10),
			WithDuplicateUtxoPolicy(DuplicateUtxoError),
			WithSchemaName("chain"),
			WithCapacity(3),
			WithHeaderCacheSize(0),
		)
		require.NoError(t, err)

		assert.Equal(t, uint32(10), opts.FullStoreDepth)
		assert.Equal(t, DuplicateUtxoError, opts.DuplicateUtxoPolicy)
		assert.Equal(t, "chain", opts.SchemaName)
		assert.Equal(t, 3, opts.Capacity)
		assert.Equal(t, 0, opts.HeaderCacheSize)
	})

	t.Run("invalid values", func(t *testing.T) {
		tSettings := settings.NewSettings()

		_, err := NewStoreOptions(tSettings, WithCapacity(0))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConfiguration))

		tSettings.BlockStore.DuplicateUtxoPolicy = "sometimes"
		_, err = NewStoreOptions(tSettings)
		require.Error(t, err)

		tSettings = settings.NewSettings()
		tSettings.BlockStore.FullStoreDepth = -1
		_, err = NewStoreOptions(tSettings)
		require.Error(t, err)
	})
}

func TestParseDuplicateUtxoPolicy(t *testing.T) {
	tests := []struct {
		in       string
		expected DuplicateUtxoPolicy
	}{
		{"", DuplicateUtxoIgnore},
		{"ignore", DuplicateUtxoIgnore},
		{" Error ", DuplicateUtxoError},
	}

	for _, tt := range tests {
		policy, err := ParseDuplicateUtxoPolicy(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, policy)
		assert.Equal(t, tt.expected.String(), policy.String())
	}
}
