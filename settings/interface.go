package settings

import (
	"net/url"
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
)

type BlockStoreSettings struct {
	// StoreURL selects the engine: postgres://, sqlite:///, sqlitememory:/// or memory:///
	StoreURL *url.URL
	// FullStoreDepth is the number of blocks below the verified head that keep their undo data
	FullStoreDepth       int
	DuplicateUtxoPolicy  string
	MemoryCapacity       int
	// DBTimeout bounds a single store operation, zero disables it
	DBTimeout            time.Duration
	HeaderCacheSize      int
	SchemaName           string
	PostgresMaxIdleConns int
	PostgresMaxOpenConns int
}

type TracingSettings struct {
	Enabled bool
}

type Settings struct {
	ClientName     string
	DataFolder     string
	LogLevel       string
	PrettyLogs     bool
	ChainCfgParams *chaincfg.Params
	BlockStore     BlockStoreSettings
	Tracing        TracingSettings
}
