package settings

// NewSettings reads the gocore configuration (settings.conf, settings_local.conf and the
// environment). It panics on an unknown network name.
func NewSettings() *Settings {
	return &Settings{
		ClientName:     getString("clientName", "blockstore"),
		DataFolder:     getString("dataFolder", "data"),
		LogLevel:       getString("logLevel", "INFO"),
		PrettyLogs:     getBool("PRETTY_LOGS", true),
		ChainCfgParams: getChainParams("network"),
		BlockStore: BlockStoreSettings{
			StoreURL:             getURL("blockstore_storeURL", "sqlite:///blockstore"),
			FullStoreDepth:       getInt("blockstore_fullStoreDepth", 1000),
			DuplicateUtxoPolicy:  getString("blockstore_duplicateUtxoPolicy", "ignore"),
			MemoryCapacity:       getInt("blockstore_memoryCapacity", 5000),
			DBTimeout:            getMillis("blockstore_dbTimeoutMillis", 5000),
			HeaderCacheSize:      getInt("blockstore_headerCacheSize", 2000),
			SchemaName:           getString("blockstore_schemaName", ""),
			PostgresMaxIdleConns: getInt("blockstore_postgresMaxIdleConns", 10),
			PostgresMaxOpenConns: getInt("blockstore_postgresMaxOpenConns", 80),
		},
		Tracing: TracingSettings{
			Enabled: getBool("tracing_enabled", false),
		},
	}
}
