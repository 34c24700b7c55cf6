package settings

import (
	"net/url"
	"strings"
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/ordishs/gocore"
)

func getString(key, defaultValue string) string {
	if value, found := gocore.Config().Get(key); found && value != "" {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value, found := gocore.Config().GetInt(key); found {
		return value
	}

	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	return gocore.Config().GetBool(key, defaultValue)
}

// getMillis reads an integer number of milliseconds.
func getMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getInt(key, defaultMillis)) * time.Millisecond
}

// getURL falls back to defaultValue when the configured value does not parse.
func getURL(key, defaultValue string) *url.URL {
	if value, err, _ := gocore.Config().GetURL(key, defaultValue); err == nil && value != nil {
		return value
	}

	value, _ := url.Parse(defaultValue)

	return value
}

// getChainParams resolves the configured network name, mainnet when unset.
func getChainParams(key string) *chaincfg.Params {
	network := strings.ToLower(getString(key, "mainnet"))

	params, err := chaincfg.GetChainParams(network)
	if err != nil {
		panic("unknown network " + network + " in " + key)
	}

	return params
}
