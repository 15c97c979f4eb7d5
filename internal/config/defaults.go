package config

import "github.com/spf13/viper"

// setDefaults sets the default value of every key
func setDefaults(v *viper.Viper) {
	// Solver defaults match amm.DefaultParams
	v.SetDefault("engine.tolerance", "0.00000001")
	v.SetDefault("engine.max_iterations", 100)
	v.SetDefault("engine.bracket_multiplier", "10")
	v.SetDefault("engine.max_bracket_doublings", 64)
	v.SetDefault("engine.work_precision", 40)

	v.SetDefault("quote.default_slippage", "0.005")
	v.SetDefault("quote.batch_workers", 4)

	v.SetDefault("node.url", "")
	v.SetDefault("node.timeout", "10s")
	v.SetDefault("node.ledger_index", "validated")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", "5s")

	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.timeout", "5s")
	v.SetDefault("store.record", false)

	v.SetDefault("log_level", "info")
}
