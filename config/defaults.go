package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Path defaults
	v.SetDefault("paths.output_dir", "book")
	v.SetDefault("paths.cache", "rethink.db")

	// Sampler defaults. Four chains of 2000 iterations with a quarter spent
	// on warmup mirrors the defaults readers see in the book's own tooling.
	v.SetDefault("sampler.chains", 4)
	v.SetDefault("sampler.iterations", 2000)
	v.SetDefault("sampler.warmup", 500)
	v.SetDefault("sampler.thin", 1)
	v.SetDefault("sampler.step_scale", 0.1)
	v.SetDefault("sampler.seed", 1234)

	// Grid approximation defaults
	v.SetDefault("grid.points", 200)
	v.SetDefault("grid.draws", 10000)

	// Figure defaults
	v.SetDefault("figures.width_inches", 6.0)
	v.SetDefault("figures.height_inches", 4.0)

	// Logging defaults
	v.SetDefault("log.json", false)
}

// Defaults returns a Config carrying only the default values, without
// touching the environment or any config file
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)
	var config Config
	// Unmarshal of pure defaults cannot fail
	_ = v.Unmarshal(&config)
	return &config
}
