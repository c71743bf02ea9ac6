package config

// Config is the root configuration for rethink.
//
// Sources, in precedence order: RETHINK_* environment variables, a
// rethink.toml found by walking up from the working directory, defaults.
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Sampler SamplerConfig `mapstructure:"sampler"`
	Grid    GridConfig    `mapstructure:"grid"`
	Figures FiguresConfig `mapstructure:"figures"`
	Log     LogConfig     `mapstructure:"log"`
}

// PathsConfig locates on-disk artifacts
type PathsConfig struct {
	// OutputDir receives rendered chapter documents and figures
	OutputDir string `mapstructure:"output_dir"`
	// Cache is the sqlite fit-cache path
	Cache string `mapstructure:"cache"`
}

// SamplerConfig carries the MCMC defaults applied when a chapter or the fit
// command does not override them
type SamplerConfig struct {
	Chains     int     `mapstructure:"chains"`
	Iterations int     `mapstructure:"iterations"`
	Warmup     int     `mapstructure:"warmup"`
	Thin       int     `mapstructure:"thin"`
	// StepScale is the random-walk proposal standard deviation
	StepScale float64 `mapstructure:"step_scale"`
	Seed      uint64  `mapstructure:"seed"`
}

// GridConfig controls grid approximation resolution
type GridConfig struct {
	Points int `mapstructure:"points"`
	Draws  int `mapstructure:"draws"`
}

// FiguresConfig controls figure output
type FiguresConfig struct {
	WidthInches  float64 `mapstructure:"width_inches"`
	HeightInches float64 `mapstructure:"height_inches"`
}

// LogConfig controls logging behavior
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}
