package config

import "delisys/internal/pathtemplate"

const (
	defaultConfigPath  = "~/.config/delisys/config.toml"
	projectConfigName  = "delisys.toml"
	defaultStateDir    = "~/.local/share/delisys"
	defaultDateFormat  = "200601021504"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	envOutputDir       = "DELISYS_OUTPUT_DIR"
	envLogLevel        = "DELISYS_LOG_LEVEL"
	defaultHistoryFlag = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Template: Template{
			Pattern:    pathtemplate.DefaultPattern,
			DateFormat: defaultDateFormat,
		},
		Delivery: Delivery{
			History: defaultHistoryFlag,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
