package config

import "os"

const (
	defaultRescanInterval = 5
	defaultHandler        = "rip"
	defaultPIDFile        = "/run/discjockey.pid"
	defaultShutdownGrace  = 3
	defaultClassifyMedia  = true
	defaultLogFormat      = "auto"
	defaultLogLevel       = "info"
	defaultConfigPath     = "~/.config/discjockey/config.toml"
	projectConfigName     = "discjockey.toml"
)

// DefaultHandler is the handler command used when none is configured.
const DefaultHandler = defaultHandler

// DefaultPIDFile is the pidfile used when daemonizing without an explicit path.
const DefaultPIDFile = defaultPIDFile

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Supervisor: Supervisor{
			RescanInterval: defaultRescanInterval,
			Handler:        defaultHandler,
			ClassifyMedia:  defaultClassifyMedia,
			ShutdownGrace:  defaultShutdownGrace,
		},
		Daemon: Daemon{
			Output: os.DevNull,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
