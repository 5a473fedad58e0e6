package config

const (
	defaultConfigPath           = "~/.config/hirepipe/config.toml"
	defaultDataDir              = "~/.local/share/hirepipe"
	defaultAPIBind              = "127.0.0.1:7610"
	defaultMaxTotalStages       = 10
	defaultTotalStages          = 1
	defaultUploadMaxBytes       = 5 << 20
	defaultNotifyRequestTimeout = 10
	defaultNotifyRatePerSecond  = 5
	defaultNotifyBurst          = 5
	defaultNotifyConcurrency    = 4
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	maxStagesUpperBound         = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			APIBind: defaultAPIBind,
		},
		Stages: Stages{
			MaxTotalStages:     defaultMaxTotalStages,
			DefaultTotalStages: defaultTotalStages,
		},
		Upload: Upload{
			MaxBytes: defaultUploadMaxBytes,
		},
		Notifications: Notifications{
			RequestTimeout:      defaultNotifyRequestTimeout,
			RatePerSecond:       defaultNotifyRatePerSecond,
			Burst:               defaultNotifyBurst,
			Concurrency:         defaultNotifyConcurrency,
			ApplicationReceived: true,
			StageProgression:    true,
			Rejection:           true,
			Selection:           true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
