package config

const (
	defaultStagingDir           = "~/.local/share/toonvault/staging"
	defaultDataDir              = "~/.local/share/toonvault/data"
	defaultLogDir               = "~/.local/share/toonvault/logs"
	defaultAPIBind              = "127.0.0.1:8613"
	defaultSegmentSeconds       = 10
	defaultFFmpegBinary         = "ffmpeg"
	defaultSegmentTimeout       = 1800
	defaultUploadTimeoutSeconds = 600
	defaultMaxUploadBytes       = 8 << 30
	defaultStaleScratchHours    = 24
	defaultShutdownGraceSeconds = 15
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultNotifyTimeout        = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Storage: Storage{
			UploadTimeoutSeconds: defaultUploadTimeoutSeconds,
		},
		Segmenter: Segmenter{
			FFmpegBinary:   defaultFFmpegBinary,
			SegmentSeconds: defaultSegmentSeconds,
			TimeoutSeconds: defaultSegmentTimeout,
		},
		Ingest: Ingest{
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		Workflow: Workflow{
			StaleScratchHours:    defaultStaleScratchHours,
			ShutdownGraceSeconds: defaultShutdownGraceSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Ingest:         true,
			Errors:         true,
		},
	}
}
