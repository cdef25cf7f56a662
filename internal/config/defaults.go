package config

const (
	defaultConfigPath            = "~/.config/sidelines/config.toml"
	defaultBaseURL               = "http://localhost:8000"
	defaultSubmitPath            = "/generate-commentary"
	defaultProgressPath          = "/ws"
	defaultHealthPath            = "/health"
	defaultConnectTimeoutSeconds = 10
	defaultRequestTimeoutSeconds = 900
	defaultLanguage              = "en"
	defaultDownloadDir           = "."
	defaultLogDir                = "~/.local/share/sidelines/logs"
	defaultOutputFilename        = "commentated-trickshot.mp4"
	defaultNotifyTimeout         = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			BaseURL:               defaultBaseURL,
			SubmitPath:            defaultSubmitPath,
			ProgressPath:          defaultProgressPath,
			HealthPath:            defaultHealthPath,
			ConnectTimeoutSeconds: defaultConnectTimeoutSeconds,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Job: Job{
			Language: defaultLanguage,
		},
		Paths: Paths{
			SpoolDir:    defaultSpoolDir(),
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
		},
		Output: Output{
			DefaultFilename: defaultOutputFilename,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Success:        true,
			Failure:        true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
