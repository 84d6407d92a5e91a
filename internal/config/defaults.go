package config

const (
	defaultDataDir               = "~/.local/share/aerial"
	defaultLogDir                = "~/.local/share/aerial/logs"
	defaultAPIBind               = "127.0.0.1:8288"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultFFmpegUserAgent       = "AptvPlayer/1.4.1"
	defaultFFmpegProbeSeconds    = 5
	defaultFFmpegCaptureTimeout  = 15
	defaultFFmpegVerifyTimeout   = 2
	defaultFFmpegScaleWidth      = 320
	defaultCheckConcurrency      = 5
	defaultCheckErrorLimit       = 100
	defaultFetchTimeoutSeconds   = 30
	defaultAutoCheckIntervalMins = 0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		FFmpeg: FFmpeg{
			UserAgent:             defaultFFmpegUserAgent,
			ProbeSeconds:          defaultFFmpegProbeSeconds,
			CaptureTimeoutSeconds: defaultFFmpegCaptureTimeout,
			VerifyTimeoutSeconds:  defaultFFmpegVerifyTimeout,
			ScaleWidth:            defaultFFmpegScaleWidth,
		},
		Check: Check{
			Concurrency:         defaultCheckConcurrency,
			ErrorLimit:          defaultCheckErrorLimit,
			AutoDisableFailed:   true,
			AutoIntervalMinutes: defaultAutoCheckIntervalMins,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
