package domain

import "time"

// BytesPerMiB is the number of bytes in one binary megabyte.
// Size limits are configured in MiB and held in bytes internally.
const BytesPerMiB int64 = 1048576

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Download DownloadConfig `mapstructure:"download"`
	Storage  StorageConfig  `mapstructure:"storage"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains the status API configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// TelegramConfig contains bot transport configuration
type TelegramConfig struct {
	Token        string   `mapstructure:"token"`
	AllowedUsers []string `mapstructure:"allowed_users"`
	Debug        bool     `mapstructure:"debug"`
}

// DownloadConfig contains download-related configuration.
// MaxFileSizeMiB is the preflight ceiling: anything known to be larger is
// rejected before a worker run. DirectLimitMiB is the largest artifact the
// chat transport accepts inline; above it delivery overflows to storage.
type DownloadConfig struct {
	WorkDir            string        `mapstructure:"work_dir"`
	YTDLPBinary        string        `mapstructure:"ytdlp_binary"`
	CookieFile         string        `mapstructure:"cookie_file"`
	MaxFileSizeMiB     int64         `mapstructure:"max_file_size_mib"`
	DirectLimitMiB     int64         `mapstructure:"direct_limit_mib"`
	AgeLimit           int           `mapstructure:"age_limit"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	EditInterval       time.Duration `mapstructure:"edit_interval"`
	JoinTimeout        time.Duration `mapstructure:"join_timeout"`
	CleanupWait        time.Duration `mapstructure:"cleanup_wait"`
	ReencodeExtractors []string      `mapstructure:"reencode_extractors"`
}

// MaxFileSize returns the preflight size ceiling in bytes.
func (c *DownloadConfig) MaxFileSize() int64 {
	return c.MaxFileSizeMiB * BytesPerMiB
}

// DirectLimit returns the inline-delivery size limit in bytes.
func (c *DownloadConfig) DirectLimit() int64 {
	return c.DirectLimitMiB * BytesPerMiB
}

// ForceReencode reports whether artifacts from the given extractor must be
// inspected for codec compatibility. The list is empirical: only extractors
// known to produce streams the chat transport cannot play are named.
func (c *DownloadConfig) ForceReencode(extractor string) bool {
	for _, e := range c.ReencodeExtractors {
		if e == extractor {
			return true
		}
	}
	return false
}

// StorageConfig contains overflow object-storage configuration
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Configured reports whether overflow storage can be used at all.
func (c *StorageConfig) Configured() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// HistoryConfig contains download history persistence configuration
type HistoryConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			WorkDir:            "$HOME/.videodlbot/work",
			YTDLPBinary:        "yt-dlp",
			MaxFileSizeMiB:     500,
			DirectLimitMiB:     50,
			AgeLimit:           21,
			PollInterval:       500 * time.Millisecond,
			EditInterval:       1500 * time.Millisecond,
			JoinTimeout:        5 * time.Second,
			CleanupWait:        2 * time.Second,
			ReencodeExtractors: []string{"youtube"},
		},
		Storage: StorageConfig{
			Prefix: "videos/",
			UseSSL: true,
		},
		History: HistoryConfig{
			DatabasePath: "$HOME/.videodlbot/history.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
