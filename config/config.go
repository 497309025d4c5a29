package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel     int    `yaml:"log_level"`
	AudioBitrate string `yaml:"audio_bitrate"`
	DownloadsDir string `yaml:"downloads_dir"`

	Bot     BotConfig     `yaml:"bot"`
	Storage StorageConfig `yaml:"storage"`
}

type BotConfig struct {
	CommandPrefix string `yaml:"command_prefix"`

	// Largest file the bot will attach to a chat message, in megabytes.
	MaxUploadMB int64 `yaml:"max_upload_mb"`

	// Character budget for a single chat message.
	MessageCharLimit int `yaml:"message_char_limit"`
}

type StorageConfig struct {
	// Type of storage: "local" or "gcs"
	Type string `yaml:"type"`

	// Local storage options
	OutputDir string `yaml:"output_dir"`

	// GCS options, used when oversized files are archived for link
	// sharing instead of direct upload.
	GCSBucket       string `yaml:"gcs_bucket"`
	GCSPrefix       string `yaml:"gcs_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML config at path. A missing file is not an error:
// the defaults are returned so the CLI works out of the box.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.AudioBitrate == "" {
		c.AudioBitrate = "192k"
	}

	if c.DownloadsDir == "" {
		c.DownloadsDir = "downloads"
	}

	if c.Bot.CommandPrefix == "" {
		c.Bot.CommandPrefix = "!"
	}

	if c.Bot.MaxUploadMB == 0 {
		c.Bot.MaxUploadMB = 25
	}

	if c.Bot.MessageCharLimit == 0 {
		c.Bot.MessageCharLimit = 1900
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}

	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = c.DownloadsDir
	}
}
