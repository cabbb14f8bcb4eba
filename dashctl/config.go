package main

import (
	"os"
	"path/filepath"

	"github.com/gravitational/trace"
	"github.com/pelletier/go-toml"

	"github.com/statboard/statboard-cli/lib/logger"
)

const exampleConfig = `# Example dashctl configuration file.
[server]
url = "https://api.statboard.io"

[storage]
# Directory holding the persisted session. Defaults to ~/.dashctl.
dir = ""

[log]
output = "stderr" # Logger output. Could be "stdout", "stderr" or "/var/log/dashctl.log"
severity = "INFO" # Logger severity. Could be "INFO", "ERROR", "DEBUG" or "WARN"
`

// Config is the dashctl configuration loaded from a TOML file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Log     logger.Config `toml:"log"`
}

type ServerConfig struct {
	URL string `toml:"url"`
}

type StorageConfig struct {
	Dir string `toml:"dir"`
}

// LoadConfig reads the config file at path. A missing file yields the
// defaults so that a freshly installed dashctl works without a
// `configure` step.
func LoadConfig(path string) (*Config, error) {
	conf := &Config{}

	t, err := toml.LoadFile(path)
	switch {
	case os.IsNotExist(trace.Unwrap(err)):
		// fall through to the defaults
	case err != nil:
		return nil, trace.Wrap(err)
	default:
		if err := t.Unmarshal(conf); err != nil {
			return nil, trace.Wrap(err)
		}
	}

	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return conf, nil
}

func (c *Config) CheckAndSetDefaults() error {
	if c.Server.URL == "" {
		c.Server.URL = "https://api.statboard.io"
	}
	if c.Storage.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return trace.Wrap(err, "failed to resolve the home directory")
		}
		c.Storage.Dir = filepath.Join(home, ".dashctl")
	}
	if c.Log.Output == "" {
		c.Log.Output = "stderr"
	}
	if c.Log.Severity == "" {
		c.Log.Severity = "info"
	}
	return nil
}
