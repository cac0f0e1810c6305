package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sqs-log-shipper/pkg/appender"
)

const (
	DefaultName    = "sqs"
	DefaultEncoder = "json"

	SourceStdin     = "stdin"
	SourceWebSocket = "websocket"

	SinkConsole = "console"
	SinkFile    = "file"
)

type Config struct {
	Name     string          `yaml:"name"`
	Appender appender.Config `yaml:"appender"`
	Encoder  string          `yaml:"encoder"`
	Source   SourceConfig    `yaml:"source"`
	Sinks    []SinkConfig    `yaml:"sinks"`
	// Properties seed the process-wide property store consulted by the
	// credential chain (aws.accessKeyId, aws.secretKey).
	Properties map[string]string `yaml:"properties"`
}

type SourceConfig struct {
	Type      string           `yaml:"type"` // "stdin", "websocket"
	WebSocket *WebSocketConfig `yaml:"websocket,omitempty"`
}

type WebSocketConfig struct {
	URL       string `yaml:"url"`
	Subscribe string `yaml:"subscribe"`
}

// SinkConfig describes a local sink that receives events alongside SQS.
type SinkConfig struct {
	Type string      `yaml:"type"` // "console", "file"
	File *FileConfig `yaml:"file,omitempty"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening config")
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decoding config '%s'", path)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Encoder == "" {
		c.Encoder = DefaultEncoder
	}
	if c.Source.Type == "" {
		c.Source.Type = SourceStdin
	}
}

// Validate checks the source and sink sections. Appender settings are
// checked when the appender starts.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceStdin:
	case SourceWebSocket:
		if c.Source.WebSocket == nil || c.Source.WebSocket.URL == "" {
			return errors.New("websocket source configuration missing url")
		}
	default:
		return errors.Errorf("unknown source type: %s", c.Source.Type)
	}

	for i, s := range c.Sinks {
		switch s.Type {
		case SinkConsole:
		case SinkFile:
			if s.File == nil || s.File.Path == "" {
				return errors.Errorf("sink %d: file sink configuration missing path", i)
			}
		default:
			return errors.Errorf("sink %d: unknown sink type: %s", i, s.Type)
		}
	}
	return nil
}

// PropertyStore returns a property store holding the configured
// properties. Keys are case-insensitive.
func (c *Config) PropertyStore() *viper.Viper {
	v := viper.New()
	for k, val := range c.Properties {
		v.Set(k, val)
	}
	return v
}
