package appender

// DefaultMaxMessageSizeInKB is the SQS message size limit.
const DefaultMaxMessageSizeInKB = 256

// Config holds the settings of one appender. It may be changed with
// Configure until the appender starts.
type Config struct {
	QueueURL           string `yaml:"queue_url"`
	AccessKey          string `yaml:"access_key"`
	SecretKey          string `yaml:"secret_key"`
	ThreadPool         int    `yaml:"thread_pool"`
	MaxMessageSizeInKB int    `yaml:"max_message_size_kb"`

	Region           string   `yaml:"region"`
	Profile          string   `yaml:"profile"`
	CredentialsFiles []string `yaml:"credentials_files"`
	ConfigFiles      []string `yaml:"config_files"`
	MetadataEndpoint string   `yaml:"metadata_endpoint"`
	MaxAttempts      int      `yaml:"max_attempts"`
}

// MaxPayloadBytes is the largest encoded event that will be sent.
func (c Config) MaxPayloadBytes() int {
	return c.maxMessageSizeInKB() * 1024
}

func (c Config) maxMessageSizeInKB() int {
	if c.MaxMessageSizeInKB <= 0 {
		return DefaultMaxMessageSizeInKB
	}
	return c.MaxMessageSizeInKB
}
