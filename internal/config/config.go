package config

import "time"

// Config is the root configuration for a gateway instance.
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	Endpoints   []EndpointConfig  `yaml:"endpoints"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Recorder    RecorderConfig    `yaml:"recorder"`
	NATS        NATSConfig        `yaml:"nats"`
}

// CredentialsConfig holds the upstream API credentials. Values normally
// arrive via ${VAR} expansion rather than being written into the file.
type CredentialsConfig struct {
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`
}

// EndpointConfig overrides one built-in endpoint catalog entry.
type EndpointConfig struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Symbols  []string `yaml:"symbols"`
	Disabled bool     `yaml:"disabled"`
}

// GatewayConfig holds connection and fan-out settings.
type GatewayConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	GreetingWait   time.Duration `yaml:"greeting_wait"`
	AuthWait       time.Duration `yaml:"auth_wait"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	BufferSize     int           `yaml:"buffer_size"`

	SendTimeout time.Duration `yaml:"send_timeout"` // per-subscriber delivery bound

	Restart RestartConfig `yaml:"restart"`
}

// RestartConfig controls the opt-in endpoint restart policy.
type RestartConfig struct {
	Enabled   bool          `yaml:"enabled"`
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

// RecorderConfig holds the optional Postgres event recorder settings.
type RecorderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// NATSConfig holds the optional NATS publisher settings.
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}
