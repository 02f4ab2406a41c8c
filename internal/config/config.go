// Package config loads relay and station configuration.
//
// Values come from, in increasing precedence: built-in defaults, a YAML
// file named by --config or KITCHEN_RELAY_CONFIG, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rl1809/kitchen-relay/internal/port"
)

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "KITCHEN_RELAY_CONFIG"

const (
	RoleTaker   = "taker"
	RoleKitchen = "kitchen"
)

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
)

type Config struct {
	Relay   RelayConfig   `yaml:"relay"`
	Mirror  MirrorConfig  `yaml:"mirror"`
	Station StationConfig `yaml:"station"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

type RelayConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`

	// SubscriberBuffer bounds each subscriber's backlog before broadcasts
	// to it are dropped.
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// MirrorConfig enables the RabbitMQ copy of every broadcast when URL is set.
type MirrorConfig struct {
	URL       string `yaml:"url"`
	Exchange  string `yaml:"exchange"`
	Workers   int    `yaml:"workers"`
	QueueSize int    `yaml:"queue_size"`
}

type StationConfig struct {
	RelayAddr       string          `yaml:"relay_addr"`
	Name            string          `yaml:"name"`
	Role            string          `yaml:"role"`
	ReconnectDelays []time.Duration `yaml:"reconnect_delays"`
	Tick            time.Duration   `yaml:"tick"`

	// ProbeTarget is dialed to detect loss of the host network. Empty
	// disables the probe.
	ProbeTarget   string        `yaml:"probe_target"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend"`
	Dir         string `yaml:"dir"`
	CacheName   string `yaml:"cache_name"`
	RedisAddr   string `yaml:"redis_addr"`
	MySQLDSN    string `yaml:"mysql_dsn"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Relay: RelayConfig{
			GRPCAddr:         ":50051",
			HTTPAddr:         ":8080",
			SubscriberBuffer: 256,
		},
		Mirror: MirrorConfig{
			Exchange:  "kitchen_relay_fanout",
			Workers:   2,
			QueueSize: 1024,
		},
		Station: StationConfig{
			RelayAddr:       "localhost:50051",
			Role:            RoleTaker,
			ReconnectDelays: []time.Duration{0, 2 * time.Second, 5 * time.Second, 10 * time.Second},
			Tick:            time.Second,
			ProbeInterval:   2 * time.Second,
		},
		Store: StoreConfig{
			Backend:   BackendFile,
			Dir:       "./data",
			CacheName: port.CacheName,
			RedisAddr: "localhost:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load returns the defaults overlaid with the file at path. An empty path
// falls back to KITCHEN_RELAY_CONFIG; if that is unset too the defaults
// are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Station.RelayAddr == "" {
		errs = append(errs, errors.New("station.relay_addr is required"))
	}
	if len(c.Station.ReconnectDelays) == 0 {
		errs = append(errs, errors.New("station.reconnect_delays must not be empty"))
	}
	for i, d := range c.Station.ReconnectDelays {
		if d < 0 {
			errs = append(errs, fmt.Errorf("station.reconnect_delays[%d] is negative", i))
		}
	}
	if c.Station.Tick <= 0 {
		errs = append(errs, errors.New("station.tick must be positive"))
	}
	if c.Station.ProbeInterval <= 0 {
		errs = append(errs, errors.New("station.probe_interval must be positive"))
	}
	switch c.Station.Role {
	case RoleTaker, RoleKitchen:
	default:
		errs = append(errs, fmt.Errorf("station.role %q is not %s or %s", c.Station.Role, RoleTaker, RoleKitchen))
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir is required for the file backend"))
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis backend"))
		}
	case BackendMySQL:
		if c.Store.MySQLDSN == "" {
			errs = append(errs, errors.New("store.mysql_dsn is required for the mysql backend"))
		}
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is unknown", c.Store.Backend))
	}
	if c.Store.CacheName == "" {
		errs = append(errs, errors.New("store.cache_name is required"))
	}

	if c.Relay.SubscriberBuffer <= 0 {
		errs = append(errs, errors.New("relay.subscriber_buffer must be positive"))
	}
	if c.Mirror.URL != "" && (c.Mirror.Workers <= 0 || c.Mirror.QueueSize <= 0) {
		errs = append(errs, errors.New("mirror.workers and mirror.queue_size must be positive when mirroring"))
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or text", c.Log.Format))
	}

	return errors.Join(errs...)
}
