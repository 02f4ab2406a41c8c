package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags defines the flags that may override file values. Flag
// defaults are only shown in help; unset flags never override.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String("config", "", "path to YAML config file (env "+EnvConfigPath+")")
	fs.String("grpc-addr", d.Relay.GRPCAddr, "relay gRPC listen address")
	fs.String("http-addr", d.Relay.HTTPAddr, "relay HTTP listen address")
	fs.String("mirror-url", "", "AMQP URL to mirror broadcasts to")
	fs.String("relay-addr", d.Station.RelayAddr, "relay endpoint the station connects to")
	fs.String("name", "", "station name shown in relay logs")
	fs.String("role", d.Station.Role, "station role: taker or kitchen")
	fs.String("probe-target", "", "host:port dialed to detect network loss")
	fs.String("store", d.Store.Backend, "ledger cache backend: file, redis, mysql or postgres")
	fs.String("store-dir", d.Store.Dir, "directory for the file backend")
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	fs.String("log-format", d.Log.Format, "log format: json or text")
}

// LoadWithFlags loads the file named by --config (or the environment) and
// applies every flag that was set explicitly.
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	path, _ := fs.GetString("config")
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyFlags(fs)
	return cfg, nil
}

func (c *Config) ApplyFlags(fs *pflag.FlagSet) {
	set := func(name string, dst *string) {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			return
		}
		if v, err := fs.GetString(name); err == nil {
			*dst = v
		}
	}

	set("grpc-addr", &c.Relay.GRPCAddr)
	set("http-addr", &c.Relay.HTTPAddr)
	set("mirror-url", &c.Mirror.URL)
	set("relay-addr", &c.Station.RelayAddr)
	set("name", &c.Station.Name)
	set("role", &c.Station.Role)
	set("probe-target", &c.Station.ProbeTarget)
	set("store", &c.Store.Backend)
	set("store-dir", &c.Store.Dir)
	set("log-level", &c.Log.Level)
	set("log-format", &c.Log.Format)
}
