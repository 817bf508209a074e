package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bluefinSpotPackage is the Bluefin spot base package, shared by mainnet and
// testnet.
const bluefinSpotPackage = "0x3492c874c1e3b3e2984e8c41b589e642d4d0a5d6459e5a9cfc2d52fd7c89c267"

// Network holds the endpoints of one Sui network.
type Network struct {
	RPC            string
	SpotRPC        string
	BasePackage    string
	NativeCurrency string
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	LogLevel        string
	Listen          string
	DefaultNetwork  string
	PreloadNetworks []string
	TokenDir        string
	JournalOut      string
	PGDSN           string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTTL        time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	Networks        map[string]Network
}

// Load merges config file, environment variables, and flags into Config.
// Network settings live under networks.<name>; for example
// GATEWAY_NETWORKS_MAINNET_SPOT_RPC overrides networks.mainnet.spot-rpc.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("listen", ":15888")
	v.SetDefault("default-network", "mainnet")
	v.SetDefault("token-dir", "./conf/tokens")
	v.SetDefault("journal-out", "")
	v.SetDefault("redis-db", 0)
	v.SetDefault("redis-ttl", 24*time.Hour)
	v.SetDefault("read-timeout", 30*time.Second)
	v.SetDefault("write-timeout", 120*time.Second)

	v.SetDefault("networks.mainnet.rpc", "https://fullnode.mainnet.sui.io:443")
	v.SetDefault("networks.mainnet.spot-rpc", "")
	v.SetDefault("networks.mainnet.base-package", bluefinSpotPackage)
	v.SetDefault("networks.mainnet.native-currency", "SUI")
	v.SetDefault("networks.testnet.rpc", "https://fullnode.testnet.sui.io:443")
	v.SetDefault("networks.testnet.spot-rpc", "")
	v.SetDefault("networks.testnet.base-package", bluefinSpotPackage)
	v.SetDefault("networks.testnet.native-currency", "SUI")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		LogLevel:        v.GetString("log-level"),
		Listen:          v.GetString("listen"),
		DefaultNetwork:  v.GetString("default-network"),
		PreloadNetworks: getStringSlice(v, "preload-networks"),
		TokenDir:        v.GetString("token-dir"),
		JournalOut:      v.GetString("journal-out"),
		PGDSN:           v.GetString("pg-dsn"),
		RedisAddr:       v.GetString("redis-addr"),
		RedisPassword:   v.GetString("redis-password"),
		RedisDB:         v.GetInt("redis-db"),
		RedisTTL:        v.GetDuration("redis-ttl"),
		ReadTimeout:     v.GetDuration("read-timeout"),
		WriteTimeout:    v.GetDuration("write-timeout"),
		Networks:        make(map[string]Network),
	}

	for _, name := range networkNames(v) {
		prefix := "networks." + name + "."
		cfg.Networks[name] = Network{
			RPC:            v.GetString(prefix + "rpc"),
			SpotRPC:        v.GetString(prefix + "spot-rpc"),
			BasePackage:    v.GetString(prefix + "base-package"),
			NativeCurrency: v.GetString(prefix + "native-currency"),
		}
	}

	if _, ok := cfg.Networks[cfg.DefaultNetwork]; !ok {
		return Config{}, fmt.Errorf("default network %q is not configured", cfg.DefaultNetwork)
	}
	for _, name := range cfg.PreloadNetworks {
		if _, ok := cfg.Networks[name]; !ok {
			return Config{}, fmt.Errorf("preload network %q is not configured", name)
		}
	}

	return cfg, nil
}

// NetworkNames returns the configured network names in sorted order.
func (c Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// networkNames collects names from every source, so a config file that
// adds one network does not hide the built-in ones.
func networkNames(v *viper.Viper) []string {
	seen := make(map[string]struct{})
	for _, key := range v.AllKeys() {
		rest, ok := strings.CutPrefix(key, "networks.")
		if !ok {
			continue
		}
		name, _, ok := strings.Cut(rest, ".")
		if !ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
