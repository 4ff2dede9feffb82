package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"ordercart/internal/cart"
)

// Config holds cartctl settings.
type Config struct {
	CartID   string `yaml:"cart_id"`
	Backend  string `yaml:"backend"` // memory|file|pebble|badger|redis|kafka
	DataDir  string `yaml:"data_dir"`
	MenuPath string `yaml:"menu_path"`
	Currency string `yaml:"currency"` // display prefix, e.g. "NT$"

	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Changelog ChangelogConfig `yaml:"changelog"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Rates     RatesConfig     `yaml:"rates"`
	Log       LogConfig       `yaml:"log"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	TTL  string `yaml:"ttl"` // e.g. "24h"; empty keeps carts forever
}

type KafkaConfig struct {
	Bootstrap      string `yaml:"bootstrap"`
	SnapshotTopic  string `yaml:"snapshot_topic"`
	ChangelogTopic string `yaml:"changelog_topic"`
}

type ChangelogConfig struct {
	Sink string `yaml:"sink"` // none|file|kafka|confluent|both
	Dir  string `yaml:"dir"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// RatesConfig holds decimal fractions as strings, e.g. "0.05".
type RatesConfig struct {
	Tax     string `yaml:"tax"`
	Service string `yaml:"service"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var (
	backends = map[string]bool{"memory": true, "file": true, "pebble": true, "badger": true, "redis": true, "kafka": true}
	sinks    = map[string]bool{"none": true, "file": true, "kafka": true, "confluent": true, "both": true}
)

func Default() Config {
	return Config{
		CartID:   cart.DefaultCartID,
		Backend:  "file",
		DataDir:  "./data/carts",
		MenuPath: "./menu.yaml",
		Currency: "NT$",
		Redis:    RedisConfig{Addr: "localhost:6379", TTL: "24h"},
		Kafka: KafkaConfig{
			SnapshotTopic:  "ordercart.snapshots",
			ChangelogTopic: "ordercart.changelog",
		},
		Changelog: ChangelogConfig{Sink: "none", Dir: "./changelog"},
		Rates:     RatesConfig{Tax: "0.05", Service: "0.10"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.CartID == "" {
		return errors.New("cart_id is required")
	}
	if !backends[c.Backend] {
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if !sinks[c.Changelog.Sink] {
		return fmt.Errorf("unknown changelog sink %q", c.Changelog.Sink)
	}
	needsKafka := c.Backend == "kafka" || c.Changelog.Sink == "kafka" || c.Changelog.Sink == "confluent" || c.Changelog.Sink == "both"
	if needsKafka && c.Kafka.Bootstrap == "" {
		return errors.New("kafka.bootstrap is required for kafka backend or sink")
	}
	if _, err := c.RedisTTL(); err != nil {
		return err
	}
	if _, err := c.CartRates(); err != nil {
		return err
	}
	return nil
}

func (c Config) RedisTTL() (time.Duration, error) {
	if c.Redis.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Redis.TTL)
	if err != nil {
		return 0, fmt.Errorf("redis.ttl: %w", err)
	}
	return d, nil
}

// CartRates parses the configured rates; empty values fall back to the defaults.
func (c Config) CartRates() (cart.Rates, error) {
	r := cart.DefaultRates()
	if c.Rates.Tax != "" {
		d, err := decimal.NewFromString(c.Rates.Tax)
		if err != nil {
			return cart.Rates{}, fmt.Errorf("rates.tax: %w", err)
		}
		r.Tax = d
	}
	if c.Rates.Service != "" {
		d, err := decimal.NewFromString(c.Rates.Service)
		if err != nil {
			return cart.Rates{}, fmt.Errorf("rates.service: %w", err)
		}
		r.Service = d
	}
	if r.Tax.IsNegative() || r.Service.IsNegative() {
		return cart.Rates{}, errors.New("rates must not be negative")
	}
	return r, nil
}
