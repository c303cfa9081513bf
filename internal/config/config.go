// Package config loads the immutable process configuration: a YAML file with
// defaults for every field, plus a small set of AIRHOCKEY_* environment
// overrides for the values that differ between deployed instances. The loaded
// Config is passed by value to the components at construction; nothing in the
// process mutates it afterwards.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML fields accept "3s" style strings.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the whole configuration surface of both binaries.
type Config struct {
	LogLevel string   `yaml:"log_level"`
	Server   Server   `yaml:"server"`
	Game     Game     `yaml:"game"`
	Balancer Balancer `yaml:"balancer"`
}

// Server configures one game-server instance.
type Server struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	PhysicsRate   int    `yaml:"physics_rate"`
	BroadcastRate int    `yaml:"broadcast_rate"`

	// ReportURL is the base URL of the account service; empty disables
	// post-game result reporting.
	ReportURL string `yaml:"report_url"`
}

// Game configures table geometry and rules.
type Game struct {
	Width             float64  `yaml:"width"`
	Height            float64  `yaml:"height"`
	PaddleRadius      float64  `yaml:"paddle_radius"`
	PuckRadius        float64  `yaml:"puck_radius"`
	GoalWidth         float64  `yaml:"goal_width"`
	GoalHeight        float64  `yaml:"goal_height"`
	WinningScore      int      `yaml:"winning_score"`
	CountdownDuration Duration `yaml:"countdown_duration"`
}

// Balancer configures the load balancer and its candidate backend pool.
type Balancer struct {
	Host                string   `yaml:"host"`
	Port                int      `yaml:"port"`
	BackendHost         string   `yaml:"backend_host"`
	BackendPorts        []int    `yaml:"backend_ports"`
	MaxConnsPerBackend  int      `yaml:"max_conns_per_backend"`
	HealthCheckInterval Duration `yaml:"health_check_interval"`
	DialTimeout         Duration `yaml:"dial_timeout"`
}

// Default returns the standard deployment values.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: Server{
			Host:          "0.0.0.0",
			Port:          9999,
			PhysicsRate:   120,
			BroadcastRate: 60,
		},
		Game: Game{
			Width:             1200,
			Height:            800,
			PaddleRadius:      35,
			PuckRadius:        20,
			GoalWidth:         20,
			GoalHeight:        200,
			WinningScore:      5,
			CountdownDuration: Duration(3 * time.Second),
		},
		Balancer: Balancer{
			Host:                "0.0.0.0",
			Port:                8888,
			BackendHost:         "127.0.0.1",
			BackendPorts:        []int{9999, 10000, 10001, 10002, 10003, 10004, 10005},
			MaxConnsPerBackend:  2,
			HealthCheckInterval: Duration(10 * time.Second),
			DialTimeout:         Duration(2 * time.Second),
		},
	}
}

// Load reads the optional YAML file at path over the defaults and applies
// environment overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogLevel = getEnv("AIRHOCKEY_LOG_LEVEL", cfg.LogLevel)
	cfg.Server.Host = getEnv("AIRHOCKEY_SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("AIRHOCKEY_SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReportURL = getEnv("AIRHOCKEY_REPORT_URL", cfg.Server.ReportURL)
	cfg.Balancer.Host = getEnv("AIRHOCKEY_BALANCER_HOST", cfg.Balancer.Host)
	cfg.Balancer.Port = getEnvInt("AIRHOCKEY_BALANCER_PORT", cfg.Balancer.Port)
}

// ServerAddr is the game server's listen address.
func (c Config) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// BalancerAddr is the load balancer's listen address.
func (c Config) BalancerAddr() string {
	return net.JoinHostPort(c.Balancer.Host, strconv.Itoa(c.Balancer.Port))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
