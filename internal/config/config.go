package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port string `yaml:"port"`
	// AllowedOrigins feeds CORS on the REST play API.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

type Postgres struct {
	URL string `yaml:"url"`
}

type Quiz struct {
	TTL string `yaml:"ttl"`
	// Source is one of static, postgres, api.
	Source string `yaml:"source"`
}

// API is the quiz backend the REST client talks to.
type API struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// Play holds the engine delays and how long sessions are kept.
type Play struct {
	AdvanceDelay  string `yaml:"advance_delay"`
	FeedbackDelay string `yaml:"feedback_delay"`
	NoticeDelay   string `yaml:"notice_delay"`
	SessionTTL    string `yaml:"session_ttl"`
	FinishedTTL   string `yaml:"finished_ttl"`
}

// Prefs selects the preference store: memory, redis or sqlite.
type Prefs struct {
	Store      string `yaml:"store"`
	SQLitePath string `yaml:"sqlite_path"`
	Prefix     string `yaml:"prefix"`
}

type Poll struct {
	InboxInterval   string `yaml:"inbox_interval"`
	QuizzesInterval string `yaml:"quizzes_interval"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Quiz     Quiz     `yaml:"quiz"`
	API      API      `yaml:"api"`
	Play     Play     `yaml:"play"`
	Prefs    Prefs    `yaml:"prefs"`
	Poll     Poll     `yaml:"poll"`
}

// Defaults is the configuration used for anything a file leaves out.
func Defaults() Config {
	return Config{
		Server: Server{Port: "8080", AllowedOrigins: []string{"*"}},
		Redis:  Redis{TTL: "10m"},
		Quiz:   Quiz{TTL: "10m", Source: "static"},
		API:    API{BaseURL: "http://localhost:8000/api", Timeout: "10s"},
		Play:   Play{AdvanceDelay: "900ms", FeedbackDelay: "2s", NoticeDelay: "2s", SessionTTL: "30m", FinishedTTL: "1m"},
		Prefs:  Prefs{Store: "memory", SQLitePath: "quizwizz.db", Prefix: "prefs:"},
		Poll:   Poll{InboxInterval: "10s", QuizzesInterval: "5s"},
	}
}

// Load reads YAML config from path and fills the gaps from Defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return cfg, fmt.Errorf("apply config defaults: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Duration is TTLDuration for settings that must stay positive.
func Duration(raw string, fallback time.Duration) time.Duration {
	if d := TTLDuration(raw, fallback); d > 0 {
		return d
	}
	return fallback
}
