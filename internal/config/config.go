package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL string `yaml:"ttl"`
	} `yaml:"questions"`
	Game GameConfig `yaml:"game"`
}

// GameConfig is the timing surface consumed by the session engine. Zero values
// fall back to the defaults the original deployment shipped with.
type GameConfig struct {
	QuestionTimeSeconds int `yaml:"questionTimeSeconds"`
	HesitationSeconds   int `yaml:"hesitationSeconds"`
	WordsPerMinute      int `yaml:"wordsPerMinute"`
	QuestionsPerSession int `yaml:"questionsPerSession"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WithDefaults fills unset game fields with the stock settings.
func (g GameConfig) WithDefaults() GameConfig {
	if g.QuestionTimeSeconds == 0 {
		g.QuestionTimeSeconds = 10
	}
	if g.HesitationSeconds == 0 {
		g.HesitationSeconds = 5
	}
	if g.WordsPerMinute == 0 {
		g.WordsPerMinute = 150
	}
	if g.QuestionsPerSession == 0 {
		g.QuestionsPerSession = 10
	}
	return g
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
