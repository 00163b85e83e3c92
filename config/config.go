package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

var GConfig *Config

func Init(config []byte) {
	c, err := Parse(config)
	if err != nil {
		panic(err)
	}
	GConfig = c
}

func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the values used for every key the yaml file leaves out.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		LogFile:         "logs/doc-hub.log",
		LogMaxSize:      100,
		LogMaxBackups:   10,
		LogMaxAge:       30,
		StorageSupplier: "local",
		URLExpires:      "168h",
		LocalStorage:    LocalStorage{Directory: "data/files", BaseURL: "/files/"},
		Queue:           Queue{Size: 100, Workers: 4},
		RateLimit:       RateLimit{Requests: 30, Window: "1m"},
		ClientRateLimit: ClientRateLimit{RPS: 5, Burst: 10},
		PDF:             PDF{DPI: 150, MaxPages: 20, MaxBytes: 20 << 20},
		Preprocess:      Preprocess{AutoOrient: true, MaxDimension: 2048},
		History:         History{MaxTurns: 6, TTL: "30m"},
		OCR:             OCR{Languages: []string{"eng"}},
	}
}

type Config struct {
	LogLevel        string `yaml:"log_level"`
	LogFile         string `yaml:"log_file"`
	LogMaxSize      int    `yaml:"log_max_size"`
	LogMaxBackups   int    `yaml:"log_max_backups"`
	LogMaxAge       int    `yaml:"log_max_age"`
	StorageSupplier string `yaml:"storage_supplier"`
	URLExpires      string `yaml:"url_expires"`
	DefaultModel    string `yaml:"default_model"`
	AliOss          `yaml:"ali_oss"`
	LocalStorage    `yaml:"local_storage"`
	MySQL           `yaml:"mysql"`
	Geek            `yaml:"geek"`
	Tuzi            `yaml:"tuzi"`
	V3              `yaml:"v3"`
	Google          `yaml:"google"`
	RequestOrder    map[string][]Request `yaml:"request_order"`
	Queue           `yaml:"queue"`
	RateLimit       `yaml:"rate_limit"`
	ClientRateLimit `yaml:"client_rate_limit"`
	PDF             `yaml:"pdf"`
	Preprocess      `yaml:"preprocess"`
	History         `yaml:"history"`
	OCR             `yaml:"ocr"`
}

func (c *Config) Verify() error {
	if c.StorageSupplier != "ali_oss" && c.StorageSupplier != "local" {
		return fmt.Errorf("storage_supplier must be ali_oss or local")
	}
	if _, err := time.ParseDuration(c.URLExpires); err != nil {
		return fmt.Errorf("url_expires: %w", err)
	}
	if c.Queue.Size <= 0 || c.Queue.Workers <= 0 {
		return fmt.Errorf("queue size and workers must be positive")
	}
	if c.RateLimit.Window != "" {
		if _, err := time.ParseDuration(c.RateLimit.Window); err != nil {
			return fmt.Errorf("rate_limit.window: %w", err)
		}
		if c.RateLimit.Requests <= 0 {
			return fmt.Errorf("rate_limit.requests must be positive")
		}
	}
	if c.ClientRateLimit.RPS > 0 && c.ClientRateLimit.Burst <= 0 {
		return fmt.Errorf("client_rate_limit.burst must be positive when rps is set")
	}
	if c.PDF.DPI < 36 || c.PDF.DPI > 600 {
		return fmt.Errorf("pdf.dpi must be in [36, 600], got %d", c.PDF.DPI)
	}
	if c.PDF.MaxPages <= 0 {
		return fmt.Errorf("pdf.max_pages must be positive")
	}
	if c.History.MaxTurns < 0 {
		return fmt.Errorf("history.max_turns must not be negative")
	}
	if _, err := time.ParseDuration(c.History.TTL); err != nil {
		return fmt.Errorf("history.ttl: %w", err)
	}
	if c.DefaultModel != "" {
		if _, ok := c.RequestOrder[c.DefaultModel]; !ok {
			return fmt.Errorf("default_model %s has no request_order entry", c.DefaultModel)
		}
	}
	for model, requests := range c.RequestOrder {
		for _, r := range requests {
			if _, err := c.TokenByName(r.Supplier, r.TokenName); err != nil {
				return fmt.Errorf("request_order %s: %w", model, err)
			}
			if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
				return fmt.Errorf("request_order %s: temperature must be in [0, 2]", model)
			}
		}
	}
	return nil
}

// TokenByName resolves a request_order entry to the configured secret.
func (c *Config) TokenByName(supplier, name string) (string, error) {
	var token string
	switch supplier {
	case "geek":
		switch name {
		case "low_price_token":
			token = c.Geek.LowPriceToken
		case "balance_token":
			token = c.Geek.BalanceToken
		case "high_available_token":
			token = c.Geek.HighAvailableToken
		}
	case "tuzi":
		switch name {
		case "default_channel_token":
			token = c.Tuzi.DefaultChannelToken
		case "openai_channel_token":
			token = c.Tuzi.OpenaiChannelToken
		}
	case "v3":
		if name == "token" {
			token = c.V3.Token
		}
	case "google":
		if name == "api_key" {
			token = c.Google.APIKey
		}
	default:
		return "", fmt.Errorf("unknown supplier %s", supplier)
	}
	if token == "" {
		return "", fmt.Errorf("token %s of supplier %s is not configured", name, supplier)
	}
	return token, nil
}

func (c *Config) URLExpiresDuration() time.Duration {
	d, _ := time.ParseDuration(c.URLExpires)
	return d
}

type AliOss struct {
	AccessKeyId     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Directory       string `yaml:"directory"`
}

type LocalStorage struct {
	Directory string `yaml:"directory"`
	BaseURL   string `yaml:"base_url"`
}

type MySQL struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type Geek struct {
	LowPriceToken      string `yaml:"low_price_token"`
	BalanceToken       string `yaml:"balance_token"`
	HighAvailableToken string `yaml:"high_available_token"`
}

type V3 struct {
	Token string `yaml:"token"`
}

type Tuzi struct {
	DefaultChannelToken string `yaml:"default_channel_token"`
	OpenaiChannelToken  string `yaml:"openai_channel_token"`
}

type Google struct {
	APIKey string `yaml:"api_key"`
}

type Request struct {
	Supplier    string   `yaml:"supplier"`
	TokenName   string   `yaml:"token_name"`
	Model       string   `yaml:"model"`
	Stream      bool     `yaml:"stream"`      // openai-compatible suppliers only
	Temperature *float32 `yaml:"temperature"` // supplier default when unset
}

type Queue struct {
	Size    int `yaml:"size"`
	Workers int `yaml:"workers"`
}

// RateLimit bounds calls to the model suppliers across all sessions.
type RateLimit struct {
	Requests int    `yaml:"requests"`
	Window   string `yaml:"window"`
}

func (r RateLimit) WindowDuration() time.Duration {
	d, _ := time.ParseDuration(r.Window)
	return d
}

type ClientRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type PDF struct {
	DPI      int   `yaml:"dpi"`
	MaxPages int   `yaml:"max_pages"`
	MaxBytes int64 `yaml:"max_bytes"`
}

type Preprocess struct {
	AutoOrient   bool    `yaml:"auto_orient"`
	Grayscale    bool    `yaml:"grayscale"`
	Contrast     float64 `yaml:"contrast"`
	Brightness   float64 `yaml:"brightness"`
	Gamma        float64 `yaml:"gamma"`
	Sharpen      float64 `yaml:"sharpen"`
	Denoise      float64 `yaml:"denoise"`
	Threshold    int     `yaml:"threshold"`
	Invert       bool    `yaml:"invert"`
	MaxDimension int     `yaml:"max_dimension"`
}

type History struct {
	MaxTurns int    `yaml:"max_turns"`
	TTL      string `yaml:"ttl"`
}

func (h History) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(h.TTL)
	return d
}

type OCR struct {
	Enabled   bool     `yaml:"enabled"`
	Languages []string `yaml:"languages"`
}
