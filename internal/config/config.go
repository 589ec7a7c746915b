// SPDX-License-Identifier: EPL-2.0

// Package config assembles the daemon settings from command line flags.
// Every flag takes its default from an environment variable, and those can
// come from a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Addr     string
	LogLevel string
	LogJSON  bool
	DataDir  string

	// DetectorURL is the base URL of the camera emotion analysis service.
	// Empty disables polling and the video proxy.
	DetectorURL  string
	PollInterval time.Duration

	WhisperURL string
	// WhisperLanguage is sent with every transcription; empty lets the
	// server detect it.
	WhisperLanguage string

	OllamaURL   string
	OllamaModel string
	// ChatRate is the number of language model calls allowed per second.
	ChatRate    float64
	ChatBurst   int
	HTTPTimeout time.Duration

	RecordDevice     string
	RecordSampleRate int
	RecordChannels   int
	// Microphone disables server-side recording when false.
	Microphone bool

	Advertise   bool
	ServiceName string
}

func Default() Config {
	return Config{
		Addr:             ":8080",
		LogLevel:         "info",
		DataDir:          os.TempDir(),
		PollInterval:     3 * time.Second,
		WhisperURL:       "http://localhost:8081",
		OllamaURL:        "http://localhost:11434",
		OllamaModel:      "llama3.2",
		ChatRate:         1,
		ChatBurst:        3,
		HTTPTimeout:      60 * time.Second,
		RecordSampleRate: 44100,
		RecordChannels:   1,
		Microphone:       true,
		ServiceName:      "emotalk",
	}
}

type lookupFunc func(string) (string, bool)

func envString(lookup lookupFunc, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}

	return def
}

// envErrs collects malformed environment values so they are all reported
// at once.
type envErrs []error

func (e *envErrs) int(lookup lookupFunc, key string, def int) int {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*e = append(*e, fmt.Errorf("%s: %w", key, err))
		return def
	}

	return n
}

func (e *envErrs) float(lookup lookupFunc, key string, def float64) float64 {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*e = append(*e, fmt.Errorf("%s: %w", key, err))
		return def
	}

	return f
}

func (e *envErrs) bool(lookup lookupFunc, key string, def bool) bool {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*e = append(*e, fmt.Errorf("%s: %w", key, err))
		return def
	}

	return b
}

func (e *envErrs) duration(lookup lookupFunc, key string, def time.Duration) time.Duration {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*e = append(*e, fmt.Errorf("%s: %w", key, err))
		return def
	}

	return d
}

// Load parses args (without the program name) on top of the environment.
// If EMOTALK_ENV_FILE (default ".env") exists it is loaded first.
func Load(args []string) (Config, error) {
	envFile := envString(os.LookupEnv, "EMOTALK_ENV_FILE", ".env")
	if err := LoadEnvFile(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	return parse(args, os.LookupEnv)
}

func parse(args []string, lookup lookupFunc) (Config, error) {
	def := Default()
	var bad envErrs

	cfg := Config{}
	fs := flag.NewFlagSet("emotalkd", flag.ContinueOnError)

	fs.StringVar(&cfg.Addr, "addr", envString(lookup, "EMOTALK_ADDR", def.Addr), "HTTP listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", envString(lookup, "LOG_LEVEL", def.LogLevel), "trace, debug, info, warn or error")
	fs.BoolVar(&cfg.LogJSON, "log-json", bad.bool(lookup, "LOG_JSON", def.LogJSON), "log JSON lines instead of console output")
	fs.StringVar(&cfg.DataDir, "data-dir", envString(lookup, "EMOTALK_DATA_DIR", def.DataDir), "directory for session and recording files")

	fs.StringVar(&cfg.DetectorURL, "detector-url", envString(lookup, "DETECTOR_URL", def.DetectorURL), "emotion analysis service base URL")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", bad.duration(lookup, "POLL_INTERVAL", def.PollInterval), "time between emotion analyses")

	fs.StringVar(&cfg.WhisperURL, "whisper-url", envString(lookup, "WHISPER_URL", def.WhisperURL), "whisper server base URL")
	fs.StringVar(&cfg.WhisperLanguage, "whisper-language", envString(lookup, "WHISPER_LANGUAGE", def.WhisperLanguage), "spoken language code, e.g. es; empty to auto-detect")
	fs.StringVar(&cfg.OllamaURL, "ollama-url", envString(lookup, "OLLAMA_URL", def.OllamaURL), "ollama base URL")
	fs.StringVar(&cfg.OllamaModel, "ollama-model", envString(lookup, "OLLAMA_MODEL", def.OllamaModel), "ollama model name")
	fs.Float64Var(&cfg.ChatRate, "chat-rate", bad.float(lookup, "CHAT_RATE", def.ChatRate), "language model requests per second")
	fs.IntVar(&cfg.ChatBurst, "chat-burst", bad.int(lookup, "CHAT_BURST", def.ChatBurst), "language model request burst")
	fs.DurationVar(&cfg.HTTPTimeout, "http-timeout", bad.duration(lookup, "HTTP_TIMEOUT", def.HTTPTimeout), "timeout for outbound requests")

	fs.BoolVar(&cfg.Microphone, "mic", bad.bool(lookup, "RECORD_ENABLE", def.Microphone), "enable server-side recording")
	fs.StringVar(&cfg.RecordDevice, "record-device", envString(lookup, "RECORD_DEVICE", def.RecordDevice), "capture device name, empty for the default")
	fs.IntVar(&cfg.RecordSampleRate, "record-rate", bad.int(lookup, "RECORD_SAMPLE_RATE", def.RecordSampleRate), "recording sample rate")
	fs.IntVar(&cfg.RecordChannels, "record-channels", bad.int(lookup, "RECORD_CHANNELS", def.RecordChannels), "recording channel count")

	fs.BoolVar(&cfg.Advertise, "mdns", bad.bool(lookup, "MDNS_ENABLE", def.Advertise), "advertise the service over mDNS")
	fs.StringVar(&cfg.ServiceName, "service-name", envString(lookup, "MDNS_NAME", def.ServiceName), "mDNS instance name")

	if len(bad) > 0 {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(bad...))
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval %s must be positive", c.PollInterval))
	}
	if c.ChatRate <= 0 || c.ChatBurst < 1 {
		errs = append(errs, fmt.Errorf("chat rate %g/s burst %d must be positive", c.ChatRate, c.ChatBurst))
	}
	if c.RecordSampleRate < 1 || c.RecordChannels < 1 {
		errs = append(errs, fmt.Errorf("recording format %d Hz %d ch is invalid", c.RecordSampleRate, c.RecordChannels))
	}

	for name, raw := range map[string]string{"detector": c.DetectorURL, "whisper": c.WhisperURL, "ollama": c.OllamaURL} {
		if raw == "" && name == "detector" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s url %q is not absolute", name, raw))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}

	return nil
}
