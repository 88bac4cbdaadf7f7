package config

import (
	"strings"
	"time"
)

// WeightKeys are the per-profile weight overrides under scoring.<profile>.weights
var WeightKeys = []string{
	"spam_body", "spam_subject", "phishing_body", "phishing_subject",
	"financial", "url", "shortener", "urgency", "caps", "exclamation",
	"sender_flag", "foreign_phone",
}

// ThresholdKeys are the per-profile threshold overrides under scoring.<profile>
var ThresholdKeys = []string{
	"flag_threshold", "suspicious_threshold", "max_confidence",
	"caps_ratio", "max_exclamations",
}

// ScoringConfig holds the overrides explicitly set for one scoring profile.
// Keys that are not set are absent so profile defaults stay in force.
type ScoringConfig struct {
	Profile             string
	Weights             map[string]float64
	Thresholds          map[string]float64
	PatternPack         string
	TrustedPhonePattern string
}

// PipelineConfig represents the configuration for the message pipeline
type PipelineConfig struct {
	BatchLimit    int
	ReviewTimeout time.Duration
}

// StoreConfig represents the configuration for message storage
type StoreConfig struct {
	Type             string
	MaxEntries       int
	Retention        time.Duration
	CleanupFrequency time.Duration
	FilePath         string
	SQLitePath       string
	MySQLDSN         string
	PostgresDSN      string
	Redis            RedisConfig
}

// RedisConfig represents the configuration for the Redis store
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
}

// NotifyConfig represents the configuration for alert delivery
type NotifyConfig struct {
	Types         []string
	RatePerMinute float64
	Burst         int
	SMTP          SMTPAlertConfig
}

// SMTPAlertConfig represents the configuration for emailed alerts
type SMTPAlertConfig struct {
	Address string
	Helo    string
	From    string
	To      []string
	Timeout time.Duration
}

// MonitorConfig represents the configuration for the monitoring source
type MonitorConfig struct {
	Source            string
	Autostart         bool
	SimulatedInterval time.Duration
	SpoolDir          string
	SMTP              SMTPSourceConfig
}

// SMTPSourceConfig represents the configuration for the inbound SMTP source
type SMTPSourceConfig struct {
	ListenAddress   string
	Domain          string
	RejectFlagged   bool
	MaxMessageBytes int64
}

// KafkaConfig represents the configuration for the Kafka source
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Version string
	Oldest  bool
}

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GetScoring returns the overrides configured for a scoring profile ("sms" or "email")
func (c *Config) GetScoring(profile string) ScoringConfig {
	sc := ScoringConfig{
		Profile:             profile,
		Weights:             make(map[string]float64),
		Thresholds:          make(map[string]float64),
		PatternPack:         c.GetString("scoring.pattern_pack"),
		TrustedPhonePattern: c.GetString("scoring.trusted_phone_pattern"),
	}

	prefix := "scoring." + profile + "."
	for _, key := range WeightKeys {
		if c.IsSet(prefix + "weights." + key) {
			sc.Weights[key] = c.GetFloat64(prefix + "weights." + key)
		}
	}
	for _, key := range ThresholdKeys {
		if c.IsSet(prefix + key) {
			sc.Thresholds[key] = c.GetFloat64(prefix + key)
		}
	}

	return sc
}

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() (PipelineConfig, error) {
	timeout, err := c.GetDuration("pipeline.review_timeout")
	if err != nil {
		return PipelineConfig{}, err
	}
	return PipelineConfig{
		BatchLimit:    c.GetInt("pipeline.batch_limit"),
		ReviewTimeout: timeout,
	}, nil
}

// GetTrustedSenders returns the senders whose alerts are suppressed
func (c *Config) GetTrustedSenders() []string {
	return c.GetStringSlice("spam.trusted_senders")
}

// GetStore returns the store configuration
func (c *Config) GetStore() (StoreConfig, error) {
	retention, err := c.GetDuration("store.retention")
	if err != nil {
		return StoreConfig{}, err
	}
	cleanup, err := c.GetDuration("store.cleanup_frequency")
	if err != nil {
		return StoreConfig{}, err
	}

	return StoreConfig{
		Type:             strings.ToLower(c.GetString("store.type")),
		MaxEntries:       c.GetInt("store.max_entries"),
		Retention:        retention,
		CleanupFrequency: cleanup,
		FilePath:         c.GetString("store.file_path"),
		SQLitePath:       c.GetString("store.sqlite_path"),
		MySQLDSN:         c.GetString("store.mysql_dsn"),
		PostgresDSN:      c.GetString("store.postgres_dsn"),
		Redis: RedisConfig{
			Address:  c.GetString("store.redis.address"),
			Password: c.GetString("store.redis.password"),
			DB:       c.GetInt("store.redis.db"),
			Key:      c.GetString("store.redis.key"),
		},
	}, nil
}

// GetNotify returns the notification configuration.
// notify.type may name several sinks separated by commas.
func (c *Config) GetNotify() (NotifyConfig, error) {
	timeout, err := c.GetDuration("notify.smtp.timeout")
	if err != nil {
		return NotifyConfig{}, err
	}

	var types []string
	for _, t := range strings.Split(c.GetString("notify.type"), ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			types = append(types, t)
		}
	}

	return NotifyConfig{
		Types:         types,
		RatePerMinute: c.GetFloat64("notify.rate_per_minute"),
		Burst:         c.GetInt("notify.burst"),
		SMTP: SMTPAlertConfig{
			Address: c.GetString("notify.smtp.address"),
			Helo:    c.GetString("notify.smtp.helo"),
			From:    c.GetString("notify.smtp.from"),
			To:      c.GetStringSlice("notify.smtp.to"),
			Timeout: timeout,
		},
	}, nil
}

// GetMonitor returns the monitoring source configuration
func (c *Config) GetMonitor() (MonitorConfig, error) {
	interval, err := c.GetDuration("monitor.simulated.interval")
	if err != nil {
		return MonitorConfig{}, err
	}

	return MonitorConfig{
		Source:            strings.ToLower(c.GetString("monitor.source")),
		Autostart:         c.GetBool("monitor.autostart"),
		SimulatedInterval: interval,
		SpoolDir:          c.GetString("monitor.spool.dir"),
		SMTP: SMTPSourceConfig{
			ListenAddress:   c.GetString("monitor.smtp.listen_address"),
			Domain:          c.GetString("monitor.smtp.domain"),
			RejectFlagged:   c.GetBool("monitor.smtp.reject_flagged"),
			MaxMessageBytes: int64(c.GetInt("monitor.smtp.max_message_bytes")),
		},
	}, nil
}

// GetKafka returns the Kafka source configuration
func (c *Config) GetKafka() KafkaConfig {
	return KafkaConfig{
		Brokers: c.GetStringSlice("monitor.kafka.brokers"),
		Topic:   c.GetString("monitor.kafka.topic"),
		GroupID: c.GetString("monitor.kafka.group_id"),
		Version: c.GetString("monitor.kafka.version"),
		Oldest:  c.GetBool("monitor.kafka.oldest"),
	}
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: strings.ToLower(c.GetString("llm.provider")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}
