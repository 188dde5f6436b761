package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application
type Config struct {
	UpstreamURL            string   `mapstructure:"upstream_url"`
	ServerPort             int      `mapstructure:"server_port"`
	SchedulerMode          string   `mapstructure:"scheduler_mode"`           // "pool" or "semaphore"
	WorkerPoolSize         int      `mapstructure:"worker_pool_size"`         // 0 = auto-detect in worker.NewPool()
	JobQueueSize           int      `mapstructure:"job_queue_size"`           // Buffer capacity for scheduled transfers
	SemaphoreMaxConcurrent int      `mapstructure:"semaphore_max_concurrent"` // Max concurrent transfers in semaphore mode
	ConnectTimeoutSeconds  int      `mapstructure:"connect_timeout_seconds"`  // TCP connect bound per transfer
	RequestTimeoutSeconds  int      `mapstructure:"request_timeout_seconds"`  // Whole-exchange bound per transfer
	MaxRequestSizeMB       int      `mapstructure:"max_request_size_mb"`      // Inbound body size limit in MB
	MaxResponseSizeMB      int      `mapstructure:"max_response_size_mb"`     // Upstream response size limit in MB (0 = unlimited)
	AllowInsecureHTTP      bool     `mapstructure:"allow_insecure_http"`      // Test-mode only: permit plain http upstreams
	ShutdownDrainSeconds   int      `mapstructure:"shutdown_drain_seconds"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds"`
	AllowedOrigins         []string `mapstructure:"allowed_origins"` // CORS allowed origins
	SyncPushDebug          bool     `mapstructure:"sync_push_debug"` // If true, /v1/push waits for the upstream result
}

// Load reads configuration from config.toml file
// Returns error if configuration file is missing or required fields are not set
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("scheduler_mode", "pool")
	viper.SetDefault("worker_pool_size", 0) // 0 = auto-detect in worker.NewPool()
	viper.SetDefault("job_queue_size", 10000)
	viper.SetDefault("semaphore_max_concurrent", 10000)
	viper.SetDefault("connect_timeout_seconds", 10)
	viper.SetDefault("request_timeout_seconds", 120)
	viper.SetDefault("max_request_size_mb", 1)
	viper.SetDefault("max_response_size_mb", 0) // 0 = unlimited
	viper.SetDefault("allow_insecure_http", false)
	viper.SetDefault("shutdown_drain_seconds", 2)
	viper.SetDefault("shutdown_timeout_seconds", 10)
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("sync_push_debug", false)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Printf("INFO:  Configuration loaded successfully from %s", viper.ConfigFileUsed())
	log.Printf("INFO:    upstream_url: %s", config.UpstreamURL)
	log.Printf("INFO:    server_port: %d", config.ServerPort)
	log.Printf("INFO:    scheduler_mode: %s", config.SchedulerMode)
	log.Printf("INFO:    worker_pool_size: %d (0 = auto-detect)", config.WorkerPoolSize)
	log.Printf("INFO:    job_queue_size: %d", config.JobQueueSize)
	if config.SchedulerMode == "semaphore" {
		log.Printf("INFO:    semaphore_max_concurrent: %d", config.SemaphoreMaxConcurrent)
	}
	log.Printf("INFO:    connect_timeout_seconds: %d", config.ConnectTimeoutSeconds)
	log.Printf("INFO:    request_timeout_seconds: %d", config.RequestTimeoutSeconds)
	log.Printf("INFO:    max_request_size_mb: %d", config.MaxRequestSizeMB)
	log.Printf("INFO:    max_response_size_mb: %d (0 = unlimited)", config.MaxResponseSizeMB)
	log.Printf("INFO:    allow_insecure_http: %v", config.AllowInsecureHTTP)
	log.Printf("INFO:    shutdown_drain_seconds: %d", config.ShutdownDrainSeconds)
	log.Printf("INFO:    shutdown_timeout_seconds: %d", config.ShutdownTimeoutSeconds)
	log.Printf("INFO:    allowed_origins: %v", config.AllowedOrigins)
	log.Printf("INFO:    sync_push_debug: %v", config.SyncPushDebug)

	return &config, nil
}

// Validate checks required fields and normalizes defaults. Split out of
// Load so tests can exercise it without a config file on disk.
func (c *Config) Validate() error {
	if c.UpstreamURL == "" {
		return fmt.Errorf("upstream_url is required in config file")
	}

	switch c.SchedulerMode {
	case "pool", "semaphore":
		// ok
	case "":
		c.SchedulerMode = "pool"
	default:
		log.Printf("WARN:  unknown scheduler_mode=%q, defaulting to 'pool'", c.SchedulerMode)
		c.SchedulerMode = "pool"
	}

	if c.SemaphoreMaxConcurrent <= 0 {
		log.Printf("WARN:  semaphore_max_concurrent <= 0 (%d), defaulting to 10000", c.SemaphoreMaxConcurrent)
		c.SemaphoreMaxConcurrent = 10000
	}

	if c.ConnectTimeoutSeconds <= 0 {
		return fmt.Errorf("connect_timeout_seconds must be positive, got %d", c.ConnectTimeoutSeconds)
	}
	if c.RequestTimeoutSeconds <= c.ConnectTimeoutSeconds {
		return fmt.Errorf("request_timeout_seconds (%d) must exceed connect_timeout_seconds (%d)",
			c.RequestTimeoutSeconds, c.ConnectTimeoutSeconds)
	}

	if c.AllowInsecureHTTP {
		log.Printf("WARN:  allow_insecure_http is enabled - plain http upstreams are permitted; never use this in production")
	}

	return nil
}
