package config

import (
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"contactbook"`
	ServiceVer  string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// 后端 REST 服务配置
	BackendBaseURL     string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8030"`
	BackendTimeout     time.Duration `env:"BACKEND_TIMEOUT" envDefault:"5s"`
	BackendMaxConns    int           `env:"BACKEND_MAX_CONNS" envDefault:"64"`
	BreakerMaxFailures int           `env:"BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerReset       time.Duration `env:"BREAKER_RESET" envDefault:"30s"`

	// 会话 / CSRF
	SessionName   string `env:"SESSION_NAME" envDefault:"contactbook"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"contactbook-dev-session-secret"`
	CSRFSecret    string `env:"CSRF_SECRET" envDefault:"contactbook-dev-csrf-secret"`
	CSRFEnabled   bool   `env:"CSRF_ENABLED" envDefault:"true"`

	// Redis 配置，地址为空时使用进程内实现
	RedisAddr     string `env:"REDIS_ADDR" envDefault:""`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"cbook"`

	// 提交锁，同一会话同一时刻只允许一次提交
	SubmitLockTTL time.Duration `env:"SUBMIT_LOCK_TTL" envDefault:"15s"`

	// 速率限制配置，仅在启用 Redis 时生效
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitWindow  int  `env:"RATE_LIMIT_WINDOW" envDefault:"60"` // 秒
	RateLimitMax     int  `env:"RATE_LIMIT_MAX" envDefault:"30"`    // 窗口内允许的提交数

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	var err error
	Cfg, err = Load()
	if err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	for _, problem := range Cfg.Validate() {
		if Cfg.IsProduction() {
			log.Fatal(problem)
		}
		log.Printf("WARN: %s", problem)
	}
}

// Load 从环境变量解析配置，不读取 .env
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	cfg.BackendBaseURL = strings.TrimRight(cfg.BackendBaseURL, "/")
	return cfg, nil
}

// Validate 返回配置问题列表，生产环境下任一问题都是致命的
func (c *Config) Validate() []string {
	var problems []string

	if c.BackendBaseURL == "" {
		problems = append(problems, "BACKEND_BASE_URL is required")
	}

	if strings.HasPrefix(c.SessionSecret, "contactbook-dev-") {
		problems = append(problems, "SESSION_SECRET uses the development default")
	}

	if c.CSRFEnabled && strings.HasPrefix(c.CSRFSecret, "contactbook-dev-") {
		problems = append(problems, "CSRF_SECRET uses the development default")
	}

	if !c.CSRFEnabled {
		problems = append(problems, "CSRF protection is disabled")
	}

	if c.SubmitLockTTL < c.BackendTimeout {
		problems = append(problems, "SUBMIT_LOCK_TTL should not be shorter than BACKEND_TIMEOUT")
	}

	return problems
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
