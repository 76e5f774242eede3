package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr            string        `yaml:"addr"`
	JWTSecret       string        `yaml:"jwt_secret"`
	APITimeout      time.Duration `yaml:"timeout"`
	DatabasePath    string        `yaml:"database_path"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	// MaxSessions caps concurrent sessions per account; 0 means unbounded.
	MaxSessions int64 `yaml:"max_sessions"`
	// SessionSweepInterval is how often expired session rows are purged.
	SessionSweepInterval time.Duration   `yaml:"session_sweep_interval"`
	RateLimit            RateLimitConfig `yaml:"rate_limit"`
	Query                QueryConfig     `yaml:"query"`
	Retrieval            RetrievalConfig `yaml:"retrieval"`
	Ollama               OllamaConfig    `yaml:"ollama"`
}

// RateLimitConfig bounds signup/signin/refresh attempts per network address.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// QueryConfig bounds the answer pipeline. ProfileTimeout is the short
// sub-deadline for the personalization path; AnswerTimeout covers the whole
// retrieval+generation flow.
type QueryConfig struct {
	Model          string        `yaml:"model"`
	AnswerTimeout  time.Duration `yaml:"answer_timeout"`
	ProfileTimeout time.Duration `yaml:"profile_timeout"`
	RecordQueries  bool          `yaml:"record_queries"`
}

type RetrievalConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	TopK                    int           `yaml:"top_k"`
	ScoreThreshold          float64       `yaml:"score_threshold"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

type OllamaConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:                 getEnv("TEXTBOOK_ADDR", ":8080"),
		JWTSecret:            getEnv("TEXTBOOK_JWT_SECRET", "supersecretkey"),
		APITimeout:           15 * time.Second,
		DatabasePath:         getEnv("TEXTBOOK_DATABASE_PATH", "textbook.db"),
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      7 * 24 * time.Hour,
		SessionSweepInterval: time.Hour,
		RateLimit:            RateLimitConfig{RPS: 1, Burst: 5},
		Query: QueryConfig{
			Model:          "llama3.2",
			AnswerTimeout:  8 * time.Second,
			ProfileTimeout: 500 * time.Millisecond,
			RecordQueries:  true,
		},
		Retrieval: RetrievalConfig{
			BaseURL:                 getEnv("TEXTBOOK_RETRIEVAL_URL", "http://localhost:6333"),
			TopK:                    5,
			ScoreThreshold:          0.5,
			Timeout:                 5 * time.Second,
			Retries:                 1,
			Backoff:                 200 * time.Millisecond,
			CircuitFailureThreshold: 5,
			CircuitReset:            30 * time.Second,
		},
		Ollama: OllamaConfig{
			BaseURL:                 getEnv("TEXTBOOK_OLLAMA_URL", "http://localhost:11434"),
			Timeout:                 8 * time.Second,
			Retries:                 1,
			Backoff:                 200 * time.Millisecond,
			CircuitFailureThreshold: 5,
			CircuitReset:            30 * time.Second,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects configurations that are unsafe or incomplete. The default
// JWT secret is only tolerated when TEXTBOOK_ENV is "development".
func (c *Config) Validate() error {
	if c.JWTSecret == "supersecretkey" && os.Getenv("TEXTBOOK_ENV") != "development" {
		return fmt.Errorf("jwt_secret is the insecure default; set TEXTBOOK_JWT_SECRET or jwt_secret")
	}
	if c.Query.Model == "" {
		return fmt.Errorf("query.model must be set")
	}
	if c.Retrieval.BaseURL == "" {
		return fmt.Errorf("retrieval.base_url must be set")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
