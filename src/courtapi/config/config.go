package config

import (
	"log"
	"os"

	"github.com/overruled-app/overruled/src/courtapi/data"
	"gorm.io/gorm"
)

type Config struct {
	Port      string
	MySQLDSN  string
	RedisURL  string
	JWTSecret string

	JudgeProvider string
	OpenAIKey     string
	AnthropicKey  string
	JudgeModel    string
	JudgePersona  string

	AllowedOrigins []string
}

// Load reads configuration with environment variables first and the
// settings table as fallback for the tunable judge knobs.
func Load(db *gorm.DB) Config {
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	provider := os.Getenv("JUDGE_PROVIDER")
	if provider == "" {
		provider = data.GetSetting("judge_provider")
	}
	if provider == "" {
		provider = "openai"
	}

	model := os.Getenv("JUDGE_MODEL")
	if model == "" {
		model = data.GetSetting("judge_model")
	}

	persona := os.Getenv("JUDGE_PERSONA")
	if persona == "" {
		persona = data.GetSetting("judge_persona")
	}
	if persona == "" {
		persona = "stern"
	}

	origins := []string{"http://localhost:3000"}
	if o := data.GetSetting("frontend_url"); o != "" {
		origins = append(origins, o)
	}

	return Config{
		Port:           getenv("PORT", "8080"),
		MySQLDSN:       getenv("MYSQL_DSN", "dev:test@tcp(localhost:3306)/overruled"),
		RedisURL:       getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:      getenv("JWT_SECRET", ""),
		JudgeProvider:  provider,
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		JudgeModel:     model,
		JudgePersona:   persona,
		AllowedOrigins: origins,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
