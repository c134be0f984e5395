package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Config is read once at startup and passed by value afterwards.
type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0" validate:"required"`
	Port            int           `env:"PORT,default=8000" validate:"min=1,max=65535"`
	LogLevel        string        `env:"LOG_LEVEL,default=info" validate:"oneof=trace debug info warn error"`
	LogFormat       string        `env:"LOG_FORMAT,default=console" validate:"oneof=console json"`
	ModelAPIKey     string        `env:"GROQ_API_KEY" validate:"required"`
	ModelBaseURL    string        `env:"MODEL_BASE_URL,default=https://api.groq.com/openai/v1" validate:"required,url"`
	ModelName       string        `env:"MODEL_NAME,default=llama-3.3-70b-versatile" validate:"required"`
	ModelMaxTokens  int           `env:"MODEL_MAX_TOKENS,default=1024" validate:"min=1"`
	RequestTimeout  time.Duration `env:"MODEL_REQUEST_TIMEOUT,default=60s" validate:"min=0"`
	TemplatesDir    string        `env:"TEMPLATES_DIR,default=./static" validate:"required"`
	RolesFile       string        `env:"ROLES_FILE"`
	TranscriptDir   string        `env:"TRANSCRIPT_DIR"` // empty keeps transcripts in memory
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"min=0"`
}

var validate = validator.New()

// Load reads an optional .env file, then the process environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "config error")
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
