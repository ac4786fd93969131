package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings holds every environment-driven knob of the API.
type Settings struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	GinMode     string `env:"GIN_MODE" envDefault:"debug"`
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	LogFile     string `env:"LOG_FILE" envDefault:"logs/protocol-api.log"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBDatabase string `env:"DB_DATABASE" envDefault:"protocol_review"`
	DBUsername string `env:"DB_USERNAME"`
	DBPassword string `env:"DB_PASSWORD"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"protocol-review.db"`
	DebugSQL   bool   `env:"DEBUG_SQL" envDefault:"false"`

	JWTSecret      string `env:"JWT_SECRET"`
	JWTExpireHours int    `env:"JWT_EXPIRE_HOURS" envDefault:"24"`

	UploadPath string `env:"UPLOAD_PATH" envDefault:"./uploads"`

	// Defaults merged into new protocol content when the submitter leaves them blank.
	DefaultFacilityName     string `env:"DEFAULT_FACILITY_NAME"`
	DefaultFacilityBuilding string `env:"DEFAULT_FACILITY_BUILDING"`
	DefaultFundingSource    string `env:"DEFAULT_FUNDING_SOURCE"`

	Mail MailSettings
}

// MailSettings configures the SMTP dialer used for transition notifications.
type MailSettings struct {
	Host          string `env:"SMTP_HOST"`
	Port          int    `env:"SMTP_PORT" envDefault:"587"`
	User          string `env:"SMTP_USER"`
	Password      string `env:"SMTP_PASS"`
	From          string `env:"SMTP_FROM"`
	SkipTLSVerify bool   `env:"SMTP_SKIP_TLS_VERIFY" envDefault:"false"`
}

// IsProduction reports whether the API runs with production defaults.
func (s Settings) IsProduction() bool {
	return s.Environment == "production"
}

// Load reads an optional .env file and parses the environment into Settings.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return Parse()
}

// Parse parses the current environment into Settings without touching .env files.
func Parse() (Settings, error) {
	var settings Settings
	if err := env.Parse(&settings); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return settings, nil
}
