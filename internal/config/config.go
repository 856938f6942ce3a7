package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	OTP        OTPConfig
	Google     GoogleConfig
	SMTP       SMTPConfig
	Cloudinary CloudinaryConfig
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the Redis configuration.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// AuthConfig holds the session-token signing configuration.
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwtsecret"`
	TokenTTLHours int    `mapstructure:"tokenttlhours"`
}

// OTPConfig controls one-time code issuance.
type OTPConfig struct {
	TTLMinutes            int `mapstructure:"ttlminutes"`
	CodeLength            int `mapstructure:"codelength"`
	ResendCooldownSeconds int `mapstructure:"resendcooldownseconds"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"clientid"`
	ClientSecret string `mapstructure:"clientsecret"`
	RedirectURL  string `mapstructure:"redirecturl"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloudname"`
	APIKey    string `mapstructure:"apikey"`
	APISecret string `mapstructure:"apisecret"`
}

// Load creates a new Config object from environment variables.
func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env into process environment for BindEnv to work with file-based envs
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ godotenv could not load .env: %v", err)
	}

	// Bind structured keys to environment variables
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("redis.url", "REDIS_URL")
	_ = viper.BindEnv("auth.jwtsecret", "JWT_SECRET")
	_ = viper.BindEnv("auth.tokenttlhours", "TOKEN_TTL_HOURS")
	_ = viper.BindEnv("otp.ttlminutes", "OTP_TTL_MINUTES")
	_ = viper.BindEnv("otp.codelength", "OTP_CODE_LENGTH")
	_ = viper.BindEnv("otp.resendcooldownseconds", "OTP_RESEND_COOLDOWN_SECONDS")
	_ = viper.BindEnv("google.clientid", "GOOGLE_CLIENT_ID")
	_ = viper.BindEnv("google.clientsecret", "GOOGLE_CLIENT_SECRET")
	_ = viper.BindEnv("google.redirecturl", "GOOGLE_REDIRECT_URL")
	_ = viper.BindEnv("smtp.host", "SMTP_HOST")
	_ = viper.BindEnv("smtp.port", "SMTP_PORT")
	_ = viper.BindEnv("smtp.username", "SMTP_USERNAME")
	_ = viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	_ = viper.BindEnv("smtp.from", "SMTP_FROM")
	_ = viper.BindEnv("cloudinary.cloudname", "CLOUDINARY_CLOUD_NAME")
	_ = viper.BindEnv("cloudinary.apikey", "CLOUDINARY_API_KEY")
	_ = viper.BindEnv("cloudinary.apisecret", "CLOUDINARY_API_SECRET")

	if err := viper.ReadInConfig(); err != nil {
		// Only fatal when the file exists but cannot be parsed. Running purely
		// off environment variables is fine.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("❌ Error reading config file: %s", err)
		} else {
			log.Printf("⚠️ .env file not found, relying on environment variables")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode config into struct: %v", err)
	}

	// A missing signing secret would make every issued token forgeable or
	// unverifiable. Fail at startup, never per request.
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET environment variable is not set")
	}

	// --- Set default values ---
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Auth.TokenTTLHours <= 0 {
		cfg.Auth.TokenTTLHours = 24
	}
	if cfg.OTP.TTLMinutes <= 0 {
		cfg.OTP.TTLMinutes = 10
	}
	if cfg.OTP.CodeLength <= 0 {
		cfg.OTP.CodeLength = 6
	}
	if cfg.OTP.ResendCooldownSeconds <= 0 {
		cfg.OTP.ResendCooldownSeconds = 60
	}

	log.Println("✅ Configuration loaded successfully")
	return &cfg
}
