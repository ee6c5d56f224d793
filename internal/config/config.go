// Package config loads the application configuration from defaults,
// command-line flags, a .env file, and environment variables, in that order
// of increasing priority, and validates the result.
package config

import (
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings of the service.
type Config struct {
	RunAddr                   string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	GRPCRunAddr               string        `env:"GRPC_SERVER_ADDRESS" validate:"omitempty,hostname_port"`
	LogLevel                  string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN               string        `env:"DATABASE_DSN"`
	FileStoragePath           string        `env:"FILE_STORAGE_PATH" validate:"omitempty,filepath"`
	DBConnectionTimeout       time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	MigrationsDir             string        `env:"MIGRATIONS_DIR"`
	JWTSigningSecretKey       string        `env:"JWT_SIGNING_SECRET_KEY" validate:"required,base64url"`
	TokenTTL                  time.Duration `env:"TOKEN_TTL" validate:"required"`
	PostsCacheTTL             time.Duration `env:"POSTS_CACHE_TTL" validate:"required"`
	PostsCacheCleanupInterval time.Duration `env:"POSTS_CACHE_CLEANUP_INTERVAL" validate:"required"`
	TrustedSubnet             string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
}

var defaultConfig = Config{
	RunAddr:                   ":8080",
	GRPCRunAddr:               "",
	LogLevel:                  "info",
	DatabaseDSN:               "",
	FileStoragePath:           "",
	DBConnectionTimeout:       10 * time.Second,
	MigrationsDir:             "cmd/miniblog/migrations",
	JWTSigningSecretKey:       "c3VwZXJzZWNyZXRrZXk=",
	TokenTTL:                  10 * time.Minute,
	PostsCacheTTL:             5 * time.Minute,
	PostsCacheCleanupInterval: time.Minute,
	TrustedSubnet:             "",
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

// InitOption is a functional option for New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing disables command-line flag parsing.
// Tests use it to keep the global flag set untouched.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds a validated Config from defaults, flags, .env, and environment.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	if !options.disableFlagsParsing {
		flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run the HTTP server")
		flag.StringVar(&values.GRPCRunAddr, "g", values.GRPCRunAddr, "address and port to run the gRPC health server (empty disables it)")
		flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
		flag.StringVar(&values.DatabaseDSN, "d", values.DatabaseDSN, "a string with the database connection details")
		flag.StringVar(&values.FileStoragePath, "f", values.FileStoragePath, "JSON file name with database")
		flag.StringVar(&values.MigrationsDir, "m", values.MigrationsDir, "directory with goose migrations")
		flag.StringVar(&values.JWTSigningSecretKey, "s", values.JWTSigningSecretKey, "base64-encoded JWT signing secret")
		flag.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "trusted subnet in CIDR notation for the internal stats endpoint")
		flag.DurationVar(&values.TokenTTL, "token-ttl", values.TokenTTL, "bearer token lifetime")
		flag.DurationVar(&values.PostsCacheTTL, "cache-ttl", values.PostsCacheTTL, "posts cache entry lifetime")
		flag.Parse()
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	if valuesFromEnv.RunAddr != "" {
		values.RunAddr = valuesFromEnv.RunAddr
	}

	if valuesFromEnv.GRPCRunAddr != "" {
		values.GRPCRunAddr = valuesFromEnv.GRPCRunAddr
	}

	if valuesFromEnv.LogLevel != "" {
		values.LogLevel = valuesFromEnv.LogLevel
	}

	if valuesFromEnv.DatabaseDSN != "" {
		values.DatabaseDSN = valuesFromEnv.DatabaseDSN
	}

	if valuesFromEnv.FileStoragePath != "" {
		values.FileStoragePath = valuesFromEnv.FileStoragePath
	}

	if valuesFromEnv.DBConnectionTimeout != 0 {
		values.DBConnectionTimeout = valuesFromEnv.DBConnectionTimeout
	}

	if valuesFromEnv.MigrationsDir != "" {
		values.MigrationsDir = valuesFromEnv.MigrationsDir
	}

	if valuesFromEnv.JWTSigningSecretKey != "" {
		values.JWTSigningSecretKey = valuesFromEnv.JWTSigningSecretKey
	}

	if valuesFromEnv.TokenTTL != 0 {
		values.TokenTTL = valuesFromEnv.TokenTTL
	}

	if valuesFromEnv.PostsCacheTTL != 0 {
		values.PostsCacheTTL = valuesFromEnv.PostsCacheTTL
	}

	if valuesFromEnv.PostsCacheCleanupInterval != 0 {
		values.PostsCacheCleanupInterval = valuesFromEnv.PostsCacheCleanupInterval
	}

	if valuesFromEnv.TrustedSubnet != "" {
		values.TrustedSubnet = valuesFromEnv.TrustedSubnet
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
