// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configDir         = pflag.String("config", ".", "Directory to search for config.toml")
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"local", "s3"}
	validDBDrivers    = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can start
// working. Returns an error if something is critically wrong and the
// application can't run because of that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configDir)

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.cors", "host_cors")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("redis.addr", "redis_addr")
	v.BindEnv("redis.password", "redis_password")
	v.BindEnv("redis.db", "redis_db")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.username", "mail_username")
	v.BindEnv("mail.password", "mail_password")
	v.BindEnv("mail.from", "mail_from")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.local_dir", "storage_local_dir")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("security.rate_limit", "security_rate_limit")

	v.BindEnv("aws.access_key", "aws_access_key")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.bucket", "aws_bucket")
	v.BindEnv("aws.region", "aws_region")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors", "http://localhost:5173")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mail.port", 587)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_dir", "uploads")

	v.SetDefault("upload.max_size", 16)

	v.SetDefault("security.rate_limit", 100)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("no database dsn provided")
	}

	if v.GetString("redis.addr") == "" {
		return errors.New("no redis address provided")
	}

	// The token issuer can't run without a signing key, so fail here
	// instead of at the first reset request
	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("aws.access_key") == "" {
			return errors.New("access key can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("aws.region") == "" {
			return errors.New("region can't be empty")
		}
	case "local":
	default:
		if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
			return errors.New("invalid storage type provided")
		}
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("rate limit must be bigger than 0")
	}

	// Megabytes in the config, bytes everywhere else
	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
