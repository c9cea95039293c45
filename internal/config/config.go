package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DataFile string         `mapstructure:"data_file"`
	Database DatabaseConfig `mapstructure:"database"`
	Export   ExportConfig   `mapstructure:"export"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite or postgres
	Path     string `mapstructure:"path"`   // sqlite only
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
}

type ExportConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

func DefaultConfig() *Config {
	return &Config{
		DataFile: "students.txt",
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    "students.db",
			Host:    "localhost",
			Port:    "5432",
			Name:    "studentdb",
			SSLMode: "disable",
		},
		Export: ExportConfig{BatchSize: 1000},
	}
}

// Load builds the configuration from defaults, an optional .env file, an
// optional YAML file and the environment. An empty path searches for
// studentdb.yaml in the working directory.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("studentdb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STUDENTDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The plain DB_* names are accepted as well.
	_ = v.BindEnv("database.host", "STUDENTDB_DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("database.user", "STUDENTDB_DATABASE_USER", "DB_USER")
	_ = v.BindEnv("database.password", "STUDENTDB_DATABASE_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("database.name", "STUDENTDB_DATABASE_NAME", "DB_NAME")
	_ = v.BindEnv("database.port", "STUDENTDB_DATABASE_PORT", "DB_PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_file", cfg.DataFile)
	v.SetDefault("database.driver", cfg.Database.Driver)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.host", cfg.Database.Host)
	v.SetDefault("database.user", cfg.Database.User)
	v.SetDefault("database.password", cfg.Database.Password)
	v.SetDefault("database.name", cfg.Database.Name)
	v.SetDefault("database.port", cfg.Database.Port)
	v.SetDefault("database.sslmode", cfg.Database.SSLMode)
	v.SetDefault("export.batch_size", cfg.Export.BatchSize)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataFile) == "" {
		return fmt.Errorf("config: data_file is required")
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("config: database.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("config: database.host and database.name are required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: database.driver %q is invalid (must be sqlite or postgres)", c.Database.Driver)
	}
	if c.Export.BatchSize < 1 {
		return fmt.Errorf("config: export.batch_size must be positive, got %d", c.Export.BatchSize)
	}
	return nil
}
