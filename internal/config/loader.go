package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpattn/wholesale/internal/db"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// AppConfig is the process-level section.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig mirrors db.Config plus migration control.
type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	SSLMode    string `mapstructure:"sslmode"`
	MaxConns   int32  `mapstructure:"max_conns"`
	Migrations bool   `mapstructure:"migrations"`
}

// HTTPConfig controls the listener.
type HTTPConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// WorkbookConfig tunes generated order forms.
type WorkbookConfig struct {
	CurrencyFormat string `mapstructure:"currency_format"`
	FilenamePrefix string `mapstructure:"filename_prefix"`
}

// Config is the full service configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Workbook WorkbookConfig `mapstructure:"workbook"`
}

// DB converts the database section for db.NewConnection.
func (c Config) DB() db.Config {
	return db.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		DBName:   c.Database.DBName,
		SSLMode:  c.Database.SSLMode,
		MaxConns: c.Database.MaxConns,
	}
}

func setDefaults(v *viper.Viper) {
	dbDefaults := db.DefaultConfig()

	v.SetDefault("app.env", "development")
	v.SetDefault("app.name", "wholesale-orderbook")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", dbDefaults.Host)
	v.SetDefault("database.port", dbDefaults.Port)
	v.SetDefault("database.user", dbDefaults.User)
	v.SetDefault("database.password", dbDefaults.Password)
	v.SetDefault("database.dbname", dbDefaults.DBName)
	v.SetDefault("database.sslmode", dbDefaults.SSLMode)
	v.SetDefault("database.max_conns", dbDefaults.MaxConns)
	v.SetDefault("database.migrations", true)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.max_upload_bytes", int64(32<<20))

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("workbook.currency_format", `"$"#,##0.00`)
	v.SetDefault("workbook.filename_prefix", "order-form")
}

func newViper(configPath string, envPrefix string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Info().Msg("no config.yaml found, using defaults and env vars")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	log.Info().Str("file", v.ConfigFileUsed()).Msg("loaded config file")
	return nil
}

// Load reads config.yaml from configPath (optional) and ORDERBOOK_* environment overrides.
func Load(configPath string) (Config, error) {
	v := newViper(configPath, "ORDERBOOK")
	if err := readConfigFile(v); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.HTTP.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("http.max_upload_bytes must be positive")
	}
	return cfg, nil
}

// LoadDBConfig loads only the database section, with DB_* environment overrides.
func LoadDBConfig(configPath string) (db.Config, error) {
	v := newViper(configPath, "DB")
	if err := readConfigFile(v); err != nil {
		return db.Config{}, err
	}

	cfg := db.DefaultConfig()
	cfg.Host = v.GetString("database.host")
	cfg.Port = v.GetInt("database.port")
	cfg.User = v.GetString("database.user")
	cfg.Password = v.GetString("database.password")
	cfg.DBName = v.GetString("database.dbname")
	cfg.SSLMode = v.GetString("database.sslmode")
	cfg.MaxConns = v.GetInt32("database.max_conns")
	return cfg, nil
}
