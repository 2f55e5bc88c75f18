package bot

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Configuration keys of a bot.
const (
	CfgTgToken         = "TgToken"
	CfgDbDriver        = "DBDriver"
	CfgDbConnStr       = "DBConnStr"
	CfgDbRetryAttempts = "DBRetryAttempts"
	CfgDbRetryDelay    = "DBRetryDelay"
	CfgDbTimeout       = "DBTimeout"
	CfgPinStore        = "PinStore"
	CfgTimeZone        = "TimeZone"
	CfgDiaryLimit      = "DiaryLimit"
	CfgMetricsAddr     = "MetricsAddr"
	CfgLogLevel        = "LogLevel"
)

// Pin store choices
const (
	PinStoreMemory = "memory"
	PinStoreDB     = "db"
)

// Config keeps bot configuration
type Config struct {
	TgToken         string        `mapstructure:"TgToken"`
	DBDriver        string        `mapstructure:"DBDriver"`
	DBConnStr       string        `mapstructure:"DBConnStr"`
	DBRetryAttempts int           `mapstructure:"DBRetryAttempts"`
	DBRetryDelay    time.Duration `mapstructure:"DBRetryDelay"`
	DBTimeout       time.Duration `mapstructure:"DBTimeout"`
	PinStore        string        `mapstructure:"PinStore"`
	TimeZone        string        `mapstructure:"TimeZone"`
	DiaryLimit      int           `mapstructure:"DiaryLimit"`
	MetricsAddr     string        `mapstructure:"MetricsAddr"`
	LogLevel        string        `mapstructure:"LogLevel"`
}

var defaults = map[string]any{
	CfgTgToken:         "",
	CfgDbDriver:        "memory",
	CfgDbConnStr:       "",
	CfgDbRetryAttempts: 3,
	CfgDbRetryDelay:    time.Second,
	CfgDbTimeout:       5 * time.Second,
	CfgPinStore:        PinStoreMemory,
	CfgTimeZone:        "UTC",
	CfgDiaryLimit:      10,
	CfgMetricsAddr:     "",
	CfgLogLevel:        "info",
}

// ReadConfig reads configuration of all bots from the given file. Variables
// from .env, if the file exists, are loaded into the environment first.
func ReadConfig(cfgFile string) (*viper.Viper, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	if cfgFile == "" {
		return v, nil
	}

	v.SetConfigFile(cfgFile)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "couldn't read configuration from file %q", cfgFile)
	}

	return v, nil
}

// BotConfig extracts configuration of the named bot. Environment variables
// NAME_KEY, e.g. PRESSUREDIARYBOT_TGTOKEN, override values from the file.
func BotConfig(v *viper.Viper, name string) (*Config, error) {
	// v.Sub would prefix env lookups with the bot name twice
	sub := viper.New()
	if m := v.GetStringMap(name); len(m) > 0 {
		if err := sub.MergeConfigMap(m); err != nil {
			return nil, errors.Wrapf(err, "couldn't read %s's configuration", name)
		}
	}

	for k, val := range defaults {
		sub.SetDefault(k, val)
	}
	sub.SetEnvPrefix(strings.ToUpper(name))
	sub.AutomaticEnv()

	var cfg Config
	if err := sub.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "couldn't unmarshal %s's configuration", name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "%s's configuration is invalid", name)
	}
	return &cfg, nil
}

// Validate makes sure that all required fields are present in the config
func (c *Config) Validate() error {
	missingFields := []string{}
	if c.TgToken == "" {
		missingFields = append(missingFields, CfgTgToken)
	}
	if c.DBDriver != "memory" && c.DBConnStr == "" {
		missingFields = append(missingFields, CfgDbConnStr)
	}

	if len(missingFields) > 0 {
		return errors.Errorf("missing field(s): %s", strings.Join(missingFields, ", "))
	}

	if c.PinStore != PinStoreMemory && c.PinStore != PinStoreDB {
		return errors.Errorf("%s must be %q or %q", CfgPinStore, PinStoreMemory, PinStoreDB)
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return errors.Wrapf(err, "unknown %s", CfgTimeZone)
	}

	return nil
}
