package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	RateLimit  RateLimitConfig
	Data       DataConfig
	Pricing    PricingConfig
	Vocabulary VocabularyConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig limits uploads and override writes per client IP
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
	Burst int `mapstructure:"burst"`
}

// DataConfig locates the source spreadsheets and the overrides file
type DataConfig struct {
	Dir           string `mapstructure:"dir"`
	CostsName     string `mapstructure:"costs_name"`
	RulesName     string `mapstructure:"rules_name"`
	OverridesFile string `mapstructure:"overrides_file"`
}

// OverridesPath returns the overrides file path, relative paths resolved against Dir
func (d DataConfig) OverridesPath() string {
	if filepath.IsAbs(d.OverridesFile) {
		return d.OverridesFile
	}
	return filepath.Join(d.Dir, d.OverridesFile)
}

// PricingConfig holds the business constants of the price formula
type PricingConfig struct {
	DefaultMargin        float64            `mapstructure:"default_margin"`
	DefaultFreightCode   string             `mapstructure:"default_freight_code"`
	FreeFreightCode      string             `mapstructure:"free_freight_code"`
	DefaultFreight       float64            `mapstructure:"default_freight"`
	HazardSurcharge      float64            `mapstructure:"hazard_surcharge"`
	StdPackaging1Kg      float64            `mapstructure:"std_packaging_1kg"`
	StdPackaging5Kg      float64            `mapstructure:"std_packaging_5kg"`
	ManualCostUplift     float64            `mapstructure:"manual_cost_uplift"`
	Packaging            map[string]float64 `mapstructure:"packaging"`
	Freight              map[string]float64 `mapstructure:"freight"`
	MasterPriceBackfill  bool               `mapstructure:"master_price_backfill"`
	DetectHazardFromName bool               `mapstructure:"detect_hazard_from_name"`
}

// VocabularyConfig holds the word lists used to classify product names
type VocabularyConfig struct {
	LiquidWords []string `mapstructure:"liquid_words"`
	HazardWords []string `mapstructure:"hazard_words"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/chemprice/")

	v.SetEnvPrefix("CHEMPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("ratelimit.per_ip", 30)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.costs_name", "data_precios")
	v.SetDefault("data.rules_name", "data_reglas")
	v.SetDefault("data.overrides_file", "db_manual.json")

	v.SetDefault("pricing.default_margin", 0.20)
	v.SetDefault("pricing.default_freight_code", "F1")
	v.SetDefault("pricing.free_freight_code", "F0")
	v.SetDefault("pricing.default_freight", 0.08)
	v.SetDefault("pricing.hazard_surcharge", 0.03)
	v.SetDefault("pricing.std_packaging_1kg", 0.15)
	v.SetDefault("pricing.std_packaging_5kg", 0.40)
	v.SetDefault("pricing.manual_cost_uplift", 0.05)
	v.SetDefault("pricing.packaging", map[string]float64{
		"BOLSA":    0.10,
		"GALONERA": 0.60,
		"BALDE":    1.20,
		"BIDON":    2.50,
		"CILINDRO": 12.00,
	})
	v.SetDefault("pricing.freight", map[string]float64{
		"F0": 0.00,
		"F1": 0.08,
		"F2": 0.12,
		"F3": 0.18,
	})
	v.SetDefault("pricing.master_price_backfill", true)
	v.SetDefault("pricing.detect_hazard_from_name", false)

	v.SetDefault("vocabulary.liquid_words", []string{"LIQ", "ACIDO", "JARABE", "ESENCIA", "SOLUCION"})
	v.SetDefault("vocabulary.hazard_words", []string{"SULFURICO", "NITRICO", "CLORHIDRICO", "AMONIACO"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set CHEMPRICE_SERVER_PORT)")
	}

	if config.RateLimit.PerIP < 0 || config.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	if config.Data.Dir == "" {
		return fmt.Errorf("data directory is required (set CHEMPRICE_DATA_DIR)")
	}
	if config.Data.CostsName == "" || config.Data.RulesName == "" {
		return fmt.Errorf("source file names are required")
	}
	if config.Data.CostsName == config.Data.RulesName {
		return fmt.Errorf("costs and rules files must have different names, got %q for both", config.Data.CostsName)
	}

	p := config.Pricing
	if p.DefaultMargin < 0 {
		return fmt.Errorf("default margin must not be negative, got: %v", p.DefaultMargin)
	}
	if p.DefaultFreight < 0 || p.HazardSurcharge < 0 {
		return fmt.Errorf("freight amounts must not be negative")
	}
	if p.ManualCostUplift < 0 {
		return fmt.Errorf("manual cost uplift must not be negative, got: %v", p.ManualCostUplift)
	}
	if p.DefaultFreightCode == "" {
		return fmt.Errorf("default freight code is required")
	}
	for label, amount := range p.Packaging {
		if amount < 0 {
			return fmt.Errorf("packaging cost for %q must not be negative", label)
		}
	}
	for code, rate := range p.Freight {
		if rate < 0 {
			return fmt.Errorf("freight rate for %q must not be negative", code)
		}
	}

	return nil
}
