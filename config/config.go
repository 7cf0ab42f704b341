package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config for the whole application
type Config struct {
	App        AppConfig
	API        APIConfig
	Pricing    PricingConfig
	Solver     SolverConfig
	Scenario   ScenarioConfig
	Commission CommissionConfig
	Kafka      KafkaConfig
	Metrics    MetricsConfig
}

// General application configuration
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
}

// Configuration for the API server
type APIConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Configuration for the pricing model
type PricingConfig struct {
	RiskFreeRate      float64
	DefaultVolatility float64
}

// Configuration for the implied volatility solver
type SolverConfig struct {
	Seed          float64
	Fallback      float64
	Tolerance     float64
	MaxIterations int
	MinVol        float64
	MaxVol        float64
}

// Configuration for scenario grid generation
type ScenarioConfig struct {
	RangePercent float64
}

// Commission schedule
type CommissionConfig struct {
	PerTrade    float64
	PerContract float64
	RoundTrip   bool
}

// Configuration for the market data ingest
type KafkaConfig struct {
	Brokers     []string
	ChainsTopic string
	GroupID     string
	MinBytes    int
	MaxBytes    int
}

// Configuration for Prometheus metrics
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// Load reads configuration from ./config/config.yaml and the OPTBENCH_*
// environment, falling back to defaults when the file is absent.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("OPTBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "options-workbench")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.loglevel", "info")

	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.readtimeout", 10*time.Second)
	viper.SetDefault("api.writetimeout", 10*time.Second)
	viper.SetDefault("api.shutdowntimeout", 15*time.Second)

	viper.SetDefault("pricing.riskfreerate", 0.05)
	viper.SetDefault("pricing.defaultvolatility", 0.30)

	viper.SetDefault("solver.seed", 0.30)
	viper.SetDefault("solver.fallback", 0.30)
	viper.SetDefault("solver.tolerance", 1e-4)
	viper.SetDefault("solver.maxiterations", 100)
	viper.SetDefault("solver.minvol", 0.01)
	viper.SetDefault("solver.maxvol", 5.0)

	viper.SetDefault("scenario.rangepercent", 0.2)

	viper.SetDefault("commission.pertrade", 0.0)
	viper.SetDefault("commission.percontract", 0.65)
	viper.SetDefault("commission.roundtrip", false)

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.chainstopic", "option-chains")
	viper.SetDefault("kafka.groupid", "options-workbench")
	viper.SetDefault("kafka.minbytes", 1)
	viper.SetDefault("kafka.maxbytes", 10*1024*1024)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
}
