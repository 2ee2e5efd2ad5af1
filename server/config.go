package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mlanders/tradebook"
)

// Config holds everything the ledger server reads from the environment.
type Config struct {
	Port    int
	DBPath  string
	DevMode bool

	// Display currency for valuation endpoints when the request does not
	// override it. tradebook.DisplayMarket keeps native currencies.
	DisplayCurrency string

	// FX conversion table: pivot currency plus "CODE=rate" pairs, where
	// rate is pivot units per one unit of CODE.
	FxPivot string
	FxRates map[string]float64

	// Quote providers. An empty key disables that provider.
	TwelveDataAPIKey string
	EODHDAPIKey      string

	// RefreshSchedule is a cron spec for the background quote refresh.
	// RefreshSecret, when set, is required as ?secret= on manual refreshes.
	RefreshSchedule string
	RefreshSecret   string
}

// LoadConfig reads configuration from the environment, after loading a .env
// file if one is present. Pure env vars work too.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8080),
		DBPath:           getEnv("DB_PATH", "tradebook.db"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		DisplayCurrency:  getEnv("DISPLAY_CURRENCY", tradebook.DefaultCashCurrency),
		FxPivot:          getEnv("FX_PIVOT", tradebook.DefaultCashCurrency),
		TwelveDataAPIKey: getEnv("TWELVE_DATA_API_KEY", ""),
		EODHDAPIKey:      getEnv("EODHD_API_KEY", ""),
		RefreshSchedule:  getEnv("REFRESH_SCHEDULE", "@every 15m"),
		RefreshSecret:    getEnv("REFRESH_SECRET", ""),
	}

	rates, err := parseRates(getEnv("FX_RATES", ""))
	if err != nil {
		return nil, err
	}
	cfg.FxRates = rates

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	return cfg, nil
}

// Rates builds the FX table from the configured pivot and pairs. With no
// configured pairs the built-in defaults apply.
func (c *Config) Rates() *tradebook.RateTable {
	if len(c.FxRates) == 0 {
		return tradebook.DefaultRates()
	}
	return tradebook.NewRateTable(c.FxPivot, c.FxRates)
}

// parseRates parses "USD=1.65,EUR=1.8" into a rate map.
func parseRates(s string) (map[string]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	rates := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		code, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid FX_RATES entry %q", pair)
		}
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid FX_RATES rate %q for %s", value, code)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
