package application

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	accounting "oliver-admin/internal/accounting/domain"
)

// Config tunes the accounting pipeline.
type Config struct {
	CommissionRate string `yaml:"commission_rate"`
	Brand          string `yaml:"brand"`
	PDFMaxRows     int    `yaml:"pdf_max_rows"`
	Timezone       string `yaml:"timezone"`
	LinkTTL        string `yaml:"link_ttl"`
	HistoryLimit   int    `yaml:"history_default_limit"`
}

// Settings is Config after parsing.
type Settings struct {
	CommissionRate decimal.Decimal
	Brand          string
	PDFMaxRows     int
	Location       *time.Location
	LinkTTL        time.Duration
	HistoryLimit   int
}

// LoadConfig reads env defaults, then overlays ACCOUNTING_CONFIG when set.
func LoadConfig() (Settings, error) {
	cfg := Config{
		CommissionRate: getenvDefault("ACCOUNTING_COMMISSION_RATE", accounting.DefaultCommissionRate.String()),
		Brand:          getenvDefault("ACCOUNTING_BRAND", "Oliver"),
		PDFMaxRows:     getenvIntDefault("ACCOUNTING_PDF_MAX_ROWS", 50),
		Timezone:       getenvDefault("REPORT_TIMEZONE", "UTC"),
		LinkTTL:        getenvDefault("EXPORT_LINK_TTL", accounting.ArtifactTTL.String()),
		HistoryLimit:   50,
	}
	if path := os.Getenv("ACCOUNTING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Settings{}, err
		}
	}
	return cfg.Parse()
}

// Parse validates the raw configuration.
func (c Config) Parse() (Settings, error) {
	rate, err := decimal.NewFromString(c.CommissionRate)
	if err != nil {
		return Settings{}, fmt.Errorf("accounting config: commission_rate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return Settings{}, fmt.Errorf("accounting config: commission_rate %s outside [0,1]", rate)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return Settings{}, fmt.Errorf("accounting config: timezone: %w", err)
	}
	ttl, err := time.ParseDuration(c.LinkTTL)
	if err != nil {
		return Settings{}, fmt.Errorf("accounting config: link_ttl: %w", err)
	}
	if c.PDFMaxRows <= 0 {
		c.PDFMaxRows = 50
	}
	if c.HistoryLimit <= 0 || c.HistoryLimit > 100 {
		c.HistoryLimit = 50
	}
	return Settings{
		CommissionRate: rate,
		Brand:          c.Brand,
		PDFMaxRows:     c.PDFMaxRows,
		Location:       loc,
		LinkTTL:        ttl,
		HistoryLimit:   c.HistoryLimit,
	}, nil
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvIntDefault(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
