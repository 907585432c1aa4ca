package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults for configuration values.
const (
	DefaultBankroll      = 1000.0
	DefaultUnitSize      = 10.0
	DefaultKellyFraction = 0.5
	DefaultMinBetPct     = 0.5
	DefaultMaxBetPct     = 5.0
	DefaultThresholdTier = "moderate"
	DefaultDBDriver      = "sqlite3"
	DefaultDBPath        = "data/bets.db"
	DefaultSnapshotPath  = "data/fights.json"
	DefaultPort          = "8080"
	DefaultScanInterval  = "5m"
)

// EV threshold tiers in percentage points of edge.
var thresholdTiers = map[string]float64{
	"conservative": 2.0,
	"moderate":     1.0,
	"aggressive":   0.5,
}

// Default book classifications. Overridable via env or a books file so every
// component works from the same lists.
var (
	DefaultSharpBooks  = []string{"Pinnacle", "BetOnline", "Circa Sports"}
	DefaultSquareBooks = []string{"DraftKings", "Bet365", "FanDuel"}
)

// Config holds all application configuration.
type Config struct {
	Bankroll      float64
	UnitSize      float64
	KellyFraction float64
	MinBetPct     float64
	MaxBetPct     float64

	ThresholdTier string
	SharpBooks    []string
	SquareBooks   []string

	DBDriver     string // "sqlite3" or "postgres"
	DBPath       string // sqlite file path
	DatabaseURL  string // postgres connection string
	SnapshotPath string
	Port         string
	ScanInterval string
}

// booksFile is the optional YAML override for book classifications.
type booksFile struct {
	SharpBooks  []string `yaml:"sharp_books"`
	SquareBooks []string `yaml:"square_books"`
}

// Load reads configuration from environment variables (and .env file if
// present). A BOOKS_FILE yaml is applied first; SHARP_BOOKS/SQUARE_BOOKS env
// values win over it.
func Load() Config {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg := Config{
		Bankroll:      DefaultBankroll,
		UnitSize:      DefaultUnitSize,
		KellyFraction: DefaultKellyFraction,
		MinBetPct:     DefaultMinBetPct,
		MaxBetPct:     DefaultMaxBetPct,
		ThresholdTier: DefaultThresholdTier,
		SharpBooks:    DefaultSharpBooks,
		SquareBooks:   DefaultSquareBooks,
		DBDriver:      DefaultDBDriver,
		DBPath:        DefaultDBPath,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SnapshotPath:  DefaultSnapshotPath,
		Port:          DefaultPort,
		ScanInterval:  DefaultScanInterval,
	}

	if path := os.Getenv("BOOKS_FILE"); path != "" {
		bf, err := loadBooksFile(path)
		if err != nil {
			log.Printf("BOOKS_FILE unusable, keeping default book lists: %v", err)
		} else {
			if len(bf.SharpBooks) > 0 {
				cfg.SharpBooks = bf.SharpBooks
			}
			if len(bf.SquareBooks) > 0 {
				cfg.SquareBooks = bf.SquareBooks
			}
		}
	}

	if v := os.Getenv("BANKROLL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Bankroll = f
		}
	}

	if v := os.Getenv("UNIT_SIZE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.UnitSize = f
		}
	}

	if v := os.Getenv("KELLY_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.KellyFraction = f
		}
	}

	if v := os.Getenv("MIN_BET_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MinBetPct = f
		}
	}

	if v := os.Getenv("MAX_BET_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MaxBetPct = f
		}
	}

	if v := os.Getenv("EV_THRESHOLD_TIER"); v != "" {
		cfg.ThresholdTier = v
	}

	if v := os.Getenv("SHARP_BOOKS"); v != "" {
		cfg.SharpBooks = splitBooks(v)
	}

	if v := os.Getenv("SQUARE_BOOKS"); v != "" {
		cfg.SquareBooks = splitBooks(v)
	}

	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		cfg.SnapshotPath = v
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("SCAN_INTERVAL"); v != "" {
		cfg.ScanInterval = v
	}

	return cfg
}

// Threshold resolves the configured tier to its edge cutoff in percentage
// points. Unknown tiers fall back to moderate; Validate catches them first.
func (c Config) Threshold() float64 {
	if t, ok := thresholdTiers[c.ThresholdTier]; ok {
		return t
	}
	return thresholdTiers[DefaultThresholdTier]
}

// Validate checks that configuration values are within acceptable ranges.
func Validate(cfg Config) error {
	if cfg.Bankroll <= 0 {
		return fmt.Errorf("BANKROLL must be positive, got %f", cfg.Bankroll)
	}
	if cfg.UnitSize <= 0 {
		return fmt.Errorf("UNIT_SIZE must be positive, got %f", cfg.UnitSize)
	}
	if cfg.KellyFraction <= 0 || cfg.KellyFraction > 1 {
		return fmt.Errorf("KELLY_FRACTION must be between 0 and 1, got %f", cfg.KellyFraction)
	}
	if cfg.MinBetPct < 0 {
		return fmt.Errorf("MIN_BET_PCT must be non-negative, got %f", cfg.MinBetPct)
	}
	if cfg.MaxBetPct <= cfg.MinBetPct {
		return fmt.Errorf("MAX_BET_PCT must exceed MIN_BET_PCT, got %f <= %f", cfg.MaxBetPct, cfg.MinBetPct)
	}
	if _, ok := thresholdTiers[cfg.ThresholdTier]; !ok {
		return fmt.Errorf("EV_THRESHOLD_TIER must be conservative, moderate or aggressive, got %q", cfg.ThresholdTier)
	}
	if len(cfg.SharpBooks) == 0 {
		return fmt.Errorf("SHARP_BOOKS must not be empty")
	}
	if len(cfg.SquareBooks) == 0 {
		return fmt.Errorf("SQUARE_BOOKS must not be empty")
	}
	switch cfg.DBDriver {
	case "sqlite3":
		if cfg.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite3")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", cfg.DBDriver)
	}
	return nil
}

func loadBooksFile(path string) (booksFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return booksFile{}, fmt.Errorf("reading books file: %w", err)
	}

	var bf booksFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return booksFile{}, fmt.Errorf("parsing books file %s: %w", path, err)
	}
	return bf, nil
}

func splitBooks(csv string) []string {
	var books []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			books = append(books, b)
		}
	}
	return books
}
