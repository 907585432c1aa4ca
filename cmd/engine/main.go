package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mma-betting-engine/internal/alerts"
	"mma-betting-engine/internal/analysis"
	"mma-betting-engine/internal/config"
	"mma-betting-engine/internal/ledger"
	"mma-betting-engine/internal/market"
	"mma-betting-engine/internal/server"
)

func main() {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	scanInterval, err := time.ParseDuration(cfg.ScanInterval)
	if err != nil || scanInterval < time.Second {
		log.Fatalf("SCAN_INTERVAL must be a duration of at least 1s, got %q", cfg.ScanInterval)
	}

	// Initialize components
	notifier := alerts.NewNotifier(5 * time.Minute) // 5 min cooldown between same alerts

	sizer := analysis.NewSizer(analysis.SizerConfig{
		Bankroll:  cfg.Bankroll,
		UnitSize:  cfg.UnitSize,
		Fraction:  cfg.KellyFraction,
		MinBetPct: cfg.MinBetPct,
		MaxBetPct: cfg.MaxBetPct,
	})

	analysisConfig := analysis.Config{
		Threshold:   cfg.Threshold(),
		SharpBooks:  cfg.SharpBooks,
		SquareBooks: cfg.SquareBooks,
	}

	repo, err := openRepository(cfg)
	if err != nil {
		log.Fatalf("Opening bet store: %v", err)
	}
	defer repo.Close()

	betLedger := ledger.New(repo)
	srv := server.New(betLedger, sizer)

	notifier.LogStartup(fmt.Sprintf(" bankroll=$%.2f unit=$%.2f kelly=%.0f%% bounds=%.1f-%.1f%% tier=%s(%.1f) sharp=[%s] square=[%s] db=%s scan=%s",
		cfg.Bankroll, cfg.UnitSize, cfg.KellyFraction*100, cfg.MinBetPct, cfg.MaxBetPct,
		cfg.ThresholdTier, cfg.Threshold(),
		strings.Join(cfg.SharpBooks, ","), strings.Join(cfg.SquareBooks, ","),
		cfg.DBDriver, scanInterval))

	// Initial scan before serving
	scanSnapshot(cfg.SnapshotPath, analysisConfig, sizer, srv, notifier)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP API; it drains in-flight requests when ctx is cancelled
	apiDone := make(chan struct{})
	go func() {
		defer close(apiDone)
		addr := ":" + cfg.Port
		log.Printf("API listening on %s", addr)
		if err := srv.ListenAndServe(ctx, addr); err != nil && err != http.ErrServerClosed {
			log.Printf("API server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// Main scan loop
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(10 * time.Minute)
	defer cleanupTicker.Stop()

	log.Println("Starting scan loop...")

	for {
		select {
		case <-ctx.Done():
			<-apiDone
			log.Println("Engine stopped gracefully")
			return

		case <-cleanupTicker.C:
			notifier.CleanupOldAlerts()

		case <-ticker.C:
			scanSnapshot(cfg.SnapshotPath, analysisConfig, sizer, srv, notifier)
		}
	}
}

func openRepository(cfg config.Config) (ledger.Repository, error) {
	switch cfg.DBDriver {
	case "postgres":
		return ledger.NewPostgresRepository(cfg.DatabaseURL)
	default:
		return ledger.NewSQLiteRepository(cfg.DBPath)
	}
}

// scanSnapshot re-reads the scraper's snapshot file and runs a full analysis
// pass. A missing or unreadable snapshot skips the scan and leaves the
// previous results in place.
func scanSnapshot(path string, cfg analysis.Config, sizer *analysis.Sizer, srv *server.Server, notifier *alerts.Notifier) {
	fights, err := market.LoadSnapshot(path)
	if err != nil {
		notifier.LogError("loading snapshot", err)
		return
	}

	if len(fights) == 0 {
		return
	}

	opportunities := analysis.AnalyzeAll(fights, cfg, sizer)
	srv.SetOpportunities(opportunities)

	for _, opp := range opportunities {
		notifier.AlertOpportunity(opp)
	}

	notifier.LogScan(len(fights), len(opportunities))
}
