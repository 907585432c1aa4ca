package alerts

import (
	"fmt"
	"log"
	"sync"
	"time"

	"mma-betting-engine/internal/analysis"
)

// Notifier handles alert notifications
type Notifier struct {
	mu         sync.Mutex
	lastAlerts map[string]time.Time // Dedupe alerts
	cooldown   time.Duration        // Minimum time between same alerts
}

// NewNotifier creates a new notifier
func NewNotifier(cooldown time.Duration) *Notifier {
	return &Notifier{
		lastAlerts: make(map[string]time.Time),
		cooldown:   cooldown,
	}
}

// AlertOpportunity logs a +EV opportunity. The same fighter/book pair is
// suppressed within the cooldown window so a rescan of a stable market
// doesn't spam the log.
func (n *Notifier) AlertOpportunity(opp analysis.Opportunity) {
	key := fmt.Sprintf("%s-%s-%s", opp.FightInfo, opp.Fighter, opp.Book)

	n.mu.Lock()
	if lastTime, ok := n.lastAlerts[key]; ok {
		if time.Since(lastTime) < n.cooldown {
			n.mu.Unlock()
			return
		}
	}
	n.lastAlerts[key] = time.Now()
	n.mu.Unlock()

	log.Printf("+EV: %s @ %s (%s) | ev=+%.2f%% conf=%.1f sharp=%.1f%% book=%.1f%% | %s kelly=%.2f%% ($%.2f, %.2f units)",
		opp.Fighter, opp.Book, opp.FightInfo,
		opp.EVPercentage, opp.ConfidenceScore, opp.ConsensusProb, opp.BookProb,
		opp.Recommendation, opp.Stake.Percentage, opp.Stake.Dollars, opp.Stake.Units,
	)
}

// LogScan logs a scan completion
func (n *Notifier) LogScan(fightsScanned, opportunities int) {
	log.Printf("Scan complete: %d fights, %d opportunities", fightsScanned, opportunities)
}

// LogError logs an error
func (n *Notifier) LogError(context string, err error) {
	log.Printf("ERROR [%s]: %v", context, err)
}

// LogStartup logs engine startup
func (n *Notifier) LogStartup(config string) {
	log.Printf("Engine started |%s", config)
}

// CleanupOldAlerts removes stale alert records
func (n *Notifier) CleanupOldAlerts() {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := time.Now().Add(-1 * time.Hour)
	for key, t := range n.lastAlerts {
		if t.Before(cutoff) {
			delete(n.lastAlerts, key)
		}
	}
}
