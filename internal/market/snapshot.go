package market

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadSnapshot reads a scrape snapshot (the scraper collaborator's JSON dump)
// from disk. One snapshot is one consistent view of the market; an analysis
// run never mixes quotes from two snapshots.
func LoadSnapshot(path string) ([]Fight, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var fights []Fight
	if err := json.Unmarshal(data, &fights); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}

	return fights, nil
}
