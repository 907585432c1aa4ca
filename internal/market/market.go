package market

import "fmt"

// Quote is a single book's moneyline price on one fighter. Quotes are
// produced per scrape cycle and never mutated.
type Quote struct {
	FighterName string `json:"fighter_name"`
	Book        string `json:"book"`
	Odds        int    `json:"odds"`
}

// Fight is a two-outcome market: two fighters plus event metadata and the
// raw quotes collected across books.
type Fight struct {
	Fighter1    string  `json:"fighter1"`
	Fighter2    string  `json:"fighter2"`
	EventName   string  `json:"event_name"`
	EventDate   string  `json:"event_date"`
	WeightClass string  `json:"weight_class"`
	Quotes      []Quote `json:"odds_data"`
	ScrapedAt   string  `json:"scraped_at"`
}

// BookLine holds one book's prices on both sides of a fight.
type BookLine struct {
	Fighter1Odds int
	Fighter2Odds int
}

// Label returns the human-readable matchup string.
func (f Fight) Label() string {
	return fmt.Sprintf("%s vs %s", f.Fighter1, f.Fighter2)
}

// CompleteBooks groups the fight's quotes by book and keeps only books that
// price both fighters. A book quoting one side is useless for de-vigging and
// is dropped. Book names match case-sensitively.
func (f Fight) CompleteBooks() map[string]BookLine {
	byBook := make(map[string]map[string]int)
	for _, q := range f.Quotes {
		if byBook[q.Book] == nil {
			byBook[q.Book] = make(map[string]int)
		}
		byBook[q.Book][q.FighterName] = q.Odds
	}

	complete := make(map[string]BookLine)
	for book, fighters := range byBook {
		o1, ok1 := fighters[f.Fighter1]
		o2, ok2 := fighters[f.Fighter2]
		if ok1 && ok2 {
			complete[book] = BookLine{Fighter1Odds: o1, Fighter2Odds: o2}
		}
	}

	return complete
}
