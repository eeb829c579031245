package domain

import "fmt"

type SortKey string

const (
	SortByMarketCapRank  SortKey = "market_cap_rank"
	SortByName           SortKey = "name"
	SortByCurrentPrice   SortKey = "current_price"
	SortByPriceChange24h SortKey = "price_change_percentage_24h"
	SortByMarketCap      SortKey = "market_cap"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig is the listing table's sort state.
type SortConfig struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

func DefaultSortConfig() SortConfig {
	return SortConfig{Key: SortByMarketCap, Direction: SortDesc}
}

// Toggle returns the config after a click on the column header for key:
// the active key flips between desc and asc, any other key starts at desc.
func (c SortConfig) Toggle(key SortKey) SortConfig {
	if c.Key == key && c.Direction == SortDesc {
		return SortConfig{Key: key, Direction: SortAsc}
	}
	return SortConfig{Key: key, Direction: SortDesc}
}

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortByMarketCapRank, SortByName, SortByCurrentPrice, SortByPriceChange24h, SortByMarketCap:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}
