package usecase

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/vitos/cryptomaniac/internal/domain"
)

// SortListings returns a sorted copy of listings. The sort is stable, so equal
// keys keep their fetched order. Absent numbers count as zero.
func SortListings(listings []domain.MarketListing, cfg domain.SortConfig) []domain.MarketListing {
	sorted := make([]domain.MarketListing, len(listings))
	copy(sorted, listings)

	var cmp func(a, b *domain.MarketListing) float64
	if cfg.Key == domain.SortByName {
		// Collator is not safe for concurrent use; one per call.
		col := collate.New(language.English)
		cmp = func(a, b *domain.MarketListing) float64 {
			return float64(col.CompareString(a.Name, b.Name))
		}
	} else {
		cmp = func(a, b *domain.MarketListing) float64 {
			return sortValue(a, cfg.Key) - sortValue(b, cfg.Key)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if cfg.Direction == domain.SortAsc {
			return cmp(&sorted[i], &sorted[j]) < 0
		}
		return cmp(&sorted[j], &sorted[i]) < 0
	})
	return sorted
}

func sortValue(l *domain.MarketListing, key domain.SortKey) float64 {
	switch key {
	case domain.SortByMarketCapRank:
		if l.MarketCapRank != nil {
			return float64(*l.MarketCapRank)
		}
	case domain.SortByCurrentPrice:
		return deref(l.CurrentPrice)
	case domain.SortByPriceChange24h:
		return deref(l.PriceChangePercentage24h)
	case domain.SortByMarketCap:
		return deref(l.MarketCap)
	}
	return 0
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// TotalMarketCap sums market caps, treating absent values as zero.
func TotalMarketCap(listings []domain.MarketListing) float64 {
	var total float64
	for i := range listings {
		total += deref(listings[i].MarketCap)
	}
	return total
}
