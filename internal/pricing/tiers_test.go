package pricing

import (
	"strings"
	"testing"
)

func tier(min float64, max *float64, price float64) PricingTier {
	return PricingTier{MinQuantity: min, MaxQuantity: max, TierPrice: price, IsActive: true}
}

func TestResolveTierPriceSelectsContainingBand(t *testing.T) {
	tiers := []PricingTier{
		tier(0, floatPtr(49), 12),
		tier(50, nil, 9),
	}
	if got := ResolveTierPrice(100, tiers, 15); got != 9 {
		t.Fatalf("expected 9 got %v", got)
	}
	if got := ResolveTierPrice(10, tiers, 15); got != 12 {
		t.Fatalf("expected 12 got %v", got)
	}
}

func TestResolveTierPriceBoundaryBelongsToLowerTier(t *testing.T) {
	tiers := []PricingTier{
		tier(0, floatPtr(49), 12),
		tier(50, nil, 9),
	}
	if got := ResolveTierPrice(49, tiers, 15); got != 12 {
		t.Fatalf("quantity at max belongs to that tier, got %v", got)
	}
	if got := ResolveTierPrice(50, tiers, 15); got != 9 {
		t.Fatalf("expected next tier at 50, got %v", got)
	}
}

func TestResolveTierPriceUnboundedMatchesAnyAbove(t *testing.T) {
	tiers := []PricingTier{tier(50, nil, 9)}
	if got := ResolveTierPrice(1e9, tiers, 15); got != 9 {
		t.Fatalf("unbounded tier should match, got %v", got)
	}
}

func TestResolveTierPriceFallsBackWhenNoMatch(t *testing.T) {
	tiers := []PricingTier{tier(50, floatPtr(100), 9)}
	if got := ResolveTierPrice(10, tiers, 15); got != 15 {
		t.Fatalf("expected fallback 15 got %v", got)
	}
}

func TestResolveTierPriceIgnoresInactive(t *testing.T) {
	tiers := []PricingTier{
		{MinQuantity: 0, TierPrice: 1, IsActive: false},
		tier(0, nil, 7),
	}
	if got := ResolveTierPrice(5, tiers, 15); got != 7 {
		t.Fatalf("inactive tier leaked, got %v", got)
	}
}

func TestResolveTierPriceTiesResolveByAscendingMin(t *testing.T) {
	tiers := []PricingTier{
		tier(10, nil, 5),
		tier(0, nil, 8),
	}
	if got := ResolveTierPrice(20, tiers, 15); got != 8 {
		t.Fatalf("expected lowest-min tier to win, got %v", got)
	}
}

func TestResolveTierPriceTotalOverContiguousSet(t *testing.T) {
	tiers := []PricingTier{
		tier(0, floatPtr(49), 12),
		tier(50, floatPtr(99), 10),
		tier(100, nil, 8),
	}
	for q := 0.0; q <= 500; q += 0.5 {
		got := ResolveTierPrice(q, tiers, -1)
		if got == -1 {
			t.Fatalf("quantity %v fell through a contiguous tier set", q)
		}
	}
}

func TestValidateTiersReportsInvertedRange(t *testing.T) {
	msgs := ValidateTiers([]PricingTier{tier(50, floatPtr(40), 9)})
	if len(msgs) != 1 || !strings.Contains(msgs[0], "maximum at or below its minimum") {
		t.Fatalf("expected inverted range message, got %v", msgs)
	}
}

func TestValidateTiersReportsOverlap(t *testing.T) {
	msgs := ValidateTiers([]PricingTier{
		tier(0, floatPtr(60), 12),
		tier(50, nil, 9),
	})
	if len(msgs) != 1 || !strings.Contains(msgs[0], "overlap") {
		t.Fatalf("expected overlap message, got %v", msgs)
	}
}

func TestValidateTiersReportsGap(t *testing.T) {
	msgs := ValidateTiers([]PricingTier{
		tier(0, floatPtr(49), 12),
		tier(60, nil, 9),
	})
	if len(msgs) != 1 || !strings.Contains(msgs[0], "gap") {
		t.Fatalf("expected gap message, got %v", msgs)
	}
}

func TestValidateTiersAcceptsContiguousSet(t *testing.T) {
	msgs := ValidateTiers([]PricingTier{
		tier(0, floatPtr(49), 12),
		tier(50, floatPtr(99), 10),
		tier(100, nil, 8),
	})
	if len(msgs) != 0 {
		t.Fatalf("expected no messages, got %v", msgs)
	}
}

func TestValidateTiersUnboundedMidSet(t *testing.T) {
	msgs := ValidateTiers([]PricingTier{
		tier(0, nil, 12),
		tier(50, nil, 9),
	})
	if len(msgs) != 1 || !strings.Contains(msgs[0], "unbounded") {
		t.Fatalf("expected unbounded mid-set message, got %v", msgs)
	}
}
