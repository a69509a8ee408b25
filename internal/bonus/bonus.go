// Package bonus computes the deposit bonus granted on top of a credited
// amount, based on the configured tier set.
package bonus

import (
	"fmt"
	"sort"

	"auto-topup-go/internal/models"
)

// Result describes the bonus applied to one deposit amount.
type Result struct {
	BonusPercent int64
	BonusVnd     int64
	TotalVnd     int64
	Tier         *models.BonusTier
}

// Calculate selects the single tier whose inclusive range contains amountVnd
// and applies its percentage. Tiers are guaranteed non-overlapping at save
// time; that precondition is not re-checked here. No matching tier means
// zero bonus, not an error.
func Calculate(amountVnd int64, tiers []models.BonusTier) Result {
	for i := range tiers {
		tier := tiers[i]
		if amountVnd >= tier.MinAmountVnd && amountVnd <= tier.MaxAmountVnd {
			bonus := amountVnd * tier.BonusPercent / 100
			return Result{
				BonusPercent: tier.BonusPercent,
				BonusVnd:     bonus,
				TotalVnd:     amountVnd + bonus,
				Tier:         &tier,
			}
		}
	}
	return Result{TotalVnd: amountVnd}
}

// ValidateTiers checks a tier set for inverted ranges, negative percentages
// and overlaps. Called at save time only.
func ValidateTiers(tiers []models.BonusTier) error {
	for i, tier := range tiers {
		if tier.MinAmountVnd < 0 {
			return fmt.Errorf("tier %d: min amount cannot be negative", i)
		}
		if tier.MaxAmountVnd < tier.MinAmountVnd {
			return fmt.Errorf("tier %d: max amount %d below min amount %d", i, tier.MaxAmountVnd, tier.MinAmountVnd)
		}
		if tier.BonusPercent < 0 || tier.BonusPercent > 100 {
			return fmt.Errorf("tier %d: bonus percent %d out of range", i, tier.BonusPercent)
		}
	}

	sorted := make([]models.BonusTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinAmountVnd < sorted[j].MinAmountVnd })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].MinAmountVnd <= sorted[i-1].MaxAmountVnd {
			return fmt.Errorf("tier ranges [%d, %d] and [%d, %d] overlap",
				sorted[i-1].MinAmountVnd, sorted[i-1].MaxAmountVnd,
				sorted[i].MinAmountVnd, sorted[i].MaxAmountVnd)
		}
	}
	return nil
}

// DefaultTiers is the seed tier set used when none are configured.
func DefaultTiers() []models.BonusTier {
	return []models.BonusTier{
		{MinAmountVnd: 100_000, MaxAmountVnd: 499_999, BonusPercent: 5, Position: 0},
		{MinAmountVnd: 500_000, MaxAmountVnd: 999_999, BonusPercent: 10, Position: 1},
		{MinAmountVnd: 1_000_000, MaxAmountVnd: 4_999_999, BonusPercent: 15, Position: 2},
		{MinAmountVnd: 5_000_000, MaxAmountVnd: 100_000_000, BonusPercent: 20, Position: 3},
	}
}
