package commission

import (
	"fmt"

	"github.com/earnkart/backend/internal/models"
)

type matrixKey struct {
	referrer models.PackageTier
	referee  models.PackageTier
	level    int
}

// Matrix is an immutable lookup of fixed commission amounts keyed on
// (referrer tier, referee tier, level). It is validated for completeness at
// construction and injected into the engine, never read as a bare global.
type Matrix struct {
	amounts map[matrixKey]float64
}

// defaultAmounts is the platform commission table. Level 1 pays the direct
// referrer, level 2 pays the referrer's referrer.
var defaultAmounts = map[matrixKey]float64{
	{models.TierSilver, models.TierSilver, models.ReferralLevel1}:     1875,
	{models.TierSilver, models.TierGold, models.ReferralLevel1}:       2375,
	{models.TierSilver, models.TierPlatinum, models.ReferralLevel1}:   2875,
	{models.TierGold, models.TierSilver, models.ReferralLevel1}:       1875,
	{models.TierGold, models.TierGold, models.ReferralLevel1}:         2875,
	{models.TierGold, models.TierPlatinum, models.ReferralLevel1}:     3375,
	{models.TierPlatinum, models.TierSilver, models.ReferralLevel1}:   1875,
	{models.TierPlatinum, models.TierGold, models.ReferralLevel1}:     2875,
	{models.TierPlatinum, models.TierPlatinum, models.ReferralLevel1}: 3875,

	{models.TierSilver, models.TierSilver, models.ReferralLevel2}:     150,
	{models.TierSilver, models.TierGold, models.ReferralLevel2}:       250,
	{models.TierSilver, models.TierPlatinum, models.ReferralLevel2}:   400,
	{models.TierGold, models.TierSilver, models.ReferralLevel2}:       200,
	{models.TierGold, models.TierGold, models.ReferralLevel2}:         350,
	{models.TierGold, models.TierPlatinum, models.ReferralLevel2}:     550,
	{models.TierPlatinum, models.TierSilver, models.ReferralLevel2}:   250,
	{models.TierPlatinum, models.TierGold, models.ReferralLevel2}:     450,
	{models.TierPlatinum, models.TierPlatinum, models.ReferralLevel2}: 700,
}

// NewMatrix builds a matrix from the given table after checking that all
// 18 tier/tier/level combinations are present and non-negative.
func NewMatrix(amounts map[matrixKey]float64) (*Matrix, error) {
	tiers := []models.PackageTier{models.TierSilver, models.TierGold, models.TierPlatinum}
	levels := []int{models.ReferralLevel1, models.ReferralLevel2}

	table := make(map[matrixKey]float64, len(tiers)*len(tiers)*len(levels))
	for _, referrer := range tiers {
		for _, referee := range tiers {
			for _, level := range levels {
				key := matrixKey{referrer, referee, level}
				amount, ok := amounts[key]
				if !ok {
					return nil, &ConfigurationError{
						Reason: fmt.Sprintf("missing entry for referrer=%s referee=%s level=%d", referrer, referee, level),
					}
				}
				if amount < 0 {
					return nil, &ConfigurationError{
						Reason: fmt.Sprintf("negative amount %.2f for referrer=%s referee=%s level=%d", amount, referrer, referee, level),
					}
				}
				table[key] = amount
			}
		}
	}

	return &Matrix{amounts: table}, nil
}

// DefaultMatrix builds the matrix from the platform table. An error here is a
// fatal configuration problem and must abort startup.
func DefaultMatrix() (*Matrix, error) {
	return NewMatrix(defaultAmounts)
}

// Amount returns the fixed commission for the given combination.
func (m *Matrix) Amount(referrer, referee models.PackageTier, level int) (float64, error) {
	if !referrer.Valid() || !referee.Valid() || (level != models.ReferralLevel1 && level != models.ReferralLevel2) {
		return 0, &ValidationError{Referrer: referrer, Referee: referee, Level: level}
	}
	return m.amounts[matrixKey{referrer, referee, level}], nil
}
