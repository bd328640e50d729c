package commission

import (
	"testing"

	"github.com/earnkart/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatrixComplete(t *testing.T) {
	matrix, err := DefaultMatrix()
	require.NoError(t, err)

	tiers := []models.PackageTier{models.TierSilver, models.TierGold, models.TierPlatinum}
	for _, referrer := range tiers {
		for _, referee := range tiers {
			for _, level := range []int{models.ReferralLevel1, models.ReferralLevel2} {
				amount, err := matrix.Amount(referrer, referee, level)
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, amount, 0.0)
			}
		}
	}
}

func TestMatrixAmounts(t *testing.T) {
	matrix, err := DefaultMatrix()
	require.NoError(t, err)

	amount, err := matrix.Amount(models.TierSilver, models.TierGold, models.ReferralLevel1)
	require.NoError(t, err)
	assert.Equal(t, 2375.0, amount)

	amount, err = matrix.Amount(models.TierSilver, models.TierPlatinum, models.ReferralLevel1)
	require.NoError(t, err)
	assert.Equal(t, 2875.0, amount)

	amount, err = matrix.Amount(models.TierSilver, models.TierPlatinum, models.ReferralLevel2)
	require.NoError(t, err)
	assert.Equal(t, 400.0, amount)
}

func TestMatrixInvalidInput(t *testing.T) {
	matrix, err := DefaultMatrix()
	require.NoError(t, err)

	_, err = matrix.Amount(0, models.TierGold, models.ReferralLevel1)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = matrix.Amount(models.TierSilver, 99, models.ReferralLevel1)
	assert.ErrorAs(t, err, &validationErr)

	_, err = matrix.Amount(models.TierSilver, models.TierGold, 3)
	assert.ErrorAs(t, err, &validationErr)
}

func TestNewMatrixMissingEntry(t *testing.T) {
	incomplete := make(map[matrixKey]float64, len(defaultAmounts))
	for k, v := range defaultAmounts {
		incomplete[k] = v
	}
	delete(incomplete, matrixKey{models.TierGold, models.TierGold, models.ReferralLevel2})

	_, err := NewMatrix(incomplete)
	var configErr *ConfigurationError
	assert.ErrorAs(t, err, &configErr)
}

func TestNewMatrixNegativeAmount(t *testing.T) {
	invalid := make(map[matrixKey]float64, len(defaultAmounts))
	for k, v := range defaultAmounts {
		invalid[k] = v
	}
	invalid[matrixKey{models.TierSilver, models.TierSilver, models.ReferralLevel1}] = -1

	_, err := NewMatrix(invalid)
	var configErr *ConfigurationError
	assert.ErrorAs(t, err, &configErr)
}
