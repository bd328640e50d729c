package commission

import (
	"fmt"

	"github.com/earnkart/backend/internal/models"
)

// ValidationError reports an invalid tier or level passed to the matrix.
type ValidationError struct {
	Referrer models.PackageTier
	Referee  models.PackageTier
	Level    int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid commission lookup: referrer=%d referee=%d level=%d", e.Referrer, e.Referee, e.Level)
}

// ConfigurationError means the commission table failed its startup check.
// It is fatal: an incomplete or negative table must never serve lookups.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "commission matrix misconfigured: " + e.Reason
}
