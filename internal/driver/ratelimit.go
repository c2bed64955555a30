package driver

import (
	"math"

	"golang.org/x/time/rate"
)

// NewListingLimiter caps SFTP directory listings to perSec requests per
// second across all listing tasks. The burst equals one second's worth of
// requests so a fresh crawl starts at full speed. perSec <= 0 returns nil,
// which means unlimited.
func NewListingLimiter(perSec float64) *rate.Limiter {
	if perSec <= 0 {
		return nil
	}
	burst := max(1, int(math.Ceil(perSec)))
	return rate.NewLimiter(rate.Limit(perSec), burst)
}
