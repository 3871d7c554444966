//go:build unit

package backoff_test

import (
	"testing"
	"time"

	"booking-engine/internal/pkg/backoff"

	"github.com/stretchr/testify/assert"
)

func TestExponential(t *testing.T) {
	base := 100 * time.Millisecond

	tests := []struct {
		name    string
		attempt int
		max     time.Duration
		lower   time.Duration
		upper   time.Duration
	}{
		{name: "first attempt", attempt: 0, lower: base, upper: base + base/5},
		{name: "third attempt doubles twice", attempt: 2, lower: 4 * base, upper: 4*base + 4*base/5},
		{name: "capped by max", attempt: 10, max: time.Second, lower: time.Second, upper: time.Second + time.Second/5},
		{name: "negative attempt treated as zero", attempt: -3, lower: base, upper: base + base/5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				got := backoff.Exponential(tt.attempt, base, tt.max)
				assert.GreaterOrEqual(t, got, tt.lower)
				assert.LessOrEqual(t, got, tt.upper)
			}
		})
	}
}
