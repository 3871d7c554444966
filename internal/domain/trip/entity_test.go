//go:build unit

package trip_test

import (
	"encoding/json"
	"testing"
	"time"

	"booking-engine/internal/domain/trip"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	quoteID := uuid.New()

	tests := []struct {
		name     string
		quoteID  uuid.UUID
		order    string
		pnr      string
		etickets []string
		errIs    error
	}{
		{name: "valid", quoteID: quoteID, order: "ord_1", pnr: "abc12", etickets: []string{"0711", "0712"}},
		{name: "nil quote", quoteID: uuid.Nil, order: "ord_1", pnr: "ABC12", etickets: []string{"0711"}, errIs: trip.ErrMissingQuote},
		{name: "missing order", quoteID: quoteID, order: " ", pnr: "ABC12", etickets: []string{"0711"}, errIs: trip.ErrMissingSupplierOrder},
		{name: "missing pnr", quoteID: quoteID, order: "ord_1", pnr: "", etickets: []string{"0711"}, errIs: trip.ErrMissingPNR},
		{name: "blank tickets", quoteID: quoteID, order: "ord_1", pnr: "ABC12", etickets: []string{" "}, errIs: trip.ErrMissingTickets},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := trip.NewTrip(tt.quoteID, tt.order, tt.pnr, tt.etickets, nil, now)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				assert.Nil(t, actual)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ABC12", actual.PNR())
			assert.Equal(t, tt.etickets, actual.ETickets())
			assert.Equal(t, json.RawMessage(`{}`), actual.Raw())
			assert.Equal(t, now, actual.CreatedAt())
		})
	}
}
