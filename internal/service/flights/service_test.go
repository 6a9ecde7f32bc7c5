package flights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skyfare/skyfare/internal/domain"
)

func TestCheckCapacity(t *testing.T) {
	tests := []struct {
		name        string
		flightSeats int
		otherSeats  int
		classSeats  int
		wantErr     bool
	}{
		{"first class fills the flight exactly", 180, 0, 180, false},
		{"first class over capacity", 180, 0, 181, true},
		{"second class fits the remainder", 180, 120, 60, false},
		{"second class overflows by one", 180, 120, 61, true},
		{"flight shrunk below class sum", 100, 120, 0, true},
		{"flight shrunk onto class sum", 120, 120, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkCapacity(tt.flightSeats, tt.otherSeats, tt.classSeats)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCapacityExceeded)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckResize(t *testing.T) {
	tests := []struct {
		name     string
		newSeats int
		sold     int
		held     int
		wantErr  bool
	}{
		{"grow is always fine", 50, 10, 5, false},
		{"shrink onto sold plus held", 15, 10, 5, false},
		{"shrink below sold plus held", 14, 10, 5, true},
		{"held seats alone block a shrink", 4, 0, 5, true},
		{"untouched class can shrink to zero", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkResize(tt.newSeats, tt.sold, tt.held)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSeatsBelowInUse)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidTravelType(t *testing.T) {
	assert.True(t, validTravelType(domain.OneWay))
	assert.True(t, validTravelType(domain.RoundTrip))
	assert.True(t, validTravelType(domain.MultiDestination))
	assert.False(t, validTravelType(domain.TravelType("charter")))
}
