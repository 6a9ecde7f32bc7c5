package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyfare/skyfare/internal/domain"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 10, 0, 0, 0, time.UTC)
}

func twoLegs(out, back time.Time) []domain.Leg {
	return []domain.Leg{
		{
			Origin: "KBP", Destination: "IST",
			DepartsAt: out, ArrivesAt: out.Add(3 * time.Hour),
			AirlineCode: "PQ",
		},
		{
			Origin: "IST", Destination: "KBP",
			DepartsAt: back, ArrivesAt: back.Add(3 * time.Hour),
			AirlineCode: "PQ",
		},
	}
}

func TestValidateLegCount(t *testing.T) {
	require.NoError(t, validateLegCount(domain.OneWay, 1))
	require.NoError(t, validateLegCount(domain.RoundTrip, 2))
	require.NoError(t, validateLegCount(domain.MultiDestination, 2))

	assert.ErrorIs(t, validateLegCount(domain.OneWay, 2), ErrInvalidItinerary)
	assert.ErrorIs(t, validateLegCount(domain.RoundTrip, 1), ErrInvalidItinerary)
	assert.ErrorIs(t, validateLegCount(domain.TravelType("charter"), 1), ErrInvalidTravelType)
}

func TestValidateLegRoute(t *testing.T) {
	legs := twoLegs(day(2026, 9, 1), day(2026, 9, 8))
	require.NoError(t, validateLegRoute(domain.RoundTrip, legs))

	mixed := twoLegs(day(2026, 9, 1), day(2026, 9, 8))
	mixed[1].AirlineCode = "TK"
	assert.ErrorIs(t, validateLegRoute(domain.RoundTrip, mixed), ErrInvalidItinerary)

	backwards := twoLegs(day(2026, 9, 8), day(2026, 9, 1))
	assert.ErrorIs(t, validateLegRoute(domain.RoundTrip, backwards), ErrInvalidItinerary)

	openJaw := twoLegs(day(2026, 9, 1), day(2026, 9, 8))
	openJaw[1].Destination = "WAW"
	assert.ErrorIs(t, validateLegRoute(domain.RoundTrip, openJaw), ErrInvalidItinerary)

	// multi-destination does not require a closed loop
	require.NoError(t, validateLegRoute(domain.MultiDestination, openJaw))
}

func TestTripDays(t *testing.T) {
	assert.Equal(t, 0, tripDays(twoLegs(day(2026, 9, 1), day(2026, 9, 8))[:1]))
	assert.Equal(t, 7, tripDays(twoLegs(day(2026, 9, 1), day(2026, 9, 8))))
	assert.Equal(t, 2, tripDays(twoLegs(day(2026, 9, 1), day(2026, 9, 3))))
	assert.Equal(t, 20, tripDays(twoLegs(day(2026, 9, 1), day(2026, 9, 21))))
}

func TestPassengerAgeOK(t *testing.T) {
	legs := twoLegs(day(2026, 9, 1), day(2026, 9, 8))

	// turns 13 before the return leg
	dob := day(2013, 9, 5)
	assert.True(t, passengerAgeOK(domain.Child, dob, legs[:1]))
	assert.False(t, passengerAgeOK(domain.Child, dob, legs))

	// infant within 2 years
	assert.True(t, passengerAgeOK(domain.Infant, day(2025, 1, 1), legs))
	assert.False(t, passengerAgeOK(domain.Infant, day(2023, 6, 1), legs))

	// adults are never age-checked
	assert.True(t, passengerAgeOK(domain.Adult, day(1970, 1, 1), legs))
}

func TestCountByType(t *testing.T) {
	adults, children, infants := countByType([]PassengerInput{
		{Type: domain.Adult},
		{Type: domain.Adult},
		{Type: domain.Child},
		{Type: domain.Infant},
	})

	assert.Equal(t, 2, adults)
	assert.Equal(t, 1, children)
	assert.Equal(t, 1, infants)
}
