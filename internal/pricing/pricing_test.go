package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyfare/skyfare/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testClass() domain.Class {
	return domain.Class{
		ID:             1,
		FlightID:       1,
		Name:           "Economy",
		Currency:       "USD",
		FareAdult:      dec("100"),
		FareChild:      dec("80"),
		FareInfant:     dec("10"),
		TaxAdult:       dec("20"),
		TaxChild:       dec("15"),
		CatFee:         dec("5"),
		SurchargeShort: dec("30"),
		SurchargeLong:  dec("50"),
		SurchargeMulti: dec("40"),
		CommAdult:      dec("12"),
		CommChild:      dec("8"),
	}
}

func testRate(v string) domain.Rate {
	return domain.Rate{
		Currency: "USD",
		Value:    dec(v),
		Date:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCompute_OneWay(t *testing.T) {
	q, err := Compute(Input{
		Class:      testClass(),
		Counts:     Counts{Adults: 2, Children: 1, Infants: 1},
		TravelType: domain.OneWay,
		Rate:       testRate("1"),
	})
	require.NoError(t, err)

	// adult: 100 + 20 + 5 - 12 = 113 agent, 125 passenger
	assert.True(t, q.Adult.UnitAgent.Equal(dec("113")))
	assert.True(t, q.Adult.UnitPassenger.Equal(dec("125")))
	// child: 80 + 15 + 5 - 8 = 92 agent, 100 passenger
	assert.True(t, q.Child.UnitAgent.Equal(dec("92")))
	assert.True(t, q.Child.UnitPassenger.Equal(dec("100")))
	// infant pays the bare infant fare in both views
	assert.True(t, q.Infant.UnitAgent.Equal(dec("10")))
	assert.True(t, q.Infant.UnitPassenger.Equal(dec("10")))

	// 2*113 + 1*92 + 1*10 = 328
	assert.True(t, q.TotalAgentConverted.Equal(dec("328")))
	// 2*125 + 1*100 + 1*10 = 360
	assert.True(t, q.TotalPassengerConverted.Equal(dec("360")))
}

func TestCompute_RoundTripSurcharges(t *testing.T) {
	base := Input{
		Class:      testClass(),
		Counts:     Counts{Adults: 1, Infants: 1},
		TravelType: domain.RoundTrip,
		Rate:       testRate("1"),
	}

	tests := []struct {
		name      string
		tripDays  int
		wantAdult string
	}{
		{"short trip adds short-range surcharge", 2, "143"},
		{"mid-length trip has no surcharge", 7, "113"},
		{"exactly 15 days has no surcharge", 15, "113"},
		{"long trip adds long-range surcharge", 20, "163"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.TripDays = tt.tripDays

			q, err := Compute(in)
			require.NoError(t, err)

			assert.True(t, q.Adult.UnitAgent.Equal(dec(tt.wantAdult)),
				"got %s", q.Adult.UnitAgent)
			// infants never pick up surcharges
			assert.True(t, q.Infant.UnitAgent.Equal(dec("10")))
		})
	}
}

func TestCompute_MultiDestination(t *testing.T) {
	q, err := Compute(Input{
		Class:      testClass(),
		Counts:     Counts{Adults: 1, Children: 1},
		TravelType: domain.MultiDestination,
		TripDays:   1,
		Rate:       testRate("1"),
	})
	require.NoError(t, err)

	// multi surcharge applies regardless of duration
	assert.True(t, q.Adult.UnitAgent.Equal(dec("153")))
	assert.True(t, q.Child.UnitAgent.Equal(dec("132")))
}

func TestCompute_InvalidTravelType(t *testing.T) {
	_, err := Compute(Input{
		Class:      testClass(),
		Counts:     Counts{Adults: 1},
		TravelType: domain.TravelType("charter"),
		Rate:       testRate("1"),
	})
	require.ErrorIs(t, err, ErrInvalidTravelType)
}

func TestCompute_ConversionRounding(t *testing.T) {
	q, err := Compute(Input{
		Class:      testClass(),
		Counts:     Counts{Adults: 3},
		TravelType: domain.OneWay,
		Rate:       testRate("41.283"),
	})
	require.NoError(t, err)

	// 113 * 41.283 = 4664.979, rounds to the nearest whole unit
	assert.True(t, q.Adult.UnitAgentConverted.Equal(dec("4665")))
	// converted totals multiply the already-rounded unit
	assert.True(t, q.Adult.TotalAgentConverted.Equal(dec("13995")))
	// flight-currency total keeps 2 decimal places
	assert.True(t, q.Adult.TotalAgent.Equal(dec("339")))
}

func TestCompute_Deterministic(t *testing.T) {
	in := Input{
		Class:      testClass(),
		Counts:     Counts{Adults: 2, Children: 2, Infants: 1},
		TravelType: domain.RoundTrip,
		TripDays:   20,
		Rate:       testRate("7.45"),
	}

	a, err := Compute(in)
	require.NoError(t, err)
	b, err := Compute(in)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestTicketPrice_Views(t *testing.T) {
	q, err := Compute(Input{
		Class:      testClass(),
		Counts:     Counts{Adults: 1},
		TravelType: domain.OneWay,
		Rate:       testRate("2"),
	})
	require.NoError(t, err)

	passenger := TicketPrice([]Quote{q}, Counts{Adults: 1}, ViewPassenger)
	cost := TicketPrice([]Quote{q}, Counts{Adults: 1}, ViewCost)

	// passenger view charges 125*2 with commission, cost view 113*2
	assert.True(t, passenger.Adult.Each.Equal(dec("250")))
	assert.True(t, cost.Adult.Each.Equal(dec("226")))
	assert.True(t, passenger.Total.Equal(dec("250")))
	assert.True(t, cost.Total.Equal(dec("226")))
}

func TestTicketPrice_SumsLegs(t *testing.T) {
	out, err := Compute(Input{
		Class:      testClass(),
		Counts:     Counts{Adults: 2, Infants: 1},
		TravelType: domain.RoundTrip,
		TripDays:   7,
		Rate:       testRate("1"),
	})
	require.NoError(t, err)

	back := testClass()
	back.FareAdult = dec("90")
	ret, err := Compute(Input{
		Class:      back,
		Counts:     Counts{Adults: 2, Infants: 1},
		TravelType: domain.RoundTrip,
		TripDays:   7,
		Rate:       testRate("1"),
	})
	require.NoError(t, err)

	tp := TicketPrice([]Quote{out, ret}, Counts{Adults: 2, Infants: 1}, ViewCost)

	// 113 out + 103 back
	assert.True(t, tp.Adult.Each.Equal(dec("216")))
	assert.True(t, tp.Adult.Total.Equal(dec("432")))
	assert.True(t, tp.Infant.Each.Equal(dec("20")))
	assert.True(t, tp.Total.Equal(dec("452")))
}

func TestTicketPrice_FreezesCommission(t *testing.T) {
	class := domain.Class{
		Currency:  "USD",
		FareAdult: dec("100"),
		CommAdult: dec("60"),
	}
	q, err := Compute(Input{
		Class:      class,
		Counts:     Counts{Adults: 2},
		TravelType: domain.OneWay,
		Rate:       testRate("1"),
	})
	require.NoError(t, err)

	passenger := TicketPrice([]Quote{q}, Counts{Adults: 2}, ViewPassenger)
	cost := TicketPrice([]Quote{q}, Counts{Adults: 2}, ViewCost)

	// the passenger basis embeds the commission and freezes it
	assert.True(t, passenger.Adult.CommissionEach.Equal(dec("60")))
	assert.True(t, passenger.Commission.Equal(dec("120")))
	assert.True(t, passenger.Total.Equal(dec("200")))
	// withholding the commission leaves exactly the cost basis
	assert.True(t, passenger.Total.Sub(passenger.Commission).Equal(cost.Total))

	// the cost basis was charged without commission, so none is frozen
	assert.True(t, cost.Commission.IsZero())
	assert.True(t, cost.Total.Equal(dec("80")))
}

func TestSplitTicketPrice_Invariant(t *testing.T) {
	orig := domain.TicketPrice{
		Currency:   "USD",
		Rate:       dec("1"),
		Adult:      domain.PartyPrice{Count: 2, Each: dec("226"), CommissionEach: dec("24"), Total: dec("452")},
		Child:      domain.PartyPrice{Count: 1, Each: dec("184"), CommissionEach: dec("16"), Total: dec("184")},
		Infant:     domain.PartyPrice{Count: 1, Each: dec("20"), Total: dec("20")},
		Commission: dec("64"),
		Total:      dec("656"),
	}

	for _, ptype := range []domain.PassengerType{domain.Adult, domain.Child, domain.Infant} {
		t.Run(string(ptype), func(t *testing.T) {
			split, main := SplitTicketPrice(orig, ptype)

			assert.True(t, split.Total.Add(main.Total).Equal(orig.Total))
			assert.True(t, split.Commission.Add(main.Commission).Equal(orig.Commission))
			assert.True(t, split.Adult.Total.Add(main.Adult.Total).Equal(orig.Adult.Total))
			assert.True(t, split.Child.Total.Add(main.Child.Total).Equal(orig.Child.Total))
			assert.True(t, split.Infant.Total.Add(main.Infant.Total).Equal(orig.Infant.Total))
			assert.Equal(t, orig.Adult.Count, split.Adult.Count+main.Adult.Count)
			assert.Equal(t, orig.Child.Count, split.Child.Count+main.Child.Count)
			assert.Equal(t, orig.Infant.Count, split.Infant.Count+main.Infant.Count)
		})
	}
}

func TestSplitTicketPrice_SingleAdult(t *testing.T) {
	orig := domain.TicketPrice{
		Currency: "USD",
		Rate:     dec("1"),
		Adult:    domain.PartyPrice{Count: 1, Each: dec("226"), Total: dec("226")},
		Total:    dec("226"),
	}

	split, main := SplitTicketPrice(orig, domain.Adult)

	assert.True(t, split.Total.Equal(dec("226")))
	assert.Equal(t, 0, main.Adult.Count)
	assert.True(t, main.Total.Equal(decimal.Zero))
	assert.True(t, main.Adult.Each.Equal(decimal.Zero))
}
