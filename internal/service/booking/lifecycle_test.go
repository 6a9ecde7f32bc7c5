package booking

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/pricing"
	"github.com/skyfare/skyfare/internal/service/inventory"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func orderIn(status domain.TicketStatus) *domain.Order {
	return &domain.Order{PNR: "F1", TicketStatus: status}
}

func TestRequireStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.TicketStatus
		want    domain.TicketStatus
		wantErr bool
	}{
		{"cancel from booking", domain.StatusBooking, domain.StatusBooking, false},
		{"cancel after ticketing", domain.StatusTicketing, domain.StatusBooking, true},
		{"promote from booking", domain.StatusBooking, domain.StatusBooking, false},
		{"promote twice", domain.StatusTicketing, domain.StatusBooking, true},
		{"refund a ticketed order", domain.StatusTicketing, domain.StatusTicketing, false},
		{"refund an unpaid booking", domain.StatusBooking, domain.StatusTicketing, true},
		{"refund twice", domain.StatusRefunded, domain.StatusTicketing, true},
		{"split a canceled order", domain.StatusCanceled, domain.StatusTicketing, true},
		{"split an already split order", domain.StatusSplit, domain.StatusTicketing, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := requireStatus(orderIn(tt.status), tt.want)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrStateConflict)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReleasePlan_RestoresUsedSeatsPerLeg(t *testing.T) {
	o := &domain.Order{
		UsedSeats: 2,
		Legs: []domain.Leg{
			{ClassID: 10},
			{ClassID: 20},
		},
	}

	plan := releasePlan(o)

	require.Len(t, plan, 2)
	assert.Equal(t, 2, plan[10])
	assert.Equal(t, 2, plan[20])
}

func TestReleasePlan_SameClassBothLegs(t *testing.T) {
	o := &domain.Order{
		UsedSeats: 1,
		Legs: []domain.Leg{
			{ClassID: 10},
			{ClassID: 10},
		},
	}

	assert.Equal(t, map[int64]int{10: 2}, releasePlan(o))
}

// highCommissionQuote prices a class whose commission is larger than
// its agent cost: fare 100 with a 60 commission leaves a 40 cost.
func highCommissionQuote(t *testing.T) pricing.Quote {
	t.Helper()

	q, err := pricing.Compute(pricing.Input{
		Class: domain.Class{
			Currency:  "USD",
			FareAdult: dec("100"),
			CommAdult: dec("60"),
		},
		Counts:     pricing.Counts{Adults: 1},
		TravelType: domain.OneWay,
		Rate:       domain.Rate{Currency: "USD", Value: dec("1")},
	})
	require.NoError(t, err)

	return q
}

func TestRefundAmounts_SplitsFrozenCommission(t *testing.T) {
	q := highCommissionQuote(t)
	price := pricing.TicketPrice([]pricing.Quote{q}, pricing.Counts{Adults: 1}, pricing.ViewPassenger)

	agent, commission, err := refundAmounts(price)
	require.NoError(t, err)

	assert.True(t, agent.Equal(dec("40")))
	assert.True(t, commission.Equal(dec("60")))
	// the two credits reproduce the original debit exactly
	assert.True(t, agent.Add(commission).Equal(price.Total))
}

func TestRefundAmounts_CostBasisCarriesNoCommission(t *testing.T) {
	q := highCommissionQuote(t)
	price := pricing.TicketPrice([]pricing.Quote{q}, pricing.Counts{Adults: 1}, pricing.ViewCost)

	agent, commission, err := refundAmounts(price)
	require.NoError(t, err)

	// nothing was charged beyond the cost, so nothing is withheld
	assert.True(t, agent.Equal(dec("40")))
	assert.True(t, commission.IsZero())
}

func TestRefundAmounts_RejectsCommissionAboveTotal(t *testing.T) {
	price := domain.TicketPrice{
		Total:      dec("40"),
		Commission: dec("60"),
	}

	_, _, err := refundAmounts(price)
	assert.ErrorIs(t, err, ErrCommissionExceedsTotal)
}

func TestTranslateCommitErr(t *testing.T) {
	wrapped := fmt.Errorf("service.inventory.Commit:%w", inventory.ErrNotEnoughSeats)
	assert.ErrorIs(t, translateCommitErr(wrapped), ErrNotEnoughSeats)

	plain := errors.New("connection reset")
	got := translateCommitErr(plain)
	assert.Equal(t, plain, got)
	assert.NotErrorIs(t, got, ErrNotEnoughSeats)
}
