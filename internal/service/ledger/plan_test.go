package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPlanUse_BalanceCoversAll(t *testing.T) {
	p, err := planUse(dec("500"), dec("0"), dec("100"), dec("300"))
	require.NoError(t, err)

	assert.True(t, p.Balance.Equal(dec("200")))
	assert.True(t, p.Credit.Equal(dec("0")))
}

func TestPlanUse_ShortfallDrawsCredit(t *testing.T) {
	p, err := planUse(dec("50"), dec("0"), dec("100"), dec("120"))
	require.NoError(t, err)

	assert.True(t, p.Balance.Equal(dec("0")))
	assert.True(t, p.Credit.Equal(dec("70")))
}

func TestPlanUse_CreditLineScenario(t *testing.T) {
	// zero balance, credit line of 100: exactly 100 passes, 101 fails
	p, err := planUse(dec("0"), dec("0"), dec("100"), dec("100"))
	require.NoError(t, err)
	assert.True(t, p.Credit.Equal(dec("100")))

	_, err = planUse(dec("0"), dec("0"), dec("100"), dec("101"))
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestPlanUse_PartiallyDrawnCredit(t *testing.T) {
	// 30 of the 100 line already drawn leaves 70 usable
	_, err := planUse(dec("0"), dec("30"), dec("100"), dec("71"))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	p, err := planUse(dec("0"), dec("30"), dec("100"), dec("70"))
	require.NoError(t, err)
	assert.True(t, p.Credit.Equal(dec("100")))
}

func TestPlanIncrease_PaysCreditFirst(t *testing.T) {
	p := planIncrease(dec("10"), dec("40"), dec("100"))

	assert.True(t, p.Credit.Equal(dec("0")))
	assert.True(t, p.Balance.Equal(dec("70")))
}

func TestPlanIncrease_AllToCredit(t *testing.T) {
	p := planIncrease(dec("0"), dec("80"), dec("50"))

	assert.True(t, p.Credit.Equal(dec("30")))
	assert.True(t, p.Balance.Equal(dec("0")))
}

func TestPlanIncrease_NoCreditDrawn(t *testing.T) {
	p := planIncrease(dec("25"), dec("0"), dec("50"))

	assert.True(t, p.Credit.Equal(dec("0")))
	assert.True(t, p.Balance.Equal(dec("75")))
}

func TestUseThenIncreaseRoundTrips(t *testing.T) {
	p, err := planUse(dec("20"), dec("0"), dec("100"), dec("90"))
	require.NoError(t, err)

	back := planIncrease(p.Balance, p.Credit, dec("90"))

	assert.True(t, back.Balance.Equal(dec("20")))
	assert.True(t, back.Credit.Equal(dec("0")))
}
