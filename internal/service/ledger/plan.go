package ledger

import "github.com/shopspring/decimal"

// plan is the post-operation state of an agent's balance fields.
type plan struct {
	Balance decimal.Decimal
	Credit  decimal.Decimal
}

// planUse debits the balance first and draws any shortfall from the
// credit line. It fails when balance plus undrawn credit cannot cover
// the amount.
func planUse(balance, credit, creditLimit, amount decimal.Decimal) (plan, error) {
	available := balance.Add(creditLimit.Sub(credit))
	if available.LessThan(amount) {
		return plan{}, ErrInsufficientFunds
	}

	fromBalance := amount
	if balance.LessThan(amount) {
		fromBalance = balance
	}
	shortfall := amount.Sub(fromBalance)

	return plan{
		Balance: balance.Sub(fromBalance),
		Credit:  credit.Add(shortfall),
	}, nil
}

// planIncrease pays outstanding credit down first and puts the
// remainder on the balance.
func planIncrease(balance, credit, amount decimal.Decimal) plan {
	payDown := amount
	if credit.LessThan(amount) {
		payDown = credit
	}

	return plan{
		Balance: balance.Add(amount.Sub(payDown)),
		Credit:  credit.Sub(payDown),
	}
}
