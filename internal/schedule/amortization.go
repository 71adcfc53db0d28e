package schedule

import (
	"time"

	"budgetledger/internal/errs"

	"github.com/shopspring/decimal"
)

// 中间计算保留的小数位
const ratePrecision = 20

var (
	one           = decimal.NewFromInt(1)
	twelveHundred = decimal.NewFromInt(1200)
)

// AmortizationRow 还款计划中的一期
type AmortizationRow struct {
	Period         int       `json:"period"`
	DueDate        time.Time `json:"due_date"`
	PaymentCents   int64     `json:"payment_cents"`
	PrincipalCents int64     `json:"principal_cents"`
	InterestCents  int64     `json:"interest_cents"`
	BalanceCents   int64     `json:"balance_cents"`
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.DivRound(twelveHundred, ratePrecision)
}

// MonthlyPayment returns the fixed payment P·r·(1+r)^n / ((1+r)^n − 1),
// rounded half-up to cents. With a zero rate it is P/n truncated; the final
// period of the schedule absorbs the remainder.
func MonthlyPayment(principal int64, annualRatePercent decimal.Decimal, termMonths int) (int64, error) {
	if err := validateLoan(principal, annualRatePercent, termMonths); err != nil {
		return 0, err
	}
	r := MonthlyRate(annualRatePercent)
	if r.IsZero() {
		return principal / int64(termMonths), nil
	}

	growth := powInt(one.Add(r), termMonths)
	payment := decimal.NewFromInt(principal).
		Mul(r).
		Mul(growth).
		DivRound(growth.Sub(one), ratePrecision)
	return payment.Round(0).IntPart(), nil
}

// Amortize builds the payment schedule of a fixed-rate loan. The final
// period pays off whatever balance is left so the schedule always ends at
// exactly zero.
func Amortize(principal int64, annualRatePercent decimal.Decimal, termMonths int, start time.Time) ([]AmortizationRow, error) {
	payment, err := MonthlyPayment(principal, annualRatePercent, termMonths)
	if err != nil {
		return nil, err
	}
	r := MonthlyRate(annualRatePercent)

	var zeroRateSplit []int64
	if r.IsZero() {
		if zeroRateSplit, err = SplitInstallments(principal, termMonths); err != nil {
			return nil, err
		}
	}

	rows := make([]AmortizationRow, 0, termMonths)
	remaining := principal
	for period := 1; period <= termMonths; period++ {
		due, err := DueDate(start, Monthly, period)
		if err != nil {
			return nil, err
		}

		var interest, principalPart int64
		if zeroRateSplit != nil {
			principalPart = zeroRateSplit[period-1]
		} else {
			interest = decimal.NewFromInt(remaining).Mul(r).Round(0).IntPart()
			principalPart = payment - interest
		}
		if period == termMonths || principalPart > remaining {
			principalPart = remaining
		}
		if principalPart < 0 {
			principalPart = 0
		}

		remaining -= principalPart
		if remaining < 0 {
			remaining = 0
		}

		rows = append(rows, AmortizationRow{
			Period:         period,
			DueDate:        due,
			PaymentCents:   principalPart + interest,
			PrincipalCents: principalPart,
			InterestCents:  interest,
			BalanceCents:   remaining,
		})
	}
	return rows, nil
}

// MaxTermMonths bounds a loan term at fifty years.
const MaxTermMonths = 600

func validateLoan(principal int64, annualRatePercent decimal.Decimal, termMonths int) error {
	if principal <= 0 {
		return errs.New(errs.KindZeroOrNegativeAmount, "principal must be positive, got %d", principal)
	}
	if termMonths < 1 {
		return errs.New(errs.KindInvalidArgument, "term must be at least one month, got %d", termMonths)
	}
	if termMonths > MaxTermMonths {
		return errs.New(errs.KindInvalidArgument, "term must be at most %d months, got %d", MaxTermMonths, termMonths)
	}
	if annualRatePercent.IsNegative() {
		return errs.New(errs.KindInvalidArgument, "annual rate must not be negative, got %s", annualRatePercent)
	}
	return nil
}

// powInt raises base to a non-negative integer power, rounding each step
// to ratePrecision places.
func powInt(base decimal.Decimal, n int) decimal.Decimal {
	result := one
	for i := 0; i < n; i++ {
		result = result.Mul(base).Round(ratePrecision)
	}
	return result
}
