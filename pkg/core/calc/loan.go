package calc

import (
	"math"
)

// LoanInput describes a fixed-rate amortizing retrofit loan.
type LoanInput struct {
	Principal  float64
	TermYears  int
	AnnualRate float64 // e.g. 0.06
}

// LoanResult holds the amortization outputs. Balances has TermYears+1
// entries: the remaining balance at the end of year t for t=0..TermYears,
// starting at the principal and ending at zero.
type LoanResult struct {
	MonthlyPayment float64
	TotalInterest  float64
	Balances       []float64
}

// ComputeLoan runs standard fixed-rate amortization.
//
// Edge contracts: zero principal means zero payment, zero interest, and an
// all-zero balance array; a zero rate amortizes linearly at P/n.
func ComputeLoan(input LoanInput) LoanResult {
	termYears := input.TermYears
	if termYears < 0 {
		termYears = 0
	}
	balances := make([]float64, termYears+1)

	if input.Principal <= 0 || termYears == 0 {
		return LoanResult{MonthlyPayment: 0, TotalInterest: 0, Balances: balances}
	}

	principal := input.Principal
	months := float64(termYears * 12)

	// 1. Zero-rate loan: linear amortization P/n
	if input.AnnualRate == 0 {
		monthly := principal / months
		for t := 0; t <= termYears; t++ {
			remaining := principal - monthly*12*float64(t)
			balances[t] = Round2(math.Max(0, remaining))
		}
		return LoanResult{
			MonthlyPayment: Round2(monthly),
			TotalInterest:  0,
			Balances:       balances,
		}
	}

	// 2. Closed-form payment: M = P*r*(1+r)^n / ((1+r)^n - 1)
	monthlyRate := input.AnnualRate / 12
	growth := math.Pow(1+monthlyRate, months)
	monthly := principal * monthlyRate * growth / (growth - 1)

	// 3. Remaining balance at end of year t from the same closed form:
	// B(t) = P*(1+r)^(12t) - M*((1+r)^(12t) - 1)/r
	for t := 0; t <= termYears; t++ {
		growthT := math.Pow(1+monthlyRate, float64(12*t))
		remaining := principal*growthT - monthly*(growthT-1)/monthlyRate
		balances[t] = Round2(math.Max(0, remaining))
	}

	// 4. Total interest over the full term
	totalInterest := monthly*months - principal

	return LoanResult{
		MonthlyPayment: Round2(monthly),
		TotalInterest:  Round2(totalInterest),
		Balances:       balances,
	}
}
