package ledger

// DefaultEpsilon is the tolerance for the balance invariant, in currency
// units. 0.01 covers cent-rounding on two-decimal currencies.
const DefaultEpsilon = 0.01

// Totals sums the debit and credit sides of a line set.
func Totals(lines []Line) (debit, credit float64) {
	for _, l := range lines {
		debit += l.Debit
		credit += l.Credit
	}
	return debit, credit
}

// IsBalanced reports whether total debits equal total credits within
// epsilon. Pass epsilon <= 0 to use DefaultEpsilon.
func IsBalanced(lines []Line, epsilon float64) bool {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	debit, credit := Totals(lines)
	diff := debit - credit
	if diff < 0 {
		diff = -diff
	}
	return diff <= epsilon
}

// balanceDelta is the signed change a line applies to its account's
// running balance, given the account's normal side.
func balanceDelta(line Line, debitNormal bool) float64 {
	if debitNormal {
		return line.Debit - line.Credit
	}
	return line.Credit - line.Debit
}
