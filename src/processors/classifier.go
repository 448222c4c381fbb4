package processors

import (
	"strings"

	"github.com/coolchillgy/pay/src/parser"
)

// Settlement carries the classification derived from a parsed message
// under one company's fee configuration.
type Settlement struct {
	FeeAmount float64
	IsRolling bool
}

// Classify derives the settlement fee and rolling-transfer flag for a
// parsed message. It is a pure function: no I/O, no error path. Fields
// the parser could not recover (zero amount, unknown type) are
// classified as-is; deciding whether such a message is persisted at all
// is the ingestion pipeline's call.
func Classify(parsed parser.ParsedMessage, feeRate float64, accountHolder string) Settlement {
	var s Settlement

	// Fees apply to deposits only.
	if parsed.TransactionType == parser.TypeDeposit {
		s.FeeAmount = parsed.Amount * feeRate
	}

	// A rolling transfer is a self-transfer: the counterparty name
	// contains the company's own registered account holder. Literal
	// case-sensitive substring containment, no normalization.
	if parsed.SenderName != "" && accountHolder != "" && strings.Contains(parsed.SenderName, accountHolder) {
		s.IsRolling = true
	}

	return s
}
