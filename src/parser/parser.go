package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// TransactionType classifies the direction of a parsed bank SMS.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeUnknown    TransactionType = ""
)

// ParsedMessage holds the structured fields recovered from one bank
// notification SMS. Missing string fields are empty, missing numeric
// fields are zero. Parsed is false only when an internal fault occurred;
// a message matching none of the patterns still reports Parsed = true.
// Callers deciding whether a message is usable must additionally check
// TransactionType != TypeUnknown.
type ParsedMessage struct {
	TransactionType TransactionType
	BankName        string
	Amount          float64
	Balance         float64
	SenderName      string
	AccountNumber   string
	Parsed          bool
}

// bankNames is the ordered table of recognized bank tokens. The first
// table entry contained in the message wins; later occurrences of other
// banks in the text are ignored.
var bankNames = []string{
	"농협", "신한", "국민", "우리", "하나", "기업",
	"SC제일", "씨티", "대구", "부산", "광주", "전북",
	"경남", "새마을", "신협", "우체국", "카카오뱅크", "토스뱅크",
}

const (
	depositKeyword    = "입금"
	withdrawalKeyword = "출금"
	balanceKeyword    = "잔액"
)

var (
	// e.g. "출금700,000원" or "입금 1,000원"
	amountRe = regexp.MustCompile(`(` + depositKeyword + `|` + withdrawalKeyword + `)\s*([\d,]+)원`)
	// e.g. "잔액307,006원"
	balanceRe = regexp.MustCompile(balanceKeyword + `\s*([\d,]+)원`)
	// name between the masked account number and the balance keyword,
	// e.g. "302-****-5080-61 신주일 잔액"
	senderRe = regexp.MustCompile(`[\d*-]+\s+([가-힣A-Za-z\s]+)\s+` + balanceKeyword)
	// partially masked account number, e.g. "302-****-5080-61"
	accountRe = regexp.MustCompile(`\d{2,3}-[\d*-]+`)
)

// Parse extracts structured transaction fields from a bank SMS body.
// It never returns an error: unrecoverable fields stay at their zero
// values and only an internal fault clears the Parsed flag.
//
// Example input:
//
//	[Web발신]
//	농협 출금700,000원
//	06/27 13:00 302-****-5080-61 신주일 잔액307,006원
func Parse(message string) (result ParsedMessage) {
	defer func() {
		if r := recover(); r != nil {
			result = ParsedMessage{}
		}
	}()

	result.BankName = extractBankName(message)
	result.TransactionType = extractTransactionType(message)
	result.Amount = extractKeywordAmount(message)
	result.Balance = extractBalance(message)
	result.SenderName = extractSenderName(message)
	result.AccountNumber = extractAccountNumber(message)
	result.Parsed = true
	return result
}

func extractBankName(message string) string {
	for _, bank := range bankNames {
		if strings.Contains(message, bank) {
			return bank
		}
	}
	return ""
}

func extractTransactionType(message string) TransactionType {
	hasDeposit := strings.Contains(message, depositKeyword)
	hasWithdrawal := strings.Contains(message, withdrawalKeyword)
	switch {
	case hasDeposit && !hasWithdrawal:
		return TypeDeposit
	case hasWithdrawal && !hasDeposit:
		return TypeWithdrawal
	default:
		// Both or neither keyword present: direction is unrecoverable.
		return TypeUnknown
	}
}

func extractKeywordAmount(message string) float64 {
	matches := amountRe.FindStringSubmatch(message)
	if matches == nil {
		return 0
	}
	return parseCommaAmount(matches[2])
}

func extractBalance(message string) float64 {
	matches := balanceRe.FindStringSubmatch(message)
	if matches == nil {
		return 0
	}
	return parseCommaAmount(matches[1])
}

func extractSenderName(message string) string {
	matches := senderRe.FindStringSubmatch(message)
	if matches == nil {
		return ""
	}
	return strings.TrimSpace(matches[1])
}

func extractAccountNumber(message string) string {
	return accountRe.FindString(message)
}

func parseCommaAmount(s string) float64 {
	value, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}
