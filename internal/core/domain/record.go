package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether a transaction moved money to or away from the
// statement's own account.
type Direction string

const (
	// Credit means money was transferred to the account.
	Credit Direction = "CREDIT"
	// Debit means money was transferred away from the account.
	Debit Direction = "DEBIT"
)

// structuredReferences matches the structured reference tokens some banks
// inject into the purpose field (SEPA purpose, end-to-end/customer/mandate
// references).
var structuredReferences = regexp.MustCompile(`(SVWZ\+|EREF\+\S* ?|KREF\+\S* ?|MREF\+\S* ?)`)

// SourceRecord is one parsed bank transaction. The amount is always stored
// positive, the sign is carried by Direction. Purpose and counterparty name
// are accumulated from possibly many statement subfields.
type SourceRecord struct {
	AccountLabel    string          `json:"accountLabel"`
	ValueDate       time.Time       `json:"valueDate"`
	Direction       Direction       `json:"direction"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionCode string          `json:"transactionCode"`
	BookingText     string          `json:"bookingText"`
	Purpose         string          `json:"purpose"`
	BankCode        string          `json:"bankCode"`
	CounterAccount  string          `json:"counterAccount"`
	CounterName     string          `json:"counterName"`
}

// IsCredit reports whether money came in.
func (r *SourceRecord) IsCredit() bool {
	return r.Direction == Credit
}

// IsDebit reports whether money went out.
func (r *SourceRecord) IsDebit() bool {
	return r.Direction == Debit
}

// SignedAmount returns the amount, negated for debit records.
func (r *SourceRecord) SignedAmount() decimal.Decimal {
	if r.IsDebit() {
		return r.Amount.Neg()
	}
	return r.Amount
}

// AddPurpose appends one purpose subfield, space-joined with what is
// already there.
func (r *SourceRecord) AddPurpose(segment string) {
	r.Purpose = appendSegment(r.Purpose, segment)
}

// AddCounterName appends one counterparty name subfield.
func (r *SourceRecord) AddCounterName(segment string) {
	r.CounterName = appendSegment(r.CounterName, segment)
}

// PurposeClean returns the purpose with bank-injected structured reference
// tokens stripped.
func (r *SourceRecord) PurposeClean() string {
	return structuredReferences.ReplaceAllString(r.Purpose, "")
}

// BookingTextClean returns the booking text with the transliteration the
// banks use for this field undone.
func (r *SourceRecord) BookingTextClean() string {
	return strings.ReplaceAll(r.BookingText, "UE", "Ü")
}

func appendSegment(existing, segment string) string {
	segment = strings.TrimSpace(segment)
	if strings.TrimSpace(existing) == "" {
		return segment
	}
	return existing + " " + segment
}
