package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
)

// RecordResponse defines the data returned for one parsed bank transaction.
type RecordResponse struct {
	AccountLabel    string          `json:"accountLabel"`
	ValueDate       time.Time       `json:"valueDate"`
	Direction       string          `json:"direction"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionCode string          `json:"transactionCode"`
	BookingText     string          `json:"bookingText"`
	Purpose         string          `json:"purpose"`
	PurposeClean    string          `json:"purposeClean"`
	BankCode        string          `json:"bankCode"`
	CounterAccount  string          `json:"counterAccount"`
	CounterName     string          `json:"counterName"`
}

// ParseStatementResponse defines the data returned for a parsed statement.
type ParseStatementResponse struct {
	Records []RecordResponse `json:"records"`
	Count   int              `json:"count"`
}

// ToRecordResponse converts a domain.SourceRecord to a RecordResponse DTO.
func ToRecordResponse(record *domain.SourceRecord) RecordResponse {
	return RecordResponse{
		AccountLabel:    record.AccountLabel,
		ValueDate:       record.ValueDate,
		Direction:       string(record.Direction),
		Amount:          record.Amount,
		TransactionCode: record.TransactionCode,
		BookingText:     record.BookingText,
		Purpose:         record.Purpose,
		PurposeClean:    record.PurposeClean(),
		BankCode:        record.BankCode,
		CounterAccount:  record.CounterAccount,
		CounterName:     record.CounterName,
	}
}

// ToParseStatementResponse converts parsed records to the response DTO.
func ToParseStatementResponse(records []*domain.SourceRecord) ParseStatementResponse {
	out := make([]RecordResponse, len(records))
	for i, record := range records {
		out[i] = ToRecordResponse(record)
	}
	return ParseStatementResponse{Records: out, Count: len(out)}
}

// ToSourceRecord converts a RecordResponse back into the domain record, used
// when a stored month is uploaded for saving.
func (r RecordResponse) ToSourceRecord() *domain.SourceRecord {
	return &domain.SourceRecord{
		AccountLabel:    r.AccountLabel,
		ValueDate:       r.ValueDate,
		Direction:       domain.Direction(r.Direction),
		Amount:          r.Amount,
		TransactionCode: r.TransactionCode,
		BookingText:     r.BookingText,
		Purpose:         r.Purpose,
		BankCode:        r.BankCode,
		CounterAccount:  r.CounterAccount,
		CounterName:     r.CounterName,
	}
}
