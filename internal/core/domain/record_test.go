package domain_test

import (
	"testing"
	"time"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSourceRecord_SignedAmount(t *testing.T) {
	record := &domain.SourceRecord{
		Direction: domain.Debit,
		Amount:    decimal.RequireFromString("150.00"),
	}
	assert.True(t, record.SignedAmount().Equal(decimal.RequireFromString("-150.00")))

	record.Direction = domain.Credit
	assert.True(t, record.SignedAmount().Equal(decimal.RequireFromString("150.00")))
}

func TestSourceRecord_AddPurpose(t *testing.T) {
	record := &domain.SourceRecord{}

	record.AddPurpose("  Spende ")
	assert.Equal(t, "Spende", record.Purpose)

	record.AddPurpose("Januar")
	assert.Equal(t, "Spende Januar", record.Purpose)
}

func TestSourceRecord_AddCounterName(t *testing.T) {
	record := &domain.SourceRecord{}

	record.AddCounterName("Vorname")
	record.AddCounterName("Nachname")
	assert.Equal(t, "Vorname Nachname", record.CounterName)
}

func TestSourceRecord_PurposeClean(t *testing.T) {
	tests := []struct {
		name    string
		purpose string
		want    string
	}{
		{name: "plain purpose untouched", purpose: "Spende 123", want: "Spende 123"},
		{name: "svwz prefix stripped", purpose: "SVWZ+Spende 123", want: "Spende 123"},
		{
			name:    "references stripped",
			purpose: "EREF+E-2024-01 KREF+K99 SVWZ+Miete Januar",
			want:    "Miete Januar",
		},
		{name: "mandate reference stripped", purpose: "MREF+M123 Beitrag", want: "Beitrag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &domain.SourceRecord{Purpose: tt.purpose}
			assert.Equal(t, tt.want, record.PurposeClean())
		})
	}
}

func TestSourceRecord_BookingTextClean(t *testing.T) {
	record := &domain.SourceRecord{BookingText: "UEBERWEISUNG"}
	assert.Equal(t, "ÜBERWEISUNG", record.BookingTextClean())
}

func TestSourceRecord_Direction(t *testing.T) {
	record := &domain.SourceRecord{
		ValueDate: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Direction: domain.Credit,
	}
	assert.True(t, record.IsCredit())
	assert.False(t, record.IsDebit())
}
