package mt940

import (
	"strings"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
)

const (
	// purposeSegmentLength is the maximum payload of one ?2x subfield.
	purposeSegmentLength = 27
	// defaultTransactionCode is used when a record carries none.
	defaultTransactionCode = "999"
)

// purposeSegmentKeys are the subfield keys available for the purpose text,
// in emission order.
var purposeSegmentKeys = []string{
	"20", "21", "22", "23", "24", "25", "26", "27", "28", "29",
	"60", "61", "62", "63",
}

// WriteRecord renders one record back into statement text, without the
// group terminator. Opening and closing balances are unknown at this point,
// so zero is written.
func WriteRecord(record *domain.SourceRecord) string {
	date := record.ValueDate.Format("060102")
	var b strings.Builder
	b.WriteString(":20:STARTUMS\n")
	b.WriteString(":25:" + record.AccountLabel + "\n")
	b.WriteString(":28C:1\n")
	b.WriteString(":60F:C" + date + "EUR0,00\n")
	b.WriteString(":61:" + date + directionChar(record) + formatAmount(record) + "NTRF\n")
	b.WriteString(":86:" + detailsPayload(record) + "\n")
	b.WriteString(":62F:C" + date + "EUR0,00")
	return b.String()
}

// WriteUnmatched renders the given records as one statement text, each in
// its own '-'-terminated group, for manual follow-up elsewhere.
func WriteUnmatched(records []*domain.SourceRecord) string {
	var b strings.Builder
	for _, record := range records {
		b.WriteString(WriteRecord(record))
		b.WriteString("\n-\n")
	}
	return b.String()
}

// PurposeSegments splits a purpose text into ?20..?63 subfields of at most
// 27 characters each. Splitting is rune-based so an umlaut sitting on a
// segment boundary is never cut in half.
func PurposeSegments(purpose string) string {
	var b strings.Builder
	runes := []rune(purpose)
	for i := 0; len(runes) > 0 && i < len(purposeSegmentKeys); i++ {
		n := purposeSegmentLength
		if len(runes) < n {
			n = len(runes)
		}
		b.WriteString("?" + purposeSegmentKeys[i] + string(runes[:n]))
		runes = runes[n:]
	}
	return b.String()
}

func detailsPayload(record *domain.SourceRecord) string {
	code := record.TransactionCode
	if code == "" {
		code = defaultTransactionCode
	}
	var b strings.Builder
	b.WriteString(code)
	if record.BookingText != "" {
		b.WriteString("?00" + record.BookingText)
	}
	b.WriteString(PurposeSegments(record.Purpose))
	if record.BankCode != "" {
		b.WriteString("?30" + record.BankCode)
	}
	if record.CounterAccount != "" {
		b.WriteString("?31" + record.CounterAccount)
	}
	if record.CounterName != "" {
		b.WriteString("?32" + record.CounterName)
	}
	return b.String()
}

func directionChar(record *domain.SourceRecord) string {
	if record.IsDebit() {
		return "D"
	}
	return "C"
}

func formatAmount(record *domain.SourceRecord) string {
	return strings.Replace(record.Amount.StringFixed(2), ".", ",", 1)
}
