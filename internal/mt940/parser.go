// Package mt940 reads and writes the line-oriented bank statement exchange
// format. Logical fields are introduced by colon-delimited prefix tokens and
// may span several physical lines; record groups are terminated by a line
// starting with '-'.
package mt940

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathisdt/optigem-spoonfeeder/internal/apperrors"
	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
)

const (
	prefixAccountLabel = ":25:"
	prefixEntryStart   = ":61:"
	prefixDetails      = ":86:"
)

// field keys of the :86: payload, see https://www.kontopruef.de/mt940s.shtml
const (
	fieldKeyBookingText    = "00"
	fieldKeyBankCode       = "30"
	fieldKeyCounterAccount = "31"
)

var purposeFieldKeys = map[string]bool{
	"20": true, "21": true, "22": true, "23": true, "24": true,
	"25": true, "26": true, "27": true, "28": true, "29": true,
	"60": true, "61": true, "62": true, "63": true,
}

var counterNameFieldKeys = map[string]bool{"32": true, "33": true}

var nonAmount = regexp.MustCompile(`[^\d.]`)

// File holds the parsed statement: all transactions of all record groups,
// in file order.
type File struct {
	Entries []*domain.SourceRecord
}

// numberedLine is one merged logical line plus the physical line number it
// started on, for error reporting.
type numberedLine struct {
	text   string
	number int
}

// Parse reads a full statement. Malformed input (unknown direction code,
// unterminated amount, bad date) aborts the parse with an error naming the
// offending line.
func Parse(r io.Reader) (*File, error) {
	file := &File{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var groupLines []numberedLine
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.HasPrefix(line, "-") {
			if err := parseGroup(file, groupLines); err != nil {
				return nil, err
			}
			groupLines = nil
			continue
		}
		groupLines = append(groupLines, numberedLine{text: line, number: lineNumber})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrParse, err)
	}

	// a file might not end with a trailing '-'
	if err := parseGroup(file, groupLines); err != nil {
		return nil, err
	}
	return file, nil
}

// parseGroup handles one '-'-terminated record group: merge continuation
// lines, track the current account label, open a record per entry-start
// line and feed it the structured detail lines.
func parseGroup(file *File, groupLines []numberedLine) error {
	var (
		current        *domain.SourceRecord
		currentAccount string
	)
	for _, line := range mergeLines(groupLines) {
		if strings.HasPrefix(line.text, prefixAccountLabel) {
			currentAccount = line.text[len(prefixAccountLabel):]
		}

		if strings.HasPrefix(line.text, prefixEntryStart) {
			if current != nil {
				file.Entries = append(file.Entries, current)
			}
			current = &domain.SourceRecord{AccountLabel: currentAccount}
			if err := parseEntryStart(current, line); err != nil {
				return err
			}
		}

		if strings.HasPrefix(line.text, prefixDetails) && current != nil {
			parseDetails(current, line.text[len(prefixDetails):])
		}
	}
	if current != nil {
		file.Entries = append(file.Entries, current)
	}
	return nil
}

// mergeLines joins physical lines into logical fields: a field starts at a
// line beginning with ':' and swallows all following lines that do not,
// until the next ':' line or the end of the group. Header lines before the
// first ':' line are kept one by one.
func mergeLines(groupLines []numberedLine) []numberedLine {
	var merged []numberedLine
	var current *numberedLine
	for _, line := range groupLines {
		if strings.HasPrefix(line.text, ":") {
			if current != nil {
				merged = append(merged, *current)
			}
			current = &numberedLine{text: line.text, number: line.number}
			continue
		}
		if current == nil {
			// still in the header
			merged = append(merged, line)
			continue
		}
		current.text += line.text
	}
	if current != nil {
		merged = append(merged, *current)
	}
	return merged
}

// parseEntryStart consumes the :61: payload left to right: value date,
// optional booking date (skipped), direction character, amount.
func parseEntryStart(record *domain.SourceRecord, line numberedLine) error {
	rest := line.text[len(prefixEntryStart):]

	if len(rest) < 6 {
		return parseError(line, "value date missing in %q", rest)
	}
	valueDate, err := time.Parse("060102", rest[:6])
	if err != nil {
		return parseError(line, "invalid value date %q", rest[:6])
	}
	record.ValueDate = valueDate
	rest = rest[6:]

	// the optional 4-digit booking date is directly followed by the
	// mandatory direction character, so a leading digit can only be the
	// booking date - skip it, it is not stored
	if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		if len(rest) < 4 {
			return parseError(line, "truncated booking date %q", rest)
		}
		rest = rest[4:]
	}

	if rest == "" {
		return parseError(line, "direction code missing")
	}
	switch rest[0] {
	case 'C':
		record.Direction = domain.Credit
	case 'D':
		record.Direction = domain.Debit
	default:
		// only C and D are supported, not RC and RD
		return parseError(line, "unsupported direction code %q", string(rest[0]))
	}
	rest = rest[1:]

	amount, err := parseAmount(rest)
	if err != nil {
		return parseError(line, "%s", err.Error())
	}
	record.Amount = amount
	return nil
}

// parseAmount reads the decimal amount terminated by 'N' or 'F'. The field
// may start with the last character of the currency (e.g. R for EUR), so
// everything that is neither digit nor decimal separator is stripped.
func parseAmount(s string) (decimal.Decimal, error) {
	end := strings.IndexByte(s, 'N')
	if end < 0 {
		end = strings.IndexByte(s, 'F')
	}
	if end < 0 {
		return decimal.Zero, fmt.Errorf("unterminated amount field %q", s)
	}
	raw := strings.ReplaceAll(s[:end], ",", ".")
	raw = nonAmount.ReplaceAllString(raw, "")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s[:end])
	}
	return amount, nil
}

// parseDetails splits the :86: payload into the transaction type code and
// separator-delimited key/value subfields. Unknown keys are ignored.
func parseDetails(record *domain.SourceRecord, payload string) {
	if len(payload) < 4 {
		return
	}
	record.TransactionCode = payload[:3]
	separator := payload[3:4]
	for _, field := range strings.Split(payload[4:], separator) {
		if len(field) < 2 {
			continue
		}
		key, value := field[:2], field[2:]
		switch {
		case key == fieldKeyBookingText:
			record.BookingText = value
		case purposeFieldKeys[key]:
			record.AddPurpose(value)
		case key == fieldKeyBankCode:
			record.BankCode = value
		case key == fieldKeyCounterAccount:
			record.CounterAccount = value
		case counterNameFieldKeys[key]:
			record.AddCounterName(value)
		}
	}
}

func parseError(line numberedLine, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", apperrors.ErrParse, line.number,
		fmt.Sprintf(format, args...))
}
