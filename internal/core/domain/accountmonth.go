package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	snapshotFileName  = regexp.MustCompile(`^(.+)-(\d{4})-(\d{2})\.json$`)
	unsafeFilenameRun = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// AccountMonth identifies one persisted result snapshot: the statement's
// account label plus a calendar month.
type AccountMonth struct {
	Account string     `json:"account"`
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
}

// NewAccountMonth creates the key for the given account and month.
func NewAccountMonth(account string, year int, month time.Month) AccountMonth {
	return AccountMonth{Account: account, Year: year, Month: month}
}

// AccountMonthOf derives the key from a record's account label and value
// date.
func AccountMonthOf(record *SourceRecord) AccountMonth {
	return AccountMonth{
		Account: record.AccountLabel,
		Year:    record.ValueDate.Year(),
		Month:   record.ValueDate.Month(),
	}
}

// SanitizeAccount maps an account label to a filename-safe form.
func SanitizeAccount(account string) string {
	s := unsafeFilenameRun.ReplaceAllString(account, "_")
	for {
		collapsed := strings.ReplaceAll(s, "__", "_")
		if collapsed == s {
			return s
		}
		s = collapsed
	}
}

// Filename returns the snapshot filename, `<sanitized-account>-YYYY-MM.json`.
func (m AccountMonth) Filename() string {
	return fmt.Sprintf("%s-%04d-%02d.json", SanitizeAccount(m.Account), m.Year, int(m.Month))
}

// Label returns a human-readable form, e.g. "DE02... (January 2024)".
func (m AccountMonth) Label() string {
	return fmt.Sprintf("%s (%s %d)", m.Account, m.Month.String(), m.Year)
}

// MatchesSnapshotFilename reports whether the filename looks like a stored
// month snapshot.
func MatchesSnapshotFilename(filename string) bool {
	return snapshotFileName.MatchString(filename)
}

// AccountMonthFromFilename parses a snapshot filename back into its key.
func AccountMonthFromFilename(filename string) (AccountMonth, error) {
	groups := snapshotFileName.FindStringSubmatch(filename)
	if groups == nil {
		return AccountMonth{}, fmt.Errorf("filename %s does not match the snapshot pattern", filename)
	}
	year, err := strconv.Atoi(groups[2])
	if err != nil {
		return AccountMonth{}, err
	}
	month, err := strconv.Atoi(groups[3])
	if err != nil {
		return AccountMonth{}, err
	}
	if month < 1 || month > 12 {
		return AccountMonth{}, fmt.Errorf("filename %s contains month %d", filename, month)
	}
	return AccountMonth{Account: groups[1], Year: year, Month: time.Month(month)}, nil
}

// Less orders snapshots by account ascending, then newest month first.
func (m AccountMonth) Less(other AccountMonth) bool {
	if m.Account != other.Account {
		return m.Account < other.Account
	}
	if m.Year != other.Year {
		return m.Year > other.Year
	}
	return m.Month > other.Month
}
