package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
)

// LogFunc receives one formatted log line produced by a rule script.
type LogFunc func(line string)

// Env builds the variable bindings for one record evaluation. All string
// fields are exposed as searchable strings, every lookup table is bound
// under its own name, and the log helper is available (buchung/posting are
// compile-time functions, see scriptFunctions). The map is built fresh per
// record, nothing leaks between evaluations.
func Env(record *domain.SourceRecord, tables []*domain.Table, logf LogFunc) map[string]any {
	env := map[string]any{
		"eigenkonto": domain.NewSearchableString(record.AccountLabel),
		"datum":      record.ValueDate,
		"soll":       record.IsDebit(),
		"haben":      record.IsCredit(),
		// betrag is a float64 on purpose: expr's comparison and
		// arithmetic operators do not apply to decimal.Decimal values,
		// and rule scripts compare amounts against plain numeric
		// literals (betrag > 100)
		"betrag":           record.Amount.InexactFloat64(),
		"buchungstext":     domain.NewSearchableString(record.BookingText),
		"verwendungszweck": domain.NewSearchableString(record.PurposeClean()),
		"bank":             domain.NewSearchableString(record.BankCode),
		"konto":            domain.NewSearchableString(record.CounterAccount),
		"name":             domain.NewSearchableString(record.CounterName),
	}
	addHelpers(env, tables, logf)
	return env
}

// ValidationEnv builds the fixed synthetic bindings used by the dry-run
// validation, so a rule text can be checked without any real statement.
func ValidationEnv(tables []*domain.Table, logf LogFunc) map[string]any {
	env := map[string]any{
		"eigenkonto":       domain.NewSearchableString("12345678"),
		"datum":            time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC),
		"soll":             false,
		"haben":            true,
		"betrag":           decimal.NewFromInt(25).InexactFloat64(),
		"buchungstext":     domain.NewSearchableString("Dauerauftrag"),
		"verwendungszweck": domain.NewSearchableString("Spende 123"),
		"bank":             domain.NewSearchableString("BANK_BIC"),
		"konto":            domain.NewSearchableString("DE123456789123456789"),
		"name":             domain.NewSearchableString("Name der Person"),
	}
	addHelpers(env, tables, logf)
	return env
}

func addHelpers(env map[string]any, tables []*domain.Table, logf LogFunc) {
	for _, table := range tables {
		env[table.Name()] = table
	}
	env["log"] = logHelper(logf)
}

// logHelper formats fmt.Sprintf-style and hands the line to the sink.
func logHelper(logf LogFunc) func(args ...any) bool {
	return func(args ...any) bool {
		if logf == nil || len(args) == 0 {
			return true
		}
		msg := fmt.Sprint(args[0])
		if len(args) > 1 {
			msg = fmt.Sprintf(msg, args[1:]...)
		}
		logf(msg)
		return true
	}
}

// newPosting is the buchung(hauptkonto[, unterkonto[, projekt[, text]]])
// helper. Account arguments may be numbers or numeric strings; omitted
// arguments default to 0 resp. the empty string.
func newPosting(args ...any) (any, error) {
	if len(args) < 1 || len(args) > 4 {
		return nil, fmt.Errorf("buchung() takes 1 to 4 arguments, got %d", len(args))
	}
	numbers := [3]int{}
	for i := 0; i < 3 && i < len(args); i++ {
		n, err := asAccountNumber(args[i])
		if err != nil {
			return nil, err
		}
		numbers[i] = n
	}
	text := ""
	if len(args) == 4 && args[3] != nil {
		text = fmt.Sprint(args[3])
	}
	return domain.NewPosting(numbers[0], numbers[1], numbers[2], text), nil
}

func asAccountNumber(arg any) (int, error) {
	switch v := arg.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("not an account number: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not an account number: %v", arg)
	}
}
