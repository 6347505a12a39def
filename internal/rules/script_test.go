package rules_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathisdt/optigem-spoonfeeder/internal/apperrors"
	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	"github.com/mathisdt/optigem-spoonfeeder/internal/rules"
)

func testRecord() *domain.SourceRecord {
	return &domain.SourceRecord{
		AccountLabel: "DE02120300000000202051",
		ValueDate:    time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Direction:    domain.Credit,
		Amount:       decimal.RequireFromString("150.00"),
		BookingText:  "Gutschrift",
		Purpose:      "SVWZ+Spende 123",
		CounterName:  "Vorname Nachname",
	}
}

func TestCompileAndEvaluate_Posting(t *testing.T) {
	script, err := rules.Compile(`verwendungszweck.Contains("spende") ? buchung(8010, 2) : nil`)
	require.NoError(t, err)

	posting, err := script.Evaluate(rules.Env(testRecord(), nil, nil))
	require.NoError(t, err)
	require.NotNil(t, posting)
	assert.Equal(t, 8010, posting.MainAccount)
	assert.Equal(t, 2, posting.SubAccount)
	assert.Equal(t, 0, posting.Project)
}

func TestEvaluate_NoMatchYieldsNil(t *testing.T) {
	script, err := rules.Compile(`verwendungszweck.Contains("miete") ? buchung(4210) : nil`)
	require.NoError(t, err)

	posting, err := script.Evaluate(rules.Env(testRecord(), nil, nil))
	require.NoError(t, err)
	assert.Nil(t, posting)
}

func TestEvaluate_PrologueAliases(t *testing.T) {
	script, err := rules.Compile(`eingang ? buchung(8010) : nil`)
	require.NoError(t, err)

	posting, err := script.Evaluate(rules.Env(testRecord(), nil, nil))
	require.NoError(t, err)
	require.NotNil(t, posting)
	assert.Equal(t, 8010, posting.MainAccount)
}

func TestEvaluate_TableLookup(t *testing.T) {
	table := domain.NewTable("projekte", "table_projekte.csv")
	row := domain.NewTableRow()
	row.Put("Name", "Spende 123")
	row.Put("Nr", "21")
	table.Add(row)

	script, err := rules.Compile(
		`projekte.Contains("name", verwendungszweck.String()) ` +
			`? buchung(8205, 4, projekte.Where("name", verwendungszweck.String()).Get("nr")) ` +
			`: nil`)
	require.NoError(t, err)

	posting, err := script.Evaluate(rules.Env(testRecord(), []*domain.Table{table}, nil))
	require.NoError(t, err)
	require.NotNil(t, posting)
	assert.Equal(t, 8205, posting.MainAccount)
	assert.Equal(t, 4, posting.SubAccount)
	assert.Equal(t, 21, posting.Project)
}

func TestEvaluate_LogHelper(t *testing.T) {
	var lines []string
	logf := func(line string) { lines = append(lines, line) }

	script, err := rules.Compile(`log("betrag: %.2f", betrag) ? buchung(1360, 0, 0, "Bareinzahlung") : nil`)
	require.NoError(t, err)

	posting, err := script.Evaluate(rules.Env(testRecord(), nil, logf))
	require.NoError(t, err)
	require.NotNil(t, posting)
	assert.Equal(t, "Bareinzahlung", posting.Text)
	assert.Equal(t, []string{"betrag: 150.00"}, lines)
}

func TestEvaluate_PostingTextAndStringAccounts(t *testing.T) {
	script, err := rules.Compile(`buchung("4940", nil, nil, "Telekom")`)
	require.NoError(t, err)

	posting, err := script.Evaluate(rules.Env(testRecord(), nil, nil))
	require.NoError(t, err)
	require.NotNil(t, posting)
	assert.Equal(t, 4940, posting.MainAccount)
	assert.Equal(t, 0, posting.SubAccount)
	assert.Equal(t, "Telekom", posting.Text)
}

func TestEvaluate_NilAccountArgumentsDefaultToZero(t *testing.T) {
	tests := []struct {
		name string
		rule string
	}{
		{name: "nil sub account", rule: `buchung(8010, nil)`},
		{name: "nil sub account and project", rule: `buchung(8010, nil, nil)`},
		{name: "english alias with nils", rule: `posting(8010, nil, nil, nil)`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			script, err := rules.Compile(tc.rule)
			require.NoError(t, err)

			posting, err := script.Evaluate(rules.Env(testRecord(), nil, nil))
			require.NoError(t, err)
			require.NotNil(t, posting)
			assert.Equal(t, 8010, posting.MainAccount)
			assert.Equal(t, 0, posting.SubAccount)
			assert.Equal(t, 0, posting.Project)
		})
	}
}

func TestCompile_SyntaxErrorLineIsOffsetCorrected(t *testing.T) {
	// the error sits on the third line of the user's text
	_, err := rules.Compile("1 +\n2 +\n)")
	require.Error(t, err)

	var scriptErr *rules.ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, 3, scriptErr.Line)
	assert.ErrorIs(t, err, apperrors.ErrScript)
}

func TestEvaluate_RuntimeErrorIsScriptError(t *testing.T) {
	script, err := rules.Compile(`buchung("not-a-number")`)
	require.NoError(t, err)

	_, err = script.Evaluate(rules.Env(testRecord(), nil, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrScript)
}

func TestValidationEnv_FixedBinding(t *testing.T) {
	env := rules.ValidationEnv(nil, nil)

	assert.Equal(t, true, env["haben"])
	assert.Equal(t, false, env["soll"])
	assert.InDelta(t, 25.0, env["betrag"], 0.001)
	assert.True(t, env["verwendungszweck"].(domain.SearchableString).Contains("spende"))
}
