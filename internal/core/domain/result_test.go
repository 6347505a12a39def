package domain_test

import (
	"testing"
	"time"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creditRecord(amount string) *domain.SourceRecord {
	return &domain.SourceRecord{
		AccountLabel: "DE02120300000000202051",
		ValueDate:    time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Direction:    domain.Credit,
		Amount:       decimal.RequireFromString(amount),
		Purpose:      "SVWZ+Spende 123",
	}
}

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestRuleResult_FillDefaults(t *testing.T) {
	record := creditRecord("150.00")
	result := domain.NewRuleResult(record, domain.NewPosting(8010, 2, 0, ""))

	result.FillDefaults()

	require.Len(t, result.Postings, 1)
	posting := result.Postings[0]
	assert.Equal(t, record.ValueDate, posting.Date)
	require.NotNil(t, posting.Incoming)
	assert.True(t, *posting.Incoming)
	require.NotNil(t, posting.Amount)
	assert.True(t, posting.Amount.Equal(record.Amount))
	assert.Equal(t, "Spende 123", posting.Text)
	assert.False(t, posting.IsEmpty())
}

func TestRuleResult_FillDefaultsKeepsScriptValues(t *testing.T) {
	record := creditRecord("150.00")
	posting := domain.NewPosting(8010, 2, 0, "Dauerspende")
	posting.Amount = amountPtr("100.00")
	result := domain.NewRuleResult(record, posting)

	result.FillDefaults()

	assert.Equal(t, "Dauerspende", result.Postings[0].Text)
	assert.True(t, result.Postings[0].Amount.Equal(decimal.RequireFromString("100.00")))
}

func TestRuleResult_HasPostingsForWholeSum(t *testing.T) {
	tests := []struct {
		name    string
		amounts []string
		want    bool
	}{
		{name: "no postings", amounts: nil, want: false},
		{name: "exact single posting", amounts: []string{"150.00"}, want: true},
		{name: "exact split", amounts: []string{"100.00", "50.00"}, want: true},
		{name: "partial", amounts: []string{"100.00"}, want: false},
		{name: "overshoot", amounts: []string{"100.00", "60.00"}, want: false},
		{name: "negative amounts do not count", amounts: []string{"150.00", "-20.00"}, want: true},
		{name: "zero amounts do not count", amounts: []string{"150.00", "0"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := domain.NewRuleResult(creditRecord("150.00"), nil)
			for _, a := range tt.amounts {
				posting := domain.NewPosting(8010, 0, 0, "x")
				posting.Amount = amountPtr(a)
				result.Postings = append(result.Postings, posting)
			}
			result.FillDefaults()
			// restore the explicit amounts FillDefaults must not touch
			for i, a := range tt.amounts {
				assert.True(t, result.Postings[i].Amount.Equal(decimal.RequireFromString(a)))
			}
			assert.Equal(t, tt.want, result.HasPostingsForWholeSum())
		})
	}
}

func TestPosting_IsEmpty(t *testing.T) {
	posting := domain.NewPosting(0, 0, 0, "")
	assert.True(t, posting.IsEmpty())

	result := domain.NewRuleResult(creditRecord("25.00"), domain.NewPosting(4940, 0, 0, ""))
	result.FillDefaults()
	assert.False(t, result.Postings[0].IsEmpty())
}

func TestPosting_Sides(t *testing.T) {
	own := domain.AccountRef{MainAccount: 1200}
	incoming := true
	outgoing := false

	posting := &domain.Posting{MainAccount: 8010, SubAccount: 2, Project: 1, Incoming: &incoming}
	assert.Equal(t, own, posting.DebitSide(own))
	assert.Equal(t, domain.AccountRef{MainAccount: 8010, SubAccount: 2, Project: 1}, posting.CreditSide(own))

	posting.Incoming = &outgoing
	assert.Equal(t, domain.AccountRef{MainAccount: 8010, SubAccount: 2, Project: 1}, posting.DebitSide(own))
	assert.Equal(t, own, posting.CreditSide(own))
}

func TestRulesResult_Unmatched(t *testing.T) {
	matched := domain.NewRuleResult(creditRecord("10.00"), domain.NewPosting(4940, 0, 0, ""))
	unmatched := domain.NewRuleResult(creditRecord("20.00"), nil)
	aggregate := &domain.RulesResult{Results: []*domain.RuleResult{matched, unmatched}}

	require.Len(t, aggregate.Unmatched(), 1)
	assert.Same(t, unmatched, aggregate.Unmatched()[0])
}
