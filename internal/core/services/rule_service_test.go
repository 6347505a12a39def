package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	portssvc "github.com/mathisdt/optigem-spoonfeeder/internal/core/ports/services"
	"github.com/mathisdt/optigem-spoonfeeder/internal/mt940"
)

func newTestStorage(t *testing.T, rulesText string) portssvc.StorageSvcFacade {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.expr"), []byte(rulesText), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table_projekte.csv"),
		[]byte("nummer,name\n7,Jugendarbeit\n"), 0o644))
	return NewStorageService(dir)
}

func testRecord(purpose string, amount string) *domain.SourceRecord {
	return &domain.SourceRecord{
		AccountLabel: "DE02120300000000202051",
		ValueDate:    time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Direction:    domain.Credit,
		Amount:       decimal.RequireFromString(amount),
		BookingText:  "GUTSCHRIFT",
		Purpose:      purpose,
	}
}

func TestRuleService_Apply(t *testing.T) {
	storage := newTestStorage(t, `verwendungszweck.Contains("miete") ? buchung(2000) : nil`)
	svc := NewRuleService(storage)
	ctx := context.Background()

	input := &mt940.File{Entries: []*domain.SourceRecord{
		testRecord("Miete Januar", "150.00"),
		testRecord("irgendwas anderes", "20.00"),
	}}

	aggregate, err := svc.Apply(ctx, input)
	require.NoError(t, err)
	require.Len(t, aggregate.Results, 2)

	matched := aggregate.Results[0]
	require.True(t, matched.HasPosting())
	posting := matched.Postings[0]
	assert.Equal(t, 2000, posting.MainAccount)
	assert.Equal(t, input.Entries[0].ValueDate, posting.Date)
	require.NotNil(t, posting.Incoming)
	assert.True(t, *posting.Incoming)
	require.NotNil(t, posting.Amount)
	assert.True(t, posting.Amount.Equal(decimal.RequireFromString("150.00")))
	assert.Equal(t, "Miete Januar", posting.Text)

	assert.False(t, aggregate.Results[1].HasPosting())
	assert.Len(t, aggregate.Unmatched(), 1)
}

func TestRuleService_ApplyUsesTables(t *testing.T) {
	storage := newTestStorage(t,
		`projekte.Contains("name", "Jugendarbeit") ? buchung(3000, 0, projekte.Where("name", "Jugendarbeit").Get("nummer")) : nil`)
	svc := NewRuleService(storage)

	aggregate, err := svc.Apply(context.Background(), &mt940.File{
		Entries: []*domain.SourceRecord{testRecord("Spende", "10.00")},
	})
	require.NoError(t, err)
	require.True(t, aggregate.Results[0].HasPosting())
	assert.Equal(t, 7, aggregate.Results[0].Postings[0].Project)
}

func TestRuleService_ApplyCollectsLog(t *testing.T) {
	storage := newTestStorage(t, `log("betrag: %.2f", betrag) ? nil : nil`)
	svc := NewRuleService(storage)

	aggregate, err := svc.Apply(context.Background(), &mt940.File{
		Entries: []*domain.SourceRecord{
			testRecord("a", "150.00"),
			testRecord("b", "20.50"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "betrag: 150.00\nbetrag: 20.50", aggregate.Log)
}

func TestRuleService_ApplyFailsOnBrokenRules(t *testing.T) {
	storage := newTestStorage(t, "1 +\n2 +\n)")
	svc := NewRuleService(storage)

	_, err := svc.Apply(context.Background(), &mt940.File{
		Entries: []*domain.SourceRecord{testRecord("x", "1.00")},
	})
	require.Error(t, err)
}

func TestRuleService_ReapplyKeepsClassifiedResults(t *testing.T) {
	// the new rules would classify everything differently
	storage := newTestStorage(t, `buchung(9999, 0, 0, "neu")`)
	svc := NewRuleService(storage)
	ctx := context.Background()

	classified := domain.NewRuleResult(testRecord("Miete Januar", "150.00"), nil).
		WithPosting(domain.NewPosting(2000, 1, 0, "manuell erfasst"))
	classified.FillDefaults()
	unmatched := domain.NewRuleResult(testRecord("Spende", "20.00"), nil)

	previous := &domain.RulesResult{
		Results: []*domain.RuleResult{classified, unmatched},
		Log:     "old log",
	}

	next, err := svc.Reapply(ctx, previous)
	require.NoError(t, err)
	require.Len(t, next.Results, 2)

	// already-classified results are carried over untouched
	assert.Same(t, classified, next.Results[0])
	assert.Equal(t, "manuell erfasst", next.Results[0].Postings[0].Text)

	// the empty one got classified by the new rules
	require.True(t, next.Results[1].HasPosting())
	assert.Equal(t, 9999, next.Results[1].Postings[0].MainAccount)
	assert.Equal(t, "neu Spende", next.Results[1].Postings[0].Text)

	// the stored aggregate itself is never modified
	assert.False(t, previous.Results[1].HasPosting())
	assert.Equal(t, "old log", previous.Log)
}

func TestRuleService_ReapplyIsIdempotent(t *testing.T) {
	storage := newTestStorage(t, `buchung(2000, 0, 0, "Miete")`)
	svc := NewRuleService(storage)
	ctx := context.Background()

	first, err := svc.Apply(ctx, &mt940.File{
		Entries: []*domain.SourceRecord{testRecord("Miete Januar", "150.00")},
	})
	require.NoError(t, err)

	second, err := svc.Reapply(ctx, first)
	require.NoError(t, err)

	// nothing to do, so the exact same result is carried over
	assert.Same(t, first.Results[0], second.Results[0])
}

func TestRuleService_Validate(t *testing.T) {
	storage := newTestStorage(t, "nil")
	svc := NewRuleService(storage)
	ctx := context.Background()

	t.Run("valid rules", func(t *testing.T) {
		validation := svc.Validate(ctx, `haben ? buchung(2000) : nil`)
		assert.False(t, validation.Error)
	})

	t.Run("tables are bound", func(t *testing.T) {
		validation := svc.Validate(ctx, `projekte.Contains("name", "Jugendarbeit") ? buchung(1) : nil`)
		assert.False(t, validation.Error)
	})

	t.Run("syntax error reports the user's line", func(t *testing.T) {
		validation := svc.Validate(ctx, "1 +\n2 +\n)")
		assert.True(t, validation.Error)
		assert.Equal(t, 3, validation.ErrorLine)
		assert.NotEmpty(t, validation.ErrorMessage)
	})

	t.Run("runtime error is reported", func(t *testing.T) {
		validation := svc.Validate(ctx, `buchung("not-a-number")`)
		assert.True(t, validation.Error)
		assert.NotEmpty(t, validation.ErrorMessage)
	})
}
