package services

import (
	"context"
	"io"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	"github.com/mathisdt/optigem-spoonfeeder/internal/mt940"
)

// ParserSvc converts raw statement text into source records.
type ParserSvc interface {
	// Parse reads a full statement file. Malformed input aborts with a
	// line-numbered error.
	Parse(ctx context.Context, r io.Reader) (*mt940.File, error)
}

// RuleApplierSvc runs the current rule script over statement input.
type RuleApplierSvc interface {
	// Apply classifies every record of a freshly parsed statement.
	Apply(ctx context.Context, input *mt940.File) (*domain.RulesResult, error)

	// Reapply builds a new aggregate from a stored one: results that
	// already carry postings are taken over untouched, only empty ones are
	// re-evaluated. The given aggregate is never modified.
	Reapply(ctx context.Context, previous *domain.RulesResult) (*domain.RulesResult, error)
}

// RuleValidatorSvc checks a rule text without a real statement.
type RuleValidatorSvc interface {
	// Validate dry-runs the rule text against a fixed synthetic binding.
	Validate(ctx context.Context, rulesText string) domain.RuleValidation
}

// RuleSvcFacade combines all rule engine operations.
type RuleSvcFacade interface {
	RuleApplierSvc
	RuleValidatorSvc
}

// RulesStoreSvc loads and saves the rule script text.
type RulesStoreSvc interface {
	Rules(ctx context.Context) (string, error)
	SaveRules(ctx context.Context, rulesText string) error
}

// TableStoreSvc loads and saves the lookup tables.
type TableStoreSvc interface {
	Tables(ctx context.Context) ([]*domain.Table, error)
	Table(ctx context.Context, name string) (*domain.Table, error)
	SaveTable(ctx context.Context, table *domain.Table) error
}

// MonthStoreSvc persists result snapshots keyed by account and month.
type MonthStoreSvc interface {
	StoredMonths(ctx context.Context) ([]domain.AccountMonth, error)
	StoredMonth(ctx context.Context, key domain.AccountMonth) (*domain.RulesResult, error)
	SaveMonth(ctx context.Context, key domain.AccountMonth, result *domain.RulesResult) error
	DeleteMonth(ctx context.Context, key domain.AccountMonth) error
}

// StorageSvcFacade combines all persistence operations.
type StorageSvcFacade interface {
	RulesStoreSvc
	TableStoreSvc
	MonthStoreSvc
}

// ServiceContainer holds all services for dependency injection.
type ServiceContainer struct {
	Parser  ParserSvc
	Rules   RuleSvcFacade
	Storage StorageSvcFacade
	Export  ExportSvcFacade
}

// ExportSvcFacade renders classification results for external consumers.
type ExportSvcFacade interface {
	// PostingsCSV renders all non-empty postings, one row per posting,
	// with the debit/credit sides resolved against the own account.
	PostingsCSV(ctx context.Context, results []*domain.RuleResult) ([]byte, error)

	// UnmatchedStatement re-emits all still-unclassified records as
	// statement text.
	UnmatchedStatement(ctx context.Context, results []*domain.RuleResult) []byte
}
