package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	portssvc "github.com/mathisdt/optigem-spoonfeeder/internal/core/ports/services"
	"github.com/mathisdt/optigem-spoonfeeder/internal/middleware"
	"github.com/mathisdt/optigem-spoonfeeder/internal/mt940"
	"github.com/mathisdt/optigem-spoonfeeder/internal/rules"
)

// ruleService runs the stored rule script over statement records. The script
// engine itself lives in the rules package; this service only loads the
// script and the lookup tables, builds the bindings and collects the output.
type ruleService struct {
	storage portssvc.StorageSvcFacade
}

// NewRuleService creates the rule engine service on top of the given storage.
func NewRuleService(storage portssvc.StorageSvcFacade) portssvc.RuleSvcFacade {
	return &ruleService{storage: storage}
}

var _ portssvc.RuleSvcFacade = (*ruleService)(nil)

func (s *ruleService) Apply(ctx context.Context, input *mt940.File) (*domain.RulesResult, error) {
	script, tables, err := s.loadScript(ctx)
	if err != nil {
		return nil, err
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	collector := newRunLog(logger)

	aggregate := &domain.RulesResult{}
	for _, record := range input.Entries {
		result := domain.NewRuleResult(record, nil)

		posting, err := script.Evaluate(rules.Env(record, tables, collector.write))
		if err != nil {
			return nil, fmt.Errorf("could not apply rules: %w", err)
		}
		if posting != nil {
			result = result.WithPosting(posting)
			result.FillDefaults()
		}
		aggregate.Results = append(aggregate.Results, result)
	}
	aggregate.Log = collector.String()

	logger.Info("applied rules",
		slog.Int("records", len(aggregate.Results)),
		slog.Int("unmatched", len(aggregate.Unmatched())))
	return aggregate, nil
}

func (s *ruleService) Reapply(ctx context.Context, previous *domain.RulesResult) (*domain.RulesResult, error) {
	script, tables, err := s.loadScript(ctx)
	if err != nil {
		return nil, err
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	collector := newRunLog(logger)

	// Build a new aggregate instead of mutating the stored one: results
	// that already carry postings are taken over as-is, only still-empty
	// ones get another evaluation.
	next := &domain.RulesResult{}
	for _, result := range previous.Results {
		if result.HasPosting() {
			next.Results = append(next.Results, result)
			continue
		}

		posting, err := script.Evaluate(rules.Env(result.Input, tables, collector.write))
		if err != nil {
			return nil, fmt.Errorf("could not reapply rules: %w", err)
		}
		if posting == nil {
			next.Results = append(next.Results, result)
			continue
		}
		fresh := result.WithPosting(posting)
		fresh.FillDefaultsAppending()
		next.Results = append(next.Results, fresh)
	}
	next.Log = collector.String()

	logger.Info("reapplied rules",
		slog.Int("records", len(next.Results)),
		slog.Int("unmatched", len(next.Unmatched())))
	return next, nil
}

func (s *ruleService) Validate(ctx context.Context, rulesText string) domain.RuleValidation {
	tables, err := s.storage.Tables(ctx)
	if err != nil {
		return validationFromError(err)
	}

	script, err := rules.Compile(rulesText)
	if err != nil {
		return validationFromError(err)
	}

	if _, err := script.Evaluate(rules.ValidationEnv(tables, nil)); err != nil {
		return validationFromError(err)
	}
	return domain.RuleValidation{}
}

// loadScript compiles the stored rule text and loads the lookup tables.
func (s *ruleService) loadScript(ctx context.Context) (rules.Script, []*domain.Table, error) {
	rulesText, err := s.storage.Rules(ctx)
	if err != nil {
		return nil, nil, err
	}
	script, err := rules.Compile(rulesText)
	if err != nil {
		return nil, nil, fmt.Errorf("stored rules do not compile: %w", err)
	}
	tables, err := s.storage.Tables(ctx)
	if err != nil {
		return nil, nil, err
	}
	return script, tables, nil
}

func validationFromError(err error) domain.RuleValidation {
	var scriptErr *rules.ScriptError
	if errors.As(err, &scriptErr) {
		return domain.RuleValidation{
			Error:        true,
			ErrorLine:    scriptErr.Line,
			ErrorMessage: scriptErr.Message,
		}
	}
	return domain.RuleValidation{Error: true, ErrorLine: -1, ErrorMessage: err.Error()}
}

// runLog collects the lines written by rule scripts via the log helper and
// mirrors them to the request logger.
type runLog struct {
	logger *slog.Logger
	b      strings.Builder
}

func newRunLog(logger *slog.Logger) *runLog {
	return &runLog{logger: logger}
}

func (l *runLog) write(line string) {
	l.logger.Info("rule log", slog.String("line", line))
	if l.b.Len() > 0 {
		l.b.WriteByte('\n')
	}
	l.b.WriteString(line)
}

func (l *runLog) String() string {
	return l.b.String()
}
