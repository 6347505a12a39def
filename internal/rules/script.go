// Package rules provides the classification expression capability of the
// rule engine. The engine itself only depends on the Script interface; the
// implementation here compiles the user's rule text with the expr language.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/vm"

	"github.com/mathisdt/optigem-spoonfeeder/internal/apperrors"
	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
)

// Script evaluates the rule text once against one record's variable
// bindings. A nil posting means the record stays unclassified.
type Script interface {
	Evaluate(env map[string]any) (*domain.Posting, error)
}

// prologue is prepended to every rule text before compilation. It only
// defines convenience aliases, but its line count matters: reported error
// lines are shifted back by it so they point into the user's own text.
const prologue = `let eingang = haben;
let ausgang = soll;
`

var prologueLineCount = strings.Count(prologue, "\n")

var errorLocation = regexp.MustCompile(`\((\d+):(\d+)\)`)

// ScriptError is a rule text failure with a best-effort 1-based line number
// pointing into the user's rule text. Line is -1 when the position could
// not be determined.
type ScriptError struct {
	Line    int
	Message string
}

func (e *ScriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("rule script error in line %d: %s", e.Line, e.Message)
	}
	return "rule script error: " + e.Message
}

func (e *ScriptError) Unwrap() error {
	return apperrors.ErrScript
}

// ExprScript is the expr-backed Script implementation. The program is
// compiled once and evaluated once per record.
type ExprScript struct {
	program *vm.Program
}

var _ Script = (*ExprScript)(nil)

// scriptFunctions are registered at compile time rather than bound through
// the env map: expr spreads env-provided variadic Go functions via
// reflection, and that path chokes on nil arguments like
// buchung("4940", nil, nil, "Telekom").
var scriptFunctions = []expr.Option{
	expr.Function("buchung", newPosting),
	// alias for scripts preferring the English name
	expr.Function("posting", newPosting),
}

// Compile parses the user's rule text. On failure a *ScriptError with a
// corrected line number is returned.
func Compile(text string) (*ExprScript, error) {
	program, err := expr.Compile(prologue+text, scriptFunctions...)
	if err != nil {
		return nil, asScriptError(err)
	}
	return &ExprScript{program: program}, nil
}

// Evaluate runs the script against the given bindings. The script's result
// value becomes the posting if it is one; any other result leaves the
// record unclassified.
func (s *ExprScript) Evaluate(env map[string]any) (*domain.Posting, error) {
	out, err := expr.Run(s.program, env)
	if err != nil {
		return nil, asScriptError(err)
	}
	if posting, ok := out.(*domain.Posting); ok {
		return posting, nil
	}
	return nil, nil
}

// asScriptError converts an expr error into a *ScriptError, shifting any
// reported line number back by the prologue length, both in the Line field
// and inside the message text.
func asScriptError(err error) error {
	line := -1
	msg := err.Error()

	var fileErr *file.Error
	if errors.As(err, &fileErr) && fileErr.Line > 0 {
		line = fileErr.Line - prologueLineCount
	}

	if groups := errorLocation.FindStringSubmatch(msg); groups != nil {
		if reported, convErr := strconv.Atoi(groups[1]); convErr == nil {
			corrected := reported - prologueLineCount
			if line < 0 {
				line = corrected
			}
			msg = errorLocation.ReplaceAllString(msg,
				fmt.Sprintf("(%d:%s)", corrected, groups[2]))
		}
	}

	return &ScriptError{Line: line, Message: msg}
}
