package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RuleResult pairs one source record with the postings classifying it.
// An empty posting list means the record is still unclassified.
type RuleResult struct {
	Input    *SourceRecord `json:"input"`
	Postings []*Posting    `json:"postings"`
}

// NewRuleResult creates a result for the given record. A nil posting leaves
// the result unclassified.
func NewRuleResult(input *SourceRecord, posting *Posting) *RuleResult {
	result := &RuleResult{Input: input}
	if posting != nil {
		result.Postings = append(result.Postings, posting)
	}
	return result
}

// WithPosting returns a fresh result for the same record carrying only the
// given posting. The receiver is not modified.
func (r *RuleResult) WithPosting(posting *Posting) *RuleResult {
	return NewRuleResult(r.Input, posting)
}

// HasPosting reports whether any classification has been assigned.
func (r *RuleResult) HasPosting() bool {
	return len(r.Postings) > 0
}

// HasPostingsForWholeSum reports whether the postings account for the full
// record amount. Only strictly positive posting amounts count, so a
// manually entered correction with a negative or zero amount never fakes
// completeness.
func (r *RuleResult) HasPostingsForWholeSum() bool {
	if len(r.Postings) == 0 {
		return false
	}
	sum := decimal.Zero
	for _, p := range r.Postings {
		if p.IsEmpty() || p.Amount == nil {
			continue
		}
		if p.Amount.IsPositive() {
			sum = sum.Add(*p.Amount)
		}
	}
	return sum.Equal(r.Input.Amount)
}

// FillDefaults completes every posting with the data the rule script left
// unset: the record's date and direction always, the full record amount and
// the cleaned purpose as text when absent. Explicit amounts and non-blank
// texts set by the script are never overwritten.
func (r *RuleResult) FillDefaults() {
	r.fill(false)
}

// FillDefaultsAppending behaves like FillDefaults, but a blank script text
// appends the cleaned purpose to whatever text the posting already carries
// instead of replacing it. Used on re-application so manually entered text
// survives.
func (r *RuleResult) FillDefaultsAppending() {
	r.fill(true)
}

func (r *RuleResult) fill(appendText bool) {
	for _, p := range r.Postings {
		p.Date = r.Input.ValueDate
		incoming := r.Input.IsCredit()
		p.Incoming = &incoming
		if p.Amount == nil {
			amount := r.Input.Amount
			p.Amount = &amount
		}
		purpose := strings.TrimSpace(r.Input.PurposeClean())
		if purpose == "" {
			continue
		}
		if strings.TrimSpace(p.Text) == "" {
			p.Text = purpose
		} else if appendText && !strings.Contains(p.Text, purpose) {
			p.Text = p.Text + " " + purpose
		}
	}
}

// RulesResult is the persisted unit: all classification results of one run
// plus the engine's cumulative log text.
type RulesResult struct {
	Results []*RuleResult `json:"results"`
	Log     string        `json:"log"`
}

// Unmatched returns the results that carry no posting yet.
func (r *RulesResult) Unmatched() []*RuleResult {
	var out []*RuleResult
	for _, result := range r.Results {
		if !result.HasPosting() {
			out = append(out, result)
		}
	}
	return out
}

// RuleValidation is the outcome of a rule-script dry run. ErrorLine is
// 1-based and points into the user's own rule text; -1 means the line could
// not be determined.
type RuleValidation struct {
	Error        bool   `json:"error"`
	ErrorLine    int    `json:"errorLine,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}
