package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
)

// MonthSummaryResponse identifies one stored month snapshot.
type MonthSummaryResponse struct {
	Account string `json:"account"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
}

// PostingResponse defines one classification posting.
type PostingResponse struct {
	Date        time.Time        `json:"date"`
	MainAccount int              `json:"mainAccount"`
	SubAccount  int              `json:"subAccount"`
	Project     int              `json:"project"`
	Incoming    *bool            `json:"incoming"`
	Amount      *decimal.Decimal `json:"amount"`
	Text        string           `json:"text"`
}

// RuleResultResponse pairs one record with its postings.
type RuleResultResponse struct {
	Input    RecordResponse    `json:"input"`
	Postings []PostingResponse `json:"postings"`
	Complete bool              `json:"complete"`
}

// MonthResponse defines the full contents of one stored month.
type MonthResponse struct {
	Account   string               `json:"account"`
	Year      int                  `json:"year"`
	Month     int                  `json:"month"`
	Results   []RuleResultResponse `json:"results"`
	Unmatched int                  `json:"unmatched"`
	Log       string               `json:"log"`
}

// ClassifyResponse defines the outcome of one classification run.
type ClassifyResponse struct {
	Results   []RuleResultResponse `json:"results"`
	Unmatched int                  `json:"unmatched"`
	Log       string               `json:"log"`
}

// SaveMonthRequest defines the data needed to store one month snapshot,
// typically edited classification results coming back from the UI.
type SaveMonthRequest struct {
	Results []RuleResultRequest `json:"results" binding:"required"`
	Log     string              `json:"log"`
}

// RuleResultRequest is one record with its (possibly edited) postings.
type RuleResultRequest struct {
	Input    RecordResponse    `json:"input" binding:"required"`
	Postings []PostingResponse `json:"postings"`
}

// ToMonthSummaryResponse converts an account-month key to its DTO.
func ToMonthSummaryResponse(key domain.AccountMonth) MonthSummaryResponse {
	return MonthSummaryResponse{Account: key.Account, Year: key.Year, Month: int(key.Month)}
}

// ToPostingResponse converts a domain.Posting to its DTO.
func ToPostingResponse(posting *domain.Posting) PostingResponse {
	return PostingResponse{
		Date:        posting.Date,
		MainAccount: posting.MainAccount,
		SubAccount:  posting.SubAccount,
		Project:     posting.Project,
		Incoming:    posting.Incoming,
		Amount:      posting.Amount,
		Text:        posting.Text,
	}
}

// ToRuleResultResponse converts a domain.RuleResult to its DTO.
func ToRuleResultResponse(result *domain.RuleResult) RuleResultResponse {
	postings := make([]PostingResponse, len(result.Postings))
	for i, posting := range result.Postings {
		postings[i] = ToPostingResponse(posting)
	}
	return RuleResultResponse{
		Input:    ToRecordResponse(result.Input),
		Postings: postings,
		Complete: result.HasPostingsForWholeSum(),
	}
}

// ToClassifyResponse converts a classification run to its DTO.
func ToClassifyResponse(aggregate *domain.RulesResult) ClassifyResponse {
	results := make([]RuleResultResponse, len(aggregate.Results))
	for i, result := range aggregate.Results {
		results[i] = ToRuleResultResponse(result)
	}
	return ClassifyResponse{
		Results:   results,
		Unmatched: len(aggregate.Unmatched()),
		Log:       aggregate.Log,
	}
}

// ToMonthResponse converts a stored month to its DTO.
func ToMonthResponse(key domain.AccountMonth, aggregate *domain.RulesResult) MonthResponse {
	classify := ToClassifyResponse(aggregate)
	return MonthResponse{
		Account:   key.Account,
		Year:      key.Year,
		Month:     int(key.Month),
		Results:   classify.Results,
		Unmatched: classify.Unmatched,
		Log:       classify.Log,
	}
}

// ToRulesResult converts an uploaded month snapshot back to the domain form.
func (r SaveMonthRequest) ToRulesResult() *domain.RulesResult {
	aggregate := &domain.RulesResult{Log: r.Log}
	for _, result := range r.Results {
		converted := &domain.RuleResult{Input: result.Input.ToSourceRecord()}
		for _, posting := range result.Postings {
			converted.Postings = append(converted.Postings, &domain.Posting{
				Date:        posting.Date,
				MainAccount: posting.MainAccount,
				SubAccount:  posting.SubAccount,
				Project:     posting.Project,
				Incoming:    posting.Incoming,
				Amount:      posting.Amount,
				Text:        posting.Text,
			})
		}
		aggregate.Results = append(aggregate.Results, converted)
	}
	return aggregate
}
