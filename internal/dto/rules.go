package dto

import "github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"

// RulesResponse carries the current rule script text.
type RulesResponse struct {
	Rules string `json:"rules"`
}

// SaveRulesRequest defines the data needed to replace the rule script.
type SaveRulesRequest struct {
	Rules string `json:"rules" binding:"required"`
}

// ValidateRulesRequest defines the data needed for a rule dry run.
type ValidateRulesRequest struct {
	Rules string `json:"rules" binding:"required"`
}

// RuleValidationResponse defines the outcome of a rule dry run.
type RuleValidationResponse struct {
	Valid        bool   `json:"valid"`
	ErrorLine    int    `json:"errorLine,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// ToRuleValidationResponse converts a domain.RuleValidation to its DTO.
func ToRuleValidationResponse(v domain.RuleValidation) RuleValidationResponse {
	return RuleValidationResponse{
		Valid:        !v.Error,
		ErrorLine:    v.ErrorLine,
		ErrorMessage: v.ErrorMessage,
	}
}
