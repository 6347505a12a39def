package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountRef identifies one side of a ledger entry as a main account,
// sub account and project triple.
type AccountRef struct {
	MainAccount int `json:"mainAccount"`
	SubAccount  int `json:"subAccount"`
	Project     int `json:"project"`
}

// Posting is one proposed accounting classification for a source record.
// Amount and Incoming stay nil until the engine fills them from the owning
// record; a posting without a main account is considered empty
// (no classification).
type Posting struct {
	Date        time.Time        `json:"date"`
	MainAccount int              `json:"mainAccount"`
	SubAccount  int              `json:"subAccount"`
	Project     int              `json:"project"`
	Incoming    *bool            `json:"incoming"`
	Amount      *decimal.Decimal `json:"amount"`
	Text        string           `json:"text"`
}

// NewPosting builds a posting with the values a rule script supplies.
// Date, Incoming and (usually) Amount are filled in by the engine afterward.
func NewPosting(mainAccount, subAccount, project int, text string) *Posting {
	return &Posting{
		MainAccount: mainAccount,
		SubAccount:  subAccount,
		Project:     project,
		Text:        text,
	}
}

// IsEmpty reports whether the posting carries no usable classification.
func (p *Posting) IsEmpty() bool {
	return p.MainAccount == 0 || p.Amount == nil || p.Incoming == nil || p.Date.IsZero()
}

// DebitSide returns the debit (Soll) side of the ledger entry. For incoming
// money that is the configured own account, otherwise the classified
// account.
func (p *Posting) DebitSide(own AccountRef) AccountRef {
	if p.Incoming != nil && *p.Incoming {
		return own
	}
	return AccountRef{MainAccount: p.MainAccount, SubAccount: p.SubAccount, Project: p.Project}
}

// CreditSide returns the credit (Haben) side of the ledger entry, the
// mirror of DebitSide.
func (p *Posting) CreditSide(own AccountRef) AccountRef {
	if p.Incoming != nil && *p.Incoming {
		return AccountRef{MainAccount: p.MainAccount, SubAccount: p.SubAccount, Project: p.Project}
	}
	return own
}
