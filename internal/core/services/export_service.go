package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
	portssvc "github.com/mathisdt/optigem-spoonfeeder/internal/core/ports/services"
	"github.com/mathisdt/optigem-spoonfeeder/internal/middleware"
	"github.com/mathisdt/optigem-spoonfeeder/internal/mt940"
)

// postingTextLimit is the maximum booking text length the downstream
// accounting import accepts.
const postingTextLimit = 52

var postingsHeader = []string{
	"Datum", "SollHK", "SollUK", "SollProj",
	"HabenHK", "HabenUK", "HabenProj",
	"Betrag", "BuchText", "ESP", "DB", "ErfDat",
	"StProzent", "NettoBuch", "Belegart", "BelegNr",
}

// exportService renders classification results for the accounting import
// and re-emits unclassified records as statement text.
type exportService struct {
	own domain.AccountRef
	now func() time.Time
}

// NewExportService creates the export service with the fixed counter-leg
// account for every ledger entry.
func NewExportService(own domain.AccountRef) portssvc.ExportSvcFacade {
	return &exportService{own: own, now: time.Now}
}

var _ portssvc.ExportSvcFacade = (*exportService)(nil)

func (s *exportService) PostingsCSV(ctx context.Context, results []*domain.RuleResult) ([]byte, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	entryDate := s.now().Format("2006-01-02")

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(postingsHeader); err != nil {
		return nil, fmt.Errorf("could not render postings: %w", err)
	}

	rows := 0
	for _, result := range results {
		for _, posting := range result.Postings {
			if posting.IsEmpty() {
				continue
			}
			debit := posting.DebitSide(s.own)
			credit := posting.CreditSide(s.own)

			text := posting.Text
			if text == "" {
				// an empty cell would shift the import's column mapping
				text = " "
			}
			if len([]rune(text)) > postingTextLimit {
				logger.Info("truncated booking text",
					slog.String("text", text))
				text = string([]rune(text)[:postingTextLimit])
			}

			record := []string{
				posting.Date.Format("2006-01-02"),
				strconv.Itoa(debit.MainAccount),
				strconv.Itoa(debit.SubAccount),
				strconv.Itoa(debit.Project),
				strconv.Itoa(credit.MainAccount),
				strconv.Itoa(credit.SubAccount),
				strconv.Itoa(credit.Project),
				posting.Amount.StringFixed(2),
				text,
				"0", "0", entryDate, "0", "0", "", "",
			}
			if err := w.Write(record); err != nil {
				return nil, fmt.Errorf("could not render postings: %w", err)
			}
			rows++
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("could not render postings: %w", err)
	}

	logger.Info("rendered postings export", slog.Int("postings", rows))
	return buf.Bytes(), nil
}

func (s *exportService) UnmatchedStatement(ctx context.Context, results []*domain.RuleResult) []byte {
	var records []*domain.SourceRecord
	for _, result := range results {
		if !result.HasPosting() {
			records = append(records, result.Input)
		}
	}
	middleware.GetLoggerFromCtx(ctx).Info("rendered unmatched statement",
		slog.Int("records", len(records)))
	return []byte(mt940.WriteUnmatched(records))
}
