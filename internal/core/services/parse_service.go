package services

import (
	"context"
	"io"
	"log/slog"

	portssvc "github.com/mathisdt/optigem-spoonfeeder/internal/core/ports/services"
	"github.com/mathisdt/optigem-spoonfeeder/internal/middleware"
	"github.com/mathisdt/optigem-spoonfeeder/internal/mt940"
)

type parseService struct{}

// NewParseService creates the statement parsing service.
func NewParseService() portssvc.ParserSvc {
	return &parseService{}
}

var _ portssvc.ParserSvc = (*parseService)(nil)

func (s *parseService) Parse(ctx context.Context, r io.Reader) (*mt940.File, error) {
	file, err := mt940.Parse(r)
	if err != nil {
		return nil, err
	}
	middleware.GetLoggerFromCtx(ctx).Info("parsed statement",
		slog.Int("records", len(file.Entries)))
	return file, nil
}
