package services

import (
	portssvc "github.com/mathisdt/optigem-spoonfeeder/internal/core/ports/services"
	"github.com/mathisdt/optigem-spoonfeeder/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg *config.Config) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Storage first since the rule engine depends on it
	container.Storage = NewStorageService(cfg.Dir)

	container.Parser = NewParseService()
	container.Rules = NewRuleService(container.Storage)
	container.Export = NewExportService(cfg.OwnAccount())

	return container
}
