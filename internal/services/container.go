package services

import (
	"log/slog"

	"freelancer/internal/config"
	"freelancer/internal/repository/sqlite"
	"freelancer/internal/validation"
)

// NewServiceContainer wires every service to one repository, clock and logger
func NewServiceContainer(repo sqlite.Repository, cfg *config.Config, logger *slog.Logger, clock Clock) *ServiceContainer {
	if clock == nil {
		clock = SystemClock{}
	}
	timeEntryValidator := validation.NewTimeEntryValidator(cfg)

	return &ServiceContainer{
		Timer:       NewTimerService(repo, timeEntryValidator, clock, logger),
		TimeEntries: NewTimeEntryService(repo, timeEntryValidator, clock, logger),
		Invoices:    NewInvoiceService(repo, validation.NewInvoiceValidator(cfg), clock, logger),
		Clients:     NewClientService(repo, validation.NewEntityValidator(cfg), clock, logger),
		Reporting:   NewReportingService(repo, timeEntryValidator, clock),
	}
}
