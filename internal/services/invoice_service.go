package services

import (
	"context"
	"log/slog"

	"freelancer/internal/domain"
	"freelancer/internal/errors"
	"freelancer/internal/repository/sqlite"
	"freelancer/internal/validation"
)

// invoiceServiceImpl implements the InvoiceService interface
type invoiceServiceImpl struct {
	repo             sqlite.Repository
	mapper           *domain.Mapper
	invoiceValidator *validation.InvoiceValidator
	clock            Clock
	logger           *slog.Logger
}

// NewInvoiceService creates a new InvoiceService instance
func NewInvoiceService(repo sqlite.Repository, validator *validation.InvoiceValidator, clock Clock, logger *slog.Logger) InvoiceService {
	return &invoiceServiceImpl{
		repo:             repo,
		mapper:           domain.NewMapper(),
		invoiceValidator: validator,
		clock:            clock,
		logger:           logger,
	}
}

// Create persists a draft invoice with its items, and bills the listed
// time entries, in one transaction.
func (s *invoiceServiceImpl) Create(ctx context.Context, userID int64, in validation.InvoiceInput) (*domain.Invoice, error) {
	validated, err := s.invoiceValidator.ValidateInvoiceForCreation(in)
	if err != nil {
		return nil, err
	}

	invoice, err := domain.NewDraftInvoice(userID, in.ClientID, in.ProjectID, validated.InvoiceNumber,
		validated.IssueDate, validated.DueDate, validated.Currency, validated.TaxRate, validated.Items)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	invoice.Notes = validated.Notes
	invoice.CreatedAt, invoice.UpdatedAt = now, now

	err = s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		if _, err := tx.GetClient(ctx, userID, in.ClientID); err != nil {
			return err
		}
		if in.ProjectID != nil {
			project, err := tx.GetProject(ctx, userID, *in.ProjectID)
			if err != nil {
				return err
			}
			if project.ClientID != in.ClientID {
				return errors.NewNotFoundError("project", idString(*in.ProjectID))
			}
		}

		exists, err := tx.InvoiceNumberExists(ctx, userID, invoice.InvoiceNumber, 0)
		if err != nil {
			return err
		}
		if exists {
			return errors.NewDuplicateError("invoice", "invoiceNumber", invoice.InvoiceNumber)
		}

		entryIDs, err := s.billableEntries(ctx, tx, userID, in.TimeEntryIDs)
		if err != nil {
			return err
		}

		dbInvoice := s.mapper.Invoice.ToDatabase(invoice)
		if err := tx.CreateInvoice(ctx, &dbInvoice); err != nil {
			return err
		}
		if len(entryIDs) > 0 {
			if err := tx.MarkTimeEntriesBilled(ctx, userID, dbInvoice.ID, entryIDs); err != nil {
				return err
			}
		}

		invoice, err = s.mapper.Invoice.FromDatabase(dbInvoice)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("invoice created", "user_id", userID, "invoice_id", invoice.ID,
		"number", invoice.InvoiceNumber, "total", domain.FormatDecimal(invoice.TotalAmount), "entries", len(in.TimeEntryIDs))
	return &invoice, nil
}

// billableEntries checks that every listed entry may be attached to a new
// invoice and returns the ids without duplicates.
func (s *invoiceServiceImpl) billableEntries(ctx context.Context, tx sqlite.Repository, userID int64, ids []int64) ([]int64, error) {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		dbEntry, err := tx.GetTimeEntry(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		entry := s.mapper.TimeEntry.FromDatabase(*dbEntry)
		switch {
		case entry.IsRunning():
			return nil, errors.NewInvalidStateError("time entry", "running", "running time entries cannot be invoiced")
		case !entry.IsBillable:
			return nil, errors.NewInvalidStateError("time entry", "non-billable", "time entry is not billable")
		case entry.IsLocked():
			return nil, errors.NewInvalidStateError("time entry", "billed", "time entry is already billed")
		}
		unique = append(unique, id)
	}
	return unique, nil
}

// Get returns the invoice header and items
func (s *invoiceServiceImpl) Get(ctx context.Context, userID, id int64) (*domain.Invoice, error) {
	dbInvoice, err := s.repo.GetInvoice(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	invoice, err := s.mapper.Invoice.FromDatabase(*dbInvoice)
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List returns the user's invoices, newest first
func (s *invoiceServiceImpl) List(ctx context.Context, userID int64, search domain.InvoiceSearch) ([]*domain.Invoice, error) {
	if search.Status != nil && !search.Status.IsValid() {
		return nil, errors.NewInvalidInputError("status", string(*search.Status), "unknown invoice status")
	}

	dbInvoices, err := s.repo.ListInvoices(ctx, s.mapper.SearchOptions.InvoiceFilterToDatabase(userID, search))
	if err != nil {
		return nil, err
	}

	invoices := make([]*domain.Invoice, 0, len(dbInvoices))
	for _, dbInvoice := range dbInvoices {
		invoice, err := s.mapper.Invoice.FromDatabase(*dbInvoice)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, &invoice)
	}
	return invoices, nil
}

// Update edits a draft. Replacing the items recomputes every total.
func (s *invoiceServiceImpl) Update(ctx context.Context, userID, id int64, in validation.InvoicePatchInput) (*domain.Invoice, error) {
	var updated domain.Invoice

	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		current, err := s.load(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if !current.IsEditable() {
			return errors.NewInvalidStateError("invoice", string(current.Status), "only draft invoices can be edited")
		}

		patch, err := s.invoiceValidator.ValidateInvoicePatch(in, current)
		if err != nil {
			return err
		}
		if patch.InvoiceNumber != nil && *patch.InvoiceNumber != current.InvoiceNumber {
			exists, err := tx.InvoiceNumberExists(ctx, userID, *patch.InvoiceNumber, id)
			if err != nil {
				return err
			}
			if exists {
				return errors.NewDuplicateError("invoice", "invoiceNumber", *patch.InvoiceNumber)
			}
		}

		updated, err = current.Apply(patch, s.clock.Now())
		if err != nil {
			return err
		}

		dbInvoice := s.mapper.Invoice.ToDatabase(updated)
		if err := tx.UpdateInvoice(ctx, &dbInvoice); err != nil {
			return err
		}
		if patch.Items != nil {
			if err := tx.ReplaceInvoiceItems(ctx, &dbInvoice); err != nil {
				return err
			}
		}
		updated, err = s.mapper.Invoice.FromDatabase(dbInvoice)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("invoice updated", "user_id", userID, "invoice_id", id, "total", domain.FormatDecimal(updated.TotalAmount))
	return &updated, nil
}

// Send moves a draft to sent
func (s *invoiceServiceImpl) Send(ctx context.Context, userID, id int64) (*domain.Invoice, error) {
	return s.transition(ctx, userID, id, "invoice sent", func(inv domain.Invoice) (domain.Invoice, bool, error) {
		sent, err := inv.Send(s.clock.Now())
		return sent, err == nil, err
	})
}

// MarkPaid stamps the paid date, defaulting to now. Paying an already paid
// invoice returns it unchanged.
func (s *invoiceServiceImpl) MarkPaid(ctx context.Context, userID, id int64, paidDate *string) (*domain.Invoice, error) {
	now := s.clock.Now()
	paidAt, err := s.invoiceValidator.ValidatePaidDate(paidDate, now)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, userID, id, "invoice paid", func(inv domain.Invoice) (domain.Invoice, bool, error) {
		return inv.MarkPaid(paidAt, now)
	})
}

// Cancel moves a draft, sent or overdue invoice to cancelled
func (s *invoiceServiceImpl) Cancel(ctx context.Context, userID, id int64) (*domain.Invoice, error) {
	return s.transition(ctx, userID, id, "invoice cancelled", func(inv domain.Invoice) (domain.Invoice, bool, error) {
		cancelled, err := inv.Cancel(s.clock.Now())
		return cancelled, err == nil, err
	})
}

// MarkOverdue moves every sent invoice of the user that is past due to overdue
func (s *invoiceServiceImpl) MarkOverdue(ctx context.Context, userID int64) ([]*domain.Invoice, error) {
	marked, err := s.markOverdue(ctx, sqlite.InvoiceFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	if len(marked) > 0 {
		s.logger.Info("invoices marked overdue", "user_id", userID, "count", len(marked))
	}
	return marked, nil
}

// SweepOverdue marks past-due sent invoices of every user overdue
func (s *invoiceServiceImpl) SweepOverdue(ctx context.Context) ([]*domain.Invoice, error) {
	marked, err := s.markOverdue(ctx, sqlite.InvoiceFilter{AllUsers: true})
	if err != nil {
		return nil, err
	}
	if len(marked) > 0 {
		s.logger.Info("invoices marked overdue", "count", len(marked))
	}
	return marked, nil
}

func (s *invoiceServiceImpl) markOverdue(ctx context.Context, filter sqlite.InvoiceFilter) ([]*domain.Invoice, error) {
	now := s.clock.Now()
	sent := string(domain.InvoiceSent)
	filter.Status = &sent
	filter.DueBefore = &now
	var marked []*domain.Invoice

	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		dbInvoices, err := tx.ListInvoices(ctx, filter)
		if err != nil {
			return err
		}

		for _, dbInvoice := range dbInvoices {
			invoice, err := s.mapper.Invoice.FromDatabase(*dbInvoice)
			if err != nil {
				return err
			}
			if !invoice.IsOverdue(now) {
				continue
			}
			overdue, err := invoice.MarkOverdue(now)
			if err != nil {
				return err
			}
			dbOverdue := s.mapper.Invoice.ToDatabase(overdue)
			if err := tx.UpdateInvoiceStatus(ctx, &dbOverdue); err != nil {
				return err
			}
			marked = append(marked, &overdue)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

// Delete removes a draft or cancelled invoice and releases its time entries
func (s *invoiceServiceImpl) Delete(ctx context.Context, userID, id int64) error {
	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		invoice, err := s.load(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if !invoice.IsDeletable() {
			return errors.NewInvalidStateError("invoice", string(invoice.Status), "only draft or cancelled invoices can be deleted")
		}
		if err := tx.ReleaseTimeEntries(ctx, userID, id); err != nil {
			return err
		}
		return tx.DeleteInvoice(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("invoice deleted", "user_id", userID, "invoice_id", id)
	return nil
}

func (s *invoiceServiceImpl) load(ctx context.Context, repo sqlite.Repository, userID, id int64) (domain.Invoice, error) {
	dbInvoice, err := repo.GetInvoice(ctx, userID, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	return s.mapper.Invoice.FromDatabase(*dbInvoice)
}

// transition loads the invoice, applies a status change and writes only the
// status columns when something changed.
func (s *invoiceServiceImpl) transition(ctx context.Context, userID, id int64, event string,
	apply func(domain.Invoice) (domain.Invoice, bool, error)) (*domain.Invoice, error) {
	var result domain.Invoice
	var changed bool

	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		current, err := s.load(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		result, changed, err = apply(current)
		if err != nil || !changed {
			return err
		}

		dbInvoice := s.mapper.Invoice.ToDatabase(result)
		return tx.UpdateInvoiceStatus(ctx, &dbInvoice)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Debug(event, "user_id", userID, "invoice_id", id, "status", string(result.Status))
	}
	return &result, nil
}
