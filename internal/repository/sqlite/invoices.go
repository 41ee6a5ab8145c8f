package sqlite

import (
	"context"
	"strings"

	"freelancer/internal/errors"
)

const invoiceColumns = `
	id, user_id, client_id, project_id, invoice_number, issue_date, due_date, status,
	subtotal, tax_rate, tax_amount, discount, total_amount, currency, notes, paid_date,
	created_at, updated_at`

// CreateInvoice inserts the header and all items atomically
func (r *SQLiteRepository) CreateInvoice(ctx context.Context, invoice *Invoice) error {
	return r.WithTx(ctx, func(repo Repository) error {
		tx := repo.(*SQLiteRepository)

		stampCreated(&invoice.CreatedAt, &invoice.UpdatedAt)
		query := `
		INSERT INTO invoices (
			user_id, client_id, project_id, invoice_number, issue_date, due_date, status,
			subtotal, tax_rate, tax_amount, discount, total_amount, currency, notes, paid_date,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		id, err := ExecuteWithLastInsertID(ctx, tx.ext, query,
			invoice.UserID, invoice.ClientID, nullInt64(invoice.ProjectID), invoice.InvoiceNumber,
			FormatDateForDB(invoice.IssueDate), FormatDateForDB(invoice.DueDate), invoice.Status,
			invoice.Subtotal, invoice.TaxRate, invoice.TaxAmount, invoice.Discount, invoice.TotalAmount,
			invoice.Currency, invoice.Notes, FormatTimePtrForDB(invoice.PaidDate),
			FormatTimeForDB(invoice.CreatedAt), FormatTimeForDB(invoice.UpdatedAt))
		if err != nil {
			if IsUniqueViolation(err) {
				return errors.NewDuplicateError("invoice", "invoiceNumber", invoice.InvoiceNumber)
			}
			if IsForeignKeyViolation(err) {
				return errors.NewNotFoundError("client", idString(invoice.ClientID))
			}
			return HandleDatabaseError("create invoice", err)
		}
		invoice.ID = id

		return tx.insertItems(ctx, invoice)
	})
}

func (r *SQLiteRepository) insertItems(ctx context.Context, invoice *Invoice) error {
	query := `
	INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, total)
	VALUES (?, ?, ?, ?, ?)`
	for i := range invoice.Items {
		item := &invoice.Items[i]
		item.InvoiceID = invoice.ID
		id, err := ExecuteWithLastInsertID(ctx, r.ext, query,
			item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.Total)
		if err != nil {
			return HandleDatabaseError("create invoice item", err)
		}
		item.ID = id
	}
	return nil
}

// GetInvoice retrieves an invoice with its items
func (r *SQLiteRepository) GetInvoice(ctx context.Context, userID, id int64) (*Invoice, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `SELECT` + invoiceColumns + `
	FROM invoices
	WHERE id = ? AND user_id = ?`
	invoice, err := QuerySingle[Invoice, invoiceRow](ctx, r.ext, query, "invoice", idString(id), id, userID)
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Items = items
	return invoice, nil
}

func (r *SQLiteRepository) listItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error) {
	query := `
	SELECT id, invoice_id, description, quantity, unit_price, total
	FROM invoice_items
	WHERE invoice_id = ?
	ORDER BY id ASC`
	items, err := QueryMultiple[InvoiceItem, invoiceItemRow](ctx, r.ext, query, "invoice items", invoiceID)
	if err != nil {
		return nil, err
	}
	result := make([]InvoiceItem, len(items))
	for i, item := range items {
		result[i] = *item
	}
	return result, nil
}

// ListInvoices lists invoice headers with their items, newest first
func (r *SQLiteRepository) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]*Invoice, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	conditions := []string{"1 = 1"}
	var args []interface{}
	if !filter.AllUsers {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ClientID != nil {
		conditions = append(conditions, "client_id = ?")
		args = append(args, *filter.ClientID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.DueBefore != nil {
		conditions = append(conditions, "due_date < ?")
		args = append(args, FormatDateForDB(*filter.DueBefore))
	}

	query := `SELECT` + invoiceColumns + `
	FROM invoices
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY issue_date DESC, id DESC`

	invoices, err := QueryMultiple[Invoice, invoiceRow](ctx, r.ext, query, "invoices", args...)
	if err != nil {
		return nil, err
	}
	for _, invoice := range invoices {
		if invoice.Items, err = r.listItems(ctx, invoice.ID); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// InvoiceNumberExists reports whether the user already has an invoice with this number.
// excludeID skips one invoice, for renames; pass 0 to check all.
func (r *SQLiteRepository) InvoiceNumberExists(ctx context.Context, userID int64, number string, excludeID int64) (bool, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	var count int
	query := `SELECT COUNT(*) FROM invoices WHERE user_id = ? AND invoice_number = ? AND id != ?`
	if err := r.ext.QueryRowxContext(ctx, query, userID, number, excludeID).Scan(&count); err != nil {
		return false, HandleDatabaseError("check invoice number", err)
	}
	return count > 0, nil
}

// UpdateInvoice rewrites the header. Items are left untouched.
func (r *SQLiteRepository) UpdateInvoice(ctx context.Context, invoice *Invoice) error {
	return r.WithTx(ctx, func(repo Repository) error {
		tx := repo.(*SQLiteRepository)

		query := `
		UPDATE invoices
		SET project_id = ?, invoice_number = ?, issue_date = ?, due_date = ?, status = ?,
			subtotal = ?, tax_rate = ?, tax_amount = ?, discount = ?, total_amount = ?,
			currency = ?, notes = ?, paid_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
		result, err := tx.ext.ExecContext(ctx, query,
			nullInt64(invoice.ProjectID), invoice.InvoiceNumber,
			FormatDateForDB(invoice.IssueDate), FormatDateForDB(invoice.DueDate), invoice.Status,
			invoice.Subtotal, invoice.TaxRate, invoice.TaxAmount, invoice.Discount, invoice.TotalAmount,
			invoice.Currency, invoice.Notes, FormatTimePtrForDB(invoice.PaidDate), FormatTimeForDB(invoice.UpdatedAt),
			invoice.ID, invoice.UserID)
		if err != nil {
			if IsUniqueViolation(err) {
				return errors.NewDuplicateError("invoice", "invoiceNumber", invoice.InvoiceNumber)
			}
			return HandleDatabaseError("update invoice", err)
		}
		return ValidateRowsAffected(result, "invoice", idString(invoice.ID))
	})
}

// ReplaceInvoiceItems swaps every line of the invoice for invoice.Items,
// assigning fresh item ids.
func (r *SQLiteRepository) ReplaceInvoiceItems(ctx context.Context, invoice *Invoice) error {
	return r.WithTx(ctx, func(repo Repository) error {
		tx := repo.(*SQLiteRepository)
		if _, err := tx.ext.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, invoice.ID); err != nil {
			return HandleDatabaseError("replace invoice items", err)
		}
		return tx.insertItems(ctx, invoice)
	})
}

// UpdateInvoiceStatus writes only the status and paid date, leaving the
// financial fields and items untouched
func (r *SQLiteRepository) UpdateInvoiceStatus(ctx context.Context, invoice *Invoice) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `
	UPDATE invoices
	SET status = ?, paid_date = ?, updated_at = ?
	WHERE id = ? AND user_id = ?`
	return ExecuteWithRowsAffected(ctx, r.ext, query, "invoice", idString(invoice.ID),
		invoice.Status, FormatTimePtrForDB(invoice.PaidDate), FormatTimeForDB(invoice.UpdatedAt),
		invoice.ID, invoice.UserID)
}

// DeleteInvoice deletes an invoice; items cascade and linked entries are detached by the schema
func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, userID, id int64) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `DELETE FROM invoices WHERE id = ? AND user_id = ?`
	return ExecuteWithRowsAffected(ctx, r.ext, query, "invoice", idString(id), id, userID)
}
