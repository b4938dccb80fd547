package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lncharge/internal/models"

	"github.com/jackc/pgx/v5"
)

const invoiceColumns = `
	id, msatoshi, description, quoted_currency, quoted_amount,
	payment_hash, payment_request, expires_at, created_at,
	pay_index, paid_at, msatoshi_received, metadata
`

func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO invoice (
			id, msatoshi, description, quoted_currency, quoted_amount,
			payment_hash, payment_request, expires_at, created_at, metadata
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		inv.ID,
		inv.Msatoshi,
		inv.Description,
		inv.QuotedCurrency,
		inv.QuotedAmount,
		inv.PaymentHash,
		inv.PaymentRequest,
		inv.ExpiresAt,
		inv.CreatedAt,
		inv.Metadata,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateID
	}
	return err
}

// GetInvoice returns (nil, nil) when the id is absent: a missing invoice is
// an empty result for fetch-style operations, not an error.
func (s *Store) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoice WHERE id=$1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

func (s *Store) ListInvoices(ctx context.Context) ([]*models.Invoice, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoice ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// DeleteInvoice removes the invoice and its webhook registrations in one
// transaction.
func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM webhook WHERE ref_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM invoice WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MarkPaid records a settlement. The pay_index IS NULL guard makes the
// unpaid→paid transition happen at most once per invoice even under
// concurrent duplicate settlement events; callers check the returned count.
func (s *Store) MarkPaid(ctx context.Context, id string, payIndex int64, paidAt time.Time, msatReceived int64) (int64, error) {
	res, err := s.Pool.Exec(ctx, `
		UPDATE invoice
		SET pay_index=$2, paid_at=$3, msatoshi_received=$4
		WHERE id=$1 AND pay_index IS NULL
	`, id, payIndex, paidAt, msatReceived)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// MaxPayIndex is the resume point for the settlement stream after a restart.
func (s *Store) MaxPayIndex(ctx context.Context) (int64, error) {
	var idx int64
	err := s.Pool.QueryRow(ctx, `SELECT COALESCE(MAX(pay_index), 0) FROM invoice`).Scan(&idx)
	return idx, err
}

// ListExpiredUnpaid returns ids of unpaid invoices whose expiry passed
// before the cutoff. These are reconciliation candidates only; deletion
// requires node-side confirmation first.
func (s *Store) ListExpiredUnpaid(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id FROM invoice
		WHERE pay_index IS NULL AND expires_at < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteInvoices removes the given invoices and their webhook registrations
// in a single batched transaction.
func (s *Store) DeleteInvoices(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM webhook WHERE ref_id = ANY($1)`, ids); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM invoice WHERE id = ANY($1)`, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var inv models.Invoice
	var quotedCurrency, quotedAmount sql.NullString
	var payIndex, msatReceived sql.NullInt64
	var paidAt sql.NullTime

	err := row.Scan(
		&inv.ID,
		&inv.Msatoshi,
		&inv.Description,
		&quotedCurrency,
		&quotedAmount,
		&inv.PaymentHash,
		&inv.PaymentRequest,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&payIndex,
		&paidAt,
		&msatReceived,
		&inv.Metadata,
	)
	if err != nil {
		return nil, err
	}

	if quotedCurrency.Valid {
		inv.QuotedCurrency = &quotedCurrency.String
	}
	if quotedAmount.Valid {
		inv.QuotedAmount = &quotedAmount.String
	}
	if payIndex.Valid {
		inv.PayIndex = &payIndex.Int64
	}
	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	if msatReceived.Valid {
		inv.MsatoshiReceived = &msatReceived.Int64
	}
	return &inv, nil
}
