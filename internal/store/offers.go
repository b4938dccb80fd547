package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lncharge/internal/models"

	"github.com/jackc/pgx/v5"
)

const offerColumns = `
	id, offer_id, bolt12, description, vendor, label, single_use,
	absolute_expiry, recurrence, recurrence_base, recurrence_paywindow,
	recurrence_limit, quoted_currency, quoted_amount, created_at,
	pay_index, paid_at, msatoshi_received, metadata
`

func (s *Store) CreateOffer(ctx context.Context, o *models.Offer) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO offer (
			id, offer_id, bolt12, description, vendor, label, single_use,
			absolute_expiry, recurrence, recurrence_base, recurrence_paywindow,
			recurrence_limit, quoted_currency, quoted_amount, created_at, metadata
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		o.ID,
		o.OfferID,
		o.Bolt12,
		o.Description,
		o.Vendor,
		o.Label,
		o.SingleUse,
		o.AbsoluteExpiry,
		o.Recurrence,
		o.RecurrenceBase,
		o.RecurrencePaywindow,
		o.RecurrenceLimit,
		o.QuotedCurrency,
		o.QuotedAmount,
		o.CreatedAt,
		o.Metadata,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateID
	}
	return err
}

// GetOffer looks up by local id, falling back to the node-issued offer id.
// A miss is (nil, nil).
func (s *Store) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offer WHERE id=$1 OR offer_id=$1`, id)
	o, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (s *Store) ListOffers(ctx context.Context) ([]*models.Offer, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+offerColumns+` FROM offer ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (s *Store) DeleteOffer(ctx context.Context, id string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM webhook WHERE ref_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM offer WHERE id=$1 OR offer_id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MarkOfferPaid refreshes the last-settlement columns. Offers are reusable,
// so unlike invoices this may succeed repeatedly; the guard only keeps
// replayed or out-of-order events from moving pay_index backwards.
func (s *Store) MarkOfferPaid(ctx context.Context, offerID string, payIndex int64, paidAt time.Time, msatReceived int64) (int64, error) {
	res, err := s.Pool.Exec(ctx, `
		UPDATE offer
		SET pay_index=$2, paid_at=$3, msatoshi_received=$4
		WHERE offer_id=$1 AND (pay_index IS NULL OR pay_index < $2)
	`, offerID, payIndex, paidAt, msatReceived)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func scanOffer(row pgx.Row) (*models.Offer, error) {
	var o models.Offer
	var vendor, label, recurrence, recurrenceBase, recurrencePaywindow sql.NullString
	var quotedCurrency, quotedAmount sql.NullString
	var recurrenceLimit, payIndex, msatReceived sql.NullInt64
	var absoluteExpiry, paidAt sql.NullTime

	err := row.Scan(
		&o.ID,
		&o.OfferID,
		&o.Bolt12,
		&o.Description,
		&vendor,
		&label,
		&o.SingleUse,
		&absoluteExpiry,
		&recurrence,
		&recurrenceBase,
		&recurrencePaywindow,
		&recurrenceLimit,
		&quotedCurrency,
		&quotedAmount,
		&o.CreatedAt,
		&payIndex,
		&paidAt,
		&msatReceived,
		&o.Metadata,
	)
	if err != nil {
		return nil, err
	}

	if vendor.Valid {
		o.Vendor = &vendor.String
	}
	if label.Valid {
		o.Label = &label.String
	}
	if absoluteExpiry.Valid {
		o.AbsoluteExpiry = &absoluteExpiry.Time
	}
	if recurrence.Valid {
		o.Recurrence = &recurrence.String
	}
	if recurrenceBase.Valid {
		o.RecurrenceBase = &recurrenceBase.String
	}
	if recurrencePaywindow.Valid {
		o.RecurrencePaywindow = &recurrencePaywindow.String
	}
	if recurrenceLimit.Valid {
		o.RecurrenceLimit = &recurrenceLimit.Int64
	}
	if quotedCurrency.Valid {
		o.QuotedCurrency = &quotedCurrency.String
	}
	if quotedAmount.Valid {
		o.QuotedAmount = &quotedAmount.String
	}
	if payIndex.Valid {
		o.PayIndex = &payIndex.Int64
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if msatReceived.Valid {
		o.MsatoshiReceived = &msatReceived.Int64
	}
	return &o, nil
}
