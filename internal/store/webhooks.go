package store

import (
	"context"
	"time"

	"lncharge/internal/models"
)

func (s *Store) AddWebhook(ctx context.Context, refID, url string, createdAt time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO webhook (ref_id, url, created_at)
		VALUES ($1,$2,$3)
	`, refID, url, createdAt)
	return err
}

func (s *Store) ListWebhooks(ctx context.Context, refID string) ([]*models.Webhook, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, ref_id, url, created_at FROM webhook WHERE ref_id=$1 ORDER BY id
	`, refID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hooks []*models.Webhook
	for rows.Next() {
		var h models.Webhook
		if err := rows.Scan(&h.ID, &h.RefID, &h.URL, &h.CreatedAt); err != nil {
			return nil, err
		}
		hooks = append(hooks, &h)
	}
	return hooks, rows.Err()
}

// LogWebhookAttempt overwrites the registration's delivery outcome; only the
// most recent attempt is retained.
func (s *Store) LogWebhookAttempt(ctx context.Context, hookID int64, attempt models.WebhookAttempt) error {
	if attempt.Success {
		_, err := s.Pool.Exec(ctx, `
			UPDATE webhook
			SET requested_at=$2, success=TRUE, resp_code=$3, resp_error=NULL
			WHERE id=$1
		`, hookID, attempt.RequestedAt, attempt.RespCode)
		return err
	}
	_, err := s.Pool.Exec(ctx, `
		UPDATE webhook
		SET requested_at=$2, success=FALSE, resp_code=NULL, resp_error=$3
		WHERE id=$1
	`, hookID, attempt.RequestedAt, attempt.RespError)
	return err
}
