package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilink/offer-engine/internal/conversion"
	"github.com/agrilink/offer-engine/internal/domain"
)

func setupMockDB(t *testing.T) (*ConversionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewConversionRepo(db), mock
}

func TestConversionRepoInsertCreates(t *testing.T) {
	repo, mock := setupMockDB(t)

	ev := &domain.ConversionEvent{
		ID:             "ev-1",
		PartnerID:      "p-1",
		OfferID:        "o-1",
		FarmID:         "f-1",
		IdempotencyKey: "idem-1",
		ConversionType: "purchase",
		Value:          12.50,
		Processed:      true,
		Valid:          true,
		ReceivedAt:     time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO promo_conversion_events").
		WithArgs(ev.ID, ev.PartnerID, ev.OfferID, ev.FarmID, ev.IdempotencyKey,
			ev.ConversionType, ev.Value, ev.Processed, ev.Valid, ev.ParkReason, ev.ReceivedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, existing, err := repo.Insert(context.Background(), ev)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversionRepoInsertConflictReturnsWinner(t *testing.T) {
	repo, mock := setupMockDB(t)

	ev := &domain.ConversionEvent{
		ID:             "ev-2",
		PartnerID:      "p-1",
		IdempotencyKey: "idem-1",
		ReceivedAt:     time.Now(),
	}

	// ON CONFLICT DO NOTHING reports zero rows when the key already exists.
	mock.ExpectExec("INSERT INTO promo_conversion_events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	received := time.Date(2026, 7, 31, 18, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM promo_conversion_events").
		WithArgs("p-1", "idem-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "partner_id", "offer_id", "farm_id", "idempotency_key",
			"conversion_type", "value", "processed", "valid", "park_reason", "received_at",
		}).AddRow("ev-1", "p-1", "o-1", "f-1", "idem-1", "purchase", 12.50, true, true, "", received))

	created, existing, err := repo.Insert(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, existing)
	assert.Equal(t, "ev-1", existing.ID, "should surface the first-writer's row")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversionRepoActiveWebhookKey(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM promo_webhook_keys").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "partner_id", "secret", "active", "created_at", "rotated_at",
		}).AddRow("k-1", "p-1", "s3cret", true, time.Now(), nil))

	k, err := repo.ActiveWebhookKey(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", k.Secret)

	mock.ExpectQuery("SELECT (.+) FROM promo_webhook_keys").
		WithArgs("p-none").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "partner_id", "secret", "active", "created_at", "rotated_at",
		}))

	_, err = repo.ActiveWebhookKey(context.Background(), "p-none")
	assert.ErrorIs(t, err, conversion.ErrKeyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversionRepoRotateWebhookKey(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE promo_webhook_keys").
		WithArgs("p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO promo_webhook_keys").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	k, err := repo.RotateWebhookKey(context.Background(), "p-1", "new-secret")
	require.NoError(t, err)
	assert.Equal(t, "p-1", k.PartnerID)
	assert.Equal(t, "new-secret", k.Secret)
	assert.True(t, k.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversionRepoOfferOwner(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT partner_id FROM promo_offers").
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows([]string{"partner_id"}).AddRow("p-1"))

	owner, err := repo.OfferOwner(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", owner)

	mock.ExpectQuery("SELECT partner_id FROM promo_offers").
		WithArgs("o-missing").
		WillReturnRows(sqlmock.NewRows([]string{"partner_id"}))

	_, err = repo.OfferOwner(context.Background(), "o-missing")
	assert.ErrorIs(t, err, conversion.ErrOfferNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
