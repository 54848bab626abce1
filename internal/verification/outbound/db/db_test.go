package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const schema = `
CREATE TABLE verification_records (
	id          BIGINT PRIMARY KEY,
	phone       TEXT NOT NULL,
	code        TEXT NOT NULL,
	tracking_id TEXT NOT NULL DEFAULT '',
	provider_id TEXT NOT NULL DEFAULT '',
	is_used     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL
)`

func newTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("otpgate"),
		postgres.WithUsername("otpgate"),
		postgres.WithPassword("otpgate"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("failed to start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return NewDB(pool, instrument.NewNoop())
}

func record(id int64, phone, code, trackingID string, at time.Time) entity.VerificationRecord {
	return entity.VerificationRecord{
		ID:         id,
		Phone:      phone,
		Code:       code,
		TrackingID: trackingID,
		CreatedAt:  at,
		ExpiresAt:  at.Add(entity.CodeTTL),
	}
}

func TestCreateRecordSupersedesPrevious(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	superseded, err := store.CreateRecord(ctx, record(1, "+79991234567", "111111", "req_1", now))
	if err != nil {
		t.Fatalf("CreateRecord(first) error = %v", err)
	}
	if len(superseded) != 0 {
		t.Fatalf("first send superseded %v, want nothing", superseded)
	}

	// A record for another phone must survive the supersede below.
	if _, err := store.CreateRecord(ctx, record(2, "+79990000001", "999999", "", now)); err != nil {
		t.Fatalf("CreateRecord(other phone) error = %v", err)
	}

	superseded, err = store.CreateRecord(ctx, record(3, "+79991234567", "222222", "", now.Add(time.Second)))
	if err != nil {
		t.Fatalf("CreateRecord(second) error = %v", err)
	}
	if len(superseded) != 1 || superseded[0] != "req_1" {
		t.Fatalf("superseded = %v, want [req_1]", superseded)
	}

	if _, err := store.GetActiveRecord(ctx, "+79991234567", "111111"); !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("first code still active after second send, err = %v", err)
	}

	rec, err := store.GetActiveRecord(ctx, "+79991234567", "222222")
	if err != nil {
		t.Fatalf("GetActiveRecord(second code) error = %v", err)
	}
	if rec.ID != 3 || rec.IsUsed {
		t.Errorf("active record = %+v, want id 3 and not used", rec)
	}

	if _, err := store.GetActiveRecord(ctx, "+79990000001", "999999"); err != nil {
		t.Errorf("other phone's record was superseded too: %v", err)
	}

	chatRec, err := store.GetRecordByTrackingID(ctx, "req_1")
	if err != nil {
		t.Fatalf("GetRecordByTrackingID error = %v", err)
	}
	if chatRec.ID != 1 || !chatRec.IsUsed {
		t.Errorf("superseded record = %+v, want id 1 marked used", chatRec)
	}

	if _, err := store.GetRecordByTrackingID(ctx, "req_unknown"); !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("unknown tracking id err = %v, want ErrNotFound", err)
	}
}

func TestRecordLifecycle(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	if _, err := store.CreateRecord(ctx, record(10, "+79991234567", "482910", "", now)); err != nil {
		t.Fatalf("CreateRecord error = %v", err)
	}

	if err := store.SetRecordProviderID(ctx, 10, "sms_req_10"); err != nil {
		t.Fatalf("SetRecordProviderID error = %v", err)
	}
	rec, err := store.GetActiveRecord(ctx, "+79991234567", "482910")
	if err != nil {
		t.Fatalf("GetActiveRecord error = %v", err)
	}
	if rec.ProviderID != "sms_req_10" {
		t.Errorf("ProviderID = %q, want sms_req_10", rec.ProviderID)
	}

	ok, err := store.MarkRecordUsed(ctx, 10)
	if err != nil || !ok {
		t.Fatalf("MarkRecordUsed(first) = %v, %v, want true, nil", ok, err)
	}
	ok, err = store.MarkRecordUsed(ctx, 10)
	if err != nil || ok {
		t.Fatalf("MarkRecordUsed(second) = %v, %v, want false, nil", ok, err)
	}

	if _, err := store.GetActiveRecord(ctx, "+79991234567", "482910"); !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("used record still active, err = %v", err)
	}

	if _, err := store.CreateRecord(ctx, record(11, "+79991234567", "503317", "", now.Add(time.Second))); err != nil {
		t.Fatalf("CreateRecord error = %v", err)
	}
	if err := store.DeleteRecord(ctx, 11); err != nil {
		t.Fatalf("DeleteRecord error = %v", err)
	}
	if _, err := store.GetActiveRecord(ctx, "+79991234567", "503317"); !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("deleted record still active, err = %v", err)
	}
}
