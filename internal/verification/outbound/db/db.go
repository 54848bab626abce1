package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		ins:  ins,
	}
}

// - 23505 unique violation → goerror.ErrConflict
// - no rows → goerror.ErrNotFound
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CreateRecord inserts rec after marking every still-open record for the
// same phone as used. Superseded codes stop verifying but stay in the
// table as an audit trail. The provider tracking ids of the superseded
// records are returned so the caller can revoke them upstream.
func (s *DB) CreateRecord(ctx context.Context, rec entity.VerificationRecord) (superseded []string, err error) {
	ctx, span := s.startSpan(ctx, "CreateRecord")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		UPDATE verification_records
		SET is_used = TRUE
		WHERE phone = $1 AND is_used = FALSE
		RETURNING tracking_id`, rec.Phone)
	if err != nil {
		return nil, s.mapError(err)
	}
	for rows.Next() {
		var tid string
		if err = rows.Scan(&tid); err != nil {
			rows.Close()
			return nil, s.mapError(err)
		}
		if tid != "" {
			superseded = append(superseded, tid)
		}
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO verification_records (id, phone, code, tracking_id, provider_id, is_used, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`,
		rec.ID, rec.Phone, rec.Code, rec.TrackingID, rec.ProviderID, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return superseded, s.mapError(tx.Commit(ctx))
}

// GetActiveRecord returns the newest unused record matching phone and code.
func (s *DB) GetActiveRecord(ctx context.Context, phone, code string) (rec *entity.VerificationRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveRecord")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT id, phone, code, tracking_id, provider_id, is_used, created_at, expires_at
		FROM verification_records
		WHERE phone = $1 AND code = $2 AND is_used = FALSE
		ORDER BY created_at DESC
		LIMIT 1`, phone, code)

	var out entity.VerificationRecord
	err = row.Scan(&out.ID, &out.Phone, &out.Code, &out.TrackingID, &out.ProviderID,
		&out.IsUsed, &out.CreatedAt, &out.ExpiresAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}

// GetRecordByTrackingID returns the record a provider tracking id belongs to.
func (s *DB) GetRecordByTrackingID(ctx context.Context, trackingID string) (rec *entity.VerificationRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetRecordByTrackingID")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT id, phone, code, tracking_id, provider_id, is_used, created_at, expires_at
		FROM verification_records
		WHERE tracking_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, trackingID)

	var out entity.VerificationRecord
	err = row.Scan(&out.ID, &out.Phone, &out.Code, &out.TrackingID, &out.ProviderID,
		&out.IsUsed, &out.CreatedAt, &out.ExpiresAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}

// MarkRecordUsed flips is_used for id. It reports false when the record
// was already consumed, so two racing verifications cannot both win.
func (s *DB) MarkRecordUsed(ctx context.Context, id int64) (ok bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkRecordUsed")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE verification_records
		SET is_used = TRUE
		WHERE id = $1 AND is_used = FALSE`, id)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

// SetRecordProviderID stores the carrier request id returned when the
// send was accepted, enabling later delivery status lookups.
func (s *DB) SetRecordProviderID(ctx context.Context, id int64, providerID string) (err error) {
	ctx, span := s.startSpan(ctx, "SetRecordProviderID")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE verification_records
		SET provider_id = $2
		WHERE id = $1`, id, providerID)
	return s.mapError(err)
}

// DeleteRecord removes a record whose code was never handed to the
// carrier, keeping failed sends out of the audit trail.
func (s *DB) DeleteRecord(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteRecord")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM verification_records WHERE id = $1`, id)
	return s.mapError(err)
}
