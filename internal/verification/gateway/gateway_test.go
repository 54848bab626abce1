package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/greensms"
	"github.com/shandysiswandi/otpgate/internal/pkg/telegramgw"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

type fakeStore struct {
	created     []entity.VerificationRecord
	deleted     []int64
	superseded  []string
	providerIDs map[int64]string
	createErr   error
}

func (f *fakeStore) CreateRecord(_ context.Context, rec entity.VerificationRecord) ([]string, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, rec)
	return f.superseded, nil
}

func (f *fakeStore) SetRecordProviderID(_ context.Context, id int64, providerID string) error {
	if f.providerIDs == nil {
		f.providerIDs = map[int64]string{}
	}
	f.providerIDs[id] = providerID
	return nil
}

func (f *fakeStore) DeleteRecord(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCache struct {
	codes map[string]string
}

func (f *fakeCache) StoreCode(_ context.Context, phone, code string, _ time.Duration) error {
	if f.codes == nil {
		f.codes = map[string]string{}
	}
	f.codes[phone] = code
	return nil
}

type staticCodes struct{ code string }

func (s staticCodes) Generate() (string, error) { return s.code, nil }

type seqID struct{ next int64 }

func (s *seqID) Generate() int64 {
	s.next++
	return s.next
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type failingSMSClient struct{}

func (failingSMSClient) Send(context.Context, string, string) (string, error) {
	return "", errors.New("carrier down")
}
func (failingSMSClient) Status(context.Context, string) (string, error) {
	return greensms.StatusUnknown, nil
}
func (failingSMSClient) Balance(context.Context) (float64, error) { return 0, nil }

func TestChatSend(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	cache := &fakeCache{}
	chat := NewChat(telegramgw.NewDebug(), store, cache,
		staticCodes{code: "004217"}, &seqID{}, fixedClock{t: now}, goroutine.NewManager(4))

	rec, err := chat.Send(context.Background(), "+79991234567")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if rec.TrackingID == "" {
		t.Error("record has no tracking id")
	}
	if rec.Method() != entity.MethodTelegram {
		t.Errorf("Method() = %s, want telegram", rec.Method())
	}
	if rec.ExpiresAt != now.Add(entity.CodeTTL) {
		t.Errorf("ExpiresAt = %v, want created+ttl", rec.ExpiresAt)
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d records, want 1", len(store.created))
	}
	if cache.codes["+79991234567"] != "004217" {
		t.Errorf("cached code = %q, want 004217", cache.codes["+79991234567"])
	}
}

func TestChatDisabledChannel(t *testing.T) {
	store := &fakeStore{}
	chat := NewChat(telegramgw.NewDisabled(), store, &fakeCache{},
		staticCodes{code: "004217"}, &seqID{}, fixedClock{t: time.Now()}, goroutine.NewManager(4))

	ok, err := chat.IsAvailable(context.Background(), "+79991234567")
	if err != nil || ok {
		t.Errorf("IsAvailable() = %v, %v, want false, nil", ok, err)
	}

	_, err = chat.Send(context.Background(), "+79991234567")
	if !errors.Is(err, entity.ErrChannelUnavailable) {
		t.Fatalf("Send() error = %v, want ErrChannelUnavailable", err)
	}
	if len(store.created) != 0 {
		t.Errorf("created %d records on a disabled channel, want 0", len(store.created))
	}
}

func TestChatVerify(t *testing.T) {
	chat := NewChat(telegramgw.NewDebug(), &fakeStore{}, &fakeCache{},
		staticCodes{code: "004217"}, &seqID{}, fixedClock{t: time.Now()}, goroutine.NewManager(4))

	rec := &entity.VerificationRecord{TrackingID: "req_1"}

	ok, err := chat.Verify(context.Background(), rec, telegramgw.DebugCode)
	if err != nil || !ok {
		t.Errorf("Verify(valid code) = %v, %v, want true, nil", ok, err)
	}

	ok, err = chat.Verify(context.Background(), rec, "000000")
	if err != nil || ok {
		t.Errorf("Verify(wrong code) = %v, %v, want false, nil", ok, err)
	}

	// Records without a tracking id never belong to this channel.
	ok, err = chat.Verify(context.Background(), &entity.VerificationRecord{}, telegramgw.DebugCode)
	if err != nil || ok {
		t.Errorf("Verify(no tracking id) = %v, %v, want false, nil", ok, err)
	}
}

func TestSMSSend(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	cache := &fakeCache{}
	sms := NewSMS(greensms.NewDebug(), store, cache,
		staticCodes{code: "730001"}, &seqID{}, fixedClock{t: now})

	rec, err := sms.Send(context.Background(), "+79991234567")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if rec.TrackingID != "" {
		t.Errorf("sms record has tracking id %q", rec.TrackingID)
	}
	if rec.Method() != entity.MethodSMS {
		t.Errorf("Method() = %s, want sms", rec.Method())
	}
	if rec.ProviderID != greensms.DebugRequestID {
		t.Errorf("ProviderID = %q, want %q", rec.ProviderID, greensms.DebugRequestID)
	}
	if rec.DeliveryRef() != greensms.DebugRequestID {
		t.Errorf("DeliveryRef() = %q, want the carrier request id", rec.DeliveryRef())
	}
	if len(store.created) != 1 || len(store.deleted) != 0 {
		t.Errorf("store state created=%d deleted=%d, want 1/0",
			len(store.created), len(store.deleted))
	}
	if store.providerIDs[rec.ID] != greensms.DebugRequestID {
		t.Errorf("persisted provider id = %q, want %q",
			store.providerIDs[rec.ID], greensms.DebugRequestID)
	}
}

func TestSMSSendFailureRemovesRecord(t *testing.T) {
	store := &fakeStore{}
	sms := NewSMS(failingSMSClient{}, store, &fakeCache{},
		staticCodes{code: "730001"}, &seqID{}, fixedClock{t: time.Now()})

	_, err := sms.Send(context.Background(), "+79991234567")
	if !errors.Is(err, entity.ErrDeliveryFailed) {
		t.Fatalf("Send() error = %v, want ErrDeliveryFailed", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("created %d records, want 1", len(store.created))
	}
	if len(store.deleted) != 1 || store.deleted[0] != store.created[0].ID {
		t.Errorf("failed send did not remove its record: deleted=%v", store.deleted)
	}
}

func TestSMSVerify(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sms := NewSMS(greensms.NewDebug(), &fakeStore{}, &fakeCache{},
		staticCodes{code: "730001"}, &seqID{}, fixedClock{t: now})

	rec := &entity.VerificationRecord{
		Phone:     "+79991234567",
		Code:      "730001",
		CreatedAt: now.Add(-time.Minute),
		ExpiresAt: now.Add(entity.CodeTTL - time.Minute),
	}

	ok, err := sms.Verify(context.Background(), rec, "730001")
	if err != nil || !ok {
		t.Errorf("Verify(match) = %v, %v, want true, nil", ok, err)
	}

	ok, err = sms.Verify(context.Background(), rec, "730002")
	if err != nil || ok {
		t.Errorf("Verify(mismatch) = %v, %v, want false, nil", ok, err)
	}

	expired := &entity.VerificationRecord{
		Phone:     "+79991234567",
		Code:      "730001",
		CreatedAt: now.Add(-2 * entity.CodeTTL),
		ExpiresAt: now.Add(-entity.CodeTTL),
	}
	ok, err = sms.Verify(context.Background(), expired, "730001")
	if err != nil || ok {
		t.Errorf("Verify(expired) = %v, %v, want false, nil", ok, err)
	}
}

type recordingTelegram struct {
	telegramgw.Client

	mu      sync.Mutex
	revoked []string
}

func (r *recordingTelegram) RevokeVerificationMessage(ctx context.Context, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, requestID)
	return nil
}

func TestChatSendRevokesSuperseded(t *testing.T) {
	client := &recordingTelegram{Client: telegramgw.NewDebug()}
	store := &fakeStore{superseded: []string{"req_old"}}
	gr := goroutine.NewManager(4)
	chat := NewChat(client, store, &fakeCache{},
		staticCodes{code: "004217"}, &seqID{}, fixedClock{t: time.Now()}, gr)

	if _, err := chat.Send(context.Background(), "+79991234567"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if err := gr.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.revoked) != 1 || client.revoked[0] != "req_old" {
		t.Errorf("revoked = %v, want [req_old]", client.revoked)
	}
}
