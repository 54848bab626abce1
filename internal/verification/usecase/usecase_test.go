package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

type fakeDB struct {
	active     *entity.VerificationRecord
	byTracking *entity.VerificationRecord
	markOK     bool
	marked     []int64
}

func (f *fakeDB) GetActiveRecord(_ context.Context, _, _ string) (*entity.VerificationRecord, error) {
	if f.active == nil {
		return nil, goerror.ErrNotFound
	}
	return f.active, nil
}

func (f *fakeDB) GetRecordByTrackingID(_ context.Context, _ string) (*entity.VerificationRecord, error) {
	if f.byTracking == nil {
		return nil, goerror.ErrNotFound
	}
	return f.byTracking, nil
}

func (f *fakeDB) MarkRecordUsed(_ context.Context, id int64) (bool, error) {
	f.marked = append(f.marked, id)
	return f.markOK, nil
}

type fakeCache struct {
	allowSend    bool
	allowAttempt bool
	remaining    int64
	resets       int
	dropped      []string
}

func (f *fakeCache) AllowSend(_ context.Context, _ string, _ int64, _ time.Duration) (bool, error) {
	return f.allowSend, nil
}

func (f *fakeCache) RemainingSends(_ context.Context, _ string, _ int64) (int64, error) {
	return f.remaining, nil
}

func (f *fakeCache) AllowAttempt(_ context.Context, _ string, _ int64, _ time.Duration) (bool, error) {
	return f.allowAttempt, nil
}

func (f *fakeCache) ResetAttempts(_ context.Context, _ string) error {
	f.resets++
	return nil
}

func (f *fakeCache) DeleteCode(_ context.Context, phone string) error {
	f.dropped = append(f.dropped, phone)
	return nil
}

type fakeMessaging struct {
	sent     []CodeSentEvent
	verified []CodeVerifiedEvent
}

func (f *fakeMessaging) PublishCodeSent(_ context.Context, msg CodeSentEvent) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMessaging) PublishCodeVerified(_ context.Context, msg CodeVerifiedEvent) error {
	f.verified = append(f.verified, msg)
	return nil
}

type fakeGateway struct {
	available bool
	sendRec   *entity.VerificationRecord
	sendErr   error
	verifyOK  bool
	status    entity.DeliveryStatus
	balance   float64
	sends     int
	verifies  int
}

func (f *fakeGateway) IsAvailable(_ context.Context, _ string) (bool, error) {
	return f.available, nil
}

func (f *fakeGateway) Send(_ context.Context, _ string) (*entity.VerificationRecord, error) {
	f.sends++
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.sendRec, nil
}

func (f *fakeGateway) Verify(_ context.Context, _ *entity.VerificationRecord, _ string) (bool, error) {
	f.verifies++
	return f.verifyOK, nil
}

func (f *fakeGateway) DeliveryStatus(_ context.Context, _ string) (entity.DeliveryStatus, error) {
	return f.status, nil
}

func (f *fakeGateway) Balance(_ context.Context) (float64, error) {
	return f.balance, nil
}

func newTestUsecase(t *testing.T, dep Dependency) *Usecase {
	t.Helper()

	val, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(""+
		"providers:\n  telegram:\n    enabled: true\n"+
		"modules:\n  verification:\n    send_limit: 5\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	dep.Validator = val
	dep.Config = cfg
	dep.Clock = fixedClock{}
	dep.Instrument = instrument.NewNoop()

	return New(dep)
}

func activeRecord(tracking string) *entity.VerificationRecord {
	return &entity.VerificationRecord{
		ID:         77,
		Phone:      "+79991234567",
		Code:       "482910",
		TrackingID: tracking,
		CreatedAt:  testNow.Add(-time.Minute),
		ExpiresAt:  testNow.Add(entity.CodeTTL - time.Minute),
	}
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want goerror with code %s", err, want)
	}
	if gerr.Code() != want {
		t.Fatalf("error code = %s, want %s", gerr.Code(), want)
	}
}

func TestSendCodePrefersChat(t *testing.T) {
	chat := &fakeGateway{sendRec: activeRecord("req_9")}
	sms := &fakeGateway{}
	msg := &fakeMessaging{}
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{allowSend: true, allowAttempt: true},
		RepoMessaging: msg,
		Chat:          chat,
		SMS:           sms,
	})

	out, err := uc.SendCode(context.Background(), SendCodeInput{Phone: "89991234567", PreferChat: true})
	if err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}

	if out.Method != entity.MethodTelegram {
		t.Errorf("Method = %s, want telegram", out.Method)
	}
	if sms.sends != 0 {
		t.Errorf("sms gateway was called %d times", sms.sends)
	}
	if len(msg.sent) != 1 || msg.sent[0].Phone != "+79991234567" {
		t.Errorf("sent events = %+v, want one with normalized phone", msg.sent)
	}
}

func TestSendCodeFallsBackToSMS(t *testing.T) {
	chat := &fakeGateway{sendErr: entity.ErrChannelUnavailable}
	sms := &fakeGateway{sendRec: activeRecord("")}
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{allowSend: true, allowAttempt: true},
		RepoMessaging: &fakeMessaging{},
		Chat:          chat,
		SMS:           sms,
	})

	out, err := uc.SendCode(context.Background(), SendCodeInput{Phone: "+79991234567", PreferChat: true})
	if err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}

	if out.Method != entity.MethodSMS {
		t.Errorf("Method = %s, want sms", out.Method)
	}
	if out.Fallback {
		t.Error("unavailable chat reported as a failed delivery fallback")
	}
	if chat.sends != 1 || sms.sends != 1 {
		t.Errorf("gateway calls chat=%d sms=%d, want 1/1", chat.sends, sms.sends)
	}
}

func TestSendCodeFlagsFallbackOnChatFailure(t *testing.T) {
	chat := &fakeGateway{sendErr: entity.ErrDeliveryFailed}
	sms := &fakeGateway{sendRec: activeRecord("")}
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{allowSend: true, allowAttempt: true},
		RepoMessaging: &fakeMessaging{},
		Chat:          chat,
		SMS:           sms,
	})

	out, err := uc.SendCode(context.Background(), SendCodeInput{Phone: "+79991234567", PreferChat: true})
	if err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}

	if out.Method != entity.MethodSMS || !out.Fallback {
		t.Errorf("output = %+v, want sms flagged as fallback", out)
	}
}

func TestSendCodeWithoutChatPreference(t *testing.T) {
	chat := &fakeGateway{sendRec: activeRecord("req_9")}
	sms := &fakeGateway{sendRec: activeRecord("")}
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{allowSend: true, allowAttempt: true},
		RepoMessaging: &fakeMessaging{},
		Chat:          chat,
		SMS:           sms,
	})

	out, err := uc.SendCode(context.Background(), SendCodeInput{Phone: "+79991234567"})
	if err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}

	if out.Method != entity.MethodSMS || out.Fallback {
		t.Errorf("output = %+v, want plain sms", out)
	}
	if chat.sends != 0 {
		t.Errorf("chat gateway was called %d times", chat.sends)
	}
}

func TestSendCodeAllChannelsDown(t *testing.T) {
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{allowSend: true, allowAttempt: true},
		RepoMessaging: &fakeMessaging{},
		Chat:          &fakeGateway{sendErr: entity.ErrChannelUnavailable},
		SMS:           &fakeGateway{sendErr: entity.ErrDeliveryFailed},
	})

	_, err := uc.SendCode(context.Background(), SendCodeInput{Phone: "+79991234567", PreferChat: true})
	assertCode(t, err, goerror.CodeUnavailable)
}

func TestSendCodeAttemptsExceeded(t *testing.T) {
	chat := &fakeGateway{sendRec: activeRecord("req_9")}
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{allowSend: true, allowAttempt: false},
		RepoMessaging: &fakeMessaging{},
		Chat:          chat,
		SMS:           &fakeGateway{},
	})

	_, err := uc.SendCode(context.Background(), SendCodeInput{Phone: "+79991234567", PreferChat: true})
	assertCode(t, err, goerror.CodeTooManyRequest)

	if chat.sends != 0 {
		t.Errorf("capped send still reached the gateway %d times", chat.sends)
	}
}

func TestSendSMS(t *testing.T) {
	chat := &fakeGateway{sendRec: activeRecord("req_9")}
	sms := &fakeGateway{sendRec: activeRecord("")}
	sms.sendRec.ProviderID = "sms_req_42"
	msg := &fakeMessaging{}
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{allowSend: true, allowAttempt: true},
		RepoMessaging: msg,
		Chat:          chat,
		SMS:           sms,
	})

	out, err := uc.SendSMS(context.Background(), SendSMSInput{Phone: "89991234567"})
	if err != nil {
		t.Fatalf("SendSMS() error = %v", err)
	}

	if out.Method != entity.MethodSMS {
		t.Errorf("Method = %s, want sms", out.Method)
	}
	if out.TrackingID != "sms_req_42" {
		t.Errorf("TrackingID = %q, want the carrier request id", out.TrackingID)
	}
	if chat.sends != 0 || sms.sends != 1 {
		t.Errorf("gateway calls chat=%d sms=%d, want 0/1", chat.sends, sms.sends)
	}
	if len(msg.sent) != 1 {
		t.Errorf("sent events = %d, want 1", len(msg.sent))
	}
}

func TestSendCodeRateLimited(t *testing.T) {
	chat := &fakeGateway{sendRec: activeRecord("req_9")}
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{allowSend: false},
		RepoMessaging: &fakeMessaging{},
		Chat:          chat,
		SMS:           &fakeGateway{},
	})

	_, err := uc.SendCode(context.Background(), SendCodeInput{Phone: "+79991234567"})
	assertCode(t, err, goerror.CodeTooManyRequest)

	if chat.sends != 0 {
		t.Errorf("limited send still reached the gateway %d times", chat.sends)
	}
}

func TestSendCodeInvalidPhone(t *testing.T) {
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{allowSend: true},
		RepoMessaging: &fakeMessaging{},
		Chat:          &fakeGateway{},
		SMS:           &fakeGateway{},
	})

	_, err := uc.SendCode(context.Background(), SendCodeInput{Phone: "not-a-phone"})
	assertCode(t, err, goerror.CodeInvalidInput)
}

func TestVerifyCodeSMSRoundTrip(t *testing.T) {
	db := &fakeDB{active: activeRecord(""), markOK: true}
	cache := &fakeCache{}
	msg := &fakeMessaging{}
	uc := newTestUsecase(t, Dependency{
		RepoDB:        db,
		RepoCache:     cache,
		RepoMessaging: msg,
		Chat:          &fakeGateway{},
		SMS:           &fakeGateway{verifyOK: true},
	})

	out, err := uc.VerifyCode(context.Background(), VerifyCodeInput{
		Phone: "89991234567",
		Code:  "482910",
	})
	if err != nil {
		t.Fatalf("VerifyCode() error = %v", err)
	}

	if !out.Verified {
		t.Fatal("Verified = false, want true")
	}
	if len(db.marked) != 1 || db.marked[0] != 77 {
		t.Errorf("marked records = %v, want [77]", db.marked)
	}
	if cache.resets != 1 || len(cache.dropped) != 1 {
		t.Errorf("cache cleanup resets=%d dropped=%v", cache.resets, cache.dropped)
	}
	if len(msg.verified) != 1 {
		t.Errorf("verified events = %d, want 1", len(msg.verified))
	}
}

func TestVerifyCodeChatRecordUsesProvider(t *testing.T) {
	chat := &fakeGateway{verifyOK: true}
	sms := &fakeGateway{verifyOK: true}
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{active: activeRecord("req_9"), markOK: true},
		RepoCache:     &fakeCache{},
		RepoMessaging: &fakeMessaging{},
		Chat:          chat,
		SMS:           sms,
	})

	out, err := uc.VerifyCode(context.Background(), VerifyCodeInput{
		Phone: "+79991234567",
		Code:  "482910",
	})
	if err != nil {
		t.Fatalf("VerifyCode() error = %v", err)
	}

	if !out.Verified || out.Method != entity.MethodTelegram {
		t.Errorf("output = %+v, want verified telegram", out)
	}
	if chat.verifies != 1 || sms.verifies != 0 {
		t.Errorf("verify calls chat=%d sms=%d, want 1/0", chat.verifies, sms.verifies)
	}
}

func TestVerifyCodeUnknownCode(t *testing.T) {
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{},
		RepoMessaging: &fakeMessaging{},
		Chat:          &fakeGateway{},
		SMS:           &fakeGateway{},
	})

	out, err := uc.VerifyCode(context.Background(), VerifyCodeInput{
		Phone: "+79991234567",
		Code:  "000000",
	})
	if err != nil {
		t.Fatalf("VerifyCode() error = %v", err)
	}
	if out.Verified {
		t.Error("unknown code verified")
	}
}

func TestVerifyCodeExpiredRecord(t *testing.T) {
	rec := activeRecord("")
	rec.CreatedAt = testNow.Add(-2 * entity.CodeTTL)
	rec.ExpiresAt = testNow.Add(-entity.CodeTTL)

	sms := &fakeGateway{verifyOK: true}
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{active: rec, markOK: true},
		RepoCache:     &fakeCache{},
		RepoMessaging: &fakeMessaging{},
		Chat:          &fakeGateway{},
		SMS:           sms,
	})

	out, err := uc.VerifyCode(context.Background(), VerifyCodeInput{
		Phone: "+79991234567",
		Code:  "482910",
	})
	if err != nil {
		t.Fatalf("VerifyCode() error = %v", err)
	}

	if out.Verified {
		t.Error("expired code verified")
	}
	if sms.verifies != 0 {
		t.Errorf("expired record still reached the gateway %d times", sms.verifies)
	}
}

func TestVerifyCodeLosesMarkRace(t *testing.T) {
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{active: activeRecord(""), markOK: false},
		RepoCache:     &fakeCache{},
		RepoMessaging: &fakeMessaging{},
		Chat:          &fakeGateway{},
		SMS:           &fakeGateway{verifyOK: true},
	})

	out, err := uc.VerifyCode(context.Background(), VerifyCodeInput{
		Phone: "+79991234567",
		Code:  "482910",
	})
	if err != nil {
		t.Fatalf("VerifyCode() error = %v", err)
	}
	if out.Verified {
		t.Error("losing a used-flag race still verified")
	}
}

func TestAvailability(t *testing.T) {
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{remaining: 3},
		RepoMessaging: &fakeMessaging{},
		Chat:          &fakeGateway{available: true},
		SMS:           &fakeGateway{},
	})

	out, err := uc.Availability(context.Background(), AvailabilityInput{Phone: "79991234567"})
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}

	if !out.ChatAvailable || out.Method != entity.MethodTelegram || out.RemainingSends != 3 {
		t.Errorf("output = %+v, want available telegram with 3 remaining", out)
	}
}

func TestDeliveryStatus(t *testing.T) {
	chat := &fakeGateway{status: entity.DeliveryStatusRead}
	sms := &fakeGateway{status: entity.DeliveryStatusDelivered}

	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{byTracking: activeRecord("req_9")},
		RepoCache:     &fakeCache{},
		RepoMessaging: &fakeMessaging{},
		Chat:          chat,
		SMS:           sms,
	})

	out, err := uc.DeliveryStatus(context.Background(), DeliveryStatusInput{TrackingID: "req_9"})
	if err != nil {
		t.Fatalf("DeliveryStatus() error = %v", err)
	}
	if out.Method != entity.MethodTelegram || out.Status != entity.DeliveryStatusRead {
		t.Errorf("output = %+v, want telegram/read", out)
	}

	ucSMS := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{},
		RepoMessaging: &fakeMessaging{},
		Chat:          chat,
		SMS:           sms,
	})

	out, err = ucSMS.DeliveryStatus(context.Background(), DeliveryStatusInput{TrackingID: "sms_1"})
	if err != nil {
		t.Fatalf("DeliveryStatus() error = %v", err)
	}
	if out.Method != entity.MethodSMS || out.Status != entity.DeliveryStatusDelivered {
		t.Errorf("output = %+v, want sms/delivered", out)
	}
}

func TestConsumeCodeSent(t *testing.T) {
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{},
		RepoMessaging: &fakeMessaging{},
		Chat:          &fakeGateway{},
		SMS:           &fakeGateway{},
	})

	err := uc.ConsumeCodeSent(context.Background(), ConsumeCodeSentInput{
		Phone:      "+79991234567",
		Method:     "telegram",
		TrackingID: "req_9",
	})
	if err != nil {
		t.Fatalf("ConsumeCodeSent() error = %v", err)
	}
}

func TestBalance(t *testing.T) {
	uc := newTestUsecase(t, Dependency{
		RepoDB:        &fakeDB{},
		RepoCache:     &fakeCache{},
		RepoMessaging: &fakeMessaging{},
		Chat:          &fakeGateway{},
		SMS:           &fakeGateway{balance: 42.5},
	})

	out, err := uc.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if out.Balance != 42.5 {
		t.Errorf("Balance = %v, want 42.5", out.Balance)
	}
	if !out.ChatEnabled {
		t.Error("ChatEnabled = false, want true from config")
	}
}
