package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riceboxdev/Velvet/app/models"
)

type stubWebhookRepo struct {
	webhooks []models.Webhook
}

func (s *stubWebhookRepo) Create(webhook *models.Webhook) error        { return nil }
func (s *stubWebhookRepo) GetByID(id string) (*models.Webhook, error)  { return nil, nil }
func (s *stubWebhookRepo) Update(webhook *models.Webhook) error        { return nil }
func (s *stubWebhookRepo) Delete(id string) error                      { return nil }
func (s *stubWebhookRepo) GetByWaitlist(waitlistID string) ([]models.Webhook, error) {
	return s.webhooks, nil
}

func (s *stubWebhookRepo) GetActiveForEvent(waitlistID, event string) ([]models.Webhook, error) {
	var matched []models.Webhook
	for _, w := range s.webhooks {
		if w.IsActive && w.Events.Contains(event) {
			matched = append(matched, w)
		}
	}
	return matched, nil
}

type stubAutomationRepo struct {
	hooks []models.AutomationHook
}

func (s *stubAutomationRepo) Create(hook *models.AutomationHook) error       { return nil }
func (s *stubAutomationRepo) GetByID(id string) (*models.AutomationHook, error) { return nil, nil }
func (s *stubAutomationRepo) Delete(id string) error                         { return nil }
func (s *stubAutomationRepo) GetByWaitlist(waitlistID string) ([]models.AutomationHook, error) {
	return s.hooks, nil
}

func (s *stubAutomationRepo) GetActiveForEvent(waitlistID, event string) ([]models.AutomationHook, error) {
	var matched []models.AutomationHook
	for _, h := range s.hooks {
		if h.IsActive && h.Event == event {
			matched = append(matched, h)
		}
	}
	return matched, nil
}

// blockingWebhookRepo stalls the subscriber lookup until released.
type blockingWebhookRepo struct {
	stubWebhookRepo
	release chan struct{}
}

func (b *blockingWebhookRepo) GetActiveForEvent(waitlistID, event string) ([]models.Webhook, error) {
	<-b.release
	return b.stubWebhookRepo.GetActiveForEvent(waitlistID, event)
}

type capturedRequest struct {
	header http.Header
	body   []byte
}

// captureServer records every request it receives.
func captureServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, capturedRequest{header: r.Header.Clone(), body: body})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return captured
	}
}

func testWaitlist(t *testing.T, connectors models.ConnectorSettings) *models.Waitlist {
	t.Helper()
	wl, err := models.NewWaitlist("Launch", "", "owner-1")
	require.NoError(t, err)
	wl.ID = "wl00000000000000test"
	wl.Settings.Connectors = connectors
	return wl
}

func testSecret(t *testing.T) string {
	t.Helper()
	secret, err := models.NewWebhookSecret()
	require.NoError(t, err)
	return secret
}

func testSignup() *models.Signup {
	return &models.Signup{
		ID:            "sg_testsignup0000001",
		WaitlistID:    "wl00000000000000test",
		Email:         "user@example.com",
		Position:      4,
		Priority:      30,
		Status:        models.SignupStatusWaiting,
		ReferralCode:  "abc123defg",
		ReferralCount: 2,
		CreatedAt:     time.Now(),
	}
}

func TestSignupCreatedDeliversSignedWebhook(t *testing.T) {
	srv, captured := captureServer(t)

	secret := testSecret(t)
	repo := &stubWebhookRepo{webhooks: []models.Webhook{{
		ID:       "wh00000000000000001",
		URL:      srv.URL,
		Events:   models.StringSlice{models.WebhookEventNewSignup},
		Secret:   secret,
		IsActive: true,
	}}}

	d := NewDispatcher(repo, &stubAutomationRepo{})
	wl := testWaitlist(t, models.ConnectorSettings{Webhooks: models.ConnectorToggle{Enabled: true}})

	d.SignupCreated(wl, testSignup())
	d.Wait()

	reqs := captured()
	require.Len(t, reqs, 1)

	req := reqs[0]
	assert.Equal(t, "Velvet-Automation/1.0", req.header.Get("User-Agent"))
	assert.Equal(t, models.WebhookEventNewSignup, req.header.Get("X-Webhook-Event"))

	ts, err := strconv.ParseInt(req.header.Get("X-Webhook-Timestamp"), 10, 64)
	require.NoError(t, err)

	var envelope WebhookEnvelope
	require.NoError(t, json.Unmarshal(req.body, &envelope))

	// The signature covers the data field.
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	assert.True(t, VerifySignature(secret, ts, data, req.header.Get("X-Webhook-Signature")))
	assert.Equal(t, models.WebhookEventNewSignup, envelope.Event)
	assert.NotEmpty(t, envelope.ID)
	assert.Equal(t, "user@example.com", envelope.Data.Email)
	assert.Equal(t, envelope.Data.ReferralCode, envelope.Data.ReferralToken)
	assert.Contains(t, envelope.Data.ReferralLink, "/join/wl00000000000000test?ref=abc123defg")
}

func TestSignupCreatedReturnsBeforeSubscriberLookup(t *testing.T) {
	srv, captured := captureServer(t)

	repo := &blockingWebhookRepo{
		stubWebhookRepo: stubWebhookRepo{webhooks: []models.Webhook{{
			ID:       "wh00000000000000004",
			URL:      srv.URL,
			Events:   models.StringSlice{models.WebhookEventNewSignup},
			Secret:   testSecret(t),
			IsActive: true,
		}}},
		release: make(chan struct{}),
	}

	d := NewDispatcher(repo, &stubAutomationRepo{})
	wl := testWaitlist(t, models.ConnectorSettings{Webhooks: models.ConnectorToggle{Enabled: true}})

	done := make(chan struct{})
	go func() {
		d.SignupCreated(wl, testSignup())
		close(done)
	}()

	// The trigger must not wait on the repository query.
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SignupCreated blocked on the subscriber lookup")
	}

	close(repo.release)
	d.Wait()
	assert.Len(t, captured(), 1)
}

func TestWebhookChannelRespectsConnectorToggle(t *testing.T) {
	srv, captured := captureServer(t)

	repo := &stubWebhookRepo{webhooks: []models.Webhook{{
		ID:       "wh00000000000000002",
		URL:      srv.URL,
		Events:   models.StringSlice{models.WebhookEventNewSignup},
		Secret:   testSecret(t),
		IsActive: true,
	}}}

	d := NewDispatcher(repo, &stubAutomationRepo{})
	wl := testWaitlist(t, models.ConnectorSettings{})

	d.SignupCreated(wl, testSignup())
	d.Wait()

	assert.Empty(t, captured())
}

func TestAutomationDeliveryMatchesSubscribedEventOnly(t *testing.T) {
	srv, captured := captureServer(t)

	repo := &stubAutomationRepo{hooks: []models.AutomationHook{
		{ID: "ah00000000000000001", HookURL: srv.URL, Event: models.AutomationEventNewReferrer, IsActive: true},
		{ID: "ah00000000000000002", HookURL: srv.URL, Event: models.AutomationEventOffboard, IsActive: true},
	}}

	d := NewDispatcher(&stubWebhookRepo{}, repo)
	wl := testWaitlist(t, models.ConnectorSettings{Zapier: models.ConnectorToggle{Enabled: true}})

	d.ReferralAttributed(wl, testSignup())
	d.Wait()

	reqs := captured()
	require.Len(t, reqs, 1)

	// Automation payloads are flat, no envelope.
	var payload SignupPayload
	require.NoError(t, json.Unmarshal(reqs[0].body, &payload))
	assert.Equal(t, "user@example.com", payload.Email)
	assert.EqualValues(t, 2, payload.AmountReferred)
	assert.Nil(t, payload.RemovedDate)
}

func TestOffboardPayloadCarriesRemovalFields(t *testing.T) {
	srv, captured := captureServer(t)

	repo := &stubAutomationRepo{hooks: []models.AutomationHook{
		{ID: "ah00000000000000003", HookURL: srv.URL, Event: models.AutomationEventOffboard, IsActive: true},
	}}

	d := NewDispatcher(&stubWebhookRepo{}, repo)
	wl := testWaitlist(t, models.ConnectorSettings{Zapier: models.ConnectorToggle{Enabled: true}})

	signup := testSignup()
	admitted := time.Now().UTC().Truncate(time.Second)
	signup.Status = models.SignupStatusAdmitted
	signup.AdmittedAt = &admitted

	d.SignupOffboarded(wl, signup)
	d.Wait()

	reqs := captured()
	require.Len(t, reqs, 1)

	var payload SignupPayload
	require.NoError(t, json.Unmarshal(reqs[0].body, &payload))
	require.NotNil(t, payload.RemovedDate)
	assert.True(t, payload.RemovedDate.Equal(admitted))
	require.NotNil(t, payload.RemovedPriority)
	assert.EqualValues(t, 30, *payload.RemovedPriority)
}

func TestSignatureRejectsTamperedPayload(t *testing.T) {
	secret := "whsec_testsecret"
	ts := time.Now().Unix()
	payload := []byte(`{"event":"new_signup"}`)

	sig := Sign(secret, ts, payload)
	assert.True(t, VerifySignature(secret, ts, payload, sig))
	assert.False(t, VerifySignature(secret, ts, []byte(`{"event":"offboarded"}`), sig))
	assert.False(t, VerifySignature(secret, ts+1, payload, sig))
	assert.False(t, VerifySignature("whsec_other", ts, payload, sig))
}
