package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/riceboxdev/Velvet/app/models"
	"github.com/riceboxdev/Velvet/app/repository"
)

const (
	webhookTimeout    = 30 * time.Second
	automationTimeout = 90 * time.Second

	userAgent = "Velvet-Automation/1.0"
)

// Dispatcher fans lifecycle events out to webhook endpoints and automation
// hooks. Delivery is fire-and-forget with at-most-once semantics: a failed
// target is logged and skipped, never retried.
type Dispatcher struct {
	webhooks   repository.WebhookRepository
	automation repository.AutomationHookRepository
	client     *http.Client

	wg sync.WaitGroup
}

func NewDispatcher(webhooks repository.WebhookRepository, automation repository.AutomationHookRepository) *Dispatcher {
	return &Dispatcher{
		webhooks:   webhooks,
		automation: automation,
		client:     &http.Client{Timeout: automationTimeout},
	}
}

// SignupCreated announces a new signup on both channels.
func (d *Dispatcher) SignupCreated(waitlist *models.Waitlist, signup *models.Signup) {
	payload := NewSignupPayload(signup)
	d.dispatchWebhooks(waitlist, models.WebhookEventNewSignup, payload)
	d.dispatchAutomation(waitlist, models.AutomationEventNewSignup, payload)
}

// ReferralAttributed announces that a referrer earned a boost. Only the
// automation channel carries this event.
func (d *Dispatcher) ReferralAttributed(waitlist *models.Waitlist, referrer *models.Signup) {
	d.dispatchAutomation(waitlist, models.AutomationEventNewReferrer, NewSignupPayload(referrer))
}

// SignupOffboarded announces that a signup was admitted off the waitlist.
func (d *Dispatcher) SignupOffboarded(waitlist *models.Waitlist, signup *models.Signup) {
	payload := NewOffboardPayload(signup)
	d.dispatchWebhooks(waitlist, models.WebhookEventOffboarded, payload)
	d.dispatchAutomation(waitlist, models.AutomationEventOffboard, payload)
}

// Wait blocks until all in-flight deliveries finish. Called once on shutdown,
// after the HTTP listener has stopped, and by tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// The subscriber lookup is a database query, so the whole dispatch runs off
// the request goroutine; the triggering handler only pays for the wg.Add.
func (d *Dispatcher) dispatchWebhooks(waitlist *models.Waitlist, event string, payload SignupPayload) {
	if !waitlist.Settings.Connectors.Webhooks.Enabled {
		return
	}
	waitlistID := waitlist.ID
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		targets, err := d.webhooks.GetActiveForEvent(waitlistID, event)
		if err != nil {
			fiberlog.Errorf("[Notify] loading webhooks for waitlist %s: %v", waitlistID, err)
			return
		}
		for _, target := range targets {
			target := target
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.deliverWebhook(&target, event, payload)
			}()
		}
	}()
}

func (d *Dispatcher) dispatchAutomation(waitlist *models.Waitlist, event string, payload SignupPayload) {
	if !waitlist.Settings.Connectors.Zapier.Enabled {
		return
	}
	waitlistID := waitlist.ID
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		targets, err := d.automation.GetActiveForEvent(waitlistID, event)
		if err != nil {
			fiberlog.Errorf("[Notify] loading automation hooks for waitlist %s: %v", waitlistID, err)
			return
		}
		for _, target := range targets {
			target := target
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.deliverAutomation(&target, event, payload)
			}()
		}
	}()
}

func (d *Dispatcher) deliverWebhook(webhook *models.Webhook, event string, payload SignupPayload) {
	envelope := WebhookEnvelope{
		ID:        uuid.NewString(),
		Event:     event,
		Timestamp: time.Now().Unix(),
		Data:      payload,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		fiberlog.Errorf("[Notify] encoding webhook %s payload: %v", webhook.ID, err)
		return
	}
	// The signature covers the data field only, not the envelope.
	signed, err := json.Marshal(envelope.Data)
	if err != nil {
		fiberlog.Errorf("[Notify] encoding webhook %s payload: %v", webhook.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(body))
	if err != nil {
		fiberlog.Errorf("[Notify] building webhook %s request: %v", webhook.ID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Webhook-Event", event)
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(envelope.Timestamp, 10))
	req.Header.Set("X-Webhook-Signature", Sign(webhook.Secret, envelope.Timestamp, signed))

	resp, err := d.client.Do(req)
	if err != nil {
		fiberlog.Warnf("[Notify] webhook %s delivery to %s failed: %v", webhook.ID, webhook.URL, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		fiberlog.Warnf("[Notify] webhook %s delivery to %s returned %d", webhook.ID, webhook.URL, resp.StatusCode)
	}
}

func (d *Dispatcher) deliverAutomation(hook *models.AutomationHook, event string, payload SignupPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		fiberlog.Errorf("[Notify] encoding automation hook %s payload: %v", hook.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), automationTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.HookURL, bytes.NewReader(body))
	if err != nil {
		fiberlog.Errorf("[Notify] building automation hook %s request: %v", hook.ID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		fiberlog.Warnf("[Notify] automation hook %s delivery to %s failed: %v", hook.ID, event, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		fiberlog.Warnf("[Notify] automation hook %s delivery returned %d", hook.ID, resp.StatusCode)
	}
}
