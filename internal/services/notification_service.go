package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const (
	EventTenantAssigned  = "tenant.assigned"
	EventTenantRemoved   = "tenant.removed"
	EventNoticeSubmitted = "notice.submitted"
	EventNoticeDecided   = "notice.decided"
	EventNoticeRevoked   = "notice.revoked"
	EventRoomRenamed     = "room.renamed"
	EventTenantVacateDue = "tenant.vacate_due"

	notifyTimeout = 15 * time.Second
)

// Recipient is the person an event is addressed to, if any.
type Recipient struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

// Event is emitted after a committed occupancy change.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	OccurredAt time.Time      `json:"occurred_at"`
	PropertyID uuid.UUID      `json:"property_id"`
	RoomID     *uuid.UUID     `json:"room_id,omitempty"`
	TenantID   *uuid.UUID     `json:"tenant_id,omitempty"`
	NoticeID   *uuid.UUID     `json:"notice_id,omitempty"`
	Subject    string         `json:"subject"`
	Message    string         `json:"message"`
	Data       map[string]any `json:"data,omitempty"`
	Recipient  *Recipient     `json:"-"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

/* ------------------------------------------------------------------
   Fan-out
------------------------------------------------------------------ */

// MultiNotifier delivers to every channel and joins their errors.
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(ns ...Notifier) *MultiNotifier {
	var kept []Notifier
	for _, n := range ns {
		if n != nil {
			kept = append(kept, n)
		}
	}
	return &MultiNotifier{notifiers: kept}
}

func (m *MultiNotifier) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

/* ------------------------------------------------------------------
   Async dispatch: never blocks or fails the owning operation
------------------------------------------------------------------ */

type Dispatcher struct {
	notifier Notifier
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier) *Dispatcher {
	return &Dispatcher{notifier: n}
}

func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil || d.notifier == nil {
		return
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, ev); err != nil {
			utils.Logger.WithError(err).WithFields(logrus.Fields{
				"event":      ev.Name,
				"eventID":    ev.ID,
				"propertyID": ev.PropertyID,
			}).Warn("Notification delivery failed")
		}
	}()
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

/* ------------------------------------------------------------------
   SendGrid
------------------------------------------------------------------ */

type EmailNotifier struct {
	client    *sendgrid.Client
	orgName   string
	fromEmail string
	sandbox   bool
}

func NewEmailNotifier(client *sendgrid.Client, orgName, fromEmail string, sandbox bool) *EmailNotifier {
	return &EmailNotifier{client: client, orgName: orgName, fromEmail: fromEmail, sandbox: sandbox}
}

func (n *EmailNotifier) Notify(ctx context.Context, ev Event) error {
	if ev.Recipient == nil || ev.Recipient.Email == "" {
		return nil
	}
	from := mail.NewEmail(n.orgName, n.fromEmail)
	to := mail.NewEmail(ev.Recipient.Name, ev.Recipient.Email)
	html := fmt.Sprintf(eventEmailHTML, ev.Subject, ev.Recipient.Name, ev.Message, n.orgName)
	msg := mail.NewSingleEmail(from, ev.Subject, to, ev.Message, html)
	msg.TrackingSettings = &mail.TrackingSettings{
		ClickTracking: &mail.ClickTrackingSetting{
			Enable: utils.Ptr(false),
		},
	}
	if n.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}
	resp, err := n.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

const eventEmailHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family:Arial,sans-serif;color:#222">
  <p>Hi %s,</p>
  <p>%s</p>
  <p style="color:#777;font-size:12px">%s</p>
</body>
</html>`

/* ------------------------------------------------------------------
   Twilio
------------------------------------------------------------------ */

type SMSNotifier struct {
	client    *twilio.RestClient
	fromPhone string
}

func NewSMSNotifier(client *twilio.RestClient, fromPhone string) *SMSNotifier {
	return &SMSNotifier{client: client, fromPhone: fromPhone}
}

func (n *SMSNotifier) Notify(ctx context.Context, ev Event) error {
	if ev.Recipient == nil || ev.Recipient.Phone == nil || *ev.Recipient.Phone == "" {
		return nil
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(*ev.Recipient.Phone)
	params.SetFrom(n.fromPhone)
	params.SetBody(ev.Subject + " :: " + ev.Message)
	if _, err := n.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	return nil
}

/* ------------------------------------------------------------------
   RabbitMQ
------------------------------------------------------------------ */

// EventPublisher publishes every event as JSON to a topic exchange, routed
// by event name.
type EventPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	appName  string
}

func NewEventPublisher(url, exchange, appName string) (*EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: declare exchange %q: %w", exchange, err)
	}
	return &EventPublisher{conn: conn, channel: ch, exchange: exchange, appName: appName}, nil
}

func (p *EventPublisher) Notify(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal %s: %w", ev.Name, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		MessageId:    ev.ID.String(),
		Type:         ev.Name,
		AppId:        p.appName,
		Headers: amqp.Table{
			"property_id": ev.PropertyID.String(),
		},
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn.IsClosed() {
		return errors.New("rabbitmq: connection closed")
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, ev.Name, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", ev.Name, err)
	}
	return nil
}

func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
