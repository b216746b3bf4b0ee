package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"

	"jobmonitor/internal/config"
	"jobmonitor/internal/pipeline"
	"jobmonitor/internal/report"
)

// Email is a rendered mail ready for any transport.
type Email struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// BuildEmail renders res for to. ok is false when there is nothing to send:
// no listings and sendEmpty unset.
func BuildEmail(res pipeline.RunResult, to string, sendEmpty bool, now time.Time) (Email, bool, error) {
	if len(res.Listings) == 0 && !sendEmpty {
		return Email{}, false, nil
	}
	body, err := report.EmailHTML(res, now)
	if err != nil {
		return Email{}, false, err
	}
	return Email{To: to, Subject: report.Subject(res, now), Body: body, Timestamp: now}, true, nil
}

// Outbox writes the mail as JSON for an external sender (a CI job, a cron
// mailer) to pick up.
type Outbox struct {
	Path      string
	To        string
	SendEmpty bool
}

const OutboxFile = "email_to_send.json"

func NewOutbox(cfg config.Config) *Outbox {
	return &Outbox{
		Path:      filepath.Join(cfg.Output.Dir, OutboxFile),
		To:        cfg.Notification.Email,
		SendEmpty: cfg.Notification.SendEmpty,
	}
}

func (o *Outbox) Name() string { return "outbox" }

func (o *Outbox) Notify(_ context.Context, res pipeline.RunResult, now time.Time) error {
	msg, ok, err := BuildEmail(res, o.To, o.SendEmpty, now)
	if err != nil || !ok {
		return err
	}
	b, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(o.Path), 0o755); err != nil {
		return fmt.Errorf("outbox: %w", err)
	}
	if err := os.WriteFile(o.Path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("outbox: %w", err)
	}
	return nil
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends the mail directly through a submission server.
type SMTP struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	To        string
	SendEmpty bool

	Send SendFunc
}

func NewSMTP(cfg config.Config, password string) *SMTP {
	sc := cfg.Notification.SMTP
	port := sc.Port
	if port == 0 {
		port = 587
	}
	from := sc.From
	if from == "" {
		from = sc.Username
	}
	return &SMTP{
		Host: sc.Host, Port: port, Username: sc.Username, Password: password,
		From: from, To: cfg.Notification.Email, SendEmpty: cfg.Notification.SendEmpty,
		Send: smtp.SendMail,
	}
}

func (s *SMTP) Name() string { return "smtp" }

func (s *SMTP) Notify(_ context.Context, res pipeline.RunResult, now time.Time) error {
	msg, ok, err := BuildEmail(res, s.To, s.SendEmpty, now)
	if err != nil || !ok {
		return err
	}
	raw, err := s.compose(msg)
	if err != nil {
		return fmt.Errorf("smtp compose: %w", err)
	}

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	if err := s.Send(addr, auth, s.From, []string{s.To}, raw); err != nil {
		return fmt.Errorf("smtp send %s: %w", addr, err)
	}
	return nil
}

// compose builds a single-part text/html RFC 5322 message.
func (s *SMTP) compose(e Email) ([]byte, error) {
	var h mail.Header
	h.SetDate(e.Timestamp)
	h.SetSubject(e.Subject)
	h.SetAddressList("From", []*mail.Address{{Address: s.From}})
	h.SetAddressList("To", []*mail.Address{{Address: e.To}})
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(e.Body)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
