package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrProviderRejected is returned when the email provider answers non-2xx.
var ErrProviderRejected = errors.New("email provider rejected request")

// Email is the outgoing notification, shaped for the Resend API.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
}

// BuildEmail renders the notification for a submission.
func BuildEmail(s Submission, from, to string) Email {
	lines := []string{
		"Name: " + s.Name,
		"Email: " + s.Email,
	}
	if s.Source != "" {
		lines = append(lines, "Source: "+s.Source)
	}
	lines = append(lines, "Message:", s.Message)

	var b strings.Builder
	b.WriteString("<h2>New portfolio inquiry</h2>\n")
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>\n", html.EscapeString(s.Name))
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>\n", html.EscapeString(s.Email))
	if s.Source != "" {
		fmt.Fprintf(&b, "<p><strong>Source:</strong> %s</p>\n", html.EscapeString(s.Source))
	}
	b.WriteString("<p><strong>Message:</strong></p>\n")
	fmt.Fprintf(&b, "<p>%s</p>\n", EscapeMessage(s.Message))

	return Email{
		From:    from,
		To:      []string{to},
		ReplyTo: s.Email,
		Subject: "Portfolio inquiry from " + s.Name,
		Text:    strings.Join(lines, "\n"),
		HTML:    b.String(),
	}
}

var messageEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\n", "<br />",
)

// EscapeMessage escapes &, < and > and turns newlines into <br />.
func EscapeMessage(msg string) string {
	return messageEscaper.Replace(msg)
}

// Mailer delivers a notification email.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// ResendMailer sends through the Resend HTTP API.
type ResendMailer struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      logrus.FieldLogger
}

// NewResendMailer returns a mailer posting to endpoint with apiKey.
func NewResendMailer(endpoint, apiKey string, log logrus.FieldLogger) *ResendMailer {
	return &ResendMailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// Send posts e to the provider.
func (m *ResendMailer) Send(ctx context.Context, e Email) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		m.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(errBody),
		}).Error("resend error")
		return fmt.Errorf("%w: status %d", ErrProviderRejected, resp.StatusCode)
	}
	return nil
}

// LogMailer logs emails instead of sending them. The fixture site uses it
// when no provider key is configured.
type LogMailer struct {
	Log logrus.FieldLogger
}

// Send logs e.
func (m LogMailer) Send(_ context.Context, e Email) error {
	m.Log.WithFields(logrus.Fields{
		"to":       e.To,
		"reply_to": e.ReplyTo,
		"subject":  e.Subject,
	}).Info("contact email (not sent)")
	return nil
}
