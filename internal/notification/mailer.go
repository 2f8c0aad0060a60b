package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// DefaultSendTimeout bounds a whole SMTP session when none is configured.
const DefaultSendTimeout = 15 * time.Second

// Mailer delivers a plain-text message. Failures are returned, never retried.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// SMTPMailer sends through an SMTP relay, upgrading with STARTTLS when the
// relay offers it. Every network read and write is bounded by the send
// deadline.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) (*SMTPMailer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSendTimeout
	}
	m := &SMTPMailer{cfg: cfg, logger: logger}
	if _, err := m.newClient(); err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return m, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := m.buildMessage(to, subject, body)
	if err != nil {
		return fmt.Errorf("build message to %s: %w", to, err)
	}

	// a client per send keeps concurrent deliveries off shared connection state
	client, err := m.newClient()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Error("smtp delivery failed", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	m.logger.Info("mail sent", "to", to, "subject", subject)
	return nil
}

func (m *SMTPMailer) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithDialContextFunc(m.dial),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return mail.NewClient(m.cfg.Host, opts...)
}

// dial connects and pins the connection deadline to ctx, so a relay that
// accepts and then goes silent fails the send instead of blocking it.
func (m *SMTPMailer) dial(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(m.cfg.Timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (m *SMTPMailer) buildMessage(to, subject, body string) (*mail.Msg, error) {
	if strings.ContainsAny(to, "\r\n") {
		return nil, errors.New("recipient contains a line break")
	}

	msg := mail.NewMsg()
	if m.cfg.FromName != "" {
		if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
			return nil, err
		}
	} else if err := msg.From(m.cfg.From); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject(sanitizeHeader(subject))
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// LogMailer only logs that a delivery happened; bodies may carry credentials
// and are dropped. Used in development when no relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Info("mail (log only; set SMTP_HOST for real delivery)", "to", to, "subject", subject)
	return nil
}
