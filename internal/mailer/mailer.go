package mailer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/wneessen/go-mail"

	"travelplanner/internal/config"
)

// Mailer отправляет текстовые письма.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New возвращает SMTP-отправителя или, если хост не задан, LogMailer.
func New(cfg config.MailConfig, logger *log.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{cfg: cfg}
}

// SMTPMailer отправка через SMTP-сервер.
type SMTPMailer struct {
	cfg config.MailConfig
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("некорректный адрес отправителя: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("некорректный адрес получателя: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("не удалось создать SMTP-клиент: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("не удалось отправить письмо: %w", err)
	}
	return nil
}

// LogMailer пишет письма в лог вместо отправки. Для разработки.
type LogMailer struct {
	logger *log.Logger
}

func NewLogMailer(logger *log.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("письмо не отправлено: SMTP не настроен", "to", to, "subject", subject, "body", body)
	return nil
}
