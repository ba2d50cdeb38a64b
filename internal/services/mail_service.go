package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"piperblog/internal/config"
	"piperblog/internal/models"
	"piperblog/internal/sanitizer"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

const mailTimeout = 10 * time.Second

// MailService sends moderation notices over SMTP when [email] enabled is set.
type MailService struct {
	settings *SettingService
	log      zerolog.Logger
}

func NewMailService(settings *SettingService, log zerolog.Logger) *MailService {
	return &MailService{
		settings: settings,
		log:      log.With().Str("component", "mail").Logger(),
	}
}

// NotifyNewComment sends the moderation notice within mailTimeout. Errors are
// logged and never fail the comment submission.
func (m *MailService) NotifyNewComment(ctx context.Context, post *models.Post, c *models.Comment) {
	site := m.settings.Site()
	if !site.Email.Enabled || site.Email.NotifyTo == "" {
		return
	}
	msg, err := newCommentMessage(site, post, c)
	if err != nil {
		m.log.Warn().Err(err).Msg("cannot build notification")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	defer cancel()
	if err := m.send(ctx, site.Email, msg); err != nil {
		m.log.Warn().Err(err).Uint("comment_id", c.ID).Msg("notification not sent")
	}
}

func newCommentMessage(site config.Site, post *models.Post, c *models.Comment) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(site.Email.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(site.Email.NotifyTo); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(fmt.Sprintf("[%s] New comment on %q", site.App.Title, post.Title))

	var body strings.Builder
	fmt.Fprintf(&body, "%s wrote on %q:\n\n", c.AuthorName, post.Title)
	body.WriteString(sanitizer.PlainText(c.Content))
	body.WriteString("\n\nThe comment is waiting for moderation.\n")
	if site.App.URL != "" {
		fmt.Fprintf(&body, "%s/admin/comments?status=pending\n", strings.TrimSuffix(site.App.URL, "/"))
	}
	msg.SetBodyString(mail.TypeTextPlain, body.String())
	return msg, nil
}

func (m *MailService) send(ctx context.Context, cfg config.EmailConfig, msg *mail.Msg) error {
	opts := []mail.Option{mail.WithPort(cfg.Port), mail.WithTimeout(mailTimeout)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	switch cfg.Encryption {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
