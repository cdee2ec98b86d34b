package mailer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/marchelocal/marchelocal-backend/pkg/config"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
	"github.com/marchelocal/marchelocal-backend/pkg/logger"
)

const senderName = "Marché Local"

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Client delivers transactional email through SendGrid.
type Client struct {
	api  sendClient
	cfg  config.SendgridConfig
	logg *logger.Logger
}

// New builds a mailer backed by the configured SendGrid account.
func New(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, fmt.Errorf("sendgrid from address is required")
	}
	return &Client{
		api:  sendgrid.NewSendClient(cfg.APIKey),
		cfg:  cfg,
		logg: logg,
	}, nil
}

// SendVerification emails the signed-up account its verification link.
func (c *Client) SendVerification(ctx context.Context, email, name string, role enums.Role, token string) error {
	link, err := c.verificationLink(role, token)
	if err != nil {
		return err
	}

	from := mail.NewEmail(senderName, c.cfg.DefaultFrom)
	to := mail.NewEmail(name, email)
	subject := "Confirmez votre adresse email"
	plain := fmt.Sprintf(
		"Bonjour %s,\n\nConfirmez votre adresse email pour activer votre compte Marché Local :\n%s\n\nCe lien expire dans 24 heures.",
		name, link,
	)
	html := fmt.Sprintf(
		`<p>Bonjour %s,</p><p>Confirmez votre adresse email pour activer votre compte Marché Local :</p><p><a href=%q>Confirmer mon adresse</a></p><p>Ce lien expire dans 24 heures.</p>`,
		name, link,
	)

	resp, err := c.api.SendWithContext(ctx, mail.NewSingleEmail(from, subject, to, plain, html))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sendgrid send")
	}
	if resp.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("sendgrid rejected message (status %d)", resp.StatusCode))
	}

	if c.logg != nil {
		c.logg.Info(ctx, fmt.Sprintf("verification email sent to %s", email))
	}
	return nil
}

func (c *Client) verificationLink(role enums.Role, token string) (string, error) {
	base, err := url.Parse(c.cfg.VerifyURL)
	if err != nil {
		return "", fmt.Errorf("parse verify url: %w", err)
	}
	q := base.Query()
	q.Set("role", role.String())
	q.Set("token", token)
	base.RawQuery = q.Encode()
	return base.String(), nil
}
