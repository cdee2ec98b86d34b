package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/marchelocal/marchelocal-backend/pkg/config"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
)

type stubSendClient struct {
	last   *mail.SGMailV3
	status int
	err    error
}

func (s *stubSendClient) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.last = email
	status := s.status
	if status == 0 {
		status = 202
	}
	return &rest.Response{StatusCode: status}, nil
}

func newTestMailer(t *testing.T, stub *stubSendClient) *Client {
	t.Helper()
	client, err := New(config.SendgridConfig{
		APIKey:      "SG.test",
		DefaultFrom: "no-reply@marchelocal.fr",
		VerifyURL:   "https://marchelocal.fr/verify-email",
	}, nil)
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}
	client.api = stub
	return client
}

func TestSendVerificationBuildsLinkWithRoleAndToken(t *testing.T) {
	stub := &stubSendClient{}
	client := newTestMailer(t, stub)

	err := client.SendVerification(context.Background(), "jean@ferme.fr", "Jean", enums.RoleProducer, "tok123")
	if err != nil {
		t.Fatalf("send verification: %v", err)
	}
	if stub.last == nil {
		t.Fatal("no message sent")
	}

	tos := stub.last.Personalizations[0].To
	if len(tos) != 1 || tos[0].Address != "jean@ferme.fr" {
		t.Fatalf("unexpected recipient: %+v", tos)
	}

	var plain string
	for _, content := range stub.last.Content {
		if content.Type == "text/plain" {
			plain = content.Value
		}
	}
	if !strings.Contains(plain, "role=producer") || !strings.Contains(plain, "token=tok123") {
		t.Fatalf("verification link missing role/token: %s", plain)
	}
}

func TestSendVerificationMapsRejectionToDependency(t *testing.T) {
	stub := &stubSendClient{status: 401}
	client := newTestMailer(t, stub)

	err := client.SendVerification(context.Background(), "jean@ferme.fr", "Jean", enums.RoleProducer, "tok123")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewRequiresAPIKeyAndFrom(t *testing.T) {
	if _, err := New(config.SendgridConfig{DefaultFrom: "a@b.c"}, nil); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, err := New(config.SendgridConfig{APIKey: "SG.x"}, nil); err == nil {
		t.Fatal("expected error without from address")
	}
}
