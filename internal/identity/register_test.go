package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/marchelocal/marchelocal-backend/pkg/enums"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
	"github.com/marchelocal/marchelocal-backend/pkg/security"
)

func sampleProducerRequest(email string) RegisterProducerRequest {
	return RegisterProducerRequest{
		FirstName:         "Jean",
		LastName:          "Dupont",
		Commune:           "Annecy",
		Telephone:         "0450000000",
		Email:             email,
		Password:          "Secret123!",
		ProductCategories: []string{"legumes", "fromages"},
	}
}

func sampleBuyerRequest(email string) RegisterBuyerRequest {
	return RegisterBuyerRequest{
		FirstName:         "Claire",
		LastName:          "Fontaine",
		City:              "Lyon",
		PostalCode:        "69001",
		PhoneNumber:       "0600000000",
		Email:             email,
		Password:          "Secret123!",
		RestaurantName:    "Le Petit Marche",
		RestaurantAddress: "12 rue des Halles",
	}
}

func TestRegisterProducerCreatesRowAndSendsVerification(t *testing.T) {
	setup := newIdentityTestSetup(t)

	resp, err := setup.service.RegisterProducer(context.Background(), sampleProducerRequest("  Jean@Ferme.FR "))
	if err != nil {
		t.Fatalf("register producer failed: %v", err)
	}
	if resp.Email != "jean@ferme.fr" {
		t.Fatalf("email not normalized: %s", resp.Email)
	}
	if resp.Role != enums.RoleProducer {
		t.Fatalf("unexpected role: %s", resp.Role)
	}

	record, ok := setup.store.producers[resp.ID]
	if !ok {
		t.Fatal("producer row missing")
	}
	if record.Verified {
		t.Fatal("new account must start unverified")
	}
	if record.VerifyTokenHash == nil || record.VerifyTokenExpiry == nil {
		t.Fatal("verification token material missing")
	}
	if record.PasswordHash == "Secret123!" {
		t.Fatal("password stored in clear")
	}
	if valid, err := security.VerifyPassword("Secret123!", record.PasswordHash); err != nil || !valid {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	if setup.mailer.sent != 1 || setup.mailer.lastTo != "jean@ferme.fr" {
		t.Fatalf("verification mail not sent: %+v", setup.mailer)
	}
	if hashVerificationToken(setup.mailer.token) != *record.VerifyTokenHash {
		t.Fatal("mailed token does not match stored hash")
	}
	if setup.store.claims["jean@ferme.fr"] != enums.RoleProducer {
		t.Fatal("email claim missing")
	}
}

func TestRegisterBuyerCreatesRowAndClaim(t *testing.T) {
	setup := newIdentityTestSetup(t)

	resp, err := setup.service.RegisterBuyer(context.Background(), sampleBuyerRequest("claire@resto.fr"))
	if err != nil {
		t.Fatalf("register buyer failed: %v", err)
	}
	if _, ok := setup.store.buyers[resp.ID]; !ok {
		t.Fatal("buyer row missing")
	}
	if setup.store.claims["claire@resto.fr"] != enums.RoleBuyer {
		t.Fatal("email claim missing")
	}
}

func TestRegisterTranslatesDuplicateEmailToConflict(t *testing.T) {
	setup := newIdentityTestSetup(t)
	setup.store.claimErr = errors.New(`duplicate key value violates unique constraint "account_emails_pkey"`)

	_, err := setup.service.RegisterBuyer(context.Background(), sampleBuyerRequest("claire@resto.fr"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterSucceedsWhenMailerFails(t *testing.T) {
	setup := newIdentityTestSetup(t)
	setup.mailer.sendErr = errors.New("sendgrid unavailable")

	resp, err := setup.service.RegisterBuyer(context.Background(), sampleBuyerRequest("claire@resto.fr"))
	if err != nil {
		t.Fatalf("registration must survive a failed email send: %v", err)
	}
	if resp.Email != "claire@resto.fr" {
		t.Fatalf("unexpected email %q", resp.Email)
	}
	if len(setup.store.buyers) != 1 {
		t.Fatalf("expected the buyer row to stay, got %d", len(setup.store.buyers))
	}
}
