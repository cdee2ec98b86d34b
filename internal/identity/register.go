package identity

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/marchelocal/marchelocal-backend/pkg/db"
	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
	"github.com/marchelocal/marchelocal-backend/pkg/security"
)

func (s *service) RegisterProducer(ctx context.Context, req RegisterProducerRequest) (*RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	token, tokenHash, err := newVerificationToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue verification token")
	}
	expiry := time.Now().UTC().Add(verificationTokenTTL)

	record := &models.Producer{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Commune:           req.Commune,
		Telephone:         req.Telephone,
		Email:             email,
		PasswordHash:      passwordHash,
		Description:       req.Description,
		ProductCategories: req.ProductCategories,
		VerifyTokenHash:   &tokenHash,
		VerifyTokenExpiry: &expiry,
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)
		if err := repo.CreateProducer(ctx, record); err != nil {
			return translateRegistrationError(err, "create producer")
		}
		if err := repo.ClaimEmail(ctx, email, enums.RoleProducer, record.ID); err != nil {
			return translateRegistrationError(err, "claim email")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// The account is already committed; a failed send must not undo the
	// registration. The token stays valid until its expiry.
	if err := s.mailer.SendVerification(ctx, email, req.FirstName, enums.RoleProducer, token); err != nil {
		s.logVerificationFailure(ctx, email, enums.RoleProducer, err)
	}

	return &RegisterResponse{ID: record.ID, Email: email, Role: enums.RoleProducer}, nil
}

func (s *service) RegisterBuyer(ctx context.Context, req RegisterBuyerRequest) (*RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	token, tokenHash, err := newVerificationToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue verification token")
	}
	expiry := time.Now().UTC().Add(verificationTokenTTL)

	record := &models.Buyer{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		City:              req.City,
		PostalCode:        req.PostalCode,
		PhoneNumber:       req.PhoneNumber,
		Email:             email,
		PasswordHash:      passwordHash,
		RestaurantName:    req.RestaurantName,
		RestaurantAddress: req.RestaurantAddress,
		Description:       req.Description,
		VerifyTokenHash:   &tokenHash,
		VerifyTokenExpiry: &expiry,
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)
		if err := repo.CreateBuyer(ctx, record); err != nil {
			return translateRegistrationError(err, "create buyer")
		}
		if err := repo.ClaimEmail(ctx, email, enums.RoleBuyer, record.ID); err != nil {
			return translateRegistrationError(err, "claim email")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerification(ctx, email, req.FirstName, enums.RoleBuyer, token); err != nil {
		s.logVerificationFailure(ctx, email, enums.RoleBuyer, err)
	}

	return &RegisterResponse{ID: record.ID, Email: email, Role: enums.RoleBuyer}, nil
}

func (s *service) logVerificationFailure(ctx context.Context, email string, role enums.Role, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"email": email,
		"role":  string(role),
	})
	s.logg.Error(ctx, "identity.verification_email_failed", err)
}

func translateRegistrationError(err error, op string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
