package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/marchelocal/marchelocal-backend/pkg/auth"
	"github.com/marchelocal/marchelocal-backend/pkg/config"
	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
	"github.com/marchelocal/marchelocal-backend/pkg/logger"
	"github.com/marchelocal/marchelocal-backend/pkg/pagination"
	"github.com/marchelocal/marchelocal-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the identity behaviors needed by the HTTP layer.
type Service interface {
	RegisterProducer(ctx context.Context, req RegisterProducerRequest) (*RegisterResponse, error)
	RegisterBuyer(ctx context.Context, req RegisterBuyerRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	VerifyEmail(ctx context.Context, role enums.Role, token string) (*AccountSummary, error)
	GetProducer(ctx context.Context, id uuid.UUID) (*ProducerProfile, error)
	GetBuyer(ctx context.Context, id uuid.UUID) (*BuyerProfile, error)
	UpdateProducer(ctx context.Context, id uuid.UUID, req UpdateProducerRequest) (*ProducerProfile, error)
	UpdateBuyer(ctx context.Context, id uuid.UUID, req UpdateBuyerRequest) (*BuyerProfile, error)
	DeleteAccount(ctx context.Context, role enums.Role, id uuid.UUID) error
	ListProducers(ctx context.Context, p pagination.Params) ([]ProducerProfile, pagination.Page, error)
	ListBuyers(ctx context.Context, p pagination.Params) ([]BuyerProfile, pagination.Page, error)
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AccountStore is the persistence surface the service depends on.
type AccountStore interface {
	ClaimEmail(ctx context.Context, email string, role enums.Role, accountID uuid.UUID) error
	ReleaseEmail(ctx context.Context, email string) error
	CreateProducer(ctx context.Context, record *models.Producer) error
	CreateBuyer(ctx context.Context, record *models.Buyer) error
	AccountByEmail(ctx context.Context, role enums.Role, email string) (Account, error)
	AccountByID(ctx context.Context, role enums.Role, id uuid.UUID) (Account, error)
	AccountByVerifyHash(ctx context.Context, role enums.Role, hash string) (Account, error)
	SaveAccount(ctx context.Context, acct Account) error
	DeleteAccount(ctx context.Context, role enums.Role, id uuid.UUID) error
	ProducerByID(ctx context.Context, id uuid.UUID) (*models.Producer, error)
	BuyerByID(ctx context.Context, id uuid.UUID) (*models.Buyer, error)
	SaveProducer(ctx context.Context, record *models.Producer) error
	SaveBuyer(ctx context.Context, record *models.Buyer) error
	ListProducers(ctx context.Context, p pagination.Params) ([]models.Producer, int64, error)
	ListBuyers(ctx context.Context, p pagination.Params) ([]models.Buyer, int64, error)
}

// VerificationSender delivers the emailed verification link.
type VerificationSender interface {
	SendVerification(ctx context.Context, email, name string, role enums.Role, token string) error
}

// ServiceParams bundles the dependencies required to build an identity service.
type ServiceParams struct {
	Tx          TxRunner
	RepoFactory func(tx *gorm.DB) AccountStore
	Mailer      VerificationSender
	JWTConfig   config.JWTConfig
	PasswordCfg config.PasswordConfig
	Logger      *logger.Logger
}

type service struct {
	tx          TxRunner
	repos       func(tx *gorm.DB) AccountStore
	mailer      VerificationSender
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService constructs an identity service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.RepoFactory == nil {
		return nil, fmt.Errorf("repository factory is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	return &service{
		tx:          params.Tx,
		repos:       params.RepoFactory,
		mailer:      params.Mailer,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordCfg,
		logg:        params.Logger,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	acct, err := s.repos(nil).AccountByEmail(ctx, req.Role, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}

	valid, err := security.VerifyPassword(req.Password, acct.PasswordHash())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:   acct.AccountID(),
		Role:     acct.Role(),
		Verified: acct.Verified(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: token,
		Account:     SummaryFromAccount(acct),
	}, nil
}

func (s *service) VerifyEmail(ctx context.Context, role enums.Role, token string) (*AccountSummary, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification token is required")
	}

	repo := s.repos(nil)
	acct, err := repo.AccountByVerifyHash(ctx, role, hashVerificationToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired verification token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup verification token")
	}

	expiry := acct.VerificationExpiry()
	if expiry == nil || time.Now().UTC().After(*expiry) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired verification token")
	}

	acct.MarkVerified()
	if err := repo.SaveAccount(ctx, acct); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist verification")
	}

	summary := SummaryFromAccount(acct)
	return &summary, nil
}

func (s *service) GetProducer(ctx context.Context, id uuid.UUID) (*ProducerProfile, error) {
	record, err := s.repos(nil).ProducerByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load producer")
	}
	profile := FromProducer(record)
	return &profile, nil
}

func (s *service) GetBuyer(ctx context.Context, id uuid.UUID) (*BuyerProfile, error) {
	record, err := s.repos(nil).BuyerByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer")
	}
	profile := FromBuyer(record)
	return &profile, nil
}

func (s *service) UpdateProducer(ctx context.Context, id uuid.UUID, req UpdateProducerRequest) (*ProducerProfile, error) {
	repo := s.repos(nil)
	record, err := repo.ProducerByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load producer")
	}

	applyString(&record.FirstName, req.FirstName)
	applyString(&record.LastName, req.LastName)
	applyString(&record.Commune, req.Commune)
	applyString(&record.Telephone, req.Telephone)
	if req.Description != nil {
		record.Description = req.Description
	}
	if req.PictureRef != nil {
		record.PictureRef = req.PictureRef
	}
	if req.ProductCategories != nil {
		record.ProductCategories = req.ProductCategories
	}

	if err := repo.SaveProducer(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save producer")
	}
	profile := FromProducer(record)
	return &profile, nil
}

func (s *service) UpdateBuyer(ctx context.Context, id uuid.UUID, req UpdateBuyerRequest) (*BuyerProfile, error) {
	repo := s.repos(nil)
	record, err := repo.BuyerByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer")
	}

	applyString(&record.FirstName, req.FirstName)
	applyString(&record.LastName, req.LastName)
	applyString(&record.City, req.City)
	applyString(&record.PostalCode, req.PostalCode)
	applyString(&record.PhoneNumber, req.PhoneNumber)
	applyString(&record.RestaurantName, req.RestaurantName)
	applyString(&record.RestaurantAddress, req.RestaurantAddress)
	if req.Description != nil {
		record.Description = req.Description
	}
	if req.PictureRef != nil {
		record.PictureRef = req.PictureRef
	}

	if err := repo.SaveBuyer(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save buyer")
	}
	profile := FromBuyer(record)
	return &profile, nil
}

func (s *service) DeleteAccount(ctx context.Context, role enums.Role, id uuid.UUID) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)
		acct, err := repo.AccountByID(ctx, role, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
		}
		if err := repo.DeleteAccount(ctx, role, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete account")
		}
		if err := repo.ReleaseEmail(ctx, acct.Email()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release email claim")
		}
		return nil
	})
}

func (s *service) ListProducers(ctx context.Context, p pagination.Params) ([]ProducerProfile, pagination.Page, error) {
	rows, total, err := s.repos(nil).ListProducers(ctx, p)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list producers")
	}
	profiles := make([]ProducerProfile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, FromProducer(&rows[i]))
	}
	return profiles, pagination.Describe(p, total), nil
}

func (s *service) ListBuyers(ctx context.Context, p pagination.Params) ([]BuyerProfile, pagination.Page, error) {
	rows, total, err := s.repos(nil).ListBuyers(ctx, p)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list buyers")
	}
	profiles := make([]BuyerProfile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, FromBuyer(&rows[i]))
	}
	return profiles, pagination.Describe(p, total), nil
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func applyString(dst *string, src *string) {
	if src != nil && strings.TrimSpace(*src) != "" {
		*dst = strings.TrimSpace(*src)
	}
}
