package identity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
	"github.com/marchelocal/marchelocal-backend/pkg/pagination"
)

// Repository exposes persistence for both identity variants plus the shared
// email claim table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an identity repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// accountOps bundles the role-specific persistence behaviors. Generic flows
// dispatch through this table instead of switching on the role value.
type accountOps struct {
	findByEmail      func(ctx context.Context, r *Repository, email string) (Account, error)
	findByID         func(ctx context.Context, r *Repository, id uuid.UUID) (Account, error)
	findByVerifyHash func(ctx context.Context, r *Repository, hash string) (Account, error)
	save             func(ctx context.Context, r *Repository, acct Account) error
	remove           func(ctx context.Context, r *Repository, id uuid.UUID) error
}

var accountOpsByRole = map[enums.Role]accountOps{
	enums.RoleProducer: {
		findByEmail: func(ctx context.Context, r *Repository, email string) (Account, error) {
			record, err := r.ProducerByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			return NewProducerAccount(record), nil
		},
		findByID: func(ctx context.Context, r *Repository, id uuid.UUID) (Account, error) {
			record, err := r.ProducerByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return NewProducerAccount(record), nil
		},
		findByVerifyHash: func(ctx context.Context, r *Repository, hash string) (Account, error) {
			var record models.Producer
			if err := r.db.WithContext(ctx).First(&record, "verify_token_hash = ?", hash).Error; err != nil {
				return nil, err
			}
			return NewProducerAccount(&record), nil
		},
		save: func(ctx context.Context, r *Repository, acct Account) error {
			return r.SaveProducer(ctx, acct.(*ProducerAccount).Record())
		},
		remove: func(ctx context.Context, r *Repository, id uuid.UUID) error {
			return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Producer{}).Error
		},
	},
	enums.RoleBuyer: {
		findByEmail: func(ctx context.Context, r *Repository, email string) (Account, error) {
			record, err := r.BuyerByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			return NewBuyerAccount(record), nil
		},
		findByID: func(ctx context.Context, r *Repository, id uuid.UUID) (Account, error) {
			record, err := r.BuyerByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return NewBuyerAccount(record), nil
		},
		findByVerifyHash: func(ctx context.Context, r *Repository, hash string) (Account, error) {
			var record models.Buyer
			if err := r.db.WithContext(ctx).First(&record, "verify_token_hash = ?", hash).Error; err != nil {
				return nil, err
			}
			return NewBuyerAccount(&record), nil
		},
		save: func(ctx context.Context, r *Repository, acct Account) error {
			return r.SaveBuyer(ctx, acct.(*BuyerAccount).Record())
		},
		remove: func(ctx context.Context, r *Repository, id uuid.UUID) error {
			return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Buyer{}).Error
		},
	},
}

func opsFor(role enums.Role) (accountOps, error) {
	ops, ok := accountOpsByRole[role]
	if !ok {
		return accountOps{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	return ops, nil
}

// ClaimEmail inserts the email claim row tying an address to one account.
func (r *Repository) ClaimEmail(ctx context.Context, email string, role enums.Role, accountID uuid.UUID) error {
	claim := models.AccountEmail{Email: email, Role: role, AccountID: accountID}
	return r.db.WithContext(ctx).Create(&claim).Error
}

// ReleaseEmail removes the email claim when an account is deleted.
func (r *Repository) ReleaseEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&models.AccountEmail{}).Error
}

// CreateProducer inserts a new producer row.
func (r *Repository) CreateProducer(ctx context.Context, record *models.Producer) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// CreateBuyer inserts a new buyer row.
func (r *Repository) CreateBuyer(ctx context.Context, record *models.Buyer) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// ProducerByEmail loads a producer by normalized email.
func (r *Repository) ProducerByEmail(ctx context.Context, email string) (*models.Producer, error) {
	var record models.Producer
	if err := r.db.WithContext(ctx).First(&record, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ProducerByID loads a producer by id.
func (r *Repository) ProducerByID(ctx context.Context, id uuid.UUID) (*models.Producer, error) {
	var record models.Producer
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// BuyerByEmail loads a buyer by normalized email.
func (r *Repository) BuyerByEmail(ctx context.Context, email string) (*models.Buyer, error) {
	var record models.Buyer
	if err := r.db.WithContext(ctx).First(&record, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// BuyerByID loads a buyer by id.
func (r *Repository) BuyerByID(ctx context.Context, id uuid.UUID) (*models.Buyer, error) {
	var record models.Buyer
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveProducer persists producer changes.
func (r *Repository) SaveProducer(ctx context.Context, record *models.Producer) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// SaveBuyer persists buyer changes.
func (r *Repository) SaveBuyer(ctx context.Context, record *models.Buyer) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// AccountByEmail resolves the account for the role via the dispatch table.
func (r *Repository) AccountByEmail(ctx context.Context, role enums.Role, email string) (Account, error) {
	ops, err := opsFor(role)
	if err != nil {
		return nil, err
	}
	return ops.findByEmail(ctx, r, email)
}

// AccountByID resolves the account for the role via the dispatch table.
func (r *Repository) AccountByID(ctx context.Context, role enums.Role, id uuid.UUID) (Account, error) {
	ops, err := opsFor(role)
	if err != nil {
		return nil, err
	}
	return ops.findByID(ctx, r, id)
}

// AccountByVerifyHash resolves the account holding the hashed verification token.
func (r *Repository) AccountByVerifyHash(ctx context.Context, role enums.Role, hash string) (Account, error) {
	ops, err := opsFor(role)
	if err != nil {
		return nil, err
	}
	return ops.findByVerifyHash(ctx, r, hash)
}

// SaveAccount persists the account through its role-specific writer.
func (r *Repository) SaveAccount(ctx context.Context, acct Account) error {
	ops, err := opsFor(acct.Role())
	if err != nil {
		return err
	}
	return ops.save(ctx, r, acct)
}

// DeleteAccount removes the account row for the role.
func (r *Repository) DeleteAccount(ctx context.Context, role enums.Role, id uuid.UUID) error {
	ops, err := opsFor(role)
	if err != nil {
		return err
	}
	return ops.remove(ctx, r, id)
}

// ListProducers pages through producer rows, newest first.
func (r *Repository) ListProducers(ctx context.Context, p pagination.Params) ([]models.Producer, int64, error) {
	p = pagination.Normalize(p)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Producer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Producer
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(pagination.Offset(p)).
		Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListBuyers pages through buyer rows, newest first.
func (r *Repository) ListBuyers(ctx context.Context, p pagination.Params) ([]models.Buyer, int64, error) {
	p = pagination.Normalize(p)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Buyer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Buyer
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(pagination.Offset(p)).
		Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
