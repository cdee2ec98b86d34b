package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
)

// Account is the role-independent view of a producer or buyer row. Generic
// flows (login, email verification, deletion) work against this interface;
// role-specific profile shapes stay on the concrete models.
type Account interface {
	AccountID() uuid.UUID
	Email() string
	Role() enums.Role
	PasswordHash() string
	Verified() bool
	VerificationExpiry() *time.Time
	MarkVerified()
}

// ProducerAccount adapts a producer row to the Account interface.
type ProducerAccount struct {
	record *models.Producer
}

// NewProducerAccount wraps the provided producer row.
func NewProducerAccount(record *models.Producer) *ProducerAccount {
	return &ProducerAccount{record: record}
}

func (a *ProducerAccount) AccountID() uuid.UUID { return a.record.ID }
func (a *ProducerAccount) Email() string { return a.record.Email }
func (a *ProducerAccount) Role() enums.Role { return enums.RoleProducer }
func (a *ProducerAccount) PasswordHash() string { return a.record.PasswordHash }
func (a *ProducerAccount) Verified() bool { return a.record.Verified }
func (a *ProducerAccount) Record() *models.Producer { return a.record }

func (a *ProducerAccount) VerificationExpiry() *time.Time { return a.record.VerifyTokenExpiry }

func (a *ProducerAccount) MarkVerified() {
	a.record.Verified = true
	a.record.VerifyTokenHash = nil
	a.record.VerifyTokenExpiry = nil
}

// BuyerAccount adapts a buyer row to the Account interface.
type BuyerAccount struct {
	record *models.Buyer
}

// NewBuyerAccount wraps the provided buyer row.
func NewBuyerAccount(record *models.Buyer) *BuyerAccount {
	return &BuyerAccount{record: record}
}

func (a *BuyerAccount) AccountID() uuid.UUID { return a.record.ID }
func (a *BuyerAccount) Email() string { return a.record.Email }
func (a *BuyerAccount) Role() enums.Role { return enums.RoleBuyer }
func (a *BuyerAccount) PasswordHash() string { return a.record.PasswordHash }
func (a *BuyerAccount) Verified() bool { return a.record.Verified }
func (a *BuyerAccount) Record() *models.Buyer { return a.record }

func (a *BuyerAccount) VerificationExpiry() *time.Time { return a.record.VerifyTokenExpiry }

func (a *BuyerAccount) MarkVerified() {
	a.record.Verified = true
	a.record.VerifyTokenHash = nil
	a.record.VerifyTokenExpiry = nil
}
