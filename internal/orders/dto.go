package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfigueroa/shopsync-backend/pkg/db/models"
	"github.com/mfigueroa/shopsync-backend/pkg/enums"
	"github.com/mfigueroa/shopsync-backend/pkg/types"
)

// Actor is the authenticated caller performing an order operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.MemberRole
}

// IsAdmin reports whether the actor holds the admin capability.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

// CanAccess reports whether the actor may read or pay the order: the owner
// always can, admins can for any order.
func (a Actor) CanAccess(order *models.Order) bool {
	if order == nil {
		return false
	}
	return a.IsAdmin() || order.UserID == a.ID
}

// ItemInput is one checkout line as submitted by the client.
type ItemInput struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// CreateInput describes one checkout.
type CreateInput struct {
	Items           []ItemInput           `json:"orderItems"`
	PaymentMethod   string                `json:"paymentMethod"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	ItemsPrice      decimal.Decimal       `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal       `json:"shippingPrice"`
	TaxPrice        decimal.Decimal       `json:"taxPrice"`
	TotalPrice      decimal.Decimal       `json:"totalPrice"`
}

// PaymentInput carries the processor callback payload for confirmation.
type PaymentInput struct {
	Result json.RawMessage `json:"paymentResult"`
	PaidAt time.Time       `json:"-"`
}

// ItemOutcome reports one side-effect step of payment confirmation. Failed
// steps are recorded and skipped, never propagated.
type ItemOutcome struct {
	ProductID uuid.UUID `json:"productId"`
	OK        bool      `json:"ok"`
	Reason    string    `json:"reason,omitempty"`
}

// ConfirmResult is the full outcome of a payment confirmation.
type ConfirmResult struct {
	Order        *models.Order `json:"order"`
	AlreadyPaid  bool          `json:"alreadyPaid"`
	ItemOutcomes []ItemOutcome `json:"itemOutcomes,omitempty"`
}
