package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mfigueroa/shopsync-backend/internal/ratelimit"
	"github.com/mfigueroa/shopsync-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/shopsync-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Line is one cart entry as exposed to callers.
type Line struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Service is the durable, rate-limited cart surface. The realtime channel
// never writes here; this store is the source of truth.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) ([]Line, error)
	Replace(ctx context.Context, userID uuid.UUID, lines []Line) ([]Line, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	limiter ratelimit.Limiter
}

// NewService builds the cart service with the required dependencies.
func NewService(repo Repository, tx txRunner, limiter ratelimit.Limiter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	return &service{repo: repo, tx: tx, limiter: limiter}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.acquire(ctx, userID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return toLines(items), nil
}

func (s *service) Replace(ctx context.Context, userID uuid.UUID, lines []Line) ([]Line, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.acquire(ctx, userID); err != nil {
		return nil, err
	}

	validated, err := ValidateLines(lines)
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(validated))
	for i, line := range validated {
		items = append(items, models.CartItem{
			UserID:    userID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Image:     line.Image,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Position:  i,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return repo.CreateAll(ctx, items)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace cart")
	}

	return validated, nil
}

func (s *service) acquire(ctx context.Context, userID uuid.UUID) error {
	allowed, err := s.limiter.Allow(ctx, userID.String())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many cart requests")
	}
	return nil
}

// ValidateLines checks every line structurally and rejects the whole batch on
// the first violation; duplicates by product collapse last-write-wins while
// keeping the original ordering.
func ValidateLines(lines []Line) ([]Line, error) {
	reject := func(index int, reason string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item").
			WithDetails(map[string]any{"index": index, "reason": reason})
	}

	for i, line := range lines {
		switch {
		case line.ProductID == uuid.Nil:
			return nil, reject(i, "productId is required")
		case line.Name == "":
			return nil, reject(i, "name is required")
		case line.Image == "":
			return nil, reject(i, "image is required")
		case line.Price.IsNegative():
			return nil, reject(i, "price must not be negative")
		case line.Quantity <= 0:
			return nil, reject(i, "quantity must be positive")
		}
	}

	byProduct := make(map[uuid.UUID]int, len(lines))
	merged := make([]Line, 0, len(lines))
	for _, line := range lines {
		if at, ok := byProduct[line.ProductID]; ok {
			merged[at] = line
			continue
		}
		byProduct[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

func toLines(items []models.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return lines
}
