package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfigueroa/shopsync-backend/pkg/db/models"
	"github.com/mfigueroa/shopsync-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/shopsync-backend/pkg/errors"
	"github.com/mfigueroa/shopsync-backend/pkg/pagination"
)

// Period selects the bucketing for sales history series.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

const (
	weeklyBuckets  = 7
	monthlyBuckets = 6
	yearlyBuckets  = 5
	topProductMax  = 5
	recentOrderMax = 5
)

// ProductSummary aggregates one product's completed sales.
type ProductSummary struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// OrderSummary is one distinct order as seen from the seller's ledger.
type OrderSummary struct {
	OrderID      uuid.UUID       `json:"orderId"`
	CustomerName string          `json:"customerName"`
	OrderDate    time.Time       `json:"orderDate"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
}

// Dashboard is the seller overview derived entirely from completed records.
type Dashboard struct {
	TotalRevenue   decimal.Decimal  `json:"totalRevenue"`
	TotalItemsSold int              `json:"totalItemsSold"`
	TotalOrders    int              `json:"totalOrders"`
	TopProducts    []ProductSummary `json:"topProducts"`
	RecentOrders   []OrderSummary   `json:"recentOrders"`
}

// SeriesPoint is one zero-filled bucket of the sales history series.
type SeriesPoint struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// HistoryPage is one page of raw ledger entries.
type HistoryPage struct {
	Records    []models.SalesRecord `json:"records"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"totalPages"`
}

// Service is the seller-facing analytics surface over the ledger.
type Service interface {
	Dashboard(ctx context.Context, sellerID uuid.UUID) (*Dashboard, error)
	Series(ctx context.Context, sellerID uuid.UUID, period Period) ([]SeriesPoint, error)
	History(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the sales analytics service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Dashboard(ctx context.Context, sellerID uuid.UUID) (*Dashboard, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}

	records, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales records")
	}

	dash := &Dashboard{
		TotalRevenue: decimal.Zero,
		TopProducts:  []ProductSummary{},
		RecentOrders: []OrderSummary{},
	}

	type productAgg struct {
		summary ProductSummary
		firstAt int
	}
	byProduct := make(map[uuid.UUID]*productAgg)
	byOrder := make(map[uuid.UUID]*OrderSummary)

	for i, record := range records {
		if record.Status != enums.SalesRecordStatusCompleted || record.OrderID == nil {
			continue
		}
		dash.TotalRevenue = dash.TotalRevenue.Add(record.TotalAmount)
		dash.TotalItemsSold += record.Quantity

		agg, ok := byProduct[record.ProductID]
		if !ok {
			agg = &productAgg{
				summary: ProductSummary{
					ProductID:   record.ProductID,
					ProductName: record.ProductName,
					Revenue:     decimal.Zero,
				},
				firstAt: i,
			}
			byProduct[record.ProductID] = agg
		}
		agg.summary.Quantity += record.Quantity
		agg.summary.Revenue = agg.summary.Revenue.Add(record.TotalAmount)

		order, ok := byOrder[*record.OrderID]
		if !ok {
			byOrder[*record.OrderID] = &OrderSummary{
				OrderID:      *record.OrderID,
				CustomerName: record.CustomerName,
				OrderDate:    record.OrderDate,
				TotalAmount:  record.TotalAmount,
			}
		} else {
			order.TotalAmount = order.TotalAmount.Add(record.TotalAmount)
		}
	}

	dash.TotalOrders = len(byOrder)

	products := make([]*productAgg, 0, len(byProduct))
	for _, agg := range byProduct {
		products = append(products, agg)
	}
	// quantity descending; ties keep the earlier ledger entry first
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].summary.Quantity != products[j].summary.Quantity {
			return products[i].summary.Quantity > products[j].summary.Quantity
		}
		return products[i].firstAt < products[j].firstAt
	})
	for _, agg := range products {
		if len(dash.TopProducts) == topProductMax {
			break
		}
		dash.TopProducts = append(dash.TopProducts, agg.summary)
	}

	orders := make([]OrderSummary, 0, len(byOrder))
	for _, order := range byOrder {
		orders = append(orders, *order)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	if len(orders) > recentOrderMax {
		orders = orders[:recentOrderMax]
	}
	dash.RecentOrders = orders

	return dash, nil
}

func (s *service) Series(ctx context.Context, sellerID uuid.UUID, period Period) ([]SeriesPoint, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}

	buckets, err := buildBuckets(period, s.now())
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListBySellerSince(ctx, sellerID, buckets[0].start)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales records")
	}

	points := make([]SeriesPoint, len(buckets))
	orderSets := make([]map[uuid.UUID]struct{}, len(buckets))
	for i, b := range buckets {
		points[i] = SeriesPoint{Label: b.label, Revenue: decimal.Zero}
		orderSets[i] = make(map[uuid.UUID]struct{})
	}

	for _, record := range records {
		if record.Status != enums.SalesRecordStatusCompleted || record.OrderID == nil {
			continue
		}
		for i, b := range buckets {
			if record.OrderDate.Before(b.start) || !record.OrderDate.Before(b.end) {
				continue
			}
			points[i].Revenue = points[i].Revenue.Add(record.TotalAmount)
			if _, seen := orderSets[i][*record.OrderID]; !seen {
				orderSets[i][*record.OrderID] = struct{}{}
				points[i].Orders++
			}
			break
		}
	}

	return points, nil
}

func (s *service) History(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}

	records, total, err := s.repo.PageBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "page sales records")
	}
	if records == nil {
		records = []models.SalesRecord{}
	}

	return &HistoryPage{
		Records:    records,
		Total:      total,
		Page:       pagination.NormalizePage(params.Page),
		TotalPages: pagination.TotalPages(total, params.Limit),
	}, nil
}

type bucket struct {
	label string
	start time.Time
	end   time.Time
}

// buildBuckets returns the chronological, contiguous windows for a period,
// ending with the bucket containing now.
func buildBuckets(period Period, now time.Time) ([]bucket, error) {
	switch period {
	case PeriodWeekly:
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		buckets := make([]bucket, 0, weeklyBuckets)
		for i := weeklyBuckets - 1; i >= 0; i-- {
			start := day.AddDate(0, 0, -i)
			buckets = append(buckets, bucket{
				label: start.Format("2006-01-02"),
				start: start,
				end:   start.AddDate(0, 0, 1),
			})
		}
		return buckets, nil
	case PeriodMonthly:
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		buckets := make([]bucket, 0, monthlyBuckets)
		for i := monthlyBuckets - 1; i >= 0; i-- {
			start := month.AddDate(0, -i, 0)
			buckets = append(buckets, bucket{
				label: start.Format("2006-01"),
				start: start,
				end:   start.AddDate(0, 1, 0),
			})
		}
		return buckets, nil
	case PeriodYearly:
		year := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		buckets := make([]bucket, 0, yearlyBuckets)
		for i := yearlyBuckets - 1; i >= 0; i-- {
			start := year.AddDate(-i, 0, 0)
			buckets = append(buckets, bucket{
				label: start.Format("2006"),
				start: start,
				end:   start.AddDate(1, 0, 0),
			})
		}
		return buckets, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown period").
			WithDetails(map[string]any{"period": string(period)})
	}
}
