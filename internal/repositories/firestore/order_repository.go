package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/torunhut/api/internal/domain"
	pfirestore "github.com/torunhut/api/internal/platform/firestore"
	"github.com/torunhut/api/internal/platform/pagination"
	"github.com/torunhut/api/internal/repositories"
)

const (
	orderCollection = "orders"
	// shortIDCollection holds one reservation document per assigned short
	// order id. Creating the reservation inside the insert transaction is
	// what makes the 5-digit ids unique under concurrent checkouts.
	shortIDCollection = "order_short_ids"
)

type orderLineDocument struct {
	LineID              string `firestore:"lineId"`
	ProductID           string `firestore:"productId"`
	OriginalProductID   string `firestore:"originalProductId,omitempty"`
	Name                string `firestore:"name"`
	Quantity            int    `firestore:"quantity"`
	Size                string `firestore:"size,omitempty"`
	UnitPrice           int64  `firestore:"unitPrice"`
	IsPreorder          bool   `firestore:"isPreorder"`
	PreorderPaymentType string `firestore:"preorderPaymentType,omitempty"`
	CustomName          string `firestore:"customName,omitempty"`
	CustomNumber        string `firestore:"customNumber,omitempty"`
	ImageURL            string `firestore:"imageUrl,omitempty"`
}

type shippingDetailsDocument struct {
	Name    string `firestore:"name"`
	Phone   string `firestore:"phone"`
	Email   string `firestore:"email,omitempty"`
	Address string `firestore:"address"`
	Area    string `firestore:"area,omitempty"`
	Notes   string `firestore:"notes,omitempty"`
}

type paymentInfoDocument struct {
	Provider      string `firestore:"provider,omitempty"`
	PaymentNumber string `firestore:"paymentNumber,omitempty"`
	TrxID         string `firestore:"trxId,omitempty"`
}

type orderDocument struct {
	ShortOrderID            string                  `firestore:"shortOrderId"`
	UserID                  string                  `firestore:"userId"`
	CustomerName            string                  `firestore:"customerName"`
	CustomerEmail           string                  `firestore:"customerEmail,omitempty"`
	Lines                   []orderLineDocument     `firestore:"lines"`
	Subtotal                int64                   `firestore:"subtotal"`
	RegularSubtotal         int64                   `firestore:"regularSubtotal"`
	PreorderSubtotal        int64                   `firestore:"preorderSubtotal"`
	RemainingPreorderAmount int64                   `firestore:"remainingPreorderAmount"`
	DeliveryCharge          int64                   `firestore:"deliveryCharge"`
	Total                   int64                   `firestore:"total"`
	ShippingZone            string                  `firestore:"shippingZone"`
	ShippingDetails         shippingDetailsDocument `firestore:"shippingDetails"`
	PaymentMethod           string                  `firestore:"paymentMethod"`
	PaymentStatus           string                  `firestore:"paymentStatus"`
	PaymentInfo             *paymentInfoDocument    `firestore:"paymentInfo,omitempty"`
	Status                  string                  `firestore:"status"`
	TrackingNumber          string                  `firestore:"trackingNumber,omitempty"`
	Notes                   string                  `firestore:"notes,omitempty"`

	// No omitempty: unexported orders store an explicit null so the
	// backfill query can match on it.
	ExportedAt *time.Time `firestore:"exportedAt"`
	CreatedAt  time.Time  `firestore:"createdAt"`
	UpdatedAt  time.Time  `firestore:"updatedAt"`
}

type shortIDReservation struct {
	OrderID   string    `firestore:"orderId"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// OrderRepository persists orders in Firestore and guards short-id
// uniqueness with reservation documents.
type OrderRepository struct {
	orders   *pfirestore.Collection[orderDocument]
	shortIDs *pfirestore.Collection[shortIDReservation]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		orders:   pfirestore.NewCollection[orderDocument](provider, orderCollection, nil),
		shortIDs: pfirestore.NewCollection[shortIDReservation](provider, shortIDCollection, nil),
		provider: provider,
	}, nil
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// Insert stores the order and its short-id reservation in one transaction.
// When the short id is already reserved the transaction fails with a
// conflict and nothing is written; the caller redraws and retries.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return domain.Order{}, errors.New("order id is required")
	}
	if strings.TrimSpace(order.ShortOrderID) == "" {
		return domain.Order{}, errors.New("short order id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		shortRef, err := r.shortIDs.Doc(ctx, order.ShortOrderID)
		if err != nil {
			return err
		}
		orderRef, err := r.orders.Doc(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := tx.Create(shortRef, shortIDReservation{
			OrderID:   order.ID,
			CreatedAt: order.CreatedAt,
		}); err != nil {
			return err
		}
		return tx.Create(orderRef, fromDomainOrder(order))
	})
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.insert", err)
	}
	return order, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(doc.ID, doc.Data), nil
}

func (r *OrderRepository) FindByShortID(ctx context.Context, shortOrderID string) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("shortOrderId", "==", strings.TrimSpace(shortOrderID)).Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(docs) == 0 {
		return domain.Order{}, pfirestore.NotFoundError("orders.findByShortId")
	}
	return toDomainOrder(docs[0].ID, docs[0].Data), nil
}

func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.orders == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	pageSize := normalisePageSize(filter.Pagination.PageSize)
	cursor, err := decodeCursor(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.Status != nil {
			q = q.Where("status", "==", string(*filter.Status))
		}
		if filter.CreatedAt != nil {
			if filter.CreatedAt.From != nil {
				q = q.Where("createdAt", ">=", filter.CreatedAt.From.UTC())
			}
			if filter.CreatedAt.To != nil {
				q = q.Where("createdAt", "<=", filter.CreatedAt.To.UTC())
			}
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(cursor) > 0 {
			q = q.StartAfter(cursor...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}
	return orderPage(docs, pageSize)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.orders == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	pageSize := normalisePageSize(pager.PageSize)
	cursor, err := decodeCursor(pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("userId", "==", strings.TrimSpace(userID)).
			OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Desc)
		if len(cursor) > 0 {
			q = q.StartAfter(cursor...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}
	return orderPage(docs, pageSize)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	_, err := r.orders.Update(ctx, orderID, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: updatedAt.UTC()},
	})
	if err != nil {
		return domain.Order{}, err
	}
	return r.FindByID(ctx, orderID)
}

func (r *OrderRepository) UpdateFulfilment(ctx context.Context, orderID string, update repositories.OrderFulfilmentUpdate) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	updates := []firestore.Update{{Path: "updatedAt", Value: update.UpdatedAt.UTC()}}
	if update.TrackingNumber != nil {
		updates = append(updates, firestore.Update{Path: "trackingNumber", Value: strings.TrimSpace(*update.TrackingNumber)})
	}
	if update.Notes != nil {
		updates = append(updates, firestore.Update{Path: "notes", Value: strings.TrimSpace(*update.Notes)})
	}
	if _, err := r.orders.Update(ctx, orderID, updates); err != nil {
		return domain.Order{}, err
	}
	return r.FindByID(ctx, orderID)
}

func (r *OrderRepository) MarkExported(ctx context.Context, orderID string, exportedAt time.Time) error {
	if r == nil || r.orders == nil {
		return errors.New("order repository not initialised")
	}
	_, err := r.orders.Update(ctx, orderID, []firestore.Update{
		{Path: "exportedAt", Value: exportedAt.UTC()},
	})
	return err
}

func (r *OrderRepository) ListUnexported(ctx context.Context, limit int) ([]domain.Order, error) {
	if r == nil || r.orders == nil {
		return nil, errors.New("order repository not initialised")
	}
	if limit <= 0 {
		limit = pagination.DefaultPageSize
	}
	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("exportedAt", "==", nil).
			OrderBy("createdAt", firestore.Asc).
			Limit(limit)
	})
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, toDomainOrder(doc.ID, doc.Data))
	}
	return orders, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	if r == nil || r.orders == nil {
		return nil, errors.New("order repository not initialised")
	}
	ref, err := r.orders.Ref(ctx)
	if err != nil {
		return nil, err
	}

	statuses := []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
		domain.OrderStatusCancelled,
	}
	counts := make(map[domain.OrderStatus]int, len(statuses))
	for _, status := range statuses {
		n, err := runCountAggregation(ctx, ref.Query.Where("status", "==", string(status)), "orders.countByStatus")
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, nil
}

// SumTotals walks the order totals server-side in pages. Firestore has no
// sum aggregation on this client version, and the shop's order volume keeps
// this cheap.
func (r *OrderRepository) SumTotals(ctx context.Context, exclude []domain.OrderStatus) (int64, error) {
	if r == nil || r.orders == nil {
		return 0, errors.New("order repository not initialised")
	}
	excluded := make(map[string]bool, len(exclude))
	for _, status := range exclude {
		excluded[string(status)] = true
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, doc := range docs {
		if excluded[doc.Data.Status] {
			continue
		}
		sum += doc.Data.Total
	}
	return sum, nil
}

func orderPage(docs []pfirestore.Document[orderDocument], pageSize int) (domain.CursorPage[domain.Order], error) {
	page := domain.CursorPage[domain.Order]{}
	for i, doc := range docs {
		if i == pageSize {
			break
		}
		page.Items = append(page.Items, toDomainOrder(doc.ID, doc.Data))
	}
	if len(docs) > pageSize {
		last := docs[pageSize-1]
		token, err := encodeCursor(last.Data.CreatedAt, last.ID)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

func fromDomainOrder(order domain.Order) orderDocument {
	lines := make([]orderLineDocument, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineDocument{
			LineID:              line.LineID,
			ProductID:           line.ProductID,
			OriginalProductID:   line.OriginalProductID,
			Name:                line.Name,
			Quantity:            line.Quantity,
			Size:                line.Size,
			UnitPrice:           line.UnitPrice,
			IsPreorder:          line.IsPreorder,
			PreorderPaymentType: string(line.PreorderPaymentType),
			CustomName:          line.CustomName,
			CustomNumber:        line.CustomNumber,
			ImageURL:            line.ImageURL,
		})
	}

	doc := orderDocument{
		ShortOrderID:            order.ShortOrderID,
		UserID:                  order.UserID,
		CustomerName:            order.CustomerName,
		CustomerEmail:           order.CustomerEmail,
		Lines:                   lines,
		Subtotal:                order.Subtotal,
		RegularSubtotal:         order.RegularSubtotal,
		PreorderSubtotal:        order.PreorderSubtotal,
		RemainingPreorderAmount: order.RemainingPreorderAmount,
		DeliveryCharge:          order.DeliveryCharge,
		Total:                   order.Total,
		ShippingZone:            string(order.ShippingZone),
		ShippingDetails: shippingDetailsDocument{
			Name:    order.ShippingDetails.Name,
			Phone:   order.ShippingDetails.Phone,
			Email:   order.ShippingDetails.Email,
			Address: order.ShippingDetails.Address,
			Area:    order.ShippingDetails.Area,
			Notes:   order.ShippingDetails.Notes,
		},
		PaymentMethod:  string(order.PaymentMethod),
		PaymentStatus:  string(order.PaymentStatus),
		Status:         string(order.Status),
		TrackingNumber: order.TrackingNumber,
		Notes:          order.Notes,
		ExportedAt:     order.ExportedAt,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	if order.PaymentInfo != nil {
		doc.PaymentInfo = &paymentInfoDocument{
			Provider:      order.PaymentInfo.Provider,
			PaymentNumber: order.PaymentInfo.PaymentNumber,
			TrxID:         order.PaymentInfo.TrxID,
		}
	}
	return doc
}

func toDomainOrder(id string, doc orderDocument) domain.Order {
	lines := make([]domain.OrderLine, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, domain.OrderLine{
			LineID:              line.LineID,
			ProductID:           line.ProductID,
			OriginalProductID:   line.OriginalProductID,
			Name:                line.Name,
			Quantity:            line.Quantity,
			Size:                line.Size,
			UnitPrice:           line.UnitPrice,
			IsPreorder:          line.IsPreorder,
			PreorderPaymentType: domain.PreorderPaymentType(line.PreorderPaymentType),
			CustomName:          line.CustomName,
			CustomNumber:        line.CustomNumber,
			ImageURL:            line.ImageURL,
		})
	}

	order := domain.Order{
		ID:                      id,
		ShortOrderID:            doc.ShortOrderID,
		UserID:                  doc.UserID,
		CustomerName:            doc.CustomerName,
		CustomerEmail:           doc.CustomerEmail,
		Lines:                   lines,
		Subtotal:                doc.Subtotal,
		RegularSubtotal:         doc.RegularSubtotal,
		PreorderSubtotal:        doc.PreorderSubtotal,
		RemainingPreorderAmount: doc.RemainingPreorderAmount,
		DeliveryCharge:          doc.DeliveryCharge,
		Total:                   doc.Total,
		ShippingZone:            domain.ShippingZone(doc.ShippingZone),
		ShippingDetails: domain.ShippingDetails{
			Name:    doc.ShippingDetails.Name,
			Phone:   doc.ShippingDetails.Phone,
			Email:   doc.ShippingDetails.Email,
			Address: doc.ShippingDetails.Address,
			Area:    doc.ShippingDetails.Area,
			Notes:   doc.ShippingDetails.Notes,
		},
		PaymentMethod:  domain.PaymentMethod(doc.PaymentMethod),
		PaymentStatus:  domain.PaymentStatus(doc.PaymentStatus),
		Status:         domain.OrderStatus(doc.Status),
		TrackingNumber: doc.TrackingNumber,
		Notes:          doc.Notes,
		ExportedAt:     doc.ExportedAt,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	if doc.PaymentInfo != nil {
		order.PaymentInfo = &domain.PaymentInfo{
			Provider:      doc.PaymentInfo.Provider,
			PaymentNumber: doc.PaymentInfo.PaymentNumber,
			TrxID:         doc.PaymentInfo.TrxID,
		}
	}
	return order
}
