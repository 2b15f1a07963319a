package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/repositories"
)

// ErrExportUnavailable indicates the spreadsheet backend rejected the write.
var ErrExportUnavailable = errors.New("export service: unavailable")

// SheetAppender is the spreadsheet write surface the exporter needs.
type SheetAppender interface {
	EnsureHeader(ctx context.Context, header []string) error
	AppendRows(ctx context.Context, rows [][]any) error
}

// orderSheetHeader is the fixed column layout of the back-office sheet.
// Changing the order breaks the formulas the shop staff keep in it.
var orderSheetHeader = []string{
	"Order Date",
	"Order ID",
	"Customer Name",
	"Phone",
	"Email",
	"Address",
	"Area",
	"Delivery Zone",
	"Items",
	"Total Quantity",
	"Subtotal",
	"Regular Amount",
	"Preorder Paid Now",
	"Due on Arrival",
	"Delivery Charge",
	"Grand Total",
	"Payment Method",
	"Payment Status",
	"Order Status",
	"Tracking Number",
	"Notes",
}

// ExportServiceDeps wires the exporter dependencies.
type ExportServiceDeps struct {
	Sheet  SheetAppender
	Orders repositories.OrderRepository
	// BatchSize bounds how many orders a single backfill run picks up.
	BatchSize int
	Clock     func() time.Time
	Logger    func(context.Context, string, map[string]any)
}

// ExportService mirrors orders into the staff spreadsheet. It satisfies
// OrderExporter for the checkout flow and additionally offers Backfill for
// the scheduled catch-up job.
type ExportService struct {
	sheet     SheetAppender
	orders    repositories.OrderRepository
	batchSize int
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)
	// Lakh-style digit grouping matches how the staff read amounts.
	amounts *message.Printer

	// headerMu serializes the first-append header check; checkout exports
	// run concurrently.
	headerMu      sync.Mutex
	headerEnsured bool
}

// NewExportService constructs an ExportService enforcing dependency validation.
func NewExportService(deps ExportServiceDeps) (*ExportService, error) {
	if deps.Sheet == nil {
		return nil, errors.New("export service: sheet appender is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("export service: order repository is required")
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = 50
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}

	clock := deps.Clock
	return &ExportService{
		sheet:     deps.Sheet,
		orders:    deps.Orders,
		batchSize: deps.BatchSize,
		now:       func() time.Time { return clock().UTC() },
		logger:    deps.Logger,
		amounts:   message.NewPrinter(language.MustParse("en-IN")),
	}, nil
}

// ExportOrder appends a single order row. Callers treat failures as
// best-effort and only log them.
func (s *ExportService) ExportOrder(ctx context.Context, order domain.Order) error {
	if err := s.ensureHeader(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}
	if err := s.sheet.AppendRows(ctx, [][]any{s.orderRow(order)}); err != nil {
		return fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}
	return nil
}

// Backfill exports orders the checkout-time export missed and marks them
// exported. It returns how many orders it wrote.
func (s *ExportService) Backfill(ctx context.Context) (int, error) {
	pending, err := s.orders.ListUnexported(ctx, s.batchSize)
	if err != nil {
		return 0, ErrExportUnavailable
	}
	if len(pending) == 0 {
		return 0, nil
	}
	if err := s.ensureHeader(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}

	rows := make([][]any, 0, len(pending))
	for _, order := range pending {
		rows = append(rows, s.orderRow(order))
	}
	if err := s.sheet.AppendRows(ctx, rows); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}

	exportedAt := s.now()
	for _, order := range pending {
		if err := s.orders.MarkExported(ctx, order.ID, exportedAt); err != nil {
			s.logger(ctx, "export.mark_failed", map[string]any{
				"orderID": order.ID,
				"error":   err.Error(),
			})
		}
	}
	return len(pending), nil
}

func (s *ExportService) ensureHeader(ctx context.Context) error {
	s.headerMu.Lock()
	defer s.headerMu.Unlock()
	if s.headerEnsured {
		return nil
	}
	if err := s.sheet.EnsureHeader(ctx, orderSheetHeader); err != nil {
		return err
	}
	s.headerEnsured = true
	return nil
}

func (s *ExportService) orderRow(order domain.Order) []any {
	items := make([]string, 0, len(order.Lines))
	totalQty := 0
	for _, line := range order.Lines {
		desc := fmt.Sprintf("%s x%d", line.Name, line.Quantity)
		if line.Size != "" {
			desc += " (" + line.Size + ")"
		}
		if line.CustomName != "" || line.CustomNumber != "" {
			desc += " [" + strings.TrimSpace(line.CustomName+" "+line.CustomNumber) + "]"
		}
		items = append(items, desc)
		totalQty += line.Quantity
	}

	return []any{
		order.CreatedAt.Format("2006-01-02 15:04"),
		order.ShortOrderID,
		order.CustomerName,
		order.ShippingDetails.Phone,
		order.CustomerEmail,
		order.ShippingDetails.Address,
		order.ShippingDetails.Area,
		string(order.ShippingZone),
		strings.Join(items, "; "),
		totalQty,
		s.taka(order.Subtotal),
		s.taka(order.RegularSubtotal),
		s.taka(order.PreorderSubtotal),
		s.taka(order.RemainingPreorderAmount),
		s.taka(order.DeliveryCharge),
		s.taka(order.Total),
		string(order.PaymentMethod),
		string(order.PaymentStatus),
		string(order.Status),
		order.TrackingNumber,
		order.Notes,
	}
}

func (s *ExportService) taka(amount int64) string {
	return s.amounts.Sprintf("%d", amount)
}
