package feed

import (
	"log"
	"math"
	"strconv"
	"time"

	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/entities"
	"github.com/pureclarity/feedsync/internal/runstate"
)

// OrderHandler is the order-history feed plugin. Only completed orders are
// exported.
type OrderHandler struct {
	data *orderData
	rows *orderRows
}

func NewOrderHandler(cat *catalog.Catalog, tracker *runstate.Tracker, pageSize int) *OrderHandler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &OrderHandler{
		data: &orderData{catalog: cat, tracker: tracker, pageSize: pageSize},
		rows: &orderRows{},
	}
}

func (h *OrderHandler) FeedType() string { return TypeOrder }

func (h *OrderHandler) IsEnabled(storeID int) bool { return true }

func (h *OrderHandler) RequiresEmulation() bool { return false }

func (h *OrderHandler) DataHandler() DataHandler { return h.data }

func (h *OrderHandler) RowHandler() RowHandler { return h.rows }

type orderData struct {
	catalog  *catalog.Catalog
	tracker  *runstate.Tracker
	pageSize int
}

func (d *orderData) PageSize() int { return d.pageSize }

func (d *orderData) TotalPages(scope *catalog.Scope) int {
	count, err := d.catalog.CountOrders(scope.StoreID())
	if err != nil {
		log.Printf("Order feed: failed to count orders for store %d: %v", scope.StoreID(), err)
		d.tracker.SetFeedError(TypeOrder, scope.StoreID(), err.Error())
		return 0
	}
	return int(math.Ceil(float64(count) / float64(d.pageSize)))
}

func (d *orderData) PageData(scope *catalog.Scope, page int) []Entity {
	orders, err := d.catalog.OrdersPage(scope.StoreID(), page, d.pageSize)
	if err != nil {
		log.Printf("Order feed: failed to load page %d for store %d: %v", page, scope.StoreID(), err)
		d.tracker.SetFeedError(TypeOrder, scope.StoreID(), err.Error())
		return nil
	}
	result := make([]Entity, len(orders))
	for i := range orders {
		result[i] = &orders[i]
	}
	return result
}

type orderRows struct{}

func (r *orderRows) RowData(scope *catalog.Scope, entity Entity) Row {
	order, ok := entity.(*entities.Order)
	if !ok {
		log.Printf("Order feed: unexpected entity type %T", entity)
		return Row{}
	}

	row := Row{
		"Id":       order.IncrementID,
		"Email":    order.Email,
		"DateTime": order.CreatedAt.Format(time.RFC3339),
	}
	if order.CustomerID != nil {
		row["UserId"] = strconv.FormatUint(uint64(*order.CustomerID), 10)
	}

	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"ProdCode":  strconv.FormatUint(uint64(item.ProductID), 10),
			"Sku":       item.SKU,
			"Quantity":  item.Qty,
			"UnitPrice": item.Price,
			"LinePrice": item.Price * item.Qty,
		})
	}
	row["Items"] = items
	return row
}
