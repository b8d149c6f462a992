package feed

import (
	"log"
	"math"
	"strconv"

	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/entities"
	"github.com/pureclarity/feedsync/internal/runstate"
)

// UserHandler is the customer feed plugin.
type UserHandler struct {
	data *userData
	rows *userRows
}

func NewUserHandler(cat *catalog.Catalog, tracker *runstate.Tracker, pageSize int) *UserHandler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &UserHandler{
		data: &userData{catalog: cat, tracker: tracker, pageSize: pageSize},
		rows: &userRows{},
	}
}

func (h *UserHandler) FeedType() string { return TypeUser }

func (h *UserHandler) IsEnabled(storeID int) bool { return true }

func (h *UserHandler) RequiresEmulation() bool { return false }

func (h *UserHandler) DataHandler() DataHandler { return h.data }

func (h *UserHandler) RowHandler() RowHandler { return h.rows }

type userData struct {
	catalog  *catalog.Catalog
	tracker  *runstate.Tracker
	pageSize int
}

func (d *userData) PageSize() int { return d.pageSize }

func (d *userData) TotalPages(scope *catalog.Scope) int {
	count, err := d.catalog.CountCustomers(scope.StoreID())
	if err != nil {
		log.Printf("User feed: failed to count customers for store %d: %v", scope.StoreID(), err)
		d.tracker.SetFeedError(TypeUser, scope.StoreID(), err.Error())
		return 0
	}
	return int(math.Ceil(float64(count) / float64(d.pageSize)))
}

func (d *userData) PageData(scope *catalog.Scope, page int) []Entity {
	customers, err := d.catalog.CustomersPage(scope.StoreID(), page, d.pageSize)
	if err != nil {
		log.Printf("User feed: failed to load page %d for store %d: %v", page, scope.StoreID(), err)
		d.tracker.SetFeedError(TypeUser, scope.StoreID(), err.Error())
		return nil
	}
	result := make([]Entity, len(customers))
	for i := range customers {
		result[i] = &customers[i]
	}
	return result
}

type userRows struct{}

func (r *userRows) RowData(scope *catalog.Scope, entity Entity) Row {
	customer, ok := entity.(*entities.Customer)
	if !ok {
		log.Printf("User feed: unexpected entity type %T", entity)
		return Row{}
	}

	row := Row{
		"UserId":    strconv.FormatUint(uint64(customer.ID), 10),
		"Id":        strconv.FormatUint(uint64(customer.ID), 10),
		"Email":     customer.Email,
		"FirstName": customer.FirstName,
		"LastName":  customer.LastName,
	}
	if customer.City != "" {
		row["City"] = customer.City
	}
	if customer.Country != "" {
		row["Country"] = customer.Country
	}
	if customer.Gender != "" {
		row["Gender"] = customer.Gender
	}
	if customer.DOB != nil {
		row["DOB"] = customer.DOB.Format("2006-01-02")
	}
	return row
}
