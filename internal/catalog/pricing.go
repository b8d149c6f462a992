package catalog

import (
	"fmt"
	"time"

	"github.com/pureclarity/feedsync/internal/entities"
)

// PriceRange is a product's min/max list and final (sale) price. Simple
// products collapse to a single point; composite types span their children.
type PriceRange struct {
	ListMin  float64
	ListMax  float64
	FinalMin float64
	FinalMax float64
}

// OnSale reports whether any final price undercuts its list price.
func (p PriceRange) OnSale() bool {
	return p.FinalMin < p.ListMin || p.FinalMax < p.ListMax
}

// Pricer computes feed prices per product type: simple products apply the
// active catalog rule, grouped and configurable products aggregate enabled
// children, bundles sum their selections.
type Pricer struct {
	catalog *Catalog
}

func NewPricer(catalog *Catalog) *Pricer {
	return &Pricer{catalog: catalog}
}

// ProductPrices resolves the price range for any product type.
func (p *Pricer) ProductPrices(product *entities.Product, now time.Time) (PriceRange, error) {
	switch product.TypeID {
	case entities.ProductTypeSimple, entities.ProductTypeVirtual:
		return p.simplePrices(product, now)
	case entities.ProductTypeGrouped, entities.ProductTypeConfigurable:
		return p.childAggregatePrices(product, now)
	case entities.ProductTypeBundle:
		return p.bundlePrices(product, now)
	default:
		return PriceRange{}, fmt.Errorf("unknown product type %q for product %d", product.TypeID, product.ID)
	}
}

// simplePrices: list price is the base price; the final price is the special
// price when set, otherwise the base price with the active catalog rule
// applied.
func (p *Pricer) simplePrices(product *entities.Product, now time.Time) (PriceRange, error) {
	list := product.Price
	final := list

	if product.SpecialPrice != nil && *product.SpecialPrice < final {
		final = *product.SpecialPrice
	} else {
		rule, err := p.catalog.ActiveRuleFor(product.ID, now)
		if err != nil {
			return PriceRange{}, fmt.Errorf("failed to load price rule for product %d: %w", product.ID, err)
		}
		if rule != nil {
			final = applyRule(list, rule)
		}
	}

	if final < 0 {
		final = 0
	}
	return PriceRange{ListMin: list, ListMax: list, FinalMin: final, FinalMax: final}, nil
}

// childAggregatePrices: grouped and configurable products take the min/max of
// their enabled children's simple prices. Disabled children are ignored; a
// composite with no enabled children is a data error.
func (p *Pricer) childAggregatePrices(product *entities.Product, now time.Time) (PriceRange, error) {
	children, err := p.catalog.ChildProducts(product.ID)
	if err != nil {
		return PriceRange{}, fmt.Errorf("failed to load children of product %d: %w", product.ID, err)
	}

	var result PriceRange
	found := false
	for i := range children {
		if !children[i].Enabled {
			continue
		}
		childRange, err := p.simplePrices(&children[i], now)
		if err != nil {
			return PriceRange{}, err
		}
		if !found {
			result = childRange
			found = true
			continue
		}
		if childRange.ListMin < result.ListMin {
			result.ListMin = childRange.ListMin
		}
		if childRange.ListMax > result.ListMax {
			result.ListMax = childRange.ListMax
		}
		if childRange.FinalMin < result.FinalMin {
			result.FinalMin = childRange.FinalMin
		}
		if childRange.FinalMax > result.FinalMax {
			result.FinalMax = childRange.FinalMax
		}
	}
	if !found {
		return PriceRange{}, fmt.Errorf("product %d has no enabled children to price", product.ID)
	}
	return result, nil
}

// bundlePrices: the minimum is the sum of required selections, the maximum
// the sum of all selections, each at the selected product's final price.
func (p *Pricer) bundlePrices(product *entities.Product, now time.Time) (PriceRange, error) {
	selections, err := p.catalog.BundleSelections(product.ID)
	if err != nil {
		return PriceRange{}, fmt.Errorf("failed to load bundle selections for product %d: %w", product.ID, err)
	}
	if len(selections) == 0 {
		return PriceRange{}, fmt.Errorf("bundle product %d has no selections", product.ID)
	}

	var result PriceRange
	for _, selection := range selections {
		child, err := p.catalog.GetProduct(selection.ProductID)
		if err != nil {
			return PriceRange{}, fmt.Errorf("failed to load bundle selection product %d: %w", selection.ProductID, err)
		}
		childRange, err := p.simplePrices(child, now)
		if err != nil {
			return PriceRange{}, err
		}

		listTotal := childRange.ListMax * selection.Qty
		finalTotal := childRange.FinalMax * selection.Qty

		result.ListMax += listTotal
		result.FinalMax += finalTotal
		if selection.Required {
			result.ListMin += listTotal
			result.FinalMin += finalTotal
		}
	}
	return result, nil
}

func applyRule(price float64, rule *entities.CatalogRule) float64 {
	switch rule.SimpleAction {
	case entities.RuleActionByPercent:
		return price * (1 - rule.DiscountAmount/100)
	case entities.RuleActionByFixed:
		return price - rule.DiscountAmount
	default:
		return price
	}
}
