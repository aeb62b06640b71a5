package restock

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"smartshelfx/backend/internal/domain"
)

var (
	forecastWindowDays = decimal.NewFromInt(30)
	minimumDailyDemand = decimal.NewFromFloat(0.1)
	stockoutThreshold  = decimal.NewFromInt(7)
	farFutureStockout  = decimal.NewFromInt(90)
)

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Recommend evaluates already scope-filtered catalog candidates and returns
// restock suggestions ordered by urgency. Products whose suggested quantity
// would be zero are omitted.
func (e *Engine) Recommend(
	products []domain.Product,
	warehouses map[int64]domain.Warehouse,
	aggregates map[int64]domain.DemandAggregate,
	filter domain.RestockFilter,
) []domain.RestockRecommendation {
	recommendations := make([]domain.RestockRecommendation, 0)

	for _, product := range products {
		if !matchesFilter(product, filter) {
			continue
		}

		agg, hasAgg := aggregates[product.ID]
		dailyDemand := averageDailyDemand(agg, hasAgg)
		daysUntilStockout := daysUntilStockout(product.CurrentStock, dailyDemand)
		suggested := suggestedQuantity(product, dailyDemand)
		if suggested <= 0 {
			continue
		}

		belowReorder := product.CurrentStock <= product.ReorderLevel
		nearStockout := daysUntilStockout.Cmp(stockoutThreshold) <= 0
		autoRestock := product.AutoRestockEnabled

		if !belowReorder && !nearStockout && !autoRestock {
			continue
		}

		warehouseName := ""
		if wh, ok := warehouses[product.WarehouseID]; ok {
			warehouseName = wh.Name
		}

		recommendations = append(recommendations, domain.RestockRecommendation{
			ProductID:         product.ID,
			ProductName:       product.Name,
			SKU:               product.SKU,
			Category:          product.Category,
			Vendor:            product.Vendor,
			Price:             product.Price,
			WarehouseID:       product.WarehouseID,
			WarehouseName:     warehouseName,
			CurrentStock:      product.CurrentStock,
			ReorderLevel:      product.ReorderLevel,
			MaxStockLevel:     ResolveMaxStockLevel(product),
			DailyDemand:       dailyDemand.InexactFloat64(),
			DaysUntilStockout: daysUntilStockout.InexactFloat64(),
			SuggestedQuantity: suggested,
			AutoRestock:       autoRestock,
			Reason:            buildReason(belowReorder, nearStockout, autoRestock),
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].DaysUntilStockout != recommendations[j].DaysUntilStockout {
			return recommendations[i].DaysUntilStockout < recommendations[j].DaysUntilStockout
		}
		return recommendations[i].SuggestedQuantity > recommendations[j].SuggestedQuantity
	})

	return recommendations
}

func matchesFilter(product domain.Product, filter domain.RestockFilter) bool {
	if filter.WarehouseID != nil && product.WarehouseID != *filter.WarehouseID {
		return false
	}
	if filter.Category != "" && !strings.EqualFold(product.Category, filter.Category) {
		return false
	}
	if filter.AutoRestockOnly && !product.AutoRestockEnabled {
		return false
	}
	switch filter.StockStatus {
	case "":
	case domain.StockStatusOut:
		if product.CurrentStock != 0 {
			return false
		}
	case domain.StockStatusLow:
		if product.CurrentStock <= 0 || product.CurrentStock > product.ReorderLevel {
			return false
		}
	case domain.StockStatusIn:
		if product.CurrentStock <= product.ReorderLevel {
			return false
		}
	default:
		return false
	}
	return true
}

func averageDailyDemand(agg domain.DemandAggregate, hasAgg bool) decimal.Decimal {
	if !hasAgg || agg.TotalQuantity <= 0 {
		return minimumDailyDemand
	}
	if agg.Earliest == nil || agg.Latest == nil {
		return minimumDailyDemand
	}
	days := int64(agg.Latest.Sub(*agg.Earliest).Hours() / 24)
	if days < 1 {
		days = 1
	}
	span := decimal.NewFromInt(days)
	if span.Cmp(forecastWindowDays) < 0 {
		span = forecastWindowDays
	}
	average := decimal.NewFromInt(int64(agg.TotalQuantity)).DivRound(span, 4)
	if average.Cmp(minimumDailyDemand) < 0 {
		return minimumDailyDemand
	}
	return average
}

func daysUntilStockout(currentStock int, dailyDemand decimal.Decimal) decimal.Decimal {
	if currentStock <= 0 {
		return decimal.Zero
	}
	if dailyDemand.Cmp(minimumDailyDemand) <= 0 {
		return farFutureStockout
	}
	return decimal.NewFromInt(int64(currentStock)).DivRound(dailyDemand, 2)
}

func suggestedQuantity(product domain.Product, dailyDemand decimal.Decimal) int {
	targetLevel := ResolveMaxStockLevel(product)
	demandCover := int(dailyDemand.Mul(decimal.NewFromInt(14)).Ceil().IntPart())
	baselineTarget := product.ReorderLevel + demandCover
	if targetLevel > baselineTarget {
		baselineTarget = targetLevel
	}
	suggested := baselineTarget - product.CurrentStock
	if suggested < 0 {
		return 0
	}
	return suggested
}

// ResolveMaxStockLevel falls back to a heuristic ceiling when the product has
// no explicit max stock level configured.
func ResolveMaxStockLevel(product domain.Product) int {
	if product.MaxStockLevel > 0 {
		return product.MaxStockLevel
	}
	if product.ReorderLevel > 0 {
		return product.ReorderLevel * 2
	}
	return 50
}

func buildReason(belowReorder, nearStockout, autoRestock bool) string {
	reasons := make([]string, 0, 3)
	if belowReorder {
		reasons = append(reasons, "Below reorder level")
	}
	if nearStockout {
		reasons = append(reasons, "Projected stockout within a week")
	}
	if autoRestock {
		reasons = append(reasons, "Auto-restock enabled")
	}
	return strings.Join(reasons, ", ")
}
