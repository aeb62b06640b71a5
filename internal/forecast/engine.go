package forecast

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"time"

	"smartshelfx/backend/internal/cache"
	"smartshelfx/backend/internal/domain"
)

const historyPoints = 6

type Engine struct {
	cache    cache.ForecastCache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewEngine(cacheStore cache.ForecastCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopForecastCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}

	return &Engine{
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Forecast produces one ranked item per catalog product. An empty catalog
// yields a fixed set of illustrative sample items so dashboards always have
// something to render.
func (e *Engine) Forecast(
	ctx context.Context,
	products []domain.Product,
	aggregates map[int64]domain.DemandAggregate,
) []domain.ForecastItem {
	cacheKey := buildCacheKey(products)
	if cached, ok, err := e.cache.Get(ctx, cacheKey); err == nil && ok {
		return cached
	}

	items := e.compute(products, aggregates)

	// best effort, a miss just recomputes
	_ = e.cache.Set(ctx, cacheKey, items, e.cacheTTL)
	return items
}

func (e *Engine) compute(products []domain.Product, aggregates map[int64]domain.DemandAggregate) []domain.ForecastItem {
	if len(products) == 0 {
		return e.fallbackItems()
	}

	maxQuantity := 0.0
	for _, agg := range aggregates {
		if q := float64(agg.TotalQuantity); q > 0 && q > maxQuantity {
			maxQuantity = q
		}
	}

	baseWeekStart := previousOrSameMondayUTC(e.now())

	items := make([]domain.ForecastItem, 0, len(products))
	for _, product := range products {
		agg, hasAgg := aggregates[product.ID]
		totalSold := 0.0
		if hasAgg {
			totalSold = float64(agg.TotalQuantity)
		}

		relativeDemand := 0.0
		if maxQuantity > 0 && totalSold > 0 {
			relativeDemand = totalSold / maxQuantity
		}

		weeklyRunRate := computeWeeklyRunRate(agg, hasAgg, totalSold)
		baseline := weeklyRunRate
		if baseline <= 0 {
			baseline = math.Max(1, float64(product.ReorderLevel)/2)
		}
		forecast := math.Max(1, baseline*(1+0.75*relativeDemand))
		forecast = math.Round(forecast*10) / 10

		roundedForecast := int(math.Ceil(forecast))
		currentStock := product.CurrentStock
		shortfall := roundedForecast - currentStock
		if shortfall < 0 {
			shortfall = 0
		}
		atRisk := shortfall > 0 || (currentStock-roundedForecast) <= product.ReorderLevel

		recommendedReorder := 0
		var action string
		switch {
		case shortfall > 0:
			recommendedReorder = shortfall
			if relativeDemand >= 0.7 {
				action = fmt.Sprintf("High demand - reorder %d units", shortfall)
			} else {
				action = fmt.Sprintf("Reorder %d units", shortfall)
			}
		case !hasAgg || totalSold == 0:
			action = "No sales yet"
		case (currentStock - roundedForecast) <= product.ReorderLevel:
			recommendedReorder = product.ReorderLevel + roundedForecast - currentStock
			if recommendedReorder < 0 {
				recommendedReorder = 0
			}
			if relativeDemand >= 0.7 {
				action = "Top seller - keep buffer"
			} else {
				action = "Top up safety stock"
			}
		case relativeDemand >= 0.8:
			action = "Top demand product - monitor closely"
		case relativeDemand >= 0.5:
			action = "Healthy demand"
		default:
			action = "Sufficient"
		}

		items = append(items, domain.ForecastItem{
			ProductID:          product.ID,
			ProductName:        product.Name,
			SKU:                product.SKU,
			CurrentStock:       currentStock,
			ReorderLevel:       product.ReorderLevel,
			TotalSold:          int(totalSold),
			WeeklyRunRate:      weeklyRunRate,
			Forecast:           forecast,
			AtRisk:             atRisk,
			RecommendedReorder: recommendedReorder,
			RelativeDemand:     relativeDemand,
			Action:             action,
			History:            buildHistory(baseWeekStart, baseline, relativeDemand),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].TotalSold != items[j].TotalSold {
			return items[i].TotalSold > items[j].TotalSold
		}
		if items[i].Forecast != items[j].Forecast {
			return items[i].Forecast > items[j].Forecast
		}
		return items[i].ProductName < items[j].ProductName
	})

	return items
}

func computeWeeklyRunRate(agg domain.DemandAggregate, hasAgg bool, totalSold float64) float64 {
	if !hasAgg || totalSold <= 0 {
		return 0
	}
	if agg.Earliest == nil || agg.Latest == nil {
		return totalSold
	}
	days := wholeDaysBetween(*agg.Earliest, *agg.Latest) + 1
	if days < 1 {
		days = 1
	}
	weeks := math.Max(1, float64(days)/7)
	return totalSold / weeks
}

func wholeDaysBetween(start, end time.Time) int64 {
	return int64(end.Sub(start).Hours() / 24)
}

// buildHistory synthesizes a trailing weekly series so the UI can draw a
// trend line even without stored weekly snapshots. Deterministic for a given
// baseline and relative demand.
func buildHistory(baseWeekStart time.Time, baseline, relativeDemand float64) []domain.ForecastPoint {
	history := make([]domain.ForecastPoint, 0, historyPoints)
	for offset := historyPoints; offset >= 1; offset-- {
		weekStart := baseWeekStart.AddDate(0, 0, -7*offset)
		progress := float64(historyPoints-offset) / float64(historyPoints)
		trend := baseline * relativeDemand * 0.6 * progress
		seasonal := math.Sin(float64(offset)) * baseline * 0.12
		value := math.Max(1, baseline+trend+seasonal)
		history = append(history, domain.ForecastPoint{
			WeekStart: weekStart,
			Value:     math.Round(value),
		})
	}
	return history
}

func previousOrSameMondayUTC(now time.Time) time.Time {
	now = now.UTC()
	day := now.Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func (e *Engine) fallbackItems() []domain.ForecastItem {
	baseWeekStart := previousOrSameMondayUTC(e.now())

	type sample struct {
		id             int64
		name           string
		sku            string
		stock          int
		reorder        int
		forecast       float64
		atRisk         bool
		suggestion     int
		relativeDemand float64
	}

	templates := []sample{
		{-1, "Alpha Widgets", "SKU-ALPHA", 42, 15, 32.5, false, 0, 0.9},
		{-2, "Beta Casing", "SKU-BETA", 8, 12, 18.0, true, 10, 0.7},
		{-3, "Gamma Sensors", "SKU-GAMMA", 5, 8, 12.0, true, 8, 0.5},
	}

	items := make([]domain.ForecastItem, 0, len(templates))
	for _, t := range templates {
		baseline := math.Max(6, t.forecast*0.6)
		action := "Sufficient"
		if t.atRisk {
			action = fmt.Sprintf("High demand - reorder %d units", t.suggestion)
		}
		items = append(items, domain.ForecastItem{
			ProductID:          t.id,
			ProductName:        t.name,
			SKU:                t.sku,
			CurrentStock:       t.stock,
			ReorderLevel:       t.reorder,
			Forecast:           t.forecast,
			AtRisk:             t.atRisk,
			RecommendedReorder: t.suggestion,
			RelativeDemand:     t.relativeDemand,
			Action:             action,
			History:            buildHistory(baseWeekStart, baseline, t.relativeDemand),
		})
	}
	return items
}

// buildCacheKey fingerprints the catalog by its sorted product ids, so a
// product swap invalidates the cached forecast even when the count is stable.
func buildCacheKey(products []domain.Product) string {
	if len(products) == 0 {
		return "forecast:empty"
	}

	ids := make([]int64, 0, len(products))
	scope := products[0].WarehouseID
	sameScope := true
	for _, p := range products {
		ids = append(ids, p.ID)
		if p.WarehouseID != scope {
			sameScope = false
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	digest := fnv.New64a()
	for _, id := range ids {
		fmt.Fprintf(digest, "%d,", id)
	}

	if sameScope {
		return fmt.Sprintf("forecast:wh:%d:%x", scope, digest.Sum64())
	}
	return fmt.Sprintf("forecast:all:%x", digest.Sum64())
}
