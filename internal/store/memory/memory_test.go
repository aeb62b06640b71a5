package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartshelfx/backend/internal/domain"
	"smartshelfx/backend/internal/store"
)

func newWarehouse(t *testing.T, s *Store, name, code string) domain.Warehouse {
	t.Helper()
	wh, err := s.CreateWarehouse(context.Background(), domain.Warehouse{Name: name, LocationCode: code, Active: true})
	if err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	return *wh
}

func newProduct(t *testing.T, s *Store, product domain.Product) domain.Product {
	t.Helper()
	created, err := s.CreateProduct(context.Background(), product)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return *created
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	s := New()
	wh := newWarehouse(t, s, "Central Fulfillment", "WH-CENTRAL")

	newProduct(t, s, domain.Product{SKU: "SKU-DRILL-01", Name: "Drill", Price: 89.90, WarehouseID: wh.ID})

	_, err := s.CreateProduct(context.Background(), domain.Product{SKU: "sku-drill-01", Name: "Other Drill", Price: 10, WarehouseID: wh.ID})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for duplicate sku, got %v", err)
	}
}

func TestCreateProductRejectsUnknownWarehouse(t *testing.T) {
	s := New()
	_, err := s.CreateProduct(context.Background(), domain.Product{SKU: "SKU-X", Name: "X", Price: 1, WarehouseID: 99})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateWarehouseRejectsDuplicates(t *testing.T) {
	s := New()
	newWarehouse(t, s, "Central Fulfillment", "WH-CENTRAL")

	if _, err := s.CreateWarehouse(context.Background(), domain.Warehouse{Name: "central fulfillment", LocationCode: "WH-OTHER"}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for duplicate name, got %v", err)
	}
	if _, err := s.CreateWarehouse(context.Background(), domain.Warehouse{Name: "Something Else", LocationCode: "WH-CENTRAL"}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for duplicate code, got %v", err)
	}
}

func TestCreatePurchaseDecrementsStock(t *testing.T) {
	s := New()
	wh := newWarehouse(t, s, "Central Fulfillment", "WH-CENTRAL")
	product := newProduct(t, s, domain.Product{SKU: "SKU-GLOVE-01", Name: "Gloves", Price: 4.50, CurrentStock: 10, WarehouseID: wh.ID})

	created, err := s.CreatePurchase(context.Background(), domain.Purchase{UserID: 1, ProductID: product.ID, WarehouseID: wh.ID, Quantity: 3, UnitPrice: 4.50, TotalPrice: 13.50})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	updated, err := s.GetProductByID(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if updated.CurrentStock != 7 {
		t.Fatalf("expected stock 7, got %d", updated.CurrentStock)
	}
}

func TestCreatePurchaseRejectsOversell(t *testing.T) {
	s := New()
	wh := newWarehouse(t, s, "Central Fulfillment", "WH-CENTRAL")
	product := newProduct(t, s, domain.Product{SKU: "SKU-LADDER-01", Name: "Ladder", Price: 74, CurrentStock: 2, WarehouseID: wh.ID})

	_, err := s.CreatePurchase(context.Background(), domain.Purchase{UserID: 1, ProductID: product.ID, WarehouseID: wh.ID, Quantity: 3})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	unchanged, err := s.GetProductByID(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if unchanged.CurrentStock != 2 {
		t.Fatalf("stock must not change on rejected purchase, got %d", unchanged.CurrentStock)
	}
}

func TestCreatePurchaseOrderRejectsDuplicateReference(t *testing.T) {
	s := New()
	wh := newWarehouse(t, s, "Central Fulfillment", "WH-CENTRAL")

	base := domain.PurchaseOrder{Reference: "PO-ABCD1234", Status: domain.POStatusPendingVendor, VendorName: "Makro", WarehouseID: wh.ID, SubmittedAt: time.Now().UTC()}
	if _, err := s.CreatePurchaseOrder(context.Background(), base); err != nil {
		t.Fatalf("create purchase order: %v", err)
	}

	dup := base
	dup.Reference = "po-abcd1234"
	if _, err := s.CreatePurchaseOrder(context.Background(), dup); !errors.Is(err, store.ErrDuplicateReference) {
		t.Fatalf("expected duplicate reference error, got %v", err)
	}

	exists, err := s.ReferenceExists(context.Background(), "po-ABCD1234")
	if err != nil || !exists {
		t.Fatalf("expected reference lookup to be case insensitive, got %v %v", exists, err)
	}
}

func TestAggregateSalesDemandBetweenWindowIsHalfOpen(t *testing.T) {
	s := New()
	wh := newWarehouse(t, s, "Central Fulfillment", "WH-CENTRAL")
	product := newProduct(t, s, domain.Product{SKU: "SKU-TAPE-01", Name: "Tape", Price: 6.20, CurrentStock: 100, WarehouseID: wh.ID})

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		start.Add(-time.Second), // before window
		start,                   // included
		end.Add(-time.Second),   // included
		end,                     // excluded, boundary is exclusive
	}
	for _, at := range times {
		if _, err := s.CreatePurchase(context.Background(), domain.Purchase{UserID: 1, ProductID: product.ID, WarehouseID: wh.ID, Quantity: 2, TotalPrice: 12.40, PurchasedAt: at}); err != nil {
			t.Fatalf("create purchase: %v", err)
		}
	}

	aggregates, err := s.AggregateSalesDemandBetween(context.Background(), start, end, nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	agg, ok := aggregates[product.ID]
	if !ok {
		t.Fatalf("expected aggregate for product %d", product.ID)
	}
	if agg.TotalQuantity != 4 {
		t.Fatalf("expected quantity 4 inside window, got %d", agg.TotalQuantity)
	}
	if !agg.Earliest.Equal(start) {
		t.Fatalf("expected earliest %v, got %v", start, agg.Earliest)
	}
	if !agg.Latest.Equal(end.Add(-time.Second)) {
		t.Fatalf("expected latest %v, got %v", end.Add(-time.Second), agg.Latest)
	}
}

func TestAggregateSalesDemandScopesWarehouse(t *testing.T) {
	s := New()
	central := newWarehouse(t, s, "Central Fulfillment", "WH-CENTRAL")
	north := newWarehouse(t, s, "North Depot", "WH-NORTH")
	p1 := newProduct(t, s, domain.Product{SKU: "SKU-A", Name: "A", Price: 1, CurrentStock: 10, WarehouseID: central.ID})
	p2 := newProduct(t, s, domain.Product{SKU: "SKU-B", Name: "B", Price: 1, CurrentStock: 10, WarehouseID: north.ID})

	for _, p := range []domain.Product{p1, p2} {
		if _, err := s.CreatePurchase(context.Background(), domain.Purchase{UserID: 1, ProductID: p.ID, WarehouseID: p.WarehouseID, Quantity: 1}); err != nil {
			t.Fatalf("create purchase: %v", err)
		}
	}

	aggregates, err := s.AggregateSalesDemand(context.Background(), &central.ID)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(aggregates) != 1 {
		t.Fatalf("expected one product in scoped aggregate, got %d", len(aggregates))
	}
	if _, ok := aggregates[p1.ID]; !ok {
		t.Fatalf("expected aggregate for central product only")
	}
}

func TestSalesSummaryBreakdownOnlyWhenUnscoped(t *testing.T) {
	s := New()
	central := newWarehouse(t, s, "Central Fulfillment", "WH-CENTRAL")
	north := newWarehouse(t, s, "North Depot", "WH-NORTH")
	p1 := newProduct(t, s, domain.Product{SKU: "SKU-A", Name: "A", Price: 5, CurrentStock: 10, WarehouseID: central.ID})
	p2 := newProduct(t, s, domain.Product{SKU: "SKU-B", Name: "B", Price: 5, CurrentStock: 10, WarehouseID: north.ID})

	purchases := []domain.Purchase{
		{UserID: 1, ProductID: p1.ID, WarehouseID: central.ID, WarehouseName: central.Name, Quantity: 2, TotalPrice: 10},
		{UserID: 1, ProductID: p2.ID, WarehouseID: north.ID, WarehouseName: north.Name, Quantity: 1, TotalPrice: 5},
	}
	for _, purchase := range purchases {
		if _, err := s.CreatePurchase(context.Background(), purchase); err != nil {
			t.Fatalf("create purchase: %v", err)
		}
	}

	all, err := s.SalesSummary(context.Background(), nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if all.Orders != 2 || all.Items != 3 || all.Revenue != 15 {
		t.Fatalf("unexpected totals: %+v", all)
	}
	if len(all.Warehouses) != 2 {
		t.Fatalf("expected breakdown for 2 warehouses, got %d", len(all.Warehouses))
	}
	if all.Warehouses[0].WarehouseName != "Central Fulfillment" {
		t.Fatalf("expected breakdown sorted by name, got %s first", all.Warehouses[0].WarehouseName)
	}

	scoped, err := s.SalesSummary(context.Background(), &north.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if scoped.Orders != 1 || scoped.Items != 1 || scoped.Revenue != 5 {
		t.Fatalf("unexpected scoped totals: %+v", scoped)
	}
	if len(scoped.Warehouses) != 0 {
		t.Fatalf("scoped summary must not carry a per-warehouse breakdown")
	}
}

func TestListProductsFilters(t *testing.T) {
	s := New()
	wh := newWarehouse(t, s, "Central Fulfillment", "WH-CENTRAL")
	newProduct(t, s, domain.Product{SKU: "SKU-DRILL-01", Name: "Drill", Category: "Tools", Vendor: "Makro", Price: 89.90, CurrentStock: 0, ReorderLevel: 12, WarehouseID: wh.ID})
	newProduct(t, s, domain.Product{SKU: "SKU-GLOVE-01", Name: "Gloves", Category: "Safety", Vendor: "Makro", Price: 4.50, CurrentStock: 210, ReorderLevel: 80, WarehouseID: wh.ID})
	newProduct(t, s, domain.Product{SKU: "SKU-HELMET-01", Name: "Helmet", Category: "Safety", Vendor: "Gear Co", Price: 12.75, CurrentStock: 18, ReorderLevel: 25, WarehouseID: wh.ID})

	byCategory, err := s.ListProducts(context.Background(), domain.ProductFilter{Category: "safety"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byCategory) != 2 {
		t.Fatalf("expected 2 safety products, got %d", len(byCategory))
	}

	outOfStock, err := s.ListProducts(context.Background(), domain.ProductFilter{StockStatus: domain.StockStatusOut})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(outOfStock) != 1 || outOfStock[0].SKU != "SKU-DRILL-01" {
		t.Fatalf("expected only the drill to be out of stock, got %+v", outOfStock)
	}

	lowStock, err := s.ListProducts(context.Background(), domain.ProductFilter{StockStatus: domain.StockStatusLow})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lowStock) != 1 || lowStock[0].SKU != "SKU-HELMET-01" {
		t.Fatalf("expected only the helmet to be low stock, got %+v", lowStock)
	}
}

func TestSeededStoreHasUsersAndCatalog(t *testing.T) {
	s := NewSeeded()

	admin, err := s.GetUserByEmail(context.Background(), "admin@smartshelfx.dev")
	if err != nil {
		t.Fatalf("seed admin missing: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}

	products, err := s.ListProducts(context.Background(), domain.ProductFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 6 {
		t.Fatalf("expected 6 seeded products, got %d", len(products))
	}

	warehouses, err := s.ListWarehouses(context.Background())
	if err != nil {
		t.Fatalf("list warehouses: %v", err)
	}
	if len(warehouses) != 2 {
		t.Fatalf("expected 2 seeded warehouses, got %d", len(warehouses))
	}
}

func TestUpsertUserAddressKeepsOneRowPerSlot(t *testing.T) {
	s := NewSeeded()
	user, err := s.GetUserByEmail(context.Background(), "user@smartshelfx.dev")
	if err != nil {
		t.Fatalf("seed shopper missing: %v", err)
	}

	first, err := s.UpsertUserAddress(context.Background(), domain.Address{
		UserID:     user.ID,
		Type:       domain.AddressTypeDelivery,
		Line1:      "12 Harbor Road",
		City:       "Rotterdam",
		State:      "South Holland",
		PostalCode: "3011",
		Country:    "Netherlands",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second, err := s.UpsertUserAddress(context.Background(), domain.Address{
		UserID:     user.ID,
		Type:       domain.AddressTypeDelivery,
		Line1:      "88 Dockside Avenue",
		City:       "Rotterdam",
		State:      "South Holland",
		PostalCode: "3013",
		Country:    "Netherlands",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected slot to be replaced in place, got ids %d and %d", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected created_at to be preserved")
	}

	stored, err := s.GetUserAddress(context.Background(), user.ID, domain.AddressTypeDelivery)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Line1 != "88 Dockside Avenue" {
		t.Fatalf("expected latest line1, got %q", stored.Line1)
	}
}

func TestUpsertUserAddressValidates(t *testing.T) {
	s := NewSeeded()
	user, err := s.GetUserByEmail(context.Background(), "user@smartshelfx.dev")
	if err != nil {
		t.Fatalf("seed shopper missing: %v", err)
	}

	_, err = s.UpsertUserAddress(context.Background(), domain.Address{
		UserID: user.ID,
		Type:   "SHIPPING",
		Line1:  "12 Harbor Road",
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}

	_, err = s.UpsertUserAddress(context.Background(), domain.Address{
		UserID:     99999,
		Type:       domain.AddressTypeBilling,
		Line1:      "12 Harbor Road",
		City:       "Rotterdam",
		State:      "South Holland",
		PostalCode: "3011",
		Country:    "Netherlands",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected missing user to be rejected, got %v", err)
	}
}
