package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"smartshelfx/backend/internal/cache"
	"smartshelfx/backend/internal/domain"
	"smartshelfx/backend/internal/forecast"
	"smartshelfx/backend/internal/notify"
	"smartshelfx/backend/internal/restock"
	"smartshelfx/backend/internal/store"
	"smartshelfx/backend/internal/store/memory"
)

type okEmailGateway struct{}

func (okEmailGateway) SendEmail(_ context.Context, _, _, _ string) error { return nil }

type failingSMSGateway struct{}

func (failingSMSGateway) SendSMS(_ context.Context, _, _ string) error {
	return errors.New("carrier timeout")
}

func newTestService(repo store.Repository, dispatcher *notify.Dispatcher) *Service {
	forecaster := forecast.NewEngine(cache.NoopForecastCache{}, 5*time.Second)
	recommender := restock.NewEngine()
	if dispatcher == nil {
		dispatcher = notify.NewDispatcher(okEmailGateway{}, nil)
	}
	return New(repo, forecaster, recommender, dispatcher)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{UserID: 1, Email: "admin@smartshelfx.dev", Role: domain.RoleAdmin})
}

func managerCtx(warehouseID int64) context.Context {
	return WithActor(context.Background(), domain.Actor{UserID: 2, Email: "manager@smartshelfx.dev", Role: domain.RoleManager, WarehouseID: &warehouseID})
}

func shopperCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{UserID: 3, Email: "user@smartshelfx.dev", Role: domain.RoleUser})
}

func seededProduct(t *testing.T, repo store.Repository, sku string) domain.Product {
	t.Helper()
	product, err := repo.GetProductBySKU(context.Background(), sku)
	if err != nil {
		t.Fatalf("seed product %s missing: %v", sku, err)
	}
	return *product
}

func TestManagerCannotAccessOtherWarehouse(t *testing.T) {
	seven := int64(7)
	nine := int64(9)

	_, err := resolveWarehouseScope(domain.Actor{Role: domain.RoleManager, WarehouseID: &seven}, &nine)
	if err == nil {
		t.Fatalf("expected scope mismatch to be rejected")
	}
	if !strings.Contains(err.Error(), "their own warehouse") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestManagerScopeDefaultsToOwnWarehouse(t *testing.T) {
	seven := int64(7)

	scope, err := resolveWarehouseScope(domain.Actor{Role: domain.RoleManager, WarehouseID: &seven}, nil)
	if err != nil {
		t.Fatalf("manager scope resolution failed: %v", err)
	}
	if scope == nil || *scope != seven {
		t.Fatalf("expected manager pinned to warehouse 7, got %v", scope)
	}
}

func TestRecommendationsRejectShopperRole(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), nil)

	_, err := svc.Recommendations(shopperCtx(), domain.RestockFilter{})
	if err == nil {
		t.Fatalf("expected shopper role to be rejected")
	}
	if !strings.Contains(err.Error(), "restricted to administrators and managers") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecommendationsForManagerAreScoped(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	central := seededProduct(t, repo, "SKU-DRILL-01").WarehouseID

	recs, err := svc.Recommendations(managerCtx(central), domain.RestockFilter{})
	if err != nil {
		t.Fatalf("recommendations failed: %v", err)
	}
	for _, rec := range recs {
		if rec.WarehouseID != central {
			t.Fatalf("expected only warehouse %d results, got %d", central, rec.WarehouseID)
		}
	}
}

func TestCreateProductRejectsMaxBelowReorder(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), nil)
	warehouseID := int64(1)

	_, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		SKU:           "SKU-NEW-01",
		Name:          "Angle Grinder",
		Price:         45.00,
		ReorderLevel:  20,
		MaxStockLevel: 10,
		WarehouseID:   &warehouseID,
	})
	if err == nil {
		t.Fatalf("expected max below reorder to be rejected")
	}
	if !strings.Contains(err.Error(), "Max stock level cannot be less than min stock level") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPurchaseDecrementsStock(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	product := seededProduct(t, repo, "SKU-GLOVE-01")

	purchase, err := svc.PurchaseProduct(shopperCtx(), domain.PurchaseRequest{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if purchase.TotalPrice != 13.50 {
		t.Fatalf("expected total 13.50, got %.2f", purchase.TotalPrice)
	}

	after := seededProduct(t, repo, "SKU-GLOVE-01")
	if after.CurrentStock != product.CurrentStock-3 {
		t.Fatalf("expected stock %d, got %d", product.CurrentStock-3, after.CurrentStock)
	}
}

func TestPurchaseRejectsOversell(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	product := seededProduct(t, repo, "SKU-LADDER-01")

	_, err := svc.PurchaseProduct(shopperCtx(), domain.PurchaseRequest{ProductID: product.ID, Quantity: product.CurrentStock + 1})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
}

func TestPurchaseRequiresShopperRole(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	product := seededProduct(t, repo, "SKU-GLOVE-01")

	_, err := svc.PurchaseProduct(adminCtx(), domain.PurchaseRequest{ProductID: product.ID, Quantity: 1})
	if err == nil {
		t.Fatalf("expected admin purchase to be rejected")
	}
}

func TestSalesOverviewScopesManager(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	other := int64(2)

	if _, err := svc.SalesOverview(managerCtx(1), &other); err == nil {
		t.Fatalf("expected cross-warehouse summary to be rejected")
	}
}

func TestCreatePurchaseOrderPricingRoundsHalfUp(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	product := seededProduct(t, repo, "SKU-DRILL-01")

	order, err := svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID: &product.WarehouseID,
		VendorName:  "Makro Supply",
		VendorEmail: "orders@makro.example",
		Items: []domain.PurchaseOrderItemRequest{
			{ProductID: product.ID, Quantity: 3, UnitPrice: 9.995},
		},
	})
	if err != nil {
		t.Fatalf("create purchase order failed: %v", err)
	}

	if len(order.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(order.Items))
	}
	if order.Items[0].UnitPrice != 10.00 {
		t.Fatalf("expected unit price 10.00, got %.4f", order.Items[0].UnitPrice)
	}
	if order.Items[0].LineTotal != 30.00 {
		t.Fatalf("expected line total 30.00, got %.4f", order.Items[0].LineTotal)
	}
	if order.Subtotal != 30.00 || order.Total != 30.00 {
		t.Fatalf("expected subtotal and total 30.00, got %.2f / %.2f", order.Subtotal, order.Total)
	}
	if order.Tax != 0 || order.Shipping != 0 {
		t.Fatalf("expected zero tax and shipping")
	}

	refPattern := regexp.MustCompile(`^PO-[0-9A-F]{8}$`)
	if !refPattern.MatchString(order.Reference) {
		t.Fatalf("unexpected reference format: %s", order.Reference)
	}
}

func TestCreatePurchaseOrderDispatchSuccess(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, notify.NewDispatcher(okEmailGateway{}, nil))
	product := seededProduct(t, repo, "SKU-DRILL-01")

	order, err := svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID: &product.WarehouseID,
		VendorName:  "Makro Supply",
		VendorEmail: "orders@makro.example",
		SendEmail:   true,
		Items: []domain.PurchaseOrderItemRequest{
			{ProductID: product.ID, Quantity: 2, UnitPrice: 80.00},
		},
	})
	if err != nil {
		t.Fatalf("create purchase order failed: %v", err)
	}
	if order.Status != domain.POStatusSentToVendor {
		t.Fatalf("expected status %s, got %s", domain.POStatusSentToVendor, order.Status)
	}
}

func TestCreatePurchaseOrderRecordsDispatchFailure(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, notify.NewDispatcher(nil, nil))
	product := seededProduct(t, repo, "SKU-DRILL-01")

	order, err := svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID: &product.WarehouseID,
		VendorName:  "Makro Supply",
		VendorEmail: "orders@makro.example",
		SendEmail:   true,
		Items: []domain.PurchaseOrderItemRequest{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 89.90},
		},
	})
	if err != nil {
		t.Fatalf("create purchase order failed: %v", err)
	}
	if order.Status != domain.POStatusNotificationFailed {
		t.Fatalf("expected status %s, got %s", domain.POStatusNotificationFailed, order.Status)
	}
	if !strings.Contains(order.Notes, "Notification failed: Email gateway not configured") {
		t.Fatalf("expected failure note, got %q", order.Notes)
	}
}

func TestCreatePurchaseOrderFailureWinsOverPartialSuccess(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, notify.NewDispatcher(okEmailGateway{}, failingSMSGateway{}))
	product := seededProduct(t, repo, "SKU-DRILL-01")

	order, err := svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID:             &product.WarehouseID,
		VendorName:              "Makro Supply",
		VendorEmail:             "orders@makro.example",
		VendorPhone:             "+6281100223344",
		VendorContactPreference: domain.ContactPreferenceBoth,
		SendEmail:               true,
		SendSMS:                 true,
		Items: []domain.PurchaseOrderItemRequest{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 89.90},
		},
	})
	if err != nil {
		t.Fatalf("create purchase order failed: %v", err)
	}
	if order.Status != domain.POStatusNotificationFailed {
		t.Fatalf("expected failed status when any channel fails, got %s", order.Status)
	}
	if !strings.Contains(order.Notes, "SMS dispatch failed") {
		t.Fatalf("expected sms failure note, got %q", order.Notes)
	}
}

func TestCreatePurchaseOrderRejectsEmptyItems(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	product := seededProduct(t, repo, "SKU-DRILL-01")

	_, err := svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID: &product.WarehouseID,
		VendorName:  "Makro Supply",
		VendorEmail: "orders@makro.example",
		Items:       []domain.PurchaseOrderItemRequest{},
	})
	if err == nil {
		t.Fatalf("expected empty items to be rejected")
	}
	if !strings.Contains(err.Error(), "at least one item is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreatePurchaseOrderSumsMultipleLines(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	drill := seededProduct(t, repo, "SKU-DRILL-01")
	tape := seededProduct(t, repo, "SKU-TAPE-01")

	order, err := svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID: &drill.WarehouseID,
		VendorName:  "Makro Supply",
		VendorEmail: "orders@makro.example",
		Items: []domain.PurchaseOrderItemRequest{
			{ProductID: drill.ID, Quantity: 3, UnitPrice: 9.995},
			{ProductID: tape.ID, Quantity: 2, UnitPrice: 2.675},
		},
	})
	if err != nil {
		t.Fatalf("create purchase order failed: %v", err)
	}

	if len(order.Items) != 2 {
		t.Fatalf("expected two items, got %d", len(order.Items))
	}
	if order.Items[0].UnitPrice != 10.00 || order.Items[0].LineTotal != 30.00 {
		t.Fatalf("unexpected first line: %.4f / %.4f", order.Items[0].UnitPrice, order.Items[0].LineTotal)
	}
	if order.Items[1].UnitPrice != 2.68 || order.Items[1].LineTotal != 5.36 {
		t.Fatalf("unexpected second line: %.4f / %.4f", order.Items[1].UnitPrice, order.Items[1].LineTotal)
	}
	if order.Subtotal != 35.36 || order.Total != 35.36 {
		t.Fatalf("expected subtotal and total 35.36, got %.2f / %.2f", order.Subtotal, order.Total)
	}
}

func TestCreatePurchaseOrderWithoutChannelsStaysPending(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, notify.NewDispatcher(nil, nil))
	product := seededProduct(t, repo, "SKU-DRILL-01")

	order, err := svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID: &product.WarehouseID,
		VendorName:  "Makro Supply",
		Items: []domain.PurchaseOrderItemRequest{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 89.90},
		},
	})
	if err != nil {
		t.Fatalf("create purchase order failed: %v", err)
	}
	if order.Status != domain.POStatusPendingVendor {
		t.Fatalf("expected status %s when no channel requested, got %s", domain.POStatusPendingVendor, order.Status)
	}
	if order.Notes != "" {
		t.Fatalf("expected no notes, got %q", order.Notes)
	}
}

func TestCreatePurchaseOrderRetriesReferenceCollision(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	product := seededProduct(t, repo, "SKU-DRILL-01")

	_, err := repo.CreatePurchaseOrder(context.Background(), domain.PurchaseOrder{
		Reference:   "PO-AAAAAAAA",
		Status:      domain.POStatusPendingVendor,
		VendorName:  "Makro Supply",
		WarehouseID: product.WarehouseID,
		Items: []domain.PurchaseOrderItem{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 89.90, LineTotal: 89.90},
		},
	})
	if err != nil {
		t.Fatalf("seed purchase order failed: %v", err)
	}

	calls := 0
	svc.newReference = func() string {
		calls++
		if calls == 1 {
			return "PO-AAAAAAAA"
		}
		return "PO-BBBBBBBB"
	}

	order, err := svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID: &product.WarehouseID,
		VendorName:  "Makro Supply",
		Items: []domain.PurchaseOrderItemRequest{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 89.90},
		},
	})
	if err != nil {
		t.Fatalf("create purchase order failed: %v", err)
	}
	if order.Reference != "PO-BBBBBBBB" {
		t.Fatalf("expected retried reference PO-BBBBBBBB, got %s", order.Reference)
	}
	if calls != 2 {
		t.Fatalf("expected 2 generator calls, got %d", calls)
	}
}

func TestCreatePurchaseOrderFailsWhenReferencesExhausted(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	product := seededProduct(t, repo, "SKU-DRILL-01")

	_, err := repo.CreatePurchaseOrder(context.Background(), domain.PurchaseOrder{
		Reference:   "PO-AAAAAAAA",
		Status:      domain.POStatusPendingVendor,
		VendorName:  "Makro Supply",
		WarehouseID: product.WarehouseID,
		Items: []domain.PurchaseOrderItem{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 89.90, LineTotal: 89.90},
		},
	})
	if err != nil {
		t.Fatalf("seed purchase order failed: %v", err)
	}

	svc.newReference = func() string { return "PO-AAAAAAAA" }

	_, err = svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID: &product.WarehouseID,
		VendorName:  "Makro Supply",
		Items: []domain.PurchaseOrderItemRequest{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 89.90},
		},
	})
	if err == nil {
		t.Fatalf("expected reference generation to fail")
	}
	if !strings.Contains(err.Error(), "could not generate a unique order reference") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreatePurchaseOrderRejectsCrossWarehouseItem(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	central := seededProduct(t, repo, "SKU-DRILL-01")
	north := seededProduct(t, repo, "SKU-PAINT-01")

	_, err := svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID: &central.WarehouseID,
		VendorName:  "ColorWorks",
		VendorEmail: "orders@colorworks.example",
		Items: []domain.PurchaseOrderItemRequest{
			{ProductID: north.ID, Quantity: 5, UnitPrice: 20.00},
		},
	})
	if err == nil {
		t.Fatalf("expected cross-warehouse item to be rejected")
	}
	if !strings.Contains(err.Error(), "Product does not belong to selected warehouse") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreatePurchaseOrderRejectsPastDeliveryDate(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	product := seededProduct(t, repo, "SKU-DRILL-01")
	past := "2020-01-01"

	_, err := svc.CreatePurchaseOrder(adminCtx(), domain.PurchaseOrderCreateRequest{
		WarehouseID:          &product.WarehouseID,
		VendorName:           "Makro Supply",
		VendorEmail:          "orders@makro.example",
		ExpectedDeliveryDate: &past,
		Items: []domain.PurchaseOrderItemRequest{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 89.90},
		},
	})
	if err == nil {
		t.Fatalf("expected past delivery date to be rejected")
	}
}

func TestForecastFallsBackToSamplesOnEmptyCatalog(t *testing.T) {
	svc := newTestService(memory.New(), nil)

	items, err := svc.Forecast(adminCtx(), nil)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 sample items, got %d", len(items))
	}
	if items[0].ProductID != -1 || items[1].ProductID != -2 || items[2].ProductID != -3 {
		t.Fatalf("expected sample ids -1,-2,-3, got %d,%d,%d", items[0].ProductID, items[1].ProductID, items[2].ProductID)
	}
}

func TestDashboardScopesAndLabels(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	central := seededProduct(t, repo, "SKU-DRILL-01").WarehouseID

	dashboard, err := svc.Dashboard(managerCtx(central), nil)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if dashboard.Scope != "Central Fulfillment" {
		t.Fatalf("expected scope label Central Fulfillment, got %q", dashboard.Scope)
	}
	if len(dashboard.MonthlyTrends) != 6 {
		t.Fatalf("expected 6 trend points, got %d", len(dashboard.MonthlyTrends))
	}
	if dashboard.Inventory.TotalProducts != 4 {
		t.Fatalf("expected 4 central products, got %d", dashboard.Inventory.TotalProducts)
	}
}

func TestRegisterAssignsShopperRole(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), nil)

	user, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "new.user@example.com",
		FullName: "New User",
		Password: "sup3rsecret",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role %s, got %s", domain.RoleUser, user.Role)
	}
}

func seededShopperCtx(t *testing.T, repo store.Repository) context.Context {
	t.Helper()
	user, err := repo.GetUserByEmail(context.Background(), "user@smartshelfx.dev")
	if err != nil {
		t.Fatalf("seed shopper missing: %v", err)
	}
	return WithActor(context.Background(), domain.Actor{UserID: user.ID, Email: user.Email, Role: domain.RoleUser})
}

func TestAddressBookRoundTrip(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	ctx := seededShopperCtx(t, repo)

	empty, err := svc.Addresses(ctx)
	if err != nil {
		t.Fatalf("addresses failed: %v", err)
	}
	if empty.Delivery != nil || empty.Billing != nil {
		t.Fatalf("expected empty address book, got %+v", empty)
	}

	book, err := svc.SaveAddresses(ctx, domain.AddressBookUpdateRequest{
		Delivery: &domain.AddressPayload{
			Line1:      "12 Harbor Road",
			City:       "Rotterdam",
			State:      "South Holland",
			PostalCode: "3011",
			Country:    "Netherlands",
		},
		Billing: &domain.AddressPayload{
			Line1:      "Unit 4, Canal Street",
			Line2:      "Attn: Finance",
			City:       "Amsterdam",
			State:      "North Holland",
			PostalCode: "1012",
			Country:    "Netherlands",
		},
	})
	if err != nil {
		t.Fatalf("save addresses failed: %v", err)
	}
	if book.Delivery == nil || book.Delivery.City != "Rotterdam" {
		t.Fatalf("unexpected delivery slot: %+v", book.Delivery)
	}
	if book.Billing == nil || book.Billing.Line2 != "Attn: Finance" {
		t.Fatalf("unexpected billing slot: %+v", book.Billing)
	}

	updated, err := svc.SaveAddresses(ctx, domain.AddressBookUpdateRequest{
		Delivery: &domain.AddressPayload{
			Line1:      "88 Dockside Avenue",
			City:       "Rotterdam",
			State:      "South Holland",
			PostalCode: "3013",
			Country:    "Netherlands",
		},
	})
	if err != nil {
		t.Fatalf("partial save failed: %v", err)
	}
	if updated.Delivery == nil || updated.Delivery.Line1 != "88 Dockside Avenue" {
		t.Fatalf("expected delivery to be replaced, got %+v", updated.Delivery)
	}
	if updated.Delivery.ID != book.Delivery.ID {
		t.Fatalf("expected delivery slot to keep id %d, got %d", book.Delivery.ID, updated.Delivery.ID)
	}
	if updated.Billing == nil || updated.Billing.Line1 != "Unit 4, Canal Street" {
		t.Fatalf("expected billing to be untouched, got %+v", updated.Billing)
	}
}

func TestAddressBookRejectsStaffRoles(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), nil)

	if _, err := svc.Addresses(adminCtx()); err == nil || !strings.Contains(err.Error(), "shopper accounts only") {
		t.Fatalf("expected admin to be rejected, got %v", err)
	}
	if _, err := svc.SaveAddresses(managerCtx(1), domain.AddressBookUpdateRequest{}); err == nil || !strings.Contains(err.Error(), "shopper accounts only") {
		t.Fatalf("expected manager to be rejected, got %v", err)
	}
}

func TestSaveAddressesValidatesRequiredFields(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo, nil)
	ctx := seededShopperCtx(t, repo)

	_, err := svc.SaveAddresses(ctx, domain.AddressBookUpdateRequest{
		Delivery: &domain.AddressPayload{
			Line1:      "12 Harbor Road",
			State:      "South Holland",
			PostalCode: "3011",
			Country:    "Netherlands",
		},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "postal code and country are required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), nil)

	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "admin@smartshelfx.dev",
		Password: "definitely-wrong",
	})
	if err == nil {
		t.Fatalf("expected bad password to be rejected")
	}
}
