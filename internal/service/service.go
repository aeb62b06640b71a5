package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"smartshelfx/backend/internal/domain"
	"smartshelfx/backend/internal/forecast"
	"smartshelfx/backend/internal/notify"
	"smartshelfx/backend/internal/refgen"
	"smartshelfx/backend/internal/restock"
	"smartshelfx/backend/internal/store"
)

const (
	referenceAttempts  = 5
	recentSalesLimit   = 50
	dashboardMonths    = 6
	demandCompareLimit = 7
	topRestockedLimit  = 5
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo         store.Repository
	forecaster   *forecast.Engine
	recommender  *restock.Engine
	dispatcher   *notify.Dispatcher
	now          func() time.Time
	newReference func() string
}

func New(repo store.Repository, forecaster *forecast.Engine, recommender *restock.Engine, dispatcher *notify.Dispatcher) *Service {
	return &Service{
		repo:         repo,
		forecaster:   forecaster,
		recommender:  recommender,
		dispatcher:   dispatcher,
		now:          func() time.Time { return time.Now().UTC() },
		newReference: refgen.PurchaseOrder,
	}
}

// resolveWarehouseScope is the single authorization policy for warehouse-scoped
// reads and writes. Admins see the requested warehouse, or everything when no
// warehouse is requested. Managers are pinned to their assigned warehouse and
// may not request another one. Every other role is rejected.
func resolveWarehouseScope(actor domain.Actor, requested *int64) (*int64, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		return requested, nil
	case domain.RoleManager:
		if actor.WarehouseID == nil {
			return nil, fmt.Errorf("%w: manager account has no warehouse assigned", store.ErrValidation)
		}
		if requested != nil && *requested != *actor.WarehouseID {
			return nil, fmt.Errorf("%w: Managers can only access their own warehouse inventory", store.ErrValidation)
		}
		return actor.WarehouseID, nil
	default:
		return nil, fmt.Errorf("%w: access restricted to administrators and managers", store.ErrValidation)
	}
}

func requireActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, fmt.Errorf("%w: authentication required", store.ErrValidation)
	}
	return actor, nil
}

// ---- auth ----

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return domain.User{}, fmt.Errorf("%w: email and password are required", store.ErrValidation)
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: invalid email or password", store.ErrValidation)
	}
	if !user.Active {
		return domain.User{}, fmt.Errorf("%w: account is disabled", store.ErrValidation)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return domain.User{}, fmt.Errorf("%w: invalid email or password", store.ErrValidation)
	}

	return *user, nil
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)

	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("%w: a valid email is required", store.ErrValidation)
	}
	if fullName == "" {
		return domain.User{}, fmt.Errorf("%w: full name is required", store.ErrValidation)
	}
	if len(req.Password) < 6 {
		return domain.User{}, fmt.Errorf("%w: password must be at least 6 characters", store.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.CreateUser(ctx, domain.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Active:       true,
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logAudit(ctx, "user_register", "user", fmt.Sprintf("%d", created.ID), fmt.Sprintf("email=%s", created.Email))
	return *created, nil
}

func (s *Service) Profile(ctx context.Context) (domain.User, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.repo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return domain.User{}, err
	}
	return *user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: admin role required", store.ErrValidation)
	}
	return s.repo.ListUsers(ctx)
}

// ---- address book ----

// Addresses returns the shopper's delivery and billing addresses. A slot that
// has never been saved comes back nil.
func (s *Service) Addresses(ctx context.Context) (domain.AddressBook, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.AddressBook{}, err
	}
	if actor.Role != domain.RoleUser {
		return domain.AddressBook{}, fmt.Errorf("%w: the address book is available to shopper accounts only", store.ErrValidation)
	}
	return s.addressBook(ctx, actor.UserID)
}

// SaveAddresses upserts the slots present in the request and leaves absent
// slots untouched.
func (s *Service) SaveAddresses(ctx context.Context, req domain.AddressBookUpdateRequest) (domain.AddressBook, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.AddressBook{}, err
	}
	if actor.Role != domain.RoleUser {
		return domain.AddressBook{}, fmt.Errorf("%w: the address book is available to shopper accounts only", store.ErrValidation)
	}

	for _, slot := range []struct {
		payload     *domain.AddressPayload
		addressType string
	}{
		{req.Delivery, domain.AddressTypeDelivery},
		{req.Billing, domain.AddressTypeBilling},
	} {
		if slot.payload == nil {
			continue
		}
		address, err := addressFromPayload(*slot.payload, actor.UserID, slot.addressType)
		if err != nil {
			return domain.AddressBook{}, err
		}
		if _, err := s.repo.UpsertUserAddress(ctx, address); err != nil {
			return domain.AddressBook{}, err
		}
	}

	s.logAudit(ctx, "address_update", "user", fmt.Sprintf("%d", actor.UserID), "address book updated")
	return s.addressBook(ctx, actor.UserID)
}

func (s *Service) addressBook(ctx context.Context, userID int64) (domain.AddressBook, error) {
	book := domain.AddressBook{}

	delivery, err := s.repo.GetUserAddress(ctx, userID, domain.AddressTypeDelivery)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.AddressBook{}, err
	}
	book.Delivery = delivery

	billing, err := s.repo.GetUserAddress(ctx, userID, domain.AddressTypeBilling)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.AddressBook{}, err
	}
	book.Billing = billing

	return book, nil
}

func addressFromPayload(payload domain.AddressPayload, userID int64, addressType string) (domain.Address, error) {
	address := domain.Address{
		UserID:     userID,
		Type:       addressType,
		Line1:      strings.TrimSpace(payload.Line1),
		Line2:      strings.TrimSpace(payload.Line2),
		City:       strings.TrimSpace(payload.City),
		State:      strings.TrimSpace(payload.State),
		PostalCode: strings.TrimSpace(payload.PostalCode),
		Country:    strings.TrimSpace(payload.Country),
	}
	if address.Line1 == "" || address.City == "" || address.State == "" || address.PostalCode == "" || address.Country == "" {
		return domain.Address{}, fmt.Errorf("%w: line1, city, state, postal code and country are required", store.ErrValidation)
	}
	for _, field := range []struct {
		value string
		name  string
		max   int
	}{
		{address.Line1, "line1", 160},
		{address.Line2, "line2", 160},
		{address.City, "city", 120},
		{address.State, "state", 120},
		{address.PostalCode, "postal code", 20},
		{address.Country, "country", 120},
	} {
		if len(field.value) > field.max {
			return domain.Address{}, fmt.Errorf("%w: %s must be at most %d characters", store.ErrValidation, field.name, field.max)
		}
	}
	return address, nil
}

// ---- warehouses ----

func (s *Service) CreateWarehouse(ctx context.Context, req domain.WarehouseCreateRequest) (domain.Warehouse, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.Warehouse{}, err
	}
	if actor.Role != domain.RoleAdmin {
		return domain.Warehouse{}, fmt.Errorf("%w: admin role required", store.ErrValidation)
	}

	name := strings.TrimSpace(req.Name)
	code := strings.ToUpper(strings.TrimSpace(req.LocationCode))
	if name == "" || code == "" {
		return domain.Warehouse{}, fmt.Errorf("%w: warehouse name and location code are required", store.ErrValidation)
	}

	created, err := s.repo.CreateWarehouse(ctx, domain.Warehouse{
		Name:         name,
		LocationCode: code,
		Active:       true,
	})
	if err != nil {
		return domain.Warehouse{}, err
	}

	s.logAudit(ctx, "warehouse_create", "warehouse", fmt.Sprintf("%d", created.ID), fmt.Sprintf("name=%s,code=%s", created.Name, created.LocationCode))
	return *created, nil
}

func (s *Service) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListWarehouses(ctx)
}

func (s *Service) GetWarehouse(ctx context.Context, id int64) (domain.Warehouse, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.Warehouse{}, err
	}
	if _, err := resolveWarehouseScope(actor, &id); err != nil {
		return domain.Warehouse{}, err
	}

	warehouse, err := s.repo.GetWarehouseByID(ctx, id)
	if err != nil {
		return domain.Warehouse{}, err
	}
	return *warehouse, nil
}

// ---- products ----

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	// Shoppers browse the whole catalog; staff listings honor warehouse scope.
	if actor.Role == domain.RoleAdmin || actor.Role == domain.RoleManager {
		scope, err := resolveWarehouseScope(actor, filter.WarehouseID)
		if err != nil {
			return nil, err
		}
		filter.WarehouseID = scope
	} else {
		filter.WarehouseID = nil
	}

	return s.repo.ListProducts(ctx, filter)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	if _, err := requireActor(ctx); err != nil {
		return domain.Product{}, err
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	scope, err := resolveWarehouseScope(actor, req.WarehouseID)
	if err != nil {
		return domain.Product{}, err
	}
	if scope == nil {
		return domain.Product{}, fmt.Errorf("%w: warehouse is required", store.ErrValidation)
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Vendor = strings.TrimSpace(req.Vendor)

	if req.SKU == "" || req.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: sku and name are required", store.ErrValidation)
	}
	if req.CurrentStock < 0 || req.ReorderLevel < 0 || req.MaxStockLevel < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock levels cannot be negative", store.ErrValidation)
	}
	if req.Price <= 0 {
		return domain.Product{}, fmt.Errorf("%w: price must be greater than zero", store.ErrValidation)
	}
	if req.MaxStockLevel > 0 && req.MaxStockLevel < req.ReorderLevel {
		return domain.Product{}, fmt.Errorf("%w: Max stock level cannot be less than min stock level", store.ErrValidation)
	}

	if existing, err := s.repo.GetProductBySKU(ctx, req.SKU); err == nil && existing != nil {
		return domain.Product{}, fmt.Errorf("%w: a product with SKU %s already exists", store.ErrValidation, req.SKU)
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		SKU:                req.SKU,
		Name:               req.Name,
		Category:           req.Category,
		Vendor:             req.Vendor,
		CurrentStock:       req.CurrentStock,
		ReorderLevel:       req.ReorderLevel,
		MaxStockLevel:      req.MaxStockLevel,
		Price:              round2(req.Price),
		AutoRestockEnabled: req.AutoRestockEnabled,
		WarehouseID:        *scope,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.SKU, fmt.Sprintf("name=%s,warehouse=%d,stock=%d", created.Name, created.WarehouseID, created.CurrentStock))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if _, err := resolveWarehouseScope(actor, &existing.WarehouseID); err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: name cannot be empty", store.ErrValidation)
		}
		updated.Name = name
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.Vendor != nil {
		updated.Vendor = strings.TrimSpace(*req.Vendor)
	}
	if req.CurrentStock != nil {
		if *req.CurrentStock < 0 {
			return domain.Product{}, fmt.Errorf("%w: stock cannot be negative", store.ErrValidation)
		}
		updated.CurrentStock = *req.CurrentStock
	}
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return domain.Product{}, fmt.Errorf("%w: reorder level cannot be negative", store.ErrValidation)
		}
		updated.ReorderLevel = *req.ReorderLevel
	}
	if req.MaxStockLevel != nil {
		if *req.MaxStockLevel < 0 {
			return domain.Product{}, fmt.Errorf("%w: max stock level cannot be negative", store.ErrValidation)
		}
		updated.MaxStockLevel = *req.MaxStockLevel
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return domain.Product{}, fmt.Errorf("%w: price must be greater than zero", store.ErrValidation)
		}
		updated.Price = round2(*req.Price)
	}
	if req.AutoRestockEnabled != nil {
		updated.AutoRestockEnabled = *req.AutoRestockEnabled
	}
	if updated.MaxStockLevel > 0 && updated.MaxStockLevel < updated.ReorderLevel {
		return domain.Product{}, fmt.Errorf("%w: Max stock level cannot be less than min stock level", store.ErrValidation)
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", saved.SKU, fmt.Sprintf("name=%s,stock=%d,reorder=%d", saved.Name, saved.CurrentStock, saved.ReorderLevel))
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := resolveWarehouseScope(actor, &existing.WarehouseID); err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.logAudit(ctx, "product_delete", "product", existing.SKU, fmt.Sprintf("name=%s", existing.Name))
	return nil
}

// ---- sales ----

func (s *Service) PurchaseProduct(ctx context.Context, req domain.PurchaseRequest) (domain.Purchase, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.Purchase{}, err
	}
	if actor.Role != domain.RoleUser {
		return domain.Purchase{}, fmt.Errorf("%w: only shopper accounts can purchase products", store.ErrValidation)
	}
	if req.Quantity < 1 {
		return domain.Purchase{}, fmt.Errorf("%w: quantity must be at least 1", store.ErrValidation)
	}

	product, err := s.repo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return domain.Purchase{}, err
	}
	if product.CurrentStock < req.Quantity {
		return domain.Purchase{}, fmt.Errorf("%w: Insufficient stock for this product", store.ErrInsufficientStock)
	}

	warehouse, err := s.repo.GetWarehouseByID(ctx, product.WarehouseID)
	if err != nil {
		return domain.Purchase{}, err
	}

	unitPrice := round2(product.Price)
	created, err := s.repo.CreatePurchase(ctx, domain.Purchase{
		UserID:        actor.UserID,
		ProductID:     product.ID,
		WarehouseID:   product.WarehouseID,
		ProductName:   product.Name,
		ProductSKU:    product.SKU,
		WarehouseName: warehouse.Name,
		WarehouseCode: warehouse.LocationCode,
		Quantity:      req.Quantity,
		UnitPrice:     unitPrice,
		TotalPrice:    mulRound2(unitPrice, req.Quantity),
		PurchasedAt:   s.now(),
	})
	if err != nil {
		return domain.Purchase{}, err
	}

	s.logAudit(ctx, "purchase_create", "purchase", fmt.Sprintf("%d", created.ID), fmt.Sprintf("sku=%s,qty=%d,total=%.2f", created.ProductSKU, created.Quantity, created.TotalPrice))
	return *created, nil
}

func (s *Service) PurchaseHistory(ctx context.Context) (domain.PurchaseHistory, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.PurchaseHistory{}, err
	}

	purchases, err := s.repo.ListPurchasesByUser(ctx, actor.UserID)
	if err != nil {
		return domain.PurchaseHistory{}, err
	}

	total := decimal.Zero
	for _, p := range purchases {
		total = total.Add(decimal.NewFromFloat(p.TotalPrice))
	}
	spend, _ := total.Round(2).Float64()

	return domain.PurchaseHistory{Purchases: purchases, TotalSpend: spend}, nil
}

func (s *Service) SalesOverview(ctx context.Context, warehouseID *int64) (domain.SalesSummary, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.SalesSummary{}, err
	}

	scope, err := resolveWarehouseScope(actor, warehouseID)
	if err != nil {
		return domain.SalesSummary{}, err
	}

	return s.repo.SalesSummary(ctx, scope)
}

func (s *Service) RecentSales(ctx context.Context, warehouseID *int64, limit int) ([]domain.Purchase, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	scope, err := resolveWarehouseScope(actor, warehouseID)
	if err != nil {
		return nil, err
	}

	if limit < 1 || limit > recentSalesLimit {
		limit = recentSalesLimit
	}
	return s.repo.ListRecentPurchases(ctx, scope, limit)
}

// ---- restock recommendations ----

func (s *Service) Recommendations(ctx context.Context, filter domain.RestockFilter) ([]domain.RestockRecommendation, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleManager {
		return nil, fmt.Errorf("%w: Restock recommendations are restricted to administrators and managers", store.ErrValidation)
	}

	scope, err := resolveWarehouseScope(actor, filter.WarehouseID)
	if err != nil {
		return nil, err
	}
	filter.WarehouseID = scope

	products, err := s.repo.ListProducts(ctx, domain.ProductFilter{WarehouseID: scope})
	if err != nil {
		return nil, err
	}

	warehouses, err := s.warehousesByID(ctx)
	if err != nil {
		return nil, err
	}

	aggregates, err := s.repo.AggregateSalesDemand(ctx, scope)
	if err != nil {
		return nil, err
	}

	return s.recommender.Recommend(products, warehouses, aggregates, filter), nil
}

// ---- demand forecast ----

func (s *Service) Forecast(ctx context.Context, warehouseID *int64) ([]domain.ForecastItem, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleManager {
		return nil, fmt.Errorf("%w: access restricted to administrators and managers", store.ErrValidation)
	}

	scope, err := resolveWarehouseScope(actor, warehouseID)
	if err != nil {
		return nil, err
	}

	products, err := s.repo.ListProducts(ctx, domain.ProductFilter{WarehouseID: scope})
	if err != nil {
		return nil, err
	}

	aggregates, err := s.repo.AggregateSalesDemand(ctx, scope)
	if err != nil {
		return nil, err
	}

	return s.forecaster.Forecast(ctx, products, aggregates), nil
}

// ---- purchase orders ----

func (s *Service) CreatePurchaseOrder(ctx context.Context, req domain.PurchaseOrderCreateRequest) (domain.PurchaseOrder, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	scope, err := resolveWarehouseScope(actor, req.WarehouseID)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if scope == nil {
		return domain.PurchaseOrder{}, fmt.Errorf("%w: warehouse is required", store.ErrValidation)
	}

	vendorName := strings.TrimSpace(req.VendorName)
	if vendorName == "" {
		return domain.PurchaseOrder{}, fmt.Errorf("%w: vendor name is required", store.ErrValidation)
	}
	if len(req.Items) == 0 {
		return domain.PurchaseOrder{}, fmt.Errorf("%w: at least one item is required", store.ErrValidation)
	}

	preference, err := normalizeContactPreference(req.VendorContactPreference)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	var expectedDelivery *time.Time
	if req.ExpectedDeliveryDate != nil && strings.TrimSpace(*req.ExpectedDeliveryDate) != "" {
		parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(*req.ExpectedDeliveryDate), time.UTC)
		if err != nil {
			return domain.PurchaseOrder{}, fmt.Errorf("%w: expected delivery date must use YYYY-MM-DD", store.ErrValidation)
		}
		if parsed.Before(s.now().Truncate(24 * time.Hour)) {
			return domain.PurchaseOrder{}, fmt.Errorf("%w: expected delivery date cannot be in the past", store.ErrValidation)
		}
		expectedDelivery = &parsed
	}

	warehouse, err := s.repo.GetWarehouseByID(ctx, *scope)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	items := make([]domain.PurchaseOrderItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return domain.PurchaseOrder{}, fmt.Errorf("%w: item quantity must be at least 1", store.ErrValidation)
		}
		if item.UnitPrice <= 0 {
			return domain.PurchaseOrder{}, fmt.Errorf("%w: item unit price must be greater than zero", store.ErrValidation)
		}

		product, err := s.repo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return domain.PurchaseOrder{}, err
		}
		if product.WarehouseID != warehouse.ID {
			return domain.PurchaseOrder{}, fmt.Errorf("%w: Product does not belong to selected warehouse", store.ErrValidation)
		}

		unitPrice := decimal.NewFromFloat(item.UnitPrice).Round(2)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)

		unit, _ := unitPrice.Float64()
		line, _ := lineTotal.Float64()
		items = append(items, domain.PurchaseOrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductSKU:  product.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   unit,
			LineTotal:   line,
		})
	}

	reference, err := s.nextReference(ctx)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	subtotalValue, _ := subtotal.Round(2).Float64()
	order := domain.PurchaseOrder{
		Reference:               reference,
		Status:                  domain.POStatusPendingVendor,
		VendorName:              vendorName,
		VendorEmail:             strings.TrimSpace(req.VendorEmail),
		VendorPhone:             strings.TrimSpace(req.VendorPhone),
		VendorContactPreference: preference,
		Notes:                   strings.TrimSpace(req.Notes),
		Subtotal:                subtotalValue,
		Tax:                     0,
		Shipping:                0,
		Total:                   subtotalValue,
		ExpectedDeliveryDate:    expectedDelivery,
		SubmittedAt:             s.now(),
		WarehouseID:             warehouse.ID,
		CreatedByID:             actor.UserID,
		Items:                   items,
	}

	created, err := s.repo.CreatePurchaseOrder(ctx, order)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	s.logAudit(ctx, "purchase_order_create", "purchase_order", created.Reference, fmt.Sprintf("vendor=%s,warehouse=%d,total=%.2f", created.VendorName, created.WarehouseID, created.Total))

	opts := notify.Options{EmailRequested: req.SendEmail, SMSRequested: req.SendSMS}
	final := s.dispatchVendorNotification(ctx, created, warehouse.Name, opts)
	return final, nil
}

// dispatchVendorNotification sends the order to the vendor over the requested
// channels and records the outcome as a status transition. When no channel is
// requested the order rests at PENDING_VENDOR_APPROVAL. A channel failure is
// never an error for the caller, the order has already been created.
func (s *Service) dispatchVendorNotification(ctx context.Context, created *domain.PurchaseOrder, warehouseName string, opts notify.Options) domain.PurchaseOrder {
	result := s.dispatcher.Dispatch(ctx, *created, warehouseName, opts)

	status := created.Status
	notes := created.Notes
	if result.Dispatched() {
		status = domain.POStatusSentToVendor
	}
	if result.FailureMessage != "" {
		status = domain.POStatusNotificationFailed
		notes = appendNote(notes, "Notification failed: "+result.FailureMessage)
	}

	if status == created.Status && notes == created.Notes {
		return *created
	}

	updated, err := s.repo.UpdatePurchaseOrderStatus(ctx, created.ID, status, notes)
	if err != nil {
		log.Printf("[service] WARN: failed to record dispatch outcome for %s: %v", created.Reference, err)
		return *created
	}

	s.logAudit(ctx, "purchase_order_dispatch", "purchase_order", created.Reference, fmt.Sprintf("status=%s,email=%t,sms=%t", status, result.EmailSent, result.SMSSent))
	return *updated
}

func (s *Service) nextReference(ctx context.Context) (string, error) {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		reference := s.newReference()
		exists, err := s.repo.ReferenceExists(ctx, reference)
		if err != nil {
			return "", err
		}
		if !exists {
			return reference, nil
		}
	}
	return "", fmt.Errorf("%w: could not generate a unique order reference", store.ErrValidation)
}

func (s *Service) GetPurchaseOrder(ctx context.Context, id int64) (domain.PurchaseOrder, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	order, err := s.repo.GetPurchaseOrderByID(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if _, err := resolveWarehouseScope(actor, &order.WarehouseID); err != nil {
		return domain.PurchaseOrder{}, err
	}
	return *order, nil
}

func (s *Service) ListPurchaseOrders(ctx context.Context, warehouseID *int64, status string, limit int) ([]domain.PurchaseOrder, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	scope, err := resolveWarehouseScope(actor, warehouseID)
	if err != nil {
		return nil, err
	}

	status = strings.ToUpper(strings.TrimSpace(status))
	if limit < 1 || limit > 200 {
		limit = 100
	}
	return s.repo.ListPurchaseOrders(ctx, scope, status, limit)
}

// ---- analytics ----

func (s *Service) Dashboard(ctx context.Context, warehouseID *int64) (domain.AnalyticsDashboard, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return domain.AnalyticsDashboard{}, err
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleManager {
		return domain.AnalyticsDashboard{}, fmt.Errorf("%w: access restricted to administrators and managers", store.ErrValidation)
	}

	scope, err := resolveWarehouseScope(actor, warehouseID)
	if err != nil {
		return domain.AnalyticsDashboard{}, err
	}

	products, err := s.repo.ListProducts(ctx, domain.ProductFilter{WarehouseID: scope})
	if err != nil {
		return domain.AnalyticsDashboard{}, err
	}

	now := s.now()
	windowStart := monthStart(now).AddDate(0, -(dashboardMonths - 1), 0)

	trends, err := s.monthlyTrends(ctx, windowStart, now, scope)
	if err != nil {
		return domain.AnalyticsDashboard{}, err
	}

	salesAgg, err := s.repo.AggregateSalesDemandBetween(ctx, windowStart, now, scope)
	if err != nil {
		return domain.AnalyticsDashboard{}, err
	}
	restockAgg, err := s.repo.AggregateRestockDemandBetween(ctx, windowStart, now, scope)
	if err != nil {
		return domain.AnalyticsDashboard{}, err
	}

	scopeLabel := "all-warehouses"
	if scope != nil {
		warehouse, err := s.repo.GetWarehouseByID(ctx, *scope)
		if err != nil {
			return domain.AnalyticsDashboard{}, err
		}
		scopeLabel = warehouse.Name
	}

	return domain.AnalyticsDashboard{
		Scope:              scopeLabel,
		Inventory:          summarizeInventory(products),
		StatusDistribution: statusDistribution(products),
		MonthlyTrends:      trends,
		TopRestocked:       topRestocked(products, restockAgg),
		DemandComparison:   compareDemand(products, restockAgg, salesAgg),
		GeneratedAt:        now,
	}, nil
}

func (s *Service) monthlyTrends(ctx context.Context, windowStart, now time.Time, scope *int64) ([]domain.MonthlyTrendPoint, error) {
	trends := make([]domain.MonthlyTrendPoint, 0, dashboardMonths)
	for i := 0; i < dashboardMonths; i++ {
		start := windowStart.AddDate(0, i, 0)
		end := start.AddDate(0, 1, 0)
		if end.After(now) {
			end = now
		}

		sales, err := s.repo.AggregateSalesDemandBetween(ctx, start, end, scope)
		if err != nil {
			return nil, err
		}
		restocks, err := s.repo.AggregateRestockDemandBetween(ctx, start, end, scope)
		if err != nil {
			return nil, err
		}

		point := domain.MonthlyTrendPoint{Month: start.Format("2006-01")}
		for _, agg := range sales {
			point.SalesQuantity += agg.TotalQuantity
			point.SalesAmount += agg.TotalAmount
		}
		for _, agg := range restocks {
			point.RestockQuantity += agg.TotalQuantity
			point.RestockAmount += agg.TotalAmount
		}
		point.SalesAmount = round2(point.SalesAmount)
		point.RestockAmount = round2(point.RestockAmount)
		trends = append(trends, point)
	}
	return trends, nil
}

func summarizeInventory(products []domain.Product) domain.InventoryStatusSummary {
	summary := domain.InventoryStatusSummary{TotalProducts: len(products)}
	for _, p := range products {
		summary.TotalUnits += p.CurrentStock
		switch {
		case p.CurrentStock <= 0:
			summary.OutOfStock++
		case p.CurrentStock <= p.ReorderLevel:
			summary.LowStock++
		}
		if p.AutoRestockEnabled {
			summary.AutoRestockCount++
		}
	}
	return summary
}

func statusDistribution(products []domain.Product) []domain.StatusSlice {
	counts := map[string]int{
		domain.StockStatusOut: 0,
		domain.StockStatusLow: 0,
		domain.StockStatusIn:  0,
	}
	for _, p := range products {
		counts[stockStatus(p)]++
	}
	return []domain.StatusSlice{
		{Status: domain.StockStatusOut, Count: counts[domain.StockStatusOut]},
		{Status: domain.StockStatusLow, Count: counts[domain.StockStatusLow]},
		{Status: domain.StockStatusIn, Count: counts[domain.StockStatusIn]},
	}
}

func stockStatus(p domain.Product) string {
	switch {
	case p.CurrentStock <= 0:
		return domain.StockStatusOut
	case p.CurrentStock <= p.ReorderLevel:
		return domain.StockStatusLow
	default:
		return domain.StockStatusIn
	}
}

func topRestocked(products []domain.Product, restockAgg map[int64]domain.DemandAggregate) []domain.TopRestockedItem {
	names := productIndex(products)

	items := make([]domain.TopRestockedItem, 0, len(restockAgg))
	for productID, agg := range restockAgg {
		if agg.TotalQuantity <= 0 {
			continue
		}
		item := domain.TopRestockedItem{ProductID: productID, Quantity: agg.TotalQuantity}
		if p, ok := names[productID]; ok {
			item.ProductName = p.Name
			item.SKU = p.SKU
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Quantity != items[j].Quantity {
			return items[i].Quantity > items[j].Quantity
		}
		return items[i].ProductID < items[j].ProductID
	})
	if len(items) > topRestockedLimit {
		items = items[:topRestockedLimit]
	}
	return items
}

func compareDemand(products []domain.Product, restockAgg, salesAgg map[int64]domain.DemandAggregate) []domain.DemandComparison {
	names := productIndex(products)

	byProduct := make(map[int64]*domain.DemandComparison)
	for productID, agg := range restockAgg {
		byProduct[productID] = &domain.DemandComparison{ProductID: productID, RestockQuantity: agg.TotalQuantity}
	}
	for productID, agg := range salesAgg {
		entry, ok := byProduct[productID]
		if !ok {
			entry = &domain.DemandComparison{ProductID: productID}
			byProduct[productID] = entry
		}
		entry.SalesQuantity = agg.TotalQuantity
	}

	comparisons := make([]domain.DemandComparison, 0, len(byProduct))
	for _, entry := range byProduct {
		if p, ok := names[entry.ProductID]; ok {
			entry.ProductName = p.Name
			entry.SKU = p.SKU
		}
		comparisons = append(comparisons, *entry)
	}

	sort.Slice(comparisons, func(i, j int) bool {
		ci := comparisons[i].RestockQuantity + comparisons[i].SalesQuantity
		cj := comparisons[j].RestockQuantity + comparisons[j].SalesQuantity
		if ci != cj {
			return ci > cj
		}
		return comparisons[i].ProductID < comparisons[j].ProductID
	})
	if len(comparisons) > demandCompareLimit {
		comparisons = comparisons[:demandCompareLimit]
	}
	return comparisons
}

func (s *Service) warehousesByID(ctx context.Context) (map[int64]domain.Warehouse, error) {
	warehouses, err := s.repo.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[int64]domain.Warehouse, len(warehouses))
	for _, w := range warehouses {
		index[w.ID] = w
	}
	return index, nil
}

func productIndex(products []domain.Product) map[int64]domain.Product {
	index := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return index
}

// ---- audit ----

func (s *Service) ListAuditLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.AuditEntry, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: admin role required", store.ErrValidation)
	}
	if limit < 1 || limit > 500 {
		limit = 200
	}
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entity string, entityID string, detail string) {
	actorLabel := "system"
	if actor, ok := ActorFromContext(ctx); ok {
		actorLabel = actor.Email
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditEntry{
		ID:        refgen.New("audit"),
		Actor:     actorLabel,
		Action:    action,
		Entity:    entity + "/" + entityID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entity, entityID, err)
	}
}

// ---- helpers ----

// normalizeContactPreference validates the stored preference label. It does
// not drive dispatch; the per-channel request flags do. Empty stays empty.
func normalizeContactPreference(raw string) (string, error) {
	preference := strings.ToUpper(strings.TrimSpace(raw))
	switch preference {
	case "", domain.ContactPreferenceEmail, domain.ContactPreferenceSMS, domain.ContactPreferenceBoth:
		return preference, nil
	default:
		return "", fmt.Errorf("%w: unsupported contact preference %q", store.ErrValidation, raw)
	}
}

func appendNote(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + " | " + addition
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}

func mulRound2(unitPrice float64, quantity int) float64 {
	out, _ := decimal.NewFromFloat(unitPrice).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		Float64()
	return out
}
