package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"smartshelfx/backend/internal/domain"
	"smartshelfx/backend/internal/refgen"
	"smartshelfx/backend/internal/store"
)

type Store struct {
	mu                 sync.RWMutex
	seq                int64
	usersByID          map[int64]domain.User
	userIDByEmail      map[string]int64
	warehousesByID     map[int64]domain.Warehouse
	productsByID       map[int64]domain.Product
	purchasesByID      map[int64]domain.Purchase
	purchaseOrdersByID map[int64]domain.PurchaseOrder
	addressesByID      map[int64]domain.Address
	auditLogs          []domain.AuditEntry
}

func New() *Store {
	return &Store{
		usersByID:          make(map[int64]domain.User),
		userIDByEmail:      make(map[string]int64),
		warehousesByID:     make(map[int64]domain.Warehouse),
		productsByID:       make(map[int64]domain.Product),
		purchasesByID:      make(map[int64]domain.Purchase),
		purchaseOrdersByID: make(map[int64]domain.PurchaseOrder),
		addressesByID:      make(map[int64]domain.Address),
		auditLogs:          make([]domain.AuditEntry, 0, 128),
	}
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD, SEED_MANAGER_PASSWORD and
// SEED_USER_PASSWORD environment variables. If unset, hardcoded dev defaults
// are used with a warning. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func (s *Store) seedUsers(mainWarehouseID int64) {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	userPwd := envOr("SEED_USER_PASSWORD", "user123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_MANAGER_PASSWORD") == "" || os.Getenv("SEED_USER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD, SEED_MANAGER_PASSWORD and SEED_USER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	for _, u := range []struct {
		email       string
		fullName    string
		password    string
		role        string
		warehouseID *int64
	}{
		{"admin@smartshelfx.dev", "Seed Admin", adminPwd, domain.RoleAdmin, nil},
		{"manager@smartshelfx.dev", "Seed Manager", managerPwd, domain.RoleManager, &mainWarehouseID},
		{"user@smartshelfx.dev", "Seed Customer", userPwd, domain.RoleUser, nil},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.email, err)
		}
		s.seq++
		user := domain.User{
			ID:           s.seq,
			Email:        u.email,
			FullName:     u.fullName,
			PasswordHash: string(hash),
			Role:         u.role,
			WarehouseID:  u.warehouseID,
			Active:       true,
			CreatedAt:    now,
		}
		s.usersByID[user.ID] = user
		s.userIDByEmail[user.Email] = user.ID
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	warehouses := []domain.Warehouse{
		{Name: "Central Fulfillment", LocationCode: "WH-CENTRAL", Active: true, CreatedAt: now},
		{Name: "North Depot", LocationCode: "WH-NORTH", Active: true, CreatedAt: now},
	}
	for i := range warehouses {
		s.seq++
		warehouses[i].ID = s.seq
		s.warehousesByID[warehouses[i].ID] = warehouses[i]
	}
	central := warehouses[0].ID
	north := warehouses[1].ID

	products := []domain.Product{
		{SKU: "SKU-DRILL-01", Name: "Cordless Drill 18V", Category: "tools", Vendor: "Makro Supply", CurrentStock: 34, ReorderLevel: 12, MaxStockLevel: 60, Price: 89.90, AutoRestockEnabled: true, WarehouseID: central},
		{SKU: "SKU-GLOVE-01", Name: "Work Gloves Pair", Category: "safety", Vendor: "SafeHands Co", CurrentStock: 210, ReorderLevel: 80, MaxStockLevel: 400, Price: 4.50, WarehouseID: central},
		{SKU: "SKU-HELMET-01", Name: "Safety Helmet", Category: "safety", Vendor: "SafeHands Co", CurrentStock: 18, ReorderLevel: 25, MaxStockLevel: 120, Price: 12.75, AutoRestockEnabled: true, WarehouseID: central},
		{SKU: "SKU-TAPE-01", Name: "Measuring Tape 5m", Category: "tools", Vendor: "Makro Supply", CurrentStock: 75, ReorderLevel: 30, Price: 6.20, WarehouseID: central},
		{SKU: "SKU-PAINT-01", Name: "Wall Paint 5L", Category: "materials", Vendor: "ColorWorks", CurrentStock: 9, ReorderLevel: 15, MaxStockLevel: 40, Price: 27.40, WarehouseID: north},
		{SKU: "SKU-LADDER-01", Name: "Aluminium Ladder", Category: "tools", Vendor: "Makro Supply", CurrentStock: 6, ReorderLevel: 4, MaxStockLevel: 12, Price: 74.00, WarehouseID: north},
	}
	for i := range products {
		s.seq++
		products[i].ID = s.seq
		products[i].CreatedAt = now
		products[i].UpdatedAt = now
		s.productsByID[products[i].ID] = products[i]
	}

	s.seedUsers(central)
	return s
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || strings.TrimSpace(user.PasswordHash) == "" {
		return nil, store.ErrValidation
	}
	if _, exists := s.userIDByEmail[user.Email]; exists {
		return nil, store.ErrValidation
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.seq++
	user.ID = s.seq
	s.usersByID[user.ID] = user
	s.userIDByEmail[user.Email] = user.ID
	created := user
	return &created, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.userIDByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !exists {
		return nil, store.ErrNotFound
	}
	user := s.usersByID[id]
	return &user, nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.usersByID))
	for _, user := range s.usersByID {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return cmpString(a.Email, b.Email)
	})
	return users, nil
}

func (s *Store) GetUserAddress(_ context.Context, userID int64, addressType string) (*domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, address := range s.addressesByID {
		if address.UserID == userID && address.Type == addressType {
			copyAddress := address
			return &copyAddress, nil
		}
	}
	return nil, store.ErrNotFound
}

// UpsertUserAddress keeps at most one address per (user, type) pair.
func (s *Store) UpsertUserAddress(_ context.Context, address domain.Address) (*domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if address.Type != domain.AddressTypeDelivery && address.Type != domain.AddressTypeBilling {
		return nil, store.ErrValidation
	}
	if address.Line1 == "" || address.City == "" || address.State == "" || address.PostalCode == "" || address.Country == "" {
		return nil, store.ErrValidation
	}
	if _, exists := s.usersByID[address.UserID]; !exists {
		return nil, store.ErrNotFound
	}

	now := time.Now().UTC()
	for id, existing := range s.addressesByID {
		if existing.UserID == address.UserID && existing.Type == address.Type {
			address.ID = id
			address.CreatedAt = existing.CreatedAt
			address.UpdatedAt = now
			s.addressesByID[id] = address
			updated := address
			return &updated, nil
		}
	}

	s.seq++
	address.ID = s.seq
	address.CreatedAt = now
	address.UpdatedAt = now
	s.addressesByID[address.ID] = address
	created := address
	return &created, nil
}

func (s *Store) CreateWarehouse(_ context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	warehouse.Name = strings.TrimSpace(warehouse.Name)
	warehouse.LocationCode = strings.ToUpper(strings.TrimSpace(warehouse.LocationCode))
	if warehouse.Name == "" || warehouse.LocationCode == "" {
		return nil, store.ErrValidation
	}
	for _, existing := range s.warehousesByID {
		if strings.EqualFold(existing.Name, warehouse.Name) || existing.LocationCode == warehouse.LocationCode {
			return nil, store.ErrValidation
		}
	}
	if warehouse.CreatedAt.IsZero() {
		warehouse.CreatedAt = time.Now().UTC()
	}
	warehouse.Active = true
	s.seq++
	warehouse.ID = s.seq
	s.warehousesByID[warehouse.ID] = warehouse
	created := warehouse
	return &created, nil
}

func (s *Store) GetWarehouseByID(_ context.Context, id int64) (*domain.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	warehouse, exists := s.warehousesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyWarehouse := warehouse
	return &copyWarehouse, nil
}

func (s *Store) ListWarehouses(_ context.Context) ([]domain.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	warehouses := make([]domain.Warehouse, 0, len(s.warehousesByID))
	for _, warehouse := range s.warehousesByID {
		warehouses = append(warehouses, warehouse)
	}
	slices.SortFunc(warehouses, func(a, b domain.Warehouse) int {
		return cmpString(a.Name, b.Name)
	})
	return warehouses, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.SKU = strings.ToUpper(strings.TrimSpace(product.SKU))
	product.Name = strings.TrimSpace(product.Name)
	if product.SKU == "" || product.Name == "" || product.CurrentStock < 0 || product.ReorderLevel < 0 || product.Price < 0 {
		return nil, store.ErrValidation
	}
	if product.MaxStockLevel > 0 && product.MaxStockLevel < product.ReorderLevel {
		return nil, store.ErrValidation
	}
	if _, exists := s.warehousesByID[product.WarehouseID]; !exists {
		return nil, store.ErrNotFound
	}
	for _, existing := range s.productsByID {
		if existing.SKU == product.SKU {
			return nil, store.ErrValidation
		}
	}

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	s.seq++
	product.ID = s.seq
	s.productsByID[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.productsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sku = strings.ToUpper(strings.TrimSpace(sku))
	for _, product := range s.productsByID {
		if product.SKU == sku {
			copyProduct := product
			return &copyProduct, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.productsByID[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if product.Name == "" || product.CurrentStock < 0 || product.ReorderLevel < 0 || product.Price < 0 {
		return nil, store.ErrValidation
	}
	if product.MaxStockLevel > 0 && product.MaxStockLevel < product.ReorderLevel {
		return nil, store.ErrValidation
	}
	product.SKU = existing.SKU
	product.WarehouseID = existing.WarehouseID
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.productsByID[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.productsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.productsByID, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, product := range s.productsByID {
		if filter.WarehouseID != nil && product.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(product.Category, filter.Category) {
			continue
		}
		if filter.Vendor != "" && !strings.EqualFold(product.Vendor, filter.Vendor) {
			continue
		}
		if !matchesStockStatus(product, filter.StockStatus) {
			continue
		}
		products = append(products, product)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})
	return products, nil
}

func matchesStockStatus(product domain.Product, status string) bool {
	switch status {
	case "":
		return true
	case domain.StockStatusOut:
		return product.CurrentStock == 0
	case domain.StockStatusLow:
		return product.CurrentStock > 0 && product.CurrentStock <= product.ReorderLevel
	case domain.StockStatusIn:
		return product.CurrentStock > product.ReorderLevel
	}
	return false
}

func (s *Store) CreatePurchase(_ context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if purchase.Quantity < 1 {
		return nil, store.ErrValidation
	}
	product, exists := s.productsByID[purchase.ProductID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if product.CurrentStock < purchase.Quantity {
		return nil, store.ErrInsufficientStock
	}

	product.CurrentStock -= purchase.Quantity
	product.UpdatedAt = time.Now().UTC()
	s.productsByID[product.ID] = product

	if purchase.PurchasedAt.IsZero() {
		purchase.PurchasedAt = time.Now().UTC()
	}
	s.seq++
	purchase.ID = s.seq
	s.purchasesByID[purchase.ID] = purchase
	created := purchase
	return &created, nil
}

func (s *Store) ListPurchasesByUser(_ context.Context, userID int64) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Purchase, 0, 32)
	for _, purchase := range s.purchasesByID {
		if purchase.UserID != userID {
			continue
		}
		result = append(result, purchase)
	}
	sortPurchasesRecentFirst(result)
	return result, nil
}

func (s *Store) ListRecentPurchases(_ context.Context, warehouseID *int64, limit int) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Purchase, 0, 64)
	for _, purchase := range s.purchasesByID {
		if warehouseID != nil && purchase.WarehouseID != *warehouseID {
			continue
		}
		result = append(result, purchase)
	}
	sortPurchasesRecentFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) SalesSummary(_ context.Context, warehouseID *int64) (domain.SalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.SalesSummary{}
	byWarehouse := map[int64]*domain.WarehouseSales{}
	for _, purchase := range s.purchasesByID {
		if warehouseID != nil && purchase.WarehouseID != *warehouseID {
			continue
		}
		summary.Orders++
		summary.Items += purchase.Quantity
		summary.Revenue += purchase.TotalPrice

		entry := byWarehouse[purchase.WarehouseID]
		if entry == nil {
			entry = &domain.WarehouseSales{WarehouseID: purchase.WarehouseID, WarehouseName: purchase.WarehouseName}
			byWarehouse[purchase.WarehouseID] = entry
		}
		entry.Orders++
		entry.Items += purchase.Quantity
		entry.Revenue += purchase.TotalPrice
	}

	if warehouseID == nil {
		summary.Warehouses = make([]domain.WarehouseSales, 0, len(byWarehouse))
		for _, entry := range byWarehouse {
			summary.Warehouses = append(summary.Warehouses, *entry)
		}
		slices.SortFunc(summary.Warehouses, func(a, b domain.WarehouseSales) int {
			return cmpString(a.WarehouseName, b.WarehouseName)
		})
	}
	return summary, nil
}

func (s *Store) CreatePurchaseOrder(_ context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if po.Reference == "" || len(po.Items) == 0 {
		return nil, store.ErrValidation
	}
	for _, existing := range s.purchaseOrdersByID {
		if strings.EqualFold(existing.Reference, po.Reference) {
			return nil, store.ErrDuplicateReference
		}
	}
	if _, exists := s.warehousesByID[po.WarehouseID]; !exists {
		return nil, store.ErrNotFound
	}
	if po.CreatedAt.IsZero() {
		po.CreatedAt = time.Now().UTC()
	}
	if po.SubmittedAt.IsZero() {
		po.SubmittedAt = po.CreatedAt
	}
	if po.Status == "" {
		po.Status = domain.POStatusPendingVendor
	}

	s.seq++
	po.ID = s.seq
	items := make([]domain.PurchaseOrderItem, len(po.Items))
	copy(items, po.Items)
	for i := range items {
		s.seq++
		items[i].ID = s.seq
	}
	po.Items = items

	s.purchaseOrdersByID[po.ID] = clonePurchaseOrder(po)
	saved := clonePurchaseOrder(po)
	return &saved, nil
}

func (s *Store) UpdatePurchaseOrderStatus(_ context.Context, id int64, status string, notes string) (*domain.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	po, exists := s.purchaseOrdersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	po.Status = status
	po.Notes = notes
	s.purchaseOrdersByID[id] = po
	updated := clonePurchaseOrder(po)
	return &updated, nil
}

func (s *Store) GetPurchaseOrderByID(_ context.Context, id int64) (*domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	po, exists := s.purchaseOrdersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyPO := clonePurchaseOrder(po)
	return &copyPO, nil
}

func (s *Store) ReferenceExists(_ context.Context, reference string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, po := range s.purchaseOrdersByID {
		if strings.EqualFold(po.Reference, reference) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListPurchaseOrders(_ context.Context, warehouseID *int64, status string, limit int) ([]domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status = strings.ToUpper(strings.TrimSpace(status))
	result := make([]domain.PurchaseOrder, 0, len(s.purchaseOrdersByID))
	for _, po := range s.purchaseOrdersByID {
		if warehouseID != nil && po.WarehouseID != *warehouseID {
			continue
		}
		if status != "" && po.Status != status {
			continue
		}
		result = append(result, clonePurchaseOrder(po))
	}
	slices.SortFunc(result, func(a, b domain.PurchaseOrder) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpInt64(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) AggregateSalesDemand(_ context.Context, warehouseID *int64) (map[int64]domain.DemandAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.aggregateSalesLocked(time.Time{}, time.Time{}, warehouseID), nil
}

func (s *Store) AggregateSalesDemandBetween(_ context.Context, start, end time.Time, warehouseID *int64) (map[int64]domain.DemandAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.aggregateSalesLocked(start, end, warehouseID), nil
}

func (s *Store) aggregateSalesLocked(start, end time.Time, warehouseID *int64) map[int64]domain.DemandAggregate {
	result := make(map[int64]domain.DemandAggregate)
	for _, purchase := range s.purchasesByID {
		if warehouseID != nil && purchase.WarehouseID != *warehouseID {
			continue
		}
		if !start.IsZero() && purchase.PurchasedAt.Before(start) {
			continue
		}
		if !end.IsZero() && !purchase.PurchasedAt.Before(end) {
			continue
		}
		accumulate(result, purchase.ProductID, purchase.Quantity, purchase.TotalPrice, purchase.PurchasedAt)
	}
	return result
}

func (s *Store) AggregateRestockDemandBetween(_ context.Context, start, end time.Time, warehouseID *int64) (map[int64]domain.DemandAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]domain.DemandAggregate)
	for _, po := range s.purchaseOrdersByID {
		if warehouseID != nil && po.WarehouseID != *warehouseID {
			continue
		}
		if !start.IsZero() && po.SubmittedAt.Before(start) {
			continue
		}
		if !end.IsZero() && !po.SubmittedAt.Before(end) {
			continue
		}
		for _, item := range po.Items {
			accumulate(result, item.ProductID, item.Quantity, item.LineTotal, po.SubmittedAt)
		}
	}
	return result, nil
}

func accumulate(result map[int64]domain.DemandAggregate, productID int64, quantity int, amount float64, at time.Time) {
	agg := result[productID]
	agg.ProductID = productID
	agg.TotalQuantity += quantity
	agg.TotalAmount += amount
	ts := at
	if agg.Earliest == nil || ts.Before(*agg.Earliest) {
		agg.Earliest = &ts
	}
	if agg.Latest == nil || ts.After(*agg.Latest) {
		agg.Latest = &ts
	}
	result[productID] = agg
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = refgen.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from, to time.Time, limit int) ([]domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditEntry, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}
	slices.SortFunc(result, func(a, b domain.AuditEntry) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func sortPurchasesRecentFirst(purchases []domain.Purchase) {
	slices.SortFunc(purchases, func(a, b domain.Purchase) int {
		if a.PurchasedAt.Equal(b.PurchasedAt) {
			return cmpInt64(b.ID, a.ID)
		}
		if a.PurchasedAt.After(b.PurchasedAt) {
			return -1
		}
		return 1
	})
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cmpInt64(a int64, b int64) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func clonePurchaseOrder(src domain.PurchaseOrder) domain.PurchaseOrder {
	dup := src
	items := make([]domain.PurchaseOrderItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}
