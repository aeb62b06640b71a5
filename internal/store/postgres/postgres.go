package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"smartshelfx/backend/internal/domain"
	"smartshelfx/backend/internal/refgen"
	"smartshelfx/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || strings.TrimSpace(user.PasswordHash) == "" {
		return nil, store.ErrValidation
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	user.Active = true
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, full_name, password_hash, role, warehouse_id, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, user.Email, user.FullName, user.PasswordHash, user.Role, nullInt64(user.WarehouseID), user.Active, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}
	created := user
	return &created, nil
}

const userColumns = `id, email, full_name, password_hash, role, warehouse_id, active, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var user domain.User
	var warehouseID sql.NullInt64
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.Role, &warehouseID, &user.Active, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if warehouseID.Valid {
		id := warehouseID.Int64
		user.WarehouseID = &id
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email)))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 32)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

const addressColumns = `id, user_id, type, line1, coalesce(line2, ''), city, state, postal_code, country, created_at, updated_at`

func scanAddress(row interface{ Scan(...any) error }) (*domain.Address, error) {
	var address domain.Address
	err := row.Scan(&address.ID, &address.UserID, &address.Type, &address.Line1, &address.Line2,
		&address.City, &address.State, &address.PostalCode, &address.Country, &address.CreatedAt, &address.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (s *Store) GetUserAddress(ctx context.Context, userID int64, addressType string) (*domain.Address, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+addressColumns+` FROM user_addresses WHERE user_id = $1 AND type = $2
	`, userID, addressType)
	return scanAddress(row)
}

func (s *Store) UpsertUserAddress(ctx context.Context, address domain.Address) (*domain.Address, error) {
	if address.Line1 == "" || address.City == "" || address.State == "" || address.PostalCode == "" || address.Country == "" {
		return nil, store.ErrValidation
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_addresses (user_id, type, line1, line2, city, state, postal_code, country, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
		ON CONFLICT (user_id, type) DO UPDATE SET
			line1 = EXCLUDED.line1,
			line2 = EXCLUDED.line2,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`, address.UserID, address.Type, address.Line1, nullIfEmpty(address.Line2), address.City,
		address.State, address.PostalCode, address.Country).
		Scan(&address.ID, &address.CreatedAt, &address.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	saved := address
	return &saved, nil
}

func (s *Store) CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error) {
	warehouse.Name = strings.TrimSpace(warehouse.Name)
	warehouse.LocationCode = strings.ToUpper(strings.TrimSpace(warehouse.LocationCode))
	if warehouse.Name == "" || warehouse.LocationCode == "" {
		return nil, store.ErrValidation
	}
	warehouse.Active = true
	if warehouse.CreatedAt.IsZero() {
		warehouse.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO warehouses (name, location_code, active, created_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, warehouse.Name, warehouse.LocationCode, warehouse.Active, warehouse.CreatedAt).Scan(&warehouse.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}
	created := warehouse
	return &created, nil
}

func (s *Store) GetWarehouseByID(ctx context.Context, id int64) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, location_code, active, created_at FROM warehouses WHERE id = $1
	`, id).Scan(&warehouse.ID, &warehouse.Name, &warehouse.LocationCode, &warehouse.Active, &warehouse.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	warehouse.CreatedAt = warehouse.CreatedAt.UTC()
	return &warehouse, nil
}

func (s *Store) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, location_code, active, created_at FROM warehouses ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	warehouses := make([]domain.Warehouse, 0, 16)
	for rows.Next() {
		var warehouse domain.Warehouse
		if err := rows.Scan(&warehouse.ID, &warehouse.Name, &warehouse.LocationCode, &warehouse.Active, &warehouse.CreatedAt); err != nil {
			return nil, err
		}
		warehouse.CreatedAt = warehouse.CreatedAt.UTC()
		warehouses = append(warehouses, warehouse)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return warehouses, nil
}

const productColumns = `id, sku, name, category, vendor, current_stock, reorder_level, max_stock_level, price, auto_restock_enabled, warehouse_id, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Vendor, &p.CurrentStock, &p.ReorderLevel, &p.MaxStockLevel, &p.Price, &p.AutoRestockEnabled, &p.WarehouseID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.SKU = strings.ToUpper(strings.TrimSpace(product.SKU))
	product.Name = strings.TrimSpace(product.Name)
	if product.SKU == "" || product.Name == "" || product.CurrentStock < 0 || product.ReorderLevel < 0 || product.Price < 0 {
		return nil, store.ErrValidation
	}
	if product.MaxStockLevel > 0 && product.MaxStockLevel < product.ReorderLevel {
		return nil, store.ErrValidation
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (sku, name, category, vendor, current_stock, reorder_level, max_stock_level, price, auto_restock_enabled, warehouse_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
		RETURNING id, created_at, updated_at
	`, product.SKU, product.Name, product.Category, product.Vendor, product.CurrentStock, product.ReorderLevel,
		product.MaxStockLevel, product.Price, product.AutoRestockEnabled, product.WarehouseID).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *Store) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`,
		strings.ToUpper(strings.TrimSpace(sku)))
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.CurrentStock < 0 || product.ReorderLevel < 0 || product.Price < 0 {
		return nil, store.ErrValidation
	}
	if product.MaxStockLevel > 0 && product.MaxStockLevel < product.ReorderLevel {
		return nil, store.ErrValidation
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, vendor = $4, current_stock = $5, reorder_level = $6,
			max_stock_level = $7, price = $8, auto_restock_enabled = $9, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, product.Category, product.Vendor, product.CurrentStock,
		product.ReorderLevel, product.MaxStockLevel, product.Price, product.AutoRestockEnabled)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetProductByID(ctx, product.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := make([]any, 0, 4)
	if filter.WarehouseID != nil {
		args = append(args, *filter.WarehouseID)
		query += ` AND warehouse_id = $` + strconv.Itoa(len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += ` AND lower(category) = lower($` + strconv.Itoa(len(args)) + `)`
	}
	if filter.Vendor != "" {
		args = append(args, filter.Vendor)
		query += ` AND lower(vendor) = lower($` + strconv.Itoa(len(args)) + `)`
	}
	switch filter.StockStatus {
	case domain.StockStatusOut:
		query += ` AND current_stock = 0`
	case domain.StockStatusLow:
		query += ` AND current_stock > 0 AND current_stock <= reorder_level`
	case domain.StockStatusIn:
		query += ` AND current_stock > reorder_level`
	}
	query += ` ORDER BY category, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// CreatePurchase decrements product stock and records the sale in one
// serializable transaction so concurrent purchases can never oversell.
func (s *Store) CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	if purchase.Quantity < 1 {
		return nil, store.ErrValidation
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var currentStock int
	err = tx.QueryRowContext(ctx, `
		SELECT current_stock FROM products WHERE id = $1 FOR UPDATE
	`, purchase.ProductID).Scan(&currentStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if currentStock < purchase.Quantity {
		return nil, store.ErrInsufficientStock
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products SET current_stock = current_stock - $2, updated_at = now() WHERE id = $1
	`, purchase.ProductID, purchase.Quantity); err != nil {
		return nil, err
	}

	if purchase.PurchasedAt.IsZero() {
		purchase.PurchasedAt = time.Now().UTC()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO purchases (user_id, product_id, warehouse_id, product_name, product_sku,
			warehouse_name, warehouse_code, quantity, unit_price, total_price, purchased_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`, purchase.UserID, purchase.ProductID, purchase.WarehouseID, purchase.ProductName, purchase.ProductSKU,
		purchase.WarehouseName, purchase.WarehouseCode, purchase.Quantity, purchase.UnitPrice,
		purchase.TotalPrice, purchase.PurchasedAt).Scan(&purchase.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := purchase
	return &created, nil
}

const purchaseColumns = `id, user_id, product_id, warehouse_id, product_name, product_sku, warehouse_name, warehouse_code, quantity, unit_price, total_price, purchased_at`

func scanPurchase(row interface{ Scan(...any) error }) (*domain.Purchase, error) {
	var p domain.Purchase
	err := row.Scan(&p.ID, &p.UserID, &p.ProductID, &p.WarehouseID, &p.ProductName, &p.ProductSKU,
		&p.WarehouseName, &p.WarehouseCode, &p.Quantity, &p.UnitPrice, &p.TotalPrice, &p.PurchasedAt)
	if err != nil {
		return nil, err
	}
	p.PurchasedAt = p.PurchasedAt.UTC()
	return &p, nil
}

func (s *Store) ListPurchasesByUser(ctx context.Context, userID int64) ([]domain.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+purchaseColumns+` FROM purchases WHERE user_id = $1 ORDER BY purchased_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0, 32)
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) ListRecentPurchases(ctx context.Context, warehouseID *int64, limit int) ([]domain.Purchase, error) {
	if limit < 1 {
		limit = 50
	}
	query := `SELECT ` + purchaseColumns + ` FROM purchases`
	args := make([]any, 0, 2)
	if warehouseID != nil {
		args = append(args, *warehouseID)
		query += ` WHERE warehouse_id = $1`
	}
	args = append(args, limit)
	query += ` ORDER BY purchased_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0, limit)
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) SalesSummary(ctx context.Context, warehouseID *int64) (domain.SalesSummary, error) {
	summary := domain.SalesSummary{}

	query := `SELECT count(*), coalesce(sum(quantity), 0), coalesce(sum(total_price), 0) FROM purchases`
	args := make([]any, 0, 1)
	if warehouseID != nil {
		args = append(args, *warehouseID)
		query += ` WHERE warehouse_id = $1`
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&summary.Orders, &summary.Items, &summary.Revenue); err != nil {
		return summary, err
	}

	if warehouseID != nil {
		return summary, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT warehouse_id, warehouse_name, count(*), coalesce(sum(quantity), 0), coalesce(sum(total_price), 0)
		FROM purchases
		GROUP BY warehouse_id, warehouse_name
		ORDER BY warehouse_name
	`)
	if err != nil {
		return summary, err
	}
	defer rows.Close()

	for rows.Next() {
		var ws domain.WarehouseSales
		if err := rows.Scan(&ws.WarehouseID, &ws.WarehouseName, &ws.Orders, &ws.Items, &ws.Revenue); err != nil {
			return summary, err
		}
		summary.Warehouses = append(summary.Warehouses, ws)
	}
	if err := rows.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// CreatePurchaseOrder persists the order and all of its items atomically. The
// unique index on reference backs the generator's collision retry.
func (s *Store) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	if po.Reference == "" || len(po.Items) == 0 {
		return nil, store.ErrValidation
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

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO purchase_orders (reference, status, vendor_name, vendor_email, vendor_phone,
			vendor_contact_preference, notes, subtotal, tax, shipping, total, expected_delivery_date,
			submitted_at, created_at, warehouse_id, created_by_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id
	`, po.Reference, po.Status, po.VendorName, nullIfEmpty(po.VendorEmail), nullIfEmpty(po.VendorPhone),
		po.VendorContactPreference, nullIfEmpty(po.Notes), po.Subtotal, po.Tax, po.Shipping, po.Total,
		nullDate(po.ExpectedDeliveryDate), po.SubmittedAt, po.CreatedAt, po.WarehouseID, po.CreatedByID).Scan(&po.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateReference
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	for i := range po.Items {
		item := &po.Items[i]
		err = tx.QueryRowContext(ctx, `
			INSERT INTO purchase_order_items (purchase_order_id, product_id, product_name, product_sku, quantity, unit_price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`, po.ID, item.ProductID, item.ProductName, item.ProductSKU, item.Quantity, item.UnitPrice, item.LineTotal).Scan(&item.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := po
	return &created, nil
}

func (s *Store) UpdatePurchaseOrderStatus(ctx context.Context, id int64, status string, notes string) (*domain.PurchaseOrder, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE purchase_orders SET status = $2, notes = $3 WHERE id = $1
	`, id, status, nullIfEmpty(notes))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetPurchaseOrderByID(ctx, id)
}

const purchaseOrderColumns = `id, reference, status, vendor_name, coalesce(vendor_email, ''), coalesce(vendor_phone, ''), vendor_contact_preference, coalesce(notes, ''), subtotal, tax, shipping, total, expected_delivery_date, submitted_at, created_at, warehouse_id, created_by_id`

func scanPurchaseOrder(row interface{ Scan(...any) error }) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	var expected sql.NullTime
	err := row.Scan(&po.ID, &po.Reference, &po.Status, &po.VendorName, &po.VendorEmail, &po.VendorPhone,
		&po.VendorContactPreference, &po.Notes, &po.Subtotal, &po.Tax, &po.Shipping, &po.Total,
		&expected, &po.SubmittedAt, &po.CreatedAt, &po.WarehouseID, &po.CreatedByID)
	if err != nil {
		return nil, err
	}
	if expected.Valid {
		t := expected.Time.UTC()
		po.ExpectedDeliveryDate = &t
	}
	po.SubmittedAt = po.SubmittedAt.UTC()
	po.CreatedAt = po.CreatedAt.UTC()
	return &po, nil
}

func (s *Store) GetPurchaseOrderByID(ctx context.Context, id int64) (*domain.PurchaseOrder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id)
	po, err := scanPurchaseOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := s.loadPurchaseOrderItems(ctx, []*domain.PurchaseOrder{po}); err != nil {
		return nil, err
	}
	return po, nil
}

func (s *Store) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM purchase_orders WHERE upper(reference) = upper($1))
	`, reference).Scan(&exists)
	return exists, err
}

func (s *Store) ListPurchaseOrders(ctx context.Context, warehouseID *int64, status string, limit int) ([]domain.PurchaseOrder, error) {
	if limit < 1 {
		limit = 100
	}
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders WHERE 1=1`
	args := make([]any, 0, 3)
	if warehouseID != nil {
		args = append(args, *warehouseID)
		query += ` AND warehouse_id = $` + strconv.Itoa(len(args))
	}
	if status != "" {
		args = append(args, strings.ToUpper(strings.TrimSpace(status)))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*domain.PurchaseOrder, 0, limit)
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadPurchaseOrderItems(ctx, orders); err != nil {
		return nil, err
	}

	result := make([]domain.PurchaseOrder, 0, len(orders))
	for _, po := range orders {
		result = append(result, *po)
	}
	return result, nil
}

func (s *Store) loadPurchaseOrderItems(ctx context.Context, orders []*domain.PurchaseOrder) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*domain.PurchaseOrder, len(orders))
	for _, po := range orders {
		ids = append(ids, po.ID)
		byID[po.ID] = po
		po.Items = make([]domain.PurchaseOrderItem, 0, 4)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT purchase_order_id, id, product_id, product_name, product_sku, quantity, unit_price, line_total
		FROM purchase_order_items
		WHERE purchase_order_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var item domain.PurchaseOrderItem
		if err := rows.Scan(&orderID, &item.ID, &item.ProductID, &item.ProductName, &item.ProductSKU,
			&item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return err
		}
		if po, ok := byID[orderID]; ok {
			po.Items = append(po.Items, item)
		}
	}
	return rows.Err()
}

func (s *Store) AggregateSalesDemand(ctx context.Context, warehouseID *int64) (map[int64]domain.DemandAggregate, error) {
	query := `
		SELECT product_id, coalesce(sum(quantity), 0), coalesce(sum(total_price), 0), min(purchased_at), max(purchased_at)
		FROM purchases`
	args := make([]any, 0, 1)
	if warehouseID != nil {
		args = append(args, *warehouseID)
		query += ` WHERE warehouse_id = $1`
	}
	query += ` GROUP BY product_id`
	return s.queryAggregates(ctx, query, args...)
}

func (s *Store) AggregateSalesDemandBetween(ctx context.Context, start, end time.Time, warehouseID *int64) (map[int64]domain.DemandAggregate, error) {
	query := `
		SELECT product_id, coalesce(sum(quantity), 0), coalesce(sum(total_price), 0), min(purchased_at), max(purchased_at)
		FROM purchases
		WHERE purchased_at >= $1 AND purchased_at < $2`
	args := []any{start, end}
	if warehouseID != nil {
		args = append(args, *warehouseID)
		query += ` AND warehouse_id = $3`
	}
	query += ` GROUP BY product_id`
	return s.queryAggregates(ctx, query, args...)
}

func (s *Store) AggregateRestockDemandBetween(ctx context.Context, start, end time.Time, warehouseID *int64) (map[int64]domain.DemandAggregate, error) {
	query := `
		SELECT i.product_id, coalesce(sum(i.quantity), 0), coalesce(sum(i.line_total), 0), min(o.submitted_at), max(o.submitted_at)
		FROM purchase_order_items i
		JOIN purchase_orders o ON o.id = i.purchase_order_id
		WHERE o.submitted_at >= $1 AND o.submitted_at < $2`
	args := []any{start, end}
	if warehouseID != nil {
		args = append(args, *warehouseID)
		query += ` AND o.warehouse_id = $3`
	}
	query += ` GROUP BY i.product_id`
	return s.queryAggregates(ctx, query, args...)
}

func (s *Store) queryAggregates(ctx context.Context, query string, args ...any) (map[int64]domain.DemandAggregate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64]domain.DemandAggregate)
	for rows.Next() {
		var agg domain.DemandAggregate
		var earliest, latest sql.NullTime
		if err := rows.Scan(&agg.ProductID, &agg.TotalQuantity, &agg.TotalAmount, &earliest, &latest); err != nil {
			return nil, err
		}
		if earliest.Valid {
			t := earliest.Time.UTC()
			agg.Earliest = &t
		}
		if latest.Valid {
			t := latest.Time.UTC()
			agg.Latest = &t
		}
		result[agg.ProductID] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = refgen.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor, action, entity, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.Actor, entry.Action, entry.Entity, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.AuditEntry, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, entity, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0, limit)
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &entry.Entity, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullDate(val *time.Time) any {
	if val == nil {
		return nil
	}
	return time.Date(val.UTC().Year(), val.UTC().Month(), val.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func nullInt64(val *int64) any {
	if val == nil {
		return nil
	}
	return *val
}
