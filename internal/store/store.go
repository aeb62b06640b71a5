package store

import (
	"context"
	"errors"
	"time"

	"smartshelfx/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrDuplicateReference = errors.New("duplicate reference")
)

type Repository interface {
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)

	GetUserAddress(ctx context.Context, userID int64, addressType string) (*domain.Address, error)
	UpsertUserAddress(ctx context.Context, address domain.Address) (*domain.Address, error)

	CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error)
	GetWarehouseByID(ctx context.Context, id int64) (*domain.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]domain.Warehouse, error)

	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)

	CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error)
	ListPurchasesByUser(ctx context.Context, userID int64) ([]domain.Purchase, error)
	ListRecentPurchases(ctx context.Context, warehouseID *int64, limit int) ([]domain.Purchase, error)
	SalesSummary(ctx context.Context, warehouseID *int64) (domain.SalesSummary, error)

	CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error)
	UpdatePurchaseOrderStatus(ctx context.Context, id int64, status string, notes string) (*domain.PurchaseOrder, error)
	GetPurchaseOrderByID(ctx context.Context, id int64) (*domain.PurchaseOrder, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	ListPurchaseOrders(ctx context.Context, warehouseID *int64, status string, limit int) ([]domain.PurchaseOrder, error)

	AggregateSalesDemand(ctx context.Context, warehouseID *int64) (map[int64]domain.DemandAggregate, error)
	AggregateSalesDemandBetween(ctx context.Context, start, end time.Time, warehouseID *int64) (map[int64]domain.DemandAggregate, error)
	AggregateRestockDemandBetween(ctx context.Context, start, end time.Time, warehouseID *int64) (map[int64]domain.DemandAggregate, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditEntry) error
	ListAuditLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.AuditEntry, error)
}
