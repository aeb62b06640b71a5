package domain

import "time"

const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleUser    = "USER"
)

const (
	POStatusDraft              = "DRAFT"
	POStatusPendingVendor      = "PENDING_VENDOR_APPROVAL"
	POStatusSentToVendor       = "SENT_TO_VENDOR"
	POStatusNotificationFailed = "NOTIFICATION_FAILED"
)

const (
	ContactPreferenceEmail = "EMAIL"
	ContactPreferenceSMS   = "SMS"
	ContactPreferenceBoth  = "BOTH"
)

const (
	StockStatusOut = "OUT_OF_STOCK"
	StockStatusLow = "LOW_STOCK"
	StockStatusIn  = "IN_STOCK"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	WarehouseID  *int64    `json:"warehouse_id,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Warehouse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	LocationCode string    `json:"location_code"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type WarehouseCreateRequest struct {
	Name         string `json:"name"`
	LocationCode string `json:"location_code"`
}

type Product struct {
	ID                 int64     `json:"id"`
	SKU                string    `json:"sku"`
	Name               string    `json:"name"`
	Category           string    `json:"category"`
	Vendor             string    `json:"vendor"`
	CurrentStock       int       `json:"current_stock"`
	ReorderLevel       int       `json:"reorder_level"`
	MaxStockLevel      int       `json:"max_stock_level"`
	Price              float64   `json:"price"`
	AutoRestockEnabled bool      `json:"auto_restock_enabled"`
	WarehouseID        int64     `json:"warehouse_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ProductCreateRequest struct {
	SKU                string  `json:"sku"`
	Name               string  `json:"name"`
	Category           string  `json:"category"`
	Vendor             string  `json:"vendor"`
	CurrentStock       int     `json:"current_stock"`
	ReorderLevel       int     `json:"reorder_level"`
	MaxStockLevel      int     `json:"max_stock_level"`
	Price              float64 `json:"price"`
	AutoRestockEnabled bool    `json:"auto_restock_enabled"`
	WarehouseID        *int64  `json:"warehouse_id,omitempty"`
}

type ProductUpdateRequest struct {
	Name               *string  `json:"name,omitempty"`
	Category           *string  `json:"category,omitempty"`
	Vendor             *string  `json:"vendor,omitempty"`
	CurrentStock       *int     `json:"current_stock,omitempty"`
	ReorderLevel       *int     `json:"reorder_level,omitempty"`
	MaxStockLevel      *int     `json:"max_stock_level,omitempty"`
	Price              *float64 `json:"price,omitempty"`
	AutoRestockEnabled *bool    `json:"auto_restock_enabled,omitempty"`
}

type ProductFilter struct {
	WarehouseID *int64
	Category    string
	Vendor      string
	StockStatus string
}

type Purchase struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	ProductID     int64     `json:"product_id"`
	WarehouseID   int64     `json:"warehouse_id"`
	ProductName   string    `json:"product_name"`
	ProductSKU    string    `json:"product_sku"`
	WarehouseName string    `json:"warehouse_name"`
	WarehouseCode string    `json:"warehouse_code"`
	Quantity      int       `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	TotalPrice    float64   `json:"total_price"`
	PurchasedAt   time.Time `json:"purchased_at"`
}

type PurchaseRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type PurchaseHistory struct {
	Purchases  []Purchase `json:"purchases"`
	TotalSpend float64    `json:"total_spend"`
}

type WarehouseSales struct {
	WarehouseID   int64   `json:"warehouse_id"`
	WarehouseName string  `json:"warehouse_name"`
	Orders        int     `json:"orders"`
	Items         int     `json:"items"`
	Revenue       float64 `json:"revenue"`
}

type SalesSummary struct {
	Orders     int              `json:"orders"`
	Items      int              `json:"items"`
	Revenue    float64          `json:"revenue"`
	Warehouses []WarehouseSales `json:"warehouses,omitempty"`
}

type PurchaseOrderItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	ProductSKU  string  `json:"product_sku"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

type PurchaseOrder struct {
	ID                      int64               `json:"id"`
	Reference               string              `json:"reference"`
	Status                  string              `json:"status"`
	VendorName              string              `json:"vendor_name"`
	VendorEmail             string              `json:"vendor_email,omitempty"`
	VendorPhone             string              `json:"vendor_phone,omitempty"`
	VendorContactPreference string              `json:"vendor_contact_preference"`
	Notes                   string              `json:"notes,omitempty"`
	Subtotal                float64             `json:"subtotal"`
	Tax                     float64             `json:"tax"`
	Shipping                float64             `json:"shipping"`
	Total                   float64             `json:"total"`
	ExpectedDeliveryDate    *time.Time          `json:"expected_delivery_date,omitempty"`
	SubmittedAt             time.Time           `json:"submitted_at"`
	CreatedAt               time.Time           `json:"created_at"`
	WarehouseID             int64               `json:"warehouse_id"`
	CreatedByID             int64               `json:"created_by_id"`
	Items                   []PurchaseOrderItem `json:"items"`
}

type PurchaseOrderItemRequest struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type PurchaseOrderCreateRequest struct {
	WarehouseID             *int64                     `json:"warehouse_id,omitempty"`
	VendorName              string                     `json:"vendor_name"`
	VendorEmail             string                     `json:"vendor_email,omitempty"`
	VendorPhone             string                     `json:"vendor_phone,omitempty"`
	VendorContactPreference string                     `json:"vendor_contact_preference,omitempty"`
	Notes                   string                     `json:"notes,omitempty"`
	ExpectedDeliveryDate    *string                    `json:"expected_delivery_date,omitempty"`
	Items                   []PurchaseOrderItemRequest `json:"items"`
	SendEmail               bool                       `json:"send_email"`
	SendSMS                 bool                       `json:"send_sms"`
}

type DemandAggregate struct {
	ProductID     int64      `json:"product_id"`
	TotalQuantity int        `json:"total_quantity"`
	TotalAmount   float64    `json:"total_amount"`
	Earliest      *time.Time `json:"earliest,omitempty"`
	Latest        *time.Time `json:"latest,omitempty"`
}

type RestockRecommendation struct {
	ProductID         int64   `json:"product_id"`
	ProductName       string  `json:"product_name"`
	SKU               string  `json:"sku"`
	Category          string  `json:"category"`
	Vendor            string  `json:"vendor"`
	Price             float64 `json:"price"`
	WarehouseID       int64   `json:"warehouse_id"`
	WarehouseName     string  `json:"warehouse_name"`
	CurrentStock      int     `json:"current_stock"`
	ReorderLevel      int     `json:"reorder_level"`
	MaxStockLevel     int     `json:"max_stock_level"`
	DailyDemand       float64 `json:"daily_demand"`
	DaysUntilStockout float64 `json:"days_until_stockout"`
	SuggestedQuantity int     `json:"suggested_quantity"`
	AutoRestock       bool    `json:"auto_restock"`
	Reason            string  `json:"reason"`
}

type RestockFilter struct {
	WarehouseID     *int64
	Category        string
	StockStatus     string
	AutoRestockOnly bool
}

type ForecastPoint struct {
	WeekStart time.Time `json:"week_start"`
	Value     float64   `json:"value"`
}

type ForecastItem struct {
	ProductID          int64           `json:"product_id"`
	ProductName        string          `json:"product_name"`
	SKU                string          `json:"sku"`
	CurrentStock       int             `json:"current_stock"`
	ReorderLevel       int             `json:"reorder_level"`
	TotalSold          int             `json:"total_sold"`
	WeeklyRunRate      float64         `json:"weekly_run_rate"`
	Forecast           float64         `json:"forecast"`
	AtRisk             bool            `json:"at_risk"`
	RecommendedReorder int             `json:"recommended_reorder"`
	RelativeDemand     float64         `json:"relative_demand"`
	Action             string          `json:"action"`
	History            []ForecastPoint `json:"history"`
}

type InventoryStatusSummary struct {
	TotalProducts    int `json:"total_products"`
	TotalUnits       int `json:"total_units"`
	LowStock         int `json:"low_stock"`
	OutOfStock       int `json:"out_of_stock"`
	AutoRestockCount int `json:"auto_restock_count"`
}

type StatusSlice struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type MonthlyTrendPoint struct {
	Month           string  `json:"month"`
	RestockQuantity int     `json:"restock_quantity"`
	SalesQuantity   int     `json:"sales_quantity"`
	RestockAmount   float64 `json:"restock_amount"`
	SalesAmount     float64 `json:"sales_amount"`
}

type TopRestockedItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
}

type DemandComparison struct {
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name"`
	SKU             string `json:"sku"`
	RestockQuantity int    `json:"restock_quantity"`
	SalesQuantity   int    `json:"sales_quantity"`
}

type AnalyticsDashboard struct {
	Scope              string                 `json:"scope"`
	Inventory          InventoryStatusSummary `json:"inventory"`
	StatusDistribution []StatusSlice          `json:"status_distribution"`
	MonthlyTrends      []MonthlyTrendPoint    `json:"monthly_trends"`
	TopRestocked       []TopRestockedItem     `json:"top_restocked"`
	DemandComparison   []DemandComparison     `json:"demand_comparison"`
	GeneratedAt        time.Time              `json:"generated_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	User      User   `json:"user"`
}

const (
	AddressTypeDelivery = "DELIVERY"
	AddressTypeBilling  = "BILLING"
)

type Address struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	Type       string    `json:"type"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type AddressPayload struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// AddressBookUpdateRequest upserts one or both address slots. A nil slot is
// left untouched.
type AddressBookUpdateRequest struct {
	Delivery *AddressPayload `json:"delivery,omitempty"`
	Billing  *AddressPayload `json:"billing,omitempty"`
}

type AddressBook struct {
	Delivery *Address `json:"delivery"`
	Billing  *Address `json:"billing"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type Actor struct {
	UserID      int64
	Email       string
	Role        string
	WarehouseID *int64
}

type AuditEntry struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
