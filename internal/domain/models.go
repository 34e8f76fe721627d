package domain

import "time"

type Product struct {
	ID                 string    `json:"id"`
	SKU                string    `json:"sku"`
	Name               string    `json:"name"`
	Category           string    `json:"category"`
	Size               string    `json:"size,omitempty"`
	Color              string    `json:"color,omitempty"`
	PurchasePriceCents int64     `json:"purchase_price_cents"`
	SalesPriceCents    int64     `json:"sales_price_cents"`
	TaxRatePercent     float64   `json:"tax_rate_percent"`
	StockQty           int       `json:"stock_qty"`
	LowStockThreshold  int       `json:"low_stock_threshold"`
	Description        string    `json:"description,omitempty"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ProductCreateRequest struct {
	SKU                string  `json:"sku"`
	Name               string  `json:"name"`
	Category           string  `json:"category"`
	Size               string  `json:"size"`
	Color              string  `json:"color"`
	PurchasePriceCents int64   `json:"purchase_price_cents"`
	SalesPriceCents    int64   `json:"sales_price_cents"`
	TaxRatePercent     float64 `json:"tax_rate_percent"`
	InitialStock       int     `json:"initial_stock"`
	LowStockThreshold  int     `json:"low_stock_threshold"`
	Description        string  `json:"description"`
}

type ProductUpdateRequest struct {
	Name               *string  `json:"name,omitempty"`
	Category           *string  `json:"category,omitempty"`
	Size               *string  `json:"size,omitempty"`
	Color              *string  `json:"color,omitempty"`
	PurchasePriceCents *int64   `json:"purchase_price_cents,omitempty"`
	SalesPriceCents    *int64   `json:"sales_price_cents,omitempty"`
	TaxRatePercent     *float64 `json:"tax_rate_percent,omitempty"`
	StockQty           *int     `json:"stock_qty,omitempty"`
	LowStockThreshold  *int     `json:"low_stock_threshold,omitempty"`
	Description        *string  `json:"description,omitempty"`
	Active             *bool    `json:"active,omitempty"`
}

type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	LoyaltyPoints int       `json:"loyalty_points"`
	CreatedAt     time.Time `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CustomerUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type CustomerPointsAdjustRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

type PromoCode struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	DiscountType string    `json:"discount_type"`
	Value        int64     `json:"value"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type PromoCreateRequest struct {
	Code         string `json:"code"`
	DiscountType string `json:"discount_type"`
	Value        int64  `json:"value"`
}

type PromoToggleRequest struct {
	Active bool `json:"active"`
}

type PromoValidateResponse struct {
	Valid         bool       `json:"valid"`
	Promo         *PromoCode `json:"promo,omitempty"`
	DiscountCents int64      `json:"discount_cents"`
}

// SaleItem captures the product name and price at sale time so the
// historical record survives later product renames and repricing.
type SaleItem struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type Sale struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"customer_id,omitempty"`
	CashierUsername string     `json:"cashier_username"`
	SubtotalCents   int64      `json:"subtotal_cents"`
	DiscountCents   int64      `json:"discount_cents"`
	TotalCents      int64      `json:"total_cents"`
	PromoCodeID     string     `json:"promo_code_id,omitempty"`
	PointsUsed      int        `json:"points_used"`
	PointsEarned    int        `json:"points_earned"`
	PaymentMethod   string     `json:"payment_method"`
	Status          string     `json:"status"`
	RefundedAt      *time.Time `json:"refunded_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Items           []SaleItem `json:"items"`
}

type SaleLineRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type SaleCreateRequest struct {
	CustomerID    string            `json:"customer_id,omitempty"`
	PaymentMethod string            `json:"payment_method"`
	PromoCode     string            `json:"promo_code,omitempty"`
	DiscountCents int64             `json:"discount_cents"`
	PointsUsed    int               `json:"points_used"`
	Items         []SaleLineRequest `json:"items"`
}

type Expense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	SpentAt     time.Time `json:"spent_at"`
	RecordedBy  string    `json:"recorded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type ExpenseCreateRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	SpentAt     string `json:"spent_at,omitempty"`
}

type ProductLabelResponse struct {
	ProductID       string `json:"product_id"`
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	SalesPriceCents int64  `json:"sales_price_cents"`
	PNGBase64       string `json:"png_base64"`
	FileName        string `json:"file_name"`
}

type SalesReportPayment struct {
	PaymentMethod string `json:"payment_method"`
	Sales         int64  `json:"sales"`
	TotalCents    int64  `json:"total_cents"`
}

type SalesReportProduct struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	QtySold      int64  `json:"qty_sold"`
	RevenueCents int64  `json:"revenue_cents"`
}

// SalesReport aggregates by created_at only; refunded sales remain in the
// revenue totals and are surfaced separately via RefundedSales.
type SalesReport struct {
	From            string               `json:"from"`
	To              string               `json:"to"`
	Sales           int64                `json:"sales"`
	RefundedSales   int64                `json:"refunded_sales"`
	GrossSalesCents int64                `json:"gross_sales_cents"`
	DiscountCents   int64                `json:"discount_cents"`
	NetSalesCents   int64                `json:"net_sales_cents"`
	ExpenseCents    int64                `json:"expense_cents"`
	ByPayment       []SalesReportPayment `json:"by_payment"`
	TopProducts     []SalesReportProduct `json:"top_products"`
}

type DashboardSummary struct {
	Date              string    `json:"date"`
	TodaySales        int64     `json:"today_sales"`
	TodayRevenueCents int64     `json:"today_revenue_cents"`
	ProductCount      int64     `json:"product_count"`
	CustomerCount     int64     `json:"customer_count"`
	LowStockProducts  []Product `json:"low_stock_products"`
	RecentSales       []Sale    `json:"recent_sales"`
	GeneratedAt       string    `json:"generated_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	SaleStatusCompleted = "completed"
	SaleStatusRefunded  = "refunded"
)

const (
	PromoTypePercentage = "percentage"
	PromoTypeFixed      = "fixed"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)
