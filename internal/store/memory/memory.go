package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bajupos/backend/internal/domain"
	"bajupos/backend/internal/store"
	"bajupos/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	productsBySKU   map[string]string
	customersByID   map[string]domain.Customer
	promosByID      map[string]domain.PromoCode
	promosByCode    map[string]string
	salesByID       map[string]*domain.Sale
	expensesByID    map[string]domain.Expense
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"cashier", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()
	products := []domain.Product{
		{SKU: "BJ-KAOS-HTM-M", Name: "Kaos Polos Hitam", Category: "kaos", Size: "M", Color: "hitam", PurchasePriceCents: 3500, SalesPriceCents: 7900, StockQty: 40, LowStockThreshold: 5},
		{SKU: "BJ-KAOS-PTH-L", Name: "Kaos Polos Putih", Category: "kaos", Size: "L", Color: "putih", PurchasePriceCents: 3500, SalesPriceCents: 7900, StockQty: 35, LowStockThreshold: 5},
		{SKU: "BJ-KMJ-FLN-M", Name: "Kemeja Flanel Kotak", Category: "kemeja", Size: "M", Color: "merah", PurchasePriceCents: 9000, SalesPriceCents: 18900, StockQty: 20, LowStockThreshold: 3},
		{SKU: "BJ-KMJ-OXF-L", Name: "Kemeja Oxford Biru", Category: "kemeja", Size: "L", Color: "biru", PurchasePriceCents: 11000, SalesPriceCents: 22900, StockQty: 18, LowStockThreshold: 3},
		{SKU: "BJ-JNS-SLM-32", Name: "Celana Jeans Slim", Category: "celana", Size: "32", Color: "biru tua", PurchasePriceCents: 14000, SalesPriceCents: 28900, StockQty: 25, LowStockThreshold: 4},
		{SKU: "BJ-CHN-KHK-30", Name: "Celana Chino Khaki", Category: "celana", Size: "30", Color: "khaki", PurchasePriceCents: 12000, SalesPriceCents: 24900, StockQty: 22, LowStockThreshold: 4},
		{SKU: "BJ-JKT-HDY-L", Name: "Jaket Hoodie Abu", Category: "jaket", Size: "L", Color: "abu", PurchasePriceCents: 16000, SalesPriceCents: 32900, StockQty: 15, LowStockThreshold: 3},
		{SKU: "BJ-JKT-DNM-M", Name: "Jaket Denim", Category: "jaket", Size: "M", Color: "biru", PurchasePriceCents: 19000, SalesPriceCents: 38900, StockQty: 10, LowStockThreshold: 2},
		{SKU: "BJ-DRS-MID-S", Name: "Dress Midi Floral", Category: "dress", Size: "S", Color: "krem", PurchasePriceCents: 15000, SalesPriceCents: 31900, StockQty: 12, LowStockThreshold: 3},
		{SKU: "BJ-ROK-PLS-M", Name: "Rok Plisket", Category: "rok", Size: "M", Color: "hitam", PurchasePriceCents: 8000, SalesPriceCents: 16900, StockQty: 16, LowStockThreshold: 3},
		{SKU: "BJ-TOP-BLS-S", Name: "Blouse Satin", Category: "atasan", Size: "S", Color: "sage", PurchasePriceCents: 9500, SalesPriceCents: 19900, StockQty: 14, LowStockThreshold: 3},
		{SKU: "BJ-ACS-TPI-U", Name: "Topi Baseball", Category: "aksesoris", Size: "all", Color: "navy", PurchasePriceCents: 3000, SalesPriceCents: 6900, StockQty: 30, LowStockThreshold: 5},
	}

	productMap := make(map[string]domain.Product, len(products))
	bySKU := make(map[string]string, len(products))
	for _, p := range products {
		p.ID = xid.New("prod")
		p.Active = true
		p.CreatedAt = now
		p.UpdatedAt = now
		productMap[p.ID] = p
		bySKU[p.SKU] = p.ID
	}

	customers := []domain.Customer{
		{Name: "Dewi Lestari", Email: "dewi@example.com", Phone: "0812-1111-2222", LoyaltyPoints: 25},
		{Name: "Budi Santoso", Email: "budi@example.com", Phone: "0813-3333-4444", LoyaltyPoints: 10},
		{Name: "Siti Rahma", Email: "", Phone: "0821-5555-6666", LoyaltyPoints: 0},
	}
	customerMap := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		c.ID = xid.New("cust")
		c.CreatedAt = now
		customerMap[c.ID] = c
	}

	promos := []domain.PromoCode{
		{Code: "DISKON10", DiscountType: domain.PromoTypePercentage, Value: 10},
		{Code: "HEMAT5K", DiscountType: domain.PromoTypeFixed, Value: 5000},
	}
	promoMap := make(map[string]domain.PromoCode, len(promos))
	promoByCode := make(map[string]string, len(promos))
	for _, promo := range promos {
		promo.ID = xid.New("promo")
		promo.Active = true
		promo.CreatedAt = now
		promoMap[promo.ID] = promo
		promoByCode[promo.Code] = promo.ID
	}

	return &Store{
		products:        productMap,
		productsBySKU:   bySKU,
		customersByID:   customerMap,
		promosByID:      promoMap,
		promosByCode:    promoByCode,
		salesByID:       make(map[string]*domain.Sale),
		expensesByID:    make(map[string]domain.Expense),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !includeInactive && !p.Active {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})

	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.SKU == "" || product.Name == "" || product.Category == "" || product.SalesPriceCents < 1 {
		return nil, store.ErrInvalidSale
	}
	if _, exists := s.productsBySKU[product.SKU]; exists {
		return nil, store.ErrInvalidSale
	}

	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	now := time.Now().UTC()
	product.Active = true
	product.CreatedAt = now
	product.UpdatedAt = now

	s.products[product.ID] = product
	s.productsBySKU[product.SKU] = product.ID
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.Category == "" || product.SalesPriceCents < 1 {
		return nil, store.ErrInvalidSale
	}
	existing, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if product.SKU != existing.SKU {
		if _, taken := s.productsBySKU[product.SKU]; taken {
			return nil, store.ErrInvalidSale
		}
		delete(s.productsBySKU, existing.SKU)
		s.productsBySKU[product.SKU] = product.ID
	}

	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeactivateProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return store.ErrNotFound
	}
	product.Active = false
	product.UpdatedAt = time.Now().UTC()
	s.products[id] = product
	return nil
}

func (s *Store) ListLowStockProducts(_ context.Context, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 20
	}

	products := make([]domain.Product, 0, limit)
	for _, p := range s.products {
		if !p.Active || p.StockQty > p.LowStockThreshold {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.StockQty == b.StockQty {
			return cmpString(a.Name, b.Name)
		}
		if a.StockQty < b.StockQty {
			return -1
		}
		return 1
	})
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		if a.Name == b.Name {
			return cmpString(a.ID, b.ID)
		}
		return cmpString(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrInvalidSale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	s.customersByID[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrInvalidSale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.customersByID[customer.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	existing.Name = customer.Name
	existing.Email = customer.Email
	existing.Phone = customer.Phone
	s.customersByID[customer.ID] = existing
	updated := existing
	return &updated, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customersByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.customersByID, id)
	return nil
}

func (s *Store) AdjustPoints(_ context.Context, customerID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, exists := s.customersByID[customerID]
	if !exists {
		return store.ErrNotFound
	}
	customer.LoyaltyPoints += delta
	s.customersByID[customerID] = customer
	return nil
}

func (s *Store) CreatePromoCode(_ context.Context, promo domain.PromoCode) (*domain.PromoCode, error) {
	promo.Code = strings.ToUpper(strings.TrimSpace(promo.Code))
	if promo.Code == "" {
		return nil, store.ErrInvalidSale
	}
	if promo.DiscountType != domain.PromoTypePercentage && promo.DiscountType != domain.PromoTypeFixed {
		return nil, store.ErrInvalidSale
	}
	if promo.Value < 1 {
		return nil, store.ErrInvalidSale
	}
	if promo.DiscountType == domain.PromoTypePercentage && promo.Value > 100 {
		return nil, store.ErrInvalidSale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.promosByCode[promo.Code]; exists {
		return nil, store.ErrInvalidSale
	}
	if promo.ID == "" {
		promo.ID = xid.New("promo")
	}
	if promo.CreatedAt.IsZero() {
		promo.CreatedAt = time.Now().UTC()
	}
	promo.Active = true
	s.promosByID[promo.ID] = promo
	s.promosByCode[promo.Code] = promo.ID
	saved := promo
	return &saved, nil
}

func (s *Store) ListPromoCodes(_ context.Context) ([]domain.PromoCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	promos := make([]domain.PromoCode, 0, len(s.promosByID))
	for _, promo := range s.promosByID {
		promos = append(promos, promo)
	}
	slices.SortFunc(promos, func(a, b domain.PromoCode) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return promos, nil
}

func (s *Store) GetPromoCodeByCode(_ context.Context, code string) (*domain.PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	s.mu.RLock()
	defer s.mu.RUnlock()

	promoID, exists := s.promosByCode[code]
	if !exists {
		return nil, store.ErrNotFound
	}
	promo := s.promosByID[promoID]
	copyPromo := promo
	return &copyPromo, nil
}

func (s *Store) UpdatePromoActive(_ context.Context, promoID string, active bool) (*domain.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	promo, exists := s.promosByID[promoID]
	if !exists {
		return nil, store.ErrNotFound
	}
	promo.Active = active
	s.promosByID[promoID] = promo
	copyPromo := promo
	return &copyPromo, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(sale.CashierUsername) == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalidSale
	}
	for _, item := range sale.Items {
		if item.ProductID == "" || item.Qty < 1 {
			return nil, store.ErrInvalidSale
		}
		if _, exists := s.products[item.ProductID]; !exists {
			return nil, fmt.Errorf("%w: unknown product %s", store.ErrInvalidSale, item.ProductID)
		}
	}
	if sale.CustomerID != "" {
		if _, exists := s.customersByID[sale.CustomerID]; !exists {
			return nil, fmt.Errorf("%w: unknown customer %s", store.ErrInvalidSale, sale.CustomerID)
		}
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.Status == "" {
		sale.Status = domain.SaleStatusCompleted
	}

	// All mutations happen under one lock hold, the in-memory equivalent of
	// the single-transaction guarantee in postgres.
	for _, item := range sale.Items {
		product := s.products[item.ProductID]
		product.StockQty -= item.Qty
		product.UpdatedAt = sale.CreatedAt
		s.products[item.ProductID] = product
	}
	if sale.CustomerID != "" {
		customer := s.customersByID[sale.CustomerID]
		customer.LoyaltyPoints += sale.PointsEarned - sale.PointsUsed
		s.customersByID[sale.CustomerID] = customer
	}

	s.salesByID[sale.ID] = cloneSale(&sale)
	return cloneSale(s.salesByID[sale.ID]), nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) ListSales(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}

	result := make([]domain.Sale, 0, limit)
	for _, sale := range s.salesByID {
		if sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}
		result = append(result, *cloneSale(sale))
	}
	slices.SortFunc(result, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) RefundSale(_ context.Context, id string, at time.Time) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.Status != domain.SaleStatusCompleted {
		return nil, store.ErrAlreadyRefunded
	}
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: sale has no line items", store.ErrInvalidSale)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	for _, item := range sale.Items {
		product, ok := s.products[item.ProductID]
		if !ok {
			continue
		}
		product.StockQty += item.Qty
		product.UpdatedAt = at
		s.products[item.ProductID] = product
	}
	if sale.CustomerID != "" {
		if customer, ok := s.customersByID[sale.CustomerID]; ok {
			customer.LoyaltyPoints += sale.PointsUsed - sale.PointsEarned
			s.customersByID[sale.CustomerID] = customer
		}
	}

	sale.Status = domain.SaleStatusRefunded
	sale.RefundedAt = &at
	return cloneSale(sale), nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	if strings.TrimSpace(expense.Description) == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalidSale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	if expense.SpentAt.IsZero() {
		expense.SpentAt = expense.CreatedAt
	}
	s.expensesByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}

	result := make([]domain.Expense, 0, limit)
	for _, e := range s.expensesByID {
		if e.SpentAt.Before(from) || !e.SpentAt.Before(to) {
			continue
		}
		result = append(result, e)
	}
	slices.SortFunc(result, func(a, b domain.Expense) int {
		if a.SpentAt.Equal(b.SpentAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.SpentAt.After(b.SpentAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expensesByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.expensesByID, id)
	return nil
}

func (s *Store) GetSalesReport(_ context.Context, from time.Time, to time.Time) (domain.SalesReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.SalesReport{
		ByPayment:   make([]domain.SalesReportPayment, 0, 4),
		TopProducts: make([]domain.SalesReportProduct, 0, 5),
	}
	byPayment := map[string]*domain.SalesReportPayment{}
	byProduct := map[string]*domain.SalesReportProduct{}

	for _, sale := range s.salesByID {
		if sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}

		report.Sales++
		if sale.Status == domain.SaleStatusRefunded {
			report.RefundedSales++
		}
		report.GrossSalesCents += sale.SubtotalCents
		report.DiscountCents += sale.DiscountCents
		report.NetSalesCents += sale.TotalCents

		payment := byPayment[sale.PaymentMethod]
		if payment == nil {
			payment = &domain.SalesReportPayment{PaymentMethod: sale.PaymentMethod}
			byPayment[sale.PaymentMethod] = payment
		}
		payment.Sales++
		payment.TotalCents += sale.TotalCents

		for _, item := range sale.Items {
			product := byProduct[item.ProductID]
			if product == nil {
				product = &domain.SalesReportProduct{ProductID: item.ProductID, ProductName: item.ProductName}
				byProduct[item.ProductID] = product
			}
			product.QtySold += int64(item.Qty)
			product.RevenueCents += item.LineTotalCents
		}
	}

	for _, e := range s.expensesByID {
		if e.SpentAt.Before(from) || !e.SpentAt.Before(to) {
			continue
		}
		report.ExpenseCents += e.AmountCents
	}

	for _, entry := range byPayment {
		report.ByPayment = append(report.ByPayment, *entry)
	}
	slices.SortFunc(report.ByPayment, func(a, b domain.SalesReportPayment) int {
		return cmpString(a.PaymentMethod, b.PaymentMethod)
	})

	for _, entry := range byProduct {
		report.TopProducts = append(report.TopProducts, *entry)
	}
	slices.SortFunc(report.TopProducts, func(a, b domain.SalesReportProduct) int {
		if a.RevenueCents == b.RevenueCents {
			return cmpString(a.ProductID, b.ProductID)
		}
		if a.RevenueCents > b.RevenueCents {
			return -1
		}
		return 1
	})
	if len(report.TopProducts) > 5 {
		report.TopProducts = report.TopProducts[:5]
	}

	return report, nil
}

func (s *Store) GetDashboardSummary(ctx context.Context, dayStart time.Time, now time.Time) (domain.DashboardSummary, error) {
	s.mu.RLock()
	summary := domain.DashboardSummary{
		LowStockProducts: make([]domain.Product, 0, 10),
		RecentSales:      make([]domain.Sale, 0, 5),
	}

	for _, sale := range s.salesByID {
		if sale.CreatedAt.Before(dayStart) || !sale.CreatedAt.Before(now) {
			continue
		}
		summary.TodaySales++
		summary.TodayRevenueCents += sale.TotalCents
	}
	for _, p := range s.products {
		if p.Active {
			summary.ProductCount++
		}
	}
	summary.CustomerCount = int64(len(s.customersByID))
	s.mu.RUnlock()

	lowStock, err := s.ListLowStockProducts(ctx, 10)
	if err != nil {
		return summary, err
	}
	summary.LowStockProducts = lowStock

	recent, err := s.ListSales(ctx, dayStart.AddDate(0, 0, -30), now, 5)
	if err != nil {
		return summary, err
	}
	summary.RecentSales = recent

	return summary, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
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

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidSale
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidSale
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidSale
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
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

func cloneSale(src *domain.Sale) *domain.Sale {
	if src == nil {
		return nil
	}
	dup := *src
	items := make([]domain.SaleItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	if src.RefundedAt != nil {
		at := *src.RefundedAt
		dup.RefundedAt = &at
	}
	return &dup
}
