package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"bajupos/backend/internal/cache"
	"bajupos/backend/internal/domain"
	"bajupos/backend/internal/labels"
	"bajupos/backend/internal/store"
	"bajupos/backend/internal/xid"
)

// Loyalty points: one point is earned per pointEarnRateCents of the final
// total, and one point redeems for pointValueCents off the next purchase.
const (
	pointEarnRateCents = 10000
	pointValueCents    = 100
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
	repo      store.Repository
	dashboard cache.DashboardCache
	dashTTL   time.Duration
	storeName string
}

func New(repo store.Repository, dashboard cache.DashboardCache, dashTTL time.Duration, storeName string) *Service {
	if dashboard == nil {
		dashboard = cache.NoopDashboardCache{}
	}
	if dashTTL < 1 {
		dashTTL = 30 * time.Second
	}
	if storeName == "" {
		storeName = "BajuPOS"
	}

	return &Service{
		repo:      repo,
		dashboard: dashboard,
		dashTTL:   dashTTL,
		storeName: storeName,
	}
}

func (s *Service) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, includeInactive)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalidSale
	}
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if req.SKU == "" || req.Name == "" || req.Category == "" {
		return domain.Product{}, store.ErrInvalidSale
	}
	if req.SalesPriceCents < 1 || req.PurchasePriceCents < 0 || req.InitialStock < 0 {
		return domain.Product{}, store.ErrInvalidSale
	}
	if req.TaxRatePercent < 0 || req.TaxRatePercent > 100 {
		return domain.Product{}, store.ErrInvalidSale
	}
	if req.LowStockThreshold < 0 {
		return domain.Product{}, store.ErrInvalidSale
	}

	product := domain.Product{
		SKU:                req.SKU,
		Name:               req.Name,
		Category:           req.Category,
		Size:               strings.TrimSpace(req.Size),
		Color:              strings.TrimSpace(req.Color),
		PurchasePriceCents: req.PurchasePriceCents,
		SalesPriceCents:    req.SalesPriceCents,
		TaxRatePercent:     req.TaxRatePercent,
		StockQty:           req.InitialStock,
		LowStockThreshold:  req.LowStockThreshold,
		Description:        strings.TrimSpace(req.Description),
		Active:             true,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("sku=%s,price=%d,stock=%d", created.SKU, created.SalesPriceCents, created.StockQty))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalidSale
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidSale
		}
		updated.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return domain.Product{}, store.ErrInvalidSale
		}
		updated.Category = category
	}
	if req.Size != nil {
		updated.Size = strings.TrimSpace(*req.Size)
	}
	if req.Color != nil {
		updated.Color = strings.TrimSpace(*req.Color)
	}
	if req.PurchasePriceCents != nil {
		if *req.PurchasePriceCents < 0 {
			return domain.Product{}, store.ErrInvalidSale
		}
		updated.PurchasePriceCents = *req.PurchasePriceCents
	}
	if req.SalesPriceCents != nil {
		if *req.SalesPriceCents < 1 {
			return domain.Product{}, store.ErrInvalidSale
		}
		updated.SalesPriceCents = *req.SalesPriceCents
	}
	if req.TaxRatePercent != nil {
		if *req.TaxRatePercent < 0 || *req.TaxRatePercent > 100 {
			return domain.Product{}, store.ErrInvalidSale
		}
		updated.TaxRatePercent = *req.TaxRatePercent
	}
	if req.StockQty != nil {
		updated.StockQty = *req.StockQty
	}
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return domain.Product{}, store.ErrInvalidSale
		}
		updated.LowStockThreshold = *req.LowStockThreshold
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("sku=%s,active=%t,price=%d,stock=%d", saved.SKU, saved.Active, saved.SalesPriceCents, saved.StockQty))
	return *saved, nil
}

func (s *Service) DeactivateProduct(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidSale
	}
	if err := s.repo.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_deactivate", "product", id, "")
	return nil
}

// BuildProductLabel renders the product SKU as a Code 128 barcode PNG for
// printable shelf and garment tags.
func (s *Service) BuildProductLabel(ctx context.Context, id string) (domain.ProductLabelResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ProductLabelResponse{}, store.ErrInvalidSale
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.ProductLabelResponse{}, err
	}

	encoded, err := labels.RenderBase64(product.SKU, 0, 0)
	if err != nil {
		return domain.ProductLabelResponse{}, err
	}

	return domain.ProductLabelResponse{
		ProductID:       product.ID,
		SKU:             product.SKU,
		Name:            product.Name,
		SalesPriceCents: product.SalesPriceCents,
		PNGBase64:       encoded,
		FileName:        fmt.Sprintf("label-%s.png", product.SKU),
	}, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Customer{}, store.ErrInvalidSale
	}
	customer, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Customer{}, store.ErrInvalidSale
	}

	customer := domain.Customer{
		Name:  req.Name,
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	}
	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_create", "customer", created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Customer{}, store.ErrInvalidSale
	}

	existing, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, store.ErrInvalidSale
		}
		updated.Name = name
	}
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}

	saved, err := s.repo.UpdateCustomer(ctx, updated)
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_update", "customer", saved.ID, fmt.Sprintf("name=%s", saved.Name))
	return *saved, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidSale
	}
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "customer_delete", "customer", id, "")
	return nil
}

// AdjustCustomerPoints applies a manual loyalty correction, e.g. after a
// goodwill grant or a migration from the old paper card system. The resulting
// balance must not go negative.
func (s *Service) AdjustCustomerPoints(ctx context.Context, id string, req domain.CustomerPointsAdjustRequest) (domain.Customer, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Customer{}, fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" || req.Delta == 0 {
		return domain.Customer{}, store.ErrInvalidSale
	}

	customer, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer.LoyaltyPoints+req.Delta < 0 {
		return domain.Customer{}, fmt.Errorf("%w: adjustment would make points negative", store.ErrInvalidSale)
	}

	if err := s.repo.AdjustPoints(ctx, id, req.Delta); err != nil {
		return domain.Customer{}, err
	}

	adjusted, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	s.logAudit(ctx, "customer_points_adjust", "customer", id, fmt.Sprintf("delta=%d reason=%s", req.Delta, strings.TrimSpace(req.Reason)))
	return *adjusted, nil
}

func (s *Service) CreatePromo(ctx context.Context, req domain.PromoCreateRequest) (domain.PromoCode, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.PromoCode{}, fmt.Errorf("admin role required")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.DiscountType = strings.ToLower(strings.TrimSpace(req.DiscountType))
	if req.Code == "" {
		return domain.PromoCode{}, store.ErrInvalidSale
	}
	if req.DiscountType != domain.PromoTypePercentage && req.DiscountType != domain.PromoTypeFixed {
		return domain.PromoCode{}, store.ErrInvalidSale
	}
	if req.Value < 1 {
		return domain.PromoCode{}, store.ErrInvalidSale
	}
	if req.DiscountType == domain.PromoTypePercentage && req.Value > 100 {
		return domain.PromoCode{}, store.ErrInvalidSale
	}

	promo := domain.PromoCode{
		Code:         req.Code,
		DiscountType: req.DiscountType,
		Value:        req.Value,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	saved, err := s.repo.CreatePromoCode(ctx, promo)
	if err != nil {
		return domain.PromoCode{}, err
	}

	s.logAudit(ctx, "promo_create", "promo", saved.ID, fmt.Sprintf("code=%s,type=%s,value=%d", saved.Code, saved.DiscountType, saved.Value))
	return *saved, nil
}

func (s *Service) ListPromos(ctx context.Context) ([]domain.PromoCode, error) {
	return s.repo.ListPromoCodes(ctx)
}

func (s *Service) SetPromoActive(ctx context.Context, promoID string, active bool) (domain.PromoCode, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.PromoCode{}, fmt.Errorf("admin role required")
	}

	promo, err := s.repo.UpdatePromoActive(ctx, promoID, active)
	if err != nil {
		return domain.PromoCode{}, err
	}

	s.logAudit(ctx, "promo_toggle", "promo", promoID, fmt.Sprintf("active=%t", active))
	return *promo, nil
}

// ValidatePromo reports whether the code is usable and what discount it would
// yield against the given subtotal. A missing or inactive code is not an
// error, just valid=false.
func (s *Service) ValidatePromo(ctx context.Context, code string, subtotalCents int64) (domain.PromoValidateResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.PromoValidateResponse{}, store.ErrInvalidSale
	}

	promo, err := s.repo.GetPromoCodeByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PromoValidateResponse{Valid: false}, nil
		}
		return domain.PromoValidateResponse{}, err
	}
	if !promo.Active {
		return domain.PromoValidateResponse{Valid: false}, nil
	}

	return domain.PromoValidateResponse{
		Valid:         true,
		Promo:         promo,
		DiscountCents: promoDiscount(*promo, subtotalCents),
	}, nil
}

func promoDiscount(promo domain.PromoCode, subtotalCents int64) int64 {
	if subtotalCents < 1 {
		return 0
	}

	var discount int64
	switch promo.DiscountType {
	case domain.PromoTypePercentage:
		discount = int64(math.Round(float64(subtotalCents) * float64(promo.Value) / 100))
	case domain.PromoTypeFixed:
		discount = promo.Value
	}
	if discount > subtotalCents {
		return subtotalCents
	}
	return discount
}

// CreateSale recomputes every price server side from the current product
// records, applies promo and loyalty-point discounts, and hands the fully
// priced sale to the repository for atomic persistence.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Sale{}, fmt.Errorf("authenticated actor required")
	}

	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}
	if !isSupportedPaymentMethod(req.PaymentMethod) {
		return domain.Sale{}, store.ErrInvalidSale
	}
	if req.DiscountCents < 0 || req.PointsUsed < 0 {
		return domain.Sale{}, store.ErrInvalidSale
	}

	lines := normalizeLines(req.Items)
	if len(lines) == 0 {
		return domain.Sale{}, store.ErrInvalidSale
	}

	var customer *domain.Customer
	if strings.TrimSpace(req.CustomerID) != "" {
		found, err := s.repo.GetCustomerByID(ctx, strings.TrimSpace(req.CustomerID))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Sale{}, fmt.Errorf("%w: unknown customer", store.ErrInvalidSale)
			}
			return domain.Sale{}, err
		}
		customer = found
	}
	if req.PointsUsed > 0 {
		if customer == nil {
			return domain.Sale{}, fmt.Errorf("%w: points require a customer", store.ErrInvalidSale)
		}
		if req.PointsUsed > customer.LoyaltyPoints {
			return domain.Sale{}, fmt.Errorf("%w: insufficient loyalty points", store.ErrInvalidSale)
		}
	}

	subtotal := int64(0)
	items := make([]domain.SaleItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.repo.GetProductByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Sale{}, fmt.Errorf("%w: unknown product %s", store.ErrInvalidSale, line.ProductID)
			}
			return domain.Sale{}, err
		}
		if !product.Active {
			return domain.Sale{}, fmt.Errorf("%w: product %s is inactive", store.ErrInvalidSale, product.SKU)
		}
		lineTotal := int64(line.Qty) * product.SalesPriceCents
		items = append(items, domain.SaleItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Qty:            line.Qty,
			UnitPriceCents: product.SalesPriceCents,
			LineTotalCents: lineTotal,
		})
		subtotal += lineTotal
	}

	discount := req.DiscountCents
	promoCodeID := ""
	if strings.TrimSpace(req.PromoCode) != "" {
		promo, err := s.repo.GetPromoCodeByCode(ctx, req.PromoCode)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Sale{}, fmt.Errorf("%w: unknown promo code", store.ErrInvalidSale)
			}
			return domain.Sale{}, err
		}
		if !promo.Active {
			return domain.Sale{}, fmt.Errorf("%w: promo code is inactive", store.ErrInvalidSale)
		}
		discount += promoDiscount(*promo, subtotal)
		promoCodeID = promo.ID
	}
	discount += int64(req.PointsUsed) * pointValueCents
	if discount > subtotal {
		discount = subtotal
	}
	total := subtotal - discount

	pointsEarned := 0
	if customer != nil {
		pointsEarned = int(total / pointEarnRateCents)
	}

	sale := domain.Sale{
		ID:              xid.New("sale"),
		CustomerID:      strings.TrimSpace(req.CustomerID),
		CashierUsername: actor.Username,
		SubtotalCents:   subtotal,
		DiscountCents:   discount,
		TotalCents:      total,
		PromoCodeID:     promoCodeID,
		PointsUsed:      req.PointsUsed,
		PointsEarned:    pointsEarned,
		PaymentMethod:   req.PaymentMethod,
		Status:          domain.SaleStatusCompleted,
		CreatedAt:       time.Now().UTC(),
		Items:           items,
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_create", "sale", created.ID, fmt.Sprintf("total=%d,payment=%s,discount=%d,points_used=%d", created.TotalCents, created.PaymentMethod, created.DiscountCents, created.PointsUsed))
	return *created, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Sale{}, store.ErrInvalidSale
	}
	sale, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, from string, to string, limit int) ([]domain.Sale, error) {
	fromAt, toAt, err := parseDateRange(from, to)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListSales(ctx, fromAt, toAt, limit)
}

// RefundSale reverses a completed sale exactly once. The repository does the
// precondition check and the reversal in one transaction, so a concurrent
// second refund surfaces as ErrAlreadyRefunded with no further mutation.
func (s *Service) RefundSale(ctx context.Context, saleID string) (domain.Sale, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Sale{}, fmt.Errorf("admin role required")
	}

	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.Sale{}, store.ErrInvalidSale
	}

	refunded, err := s.repo.RefundSale(ctx, saleID, time.Now().UTC())
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_refund", "sale", refunded.ID, fmt.Sprintf("total=%d,points_used=%d,points_earned=%d", refunded.TotalCents, refunded.PointsUsed, refunded.PointsEarned))
	return *refunded, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Expense{}, fmt.Errorf("authenticated actor required")
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" || req.AmountCents < 1 {
		return domain.Expense{}, store.ErrInvalidSale
	}

	spentAt := time.Now().UTC()
	if strings.TrimSpace(req.SpentAt) != "" {
		parsed, err := time.Parse("2006-01-02", req.SpentAt)
		if err != nil {
			return domain.Expense{}, store.ErrInvalidSale
		}
		spentAt = parsed.UTC()
	}

	expense := domain.Expense{
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		AmountCents: req.AmountCents,
		SpentAt:     spentAt,
		RecordedBy:  actor.Username,
	}
	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}

	s.logAudit(ctx, "expense_create", "expense", created.ID, fmt.Sprintf("amount=%d,category=%s", created.AmountCents, created.Category))
	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, from string, to string, limit int) ([]domain.Expense, error) {
	fromAt, toAt, err := parseDateRange(from, to)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListExpenses(ctx, fromAt, toAt, limit)
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidSale
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "expense_delete", "expense", id, "")
	return nil
}

func (s *Service) SalesReport(ctx context.Context, from string, to string) (domain.SalesReport, error) {
	fromAt, toAt, err := parseDateRange(from, to)
	if err != nil {
		return domain.SalesReport{}, err
	}

	report, err := s.repo.GetSalesReport(ctx, fromAt, toAt)
	if err != nil {
		return domain.SalesReport{}, err
	}
	report.From = fromAt.Format("2006-01-02")
	report.To = toAt.Add(-24 * time.Hour).Format("2006-01-02")
	return report, nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardSummary, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cacheKey := "dashboard:" + dayStart.Format("2006-01-02")

	if cached, found, err := s.dashboard.Get(ctx, cacheKey); err != nil {
		log.Printf("[service] WARN: dashboard cache read failed: %v", err)
	} else if found {
		return *cached, nil
	}

	summary, err := s.repo.GetDashboardSummary(ctx, dayStart, now)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	summary.Date = dayStart.Format("2006-01-02")
	summary.GeneratedAt = now.Format(time.RFC3339)

	if err := s.dashboard.Set(ctx, cacheKey, &summary, s.dashTTL); err != nil {
		log.Printf("[service] WARN: dashboard cache write failed: %v", err)
	}
	return summary, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	var from time.Time
	if strings.TrimSpace(date) == "" {
		from = time.Now().UTC().Add(-24 * time.Hour)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, store.ErrInvalidSale
		}
		from = parsed.UTC()
	}
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) StoreName() string {
	return s.storeName
}

func normalizeLines(items []domain.SaleLineRequest) []domain.SaleLineRequest {
	agg := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ProductID)
		if id == "" || item.Qty < 1 {
			continue
		}
		if _, seen := agg[id]; !seen {
			order = append(order, id)
		}
		agg[id] += item.Qty
	}

	normalized := make([]domain.SaleLineRequest, 0, len(agg))
	for _, id := range order {
		normalized = append(normalized, domain.SaleLineRequest{ProductID: id, Qty: agg[id]})
	}
	return normalized
}

// parseDateRange turns inclusive YYYY-MM-DD bounds into a half-open UTC
// interval. Empty bounds default to today.
func parseDateRange(from string, to string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	fromAt := today
	if strings.TrimSpace(from) != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, store.ErrInvalidSale
		}
		fromAt = parsed.UTC()
	}

	toAt := fromAt.Add(24 * time.Hour)
	if strings.TrimSpace(to) != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, store.ErrInvalidSale
		}
		toAt = parsed.UTC().Add(24 * time.Hour)
	}
	if !toAt.After(fromAt) {
		return time.Time{}, time.Time{}, store.ErrInvalidSale
	}

	return fromAt, toAt, nil
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case "cash", "card", "qris", "ewallet":
		return true
	default:
		return false
	}
}
