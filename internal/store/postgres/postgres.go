package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"bajupos/backend/internal/domain"
	"bajupos/backend/internal/store"
	"bajupos/backend/internal/xid"
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

const productColumns = `id, sku, name, category, size, color, purchase_price_cents, sales_price_cents,
	tax_rate_percent, stock_qty, low_stock_threshold, description, active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Size, &p.Color,
		&p.PurchasePriceCents, &p.SalesPriceCents, &p.TaxRatePercent, &p.StockQty,
		&p.LowStockThreshold, &p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 OR active = true)
		ORDER BY category, name
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || product.SalesPriceCents < 1 {
		return nil, store.ErrInvalidSale
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	now := time.Now().UTC()
	product.Active = true
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (
			id, sku, name, category, size, color, purchase_price_cents, sales_price_cents,
			tax_rate_percent, stock_qty, low_stock_threshold, description, active, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, product.ID, product.SKU, product.Name, product.Category, product.Size, product.Color,
		product.PurchasePriceCents, product.SalesPriceCents, product.TaxRatePercent,
		product.StockQty, product.LowStockThreshold, product.Description, product.Active,
		product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidSale
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.Category == "" || product.SalesPriceCents < 1 {
		return nil, store.ErrInvalidSale
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET sku = $2, name = $3, category = $4, size = $5, color = $6,
			purchase_price_cents = $7, sales_price_cents = $8, tax_rate_percent = $9,
			stock_qty = $10, low_stock_threshold = $11, description = $12, active = $13,
			updated_at = now()
		WHERE id = $1
	`, product.ID, product.SKU, product.Name, product.Category, product.Size, product.Color,
		product.PurchasePriceCents, product.SalesPriceCents, product.TaxRatePercent,
		product.StockQty, product.LowStockThreshold, product.Description, product.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidSale
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	updated.UpdatedAt = time.Now().UTC()
	return &updated, nil
}

func (s *Store) DeactivateProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET active = false, updated_at = now()
		WHERE id = $1
	`, id)
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

func (s *Store) ListLowStockProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE active = true AND stock_qty <= low_stock_threshold
		ORDER BY stock_qty ASC, name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, loyalty_points, created_at
		FROM customers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.LoyaltyPoints, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrInvalidSale
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, phone, loyalty_points, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, customer.ID, customer.Name, customer.Email, customer.Phone, customer.LoyaltyPoints, customer.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, loyalty_points, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.LoyaltyPoints, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrInvalidSale
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $2, email = $3, phone = $4
		WHERE id = $1
	`, customer.ID, customer.Name, customer.Email, customer.Phone)
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

	updated := customer
	return &updated, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
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

// AdjustPoints applies the delta as a single atomic statement so concurrent
// adjustments never lose updates.
func (s *Store) AdjustPoints(ctx context.Context, customerID string, delta int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET loyalty_points = loyalty_points + $2
		WHERE id = $1
	`, customerID, delta)
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

func (s *Store) CreatePromoCode(ctx context.Context, promo domain.PromoCode) (*domain.PromoCode, error) {
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
	if promo.ID == "" {
		promo.ID = xid.New("promo")
	}
	if promo.CreatedAt.IsZero() {
		promo.CreatedAt = time.Now().UTC()
	}
	promo.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO promo_codes (id, code, discount_type, value, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, promo.ID, promo.Code, promo.DiscountType, promo.Value, promo.Active, promo.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidSale
		}
		return nil, err
	}
	saved := promo
	return &saved, nil
}

func (s *Store) ListPromoCodes(ctx context.Context) ([]domain.PromoCode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, discount_type, value, active, created_at
		FROM promo_codes
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	promos := make([]domain.PromoCode, 0, 16)
	for rows.Next() {
		var promo domain.PromoCode
		if err := rows.Scan(&promo.ID, &promo.Code, &promo.DiscountType, &promo.Value, &promo.Active, &promo.CreatedAt); err != nil {
			return nil, err
		}
		promo.CreatedAt = promo.CreatedAt.UTC()
		promos = append(promos, promo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return promos, nil
}

func (s *Store) GetPromoCodeByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var promo domain.PromoCode
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, discount_type, value, active, created_at
		FROM promo_codes
		WHERE code = $1
	`, code).Scan(&promo.ID, &promo.Code, &promo.DiscountType, &promo.Value, &promo.Active, &promo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	promo.CreatedAt = promo.CreatedAt.UTC()
	return &promo, nil
}

func (s *Store) UpdatePromoActive(ctx context.Context, promoID string, active bool) (*domain.PromoCode, error) {
	var promo domain.PromoCode
	err := s.db.QueryRowContext(ctx, `
		UPDATE promo_codes
		SET active = $2
		WHERE id = $1
		RETURNING id, code, discount_type, value, active, created_at
	`, promoID, active).Scan(&promo.ID, &promo.Code, &promo.DiscountType, &promo.Value, &promo.Active, &promo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	promo.CreatedAt = promo.CreatedAt.UTC()
	return &promo, nil
}

// CreateSale persists the sale header, its line items, the per-item stock
// decrements and the loyalty-point delta in one transaction. Stock has no
// floor here: the caller checks availability beforehand, and concurrent
// checkouts may drive stock negative.
func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if strings.TrimSpace(sale.CashierUsername) == "" {
		return nil, store.ErrInvalidSale
	}
	if len(sale.Items) == 0 {
		return nil, store.ErrInvalidSale
	}
	for _, item := range sale.Items {
		if item.ProductID == "" || item.Qty < 1 {
			return nil, store.ErrInvalidSale
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

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO sales (
			id, customer_id, cashier_username, subtotal_cents, discount_cents, total_cents,
			promo_code_id, points_used, points_earned, payment_method, status, refunded_at, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, sale.ID, nullIfEmpty(sale.CustomerID), sale.CashierUsername, sale.SubtotalCents,
		sale.DiscountCents, sale.TotalCents, nullIfEmpty(sale.PromoCodeID), sale.PointsUsed,
		sale.PointsEarned, sale.PaymentMethod, sale.Status, nullTime(sale.RefundedAt), sale.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, item := range sale.Items {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, product_id, product_name, qty, unit_price_cents, line_total_cents)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, sale.ID, item.ProductID, item.ProductName, item.Qty, item.UnitPriceCents, item.LineTotalCents)
		if err != nil {
			return nil, err
		}

		res, err := pgTx.ExecContext(ctx, `
			UPDATE products
			SET stock_qty = stock_qty - $1, updated_at = now()
			WHERE id = $2
		`, item.Qty, item.ProductID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("%w: unknown product %s", store.ErrInvalidSale, item.ProductID)
		}
	}

	if sale.CustomerID != "" {
		delta := sale.PointsEarned - sale.PointsUsed
		res, err := pgTx.ExecContext(ctx, `
			UPDATE customers
			SET loyalty_points = loyalty_points + $1
			WHERE id = $2
		`, delta, sale.CustomerID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("%w: unknown customer %s", store.ErrInvalidSale, sale.CustomerID)
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := s.scanSaleHeader(ctx, s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, cashier_username, subtotal_cents, discount_cents, total_cents,
			promo_code_id, points_used, points_earned, payment_method, status, refunded_at, created_at
		FROM sales
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	items, err := s.loadSaleItems(ctx, []string{sale.ID})
	if err != nil {
		return nil, err
	}
	sale.Items = items[sale.ID]
	if sale.Items == nil {
		sale.Items = []domain.SaleItem{}
	}
	return sale, nil
}

func (s *Store) scanSaleHeader(_ context.Context, row *sql.Row) (*domain.Sale, error) {
	var sale domain.Sale
	var customerID sql.NullString
	var promoCodeID sql.NullString
	var refundedAt sql.NullTime

	err := row.Scan(
		&sale.ID,
		&customerID,
		&sale.CashierUsername,
		&sale.SubtotalCents,
		&sale.DiscountCents,
		&sale.TotalCents,
		&promoCodeID,
		&sale.PointsUsed,
		&sale.PointsEarned,
		&sale.PaymentMethod,
		&sale.Status,
		&refundedAt,
		&sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if customerID.Valid {
		sale.CustomerID = customerID.String
	}
	if promoCodeID.Valid {
		sale.PromoCodeID = promoCodeID.String
	}
	if refundedAt.Valid {
		at := refundedAt.Time.UTC()
		sale.RefundedAt = &at
	}
	sale.CreatedAt = sale.CreatedAt.UTC()
	return &sale, nil
}

func (s *Store) loadSaleItems(ctx context.Context, saleIDs []string) (map[string][]domain.SaleItem, error) {
	result := make(map[string][]domain.SaleItem, len(saleIDs))
	if len(saleIDs) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sale_id, product_id, product_name, qty, unit_price_cents, line_total_cents
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY id ASC
	`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var saleID string
		var item domain.SaleItem
		if err := rows.Scan(&saleID, &item.ProductID, &item.ProductName, &item.Qty, &item.UnitPriceCents, &item.LineTotalCents); err != nil {
			return nil, err
		}
		result[saleID] = append(result[saleID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, cashier_username, subtotal_cents, discount_cents, total_cents,
			promo_code_id, points_used, points_earned, payment_method, status, refunded_at, created_at
		FROM sales
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		var sale domain.Sale
		var customerID sql.NullString
		var promoCodeID sql.NullString
		var refundedAt sql.NullTime
		if err := rows.Scan(&sale.ID, &customerID, &sale.CashierUsername, &sale.SubtotalCents,
			&sale.DiscountCents, &sale.TotalCents, &promoCodeID, &sale.PointsUsed, &sale.PointsEarned,
			&sale.PaymentMethod, &sale.Status, &refundedAt, &sale.CreatedAt); err != nil {
			return nil, err
		}
		if customerID.Valid {
			sale.CustomerID = customerID.String
		}
		if promoCodeID.Valid {
			sale.PromoCodeID = promoCodeID.String
		}
		if refundedAt.Valid {
			at := refundedAt.Time.UTC()
			sale.RefundedAt = &at
		}
		sale.CreatedAt = sale.CreatedAt.UTC()
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemsBySale, err := s.loadSaleItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		items := itemsBySale[sales[i].ID]
		if items == nil {
			items = []domain.SaleItem{}
		}
		sales[i].Items = items
	}
	return sales, nil
}

// RefundSale reverses a completed sale exactly once. The precondition check
// and the mutations share one transaction, and the sale row is locked with
// FOR UPDATE so a concurrent refund observes "already refunded" instead of
// double-reversing stock and points.
func (s *Store) RefundSale(ctx context.Context, id string, at time.Time) (*domain.Sale, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var sale domain.Sale
	var customerID sql.NullString
	var promoCodeID sql.NullString
	err = pgTx.QueryRowContext(ctx, `
		SELECT id, customer_id, cashier_username, subtotal_cents, discount_cents, total_cents,
			promo_code_id, points_used, points_earned, payment_method, status, created_at
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&sale.ID,
		&customerID,
		&sale.CashierUsername,
		&sale.SubtotalCents,
		&sale.DiscountCents,
		&sale.TotalCents,
		&promoCodeID,
		&sale.PointsUsed,
		&sale.PointsEarned,
		&sale.PaymentMethod,
		&sale.Status,
		&sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if customerID.Valid {
		sale.CustomerID = customerID.String
	}
	if promoCodeID.Valid {
		sale.PromoCodeID = promoCodeID.String
	}
	if sale.Status != domain.SaleStatusCompleted {
		return nil, store.ErrAlreadyRefunded
	}

	itemRows, err := pgTx.QueryContext(ctx, `
		SELECT product_id, product_name, qty, unit_price_cents, line_total_cents
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	items := make([]domain.SaleItem, 0, 8)
	for itemRows.Next() {
		var item domain.SaleItem
		if err := itemRows.Scan(&item.ProductID, &item.ProductName, &item.Qty, &item.UnitPriceCents, &item.LineTotalCents); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		items = append(items, item)
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: sale has no line items", store.ErrInvalidSale)
	}

	for _, item := range items {
		_, err := pgTx.ExecContext(ctx, `
			UPDATE products
			SET stock_qty = stock_qty + $1, updated_at = now()
			WHERE id = $2
		`, item.Qty, item.ProductID)
		if err != nil {
			return nil, err
		}
	}

	if sale.CustomerID != "" {
		delta := sale.PointsUsed - sale.PointsEarned
		_, err := pgTx.ExecContext(ctx, `
			UPDATE customers
			SET loyalty_points = loyalty_points + $1
			WHERE id = $2
		`, delta, sale.CustomerID)
		if err != nil {
			return nil, err
		}
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE sales
		SET status = $2, refunded_at = $3
		WHERE id = $1 AND status = $4
	`, id, domain.SaleStatusRefunded, at, domain.SaleStatusCompleted)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	sale.Status = domain.SaleStatusRefunded
	sale.RefundedAt = &at
	sale.CreatedAt = sale.CreatedAt.UTC()
	sale.Items = items
	return &sale, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if strings.TrimSpace(expense.Description) == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalidSale
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	if expense.SpentAt.IsZero() {
		expense.SpentAt = expense.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, description, category, amount_cents, spent_at, recorded_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, expense.ID, expense.Description, expense.Category, expense.AmountCents, expense.SpentAt,
		expense.RecordedBy, expense.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Expense, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, category, amount_cents, spent_at, recorded_by, created_at
		FROM expenses
		WHERE spent_at >= $1 AND spent_at < $2
		ORDER BY spent_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, limit)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Category, &e.AmountCents, &e.SpentAt, &e.RecordedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.SpentAt = e.SpentAt.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
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

// GetSalesReport aggregates by created_at only; refunded sales stay in the
// totals, matching the behavior the dashboards have always shown.
func (s *Store) GetSalesReport(ctx context.Context, from time.Time, to time.Time) (domain.SalesReport, error) {
	report := domain.SalesReport{
		ByPayment:   make([]domain.SalesReportPayment, 0, 4),
		TopProducts: make([]domain.SalesReportProduct, 0, 5),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::bigint,
			COALESCE(SUM(CASE WHEN status = $3 THEN 1 ELSE 0 END),0)::bigint,
			COALESCE(SUM(subtotal_cents),0)::bigint,
			COALESCE(SUM(discount_cents),0)::bigint,
			COALESCE(SUM(total_cents),0)::bigint
		FROM sales
		WHERE created_at >= $1 AND created_at < $2
	`, from, to, domain.SaleStatusRefunded).Scan(
		&report.Sales,
		&report.RefundedSales,
		&report.GrossSalesCents,
		&report.DiscountCents,
		&report.NetSalesCents,
	)
	if err != nil {
		return report, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents),0)::bigint
		FROM expenses
		WHERE spent_at >= $1 AND spent_at < $2
	`, from, to).Scan(&report.ExpenseCents)
	if err != nil {
		return report, err
	}

	paymentRows, err := s.db.QueryContext(ctx, `
		SELECT payment_method, COUNT(*)::bigint, COALESCE(SUM(total_cents),0)::bigint
		FROM sales
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY payment_method
		ORDER BY payment_method
	`, from, to)
	if err != nil {
		return report, err
	}
	for paymentRows.Next() {
		var row domain.SalesReportPayment
		if err := paymentRows.Scan(&row.PaymentMethod, &row.Sales, &row.TotalCents); err != nil {
			_ = paymentRows.Close()
			return report, err
		}
		report.ByPayment = append(report.ByPayment, row)
	}
	if err := paymentRows.Err(); err != nil {
		_ = paymentRows.Close()
		return report, err
	}
	_ = paymentRows.Close()

	productRows, err := s.db.QueryContext(ctx, `
		SELECT si.product_id, si.product_name, COALESCE(SUM(si.qty),0)::bigint, COALESCE(SUM(si.line_total_cents),0)::bigint
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.created_at >= $1 AND s.created_at < $2
		GROUP BY si.product_id, si.product_name
		ORDER BY SUM(si.line_total_cents) DESC
		LIMIT 5
	`, from, to)
	if err != nil {
		return report, err
	}
	for productRows.Next() {
		var row domain.SalesReportProduct
		if err := productRows.Scan(&row.ProductID, &row.ProductName, &row.QtySold, &row.RevenueCents); err != nil {
			_ = productRows.Close()
			return report, err
		}
		report.TopProducts = append(report.TopProducts, row)
	}
	if err := productRows.Err(); err != nil {
		_ = productRows.Close()
		return report, err
	}
	_ = productRows.Close()

	return report, nil
}

func (s *Store) GetDashboardSummary(ctx context.Context, dayStart time.Time, now time.Time) (domain.DashboardSummary, error) {
	summary := domain.DashboardSummary{
		LowStockProducts: make([]domain.Product, 0, 10),
		RecentSales:      make([]domain.Sale, 0, 5),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)::bigint, COALESCE(SUM(total_cents),0)::bigint
		FROM sales
		WHERE created_at >= $1 AND created_at < $2
	`, dayStart, now).Scan(&summary.TodaySales, &summary.TodayRevenueCents)
	if err != nil {
		return summary, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products WHERE active = true)::bigint,
			(SELECT COUNT(*) FROM customers)::bigint
	`).Scan(&summary.ProductCount, &summary.CustomerCount)
	if err != nil {
		return summary, err
	}

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

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if strings.TrimSpace(user.Username) == "" || user.Password == "" {
		return store.ErrInvalidSale
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidSale
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2
		WHERE username = $1
	`, username, password)
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}
