package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"bajupos/backend/internal/domain"
	"bajupos/backend/internal/store"
)

func TestRefundSaleRestoresStockAndPoints(t *testing.T) {
	databaseURL := os.Getenv("BAJUPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set BAJUPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prod-refund-it-%d", stamp)
	customerID := fmt.Sprintf("cust-refund-it-%d", stamp)
	saleID := fmt.Sprintf("sale-refund-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, customerID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (
			id, sku, name, category, size, color, purchase_price_cents, sales_price_cents,
			tax_rate_percent, stock_qty, low_stock_threshold, description, active, created_at, updated_at
		)
		VALUES ($1, $2, 'Kaos Refund IT', 'kaos', 'M', 'hitam', 4000, 9900, 0, 10, 3, '', true, now(), now())
	`, productID, fmt.Sprintf("SKU-REFUND-IT-%d", stamp)); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, phone, loyalty_points, created_at)
		VALUES ($1, 'Pelanggan Refund IT', '', '', 0, now())
	`, customerID); err != nil {
		t.Fatalf("insert customer: %v", err)
	}

	sale := domain.Sale{
		ID:              saleID,
		CustomerID:      customerID,
		CashierUsername: "kasir",
		SubtotalCents:   29700,
		TotalCents:      29700,
		PointsEarned:    5,
		PaymentMethod:   "cash",
		Items: []domain.SaleItem{
			{ProductID: productID, ProductName: "Kaos Refund IT", Qty: 3, UnitPriceCents: 9900, LineTotalCents: 29700},
		},
	}
	if _, err := s.CreateSale(ctx, sale); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	var stock int
	if err := s.db.QueryRowContext(ctx, `SELECT stock_qty FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("query stock: %v", err)
	}
	if stock != 7 {
		t.Fatalf("expected stock 7 after sale, got %d", stock)
	}

	refunded, err := s.RefundSale(ctx, saleID, time.Now().UTC())
	if err != nil {
		t.Fatalf("refund sale: %v", err)
	}
	if refunded.Status != domain.SaleStatusRefunded {
		t.Fatalf("expected status refunded, got %s", refunded.Status)
	}
	if refunded.RefundedAt == nil {
		t.Fatal("expected refunded_at to be set")
	}

	if err := s.db.QueryRowContext(ctx, `SELECT stock_qty FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("query stock: %v", err)
	}
	if stock != 10 {
		t.Fatalf("expected stock 10 after refund, got %d", stock)
	}

	var points int
	if err := s.db.QueryRowContext(ctx, `SELECT loyalty_points FROM customers WHERE id = $1`, customerID).Scan(&points); err != nil {
		t.Fatalf("query points: %v", err)
	}
	if points != 0 {
		t.Fatalf("expected 0 points after refund, got %d", points)
	}

	if _, err := s.RefundSale(ctx, saleID, time.Now().UTC()); !errors.Is(err, store.ErrAlreadyRefunded) {
		t.Fatalf("expected ErrAlreadyRefunded on second refund, got %v", err)
	}
}
