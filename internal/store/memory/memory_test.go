package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"bajupos/backend/internal/domain"
	"bajupos/backend/internal/store"
)

// A sale row can exist without line items (e.g. partially written by a crashed
// import). Refunding it must fail explicitly instead of silently reversing
// nothing.
func TestRefundSaleRejectsSaleWithoutItems(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	var productID string
	for id := range s.products {
		productID = id
		break
	}
	var customerID string
	for id := range s.customersByID {
		customerID = id
		break
	}
	stockBefore := s.products[productID].StockQty
	pointsBefore := s.customersByID[customerID].LoyaltyPoints

	now := time.Now().UTC()
	s.salesByID["sale-empty"] = &domain.Sale{
		ID:              "sale-empty",
		CustomerID:      customerID,
		CashierUsername: "cashier",
		Status:          domain.SaleStatusCompleted,
		PaymentMethod:   "cash",
		CreatedAt:       now,
	}

	if _, err := s.RefundSale(ctx, "sale-empty", now); !errors.Is(err, store.ErrInvalidSale) {
		t.Fatalf("expected ErrInvalidSale for sale without items, got %v", err)
	}

	if got := s.products[productID].StockQty; got != stockBefore {
		t.Fatalf("expected stock unchanged at %d, got %d", stockBefore, got)
	}
	if got := s.customersByID[customerID].LoyaltyPoints; got != pointsBefore {
		t.Fatalf("expected points unchanged at %d, got %d", pointsBefore, got)
	}

	sale := s.salesByID["sale-empty"]
	if sale.Status != domain.SaleStatusCompleted {
		t.Fatalf("expected sale to stay completed, got %s", sale.Status)
	}
	if sale.RefundedAt != nil {
		t.Fatal("expected refunded_at to stay unset")
	}
}
