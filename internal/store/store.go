package store

import (
	"context"
	"errors"
	"time"

	"bajupos/backend/internal/domain"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidSale     = errors.New("invalid sale")
	ErrAlreadyRefunded = errors.New("already refunded")
)

type Repository interface {
	ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeactivateProduct(ctx context.Context, id string) error
	ListLowStockProducts(ctx context.Context, limit int) ([]domain.Product, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	AdjustPoints(ctx context.Context, customerID string, delta int) error
	CreatePromoCode(ctx context.Context, promo domain.PromoCode) (*domain.PromoCode, error)
	ListPromoCodes(ctx context.Context) ([]domain.PromoCode, error)
	GetPromoCodeByCode(ctx context.Context, code string) (*domain.PromoCode, error)
	UpdatePromoActive(ctx context.Context, promoID string, active bool) (*domain.PromoCode, error)
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Sale, error)
	RefundSale(ctx context.Context, id string, at time.Time) (*domain.Sale, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	GetSalesReport(ctx context.Context, from time.Time, to time.Time) (domain.SalesReport, error)
	GetDashboardSummary(ctx context.Context, dayStart time.Time, now time.Time) (domain.DashboardSummary, error)
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
