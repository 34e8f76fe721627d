package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bajupos/backend/internal/domain"
	"bajupos/backend/internal/service"
	"bajupos/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, 0, "test-store")
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "admin123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["access_token"] == "" || body["access_token"] == nil {
		t.Fatalf("expected access_token in response, got %v", body)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleProducts_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleProducts_WithValidToken(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAsAdmin(t, api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["products"] == nil {
		t.Fatalf("expected products key in response, got %v", body)
	}
}

// firstProduct grabs the first seeded product via the API so tests do not
// depend on seed ordering details beyond "at least one product exists".
func firstProduct(t *testing.T, api *API, token string) domain.Product {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list products: %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(body.Products) == 0 {
		t.Fatalf("expected seeded products")
	}
	return body.Products[0]
}

func createSaleViaAPI(t *testing.T, api *API, token, csrf, productID string, qty int64) domain.Sale {
	t.Helper()
	payload, _ := json.Marshal(map[string]any{
		"payment_method": "cash",
		"items": []map[string]any{
			{"product_id": productID, "qty": qty},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Sale domain.Sale `json:"sale"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	return body.Sale
}

func TestCheckoutAndRefundFlow(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	product := firstProduct(t, api, token)
	sale := createSaleViaAPI(t, api, token, csrf, product.ID, 2)
	if sale.Status != domain.SaleStatusCompleted {
		t.Fatalf("expected completed sale, got %s", sale.Status)
	}
	if sale.TotalCents != 2*product.SalesPriceCents {
		t.Fatalf("expected total %d, got %d", 2*product.SalesPriceCents, sale.TotalCents)
	}

	refundPath := fmt.Sprintf("/api/v1/sales/%s/refund", sale.ID)
	req := httptest.NewRequest(http.MethodPost, refundPath, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("refund: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var refunded struct {
		Sale domain.Sale `json:"sale"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&refunded); err != nil {
		t.Fatalf("decode refund response: %v", err)
	}
	if refunded.Sale.Status != domain.SaleStatusRefunded {
		t.Fatalf("expected refunded status, got %s", refunded.Sale.Status)
	}

	// A second refund of the same sale must fail as a client error.
	req = httptest.NewRequest(http.MethodPost, refundPath, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second refund: expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestRefundForbiddenForCashier(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	adminToken := loginAsAdmin(t, api)
	cashierToken := loginAs(t, api, "cashier", "cashier123")
	csrf := fetchCSRFToken(t, api)

	product := firstProduct(t, api, adminToken)
	sale := createSaleViaAPI(t, api, cashierToken, csrf, product.ID, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/"+sale.ID+"/refund", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cashierToken)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier refund, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestRefundUnknownSaleReturns404(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/sale-missing/refund", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestProductLabelEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	product := firstProduct(t, api, token)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+product.ID+"/label", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var label domain.ProductLabelResponse
	if err := json.NewDecoder(rec.Body).Decode(&label); err != nil {
		t.Fatalf("decode label: %v", err)
	}
	if label.SKU != product.SKU {
		t.Fatalf("expected label for SKU %s, got %s", product.SKU, label.SKU)
	}
	if label.PNGBase64 == "" {
		t.Fatalf("expected base64 PNG payload")
	}
}

func TestSalesReportCSVFormat(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	product := firstProduct(t, api, token)
	createSaleViaAPI(t, api, token, csrf, product.ID, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales?format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/csv") {
		t.Fatalf("expected text/csv content type, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "summary,sales,") {
		t.Fatalf("expected summary rows in CSV, got: %s", rec.Body.String())
	}
}

func TestSalesReportForbiddenForCashier(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestPromoValidateEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/promos/validate?code=DISKON10&subtotal_cents=10000", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp domain.PromoValidateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("expected DISKON10 to be valid")
	}
	if resp.DiscountCents != 1000 {
		t.Fatalf("expected 10%% of 10000 = 1000, got %d", resp.DiscountCents)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var summary domain.DashboardSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.ProductCount == 0 {
		t.Fatalf("expected seeded product count, got 0")
	}
}

func TestCreateCashierEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	payload, _ := json.Marshal(map[string]string{
		"username": "kasirbaru",
		"password": "pass1234",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/cashiers", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// The new cashier can immediately log in.
	loginAs(t, api, "kasirbaru", "pass1234")
}

func TestAdjustCustomerPointsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	listReq.Header.Set("Authorization", "Bearer "+token)
	listRec := httptest.NewRecorder()
	api.Handler().ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list customers returned %d", listRec.Code)
	}
	var listed struct {
		Customers []domain.Customer `json:"customers"`
	}
	if err := json.NewDecoder(listRec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode customers: %v", err)
	}
	if len(listed.Customers) == 0 {
		t.Fatal("expected seeded customers")
	}
	customer := listed.Customers[0]

	payload, _ := json.Marshal(domain.CustomerPointsAdjustRequest{Delta: 12, Reason: "kartu lama"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/"+customer.ID+"/points", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Customer domain.Customer `json:"customer"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Customer.LoyaltyPoints != customer.LoyaltyPoints+12 {
		t.Fatalf("expected %d points, got %d", customer.LoyaltyPoints+12, resp.Customer.LoyaltyPoints)
	}

	cashierToken := loginAs(t, api, "cashier", "cashier123")
	payload, _ = json.Marshal(domain.CustomerPointsAdjustRequest{Delta: 5})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/customers/"+customer.ID+"/points", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cashierToken)
	req.Header.Set("X-CSRF-Token", csrf)
	rec = httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}
