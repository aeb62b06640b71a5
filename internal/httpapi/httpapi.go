package httpapi

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"smartshelfx/backend/internal/domain"
	"smartshelfx/backend/internal/service"
	"smartshelfx/backend/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	csrfSecret    []byte
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		// Fall back to a deterministic secret if crypto/rand fails (should not happen in practice).
		csrfSecret = []byte("csrf-fallback-secret-change-me!!")
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		csrfSecret:    csrfSecret,
	}
}

// csrfTokenForHour computes an HMAC-SHA256 token for the given hour bucket
// (expressed as Unix time truncated to the hour). The token is hex-encoded.
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

// generateCSRFToken returns a token valid for the current hour bucket.
func (a *API) generateCSRFToken() string {
	now := time.Now().UTC()
	bucket := now.Truncate(time.Hour).Unix()
	return a.csrfTokenForHour(bucket)
}

// validateCSRFToken checks whether the provided token matches the current or
// previous hour bucket, giving a 2-hour validity window.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	now := time.Now().UTC()
	currentBucket := now.Truncate(time.Hour).Unix()
	prevBucket := currentBucket - 3600

	expected1 := a.csrfTokenForHour(currentBucket)
	expected2 := a.csrfTokenForHour(prevBucket)

	return hmac.Equal([]byte(token), []byte(expected1)) ||
		hmac.Equal([]byte(token), []byte(expected2))
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("/api/v1/auth/register", a.handleRegister)
	mux.HandleFunc("/api/v1/auth/csrf-token", a.handleCSRFToken)

	mux.HandleFunc("/api/v1/me", a.requireAuth(a.handleProfile))
	mux.HandleFunc("/api/v1/me/addresses", a.requireAuth(a.handleAddresses, domain.RoleUser))
	mux.HandleFunc("/api/v1/users", a.requireAuth(a.handleUsers, domain.RoleAdmin))

	mux.HandleFunc("/api/v1/warehouses", a.requireAuth(a.handleWarehouses))
	mux.HandleFunc("/api/v1/warehouses/", a.requireAuth(a.handleWarehouseByID, domain.RoleAdmin, domain.RoleManager))

	mux.HandleFunc("/api/v1/products", a.requireAuth(a.handleProducts))
	mux.HandleFunc("/api/v1/products/", a.requireAuth(a.handleProductByID))

	mux.HandleFunc("/api/v1/purchases", a.requireAuth(a.handlePurchases, domain.RoleUser))
	mux.HandleFunc("/api/v1/purchases/history", a.requireAuth(a.handlePurchaseHistory))
	mux.HandleFunc("/api/v1/sales/summary", a.requireAuth(a.handleSalesSummary, domain.RoleAdmin, domain.RoleManager))
	mux.HandleFunc("/api/v1/sales/recent", a.requireAuth(a.handleRecentSales, domain.RoleAdmin, domain.RoleManager))

	mux.HandleFunc("/api/v1/restock/recommendations", a.requireAuth(a.handleRecommendations, domain.RoleAdmin, domain.RoleManager))
	mux.HandleFunc("/api/v1/forecast", a.requireAuth(a.handleForecast, domain.RoleAdmin, domain.RoleManager))

	mux.HandleFunc("/api/v1/purchase-orders", a.requireAuth(a.handlePurchaseOrders, domain.RoleAdmin, domain.RoleManager))
	mux.HandleFunc("/api/v1/purchase-orders/", a.requireAuth(a.handlePurchaseOrderByID, domain.RoleAdmin, domain.RoleManager))

	mux.HandleFunc("/api/v1/analytics/dashboard", a.requireAuth(a.handleDashboard, domain.RoleAdmin, domain.RoleManager))
	mux.HandleFunc("/api/v1/audit-logs", a.requireAuth(a.handleAuditLogs, domain.RoleAdmin))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := a.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, expiresIn, err := a.auth.Issue(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.LoginResponse{
		Token:     token,
		ExpiresIn: expiresIn,
		User:      user,
	})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := a.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// handleCSRFToken returns a stateless CSRF token valid for the current hour bucket.
// Clients must include this token in the X-CSRF-Token header for all mutating requests.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

// csrfExemptPaths lists paths that are exempt from CSRF validation.
// Login and register are excluded because they are called without a prior CSRF token fetch.
var csrfExemptPaths = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/register",
}

// checkCSRF enforces CSRF token validation for state-changing methods (POST/PUT/PATCH/DELETE).
// Returns false and writes an error response if validation fails.
func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	method := r.Method
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch && method != http.MethodDelete {
		return true
	}
	for _, exempt := range csrfExemptPaths {
		if r.URL.Path == exempt {
			return true
		}
	}
	token := strings.TrimSpace(r.Header.Get("X-CSRF-Token"))
	if !a.validateCSRFToken(token) {
		writeError(w, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	user, err := a.service.Profile(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (a *API) handleAddresses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		book, err := a.service.Addresses(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodPut:
		var req domain.AddressBookUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		book, err := a.service.SaveAddresses(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	users, err := a.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) handleWarehouses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		warehouses, err := a.service.ListWarehouses(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"warehouses": warehouses})
	case http.MethodPost:
		var req domain.WarehouseCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		warehouse, err := a.service.CreateWarehouse(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"warehouse": warehouse})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleWarehouseByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	id, ok := pathID(w, r, "/api/v1/warehouses/")
	if !ok {
		return
	}

	warehouse, err := a.service.GetWarehouse(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"warehouse": warehouse})
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		warehouseID, err := queryOptionalID(r, "warehouse_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		filter := domain.ProductFilter{
			WarehouseID: warehouseID,
			Category:    strings.TrimSpace(r.URL.Query().Get("category")),
			Vendor:      strings.TrimSpace(r.URL.Query().Get("vendor")),
			StockStatus: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("stock_status"))),
		}

		products, err := a.service.ListProducts(r.Context(), filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		var req domain.ProductCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		product, err := a.service.CreateProduct(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": product})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/v1/products/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.service.GetProduct(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodPatch:
		var req domain.ProductUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		product, err := a.service.UpdateProduct(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodDelete:
		if err := a.service.DeleteProduct(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.PurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	purchase, err := a.service.PurchaseProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"purchase": purchase})
}

func (a *API) handlePurchaseHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	history, err := a.service.PurchaseHistory(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (a *API) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	warehouseID, err := queryOptionalID(r, "warehouse_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	summary, err := a.service.SalesOverview(r.Context(), warehouseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleRecentSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	warehouseID, err := queryOptionalID(r, "warehouse_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 50, 50)

	purchases, err := a.service.RecentSales(r.Context(), warehouseID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}

func (a *API) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	warehouseID, err := queryOptionalID(r, "warehouse_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	filter := domain.RestockFilter{
		WarehouseID:     warehouseID,
		Category:        strings.TrimSpace(r.URL.Query().Get("category")),
		StockStatus:     strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("stock_status"))),
		AutoRestockOnly: strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("auto_restock_only")), "true"),
	}

	recommendations, err := a.service.Recommendations(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recommendations})
}

func (a *API) handleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	warehouseID, err := queryOptionalID(r, "warehouse_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	items, err := a.service.Forecast(r.Context(), warehouseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"forecast": items})
}

func (a *API) handlePurchaseOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		warehouseID, err := queryOptionalID(r, "warehouse_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		status := r.URL.Query().Get("status")
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 200)

		orders, err := a.service.ListPurchaseOrders(r.Context(), warehouseID, status, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"purchase_orders": orders})
	case http.MethodPost:
		var req domain.PurchaseOrderCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		order, err := a.service.CreatePurchaseOrder(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"purchase_order": order})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePurchaseOrderByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	id, ok := pathID(w, r, "/api/v1/purchase-orders/")
	if !ok {
		return
	}

	order, err := a.service.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchase_order": order})
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	warehouseID, err := queryOptionalID(r, "warehouse_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))

	dashboard, err := a.service.Dashboard(r.Context(), warehouseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"inventory-dashboard-%s.csv\"", dashboard.GeneratedAt.Format("2006-01-02")))
		_, _ = w.Write([]byte(dashboardToCSV(dashboard)))
	case "pdf":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(dashboardToPrintableHTML(dashboard)))
	default:
		writeJSON(w, http.StatusOK, dashboard)
	}
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	from, to, err := auditWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)

	logs, err := a.service.ListAuditLogs(r.Context(), from, to, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// auditWindow parses the optional from/to query dates (YYYY-MM-DD). An absent
// window defaults to the last 7 days.
func auditWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7)
	to := now

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must use YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must use YYYY-MM-DD")
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Enforce CSRF protection for all state-changing requests.
		if !a.checkCSRF(w, r) {
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func dashboardToCSV(dashboard domain.AnalyticsDashboard) string {
	lines := []string{
		"section,key,value",
		fmt.Sprintf("summary,scope,%s", dashboard.Scope),
		fmt.Sprintf("summary,generated_at,%s", dashboard.GeneratedAt.Format(time.RFC3339)),
		fmt.Sprintf("inventory,total_products,%d", dashboard.Inventory.TotalProducts),
		fmt.Sprintf("inventory,total_units,%d", dashboard.Inventory.TotalUnits),
		fmt.Sprintf("inventory,low_stock,%d", dashboard.Inventory.LowStock),
		fmt.Sprintf("inventory,out_of_stock,%d", dashboard.Inventory.OutOfStock),
		fmt.Sprintf("inventory,auto_restock,%d", dashboard.Inventory.AutoRestockCount),
	}
	for _, slice := range dashboard.StatusDistribution {
		lines = append(lines, fmt.Sprintf("status,%s,%d", slice.Status, slice.Count))
	}
	for _, trend := range dashboard.MonthlyTrends {
		lines = append(lines, fmt.Sprintf("trend,%s_restock_qty,%d", trend.Month, trend.RestockQuantity))
		lines = append(lines, fmt.Sprintf("trend,%s_sales_qty,%d", trend.Month, trend.SalesQuantity))
		lines = append(lines, fmt.Sprintf("trend,%s_restock_amount,%.2f", trend.Month, trend.RestockAmount))
		lines = append(lines, fmt.Sprintf("trend,%s_sales_amount,%.2f", trend.Month, trend.SalesAmount))
	}
	for _, item := range dashboard.TopRestocked {
		lines = append(lines, fmt.Sprintf("top_restocked,%s,%d", item.SKU, item.Quantity))
	}
	for _, cmp := range dashboard.DemandComparison {
		lines = append(lines, fmt.Sprintf("demand,%s_restock,%d", cmp.SKU, cmp.RestockQuantity))
		lines = append(lines, fmt.Sprintf("demand,%s_sales,%d", cmp.SKU, cmp.SalesQuantity))
	}
	return strings.Join(lines, "\n") + "\n"
}

// dashboardHTMLTmpl renders printable analytics dashboards.
var dashboardHTMLTmpl = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Inventory Dashboard {{.Scope}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>Inventory Dashboard</h2>
  <p>Scope: {{.Scope}}</p>
  <p>Products: {{.Inventory.TotalProducts}} | Units: {{.Inventory.TotalUnits}} | Low: {{.Inventory.LowStock}} | Out: {{.Inventory.OutOfStock}} | Auto-restock: {{.Inventory.AutoRestockCount}}</p>

  <h3>Monthly Trends</h3>
  <table>
    <thead><tr><th>Month</th><th>Restock Qty</th><th>Sales Qty</th><th>Restock Amount</th><th>Sales Amount</th></tr></thead>
    <tbody>{{range .MonthlyTrends}}<tr><td>{{.Month}}</td><td style="text-align:right;">{{.RestockQuantity}}</td><td style="text-align:right;">{{.SalesQuantity}}</td><td style="text-align:right;">{{printf "%.2f" .RestockAmount}}</td><td style="text-align:right;">{{printf "%.2f" .SalesAmount}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Top Restocked</h3>
  <table>
    <thead><tr><th>Product</th><th>SKU</th><th>Quantity</th></tr></thead>
    <tbody>{{range .TopRestocked}}<tr><td>{{.ProductName}}</td><td>{{.SKU}}</td><td style="text-align:right;">{{.Quantity}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Restock vs Demand</h3>
  <table>
    <thead><tr><th>Product</th><th>SKU</th><th>Restocked</th><th>Sold</th></tr></thead>
    <tbody>{{range .DemandComparison}}<tr><td>{{.ProductName}}</td><td>{{.SKU}}</td><td style="text-align:right;">{{.RestockQuantity}}</td><td style="text-align:right;">{{.SalesQuantity}}</td></tr>{{end}}</tbody>
  </table>
</body>
</html>
`))

func dashboardToPrintableHTML(dashboard domain.AnalyticsDashboard) string {
	var buf bytes.Buffer
	if err := dashboardHTMLTmpl.Execute(&buf, dashboard); err != nil {
		return "<!doctype html><html><body><p>Report rendering error.</p></body></html>"
	}
	return buf.String()
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeError(w, http.StatusBadRequest, errors.New("invalid path"))
		return 0, false
	}
	tail := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("id required"))
		return 0, false
	}
	id, err := strconv.ParseInt(tail, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, errors.New("invalid id"))
		return 0, false
	}
	return id, true
}

func queryOptionalID(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return nil, fmt.Errorf("invalid %s", key)
	}
	return &id, nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// writeServiceError maps service and store errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, store.ErrDuplicateReference):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, store.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	// For 5xx responses, return a generic message to avoid leaking internal
	// implementation details (stack traces, SQL errors, file paths, etc.).
	// 4xx responses are user-facing so we return the original error message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
