package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/railtms/assettrack/internal/export"
	"github.com/railtms/assettrack/internal/fitting"
	"github.com/railtms/assettrack/internal/logger"
	"github.com/railtms/assettrack/internal/models"
	"github.com/railtms/assettrack/internal/scanner"
	"github.com/railtms/assettrack/internal/store"
)

// Version is reported by /health. Set at build time.
var Version = "dev"

// Server provides the HTTP API for assettrack.
type Server struct {
	service *Service
	addr    string
	log     *logger.Logger
	metrics http.Handler
	server  *http.Server
}

// NewServer creates a new HTTP server. metrics serves /metrics when non-nil.
func NewServer(service *Service, addr string, log *logger.Logger, metrics http.Handler) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		service: service,
		addr:    addr,
		log:     log.With("component", "api"),
		metrics: metrics,
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	// Asset endpoints
	mux.HandleFunc("/assets", s.handleAssets)
	mux.HandleFunc("/assets/", s.handleAssetByUID)

	// Report endpoints
	mux.HandleFunc("/reports/vendors", s.handleVendorReport)
	mux.HandleFunc("/reports/vendors/", s.handleVendorLots)
	mux.HandleFunc("/reports/inventory", s.handleInventoryReport)
	mux.HandleFunc("/reports/export", s.handleExport)
	mux.HandleFunc("/dashboard", s.handleDashboard)

	mux.HandleFunc("/fittings/calculate", s.handleFitting)

	// Alert and scan endpoints
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/scans", s.handleScans)
	mux.HandleFunc("/scans/state", s.handleScanState)

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.log.Info("starting assettrack API", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrAssetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrConditionRequired),
		errors.Is(err, ErrNoAssets),
		errors.Is(err, store.ErrMissingUID),
		errors.Is(err, fitting.ErrInvalidFitting):
		status = http.StatusBadRequest
	case errors.Is(err, scanner.ErrScanInProgress):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

// --- Health ---

// HealthResponse is the /health payload.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	resp := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.service.Ping(ctx); err != nil {
		resp.OK = false
		resp.DB = "error"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// --- Asset Handlers ---

// handleAssets handles GET /assets and POST /assets
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAssets(w, r)
	case http.MethodPost:
		s.importAssets(w, r)
	default:
		methodNotAllowed(w)
	}
}

// handleAssetByUID handles GET and PUT /assets/{uid}
func (s *Server) handleAssetByUID(w http.ResponseWriter, r *http.Request) {
	uid, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/assets/"))
	if err != nil || uid == "" || strings.Contains(uid, "/") {
		badRequest(w, "asset uid required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getAsset(w, r, uid)
	case http.MethodPut:
		s.updateAsset(w, r, uid)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AssetFilter{
		VendorName: q.Get("vendor"),
		AssetType:  q.Get("type"),
	}

	if withVerdicts, _ := strconv.ParseBool(q.Get("verdicts")); withVerdicts {
		classified, err := s.service.ClassifyAssets(r.Context(), filter)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, classified)
		return
	}

	assets, err := s.service.ListAssets(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if assets == nil {
		assets = []models.AssetRecord{}
	}
	writeJSON(w, http.StatusOK, assets)
}

type importResponse struct {
	Imported int `json:"imported"`
}

func (s *Server) importAssets(w http.ResponseWriter, r *http.Request) {
	var records []models.AssetRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		badRequest(w, "invalid json")
		return
	}

	n, err := s.service.ImportAssets(r.Context(), records)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Imported: n})
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request, uid string) {
	detail, err := s.service.GetAssetDetail(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// inspectionRequest carries dates as YYYY-MM-DD strings.
type inspectionRequest struct {
	ConditionLot   string   `json:"condition_lot"`
	Remarks        string   `json:"remarks"`
	LastInspection string   `json:"last_inspection"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

func (s *Server) updateAsset(w http.ResponseWriter, r *http.Request, uid string) {
	var req inspectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	u := models.InspectionUpdate{
		ConditionLot: req.ConditionLot,
		Remarks:      req.Remarks,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}
	if req.LastInspection != "" {
		t, err := parseDate(req.LastInspection)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		u.LastInspection = &t
	}

	asset, err := s.service.UpdateInspection(r.Context(), uid, u)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
}

// --- Report Handlers ---

func (s *Server) handleVendorReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rows, err := s.service.VendorReport(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleVendorLots handles GET /reports/vendors/{name}/lots
func (s *Server) handleVendorLots(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.EscapedPath(), "/reports/vendors/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "lots" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	vendor, err := url.PathUnescape(parts[0])
	if err != nil {
		badRequest(w, "invalid vendor name")
		return
	}

	summary, err := s.service.LotSummary(r.Context(), vendor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleInventoryReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rows, err := s.service.InventoryReport(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f, err := s.service.ExportReports(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("assettrack_reports_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(w); err != nil {
		s.log.Error("write export", "error", err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	summary, err := s.service.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- Fittings ---

type fittingRequest struct {
	LineLengthKm float64 `json:"line_length_km"`
	GaugeType    string  `json:"gauge_type"`
}

func (s *Server) handleFitting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req fittingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	res, err := s.service.CalculateFitting(req.LineLengthKm, req.GaugeType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Alerts and Scans ---

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	alerts, err := s.service.ListAlerts(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if alerts == nil {
		alerts = []models.ExpiryAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	res, err := s.service.RunScan(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleScanState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.service.ScanStatus())
}
