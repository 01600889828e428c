package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/railtms/assettrack/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the assettrack API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// ListAssets fetches every asset with its verdict
func (c *Client) ListAssets() ([]models.ClassifiedAsset, error) {
	var assets []models.ClassifiedAsset
	err := c.do(http.MethodGet, "/assets?verdicts=true", nil, &assets)
	return assets, err
}

// GetAsset fetches one asset with its verdict and context
func (c *Client) GetAsset(uid string) (*models.AssetDetail, error) {
	var d models.AssetDetail
	if err := c.do(http.MethodGet, "/assets/"+url.PathEscape(uid), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateCondition records an inspection for uid
func (c *Client) UpdateCondition(uid, condition, remarks string) (*models.AssetRecord, error) {
	body := map[string]interface{}{
		"condition_lot":   condition,
		"remarks":         remarks,
		"last_inspection": time.Now().UTC().Format(models.DateLayout),
	}
	var a models.AssetRecord
	if err := c.do(http.MethodPut, "/assets/"+url.PathEscape(uid), body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// VendorReport fetches per-vendor counts
func (c *Client) VendorReport() ([]models.VendorReport, error) {
	var rows []models.VendorReport
	err := c.do(http.MethodGet, "/reports/vendors", nil, &rows)
	return rows, err
}

// LotSummary fetches the ready/not-ready split for vendor
func (c *Client) LotSummary(vendor string) (*models.LotStatusSummary, error) {
	var sum models.LotStatusSummary
	if err := c.do(http.MethodGet, "/reports/vendors/"+url.PathEscape(vendor)+"/lots", nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Dashboard fetches headline counts
func (c *Client) Dashboard() (*models.DashboardSummary, error) {
	var d models.DashboardSummary
	if err := c.do(http.MethodGet, "/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Alerts fetches recent expiry alerts
func (c *Client) Alerts(limit int) ([]models.ExpiryAlert, error) {
	var alerts []models.ExpiryAlert
	err := c.do(http.MethodGet, "/alerts?limit="+strconv.Itoa(limit), nil, &alerts)
	return alerts, err
}

// RunScan triggers an expiration scan
func (c *Client) RunScan() (*models.ScanResult, error) {
	var res models.ScanResult
	if err := c.do(http.MethodPost, "/scans", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CalculateFitting asks the API for track-fitting quantities
func (c *Client) CalculateFitting(lengthKm float64, gauge string) (*models.FittingResult, error) {
	body := map[string]interface{}{"line_length_km": lengthKm, "gauge_type": gauge}
	var res models.FittingResult
	if err := c.do(http.MethodPost, "/fittings/calculate", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health reports whether the daemon answers its health check
func (c *Client) Health() bool {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("API error: %s", e.Error)
		}
		return fmt.Errorf("API error: %s", string(data))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
