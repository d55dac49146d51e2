package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"scmcore/store"
)

// Client talks to the prediction engine and the optimizer over JSON/HTTP.
// Results are returned as opaque values; the store logs them verbatim.
type Client struct {
	predictionURL string
	optimizerURL  string
	httpClient    *http.Client
}

func NewClient(predictionURL, optimizerURL string, timeout time.Duration) *Client {
	return &Client{
		predictionURL: predictionURL,
		optimizerURL:  optimizerURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) do(ctx context.Context, method, base, path string, body any) (store.Value, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return store.Null(), fmt.Errorf("engine marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, bodyReader)
	if err != nil {
		return store.Null(), fmt.Errorf("engine %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return store.Null(), fmt.Errorf("engine %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	return decode(resp)
}

func decode(resp *http.Response) (store.Value, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return store.Null(), fmt.Errorf("engine read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return store.Null(), &HTTPError{Status: resp.StatusCode, Body: string(data)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return store.Null(), nil
	}
	var v store.Value
	if err := v.UnmarshalJSON(data); err != nil {
		return store.Null(), fmt.Errorf("engine decode: %w", err)
	}
	return v, nil
}

// HTTPError is a non-2xx reply from an engine.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("engine HTTP %d: %s", e.Status, e.Body)
}

func (c *Client) PredictSupplier(ctx context.Context, in *SupplierInput) (store.Value, error) {
	return c.do(ctx, http.MethodPost, c.predictionURL, "/predict/supplier", in)
}

func (c *Client) ForecastInventory(ctx context.Context, steps int, confidence float64) (store.Value, error) {
	q := url.Values{}
	q.Set("steps", strconv.Itoa(steps))
	q.Set("confidence_level", strconv.FormatFloat(confidence, 'f', -1, 64))
	return c.do(ctx, http.MethodGet, c.predictionURL, "/forecast/inventory?"+q.Encode(), nil)
}

func (c *Client) PredictShipment(ctx context.Context, in *ShipmentInput) (store.Value, error) {
	return c.do(ctx, http.MethodPost, c.predictionURL, "/predict/shipment", in)
}

func (c *Client) OptimizeInventory(ctx context.Context, in *InventoryInput) (store.Value, error) {
	return c.do(ctx, http.MethodPost, c.optimizerURL, "/optimize/inventory", in)
}

func (c *Client) OptimizeRouting(ctx context.Context, in *RoutingInput) (store.Value, error) {
	return c.do(ctx, http.MethodPost, c.optimizerURL, "/optimize/routing", in)
}

// Models returns the prediction engine's model description.
func (c *Client) Models(ctx context.Context) (store.Value, error) {
	return c.do(ctx, http.MethodGet, c.predictionURL, "/models", nil)
}

func (c *Client) ReloadModels(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, c.predictionURL, "/models/reload", nil)
	return err
}

// Health checks both engines and returns the first failure.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodGet, c.predictionURL, "/health", nil); err != nil {
		return fmt.Errorf("prediction engine: %w", err)
	}
	if _, err := c.do(ctx, http.MethodGet, c.optimizerURL, "/health", nil); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	return nil
}

// ModelName returns the result's "model" field, or fallback.
func ModelName(result store.Value, fallback string) string {
	if m, ok := result.Get("model"); ok {
		if s, ok := m.AsString(); ok && s != "" {
			return s
		}
	}
	return fallback
}

// StringField returns result[key] when it is a string, or fallback.
func StringField(result store.Value, key, fallback string) string {
	if v, ok := result.Get(key); ok {
		if s, ok := v.AsString(); ok {
			return s
		}
	}
	return fallback
}

// FloatField returns result[key] when it is a number.
func FloatField(result store.Value, key string) (float64, bool) {
	v, ok := result.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}
