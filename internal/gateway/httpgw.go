package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// FileOpener resolves a locally queued image URI to its bytes. Injection
// keeps file-system access out of the gateway's own responsibility; the
// default strips a file:// scheme and opens the path.
type FileOpener func(uri string) (io.ReadCloser, error)

func defaultOpener(uri string) (io.ReadCloser, error) {
	return os.Open(strings.TrimPrefix(uri, "file://"))
}

// HTTPGateway talks to the persistence service over its REST API. Every
// response arrives in a {"success": bool, "data": …, "message": …} envelope;
// a false success or a 4xx/5xx status surfaces as a RemoteError carrying the
// server's message verbatim.
type HTTPGateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
	opener     FileOpener
}

// HTTPOption customises the client.
type HTTPOption func(*HTTPGateway)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) HTTPOption {
	return func(g *HTTPGateway) { g.token = token }
}

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(g *HTTPGateway) { g.httpClient.Timeout = d }
}

// WithFileOpener overrides local image resolution.
func WithFileOpener(open FileOpener) HTTPOption {
	return func(g *HTTPGateway) { g.opener = open }
}

// NewHTTPGateway constructs a client for the given base URL.
func NewHTTPGateway(baseURL string, opts ...HTTPOption) *HTTPGateway {
	g := &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		opener: defaultOpener,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// FetchRecord implements Gateway.
func (g *HTTPGateway) FetchRecord(ctx context.Context, id int64) (RawRecord, error) {
	var out RawRecord
	err := g.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", id), nil, nil, &out)
	return out, err
}

// UpdateScalarFields implements Gateway.
func (g *HTTPGateway) UpdateScalarFields(ctx context.Context, id int64, patch ScalarPatch) (RawRecord, error) {
	var out RawRecord
	err := g.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d", id), patch, nil, &out)
	return out, err
}

// ReplaceCostItems implements Gateway. The actor level travels in a header;
// enforcement is the service's job, the value here only lets it decide.
func (g *HTTPGateway) ReplaceCostItems(ctx context.Context, id int64, items []CostItemPayload, level ActorLevel) error {
	body := struct {
		Items []CostItemPayload `json:"items"`
	}{Items: items}
	headers := map[string]string{"X-Actor-Level": strconv.Itoa(int(level))}
	return g.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/cost-items", id), body, headers, nil)
}

type upsertResponse struct {
	IDs []int64 `json:"ids"`
}

// UpsertShipments implements Gateway.
func (g *HTTPGateway) UpsertShipments(ctx context.Context, id int64, items []ShipmentPayload) ([]int64, error) {
	body := struct {
		Items []ShipmentPayload `json:"items"`
	}{Items: items}
	var out upsertResponse
	if err := g.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/shipments", id), body, nil, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

// UpsertReturns implements Gateway.
func (g *HTTPGateway) UpsertReturns(ctx context.Context, id int64, items []ReturnPayload) ([]int64, error) {
	body := struct {
		Items []ReturnPayload `json:"items"`
	}{Items: items}
	var out upsertResponse
	if err := g.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/returns", id), body, nil, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

// UploadImages implements Gateway. Files go up as one multipart request per
// related item.
func (g *HTTPGateway) UploadImages(ctx context.Context, id int64, kind ImageKind, relatedID int64, files []ImageFile) error {
	if len(files) == 0 {
		return nil
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("kind", string(kind)); err != nil {
		return err
	}
	if err := writer.WriteField("related_id", strconv.FormatInt(relatedID, 10)); err != nil {
		return err
	}
	for _, file := range files {
		part, err := writer.CreateFormFile("files", file.Name)
		if err != nil {
			return err
		}
		src, err := g.opener(file.URI)
		if err != nil {
			return fmt.Errorf("open %s: %w", file.URI, err)
		}
		_, err = io.Copy(part, src)
		if cerr := src.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", file.URI, err)
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/orders/%d/images", g.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	g.authorize(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return decodeEnvelope("upload-images", resp, nil)
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	op := method + " " + path
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	g.authorize(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return decodeEnvelope(op, resp, out)
}

func (g *HTTPGateway) authorize(req *http.Request) {
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
}

func decodeEnvelope(op string, resp *http.Response, out any) error {
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", op, err)
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &RemoteError{Op: op, Status: resp.StatusCode}
		}
		return fmt.Errorf("%s: decode envelope: %w", op, err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return &RemoteError{Op: op, Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: decode data: %w", op, err)
		}
	}
	return nil
}

var (
	_ Gateway = (*HTTPGateway)(nil)
	_ Gateway = (*Memory)(nil)
)
