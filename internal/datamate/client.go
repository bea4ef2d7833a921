package datamate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/five82/datamate/internal/query"
)

// Lister defines the paged list endpoints used by the console.
// This interface is implemented by *Client and can be used for testing.
type Lister interface {
	ListDatasets(ctx context.Context, req query.Request) (query.Page[Dataset], error)
	ListAnnotationTasks(ctx context.Context, req query.Request) (query.Page[AnnotationTask], error)
	ListCleansingTasks(ctx context.Context, req query.Request) (query.Page[CleansingTask], error)
	ListOperators(ctx context.Context, req query.Request) (query.Page[Operator], error)
	ListKnowledgeBases(ctx context.Context, req query.Request) (query.Page[KnowledgeBase], error)
}

// Ensure Client implements Lister at compile time.
var _ Lister = (*Client)(nil)

const (
	defaultBaseURL        = "http://127.0.0.1:8080"
	defaultUserAgent      = "datamate/0.1"
	defaultRequestTimeout = 10 * time.Second
	maxErrorBody          = 4 << 10
)

// API paths.
const (
	pathDatasets       = "/api/data-management/datasets"
	pathAnnotation     = "/api/annotation/tasks"
	pathCleansing      = "/api/cleaning/tasks"
	pathOperators      = "/api/operators"
	pathKnowledgeBases = "/api/knowledge-base"
)

// APIError reports a non-2xx response.
type APIError struct {
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the dataset pipeline HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

// NewClient builds a Client for baseURL. A bare host:port is treated as
// http. A non-positive timeout uses the default.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListDatasets retrieves one page of datasets.
func (c *Client) ListDatasets(ctx context.Context, req query.Request) (query.Page[Dataset], error) {
	return listPage[Dataset](ctx, c, pathDatasets, req)
}

// GetDataset retrieves a single dataset.
func (c *Client) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("dataset id required")
	}
	var payload Dataset
	rel := &url.URL{
		Path:    pathDatasets + "/" + id,
		RawPath: pathDatasets + "/" + url.PathEscape(id),
	}
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ListAnnotationTasks retrieves one page of annotation tasks.
func (c *Client) ListAnnotationTasks(ctx context.Context, req query.Request) (query.Page[AnnotationTask], error) {
	return listPage[AnnotationTask](ctx, c, pathAnnotation, req)
}

// ListCleansingTasks retrieves one page of cleansing tasks.
func (c *Client) ListCleansingTasks(ctx context.Context, req query.Request) (query.Page[CleansingTask], error) {
	return listPage[CleansingTask](ctx, c, pathCleansing, req)
}

// ListOperators retrieves one page of the operator marketplace.
func (c *Client) ListOperators(ctx context.Context, req query.Request) (query.Page[Operator], error) {
	return listPage[Operator](ctx, c, pathOperators, req)
}

// ListKnowledgeBases retrieves one page of knowledge bases.
func (c *Client) ListKnowledgeBases(ctx context.Context, req query.Request) (query.Page[KnowledgeBase], error) {
	return listPage[KnowledgeBase](ctx, c, pathKnowledgeBases, req)
}

func listPage[T any](ctx context.Context, c *Client, path string, req query.Request) (query.Page[T], error) {
	if c == nil {
		return query.Page[T]{}, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: path, RawQuery: req.Values().Encode()}
	var payload query.Page[T]
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return query.Page[T]{}, err
	}
	return payload, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &APIError{
			Path:    rel.Path,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body),
		}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts {"message": "..."} from an error body.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
