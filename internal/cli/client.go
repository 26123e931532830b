package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// EnqueueResponse — подтверждение постановки задачи из API.
type EnqueueResponse struct {
	UnitID        string `json:"unit_id"`
	TaskName      string `json:"task_name"`
	Queue         string `json:"queue"`
	Status        string `json:"status"`
	CorrelationID string `json:"correlation_id"`
}

// UnitResponse — work unit из API.
type UnitResponse struct {
	ID            string         `json:"id"`
	TaskName      string         `json:"task_name"`
	Args          map[string]any `json:"args,omitempty"`
	CorrelationID string         `json:"correlation_id"`
	EnqueuedAt    string         `json:"enqueued_at"`
	RetryCount    int            `json:"retry_count"`
	MaxRetries    int            `json:"max_retries"`
	Status        string         `json:"status"`
	Result        map[string]any `json:"result,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	StartedAt     string         `json:"started_at,omitempty"`
	FinishedAt    string         `json:"finished_at,omitempty"`
}

// DeadLetterResponse — dead letter из API.
type DeadLetterResponse struct {
	ID             string         `json:"id"`
	UnitID         string         `json:"unit_id"`
	TaskName       string         `json:"task_name"`
	Args           map[string]any `json:"args,omitempty"`
	CorrelationID  string         `json:"correlation_id"`
	Attempts       int            `json:"attempts"`
	Reason         string         `json:"reason"`
	DeadLetteredAt string         `json:"dead_lettered_at"`
}

// --- Request types ---

// EnqueueRequest — постановка задачи в очередь.
type EnqueueRequest struct {
	TaskName      string         `json:"task_name"`
	Args          map[string]any `json:"args,omitempty"`
	MaxRetries    *int           `json:"max_retries,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// --- JSON-RPC envelope ---

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для paycore API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Tools ---

// CallTool выполняет tool синхронно через JSON-RPC endpoint.
func (c *Client) CallTool(name string, args map[string]any) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  rpcParams{Name: name, Arguments: args},
	}

	resp, err := c.do(http.MethodPost, "/rpc", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if out.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", out.Error.Code, out.Error.Message)
	}

	return out.Result, nil
}

// --- Tasks ---

// EnqueueTask ставит задачу в очередь на асинхронное выполнение.
func (c *Client) EnqueueTask(req EnqueueRequest) (*EnqueueResponse, error) {
	var out EnqueueResponse
	err := c.post("/api/v1/tasks", req, &out)
	return &out, err
}

// GetUnit возвращает work unit по ID.
func (c *Client) GetUnit(id string) (*UnitResponse, error) {
	var unit UnitResponse
	err := c.get("/api/v1/tasks/"+id, &unit)
	return &unit, err
}

// --- Dead letters ---

// ListDeadLetters возвращает dead letters, новые первыми.
func (c *Client) ListDeadLetters(limit int) ([]DeadLetterResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var letters []DeadLetterResponse
	err := c.list("/api/v1/dead-letters", params, &letters)
	return letters, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
