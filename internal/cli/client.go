package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, клиент не зависит от internal/api) ---

// FlowcellRunResponse — запуск flowcell из API.
type FlowcellRunResponse struct {
	ID       string `json:"id"`
	Flowcell string `json:"flowcell"`
	Status   string `json:"status"`
	Phase    string `json:"phase"`
	Budget   struct {
		CoresPerSample    int `json:"cores_per_sample"`
		MemoryPerSampleGB int `json:"memory_per_sample_gb"`
	} `json:"budget"`
	Samples          int    `json:"samples"`
	Processed        int    `json:"processed"`
	Failed           int    `json:"failed"`
	Skipped          int    `json:"skipped"`
	Annotated        int    `json:"annotated"`
	AnnotationFailed int    `json:"annotation_failed"`
	StartedAt        string `json:"started_at,omitempty"`
	FinishedAt       string `json:"finished_at,omitempty"`
	DurationMs       int64  `json:"duration_ms,omitempty"`
	Error            string `json:"error,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// SampleRunResponse — результат образца из API.
type SampleRunResponse struct {
	SampleID          string `json:"sample_id"`
	Flowcell          string `json:"flowcell"`
	Chemistry         string `json:"chemistry"`
	Organism          string `json:"organism"`
	Position          int    `json:"position"`
	Status            string `json:"status"`
	ExitCode          *int   `json:"exit_code,omitempty"`
	LogPath           string `json:"log_path,omitempty"`
	RemotePath        string `json:"remote_path,omitempty"`
	Annotated         *bool  `json:"annotated,omitempty"`
	AnnotationMessage string `json:"annotation_message,omitempty"`
	Error             string `json:"error,omitempty"`
}

// EnqueueResponse — ответ на постановку flowcell в очередь.
type EnqueueResponse struct {
	Flowcell string `json:"flowcell"`
	RunSheet string `json:"run_sheet,omitempty"`
	Queued   bool   `json:"queued"`
}

// ListFlowcellsOpts — параметры фильтрации запусков.
type ListFlowcellsOpts struct {
	Flowcell string
	Status   string
	Limit    int
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

// Client — HTTP-клиент для scauto API.
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

// ListFlowcells возвращает запуски flowcell, новые первыми.
func (c *Client) ListFlowcells(opts ListFlowcellsOpts) ([]FlowcellRunResponse, error) {
	params := url.Values{}
	if opts.Flowcell != "" {
		params.Set("flowcell", opts.Flowcell)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var runs []FlowcellRunResponse
	err := c.list("/api/v1/flowcells", params, &runs)
	return runs, err
}

// GetFlowcell возвращает запуск по ID.
func (c *Client) GetFlowcell(id string) (*FlowcellRunResponse, error) {
	var run FlowcellRunResponse
	err := c.get("/api/v1/flowcells/"+url.PathEscape(id), &run)
	return &run, err
}

// ListSamples возвращает образцы запуска.
func (c *Client) ListSamples(runID string) ([]SampleRunResponse, error) {
	var samples []SampleRunResponse
	err := c.list("/api/v1/flowcells/"+url.PathEscape(runID)+"/samples", nil, &samples)
	return samples, err
}

// Enqueue ставит flowcell в очередь на обработку.
func (c *Client) Enqueue(flowcell, runSheet string) (*EnqueueResponse, error) {
	body := map[string]string{}
	if runSheet != "" {
		body["run_sheet"] = runSheet
	}
	var resp EnqueueResponse
	err := c.post("/api/v1/flowcells/"+url.PathEscape(flowcell)+"/enqueue", body, &resp)
	return &resp, err
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

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
