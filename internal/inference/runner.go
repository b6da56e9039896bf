// Package inference wraps the external ONNX inference daemon. Models are
// opaque: the package ships tensors in and out and performs no
// post-processing of its own.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ErrModelUnavailable is returned when a model asset is missing or cannot be
// loaded. It is fatal and raised before any capture begins.
var ErrModelUnavailable = errors.New("model unavailable")

// Tensor is a dense float tensor in row-major layout.
type Tensor struct {
	Data  []float32 `json:"data"`
	Shape []int64   `json:"shape"`
}

// At3 indexes a rank-3 tensor.
func (t *Tensor) At3(i, j, k int64) float32 {
	return t.Data[(i*t.Shape[1]+j)*t.Shape[2]+k]
}

// Model runs a single loaded ONNX model.
type Model interface {
	Run(ctx context.Context, input *Tensor) (*Tensor, error)
	Close() error
}

// Client talks to the inference daemon over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the inference daemon at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

type loadRequest struct {
	ModelPath string `json:"model_path"`
}

type loadResponse struct {
	ModelID string `json:"model_id"`
	Error   string `json:"error,omitempty"`
}

type runRequest struct {
	ModelID string  `json:"model_id"`
	Input   *Tensor `json:"input"`
}

type runResponse struct {
	Output *Tensor `json:"output"`
	Error  string  `json:"error,omitempty"`
}

// LoadModel verifies the model asset exists and registers it with the daemon.
// A missing file or a daemon-side load failure is ErrModelUnavailable.
func (c *Client) LoadModel(ctx context.Context, modelPath string) (Model, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("no model path configured: %w", ErrModelUnavailable)
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file %s: %w", modelPath, ErrModelUnavailable)
	}

	body, err := c.post(ctx, "/models", loadRequest{ModelPath: modelPath})
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, errors.Join(err, ErrModelUnavailable))
	}

	var resp loadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse load response: %w", err)
	}
	if resp.Error != "" || resp.ModelID == "" {
		return nil, fmt.Errorf("daemon rejected model %s: %s: %w", modelPath, resp.Error, ErrModelUnavailable)
	}

	return &remoteModel{client: c, modelID: resp.ModelID}, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daemon error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// remoteModel is a handle to a model loaded in the daemon.
type remoteModel struct {
	client  *Client
	modelID string
	closed  bool
}

func (m *remoteModel) Run(ctx context.Context, input *Tensor) (*Tensor, error) {
	if m.closed {
		return nil, errors.New("model handle already closed")
	}

	body, err := m.client.post(ctx, "/run", runRequest{ModelID: m.modelID, Input: input})
	if err != nil {
		return nil, fmt.Errorf("run model %s: %w", m.modelID, err)
	}

	var resp runResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse run response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("inference failed for model %s: %s", m.modelID, resp.Error)
	}
	if resp.Output == nil || len(resp.Output.Data) == 0 {
		return nil, errors.New("empty output tensor")
	}

	return resp.Output, nil
}

// Close releases the daemon-side model. Idempotent.
func (m *remoteModel) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	req, err := http.NewRequest(http.MethodDelete, m.client.baseURL+"/models/"+m.modelID, nil)
	if err != nil {
		return fmt.Errorf("create unload request: %w", err)
	}
	resp, err := m.client.client.Do(req)
	if err != nil {
		return fmt.Errorf("unload model %s: %w", m.modelID, err)
	}
	resp.Body.Close()
	return nil
}
