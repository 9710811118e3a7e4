package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"mockinterview/internal/compiler/model"
)

// CodapiConfig configures the Codapi backend.
type CodapiConfig struct {
	URL            string        `yaml:"url"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
}

// CodapiClient runs code through a Codapi exec endpoint.
type CodapiClient struct {
	url  string
	http *http.Client
}

type codapiRequest struct {
	Sandbox string            `json:"sandbox"`
	Command string            `json:"command"`
	Files   map[string]string `json:"files"`
	Stdin   string            `json:"stdin,omitempty"`
}

type codapiResponse struct {
	OK       *bool    `json:"ok"`
	Stdout   *string  `json:"stdout"`
	Stderr   *string  `json:"stderr"`
	Duration *float64 `json:"duration"`
}

func NewCodapiClient(cfg CodapiConfig) (*CodapiClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("codapi url is required")
	}
	return &CodapiClient{
		url:  cfg.URL,
		http: newHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout),
	}, nil
}

// Execute performs one call. Stdin is attached only when it has non-space content.
func (c *CodapiClient) Execute(ctx context.Context, sub model.PreparedSubmission, stdin string) (model.RawResponse, error) {
	payload := codapiRequest{
		Sandbox: sub.SandboxID,
		Command: sub.Command,
		Files:   map[string]string{sub.FileName: sub.FileContent},
	}
	if strings.TrimSpace(stdin) != "" {
		payload.Stdin = stdin
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return model.RawResponse{}, fmt.Errorf("%w: encode request: %v", model.ErrRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return model.RawResponse{}, fmt.Errorf("%w: build codapi request: %v", model.ErrRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.RawResponse{}, classifyTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := readBody(resp)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return model.RawResponse{}, fmt.Errorf("%w: read body: %w", model.ErrTimeout, err)
		}
		return model.RawResponse{}, classifyTransportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.RawResponse{}, fmt.Errorf("%w: codapi status %d: %s", model.ErrBadStatus, resp.StatusCode, snippet(respBody))
	}

	var wire codapiResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return model.RawResponse{}, fmt.Errorf("%w: %v", model.ErrMalformed, err)
	}
	if wire.OK == nil {
		return model.RawResponse{}, fmt.Errorf("%w: missing ok field: %s", model.ErrMalformed, snippet(respBody))
	}
	return model.RawResponse{
		OK:       *wire.OK,
		Stdout:   wire.Stdout,
		Stderr:   wire.Stderr,
		Duration: wire.Duration,
	}, nil
}
