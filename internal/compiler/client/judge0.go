package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mockinterview/internal/compiler/model"
	"mockinterview/internal/compiler/profile"
	"mockinterview/pkg/utils/logger"

	"go.uber.org/zap"
)

// Judge0 status ids: 1 in queue, 2 processing, 3 accepted, anything above is a final failure.
const (
	judge0StatusProcessing = 2
	judge0StatusAccepted   = 3
)

// Judge0Config configures the RapidAPI-hosted Judge0 backend.
type Judge0Config struct {
	URL            string        `yaml:"url"`
	APIKey         string        `yaml:"apiKey"`
	Host           string        `yaml:"host"`
	PollAttempts   int           `yaml:"pollAttempts"`
	PollInterval   time.Duration `yaml:"pollInterval"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
}

// Judge0Client submits asynchronously and polls until the submission leaves the queue.
type Judge0Client struct {
	baseURL      string
	apiKey       string
	host         string
	pollAttempts int
	pollInterval time.Duration
	http         *http.Client
}

type judge0SubmitRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin,omitempty"`
}

type judge0SubmitResponse struct {
	Token string `json:"token"`
}

type judge0Submission struct {
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	Time          *string `json:"time"`
	Status        *struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

func NewJudge0Client(cfg Judge0Config) (*Judge0Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("judge0 url is required")
	}
	if cfg.Host == "" {
		if u, err := url.Parse(cfg.URL); err == nil {
			cfg.Host = u.Host
		}
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Judge0Client{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		apiKey:       cfg.APIKey,
		host:         cfg.Host,
		pollAttempts: cfg.PollAttempts,
		pollInterval: cfg.PollInterval,
		http:         newHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout),
	}, nil
}

// Execute submits sub and polls for the finished submission. A submission still
// queued after the poll budget is reported as a timeout.
func (c *Judge0Client) Execute(ctx context.Context, sub model.PreparedSubmission, stdin string) (model.RawResponse, error) {
	p, ok := profile.Resolve(sub.Language)
	if !ok || p.Judge0ID == 0 {
		return model.RawResponse{}, fmt.Errorf("%w: no judge0 language id for %q", model.ErrRejected, sub.Language)
	}

	payload := judge0SubmitRequest{
		SourceCode: base64.StdEncoding.EncodeToString([]byte(sub.FileContent)),
		LanguageID: p.Judge0ID,
	}
	if strings.TrimSpace(stdin) != "" {
		payload.Stdin = base64.StdEncoding.EncodeToString([]byte(stdin))
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return model.RawResponse{}, fmt.Errorf("%w: encode request: %v", model.ErrRejected, err)
	}

	var created judge0SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/submissions?base64_encoded=true&wait=false", body, &created); err != nil {
		return model.RawResponse{}, err
	}
	if created.Token == "" {
		return model.RawResponse{}, fmt.Errorf("%w: judge0 returned no token", model.ErrMalformed)
	}

	path := "/submissions/" + url.PathEscape(created.Token) + "?base64_encoded=true&fields=stdout,stderr,compile_output,message,status,time"
	for poll := 1; poll <= c.pollAttempts; poll++ {
		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return model.RawResponse{}, ctx.Err()
		case <-timer.C:
		}

		var got judge0Submission
		if err := c.do(ctx, http.MethodGet, path, nil, &got); err != nil {
			return model.RawResponse{}, err
		}
		if got.Status == nil {
			return model.RawResponse{}, fmt.Errorf("%w: judge0 submission has no status", model.ErrMalformed)
		}
		if got.Status.ID <= judge0StatusProcessing {
			logger.Debug(ctx, "judge0 submission pending",
				zap.String("token", created.Token),
				zap.Int("poll", poll),
				zap.String("status", got.Status.Description),
			)
			continue
		}
		return toRawResponse(got)
	}
	return model.RawResponse{}, fmt.Errorf("%w: judge0 submission %s still pending after %d polls", model.ErrTimeout, created.Token, c.pollAttempts)
}

func (c *Judge0Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build judge0 request: %v", model.ErrRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}
	if c.host != "" {
		req.Header.Set("X-RapidAPI-Host", c.host)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := readBody(resp)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: judge0 status %d: %s", model.ErrBadStatus, resp.StatusCode, snippet(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformed, err)
	}
	return nil
}

// toRawResponse maps a finished submission onto the Codapi-shaped reply. Compile output
// and the judge message stand in for stderr when the program wrote none.
func toRawResponse(s judge0Submission) (model.RawResponse, error) {
	raw := model.RawResponse{OK: s.Status.ID == judge0StatusAccepted}

	stdout, err := decodeB64(s.Stdout)
	if err != nil {
		return model.RawResponse{}, err
	}
	raw.Stdout = stdout

	for _, candidate := range []*string{s.Stderr, s.CompileOutput, s.Message} {
		text, err := decodeB64(candidate)
		if err != nil {
			return model.RawResponse{}, err
		}
		if text != nil && strings.TrimSpace(*text) != "" {
			raw.Stderr = text
			break
		}
	}
	if raw.Stderr == nil && !raw.OK && s.Status.Description != "" {
		desc := s.Status.Description
		raw.Stderr = &desc
	}

	if s.Time != nil {
		if secs, err := strconv.ParseFloat(*s.Time, 64); err == nil {
			ms := secs * 1000
			raw.Duration = &ms
		}
	}
	return raw, nil
}

func decodeB64(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(*s, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 field: %v", model.ErrMalformed, err)
	}
	out := string(b)
	return &out, nil
}
