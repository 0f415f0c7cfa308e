package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api-v2.mindee.net"

// Config carries everything one extraction model needs: credentials, the
// model identifier and the polling schedule.
type Config struct {
	APIKey       string
	ModelID      string
	BaseURL      string
	InitialDelay time.Duration
	PollInterval time.Duration
	MaxAttempts  int
}

// Validate checks the credentials eagerly so a misconfigured client fails at
// startup rather than on the first user upload.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("ocr: api key is required")
	}
	if strings.TrimSpace(c.ModelID) == "" {
		return fmt.Errorf("ocr: model id is required")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("ocr: max attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

// Client runs the three-phase extraction protocol: enqueue a document, poll
// the job until a result URL appears, then fetch the structured result.
type Client struct {
	config Config
	http   *http.Client
}

type jobEnvelope struct {
	Job struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		PollingURL string `json:"polling_url"`
		ResultURL  string `json:"result_url"`
	} `json:"job"`
}

// NewClient builds a client for one model configuration.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		http: &http.Client{
			Timeout: 60 * time.Second,
			// The job endpoint signals readiness with redirect-like codes
			// while still embedding the descriptor in the body. Redirects
			// must surface to the caller, not be followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// SubmitAndAwait pushes the image through the full protocol and returns the
// raw structured payload. The payload is returned uninterpreted; schema
// adaptation belongs to the caller.
func (c *Client) SubmitAndAwait(ctx context.Context, image []byte, filename string) (Payload, error) {
	tag := uuid.NewString()

	pollingURL, err := c.submit(ctx, image, filename)
	if err != nil {
		return nil, err
	}
	log.Printf("[ocr] job %s enqueued for model %s", tag, c.config.ModelID)

	if err := sleepCtx(ctx, c.config.InitialDelay); err != nil {
		return nil, err
	}

	resultURL, err := c.awaitResult(ctx, pollingURL)
	if err != nil {
		return nil, err
	}
	log.Printf("[ocr] job %s ready, fetching result", tag)

	return c.fetchResult(ctx, resultURL)
}

func (c *Client) submit(ctx context.Context, image []byte, filename string) (string, error) {
	if filename == "" {
		filename = "document.jpg"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("model_id", c.config.ModelID); err != nil {
		return "", fmt.Errorf("ocr: build submission: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("ocr: build submission: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("ocr: build submission: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("ocr: build submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v2/inferences/enqueue", &body)
	if err != nil {
		return "", fmt.Errorf("ocr: build submission: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", c.config.APIKey)

	status, respBody, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &SubmissionError{StatusCode: status, Body: string(respBody)}
	}

	var envelope jobEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil || envelope.Job.PollingURL == "" {
		return "", &SubmissionError{StatusCode: status, Body: "missing polling_url in job descriptor"}
	}
	return envelope.Job.PollingURL, nil
}

// awaitResult polls the job descriptor until a result URL appears or the
// attempt budget runs out.
func (c *Client) awaitResult(ctx context.Context, pollingURL string) (string, error) {
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.config.PollInterval); err != nil {
				return "", err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollingURL, nil)
		if err != nil {
			return "", fmt.Errorf("ocr: build poll request: %w", err)
		}
		req.Header.Set("Authorization", c.config.APIKey)

		status, body, err := c.do(req)
		if err != nil {
			return "", err
		}
		switch status {
		case http.StatusOK, http.StatusAccepted, http.StatusFound:
			// Still a valid job descriptor; the result pointer may already
			// be embedded even under 202/302, so inspect the body.
		default:
			return "", &PollingError{StatusCode: status, Body: string(body)}
		}

		var envelope jobEnvelope
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Job.ResultURL != "" {
			return envelope.Job.ResultURL, nil
		}
	}
	return "", ErrPollTimeout
}

func (c *Client) fetchResult(ctx context.Context, resultURL string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ocr: build fetch request: %w", err)
	}
	req.Header.Set("Authorization", c.config.APIKey)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &FetchError{StatusCode: status, Body: string(body)}
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &FetchError{StatusCode: status, Body: fmt.Sprintf("malformed payload: %v", err)}
	}
	return payload, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("ocr: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("ocr: read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
