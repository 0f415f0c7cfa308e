package ocr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	return Config{
		APIKey:       "test-key",
		ModelID:      "model-123",
		BaseURL:      baseURL,
		InitialDelay: 0,
		PollInterval: time.Millisecond,
		MaxAttempts:  5,
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []Config{
		{ModelID: "m", MaxAttempts: 3},
		{APIKey: "k", MaxAttempts: 3},
		{APIKey: "k", ModelID: "m"},
		{APIKey: "   ", ModelID: "m", MaxAttempts: 3},
	}
	for i, cfg := range cases {
		if _, err := NewClient(cfg); err == nil {
			t.Fatalf("case %d: expected configuration error", i)
		}
	}
}

func TestSubmitAndAwaitHappyPath(t *testing.T) {
	var pollCount, fetchCount int32

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/v2/inferences/enqueue", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got := r.FormValue("model_id"); got != "model-123" {
			t.Errorf("unexpected model_id %q", got)
		}
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"job":{"id":"j1","status":"enqueued","polling_url":"%s/jobs/j1"}}`, server.URL)
	})

	// 202 without result_url, 200 without result_url, then 200 with it.
	mux.HandleFunc("/jobs/j1", func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&pollCount, 1) {
		case 1:
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{"job":{"id":"j1","status":"processing"}}`)
		case 2:
			fmt.Fprint(w, `{"job":{"id":"j1","status":"processing"}}`)
		default:
			fmt.Fprintf(w, `{"job":{"id":"j1","status":"done","result_url":"%s/results/j1"}}`, server.URL)
		}
	})

	mux.HandleFunc("/results/j1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetchCount, 1)
		fmt.Fprint(w, `{"inference":{"result":{"fields":{"surnames":{"value":"DOE"}}}}}`)
	})

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}

	payload, err := client.SubmitAndAwait(context.Background(), []byte("fake-image"), "passport.jpg")
	if err != nil {
		t.Fatalf("SubmitAndAwait err: %v", err)
	}

	if got := atomic.LoadInt32(&pollCount); got != 3 {
		t.Fatalf("expected 3 polls, got %d", got)
	}
	if got := atomic.LoadInt32(&fetchCount); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}
	value, ok := FirstScalar(payload.Fields("inference", "result", "fields"), "surnames")
	if !ok || value != "DOE" {
		t.Fatalf("unexpected extracted value %q (present=%t)", value, ok)
	}
}

func TestSubmitAndAwaitRedirectStatusStillInspected(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/v2/inferences/enqueue", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"job":{"polling_url":"%s/jobs/j2"}}`, server.URL)
	})
	mux.HandleFunc("/jobs/j2", func(w http.ResponseWriter, r *http.Request) {
		// Readiness can arrive as a 302 whose body already carries the
		// result pointer. The client must not follow the redirect.
		w.Header().Set("Location", server.URL+"/results/j2")
		w.WriteHeader(http.StatusFound)
		fmt.Fprintf(w, `{"job":{"result_url":"%s/results/j2"}}`, server.URL)
	})
	mux.HandleFunc("/results/j2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"inference":{"result":{"fields":{}}}}`)
	})

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}
	if _, err := client.SubmitAndAwait(context.Background(), []byte("img"), ""); err != nil {
		t.Fatalf("SubmitAndAwait err: %v", err)
	}
}

func TestSubmitFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, "quota exceeded")
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}

	_, err = client.SubmitAndAwait(context.Background(), []byte("img"), "")
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if subErr.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("unexpected status %d", subErr.StatusCode)
	}
}

func TestSubmitMalformedDescriptor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"job":{"id":"j3"}}`)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}

	_, err = client.SubmitAndAwait(context.Background(), []byte("img"), "")
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError for missing polling_url, got %v", err)
	}
}

func TestPollErrorStatusFailsImmediately(t *testing.T) {
	var pollCount int32
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/v2/inferences/enqueue", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"job":{"polling_url":"%s/jobs/j4"}}`, server.URL)
	})
	mux.HandleFunc("/jobs/j4", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&pollCount, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "backend exploded")
	})

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}

	_, err = client.SubmitAndAwait(context.Background(), []byte("img"), "")
	var pollErr *PollingError
	if !errors.As(err, &pollErr) {
		t.Fatalf("expected PollingError, got %v", err)
	}
	if got := atomic.LoadInt32(&pollCount); got != 1 {
		t.Fatalf("expected a single poll before failing, got %d", got)
	}
}

func TestPollBudgetExhaustedIsTimeout(t *testing.T) {
	var pollCount, fetchCount int32
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/v2/inferences/enqueue", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"job":{"polling_url":"%s/jobs/j5"}}`, server.URL)
	})
	mux.HandleFunc("/jobs/j5", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&pollCount, 1)
		fmt.Fprint(w, `{"job":{"status":"processing"}}`)
	})
	mux.HandleFunc("/results/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetchCount, 1)
	})

	cfg := testConfig(server.URL)
	cfg.MaxAttempts = 4
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}

	_, err = client.SubmitAndAwait(context.Background(), []byte("img"), "")
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if got := atomic.LoadInt32(&pollCount); got != 4 {
		t.Fatalf("expected 4 polls, got %d", got)
	}
	if got := atomic.LoadInt32(&fetchCount); got != 0 {
		t.Fatalf("expected zero fetches on timeout, got %d", got)
	}
}

func TestSubmitAndAwaitHonorsCancellation(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/v2/inferences/enqueue", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"job":{"polling_url":"%s/jobs/j6"}}`, server.URL)
	})
	mux.HandleFunc("/jobs/j6", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"job":{"status":"processing"}}`)
	})

	cfg := testConfig(server.URL)
	cfg.PollInterval = time.Hour
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.SubmitAndAwait(ctx, []byte("img"), ""); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
