package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	lcimage "layercanvas/internal/image"
)

// DefaultEndpoint is the public Stable Horde API.
const DefaultEndpoint = "https://stablehorde.net/api/v2"

// AnonymousKey is the key Stable Horde accepts without registration.
const AnonymousKey = "0000000000"

// Horde generates images through the Stable Horde async API: a job is
// submitted, then its status is polled until done.
type Horde struct {
	endpoint   string
	apiKey     string
	client     *http.Client
	poll       time.Duration
	maxRetries int
	backoff    func(attempt int) time.Duration
	logger     *slog.Logger

	// OnStatus, when set, receives progress messages while a job runs.
	OnStatus func(msg string)
}

// HordeOption configures a Horde client.
type HordeOption func(*Horde)

// WithPollInterval sets how often job status is checked.
func WithPollInterval(d time.Duration) HordeOption {
	return func(h *Horde) {
		if d > 0 {
			h.poll = d
		}
	}
}

// WithMaxRetries sets how many rate-limited status checks are retried.
func WithMaxRetries(n int) HordeOption {
	return func(h *Horde) {
		if n >= 0 {
			h.maxRetries = n
		}
	}
}

// WithBackoff replaces the wait after the n-th rate-limited check.
func WithBackoff(fn func(attempt int) time.Duration) HordeOption {
	return func(h *Horde) {
		h.backoff = fn
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) HordeOption {
	return func(h *Horde) {
		h.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) HordeOption {
	return func(h *Horde) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHorde creates a client. Empty endpoint and key fall back to the public
// service and the anonymous key.
func NewHorde(endpoint, apiKey string, opts ...HordeOption) *Horde {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if apiKey == "" {
		apiKey = AnonymousKey
	}
	h := &Horde{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 60 * time.Second},
		poll:       3 * time.Second,
		maxRetries: 5,
		backoff:    rateLimitBackoff,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// rateLimitBackoff waits 10s plus 5s per attempt.
func rateLimitBackoff(attempt int) time.Duration {
	return time.Duration(10+5*attempt) * time.Second
}

// Name implements Generator.
func (h *Horde) Name() string {
	return ServiceStableHorde
}

type hordeParams struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Steps       int     `json:"steps"`
	CFGScale    float64 `json:"cfg_scale"`
	SamplerName string  `json:"sampler_name"`
	N           int     `json:"n"`
	Seed        string  `json:"seed,omitempty"`
}

type hordeRequest struct {
	Prompt string      `json:"prompt"`
	Params hordeParams `json:"params"`
	R2     bool        `json:"r2"`
}

type hordeAccepted struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type hordeGeneration struct {
	Img  string `json:"img"`
	Seed string `json:"seed"`
}

type hordeStatus struct {
	Done        bool              `json:"done"`
	Faulted     bool              `json:"faulted"`
	WaitTime    int               `json:"wait_time"`
	QueuePos    int               `json:"queue_position"`
	Generations []hordeGeneration `json:"generations"`
	Message     string            `json:"message"`
}

// Generate implements Generator. It blocks until the job finishes, fails or
// ctx is cancelled.
func (h *Horde) Generate(ctx context.Context, req Request) ([]image.Image, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	id, err := h.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	h.status("Waiting for generation to complete...")
	return h.Wait(ctx, id)
}

// Submit queues a job and returns its id.
func (h *Horde) Submit(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	// the service takes the negative prompt after a "###" separator
	if neg := strings.TrimSpace(req.NegativePrompt); neg != "" {
		prompt += " ### " + neg
	}
	body := hordeRequest{
		Prompt: prompt,
		Params: hordeParams{
			Width:       req.Size.Width,
			Height:      req.Size.Height,
			Steps:       req.Steps,
			CFGScale:    req.CFGScale,
			SamplerName: req.Sampler,
			N:           max(1, req.Count),
		},
	}
	if req.Seed >= 0 {
		body.Params.Seed = fmt.Sprint(req.Seed)
	}

	resp, err := h.do(ctx, http.MethodPost, "/generate/async", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("submit: %w", ErrRateLimited)
	default:
		return "", fmt.Errorf("submit: %w", responseError(resp))
	}

	var acc hordeAccepted
	if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if acc.ID == "" {
		return "", fmt.Errorf("submit: no job id in response")
	}
	h.logger.Info("generation submitted", "id", acc.ID, "size", req.Size.String())
	return acc.ID, nil
}

// Wait polls job id until it is done and decodes its images.
func (h *Horde) Wait(ctx context.Context, id string) ([]image.Image, error) {
	retries := 0
	for {
		st, code, err := h.check(ctx, id)
		if err != nil {
			return nil, err
		}
		var delay time.Duration
		switch {
		case code == http.StatusTooManyRequests:
			retries++
			if retries > h.maxRetries {
				return nil, fmt.Errorf("status %s: %w after %d retries", id, ErrRateLimited, h.maxRetries)
			}
			delay = h.backoff(retries)
			h.status(fmt.Sprintf("Rate limited. Retrying in %s (attempt %d/%d)", delay, retries, h.maxRetries))
		case st.Faulted:
			return nil, fmt.Errorf("generation %s failed: %s", id, st.Message)
		case st.Done:
			return h.decode(id, st)
		default:
			delay = h.poll
			h.status(fmt.Sprintf("Generating... (queue position %d, %ds wait)", st.QueuePos, st.WaitTime))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// check fetches job status. A 429 is returned as a code, not an error.
func (h *Horde) check(ctx context.Context, id string) (hordeStatus, int, error) {
	var st hordeStatus
	resp, err := h.do(ctx, http.MethodGet, "/generate/status/"+id, nil)
	if err != nil {
		return st, 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return st, resp.StatusCode, nil
	default:
		return st, resp.StatusCode, fmt.Errorf("status %s: %w", id, responseError(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, resp.StatusCode, fmt.Errorf("decode status: %w", err)
	}
	return st, resp.StatusCode, nil
}

func (h *Horde) decode(id string, st hordeStatus) ([]image.Image, error) {
	if len(st.Generations) == 0 {
		return nil, fmt.Errorf("generation %s: %w", id, ErrNoImages)
	}
	var imgs []image.Image
	for i, g := range st.Generations {
		if g.Img == "" {
			h.logger.Warn("generation missing image data", "id", id, "index", i)
			continue
		}
		data, err := base64.StdEncoding.DecodeString(g.Img)
		if err != nil {
			h.logger.Warn("decode generated image", "id", id, "index", i, "err", err)
			continue
		}
		img, _, err := lcimage.Decode(data)
		if err != nil {
			h.logger.Warn("decode generated image", "id", id, "index", i, "err", err)
			continue
		}
		imgs = append(imgs, img)
	}
	if len(imgs) == 0 {
		return nil, fmt.Errorf("generation %s: %w", id, ErrNoImages)
	}
	h.logger.Info("generation finished", "id", id, "images", len(imgs))
	return imgs, nil
}

// Check reports whether the service is reachable.
func (h *Horde) Check(ctx context.Context) error {
	resp, err := h.do(ctx, http.MethodGet, "/status/models", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return nil
}

func (h *Horde) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	url := h.endpoint + path
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", h.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP %s %s: %w", method, url, err)
	}
	return resp, nil
}

func (h *Horde) status(msg string) {
	h.logger.Debug(msg)
	if h.OnStatus != nil {
		h.OnStatus(msg)
	}
}

// responseError builds an error from a failed response, preferring the
// service's JSON message.
func responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body.Message)
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, s)
	}
	return fmt.Errorf("HTTP %d", resp.StatusCode)
}
