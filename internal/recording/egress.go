package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// busyBody is the egress service's response body when a recording is already
// running for the room.
const busyBody = "Meeting is already being recorded"

// ErrEgressNotConfigured is returned when no egress endpoint is set.
var ErrEgressNotConfigured = errors.New("recording endpoint not configured")

// Egress toggles server-side recording.
type Egress interface {
	StartRecording(ctx context.Context, room string) error
	StopRecording(ctx context.Context, room string) error
}

// EgressClient calls the egress service's start/stop endpoints
// (GET /start?roomName= and GET /stop?roomName=).
type EgressClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewEgressClient creates an egress client. endpoint may be empty, in which
// case every call fails with ErrEgressNotConfigured.
func NewEgressClient(endpoint string, logger *zap.Logger) *EgressClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EgressClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// StartRecording implements Egress. A busy response maps to
// ErrAlreadyRecording and is not retried.
func (e *EgressClient) StartRecording(ctx context.Context, room string) error {
	return e.get(ctx, "/start", room)
}

// StopRecording implements Egress.
func (e *EgressClient) StopRecording(ctx context.Context, room string) error {
	return e.get(ctx, "/stop", room)
}

func (e *EgressClient) get(ctx context.Context, action, room string) error {
	if e.endpoint == "" {
		return ErrEgressNotConfigured
	}
	reqURL := e.endpoint + action + "?roomName=" + url.QueryEscape(room)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("egress %s: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	body := strings.TrimSpace(string(raw))
	if body == busyBody {
		return ErrAlreadyRecording
	}
	e.logger.Warn("egress call failed",
		zap.String("action", action),
		zap.String("room", room),
		zap.Int("status", resp.StatusCode),
		zap.String("body", body),
	)
	return fmt.Errorf("egress %s: status %d: %s", action, resp.StatusCode, body)
}
