package lrs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/skillbase/skillbase-backend/internal/apperr"
	"github.com/skillbase/skillbase-backend/internal/ctxutil"
	"github.com/skillbase/skillbase-backend/internal/envutil"
	"github.com/skillbase/skillbase-backend/internal/logger"
)

// Client posts statements to the remote learning-record store. It makes
// exactly one attempt per call; the statement worker owns the retry policy,
// so a transport-level retry here would risk duplicate statements.
type Client interface {
	PostStatement(ctx context.Context, statement json.RawMessage) error
}

type Config struct {
	Endpoint string
	Key      string
	Secret   string
	Timeout  time.Duration
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("LRS_TIMEOUT_SECONDS", 30)

	return Config{
		Endpoint: strings.TrimSpace(os.Getenv("LRS_ENDPOINT")),
		Key:      strings.TrimSpace(os.Getenv("LRS_KEY")),
		Secret:   strings.TrimSpace(os.Getenv("LRS_SECRET")),
		Timeout:  time.Duration(timeoutSec) * time.Second,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("missing LRS_ENDPOINT")
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("missing LRS_KEY")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("missing LRS_SECRET")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &client{
		log:        log.With("client", "LRSClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "lrs: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("lrs http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) PostStatement(ctx context.Context, statement json.RawMessage) error {
	if len(statement) == 0 {
		return fmt.Errorf("%w: empty statement", apperr.ErrDispatchFailed)
	}

	urlStr := c.cfg.Endpoint + "/statements"
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, urlStr, bytes.NewReader(statement))
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrDispatchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Experience-API-Version", "1.0.3")
	req.SetBasicAuth(c.cfg.Key, c.cfg.Secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrDispatchFailed, err)
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("%w: %v", apperr.ErrDispatchFailed, readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %v", apperr.ErrDispatchFailed, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)})
	}
	return nil
}
