package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
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
	"github.com/skillbase/skillbase-backend/internal/httpx"
	"github.com/skillbase/skillbase-backend/internal/logger"
)

type Client interface {
	Contact(ctx context.Context, email string) (*ContactRecord, error)
	AddContact(ctx context.Context, email, fullName string) (*ContactRecord, error)
}

type Config struct {
	APIServer  string
	APIKey     string
	AudienceID string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("MAILCHIMP_TIMEOUT_SECONDS", 30)
	maxRetries := envutil.Int("MAILCHIMP_MAX_RETRIES", 4)

	return Config{
		APIServer:  strings.TrimSpace(os.Getenv("MAILCHIMP_API_SERVER")),
		APIKey:     strings.TrimSpace(os.Getenv("MAILCHIMP_API_KEY")),
		AudienceID: strings.TrimSpace(os.Getenv("MAILCHIMP_AUDIENCE_ID")),
		Timeout:    time.Duration(timeoutSec) * time.Second,
		MaxRetries: maxRetries,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.APIServer = strings.TrimRight(strings.TrimSpace(cfg.APIServer), "/")
	if cfg.APIServer == "" {
		return nil, fmt.Errorf("missing MAILCHIMP_API_SERVER")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing MAILCHIMP_API_KEY")
	}
	if strings.TrimSpace(cfg.AudienceID) == "" {
		return nil, fmt.Errorf("missing MAILCHIMP_AUDIENCE_ID")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &client{
		log:        log.With("client", "MailchimpClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type ContactRecord struct {
	ID           string            `json:"id"`
	EmailAddress string            `json:"email_address"`
	Status       string            `json:"status"`
	MergeFields  map[string]string `json:"merge_fields,omitempty"`
}

type memberRequest struct {
	EmailAddress string            `json:"email_address"`
	Status       string            `json:"status"`
	MergeFields  map[string]string `json:"merge_fields"`
}

// ContactID is the provider's deterministic member id: the MD5 hex digest of
// the email exactly as given. The provider folds case itself; hashing here is
// deliberately case-sensitive, so callers must pass the canonical address.
func ContactID(email string) string {
	sum := md5.Sum([]byte(email))
	return hex.EncodeToString(sum[:])
}

func (c *client) membersURL() string {
	return fmt.Sprintf("%s/lists/%s/members/", c.cfg.APIServer, c.cfg.AudienceID)
}

func (c *client) Contact(ctx context.Context, email string) (*ContactRecord, error) {
	urlStr := c.membersURL() + ContactID(email)
	raw, err := c.do(ctx, http.MethodGet, urlStr, nil, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrContactLookupFailed, err)
	}
	var contact ContactRecord
	if err := json.Unmarshal(raw, &contact); err != nil {
		return nil, fmt.Errorf("%w: decode contact: %v", apperr.ErrContactLookupFailed, err)
	}
	return &contact, nil
}

// AddContact subscribes email to the audience. The full name is split by
// taking the last whitespace-delimited token as the first name and the
// remainder as the last name; this is a documented quirk of the upstream
// data, not a general name parser.
func (c *client) AddContact(ctx context.Context, email, fullName string) (*ContactRecord, error) {
	firstName, lastName := splitName(fullName)

	body, err := json.Marshal(memberRequest{
		EmailAddress: email,
		Status:       "subscribed",
		MergeFields: map[string]string{
			"FNAME": firstName,
			"LNAME": lastName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrContactCreationFailed, err)
	}

	raw, err := c.do(ctx, http.MethodPost, c.membersURL(), body, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrContactCreationFailed, err)
	}
	var contact ContactRecord
	if err := json.Unmarshal(raw, &contact); err != nil {
		return nil, fmt.Errorf("%w: decode contact: %v", apperr.ErrContactCreationFailed, err)
	}
	return &contact, nil
}

func splitName(fullName string) (firstName, lastName string) {
	names := strings.Fields(fullName)
	if len(names) == 0 {
		return "", ""
	}
	firstName = names[len(names)-1]
	lastName = strings.Join(names[:len(names)-1], " ")
	return firstName, lastName
}

// ---------- HTTP / retry helpers ----------

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "mailchimp: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("mailchimp http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, method, urlStr string, payload []byte, maxRetries int) ([]byte, error) {
	backoff := 1 * time.Second
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		raw, resp, err := c.doOnce(ctx, method, urlStr, payload)
		if err == nil {
			return raw, nil
		}

		if !httpx.IsRetryableError(err) || attempt == maxRetries {
			return nil, err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Mailchimp request retrying",
			"url", urlStr,
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}
}

func (c *client) doOnce(ctx context.Context, method, urlStr string, payload []byte) ([]byte, *http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, urlStr, body)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth("key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resp, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, resp, nil
}
