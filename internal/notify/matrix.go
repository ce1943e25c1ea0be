package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nao1215/padwatch/internal/model"
)

// DefaultDeviceName is the display name of the bot's login session.
const DefaultDeviceName = "PadWatch Bot"

var (
	// ErrInvalidUserID is returned for a user id that is not "@local:server".
	ErrInvalidUserID = errors.New("invalid matrix user id")

	// ErrLogin is returned when the homeserver rejects the login.
	ErrLogin = errors.New("matrix login failed")
)

// MatrixError is an error response from a Matrix homeserver.
type MatrixError struct {
	Status  int    `json:"-"`
	ErrCode string `json:"errcode"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *MatrixError) Error() string {
	if e.ErrCode == "" {
		return fmt.Sprintf("matrix: HTTP %d", e.Status)
	}
	return fmt.Sprintf("matrix: HTTP %d: %s: %s", e.Status, e.ErrCode, e.Message)
}

// MatrixConfig holds the bot account and target room.
type MatrixConfig struct {
	// Homeserver is the client-server API base URL. When empty it is
	// discovered from the server name of Username.
	Homeserver string
	// Username is the full user id, e.g. "@padwatch:example.org".
	Username string
	Password string
	// Room is the room id, e.g. "!abc:example.org".
	Room string
	// DeviceName is the display name of the login session.
	DeviceName string
}

// Matrix posts settle events to a Matrix room.
type Matrix struct {
	cfg        MatrixConfig
	httpClient *http.Client
	logger     *slog.Logger

	mu          sync.Mutex
	homeserver  string
	accessToken string
	deviceID    string
}

// MatrixOption configures a Matrix notifier.
type MatrixOption func(*Matrix)

// WithHTTPClient sets the HTTP client used to reach the homeserver.
func WithHTTPClient(c *http.Client) MatrixOption {
	return func(m *Matrix) {
		m.httpClient = c
	}
}

// WithMatrixLogger sets the logger.
func WithMatrixLogger(logger *slog.Logger) MatrixOption {
	return func(m *Matrix) {
		m.logger = logger
	}
}

// NewMatrix resolves the homeserver and logs in. It fails if the account
// cannot log in, so a misconfigured bot is caught at startup.
func NewMatrix(ctx context.Context, cfg MatrixConfig, opts ...MatrixOption) (*Matrix, error) {
	if cfg.DeviceName == "" {
		cfg.DeviceName = DefaultDeviceName
	}
	m := &Matrix{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	hs := strings.TrimSuffix(cfg.Homeserver, "/")
	if hs == "" {
		server, err := serverName(cfg.Username)
		if err != nil {
			return nil, err
		}
		hs = m.discover(ctx, server)
	}
	m.homeserver = hs

	if err := m.login(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Homeserver returns the resolved client-server API base URL.
func (m *Matrix) Homeserver() string {
	return m.homeserver
}

// serverName returns the server part of a user id "@local:server".
func serverName(userID string) (string, error) {
	if !strings.HasPrefix(userID, "@") {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	_, server, ok := strings.Cut(userID, ":")
	if !ok || server == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return server, nil
}

// discover looks up the homeserver base URL through
// /.well-known/matrix/client and falls back to https://{server}.
func (m *Matrix) discover(ctx context.Context, server string) string {
	fallback := "https://" + server

	var wellKnown struct {
		Homeserver struct {
			BaseURL string `json:"base_url"`
		} `json:"m.homeserver"`
	}
	status, err := m.do(ctx, http.MethodGet, fallback+"/.well-known/matrix/client", "", nil, &wellKnown)
	if err != nil || status != http.StatusOK || wellKnown.Homeserver.BaseURL == "" {
		m.logger.Debug("homeserver discovery failed, using server name",
			"server", server,
			"error", err)
		return fallback
	}
	return strings.TrimSuffix(wellKnown.Homeserver.BaseURL, "/")
}

type loginRequest struct {
	Type       string `json:"type"`
	Identifier struct {
		Type string `json:"type"`
		User string `json:"user"`
	} `json:"identifier"`
	Password                 string `json:"password"`
	DeviceID                 string `json:"device_id,omitempty"`
	InitialDeviceDisplayName string `json:"initial_device_display_name"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
}

// login obtains a fresh access token, reusing the device of an earlier
// login so re-logins do not pile up sessions.
func (m *Matrix) login(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req := loginRequest{
		Type:                     "m.login.password",
		Password:                 m.cfg.Password,
		DeviceID:                 m.deviceID,
		InitialDeviceDisplayName: m.cfg.DeviceName,
	}
	req.Identifier.Type = "m.id.user"
	req.Identifier.User = m.cfg.Username

	var resp loginResponse
	if _, err := m.do(ctx, http.MethodPost, m.homeserver+"/_matrix/client/v3/login", "", req, &resp); err != nil {
		return fmt.Errorf("%w: %w", ErrLogin, err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("%w: no access token in response", ErrLogin)
	}

	m.accessToken = resp.AccessToken
	m.deviceID = resp.DeviceID
	m.logger.Info("logged in to matrix",
		"homeserver", m.homeserver,
		"user_id", resp.UserID,
		"device_id", resp.DeviceID)
	return nil
}

type roomMessage struct {
	MsgType       string `json:"msgtype"`
	Body          string `json:"body"`
	Format        string `json:"format"`
	FormattedBody string `json:"formatted_body"`
}

// Notify renders change and sends it to the configured room. When the
// access token has expired the bot logs in again and retries once with the
// same transaction id, so the homeserver deduplicates a resent event.
func (m *Matrix) Notify(ctx context.Context, change model.Change) error {
	msg, err := Render(change)
	if err != nil {
		return err
	}

	content := roomMessage{
		MsgType:       "m.text",
		Body:          msg.Plain,
		Format:        "org.matrix.custom.html",
		FormattedBody: msg.HTML,
	}
	txn := uuid.NewString()

	err = m.send(ctx, txn, content)
	var merr *MatrixError
	if errors.As(err, &merr) && merr.ErrCode == "M_UNKNOWN_TOKEN" {
		m.logger.Info("matrix access token rejected, logging in again")
		if err := m.login(ctx); err != nil {
			return err
		}
		err = m.send(ctx, txn, content)
	}
	return err
}

func (m *Matrix) send(ctx context.Context, txn string, content roomMessage) error {
	m.mu.Lock()
	token := m.accessToken
	m.mu.Unlock()

	endpoint := fmt.Sprintf("%s/_matrix/client/v3/rooms/%s/send/m.room.message/%s",
		m.homeserver, url.PathEscape(m.cfg.Room), url.PathEscape(txn))

	var resp struct {
		EventID string `json:"event_id"`
	}
	if _, err := m.do(ctx, http.MethodPut, endpoint, token, content, &resp); err != nil {
		return err
	}
	m.logger.Debug("matrix event sent", "event_id", resp.EventID)
	return nil
}

// do performs a JSON request. Non-2xx responses are returned as *MatrixError.
func (m *Matrix) do(ctx context.Context, method, endpoint, token string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		merr := &MatrixError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, merr) //nolint:errcheck // body may not be JSON
		return resp.StatusCode, merr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("matrix: decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
