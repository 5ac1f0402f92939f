// Package client is the typed HTTP client the receptor console uses to
// talk to shift-service. Every call identifies the workstation through the
// X-Module-Ip header.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"qms/shift-service/internal/view"
)

const moduleIPHeader = "X-Module-Ip"

// APIError is a non-2xx response decoded from the server error body.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("shift-service: status %d", e.Status)
	}
	return fmt.Sprintf("shift-service: %s: %s", e.Code, e.Message)
}

type Client struct {
	baseURL  string
	http     *http.Client
	moduleIP string
	token    string
}

// New returns a client for baseURL. A nil httpClient gets a 10s timeout.
func New(httpClient *http.Client, baseURL, moduleIP string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		moduleIP: moduleIP,
	}
}

// WithToken returns a copy that authenticates as an attendant session.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

func (c *Client) ModuleIP() string { return c.moduleIP }

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

func getData[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out dataEnvelope[T]
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Data, err
}

func (c *Client) Rooms(ctx context.Context) ([]view.Room, error) {
	return getData[[]view.Room](ctx, c, "/rooms")
}

func (c *Client) Services(ctx context.Context) ([]view.Service, error) {
	return getData[[]view.Service](ctx, c, "/services")
}

func (c *Client) Clients(ctx context.Context) ([]view.Client, error) {
	return getData[[]view.Client](ctx, c, "/clients")
}

// Modules lists modules, all of them when roomID is empty.
func (c *Client) Modules(ctx context.Context, roomID string) ([]view.Module, error) {
	path := "/modules"
	if roomID != "" {
		path += "?" + url.Values{"room_id": {roomID}}.Encode()
	}
	return getData[[]view.Module](ctx, c, path)
}

// MyModule resolves the module registered for this workstation's IP.
func (c *Client) MyModule(ctx context.Context) (view.Module, error) {
	return getData[view.Module](ctx, c, "/modules/me")
}

func (c *Client) ShiftsByRoom(ctx context.Context, roomID string) ([]view.Shift, error) {
	return getData[[]view.Shift](ctx, c, "/rooms/"+url.PathEscape(roomID)+"/shifts")
}

// DistractedShifts lists the distracted shifts of this workstation's module.
func (c *Client) DistractedShifts(ctx context.Context, roomID string) ([]view.Shift, error) {
	return getData[[]view.Shift](ctx, c, "/rooms/"+url.PathEscape(roomID)+"/shifts/distracted")
}

type NewClient struct {
	Name       string `json:"name"`
	DNI        string `json:"dni"`
	ClientType string `json:"client_type,omitempty"`
}

type CreateShiftRequest struct {
	RoomID     string     `json:"room_id"`
	ClientID   string     `json:"client_id,omitempty"`
	Client     *NewClient `json:"client,omitempty"`
	ModuleID   *string    `json:"module_id,omitempty"`
	ServiceIDs []string   `json:"service_ids,omitempty"`
}

func (c *Client) CreateShift(ctx context.Context, req CreateShiftRequest) (view.Shift, error) {
	var out dataEnvelope[view.Shift]
	err := c.do(ctx, http.MethodPost, "/shifts", req, &out)
	return out.Data, err
}

// DeleteShift schedules the shift for removal. The removal itself arrives
// later as a shift.deleted broadcast.
func (c *Client) DeleteShift(ctx context.Context, shiftID string) error {
	return c.do(ctx, http.MethodDelete, "/shifts/"+url.PathEscape(shiftID), nil, nil)
}

// ShiftAction runs requeue, qualify, start or distract on a shift.
func (c *Client) ShiftAction(ctx context.Context, shiftID, action string) (view.Shift, error) {
	var out dataEnvelope[view.Shift]
	err := c.do(ctx, http.MethodPost, "/shifts/"+url.PathEscape(shiftID)+"/"+url.PathEscape(action), nil, &out)
	return out.Data, err
}

type TransferRequest struct {
	RoomID   *string `json:"room_id,omitempty"`
	ModuleID *string `json:"module_id,omitempty"`
}

func (c *Client) TransferShift(ctx context.Context, shiftID string, req TransferRequest) (view.Shift, error) {
	var out dataEnvelope[view.Shift]
	err := c.do(ctx, http.MethodPost, "/shifts/"+url.PathEscape(shiftID)+"/transfer", req, &out)
	return out.Data, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(moduleIPHeader, c.moduleIP)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Fields  map[string]string `json:"fields"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
		apiErr.Fields = body.Error.Fields
	}
	return apiErr
}
