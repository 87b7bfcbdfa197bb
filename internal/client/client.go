// Package client HTTP клиент REST API сервиса находок для CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/interface/http/dto"
)

// APIError ошибка, которую вернул сервер в конверте ответа.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Session данные авторизованного пользователя.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        struct {
		ID          uuid.UUID `json:"id"`
		Username    string    `json:"username"`
		DisplayName string    `json:"display_name"`
		Reputation  int       `json:"reputation"`
	} `json:"user"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetToken задаёт access токен для последующих запросов.
func (c *Client) SetToken(token string) {
	c.token = token
}

// SendOTP запрашивает код подтверждения. В development сервер возвращает код.
func (c *Client) SendOTP(ctx context.Context, username string) (string, error) {
	var out struct {
		Code string `json:"code"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/send-otp", map[string]string{"username": username}, &out)
	return out.Code, err
}

func (c *Client) Register(ctx context.Context, username, code, password, displayName string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/auth/register-complete", map[string]string{
		"username":     username,
		"code":         code,
		"password":     password,
		"display_name": displayName,
	}, &s)
	if err != nil {
		return nil, err
	}
	c.token = s.AccessToken
	return &s, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &s)
	if err != nil {
		return nil, err
	}
	c.token = s.AccessToken
	return &s, nil
}

func (c *Client) ListItems(ctx context.Context, itemType string, limit, offset int) ([]dto.ItemResponse, error) {
	q := url.Values{}
	if itemType != "" {
		q.Set("type", itemType)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/api/items"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var items []dto.ItemResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) CreateItem(ctx context.Context, req dto.CreateItemRequest) (*dto.ItemResponse, error) {
	var item dto.ItemResponse
	if err := c.do(ctx, http.MethodPost, "/api/items", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// MintPin запрашивает PIN для передачи вещи.
func (c *Client) MintPin(ctx context.Context, itemID uuid.UUID) (string, error) {
	var out dto.MintPinResponse
	if err := c.do(ctx, http.MethodPost, "/api/items/"+itemID.String()+"/pin", nil, &out); err != nil {
		return "", err
	}
	return out.Pin, nil
}

// VerifyPin подтверждает PIN от имени автора объявления.
func (c *Client) VerifyPin(ctx context.Context, itemID uuid.UUID, pin string) (*dto.VerifyPinResponse, error) {
	var out dto.VerifyPinResponse
	if err := c.do(ctx, http.MethodPost, "/api/items/"+itemID.String()+"/verify", dto.VerifyPinRequest{Pin: pin}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PostMessage(ctx context.Context, itemID, receiverID uuid.UUID, content string) (*dto.MessageResponse, error) {
	var out dto.MessageResponse
	req := dto.PostMessageRequest{ReceiverID: receiverID.String(), Content: content}
	if err := c.do(ctx, http.MethodPost, "/api/items/"+itemID.String()+"/messages", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetThread возвращает переписку по объявлению с точки зрения текущего пользователя.
func (c *Client) GetThread(ctx context.Context, itemID uuid.UUID) (*dto.ThreadResponse, error) {
	var out dto.ThreadResponse
	if err := c.do(ctx, http.MethodGet, "/api/items/"+itemID.String()+"/thread", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetThreadWith возвращает переписку автора объявления с конкретным пользователем.
func (c *Client) GetThreadWith(ctx context.Context, itemID, otherUserID uuid.UUID) (*dto.ThreadResponse, error) {
	var out dto.ThreadResponse
	path := "/api/items/" + itemID.String() + "/thread/" + otherUserID.String()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("client: не удалось сериализовать запрос: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("client: код ответа %d, не удалось разобрать тело: %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("client: не удалось разобрать data: %w", err)
	}
	return nil
}
