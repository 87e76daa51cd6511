// Package backend предоставляет клиент REST API ресторанного бэкенда.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jgaa-thai/restaurant-client/internal/model"
)

// Client инкапсулирует HTTP-взаимодействие с ресторанным бэкендом.
// Повторных попыток нет: неудавшийся вызов сообщается вызывающему и не
// повторяется автоматически.
type Client struct {
	baseURL    string
	httpClient *http.Client
	instanceID string

	mu    sync.RWMutex
	token string
}

// NewClient создаёт HTTP-клиент бэкенда по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		instanceID: uuid.NewString(),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// SetToken запоминает bearer-токен сессии; пустая строка сбрасывает его.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// RegisterRequest — данные регистрации нового клиента.
type RegisterRequest struct {
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Password  string `json:"password"`
}

type loginResponse struct {
	User  model.UserRecord `json:"user"`
	Token string           `json:"token"`
}

// Login выполняет вход и возвращает запись пользователя и токен сессии.
func (c *Client) Login(ctx context.Context, email, password string) (*model.UserRecord, string, int, error) {
	body := map[string]string{"email": email, "password": password}

	resp, err := c.do(ctx, http.MethodPost, "/login", body)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", resp.StatusCode, nil
	}

	var result loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}

	return &result.User, result.Token, resp.StatusCode, nil
}

// Register регистрирует нового клиента.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (int, error) {
	resp, err := c.do(ctx, http.MethodPost, "/register", req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// ResetPassword устанавливает новый пароль по одноразовому токену из письма.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (int, error) {
	resp, err := c.do(ctx, http.MethodPost, "/reset-password/"+token, map[string]string{"password": password})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// VerifyEmail подтверждает адрес почты по токену из письма.
func (c *Client) VerifyEmail(ctx context.Context, token string) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, "/verify-email/"+token, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// GetCart запрашивает авторитативную корзину пользователя.
func (c *Client) GetCart(ctx context.Context, userID int64) ([]model.CartLine, int, error) {
	resp, err := c.do(ctx, http.MethodGet, "/get_cart/"+strconv.FormatInt(userID, 10), nil)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result []model.CartLine
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}

	return result, resp.StatusCode, nil
}

// AddToCart добавляет строки в корзину пользователя на бэкенде.
func (c *Client) AddToCart(ctx context.Context, userID int64, lines []model.CartLine) (int, error) {
	body := map[string][]model.CartLine{"items": lines}

	resp, err := c.do(ctx, http.MethodPost, "/add_to_cart/"+strconv.FormatInt(userID, 10), body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// UpdateCartQuantity сообщает бэкенду об изменении количества строки.
func (c *Client) UpdateCartQuantity(ctx context.Context, userID int64, itemName string, action model.CartAction) (int, error) {
	body := map[string]string{
		"item_name": itemName,
		"action":    string(action),
	}

	resp, err := c.do(ctx, http.MethodPost, "/update_cart_quantity/"+strconv.FormatInt(userID, 10), body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// RemoveFromCart удаляет строку корзины по имени блюда.
func (c *Client) RemoveFromCart(ctx context.Context, userID int64, itemName string) (int, error) {
	body := map[string]string{"item_name": itemName}

	resp, err := c.do(ctx, http.MethodDelete, "/remove_from_carts/"+strconv.FormatInt(userID, 10), body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("backend client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Client-Instance", c.instanceID)

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	return resp, nil
}
