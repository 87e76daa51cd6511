// Package control реализует локальную HTTP-поверхность клиента.
//
// Это потребительский интерфейс хранилища — то, чем в исходной системе были
// компоненты UI: тонкие делегаты к мутаторам плюс диагностика. Поверхность
// локальная и внешний бэкенд собой не подменяет.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jgaa-thai/restaurant-client/internal/backend"
	"github.com/jgaa-thai/restaurant-client/internal/cart"
	"github.com/jgaa-thai/restaurant-client/internal/model"
	"github.com/jgaa-thai/restaurant-client/internal/store"
)

// Sessions определяет контракт менеджера сессий, используемый обработчиками.
type Sessions interface {
	SaveSessionInfo(ctx context.Context, role model.Role, payload *model.UserRecord, token string) error
	Logout(role model.Role)
}

// Cart определяет контракт мутаторов корзины, используемый обработчиками.
type Cart interface {
	Add(ctx context.Context, item model.CartLine) error
	Increment(ctx context.Context, id int64, name string)
	Decrement(ctx context.Context, id int64, name string)
	Delete(ctx context.Context, name string) error
	Reserve(table string)
}

// Identity определяет вызовы жизненного цикла учётной записи на бэкенде.
type Identity interface {
	Login(ctx context.Context, email, password string) (*model.UserRecord, string, int, error)
	Register(ctx context.Context, req backend.RegisterRequest) (int, error)
	ResetPassword(ctx context.Context, token, password string) (int, error)
	VerifyEmail(ctx context.Context, token string) (int, error)
}

// Notifications отдаёт историю пользовательских уведомлений.
type Notifications interface {
	Recent() []model.Notification
}

// Handler реализует HTTP-обработчики локальной поверхности управления.
type Handler struct {
	store         *store.Store
	sessions      Sessions
	cart          Cart
	identity      Identity
	notifications Notifications
	logger        *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика.
func NewHandler(st *store.Store, sessions Sessions, cartSvc Cart, identity Identity, notifications Notifications, logger *zap.Logger) *Handler {
	return &Handler{
		store:         st,
		sessions:      sessions,
		cart:          cartSvc,
		identity:      identity,
		notifications: notifications,
		logger:        logger,
	}
}

// Health отвечает признаком живости процесса.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GetState возвращает снимок состояния с вычищенными токенами.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	st := h.store.Snapshot()
	st.Admin.Token = ""
	st.Worker.Token = ""
	st.Client.Token = ""

	writeJSON(w, h.logger, st)
}

// GetNotifications возвращает последние пользовательские уведомления.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	recent := h.notifications.Recent()
	if len(recent) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, h.logger, recent)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login выполняет вход через бэкенд и сохраняет сессию в партиции роли.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	role := model.Role(chi.URLParam(r, "role"))
	if !role.Valid() {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.store.SetLoading(role, true)
	defer h.store.SetLoading(role, false)

	user, token, code, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("backend login error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	if code != http.StatusOK {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.sessions.SaveSessionInfo(r.Context(), role, user, token); err != nil {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Logout завершает сессию роли.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	role := model.Role(chi.URLParam(r, "role"))
	if !role.Valid() {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.sessions.Logout(role)
	w.WriteHeader(http.StatusOK)
}

// Register пересылает регистрацию бэкенду и транслирует его статус.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req backend.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	code, err := h.identity.Register(r.Context(), req)
	if err != nil {
		h.logger.Error("backend register error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.WriteHeader(code)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword устанавливает новый пароль по токену из письма.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	code, err := h.identity.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		h.logger.Error("backend reset password error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.WriteHeader(code)
}

// VerifyEmail подтверждает адрес почты по токену из письма.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	code, err := h.identity.VerifyEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.logger.Error("backend verify email error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.WriteHeader(code)
}

// GetCart возвращает локальные строки корзины.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	lines := h.store.CartLines()
	if len(lines) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, h.logger, lines)
}

// AddItem добавляет блюдо в корзину.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var item model.CartLine
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil || item.ItemName == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.cart.Add(r.Context(), item); err != nil {
		if errors.Is(err, cart.ErrLoginRequired) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type quantityRequest struct {
	ID       int64  `json:"id"`
	ItemName string `json:"item_name"`
}

// IncrementItem оптимистично увеличивает количество строки.
func (h *Handler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemName == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.cart.Increment(r.Context(), req.ID, req.ItemName)
	w.WriteHeader(http.StatusAccepted)
}

// DecrementItem оптимистично уменьшает количество строки.
func (h *Handler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemName == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.cart.Decrement(r.Context(), req.ID, req.ItemName)
	w.WriteHeader(http.StatusAccepted)
}

type deleteItemRequest struct {
	ItemName string `json:"item_name"`
}

// DeleteItem удаляет строку корзины; локальное состояние меняется только
// при успехе на бэкенде.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	var req deleteItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemName == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.cart.Delete(r.Context(), req.ItemName); err != nil {
		if errors.Is(err, cart.ErrLoginRequired) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type reservationRequest struct {
	Table string `json:"table"`
}

// Reserve добавляет стол в локальный список броней.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Table == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.cart.Reserve(req.Table)
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
