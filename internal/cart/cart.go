// Package cart реализует мутаторы корзины и фоновый синхронизатор.
//
// Локальная корзина ведётся оптимистично и лишь в конечном счёте сходится
// с бэкендом: периодический проход синхронизатора целиком заменяет локальный
// массив авторитативным ответом сервера (last-write-wins, без слияния).
package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jgaa-thai/restaurant-client/internal/metrics"
	"github.com/jgaa-thai/restaurant-client/internal/model"
	"github.com/jgaa-thai/restaurant-client/internal/notify"
	"github.com/jgaa-thai/restaurant-client/internal/store"
)

// ErrLoginRequired возвращается мутаторами при отсутствии клиентской сессии.
var ErrLoginRequired = errors.New("login required")

// ErrBackendRejected возвращается, когда бэкенд ответил неуспешным статусом.
var ErrBackendRejected = errors.New("backend rejected request")

// Backend описывает контракт вызовов корзины, используемый сервисом.
type Backend interface {
	GetCart(ctx context.Context, userID int64) ([]model.CartLine, int, error)
	AddToCart(ctx context.Context, userID int64, lines []model.CartLine) (int, error)
	UpdateCartQuantity(ctx context.Context, userID int64, itemName string, action model.CartAction) (int, error)
	RemoveFromCart(ctx context.Context, userID int64, itemName string) (int, error)
}

// Service поддерживает локальную корзину в (конечном) соответствии с бэкендом.
type Service struct {
	store    *store.Store
	backend  Backend
	notifier notify.Notifier
	logger   *zap.Logger
	interval time.Duration

	mu         sync.Mutex
	syncCancel context.CancelFunc
}

// NewService создаёт сервис корзины с указанным интервалом синхронизации.
func NewService(st *store.Store, backend Backend, notifier notify.Notifier, logger *zap.Logger, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Service{
		store:    st,
		backend:  backend,
		notifier: notifier,
		logger:   logger,
		interval: interval,
	}
}

// Add добавляет блюдо в корзину. Требуется аутентифицированный клиент.
// Сначала строка отправляется бэкенду; локальная корзина мутируется только
// после успешного ответа — слиянием по имени блюда.
func (s *Service) Add(ctx context.Context, item model.CartLine) error {
	userID, ok := s.userID()
	if !ok {
		s.notifier.Notify(model.NotifyError, notify.TitleLoginRequired, "Sign in to add items to your cart")
		return ErrLoginRequired
	}

	if item.Quantity < 1 {
		item.Quantity = 1
	}

	code, err := s.backend.AddToCart(ctx, userID, []model.CartLine{item})
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("add_to_cart", "error").Inc()
		s.notifier.Notify(model.NotifyError, notify.TitleAddToCartFailed, "Could not reach the server, please try again")
		return fmt.Errorf("add to cart: %w", err)
	}
	metrics.BackendRequestsTotal.WithLabelValues("add_to_cart", "ok").Inc()

	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		s.notifier.Notify(model.NotifyError, notify.TitleAddToCartFailed, "The server did not accept the item")
		return fmt.Errorf("%w: status %d", ErrBackendRejected, code)
	}

	s.store.AddOrIncrementLine(item)
	s.notifier.Notify(model.NotifySuccess, "Added to Cart", item.ItemName)
	return nil
}

// Increment оптимистично увеличивает количество строки на единицу и
// асинхронно сообщает об этом бэкенду. Неудача вызова только уведомляет:
// локальное и серверное состояние могут разойтись до следующего прохода
// синхронизатора.
func (s *Service) Increment(ctx context.Context, id int64, name string) {
	s.store.AdjustQuantity(id, name, 1)
	s.reportQuantity(ctx, name, model.CartActionIncrement)
}

// Decrement оптимистично уменьшает количество строки на единицу; строка,
// дошедшая до нуля, удаляется. Декремент отсутствующей строки — no-op
// локально, но действие всё равно сообщается бэкенду.
func (s *Service) Decrement(ctx context.Context, id int64, name string) {
	s.store.AdjustQuantity(id, name, -1)
	s.reportQuantity(ctx, name, model.CartActionDecrement)
}

func (s *Service) reportQuantity(ctx context.Context, name string, action model.CartAction) {
	userID, ok := s.userID()
	if !ok {
		return
	}

	go func() {
		code, err := s.backend.UpdateCartQuantity(context.WithoutCancel(ctx), userID, name, action)
		if err != nil {
			metrics.BackendRequestsTotal.WithLabelValues("update_cart_quantity", "error").Inc()
			s.notifier.Notify(model.NotifyError, notify.TitleCartUpdateError, "Could not reach the server")
			return
		}
		metrics.BackendRequestsTotal.WithLabelValues("update_cart_quantity", "ok").Inc()
		if code != http.StatusOK {
			s.notifier.Notify(model.NotifyError, notify.TitleCartUpdateError, "The server rejected the update")
		}
	}()
}

// Delete удаляет строку корзины по имени. Локальное состояние мутируется
// только при ответе 200; любой другой исход оставляет корзину нетронутой.
func (s *Service) Delete(ctx context.Context, name string) error {
	userID, ok := s.userID()
	if !ok {
		s.notifier.Notify(model.NotifyError, notify.TitleLoginRequired, "Sign in to modify your cart")
		return ErrLoginRequired
	}

	code, err := s.backend.RemoveFromCart(ctx, userID, name)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("remove_from_cart", "error").Inc()
		s.notifier.Notify(model.NotifyError, notify.TitleServerError, "Could not reach the server")
		return fmt.Errorf("remove from cart: %w", err)
	}
	metrics.BackendRequestsTotal.WithLabelValues("remove_from_cart", "ok").Inc()

	if code != http.StatusOK {
		s.notifier.Notify(model.NotifyError, notify.TitleCartUpdateError, "The server did not remove the item")
		return fmt.Errorf("%w: status %d", ErrBackendRejected, code)
	}

	s.store.RemoveLines(name)
	s.notifier.Notify(model.NotifySuccess, "Removed from Cart", name)
	return nil
}

// Reserve добавляет стол в локальный список броней сессии.
func (s *Service) Reserve(table string) {
	s.store.AddReservation(table)
	s.notifier.Notify(model.NotifySuccess, notify.TitleReservation, table)
}

// FetchNow немедленно запрашивает авторитативную корзину и целиком заменяет
// ею локальный массив. Перезапись, не слияние.
func (s *Service) FetchNow(ctx context.Context) error {
	userID, ok := s.userID()
	if !ok {
		return ErrLoginRequired
	}

	lines, _, err := s.backend.GetCart(ctx, userID)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("get_cart", "error").Inc()
		return fmt.Errorf("fetch cart: %w", err)
	}
	metrics.BackendRequestsTotal.WithLabelValues("get_cart", "ok").Inc()

	s.store.ReplaceCart(lines)
	return nil
}

// StartSync запускает фоновый синхронизатор корзины. Повторный вызов при
// уже работающем цикле — no-op; на сервис приходится не более одного цикла.
func (s *Service) StartSync(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.syncCancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.syncCancel = cancel

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.syncPass(runCtx)
			}
		}
	}()
}

// StopSync останавливает синхронизатор. Идемпотентен.
func (s *Service) StopSync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.syncCancel != nil {
		s.syncCancel()
		s.syncCancel = nil
	}
}

func (s *Service) syncPass(ctx context.Context) {
	if err := s.FetchNow(ctx); err != nil {
		metrics.CartSyncTotal.WithLabelValues("error").Inc()
		if !errors.Is(err, ErrLoginRequired) {
			s.logger.Warn("cart sync pass failed", zap.Error(err))
		}
		return
	}
	metrics.CartSyncTotal.WithLabelValues("ok").Inc()
}

func (s *Service) userID() (int64, bool) {
	p := s.store.Partition(model.RoleClient)
	if !p.IsAuthenticated || p.Info == nil {
		return 0, false
	}
	return p.Info.UserID, true
}
