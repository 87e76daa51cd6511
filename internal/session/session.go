// Package session управляет сессионными партициями ролей.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/jgaa-thai/restaurant-client/internal/model"
	"github.com/jgaa-thai/restaurant-client/internal/notify"
	"github.com/jgaa-thai/restaurant-client/internal/store"
)

// ErrInvalidPayload возвращается при попытке сохранить сессию без
// обязательных идентификационных полей.
var ErrInvalidPayload = errors.New("invalid session payload")

// CartSyncer описывает операции корзины, которыми управляет жизненный цикл
// клиентской сессии.
type CartSyncer interface {
	FetchNow(ctx context.Context) error
	StartSync(ctx context.Context)
	StopSync()
}

// TokenSink принимает bearer-токен текущей сессии.
type TokenSink interface {
	SetToken(token string)
}

// Manager хранит состояние аутентификации ролей и выполняет вход/выход.
type Manager struct {
	store    *store.Store
	notifier notify.Notifier
	cart     CartSyncer
	tokens   TokenSink
	logger   *zap.Logger
	validate *validator.Validate
}

// NewManager создаёт менеджер сессий.
func NewManager(st *store.Store, notifier notify.Notifier, cart CartSyncer, tokens TokenSink, logger *zap.Logger) *Manager {
	return &Manager{
		store:    st,
		notifier: notifier,
		cart:     cart,
		tokens:   tokens,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SaveSessionInfo сохраняет данные входа в партицию роли. Пустой или неполный
// payload не мутирует состояние: пользователь уведомляется, вызывающему
// возвращается ошибка, паники не происходит. Для роли client дополнительно
// асинхронно подтягивается корзина и запускается фоновый синхронизатор.
func (m *Manager) SaveSessionInfo(ctx context.Context, role model.Role, payload *model.UserRecord, token string) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role: %q", role)
	}

	if payload == nil {
		m.notifier.Notify(model.NotifyError, notify.TitleLoginFailed, "No identity information received")
		return ErrInvalidPayload
	}
	if err := m.validate.Struct(payload); err != nil {
		m.logger.Warn("session payload missing identity fields", zap.String("role", string(role)), zap.Error(err))
		m.notifier.Notify(model.NotifyError, notify.TitleLoginFailed, "Identity information is incomplete")
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	m.store.SetPartition(role, model.SessionPartition{
		IsAuthenticated: true,
		Info:            payload,
		Token:           token,
	})

	if role == model.RoleClient {
		m.tokens.SetToken(token)
		m.beginClientSession(ctx)
	}

	m.notifier.Notify(model.NotifySuccess, notify.TitleLoginSuccess, "Welcome, "+payload.FirstName)
	return nil
}

// Logout возвращает партицию роли в начальное состояние; остальные партиции
// не затрагиваются. Для клиента дополнительно останавливается синхронизатор
// и сбрасываются эфемерные данные сессии (корзина, брони, токен).
func (m *Manager) Logout(role model.Role) {
	if !role.Valid() {
		return
	}

	if role == model.RoleClient {
		m.cart.StopSync()
		m.tokens.SetToken("")
	}

	m.store.ResetPartition(role)
	m.notifier.Notify(model.NotifyInfo, notify.TitleLogout, "See you next time")
}

// Resume повторно проверяет партиции после восстановления снимка.
// Партиция с истёкшим токеном сбрасывается; живая клиентская сессия
// перезапускает синхронизатор корзины.
func (m *Manager) Resume(ctx context.Context) {
	for _, role := range model.Roles {
		p := m.store.Partition(role)
		if !p.IsAuthenticated {
			continue
		}

		if tokenExpired(p.Token) {
			m.logger.Info("stored session token expired", zap.String("role", string(role)))
			m.store.ResetPartition(role)
			m.notifier.Notify(model.NotifyInfo, notify.TitleSessionExpired, "Please sign in again")
			continue
		}

		if role == model.RoleClient {
			m.tokens.SetToken(p.Token)
			m.beginClientSession(ctx)
		}
	}
}

func (m *Manager) beginClientSession(ctx context.Context) {
	// Жизнь синхронизатора не привязана к запросу, который открыл сессию.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		if err := m.cart.FetchNow(runCtx); err != nil {
			m.logger.Warn("initial cart fetch failed", zap.Error(err))
		}
	}()

	m.cart.StartSync(runCtx)
}

// tokenExpired судит о живости токена по claim exp, без проверки подписи:
// ключ подписи принадлежит бэкенду. Непрозрачные (не-JWT) токены и токены
// без exp считаются живыми — решит сам бэкенд.
func tokenExpired(token string) bool {
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(time.Now())
}
