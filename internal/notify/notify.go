// Package notify преобразует ошибки и события в пользовательские уведомления.
//
// Это аналог toast-сообщений исходного интерфейса: любая ошибка на границе
// мутатора становится уведомлением и никогда не распространяется дальше.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jgaa-thai/restaurant-client/internal/metrics"
	"github.com/jgaa-thai/restaurant-client/internal/model"
)

// Заголовки уведомлений, видимые пользователю. Коды ошибок наружу не выходят.
const (
	TitleLoginSuccess    = "Login Successful"
	TitleLoginFailed     = "Login Failed"
	TitleLoginRequired   = "Login Required"
	TitleLogout          = "Logged Out"
	TitleSessionExpired  = "Session Expired"
	TitleAddToCartFailed = "Add to Cart Failed"
	TitleCartUpdateError = "Cart Update Failed"
	TitleServerError     = "Server Error"
	TitleReservation     = "Table Reserved"
)

// Notifier доставляет пользовательские уведомления.
type Notifier interface {
	Notify(level model.NotifyLevel, title, message string)
}

const ringSize = 50

// Log — Notifier, пишущий уведомления в zap и хранящий ограниченную
// историю последних сообщений для локальной диагностики.
type Log struct {
	logger *zap.Logger

	mu     sync.Mutex
	recent []model.Notification
}

// NewLog создаёт Notifier поверх указанного логгера.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

// Notify записывает уведомление в журнал и в историю.
func (l *Log) Notify(level model.NotifyLevel, title, message string) {
	n := model.Notification{
		Level:   level,
		Title:   title,
		Message: message,
		At:      time.Now(),
	}

	switch level {
	case model.NotifyError:
		l.logger.Warn("notification", zap.String("title", title), zap.String("message", message))
	default:
		l.logger.Info("notification", zap.String("title", title), zap.String("message", message))
	}
	metrics.NotificationsTotal.WithLabelValues(string(level)).Inc()

	l.mu.Lock()
	l.recent = append(l.recent, n)
	if len(l.recent) > ringSize {
		l.recent = l.recent[len(l.recent)-ringSize:]
	}
	l.mu.Unlock()
}

// Recent возвращает копию истории уведомлений, новые в конце.
func (l *Log) Recent() []model.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Notification, len(l.recent))
	copy(out, l.recent)
	return out
}
