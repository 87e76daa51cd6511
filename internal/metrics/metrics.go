// Package metrics определяет и регистрирует Prometheus-метрики клиента.
// Единственный источник истины для имён метрик, меток и описаний.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jgaa_client"

// BackendRequestsTotal считает вызовы бэкенда.
// Метки:
//   - op: имя операции (login, get_cart, add_to_cart, …)
//   - result: "ok" при успешном ответе, "error" при сетевой ошибке
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of calls to the restaurant backend.",
	},
	[]string{"op", "result"},
)

// CartSyncTotal считает проходы фонового синхронизатора корзины.
// Метка result: "ok" или "error".
var CartSyncTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_sync_total",
		Help:      "Total number of cart synchronizer passes, by result.",
	},
	[]string{"result"},
)

// NotificationsTotal считает пользовательские уведомления по уровню.
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of user-facing notifications emitted, by level.",
	},
	[]string{"level"},
)
