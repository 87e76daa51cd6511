// Package model содержит доменные сущности клиента ресторана JGAA Thai.
package model

import "time"

// SnapshotVersion — текущая версия схемы сохраняемого состояния.
const SnapshotVersion = 1

// Role определяет роль, под которой открыта сессия.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
	RoleClient Role = "client"
)

// Roles перечисляет все известные роли в фиксированном порядке.
var Roles = []Role{RoleAdmin, RoleWorker, RoleClient}

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleWorker, RoleClient:
		return true
	}
	return false
}

// UserRecord — снимок данных пользователя, полученный от бэкенда при входе.
// Хранится как есть, без нормализации. Поля user_id и fname обязательны
// для сохранения сессии.
type UserRecord struct {
	UserID    int64  `json:"user_id" validate:"required"`
	FirstName string `json:"fname" validate:"required"`
	LastName  string `json:"lname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Role      string `json:"role"`
}

// SessionPartition хранит состояние аутентификации одной роли.
type SessionPartition struct {
	IsAuthenticated bool        `json:"is_authenticated"`
	Info            *UserRecord `json:"info"`
	// Loading — транзиентный флаг для потребителей, не авторитативное состояние.
	Loading bool `json:"loading"`
	// Token — bearer-токен, выданный бэкендом при входе. Сохраняется вместе
	// с партицией и используется для проверки живости восстановленной сессии.
	Token string `json:"token,omitempty"`
}

// CartLine — одна строка корзины клиента. Идентичность строки при слиянии
// определяется полем ItemName, а не числовым ID: две разные вариации одного
// блюда схлопываются в одну строку.
type CartLine struct {
	ID       int64   `json:"id,omitempty"`
	ItemName string  `json:"item_name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Size     string  `json:"size,omitempty"`
	Category string  `json:"category,omitempty"`
}

// ClientPartition — партиция клиента: сессия плюс корзина и брони столов.
type ClientPartition struct {
	SessionPartition
	Cart []CartLine `json:"cart"`
	// Reservations — столы, забронированные за время сессии.
	// Список только локальный, с бэкендом не сверяется.
	Reservations []string `json:"reservations"`
}

// State — полный снимок хранилища: три независимые партиции под одним ключом.
type State struct {
	Version int              `json:"version"`
	Admin   SessionPartition `json:"admin"`
	Worker  SessionPartition `json:"worker"`
	Client  ClientPartition  `json:"client"`
}

// NotifyLevel определяет тип пользовательского уведомления.
type NotifyLevel string

const (
	NotifySuccess NotifyLevel = "success"
	NotifyError   NotifyLevel = "error"
	NotifyInfo    NotifyLevel = "info"
)

// Notification — пользовательское уведомление (аналог toast-сообщения в UI).
type Notification struct {
	Level   NotifyLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// CartAction — действие над количеством строки корзины, передаваемое бэкенду.
type CartAction string

const (
	CartActionIncrement CartAction = "increment"
	CartActionDecrement CartAction = "decrement"
)
