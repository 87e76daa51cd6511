// Package store реализует разделяемое хранилище состояния клиента.
//
// Хранилище — единственный владелец всех партиций (admin, worker, client);
// потребители никогда не держат собственных копий состояния, только
// снимки и подписки. Все мутации выполняются атомарно под одним мьютексом.
package store

import (
	"sync"

	"github.com/jgaa-thai/restaurant-client/internal/model"
)

// Store — контейнер состояния с партициями ролей, корзиной и бронями.
// Создаётся один раз в main и передаётся зависимым компонентам явно.
type Store struct {
	mu      sync.RWMutex
	state   model.State
	subs    map[int]chan struct{}
	nextSub int
}

// New создаёт хранилище с партициями в начальном состоянии.
func New() *Store {
	return &Store{
		state: model.State{Version: model.SnapshotVersion},
		subs:  make(map[int]chan struct{}),
	}
}

// Snapshot возвращает глубокую копию полного состояния.
func (s *Store) Snapshot() model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyState(s.state)
}

// Replace целиком заменяет состояние хранилища восстановленным снимком.
func (s *Store) Replace(st model.State) {
	s.mu.Lock()
	s.state = copyState(st)
	s.state.Version = model.SnapshotVersion
	s.mu.Unlock()
	s.broadcast()
}

// Partition возвращает копию сессионной партиции указанной роли.
func (s *Store) Partition(role model.Role) model.SessionPartition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPartition(*s.partitionRef(role))
}

// ClientPartition возвращает копию клиентской партиции вместе с корзиной.
func (s *Store) ClientPartition() model.ClientPartition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyClient(s.state.Client)
}

// SetPartition записывает сессионную партицию роли. Остальные партиции
// не затрагиваются.
func (s *Store) SetPartition(role model.Role, p model.SessionPartition) {
	s.mu.Lock()
	*s.partitionRef(role) = copyPartition(p)
	s.mu.Unlock()
	s.broadcast()
}

// ResetPartition возвращает партицию роли в начальное состояние.
// Для клиента дополнительно очищаются корзина и брони — эфемерные данные сессии.
func (s *Store) ResetPartition(role model.Role) {
	s.mu.Lock()
	if role == model.RoleClient {
		s.state.Client = model.ClientPartition{}
	} else {
		*s.partitionRef(role) = model.SessionPartition{}
	}
	s.mu.Unlock()
	s.broadcast()
}

// SetLoading выставляет транзиентный флаг загрузки партиции.
func (s *Store) SetLoading(role model.Role, loading bool) {
	s.mu.Lock()
	s.partitionRef(role).Loading = loading
	s.mu.Unlock()
	s.broadcast()
}

// CartLines возвращает копию строк корзины клиента.
func (s *Store) CartLines() []model.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCart(s.state.Client.Cart)
}

// ReplaceCart целиком заменяет корзину результатом выборки с бэкенда.
// Это перезапись, а не слияние: локальные оптимистичные строки,
// не подтверждённые бэкендом, отбрасываются.
func (s *Store) ReplaceCart(lines []model.CartLine) {
	s.mu.Lock()
	s.state.Client.Cart = copyCart(lines)
	s.mu.Unlock()
	s.broadcast()
}

// AddOrIncrementLine добавляет строку корзины либо, если строка с таким же
// item_name уже есть, увеличивает её количество на единицу. Слияние идёт
// только по имени блюда: размер и категория не участвуют.
func (s *Store) AddOrIncrementLine(line model.CartLine) {
	s.mu.Lock()
	merged := false
	for i := range s.state.Client.Cart {
		if s.state.Client.Cart[i].ItemName == line.ItemName {
			s.state.Client.Cart[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		s.state.Client.Cart = append(s.state.Client.Cart, line)
	}
	s.mu.Unlock()
	s.broadcast()
}

// AdjustQuantity изменяет количество строки, совпадающей одновременно по id
// и имени, на delta. Строка с количеством нулевым или ниже удаляется.
// Возвращает новое количество и признак того, что строка была найдена.
func (s *Store) AdjustQuantity(id int64, name string, delta int) (int, bool) {
	s.mu.Lock()
	qty := 0
	found := false
	for i := range s.state.Client.Cart {
		l := &s.state.Client.Cart[i]
		if l.ID == id && l.ItemName == name {
			l.Quantity += delta
			qty = l.Quantity
			found = true
			if l.Quantity <= 0 {
				s.state.Client.Cart = append(s.state.Client.Cart[:i], s.state.Client.Cart[i+1:]...)
				qty = 0
			}
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.broadcast()
	}
	return qty, found
}

// RemoveLines удаляет все строки с указанным именем и возвращает их число.
func (s *Store) RemoveLines(name string) int {
	s.mu.Lock()
	kept := s.state.Client.Cart[:0]
	removed := 0
	for _, l := range s.state.Client.Cart {
		if l.ItemName == name {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	s.state.Client.Cart = kept
	s.mu.Unlock()
	if removed > 0 {
		s.broadcast()
	}
	return removed
}

// AddReservation добавляет стол в локальный список броней сессии.
func (s *Store) AddReservation(table string) {
	s.mu.Lock()
	s.state.Client.Reservations = append(s.state.Client.Reservations, table)
	s.mu.Unlock()
	s.broadcast()
}

// Reservations возвращает копию списка броней.
func (s *Store) Reservations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]string, len(s.state.Client.Reservations))
	copy(res, s.state.Client.Reservations)
	return res
}

// Subscribe возвращает канал, получающий сигнал после каждой мутации,
// и функцию отписки. Сигналы коалесцируются: непрочитанные изменения
// сливаются в одно уведомление.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) broadcast() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) partitionRef(role model.Role) *model.SessionPartition {
	switch role {
	case model.RoleAdmin:
		return &s.state.Admin
	case model.RoleWorker:
		return &s.state.Worker
	default:
		return &s.state.Client.SessionPartition
	}
}

func copyState(st model.State) model.State {
	out := st
	out.Admin = copyPartition(st.Admin)
	out.Worker = copyPartition(st.Worker)
	out.Client = copyClient(st.Client)
	return out
}

func copyPartition(p model.SessionPartition) model.SessionPartition {
	out := p
	if p.Info != nil {
		info := *p.Info
		out.Info = &info
	}
	return out
}

func copyClient(c model.ClientPartition) model.ClientPartition {
	out := c
	out.SessionPartition = copyPartition(c.SessionPartition)
	out.Cart = copyCart(c.Cart)
	if c.Reservations != nil {
		out.Reservations = make([]string, len(c.Reservations))
		copy(out.Reservations, c.Reservations)
	}
	return out
}

func copyCart(lines []model.CartLine) []model.CartLine {
	if lines == nil {
		return nil
	}
	out := make([]model.CartLine, len(lines))
	copy(out, lines)
	return out
}
