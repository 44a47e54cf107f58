package services

import (
	"sync"
)

// Conn - живое соединение клиента. *websocket.Conn реализует интерфейс,
// в тестах подставляется фейк.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// PresenceRegistry - волатильная карта userID -> соединение. Живет только в
// памяти процесса, наполняется на identify и чистится на disconnect.
// На пользователя ровно одна запись: повторный Register затирает старую
// (last-writer-wins, прежнему соединению отдельный сигнал не шлется).
type PresenceRegistry struct {
	mu    sync.RWMutex
	users map[int64]Conn
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		users: make(map[int64]Conn),
	}
}

func (r *PresenceRegistry) Register(userID int64, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = conn
}

func (r *PresenceRegistry) Lookup(userID int64) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.users[userID]
	return conn, ok
}

// RemoveByConn удаляет запись по закрывшемуся соединению. На disconnect
// известен только handle, поэтому ищем первую запись с таким значением.
func (r *PresenceRegistry) RemoveByConn(conn Conn) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, c := range r.users {
		if c == conn {
			delete(r.users, userID)
			return userID, true
		}
	}
	return 0, false
}

// Send отправляет событие конкретному пользователю, если тот онлайн
func (r *PresenceRegistry) Send(userID int64, v interface{}) bool {
	r.mu.RLock()
	conn, ok := r.users[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if err := conn.WriteJSON(v); err != nil {
		return false
	}
	return true
}

// Broadcast рассылает событие всем подключенным
func (r *PresenceRegistry) Broadcast(v interface{}) {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.users))
	for _, c := range r.users {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		_ = c.WriteJSON(v)
	}
}

// Online возвращает снимок идентификаторов подключенных пользователей
func (r *PresenceRegistry) Online() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids
}

// GlobalPresence - реестр присутствия процесса
var GlobalPresence = NewPresenceRegistry()
