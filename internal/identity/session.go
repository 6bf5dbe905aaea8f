package identity

import (
	"sync"

	"github.com/xela07ax/sentinel-console/internal/domain"
)

// Session — явный объект сессии процесса вместо глобального синглтона.
// Единственный писатель — клиент Identity Provider; остальная система
// только наблюдает за сменой пользователя через канал уведомлений.
type Session struct {
	mu   sync.RWMutex
	user *domain.User
	subs []chan *domain.User
}

func NewSession() *Session {
	return &Session{}
}

// Establish фиксирует вошедшего пользователя и оповещает наблюдателей.
func (s *Session) Establish(user *domain.User) {
	s.setUser(user)
}

// Clear сбрасывает сессию (явный sign-out или истечение по сигналу провайдера).
func (s *Session) Clear() {
	s.setUser(nil)
}

// Current возвращает текущего пользователя (nil = аноним).
func (s *Session) Current() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Changes возвращает канал уведомлений о смене текущего пользователя.
// Буфер на одно значение; медленный наблюдатель теряет промежуточные
// состояния, но всегда увидит последнее.
func (s *Session) Changes() <-chan *domain.User {
	ch := make(chan *domain.User, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Session) setUser(user *domain.User) {
	s.mu.Lock()
	s.user = user
	subs := s.subs
	s.mu.Unlock()

	for _, ch := range subs {
		// latest wins: вытесняем непрочитанное значение
		select {
		case ch <- user:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- user:
		default:
		}
	}
}
