package memstore

import (
	"context"
	"strconv"
	"sync"

	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/store"
)

// Store — in-memory реализация store.DocumentStore для тестов и локальной
// разработки. Повторяет семантику redisstore: merge не задевает чужие поля,
// инкремент атомарен (под мьютексом), подписчики получают полный снапшот
// сразу при установке и на каждое изменение. Дополнительно ведет учет
// активных слушателей — тесты проверяют по нему отсутствие утечек подписок.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]domain.Document
	watchers    map[int]*watcher
	nextID      int
}

type watcher struct {
	collection string
	onlyKey    string // пусто = вся коллекция
	notify     func()
}

var _ store.DocumentStore = (*Store)(nil)

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]domain.Document),
		watchers:    make(map[int]*watcher),
	}
}

func (s *Store) Get(_ context.Context, collection, key string) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][key]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

func (s *Store) List(_ context.Context, collection string) (map[string]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(collection), nil
}

func (s *Store) Merge(_ context.Context, collection, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	doc := s.docLocked(collection, key)
	for f, v := range fields {
		doc[f] = v
	}
	notify := s.watchersForLocked(collection, key)
	s.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return nil
}

func (s *Store) Increment(_ context.Context, collection, key, field string, delta int64) (int64, error) {
	s.mu.Lock()
	doc := s.docLocked(collection, key)
	cur, _ := strconv.ParseInt(doc[field], 10, 64)
	cur += delta
	doc[field] = strconv.FormatInt(cur, 10)
	notify := s.watchersForLocked(collection, key)
	s.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return cur, nil
}

func (s *Store) Watch(_ context.Context, collection string, fn func(map[string]domain.Document)) (store.CancelFunc, error) {
	return s.addWatcher(collection, "", func() {
		s.mu.Lock()
		snap := s.snapshotLocked(collection)
		s.mu.Unlock()
		fn(snap)
	})
}

func (s *Store) WatchDoc(_ context.Context, collection, key string, fn func(domain.Document)) (store.CancelFunc, error) {
	return s.addWatcher(collection, key, func() {
		s.mu.Lock()
		var snap domain.Document
		if doc, ok := s.collections[collection][key]; ok {
			snap = cloneDoc(doc)
		}
		s.mu.Unlock()
		fn(snap)
	})
}

func (s *Store) addWatcher(collection, onlyKey string, notify func()) (store.CancelFunc, error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = &watcher{collection: collection, onlyKey: onlyKey, notify: notify}
	s.mu.Unlock()

	// Первый снапшот доставляется сразу, не дожидаясь изменений
	notify()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}, nil
}

// ActiveWatchers возвращает число живых подписок (инструмент тестов).
func (s *Store) ActiveWatchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

func (s *Store) docLocked(collection, key string) domain.Document {
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]domain.Document)
		s.collections[collection] = col
	}
	doc, ok := col[key]
	if !ok {
		doc = make(domain.Document)
		col[key] = doc
	}
	return doc
}

func (s *Store) snapshotLocked(collection string) map[string]domain.Document {
	out := make(map[string]domain.Document, len(s.collections[collection]))
	for key, doc := range s.collections[collection] {
		out[key] = cloneDoc(doc)
	}
	return out
}

// watchersForLocked собирает колбэки, которых касается изменение ключа.
// Сами вызовы делаются после освобождения мьютекса, чтобы подписчик мог
// спокойно читать хранилище из колбэка.
func (s *Store) watchersForLocked(collection, key string) []func() {
	var out []func()
	for _, w := range s.watchers {
		if w.collection != collection {
			continue
		}
		if w.onlyKey != "" && w.onlyKey != key {
			continue
		}
		out = append(out, w.notify)
	}
	return out
}

func cloneDoc(doc domain.Document) domain.Document {
	out := make(domain.Document, len(doc))
	for f, v := range doc {
		out[f] = v
	}
	return out
}
