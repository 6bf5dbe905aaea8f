package redisstore

import (
	"context"
	"time"

	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/infra"
	"github.com/xela07ax/sentinel-console/internal/store"
	"go.uber.org/zap"
)

// Проверка соответствия контракту на этапе компиляции
var _ store.DocumentStore = (*Store)(nil)

// Watch подписывается на канал изменений коллекции и на каждое сообщение
// перечитывает ее целиком, отдавая подписчику полный снапшот.
func (s *Store) Watch(ctx context.Context, collection string, fn func(map[string]domain.Document)) (store.CancelFunc, error) {
	return s.watch(ctx, collection, func(syncCtx context.Context) {
		docs, err := s.List(syncCtx, collection)
		if err != nil {
			s.logger.Error("collection snapshot failed", zap.String("collection", collection), zap.Error(err))
			return
		}
		fn(docs)
	})
}

// WatchDoc — то же самое для одного документа (счетчики и т.п.).
// Изменения других документов коллекции фильтруются по ключу.
func (s *Store) WatchDoc(ctx context.Context, collection, key string, fn func(domain.Document)) (store.CancelFunc, error) {
	deliver := func(syncCtx context.Context) {
		doc, err := s.Get(syncCtx, collection, key)
		if err != nil {
			s.logger.Error("document snapshot failed",
				zap.String("collection", collection), zap.String("key", key), zap.Error(err))
			return
		}
		fn(doc)
	}
	return s.watchFiltered(ctx, collection, key, deliver)
}

func (s *Store) watch(ctx context.Context, collection string, deliver func(context.Context)) (store.CancelFunc, error) {
	return s.watchFiltered(ctx, collection, "", deliver)
}

// watchFiltered — живучий цикл подписки: переподключение при обрыве и
// полный ресинк (повторная доставка снапшота) на каждом успешном коннекте.
// Именно ресинк дает подписчику at-least-once поверх at-most-once Pub/Sub.
func (s *Store) watchFiltered(ctx context.Context, collection, onlyKey string, deliver func(context.Context)) (store.CancelFunc, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	channel := infra.ChangeChannel(collection)

	go func() {
		for {
			pubsub := s.rdb.Subscribe(watchCtx, channel)

			// Проверка успешности подписки
			if _, err := pubsub.Receive(watchCtx); err != nil {
				pubsub.Close()
				if watchCtx.Err() != nil {
					return
				}
				s.logger.Error("failed to subscribe", zap.String("chan", channel), zap.Error(err))
				select {
				case <-watchCtx.Done():
					return
				case <-time.After(5 * time.Second):
				}
				continue
			}

			// Начальный снапшот / ресинк после реконнекта
			deliver(watchCtx)

			ch := pubsub.Channel()

		loop:
			for {
				select {
				case <-watchCtx.Done():
					pubsub.Close()
					return
				case msg, ok := <-ch:
					if !ok {
						break loop // канал закрыт, идем на переподключение
					}
					// Для документной подписки чужие ключи не интересны
					if onlyKey != "" && msg.Payload != onlyKey {
						continue
					}
					deliver(watchCtx)
				}
			}

			pubsub.Close()
			select {
			case <-watchCtx.Done():
				return
			case <-time.After(1 * time.Second):
			}
		}
	}()

	return store.CancelFunc(cancel), nil
}
