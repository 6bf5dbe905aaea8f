package store

import (
	"context"

	"github.com/xela07ax/sentinel-console/internal/domain"
)

// CancelFunc снимает подписку. Каждый установленный Watch обязан быть
// закрыт при завершении владеющей view — незакрытый слушатель это утечка.
type CancelFunc func()

// DocumentStore — контракт Remote Document Store.
//
// Семантика:
//   - Merge пишет только перечисленные поля, не задевая остальные
//     (типизированный partial update, полной перезаписи в API нет);
//   - Increment атомарен: конкурентные инкременты не теряют апдейтов;
//   - Watch/WatchDoc доставляют ПОЛНЫЙ текущий набор документов на каждое
//     изменение, at-least-once; первый снапшот доставляется сразу при
//     установке подписки, не дожидаясь первого изменения;
//   - упорядоченность между независимыми подписками не гарантируется.
type DocumentStore interface {
	// Get возвращает документ или (nil, nil), если его нет.
	Get(ctx context.Context, collection, key string) (domain.Document, error)

	// List возвращает все документы коллекции, ключ → документ.
	List(ctx context.Context, collection string) (map[string]domain.Document, error)

	// Merge дописывает/обновляет только указанные поля документа.
	Merge(ctx context.Context, collection, key string, fields map[string]string) error

	// Increment атомарно прибавляет delta к числовому полю и возвращает
	// новое значение. Несуществующий документ/поле создается от нуля.
	Increment(ctx context.Context, collection, key, field string, delta int64) (int64, error)

	// Watch подписывает fn на изменения коллекции целиком.
	Watch(ctx context.Context, collection string, fn func(map[string]domain.Document)) (CancelFunc, error)

	// WatchDoc подписывает fn на изменения одного документа.
	// Отсутствующий документ доставляется как nil.
	WatchDoc(ctx context.Context, collection, key string, fn func(domain.Document)) (CancelFunc, error)
}
