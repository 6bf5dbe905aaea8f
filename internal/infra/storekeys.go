package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "sentinel"
)

// Имена коллекций Document Store (повторяют раскладку исходной системы)
const (
	CollectionCounters       = "counters"
	CollectionUserActivities = "userActivities"
	CollectionAnomalies      = "Anomalies"
)

// Ключи документов-синглтонов в коллекции counters
const (
	CounterUserCount      = "userCount"
	CounterMonitoredUsers = "monitoredUsers"
)

// DocKey — ключ Redis-хэша конкретного документа
func DocKey(collection, key string) string {
	return fmt.Sprintf("%s:%s:%s", RedisNamespace, collection, key)
}

// IndexKey — Set с ключами всех документов коллекции (для листинга)
func IndexKey(collection string) string {
	return fmt.Sprintf("%s:%s:keys", RedisNamespace, collection)
}

// ChangeChannel — канал Pub/Sub, в который публикуется каждый измененный ключ коллекции
func ChangeChannel(collection string) string {
	return fmt.Sprintf("%s:changes:%s", RedisNamespace, collection)
}
