// Package platform — адаптер публикации в социальные сети.
//
// Adapter — capability интерфейс, через который worker публикует пост.
// Dispatcher реализует Adapter: для каждой целевой платформы выбирает
// зарегистрированный Client и учётные данные из PublishingConfig арендатора.
//
// Контракт Publish:
//   - ровно один PlatformResult на каждую платформу, в порядке TargetPlatforms
//   - отказ платформы (HTTP >= 400, нет учётных данных, нет клиента) — результат
//     с Success=false, а не ошибка
//   - ошибка Publish означает «ни одна платформа не опробована»; это
//     транспортный сбой, который worker повторяет через очередь
package platform
