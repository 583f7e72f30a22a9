// Package worker публикует посты из очереди publish.
//
// # Обзор
//
// Worker — stateless потребитель очереди publish. Одна задача — один пост
// ({postId, tenantId}). Workers масштабируются горизонтально: несколько
// процессов потребляют одну очередь, а очередь ограничивает параллелизм
// и частоту вызовов провайдеров (concurrency + limiter).
//
// # Обработка задачи (Processor.Process)
//
//  1. Загрузка поста по (id, tenantId). Нет поста — permanent, без повторов.
//  2. Проверка статуса: только DRAFT или SCHEDULED. Иначе — permanent
//     (пост уже обработан или отменён конкурентом).
//  3. Загрузка PublishingConfig арендатора. Нет конфигурации — permanent.
//  4. Атомарный переход в PUBLISHING (CAS в БД).
//  5. Один вызов Adapter.Publish на все TargetPlatforms.
//  6. Агрегация: все успешны → PUBLISHED, ни одной → FAILED,
//     иначе PARTIALLY_PUBLISHED. Одна строка истории на платформу.
//  7. Транспортная ошибка адаптера: если RetryCount < MaxRetries —
//     RetryCount++, статус возвращается в исходный и задача повторяется
//     очередью с backoff; иначе FAILED с текстом ошибки.
//  8. Ровно одна запись итога поста за вызов.
//
// PARTIALLY_PUBLISHED — финальный статус: упавшие платформы не повторяются
// автоматически, история показывает, какие из них требуют повторной отправки.
//
// # События
//
// По итогу каждой задачи Processor отправляет events.Event в Sink.
// Логика обработки не зависит от того, кто слушает события.
package worker
