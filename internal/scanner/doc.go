// Package scanner находит запланированные посты и ставит их на публикацию.
//
// # Цикл сканирования (Scanner.Scan)
//
//  1. Захват глобальной блокировки relay:lock:scheduled-posts с коротким TTL.
//     Блокировку держит другой экземпляр — цикл пропускается с результатом
//     {0,0,0,[]}; это не ошибка.
//  2. Выборка SCHEDULED постов с scheduled_for <= now, самые ранние первыми,
//     не более batchSize.
//  3. Для каждого поста — задача publish с job id publish:<postId>:
//     повторный цикл до завершения задачи не создаёт дубликат.
//  4. postsQueued — задачи, принятые очередью; postsFailed — посты, для
//     которых постановка упала (останутся SCHEDULED до следующего цикла).
//  5. Блокировка освобождается всегда, в том числе при ошибке выборки.
//
// # Запуск
//
// Repeater по cron-расписанию ставит в очередь scan задачу {manual:false},
// Trigger — ручную {manual:true}. Обе обрабатывает Scanner.HandleJob,
// то есть ручной запуск проходит через ту же блокировку.
//
// Status — только чтение: владелец блокировки и последний результат.
package scanner
