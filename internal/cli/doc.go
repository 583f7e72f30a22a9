// Package cli реализует инструмент командной строки Relay.
//
// # Обзор
//
// CLI — клиентская утилита для операторов Relay.
// Работает через HTTP API, не импортирует внутренние пакеты системы.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Relay API. Инкапсулирует HTTP-запросы,
// парсинг ответов (DataResponse, ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	st, err := client.ScanStatus()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr:
// relay scan status --json | jq .
//
// ## Commands
//
//   - scan: trigger, status
//   - post: history
//
// Каждая группа создаётся через фабричную функцию (NewScanCmd, NewPostCmd),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
