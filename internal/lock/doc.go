// Package lock реализует распределённую блокировку поверх Redis.
//
// Блокировка защищает цикл сканирования запланированных постов:
// при горизонтальном масштабировании фазу запрос+постановка в очередь
// выполняет ровно один экземпляр scheduler'а.
//
// Acquire — атомарный SET NX PX с уникальным токеном владельца.
// Release — Lua compare-and-delete: удаляет ключ, только если он всё ещё
// принадлежит этому процессу. Повторный Release и Release чужой или
// истёкшей блокировки — no-op.
//
// Реентерабельность не поддерживается: сканер захватывает блокировку
// не более одного раза за вызов.
package lock
