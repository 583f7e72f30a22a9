// Package events — события pipeline и их получатели.
//
// Worker и Scanner не знают, кто слушает: они отправляют Event в Sink,
// собранный при старте процесса (Multi из log, metrics, amqp, kafka).
// Ошибка доставки события никогда не влияет на обработку задачи:
// sink логирует её и продолжает.
package events
