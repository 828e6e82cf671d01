// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (хранилища, publisher, skip-лист, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - flowcell_handler.go — запуски flowcell, образцы, постановка в очередь
//   - info_handler.go     — ресурсы, chemistry, skip-лист
//
// API только читает результаты и ставит flowcell в очередь;
// обработкой занимается scauto-orchestrator.
package api
