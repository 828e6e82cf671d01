// Package cli реализует инструмент командной строки scauto.
//
// # Обзор
//
// Команды делятся на две группы:
//   - удалённые: работают через HTTP API (flowcell list, show, samples, enqueue)
//   - локальные: читают конфигурацию и работают на текущей машине
//     (process, resources, chemistries, skip)
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для scauto API. Разбирает конверты DataResponse, ListResponse
// и ErrorResponse, ошибки сервера возвращает как *APIError.
//
//	client := cli.NewClient("http://localhost:8080")
//	runs, err := client.ListFlowcells(cli.ListFlowcellsOpts{Status: "FAILED"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) по умолчанию
//   - JSON (json.Encoder) с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) в stderr:
//
//	scauto flowcell list --json | jq .
//
// ## Commands
//
// Каждая группа создаётся фабричной функцией (NewFlowcellCmd, NewProcessCmd и т.д.),
// принимающей замыкания clientFn, configFn и outputFn. Они вызываются лениво,
// после разбора PersistentFlags.
package cli
