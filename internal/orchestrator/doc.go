// Package orchestrator обрабатывает батч образцов одного flowcell.
//
// ProcessFlowcell проходит фазы:
//
//	INIT → RESOURCE_ALLOCATED → DISPATCHING → WAITING → (ANNOTATING) → DONE
//
//   - INIT: сводка батча (flowcells, организмы, chemistry, ткани)
//   - RESOURCE_ALLOCATED: бюджет ресурсов на образец (AllocateResources)
//   - DISPATCHING: запуск образцов по порядку с паузой между запусками
//   - WAITING: ожидание каждого процесса в порядке запуска
//   - ANNOTATING: аннотация допущенных RNA образцов с ограниченным параллелизмом
//   - DONE: закрытие логов, сохранение результатов, события
//
// Ошибка образца никогда не прерывает батч. Наружу возвращаются только
// структурные ошибки (пустой батч) и отмена контекста.
//
// Daemon — долгоживущий процесс поверх Orchestrator: получает
// flowcell.pending из RabbitMQ, читает run sheet, обрабатывает flowcell
// и сохраняет обновлённый run sheet.
package orchestrator
