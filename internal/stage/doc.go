// Package stage реализует единый этап обработки с ограниченным параллелизмом.
//
// Этап — это фильтр допуска, лимит одновременных задач и пауза между
// запусками. Диспетчеризация образцов (лимит 1, пауза между запусками)
// и аннотация (лимит по CPU) — два экземпляра одного и того же Stage.
//
// Ошибка одной задачи не прерывает остальные: она попадает в Outcome.
package stage
