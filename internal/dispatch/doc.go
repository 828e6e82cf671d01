// Package dispatch запускает внешний инструмент для одного образца.
//
// Dispatcher для строки run sheet:
//   - Вычисляет DirectoryBundle по таблицам путей
//   - Применяет правила смешивания chemistry в батче (VDJ)
//   - Проверяет идемпотентность по маркеру финального отчёта
//   - Строит команду через commands.Registry
//   - Запускает процесс через Launcher с выводом в лог-файл
//
// Любая ошибка превращается в Result со статусом FAILED:
// один образец никогда не прерывает батч.
package dispatch
