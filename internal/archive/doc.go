// Package archive собирает итоги обработанного flowcell и переносит их
// в удалённое хранилище.
//
// Для каждой группы chemistry (RNA SeekGene в батче с VDJ идёт вместе с VDJ):
//   - отчёты образцов копируются в <local>/<flowcell>/<flowcell>-sum как <sample>-report.html,
//     картинки рядом с отчётом как <sample>_<name>.png;
//   - метрики из stat-файлов сводятся в <flowcell>_statistics_summary.csv;
//   - run sheet копируется в <local>/<flowcell>;
//   - <local>/<flowcell> синхронизируется rsync в <remote>/<tool>/, число файлов сверяется,
//     при Cleanup локальная копия удаляется.
//
// Образец без отчёта останавливает архивацию до каких-либо изменений на диске.
package archive
