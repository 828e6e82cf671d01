// Package runsheet читает и пишет run sheet flowcell (<flowcell>-run_sheet.csv).
//
// Run sheet — CSV с одной строкой на образец. После обработки оркестратор
// дописывает колонку Ceph_Path (место назначения в удалённом хранилище).
//
// Build собирает run sheet из info sheet лаборатории: проверяет FASTQ,
// выбирает организм, разбирает ткань, слайд Visium и тип цепи VDJ
// (ExtractTissue, SlideFromImage, ExtractVDJType, ...).
package runsheet
