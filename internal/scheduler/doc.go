// Package scheduler находит новые run sheet и отправляет flowcell на обработку.
//
// Scheduler по cron-выражению (по умолчанию "@every 8h") обходит директорию
// <flowcell>-run_sheet.csv. Flowcell из skip-листа, уже отправленные, активные
// или успешные по истории и уже заархивированные пропускаются, остальные передаются в EnqueueFunc: публикация flowcell.pending
// или обработка на месте, если брокер недоступен.
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    RunSheetDir: cfg.RunSheetDir,
//	    Enqueue:     enqueue,
//	    SkipList:    skip,
//	    History:     store,       // опционально
//	    Archive:     tables,      // опционально
//	    Leader:      isLeader,    // опционально
//	    Logger:      logger,
//	})
//	if err := sched.Start(ctx, cfg.Schedule); err != nil { ... }
//	defer sched.Stop()
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock (repo.AdvisoryLock).
package scheduler
