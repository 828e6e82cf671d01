// Package app собирает компоненты обработки flowcell из конфигурации.
//
// Используется бинарниками scauto-orchestrator, scauto-scheduler и
// командой scauto process: все они обрабатывают flowcell одинаково.
package app

import (
	"fmt"
	"log/slog"

	"github.com/shaiso/scauto/internal/annotation"
	"github.com/shaiso/scauto/internal/archive"
	"github.com/shaiso/scauto/internal/commands"
	"github.com/shaiso/scauto/internal/config"
	"github.com/shaiso/scauto/internal/dispatch"
	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/mq"
	"github.com/shaiso/scauto/internal/orchestrator"
	"github.com/shaiso/scauto/internal/paths"
	"github.com/shaiso/scauto/internal/skiplist"
)

// Options — внешние зависимости, которых может не быть (БД, брокер).
type Options struct {
	Store    orchestrator.Store
	Notifier orchestrator.Notifier
	Conn     *mq.Connection

	// Launcher подменяет запуск процессов инструментов и rsync (тесты).
	Launcher dispatch.Launcher
}

// App — собранные компоненты.
type App struct {
	Config       *config.Config
	Tables       *paths.Tables
	Registry     *commands.Registry
	Dispatcher   *dispatch.Dispatcher
	Orchestrator *orchestrator.Orchestrator
	Daemon       *orchestrator.Daemon
	SkipList     *skiplist.List

	// Archiver — nil, если архивация выключена.
	Archiver *archive.Archiver
}

// New собирает App. Проверяет, что для каждой chemistry есть построитель команды.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	tables, err := cfg.Tables()
	if err != nil {
		return nil, err
	}

	registry := commands.DefaultRegistry()
	if err := registry.Validate(domain.Chemistries()...); err != nil {
		return nil, err
	}

	skip, err := skiplist.Open(cfg.SkipListPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open skip list: %w", err)
	}

	dispatcher := dispatch.New(dispatch.Config{
		Tables:        tables,
		Roots:         cfg.Roots,
		Registry:      registry,
		Launcher:      opts.Launcher,
		SampleTimeout: cfg.Dispatch.SampleTimeout,
		Logger:        logger,
	})

	var annotator annotation.Annotator
	if cfg.Annotation.Enabled {
		annotator = annotation.NewExecAnnotator(annotation.ExecConfig{
			Executable: cfg.Annotation.Executable,
			ModelsDir:  cfg.Annotation.ModelsDir,
			Timeout:    cfg.Annotation.Timeout,
			Logger:     logger,
		})
	}

	orch := orchestrator.New(orchestrator.Config{
		Dispatcher:        dispatcher,
		Annotator:         annotator,
		Organisms:         cfg.Annotation.Organisms,
		CoresPerSample:    cfg.Dispatch.CoresPerSample,
		MemoryPerSampleGB: cfg.Dispatch.MemoryPerSampleGB,
		StaggerDelay:      cfg.Dispatch.StaggerDelay,
		Store:             opts.Store,
		Notifier:          opts.Notifier,
		Logger:            logger,
	})

	daemonCfg := orchestrator.DaemonConfig{
		Orchestrator: orch,
		Conn:         opts.Conn,
		RunSheetDir:  cfg.RunSheetDir,
		ImageDir:     cfg.ImageDir,
		SkipList:     skip,
		Logger:       logger,
	}

	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		archiver = archive.New(archive.Config{
			Tables:   tables,
			Roots:    cfg.Roots,
			Launcher: opts.Launcher,
			Rsync:    cfg.Archive.Rsync,
			Cleanup:  cfg.Archive.Cleanup,
			Logger:   logger,
		})
		daemonCfg.Archiver = archiver
	}
	daemon := orchestrator.NewDaemon(daemonCfg)

	return &App{
		Config:       cfg,
		Tables:       tables,
		Registry:     registry,
		Dispatcher:   dispatcher,
		Orchestrator: orch,
		Daemon:       daemon,
		SkipList:     skip,
		Archiver:     archiver,
	}, nil
}
