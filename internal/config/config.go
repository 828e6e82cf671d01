// Package config загружает конфигурацию scauto из YAML файла и окружения.
//
// Путь файла берётся из SCAUTO_CONFIG. Без файла используются значения
// по умолчанию. Переменные SCAUTO_REF_ROOT, SCAUTO_TOOL_ROOT,
// SCAUTO_WORK_ROOT и SCAUTO_RUN_SHEET_DIR переопределяют файл.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/scauto/internal/paths"
)

// EnvConfig — переменная окружения с путём конфигурации.
const EnvConfig = "SCAUTO_CONFIG"

// Default configuration values.
const (
	defaultSchedule     = "@every 8h"
	defaultSkipList     = "skip_flowcells.json"
	defaultStaggerDelay = 2 * time.Second
)

// ErrInvalidConfig — конфигурация не прошла проверку.
var ErrInvalidConfig = errors.New("invalid config")

// DispatchConfig — параметры запуска образцов.
type DispatchConfig struct {
	// StaggerDelay — пауза между запусками образцов.
	StaggerDelay time.Duration `yaml:"stagger_delay"`

	// SampleTimeout — лимит времени одного образца (0 — без лимита).
	SampleTimeout time.Duration `yaml:"sample_timeout"`

	// CoresPerSample и MemoryPerSampleGB переопределяют таблицу ресурсов.
	CoresPerSample    int `yaml:"cores_per_sample"`
	MemoryPerSampleGB int `yaml:"memory_per_sample_gb"`
}

// AnnotationConfig — параметры аннотации.
type AnnotationConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Executable string        `yaml:"executable"`
	ModelsDir  string        `yaml:"models_dir"`
	Organisms  []string      `yaml:"organisms"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ArchiveConfig — перенос результатов в удалённое хранилище.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`

	// Rsync — команда синхронизации без источника и назначения
	// (default: rsync -r --no-links --checksum).
	Rsync []string `yaml:"rsync"`

	// Cleanup удаляет локальные результаты после сверки с хранилищем.
	Cleanup bool `yaml:"cleanup"`
}

// Config — конфигурация scauto.
type Config struct {
	// Roots — корни референсов, инструментов и рабочей директории.
	Roots paths.Roots `yaml:"roots"`

	// TablesPath — YAML с таблицами путей (пусто — встроенные таблицы).
	TablesPath string `yaml:"tables"`

	// RunSheetDir — директория <flowcell>-run_sheet.csv.
	RunSheetDir string `yaml:"run_sheet_dir"`

	// ImageDir — директория изображений Visium.
	ImageDir string `yaml:"image_dir"`

	// SkipListPath — JSON skip-листа.
	SkipListPath string `yaml:"skip_list"`

	// Schedule — cron выражение обхода run sheet.
	Schedule string `yaml:"schedule"`

	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Annotation AnnotationConfig `yaml:"annotation"`
	Archive    ArchiveConfig    `yaml:"archive"`
}

// Load читает конфигурацию из path. Пустой path — только значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv загружает конфигурацию по пути из SCAUTO_CONFIG.
func FromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfig))
}

func (c *Config) applyEnv() {
	for env, field := range map[string]*string{
		"SCAUTO_REF_ROOT":      &c.Roots.RefRoot,
		"SCAUTO_TOOL_ROOT":     &c.Roots.ToolRoot,
		"SCAUTO_WORK_ROOT":     &c.Roots.WorkRoot,
		"SCAUTO_RUN_SHEET_DIR": &c.RunSheetDir,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Schedule == "" {
		c.Schedule = defaultSchedule
	}
	if c.SkipListPath == "" {
		c.SkipListPath = defaultSkipList
	}
	if c.Dispatch.StaggerDelay == 0 {
		c.Dispatch.StaggerDelay = defaultStaggerDelay
	}
}

// Validate проверяет обязательные поля.
func (c *Config) Validate() error {
	if c.Roots.WorkRoot == "" {
		return fmt.Errorf("%w: roots.work is required", ErrInvalidConfig)
	}
	if c.Dispatch.CoresPerSample < 0 || c.Dispatch.MemoryPerSampleGB < 0 {
		return fmt.Errorf("%w: negative resource override", ErrInvalidConfig)
	}
	if c.Annotation.Enabled && c.Annotation.Executable == "" {
		return fmt.Errorf("%w: annotation.executable is required when annotation is enabled", ErrInvalidConfig)
	}
	return nil
}

// Tables загружает таблицы путей.
func (c *Config) Tables() (*paths.Tables, error) {
	if c.TablesPath == "" {
		return paths.Default()
	}
	return paths.Load(c.TablesPath)
}
