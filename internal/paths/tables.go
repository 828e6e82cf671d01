package paths

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/scauto/internal/domain"
)

//go:embed defaults.yaml
var defaultTablesYAML []byte

// Reference — запись таблицы референсов для пары chemistry/организм.
type Reference struct {
	// Ref — имя директории референса относительно RefRoot. nil — референса нет.
	Ref *string `yaml:"ref"`

	// ProbeSet — путь к probe-set относительно директории инструмента.
	ProbeSet string `yaml:"probe_set,omitempty"`
}

// Results — фрагменты путей результатов для chemistry.
type Results struct {
	Fastq   string `yaml:"fastq"`
	Local   string `yaml:"local"`
	Remote  string `yaml:"remote"`
	Postfix string `yaml:"postfix"`
	Stat    string `yaml:"stat"`
}

// Tables — статические таблицы путей (референсы, результаты, инструменты).
type Tables struct {
	RemoteRoot string                                    `yaml:"remote_root"`
	References map[domain.Chemistry]map[string]Reference `yaml:"references"`
	Results    map[domain.Chemistry]Results              `yaml:"results"`
	Tools      map[domain.Chemistry]string               `yaml:"tools"`
}

// Roots — корневые директории, передаваемые явно из конфигурации.
type Roots struct {
	// RefRoot — корень референсов.
	RefRoot string `yaml:"refs"`

	// ToolRoot — корень установленных инструментов.
	ToolRoot string `yaml:"tools"`

	// WorkRoot — рабочая директория (FASTQ и локальные результаты).
	WorkRoot string `yaml:"work"`
}

// Default возвращает встроенные таблицы.
func Default() (*Tables, error) {
	return Parse(defaultTablesYAML)
}

// Load читает таблицы из YAML файла. Пустой путь — встроенные таблицы.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read path tables: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML и валидирует таблицы.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTables, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate проверяет, что для каждой записи результатов есть инструмент и маркер отчёта.
func (t *Tables) Validate() error {
	if len(t.Results) == 0 {
		return fmt.Errorf("%w: no results entries", ErrInvalidTables)
	}
	for chem, res := range t.Results {
		if res.Local == "" || res.Postfix == "" {
			return fmt.Errorf("%w: %s: local and postfix are required", ErrInvalidTables, chem)
		}
		if _, ok := t.Tools[chem]; !ok {
			return fmt.Errorf("%w: %s: no tool entry", ErrInvalidTables, chem)
		}
	}
	return nil
}

// ResultsFor возвращает фрагменты путей результатов для chemistry.
func (t *Tables) ResultsFor(chem domain.Chemistry) (Results, error) {
	res, ok := t.Results[chem]
	if !ok {
		return Results{}, fmt.Errorf("%w: %s", ErrUnknownChemistry, chem)
	}
	return res, nil
}

// ToolDir возвращает директорию инструмента для chemistry.
func (t *Tables) ToolDir(chem domain.Chemistry, roots Roots) (string, error) {
	tool, ok := t.Tools[chem]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChemistry, chem)
	}
	return filepath.Join(roots.ToolRoot, tool), nil
}

// LocalDir возвращает локальную директорию результатов chemistry.
func (t *Tables) LocalDir(chem domain.Chemistry, roots Roots) (string, error) {
	res, err := t.ResultsFor(chem)
	if err != nil {
		return "", err
	}
	return filepath.Join(roots.WorkRoot, res.Local), nil
}

// RemoteDir возвращает директорию удалённого хранилища для chemistry.
func (t *Tables) RemoteDir(chem domain.Chemistry) (string, error) {
	res, err := t.ResultsFor(chem)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(res.Remote) || t.RemoteRoot == "" {
		return res.Remote, nil
	}
	return filepath.Join(t.RemoteRoot, res.Remote), nil
}

// ArchiveDir возвращает директорию flowcell в удалённом хранилище: <RemoteDir>/<tool>/<flowcell>.
func (t *Tables) ArchiveDir(chem domain.Chemistry, flowcell string) (string, error) {
	remote, err := t.RemoteDir(chem)
	if err != nil {
		return "", err
	}
	tool, ok := t.Tools[chem]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChemistry, chem)
	}
	return filepath.Join(remote, tool, flowcell), nil
}

// Archived ищет flowcell в удалённом хранилище: ArchiveDir любой chemistry.
// Возвращает первую найденную директорию.
func (t *Tables) Archived(flowcell string) (string, bool) {
	if flowcell == "" {
		return "", false
	}

	chems := make([]domain.Chemistry, 0, len(t.Results))
	for chem := range t.Results {
		chems = append(chems, chem)
	}
	sort.Slice(chems, func(i, j int) bool { return chems[i] < chems[j] })

	for _, chem := range chems {
		dir, err := t.ArchiveDir(chem, flowcell)
		if err != nil {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, true
		}
	}
	return "", false
}

// Resolve вычисляет DirectoryBundle образца по chemistry и организму.
func (t *Tables) Resolve(chem domain.Chemistry, organism string, roots Roots) (domain.DirectoryBundle, error) {
	res, err := t.ResultsFor(chem)
	if err != nil {
		return domain.DirectoryBundle{}, err
	}

	toolDir, err := t.ToolDir(chem, roots)
	if err != nil {
		return domain.DirectoryBundle{}, err
	}

	refs, ok := t.References[chem]
	if !ok {
		return domain.DirectoryBundle{}, fmt.Errorf("%w: %s (references)", ErrUnknownChemistry, chem)
	}
	ref, ok := refs[organism]
	if !ok {
		return domain.DirectoryBundle{}, fmt.Errorf("%w: %s/%s", ErrUnknownOrganism, chem, organism)
	}
	if ref.Ref == nil || *ref.Ref == "" {
		return domain.DirectoryBundle{}, fmt.Errorf("%w: %s/%s", ErrNoReference, chem, organism)
	}

	remote, err := t.RemoteDir(chem)
	if err != nil {
		return domain.DirectoryBundle{}, err
	}

	bundle := domain.DirectoryBundle{
		RefDir:      filepath.Join(roots.RefRoot, *ref.Ref),
		ResultDir:   filepath.Join(roots.WorkRoot, res.Local),
		DataDir:     filepath.Join(roots.WorkRoot, res.Fastq),
		ToolDir:     toolDir,
		RemoteDir:   remote,
		Postfix:     res.Postfix,
		StatPostfix: res.Stat,
	}
	if ref.ProbeSet != "" {
		bundle.ProbeSet = filepath.Join(toolDir, ref.ProbeSet)
	}
	return bundle, nil
}

// RedirectTo переносит локальные и удалённые директории bundle на другую chemistry
// (RNA образцы в батче с VDJ пишут результаты в дерево VDJ).
func (t *Tables) RedirectTo(bundle domain.DirectoryBundle, chem domain.Chemistry, roots Roots) (domain.DirectoryBundle, error) {
	local, err := t.LocalDir(chem, roots)
	if err != nil {
		return bundle, err
	}
	remote, err := t.RemoteDir(chem)
	if err != nil {
		return bundle, err
	}
	bundle.ResultDir = local
	bundle.RemoteDir = remote
	return bundle, nil
}
