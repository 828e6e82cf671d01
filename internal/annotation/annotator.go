package annotation

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shaiso/scauto/internal/domain"
)

// Default configuration values.
const (
	defaultTimeout    = 2 * time.Hour
	maxMessageLines   = 20
	annotatedSuffix   = "_annotated_scParadise.h5ad"
	tenxMatrixPattern = "outs/filtered_feature_bc_matrix.h5"
	sgMatrixPattern   = "step3/filtered_feature_bc_matrix"
)

// Annotator аннотирует один образец.
type Annotator interface {
	Annotate(ctx context.Context, task domain.AnnotationTask, bundle domain.DirectoryBundle) domain.AnnotationResult
}

// ExecConfig — конфигурация ExecAnnotator.
type ExecConfig struct {
	// Executable — путь программы аннотации.
	Executable string

	// ModelsDir — каталог скачанных моделей.
	ModelsDir string

	// Timeout — лимит на один образец (default: 2h).
	Timeout time.Duration

	// Logger
	Logger *slog.Logger
}

// ExecAnnotator запускает внешнюю программу аннотации.
type ExecAnnotator struct {
	executable string
	modelsDir  string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewExecAnnotator создаёт ExecAnnotator.
func NewExecAnnotator(cfg ExecConfig) *ExecAnnotator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ExecAnnotator{
		executable: cfg.Executable,
		modelsDir:  cfg.ModelsDir,
		timeout:    timeout,
		logger:     logger,
	}
}

// Annotate находит матрицу экспрессии образца и запускает программу.
func (a *ExecAnnotator) Annotate(ctx context.Context, task domain.AnnotationTask, bundle domain.DirectoryBundle) domain.AnnotationResult {
	result := domain.AnnotationResult{SampleID: task.SampleID}

	if a.executable == "" {
		result.Message = ErrNoExecutable.Error()
		return result
	}

	input, err := FindInput(task, bundle)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	output := OutputPath(input)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := []string{
		"--input", input,
		"--output", output,
		"--species", Species(task.Organism),
		"--tissue", task.Tissue,
	}
	if a.modelsDir != "" {
		args = append(args, "--models", a.modelsDir)
	}

	a.logger.Debug("annotation started",
		"sample_id", task.SampleID,
		"input", input,
	)

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, a.executable, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		result.Message = fmt.Sprintf("annotation of %s failed: %v\n%s", task.SampleID, err, tail(buf.String(), maxMessageLines))
		return result
	}

	result.Success = true
	result.Message = fmt.Sprintf("annotated %s from %s to %s\n%s", task.SampleID, input, output, tail(buf.String(), maxMessageLines))
	return result
}

// FindInput ищет матрицу экспрессии в результатах инструмента.
// Пустой ResultDir означает, что пути образца не разрешились.
func FindInput(task domain.AnnotationTask, bundle domain.DirectoryBundle) (string, error) {
	if bundle.ResultDir == "" {
		return "", fmt.Errorf("%w: %s", ErrNoResultDir, task.SampleID)
	}

	var pattern string
	switch task.Chemistry {
	case domain.ChemistryTenXRNA:
		pattern = tenxMatrixPattern
	case domain.ChemistrySeekGeneRNA:
		pattern = sgMatrixPattern
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedChemistry, task.Chemistry)
	}

	matches, err := filepath.Glob(filepath.Join(bundle.ResultDir, task.Flowcell, task.SampleID+"*", pattern))
	if err != nil {
		return "", fmt.Errorf("glob input: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoInput, task.SampleID)
	}
	return matches[0], nil
}

// OutputPath возвращает путь аннотированного h5ad рядом со входом.
func OutputPath(input string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(input, string(filepath.Separator)), ".h5")
	return trimmed + annotatedSuffix
}

// tail возвращает последние n строк вывода.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
