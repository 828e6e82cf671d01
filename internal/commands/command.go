package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shaiso/scauto/internal/domain"
)

// Ошибки разрешения команд.
var (
	// ErrNoBuilder — для chemistry не зарегистрирован Builder.
	ErrNoBuilder = errors.New("no command builder registered for chemistry")

	// ErrDuplicateBuilder — для chemistry уже зарегистрирован Builder.
	ErrDuplicateBuilder = errors.New("command builder already registered for chemistry")

	// ErrMissingArgument — не передан обязательный аргумент chemistry.
	ErrMissingArgument = errors.New("missing builder argument")

	// ErrUnknownOrganism — суффикс организма не определяется по референсу.
	ErrUnknownOrganism = errors.New("cannot infer organism from reference dir")
)

// Builder — построитель командной строки для одной chemistry.
type Builder interface {
	// Chemistry возвращает chemistry, которую обслуживает Builder.
	Chemistry() domain.Chemistry

	// Build возвращает готовую к запуску команду и путь лог-файла.
	Build(req *Request) (*Command, error)
}

// Request — канонический набор аргументов построителя.
type Request struct {
	SampleID  string
	Flowcell  string
	RefDir    string
	ToolDir   string
	ResultDir string
	DataDir   string
	Cores     int

	// MemoryGB — лимит памяти (семейство 10x).
	MemoryGB int

	// ProbeSet, Image, Area, Slide — пространственные chemistry.
	ProbeSet string
	Image    string
	Area     string
	Slide    string

	// Chain и ChemistryCode — VDJ.
	Chain         string
	ChemistryCode string

	// ExtraArgs добавляются после основных аргументов.
	ExtraArgs []string
}

// Command — командная строка и путь лог-файла.
type Command struct {
	Args    []string
	LogPath string
}

// Name возвращает путь исполняемого файла.
func (c *Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// String возвращает командную строку для логов.
func (c *Command) String() string {
	return strings.Join(c.Args, " ")
}

// organismSuffix определяет суффикс имени выхода по директории референса.
// sample_h — человек, sample_m — мышь, sample_mmul — макака.
func organismSuffix(refDir string) (string, error) {
	lower := strings.ToLower(refDir)
	switch {
	case strings.Contains(lower, "grch38"):
		return "h", nil
	case strings.Contains(lower, "mm10"):
		return "m", nil
	case strings.Contains(lower, "macmul"):
		return "mmul", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownOrganism, refDir)
}

// logPath возвращает стандартный путь лога: <result>/<flowcell>/<sample>_<suffix>_output.log.
func logPath(req *Request, suffix string) string {
	return filepath.Join(req.ResultDir, req.Flowcell, fmt.Sprintf("%s_%s_output.log", req.SampleID, suffix))
}

// pairedFastqArgs находит FASTQ образца и раскладывает их по --fq1/--fq2.
func pairedFastqArgs(req *Request) ([]string, error) {
	pattern := filepath.Join(req.DataDir, req.Flowcell, req.SampleID+"*gz")
	fastqs, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob fastqs: %w", err)
	}
	sort.Strings(fastqs)

	var args []string
	for _, fq := range fastqs {
		switch {
		case strings.Contains(fq, "_R1_"):
			args = append(args, "--fq1", fq)
		case strings.Contains(fq, "_R2_"):
			args = append(args, "--fq2", fq)
		}
	}
	return args, nil
}

func requireArg(chem domain.Chemistry, name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s requires %s", ErrMissingArgument, chem, name)
	}
	return nil
}
