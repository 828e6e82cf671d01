package domain

// DirectoryBundle — набор путей образца, вычисленный из таблиц путей.
//
// Не сохраняется: пересчитывается для каждого образца.
type DirectoryBundle struct {
	// RefDir — директория референса.
	RefDir string

	// ResultDir — локальная директория результатов chemistry (без flowcell).
	ResultDir string

	// DataDir — директория входных FASTQ (без flowcell).
	DataDir string

	// ToolDir — директория установки внешнего инструмента.
	ToolDir string

	// RemoteDir — директория в удалённом хранилище.
	RemoteDir string

	// ProbeSet — путь к probe-set (только для пространственных chemistry).
	ProbeSet string

	// Postfix — маркер финального отчёта инструмента (для проверки идемпотентности).
	Postfix string

	// StatPostfix — маркер файла статистики.
	StatPostfix string
}

// ResourceBudget — ресурсы на один образец, выбранные один раз на батч.
//
// Неизменяемый: все образцы батча получают один и тот же бюджет.
type ResourceBudget struct {
	CoresPerSample    int `json:"cores_per_sample"`
	MemoryPerSampleGB int `json:"memory_per_sample_gb"`
}

// Минимальные суммарные ресурсы батча.
const (
	MinTotalCores    = 4
	MinTotalMemoryGB = 40
)

// Totals возвращает суммарные ресурсы батча из n образцов с учётом минимумов.
func (b ResourceBudget) Totals(n int) (cores, memoryGB int) {
	cores = max(b.CoresPerSample*n, MinTotalCores)
	memoryGB = max(b.MemoryPerSampleGB*n, MinTotalMemoryGB)
	return cores, memoryGB
}
