package annotation

import "errors"

// Ошибки аннотации.
var (
	// ErrNoInput — в результатах инструмента нет матрицы экспрессии.
	ErrNoInput = errors.New("annotation input not found")

	// ErrNoResultDir — директория результатов образца неизвестна.
	ErrNoResultDir = errors.New("sample result dir is unknown")

	// ErrUnsupportedChemistry — chemistry не аннотируется.
	ErrUnsupportedChemistry = errors.New("chemistry is not annotated")

	// ErrNoExecutable — не задан путь программы аннотации.
	ErrNoExecutable = errors.New("annotation executable not configured")
)
