package dispatch

import "errors"

// Ошибки диспетчеризации.
var (
	// ErrResolvePaths — не удалось вычислить пути образца.
	ErrResolvePaths = errors.New("resolve sample paths")

	// ErrBuildCommand — построитель команды вернул ошибку.
	ErrBuildCommand = errors.New("build sample command")

	// ErrLaunch — процесс не удалось запустить.
	ErrLaunch = errors.New("launch sample process")
)
