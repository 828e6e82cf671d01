package archive

import "errors"

// Ошибки архивации.
var (
	// ErrMissingReport — у образца нет отчёта инструмента.
	ErrMissingReport = errors.New("sample report not found")

	// ErrSync — rsync завершился с ошибкой.
	ErrSync = errors.New("sync to remote storage failed")

	// ErrTransferIncomplete — после синхронизации файлов в хранилище меньше, чем локально.
	ErrTransferIncomplete = errors.New("remote file count differs from local")
)
