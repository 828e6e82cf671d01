package runsheet

import "errors"

// Ошибки run sheet.
var (
	// ErrEmptySheet — в run sheet нет строк.
	ErrEmptySheet = errors.New("run sheet has no samples")

	// ErrMalformedSheet — файл не разбирается как CSV run sheet.
	ErrMalformedSheet = errors.New("malformed run sheet")

	// ErrInvalidRow — строка не прошла валидацию.
	ErrInvalidRow = errors.New("invalid run sheet row")

	// ErrMissingFastq — у образцов info sheet нет FASTQ.
	ErrMissingFastq = errors.New("samples without fastq")

	// ErrBadFilename — имя файла не соответствует <flowcell>-run_sheet.csv.
	ErrBadFilename = errors.New("not a run sheet filename")
)
