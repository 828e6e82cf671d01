package paths

import "errors"

// Ошибки разрешения путей.
var (
	// ErrUnknownChemistry — для chemistry нет записи в таблице.
	ErrUnknownChemistry = errors.New("chemistry not configured in path tables")

	// ErrUnknownOrganism — для организма нет записи в таблице референсов.
	ErrUnknownOrganism = errors.New("organism not configured for chemistry")

	// ErrNoReference — референс для пары chemistry/организм явно отсутствует (null).
	ErrNoReference = errors.New("no reference available")

	// ErrInvalidTables — таблицы не прошли валидацию.
	ErrInvalidTables = errors.New("invalid path tables")
)
