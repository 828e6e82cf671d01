package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrLockHeld — advisory lock удерживает другой процесс.
	ErrLockHeld = errors.New("advisory lock held by another session")
)
