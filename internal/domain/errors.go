package domain

import "errors"

// Ошибки доменной модели.
var (
	// ErrUnknownChemistry — chemistry не поддерживается.
	ErrUnknownChemistry = errors.New("unknown chemistry")

	// ErrInvalidSample — строка run sheet не содержит обязательных полей.
	ErrInvalidSample = errors.New("invalid sample row")
)
