package rpc

import "errors"

// Ошибки registry.
var (
	// ErrDuplicateTool — tool с таким именем уже зарегистрирован.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrToolNotFound — tool не найден в registry.
	ErrToolNotFound = errors.New("tool not found")
)
