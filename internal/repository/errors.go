package repository

import "errors"

var (
	// ErrLockNoDisponible means another transaction already holds the row
	// lock (pg 55P03). Surfaced instead of blocking the caller.
	ErrLockNoDisponible = errors.New("bloqueo de fila no disponible")

	// ErrStockInsuficiente is returned when a guarded stock decrement
	// matches no rows.
	ErrStockInsuficiente = errors.New("stock insuficiente")
)
