package entity

import "time"

// User operador que firma los movimientos (el username queda como actor en el ledger).
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Name         string
	Active       bool
	CreatedAt    time.Time
}
