// Package models contains database model definitions.
package models

// StateRecord is a named blob in the console's local state database.
// The session snapshot and the refresh cookie jar are each stored
// under their own name.
type StateRecord struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique"`
	Value []byte `gorm:"type:blob"`
}
