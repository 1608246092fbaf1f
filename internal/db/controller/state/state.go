// Package state provides CRUD operations for named state blobs.
package state

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantline/tenantline-console/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrRecordNotFound is returned when a state record is not found.
	ErrRecordNotFound = errors.New("state record not found")
	// ErrNameEmpty is returned when attempting to access a state record with an empty name.
	ErrNameEmpty = errors.New("state record name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a state record by its name.
func Get(db *gorm.DB, name string) (*models.StateRecord, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrNameEmpty
	}

	var record models.StateRecord
	result := db.Where(nameQueryPattern, name).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}

	return &record, nil
}

// Set creates or updates a state record by name (upsert operation).
func Set(db *gorm.DB, name string, value []byte) (*models.StateRecord, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrNameEmpty
	}

	var record models.StateRecord
	result := db.Where(nameQueryPattern, name).First(&record)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		record = models.StateRecord{Name: name, Value: value}

		if result = db.Create(&record); result.Error != nil {
			return nil, result.Error
		}

		return &record, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	record.Value = value
	if result = db.Save(&record); result.Error != nil {
		return nil, result.Error
	}

	return &record, nil
}

// Delete deletes a state record by name. Deleting a record that does
// not exist is not an error.
func Delete(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}
	if name == "" {
		return ErrNameEmpty
	}

	result := db.Where(nameQueryPattern, name).Delete(&models.StateRecord{})

	return result.Error
}

// Blob is a handle to one named state record. It satisfies the blob
// persistence interfaces of the session store and the cookie jar.
type Blob struct {
	db   *gorm.DB
	name string
}

// NewBlob returns a handle bound to the record with the given name.
func NewBlob(db *gorm.DB, name string) *Blob {
	return &Blob{db: db, name: name}
}

// Save upserts the blob value.
func (b *Blob) Save(blob []byte) error {
	_, err := Set(b.db, b.name, blob)
	return err
}

// Load returns the stored value, or nil when no record exists yet.
func (b *Blob) Load() ([]byte, error) {
	record, err := Get(b.db, b.name)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return record.Value, nil
}

// Delete removes the record.
func (b *Blob) Delete() error {
	return Delete(b.db, b.name)
}
