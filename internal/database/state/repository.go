// Package state provides database operations for feed run-state records.
//
// Every record is keyed by (name, store_id) with at most one live record per
// pair. Lookups never fail on a miss: they return an empty unsaved record so
// callers can read Value without error handling and check Saved() before
// deleting.
//
// # Usage
//
//	repo := state.NewRepository(db)
//	record := repo.GetByNameAndStore("running_feeds", 1)
package state

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pureclarity/feedsync/internal/entities"
)

// Repository handles all state record database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new state repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByNameAndStore retrieves the record for (name, storeID). A miss returns
// an empty unsaved record with the requested name and store set.
func (r *Repository) GetByNameAndStore(name string, storeID int) *entities.StateRecord {
	var record entities.StateRecord
	err := r.db.Where("name = ? AND store_id = ?", name, storeID).First(&record).Error
	if err != nil {
		return &entities.StateRecord{Name: name, StoreID: storeID}
	}
	return &record
}

// GetByName retrieves the store-independent record for name (store 0).
func (r *Repository) GetByName(name string) *entities.StateRecord {
	return r.GetByNameAndStore(name, 0)
}

// GetListByName retrieves the records for name across all stores.
func (r *Repository) GetListByName(name string) ([]entities.StateRecord, error) {
	var records []entities.StateRecord
	err := r.db.Where("name = ?", name).Order("store_id ASC").Find(&records).Error
	return records, err
}

// Save creates or updates a record.
func (r *Repository) Save(record *entities.StateRecord) error {
	var existing entities.StateRecord
	result := r.db.Where("name = ? AND store_id = ?", record.Name, record.StoreID).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if err := r.db.Create(record).Error; err != nil {
			return fmt.Errorf("could not save state record %q: %w", record.Name, err)
		}
		return nil
	} else if result.Error != nil {
		return fmt.Errorf("could not save state record %q: %w", record.Name, result.Error)
	}

	existing.Value = record.Value
	if err := r.db.Save(&existing).Error; err != nil {
		return fmt.Errorf("could not save state record %q: %w", record.Name, err)
	}
	record.ID = existing.ID
	return nil
}

// Delete removes a record. Deleting a record that was never saved is an error;
// callers check Saved() first.
func (r *Repository) Delete(record *entities.StateRecord) error {
	if !record.Saved() {
		return fmt.Errorf("could not delete state record %q: record was never saved", record.Name)
	}
	if err := r.db.Delete(&entities.StateRecord{}, record.ID).Error; err != nil {
		return fmt.Errorf("could not delete state record %q: %w", record.Name, err)
	}
	return nil
}

// DeleteByNameAndStore removes the record for (name, storeID) if it exists.
func (r *Repository) DeleteByNameAndStore(name string, storeID int) error {
	record := r.GetByNameAndStore(name, storeID)
	if !record.Saved() {
		return nil
	}
	return r.Delete(record)
}
