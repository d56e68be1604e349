package repo

import (
	"pt1/backend/app/models"

	"gorm.io/gorm"
)

type ArchiveRepository struct{ db *gorm.DB }

func NewArchiveRepository(db *gorm.DB) *ArchiveRepository { return &ArchiveRepository{db: db} }

func (r *ArchiveRepository) Upsert(a *models.CommandArchive) error {
	// simplistic upsert: try save; create if not found
	var existing models.CommandArchive
	if err := r.db.Where("command_id = ?", a.CommandID).First(&existing).Error; err == nil {
		a.ID = existing.ID
		return r.db.Save(a).Error
	}
	return r.db.Create(a).Error
}

func (r *ArchiveRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.CommandArchive{}).Count(&n).Error
	return n, err
}
