package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/icpschool/schoolpay/core/admin"
	"github.com/icpschool/schoolpay/core/student"
)

type adminRepository struct {
	db *adminTable
}

var _ admin.Repository = (*adminRepository)(nil)

func NewAdminRepository(db *DB) admin.Repository {
	return &adminRepository{db: db.admins}
}

func copyProfile(p admin.Profile) admin.Profile {
	if p.LastSelection != nil {
		sel := *p.LastSelection
		p.LastSelection = &sel
	}
	return p
}

func (repo *adminRepository) GetProfileByID(_ context.Context, id string) (admin.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return copyProfile(*p), nil
	}
	return admin.Profile{}, admin.ErrNotFound
}

func (repo *adminRepository) UpdateOrCreateProfile(_ context.Context, p admin.Profile) (admin.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if existing, ok := repo.db.table[p.ID]; ok {
		existing.Name = p.Name
		existing.Email = p.Email
		existing.UpdatedAt = now
		return copyProfile(*existing), nil
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	stored := copyProfile(p)
	repo.db.table[p.ID] = &stored
	return copyProfile(stored), nil
}

func (repo *adminRepository) SaveSelection(_ context.Context, id string, sel student.Selection) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[id]
	if !ok {
		return admin.ErrNotFound
	}
	stored.LastSelection = &sel
	stored.UpdatedAt = time.Now().UTC()
	return nil
}
