package admin

import (
	"context"
	"errors"

	"github.com/icpschool/schoolpay/core"
	"github.com/icpschool/schoolpay/core/student"
)

var (
	ErrNotFound    = errors.New("admin profile not found")
	ErrNoSelection = errors.New("no saved selection")
)

type (
	Repository interface {
		GetProfileByID(ctx context.Context, id string) (Profile, error)
		UpdateOrCreateProfile(ctx context.Context, p Profile) (Profile, error)
		SaveSelection(ctx context.Context, id string, sel student.Selection) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetProfile(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfileByID(ctx, core.CleanString(id))
}

// Selection returns the admin's last saved grade/strand/section grouping so a
// client can restore it explicitly at startup.
func (svc *Service) Selection(ctx context.Context, id string) (student.Selection, error) {
	p, err := svc.repo.GetProfileByID(ctx, core.CleanString(id))
	if err != nil {
		return student.Selection{}, err
	}
	if p.LastSelection == nil {
		return student.Selection{}, ErrNoSelection
	}
	return *p.LastSelection, nil
}

func (svc *Service) SaveSelection(ctx context.Context, id string, sel student.Selection) error {
	return svc.repo.SaveSelection(ctx, core.CleanString(id), sel)
}
