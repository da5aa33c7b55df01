package main

import (
	"context"

	"github.com/icpschool/schoolpay/core"
	"github.com/icpschool/schoolpay/core/admin"
)

// addAdmin updates or creates an admin.Profile keyed by the external
// identity provider's user id.
func (cli *commandLine) addAdmin(id, name, email string) error {
	p := admin.Profile{
		ID:    core.CleanString(id),
		Name:  core.CleanString(name),
		Email: core.CleanString(email, true /* lower */),
	}
	saved, err := cli.adminRepo.UpdateOrCreateProfile(context.Background(), p)
	if err != nil {
		return err
	}
	logger.Printf("saved admin profile %s (%s)", saved.Name, saved.ID)
	return nil
}
