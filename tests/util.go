package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/icpschool/schoolpay/core/admin"
	"github.com/icpschool/schoolpay/core/student"
)

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	number, name, grade, strand, section string,
	balances ...student.Balance,
) student.Student {
	tstamp := time.Now().UTC()
	s := student.Student{
		StudentNumber: number,
		Name:          name,
		Grade:         grade,
		Strand:        strand,
		Section:       section,
		Balances:      balances,
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	}
	if s.Balances == nil {
		s.Balances = []student.Balance{}
	}
	s, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return s
}

func CreateAdmin(
	t *testing.T,
	repo admin.Repository,
	id, name, email string,
) admin.Profile {
	p := admin.Profile{
		ID:    id,
		Name:  name,
		Email: email,
	}
	p, err := repo.UpdateOrCreateProfile(context.Background(), p)
	if err != nil {
		t.Fatalf("createAdmin() failed: %v", err)
	}
	return p
}
