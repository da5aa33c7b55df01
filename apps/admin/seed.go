package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/icpschool/schoolpay/core"
	"github.com/icpschool/schoolpay/core/student"
)

// seed loads a small sample directory. Existing students are left alone.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	svc := student.NewService(cli.studentRepo)

	samples := []struct {
		student  student.NewStudent
		balances []student.Balance
	}{
		{
			student: student.NewStudent{
				StudentNumber: "2024-0001", Name: "Alice Ramos",
				Grade: student.GradeEleven, Strand: student.StrandSTEM, Section: student.SectionOne,
			},
			balances: []student.Balance{
				{Description: "Tuition Fee", Amount: decimal.NewFromInt(15000), Status: student.StatusUnpaid},
				{Description: "Lab Fee", Amount: decimal.NewFromInt(500), Status: student.StatusPaid},
			},
		},
		{
			student: student.NewStudent{
				StudentNumber: "2024-0002", Name: "Benjie Cruz",
				Grade: student.GradeEleven, Strand: student.StrandSTEM, Section: student.SectionOne,
			},
			balances: []student.Balance{
				{Description: "Tuition Fee", Amount: decimal.NewFromInt(15000), Status: student.StatusPaid},
			},
		},
		{
			student: student.NewStudent{
				StudentNumber: "2024-0003", Name: "Carla Dizon",
				Grade: student.GradeTwelve, Strand: student.StrandABM, Section: student.SectionTwo,
			},
		},
	}

	var seeded int
	for _, sample := range samples {
		if err := svc.CheckDuplicate(ctx, sample.student.StudentNumber, sample.student.Name); err != nil {
			if _, ok := err.(*core.ValidationError); ok {
				continue // already present
			}
			return err
		}
		s, err := svc.Create(ctx, sample.student)
		if err != nil {
			return err
		}
		for _, b := range sample.balances {
			b.ID = uuid.New().String()
			if err = cli.studentRepo.AppendBalance(ctx, s.ID, b); err != nil {
				return err
			}
		}
		seeded++
	}
	logger.Printf("seeded %d students", seeded)
	return nil
}
