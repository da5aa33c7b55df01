package student

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/icpschool/schoolpay/core"
)

var (
	// errors
	ErrNotFound        = errors.New("student not found")
	ErrBalanceNotFound = errors.New("balance not found")
	ErrStudentExists   = errors.New("The Student Already Exists")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrInvalidStatus   = errors.New("invalid balance status")
	ErrNoSheet         = errors.New("spreadsheet does not contain any sheets")
)

type (
	Repository interface {
		// CheckDuplicate returns ErrStudentExists when a student with the same
		// (studentNumber, name) pair exists, excluded students aside.
		CheckDuplicate(ctx context.Context, studentNumber, name string, excluded ...Student) error
		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		// FilterStudents applies an exact match on all three Selection fields.
		FilterStudents(ctx context.Context, sel Selection) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error

		ReplaceBalances(ctx context.Context, studentID string, balances []Balance) error
		AppendBalance(ctx context.Context, studentID string, b Balance) error
		// UpdateBalance edits the matching line item in place, atomically.
		UpdateBalance(ctx context.Context, studentID string, b Balance) error
		// RemoveBalance is tolerant: a missing balance id is not an error.
		RemoveBalance(ctx context.Context, studentID, balanceID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CheckDuplicate recovers an identity collision into a structured, user-facing
// validation failure rather than a transport fault.
func (svc *Service) CheckDuplicate(ctx context.Context, studentNumber, name string, excluded ...Student) error {
	if err := svc.repo.CheckDuplicate(ctx, studentNumber, name, excluded...); err != nil {
		if err == ErrStudentExists {
			return core.NewValidationError(err)
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	s := Student{
		StudentNumber: ns.StudentNumber,
		Name:          ns.Name,
		Grade:         ns.Grade,
		Strand:        ns.Strand,
		Section:       ns.Section,
		Balances:      []Balance{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := svc.repo.CreateStudent(ctx, s)
	if err == ErrStudentExists { // lost the check-then-insert race; same answer either way
		return Student{}, core.NewValidationError(err)
	}
	return created, err
}

func (svc *Service) List(ctx context.Context, sel Selection) ([]Student, error) {
	return svc.repo.FilterStudents(ctx, sel)
}

func (svc *Service) ListAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	s := Student{
		ID:            id,
		StudentNumber: us.StudentNumber,
		Name:          us.Name,
		Grade:         us.Grade,
		Strand:        us.Strand,
		Section:       us.Section,
		UpdatedAt:     time.Now().UTC(),
	}
	updated, err := svc.repo.UpdateStudent(ctx, s)
	if err == ErrStudentExists {
		return Student{}, core.NewValidationError(err)
	}
	return updated, err
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

// GetBalances recomputes the unpaid total from the stored sequence on every call.
func (svc *Service) GetBalances(ctx context.Context, studentID string) (BalanceSummary, error) {
	s, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return BalanceSummary{}, err
	}
	balances := s.Balances
	if balances == nil {
		balances = []Balance{}
	}
	return BalanceSummary{Balances: balances, TotalBalance: TotalUnpaid(balances)}, nil
}

// ReplaceBalances overwrites the whole sequence. Line items arriving without an
// id are assigned one; concurrent replacements are last-writer-wins.
func (svc *Service) ReplaceBalances(ctx context.Context, studentID string, balances []Balance) error {
	cleaned := make([]Balance, 0, len(balances))
	for _, b := range balances {
		b.Description = core.CleanString(b.Description)
		b.Status = core.CleanString(b.Status)
		if b.Status == "" {
			b.Status = StatusUnpaid
		}
		if !contains(Statuses, b.Status) {
			return core.NewValidationError(ErrInvalidStatus, core.FieldError{Field: "status", Error: ErrInvalidStatus.Error()})
		}
		if b.Amount.IsNegative() {
			return core.NewValidationError(ErrNegativeAmount, core.FieldError{Field: "amount", Error: ErrNegativeAmount.Error()})
		}
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		cleaned = append(cleaned, b)
	}
	return svc.repo.ReplaceBalances(ctx, studentID, cleaned)
}

func (svc *Service) AddBalance(ctx context.Context, studentID string, nb NewBalance) (Balance, error) {
	b := Balance{
		ID:          uuid.New().String(),
		Description: nb.Description,
		Amount:      nb.Amount,
		Status:      nb.Status,
	}
	if b.Status == "" {
		b.Status = StatusUnpaid
	}
	if err := svc.repo.AppendBalance(ctx, studentID, b); err != nil {
		return Balance{}, err
	}
	return b, nil
}

func (svc *Service) UpdateBalance(ctx context.Context, studentID, balanceID string, ub UpdateBalance) (Balance, error) {
	b := Balance{
		ID:          balanceID,
		Description: ub.Description,
		Amount:      ub.Amount,
		Status:      ub.Status,
	}
	if err := svc.repo.UpdateBalance(ctx, studentID, b); err != nil {
		return Balance{}, err
	}
	return b, nil
}

func (svc *Service) DeleteBalance(ctx context.Context, studentID, balanceID string) error {
	return svc.repo.RemoveBalance(ctx, studentID, balanceID)
}

// ImportStudents reads an .xlsx stream and creates one student per data row of
// the first sheet. Expected columns: studentNumber, name, grade, strand,
// section; the first row is a header. Rows that are incomplete, carry an
// unknown classification or collide with an existing student are skipped.
// Returns the number of students created.
func (svc *Service) ImportStudents(ctx context.Context, r io.Reader) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "opening spreadsheet")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return 0, ErrNoSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "reading sheet %s", sheet)
	}

	var imported int
	for i, row := range rows {
		if i == 0 {
			continue // header row
		}
		ns := newStudentFromRow(row)
		if ns == nil {
			continue
		}
		if err = svc.CheckDuplicate(ctx, ns.StudentNumber, ns.Name); err != nil {
			if _, ok := err.(*core.ValidationError); ok {
				continue
			}
			return imported, err
		}
		if _, err = svc.Create(ctx, *ns); err != nil {
			if _, ok := err.(*core.ValidationError); ok {
				continue
			}
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func newStudentFromRow(row []string) *NewStudent {
	cell := func(i int) string {
		if i < len(row) {
			return core.CleanString(row[i])
		}
		return ""
	}
	ns := NewStudent{
		StudentNumber: cell(0),
		Name:          cell(1),
		Grade:         cell(2),
		Strand:        cell(3),
		Section:       cell(4),
	}
	if ns.StudentNumber == "" || ns.Name == "" ||
		!contains(Grades, ns.Grade) || !contains(Strands, ns.Strand) || !contains(Sections, ns.Section) {
		return nil
	}
	return &ns
}
