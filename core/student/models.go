package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/icpschool/schoolpay/core"
)

// Grades
const (
	GradeEleven = "Grade 11"
	GradeTwelve = "Grade 12"
)

// Strands
const (
	StrandSTEM  = "STEM"
	StrandGAS   = "GAS"
	StrandHUMSS = "HUMSS"
	StrandICT   = "ICT"
	StrandABM   = "ABM"
)

// Sections
const (
	SectionOne   = "Section 1"
	SectionTwo   = "Section 2"
	SectionThree = "Section 3"
)

// Balance statuses
const (
	StatusUnpaid = "Unpaid"
	StatusPaid   = "Paid"
)

var (
	Grades   = []string{GradeEleven, GradeTwelve}
	Strands  = []string{StrandSTEM, StrandGAS, StrandHUMSS, StrandICT, StrandABM}
	Sections = []string{SectionOne, SectionTwo, SectionThree}
	Statuses = []string{StatusUnpaid, StatusPaid}
)

func init() {
	// amounts render as plain JSON numbers, matching the wire format
	decimal.MarshalJSONWithoutQuotes = true
}

// Selection is a grade/strand/section grouping of the directory.
type Selection struct {
	Grade   string `json:"grade" validate:"required,grade"`
	Strand  string `json:"strand" validate:"required,strand"`
	Section string `json:"section" validate:"required,section"`
}

func (sel *Selection) Clean() {
	sel.Grade = core.CleanString(sel.Grade)
	sel.Strand = core.CleanString(sel.Strand)
	sel.Section = core.CleanString(sel.Section)
}

func (sel *Selection) Validate(validate *validator.Validate) error {
	sel.Clean()
	return validate.Struct(sel)
}

// Balance is a single fee line item owed by a Student.
// The id is assigned by the server at creation time and is stable for the
// item's lifetime; edits and deletes address items by id only.
type Balance struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
}

func (b Balance) IsUnpaid() bool { return b.Status == StatusUnpaid }

type Student struct {
	ID            string    `json:"id"`
	StudentNumber string    `json:"studentNumber"`
	Name          string    `json:"name"`
	Grade         string    `json:"grade"`
	Strand        string    `json:"strand"`
	Section       string    `json:"section"`
	Balances      []Balance `json:"balances"`
	CreatedAt     time.Time `json:"createdAt"` // UTC
	UpdatedAt     time.Time `json:"updatedAt"` // UTC
}

// TotalBalance is the sum of the student's unpaid line items.
// It is always derived from the current balance sequence, never stored.
func (s Student) TotalBalance() decimal.Decimal {
	return TotalUnpaid(s.Balances)
}

func (s Student) HasUnpaid() bool {
	for _, b := range s.Balances {
		if b.IsUnpaid() {
			return true
		}
	}
	return false
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	StudentNumber string `json:"studentNumber" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Grade         string `json:"grade" validate:"required,grade"`
	Strand        string `json:"strand" validate:"required,strand"`
	Section       string `json:"section" validate:"required,section"`
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.StudentNumber = core.CleanString(ns.StudentNumber)
	ns.Name = core.CleanString(ns.Name)
	ns.Grade = core.CleanString(ns.Grade)
	ns.Strand = core.CleanString(ns.Strand)
	ns.Section = core.CleanString(ns.Section)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckDuplicate(ctx, ns.StudentNumber, ns.Name)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields keep their current value.
type UpdateStudent struct {
	StudentNumber string `json:"studentNumber"`
	Name          string `json:"name"`
	Grade         string `json:"grade" validate:"omitempty,grade"`
	Strand        string `json:"strand" validate:"omitempty,strand"`
	Section       string `json:"section" validate:"omitempty,section"`
}

func (us *UpdateStudent) Validate(ctx context.Context, validate *validator.Validate, orig Student, svc *Service) error {
	if number := core.CleanString(us.StudentNumber); number != "" {
		us.StudentNumber = number
	} else {
		us.StudentNumber = orig.StudentNumber
	}
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if grade := core.CleanString(us.Grade); grade != "" {
		us.Grade = grade
	} else {
		us.Grade = orig.Grade
	}
	if strand := core.CleanString(us.Strand); strand != "" {
		us.Strand = strand
	} else {
		us.Strand = orig.Strand
	}
	if section := core.CleanString(us.Section); section != "" {
		us.Section = section
	} else {
		us.Section = orig.Section
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.StudentNumber != orig.StudentNumber || us.Name != orig.Name {
		return svc.CheckDuplicate(ctx, us.StudentNumber, us.Name, orig)
	}
	return nil
}

// NewBalance contains information needed to append a fee line item.
type NewBalance struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"-"`
	Status      string          `json:"status" validate:"omitempty,balancestatus"`
}

func (nb *NewBalance) Validate(validate *validator.Validate) error {
	nb.Description = core.CleanString(nb.Description)
	nb.Status = core.CleanString(nb.Status)
	if nb.Status == "" {
		nb.Status = StatusUnpaid
	}
	if err := validate.Struct(nb); err != nil {
		return err
	}
	if nb.Amount.IsNegative() {
		return core.NewValidationError(ErrNegativeAmount, core.FieldError{Field: "amount", Error: ErrNegativeAmount.Error()})
	}
	return nil
}

// UpdateBalance replaces the description, amount and status of a fee line item.
type UpdateBalance struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"-"`
	Status      string          `json:"status" validate:"required,balancestatus"`
}

func (ub *UpdateBalance) Validate(validate *validator.Validate) error {
	ub.Description = core.CleanString(ub.Description)
	ub.Status = core.CleanString(ub.Status)
	if err := validate.Struct(ub); err != nil {
		return err
	}
	if ub.Amount.IsNegative() {
		return core.NewValidationError(ErrNegativeAmount, core.FieldError{Field: "amount", Error: ErrNegativeAmount.Error()})
	}
	return nil
}

// BalanceSummary is the UI-ready view of a student's fee line items.
type BalanceSummary struct {
	Balances     []Balance       `json:"balances"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
}

// DirectoryEntry is a Student decorated with its derived unpaid total.
type DirectoryEntry struct {
	Student
	TotalBalance decimal.Decimal `json:"totalBalance"`
}
