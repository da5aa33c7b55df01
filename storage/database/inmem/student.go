package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/icpschool/schoolpay/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.students}
}

// copyStudent detaches the stored record from callers; the balance slice is
// cloned so later edits cannot alias table state.
func copyStudent(s student.Student) student.Student {
	balances := make([]student.Balance, len(s.Balances))
	copy(balances, s.Balances)
	s.Balances = balances
	return s
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		students = append(students, copyStudent(*s))
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students
}

func isExcluded(s student.Student, excluded []student.Student) bool {
	for _, e := range excluded {
		if e.ID == s.ID {
			return true
		}
	}
	return false
}

func (repo *studentRepository) CheckDuplicate(_ context.Context, studentNumber, name string, excluded ...student.Student) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.table {
		if s.StudentNumber == studentNumber && s.Name == name && !isExcluded(*s, excluded) {
			return student.ErrStudentExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.StudentNumber == s.StudentNumber && existing.Name == s.Name {
			return student.Student{}, student.ErrStudentExists
		}
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	stored := copyStudent(s)
	repo.db.table[s.ID] = &stored
	return copyStudent(stored), nil
}

func (repo *studentRepository) QueryAllStudents(_ context.Context) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) FilterStudents(_ context.Context, sel student.Selection) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]student.Student, 0)
	for _, s := range repo.query() {
		if s.Grade == sel.Grade && s.Strand == sel.Strand && s.Section == sel.Section {
			students = append(students, s)
		}
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return copyStudent(*s), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	for _, existing := range repo.db.table {
		if existing.ID != s.ID && existing.StudentNumber == s.StudentNumber && existing.Name == s.Name {
			return student.Student{}, student.ErrStudentExists
		}
	}
	stored.StudentNumber = s.StudentNumber
	stored.Name = s.Name
	stored.Grade = s.Grade
	stored.Strand = s.Strand
	stored.Section = s.Section
	stored.UpdatedAt = s.UpdatedAt
	return copyStudent(*stored), nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *studentRepository) ReplaceBalances(_ context.Context, studentID string, balances []student.Balance) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[studentID]
	if !ok {
		return student.ErrNotFound
	}
	replaced := make([]student.Balance, len(balances))
	copy(replaced, balances)
	stored.Balances = replaced
	return nil
}

func (repo *studentRepository) AppendBalance(_ context.Context, studentID string, b student.Balance) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[studentID]
	if !ok {
		return student.ErrNotFound
	}
	stored.Balances = append(stored.Balances, b)
	return nil
}

func (repo *studentRepository) UpdateBalance(_ context.Context, studentID string, b student.Balance) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[studentID]
	if !ok {
		return student.ErrNotFound
	}
	for i, existing := range stored.Balances {
		if existing.ID == b.ID {
			stored.Balances[i] = b
			return nil
		}
	}
	return student.ErrBalanceNotFound
}

func (repo *studentRepository) RemoveBalance(_ context.Context, studentID, balanceID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[studentID]
	if !ok {
		return student.ErrNotFound
	}
	kept := stored.Balances[:0]
	for _, b := range stored.Balances {
		if b.ID != balanceID {
			kept = append(kept, b)
		}
	}
	stored.Balances = kept
	return nil
}
