package inmemdb

import (
	"sync"

	"github.com/icpschool/schoolpay/core/admin"
	"github.com/icpschool/schoolpay/core/student"
)

type (
	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}

	adminTable struct {
		mutex sync.RWMutex
		table map[string]*admin.Profile
	}

	DB struct {
		students *studentTable
		admins   *adminTable
	}
)

func Open() (*DB, error) {
	db := &DB{
		students: &studentTable{table: make(map[string]*student.Student)},
		admins:   &adminTable{table: make(map[string]*admin.Profile)},
	}
	return db, nil
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.students.mutex.Lock()
	db.students.table = make(map[string]*student.Student)
	db.students.mutex.Unlock()

	db.admins.mutex.Lock()
	db.admins.table = make(map[string]*admin.Profile)
	db.admins.mutex.Unlock()
}
