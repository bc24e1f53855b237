// Package storage defines the persistence contract the login tools run against.
// Implementations live in the postgres and sqlite subpackages.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/padhaiwithai/student-logins/models/school"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("not found")
	// ErrMultipleFound is returned by single-row lookups that match more than one row.
	ErrMultipleFound = errors.New("multiple rows found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate")
)

// NewStudent holds the fields of a student row to insert.
type NewStudent struct {
	Name       string
	RollNumber string
	ClassName  string
	SchoolID   int64
	Password   string
	IsActive   bool
}

type Store interface {
	// ListSchools returns every school ordered by name.
	ListSchools(ctx context.Context) ([]school.School, error)
	GetSchoolByID(ctx context.Context, id int64) (*school.School, error)
	// GetSchoolByName resolves a case-insensitive substring of a school name
	// to exactly one school.
	GetSchoolByName(ctx context.Context, substr string) (*school.School, error)
	// FindSchoolsByName returns all schools whose name contains substr, ordered by id.
	FindSchoolsByName(ctx context.Context, substr string) ([]school.School, error)

	// ListStudentsWithoutPassword returns students whose password is NULL or
	// empty. A nil schoolID means all schools.
	ListStudentsWithoutPassword(ctx context.Context, schoolID *int64) ([]school.Student, error)
	// ListStudentsBySchool returns a school's students ordered by roll number.
	ListStudentsBySchool(ctx context.Context, schoolID int64) ([]school.Student, error)
	RollNumberExists(ctx context.Context, rollNumber string) (bool, error)

	CreateStudent(ctx context.Context, s NewStudent) (*school.Student, error)
	// SetStudentLogin updates only password and is_active, and only while the
	// student still has no password. It reports whether a row changed.
	SetStudentLogin(ctx context.Context, id int64, password string, active bool) (bool, error)

	Close() error
}

// LikePattern turns substr into a LIKE pattern matching it anywhere, with
// wildcards in substr escaped by backslash.
func LikePattern(substr string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(substr) + "%"
}
