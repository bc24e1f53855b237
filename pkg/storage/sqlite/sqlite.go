// Package sqlite implements storage.Store on an SQLite database file using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/padhaiwithai/student-logins/internal/logger"
	"github.com/padhaiwithai/student-logins/models/school"
	"github.com/padhaiwithai/student-logins/pkg/storage"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schema string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const studentColumns = "id, name, roll_number, class_name, password, is_active, school_id"

type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// One connection keeps an in-memory database alive and the pragma in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w\nStatement: %s", err, stmt)
		}
	}

	logger.LogDebug("Opened sqlite database", "path", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchool inserts a school. The web application owns schools; this is
// for seeding local databases and tests.
func (s *Store) CreateSchool(ctx context.Context, name string) (*school.School, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	sc := &school.School{}
	err := s.db.QueryRowContext(ctx, "INSERT INTO schools (name) VALUES (?) RETURNING id, name", name).Scan(&sc.ID, &sc.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create school: %w", err)
	}
	return sc, nil
}

func (s *Store) ListSchools(ctx context.Context) ([]school.School, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM schools ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	return collectSchools(rows)
}

func (s *Store) GetSchoolByID(ctx context.Context, id int64) (*school.School, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	sc := &school.School{}
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM schools WHERE id = ?", id).Scan(&sc.ID, &sc.Name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("school %d: %w", id, storage.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("failed to get school: %w", err)
	}
	return sc, nil
}

func (s *Store) GetSchoolByName(ctx context.Context, substr string) (*school.School, error) {
	schools, err := s.FindSchoolsByName(ctx, substr)
	if err != nil {
		return nil, err
	}

	switch len(schools) {
	case 0:
		return nil, fmt.Errorf("school matching %q: %w", substr, storage.ErrNotFound)
	case 1:
		return &schools[0], nil
	default:
		return nil, fmt.Errorf("school matching %q: %w", substr, storage.ErrMultipleFound)
	}
}

// FindSchoolsByName matches in Go rather than with LIKE: SQLite's LOWER only
// folds ASCII letters.
func (s *Store) FindSchoolsByName(ctx context.Context, substr string) ([]school.School, error) {
	schools, err := s.ListSchools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find schools: %w", err)
	}

	needle := strings.ToLower(substr)
	var matched []school.School
	for _, sc := range schools {
		if strings.Contains(strings.ToLower(sc.Name), needle) {
			matched = append(matched, sc)
		}
	}
	slices.SortFunc(matched, func(a, b school.School) int { return cmp.Compare(a.ID, b.ID) })
	return matched, nil
}

func (s *Store) ListStudentsWithoutPassword(ctx context.Context, schoolID *int64) ([]school.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	query := "SELECT " + studentColumns + " FROM students WHERE (password IS NULL OR password = '')"
	args := []any{}
	if schoolID != nil {
		query += " AND school_id = ?"
		args = append(args, *schoolID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list students without password: %w", err)
	}
	return collectStudents(rows)
}

func (s *Store) ListStudentsBySchool(ctx context.Context, schoolID int64) ([]school.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+studentColumns+" FROM students WHERE school_id = ? ORDER BY roll_number", schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return collectStudents(rows)
}

func (s *Store) RollNumberExists(ctx context.Context, rollNumber string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context cancelled: %w", err)
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM students WHERE roll_number = ?)", rollNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check roll number: %w", err)
	}
	return exists, nil
}

func (s *Store) CreateStudent(ctx context.Context, ns storage.NewStudent) (*school.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		"INSERT INTO students (name, roll_number, class_name, password, is_active, school_id) VALUES (?, ?, ?, ?, ?, ?) RETURNING "+studentColumns,
		ns.Name, ns.RollNumber, ns.ClassName, ns.Password, ns.IsActive, ns.SchoolID,
	)
	st, err := scanStudent(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("roll number %s: %w", ns.RollNumber, storage.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return st, nil
}

func (s *Store) SetStudentLogin(ctx context.Context, id int64, password string, active bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context cancelled: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE students SET password = ?, is_active = ? WHERE id = ? AND (password IS NULL OR password = '')",
		password, active, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set student login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to set student login: %w", err)
	}
	return n == 1, nil
}

// SetPassword overwrites a student's password unconditionally. It backs test
// fixtures and local seeding; the login procedures never call it.
func (s *Store) SetPassword(ctx context.Context, rollNumber string, password *string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE students SET password = ? WHERE roll_number = ?", password, rollNumber)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	return nil
}

func collectSchools(rows *sql.Rows) ([]school.School, error) {
	defer rows.Close()

	var schools []school.School
	for rows.Next() {
		var sc school.School
		if err := rows.Scan(&sc.ID, &sc.Name); err != nil {
			return nil, fmt.Errorf("failed to read schools: %w", err)
		}
		schools = append(schools, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schools: %w", err)
	}
	return schools, nil
}

func collectStudents(rows *sql.Rows) ([]school.Student, error) {
	defer rows.Close()

	var students []school.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read students: %w", err)
		}
		students = append(students, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}
	return students, nil
}

// isUniqueViolation matches both the extended and the primary constraint
// result code, since the driver may report either.
func isUniqueViolation(err error) bool {
	var sqlErr *msqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	if sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return sqlErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqlErr.Error(), "UNIQUE")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (*school.Student, error) {
	st := &school.Student{}
	err := row.Scan(&st.ID, &st.Name, &st.RollNumber, &st.ClassName, &st.Password, &st.IsActive, &st.SchoolID)
	if err != nil {
		return nil, err
	}
	return st, nil
}
