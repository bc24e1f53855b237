// Package postgres implements storage.Store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/padhaiwithai/student-logins/models/school"
	"github.com/padhaiwithai/student-logins/pkg/db"
	"github.com/padhaiwithai/student-logins/pkg/storage"
)

const uniqueViolation = "23505"

const studentColumns = "id, name, roll_number, class_name, password, is_active, school_id"

type Store struct {
	db *db.DB
}

var _ storage.Store = (*Store)(nil)

// Open connects to the database at connectionString.
func Open(ctx context.Context, connectionString string) (*Store, error) {
	database, err := db.NewDB(ctx, connectionString)
	if err != nil {
		return nil, err
	}
	return New(database), nil
}

// New wraps an already open database.
func New(database *db.DB) *Store {
	return &Store{db: database}
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) ListSchools(ctx context.Context) ([]school.School, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	rows, err := s.db.Pool().Query(ctx, "SELECT id, name FROM schools ORDER BY name, id")
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
	err := s.db.Pool().QueryRow(ctx, "SELECT id, name FROM schools WHERE id = $1", id).Scan(&sc.ID, &sc.Name)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("school %d: %w", id, storage.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("failed to get school: %w", err)
	}
	return sc, nil
}

func (s *Store) GetSchoolByName(ctx context.Context, substr string) (*school.School, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	// Two rows are enough to tell "one" from "many".
	rows, err := s.db.Pool().Query(ctx, `SELECT id, name FROM schools WHERE name ILIKE $1 ESCAPE '\' ORDER BY id LIMIT 2`, storage.LikePattern(substr))
	if err != nil {
		return nil, fmt.Errorf("failed to get school: %w", err)
	}
	schools, err := collectSchools(rows)
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

func (s *Store) FindSchoolsByName(ctx context.Context, substr string) ([]school.School, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	rows, err := s.db.Pool().Query(ctx, `SELECT id, name FROM schools WHERE name ILIKE $1 ESCAPE '\' ORDER BY id`, storage.LikePattern(substr))
	if err != nil {
		return nil, fmt.Errorf("failed to find schools: %w", err)
	}
	return collectSchools(rows)
}

func (s *Store) ListStudentsWithoutPassword(ctx context.Context, schoolID *int64) ([]school.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	query := "SELECT " + studentColumns + " FROM students WHERE (password IS NULL OR password = '')"
	args := []any{}
	if schoolID != nil {
		query += " AND school_id = $1"
		args = append(args, *schoolID)
	}
	query += " ORDER BY id"

	rows, err := s.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list students without password: %w", err)
	}
	return collectStudents(rows)
}

func (s *Store) ListStudentsBySchool(ctx context.Context, schoolID int64) ([]school.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	rows, err := s.db.Pool().Query(ctx, "SELECT "+studentColumns+" FROM students WHERE school_id = $1 ORDER BY roll_number", schoolID)
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
	err := s.db.Pool().QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM students WHERE roll_number = $1)", rollNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check roll number: %w", err)
	}
	return exists, nil
}

func (s *Store) CreateStudent(ctx context.Context, ns storage.NewStudent) (*school.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	row := s.db.Pool().QueryRow(ctx,
		"INSERT INTO students (name, roll_number, class_name, password, is_active, school_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING "+studentColumns,
		ns.Name, ns.RollNumber, ns.ClassName, ns.Password, ns.IsActive, ns.SchoolID,
	)
	st, err := scanStudent(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
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

	tag, err := s.db.Pool().Exec(ctx,
		"UPDATE students SET password = $2, is_active = $3 WHERE id = $1 AND (password IS NULL OR password = '')",
		id, password, active,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set student login: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func collectSchools(rows pgx.Rows) ([]school.School, error) {
	schools, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (school.School, error) {
		var sc school.School
		err := row.Scan(&sc.ID, &sc.Name)
		return sc, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read schools: %w", err)
	}
	return schools, nil
}

func collectStudents(rows pgx.Rows) ([]school.Student, error) {
	students, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (school.Student, error) {
		st, err := scanStudent(row)
		if err != nil {
			return school.Student{}, err
		}
		return *st, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}
	return students, nil
}

func scanStudent(row pgx.Row) (*school.Student, error) {
	st := &school.Student{}
	err := row.Scan(&st.ID, &st.Name, &st.RollNumber, &st.ClassName, &st.Password, &st.IsActive, &st.SchoolID)
	if err != nil {
		return nil, err
	}
	return st, nil
}
