package logins

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/padhaiwithai/student-logins/internal/logger"
	"github.com/padhaiwithai/student-logins/models/school"
	"github.com/padhaiwithai/student-logins/pkg/storage"
)

// SchoolRef identifies a school either by id or by a case-insensitive
// substring of its name.
type SchoolRef struct {
	ID   int64
	Name string
	ByID bool
}

func SchoolByID(id int64) SchoolRef { return SchoolRef{ID: id, ByID: true} }

func SchoolByName(name string) SchoolRef { return SchoolRef{Name: name} }

// ParseSchoolRef treats an all-digit argument as a school id and anything
// else as a name substring.
func ParseSchoolRef(arg string) SchoolRef {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil && id > 0 {
		return SchoolByID(id)
	}
	return SchoolByName(arg)
}

func (r SchoolRef) String() string {
	if r.ByID {
		return strconv.FormatInt(r.ID, 10)
	}
	return r.Name
}

// SetAllDefaultLogins gives every student without a password the default
// password and activates the account. It returns the number of students updated.
func (s *Service) SetAllDefaultLogins(ctx context.Context) (int, error) {
	students, err := s.store.ListStudentsWithoutPassword(ctx, nil)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, st := range students {
		ok, err := s.assignDefault(ctx, st)
		if err != nil {
			return count, err
		}
		if !ok {
			continue
		}
		count++
		s.printf("  [OK] %s - %s -> Password: %s\n", st.RollNumber, st.Name, DefaultPassword(st.RollNumber))
	}

	s.printf("\n--- Created logins for %d students ---\n", count)
	logger.LogInfo("Default logins set", "count", count)
	return count, nil
}

// SetSchoolDefaultLogins does what SetAllDefaultLogins does for the students
// of one school. An unknown or ambiguous school is reported and nothing changes.
func (s *Service) SetSchoolDefaultLogins(ctx context.Context, ref SchoolRef) (int, error) {
	sc, err := s.resolveSchool(ctx, ref)
	if err != nil {
		return 0, err
	}
	if sc == nil {
		return 0, nil
	}

	students, err := s.store.ListStudentsWithoutPassword(ctx, &sc.ID)
	if err != nil {
		return 0, err
	}

	s.printf("\nSchool: %s (ID: %d)\n", sc.Name, sc.ID)
	s.println(rule("-", 50))

	count := 0
	for _, st := range students {
		ok, err := s.assignDefault(ctx, st)
		if err != nil {
			return count, err
		}
		if !ok {
			continue
		}
		count++
		s.printf("  [OK] %s - %s\n", st.RollNumber, st.Name)
	}

	s.printf("\n--- Created logins for %d students in %s ---\n", count, sc.Name)
	logger.LogInfo("Default logins set for school", "school_id", sc.ID, "count", count)
	return count, nil
}

// resolveSchool returns nil, nil after printing why ref matched no single school.
func (s *Service) resolveSchool(ctx context.Context, ref SchoolRef) (*school.School, error) {
	var (
		sc  *school.School
		err error
	)
	if ref.ByID {
		sc, err = s.store.GetSchoolByID(ctx, ref.ID)
	} else {
		sc, err = s.store.GetSchoolByName(ctx, ref.Name)
	}

	switch {
	case err == nil:
		return sc, nil
	case errors.Is(err, storage.ErrNotFound):
		s.printf("School not found: %s\n", ref)
		return nil, nil
	case errors.Is(err, storage.ErrMultipleFound):
		s.printf("Multiple schools match '%s'. Use school ID instead:\n", ref.Name)
		matches, err := s.store.FindSchoolsByName(ctx, ref.Name)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			s.printf("  ID: %d - %s\n", m.ID, m.Name)
		}
		return nil, nil
	default:
		return nil, err
	}
}

// assignDefault reports false when the student got a password between the
// listing and the update; that student is left alone.
func (s *Service) assignDefault(ctx context.Context, st school.Student) (bool, error) {
	stored, err := s.encoder.Encode(DefaultPassword(st.RollNumber))
	if err != nil {
		return false, err
	}

	ok, err := s.store.SetStudentLogin(ctx, st.ID, stored, true)
	if err != nil {
		return false, fmt.Errorf("student %s: %w", st.RollNumber, err)
	}
	if !ok {
		logger.LogWarn("Student already has a password, skipped", "roll_number", st.RollNumber)
	}
	return ok, nil
}
