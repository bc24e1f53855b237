package logins

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	constants "github.com/padhaiwithai/student-logins/internal/constants"
	"github.com/padhaiwithai/student-logins/internal/logger"
	"github.com/padhaiwithai/student-logins/models/school"
	"github.com/padhaiwithai/student-logins/pkg/storage"
)

// StudentInput describes a student to create. An empty Password means the
// default password; an empty ClassName means constants.DefaultClassName.
type StudentInput struct {
	Name       string `yaml:"name" json:"name" validate:"required,max=255"`
	RollNumber string `yaml:"roll_number" json:"roll_number" validate:"required,max=64"`
	ClassName  string `yaml:"class_name" json:"class_name" validate:"max=32"`
	Password   string `yaml:"password" json:"password" validate:"omitempty,max=72"` // bcrypt reads at most 72 bytes
}

func (in StudentInput) normalized() StudentInput {
	in.Name = strings.TrimSpace(in.Name)
	in.RollNumber = strings.TrimSpace(in.RollNumber)
	in.ClassName = strings.TrimSpace(in.ClassName)
	if in.ClassName == "" {
		in.ClassName = constants.DefaultClassName
	}
	return in
}

func (in StudentInput) password() string {
	if in.Password != "" {
		return in.Password
	}
	return DefaultPassword(in.RollNumber)
}

// BulkResult counts the outcome of BulkCreateStudents.
type BulkResult struct {
	Created int
	Skipped int
	Invalid int
}

// CreateStudent creates one active student in the given school. It returns
// nil without creating anything when the input is invalid, the school does
// not exist, or the roll number is taken.
func (s *Service) CreateStudent(ctx context.Context, schoolID int64, in StudentInput) (*school.Student, error) {
	in = in.normalized()
	if err := s.validate.Struct(in); err != nil {
		s.printf("Invalid student %s: %s\n", in.RollNumber, describeValidation(err))
		return nil, nil
	}

	sc, err := s.store.GetSchoolByID(ctx, schoolID)
	if errors.Is(err, storage.ErrNotFound) {
		s.printf("School ID %d not found.\n", schoolID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	exists, err := s.store.RollNumberExists(ctx, in.RollNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		s.printf("Roll number %s already exists!\n", in.RollNumber)
		return nil, nil
	}

	pwd := in.password()
	st, err := s.insert(ctx, sc.ID, in, pwd)
	if err != nil {
		return nil, err
	}

	s.printf("  [CREATED] %s\n", st.Name)
	s.printf("  Roll Number: %s\n", st.RollNumber)
	s.printf("  Password:    %s\n", pwd)
	s.printf("  Class:       %s\n", st.ClassName)
	s.printf("  School:      %s\n", sc.Name)
	logger.LogInfo("Student created", "roll_number", st.RollNumber, "school_id", sc.ID)
	return st, nil
}

// BulkCreateStudents creates every student in list whose roll number is not
// taken yet. Taken roll numbers are skipped and invalid entries are reported.
func (s *Service) BulkCreateStudents(ctx context.Context, schoolID int64, list []StudentInput) (BulkResult, error) {
	var res BulkResult

	sc, err := s.store.GetSchoolByID(ctx, schoolID)
	if errors.Is(err, storage.ErrNotFound) {
		s.printf("School ID %d not found.\n", schoolID)
		return res, nil
	}
	if err != nil {
		return res, err
	}

	s.printf("\nSchool: %s (ID: %d)\n", sc.Name, sc.ID)
	s.println(rule("=", 60))

	for _, in := range list {
		in = in.normalized()
		if err := s.validate.Struct(in); err != nil {
			s.printf("  [INVALID] %s: %s\n", in.RollNumber, describeValidation(err))
			res.Invalid++
			continue
		}

		exists, err := s.store.RollNumberExists(ctx, in.RollNumber)
		if err != nil {
			return res, err
		}
		if exists {
			s.printf("  [SKIP] %s already exists\n", in.RollNumber)
			res.Skipped++
			continue
		}

		pwd := in.password()
		if _, err := s.insert(ctx, sc.ID, in, pwd); err != nil {
			return res, err
		}
		s.printf("  [OK] %s - %s -> Password: %s\n", in.RollNumber, in.Name, pwd)
		res.Created++
	}

	if res.Invalid > 0 {
		s.printf("\n--- Created: %d | Skipped: %d | Invalid: %d ---\n", res.Created, res.Skipped, res.Invalid)
	} else {
		s.printf("\n--- Created: %d | Skipped: %d ---\n", res.Created, res.Skipped)
	}
	logger.LogInfo("Bulk create finished", "school_id", sc.ID, "created", res.Created, "skipped", res.Skipped, "invalid", res.Invalid)
	return res, nil
}

func (s *Service) insert(ctx context.Context, schoolID int64, in StudentInput, pwd string) (*school.Student, error) {
	stored, err := s.encoder.Encode(pwd)
	if err != nil {
		return nil, err
	}

	st, err := s.store.CreateStudent(ctx, storage.NewStudent{
		Name:       in.Name,
		RollNumber: in.RollNumber,
		ClassName:  in.ClassName,
		SchoolID:   schoolID,
		Password:   stored,
		IsActive:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("student %s: %w", in.RollNumber, err)
	}
	return st, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "max":
			parts = append(parts, fmt.Sprintf("%s is longer than %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
