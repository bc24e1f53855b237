package logins

import (
	"context"

	"github.com/padhaiwithai/student-logins/internal/logger"
)

// StatusSummary totals the students seen by PrintLoginStatus.
// WithPassword + WithoutPassword == Total.
type StatusSummary struct {
	Total           int
	WithPassword    int
	WithoutPassword int
}

const statusRow = "%-15s %-25s %-8s %-10s %s\n"

// PrintLoginStatus prints every school (by name) that has students, with one
// row per student (by roll number) showing whether a login exists.
func (s *Service) PrintLoginStatus(ctx context.Context) (StatusSummary, error) {
	var sum StatusSummary

	schools, err := s.store.ListSchools(ctx)
	if err != nil {
		return sum, err
	}

	for _, sc := range schools {
		students, err := s.store.ListStudentsBySchool(ctx, sc.ID)
		if err != nil {
			return sum, err
		}
		if len(students) == 0 {
			continue
		}

		s.printf("\n%s\n", rule("=", 60))
		s.printf("School: %s (ID: %d)\n", sc.Name, sc.ID)
		s.println(rule("=", 60))
		s.printf(statusRow, "Roll", "Name", "Class", "Password", "Active")
		s.printf(statusRow, rule("-", 15), rule("-", 25), rule("-", 8), rule("-", 10), rule("-", 6))

		for _, st := range students {
			if st.HasPassword() {
				sum.WithPassword++
			} else {
				sum.WithoutPassword++
			}
			sum.Total++
			s.printf(statusRow, st.RollNumber, st.Name, st.ClassName, yesNo(st.HasPassword()), yesNo(st.IsActive))
		}
	}

	s.printf("\n%s\n", rule("=", 60))
	s.printf("TOTAL: %d students | With password: %d | Without: %d\n", sum.Total, sum.WithPassword, sum.WithoutPassword)
	s.println(rule("=", 60))

	logger.LogDebug("Login status printed", "schools", len(schools), "students", sum.Total)
	return sum, nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
