package logins

import (
	"context"

	constants "github.com/padhaiwithai/student-logins/internal/constants"
)

// Run prints the login status and then gives every student without a login
// the default password.
func (s *Service) Run(ctx context.Context) error {
	s.printf("\n%s\n", rule("=", 60))
	s.println("   PadhaiWithAI - Student Login Creator")
	s.println(rule("=", 60))

	if _, err := s.PrintLoginStatus(ctx); err != nil {
		return err
	}

	s.println("\n\nSetting passwords for students without login...")
	if _, err := s.SetAllDefaultLogins(ctx); err != nil {
		return err
	}

	s.println("\n--- DONE ---")
	s.printf("Students can now login at %s with:\n", constants.LoginURL)
	s.println("  Roll Number: their roll number")
	s.printf("  Password:    roll_number%s\n", constants.DefaultPasswordSuffix)
	return nil
}
