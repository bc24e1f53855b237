// Package logins provisions student login credentials: it assigns default
// passwords to students that have none, creates students, and prints login
// status reports.
//
// Lookup failures (unknown school, ambiguous school name, roll number already
// taken) are reported on the service output and yield a zero result. Only
// storage failures are returned as errors.
package logins

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	constants "github.com/padhaiwithai/student-logins/internal/constants"
	"github.com/padhaiwithai/student-logins/pkg/storage"
)

type Service struct {
	store    storage.Store
	out      io.Writer
	encoder  PasswordEncoder
	validate *validator.Validate
}

type Option func(*Service)

// WithOutput sets where reports are printed. The default is stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.out = w }
}

// WithEncoder sets how passwords are stored. The default is Plain.
func WithEncoder(e PasswordEncoder) Option {
	return func(s *Service) { s.encoder = e }
}

func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		out:      os.Stdout,
		encoder:  Plain{},
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newValidator reports fields by their yaml names, the names operators use in
// roster files.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DefaultPassword is the first password handed to a student.
func DefaultPassword(rollNumber string) string {
	return rollNumber + constants.DefaultPasswordSuffix
}

func (s *Service) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Service) println(line string) {
	fmt.Fprintln(s.out, line)
}

func rule(ch string, n int) string {
	return strings.Repeat(ch, n)
}
