package logins

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/padhaiwithai/student-logins/models/school"
	"github.com/padhaiwithai/student-logins/pkg/storage"
	"github.com/padhaiwithai/student-logins/pkg/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store *sqlite.Store
	svc   *Service
	out   *bytes.Buffer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	out := &bytes.Buffer{}
	opts = append([]Option{WithOutput(out)}, opts...)
	return &fixture{store: st, svc: NewService(st, opts...), out: out}
}

func (f *fixture) school(t *testing.T, name string) *school.School {
	t.Helper()
	sc, err := f.store.CreateSchool(context.Background(), name)
	require.NoError(t, err)
	return sc
}

func (f *fixture) student(t *testing.T, schoolID int64, roll, name, password string) {
	t.Helper()
	_, err := f.store.CreateStudent(context.Background(), storage.NewStudent{
		Name: name, RollNumber: roll, ClassName: "10", SchoolID: schoolID, Password: password,
	})
	require.NoError(t, err)
}

func (f *fixture) byRoll(t *testing.T, schoolID int64) map[string]school.Student {
	t.Helper()
	students, err := f.store.ListStudentsBySchool(context.Background(), schoolID)
	require.NoError(t, err)
	m := make(map[string]school.Student, len(students))
	for _, st := range students {
		m[st.RollNumber] = st
	}
	return m
}

func TestDefaultPassword(t *testing.T) {
	assert.Equal(t, "STU001@123", DefaultPassword("STU001"))
}

func TestParseSchoolRef(t *testing.T) {
	assert.Equal(t, SchoolByID(7), ParseSchoolRef("7"))
	assert.Equal(t, SchoolByName("Malpura"), ParseSchoolRef("Malpura"))
	assert.Equal(t, SchoolByName("0"), ParseSchoolRef("0"))
	assert.Equal(t, SchoolByName("-3"), ParseSchoolRef("-3"))
	assert.Equal(t, "7", SchoolByID(7).String())
	assert.Equal(t, "Malpura", SchoolByName("Malpura").String())
}

func TestSetAllDefaultLogins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.school(t, "Malpura")
	b := f.school(t, "Tonk")
	f.student(t, a.ID, "STU001", "Rahul Kumar", "")
	f.student(t, a.ID, "STU002", "Priya Sharma", "custom")
	f.student(t, b.ID, "STU003", "Amit Singh", "")

	n, err := f.svc.SetAllDefaultLogins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := f.byRoll(t, a.ID)
	assert.Equal(t, "STU001@123", *got["STU001"].Password)
	assert.True(t, got["STU001"].IsActive)
	assert.Equal(t, "custom", *got["STU002"].Password)
	assert.False(t, got["STU002"].IsActive)
	assert.Equal(t, "STU003@123", *f.byRoll(t, b.ID)["STU003"].Password)

	assert.Contains(t, f.out.String(), "  [OK] STU001 - Rahul Kumar -> Password: STU001@123\n")
	assert.Contains(t, f.out.String(), "\n--- Created logins for 2 students ---\n")

	// Second run finds nothing to do.
	f.out.Reset()
	n, err = f.svc.SetAllDefaultLogins(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "\n--- Created logins for 0 students ---\n", f.out.String())
}

func TestSetAllDefaultLoginsTreatsEmptyAsMissing(t *testing.T) {
	f := newFixture(t)
	sc := f.school(t, "Malpura")
	f.student(t, sc.ID, "STU001", "Rahul", "old")
	empty := ""
	require.NoError(t, f.store.SetPassword(context.Background(), "STU001", &empty))

	n, err := f.svc.SetAllDefaultLogins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "STU001@123", *f.byRoll(t, sc.ID)["STU001"].Password)
}

func TestSetAllDefaultLoginsTreatsNullAsMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sc := f.school(t, "Malpura")
	f.student(t, sc.ID, "STU001", "Rahul", "old")
	f.student(t, sc.ID, "STU002", "Priya", "custom")
	require.NoError(t, f.store.SetPassword(ctx, "STU001", nil))
	require.Nil(t, f.byRoll(t, sc.ID)["STU001"].Password)

	sum, err := f.svc.PrintLoginStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSummary{Total: 2, WithPassword: 1, WithoutPassword: 1}, sum)
	assert.Contains(t, f.out.String(), "TOTAL: 2 students | With password: 1 | Without: 1")

	f.out.Reset()
	n, err := f.svc.SetAllDefaultLogins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, f.out.String(), "  [OK] STU001 - Rahul -> Password: STU001@123\n")

	got := f.byRoll(t, sc.ID)["STU001"]
	require.NotNil(t, got.Password)
	assert.Equal(t, "STU001@123", *got.Password)
	assert.True(t, got.IsActive)
	assert.Equal(t, "custom", *f.byRoll(t, sc.ID)["STU002"].Password)
}

func TestSetAllDefaultLoginsHashed(t *testing.T) {
	f := newFixture(t, WithEncoder(Bcrypt{Cost: bcrypt.MinCost}))
	sc := f.school(t, "Malpura")
	f.student(t, sc.ID, "STU001", "Rahul", "")

	n, err := f.svc.SetAllDefaultLogins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored := *f.byRoll(t, sc.ID)["STU001"].Password
	assert.NotEqual(t, "STU001@123", stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("STU001@123")))
	// The operator still sees the plaintext to hand out.
	assert.Contains(t, f.out.String(), "-> Password: STU001@123")
}

func TestSetSchoolDefaultLogins(t *testing.T) {
	ctx := context.Background()

	t.Run("by id", func(t *testing.T) {
		f := newFixture(t)
		a := f.school(t, "Government School Malpura")
		b := f.school(t, "Government School Tonk")
		f.student(t, a.ID, "STU001", "Rahul", "")
		f.student(t, b.ID, "STU002", "Priya", "")

		n, err := f.svc.SetSchoolDefaultLogins(ctx, SchoolByID(a.ID))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.True(t, f.byRoll(t, a.ID)["STU001"].HasPassword())
		assert.False(t, f.byRoll(t, b.ID)["STU002"].HasPassword())

		out := f.out.String()
		assert.Contains(t, out, "\nSchool: Government School Malpura (ID: 1)\n"+strings.Repeat("-", 50)+"\n")
		assert.Contains(t, out, "  [OK] STU001 - Rahul\n")
		assert.Contains(t, out, "--- Created logins for 1 students in Government School Malpura ---")
	})

	t.Run("by name substring", func(t *testing.T) {
		f := newFixture(t)
		a := f.school(t, "Government School Malpura")
		f.school(t, "Government School Tonk")
		f.student(t, a.ID, "STU001", "Rahul", "")

		n, err := f.svc.SetSchoolDefaultLogins(ctx, SchoolByName("malpura"))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("no match", func(t *testing.T) {
		f := newFixture(t)
		a := f.school(t, "Government School Malpura")
		f.student(t, a.ID, "STU001", "Rahul", "")

		n, err := f.svc.SetSchoolDefaultLogins(ctx, SchoolByName("Jaipur"))
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, "School not found: Jaipur\n", f.out.String())
		assert.False(t, f.byRoll(t, a.ID)["STU001"].HasPassword())

		f.out.Reset()
		n, err = f.svc.SetSchoolDefaultLogins(ctx, SchoolByID(99))
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, "School not found: 99\n", f.out.String())
	})

	t.Run("ambiguous name", func(t *testing.T) {
		f := newFixture(t)
		a := f.school(t, "Government School Malpura")
		b := f.school(t, "Government School Tonk")
		f.student(t, a.ID, "STU001", "Rahul", "")
		f.student(t, b.ID, "STU002", "Priya", "")

		n, err := f.svc.SetSchoolDefaultLogins(ctx, SchoolByName("government"))
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t,
			"Multiple schools match 'government'. Use school ID instead:\n"+
				"  ID: 1 - Government School Malpura\n"+
				"  ID: 2 - Government School Tonk\n",
			f.out.String())

		missing, err := f.store.ListStudentsWithoutPassword(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, missing, 2)
	})
}

func TestCreateStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("default password", func(t *testing.T) {
		f := newFixture(t)
		sc := f.school(t, "Malpura")

		st, err := f.svc.CreateStudent(ctx, sc.ID, StudentInput{Name: "Rahul Kumar", RollNumber: "STU001", ClassName: "9"})
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, "STU001@123", *st.Password)
		assert.True(t, st.IsActive)
		assert.Equal(t, sc.ID, st.SchoolID)
		assert.Equal(t, "  [CREATED] Rahul Kumar\n"+
			"  Roll Number: STU001\n"+
			"  Password:    STU001@123\n"+
			"  Class:       9\n"+
			"  School:      Malpura\n", f.out.String())
	})

	t.Run("custom password and default class", func(t *testing.T) {
		f := newFixture(t)
		sc := f.school(t, "Malpura")

		st, err := f.svc.CreateStudent(ctx, sc.ID, StudentInput{Name: "Rahul", RollNumber: "STU001", Password: "custom_password"})
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, "custom_password", *st.Password)
		assert.Equal(t, "10", st.ClassName)
	})

	t.Run("duplicate roll number", func(t *testing.T) {
		f := newFixture(t)
		sc := f.school(t, "Malpura")
		f.student(t, sc.ID, "STU001", "Rahul", "")

		st, err := f.svc.CreateStudent(ctx, sc.ID, StudentInput{Name: "Someone Else", RollNumber: "STU001"})
		require.NoError(t, err)
		assert.Nil(t, st)
		assert.Equal(t, "Roll number STU001 already exists!\n", f.out.String())
		assert.Len(t, f.byRoll(t, sc.ID), 1)
		assert.Equal(t, "Rahul", f.byRoll(t, sc.ID)["STU001"].Name)
	})

	t.Run("unknown school", func(t *testing.T) {
		f := newFixture(t)

		st, err := f.svc.CreateStudent(ctx, 5, StudentInput{Name: "Rahul", RollNumber: "STU001"})
		require.NoError(t, err)
		assert.Nil(t, st)
		assert.Equal(t, "School ID 5 not found.\n", f.out.String())
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)
		sc := f.school(t, "Malpura")

		st, err := f.svc.CreateStudent(ctx, sc.ID, StudentInput{RollNumber: "STU001"})
		require.NoError(t, err)
		assert.Nil(t, st)
		assert.Equal(t, "Invalid student STU001: name is required\n", f.out.String())
		assert.Empty(t, f.byRoll(t, sc.ID))
	})
}

func TestBulkCreateStudents(t *testing.T) {
	ctx := context.Background()

	t.Run("one new one duplicate", func(t *testing.T) {
		f := newFixture(t)
		sc := f.school(t, "Malpura")
		f.student(t, sc.ID, "STU001", "Rahul Kumar", "")

		res, err := f.svc.BulkCreateStudents(ctx, sc.ID, []StudentInput{
			{Name: "Rahul Kumar", RollNumber: "STU001", ClassName: "10"},
			{Name: "Priya Sharma", RollNumber: "STU002", ClassName: "10"},
		})
		require.NoError(t, err)
		assert.Equal(t, BulkResult{Created: 1, Skipped: 1}, res)
		assert.Len(t, f.byRoll(t, sc.ID), 2)

		assert.Equal(t, "\nSchool: Malpura (ID: 1)\n"+strings.Repeat("=", 60)+"\n"+
			"  [SKIP] STU001 already exists\n"+
			"  [OK] STU002 - Priya Sharma -> Password: STU002@123\n"+
			"\n--- Created: 1 | Skipped: 1 ---\n", f.out.String())
	})

	t.Run("repeated roll within the list", func(t *testing.T) {
		f := newFixture(t)
		sc := f.school(t, "Malpura")

		res, err := f.svc.BulkCreateStudents(ctx, sc.ID, []StudentInput{
			{Name: "Amit Singh", RollNumber: "STU003", ClassName: "9"},
			{Name: "Amit Again", RollNumber: "STU003"},
		})
		require.NoError(t, err)
		assert.Equal(t, BulkResult{Created: 1, Skipped: 1}, res)
		assert.Equal(t, "Amit Singh", f.byRoll(t, sc.ID)["STU003"].Name)
	})

	t.Run("custom password and invalid entries", func(t *testing.T) {
		f := newFixture(t)
		sc := f.school(t, "Malpura")

		res, err := f.svc.BulkCreateStudents(ctx, sc.ID, []StudentInput{
			{Name: "Priya", RollNumber: "STU002", Password: "secret"},
			{Name: "", RollNumber: "STU004"},
		})
		require.NoError(t, err)
		assert.Equal(t, BulkResult{Created: 1, Invalid: 1}, res)
		assert.Equal(t, "secret", *f.byRoll(t, sc.ID)["STU002"].Password)
		assert.Contains(t, f.out.String(), "  [OK] STU002 - Priya -> Password: secret\n")
		assert.Contains(t, f.out.String(), "  [INVALID] STU004: name is required\n")
		assert.Contains(t, f.out.String(), "--- Created: 1 | Skipped: 0 | Invalid: 1 ---")
	})

	t.Run("unknown school", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.svc.BulkCreateStudents(ctx, 3, []StudentInput{{Name: "A", RollNumber: "R1"}})
		require.NoError(t, err)
		assert.Equal(t, BulkResult{}, res)
		assert.Equal(t, "School ID 3 not found.\n", f.out.String())
	})
}

func TestPrintLoginStatus(t *testing.T) {
	f := newFixture(t)
	tonk := f.school(t, "Tonk")
	malpura := f.school(t, "Malpura")
	f.school(t, "Empty School")
	f.student(t, tonk.ID, "T002", "Priya Sharma", "")
	f.student(t, tonk.ID, "T001", "Amit Singh", "pw")
	f.student(t, malpura.ID, "M001", "Rahul Kumar", "")

	sum, err := f.svc.PrintLoginStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSummary{Total: 3, WithPassword: 1, WithoutPassword: 2}, sum)
	assert.Equal(t, sum.Total, sum.WithPassword+sum.WithoutPassword)

	eq := strings.Repeat("=", 60)
	header := "Roll            Name                      Class    Password   Active\n" +
		"--------------- ------------------------- -------- ---------- ------\n"
	want := "\n" + eq + "\nSchool: Malpura (ID: 2)\n" + eq + "\n" + header +
		"M001            Rahul Kumar               10       NO         NO\n" +
		"\n" + eq + "\nSchool: Tonk (ID: 1)\n" + eq + "\n" + header +
		"T001            Amit Singh                10       YES        NO\n" +
		"T002            Priya Sharma              10       NO         NO\n" +
		"\n" + eq + "\nTOTAL: 3 students | With password: 1 | Without: 2\n" + eq + "\n"
	assert.Equal(t, want, f.out.String())
	assert.NotContains(t, f.out.String(), "Empty School")
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	sc := f.school(t, "Malpura")
	f.student(t, sc.ID, "STU001", "Rahul", "")

	require.NoError(t, f.svc.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "Student Login Creator")
	assert.Contains(t, out, "TOTAL: 1 students | With password: 0 | Without: 1")
	assert.Contains(t, out, "Setting passwords for students without login...")
	assert.Contains(t, out, "--- Created logins for 1 students ---")
	assert.Contains(t, out, "Password:    roll_number@123")
	assert.True(t, f.byRoll(t, sc.ID)["STU001"].HasPassword())
}

type failingStore struct {
	storage.Store
}

func (failingStore) ListStudentsWithoutPassword(context.Context, *int64) ([]school.Student, error) {
	return nil, errors.New("connection reset")
}

func (failingStore) GetSchoolByID(context.Context, int64) (*school.School, error) {
	return nil, errors.New("connection reset")
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(failingStore{}, WithOutput(&bytes.Buffer{}))

	_, err := svc.SetAllDefaultLogins(ctx)
	assert.EqualError(t, err, "connection reset")

	_, err = svc.SetSchoolDefaultLogins(ctx, SchoolByID(1))
	assert.Error(t, err)

	_, err = svc.CreateStudent(ctx, 1, StudentInput{Name: "A", RollNumber: "R1"})
	assert.Error(t, err)

	_, err = svc.BulkCreateStudents(ctx, 1, nil)
	assert.Error(t, err)
}
