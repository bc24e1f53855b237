package main

import (
	"fmt"

	"github.com/padhaiwithai/student-logins/pkg/logins"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Print login status, then set default passwords for all students without one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.svc.Run(cmd.Context())
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print every school's students and whether they have a password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := opts.svc.PrintLoginStatus(cmd.Context())
			return err
		},
	}
}

func newSetAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-all",
		Short: "Set the default password for every student without one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := opts.svc.SetAllDefaultLogins(cmd.Context())
			return err
		},
	}
}

func newSetSchoolCmd(opts *rootOptions) *cobra.Command {
	var byName bool

	cmd := &cobra.Command{
		Use:   "set-school <school-id-or-name>",
		Short: "Set the default password for students of one school without one",
		Long: `Resolves the school by numeric id, or by a case-insensitive substring of its
name. When the name matches several schools they are listed and nothing changes.

Example:
  student-logins set-school 1
  student-logins set-school "Government School Malpura"
  student-logins set-school --by-name 2024`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := logins.ParseSchoolRef(args[0])
			if byName {
				ref = logins.SchoolByName(args[0])
			}
			_, err := opts.svc.SetSchoolDefaultLogins(cmd.Context(), ref)
			return err
		},
	}
	cmd.Flags().BoolVar(&byName, "by-name", false, "treat the argument as a name even if it is numeric")
	return cmd
}

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		in       logins.StudentInput
		schoolID int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one student with a login",
		Long: `Creates an active student. Without --password the password is roll_number@123.

Example:
  student-logins create --name "Rahul Kumar" --roll STU001 --class 10 --school-id 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := opts.svc.CreateStudent(cmd.Context(), schoolID, in)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.Name, "name", "", "student name")
	flags.StringVar(&in.RollNumber, "roll", "", "roll number")
	flags.StringVar(&in.ClassName, "class", "", "class (default 10)")
	flags.StringVar(&in.Password, "password", "", "password (default roll_number@123)")
	flags.Int64Var(&schoolID, "school-id", 0, "id of the student's school")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("roll")
	cmd.MarkFlagRequired("school-id")
	return cmd
}

func newBulkCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		file     string
		schoolID int64
	)

	cmd := &cobra.Command{
		Use:   "bulk-create",
		Short: "Create students listed in a YAML or JSON file",
		Long: `Creates every listed student whose roll number is not taken yet.

The file holds a list of students, either bare or under a "students" key:

  students:
    - name: Rahul Kumar
      roll_number: STU001
      class_name: "10"
    - name: Priya Sharma
      roll_number: STU002
      password: custom_password`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := logins.LoadRoster(file)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return fmt.Errorf("roster %s lists no students", file)
			}
			_, err = opts.svc.BulkCreateStudents(cmd.Context(), schoolID, list)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "roster file")
	cmd.Flags().Int64Var(&schoolID, "school-id", 0, "id of the students' school")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("school-id")
	return cmd
}
