package school

type Student struct {
	ID         int64   `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	RollNumber string  `json:"roll_number" db:"roll_number"` // Unique
	ClassName  string  `json:"class_name" db:"class_name"`
	Password   *string `json:"-" db:"password"` // NULL until a login is set
	IsActive   bool    `json:"is_active" db:"is_active"`
	SchoolID   int64   `json:"school_id" db:"school_id"` // Foreign key
}

// HasPassword reports whether the student already has a login.
// NULL and empty passwords both count as no login.
func (s Student) HasPassword() bool {
	return s.Password != nil && *s.Password != ""
}
