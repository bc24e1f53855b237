package constants

// Environment variables
const (
	DATABASE_URL   = "DATABASE_URL"
	STORAGE_DRIVER = "STORAGE_DRIVER"
	SQLITE_PATH    = "SQLITE_PATH"
	MIGRATIONS_DIR = "MIGRATIONS_DIR"
	HASH_PASSWORDS = "HASH_PASSWORDS"
	BCRYPT_COST    = "BCRYPT_COST"
	LOG_LEVEL      = "LOG_LEVEL"
	LOG_FORMAT     = "LOG_FORMAT"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultPasswordSuffix is appended to a roll number to form a student's first password.
const DefaultPasswordSuffix = "@123"

// DefaultClassName is used when a new student is created without a class.
const DefaultClassName = "10"

// LoginURL is where students sign in on the web application.
const LoginURL = "/student/login/"
