package domain

// UserRecord is the upstream login account created in the user management screen.
type UserRecord struct {
	Title        string
	FirstName    string
	LastName     string
	Email        string
	Password     string
	MainBodyshop string
	CustomRole   string
}

// EmployeeRecord is the upstream employee created after the user. Password is digits only.
type EmployeeRecord struct {
	EmployeeID   string
	FirstName    string
	LastName     string
	Email        string
	Position     string
	Password     string
	MainBodyshop string
}
