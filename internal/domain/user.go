package domain

// UserRecord is an organization member as returned by the users page endpoint.
type UserRecord struct {
	FirstName  string
	LastName   string
	Email      string
	JoinedDate string
}

// AssignmentRecord is one activity assigned to a user.
type AssignmentRecord struct {
	DueDate       string
	AssignedDate  string
	CompletedDate string
	Status        string
	Type          string
	UUID          string
}

// ReportRow is the flattened user x assignment line written to the report.
type ReportRow struct {
	FirstName     string
	LastName      string
	Email         string
	JoinedDate    string
	ActivityTitle string
	DueDate       string
	AssignedDate  string
	CompletedDate string
	Status        string
	Type          string
}
