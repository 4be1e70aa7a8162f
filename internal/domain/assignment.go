package domain

import "strings"

// ActivityType is the kind of activity named in an assignment removal row.
type ActivityType string

const (
	ActivityPath ActivityType = "Path"
	ActivityLab  ActivityType = "Lab"
)

// ParseActivityType accepts only the exact strings "Path" and "Lab".
func ParseActivityType(s string) (ActivityType, bool) {
	switch ActivityType(s) {
	case ActivityPath, ActivityLab:
		return ActivityType(s), true
	}
	return "", false
}

// AssignmentRow is one line of the user-supplied removal CSV.
// UUID is empty until resolved against a catalog.
type AssignmentRow struct {
	User       string
	Activity   string
	Technology string
	Type       string
	UUID       string
}

// Type tags reported by the assignments endpoint, after NormalizeKind.
const (
	KindLearningPath = "LEARNING_PATH"
	KindExercise     = "EXERCISE"
)

// NormalizeKind maps variants like "Learning Path" and "learning_path" to LEARNING_PATH.
func NormalizeKind(raw string) string {
	return strings.ReplaceAll(strings.ToUpper(raw), " ", "_")
}
