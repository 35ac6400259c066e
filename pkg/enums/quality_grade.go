package enums

import "fmt"

// QualityGrade is the minimum acceptable grade filter for candidate lots.
type QualityGrade string

const (
	QualityAny QualityGrade = "ANY"
	// QualityGradeB admits lots holding any graded stock (A or B).
	QualityGradeB QualityGrade = "GRADE_B"
	// QualityGradeA admits only lots with grade-A stock.
	QualityGradeA QualityGrade = "GRADE_A"
)

var validQualityGrades = []QualityGrade{
	QualityAny,
	QualityGradeB,
	QualityGradeA,
}

// String implements fmt.Stringer.
func (q QualityGrade) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QualityGrade.
func (q QualityGrade) IsValid() bool {
	for _, candidate := range validQualityGrades {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQualityGrade converts raw input into a QualityGrade.
func ParseQualityGrade(value string) (QualityGrade, error) {
	for _, candidate := range validQualityGrades {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quality grade %q", value)
}
