package curriculum

import (
	"fmt"
	"strings"

	"admissionbot/models"
)

func FormatPlan(plan *models.CurriculumPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recommended study plan for the %s program (%s):\n\n", plan.Program.Title(), plan.Program)

	for semester := 1; semester <= models.SemesterCount; semester++ {
		fmt.Fprintf(&b, "Semester %d:\n", semester)

		courses := plan.Semesters[semester]
		if len(courses) == 0 {
			b.WriteString("  - no courses available\n")
		}
		for i, course := range courses {
			fmt.Fprintf(&b, "  %d. %s (%s hours)\n", i+1, course.Name, hoursLabel(course))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
