package curriculum

import (
	"fmt"
	"strings"

	"admissionbot/models"

	"github.com/samber/lo"
)

const selectionUserPrompt = "Pick the 5 best courses for this semester."

const selectionSystemPrompt = `You are an expert on the ITMO master's programs in artificial intelligence.
Your task is to choose the %d most suitable courses for semester %d.

Student profile:
- Background: %s
- Interests: %s
- Goals: %s

Already selected courses: %s

Candidates for semester %d:
%s

Choose %d courses that:
1. Best match the student profile
2. Complement the already selected courses
3. Provide progressive learning

Answer strictly with a literal list of integers, the numbers of the chosen courses, for example: [1, 3, 5, 7, 9].`

func hoursLabel(c models.Course) string {
	if c.Hours == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *c.Hours)
}

func candidateLines(candidates []models.Course) string {
	lines := lo.Map(candidates, func(c models.Course, i int) string {
		return fmt.Sprintf("%d. %s (%s hours)", i+1, c.Name, hoursLabel(c))
	})
	return strings.Join(lines, "\n")
}

func buildSelectionPrompt(semester int, profile models.StudentProfile, selected []string, candidates []models.Course) string {
	already := "None"
	if len(selected) > 0 {
		already = strings.Join(selected, ", ")
	}

	return fmt.Sprintf(selectionSystemPrompt,
		CoursesPerSemester, semester,
		profile.Background, profile.Interests, profile.Goals,
		already,
		semester, candidateLines(candidates),
		CoursesPerSemester,
	)
}
