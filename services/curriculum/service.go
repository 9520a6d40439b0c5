package curriculum

import (
	"context"
	"errors"
	"fmt"
	"log"

	"admissionbot/metrics"
	"admissionbot/models"
	"admissionbot/services/catalog"

	"github.com/samber/lo"
)

const CoursesPerSemester = 5

var ErrNoCourses = errors.New("no courses for program")

const (
	selectionSkipped  = "skipped"
	selectionRanked   = "ranked"
	selectionFallback = "fallback"
)

type Service struct {
	catalog *catalog.Catalog
	oracle  Oracle
	metrics *metrics.Metrics
}

func NewService(cat *catalog.Catalog, oracle Oracle, m *metrics.Metrics) *Service {
	return &Service{catalog: cat, oracle: oracle, metrics: m}
}

// Build selects up to CoursesPerSemester courses for each semester of the
// program. Semesters are processed in order because each one's prompt lists
// the courses picked for the previous ones.
func (s *Service) Build(ctx context.Context, program models.Program, profile models.StudentProfile) (*models.CurriculumPlan, error) {
	log.Printf("[INFO] Starting curriculum build for program %s", program)

	courses := s.catalog.ForProgram(program)
	if len(courses) == 0 {
		log.Printf("[ERROR] No courses found for program %s", program)
		return nil, fmt.Errorf("%w %s", ErrNoCourses, program)
	}

	plan := models.NewCurriculumPlan(program)
	var selected []string

	for semester := 1; semester <= models.SemesterCount; semester++ {
		candidates := lo.Filter(courses, func(c models.Course, _ int) bool {
			return c.OfferedIn(semester)
		})

		if len(candidates) == 0 {
			log.Printf("[INFO] No candidates for semester %d", semester)
			continue
		}

		chosen := s.selectForSemester(ctx, semester, profile, selected, candidates)
		plan.Semesters[semester] = chosen
		selected = append(selected, lo.Map(chosen, func(c models.Course, _ int) string {
			return c.Name
		})...)

		log.Printf("[INFO] Selected %d of %d courses for semester %d", len(chosen), len(candidates), semester)
	}

	log.Printf("[INFO] Successfully built curriculum for program %s", program)
	return plan, nil
}

func (s *Service) selectForSemester(ctx context.Context, semester int, profile models.StudentProfile, selected []string, candidates []models.Course) []models.Course {
	if len(candidates) <= CoursesPerSemester {
		s.metrics.ObserveSelection(selectionSkipped)
		return candidates
	}

	if s.oracle == nil {
		s.metrics.ObserveSelection(selectionFallback)
		return candidates[:CoursesPerSemester]
	}

	prompt := buildSelectionPrompt(semester, profile, selected, candidates)
	reply, err := s.oracle.Complete(ctx, prompt, selectionUserPrompt)
	if err != nil {
		log.Printf("[WARN] Oracle failed for semester %d, using catalog order: %v", semester, err)
		s.metrics.ObserveSelection(selectionFallback)
		return candidates[:CoursesPerSemester]
	}

	indices := parseSelection(reply, len(candidates), CoursesPerSemester)
	if len(indices) == 0 {
		log.Printf("[WARN] No usable indices in oracle reply for semester %d, using catalog order: %q", semester, reply)
		s.metrics.ObserveSelection(selectionFallback)
		return candidates[:CoursesPerSemester]
	}

	s.metrics.ObserveSelection(selectionRanked)
	return lo.Map(indices, func(idx int, _ int) models.Course {
		return candidates[idx-1]
	})
}
