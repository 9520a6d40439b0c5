package catalog

import (
	"context"
	"fmt"
	"log"

	"admissionbot/db"
	"admissionbot/models"

	"github.com/samber/lo"
)

// Catalog is the read-only course list loaded at startup. It is safe for
// concurrent use because nothing mutates it after New returns.
type Catalog struct {
	courses []models.Course
}

func New(courses []models.Course) *Catalog {
	return &Catalog{courses: append([]models.Course(nil), courses...)}
}

func Load(ctx context.Context, repo db.CatalogRepository) (*Catalog, error) {
	courses, err := repo.LoadCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	cat := New(courses)
	for _, program := range models.Programs {
		log.Printf("[INFO] Catalog has %d courses for program %s", len(cat.ForProgram(program)), program)
	}
	return cat, nil
}

func (c *Catalog) Courses() []models.Course {
	return append([]models.Course(nil), c.courses...)
}

// ForProgram returns the program's courses in catalog order.
func (c *Catalog) ForProgram(program models.Program) []models.Course {
	return lo.Filter(c.courses, func(course models.Course, _ int) bool {
		return course.Program == program
	})
}

func (c *Catalog) Len() int {
	return len(c.courses)
}
