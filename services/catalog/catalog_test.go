package catalog

import (
	"context"
	"errors"
	"testing"

	"admissionbot/models"
)

type stubRepository struct {
	courses []models.Course
	err     error
}

func (s stubRepository) LoadCourses(ctx context.Context) ([]models.Course, error) {
	return s.courses, s.err
}

func TestForProgramKeepsCatalogOrder(t *testing.T) {
	cat := New([]models.Course{
		{Name: "A", Program: models.ProgramAI},
		{Name: "B", Program: models.ProgramAIProduct},
		{Name: "C", Program: models.ProgramAI},
	})

	got := cat.ForProgram(models.ProgramAI)
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "C" {
		t.Errorf("unexpected courses %+v", got)
	}

	if n := len(cat.ForProgram(models.Program("other"))); n != 0 {
		t.Errorf("expected no courses for an unknown program, got %d", n)
	}
}

func TestCatalogIsNotAliased(t *testing.T) {
	source := []models.Course{{Name: "A", Program: models.ProgramAI}}
	cat := New(source)

	source[0].Name = "changed"
	courses := cat.Courses()
	courses[0].Name = "changed again"

	if cat.Courses()[0].Name != "A" {
		t.Errorf("catalog was mutated through a shared slice: %+v", cat.Courses())
	}
}

func TestLoad(t *testing.T) {
	cat, err := Load(context.Background(), stubRepository{courses: []models.Course{{Name: "A", Program: models.ProgramAI}}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("expected 1 course, got %d", cat.Len())
	}

	if _, err := Load(context.Background(), stubRepository{err: errors.New("boom")}); err == nil {
		t.Error("expected repository error to be returned")
	}
}
