package curriculum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"admissionbot/models"
	"admissionbot/services/catalog"
)

// scriptedOracle replies per semester. A semester without a script entry
// fails the test when the oracle is consulted for it.
type scriptedOracle struct {
	t       *testing.T
	mu      sync.Mutex
	replies map[int]string
	errs    map[int]error
	prompts []string
}

func (o *scriptedOracle) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prompts = append(o.prompts, systemPrompt)

	semester := 0
	for s := 1; s <= models.SemesterCount; s++ {
		if strings.Contains(systemPrompt, fmt.Sprintf("Candidates for semester %d:", s)) {
			semester = s
		}
	}

	if err, ok := o.errs[semester]; ok {
		return "", err
	}
	if reply, ok := o.replies[semester]; ok {
		return reply, nil
	}
	o.t.Errorf("oracle consulted unexpectedly for semester %d", semester)
	return "", errors.New("unexpected oracle call")
}

func intPtr(v int) *int { return &v }

func courses(program models.Program, semester, n int, prefix string) []models.Course {
	out := make([]models.Course, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Course{
			Name:      fmt.Sprintf("%s%d", prefix, i),
			Program:   program,
			Semesters: []int{semester},
			Hours:     intPtr(100 + i),
		})
	}
	return out
}

func names(cs []models.Course) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

var testProfile = models.StudentProfile{Background: "software engineer", Interests: "NLP", Goals: "ML engineer"}

func TestBuildSmallPoolSkipsOracle(t *testing.T) {
	oracle := &scriptedOracle{t: t}
	cat := catalog.New(courses(models.ProgramAI, 1, 3, "ml-"))
	svc := NewService(cat, oracle, nil)

	plan, err := svc.Build(context.Background(), models.ProgramAI, testProfile)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := names(plan.Semesters[1]); fmt.Sprint(got) != "[ml-1 ml-2 ml-3]" {
		t.Errorf("expected all three courses, got %v", got)
	}
	for s := 2; s <= models.SemesterCount; s++ {
		if plan.Semesters[s] == nil || len(plan.Semesters[s]) != 0 {
			t.Errorf("expected explicit empty semester %d, got %v", s, plan.Semesters[s])
		}
	}
	if len(oracle.prompts) != 0 {
		t.Errorf("oracle should not be called, got %d calls", len(oracle.prompts))
	}
}

func TestBuildFiltersInvalidOracleIndices(t *testing.T) {
	oracle := &scriptedOracle{t: t, replies: map[int]string{1: "[1, 2, 99, three, 4]"}}
	cat := catalog.New(courses(models.ProgramAI, 1, 8, "c"))
	svc := NewService(cat, oracle, nil)

	plan, err := svc.Build(context.Background(), models.ProgramAI, testProfile)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := names(plan.Semesters[1]); fmt.Sprint(got) != "[c1 c2 c4]" {
		t.Errorf("expected courses 1, 2 and 4, got %v", got)
	}
}

func TestBuildWithoutOracleUsesCatalogOrder(t *testing.T) {
	cat := catalog.New(courses(models.ProgramAIProduct, 2, 7, "p"))
	svc := NewService(cat, nil, nil)

	plan, err := svc.Build(context.Background(), models.ProgramAIProduct, testProfile)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := names(plan.Semesters[2]); fmt.Sprint(got) != "[p1 p2 p3 p4 p5]" {
		t.Errorf("expected the first five courses, got %v", got)
	}
}

func TestBuildOracleFailureFallsBack(t *testing.T) {
	var catalogCourses []models.Course
	for s := 1; s <= models.SemesterCount; s++ {
		catalogCourses = append(catalogCourses, courses(models.ProgramAI, s, 7, fmt.Sprintf("s%d-", s))...)
	}

	oracle := &scriptedOracle{
		t:       t,
		replies: map[int]string{1: "[7, 6, 5, 4, 3]", 3: "[2]", 4: "no idea"},
		errs:    map[int]error{2: context.DeadlineExceeded},
	}
	svc := NewService(catalog.New(catalogCourses), oracle, nil)

	plan, err := svc.Build(context.Background(), models.ProgramAI, testProfile)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := map[int]string{
		1: "[s1-7 s1-6 s1-5 s1-4 s1-3]",
		2: "[s2-1 s2-2 s2-3 s2-4 s2-5]",
		3: "[s3-2]",
		4: "[s4-1 s4-2 s4-3 s4-4 s4-5]",
	}
	for s, w := range want {
		if got := fmt.Sprint(names(plan.Semesters[s])); got != w {
			t.Errorf("semester %d: expected %s, got %s", s, w, got)
		}
	}

	if len(oracle.prompts) != 4 {
		t.Fatalf("expected 4 oracle calls, got %d", len(oracle.prompts))
	}
	if !strings.Contains(oracle.prompts[0], "Already selected courses: None") {
		t.Errorf("first prompt should have no selected courses:\n%s", oracle.prompts[0])
	}
	if !strings.Contains(oracle.prompts[2], "s2-1, s2-2, s2-3, s2-4, s2-5") {
		t.Errorf("third prompt should list the semester 2 fallback as already selected:\n%s", oracle.prompts[2])
	}
}

func TestBuildUnknownProgram(t *testing.T) {
	cat := catalog.New(courses(models.ProgramAI, 1, 3, "c"))
	before := cat.Courses()
	svc := NewService(cat, &scriptedOracle{t: t}, nil)

	plan, err := svc.Build(context.Background(), models.ProgramAIProduct, testProfile)
	if !errors.Is(err, ErrNoCourses) {
		t.Fatalf("expected ErrNoCourses, got %v", err)
	}
	if plan != nil {
		t.Errorf("expected no plan, got %+v", plan)
	}
	if fmt.Sprint(cat.Courses()) != fmt.Sprint(before) {
		t.Error("catalog was mutated")
	}
}

func TestBuildAllSemestersEmpty(t *testing.T) {
	cat := catalog.New([]models.Course{{Name: "Thesis", Program: models.ProgramAI}})
	svc := NewService(cat, &scriptedOracle{t: t}, nil)

	plan, err := svc.Build(context.Background(), models.ProgramAI, testProfile)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(plan.Semesters) != models.SemesterCount {
		t.Fatalf("expected %d semesters, got %d", models.SemesterCount, len(plan.Semesters))
	}
	for s := 1; s <= models.SemesterCount; s++ {
		if len(plan.Semesters[s]) != 0 {
			t.Errorf("semester %d should be empty", s)
		}
	}
}

func TestBuildAllowsCourseInSeveralSemesters(t *testing.T) {
	cat := catalog.New([]models.Course{
		{Name: "Seminar", Program: models.ProgramAI, Semesters: []int{1, 2}},
	})
	svc := NewService(cat, &scriptedOracle{t: t}, nil)

	plan, err := svc.Build(context.Background(), models.ProgramAI, testProfile)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(plan.Semesters[1]) != 1 || len(plan.Semesters[2]) != 1 {
		t.Errorf("expected the course in both semesters, got %+v", plan.Semesters)
	}
}

func TestPromptListsCandidates(t *testing.T) {
	candidates := []models.Course{
		{Name: "Deep Learning", Hours: intPtr(144)},
		{Name: "Research Seminar"},
	}
	prompt := buildSelectionPrompt(2, testProfile, []string{"Python"}, candidates)

	for _, want := range []string{
		"semester 2",
		"- Background: software engineer",
		"Already selected courses: Python",
		"1. Deep Learning (144 hours)",
		"2. Research Seminar (n/a hours)",
		"[1, 3, 5, 7, 9]",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestFormatPlan(t *testing.T) {
	plan := models.NewCurriculumPlan(models.ProgramAIProduct)
	plan.Semesters[1] = []models.Course{{Name: "Product Management", Hours: intPtr(108)}, {Name: "UX"}}

	out := FormatPlan(plan)

	for _, want := range []string{
		"AI Product program (ai_product)",
		"Semester 1:\n  1. Product Management (108 hours)\n  2. UX (n/a hours)",
		"Semester 2:\n  - no courses available",
		"Semester 4:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted plan missing %q:\n%s", want, out)
		}
	}
}
