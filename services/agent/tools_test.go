package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"admissionbot/models"
	"admissionbot/services/curriculum"
)

type stubBackend struct {
	snippets []string
	err      error
	program  models.Program
	k        int
}

func (b *stubBackend) Search(ctx context.Context, query string, program models.Program, k int) ([]string, error) {
	b.program = program
	b.k = k
	return b.snippets, b.err
}

type stubBuilder struct {
	plan    *models.CurriculumPlan
	err     error
	profile models.StudentProfile
	calls   int
}

func (b *stubBuilder) Build(ctx context.Context, program models.Program, profile models.StudentProfile) (*models.CurriculumPlan, error) {
	b.calls++
	b.profile = profile
	return b.plan, b.err
}

func TestRetrieverToolCall(t *testing.T) {
	tests := []struct {
		name    string
		backend *stubBackend
		input   string
		want    string
		wantErr bool
	}{
		{
			name:    "joins snippets",
			backend: &stubBackend{snippets: []string{"Q: Cost?\nA: 599000", "Dormitory: yes"}},
			input:   `{"query": "cost", "program": "ai"}`,
			want:    "Q: Cost?\nA: 599000\nDormitory: yes",
		},
		{
			name:    "no documents",
			backend: &stubBackend{},
			input:   `{"query": "cost", "program": "ai_product"}`,
			want:    "No relevant documents found.",
		},
		{name: "empty query", backend: &stubBackend{}, input: `{"query": "  ", "program": "ai"}`, wantErr: true},
		{name: "unknown program", backend: &stubBackend{}, input: `{"query": "cost", "program": "law"}`, wantErr: true},
		{name: "bad json", backend: &stubBackend{}, input: `{`, wantErr: true},
		{name: "backend error", backend: &stubBackend{err: errors.New("timeout")}, input: `{"query": "cost", "program": "ai"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := NewRetrieverTool(tt.backend, 3)
			got, err := tool.Call(context.Background(), tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected an error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if tt.backend.k != 3 {
				t.Errorf("expected k=3, got %d", tt.backend.k)
			}
		})
	}
}

func TestCoursesRecommenderToolCall(t *testing.T) {
	plan := models.NewCurriculumPlan(models.ProgramAI)
	plan.Semesters[1] = []models.Course{{Name: "Machine Learning"}}

	t.Run("formats plan", func(t *testing.T) {
		builder := &stubBuilder{plan: plan}
		tool := NewCoursesRecommenderTool(builder)

		got, err := tool.Call(context.Background(), `{"program":"ai","background":" developer ","interests":"NLP","goals":"research"}`)
		if err != nil {
			t.Fatalf("Call() error = %v", err)
		}
		if !strings.Contains(got, "1. Machine Learning (n/a hours)") {
			t.Errorf("unexpected plan text %q", got)
		}
		if builder.profile.Background != "developer" {
			t.Errorf("expected trimmed background, got %q", builder.profile.Background)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		builder := &stubBuilder{plan: plan}
		tool := NewCoursesRecommenderTool(builder)

		_, err := tool.Call(context.Background(), `{"program":"ai","background":"developer","interests":"","goals":"research"}`)
		if err == nil {
			t.Fatal("expected an error for a missing field")
		}
		if builder.calls != 0 {
			t.Error("builder should not run without a full profile")
		}
	})

	t.Run("no courses", func(t *testing.T) {
		builder := &stubBuilder{err: fmt.Errorf("%w ai_product", curriculum.ErrNoCourses)}
		tool := NewCoursesRecommenderTool(builder)

		got, err := tool.Call(context.Background(), `{"program":"ai_product","background":"a","interests":"b","goals":"c"}`)
		if err != nil {
			t.Fatalf("ErrNoCourses should become a message, got error %v", err)
		}
		if got != "No courses found for program ai_product" {
			t.Errorf("unexpected message %q", got)
		}
	})
}

func TestToolSchemas(t *testing.T) {
	tests := []struct {
		tool AgentTool
		want []string
	}{
		{
			tool: NewRetrieverTool(&stubBackend{}, 3),
			want: []string{`"query"`, `"enum":["ai","ai_product"]`, `"required":["query","program"]`},
		},
		{
			tool: NewCoursesRecommenderTool(&stubBuilder{}),
			want: []string{`"background"`, `"interests"`, `"goals"`, `"required":["program","background","interests","goals"]`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.tool.Name(), func(t *testing.T) {
			data, err := json.Marshal(tt.tool.GetAnthropicToolSpec())
			if err != nil {
				t.Fatalf("failed to marshal schema: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(string(data), want) {
					t.Errorf("schema %s missing %s", data, want)
				}
			}
		})
	}
}
