package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"admissionbot/models"
	"admissionbot/services/curriculum"
	"admissionbot/services/retrieval"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
)

// AgentTool interface that all tools must implement
type AgentTool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
	GetAnthropicToolSpec() anthropic.ToolInputSchemaParam
}

func generateAnthropicSchema[T any]() anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
		Required:   schema.Required,
	}
}

const noDocumentsFound = "No relevant documents found."

type RetrieverToolInput struct {
	Query   string `json:"query" jsonschema:"required,minLength=1,description=Short search query of one to three phrases"`
	Program string `json:"program" jsonschema:"required,enum=ai,enum=ai_product,description=Program tag to search in"`
}

type RetrieverTool struct {
	backend retrieval.Backend
	k       int
}

func NewRetrieverTool(backend retrieval.Backend, k int) RetrieverTool {
	return RetrieverTool{backend: backend, k: k}
}

func (r RetrieverTool) Name() string {
	return "retriever"
}

func (r RetrieverTool) Description() string {
	return "Searches the admission materials of a program for snippets relevant to the query"
}

func (r RetrieverTool) Call(ctx context.Context, input string) (string, error) {
	var params RetrieverToolInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse retriever tool input: %v", err)
	}

	query := strings.TrimSpace(params.Query)
	if query == "" {
		return "", fmt.Errorf("parameter 'query' is required and cannot be empty")
	}

	program, err := models.ParseProgram(params.Program)
	if err != nil {
		return "", err
	}

	snippets, err := r.backend.Search(ctx, query, program, r.k)
	if err != nil {
		return "", fmt.Errorf("failed to search documents: %v", err)
	}

	if len(snippets) == 0 {
		return noDocumentsFound, nil
	}

	return strings.Join(snippets, "\n"), nil
}

func (r RetrieverTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[RetrieverToolInput]()
}

type CoursesRecommenderToolInput struct {
	Program    string `json:"program" jsonschema:"required,enum=ai,enum=ai_product,description=Program tag to build the plan for"`
	Background string `json:"background" jsonschema:"required,description=Applicant education and work experience"`
	Interests  string `json:"interests" jsonschema:"required,description=Topics the applicant is interested in"`
	Goals      string `json:"goals" jsonschema:"required,description=What the applicant wants to achieve after graduating"`
}

type PlanBuilder interface {
	Build(ctx context.Context, program models.Program, profile models.StudentProfile) (*models.CurriculumPlan, error)
}

type CoursesRecommenderTool struct {
	builder PlanBuilder
}

func NewCoursesRecommenderTool(builder PlanBuilder) CoursesRecommenderTool {
	return CoursesRecommenderTool{builder: builder}
}

func (c CoursesRecommenderTool) Name() string {
	return "courses_recommender"
}

func (c CoursesRecommenderTool) Description() string {
	return "Recommends a four-semester study plan of program courses based on the applicant profile"
}

func (c CoursesRecommenderTool) Call(ctx context.Context, input string) (string, error) {
	var params CoursesRecommenderToolInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse courses recommender tool input: %v", err)
	}

	profile := models.StudentProfile{
		Background: strings.TrimSpace(params.Background),
		Interests:  strings.TrimSpace(params.Interests),
		Goals:      strings.TrimSpace(params.Goals),
	}
	if params.Program == "" || profile.Background == "" || profile.Interests == "" || profile.Goals == "" {
		return "", fmt.Errorf("all parameters (program, background, interests, goals) must be filled in")
	}

	program, err := models.ParseProgram(params.Program)
	if err != nil {
		return "", err
	}

	plan, err := c.builder.Build(ctx, program, profile)
	if errors.Is(err, curriculum.ErrNoCourses) {
		return fmt.Sprintf("No courses found for program %s", program), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to build study plan: %v", err)
	}

	return curriculum.FormatPlan(plan), nil
}

func (c CoursesRecommenderTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[CoursesRecommenderToolInput]()
}
