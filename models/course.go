package models

import (
	"errors"
	"fmt"
	"strings"
)

type Program string

const (
	ProgramAI        Program = "ai"
	ProgramAIProduct Program = "ai_product"
)

var Programs = []Program{ProgramAI, ProgramAIProduct}

var ErrUnknownProgram = errors.New("unknown program")

func ParseProgram(value string) (Program, error) {
	program := Program(strings.ToLower(strings.TrimSpace(value)))
	switch program {
	case ProgramAI, ProgramAIProduct:
		return program, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProgram, value)
}

func (p Program) Title() string {
	switch p {
	case ProgramAI:
		return "Artificial Intelligence"
	case ProgramAIProduct:
		return "AI Product"
	}
	return string(p)
}

const SemesterCount = 4

type Course struct {
	Name      string  `json:"name" yaml:"name" db:"name"`
	Program   Program `json:"program" yaml:"program" db:"program"`
	Semesters []int   `json:"semesters" yaml:"semesters" db:"semesters"`
	Hours     *int    `json:"hours,omitempty" yaml:"hours,omitempty" db:"hours"`
	Credits   *int    `json:"credits,omitempty" yaml:"credits,omitempty" db:"credits"`
}

func (c Course) OfferedIn(semester int) bool {
	for _, s := range c.Semesters {
		if s == semester {
			return true
		}
	}
	return false
}

type StudentProfile struct {
	Background string `json:"background"`
	Interests  string `json:"interests"`
	Goals      string `json:"goals"`
}

// CurriculumPlan maps semester number (1..SemesterCount) to the courses
// selected for it. Every semester has an entry, possibly empty.
type CurriculumPlan struct {
	Program   Program          `json:"program"`
	Semesters map[int][]Course `json:"semesters"`
}

func NewCurriculumPlan(program Program) *CurriculumPlan {
	plan := &CurriculumPlan{
		Program:   program,
		Semesters: make(map[int][]Course, SemesterCount),
	}
	for s := 1; s <= SemesterCount; s++ {
		plan.Semesters[s] = []Course{}
	}
	return plan
}
