package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"admissionbot/models"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

type CatalogRepository interface {
	LoadCourses(ctx context.Context) ([]models.Course, error)
}

// FileCatalogRepository reads course records from JSON or YAML files. A file
// that cannot be read or decoded is logged and skipped.
type FileCatalogRepository struct {
	paths []string
}

func NewFileCatalogRepository(paths []string) *FileCatalogRepository {
	return &FileCatalogRepository{paths: paths}
}

func (r *FileCatalogRepository) LoadCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	loaded := 0

	for _, path := range r.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := readCourseFile(path)
		if err != nil {
			log.Printf("[ERROR] Skipping catalog file %s: %v", path, err)
			continue
		}
		loaded++

		for _, record := range records {
			course, ok := normalizeCourse(record)
			if !ok {
				log.Printf("[WARN] Skipping catalog record %q in %s", record.Name, path)
				continue
			}
			courses = append(courses, course)
		}
	}

	log.Printf("[INFO] Loaded %d courses from %d catalog files", len(courses), loaded)
	return courses, nil
}

func readCourseFile(path string) ([]models.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var records []models.Course
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode courses: %w", err)
	}

	return records, nil
}

// normalizeCourse rejects records without a name or a known program and
// drops semester numbers outside 1..SemesterCount.
func normalizeCourse(c models.Course) (models.Course, bool) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, false
	}

	program, err := models.ParseProgram(string(c.Program))
	if err != nil {
		return c, false
	}
	c.Program = program

	semesters := make([]int, 0, len(c.Semesters))
	for _, s := range c.Semesters {
		if s >= 1 && s <= models.SemesterCount {
			semesters = append(semesters, s)
		}
	}
	c.Semesters = semesters

	return c, true
}

type PostgresCatalogRepository struct {
	db *sql.DB
}

func NewPostgresCatalogRepository(databaseURL string) (*PostgresCatalogRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresCatalogRepository{db: db}, nil
}

func (r *PostgresCatalogRepository) LoadCourses(ctx context.Context) ([]models.Course, error) {
	query := `
		SELECT name, program, semesters, hours, credits
		FROM admissions.courses
		ORDER BY program, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var (
			record    models.Course
			program   string
			semesters pq.Int64Array
			hours     sql.NullInt64
			credits   sql.NullInt64
		)

		if err := rows.Scan(&record.Name, &program, &semesters, &hours, &credits); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}

		record.Program = models.Program(program)
		for _, s := range semesters {
			record.Semesters = append(record.Semesters, int(s))
		}
		if hours.Valid {
			h := int(hours.Int64)
			record.Hours = &h
		}
		if credits.Valid {
			c := int(credits.Int64)
			record.Credits = &c
		}

		course, ok := normalizeCourse(record)
		if !ok {
			log.Printf("[WARN] Skipping catalog row %q", record.Name)
			continue
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}

	return courses, nil
}

func (r *PostgresCatalogRepository) Close() error {
	return r.db.Close()
}
