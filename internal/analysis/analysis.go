package analysis

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gradscan/gradscan/internal/database"
	"github.com/gradscan/gradscan/internal/model"
)

// Analyzer runs the fixed question set over the applicant database.
//
// Design decision: The questions are a fixed, ordered list compiled into
// the binary rather than loaded from a file because their SQL and their
// prose belong together: each answer is only meaningful alongside the
// exact query and the explanation of its filters. An ad hoc query
// surface is a different tool.
type Analyzer struct {
	db     *database.ApplicantDB
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates an Analyzer over the given database.
func NewAnalyzer(db *database.ApplicantDB, opts ...Option) *Analyzer {
	a := &Analyzer{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// question pairs the prose of one analysis question with the function
// that answers it.
type question struct {
	id       string
	text     string
	explain  string
	sql      string
	answerFn func(ctx context.Context, db *sql.DB, sqlText string) (string, error)
}

// Run executes every question in order and returns the assembled report.
// A failing query aborts the run: a partial report silently missing
// questions would be worse than an error.
func (a *Analyzer) Run(ctx context.Context) (*model.AnalysisReport, error) {
	count, err := a.db.CountApplicants(ctx)
	if err != nil {
		return nil, err
	}
	report := model.NewAnalysisReport(count)

	for _, q := range questions() {
		answer, err := q.answerFn(ctx, a.db.DB(), q.sql)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.id, err)
		}
		report.Results = append(report.Results, model.AnalysisResult{
			ID:          q.id,
			Question:    q.text,
			Answer:      answer,
			SQL:         strings.TrimSpace(q.sql),
			Explanation: q.explain,
		})
	}

	a.logger.Info("analysis complete", "questions", len(report.Results), "rows", count)
	return report, nil
}

// questions returns the fixed question set. The date filters compare ISO
// date strings, which the loader guarantees, so a prefix match selects a
// calendar year.
func questions() []question {
	return []question{
		{
			id:       "q1",
			text:     "How many total applications were submitted for the Fall 2025 term?",
			explain:  "Counts all rows where the term starts with 'Fall 2025'.",
			sql:      `SELECT COUNT(*) FROM applicants WHERE term LIKE 'Fall 2025%'`,
			answerFn: countAnswer("%d applications"),
		},
		{
			id:      "q2",
			text:    "What percentage of all applicants are international (non-American)?",
			explain: "Calculates the ratio of applicants who are not 'American' or 'Other' against the total count.",
			sql: `
			SELECT
				CASE
					WHEN (SELECT COUNT(*) FROM applicants) = 0 THEN 0
					ELSE ROUND(100.0 * COUNT(*) / (SELECT COUNT(*) FROM applicants), 2)
				END
			FROM applicants
			WHERE us_or_international NOT IN ('American', 'Other')`,
			answerFn: percentageAnswer,
		},
		{
			id:       "q3",
			text:     "What are the average GPA and GRE scores (Quant, Verbal, AW) across the entire dataset?",
			explain:  "Computes the average for GPA and all GRE sections, rounding to 2 decimal places.",
			sql:      `SELECT ROUND(AVG(gpa), 2), ROUND(AVG(gre), 2), ROUND(AVG(gre_v), 2), ROUND(AVG(gre_aw), 2) FROM applicants`,
			answerFn: averagesAnswer,
		},
		{
			id:       "q4",
			text:     "What is the average GPA of American students who applied for Fall 2025?",
			explain:  "Filters for American students in Fall 2025 and averages their GPA.",
			sql:      `SELECT ROUND(AVG(gpa), 2) FROM applicants WHERE us_or_international = 'American' AND term LIKE 'Fall 2025%'`,
			answerFn: floatAnswer,
		},
		{
			id:      "q5",
			text:    "What is the overall acceptance rate for the Fall 2025 term?",
			explain: "Divides the number of 'Accepted' students by the total number of applicants for Fall 2025.",
			sql: `
			SELECT
				CASE
					WHEN (SELECT COUNT(*) FROM applicants WHERE term LIKE 'Fall 2025%') = 0 THEN 0
					ELSE ROUND(100.0 * COUNT(*) / (SELECT COUNT(*) FROM applicants WHERE term LIKE 'Fall 2025%'), 2)
				END
			FROM applicants
			WHERE status = 'Accepted' AND term LIKE 'Fall 2025%'`,
			answerFn: percentageAnswer,
		},
		{
			id:       "q6",
			text:     "What is the average GPA of students who were accepted for Fall 2025?",
			explain:  "Averages the GPA only for students with 'Accepted' status in Fall 2025.",
			sql:      `SELECT ROUND(AVG(gpa), 2) FROM applicants WHERE status = 'Accepted' AND term LIKE 'Fall 2025%'`,
			answerFn: floatAnswer,
		},
		{
			id:      "q7",
			text:    "How many applicants for a Masters in Computer Science applied to Johns Hopkins (JHU)?",
			explain: "Filters for JHU (using wildcards) and Masters CS programs.",
			sql: `
			SELECT COUNT(*) FROM applicants
			WHERE (university LIKE '%JHU%' OR university LIKE '%Johns Hopkins%')
				AND degree = 'Masters'
				AND program LIKE '%Computer Science%'`,
			answerFn: countAnswer("%d applicants"),
		},
		{
			id:   "q8",
			text: "Using original fields: How many CS PhD applicants were accepted to Georgetown, MIT, Stanford, or CMU in 2025?",
			explain: "Uses the 'date_added' field because the question asks for acceptances in the 2025 calendar year, " +
				"not for a 2025 term start. Dates are stored in ISO form, so a prefix match selects the year.",
			sql: `
			SELECT COUNT(*) FROM applicants
			WHERE date_added LIKE '2025%'
				AND status = 'Accepted'
				AND university IN ('Georgetown University', 'MIT', 'Stanford University', 'Carnegie Mellon University')
				AND degree = 'PhD'
				AND program LIKE '%Computer Science%'`,
			answerFn: countAnswer("%d applicants"),
		},
		{
			id:   "q9",
			text: "Using LLM fields: How many CS PhD applicants were accepted to Georgetown, MIT, Stanford, or CMU in 2025?",
			explain: "Same calendar-year logic as q8, but over the standardized university and program names " +
				"to capture variations like 'Carnegie Mellon' vs 'CMU'.",
			sql: `
			SELECT COUNT(*) FROM applicants
			WHERE date_added LIKE '2025%'
				AND status = 'Accepted'
				AND llm_generated_university IN ('Georgetown University', 'MIT', 'Stanford University', 'Carnegie Mellon University')
				AND degree = 'PhD'
				AND llm_generated_program LIKE '%Computer Science%'`,
			answerFn: countAnswer("%d applicants"),
		},
		{
			id:       "q10",
			text:     "Which academic program has the highest volume of application entries?",
			explain:  "Groups by standardized program name and sorts descending to find the most popular one.",
			sql:      `SELECT llm_generated_program, COUNT(*) AS count FROM applicants GROUP BY 1 ORDER BY 2 DESC LIMIT 1`,
			answerFn: topProgramAnswer,
		},
		{
			id:       "q11",
			text:     "How does the average GRE Quantitative score compare between PhD and Masters applicants?",
			explain:  "Groups by degree type to compare average GRE scores side by side.",
			sql:      `SELECT degree, ROUND(AVG(gre), 2) AS avg_q FROM applicants WHERE degree IN ('PhD', 'Masters') GROUP BY 1`,
			answerFn: perDegreeAnswer,
		},
	}
}

// countAnswer answers a single-count query with the given format.
func countAnswer(format string) func(context.Context, *sql.DB, string) (string, error) {
	return func(ctx context.Context, db *sql.DB, sqlText string) (string, error) {
		var count int
		if err := db.QueryRowContext(ctx, sqlText).Scan(&count); err != nil {
			return "", err
		}
		return fmt.Sprintf(format, count), nil
	}
}

// percentageAnswer answers a single-ratio query as "NN.NN%".
func percentageAnswer(ctx context.Context, db *sql.DB, sqlText string) (string, error) {
	var pct sql.NullFloat64
	if err := db.QueryRowContext(ctx, sqlText).Scan(&pct); err != nil {
		return "", err
	}
	if !pct.Valid {
		return "0%", nil
	}
	return fmt.Sprintf("%.2f%%", pct.Float64), nil
}

// floatAnswer answers a single-average query, tolerating an all-NULL
// column.
func floatAnswer(ctx context.Context, db *sql.DB, sqlText string) (string, error) {
	var avg sql.NullFloat64
	if err := db.QueryRowContext(ctx, sqlText).Scan(&avg); err != nil {
		return "", err
	}
	if !avg.Valid {
		return "No data", nil
	}
	return fmt.Sprintf("%.2f", avg.Float64), nil
}

// averagesAnswer answers the four-column averages query.
func averagesAnswer(ctx context.Context, db *sql.DB, sqlText string) (string, error) {
	var gpa, gre, greV, greAW sql.NullFloat64
	if err := db.QueryRowContext(ctx, sqlText).Scan(&gpa, &gre, &greV, &greAW); err != nil {
		return "", err
	}
	if !gpa.Valid && !gre.Valid && !greV.Valid && !greAW.Valid {
		return "No data available", nil
	}
	return fmt.Sprintf("GPA: %s | GRE Quant: %s | GRE Verbal: %s | GRE AW: %s",
		nullable(gpa), nullable(gre), nullable(greV), nullable(greAW)), nil
}

// topProgramAnswer answers the most-popular-program query.
func topProgramAnswer(ctx context.Context, db *sql.DB, sqlText string) (string, error) {
	var program sql.NullString
	var count int
	err := db.QueryRowContext(ctx, sqlText).Scan(&program, &count)
	if err == sql.ErrNoRows {
		return "No data", nil
	}
	if err != nil {
		return "", err
	}
	name := program.String
	if name == "" {
		name = "(not standardized)"
	}
	return fmt.Sprintf("%s (%d applications)", name, count), nil
}

// perDegreeAnswer answers the grouped-by-degree comparison query.
func perDegreeAnswer(ctx context.Context, db *sql.DB, sqlText string) (string, error) {
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var degree string
		var avg sql.NullFloat64
		if err := rows.Scan(&degree, &avg); err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s: %s", degree, nullable(avg)))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "No data", nil
	}
	return strings.Join(parts, " | "), nil
}

// nullable renders a nullable float for report text.
func nullable(f sql.NullFloat64) string {
	if !f.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", f.Float64)
}
