package database

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/gradscan/gradscan/internal/model"
)

// Applicant is one database row: the typed, normalized form of a scraped
// record. Numeric fields are nullable because most survey entries omit
// scores, and a NULL is more honest than a zero in averages.
type Applicant struct {
	PID           int64
	University    string
	Program       string
	Comments      string
	DateAdded     string
	URL           string
	Status        string
	Term          string
	Citizenship   string
	GPA           sql.NullFloat64
	GRE           sql.NullFloat64
	GREVerbal     sql.NullFloat64
	GREAW         sql.NullFloat64
	Degree        string
	LLMProgram    string
	LLMUniversity string
}

// dateLayouts are the date formats the survey has used over time. Dates
// are normalized to ISO (2006-01-02) so that string comparison in SQL
// orders chronologically.
var dateLayouts = []string{
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
}

// NormalizeRecord converts a scraped record into a database row. The
// second return value is false when the record carries no usable numeric
// identifier and must be skipped.
func NormalizeRecord(rec model.Record) (Applicant, bool) {
	pid, ok := recordID(rec)
	if !ok {
		return Applicant{}, false
	}

	return Applicant{
		PID:           pid,
		University:    strings.TrimSpace(rec.University),
		Program:       strings.TrimSpace(rec.Program),
		Comments:      strings.TrimSpace(rec.Comments),
		DateAdded:     normalizeDate(rec.DateAdded),
		URL:           rec.URL,
		Status:        strings.TrimSpace(rec.Status),
		Term:          rec.Term,
		Citizenship:   rec.Citizenship,
		GPA:           parseFloat(rec.GPA),
		GRE:           parseFloat(rec.GREQuant),
		GREVerbal:     parseFloat(rec.GREVerbal),
		GREAW:         parseFloat(rec.GREAW),
		Degree:        strings.TrimSpace(rec.Degree),
		LLMProgram:    strings.TrimSpace(rec.LLMProgram),
		LLMUniversity: strings.TrimSpace(rec.LLMUniversity),
	}, true
}

// NormalizeRecords converts a slice of records, dropping the ones without
// identifiers. It returns the rows and how many records were skipped.
func NormalizeRecords(records []model.Record) ([]Applicant, int) {
	applicants := make([]Applicant, 0, len(records))
	skipped := 0
	for _, rec := range records {
		a, ok := NormalizeRecord(rec)
		if !ok {
			skipped++
			continue
		}
		applicants = append(applicants, a)
	}
	return applicants, skipped
}

// recordID resolves the numeric identifier, falling back to the detail
// URL for older data files that predate the explicit identifier field.
func recordID(rec model.Record) (int64, bool) {
	id := rec.ResultID
	if id == "" {
		id = model.IDFromURL(rec.URL)
	}
	if id == "" {
		return 0, false
	}
	pid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return pid, true
}

// normalizeDate converts a survey date string to ISO form. Unparseable
// inputs pass through unchanged rather than being discarded; an oddly
// shaped date is still better than an empty one.
func normalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// parseFloat converts a free-text numeric field to a nullable float.
func parseFloat(raw string) sql.NullFloat64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
