package service

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/pkg/logger"
)

// Dimension is one of the six fixed quality dimensions
type Dimension string

const (
	DimensionCompleteness Dimension = "completeness"
	DimensionAccuracy     Dimension = "accuracy"
	DimensionConsistency  Dimension = "consistency"
	DimensionValidity     Dimension = "validity"
	DimensionUniqueness   Dimension = "uniqueness"
	DimensionTimeliness   Dimension = "timeliness"
)

// dimensionOrder fixes iteration order so repeated validation runs over the
// same batch produce identical reports
var dimensionOrder = []Dimension{
	DimensionCompleteness,
	DimensionAccuracy,
	DimensionConsistency,
	DimensionValidity,
	DimensionUniqueness,
	DimensionTimeliness,
}

// QualityLevel maps a score to a coarse label
type QualityLevel string

const (
	LevelExcellent QualityLevel = "excellent"
	LevelGood      QualityLevel = "good"
	LevelFair      QualityLevel = "fair"
	LevelPoor      QualityLevel = "poor"
)

// Rule is a named predicate over one field. A rule that panics counts as a
// failed check for that record; it never aborts the validation pass.
type Rule struct {
	Name  string
	Field string
	Check func(value interface{}) bool
}

// DimensionReport is the outcome of all rule evaluations for one dimension
type DimensionReport struct {
	Score         float64      `json:"score"`
	Level         QualityLevel `json:"level"`
	Passed        int          `json:"passed"`
	Total         int          `json:"total"`
	FailedRecords int          `json:"failed_records"`
}

// QualityReport is the result of validating a record batch. Dimensions with
// no applicable rule evaluations are omitted, not scored as zero.
type QualityReport struct {
	OverallScore    float64                       `json:"overall_score"`
	OverallLevel    QualityLevel                  `json:"overall_level"`
	Dimensions      map[Dimension]DimensionReport `json:"dimensions"`
	Recommendations []string                      `json:"recommendations"`
}

// QualityService validates and scores candidate records across the fixed
// dimensions and normalizes mutable string fields.
type QualityService struct {
	rules map[Dimension][]Rule
}

func NewQualityService() *QualityService {
	return &QualityService{rules: defaultRules()}
}

var (
	ratingTextPattern    = regexp.MustCompile(`(?i)^(unrated|unavailable)$`)
	ratingNumericPattern = regexp.MustCompile(`(?i)^\d+(\.\d+)?\s*(stars?)?$`)
	numberPattern        = regexp.MustCompile(`\d+(\.\d+)?`)
	phonePattern         = regexp.MustCompile(`^[\d\s()+\-.]{7,}$`)
)

func defaultRules() map[Dimension][]Rule {
	return map[Dimension][]Rule{
		DimensionCompleteness: {
			{Name: "name_present", Field: "name", Check: func(v interface{}) bool {
				name := strings.TrimSpace(asString(v))
				return name != "" && name != "Unknown"
			}},
			{Name: "address_present", Field: "address", Check: func(v interface{}) bool {
				return strings.TrimSpace(asString(v)) != ""
			}},
			{Name: "phone_present", Field: "phone", Check: func(v interface{}) bool {
				return strings.TrimSpace(asString(v)) != ""
			}},
		},
		DimensionAccuracy: {
			{Name: "rating_format", Field: "rating", Check: func(v interface{}) bool {
				rating := strings.TrimSpace(asString(v))
				return ratingTextPattern.MatchString(rating) || ratingNumericPattern.MatchString(rating)
			}},
			{Name: "latitude_range", Field: "latitude", Check: func(v interface{}) bool {
				lat, ok := asFloat(v)
				return ok && lat >= -90 && lat <= 90
			}},
			{Name: "longitude_range", Field: "longitude", Check: func(v interface{}) bool {
				lng, ok := asFloat(v)
				return ok && lng >= -180 && lng <= 180
			}},
		},
		DimensionConsistency: {
			{Name: "review_count_non_negative", Field: "review_count", Check: func(v interface{}) bool {
				count, ok := asFloat(v)
				return ok && count >= 0
			}},
			{Name: "phone_format", Field: "phone", Check: func(v interface{}) bool {
				phone := strings.TrimSpace(asString(v))
				return phone == "" || phonePattern.MatchString(phone)
			}},
		},
		DimensionValidity: {
			{Name: "website_url", Field: "website", Check: func(v interface{}) bool {
				website := strings.TrimSpace(asString(v))
				if website == "" {
					return true
				}
				parsed, err := url.Parse(website)
				return err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
			}},
			{Name: "rating_in_range", Field: "rating", Check: func(v interface{}) bool {
				raw := numberPattern.FindString(asString(v))
				if raw == "" {
					return true // non-numeric ratings like "Unrated" carry no range to check
				}
				value, err := strconv.ParseFloat(raw, 64)
				return err == nil && value >= 0 && value <= 5
			}},
		},
		DimensionUniqueness: {
			{Name: "place_id_present", Field: "place_id", Check: func(v interface{}) bool {
				return strings.TrimSpace(asString(v)) != ""
			}},
		},
		DimensionTimeliness: {
			{Name: "extracted_recently", Field: "extracted_at", Check: checkExtractedRecently},
		},
	}
}

// Validate evaluates every applicable rule over every record and aggregates
// per-dimension pass rates. Deterministic for a fixed rule set and batch.
func (s *QualityService) Validate(records []map[string]interface{}) *QualityReport {
	report := &QualityReport{
		Dimensions: make(map[Dimension]DimensionReport),
	}

	var scoreSum float64
	var scored int
	for _, dimension := range dimensionOrder {
		rules := s.rules[dimension]

		var passed, total, failedRecords int
		for _, record := range records {
			recordFailed := false
			for _, rule := range rules {
				value, applicable := record[rule.Field]
				if !applicable {
					continue
				}
				total++
				if safeCheck(rule, value) {
					passed++
				} else {
					recordFailed = true
				}
			}
			if recordFailed {
				failedRecords++
			}
		}

		if total == 0 {
			// No applicable rules for this batch; the dimension is omitted
			continue
		}

		score := float64(passed) / float64(total)
		report.Dimensions[dimension] = DimensionReport{
			Score:         score,
			Level:         levelFor(score),
			Passed:        passed,
			Total:         total,
			FailedRecords: failedRecords,
		}
		scoreSum += score
		scored++
	}

	if scored > 0 {
		report.OverallScore = scoreSum / float64(scored)
	}
	report.OverallLevel = levelFor(report.OverallScore)
	report.Recommendations = s.recommendations(report, len(records))

	logger.Debug("Quality validation completed", map[string]interface{}{
		"records":       len(records),
		"overall_score": report.OverallScore,
		"overall_level": report.OverallLevel,
	})
	return report
}

func (s *QualityService) recommendations(report *QualityReport, recordCount int) []string {
	var recommendations []string
	for _, dimension := range dimensionOrder {
		dim, ok := report.Dimensions[dimension]
		if !ok || dim.Level != LevelPoor {
			continue
		}
		recommendations = append(recommendations, fmt.Sprintf(
			"%s: %d of %d records failed at least one check",
			dimension, dim.FailedRecords, recordCount,
		))
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Data quality is acceptable across all dimensions")
	}
	return recommendations
}

// CleanRecord normalizes the mutable string fields of one record. Cleaning
// never fails: any internal error leaves the record untouched.
func (s *QualityService) CleanRecord(record map[string]interface{}) (cleaned map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Cleaning failed for record, keeping original", map[string]interface{}{
				"reason": fmt.Sprint(r),
			})
			cleaned = record
		}
	}()

	cleaned = make(map[string]interface{}, len(record))
	for k, v := range record {
		cleaned[k] = v
	}

	if raw, ok := cleaned["name"]; ok {
		name := strings.Join(strings.Fields(asString(raw)), " ")
		if name == "" {
			name = "Unknown"
		}
		cleaned["name"] = name
	}

	if raw, ok := cleaned["rating"]; ok {
		cleaned["rating"] = normalizeRating(asString(raw))
	}

	return cleaned
}

// CleanAll cleans a batch with per-record fault isolation
func (s *QualityService) CleanAll(records []map[string]interface{}) []map[string]interface{} {
	cleaned := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		cleaned = append(cleaned, s.CleanRecord(record))
	}
	return cleaned
}

// ScoreExtraction flattens an extraction into a record map, validates it and
// returns a 0-100 score suitable for storing alongside the business row.
func (s *QualityService) ScoreExtraction(extraction *model.BusinessExtraction) (int, *QualityReport) {
	report := s.Validate([]map[string]interface{}{extraction.ToRecordMap()})
	return int(report.OverallScore*100 + 0.5), report
}

// normalizeRating extracts the first numeric substring; values in [0,5] are
// rendered as "{value} stars", anything else passes through unchanged.
func normalizeRating(rating string) string {
	raw := numberPattern.FindString(rating)
	if raw == "" {
		return rating
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 || value > 5 {
		return rating
	}
	return strconv.FormatFloat(value, 'f', -1, 64) + " stars"
}

// checkExtractedRecently accepts timestamps within the last 30 days and not
// in the future. Records without an extracted_at field skip this dimension
// entirely rather than failing it.
func checkExtractedRecently(v interface{}) bool {
	var extracted time.Time
	switch t := v.(type) {
	case time.Time:
		extracted = t
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			parsed, err = time.Parse("2006-01-02 15:04:05", t)
		}
		if err != nil {
			return false
		}
		extracted = parsed
	default:
		return false
	}

	now := time.Now()
	return !extracted.After(now) && now.Sub(extracted) <= 30*24*time.Hour
}

func safeCheck(rule Rule, value interface{}) (passed bool) {
	defer func() {
		if r := recover(); r != nil {
			passed = false
		}
	}()
	return rule.Check(value)
}

func levelFor(score float64) QualityLevel {
	switch {
	case score >= 0.90:
		return LevelExcellent
	case score >= 0.75:
		return LevelGood
	case score >= 0.60:
		return LevelFair
	default:
		return LevelPoor
	}
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
