package triage

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Tier 表示症状报告的紧急程度。
type Tier string

const (
	TierNormal  Tier = "normal"
	TierChronic Tier = "warning-chronic"
	TierSevere  Tier = "severe"
)

// ChronicThresholdDays is the smallest duration treated as chronic.
const ChronicThresholdDays = 4

var durationPattern = regexp.MustCompile(`(\d+)\s*day`)

// Result 汇总一次分诊的结果。
type Result struct {
	Tier           Tier           `json:"tier"`
	Specialization Specialization `json:"specialization,omitempty"`
	Days           int            `json:"days,omitempty"`
	MatchedKeyword string         `json:"matchedKeyword,omitempty"`
}

// NeedsReferral reports whether the tier carries a specialization and map link.
func (r Result) NeedsReferral() bool {
	return r.Tier == TierSevere || r.Tier == TierChronic
}

// Classify runs the severity check, then the duration check, then falls back to normal.
func Classify(input string) Result {
	text := normalize(input)

	if keyword, ok := matchSevere(text); ok {
		return Result{
			Tier:           TierSevere,
			Specialization: specializationFor(text),
			Days:           extractDays(text),
			MatchedKeyword: keyword,
		}
	}

	days := extractDays(text)
	if days >= ChronicThresholdDays {
		return Result{
			Tier:           TierChronic,
			Specialization: specializationFor(text),
			Days:           days,
		}
	}

	return Result{Tier: TierNormal, Days: days}
}

// IsSevere reports whether the text contains any severe phrase.
func IsSevere(input string) bool {
	_, ok := matchSevere(normalize(input))
	return ok
}

// DurationDays returns the number before the first "day" token, or 0 when absent.
// Only the first match is considered; later numbers in the same text are ignored.
func DurationDays(input string) int {
	return extractDays(normalize(input))
}

// IsChronic reports whether the reported duration reaches the chronic threshold.
func IsChronic(input string) bool {
	return DurationDays(input) >= ChronicThresholdDays
}

// SpecializationFor picks the referral category, General Medicine when nothing matches.
func SpecializationFor(input string) Specialization {
	return specializationFor(normalize(input))
}

func matchSevere(text string) (string, bool) {
	for _, keyword := range severeKeywords {
		if strings.Contains(text, keyword) {
			return keyword, true
		}
	}
	return "", false
}

func specializationFor(text string) Specialization {
	for _, rule := range specializationRules {
		if containsAny(text, rule.Keywords) {
			return rule.Specialization
		}
	}
	return GeneralMedicine
}

func extractDays(text string) int {
	match := durationPattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	days, err := strconv.Atoi(match[1])
	if err != nil {
		// 数字溢出时视为极长病程。
		return math.MaxInt
	}
	return days
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func normalize(input string) string {
	text := strings.ToLower(input)
	// 兼容移动端输入法的弯引号，"can’t breathe" 与 "can't breathe" 等价。
	return strings.ReplaceAll(text, "’", "'")
}
