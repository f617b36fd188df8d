// Package imei classifies IMEI-like device identifiers from their numeric
// structure alone. Nothing here performs lookups or I/O, and no input makes
// Classify fail: malformed identifiers simply score low.
package imei

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Pattern tags.
const (
	PatternNonNumeric = "non_numeric"
	PatternLuhnValid  = "luhn_valid"
	PatternSymmetric  = "symmetric"
	PatternABAB       = "repeated_abab_pattern"

	triplePrefix = "repeated_triple_"
)

// Manufacturer and device type labels.
const (
	ManufacturerPremium  = "Premium Manufacturer"
	ManufacturerTestDev  = "Test/Developer Device"
	ManufacturerStandard = "Standard Manufacturer"

	DeviceSmartphone = "Smartphone (Standard IMEI)"
	DeviceTablet     = "Tablet or larger device"
	DeviceLegacy     = "Older device or partial IMEI"
	DeviceMobile     = "Mobile device"

	AnalysisMethod = "mathematical_pattern"
)

// manufacturerByPrefix maps the first two TAC digits to a vendor. Heuristic,
// not a registry.
var manufacturerByPrefix = map[string]string{
	"35": "Apple",
	"86": "Xiaomi",
	"49": "Huawei",
	"34": "Samsung",
	"01": "Nokia",
	"10": "Google",
}

// Classification is the analysis result for one identifier.
type Classification struct {
	Raw                  string   `json:"imei"`
	Length               int      `json:"length"`
	IsNumeric            bool     `json:"isNumeric"`
	TypeAllocationPrefix string   `json:"tac"`
	Patterns             []string `json:"patterns"`
	Manufacturer         string   `json:"manufacturer"`
	DeviceType           string   `json:"deviceType"`
	QualityScore         int      `json:"qualityScore"`
	Estimated            bool     `json:"estimated"`
	AnalysisMethod       string   `json:"analysisMethod"`
	IsStructurallyValid  bool     `json:"isValid"`
	ValidationConfidence int      `json:"validationScore"`
}

// HasPattern reports whether tag is among the detected patterns.
func (c Classification) HasPattern(tag string) bool {
	for _, p := range c.Patterns {
		if p == tag {
			return true
		}
	}
	return false
}

// HasTriple reports whether a triple-repeat run was detected.
func (c Classification) HasTriple() bool {
	for _, p := range c.Patterns {
		if strings.HasPrefix(p, triplePrefix) {
			return true
		}
	}
	return false
}

// Classify analyzes a single identifier.
func Classify(identifier string) Classification {
	s := strings.TrimSpace(identifier)
	numeric := isNumeric(s)

	c := Classification{
		Raw:                  s,
		Length:               utf8.RuneCountInString(s),
		IsNumeric:            numeric,
		TypeAllocationPrefix: typeAllocationPrefix(s),
		AnalysisMethod:       AnalysisMethod,
	}

	luhn := numeric && CheckLuhn(s)
	repeat := ""
	if numeric {
		repeat = repeatedPattern(s)
	}

	c.Patterns = detectPatterns(s, numeric, luhn, repeat)
	c.Manufacturer = manufacturer(c.TypeAllocationPrefix, luhn, repeat)
	c.DeviceType = deviceType(c.Length, luhn)
	c.QualityScore = qualityScore(c)
	c.Estimated = c.QualityScore < 90
	c.IsStructurallyValid = structurallyValid(s, numeric, repeat)
	c.ValidationConfidence = validationConfidence(s, numeric, luhn)
	return c
}

// CheckLuhn runs the Luhn checksum. Only 15-digit numeric strings can pass.
func CheckLuhn(s string) bool {
	if len(s) != 15 || !isNumeric(s) {
		return false
	}
	sum := 0
	n := len(s)
	for i := n - 1; i >= 0; i-- {
		d := int(s[i] - '0')
		if (n-i)%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

func detectPatterns(s string, numeric, luhn bool, repeat string) []string {
	if !numeric {
		return []string{PatternNonNumeric}
	}

	patterns := []string{}
	if luhn {
		patterns = append(patterns, PatternLuhnValid)
	}
	if repeat != "" {
		patterns = append(patterns, repeat)
	}
	patterns = append(patterns, sequences(s)...)
	if isSymmetric(s) {
		patterns = append(patterns, PatternSymmetric)
	}
	return patterns
}

// repeatedPattern returns the first triple-run tag, else the ABAB tag, else "".
func repeatedPattern(s string) string {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == s[i+1] && s[i] == s[i+2] {
			return triplePrefix + string(s[i])
		}
	}
	for i := 0; i+3 < len(s); i++ {
		if s[i] == s[i+2] && s[i+1] == s[i+3] {
			return PatternABAB
		}
	}
	return ""
}

// sequences reports every strictly ascending or descending 3-digit run.
func sequences(s string) []string {
	var out []string
	for i := 0; i+2 < len(s); i++ {
		a, b, c := int(s[i]-'0'), int(s[i+1]-'0'), int(s[i+2]-'0')
		switch {
		case a+1 == b && b+1 == c:
			out = append(out, fmt.Sprintf("asc_seq_%d-%d", a, c))
		case a-1 == b && b-1 == c:
			out = append(out, fmt.Sprintf("desc_seq_%d-%d", a, c))
		}
	}
	return out
}

func isSymmetric(s string) bool {
	if len(s) < 2 {
		return false
	}
	half := len(s) / 2
	for i := 0; i < half; i++ {
		if s[i] != s[len(s)-1-i] {
			return false
		}
	}
	return true
}

func manufacturer(prefix string, luhn bool, repeat string) string {
	if r := []rune(prefix); len(r) >= 2 {
		if name, ok := manufacturerByPrefix[string(r[:2])]; ok {
			return name
		}
	}
	switch {
	case luhn:
		return ManufacturerPremium
	case repeat != "":
		return ManufacturerTestDev
	default:
		return ManufacturerStandard
	}
}

func deviceType(length int, luhn bool) string {
	switch {
	case length == 15 && luhn:
		return DeviceSmartphone
	case length == 16:
		return DeviceTablet
	case length < 15:
		return DeviceLegacy
	default:
		return DeviceMobile
	}
}

func qualityScore(c Classification) int {
	score := 50
	if c.Length == 15 {
		score += 20
	} else if c.Length >= 14 {
		score += 10
	}
	if c.IsNumeric {
		score += 15
	}
	if c.HasPattern(PatternLuhnValid) {
		score += 25
	}
	if !c.HasTriple() {
		score += 10
	}
	return clamp(score)
}

func structurallyValid(s string, numeric bool, repeat string) bool {
	if len(s) < 10 || len(s) > 20 || !numeric {
		return false
	}
	zeros := strings.Count(s, "0")
	if float64(zeros) > float64(len(s))*0.8 {
		return false
	}
	return !strings.HasPrefix(repeat, triplePrefix)
}

func validationConfidence(s string, numeric, luhn bool) int {
	if s == "" {
		return 0
	}
	if !numeric {
		return 20
	}
	score := 30
	if len(s) >= 14 && len(s) <= 16 {
		score += 30
	} else if len(s) >= 10 {
		score += 20
	}
	if len(s) == 15 && luhn {
		score += 40
	}
	return clamp(score)
}

// typeAllocationPrefix cuts by character so non-ASCII input never splits a rune.
func typeAllocationPrefix(s string) string {
	r := []rune(s)
	switch {
	case len(r) >= 8:
		return string(r[:8])
	case len(r) >= 6:
		return string(r[:6])
	default:
		return s
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
