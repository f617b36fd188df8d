package imei

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Item is an identifier with the ledger context it was recorded under.
type Item struct {
	Identifier string `json:"imei"`
	Technician string `json:"technician,omitempty"`
	Status     string `json:"status,omitempty"`
	Date       string `json:"date,omitempty"`
}

// ClassifiedItem pairs a classification with the input it came from.
type ClassifiedItem struct {
	Classification
	Original any `json:"originalData"`
}

// ClassifyMany classifies each item in input order. Items may be strings,
// Item values, numbers, or JSON-decoded objects carrying an "imei" or
// "identifier" key. Numbers keep their digits; decode with UseNumber to keep
// identifiers beyond float64 precision exact. Unrecognized items are
// classified by their string form.
func ClassifyMany(items []any) []ClassifiedItem {
	out := make([]ClassifiedItem, 0, len(items))
	for _, item := range items {
		out = append(out, ClassifiedItem{
			Classification: Classify(identifierOf(item)),
			Original:       item,
		})
	}
	return out
}

// ClassifyItems is the typed variant of ClassifyMany used by reporting.
func ClassifyItems(items []Item) []ClassifiedItem {
	out := make([]ClassifiedItem, 0, len(items))
	for _, item := range items {
		out = append(out, ClassifiedItem{
			Classification: Classify(item.Identifier),
			Original:       item,
		})
	}
	return out
}

func identifierOf(item any) string {
	switch v := item.(type) {
	case nil:
		return ""
	case string:
		return v
	case Item:
		return v.Identifier
	case *Item:
		if v == nil {
			return ""
		}
		return v.Identifier
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any:
		for _, key := range []string{"imei", "identifier"} {
			switch id := v[key].(type) {
			case string, json.Number, float64:
				if s := identifierOf(id); s != "" {
					return s
				}
			}
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Stats summarizes a batch of classifications.
type Stats struct {
	Total            int `json:"total"`
	ValidCount       int `json:"validCount"`
	InvalidCount     int `json:"invalidCount"`
	ValidationRate   int `json:"validationRate"`
	AverageScore     int `json:"averageScore"`
	BestQualityScore int `json:"bestQualityScore"`
}

// Summarize computes batch statistics; an empty batch yields zeros.
func Summarize(cs []Classification) Stats {
	st := Stats{Total: len(cs)}
	if len(cs) == 0 {
		return st
	}
	sum := 0
	for _, c := range cs {
		if c.IsStructurallyValid {
			st.ValidCount++
		}
		sum += c.QualityScore
		if c.QualityScore > st.BestQualityScore {
			st.BestQualityScore = c.QualityScore
		}
	}
	st.InvalidCount = st.Total - st.ValidCount
	st.ValidationRate = Percent(st.ValidCount, st.Total)
	st.AverageScore = int(math.Round(float64(sum) / float64(st.Total)))
	return st
}

// Count is a label with its frequency.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopPatterns returns the n most frequent pattern tags. Ties keep the order
// in which tags were first seen.
func TopPatterns(cs []Classification, n int) []string {
	counts := countBy(cs, func(c Classification) []string { return c.Patterns })
	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	out := make([]string, 0, len(counts))
	for _, c := range counts {
		out = append(out, c.Label)
	}
	return out
}

// ManufacturerDistribution counts classifications per manufacturer label,
// most frequent first.
func ManufacturerDistribution(cs []Classification) []Count {
	return countBy(cs, func(c Classification) []string { return []string{c.Manufacturer} })
}

// Quality bucket labels.
const (
	BucketExcellent = "Excellent (90-100)"
	BucketGood      = "Good (70-89)"
	BucketFair      = "Fair (50-69)"
	BucketPoor      = "Poor (0-49)"
)

// QualityBuckets counts classifications per fixed quality range, always in
// descending bucket order and including empty buckets.
func QualityBuckets(cs []Classification) []Count {
	buckets := []Count{{Label: BucketExcellent}, {Label: BucketGood}, {Label: BucketFair}, {Label: BucketPoor}}
	for _, c := range cs {
		switch {
		case c.QualityScore >= 90:
			buckets[0].Count++
		case c.QualityScore >= 70:
			buckets[1].Count++
		case c.QualityScore >= 50:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}
	return buckets
}

// Percent returns part/total as a rounded percentage, 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func countBy(cs []Classification, keys func(Classification) []string) []Count {
	index := map[string]int{}
	var counts []Count
	for _, c := range cs {
		for _, k := range keys(c) {
			i, ok := index[k]
			if !ok {
				i = len(counts)
				index[k] = i
				counts = append(counts, Count{Label: k})
			}
			counts[i].Count++
		}
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

// Classifications unwraps a batch of classified items.
func Classifications(items []ClassifiedItem) []Classification {
	out := make([]Classification, 0, len(items))
	for _, it := range items {
		out = append(out, it.Classification)
	}
	return out
}
