package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"crm-pipeline/internal/model"
	"crm-pipeline/pkg/utils"
)

// Aggregate computes summary-card metrics over the filtered,
// pre-pagination set. Every spec yields a value; empty input and
// division by zero yield 0.
func Aggregate(filtered []model.Record, specs []model.MetricSpec, now time.Time) map[string]float64 {
	results := make(map[string]float64, len(specs))
	for _, spec := range specs {
		results[MetricName(spec)] = computeMetric(filtered, spec, now)
	}
	return results
}

// MetricName is the result key for a spec: its Name, else kind[_field].
func MetricName(spec model.MetricSpec) string {
	if spec.Name != "" {
		return spec.Name
	}
	if spec.Field != "" {
		return fmt.Sprintf("%s_%s", spec.Kind, spec.Field)
	}
	return string(spec.Kind)
}

func computeMetric(filtered []model.Record, spec model.MetricSpec, now time.Time) float64 {
	kind := model.MetricKind(strings.ToLower(string(spec.Kind)))
	subset := filtered
	if spec.Where != nil && kind != model.MetricPercentage {
		subset = Filter(filtered, BuildPredicate(*spec.Where, now))
	}

	switch kind {
	case model.MetricCount:
		return float64(len(subset))
	case model.MetricSum:
		sum, _ := sumField(subset, spec.Field)
		return sum
	case model.MetricAvg:
		sum, n := sumField(subset, spec.Field)
		if n == 0 {
			return 0
		}
		return sum / float64(n)
	case model.MetricMin:
		return extremeField(subset, spec.Field, func(candidate, current float64) bool { return candidate < current })
	case model.MetricMax:
		return extremeField(subset, spec.Field, func(candidate, current float64) bool { return candidate > current })
	case model.MetricPercentage:
		return percentage(filtered, spec.Where, now)
	default:
		return 0
	}
}

// percentage is matching(where) / len(filtered) * 100.
func percentage(filtered []model.Record, where *model.FilterCriteria, now time.Time) float64 {
	if len(filtered) == 0 {
		return 0
	}
	matched := len(filtered)
	if where != nil {
		matched = len(Filter(filtered, BuildPredicate(*where, now)))
	}
	return float64(matched) / float64(len(filtered)) * 100
}

// sumField adds every numeric value of field; n counts contributing records.
func sumField(records []model.Record, field string) (sum float64, n int) {
	for _, rec := range records {
		v, ok := rec.Lookup(field)
		if !ok {
			continue
		}
		if num, ok := utils.ToFloat(v); ok {
			sum += num
			n++
		}
	}
	return sum, n
}

func extremeField(records []model.Record, field string, better func(candidate, current float64) bool) float64 {
	var result float64
	found := false
	for _, rec := range records {
		v, ok := rec.Lookup(field)
		if !ok {
			continue
		}
		num, ok := utils.ToFloat(v)
		if !ok {
			continue
		}
		if !found || better(num, result) {
			result = num
			found = true
		}
	}
	return result
}

// Breakdown counts records per value of a categorical field, largest
// group first and ties by value. Records without the field are skipped.
func Breakdown(records []model.Record, field string) []model.GroupCount {
	counts := make(map[string]int)
	for _, rec := range records {
		v, ok := rec.Lookup(field)
		if !ok || v == nil {
			continue
		}
		counts[utils.FormatValue(v)]++
	}

	groups := make([]model.GroupCount, 0, len(counts))
	for value, count := range counts {
		groups = append(groups, model.GroupCount{Value: value, Count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Value < groups[j].Value
	})
	return groups
}
