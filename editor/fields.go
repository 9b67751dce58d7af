package editor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/selka/planetcore/engine/schema"
	"github.com/selka/planetcore/types"
)

// field is one editable line of the detail pane. get renders the
// current value; set parses an input string back into the record.
type field struct {
	label string
	get   func(rec *types.EventRecord) string
	set   func(rec *types.EventRecord, v string)
}

// eventFields builds the editable field list for a record. The list is
// rebuilt whenever the record's shape changes, so condition and effect
// indexes stay in step with the record.
func eventFields(rec *types.EventRecord) []field {
	fields := []field{
		{
			label: "id",
			get:   func(r *types.EventRecord) string { return r.ID },
			set:   func(r *types.EventRecord, v string) { r.ID = v },
		},
		{
			label: "name",
			get:   func(r *types.EventRecord) string { return r.Name },
			set:   func(r *types.EventRecord, v string) { r.Name = v },
		},
		{
			label: "region",
			get:   func(r *types.EventRecord) string { return r.Region },
			set:   func(r *types.EventRecord, v string) { r.Region = v },
		},
		{
			label: "probability",
			get:   func(r *types.EventRecord) string { return r.Probability },
			set:   func(r *types.EventRecord, v string) { r.Probability = v },
		},
	}

	for i := range rec.Conditions {
		i := i
		prefix := fmt.Sprintf("when[%d]", i)
		fields = append(fields,
			field{
				label: prefix + ".kind",
				get:   func(r *types.EventRecord) string { return r.Conditions[i].Kind },
				set:   func(r *types.EventRecord, v string) { r.Conditions[i].Kind = v },
			},
			field{
				label: prefix + ".subject",
				get:   func(r *types.EventRecord) string { return r.Conditions[i].Subject },
				set:   func(r *types.EventRecord, v string) { r.Conditions[i].Subject = v },
			},
			field{
				label: prefix + ".comparator",
				get:   func(r *types.EventRecord) string { return r.Conditions[i].Comparator },
				set:   func(r *types.EventRecord, v string) { r.Conditions[i].Comparator = v },
			},
			field{
				label: prefix + ".value",
				get: func(r *types.EventRecord) string {
					if r.Conditions[i].Value == nil {
						return ""
					}
					return strconv.FormatFloat(*r.Conditions[i].Value, 'g', -1, 64)
				},
				set: func(r *types.EventRecord, v string) {
					if v == "" {
						r.Conditions[i].Value = nil
						return
					}
					if f, err := strconv.ParseFloat(v, 64); err == nil {
						r.Conditions[i].Value = &f
					}
				},
			},
		)
	}

	for i := range rec.Effects {
		i := i
		prefix := fmt.Sprintf("effects[%d]", i)
		fields = append(fields,
			field{
				label: prefix + ".kind",
				get:   func(r *types.EventRecord) string { return r.Effects[i].Kind },
				set:   func(r *types.EventRecord, v string) { r.Effects[i].Kind = v },
			},
			field{
				label: prefix + ".subject",
				get:   func(r *types.EventRecord) string { return r.Effects[i].Subject },
				set:   func(r *types.EventRecord, v string) { r.Effects[i].Subject = v },
			},
			field{
				label: prefix + ".params",
				get:   func(r *types.EventRecord) string { return formatParams(r.Effects[i].Params) },
				set:   func(r *types.EventRecord, v string) { r.Effects[i].Params = parseParams(v) },
			},
		)
	}

	return fields
}

// formatParams renders params as "Name=value, Name=value" in sorted
// name order.
func formatParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, params[name]))
	}
	return strings.Join(parts, ", ")
}

// parseParams parses "Name=value, Name=value" back into a params map.
// Values that parse as numbers become numbers; the rest stay strings so
// validation can flag them.
func parseParams(s string) map[string]any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	params := map[string]any{}
	for _, part := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			params[name] = f
		} else {
			params[name] = value
		}
	}
	return params
}

// kindHint returns the completion hint line for a field label: the
// closed set of legal values where the registry defines one.
func kindHint(label string) string {
	switch {
	case strings.HasPrefix(label, "when[") && strings.HasSuffix(label, ".kind"):
		return joinKinds(conditionKindNames())
	case strings.HasPrefix(label, "effects[") && strings.HasSuffix(label, ".kind"):
		return joinKinds(effectKindNames())
	case strings.HasSuffix(label, ".comparator"):
		return "< <= == != >= >"
	case label == "probability":
		return strings.Join(schema.ProbabilityNames, " ")
	default:
		return ""
	}
}

func conditionKindNames() []string {
	kinds := schema.ConditionKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func effectKindNames() []string {
	kinds := schema.EffectKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func joinKinds(names []string) string {
	return strings.Join(names, " ")
}
