package core

// rules.go implements the derived-field engine.
//
// Each register declares an ordered rule table. When a field changes, every
// rule watching that field runs; fields a rule changes are fed back so that
// dependent rules run in the same pass (item -> average life -> end date).
// Rules never fail: unparseable inputs leave their targets untouched.

import "strings"

// maxRulePasses bounds cascading recomputation within one Apply.
const maxRulePasses = 8

// Compliance values written by ThresholdRule.
const (
	Compliant    = "Yes"
	NonCompliant = "No"
)

// RuleContext carries what a rule may read besides the row itself.
type RuleContext struct {
	Owner Owner
	Rows  []Row // Current collection, for code allocation
}

// Rule recomputes derived fields of a row.
type Rule interface {
	// Watches returns the fields whose change triggers the rule.
	Watches() []string
	// Apply returns the updated row. changed is the field that triggered it.
	Apply(row Row, changed string, rc RuleContext) Row
}

// BlurRule is a rule that runs only when a field loses focus.
type BlurRule interface {
	OnBlur(row Row, field string, rc RuleContext) Row
}

// Engine applies a register's rule table.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine for the given rule table.
func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Watched reports whether any rule watches field.
func (e *Engine) Watched(field string) bool {
	for _, r := range e.rules {
		for _, w := range r.Watches() {
			if w == field {
				return true
			}
		}
	}
	return false
}

// Apply sets field to value and recomputes dependent fields.
// Setting a field to the value it already holds changes nothing.
func (e *Engine) Apply(row Row, field string, value any, rc RuleContext) Row {
	if valuesEqual(row.Get(field), value) {
		return row.Clone()
	}
	out := row.With(field, emptyToNil(value))
	return e.cascade(out, []string{field}, rc)
}

// Populate enters values into row one field at a time, following order, as
// a user filling the row left to right would. Classifications therefore reset
// their dependents before those dependents are entered, not after. Values for
// fields missing from order are set last, in no particular order.
func (e *Engine) Populate(row Row, values map[string]any, order []string, rc RuleContext) Row {
	out := row.Clone()
	done := make(map[string]bool, len(values))
	for _, f := range order {
		v, ok := values[f]
		if !ok {
			continue
		}
		done[f] = true
		out = e.Apply(out, f, v, rc)
	}
	for f, v := range values {
		if !done[f] {
			out = e.Apply(out, f, v, rc)
		}
	}
	return out
}

// Enter populates values and then blurs each entered field, the way a row
// typed in and tabbed through ends up. Imports and templates go through it
// so their rows match manual entry.
func (e *Engine) Enter(row Row, values map[string]any, order []string, rc RuleContext) Row {
	out := e.Populate(row, values, order, rc)
	for _, f := range order {
		if _, ok := values[f]; ok {
			out = e.Blur(out, f, rc)
		}
	}
	return out
}

// Blur runs the on-blur rules for field and then cascades any changes.
func (e *Engine) Blur(row Row, field string, rc RuleContext) Row {
	out := row.Clone()
	for _, r := range e.rules {
		br, ok := r.(BlurRule)
		if !ok {
			continue
		}
		out = br.OnBlur(out, field, rc)
	}
	changed := changedFields(row, out)
	if len(changed) == 0 {
		return out
	}
	return e.cascade(out, changed, rc)
}

func (e *Engine) cascade(row Row, pending []string, rc RuleContext) Row {
	for pass := 0; pass < maxRulePasses && len(pending) > 0; pass++ {
		next := make(map[string]bool)
		for _, rule := range e.rules {
			trigger, ok := firstWatched(rule, pending)
			if !ok {
				continue
			}
			updated := rule.Apply(row, trigger, rc)
			for _, f := range changedFields(row, updated) {
				next[f] = true
			}
			row = updated
		}
		pending = make([]string, 0, len(next))
		for f := range next {
			pending = append(pending, f)
		}
	}
	return row
}

func firstWatched(r Rule, fields []string) (string, bool) {
	for _, w := range r.Watches() {
		for _, f := range fields {
			if w == f {
				return f, true
			}
		}
	}
	return "", false
}

func changedFields(before, after Row) []string {
	var out []string
	for k, v := range after.Values {
		if !valuesEqual(before.Values[k], v) {
			out = append(out, k)
		}
	}
	for k, v := range before.Values {
		if _, ok := after.Values[k]; !ok && !valuesEqual(v, nil) {
			out = append(out, k)
		}
	}
	return out
}

func emptyToNil(v any) any {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return v
}

// ResetRule clears fields whose valid values depend on a classification.
type ResetRule struct {
	Trigger string
	Clear   []string
}

func (r ResetRule) Watches() []string { return []string{r.Trigger} }

func (r ResetRule) Apply(row Row, _ string, _ RuleContext) Row {
	out := row.Clone()
	for _, f := range r.Clear {
		delete(out.Values, f)
	}
	return out
}

// CodeRule regenerates the row's sequential code when a prefix input changes.
// The row's own key is excluded from the scan. A code already valid for the
// current prefix is kept, so recomputation never bumps a settled code.
type CodeRule struct {
	Scheme CodeScheme
}

func (r CodeRule) Watches() []string {
	var w []string
	for _, p := range r.Scheme.Parts {
		if p.Source == PartField {
			w = append(w, p.Field)
		}
	}
	return w
}

func (r CodeRule) Apply(row Row, _ string, rc RuleContext) Row {
	prefix, ok := r.Scheme.Prefix(CodeInput{Owner: rc.Owner, Row: row})
	if !ok {
		return row.With(r.Scheme.Field, nil)
	}
	current := row.String(r.Scheme.Field)
	if strings.HasPrefix(current, prefix) && allDigits(current[len(prefix):]) && !codeTaken(rc.Rows, r.Scheme.Field, current, row.Key) {
		return row
	}
	return row.With(r.Scheme.Field, nextWithPrefix(rc.Rows, r.Scheme.Field, prefix, row.Key))
}

func codeTaken(rows []Row, field, code, excludeKey string) bool {
	for _, r := range rows {
		if r.Key != excludeKey && r.String(field) == code {
			return true
		}
	}
	return false
}

// LookupRule copies a reference value into Target when Select changes.
// The table is keyed by the Scope field's value ("" when unscoped) and then
// by the selected item. Without a match the target keeps its typed value.
type LookupRule struct {
	Select string
	Scope  string
	Target string
	Table  map[string]map[string]string
}

func (r LookupRule) Watches() []string { return []string{r.Select} }

func (r LookupRule) Apply(row Row, _ string, _ RuleContext) Row {
	scope := ""
	if r.Scope != "" {
		scope = row.String(r.Scope)
	}
	items, ok := r.Table[scope]
	if !ok {
		return row
	}
	v, ok := lookupFold(items, row.String(r.Select))
	if !ok {
		return row
	}
	return row.With(r.Target, v)
}

func lookupFold(items map[string]string, key string) (string, bool) {
	key = strings.TrimSpace(key)
	if v, ok := items[key]; ok {
		return v, true
	}
	for k, v := range items {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// DateAddRule computes End = Start + Years.
// Clearing Start clears End. An invalid date, or a duration that is not a
// number between 0 and 1000 years, leaves End untouched.
type DateAddRule struct {
	Start string
	Years string
	End   string
}

func (r DateAddRule) Watches() []string { return []string{r.Start, r.Years} }

func (r DateAddRule) Apply(row Row, _ string, _ RuleContext) Row {
	startRaw := strings.TrimSpace(row.String(r.Start))
	if startRaw == "" {
		return row.With(r.End, nil)
	}
	start, ok := ParseDate(startRaw)
	if !ok {
		return row
	}
	years, ok := ParseNumber(row.String(r.Years))
	if !ok {
		return row
	}
	end, ok := addYears(start, years)
	if !ok {
		return row
	}
	return row.With(r.End, FormatDate(end))
}

// ThresholdRule sets Target to "Yes" when Actual <= Max and "No" otherwise.
// When either side is missing or not numeric, Target keeps its value.
type ThresholdRule struct {
	Max    string
	Actual string
	Target string
}

func (r ThresholdRule) Watches() []string { return []string{r.Max, r.Actual} }

func (r ThresholdRule) Apply(row Row, _ string, _ RuleContext) Row {
	max, ok := ParseNumber(row.String(r.Max))
	if !ok {
		return row
	}
	actual, ok := ParseNumber(row.String(r.Actual))
	if !ok {
		return row
	}
	if actual <= max {
		return row.With(r.Target, Compliant)
	}
	return row.With(r.Target, NonCompliant)
}

// PercentRule rescales Field on blur: users type "50" meaning 0.5%, and
// limits are always below 1, so any value above 1 is divided by 100.
type PercentRule struct {
	Field string
}

func (r PercentRule) Watches() []string { return nil }

func (r PercentRule) Apply(row Row, _ string, _ RuleContext) Row { return row }

func (r PercentRule) OnBlur(row Row, field string, _ RuleContext) Row {
	if field != r.Field {
		return row
	}
	v, ok := ParseNumber(row.String(r.Field))
	if !ok || v <= 1 {
		return row
	}
	return row.With(r.Field, FormatNumber(v/100))
}
