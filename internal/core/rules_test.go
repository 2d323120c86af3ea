package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assetsRow(values map[string]any) Row {
	return NewRow(values)
}

func TestEngine_ResetClearsDependents(t *testing.T) {
	def := assetsDefinition()
	rc := RuleContext{Owner: testOwner}
	row := assetsRow(map[string]any{
		"category":  "IT",
		"code":      "Acme/EEE/IT/0001",
		"item":      "Laptop",
		"life":      "5",
		"placed":    "2024-04-15",
		"endOfLife": "2029-04-15",
	})

	got := def.Engine().Apply(row, "category", "CE", rc)

	assert.Equal(t, "CE", got.String("category"))
	assert.Empty(t, got.String("item"))
	assert.Empty(t, got.String("life"))
	assert.Empty(t, got.String("endOfLife"))
	assert.Equal(t, "Acme/EEE/CE/0001", got.String("code"))
	assert.Equal(t, "2024-04-15", got.String("placed"), "unrelated fields are kept")
	assert.Equal(t, "IT", row.String("category"), "input row is not modified")
}

func TestEngine_LookupCascadesIntoDateAdd(t *testing.T) {
	def := assetsDefinition()
	rc := RuleContext{Owner: testOwner}
	row := assetsRow(map[string]any{"category": "IT", "placed": "2024-04-15"})

	got := def.Engine().Apply(row, "item", "Laptop", rc)

	assert.Equal(t, "5", got.String("life"))
	assert.Equal(t, "2029-04-15", got.String("endOfLife"))
}

func TestEngine_Lookup(t *testing.T) {
	tests := []struct {
		name     string
		category string
		item     string
		life     string
		wantLife string
	}{
		{name: "exact match", category: "IT", item: "Phone", wantLife: "7"},
		{name: "case insensitive", category: "IT", item: "laptop", wantLife: "5"},
		{name: "unknown item keeps typed value", category: "IT", item: "Tablet", life: "3", wantLife: "3"},
		{name: "item from another category", category: "CE", item: "Laptop", life: "4", wantLife: "4"},
		{name: "scope not in table", category: "XX", item: "Laptop", wantLife: ""},
	}

	def := assetsDefinition()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := map[string]any{"category": tt.category}
			if tt.life != "" {
				values["life"] = tt.life
			}
			got := def.Engine().Apply(assetsRow(values), "item", tt.item, RuleContext{Owner: testOwner})
			assert.Equal(t, tt.wantLife, got.String("life"))
		})
	}
}

func TestEngine_DateAdd(t *testing.T) {
	def := assetsDefinition()
	rc := RuleContext{Owner: testOwner}
	base := assetsRow(map[string]any{
		"category":  "IT",
		"life":      "5",
		"placed":    "2024-04-15",
		"endOfLife": "2029-04-15",
	})

	t.Run("clearing start clears end", func(t *testing.T) {
		got := def.Engine().Apply(base, "placed", "", rc)
		assert.Empty(t, got.String("placed"))
		assert.Empty(t, got.String("endOfLife"))
	})

	t.Run("invalid start leaves end", func(t *testing.T) {
		got := def.Engine().Apply(base, "placed", "someday", rc)
		assert.Equal(t, "2029-04-15", got.String("endOfLife"))
	})

	t.Run("non numeric years leaves end", func(t *testing.T) {
		got := def.Engine().Apply(base, "life", "long", rc)
		assert.Equal(t, "2029-04-15", got.String("endOfLife"))
	})

	t.Run("huge years leaves end", func(t *testing.T) {
		for _, years := range []string{"1e19", "1e9", "-3"} {
			got := def.Engine().Apply(base, "life", years, rc)
			assert.Equal(t, "2029-04-15", got.String("endOfLife"), years)
		}
	})

	t.Run("fractional years", func(t *testing.T) {
		got := def.Engine().Apply(base, "life", "0.5", rc)
		assert.Equal(t, "2024-10-15", got.String("endOfLife"))
	})

	t.Run("day first start date", func(t *testing.T) {
		got := def.Engine().Apply(base, "placed", "01/04/2024", rc)
		assert.Equal(t, "2029-04-01", got.String("endOfLife"))
	})
}

func TestEngine_Threshold(t *testing.T) {
	tests := []struct {
		name   string
		limit  string
		actual string
		want   string
	}{
		{name: "below limit", limit: "0.1", actual: "0.05", want: Compliant},
		{name: "at limit", limit: "0.1", actual: "0.1", want: Compliant},
		{name: "above limit", limit: "0.1", actual: "0.2", want: NonCompliant},
		{name: "actual not numeric", limit: "0.1", actual: "n/a", want: ""},
		{name: "limit missing", limit: "", actual: "0.05", want: ""},
	}

	def := assetsDefinition()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := assetsRow(map[string]any{"limit": tt.limit})
			got := def.Engine().Apply(row, "actual", tt.actual, RuleContext{Owner: testOwner})
			assert.Equal(t, tt.want, got.String("compliant"))
		})
	}
}

func TestEngine_BlurRescalesPercent(t *testing.T) {
	def := assetsDefinition()
	rc := RuleContext{Owner: testOwner}

	row := assetsRow(map[string]any{"limit": "0.1", "actual": "50"})
	got := def.Engine().Blur(row, "actual", rc)
	assert.Equal(t, "0.5", got.String("actual"))
	assert.Equal(t, NonCompliant, got.String("compliant"), "threshold runs after rescaling")

	row = assetsRow(map[string]any{"limit": "0.1", "actual": "0.05"})
	got = def.Engine().Blur(row, "actual", rc)
	assert.Equal(t, "0.05", got.String("actual"), "values up to 1 are kept")

	got = def.Engine().Blur(assetsRow(map[string]any{"actual": "50"}), "limit", rc)
	assert.Equal(t, "50", got.String("actual"), "blur on another field does nothing")
}

func TestEngine_ApplySameValueIsNoop(t *testing.T) {
	def := assetsDefinition()
	row := assetsRow(map[string]any{"category": "IT", "item": "Laptop", "code": "Acme/EEE/IT/0007"})

	got := def.Engine().Apply(row, "category", "IT", RuleContext{Owner: testOwner})

	assert.Equal(t, "Laptop", got.String("item"))
	assert.Equal(t, "Acme/EEE/IT/0007", got.String("code"))
}

func TestEngine_PopulateFollowsFieldOrder(t *testing.T) {
	def := assetsDefinition()
	values := map[string]any{"category": "IT", "item": "Phone", "placed": "2024-04-15"}

	got := def.Engine().Populate(NewRow(nil), values, def.FieldNames(), RuleContext{Owner: testOwner})

	assert.Equal(t, "Phone", got.String("item"), "classification resets before dependents are entered")
	assert.Equal(t, "7", got.String("life"))
	assert.Equal(t, "2031-04-15", got.String("endOfLife"))
	assert.Equal(t, "Acme/EEE/IT/0001", got.String("code"))
}

func TestCodeRule(t *testing.T) {
	rule := CodeRule{Scheme: assetsCode}
	other := NewRow(map[string]any{"category": "IT", "code": "Acme/EEE/IT/0001"})

	t.Run("settled code is kept", func(t *testing.T) {
		row := NewRow(map[string]any{"category": "IT", "code": "Acme/EEE/IT/0002"})
		got := rule.Apply(row, "category", RuleContext{Owner: testOwner, Rows: []Row{other, row}})
		assert.Equal(t, "Acme/EEE/IT/0002", got.String("code"))
	})

	t.Run("code taken by another row is replaced", func(t *testing.T) {
		row := NewRow(map[string]any{"category": "IT", "code": "Acme/EEE/IT/0001"})
		got := rule.Apply(row, "category", RuleContext{Owner: testOwner, Rows: []Row{other, row}})
		assert.Equal(t, "Acme/EEE/IT/0002", got.String("code"))
	})

	t.Run("incomplete prefix clears code", func(t *testing.T) {
		row := NewRow(map[string]any{"code": "Acme/EEE/IT/0003"})
		got := rule.Apply(row, "category", RuleContext{Owner: testOwner})
		assert.Empty(t, got.String("code"))
	})
}

func TestDefinitionCheck(t *testing.T) {
	def := assetsDefinition()
	require.NoError(t, def.check())

	def.Rules = append(def.Rules, LookupRule{Select: "missing", Target: "life"})
	assert.Error(t, def.check())

	def = assetsDefinition()
	def.Fields = append(def.Fields, FieldSpec{Name: "item"})
	assert.Error(t, def.check())
}
