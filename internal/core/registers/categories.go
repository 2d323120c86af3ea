package registers

import (
	"fmt"

	"github.com/JonMunkholm/eprregister/internal/core"
)

func init() {
	registerCategories()
}

// Kind names of the registers.
const (
	KindCategories = "categories"
	KindRoHS       = "rohs"
	KindStorage    = "storage"
)

func registerCategories() {
	code := core.CodeScheme{
		Field: "code",
		Parts: []core.CodePart{
			{Source: core.PartOwner, Width: 4},
			{Source: core.PartLiteral, Literal: "EEE"},
			{Source: core.PartField, Field: "category", Width: 4},
		},
	}

	core.Register(core.Definition{
		Info: core.RegisterInfo{
			Kind:  KindCategories,
			Label: "EEE Categories",
			Group: "E-Waste",
		},
		// Order matters: rows are filled left to right on add and import.
		Fields: []core.FieldSpec{
			{Name: "category", Header: "EEE Category", Aliases: []string{"Category", "Category Code"}, Type: core.FieldEnum, Required: true, EnumValues: Categories()},
			{Name: "categoryName", Header: "Category Name", Type: core.FieldText, Derived: true},
			{Name: "code", Header: "Code", Aliases: []string{"Category Code No"}, Type: core.FieldText, Required: true, Derived: true},
			{Name: "item", Header: "EEE Item", Aliases: []string{"Item", "Item Description"}, Type: core.FieldText, Required: true},
			{Name: "eeeCode", Header: "EEE Code", Type: core.FieldText, Derived: true},
			{Name: "averageLife", Header: "Average Life (Years)", Aliases: []string{"Average Life", "Life"}, Type: core.FieldNumeric},
			{Name: "dateOfPlacing", Header: "Date of Placing on Market", Aliases: []string{"Date of Placing", "Placed On"}, Type: core.FieldDate, Required: true},
			{Name: "endOfLife", Header: "End of Life", Type: core.FieldDate, Derived: true},
			{Name: "quantity", Header: "Quantity (Nos)", Aliases: []string{"Quantity", "Qty"}, Type: core.FieldNumeric},
			{Name: "weightKg", Header: "Weight (Kg)", Aliases: []string{"Weight"}, Type: core.FieldNumeric},
		},
		Rules: []core.Rule{
			core.ResetRule{Trigger: "category", Clear: []string{"categoryName", "item", "eeeCode", "averageLife", "endOfLife"}},
			core.LookupRule{Select: "category", Target: "categoryName", Table: categoryNameTable()},
			core.CodeRule{Scheme: code},
			core.LookupRule{Select: "item", Scope: "category", Target: "eeeCode", Table: itemTable(func(it eeeItem) string { return it.Code })},
			core.LookupRule{Select: "item", Scope: "category", Target: "averageLife", Table: itemTable(func(it eeeItem) string { return fmt.Sprint(it.Life) })},
			core.DateAddRule{Start: "dateOfPlacing", Years: "averageLife", End: "endOfLife"},
		},
		Code: &code,
		Samples: []map[string]any{
			{"category": CategoryIT, "item": "Personal Computing: Laptop Computers (CPU with input and output devices)", "dateOfPlacing": "2024-04-15", "quantity": "120", "weightKg": "264"},
			{"category": CategoryConsumer, "item": "Refrigerator", "dateOfPlacing": "2024-06-01", "quantity": "40", "weightKg": "2200"},
		},
	})
}
