package registers

import "github.com/JonMunkholm/eprregister/internal/core"

func init() {
	registerRoHS()
}

func registerRoHS() {
	core.Register(core.Definition{
		Info: core.RegisterInfo{
			Kind:  KindRoHS,
			Label: "RoHS Compliance",
			Group: "E-Waste",
		},
		Fields: []core.FieldSpec{
			{Name: "product", Header: "Product / EEE Item", Aliases: []string{"Product", "Item"}, Type: core.FieldText, Required: true},
			{Name: "eeeCode", Header: "EEE Code", Type: core.FieldText},
			{Name: "substance", Header: "Restricted Substance", Aliases: []string{"Substance"}, Type: core.FieldEnum, Required: true, EnumValues: Substances()},
			{Name: "maxLimit", Header: "Maximum Limit (%)", Aliases: []string{"Max Limit", "Limit"}, Type: core.FieldNumeric, Derived: true},
			{Name: "actual", Header: "Actual Concentration (%)", Aliases: []string{"Actual", "Actual (%)"}, Type: core.FieldNumeric, Required: true},
			{Name: "compliant", Header: "Compliant", Type: core.FieldEnum, Derived: true, EnumValues: []string{core.Compliant, core.NonCompliant}},
			{Name: "testReport", Header: "Test Report No", Aliases: []string{"Report No"}, Type: core.FieldText},
			{Name: "testedOn", Header: "Test Date", Aliases: []string{"Tested On"}, Type: core.FieldDate},
		},
		Rules: []core.Rule{
			core.ResetRule{Trigger: "substance", Clear: []string{"maxLimit", "compliant"}},
			core.LookupRule{Select: "substance", Target: "maxLimit", Table: limitTable()},
			core.ThresholdRule{Max: "maxLimit", Actual: "actual", Target: "compliant"},
			core.PercentRule{Field: "actual"},
		},
		Samples: []map[string]any{
			{"product": "Laptop Computers", "eeeCode": "ITEW3", "substance": "Lead (Pb)", "actual": "0.05", "testReport": "TR-2024-118", "testedOn": "2024-05-20"},
			{"product": "Laptop Computers", "eeeCode": "ITEW3", "substance": "Cadmium (Cd)", "actual": "0.002", "testReport": "TR-2024-118", "testedOn": "2024-05-20"},
		},
	})
}
