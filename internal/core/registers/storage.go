package registers

import "github.com/JonMunkholm/eprregister/internal/core"

func init() {
	registerStorage()
}

func registerStorage() {
	code := core.CodeScheme{
		Field: "auditCode",
		Parts: []core.CodePart{
			{Source: core.PartOwner, Width: 4},
			{Source: core.PartLiteral, Literal: "SA"},
			{Source: core.PartField, Field: "wasteType", Width: 4},
			{Source: core.PartPeriod},
		},
	}

	core.Register(core.Definition{
		Info: core.RegisterInfo{
			Kind:  KindStorage,
			Label: "Storage Audit",
			Group: "Storage",
		},
		Fields: []core.FieldSpec{
			{Name: "wasteType", Header: "Waste Type", Aliases: []string{"Type of Waste"}, Type: core.FieldEnum, Required: true, EnumValues: WasteTypes()},
			{Name: "auditCode", Header: "Audit Code", Type: core.FieldText, Required: true, Derived: true},
			{Name: "quantity", Header: "Quantity Stored", Aliases: []string{"Quantity", "Qty"}, Type: core.FieldNumeric, Required: true},
			{Name: "unit", Header: "Unit", Type: core.FieldEnum, EnumValues: []string{"Kg", "MT", "Nos"}},
			{Name: "dateOfReceipt", Header: "Date of Receipt", Aliases: []string{"Received On", "Storage Start"}, Type: core.FieldDate, Required: true},
			{Name: "storagePeriod", Header: "Permitted Storage (Years)", Aliases: []string{"Storage Period"}, Type: core.FieldNumeric},
			{Name: "disposalDue", Header: "Disposal Due By", Type: core.FieldDate, Derived: true},
			{Name: "dateOfDisposal", Header: "Date of Disposal", Aliases: []string{"Disposed On"}, Type: core.FieldDate},
			{Name: "location", Header: "Storage Location", Aliases: []string{"Location"}, Type: core.FieldText},
			{Name: "evidence", Header: "Evidence Document", Aliases: []string{"Document", "Photo"}, Type: core.FieldAttachment},
		},
		Rules: []core.Rule{
			core.ResetRule{Trigger: "wasteType", Clear: []string{"storagePeriod", "disposalDue"}},
			core.CodeRule{Scheme: code},
			core.LookupRule{Select: "wasteType", Target: "storagePeriod", Table: storageTable()},
			core.DateAddRule{Start: "dateOfReceipt", Years: "storagePeriod", End: "disposalDue"},
		},
		Code:     &code,
		Defaults: map[string]any{"unit": "Kg"},
		Samples: []map[string]any{
			{"wasteType": "E-Waste", "quantity": "1250", "unit": "Kg", "dateOfReceipt": "2024-07-01", "location": "Warehouse A, Bay 3"},
			{"wasteType": "Battery Waste", "quantity": "300", "unit": "Kg", "dateOfReceipt": "2024-08-12", "location": "Warehouse B"},
		},
	})
}
