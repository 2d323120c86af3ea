// Package core provides the editable compliance register engine.
//
// A register is an ordered, per-client collection of rows (EEE categories,
// RoHS substance measurements, storage audits). This package owns everything
// that happens between a user edit and a confirmed save, independent of any
// transport layer. It can be driven by web handlers, CLI tools, or tests.
//
// # Architecture
//
//   - Definitions: each register kind is described by a [Definition] holding
//     its field specs, derived-field rules, code scheme and import headers.
//     Definitions are registered at init time with [Register].
//   - Engine: [Engine.Apply] recomputes derived fields after an edit. It is
//     pure; parse failures leave dependent fields as they were.
//   - Allocator: [NextCode] returns the next sequential code under a
//     composite prefix such as "Acme/EEE/ITEW/0007".
//   - Store: [Store] owns the rows and the snapshot taken at the last
//     successful load or save. Dirty state is always computed against it.
//   - Coordinator: [Coordinator] sends whole collections to the external
//     [Storage] and applies optimistic deletes with rollback.
//   - Importer: [Importer] converts spreadsheet records into rows.
//
// # Registering a definition
//
//	core.Register(core.Definition{
//	    Info: core.RegisterInfo{Kind: "rohs", Label: "RoHS Compliance"},
//	    Fields: []core.FieldSpec{
//	        {Name: "substance", Header: "Substance", Type: core.FieldEnum, Required: true},
//	        {Name: "actualValue", Header: "Actual (%)", Type: core.FieldNumeric},
//	    },
//	    Rules: []core.Rule{
//	        core.ThresholdRule{Max: "maxLimit", Actual: "actualValue", Target: "compliant"},
//	    },
//	})
//
// # Persistence
//
// The backing API is array-granular: every save sends the entire collection.
// [Coordinator.SaveRow] therefore commits every dirty row, not just the one
// confirmed, and its [Result] reports the full committed count.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - VAL001-VAL005: validation before save
//   - REM001-REM004: persistence service and transport failures
//   - IMP001-IMP004: spreadsheet import failures
//   - REG001-REG004: unknown registers, workspaces, rows and fields
//   - SAV001: overlapping save on the same collection
package core
