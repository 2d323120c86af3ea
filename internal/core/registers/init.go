// Package registers registers all register definitions with the core registry.
// Import this package to ensure all registers are registered.
package registers

// This file exists to provide a single import point.
// Each register file uses init() to register its definition.
