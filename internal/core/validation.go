package core

// validation.go checks rows before they are sent to the persistence service.
//
// Validation is deliberately shallow: required fields must be filled and typed
// fields must parse. Business rules (limits, registrations) belong to the
// persistence service. A failing collection is never sent.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is wrapped by every ValidationErrors value.
var ErrValidation = errors.New("validation failed")

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	RowKey  string `json:"rowKey"`
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Index+1, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Index+1, e.Message)
}

// ValidationErrors collects every problem found in a collection.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(msgs, "; "))
}

func (e ValidationErrors) Unwrap() error { return ErrValidation }

// ValidateRows checks every row against the definition's field specs.
// Returns nil when the collection may be saved.
func ValidateRows(def Definition, rows []Row) error {
	var errs ValidationErrors
	for i, r := range rows {
		errs = append(errs, validateRow(def, r, i)...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateRow(def Definition, r Row, index int) []ValidationError {
	var errs []ValidationError
	for _, spec := range def.Fields {
		if spec.Transient {
			continue
		}
		v := r.Get(spec.Name)
		raw := strings.TrimSpace(ValueString(v))

		if raw == "" {
			if spec.Required {
				errs = append(errs, ValidationError{
					RowKey:  r.Key,
					Index:   index,
					Field:   spec.Name,
					Message: "required field is empty",
				})
			}
			continue
		}

		if err := ValidateCell(v, spec); err != nil {
			errs = append(errs, ValidationError{
				RowKey:  r.Key,
				Index:   index,
				Field:   spec.Name,
				Value:   raw,
				Message: err.Error(),
			})
		}
	}
	return errs
}

// ValidateCell validates a single value against a field specification.
// Returns nil if valid, or an error describing the problem.
func ValidateCell(v any, spec FieldSpec) error {
	raw := strings.TrimSpace(ValueString(v))
	if raw == "" {
		return nil
	}

	switch spec.Type {
	case FieldNumeric:
		if _, ok := ParseNumber(raw); !ok {
			return fmt.Errorf("invalid number format")
		}
	case FieldDate:
		if _, ok := ParseDate(raw); !ok {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD or DD/MM/YYYY)")
		}
	case FieldEnum:
		if len(spec.EnumValues) > 0 {
			for _, ev := range spec.EnumValues {
				if strings.EqualFold(ev, raw) {
					return nil
				}
			}
			return fmt.Errorf("value must be one of: %s", strings.Join(spec.EnumValues, ", "))
		}
	case FieldAttachment:
		if _, ok := v.(Attachment); !ok {
			if _, isString := v.(string); !isString {
				return fmt.Errorf("invalid attachment")
			}
		}
	}
	return nil
}

// String returns a human-readable name for a field type.
func (ft FieldType) String() string {
	switch ft {
	case FieldText:
		return "text"
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldAttachment:
		return "attachment"
	default:
		return "value"
	}
}
