package amocrm

// FieldValue is one value of a CRM custom field.
type FieldValue struct {
	Value    any    `json:"value"`
	EnumCode string `json:"enum_code,omitempty"`
}

// CustomField is one entry of a record's custom-fields collection.
type CustomField struct {
	FieldID int64        `json:"field_id"`
	Values  []FieldValue `json:"values"`
}

// CustomFields is the semi-structured custom-fields collection the CRM
// attaches to leads, contacts and customers. A nil collection reads as
// "no fields".
type CustomFields []CustomField

// Value returns the first value of the first entry matching fieldID.
// It reports false when the field is absent or has no values.
func (cf CustomFields) Value(fieldID int64) (any, bool) {
	for _, field := range cf {
		if field.FieldID != fieldID {
			continue
		}
		if len(field.Values) == 0 || field.Values[0].Value == nil {
			return nil, false
		}
		return field.Values[0].Value, true
	}
	return nil, false
}

// setField builds the patch payload for writing a single custom field.
func setField(fieldID int64, value string) CustomFields {
	return CustomFields{
		{
			FieldID: fieldID,
			Values:  []FieldValue{{Value: value}},
		},
	}
}
