package amocrm

import (
	"encoding/json"
	"testing"
)

func TestCustomFieldsValue(t *testing.T) {
	fields := CustomFields{
		{FieldID: 935651, Values: []FieldValue{{Value: "15-03-2024 10:30:00"}}},
		{FieldID: 1105022, Values: []FieldValue{{Value: 250.0}}},
	}

	raw, ok := fields.Value(935651)
	if !ok {
		t.Fatalf("expected value for field 935651")
	}
	if raw != "15-03-2024 10:30:00" {
		t.Fatalf("unexpected value: %v", raw)
	}

	if _, ok := fields.Value(404); ok {
		t.Fatalf("absent field must report false")
	}
}

func TestCustomFieldsValueEmpty(t *testing.T) {
	fields := CustomFields{
		{FieldID: 1, Values: nil},
		{FieldID: 2, Values: []FieldValue{{Value: nil}}},
	}
	if _, ok := fields.Value(1); ok {
		t.Fatalf("field without values must report false")
	}
	if _, ok := fields.Value(2); ok {
		t.Fatalf("nil value must report false")
	}
	var none CustomFields
	if _, ok := none.Value(1); ok {
		t.Fatalf("nil collection must report false")
	}
}

func TestCustomFieldsDecode(t *testing.T) {
	payload := `[
		{"field_id": 935651, "values": [{"value": 1700000000}]},
		{"field_id": 671750, "values": [{"value": "+79991234567", "enum_code": "WORK"}]}
	]`

	var fields CustomFields
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	raw, ok := fields.Value(935651)
	if !ok {
		t.Fatalf("expected epoch value")
	}
	if raw.(float64) != 1700000000 {
		t.Fatalf("unexpected epoch: %v", raw)
	}
	if fields[1].Values[0].EnumCode != "WORK" {
		t.Fatalf("enum code not decoded: %v", fields[1].Values[0])
	}
}

func TestLeadMainContact(t *testing.T) {
	var dto leadDTO
	if dto.mainContactID() != nil {
		t.Fatalf("no contacts must yield nil")
	}

	dto.Embedded.Contacts = []embeddedContactRef{{ID: 10}, {ID: 20, IsMain: true}}
	if got := dto.mainContactID(); got == nil || *got != 20 {
		t.Fatalf("is_main contact must win, got %v", got)
	}

	dto.Embedded.Contacts = []embeddedContactRef{{ID: 10}, {ID: 20}}
	if got := dto.mainContactID(); got == nil || *got != 10 {
		t.Fatalf("without is_main the first contact wins, got %v", got)
	}
}

func TestSetFieldPayload(t *testing.T) {
	data, err := json.Marshal(map[string]any{"custom_fields_values": setField(1105022, "1400")})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"custom_fields_values":[{"field_id":1105022,"values":[{"value":"1400"}]}]}`
	if string(data) != want {
		t.Fatalf("unexpected payload: %s", data)
	}
}
