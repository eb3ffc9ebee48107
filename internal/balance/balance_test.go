package balance

import (
	"testing"

	"crmhub_backend/platform/apperr"
)

func TestParseDocumentType(t *testing.T) {
	cases := []struct {
		raw  string
		want DocumentType
	}{
		{"shipment", DocumentShipment},
		{"Отгрузка", DocumentShipment},
		{"return", DocumentReturn},
		{"возврат", DocumentReturn},
		{"correction", DocumentCorrection},
		{"Корректировка", DocumentCorrection},
		{"  shipment  ", DocumentShipment},
	}
	for _, tc := range cases {
		got, err := ParseDocumentType(tc.raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.raw, tc.want, got)
		}
	}
}

func TestParseDocumentTypeUnknown(t *testing.T) {
	_, err := ParseDocumentType("списание")
	if err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %v", apperr.GetKind(err))
	}
}

func TestComputeNewBalanceShipment(t *testing.T) {
	res, err := ComputeNewBalance(DocumentShipment, 1000, 100, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Purified != 900 || res.NewBalance != 1400 {
		t.Fatalf("expected purified 900 balance 1400, got %v %v", res.Purified, res.NewBalance)
	}

	// A negative bonus adds instead of subtracting.
	res, err = ComputeNewBalance(DocumentShipment, 1000, -100, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Purified != 1100 || res.NewBalance != 1600 {
		t.Fatalf("expected purified 1100 balance 1600, got %v %v", res.Purified, res.NewBalance)
	}
}

func TestComputeNewBalanceReturn(t *testing.T) {
	res, err := ComputeNewBalance(DocumentReturn, 1000, 100, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Purified != 1100 || res.NewBalance != 900 {
		t.Fatalf("expected purified 1100 balance 900, got %v %v", res.Purified, res.NewBalance)
	}

	res, err = ComputeNewBalance(DocumentReturn, 1000, -100, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Purified != 900 || res.NewBalance != 1100 {
		t.Fatalf("expected purified 900 balance 1100, got %v %v", res.Purified, res.NewBalance)
	}
}

func TestComputeNewBalanceCorrection(t *testing.T) {
	res, err := ComputeNewBalance(DocumentCorrection, -300, 999, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Corrections ignore the bonus entirely and add the raw price.
	if res.Purified != -300 || res.NewBalance != 700 {
		t.Fatalf("expected purified -300 balance 700, got %v %v", res.Purified, res.NewBalance)
	}
}
