package edi

import (
	"reflect"
	"testing"
)

func TestRegistry_LookupRoundTrip(t *testing.T) {
	r := DefaultRegistry()

	for _, code := range r.AllCodes() {
		direct, ok := r.Lookup(code)
		if !ok {
			t.Fatalf("Lookup(%q) not found", code)
		}
		viaEdifact, ok := r.Lookup(r.EdifactFor(code))
		if !ok {
			t.Fatalf("Lookup(EdifactFor(%q)) not found", code)
		}
		if direct.DocumentName != viaEdifact.DocumentName {
			t.Errorf("code %s: document name %q != %q", code, direct.DocumentName, viaEdifact.DocumentName)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name     string
		code     string
		wantOK   bool
		wantX12  string
		wantName string
	}{
		{name: "x12 code", code: "850", wantOK: true, wantX12: "850", wantName: "Purchase Order"},
		{name: "edifact name", code: "INVOIC", wantOK: true, wantX12: "810", wantName: "Invoice"},
		{name: "lowercase edifact", code: "desadv", wantOK: true, wantX12: "856", wantName: "Advance Ship Notice"},
		{name: "second edifact name", code: "REMADV", wantOK: true, wantX12: "820", wantName: "Payment Order/Remittance"},
		{name: "unknown", code: "999", wantOK: false},
		{name: "empty", code: "", wantOK: false},
		{name: "padded code is not trimmed", code: " 850", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := r.Lookup(tt.code)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.code, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if info.X12Code != tt.wantX12 {
				t.Errorf("X12Code = %q, want %q", info.X12Code, tt.wantX12)
			}
			if info.DocumentName != tt.wantName {
				t.Errorf("DocumentName = %q, want %q", info.DocumentName, tt.wantName)
			}
		})
	}
}

func TestRegistry_Orderings(t *testing.T) {
	r := DefaultRegistry()

	wantCodes := []string{"850", "810", "856", "855", "820", "862", "997"}
	if got := r.AllCodes(); !reflect.DeepEqual(got, wantCodes) {
		t.Errorf("AllCodes() = %v, want %v", got, wantCodes)
	}

	wantNames := []string{"ORDERS", "INVOIC", "DESADV", "ORDRSP", "PAYMUL", "REMADV", "DELFOR", "CONTRL"}
	if got := r.AllEdifactNames(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("AllEdifactNames() = %v, want %v", got, wantNames)
	}

	all := r.All()
	if len(all) != len(wantCodes) {
		t.Fatalf("All() returned %d entries, want %d", len(all), len(wantCodes))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].X12Code >= all[i].X12Code {
			t.Errorf("All() not sorted at %d: %s >= %s", i, all[i-1].X12Code, all[i].X12Code)
		}
	}
}

func TestRegistry_Mappings(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{name: "x12 to edifact", fn: r.EdifactFor, in: "850", want: "ORDERS"},
		{name: "x12 to first edifact", fn: r.EdifactFor, in: "820", want: "PAYMUL"},
		{name: "x12 unmapped echoes", fn: r.EdifactFor, in: "123", want: "123"},
		{name: "edifact to x12", fn: r.X12For, in: "REMADV", want: "820"},
		{name: "edifact lowercase", fn: r.X12For, in: "contrl", want: "997"},
		{name: "edifact unmapped echoes", fn: r.X12For, in: "IFTMIN", want: "IFTMIN"},
		{name: "document name fallback", fn: r.DocumentName, in: "nope", want: "Unknown"},
		{name: "description fallback", fn: r.Description, in: "nope", want: "Unknown transaction type"},
		{name: "description", fn: r.Description, in: "862", want: "Delivery schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	r := DefaultRegistry()

	codes := r.AllCodes()
	codes[0] = "000"
	if r.AllCodes()[0] != "850" {
		t.Error("AllCodes() exposed internal slice")
	}

	info, _ := r.Lookup("820")
	info.EdifactNames[0] = "XXXXXX"
	if r.EdifactFor("820") != "PAYMUL" {
		t.Error("Lookup() exposed internal EdifactNames slice")
	}
}
