package jsonx

import "testing"

func TestMarshal_noHTMLEscape(t *testing.T) {
	got, err := Marshal(map[string]string{"message": "<b>Offline</b> & retrying"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(got) != `{"message":"<b>Offline</b> & retrying"}` {
		t.Errorf("Marshal = %s", got)
	}
}

func TestUnmarshal(t *testing.T) {
	var v struct {
		Success bool    `json:"success"`
		Value   float64 `json:"value"`
	}
	if err := Unmarshal([]byte(`{"success":true,"value":23.5,"extra":1}`), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !v.Success || v.Value != 23.5 {
		t.Errorf("decoded = %+v", v)
	}
	if err := Unmarshal([]byte(`{"success":`), &v); err == nil {
		t.Error("Unmarshal(truncated) = nil; want error")
	}
}

func TestValid(t *testing.T) {
	tests := map[string]bool{
		`{"a":1}`: true,
		`[]`:      true,
		`null`:    true,
		`<html>`:  false,
		`{"a":`:   false,
		``:        false,
	}
	for in, want := range tests {
		if got := Valid([]byte(in)); got != want {
			t.Errorf("Valid(%q) = %v; want %v", in, got, want)
		}
	}
}
