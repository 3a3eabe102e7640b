package main

import (
	"strings"
	"testing"
)

func TestReadAreas(t *testing.T) {
	inputs, err := readAreas(strings.NewReader("Area Name,Zone,City Corporation\nGulshan, North ,DNCC\nBanani\n"))
	if err != nil {
		t.Fatalf("readAreas: %v", err)
	}
	if len(inputs) != 2 || inputs[0].Zone != "North" || inputs[1].Name != "Banani" {
		t.Fatalf("unexpected inputs %+v", inputs)
	}

	_, err = readAreas(strings.NewReader("Area Name,Zone\n,North\n"))
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected a row 2 error for a missing name, got %v", err)
	}

	if _, err := readAreas(strings.NewReader("Area Name\n")); err == nil {
		t.Fatalf("expected an error for a header-only file")
	}
}
