package schema

import (
	"strings"
	"testing"
)

func TestRegistryIntegrity(t *testing.T) {
	fields := Fields()
	if len(fields) == 0 {
		t.Fatal("registry is empty")
	}

	seen := map[string]bool{}
	for _, f := range fields {
		if f.Name == "" {
			t.Error("field with empty name")
		}
		if seen[f.Name] {
			t.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true

		switch f.Type {
		case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeEnum:
		default:
			t.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
		switch f.Method {
		case MethodExtract, MethodClassify, MethodGenerate:
		default:
			t.Errorf("field %q has unknown method %q", f.Name, f.Method)
		}
		if f.Description == "" {
			t.Errorf("field %q has no description", f.Name)
		}

		if f.Type == TypeEnum && len(f.Enum) == 0 {
			t.Errorf("enum field %q has no options", f.Name)
		}
		if f.Type != TypeEnum && len(f.Enum) > 0 {
			t.Errorf("non-enum field %q carries options", f.Name)
		}
		for opt := range f.EnumDescriptions {
			if !contains(f.Enum, opt) {
				t.Errorf("field %q glosses unknown option %q", f.Name, opt)
			}
		}
	}
}

func TestRegistryKeyFields(t *testing.T) {
	byName := map[string]Field{}
	for _, f := range Fields() {
		byName[f.Name] = f
	}

	title, ok := byName["title"]
	if !ok || title.Type != TypeString {
		t.Errorf("title field = %+v", title)
	}
	participants, ok := byName["totalParticipants"]
	if !ok || participants.Type != TypeInteger {
		t.Errorf("totalParticipants field = %+v", participants)
	}
	placebo, ok := byName["placebo"]
	if !ok || placebo.Type != TypeBoolean {
		t.Errorf("placebo field = %+v", placebo)
	}

	funding, ok := byName["fundingType"]
	if !ok || funding.Type != TypeEnum {
		t.Fatalf("fundingType field = %+v", funding)
	}
	if len(funding.Enum) != 5 {
		t.Errorf("fundingType options = %v", funding.Enum)
	}

	area, ok := byName["therapeuticArea"]
	if !ok || len(area.Enum) != 14 {
		t.Errorf("therapeuticArea = %+v", area)
	}
}

func TestNamesMatchRegistryOrder(t *testing.T) {
	names := Names()
	fields := Fields()
	if len(names) != len(fields) {
		t.Fatalf("Names = %d, Fields = %d", len(names), len(fields))
	}
	for i, f := range fields {
		if names[i] != f.Name {
			t.Errorf("Names[%d] = %q, want %q", i, names[i], f.Name)
		}
	}
	if names[0] != "title" {
		t.Errorf("first field = %q, want title", names[0])
	}
}

func TestRender(t *testing.T) {
	out := Render()

	if !strings.Contains(out, "### title") {
		t.Error("render missing title block")
	}
	if !strings.Contains(out, "- **Type**: string") {
		t.Error("render missing type line")
	}
	if !strings.Contains(out, "- **Method**: extract") {
		t.Error("render missing method line")
	}

	// Enum fields list their options with glosses.
	idx := strings.Index(out, "### fundingType")
	if idx < 0 {
		t.Fatal("render missing fundingType block")
	}
	block := out[idx:]
	if end := strings.Index(block[4:], "### "); end >= 0 {
		block = block[:end+4]
	}
	if !strings.Contains(block, "- **Options**:") {
		t.Error("enum block missing options list")
	}
	for _, f := range Fields() {
		if f.Name != "fundingType" {
			continue
		}
		for _, opt := range f.Enum {
			if !strings.Contains(block, "`"+opt+"`") {
				t.Errorf("fundingType block missing option %q", opt)
			}
		}
	}

	// Every field appears exactly once.
	for _, name := range Names() {
		if n := strings.Count(out, "### "+name+"\n"); n != 1 {
			t.Errorf("field %q rendered %d times", name, n)
		}
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
