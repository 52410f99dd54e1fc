package templates

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTemplate(t, dir, "backend-junior.yaml", `
name: backend-junior
role: Backend Engineer
level: junior
type: technical
tech_stack: [go, sql]
questions:
  - What is a goroutine?
  - Explain an index in a relational database.
`)
	writeTemplate(t, dir, "behavioral.yml", `
name: behavioral-general
role: Any
level: any
type: behavioral
questions:
  - Tell me about a conflict you resolved.
`)
	writeTemplate(t, dir, "notes.txt", "not a template")

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 templates, got %d", s.Len())
	}

	bank, ok := s.Get("backend-junior")
	if !ok {
		t.Fatalf("backend-junior not found")
	}
	if len(bank.Questions) != 2 || bank.Role != "Backend Engineer" {
		t.Fatalf("unexpected bank: %+v", bank)
	}

	list := s.List()
	if list[0].Name != "backend-junior" || list[1].Name != "behavioral-general" {
		t.Fatalf("list not sorted by name: %v", list)
	}
}

func TestLoadRejectsInvalidBanks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
	}{
		{"missing-name.yaml", "role: x\nquestions: [q]\n"},
		{"no-questions.yaml", "name: empty\nrole: x\n"},
		{"bad-yaml.yaml", "name: [unclosed\n"},
	}
	for _, tc := range cases {
		dir := t.TempDir()
		writeTemplate(t, dir, tc.name, tc.content)
		if _, err := Load(dir); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestLoadRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTemplate(t, dir, "a.yaml", "name: dup\nquestions: [q1]\n")
	writeTemplate(t, dir, "b.yaml", "name: dup\nquestions: [q2]\n")
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestLoadMissingDirReturnsEmptyStore(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("missing dir must not fail: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d banks", s.Len())
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("expected no banks listed, got %d", len(got))
	}
}
