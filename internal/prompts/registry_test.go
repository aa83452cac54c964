package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRegistryDefaults(t *testing.T) {
	registry, err := NewRegistry("", nil)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	for _, name := range []string{
		SelectQuestion,
		EvolveSummary,
		TechnicalQuestion,
		SkillQuestion,
		GeneralQuestion,
		PerformanceSummary,
		Feedback,
	} {
		tmpl, err := registry.Get(name)
		if err != nil {
			t.Errorf("Get(%q) failed: %v", name, err)
		}
		if tmpl == "" {
			t.Errorf("Get(%q) returned empty template", name)
		}
	}
}

func TestRegistryUnknownTemplate(t *testing.T) {
	registry, err := NewRegistry("", nil)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	if _, err := registry.Get("no_such_template"); err == nil {
		t.Error("Get should fail for an unknown template name")
	}
	if _, err := registry.Fill("no_such_template", nil); err == nil {
		t.Error("Fill should fail for an unknown template name")
	}
}

func TestRegistryFill(t *testing.T) {
	registry, err := NewRegistry("", nil)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	filled, err := registry.Fill(SelectQuestion, map[string]string{
		"employee": `{"id":"emp-1","name":"Ada"}`,
		"summary":  "Strong on networking.",
		"catalog":  `[{"id":1,"type":"Technical","text":"T1"}]`,
		"history":  "[]",
	})
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}

	for _, want := range []string{`"name":"Ada"`, "Strong on networking.", `"text":"T1"`} {
		if !strings.Contains(filled, want) {
			t.Errorf("Filled template missing %q", want)
		}
	}
	if strings.Contains(filled, "{employee}") || strings.Contains(filled, "{summary}") {
		t.Error("Filled template still contains placeholders")
	}
}

func TestRegistryFileOverride(t *testing.T) {
	dir := t.TempDir()
	overridePath := filepath.Join(dir, Feedback+".txt")
	if err := os.WriteFile(overridePath, []byte("Say something nice about {employee}.\n"), 0o644); err != nil {
		t.Fatalf("Failed to write override file: %v", err)
	}

	registry, err := NewRegistry(dir, nil)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	tmpl, err := registry.Get(Feedback)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tmpl != "Say something nice about {employee}." {
		t.Errorf("Override not applied, got %q", tmpl)
	}

	// Other templates still resolve to defaults
	tmpl, err = registry.Get(SelectQuestion)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tmpl != defaultTemplates[SelectQuestion] {
		t.Error("Unrelated template should remain the default")
	}
}

func TestRegistryReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	registry, err := NewRegistry(dir, nil)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	// No overrides yet
	tmpl, err := registry.Get(Feedback)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tmpl != defaultTemplates[Feedback] {
		t.Fatal("Expected default template before override exists")
	}

	overridePath := filepath.Join(dir, Feedback+".txt")
	if err := os.WriteFile(overridePath, []byte("override text"), 0o644); err != nil {
		t.Fatalf("Failed to write override file: %v", err)
	}
	if err := registry.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	tmpl, err = registry.Get(Feedback)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tmpl != "override text" {
		t.Errorf("Reload did not pick up override, got %q", tmpl)
	}

	// Removing the file and reloading restores the default
	if err := os.Remove(overridePath); err != nil {
		t.Fatalf("Failed to remove override: %v", err)
	}
	if err := registry.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	tmpl, err = registry.Get(Feedback)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tmpl != defaultTemplates[Feedback] {
		t.Error("Expected default template after override removed")
	}
}

func TestRegistryEmptyOverrideFallsBack(t *testing.T) {
	dir := t.TempDir()
	overridePath := filepath.Join(dir, GeneralQuestion+".txt")
	if err := os.WriteFile(overridePath, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("Failed to write override file: %v", err)
	}

	registry, err := NewRegistry(dir, nil)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	tmpl, err := registry.Get(GeneralQuestion)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tmpl != defaultTemplates[GeneralQuestion] {
		t.Error("Empty override file should fall back to the default template")
	}
}
