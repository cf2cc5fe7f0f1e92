package scene

import (
	"testing"

	"github.com/phanxgames/xform"
	"github.com/pkg/errors"
)

func TestLoadScript(t *testing.T) {
	data := []byte(`
steps:
  - action: create
    name: root
  - action: create
    name: child
    parent: root
    translate: [1, 0, 0]
  - action: open
  - action: commit
`)
	s, err := LoadScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(s.Steps))
	}
	if s.Steps[1].Action != "create" || s.Steps[1].Parent != "root" {
		t.Error("step 1 mismatch")
	}
}

func TestLoadScript_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "steps: [a"},
		{"empty", "steps: []"},
		{"unknown action", "steps:\n  - action: fly\n    name: a"},
		{"missing name", "steps:\n  - action: create"},
		{"bad world", "steps:\n  - action: expect\n    name: a\n    world: [1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadScript([]byte(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

const reparentScript = `
steps:
  - action: create
    name: R
  - action: create
    name: C
    parent: R
    translate: [1, 0, 0]
  - action: create
    name: G
    parent: C
    translate: [0, 1, 0]
  - action: expect
    name: G
    world: [1, 1, 0]
  - action: parent
    name: C
  - action: expect
    name: G
    world: [0, 1, 0]
  - action: expect
    name: G
    parent: C
  - action: translate
    name: C
    translate: [0, 0, 2]
  - action: expect
    name: G
    world: [0, 1, 2]
  - action: destroy
    name: C
  - action: expect
    name: G
    absent: true
`

func TestScriptRun_Reparent(t *testing.T) {
	s, err := LoadScript([]byte(reparentScript))
	if err != nil {
		t.Fatal(err)
	}
	m := xform.NewManager[string]()
	r, err := s.Run(m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Executed != len(s.Steps) {
		t.Errorf("Executed = %d, want %d", r.Executed, len(s.Steps))
	}
	if !r.OK() {
		t.Errorf("failures: %v", r.Failures)
	}
	if m.ComponentCount() != 1 {
		t.Errorf("ComponentCount = %d, want 1", m.ComponentCount())
	}
}

func TestScriptRun_ReportsFailedExpectation(t *testing.T) {
	s, err := LoadScript([]byte(`
steps:
  - action: create
    name: a
    translate: [1, 0, 0]
  - action: expect
    name: a
    world: [2, 0, 0]
  - action: expect
    name: b
`))
	if err != nil {
		t.Fatal(err)
	}
	r, err := s.Run(xform.NewManager[string]())
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %v", r.Failures)
	}
}

func TestScriptRun_StopsOnCycle(t *testing.T) {
	s, err := LoadScript([]byte(`
steps:
  - action: create
    name: a
  - action: create
    name: b
    parent: a
  - action: parent
    name: a
    parent: b
  - action: create
    name: never
`))
	if err != nil {
		t.Fatal(err)
	}
	m := xform.NewManager[string]()
	r, err := s.Run(m)
	if !errors.Is(err, xform.ErrCycle) {
		t.Fatalf("err = %v, want ErrCycle", err)
	}
	if r.Executed != 2 {
		t.Errorf("Executed = %d, want 2", r.Executed)
	}
	if m.HasComponent("never") {
		t.Error("run should stop at the failing step")
	}
}

func TestScriptRun_UnknownNode(t *testing.T) {
	s, err := LoadScript([]byte("steps:\n  - action: parent\n    name: ghost\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Run(xform.NewManager[string]())
	if !errors.Is(err, xform.ErrInvalidInstance) {
		t.Errorf("err = %v, want ErrInvalidInstance", err)
	}
}

func TestScriptRun_Transaction(t *testing.T) {
	s, err := LoadScript([]byte(`
steps:
  - action: create
    name: a
  - action: create
    name: b
    translate: [0, 3, 0]
  - action: open
  - action: parent
    name: a
    parent: b
  - action: expect
    name: a
    world: [0, 3, 0]
  - action: commit
`))
	if err != nil {
		t.Fatal(err)
	}
	m := xform.NewManager[string]()
	r, err := s.Run(m)
	if err != nil {
		t.Fatal(err)
	}
	if !r.OK() {
		t.Errorf("failures: %v", r.Failures)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
