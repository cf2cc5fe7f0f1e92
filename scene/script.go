package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/xform"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Step is a single action in a script.
//
// Actions:
//
//	create     create Name under Parent with Translate
//	parent     attach Name to Parent ("" makes it a root)
//	translate  replace the translation of Name's local transform
//	destroy    destroy Name and its subtree
//	open       open a local transform transaction
//	commit     commit the current transaction
//	expect     check Name: World translation, Parent, or Absent
type Step struct {
	Action    string    `yaml:"action"`
	Name      string    `yaml:"name,omitempty"`
	Parent    string    `yaml:"parent,omitempty"`
	Translate []float64 `yaml:"translate,omitempty"`

	World     []float64 `yaml:"world,omitempty"`
	Absent    bool      `yaml:"absent,omitempty"`
	Tolerance float64   `yaml:"tolerance,omitempty"`
}

// Script is a parsed sequence of steps.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Report summarizes a script run.
type Report struct {
	Executed int
	Failures []string
}

// OK reports whether every expectation held.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

const defaultTolerance = 1e-5

// LoadScript parses a YAML script.
func LoadScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse script")
	}
	if len(s.Steps) == 0 {
		return nil, errors.New("parse script: no steps")
	}
	for k, st := range s.Steps {
		switch st.Action {
		case "create", "parent", "translate", "destroy", "expect":
			if st.Name == "" {
				return nil, errors.Errorf("parse script: step %d (%s) has no name", k, st.Action)
			}
		case "open", "commit":
		default:
			return nil, errors.Errorf("parse script: step %d has unknown action %q", k, st.Action)
		}
		if err := checkVec(st.Translate, "translate"); err != nil {
			return nil, errors.Wrapf(err, "parse script: step %d", k)
		}
		if err := checkVec(st.World, "world"); err != nil {
			return nil, errors.Wrapf(err, "parse script: step %d", k)
		}
	}
	return &s, nil
}

// Run applies the steps to m in order. Failed expectations are collected in
// the report; any other failure (unknown node, cycle) stops the run and is
// returned as an error.
func (s *Script) Run(m *xform.Manager[string]) (*Report, error) {
	r := &Report{}
	for k, st := range s.Steps {
		if err := s.step(m, st, r); err != nil {
			return r, errors.Wrapf(err, "step %d (%s %s)", k, st.Action, st.Name)
		}
		r.Executed++
	}
	return r, nil
}

func (s *Script) step(m *xform.Manager[string], st Step, r *Report) error {
	switch st.Action {
	case "create":
		parent, err := lookup(m, st.Parent)
		if err != nil {
			return err
		}
		_, err = m.CreateAccurate(st.Name, parent, translation(st.Translate))
		return err
	case "parent":
		i, err := lookup(m, st.Name)
		if err != nil {
			return err
		}
		parent, err := lookup(m, st.Parent)
		if err != nil {
			return err
		}
		return m.SetParent(i, parent)
	case "translate":
		i, err := lookup(m, st.Name)
		if err != nil {
			return err
		}
		local := m.TransformAccurate(i)
		for k, v := range vecOrZero(st.Translate) {
			local[12+k] = v
		}
		m.SetTransformAccurate(i, local)
	case "destroy":
		m.Destroy(st.Name)
	case "open":
		m.OpenLocalTransformTransaction()
	case "commit":
		m.CommitLocalTransformTransaction()
	case "expect":
		if msg := expect(m, st); msg != "" {
			r.Failures = append(r.Failures, msg)
		}
	}
	return nil
}

// expect returns a failure message, or "" when the expectation holds.
func expect(m *xform.Manager[string], st Step) string {
	i := m.Instance(st.Name)
	if st.Absent {
		if i != xform.NoInstance {
			return fmt.Sprintf("%s: expected absent", st.Name)
		}
		return ""
	}
	if i == xform.NoInstance {
		return fmt.Sprintf("%s: missing", st.Name)
	}
	if st.Parent != "" && m.Parent(i) != st.Parent {
		return fmt.Sprintf("%s: parent = %q, want %q", st.Name, m.Parent(i), st.Parent)
	}
	if st.World != nil {
		tol := st.Tolerance
		if tol == 0 {
			tol = defaultTolerance
		}
		got := m.WorldTransformAccurate(i).Col(3).Vec3()
		want := mgl64.Vec3{st.World[0], st.World[1], st.World[2]}
		if !got.ApproxEqualThreshold(want, tol) {
			return fmt.Sprintf("%s: world translation = %v, want %v", st.Name, got, want)
		}
	}
	return ""
}

// lookup resolves a node name; "" resolves to NoInstance.
func lookup(m *xform.Manager[string], name string) (xform.Instance, error) {
	if name == "" {
		return xform.NoInstance, nil
	}
	i := m.Instance(name)
	if i == xform.NoInstance {
		return xform.NoInstance, errors.Wrapf(xform.ErrInvalidInstance, "unknown node %q", name)
	}
	return i, nil
}

func translation(v []float64) mgl64.Mat4 {
	t := vecOrZero(v)
	return mgl64.Translate3D(t[0], t[1], t[2])
}

func vecOrZero(v []float64) [3]float64 {
	var out [3]float64
	copy(out[:], v)
	return out
}
