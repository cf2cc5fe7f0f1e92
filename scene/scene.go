// Package scene builds xform hierarchies from YAML documents and replays
// scripted hierarchy edits against them.
//
// A scene document lists nodes by name; parents may appear after their
// children:
//
//	nodes:
//	  - name: arm
//	    parent: body
//	    translate: [1, 0, 0]
//	  - name: body
//	    rotate_z: 90
//	    accurate: true
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/xform"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// NodeSpec describes one node of a scene.
type NodeSpec struct {
	Name      string    `yaml:"name"`
	Parent    string    `yaml:"parent,omitempty"`
	Translate []float64 `yaml:"translate,omitempty"`
	Scale     []float64 `yaml:"scale,omitempty"`
	// RotateZ is a rotation about Z in degrees.
	RotateZ float64 `yaml:"rotate_z,omitempty"`
	// Accurate stores this node's local transform in double precision
	// regardless of the manager's mode.
	Accurate bool `yaml:"accurate,omitempty"`
}

// Scene is a parsed scene document.
type Scene struct {
	Config *xform.Config `yaml:"config,omitempty"`
	Nodes  []NodeSpec    `yaml:"nodes"`
}

// Parse decodes and validates a YAML scene document.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse scene")
	}
	seen := make(map[string]bool, len(s.Nodes))
	for k, n := range s.Nodes {
		if n.Name == "" {
			return nil, errors.Errorf("parse scene: node %d has no name", k)
		}
		if seen[n.Name] {
			return nil, errors.Errorf("parse scene: duplicate node %q", n.Name)
		}
		seen[n.Name] = true
		if err := checkVec(n.Translate, "translate"); err != nil {
			return nil, errors.Wrapf(err, "parse scene: node %q", n.Name)
		}
		if err := checkVec(n.Scale, "scale"); err != nil {
			return nil, errors.Wrapf(err, "parse scene: node %q", n.Name)
		}
	}
	for _, n := range s.Nodes {
		if n.Parent != "" && !seen[n.Parent] {
			return nil, errors.Errorf("parse scene: node %q has unknown parent %q", n.Name, n.Parent)
		}
	}
	return &s, nil
}

func checkVec(v []float64, field string) error {
	if v != nil && len(v) != 3 {
		return errors.Errorf("%s needs 3 components, got %d", field, len(v))
	}
	return nil
}

// Local returns the node's local transform: translate * rotateZ * scale.
func (n NodeSpec) Local() mgl64.Mat4 {
	t := mgl64.Ident4()
	if n.Translate != nil {
		t = mgl64.Translate3D(n.Translate[0], n.Translate[1], n.Translate[2])
	}
	r := mgl64.HomogRotate3DZ(mgl64.DegToRad(n.RotateZ))
	s := mgl64.Ident4()
	if n.Scale != nil {
		s = mgl64.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	}
	return t.Mul4(r).Mul4(s)
}

// Build creates every node of the scene in m. All nodes are created as
// roots and then attached inside a single local transform transaction, so
// parent order in the document does not matter and the dense order is
// restored once. Build stops at the first error; nodes created so far stay.
func (s *Scene) Build(m *xform.Manager[string]) error {
	m.OpenLocalTransformTransaction()
	defer m.CommitLocalTransformTransaction()

	for _, n := range s.Nodes {
		if err := create(m, n); err != nil {
			return errors.Wrapf(err, "build node %q", n.Name)
		}
	}
	for _, n := range s.Nodes {
		if n.Parent == "" {
			continue
		}
		if err := m.SetParent(m.Instance(n.Name), m.Instance(n.Parent)); err != nil {
			return errors.Wrapf(err, "attach %q to %q", n.Name, n.Parent)
		}
	}
	return nil
}

func create(m *xform.Manager[string], n NodeSpec) error {
	if n.Accurate && !m.AccurateTranslationsEnabled() {
		m.SetAccurateTranslationsEnabled(true)
		defer m.SetAccurateTranslationsEnabled(false)
	}
	_, err := m.CreateAccurate(n.Name, xform.NoInstance, n.Local())
	return err
}
