package policy

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrPolicyNotFound is returned when a policy file does not exist.
var ErrPolicyNotFound = errors.New("policy file not found")

// ErrInvalidPolicy is returned when a policy file is malformed.
var ErrInvalidPolicy = errors.New("invalid policy file")

// RootPolicy is the top-level policy document. Beyond the default rule
// bundle it may carry threat models that route specific repositories or
// owners to alternate policy files during an organization-wide audit.
type RootPolicy struct {
	Policy `yaml:",inline"`

	ThreatModels map[string]*ThreatModel `yaml:"threatmodels"`
}

// ThreatModel routes a set of repositories (or a whole owner) to its own
// policy file, resolved relative to the root policy's directory.
type ThreatModel struct {
	// Uses is the path of the policy file to apply.
	Uses string `yaml:"uses"`

	// Repositories lists owner/repo names this model applies to.
	Repositories []string `yaml:"repositories"`

	// Owner applies the model to every repository of one owner.
	Owner string `yaml:"owner"`

	policy *Policy
}

// Matches reports whether the threat model covers the given
// owner/repo name.
func (tm *ThreatModel) Matches(repository string) bool {
	if tm.Owner != "" {
		owner, _, _ := strings.Cut(repository, "/")
		if tm.Owner == owner {
			return true
		}
	}
	for _, repo := range tm.Repositories {
		if repo == repository {
			return true
		}
	}
	return false
}

// PolicyFor resolves the effective policy bundle for a repository:
// the first matching threat model's policy, a threat model keyed by the
// repository name, or the root bundle itself. Models are visited in
// lexical name order so a repository matching several always resolves
// to the same one.
func (r *RootPolicy) PolicyFor(repository string) *Policy {
	names := make([]string, 0, len(r.ThreatModels))
	for name := range r.ThreatModels {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tm := r.ThreatModels[name]
		if tm == nil || tm.policy == nil {
			continue
		}
		if tm.Matches(repository) || name == repository {
			return tm.policy
		}
	}
	return &r.Policy
}

// Load reads and parses the policy file at path, resolving threat model
// references relative to its directory. Returns ErrPolicyNotFound if the
// file does not exist and ErrInvalidPolicy if it is malformed.
func Load(path string) (*RootPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, path)
		}
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := root.resolveThreatModels(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return root, nil
}

// Parse parses a root policy document. Unknown sections and blocks are
// rejected so a typo fails the run instead of silently passing it.
func Parse(data []byte) (*RootPolicy, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var root RootPolicy
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	if root.Version == "" {
		root.Version = "3"
	}

	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return &root, nil
}

// UnmarshalYAML decodes the root document, splitting the threat model
// table from the inline default bundle.
func (r *RootPolicy) UnmarshalYAML(value *yaml.Node) error {
	if err := checkFields(value, "version", "name", "display", "codescanning",
		"supplychain", "secretscanning", "threatmodels"); err != nil {
		return err
	}
	if err := value.Decode(&r.Policy); err != nil {
		return err
	}
	type raw struct {
		ThreatModels map[string]*ThreatModel `yaml:"threatmodels"`
	}
	var tmp raw
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	r.ThreatModels = tmp.ThreatModels
	return nil
}

// UnmarshalYAML validates the threat model's fields.
func (tm *ThreatModel) UnmarshalYAML(value *yaml.Node) error {
	if err := checkFields(value, "uses", "repositories", "owner"); err != nil {
		return err
	}
	type raw ThreatModel
	var tmp raw
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*tm = ThreatModel(tmp)
	return nil
}

// resolveThreatModels loads each referenced policy file. References must
// stay inside the root policy's directory tree.
func (r *RootPolicy) resolveThreatModels(base string) error {
	for name, tm := range r.ThreatModels {
		if tm == nil || tm.Uses == "" {
			continue
		}

		full := filepath.Join(base, filepath.Clean(tm.Uses))
		absBase, err := filepath.Abs(base)
		if err != nil {
			return fmt.Errorf("threatmodel %q: %w", name, err)
		}
		absFull, err := filepath.Abs(full)
		if err != nil {
			return fmt.Errorf("threatmodel %q: %w", name, err)
		}
		if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
			return fmt.Errorf("%w: threatmodel %q escapes policy directory: %s",
				ErrInvalidPolicy, name, tm.Uses)
		}

		sub, err := Load(absFull)
		if err != nil {
			return fmt.Errorf("threatmodel %q: %w", name, err)
		}
		tm.policy = &sub.Policy
	}
	return nil
}

// checkFields rejects mapping keys outside the allowed set. yaml.v3 does
// not propagate KnownFields through custom unmarshallers, so strictness
// is enforced per node.
func checkFields(node *yaml.Node, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		ok := false
		for _, name := range allowed {
			if key == name {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: unknown field %q (line %d)",
				ErrInvalidPolicy, key, node.Content[i].Line)
		}
	}
	return nil
}
