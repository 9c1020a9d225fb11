package config

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var factoryDefaults []byte

type yamlDefaults struct {
	Roles    map[string]Record    `yaml:"roles"`
	Pins     map[string]yaml.Node `yaml:"pins"`
	Fallback string               `yaml:"fallback"`
}

// Defaults provides factory records per role and per pin label.
type Defaults struct {
	roles    map[Role]Record
	pins     map[string]Record
	fallback Role
}

func LoadDefaults(data []byte) (*Defaults, error) {
	var raw yamlDefaults
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing yaml failed: %w", err)
	}

	d := Defaults{
		roles:    make(map[Role]Record, len(raw.Roles)),
		pins:     make(map[string]Record, len(raw.Pins)),
		fallback: Role(raw.Fallback),
	}

	for name, r := range raw.Roles {
		if r.Role != name {
			return nil, fmt.Errorf("[%s] role defaults declare different role: %s", name, r.Role)
		}
		if err := r.Validate(name); err != nil {
			return nil, err
		}
		d.roles[Role(name)] = r
	}

	if _, ok := d.roles[d.fallback]; !ok {
		return nil, fmt.Errorf("fallback role \"%s\" has no defaults", raw.Fallback)
	}

	for label, node := range raw.Pins {
		var head struct {
			Role string `yaml:"role"`
		}
		if err := node.Decode(&head); err != nil {
			return nil, fmt.Errorf("[%s] parsing pin defaults failed: %w", label, err)
		}
		r, ok := d.roles[Role(head.Role)]
		if !ok {
			return nil, fmt.Errorf("[%s] role \"%s\" has no defaults", label, head.Role)
		}
		if err := node.Decode(&r); err != nil {
			return nil, fmt.Errorf("[%s] parsing pin defaults failed: %w", label, err)
		}
		if err := r.Validate(label); err != nil {
			return nil, err
		}
		d.pins[strings.ToUpper(label)] = r
	}

	return &d, nil
}

// FactoryDefaults returns defaults embedded into the binary.
func FactoryDefaults() *Defaults {
	d, err := LoadDefaults(factoryDefaults)
	if err != nil {
		panic(fmt.Sprintf("embedded defaults are broken: %v", err))
	}
	return d
}

func (d *Defaults) Role(role Role) (Record, bool) {
	r, ok := d.roles[role]
	return r, ok
}

// Pin returns factory record for the label, unknown labels get fallback role defaults.
func (d *Defaults) Pin(label string) Record {
	if r, ok := d.pins[strings.ToUpper(label)]; ok {
		return r
	}
	return d.roles[d.fallback]
}

// Default returns encoded factory record for the pin.
func (d *Defaults) Default(label string) (string, error) {
	return EncodeRecord(d.Pin(label))
}

// Complete fills fields missing in stored record with defaults of its role.
func (d *Defaults) Complete(label, stored string) (string, error) {
	r, err := ParseRecord(label, stored, d)
	if err != nil {
		return "", err
	}
	return EncodeRecord(r)
}
