// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/reqtrace/services/reqtrace/graph"
	"github.com/AleutianAI/reqtrace/services/reqtrace/ident"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// YAML wire form of the schema. Kinds, levels, and directions are
// spelled out as names; see Default() for the equivalent built-in.
type schemaYAML struct {
	Relationships []relationshipYAML `yaml:"relationships"`
	LevelRules    []levelRuleYAML    `yaml:"level_rules"`
	RootLevels    []string           `yaml:"root_levels"`
}

type relationshipYAML struct {
	Name      string   `yaml:"name"`
	Sources   []string `yaml:"sources"`
	Targets   []string `yaml:"targets"`
	Direction string   `yaml:"direction"`
	Field     string   `yaml:"field"`
	Rollup    bool     `yaml:"rollup"`
	Required  bool     `yaml:"required"`
}

type levelRuleYAML struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Load deserializes a schema override from YAML.
//
// A schema that does not deserialize or validate is system
// misconfiguration; the error propagates to the caller and aborts the
// build that would have consumed it.
func Load(data []byte) (*Schema, error) {
	var wire schemaYAML
	if err := yaml.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parsing schema yaml: %w", err)
	}

	s := &Schema{}
	for _, r := range wire.Relationships {
		rel := Relationship{
			Name:               spec.RelName(r.Name),
			Field:              Field(r.Field),
			Rollup:             r.Rollup,
			RequiredForNonRoot: r.Required,
		}
		switch r.Direction {
		case "up":
			rel.Direction = DirectionUp
		case "down":
			rel.Direction = DirectionDown
		default:
			return nil, fmt.Errorf("relationship %q: unknown direction %q", r.Name, r.Direction)
		}
		var err error
		if rel.Sources, err = parseKinds(r.Sources); err != nil {
			return nil, fmt.Errorf("relationship %q: %w", r.Name, err)
		}
		if rel.Targets, err = parseKinds(r.Targets); err != nil {
			return nil, fmt.Errorf("relationship %q: %w", r.Name, err)
		}
		s.Relationships = append(s.Relationships, rel)
	}

	for _, r := range wire.LevelRules {
		src, dst := ident.LevelFromName(r.Source), ident.LevelFromName(r.Target)
		if src == ident.LevelUnknown || dst == ident.LevelUnknown {
			return nil, fmt.Errorf("level rule %q -> %q names an unknown level", r.Source, r.Target)
		}
		s.LevelRules = append(s.LevelRules, LevelRule{Source: src, Target: dst})
	}

	for _, name := range wire.RootLevels {
		lvl := ident.LevelFromName(name)
		if lvl == ident.LevelUnknown {
			return nil, fmt.Errorf("root level %q is unknown", name)
		}
		s.RootLevels = append(s.RootLevels, lvl)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dump serializes a schema to its YAML wire form. Loading the output
// back through Load yields an equivalent schema.
func Dump(s *Schema) ([]byte, error) {
	wire := schemaYAML{}
	for _, rel := range s.Relationships {
		r := relationshipYAML{
			Name:     string(rel.Name),
			Field:    string(rel.Field),
			Rollup:   rel.Rollup,
			Required: rel.RequiredForNonRoot,
		}
		switch rel.Direction {
		case DirectionUp:
			r.Direction = "up"
		case DirectionDown:
			r.Direction = "down"
		}
		for _, k := range rel.Sources {
			r.Sources = append(r.Sources, k.String())
		}
		for _, k := range rel.Targets {
			r.Targets = append(r.Targets, k.String())
		}
		wire.Relationships = append(wire.Relationships, r)
	}
	for _, rule := range s.LevelRules {
		wire.LevelRules = append(wire.LevelRules, levelRuleYAML{
			Source: rule.Source.String(),
			Target: rule.Target.String(),
		})
	}
	for _, lvl := range s.RootLevels {
		wire.RootLevels = append(wire.RootLevels, lvl.String())
	}
	return yaml.Marshal(wire)
}

// parseKinds maps kind names to graph kinds.
func parseKinds(names []string) ([]graph.Kind, error) {
	var out []graph.Kind
	for _, name := range names {
		kind := graph.KindFromString(name)
		if kind == graph.KindUnknown {
			return nil, fmt.Errorf("unknown node kind %q", name)
		}
		out = append(out, kind)
	}
	return out, nil
}
