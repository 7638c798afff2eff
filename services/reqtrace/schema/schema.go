// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schema declares the relationship table that drives the graph
// builder.
//
// The schema is pure data: the builder is a generic interpreter over
// it, so a new relationship kind is a new table row, not a new code
// path. The core consumes the schema as externally loaded
// configuration — Default() is the built-in table, Load() deserializes
// an override.
package schema

import (
	"fmt"

	"github.com/AleutianAI/reqtrace/services/reqtrace/graph"
	"github.com/AleutianAI/reqtrace/services/reqtrace/ident"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// Direction states which way a declared relationship points in the
// hierarchy.
type Direction int

const (
	// DirectionUp means the declaring source names an ancestor: the
	// resolved target becomes a parent of the source (implements,
	// validates, addresses).
	DirectionUp Direction = iota

	// DirectionDown means the source owns descendants: the resolved
	// target becomes a child of the source (a requirement owning its
	// assertions, a test owning its results).
	DirectionDown
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "unknown"
	}
}

// Field selects which content field of a source record supplies the
// relationship's target identifiers.
type Field string

const (
	// FieldReferences reads the requirement's declared references,
	// filtered to the relationship's name.
	FieldReferences Field = "references"

	// FieldAssertions reads the requirement's own assertion labels.
	FieldAssertions Field = "assertions"

	// FieldTargets reads the Targets list of a code or test reference.
	FieldTargets Field = "targets"

	// FieldResults matches test results back to their owning test.
	FieldResults Field = "results"

	// FieldAddresses reads the Addresses list of a journey.
	FieldAddresses Field = "addresses"
)

// Relationship is one row of the schema table.
type Relationship struct {
	// Name is the relationship name edges carry.
	Name spec.RelName

	// Sources are the node kinds allowed to declare the relationship.
	Sources []graph.Kind

	// Targets are the node kinds a target identifier may resolve to.
	Targets []graph.Kind

	// Direction states whether the target becomes the parent (up) or
	// the child (down) of the source.
	Direction Direction

	// Field selects the source content field that supplies targets.
	Field Field

	// Rollup marks edges of this relationship as eligible for metrics
	// rollup and the cycle check.
	Rollup bool

	// RequiredForNonRoot marks the relationship as satisfying the
	// orphan check: a non-root node on the child end of this
	// relationship's kind pairing must have at least one parent.
	RequiredForNonRoot bool
}

// childKinds returns the kinds expected to gain a parent through this
// relationship: the sources for up edges, the targets for down edges.
func (r Relationship) childKinds() []graph.Kind {
	if r.Direction == DirectionUp {
		return r.Sources
	}
	return r.Targets
}

// LevelRule allows a requirement of Source level to implement a
// requirement of Target level.
type LevelRule struct {
	Source ident.Level
	Target ident.Level
}

// Schema is the full configuration consumed by the builder.
type Schema struct {
	// Relationships is the relationship table.
	Relationships []Relationship

	// LevelRules are the allowed implements pairings between
	// requirement levels. An implements edge between two requirements
	// whose levels match no rule is a level-constraint violation.
	LevelRules []LevelRule

	// RootLevels are the requirement levels declared as roots; their
	// requirements are exempt from the orphan check.
	RootLevels []ident.Level
}

// Default returns the built-in schema.
func Default() *Schema {
	return &Schema{
		Relationships: []Relationship{
			{
				Name:               spec.RelAsserts,
				Sources:            []graph.Kind{graph.KindRequirement},
				Targets:            []graph.Kind{graph.KindAssertion},
				Direction:          DirectionDown,
				Field:              FieldAssertions,
				Rollup:             true,
				RequiredForNonRoot: true,
			},
			{
				Name:               spec.RelImplements,
				Sources:            []graph.Kind{graph.KindRequirement},
				Targets:            []graph.Kind{graph.KindRequirement, graph.KindAssertion},
				Direction:          DirectionUp,
				Field:              FieldReferences,
				Rollup:             true,
				RequiredForNonRoot: true,
			},
			{
				Name:      spec.RelRefines,
				Sources:   []graph.Kind{graph.KindRequirement},
				Targets:   []graph.Kind{graph.KindRequirement, graph.KindAssertion},
				Direction: DirectionUp,
				Field:     FieldReferences,
			},
			{
				Name:               spec.RelAddresses,
				Sources:            []graph.Kind{graph.KindRequirement},
				Targets:            []graph.Kind{graph.KindRequirement, graph.KindAssertion},
				Direction:          DirectionUp,
				Field:              FieldReferences,
				RequiredForNonRoot: true,
			},
			{
				Name:               spec.RelValidates,
				Sources:            []graph.Kind{graph.KindCode, graph.KindTest},
				Targets:            []graph.Kind{graph.KindRequirement, graph.KindAssertion},
				Direction:          DirectionUp,
				Field:              FieldTargets,
				Rollup:             true,
				RequiredForNonRoot: true,
			},
			{
				Name:               spec.RelProducedBy,
				Sources:            []graph.Kind{graph.KindTest},
				Targets:            []graph.Kind{graph.KindTestResult},
				Direction:          DirectionDown,
				Field:              FieldResults,
				Rollup:             true,
				RequiredForNonRoot: true,
			},
			{
				Name:      spec.RelAddresses,
				Sources:   []graph.Kind{graph.KindJourney},
				Targets:   []graph.Kind{graph.KindRequirement},
				Direction: DirectionUp,
				Field:     FieldAddresses,
			},
		},
		LevelRules: []LevelRule{
			{Source: ident.LevelDevelopment, Target: ident.LevelOperational},
			{Source: ident.LevelDevelopment, Target: ident.LevelProduct},
			{Source: ident.LevelOperational, Target: ident.LevelProduct},
		},
		RootLevels: []ident.Level{ident.LevelProduct},
	}
}

// Validate checks the schema for programming-contract violations.
//
// A schema naming an unknown node kind, level, direction, or field is
// misconfiguration of the system itself, not imperfect input, and is
// the one error category that aborts a build.
func (s *Schema) Validate() error {
	if len(s.Relationships) == 0 {
		return fmt.Errorf("schema has no relationships")
	}
	for i, rel := range s.Relationships {
		if rel.Name == "" {
			return fmt.Errorf("relationship %d has no name", i)
		}
		if len(rel.Sources) == 0 || len(rel.Targets) == 0 {
			return fmt.Errorf("relationship %q must declare source and target kinds", rel.Name)
		}
		for _, k := range append(append([]graph.Kind{}, rel.Sources...), rel.Targets...) {
			if k.String() == "unknown" {
				return fmt.Errorf("relationship %q names an unknown node kind", rel.Name)
			}
		}
		if rel.Direction != DirectionUp && rel.Direction != DirectionDown {
			return fmt.Errorf("relationship %q has invalid direction", rel.Name)
		}
		switch rel.Field {
		case FieldReferences, FieldAssertions, FieldTargets, FieldResults, FieldAddresses:
		default:
			return fmt.Errorf("relationship %q names unknown field %q", rel.Name, rel.Field)
		}
	}
	for _, rule := range s.LevelRules {
		if rule.Source == ident.LevelUnknown || rule.Target == ident.LevelUnknown {
			return fmt.Errorf("level rule names an unknown level")
		}
	}
	for _, lvl := range s.RootLevels {
		if lvl == ident.LevelUnknown {
			return fmt.Errorf("root level is unknown")
		}
	}
	return nil
}

// RollupRels returns the names of rollup-eligible relationships.
func (s *Schema) RollupRels() []spec.RelName {
	var out []spec.RelName
	seen := map[spec.RelName]bool{}
	for _, rel := range s.Relationships {
		if rel.Rollup && !seen[rel.Name] {
			seen[rel.Name] = true
			out = append(out, rel.Name)
		}
	}
	return out
}

// IsRollup reports whether the named relationship rolls up metrics.
func (s *Schema) IsRollup(name spec.RelName) bool {
	for _, rel := range s.Relationships {
		if rel.Name == name && rel.Rollup {
			return true
		}
	}
	return false
}

// RequiredParentKinds returns the node kinds that must have at least
// one parent to pass the orphan check.
func (s *Schema) RequiredParentKinds() map[graph.Kind]bool {
	out := map[graph.Kind]bool{}
	for _, rel := range s.Relationships {
		if !rel.RequiredForNonRoot {
			continue
		}
		for _, k := range rel.childKinds() {
			out[k] = true
		}
	}
	return out
}

// LevelAllowed reports whether a requirement of level src may implement
// a requirement of level dst.
func (s *Schema) LevelAllowed(src, dst ident.Level) bool {
	for _, rule := range s.LevelRules {
		if rule.Source == src && rule.Target == dst {
			return true
		}
	}
	return false
}

// IsRootLevel reports whether requirements of the level are declared
// roots.
func (s *Schema) IsRootLevel(level ident.Level) bool {
	for _, lvl := range s.RootLevels {
		if lvl == level {
			return true
		}
	}
	return false
}
