// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package document parses requirement specification documents.
//
// The format is markdown-flavored and hand-authored, so the parser is
// line-oriented and recovering: a malformed block yields a diagnostic
// anchored to the offending line and parsing resumes at the next header.
// A document never fails to parse as a whole.
//
// A requirement block looks like:
//
//	### REQ-p00001: Authentication (active)
//
//	Body text describing the requirement.
//
//	Rationale: why this exists, non-normative.
//
//	Assertions:
//	A. The system SHALL reject expired tokens.
//	B. Sessions SHALL time out after 15 minutes. [manual]
//
//	Implements: REQ-o00002, CAL:REQ-p00001-A
//	Tags: auth, security
//	Hash: 3f9a2c1b
//
// # Thread Safety
//
// Parse is a pure function over its inputs. ParseCorpus runs per-document
// parses on parallel workers; see corpus.go.
package document

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AleutianAI/reqtrace/services/reqtrace/diag"
	"github.com/AleutianAI/reqtrace/services/reqtrace/ident"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// Line recognizers. The header pattern is deliberately loose: depth 2-4,
// optional colon or dash after the identifier token, optional trailing
// status in parentheses.
var (
	headerPattern = regexp.MustCompile(`^#{2,4}\s+(\S+)\s*(.*?)\s*$`)
	statusPattern = regexp.MustCompile(`^(.*?)\s*\(([A-Za-z]+)\)\s*$`)

	assertLetteredPattern = regexp.MustCompile(`^([A-Z])[.):]\s+(.*)$`)
	assertNumberedPattern = regexp.MustCompile(`^(\d{1,2})[.)]\s+(.*)$`)
	assertBulletedPattern = regexp.MustCompile(`^[-*]\s+(.*)$`)

	keywordPattern = regexp.MustCompile(`^([A-Za-z]+):\s*(.*)$`)
	hashPattern    = regexp.MustCompile(`^[0-9a-f]{8}$`)
)

// manualMarker on an assertion suppresses the coverage-gap check.
const manualMarker = "[manual]"

// referenceKeywords are the canonical reference line keywords mapped to
// their relationship names.
var referenceKeywords = map[string]spec.RelName{
	"implements": spec.RelImplements,
	"refines":    spec.RelRefines,
	"addresses":  spec.RelAddresses,
}

// maxKeywordDistance is how far a misspelled section keyword may be from
// a known keyword and still be recognized (with a diagnostic).
const maxKeywordDistance = 2

// Parse parses one document into requirements and diagnostics.
//
// Description:
//
//	Scans line by line for requirement headers and parses each block.
//	Malformed blocks and malformed lines produce diagnostics with
//	1-based line numbers; parsing always continues. The returned
//	requirements carry both the stored content hash (if a Hash: line
//	was present) and the recomputed hash for the builder's comparison.
//
// Inputs:
//
//	text - The full document text, already read from its source.
//	path - The document path, used only for locations and Subdir.
//
// Outputs:
//
//	[]spec.Requirement - Parsed requirements in document order.
//	[]diag.Diagnostic - Parse findings, possibly empty. Never nil on findings.
func Parse(text, path string) ([]spec.Requirement, []diag.Diagnostic) {
	p := &parser{path: path, lines: splitLines(text), subdir: subdirOf(path)}
	p.run()
	return p.requirements, p.diags
}

// parser holds the per-document parse state.
type parser struct {
	path   string
	subdir string
	lines  []string

	requirements []spec.Requirement
	diags        []diag.Diagnostic
}

// run scans for requirement headers and parses each block.
func (p *parser) run() {
	i := 0
	for i < len(p.lines) {
		token, title, ok := requirementHeader(p.lines[i])
		if !ok {
			i++
			continue
		}
		next := p.findNextHeader(i + 1)
		req, usable := p.parseBlock(i, next, token, title)
		if usable {
			p.requirements = append(p.requirements, req)
		}
		i = next
	}
}

// findNextHeader returns the index of the next requirement header line
// at or after from, or len(lines).
func (p *parser) findNextHeader(from int) int {
	for i := from; i < len(p.lines); i++ {
		if _, _, ok := requirementHeader(p.lines[i]); ok {
			return i
		}
	}
	return len(p.lines)
}

// requirementHeader recognizes a requirement header line and splits it
// into the identifier token and the title text.
//
// Ordinary markdown headers ("## Overview") are not requirement headers
// and must not produce diagnostics, so the token is gated on looking
// like an identifier: it either contains the REQ prefix or its first
// dash-separated segment is within edit distance of it. This keeps the
// parser tolerant of garbled prefixes ("RQE-p00001") while leaving
// prose structure alone.
func requirementHeader(line string) (token, title string, ok bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	token, title = m[1], m[2]

	// "### REQ-p00001: Title" puts the separator inside the token.
	token = strings.TrimSuffix(token, ":")
	// "### REQ-p00001 - Title" leaves a dangling dash on the title.
	title = strings.TrimSpace(strings.TrimPrefix(title, "- "))

	if !looksLikeIdentifier(token) {
		return "", "", false
	}
	return token, title, true
}

// looksLikeIdentifier gates header recognition on the REQ prefix.
func looksLikeIdentifier(token string) bool {
	upper := strings.ToUpper(token)
	if strings.Contains(upper, ident.Prefix) {
		return true
	}
	// Drop a namespace qualifier, then compare the first segment.
	if _, local, found := strings.Cut(upper, ":"); found {
		upper = local
	}
	first := upper
	for _, sep := range []string{"-", "_", ".", "/"} {
		if head, _, found := strings.Cut(upper, sep); found && len(head) < len(first) {
			first = head
		}
	}
	return levenshtein(first, ident.Prefix) <= maxKeywordDistance
}

// parseBlock parses the block spanning lines [start, end).
// Returns ok=false when the block is unusable.
func (p *parser) parseBlock(start, end int, token, headerTitle string) (spec.Requirement, bool) {
	headerLine := start + 1 // 1-based

	id, ok := p.parseHeaderID(token, headerLine)
	if !ok {
		return spec.Requirement{}, false
	}

	title, status := headerTitle, spec.StatusDraft
	if sm := statusPattern.FindStringSubmatch(title); sm != nil {
		parsed, known := spec.StatusFromString(sm[2])
		if known {
			title, status = sm[1], parsed
		} else {
			p.report(diag.SeverityWarning, diag.CheckParse, id.String(), headerLine,
				fmt.Sprintf("unknown status %q, defaulting to draft", sm[2]))
			title = sm[1]
		}
	}
	if title == "" {
		p.report(diag.SeverityWarning, diag.CheckParse, id.String(), headerLine, "requirement has no title")
	}

	req := spec.Requirement{
		ID:     id.String(),
		Title:  title,
		Status: status,
		Subdir: p.subdir,
		Location: spec.Location{
			Path:    p.path,
			Line:    headerLine,
			EndLine: end, // line before the next header, 1-based
		},
	}

	p.parseBody(&req, start+1, end)
	req.ComputedHash = spec.ContentHash(req.Title, req.Body, req.Assertions)
	return req, true
}

// parseHeaderID parses the identifier token from a header line,
// recovering through the suggestion machinery when possible.
func (p *parser) parseHeaderID(token string, line int) (ident.Identifier, bool) {
	id, fail := ident.Parse(token)
	if fail != nil {
		if fail.Suggestion != "" {
			if repaired, refail := ident.Parse(fail.Suggestion); refail == nil {
				p.report(diag.SeverityWarning, diag.CheckParse, repaired.String(), line,
					fmt.Sprintf("malformed identifier %q, parsed as %q", token, fail.Suggestion))
				id = repaired
			} else {
				p.report(diag.SeverityError, diag.CheckParse, "", line, fail.Error())
				return ident.Identifier{}, false
			}
		} else {
			p.report(diag.SeverityError, diag.CheckParse, "", line,
				fmt.Sprintf("skipping block: %s", fail.Error()))
			return ident.Identifier{}, false
		}
	}
	if id.IsScoped() {
		p.report(diag.SeverityWarning, diag.CheckParse, id.RequirementID().String(), line,
			"requirement header must not carry assertion labels")
		id = id.RequirementID()
	}
	return id, true
}

// blockSection tracks which multi-line section the body scan is inside.
type blockSection int

const (
	sectionBody blockSection = iota
	sectionRationale
	sectionAssertions
)

// parseBody extracts body text, rationale, assertions, references, tags,
// and the stored hash from the block lines (start exclusive header).
func (p *parser) parseBody(req *spec.Requirement, start, end int) {
	var body []string
	var rationale []string
	section := sectionBody

	for i := start; i < end; i++ {
		line := p.lines[i]
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if section == sectionRationale {
				section = sectionBody
			}
			if section == sectionBody {
				body = append(body, "")
			}
			continue
		}

		if km := keywordPattern.FindStringSubmatch(trimmed); km != nil {
			keyword, value := km[1], km[2]
			switch strings.ToLower(keyword) {
			case "rationale":
				section = sectionRationale
				if value != "" {
					rationale = append(rationale, value)
				}
				continue
			case "assertions":
				section = sectionAssertions
				continue
			case "tags":
				req.Tags = splitList(value)
				section = sectionBody
				continue
			case "hash":
				p.parseHash(req, value, lineNo)
				section = sectionBody
				continue
			}
			if rel := p.matchReferenceKeyword(keyword, req.ID, lineNo); rel != "" {
				p.parseReferences(req, rel, value, lineNo)
				section = sectionBody
				continue
			}
		}

		switch section {
		case sectionAssertions:
			if p.parseAssertion(req, trimmed, lineNo) {
				continue
			}
			// Indented continuation extends the previous assertion.
			if len(req.Assertions) > 0 && line != trimmed {
				last := &req.Assertions[len(req.Assertions)-1]
				last.Text += " " + trimmed
				continue
			}
			section = sectionBody
			body = append(body, trimmed)
		case sectionRationale:
			rationale = append(rationale, trimmed)
		default:
			body = append(body, trimmed)
		}
	}

	req.Body = strings.TrimSpace(strings.Join(body, "\n"))
	req.Rationale = strings.TrimSpace(strings.Join(rationale, " "))
}

// matchReferenceKeyword resolves a line keyword to a relationship name.
// Exact keywords match silently; miscased and near-miss spellings match
// with a diagnostic carrying the suggested correction. Returns "" when
// the keyword is not a reference keyword at all.
func (p *parser) matchReferenceKeyword(keyword, reqID string, line int) spec.RelName {
	lowered := strings.ToLower(keyword)
	if rel, ok := referenceKeywords[lowered]; ok {
		if canonical := canonicalKeyword(lowered); keyword != canonical {
			p.report(diag.SeverityWarning, diag.CheckParse, reqID, line,
				fmt.Sprintf("reference keyword %q should be %q", keyword, canonical))
		}
		return rel
	}
	for known, rel := range referenceKeywords {
		if levenshtein(lowered, known) <= maxKeywordDistance {
			p.report(diag.SeverityWarning, diag.CheckParse, reqID, line,
				fmt.Sprintf("reference keyword %q should be %q", keyword, canonicalKeyword(known)))
			return rel
		}
	}
	return ""
}

// canonicalKeyword renders a reference keyword in document form
// (capitalized, trailing colon added by the author).
func canonicalKeyword(lowered string) string {
	return strings.ToUpper(lowered[:1]) + lowered[1:]
}

// parseReferences parses a comma-separated reference value list.
func (p *parser) parseReferences(req *spec.Requirement, rel spec.RelName, value string, line int) {
	for _, token := range splitList(value) {
		id, fail := ident.Parse(token)
		if fail != nil {
			if fail.Suggestion != "" {
				if repaired, refail := ident.Parse(fail.Suggestion); refail == nil {
					p.report(diag.SeverityWarning, diag.CheckParse, req.ID, line,
						fmt.Sprintf("malformed reference %q, parsed as %q", token, fail.Suggestion))
					id = repaired
				} else {
					p.report(diag.SeverityError, diag.CheckParse, req.ID, line, fail.Error())
					continue
				}
			} else {
				p.report(diag.SeverityError, diag.CheckParse, req.ID, line, fail.Error())
				continue
			}
		}
		req.References = append(req.References, spec.Reference{
			Rel:      rel,
			Target:   id.String(),
			Location: spec.Location{Path: p.path, Line: line},
		})
	}
}

// parseAssertion recognizes one assertion line in any supported style.
// Lettered assertions keep their author-assigned label; numbered and
// bulleted assertions get positional labels (first = A).
func (p *parser) parseAssertion(req *spec.Requirement, trimmed string, line int) bool {
	var label byte
	var text string

	switch {
	case assertLetteredPattern.MatchString(trimmed):
		m := assertLetteredPattern.FindStringSubmatch(trimmed)
		label, text = m[1][0], m[2]
	case assertNumberedPattern.MatchString(trimmed):
		m := assertNumberedPattern.FindStringSubmatch(trimmed)
		label, text = positionalLabel(len(req.Assertions)), m[2]
	case assertBulletedPattern.MatchString(trimmed):
		m := assertBulletedPattern.FindStringSubmatch(trimmed)
		label, text = positionalLabel(len(req.Assertions)), m[1]
	default:
		return false
	}

	expectedGap := false
	if strings.Contains(text, manualMarker) {
		expectedGap = true
		text = strings.TrimSpace(strings.ReplaceAll(text, manualMarker, ""))
	}

	if prior := req.Assertion(label); prior != nil {
		p.report(diag.SeverityError, diag.CheckParse, req.ID, line,
			fmt.Sprintf("duplicate assertion label %q, keeping the first", string(label)))
		return true
	}

	req.Assertions = append(req.Assertions, spec.Assertion{
		Label:       label,
		Text:        text,
		Requirement: req.ID,
		ExpectedGap: expectedGap,
		Location:    spec.Location{Path: p.path, Line: line},
	})
	return true
}

// parseHash validates and stores the Hash: line value.
func (p *parser) parseHash(req *spec.Requirement, value string, line int) {
	value = strings.TrimSpace(value)
	if !hashPattern.MatchString(value) {
		p.report(diag.SeverityWarning, diag.CheckParse, req.ID, line,
			fmt.Sprintf("content hash %q is not %d hex characters", value, spec.HashLength))
		return
	}
	req.StoredHash = value
}

// report appends a diagnostic anchored to a 1-based line.
func (p *parser) report(sev diag.Severity, check, id string, line int, msg string) {
	p.diags = append(p.diags, diag.Diagnostic{
		Severity: sev,
		Check:    check,
		ID:       id,
		Message:  msg,
		Location: spec.Location{Path: p.path, Line: line},
	})
}

// positionalLabel maps an assertion position to its letter label.
func positionalLabel(position int) byte {
	if position > 25 {
		return 'Z'
	}
	return byte('A' + position)
}

// splitList splits a comma-separated value list, dropping empties.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// splitLines splits on \n, tolerating \r\n documents.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// levenshtein computes edit distance between two short keyword strings.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// subdirOf derives the coarse classification from the document path:
// the first directory component, or "" for top-level documents.
func subdirOf(path string) string {
	dir := filepath.Dir(filepath.ToSlash(path))
	if dir == "." || dir == "/" || dir == "" {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(dir, "/"), "/")
	return parts[0]
}
