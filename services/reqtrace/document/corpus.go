// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package document

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/reqtrace/services/reqtrace/diag"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// Document is one (path, text) pair of the input corpus, already read
// from its source. The parser never touches the filesystem itself.
type Document struct {
	// Path identifies the document for locations and classification.
	Path string

	// Text is the full document content.
	Text string
}

// ParseCorpus parses all documents of a corpus.
//
// Description:
//
//	Documents have no cross-document parse dependency, so each parses
//	on its own worker (bounded by GOMAXPROCS). Results merge back in
//	corpus order, so output is deterministic regardless of scheduling.
//	Cross-document concerns (duplicate identifiers, reference
//	resolution) belong to the builder's sequential merge phase, which
//	needs the global identifier view.
//
// Inputs:
//
//	ctx - Cancels outstanding parses early. Parsing itself never fails;
//	      a cancelled context just truncates the remaining documents'
//	      output.
//	docs - The ordered corpus.
//
// Outputs follow Parse: requirements and diagnostics in corpus order.
func ParseCorpus(ctx context.Context, docs []Document) ([]spec.Requirement, []diag.Diagnostic) {
	type result struct {
		reqs  []spec.Requirement
		diags []diag.Diagnostic
	}
	results := make([]result, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reqs, diags := Parse(doc.Text, doc.Path)
			results[i] = result{reqs: reqs, diags: diags}
			return nil
		})
	}
	// Parse never fails; only context cancellation surfaces here, and a
	// cancelled corpus still returns whatever finished.
	_ = g.Wait()

	var reqs []spec.Requirement
	var diags []diag.Diagnostic
	for _, r := range results {
		reqs = append(reqs, r.reqs...)
		diags = append(diags, r.diags...)
	}
	return reqs, diags
}
