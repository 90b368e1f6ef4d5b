package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/heimdalr/dag"
)

// referencesInNamespace keeps the references rooted at namespace, truncated
// to "namespace.name" and without duplicates.
func referencesInNamespace(body hcl.Body, namespace string) []string {
	seen := make(map[string]bool)
	var ids []string

	syntaxBody, ok := body.(*hclsyntax.Body)
	if !ok {
		return nil
	}

	var walk func(b *hclsyntax.Body)
	walk = func(b *hclsyntax.Body) {
		for _, attr := range b.Attributes {
			for _, traversal := range attr.Expr.Variables() {
				if traversal.RootName() != namespace || len(traversal) < 2 {
					continue
				}
				step, ok := traversal[1].(hcl.TraverseAttr)
				if !ok {
					continue
				}
				id := namespace + "." + step.Name
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
		for _, nested := range b.Blocks {
			walk(nested.Body)
		}
	}
	walk(syntaxBody)

	return ids
}

// SortBlocksByDependencies orders blocks so that every block comes after the
// blocks it references. Blocks without a dependency id keep their relative
// order and come last.
func (cb *ConfigBuilder) SortBlocksByDependencies(blocks hcl.Blocks) (hcl.Blocks, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	graph := dag.NewDAG()
	ids := make(map[*hcl.Block]string)
	var unsorted hcl.Blocks

	for _, block := range blocks {
		handler, ok := cb.blockHandlers[block.Type]
		if !ok {
			continue
		}

		id, depDiags := handler.GetBlockDependencyId(block)
		diags = diags.Extend(depDiags)

		if id == "" {
			unsorted = append(unsorted, block)
			continue
		}

		if err := graph.AddVertexByID(id, block); err != nil {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate block",
				Detail:   fmt.Sprintf("Block %s is defined more than once: %s", id, err),
				Subject:  &block.DefRange,
			})
			continue
		}
		ids[block] = id
	}

	if diags.HasErrors() {
		return nil, diags
	}

	for _, block := range blocks {
		id, ok := ids[block]
		if !ok {
			continue
		}

		deps, depDiags := cb.blockHandlers[block.Type].GetBlockDependencies(block)
		diags = diags.Extend(depDiags)

		for _, dep := range deps {
			// Unknown references are reported when the block is evaluated.
			if _, err := graph.GetVertex(dep); err != nil {
				continue
			}

			if err := graph.AddEdge(dep, id); err != nil {
				diags = diags.Append(&hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Circular dependency detected",
					Detail:   fmt.Sprintf("Cannot add dependency from %s to %s: %s", dep, id, err),
					Subject:  &block.DefRange,
				})
			}
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}

	visitor := &blockVertexVisitor{}
	graph.OrderedWalk(visitor)

	return append(visitor.blocks, unsorted...), diags
}

type blockVertexVisitor struct {
	blocks hcl.Blocks
}

func (v *blockVertexVisitor) Visit(vertex dag.Vertexer) {
	_, value := vertex.Vertex()
	v.blocks = append(v.blocks, value.(*hcl.Block))
}
