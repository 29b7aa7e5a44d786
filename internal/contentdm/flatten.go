package contentdm

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/windwalker/windwalker/internal/model"
)

// MaxDepth bounds how deep Flatten descends into nested node objects.
const MaxDepth = 64

type frame struct {
	node  map[string]any
	depth int
}

// Flatten walks a compound-object document and returns its leaf pages in
// document order. Each node may carry "page" and "node" fields, each either
// a single object or an array of objects. Pages without both a title and a
// pointer are skipped. The root's own "node" field is part of the walk, and
// every node object is visited once, so no leaf is counted twice.
func Flatten(doc any) []model.LeafRecord {
	leaves := make([]model.LeafRecord, 0)
	visited := make(map[uintptr]bool)

	var stack []frame
	stack = pushAll(stack, objects(doc), 0)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > MaxDepth {
			zap.L().Warn("contentdm: index nesting exceeds max depth, skipping subtree",
				zap.Int("max_depth", MaxDepth),
			)
			continue
		}

		id := reflect.ValueOf(f.node).Pointer()
		if visited[id] {
			continue
		}
		visited[id] = true

		for _, page := range objects(f.node["page"]) {
			if leaf, ok := toLeaf(page); ok {
				leaves = append(leaves, leaf)
			}
		}

		stack = pushAll(stack, objects(f.node["node"]), f.depth+1)
	}

	return leaves
}

// pushAll pushes nodes in reverse so they pop in document order.
func pushAll(stack []frame, nodes []map[string]any, depth int) []frame {
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: nodes[i], depth: depth})
	}
	return stack
}

// objects normalizes a single-object-or-array field to a slice of objects.
func objects(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func toLeaf(page map[string]any) (model.LeafRecord, bool) {
	title, ok := text(page["pagetitle"])
	if !ok {
		return model.LeafRecord{}, false
	}
	ptr, ok := text(page["pageptr"])
	if !ok {
		return model.LeafRecord{}, false
	}
	file, _ := text(page["pagefile"])
	return model.LeafRecord{Title: title, Pointer: ptr, File: file}, true
}

// text reads a scalar field. CONTENTdm writes empty fields as {}, which
// reads as missing.
func text(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
