package render

import (
	"github.com/agentic-research/treesearch/api"
)

// ResultDocument converts res into a generic document for JSON output.
func ResultDocument(res *api.Result) Document {
	req := res.Request
	return Document{
		"request": Document{
			"root_path":  req.RootPath,
			"pattern":    req.Pattern,
			"find_all":   req.FindAll,
			"algorithm":  string(req.Algorithm),
			"max_depth":  int64(req.MaxDepth),
			"max_fanout": int64(req.MaxFanout),
			"delay_ms":   req.Delay.Milliseconds(),
		},
		"order":       anySlice(res.Order),
		"visited":     anySlice(res.Visited),
		"found":       anySlice(res.Found),
		"total_nodes": int64(res.TotalNodes),
		"duration_ms": res.Duration.Milliseconds(),
		"efficiency":  Efficiency(res),
		"summary":     Summary(res),
	}
}

func anySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
