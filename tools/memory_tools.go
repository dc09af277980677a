package tools

import (
	"context"
	"fmt"
	"time"
)

func (d *Dispatcher) searchMemory(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("tools: search_memory requires a query")
	}
	limit := 5
	if v, ok := args["limit"].(float64); ok {
		limit = int(v)
	}
	if limit > 20 {
		limit = 20
	}

	matches, err := d.store.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("tools: search_memory: %w", err)
	}

	out := make([]map[string]any, len(matches))
	for i, m := range matches {
		out[i] = map[string]any{
			"id":         m.ID,
			"score":      m.Score,
			"snippet":    m.Snippet,
			"created_at": m.CreatedAt.Format(time.RFC3339),
		}
	}
	return map[string]any{"matches": out}, nil
}

func (d *Dispatcher) remember(ctx context.Context, args map[string]any) (map[string]any, error) {
	content, _ := args["content"].(string)
	if content == "" {
		return nil, fmt.Errorf("tools: remember requires content")
	}
	var tags []string
	if raw, ok := args["tags"].([]interface{}); ok {
		for _, t := range raw {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
	}

	id, createdAt, err := d.store.Remember(ctx, content, tags)
	if err != nil {
		return nil, fmt.Errorf("tools: remember: %w", err)
	}
	return map[string]any{"id": id, "created_at": createdAt.Format(time.RFC3339)}, nil
}
