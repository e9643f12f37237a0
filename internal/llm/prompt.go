package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// RenderPrompt renders a Go-template prompt through the eino prompt component.
func RenderPrompt(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(tmpl),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("rendering prompt: empty result")
	}
	return msgs[0].Content, nil
}
