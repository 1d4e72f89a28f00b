package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var execCommand = exec.CommandContext

// Command runs a local program built from a template. The placeholders
// {file}, {text} and {lang} are replaced in each argument.
type Command struct {
	template []string
}

func NewCommand(template string) (*Command, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return nil, errors.New("empty command template")
	}
	return &Command{template: fields}, nil
}

func (c *Command) args(vars map[string]string) []string {
	out := make([]string, len(c.template))
	for i, arg := range c.template {
		for k, v := range vars {
			arg = strings.ReplaceAll(arg, "{"+k+"}", v)
		}
		out[i] = arg
	}
	return out
}

func (c *Command) run(ctx context.Context, vars map[string]string) error {
	args := c.args(vars)
	out, err := execCommand(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Play implements Player.
func (c *Command) Play(ctx context.Context, path string) error {
	return c.run(ctx, map[string]string{"file": path})
}

// Say implements Fallback.
func (c *Command) Say(ctx context.Context, text, language string) error {
	return c.run(ctx, map[string]string{"text": text, "lang": language})
}
