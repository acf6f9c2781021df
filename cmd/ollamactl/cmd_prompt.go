package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ollamactl/pkg/types"
)

func newPromptCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt [text...]",
		Short: "Generate a completion for a prompt",
		Long: `Send a prompt to the model with streaming disabled and print the full reply.

The prompt is the arguments joined by spaces, or standard input when no
arguments are given. The model comes from --model, OLLAMACTL_MODEL or
default_model in the config file.`,
		Example: `  ollamactl prompt --model llama3.2 why is the sky blue
  echo "summarize this" | ollamactl prompt --model llama3.2
  ollamactl prompt --model llama3.2 -o temperature=0 -o seed=42 hello`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = strings.TrimSpace(string(b))
			}
			system, _ := cmd.Flags().GetString("system")
			opts, _ := cmd.Flags().GetStringToString("option")

			c, err := a.newClient(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Generate(cmd.Context(), types.GenerateRequest{
				Prompt:  text,
				System:  system,
				Options: parseOptions(opts),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, res.Text)
			return nil
		},
	}
	cmd.Flags().String("system", "", "System prompt")
	cmd.Flags().StringToStringP("option", "o", nil, "Model option key=value (repeatable), e.g. temperature=0.2")
	return cmd
}

// parseOptions converts key=value strings to JSON scalars: numbers and booleans
// keep their type, anything else stays a string.
func parseOptions(in map[string]string) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
		} else if f, err := strconv.ParseFloat(v, 64); err == nil {
			out[k] = f
		} else if b, err := strconv.ParseBool(v); err == nil {
			out[k] = b
		} else {
			out[k] = v
		}
	}
	return out
}
