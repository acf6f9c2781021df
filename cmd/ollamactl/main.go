// ollamactl talks to a local Ollama server: version, model listing, one-shot prompts,
// and an HTTP gateway in front of the same client.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Version metadata injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit signals a non-zero exit after the command already reported its error.
var errExit = errors.New("exit")

// run executes the CLI with the given args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, stdin: os.Stdin, getenv: os.Getenv}
	root := newRootCmd(a)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	cmd, err := root.ExecuteC()
	defer func() { a.reporter.Flush(2 * time.Second) }()
	if err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "ollamactl: %v\n", err)
			if cmd != nil {
				a.reporter.Capture(cmd.Name(), err)
			}
		}
		return 1
	}
	return 0
}
