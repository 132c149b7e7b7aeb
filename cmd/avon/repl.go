package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"avon/internal/eval"
	"avon/internal/parser"
	"avon/internal/value"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive Avon session",
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		return runRepl(wd)
	},
}

// runRepl drives a chzyer/readline session. A line is submitted to the
// parser as soon as it is entered; if parsing fails only because input
// ended early (a `let` with no `in` yet, or an open paren/bracket/brace), the prompt switches
// to a continuation line and appends the next line instead of reporting an
// error, the same incremental-submit pattern the teacher's own interactive
// flows use readline for.
func runRepl(workDir string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "avon> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	evaluator := eval.New(workDir)
	var buf strings.Builder

	for {
		prompt := "avon> "
		if buf.Len() > 0 {
			prompt = "    > "
		}
		rl.SetPrompt(prompt)

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buf.Reset()
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		src := buf.String()
		if strings.TrimSpace(src) == "" {
			buf.Reset()
			continue
		}

		expr, perr := parser.Parse(src)
		if perr != nil {
			if looksIncomplete(src) {
				continue // keep accumulating lines
			}
			fmt.Fprintln(os.Stderr, styleError(perr.Error()))
			buf.Reset()
			continue
		}
		buf.Reset()

		v, err := evaluator.EvalTopLevel(expr)
		if err != nil {
			fmt.Fprintln(os.Stderr, styleError(err.Error()))
			continue
		}
		fmt.Println(value.Inspect(v))
	}
}

// looksIncomplete is a conservative heuristic: count bracket/paren/brace
// nesting and the dangling `let ... in` keyword to decide whether a parse
// failure is "more input needed" rather than a genuine syntax error.
func looksIncomplete(src string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	if depth > 0 {
		return true
	}
	trimmed := strings.TrimSpace(src)
	return strings.HasPrefix(trimmed, "let ") && !strings.Contains(trimmed, " in ")
}
