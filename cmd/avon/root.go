package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"avon/internal/deploy"
	"avon/internal/eval"
	"avon/internal/lexer"
	"avon/internal/parser"
	"avon/internal/token"
	"avon/internal/value"
)

var (
	flagDeployRoot  string
	flagForce       bool
	flagBackup      bool
	flagAppend      bool
	flagIfNotExists bool
	flagDebug       bool
)

var errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

func styleError(msg string) string {
	return errStyle.Render("error: ") + msg
}

// debugLog is reconfigured to slog.LevelDebug by rootCmd's
// PersistentPreRun when --debug (or AVON_DEBUG) is set; evalFile uses it to
// dump tokens and the parsed AST per spec.md §7.
var debugLog = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

var rootCmd = &cobra.Command{
	Use:   "avon",
	Short: "Avon: an expression-oriented language for describing file sets",
	Long: "Avon evaluates expression-oriented programs that describe a set of files " +
		"(paths, templated content, and deploy mode) and can write that file set to disk atomically.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagDebug || os.Getenv("AVON_DEBUG") != "" {
			debugLog = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the avon version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "avon 0.1.0")
		return nil
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval <file>",
	Short: "Evaluate an Avon source file and print its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, err := evalFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value.Inspect(v))
		return nil
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy <file>",
	Short: "Evaluate an Avon source file and write its described file set to disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, evaluator, err := evalFile(args[0])
		if err != nil {
			return err
		}
		mode, err := resolveDeployMode()
		if err != nil {
			return err
		}
		root := flagDeployRoot
		if mode == "" {
			target := root
			if target == "" {
				target = "the current directory"
			}
			ok, err := confirmDeploy(target)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "deploy cancelled")
				return nil
			}
		}
		return runDeploy(evaluator, v, root, mode)
	},
}

// resolveDeployMode maps the deploy command's mutually exclusive mode
// flags to a deploy.Mode; no flag given means the zero value, the
// skip-with-diagnostic default from spec.md §4.7 phase 3.
func resolveDeployMode() (deploy.Mode, error) {
	var mode deploy.Mode
	set := 0
	if flagForce {
		mode, set = deploy.ModeForce, set+1
	}
	if flagBackup {
		mode, set = deploy.ModeBackup, set+1
	}
	if flagAppend {
		mode, set = deploy.ModeAppend, set+1
	}
	if flagIfNotExists {
		mode, set = deploy.ModeIfNotExists, set+1
	}
	if set > 1 {
		return "", fmt.Errorf("only one of --force, --backup, --append, --if-not-exists may be given")
	}
	return mode, nil
}

// runCmd evaluates a single inline expression and prints its result,
// per spec.md §6 — it never deploys.
var runCmd = &cobra.Command{
	Use:   "run '<expr>'",
	Short: "Evaluate an inline expression and print its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		if debugLog.Enabled(cmd.Context(), slog.LevelDebug) {
			dumpTokens(args[0])
		}
		expr, err := parser.Parse(args[0])
		if err != nil {
			return err
		}
		debugLog.Debug("parsed AST", "expr", fmt.Sprintf("%#v", expr))
		v, err := eval.New(wd).EvalTopLevel(expr)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value.Inspect(v))
		return nil
	},
}

// doCmd is the task-runner command. spec.md §1/§4.7 place the task runner
// out of scope for this module; it exposes only these flags and always
// reports that it is not implemented, never --git/--stdin (forbidden by
// spec.md §4.7's note on `do` mode).
var doCmd = &cobra.Command{
	Use:   "do <task> [file]",
	Short: "Run a named task (not implemented in this module)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("do: task runner is not implemented in this module")
	},
}

func init() {
	deployCmd.Flags().StringVar(&flagDeployRoot, "root", "", "deploy root directory (without it, paths resolve against the current directory and absolute paths are rejected)")
	deployCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "overwrite existing targets")
	deployCmd.Flags().BoolVar(&flagBackup, "backup", false, "copy existing targets to path.bak before overwriting")
	deployCmd.Flags().BoolVar(&flagAppend, "append", false, "append to existing targets instead of overwriting")
	deployCmd.Flags().BoolVar(&flagIfNotExists, "if-not-exists", false, "silently skip existing targets")
	deployCmd.MarkFlagsMutuallyExclusive("force", "backup", "append", "if-not-exists")

	doCmd.Flags().Bool("list", false, "list available tasks")
	doCmd.Flags().Bool("info", false, "show task info")
	doCmd.Flags().Bool("dry-run", false, "show what a task would do without running it")

	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "dump tokens, AST, and evaluation trace to stderr")

	rootCmd.AddCommand(versionCmd, evalCmd, deployCmd, runCmd, doCmd, replCmd, docCmd)
}

// evalFile parses and evaluates src as a complete program, returning the
// Evaluator used so the caller (deploy/run) can reuse its rendering and
// working-directory context.
func evalFile(path string) (value.Value, *eval.Evaluator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return value.Value{}, nil, err
	}
	if debugLog.Enabled(context.Background(), slog.LevelDebug) {
		dumpTokens(string(src))
	}
	expr, err := parser.Parse(string(src))
	if err != nil {
		return value.Value{}, nil, err
	}
	debugLog.Debug("parsed AST", "path", path, "expr", fmt.Sprintf("%#v", expr))
	wd, err := workDirOf(path)
	if err != nil {
		return value.Value{}, nil, err
	}
	evaluator := eval.New(wd)
	v, err := evaluator.EvalTopLevel(expr)
	if err != nil {
		return value.Value{}, nil, err
	}
	debugLog.Debug("evaluation result", "path", path, "value", value.Inspect(v))
	return v, evaluator, nil
}

// dumpTokens lexes src and logs each token at debug level, the "tokens"
// half of spec.md §7's `--debug` dump.
func dumpTokens(src string) {
	lx := lexer.New(src)
	for {
		tok, err := lx.Next()
		if err != nil {
			debugLog.Debug("lex error", "err", err)
			return
		}
		debugLog.Debug("token", "kind", tok.Kind, "literal", tok.Literal, "line", tok.Span.Line)
		if tok.Kind == token.EOF {
			return
		}
	}
}
