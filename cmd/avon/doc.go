package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"avon/internal/builtins"
)

var docCmd = &cobra.Command{
	Use:   "doc [name]",
	Short: "List builtin functions, or browse them interactively with no argument",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := builtins.Registry()
		names := builtinNames()
		if len(args) == 1 {
			v, ok := reg[args[0]]
			if !ok {
				return fmt.Errorf("no such builtin: %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%d\n", args[0], v.Builtin.Arity)
			return nil
		}
		if !isTerminal() {
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		}
		var chosen string
		options := make([]huh.Option[string], len(names))
		for i, n := range names {
			options[i] = huh.NewOption(n, n)
		}
		err := huh.NewSelect[string]().
			Title("Avon builtins").
			Options(options...).
			Value(&chosen).
			Run()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), chosen)
		return nil
	},
}

func builtinNames() []string {
	reg := builtins.Registry()
	names := make([]string, 0, len(reg))
	for n := range reg {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
