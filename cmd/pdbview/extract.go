package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mtbaldry/pdbextract/ir"
	"github.com/mtbaldry/pdbextract/pdb"
	"github.com/spf13/cobra"
)

var (
	extractStructs   []string
	extractIgnore    []string
	extractReplace   []string
	extractRecursive bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdb-file>",
	Short: "Emit Go struct declarations reconstructed from PDB type info",
	Long: `extract reconstructs the classes, structs, unions, and enums described by
a PDB's type stream and emits them as Go struct declarations with layout
assertion tests, ready to paste into a package that needs to agree with the
original binary's memory layout.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringSliceVar(&extractStructs, "structs", nil, "root type to emit (may be repeated)")
	extractCmd.Flags().StringSliceVar(&extractIgnore, "ignore", nil, "name prefix to never expand or emit (may be repeated)")
	extractCmd.Flags().StringArrayVar(&extractReplace, "replace", nil, "PATTERN=REPLACEMENT identifier rewrite (may be repeated)")
	extractCmd.Flags().BoolVar(&extractRecursive, "recursive", false, "also drain every remaining pointer-only dependency")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	pdbPath := args[0]

	f, err := pdb.Open(pdbPath)
	if err != nil {
		return fmt.Errorf("failed to open PDB: %w", err)
	}
	defer f.Close()

	types, err := f.Types()
	if err != nil {
		return fmt.Errorf("failed to read PDB type stream: %w", err)
	}

	conv := ir.NewConverter(types)
	if err := conv.Populate(); err != nil {
		return fmt.Errorf("failed to build type graph: %w", err)
	}

	writer := ir.NewWriter(output, conv.Arena())
	writer.Recursive = extractRecursive

	rules, err := parseReplaceRules(extractReplace)
	if err != nil {
		return err
	}
	writer.SetReplacements(rules)

	for _, name := range extractIgnore {
		writer.Ignore(name)
	}

	for _, name := range extractStructs {
		if err := writer.Write(name); err != nil {
			return fmt.Errorf("failed to emit %q: %w", name, err)
		}
	}

	if extractRecursive {
		if err := writer.WriteRest(); err != nil {
			return fmt.Errorf("failed to drain remaining dependencies: %w", err)
		}
	}

	if err := writer.Finish(); err != nil {
		return fmt.Errorf("failed to finish emission: %w", err)
	}

	conv.Diagnostics().WriteTo(os.Stderr)
	writer.Diagnostics().WriteTo(os.Stderr)

	return nil
}

// parseReplaceRules compiles each "PATTERN=REPLACEMENT" argument, in the
// order given on the command line.
func parseReplaceRules(raw []string) ([]ir.ReplaceRule, error) {
	rules := make([]ir.ReplaceRule, 0, len(raw))
	for _, spec := range raw {
		pattern, replacement, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --replace %q: expected PATTERN=REPLACEMENT", spec)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("malformed --replace pattern %q: %w", pattern, err)
		}
		rules = append(rules, ir.ReplaceRule{Pattern: re, Replacement: replacement})
	}
	return rules, nil
}
