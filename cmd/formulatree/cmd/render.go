package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/formulatree/internal/core/config"
	"github.com/solatis/formulatree/internal/render"
	"github.com/solatis/formulatree/internal/rules"
	"github.com/solatis/formulatree/internal/types"
)

var renderCmd = &cobra.Command{
	Use:   "render <records.json>",
	Short: "Render a stored rule tree as outline, table or formula",
	Long: `Reads a rule tree in storage form (a JSON array of records, or an object
with a "records" array; "-" reads stdin), normalizes it and prints it.
Validation errors are listed after the tree.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().String("format", "outline", "output format (outline, table, formula)")
	renderCmd.Flags().String("catalog", "", "YAML parameter/unit catalog used for descriptions and validation")
	renderCmd.Flags().String("lookup-policy", string(rules.LookupArguments), "rendering of 4th+ LOOKUP parameters (arguments, multiplier)")
	renderCmd.Flags().Bool("per-row-operators", false, "join rows with their own combinator instead of +")
	renderCmd.Flags().Bool("strict", false, "exit non-zero when the tree has validation errors")
}

func runRender(cmd *cobra.Command, args []string) error {
	records, err := readRecords(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	catalogPath, _ := cmd.Flags().GetString("catalog")
	catalog, err := config.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}
	policyName, _ := cmd.Flags().GetString("lookup-policy")
	policy, err := rules.ParseLookupPolicy(policyName)
	if err != nil {
		return err
	}
	perRow, _ := cmd.Flags().GetBool("per-row-operators")

	eng := rules.NewEngine(catalog, rules.Options{LookupPolicy: policy, PerRowOperators: perRow})
	t, _, err := eng.BuildTree(records)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "outline":
		fmt.Fprint(out, render.Outline(t, eng.Generator()))
		fmt.Fprintf(out, "\nformula: %s\n", eng.GenerateFormula(t))
	case "table":
		fmt.Fprintln(out, render.Table(t, eng.Generator()))
	case "formula":
		fmt.Fprintln(out, eng.GenerateFormula(t))
	default:
		return fmt.Errorf("unknown format %q (expected outline, table or formula)", format)
	}

	errs := eng.Validate(t)
	if len(errs) == 0 {
		return nil
	}
	fmt.Fprintln(out, render.ErrorsTable(errs))
	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		return &rules.ValidationError{Errors: errs}
	}
	return nil
}

// readRecords loads records from path, or stdin for "-".
func readRecords(stdin io.Reader, path string) ([]types.Record, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var records []types.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse records: %w", err)
		}
		return records, nil
	}

	var doc struct {
		Records []types.Record `json:"records"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	return doc.Records, nil
}
