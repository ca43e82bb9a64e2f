package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/solatis/blockvis/internal/core/api"
	"github.com/solatis/blockvis/internal/core/config"
	"github.com/solatis/blockvis/internal/rules"
	"github.com/solatis/blockvis/internal/types"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a block's attribute bag offline",
	Long: `Reads an attribute bag as a JSON object, migrates it in memory and prints the
visibility decision. No database is needed.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().String("attrs", "-", "attribute bag JSON file (- for stdin)")
	evaluateCmd.Flags().String("block-type", "core/group", "block type name")
	evaluateCmd.Flags().Bool("authenticated", false, "viewer is logged in")
	evaluateCmd.Flags().String("viewport", "", "viewer breakpoint (desktop, tablet, mobile)")
	evaluateCmd.Flags().StringToString("field", nil, "custom field value as id=value (repeatable)")
}

type evaluateOutput struct {
	Visible       bool             `json:"visible"`
	VisibleOn     *bool            `json:"visible_on_viewport,omitempty"`
	StateClasses  []string         `json:"state_classes"`
	ClassName     string           `json:"class_name"`
	Restricted    bool             `json:"restricted"`
	SchemaState   string           `json:"schema_state"`
	MigrationPath string           `json:"migration_path"`
	Issues        string           `json:"issues,omitempty"`
	Attributes    types.Attributes `json:"attributes"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("attrs")
	blockType, _ := cmd.Flags().GetString("block-type")
	authenticated, _ := cmd.Flags().GetBool("authenticated")
	viewport, _ := cmd.Flags().GetString("viewport")
	fields, _ := cmd.Flags().GetStringToString("field")

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	attrs, err := types.ParseAttributes(data)
	if err != nil {
		return err
	}

	rc := types.RenderingContext{IsAuthenticated: authenticated, Fields: types.FieldValues(fields)}
	if viewport != "" {
		b, ok := types.ParseBreakpoint(viewport)
		if !ok {
			return fmt.Errorf("unknown viewport %q", viewport)
		}
		rc.Viewport = b
	}

	engine := rules.NewEngine(rules.WithFeatures(api.EngineFeatures(cfg.Rules)))
	ev := engine.Evaluate(blockType, attrs, rc)

	out := evaluateOutput{
		Visible:       ev.Visible,
		StateClasses:  ev.StateClasses,
		ClassName:     ev.ClassName,
		Restricted:    engine.IsRestricted(blockType),
		SchemaState:   ev.Migration.State.String(),
		MigrationPath: ev.Migration.Path.String(),
		Attributes:    ev.Migration.Attributes,
	}
	if rc.Viewport != "" {
		v := ev.VisibleOn(rc.Viewport)
		out.VisibleOn = &v
	}
	if ev.Migration.Issues != nil {
		out.Issues = ev.Migration.Issues.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" || strings.TrimSpace(path) == "" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
