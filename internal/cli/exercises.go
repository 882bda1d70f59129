package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/render"
)

func NewExercisesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exercises",
		Short: "Manage the exercise catalogue",
	}
	cmd.AddCommand(newExercisesListCommand(rootOpts))
	cmd.AddCommand(newExercisesRandomCommand(rootOpts))
	cmd.AddCommand(newExercisesImportCommand(rootOpts))
	cmd.AddCommand(newExercisesExportCommand(rootOpts))
	return cmd
}

func newExercisesListCommand(rootOpts *RootOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogue exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Exercises.List(limit, offset)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			render.New(cmd.OutOrStdout()).Exercises(resp.Exercises)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d exercises\n", len(resp.Exercises), resp.Total)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of exercises")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many exercises")
	return cmd
}

func newExercisesRandomCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Pick a random exercise",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			ex, err := a.Exercises.Random(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), ex)
			}
			render.New(cmd.OutOrStdout()).Exercises([]models.Exercise{*ex})
			return nil
		},
	}
}

func newExercisesImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import exercises from a YAML or JSON export",
		Long: `Import exercises from a versioned export file. Exercises whose source text
is already in the catalogue are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envelope, err := readEnvelope(args[0])
			if err != nil {
				return err
			}

			a, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Exercises.Import(cmd.Context(), *envelope)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d of %d\n",
				result.Imported, result.Skipped, result.TotalInPayload)
			return nil
		},
	}
}

func newExercisesExportCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalogue as YAML, or JSON with a .json output file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			envelope, err := a.Exercises.Export()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if rootOpts.Format == "json" || strings.EqualFold(filepath.Ext(out), ".json") {
				return writeJSON(w, envelope)
			}
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(envelope); err != nil {
				return fmt.Errorf("encode export: %w", err)
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

// readEnvelope parses an export file, JSON by extension and YAML otherwise.
func readEnvelope(path string) (*models.ExerciseEnvelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".json") {
		unmarshal = json.Unmarshal
	}
	var envelope models.ExerciseEnvelope
	if err := unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &envelope, nil
}
