package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/translation-arena/backend/internal/models"
	"github.com/translation-arena/backend/internal/render"
)

type evaluateOptions struct {
	source     string
	reference  string
	candidate  string
	exerciseID int64
	user       string
}

func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one candidate translation",
		Long: `Score a candidate translation with every enabled scorer and award points.

Either give the source (and optionally a reference) directly, or point at a
catalogue exercise with --exercise. Explicit texts override the exercise's.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "source text")
	cmd.Flags().StringVarP(&opts.reference, "reference", "r", "", "reference translation")
	cmd.Flags().StringVarP(&opts.candidate, "candidate", "t", "", "candidate translation (required)")
	cmd.Flags().Int64VarP(&opts.exerciseID, "exercise", "e", 0, "catalogue exercise id")
	cmd.Flags().StringVarP(&opts.user, "user", "u", "cli", "user the points are awarded to")
	_ = cmd.MarkFlagRequired("candidate")

	return cmd
}

func runEvaluate(cmd *cobra.Command, rootOpts *RootOptions, opts *evaluateOptions) error {
	a, err := rootOpts.open()
	if err != nil {
		return err
	}
	defer a.Close()

	req := models.EvaluateRequest{
		SourceText:    opts.source,
		ReferenceText: opts.reference,
		CandidateText: opts.candidate,
	}
	if opts.exerciseID != 0 {
		req.ExerciseID = &opts.exerciseID
	}

	resp, err := a.Evaluations.Evaluate(cmd.Context(), opts.user, req)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid submission: %v", verr.Errors)
		}
		return err
	}

	if rootOpts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	p := render.New(cmd.OutOrStdout())
	p.Record(resp.Record)
	if resp.Award != nil {
		fmt.Fprintln(cmd.OutOrStdout())
		p.Award(resp.Award)
	}
	return nil
}
