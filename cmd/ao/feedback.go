package main

import (
	"github.com/cass-memory/playbook/internal/engine"
	"github.com/cass-memory/playbook/internal/types"
	"github.com/spf13/cobra"
)

var (
	feedbackHarmful    bool
	feedbackSessionPath string
	feedbackReason     string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <bullet-id>",
	Short: "Record a helpful/harmful vote on a bullet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := buildEngine()
		if err != nil {
			printError(err)
			return nil
		}

		ft := types.FeedbackHelpful
		if feedbackHarmful {
			ft = types.FeedbackHarmful
		}

		b, err := e.Feedback(engine.FeedbackInput{
			BulletID:    args[0],
			Type:        ft,
			SessionPath: feedbackSessionPath,
			Reason:      feedbackReason,
		})
		printResult(b, err)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().BoolVar(&feedbackHarmful, "harmful", false, "Record a harmful vote (default: helpful)")
	feedbackCmd.Flags().StringVar(&feedbackSessionPath, "session", "", "Path to the session transcript this feedback came from")
	feedbackCmd.Flags().StringVar(&feedbackReason, "reason", "", "Reason: caused_bug, inefficient, outdated, or free text")
	rootCmd.AddCommand(feedbackCmd)
}
