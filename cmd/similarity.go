package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dynai/internal/clix"
)

var similarityJSON bool

var similarityCmd = &cobra.Command{
	Use:   "similarity <message-id>",
	Short: "Show messages the service considers similar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := clix.ParseSimilarity(cmd.Flags())
		if err != nil {
			return err
		}
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		results, err := session.Similarity(cmd.Context(), args[0], params)
		if err != nil {
			return err
		}
		if similarityJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		renderSimilarity(cmd.OutOrStdout(), results)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <message-id>",
	Short: "Print the service's raw technical report for a similarity query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := clix.ParseSimilarity(cmd.Flags())
		if err != nil {
			return err
		}
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		report, err := session.TechReport(cmd.Context(), args[0], params)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), report)
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <message-id>",
	Short: "Predict the category of a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := clix.ParseSimilarity(cmd.Flags())
		if err != nil {
			return err
		}
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		prediction, err := session.PredictCategory(cmd.Context(), args[0], params.AccuracyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !prediction.Known {
			fmt.Fprintf(out, "%s no category could be predicted for %s\n", color.YellowString("Unknown:"), args[0])
			return nil
		}
		fmt.Fprintf(out, "Category: %s\nAccuracy: %.1f\nApproved: %s\n",
			color.CyanString(prediction.Category), prediction.Accuracy, verdict(prediction.IsApproved))
		return nil
	},
}

func init() {
	clix.AddSimilarityFlags(similarityCmd.Flags())
	clix.AddSimilarityFlags(reportCmd.Flags())
	clix.AddSimilarityFlags(predictCmd.Flags())
	similarityCmd.Flags().BoolVar(&similarityJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(similarityCmd, reportCmd, predictCmd)
}
