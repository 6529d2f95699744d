package cmd

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dynai/internal/clix"
	"dynai/internal/services"
	"dynai/internal/util"
)

// sessionFromCmd returns the session for the configured session name.
func sessionFromCmd(cmd *cobra.Command) (*services.Session, error) {
	appInstance, err := GetAppFromContext(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to get app from context: %w", err)
	}
	return appInstance.Session(cmd.Context())
}

var submitFile string

var submitCmd = &cobra.Command{
	Use:   "submit [text]",
	Short: "Submit a message and print the identifier the service assigned",
	Args: func(cmd *cobra.Command, args []string) error {
		if submitFile == "" && len(args) == 0 {
			return fmt.Errorf("provide the message text or --file")
		}
		if submitFile != "" && len(args) > 0 {
			return fmt.Errorf("--file cannot be combined with message text")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if submitFile != "" {
			var err error
			if text, err = util.ReadMessageFile(submitFile); err != nil {
				return err
			}
		}
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		id, err := session.Submit(cmd.Context(), text)
		if err != nil {
			return fmt.Errorf("submit failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <message-id> <id:flags>...",
	Short: "Send relation hints for a message",
	Long: `Sends explicit relation hints for a known message. Each hint is id:flags,
where flags is a number or one of "similar" (5) and "unsimilar" (10).`,
	Example: "  dynai feedback m1 m2:similar m3:10",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		relations, err := clix.ParseRelations(args[1:])
		if err != nil {
			return err
		}
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		accepted, err := session.AddFeedback(cmd.Context(), args[0], relations)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Feedback accepted: %s\n", verdict(accepted))
		return nil
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage message categories",
}

var categorySetCmd = &cobra.Command{
	Use:   "set <message-id> <category>",
	Short: "Label a message and teach the service the resulting relations",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		accepted, err := session.SetCategory(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if !accepted {
			log.Warnf("Service did not acknowledge feedback for %s; the category is kept locally", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Category %q set for %s (feedback accepted: %s)\n", args[1], args[0], verdict(accepted))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known messages, optionally only those in one category",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		if category := clix.ParseCategory(cmd.Flags()); category != "" {
			messages, err := session.ListMessagesByCategory(category)
			if err != nil {
				return err
			}
			renderMessages(cmd.OutOrStdout(), messages)
			return nil
		}
		messages, err := session.ListMessages()
		if err != nil {
			return err
		}
		renderMessages(cmd.OutOrStdout(), messages)
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List category assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := sessionFromCmd(cmd)
		if err != nil {
			return err
		}
		categories, err := session.ListCategories()
		if err != nil {
			return err
		}
		renderCategories(cmd.OutOrStdout(), categories)
		return nil
	},
}

func init() {
	categoryCmd.AddCommand(categorySetCmd)
	submitCmd.Flags().StringVarP(&submitFile, "file", "f", "", "Read the message from a text file")
	listCmd.Flags().String("category", "", "Only list messages in this category")

	rootCmd.AddCommand(submitCmd, feedbackCmd, categoryCmd, listCmd, categoriesCmd)
}
