package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command embedding the feed command group.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "restfeeds",
		Short: "Feed client commands",
	}
	root.AddCommand(NewFeedCommand(baseURL))
	return root
}
