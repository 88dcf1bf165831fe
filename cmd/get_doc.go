package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-doc <document-id>",
		Short: "Print the raw text content of a Lark document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			relay, err := buildRelay()
			if err != nil {
				return err
			}
			content, err := relay.DocumentContent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(content)
			return nil
		},
	}
	return cmd
}
