package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	var (
		flagData  string
		flagQuery []string
	)

	cmd := &cobra.Command{
		Use:   "call <METHOD> <endpoint>",
		Short: "Perform a token-authenticated Lark API call",
		Long:  "Performs an arbitrary call against the open-apis surface with a valid tenant access token attached, e.g. `larkrelay call GET docx/v1/documents/abc/raw_content`.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(strings.TrimSpace(args[0]))
			endpoint := args[1]

			query := url.Values{}
			for _, pair := range flagQuery {
				key, value, found := strings.Cut(pair, "=")
				if !found {
					return fmt.Errorf("query parameter %q must be key=value", pair)
				}
				query.Add(key, value)
			}

			var body any
			if strings.TrimSpace(flagData) != "" {
				if err := json.Unmarshal([]byte(flagData), &body); err != nil {
					return errors.Wrap(err, "decode request body failed")
				}
			}

			relay, err := buildRelay()
			if err != nil {
				return err
			}
			payload, err := relay.Invoke(cmd.Context(), method, endpoint, query, body)
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		},
	}

	cmd.Flags().StringVar(&flagData, "data", "", "JSON request body")
	cmd.Flags().StringArrayVar(&flagQuery, "query", nil, "Query parameter as key=value (repeatable)")

	return cmd
}
