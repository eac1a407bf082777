package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/justapithecus/s3lake/internal/rpc"
)

// remote selects the hosted runtime instead of the local catalog.
var remote bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		backend, err := newBackend(cmd)
		if err != nil {
			return err
		}
		tools, err := backend.ListTools(cmd.Context())
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(tools, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

var callCmd = &cobra.Command{
	Use:   "call <tool> [arguments-json]",
	Short: "Call one tool and print its result",
	Long: `call invokes a tool with a JSON object of arguments and prints the text result.
Without --remote the tool runs in-process against the configured bucket.

  s3lake call list_s3_objects '{"prefix":"demo/","max_keys":5}'
  s3lake call --remote read_csv_from_s3 '{"object_key":"demo/customer_analytics.csv"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := newBackend(cmd)
		if err != nil {
			return err
		}
		var raw []byte
		if len(args) == 2 {
			raw = []byte(args[1])
		}
		result, err := backend.CallTool(cmd.Context(), args[0], raw)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), result.Text()); err != nil {
			return err
		}
		if result.IsError {
			return fmt.Errorf("tool %s reported an error", args[0])
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{toolsCmd, callCmd} {
		c.Flags().BoolVar(&remote, "remote", false, "call the hosted runtime instead of the local catalog")
		addRelayFlags(c)
		rootCmd.AddCommand(c)
	}
}

// newBackend returns the hosted relay client with --remote, or an
// in-process catalog otherwise. Logs go to stderr so stdout stays
// parseable.
func newBackend(cmd *cobra.Command) (rpc.Backend, error) {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return nil, err
	}
	logger = logger.Level(max(logger.GetLevel(), zerolog.WarnLevel))

	if remote || relayEndpoint != "" {
		return newRelayClient(cmd.Context(), logger)
	}

	st, err := newStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	return newCatalog(st, logger), nil
}
