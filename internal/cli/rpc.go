package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goNFTMarket/internal/di"
)

// rpcCmd runs one JSON-RPC method in-process against the configured state.
var rpcCmd = &cobra.Command{
	Use:   "rpc <method> [params-json]",
	Short: "Execute an RPC method locally",
	Long: `Execute an RPC method locally by calling the same handlers used by the
server. Params is a JSON object, e.g.

  nftmarketd rpc market_royaltyQuote '{"collection":"art","token_id":"7","price":"100"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRPC,
}

func init() {
	rootCmd.AddCommand(rpcCmd)
}

func runRPC(cmd *cobra.Command, args []string) error {
	var params json.RawMessage
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("params are not valid JSON")
		}
		params = json.RawMessage(args[1])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := di.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	s, err := c.RPC()
	if err != nil {
		return err
	}
	result, rpcErr := s.Call(cmd.Context(), args[0], params)
	if rpcErr != nil {
		return rpcErr
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
