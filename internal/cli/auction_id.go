package cli

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
	"github.com/LeJamon/goNFTMarket/internal/world"
)

var auctionIDFlags struct {
	kind       string
	collection string
	tokenID    string
	amount     string
	seller     string
	bidToken   string
	start, end uint64
}

// auctionIDCmd prints the id an auction with the given terms gets.
var auctionIDCmd = &cobra.Command{
	Use:   "auction-id",
	Short: "Compute an auction id offline",
	Long: `Compute the id of an auction from its terms. Names are resolved against
the configured genesis, so punks, seller or native work as well as 0x
addresses.`,
	Args: cobra.NoArgs,
	RunE: runAuctionID,
}

func init() {
	rootCmd.AddCommand(auctionIDCmd)

	f := auctionIDCmd.Flags()
	f.StringVar(&auctionIDFlags.kind, "kind", "erc721", "erc721 or erc1155")
	f.StringVar(&auctionIDFlags.collection, "collection", "", "collection name or address")
	f.StringVar(&auctionIDFlags.tokenID, "token-id", "0", "token id")
	f.StringVar(&auctionIDFlags.amount, "amount", "0", "ERC1155 amount")
	f.StringVar(&auctionIDFlags.seller, "seller", "", "seller name or address")
	f.StringVar(&auctionIDFlags.bidToken, "bid-token", "native", "bid token name, address or native")
	f.Uint64Var(&auctionIDFlags.start, "start", 0, "start time, unix seconds")
	f.Uint64Var(&auctionIDFlags.end, "end", 0, "end time, unix seconds")
	_ = auctionIDCmd.MarkFlagRequired("collection")
	_ = auctionIDCmd.MarkFlagRequired("seller")
}

func runAuctionID(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	g, err := cfg.Genesis.Load()
	if err != nil {
		return err
	}
	h, err := host.New(state.NewMemory(), 0)
	if err != nil {
		return err
	}
	w, err := world.Bootstrap(h, g, world.Options{
		Deployer:    cfg.Marketplace.Deployer,
		FeeReceiver: cfg.Marketplace.FeeReceiver,
		FeeBps:      cfg.Marketplace.FeeBps,
	})
	if err != nil {
		return err
	}

	kind, err := asset.ParseKind(auctionIDFlags.kind)
	if err != nil {
		return err
	}
	collection, err := w.Resolve(auctionIDFlags.collection)
	if err != nil {
		return err
	}
	seller, err := w.Resolve(auctionIDFlags.seller)
	if err != nil {
		return err
	}
	bidToken, err := w.Resolve(auctionIDFlags.bidToken)
	if err != nil {
		return err
	}
	tokenID, ok := new(big.Int).SetString(auctionIDFlags.tokenID, 0)
	if !ok {
		return fmt.Errorf("--token-id %q is not an integer", auctionIDFlags.tokenID)
	}
	amount, ok := new(big.Int).SetString(auctionIDFlags.amount, 0)
	if !ok {
		return fmt.Errorf("--amount %q is not an integer", auctionIDFlags.amount)
	}

	var d asset.Descriptor
	switch kind {
	case asset.KindERC721:
		d = asset.ERC721(collection, tokenID)
	case asset.KindERC1155:
		d = asset.ERC1155(collection, tokenID, amount)
	default:
		return fmt.Errorf("--kind must be erc721 or erc1155")
	}
	id, err := auction.ID(d, seller, auctionIDFlags.start, auctionIDFlags.end, bidToken)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id.Hex())
	return nil
}
