package cli

import (
	"encoding/json"
	"math/big"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/di"
	"github.com/LeJamon/goNFTMarket/internal/world"
)

var simulateFlags struct {
	seller, first, second string
	collection, currency  string
	tokenID               int64
	minPrice              string
	firstBid, secondBid   string
	startDelay, duration  time.Duration
	jsonOut               bool
}

// simulateCmd runs an auction end to end on a throwaway in-memory world.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an auction scenario on an in-memory world",
	Long: `Create an auction, place two bids, advance time past the end and settle,
then print the settlement split. State is in memory and discarded.`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	d := world.DefaultAuctionScenario()
	f := simulateCmd.Flags()
	f.StringVar(&simulateFlags.seller, "seller", d.Seller, "seller account")
	f.StringVar(&simulateFlags.first, "first", d.First, "first bidder")
	f.StringVar(&simulateFlags.second, "second", d.Second, "second, winning bidder")
	f.StringVar(&simulateFlags.collection, "collection", d.Collection, "ERC721 collection name or address")
	f.Int64Var(&simulateFlags.tokenID, "token-id", d.TokenID, "token id")
	f.StringVar(&simulateFlags.currency, "currency", d.Currency, "bid token name, address or native")
	f.StringVar(&simulateFlags.minPrice, "min-price", asset.FormatUnits(d.MinPrice, 18), "minimum price in whole tokens")
	f.StringVar(&simulateFlags.firstBid, "first-bid", asset.FormatUnits(d.FirstBid, 18), "first bid in whole tokens")
	f.StringVar(&simulateFlags.secondBid, "second-bid", asset.FormatUnits(d.SecondBid, 18), "second bid in whole tokens")
	f.DurationVar(&simulateFlags.startDelay, "start-delay", d.StartDelay, "delay before the auction opens")
	f.DurationVar(&simulateFlags.duration, "duration", d.Duration, "auction duration")
	f.BoolVar(&simulateFlags.jsonOut, "json", false, "print the report as JSON")
}

func scenarioFromFlags() (world.AuctionScenario, error) {
	s := world.AuctionScenario{
		Seller:     simulateFlags.seller,
		First:      simulateFlags.first,
		Second:     simulateFlags.second,
		Collection: simulateFlags.collection,
		TokenID:    simulateFlags.tokenID,
		Currency:   simulateFlags.currency,
		StartDelay: simulateFlags.startDelay,
		Duration:   simulateFlags.duration,
	}
	for _, a := range []struct {
		name string
		in   string
		out  **big.Int
	}{
		{"min-price", simulateFlags.minPrice, &s.MinPrice},
		{"first-bid", simulateFlags.firstBid, &s.FirstBid},
		{"second-bid", simulateFlags.secondBid, &s.SecondBid},
	} {
		v, err := asset.ParseUnits(a.in, 18)
		if err != nil {
			return s, fmt.Errorf("--%s: %w", a.name, err)
		}
		*a.out = v
	}
	return s, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.State.Backend = "memory"
	cfg.Chain.ManualClock = true
	cfg.Events.Enabled = false

	s, err := scenarioFromFlags()
	if err != nil {
		return err
	}

	c, err := di.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	w, err := c.World()
	if err != nil {
		return err
	}
	report, err := w.RunAuction(s)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if simulateFlags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reportJSON(report))
	}
	fmt.Fprintf(out, "auction          %s\n", report.AuctionID.Hex())
	fmt.Fprintf(out, "window           %d - %d\n", report.StartTime, report.EndTime)
	fmt.Fprintf(out, "winner           %s\n", report.Winner.Hex())
	fmt.Fprintf(out, "price            %s\n", asset.FormatUnits(report.Price, 18))
	fmt.Fprintf(out, "fee              %s\n", asset.FormatUnits(report.Fee, 18))
	fmt.Fprintf(out, "royalty          %s -> %s\n", asset.FormatUnits(report.Royalty, 18), report.RoyaltyReceiver.Hex())
	fmt.Fprintf(out, "seller proceeds  %s\n", asset.FormatUnits(report.SellerProceeds, 18))
	fmt.Fprintf(out, "outbid refund    %s\n", asset.FormatUnits(report.FirstRefund, 18))
	fmt.Fprintf(out, "new owner        %s\n", report.NewOwner.Hex())
	return nil
}

func reportJSON(r *world.AuctionReport) map[string]interface{} {
	return map[string]interface{}{
		"auction":          r.AuctionID.Hex(),
		"start_time":       r.StartTime,
		"end_time":         r.EndTime,
		"bid_token":        r.BidToken.Hex(),
		"winner":           r.Winner.Hex(),
		"price":            asset.FormatUnits(r.Price, 18),
		"fee":              asset.FormatUnits(r.Fee, 18),
		"royalty":          asset.FormatUnits(r.Royalty, 18),
		"royalty_receiver": r.RoyaltyReceiver.Hex(),
		"seller_proceeds":  asset.FormatUnits(r.SellerProceeds, 18),
		"outbid_refund":    asset.FormatUnits(r.FirstRefund, 18),
		"new_owner":        r.NewOwner.Hex(),
		"receipts":         len(r.Receipts),
	}
}
