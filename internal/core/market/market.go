// Package market is the marketplace contract. It combines role based
// administration, the fee and pause settings, the royalty registry, the
// auction engine and the swap desk behind one set of entry points.
package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/core/access"
	"github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/royalty"
	"github.com/LeJamon/goNFTMarket/internal/core/swap"
	"github.com/LeJamon/goNFTMarket/internal/core/token"
)

// Kind is the code marker of the marketplace contract.
const Kind = "NftMarketplaceV2"

// Config holds the deploy-time parameters of a Marketplace.
type Config struct {
	FeeReceiver common.Address
	// FeeBps is the initial fee. Zero means DefaultFeeBps.
	FeeBps         uint64
	Refunds        auction.RefundPolicy
	RecoveryGasCap uint64
	Logger         *zap.Logger
}

// Marketplace is the marketplace contract object.
type Marketplace struct {
	access.Roles
	royalty.Registry

	cfg      Config
	logger   *zap.Logger
	auctions *auction.Engine
	swaps    *swap.Desk
}

// New returns a marketplace ready to be deployed or attached.
func New(cfg Config) *Marketplace {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "market"))

	m := &Marketplace{cfg: cfg, logger: logger}
	m.Registry.Auth = m.Roles
	m.auctions = &auction.Engine{
		Terms:          m,
		Royalty:        m.Registry,
		Auth:           m.Roles,
		Refunds:        cfg.Refunds,
		RecoveryGasCap: cfg.RecoveryGasCap,
		Logger:         logger,
	}
	m.swaps = &swap.Desk{Terms: m, Logger: logger}
	return m
}

// Kind returns the code kind recorded at deploy.
func (m *Marketplace) Kind() string { return Kind }

// Init grants every role to the deployer and stores the initial settings.
func (m *Marketplace) Init(f *host.Frame) error {
	if m.cfg.FeeReceiver == (common.Address{}) {
		return host.Revert(reasonZeroAddressV2)
	}
	bps := m.cfg.FeeBps
	if bps == 0 {
		bps = DefaultFeeBps
	}
	if bps > MaxFeeBps {
		return host.Revert(reasonTooBigV2)
	}
	for _, role := range []common.Hash{access.DefaultAdminRole, access.AuctionManagerRole, access.RoyaltyManagerRole} {
		if err := m.Grant(f, role, f.Caller); err != nil {
			return err
		}
	}
	if err := m.Registry.Init(f); err != nil {
		return err
	}
	return storeSettings(f, settings{FeeBps: bps, FeeReceiver: m.cfg.FeeReceiver})
}

// Engine exposes the auction engine.
func (m *Marketplace) Engine() *auction.Engine { return m.auctions }

// SupportsInterface implements ERC165.
func (m *Marketplace) SupportsInterface(_ *host.Frame, id host.InterfaceID) (bool, error) {
	switch id {
	case token.InterfaceERC165, token.InterfaceERC1155Receiver, token.InterfaceAccessControl, token.InterfaceAccessControlEnumerable:
		return true, nil
	}
	return false, nil
}

// OnERC721Received accepts every ERC721 transfer into custody.
func (m *Marketplace) OnERC721Received(*host.Frame, common.Address, common.Address, *big.Int, []byte) (host.InterfaceID, error) {
	return token.SelectorERC721Received, nil
}

// OnERC1155Received accepts every ERC1155 transfer into custody.
func (m *Marketplace) OnERC1155Received(*host.Frame, common.Address, common.Address, *big.Int, *big.Int, []byte) (host.InterfaceID, error) {
	return token.SelectorERC1155Received, nil
}
