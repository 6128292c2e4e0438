package market

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/core/access"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

const (
	// DefaultFeeBps is the fee after deploy, 2.5%.
	DefaultFeeBps = 250
	// MaxFeeBps caps the marketplace fee.
	MaxFeeBps = 1000
)

const (
	reasonTooBigV2      = "NftMarketplaceV2: Too big percentage"
	reasonZeroAddressV2 = "NftMarketplaceV2: Zero address"
	reasonNoChangeV2    = "NftMarketplaceV2: No change"

	reasonTooBig      = "NftMarketplace: Too big percentage"
	reasonZeroAddress = "NftMarketplace: Zero address"
	reasonNoChange    = "NftMarketplace: No change"
)

// Event names.
const (
	EventFeeInfoChange       = "FeeInfoChange"
	EventFeePercentageChange = "FeePercentageChange"
	EventFeeReceiverChange   = "FeeReceiverChange"
	EventCreationPaused      = "CreationPaused"
	EventCreationUnpaused    = "CreationUnpaused"
	EventSwapsPaused         = "SwapsPaused"
	EventSwapsUnpaused       = "SwapsUnpaused"
)

type settings struct {
	FeeBps         uint64         `codec:"feeBps"`
	FeeReceiver    common.Address `codec:"feeReceiver"`
	PausedCreation bool           `codec:"pausedCreation"`
	PausedSwaps    bool           `codec:"pausedSwaps"`
}

func loadSettings(f *host.Frame) (settings, error) {
	var s settings
	_, err := state.ReadRecord(f.State(), keylet.Fees(f.Self), &s)
	return s, err
}

func storeSettings(f *host.Frame, s settings) error {
	return state.WriteRecord(f.State(), keylet.Fees(f.Self), s)
}

// FeeInfo returns the fee in basis points and its receiver.
func (m *Marketplace) FeeInfo(f *host.Frame) (uint64, common.Address, error) {
	s, err := loadSettings(f)
	return s.FeeBps, s.FeeReceiver, err
}

// FeePercentage returns the fee in basis points.
func (m *Marketplace) FeePercentage(f *host.Frame) (uint64, error) {
	s, err := loadSettings(f)
	return s.FeeBps, err
}

// FeeReceiver returns the address collecting fees.
func (m *Marketplace) FeeReceiver(f *host.Frame) (common.Address, error) {
	s, err := loadSettings(f)
	return s.FeeReceiver, err
}

// IsPausedCreation reports whether new auctions are blocked.
func (m *Marketplace) IsPausedCreation(f *host.Frame) (bool, error) {
	s, err := loadSettings(f)
	return s.PausedCreation, err
}

// IsPausedSwaps reports whether swaps are blocked.
func (m *Marketplace) IsPausedSwaps(f *host.Frame) (bool, error) {
	s, err := loadSettings(f)
	return s.PausedSwaps, err
}

// SetFeeInfo replaces the fee and its receiver in one call.
func (m *Marketplace) SetFeeInfo(f *host.Frame, bps uint64, receiver common.Address) error {
	s, err := m.manage(f)
	if err != nil {
		return err
	}
	switch {
	case bps > MaxFeeBps:
		return host.Revert(reasonTooBigV2)
	case receiver == (common.Address{}):
		return host.Revert(reasonZeroAddressV2)
	case bps == s.FeeBps && receiver == s.FeeReceiver:
		return host.Revert(reasonNoChangeV2)
	}
	old := s
	s.FeeBps, s.FeeReceiver = bps, receiver
	if err := storeSettings(f, s); err != nil {
		return err
	}
	m.logger.Info("fee info changed",
		zap.Uint64("bps", bps),
		zap.String("receiver", receiver.Hex()))
	return f.Emit(EventFeeInfoChange, common.Hash{}, map[string]string{
		"manager":        f.Caller.Hex(),
		"oldPercentage":  strconv.FormatUint(old.FeeBps, 10),
		"newPercentage":  strconv.FormatUint(bps, 10),
		"oldFeeReceiver": old.FeeReceiver.Hex(),
		"newFeeReceiver": receiver.Hex(),
	})
}

// SetFeePercentage replaces the fee.
func (m *Marketplace) SetFeePercentage(f *host.Frame, bps uint64) error {
	s, err := m.manage(f)
	if err != nil {
		return err
	}
	if bps > MaxFeeBps {
		return host.Revert(reasonTooBig)
	}
	if bps == s.FeeBps {
		return host.Revert(reasonNoChange)
	}
	old := s.FeeBps
	s.FeeBps = bps
	if err := storeSettings(f, s); err != nil {
		return err
	}
	return f.Emit(EventFeePercentageChange, common.Hash{}, map[string]string{
		"manager":       f.Caller.Hex(),
		"oldPercentage": strconv.FormatUint(old, 10),
		"newPercentage": strconv.FormatUint(bps, 10),
	})
}

// SetFeeReceiver replaces the fee receiver.
func (m *Marketplace) SetFeeReceiver(f *host.Frame, receiver common.Address) error {
	s, err := m.manage(f)
	if err != nil {
		return err
	}
	if receiver == (common.Address{}) {
		return host.Revert(reasonZeroAddress)
	}
	if receiver == s.FeeReceiver {
		return host.Revert(reasonNoChange)
	}
	old := s.FeeReceiver
	s.FeeReceiver = receiver
	if err := storeSettings(f, s); err != nil {
		return err
	}
	return f.Emit(EventFeeReceiverChange, common.Hash{}, map[string]string{
		"manager":        f.Caller.Hex(),
		"oldFeeReceiver": old.Hex(),
		"newFeeReceiver": receiver.Hex(),
	})
}

// TogglePause flips the creation pause. Open auctions keep running.
func (m *Marketplace) TogglePause(f *host.Frame) error {
	s, err := m.manage(f)
	if err != nil {
		return err
	}
	s.PausedCreation = !s.PausedCreation
	if err := storeSettings(f, s); err != nil {
		return err
	}
	name := EventCreationUnpaused
	if s.PausedCreation {
		name = EventCreationPaused
	}
	m.logger.Info("creation pause toggled", zap.Bool("paused", s.PausedCreation))
	return f.Emit(name, common.Hash{}, map[string]string{"manager": f.Caller.Hex()})
}

// ToggleSwapsPause flips the swap pause.
func (m *Marketplace) ToggleSwapsPause(f *host.Frame) error {
	s, err := m.manage(f)
	if err != nil {
		return err
	}
	s.PausedSwaps = !s.PausedSwaps
	if err := storeSettings(f, s); err != nil {
		return err
	}
	name := EventSwapsUnpaused
	if s.PausedSwaps {
		name = EventSwapsPaused
	}
	m.logger.Info("swaps pause toggled", zap.Bool("paused", s.PausedSwaps))
	return f.Emit(name, common.Hash{}, map[string]string{"manager": f.Caller.Hex()})
}

func (m *Marketplace) manage(f *host.Frame) (settings, error) {
	if err := access.Require(f, m.Roles, access.AuctionManagerRole); err != nil {
		return settings{}, err
	}
	return loadSettings(f)
}
