package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
)

// Token standards accepted in a genesis collection.
const (
	StandardERC721  = "erc721"
	StandardERC1155 = "erc1155"
)

var ErrInvalidGenesis = errors.New("invalid genesis")

// Genesis describes the accounts and tokens a fresh world starts with.
// Amounts are decimal strings of 18 decimals units.
type Genesis struct {
	// Time is the initial block time in unix seconds. Zero keeps the clock.
	Time        int64               `json:"time,omitempty"`
	Accounts    []GenesisAccount    `json:"accounts"`
	Currencies  []GenesisCurrency   `json:"currencies,omitempty"`
	Collections []GenesisCollection `json:"collections,omitempty"`
}

// GenesisAccount funds a named account with native currency.
type GenesisAccount struct {
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

// GenesisCurrency deploys an ERC20 and mints to holders. Every holder
// approves the marketplace for its balance.
type GenesisCurrency struct {
	Name     string            `json:"name"`
	Balances map[string]string `json:"balances,omitempty"`
}

// GenesisCollection deploys an NFT collection.
type GenesisCollection struct {
	Name     string          `json:"name"`
	Standard string          `json:"standard"`
	Ownable  bool            `json:"ownable,omitempty"`
	Royalty  *GenesisRoyalty `json:"royalty,omitempty"`
	Tokens   []GenesisToken  `json:"tokens,omitempty"`
}

// GenesisRoyalty makes an ERC721 collection declare ERC2981 royalties.
type GenesisRoyalty struct {
	Receiver string `json:"receiver"`
	Bps      uint64 `json:"bps"`
}

// GenesisToken mints ID to Owner, who approves the marketplace for the
// whole collection. Amount applies to ERC1155 only.
type GenesisToken struct {
	Owner  string `json:"owner"`
	ID     int64  `json:"id"`
	Amount int64  `json:"amount,omitempty"`
}

// LoadGenesis reads a JSON genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}
	return ParseGenesis(data)
}

// ParseGenesis decodes and validates a JSON genesis document.
func ParseGenesis(data []byte) (*Genesis, error) {
	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse genesis JSON: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate checks names, standards and amounts.
func (g *Genesis) Validate() error {
	seen := make(map[string]bool)
	unique := func(kind, name string) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: %s without a name", ErrInvalidGenesis, kind)
		}
		key := kind + "/" + name
		if seen[key] {
			return fmt.Errorf("%w: duplicate %s %q", ErrInvalidGenesis, kind, name)
		}
		seen[key] = true
		return nil
	}

	for _, a := range g.Accounts {
		if err := unique("account", a.Name); err != nil {
			return err
		}
		if _, err := asset.ParseUnits(a.Balance, 18); err != nil {
			return fmt.Errorf("%w: account %s: %v", ErrInvalidGenesis, a.Name, err)
		}
	}
	for _, c := range g.Currencies {
		if err := unique("token", c.Name); err != nil {
			return err
		}
		for holder, amount := range c.Balances {
			if _, err := asset.ParseUnits(amount, 18); err != nil {
				return fmt.Errorf("%w: currency %s holder %s: %v", ErrInvalidGenesis, c.Name, holder, err)
			}
		}
	}
	for _, c := range g.Collections {
		if err := unique("token", c.Name); err != nil {
			return err
		}
		switch c.Standard {
		case StandardERC721:
		case StandardERC1155:
			if c.Royalty != nil {
				return fmt.Errorf("%w: collection %s: royalties need %s", ErrInvalidGenesis, c.Name, StandardERC721)
			}
		default:
			return fmt.Errorf("%w: collection %s: unknown standard %q", ErrInvalidGenesis, c.Name, c.Standard)
		}
		if c.Royalty != nil && (c.Royalty.Bps == 0 || c.Royalty.Bps > 10000) {
			return fmt.Errorf("%w: collection %s: royalty bps %d", ErrInvalidGenesis, c.Name, c.Royalty.Bps)
		}
		for _, t := range c.Tokens {
			if t.Owner == "" || t.ID < 0 {
				return fmt.Errorf("%w: collection %s: token %d", ErrInvalidGenesis, c.Name, t.ID)
			}
			if c.Standard == StandardERC1155 && t.Amount <= 0 {
				return fmt.Errorf("%w: collection %s: token %d needs an amount", ErrInvalidGenesis, c.Name, t.ID)
			}
		}
	}
	return nil
}

// DefaultGenesis is the world used when no genesis file is configured: a
// seller holding token 1 of a plain collection, two bidders with USD, and
// a royalty collection paying an artist.
func DefaultGenesis() *Genesis {
	return &Genesis{
		Time: DefaultTime.Unix(),
		Accounts: []GenesisAccount{
			{Name: "seller", Balance: "1000"},
			{Name: "alice", Balance: "1000"},
			{Name: "bob", Balance: "1000"},
			{Name: "artist", Balance: "1"},
		},
		Currencies: []GenesisCurrency{
			{Name: "USD", Balances: map[string]string{"alice": "1000", "bob": "1000"}},
		},
		Collections: []GenesisCollection{
			{Name: "punks", Standard: StandardERC721, Tokens: []GenesisToken{{Owner: "seller", ID: 1}}},
			{
				Name:     "art",
				Standard: StandardERC721,
				Royalty:  &GenesisRoyalty{Receiver: "artist", Bps: 500},
				Tokens:   []GenesisToken{{Owner: "seller", ID: 7}},
			},
			{
				Name:     "items",
				Standard: StandardERC1155,
				Ownable:  true,
				Tokens:   []GenesisToken{{Owner: "seller", ID: 10, Amount: 5}},
			},
		},
	}
}
