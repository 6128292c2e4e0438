//go:generate mockgen -destination=mock_access/authorizer.go -package=mock_access github.com/LeJamon/goNFTMarket/internal/core/access Authorizer

// Package access implements enumerable role based access control for a
// contract, keyed by the contract's own address.
package access

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
	crypto "github.com/LeJamon/goNFTMarket/internal/crypto/common"
)

// Well-known roles.
var (
	DefaultAdminRole   = common.Hash{}
	AuctionManagerRole = common.Hash(crypto.Keccak256([]byte("AUCTION_MANAGER")))
	RoyaltyManagerRole = common.Hash(crypto.Keccak256([]byte("ROYALTY_MANAGER")))
)

// RoleName returns a readable name for the well-known roles.
func RoleName(role common.Hash) string {
	switch role {
	case DefaultAdminRole:
		return "DEFAULT_ADMIN_ROLE"
	case AuctionManagerRole:
		return "AUCTION_MANAGER"
	case RoyaltyManagerRole:
		return "ROYALTY_MANAGER"
	}
	return role.Hex()
}

// ParseRole maps a role name or a 32-byte hex string to its id.
func ParseRole(s string) (common.Hash, error) {
	switch strings.ToUpper(s) {
	case "DEFAULT_ADMIN_ROLE", "DEFAULT_ADMIN":
		return DefaultAdminRole, nil
	case "AUCTION_MANAGER":
		return AuctionManagerRole, nil
	case "ROYALTY_MANAGER":
		return RoyaltyManagerRole, nil
	}
	if len(s) == 66 && strings.HasPrefix(s, "0x") {
		return common.HexToHash(s), nil
	}
	return common.Hash{}, fmt.Errorf("unknown role %q", s)
}

// Authorizer answers whether an account holds a role on the executing
// contract.
type Authorizer interface {
	HasRole(f *host.Frame, role common.Hash, account common.Address) (bool, error)
}

// MissingRole builds the revert raised when account lacks role.
func MissingRole(account common.Address, role common.Hash) error {
	return host.Revertf("AccessControl: account %s is missing role %s", strings.ToLower(account.Hex()), role.Hex())
}

// Require fails with MissingRole unless the caller of f holds role.
func Require(f *host.Frame, auth Authorizer, role common.Hash) error {
	ok, err := auth.HasRole(f, role, f.Caller)
	if err != nil {
		return err
	}
	if !ok {
		return MissingRole(f.Caller, role)
	}
	return nil
}

// Roles stores role membership of the executing contract. Members of each
// role are enumerable.
type Roles struct{}

var _ Authorizer = Roles{}

func (Roles) HasRole(f *host.Frame, role common.Hash, account common.Address) (bool, error) {
	return f.State().Exists(keylet.RoleMemberIndex(f.Self, role, account))
}

// GetRoleAdmin returns the role allowed to grant and revoke role.
func (Roles) GetRoleAdmin(f *host.Frame, role common.Hash) (common.Hash, error) {
	data, err := f.State().Read(keylet.RoleAdmin(f.Self, role))
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(data), nil
}

// GetRoleMemberCount returns the number of accounts holding role.
func (Roles) GetRoleMemberCount(f *host.Frame, role common.Hash) (uint64, error) {
	return state.ReadUint(f.State(), keylet.RoleMemberCount(f.Self, role))
}

// GetRoleMember returns the index-th holder of role. Ordering is not stable
// across revocations.
func (r Roles) GetRoleMember(f *host.Frame, role common.Hash, index uint64) (common.Address, error) {
	n, err := r.GetRoleMemberCount(f, role)
	if err != nil {
		return common.Address{}, err
	}
	if index >= n {
		return common.Address{}, host.Revert("EnumerableSet: index out of bounds")
	}
	data, err := f.State().Read(keylet.RoleMemberSlot(f.Self, role, index))
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(data), nil
}

// GrantRole gives role to account. The caller must hold the role's admin.
func (r Roles) GrantRole(f *host.Frame, role common.Hash, account common.Address) error {
	if err := r.onlyAdminOf(f, role); err != nil {
		return err
	}
	return r.Grant(f, role, account)
}

// RevokeRole removes role from account. The caller must hold the role's admin.
func (r Roles) RevokeRole(f *host.Frame, role common.Hash, account common.Address) error {
	if err := r.onlyAdminOf(f, role); err != nil {
		return err
	}
	return r.revoke(f, role, account)
}

// RenounceRole drops role from the caller, who must pass its own address.
func (r Roles) RenounceRole(f *host.Frame, role common.Hash, account common.Address) error {
	if account != f.Caller {
		return host.Revert("AccessControl: can only renounce roles for self")
	}
	return r.revoke(f, role, account)
}

// SetRoleAdmin changes the admin role of role without access checks. It is
// meant for constructors.
func (r Roles) SetRoleAdmin(f *host.Frame, role, admin common.Hash) error {
	previous, err := r.GetRoleAdmin(f, role)
	if err != nil {
		return err
	}
	if admin == (common.Hash{}) {
		err = state.Delete(f.State(), keylet.RoleAdmin(f.Self, role))
	} else {
		err = state.Put(f.State(), keylet.RoleAdmin(f.Self, role), admin.Bytes())
	}
	if err != nil {
		return err
	}
	return f.Emit("RoleAdminChanged", role, map[string]string{
		"role": role.Hex(), "previousAdminRole": previous.Hex(), "newAdminRole": admin.Hex(),
	})
}

// Grant adds account to role without access checks. Granting a held role
// is a no-op.
func (r Roles) Grant(f *host.Frame, role common.Hash, account common.Address) error {
	held, err := r.HasRole(f, role, account)
	if err != nil || held {
		return err
	}
	n, err := r.GetRoleMemberCount(f, role)
	if err != nil {
		return err
	}
	if err := state.Put(f.State(), keylet.RoleMemberSlot(f.Self, role, n), account.Bytes()); err != nil {
		return err
	}
	if err := state.WriteUint(f.State(), keylet.RoleMemberIndex(f.Self, role, account), n+1); err != nil {
		return err
	}
	if err := state.WriteUint(f.State(), keylet.RoleMemberCount(f.Self, role), n+1); err != nil {
		return err
	}
	return f.Emit("RoleGranted", role, map[string]string{
		"role": role.Hex(), "account": account.Hex(), "sender": f.Caller.Hex(),
	})
}

func (r Roles) revoke(f *host.Frame, role common.Hash, account common.Address) error {
	idx, err := state.ReadUint(f.State(), keylet.RoleMemberIndex(f.Self, role, account))
	if err != nil || idx == 0 {
		return err
	}
	n, err := r.GetRoleMemberCount(f, role)
	if err != nil {
		return err
	}
	// Swap the last member into the freed slot.
	last := n - 1
	if idx-1 != last {
		data, err := f.State().Read(keylet.RoleMemberSlot(f.Self, role, last))
		if err != nil {
			return err
		}
		moved := common.BytesToAddress(data)
		if err := state.Put(f.State(), keylet.RoleMemberSlot(f.Self, role, idx-1), moved.Bytes()); err != nil {
			return err
		}
		if err := state.WriteUint(f.State(), keylet.RoleMemberIndex(f.Self, role, moved), idx); err != nil {
			return err
		}
	}
	if err := state.Delete(f.State(), keylet.RoleMemberSlot(f.Self, role, last)); err != nil {
		return err
	}
	if err := state.Delete(f.State(), keylet.RoleMemberIndex(f.Self, role, account)); err != nil {
		return err
	}
	if err := state.WriteUint(f.State(), keylet.RoleMemberCount(f.Self, role), last); err != nil {
		return err
	}
	return f.Emit("RoleRevoked", role, map[string]string{
		"role": role.Hex(), "account": account.Hex(), "sender": f.Caller.Hex(),
	})
}

func (r Roles) onlyAdminOf(f *host.Frame, role common.Hash) error {
	admin, err := r.GetRoleAdmin(f, role)
	if err != nil {
		return err
	}
	return Require(f, r, admin)
}
