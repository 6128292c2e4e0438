package crypto

import (
	"github.com/ethereum/go-ethereum/accounts"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
)

// Keccak256 returns the keccak256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) [32]byte {
	return gethCrypto.Keccak256Hash(data...)
}

// PersonalMessageHash returns the EIP-191 digest a wallet signs for
// personal_sign: keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg).
func PersonalMessageHash(msg []byte) [32]byte {
	var result [32]byte
	copy(result[:], accounts.TextHash(msg))
	return result
}
