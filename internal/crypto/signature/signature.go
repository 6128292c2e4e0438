// Package signature signs and recovers secp256k1 signatures in the 65-byte
// [R || S || V] layout used by Ethereum wallets for personal_sign.
package signature

import (
	"crypto/sha512"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"

	crypto "github.com/LeJamon/goNFTMarket/internal/crypto/common"
)

// Length is the size of a recoverable signature.
const Length = 65

var (
	ErrInvalidLength     = errors.New("invalid signature length")
	ErrInvalidRecoveryID = errors.New("invalid signature recovery id")
	ErrHighS             = errors.New("signature s value is not in the lower half order")
	ErrInvalidPrivateKey = errors.New("invalid private key")
)

// PrivateKeyFromBytes parses a 32-byte secp256k1 scalar.
func PrivateKeyFromBytes(b []byte) (*btcec.PrivateKey, error) {
	if len(b) != 32 {
		return nil, ErrInvalidPrivateKey
	}
	key, _ := btcec.PrivKeyFromBytes(b)
	if key.Key.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return key, nil
}

// KeyFromSeed derives a key from the first half of SHA-512(seed). The same
// seed always yields the same key.
func KeyFromSeed(seed string) (*btcec.PrivateKey, error) {
	hash := sha512.Sum512([]byte(seed))
	return PrivateKeyFromBytes(hash[:32])
}

// Address derives the account address controlled by key.
func Address(key *btcec.PrivateKey) common.Address {
	return gethCrypto.PubkeyToAddress(*key.PubKey().ToECDSA())
}

// SignHash signs a 32-byte digest. The result is always low-S.
func SignHash(key *btcec.PrivateKey, hash [32]byte) []byte {
	// compact layout is [27+recid || R || S]
	compact := ecdsa.SignCompact(key, hash[:], false)

	sig := make([]byte, Length)
	copy(sig[:64], compact[1:])
	sig[64] = compact[0]
	return sig
}

// SignPersonal signs msg the way personal_sign does.
func SignPersonal(key *btcec.PrivateKey, msg []byte) []byte {
	return SignHash(key, crypto.PersonalMessageHash(msg))
}

// RecoverHash returns the address that produced sig over hash. V may be
// 0/1 or 27/28.
func RecoverHash(hash [32]byte, sig []byte) (common.Address, error) {
	if len(sig) != Length {
		return common.Address{}, ErrInvalidLength
	}
	if err := checkLowS(sig[32:64]); err != nil {
		return common.Address{}, err
	}

	normalised := make([]byte, Length)
	copy(normalised, sig)
	switch v := normalised[64]; v {
	case 0, 1:
	case 27, 28:
		normalised[64] = v - 27
	default:
		return common.Address{}, ErrInvalidRecoveryID
	}

	pub, err := gethCrypto.SigToPub(hash[:], normalised)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return gethCrypto.PubkeyToAddress(*pub), nil
}

// RecoverPersonal recovers the signer of a personal_sign signature over msg.
func RecoverPersonal(msg, sig []byte) (common.Address, error) {
	return RecoverHash(crypto.PersonalMessageHash(msg), sig)
}

func checkLowS(s []byte) error {
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(s); overflow {
		return ErrHighS
	}
	if scalar.IsZero() || scalar.IsOverHalfOrder() {
		return ErrHighS
	}
	return nil
}
