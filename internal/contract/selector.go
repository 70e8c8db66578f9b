package contract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// ErrInterfaceMismatch is returned when an ABI lacks a required method or event.
var ErrInterfaceMismatch = errors.New("contract interface mismatch")

// Selector returns the 4-byte function selector of a canonical signature
// such as "balanceOf(address)".
func Selector(signature string) []byte {
	return keccak([]byte(signature))[:4]
}

// Topic returns the topic-0 hash of a canonical event signature.
func Topic(signature string) common.Hash {
	return common.BytesToHash(keccak([]byte(signature)))
}

// VerifyInterface checks that parsed exposes every method and event listed by
// the built-in kind, matching on selector rather than name.
func VerifyInterface(parsed abi.ABI, kind BuiltinKind) error {
	for _, sig := range kind.Methods {
		if !hasMethod(parsed, Selector(sig)) {
			return fmt.Errorf("%w: %s has no method %s", ErrInterfaceMismatch, kind.ArtifactName, sig)
		}
	}
	for _, sig := range kind.Events {
		if !hasEvent(parsed, Topic(sig)) {
			return fmt.Errorf("%w: %s has no event %s", ErrInterfaceMismatch, kind.ArtifactName, sig)
		}
	}
	return nil
}

func hasMethod(parsed abi.ABI, selector []byte) bool {
	for _, m := range parsed.Methods {
		if bytes.Equal(m.ID, selector) {
			return true
		}
	}
	return false
}

func hasEvent(parsed abi.ABI, topic common.Hash) bool {
	for _, e := range parsed.Events {
		if e.ID == topic {
			return true
		}
	}
	return false
}

func keccak(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
