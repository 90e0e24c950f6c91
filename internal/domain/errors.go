package domain

import "errors"

var (
	// ErrInvalidSigningKey is returned when a private key does not derive a valid account
	ErrInvalidSigningKey = errors.New("invalid signing key")

	// ErrInvalidAddress is returned when an address fails network-specific format validation
	ErrInvalidAddress = errors.New("address invalid")

	// ErrUnsupportedNetwork is returned when a network id does not resolve to a configured client
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrContractNotFound is returned when no contract is registered for a (network, standard) pair
	ErrContractNotFound = errors.New("smart contract not found")

	// ErrContentUploadFailed is returned when the content-storage upload fails before any chain write
	ErrContentUploadFailed = errors.New("content upload failed")

	// ErrChainSubmissionFailed is returned when a transaction could not be submitted or reverted
	ErrChainSubmissionFailed = errors.New("chain submission failed")

	// ErrRecordNotFound is returned when a required ledger record does not exist
	ErrRecordNotFound = errors.New("record not found")

	// ErrPersistenceFailed marks a local write failure after a successful chain write.
	// It is logged, never returned to callers: the chain state is authoritative.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrNoEligiblePack is returned when no active pack for the game has remaining supply
	ErrNoEligiblePack = errors.New("no eligible pack")

	// ErrOutOfStock is returned when every selectable pack lost the race for its last units
	ErrOutOfStock = errors.New("pack out of stock")

	// ErrPackNotOwned is returned when a user opens a pack they were never granted
	ErrPackNotOwned = errors.New("pack not owned")

	// ErrNoEligibleItem is returned when a pack has no active item frequency entries
	ErrNoEligibleItem = errors.New("no eligible item")
)
