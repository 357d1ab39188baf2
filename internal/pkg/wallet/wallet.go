package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	bip39 "github.com/tyler-smith/go-bip39"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

var (
	ErrMissingSeed    = errors.New("wallet seed phrase is not configured")
	ErrInvalidSeed    = errors.New("wallet seed phrase is not a valid BIP39 mnemonic")
	ErrUnknownNetwork = errors.New("unknown bitcoin network")
)

const (
	defaultPurpose = 0
	defaultChain   = 0
)

// HDWallet derives one receiving address per order from a single mnemonic along m/purpose'/chain'/orderID'.
type HDWallet struct {
	master  *hdkeychain.ExtendedKey
	params  *chaincfg.Params
	purpose uint32
	chain   uint32
}

// ParseNetwork maps a network name to chain parameters.
func ParseNetwork(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mainnet", "main":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3", "test":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
}

// New builds a wallet from a BIP39 mnemonic. A missing or malformed mnemonic is an error.
func New(mnemonic, network string) (*HDWallet, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if mnemonic == "" {
		return nil, ErrMissingSeed
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidSeed
	}

	params, err := ParseNetwork(network)
	if err != nil {
		return nil, err
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}

	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}

	return &HDWallet{master: master, params: params, purpose: defaultPurpose, chain: defaultChain}, nil
}

// AddressFor returns the P2PKH address for the order. The same order id always yields the same address.
func (w *HDWallet) AddressFor(orderID int64) (string, error) {
	if orderID < 0 || orderID >= int64(hdkeychain.HardenedKeyStart) {
		return "", fmt.Errorf("%w: %d", domainErrors.ErrInvalidOrderIndex, orderID)
	}

	key := w.master
	for _, index := range []uint32{w.purpose, w.chain, uint32(orderID)} {
		child, err := key.Derive(hdkeychain.HardenedKeyStart + index)
		if err != nil {
			return "", fmt.Errorf("derive child %d: %w", index, err)
		}
		key = child
	}

	pub, err := key.ECPubKey()
	if err != nil {
		return "", fmt.Errorf("public key: %w", err)
	}

	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), w.params)
	if err != nil {
		return "", fmt.Errorf("encode address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// Network returns the chain name addresses are encoded for.
func (w *HDWallet) Network() string {
	return w.params.Name
}
