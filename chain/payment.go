package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const erc20ABI = `[{"type":"function","name":"approve","stateMutability":"nonpayable",
"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
"outputs":[{"name":"","type":"bool"}]}]`

const vaultPayABI = `[{"type":"function","name":"paySubscription","stateMutability":"nonpayable",
"inputs":[{"name":"planId","type":"uint256"}],"outputs":[]}]`

// TxBackend is the subset of the RPC client the payer needs to submit and
// track transactions. *ethclient.Client satisfies it.
type TxBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Payer drives the two-step subscription payment: an ERC-20 approval of the
// vault contract followed by paySubscription. The steps are strictly
// sequential; the payment is never attempted when the approval fails.
type Payer struct {
	backend TxBackend
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	token   common.Address
	vault   common.Address
	price   *big.Int

	erc20    abi.ABI
	vaultABI abi.ABI

	pollInterval time.Duration
}

// NewPayer builds a payer from a hex-encoded private key and the token/vault
// contract addresses. price is the fixed spend amount approved in step 1.
func NewPayer(backend TxBackend, privateKeyHex string, chainID int64, tokenAddress, vaultAddress string, price *big.Int) (*Payer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if !common.IsHexAddress(tokenAddress) {
		return nil, fmt.Errorf("invalid token contract address %q", tokenAddress)
	}
	if !common.IsHexAddress(vaultAddress) {
		return nil, fmt.Errorf("invalid vault contract address %q", vaultAddress)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}

	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	vaultABI, err := abi.JSON(strings.NewReader(vaultPayABI))
	if err != nil {
		return nil, fmt.Errorf("parse vault abi: %w", err)
	}

	return &Payer{
		backend:      backend,
		key:          key,
		from:         crypto.PubkeyToAddress(key.PublicKey),
		chainID:      big.NewInt(chainID),
		token:        common.HexToAddress(tokenAddress),
		vault:        common.HexToAddress(vaultAddress),
		price:        price,
		erc20:        erc20,
		vaultABI:     vaultABI,
		pollInterval: time.Second,
	}, nil
}

// From returns the payer's wallet address.
func (p *Payer) From() common.Address {
	return p.from
}

// Pay approves the vault for the configured price, waits for inclusion, then
// pays the subscription for planID and waits again. A failure after a
// successful approval leaves a standing allowance on the token contract;
// that fact is surfaced in the error rather than silently rolled back.
func (p *Payer) Pay(ctx context.Context, planID uint64) error {
	approveData, err := p.erc20.Pack("approve", p.vault, p.price)
	if err != nil {
		return fmt.Errorf("pack approve: %w", err)
	}

	receipt, err := p.sendAndWait(ctx, p.token, approveData)
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("approve reverted in tx %s", receipt.TxHash)
	}

	payData, err := p.vaultABI.Pack("paySubscription", new(big.Int).SetUint64(planID))
	if err != nil {
		return fmt.Errorf("pack paySubscription (approval for %s remains in place): %w", p.vault, err)
	}

	receipt, err = p.sendAndWait(ctx, p.vault, payData)
	if err != nil {
		return fmt.Errorf("paySubscription (approval for %s remains in place): %w", p.vault, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("paySubscription reverted in tx %s; approval for %s remains in place", receipt.TxHash, p.vault)
	}
	return nil
}

// sendAndWait signs and submits one transaction and blocks until its receipt
// is available or ctx is done.
func (p *Payer) sendAndWait(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	nonce, err := p.backend.PendingNonceAt(ctx, p.from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := p.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	gasLimit, err := p.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: p.from,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainID), p.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	if err := p.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}
	return p.waitMined(ctx, signed.Hash())
}

func (p *Payer) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if err != ethereum.NotFound {
			return nil, fmt.Errorf("fetch receipt for %s: %w", txHash, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
