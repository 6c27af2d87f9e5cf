// Package chain talks to the EVM contracts backing the vault: a read-only
// entitlement check against the vault contract, and the client-side
// approve-and-pay subscription flow.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Supported entitlement view-function layouts. The two deployed front-ends
// historically used different signatures; the oracle treats them as one
// configurable interface.
const (
	MethodAccessStatus  = "accessStatus"
	MethodVerifyPayment = "verifyPayment"
)

const accessStatusABI = `[{"type":"function","name":"accessStatus","stateMutability":"view",
"inputs":[{"name":"user","type":"address"}],
"outputs":[{"name":"canUpload","type":"bool"},{"name":"active","type":"bool"},
{"name":"expiry","type":"uint256"},{"name":"credits","type":"uint32"}]}]`

const verifyPaymentABI = `[{"type":"function","name":"verifyPayment","stateMutability":"view",
"inputs":[{"name":"user","type":"address"}],
"outputs":[{"name":"isActive","type":"bool"},{"name":"expiry","type":"uint256"},
{"name":"credits","type":"uint256"}]}]`

const callTimeout = 30 * time.Second

// AccessStatus is the typed result of an entitlement check. When the check
// could not be completed (RPC failure, revert, decode mismatch) CanUpload is
// false and Err carries the underlying cause for diagnostics.
type AccessStatus struct {
	CanUpload bool
	Active    bool
	Expiry    *big.Int
	Credits   *big.Int
	Err       error
}

// ContractCaller is the subset of the RPC client used for read-only calls.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// AccessOracle answers "may this wallet upload" from on-chain state.
// Results are never cached; every call hits the contract.
type AccessOracle struct {
	caller   ContractCaller
	contract common.Address
	method   string
	abi      abi.ABI
}

// NewAccessOracle dials the read-only RPC endpoint and prepares the
// configured view-function layout. Both the endpoint and the contract
// address are required; either missing is a construction error.
func NewAccessOracle(rpcURL, contractAddress, method string) (*AccessOracle, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("chain rpc url is required")
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc endpoint: %w", err)
	}
	return NewAccessOracleWithCaller(client, contractAddress, method)
}

// NewAccessOracleWithCaller builds an oracle on an existing caller.
func NewAccessOracleWithCaller(caller ContractCaller, contractAddress, method string) (*AccessOracle, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid vault contract address %q", contractAddress)
	}

	var abiJSON string
	switch method {
	case MethodAccessStatus:
		abiJSON = accessStatusABI
	case MethodVerifyPayment:
		abiJSON = verifyPaymentABI
	default:
		return nil, fmt.Errorf("unsupported access method %q", method)
	}

	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse %s abi: %w", method, err)
	}

	return &AccessOracle{
		caller:   caller,
		contract: common.HexToAddress(contractAddress),
		method:   method,
		abi:      parsed,
	}, nil
}

// CheckAccess performs a single read-only call against the vault contract.
// No retries: a low-stakes read that fails is reported as "no access" with
// the failure kept on the result.
func (o *AccessOracle) CheckAccess(ctx context.Context, walletAddress string) AccessStatus {
	if !common.IsHexAddress(walletAddress) {
		return AccessStatus{Err: fmt.Errorf("invalid wallet address %q", walletAddress)}
	}

	data, err := o.abi.Pack(o.method, common.HexToAddress(walletAddress))
	if err != nil {
		return AccessStatus{Err: fmt.Errorf("pack %s call: %w", o.method, err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out, err := o.caller.CallContract(callCtx, ethereum.CallMsg{To: &o.contract, Data: data}, nil)
	if err != nil {
		return AccessStatus{Err: fmt.Errorf("call %s: %w", o.method, err)}
	}

	values, err := o.abi.Unpack(o.method, out)
	if err != nil {
		return AccessStatus{Err: fmt.Errorf("unpack %s result: %w", o.method, err)}
	}

	status, err := o.decode(values)
	if err != nil {
		return AccessStatus{Err: err}
	}
	return status
}

// decode validates the raw output against the expected layout and maps it to
// the shared AccessStatus shape.
func (o *AccessOracle) decode(values []interface{}) (AccessStatus, error) {
	switch o.method {
	case MethodAccessStatus:
		if len(values) != 4 {
			return AccessStatus{}, fmt.Errorf("%s returned %d values, want 4", o.method, len(values))
		}
		canUpload, ok1 := values[0].(bool)
		active, ok2 := values[1].(bool)
		expiry, ok3 := values[2].(*big.Int)
		credits, ok4 := values[3].(uint32)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return AccessStatus{}, fmt.Errorf("%s returned unexpected field types", o.method)
		}
		return AccessStatus{
			CanUpload: canUpload,
			Active:    active,
			Expiry:    expiry,
			Credits:   new(big.Int).SetUint64(uint64(credits)),
		}, nil

	case MethodVerifyPayment:
		if len(values) != 3 {
			return AccessStatus{}, fmt.Errorf("%s returned %d values, want 3", o.method, len(values))
		}
		isActive, ok1 := values[0].(bool)
		expiry, ok2 := values[1].(*big.Int)
		credits, ok3 := values[2].(*big.Int)
		if !ok1 || !ok2 || !ok3 {
			return AccessStatus{}, fmt.Errorf("%s returned unexpected field types", o.method)
		}
		return AccessStatus{
			CanUpload: isActive,
			Active:    isActive,
			Expiry:    expiry,
			Credits:   credits,
		}, nil
	}
	return AccessStatus{}, fmt.Errorf("unsupported access method %q", o.method)
}
