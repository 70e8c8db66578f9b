// Package chain adapts go-ethereum's ethclient into the ledger capability
// used by the contract bindings.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is everything the bindings need from a ledger node: reads, writes,
// log filtering/subscription, receipts and network identity.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	NetworkID(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Identity describes the network a client is connected to. NetworkID keys the
// deployment table; ChainID is used for EIP-155 signing.
type Identity struct {
	NetworkID *big.Int
	ChainID   *big.Int
}

// Client is an EVM JSON-RPC client.
type Client struct {
	*ethclient.Client
	url string
}

var _ Backend = (*Client)(nil)

// Dial connects to url. Event subscriptions need a ws:// or ipc endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &Client{Client: c, url: url}, nil
}

// URL returns the endpoint the client was dialed with.
func (c *Client) URL() string { return c.url }

// Streaming reports whether the endpoint transport can carry subscriptions.
func (c *Client) Streaming() bool { return SupportsSubscriptions(c.url) }

// Identity returns the network id and chain id of the connected node.
func (c *Client) Identity(ctx context.Context) (Identity, error) {
	netID, err := c.NetworkID(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("getting network id: %w", err)
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("getting chain id: %w", err)
	}
	return Identity{NetworkID: netID, ChainID: chainID}, nil
}

// Ping measures a round trip and returns the latest block number.
func (c *Client) Ping(ctx context.Context) (time.Duration, uint64, error) {
	start := time.Now()
	n, err := c.BlockNumber(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("getting block number: %w", err)
	}
	return time.Since(start), n, nil
}

// SupportsSubscriptions reports whether url uses a transport with push
// notifications (websocket or IPC). Plain HTTP endpoints cannot subscribe.
func SupportsSubscriptions(url string) bool {
	u := strings.ToLower(url)
	switch {
	case strings.HasPrefix(u, "ws://"), strings.HasPrefix(u, "wss://"):
		return true
	case strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"):
		return false
	default:
		// Anything else is treated as an IPC path by the rpc package.
		return u != ""
	}
}
