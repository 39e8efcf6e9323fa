package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/claimstake/console/internal/config"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

type RequestMethod struct {
	Name    string
	Timeout time.Duration
}

type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      uint   `json:"id"`
}

type RPCError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint           `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

var jsonRPCVersion = "2.0"

type Client struct {
	Logger       *zap.Logger
	httpClient   *http.Client
	clientConfig *EthereumClientConfig
}

type EthereumClientConfig struct {
	BaseUrl string
}

func ConvertGlobalConfigToEthereumConfig(cfg *config.EthereumRpcConfig) *EthereumClientConfig {
	return &EthereumClientConfig{
		BaseUrl: cfg.RpcUrl,
	}
}

func NewClient(cfg *EthereumClientConfig, l *zap.Logger) *Client {
	client := &http.Client{
		Timeout: time.Second * 10,
	}

	l.Sugar().Debugw("Creating new Ethereum client", zap.String("baseUrl", cfg.BaseUrl))

	return &Client{
		httpClient:   client,
		Logger:       l,
		clientConfig: cfg,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

// GetEthereumContractCaller dials the same endpoint with go-ethereum's client,
// which backs contract calls, transaction submission and receipt polling.
func (c *Client) GetEthereumContractCaller() (*ethclient.Client, error) {
	d, err := ethclient.Dial(c.clientConfig.BaseUrl)
	if err != nil {
		c.Logger.Sugar().Errorw("Failed to create new eth client", zap.Error(err))
		return nil, err
	}
	return d, nil
}

func (c *Client) GetChainId(ctx context.Context) (*big.Int, error) {
	res, err := c.Call(ctx, GetChainIdRequest(1))
	if err != nil {
		return nil, err
	}
	chainId, err := RPCMethod_ChainId.ResponseParser(res.Result)
	if err != nil {
		c.Logger.Sugar().Errorw("failed to parse chain id",
			zap.Error(err),
			zap.Any("raw response", res.Result),
		)
		return nil, err
	}
	return chainId, nil
}

func (c *Client) GetBlockNumber(ctx context.Context) (string, error) {
	res, err := c.Call(ctx, GetBlockRequest(1))
	if err != nil {
		return "", err
	}
	return RPCMethod_GetBlock.ResponseParser(res.Result)
}

func (c *Client) GetBlockNumberUint64(ctx context.Context) (uint64, error) {
	blockNumber, err := c.GetBlockNumber(ctx)
	if err != nil {
		return 0, err
	}

	blockNumberUint64, err := hexutil.DecodeUint64(blockNumber)
	if err != nil {
		return 0, err
	}

	return blockNumberUint64, nil
}

// GetTransactionReceipt returns nil without error while the transaction is
// still pending.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash string) (*EthereumTransactionReceipt, error) {
	res, err := c.Call(ctx, GetTransactionReceiptRequest(txHash, 1))
	if err != nil {
		return nil, err
	}
	if len(res.Result) == 0 || string(res.Result) == "null" {
		return nil, nil
	}
	receipt, err := RPCMethod_getTransactionReceipt.ResponseParser(res.Result)
	if err != nil {
		c.Logger.Sugar().Errorw("failed to parse transaction receipt",
			zap.Error(err),
			zap.Any("raw response", res.Result),
		)
		return nil, err
	}
	return receipt, nil
}

// Call performs a single JSON-RPC request. Nothing is retried; the caller
// decides what a failure means.
func (c *Client) Call(ctx context.Context, rpcRequest *RPCRequest) (*RPCResponse, error) {
	requestBody, err := json.Marshal(rpcRequest)
	if err != nil {
		return nil, err
	}
	c.Logger.Sugar().Debugw("Request body", zap.String("requestBody", string(requestBody)))

	ctx, cancel := context.WithTimeout(ctx, timeoutFor(rpcRequest.Method))
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.clientConfig.BaseUrl, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received http error code %+v", response.StatusCode)
	}

	destination := &RPCResponse{}
	if err := json.Unmarshal(responseBody, destination); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if destination.Error != nil {
		return nil, fmt.Errorf("received error response: %s", strings.TrimSpace(destination.Error.Message))
	}

	return destination, nil
}
