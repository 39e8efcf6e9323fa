package ethereum

import (
	"encoding/json"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type ResponseParserFunc[T any] func(res json.RawMessage) (T, error)

type RequestResponseHandler[T any] struct {
	RequestMethod  *RequestMethod
	ResponseParser ResponseParserFunc[T]
}

type EthereumTransactionReceipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	Status          string `json:"status"`
	From            string `json:"from"`
	To              string `json:"to"`
}

// Succeeded reports whether the receipt carries status 1.
func (r *EthereumTransactionReceipt) Succeeded() bool {
	status, err := hexutil.DecodeUint64(r.Status)
	return err == nil && status == 1
}

var (
	RPCMethod_ChainId = &RequestResponseHandler[*big.Int]{
		RequestMethod: &RequestMethod{
			Name:    "eth_chainId",
			Timeout: time.Second * 5,
		},
		ResponseParser: func(res json.RawMessage) (*big.Int, error) {
			return hexutil.DecodeBig(strings.ReplaceAll(string(res), "\"", ""))
		},
	}
	RPCMethod_GetBlock = &RequestResponseHandler[string]{
		RequestMethod: &RequestMethod{
			Name:    "eth_blockNumber",
			Timeout: time.Second * 5,
		},
		ResponseParser: func(res json.RawMessage) (string, error) {
			return strings.ReplaceAll(string(res), "\"", ""), nil
		},
	}
	RPCMethod_getTransactionReceipt = &RequestResponseHandler[*EthereumTransactionReceipt]{
		RequestMethod: &RequestMethod{
			Name:    "eth_getTransactionReceipt",
			Timeout: time.Second * 5,
		},
		ResponseParser: func(res json.RawMessage) (*EthereumTransactionReceipt, error) {
			receipt := &EthereumTransactionReceipt{}

			if err := json.Unmarshal(res, receipt); err != nil {
				return nil, err
			}
			return receipt, nil
		},
	}
)

func timeoutFor(method string) time.Duration {
	switch method {
	case RPCMethod_ChainId.RequestMethod.Name:
		return RPCMethod_ChainId.RequestMethod.Timeout
	case RPCMethod_getTransactionReceipt.RequestMethod.Name:
		return RPCMethod_getTransactionReceipt.RequestMethod.Timeout
	}
	return RPCMethod_GetBlock.RequestMethod.Timeout
}

func GetChainIdRequest(id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_ChainId.RequestMethod.Name,
		ID:      id,
	}
}

func GetBlockRequest(id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_GetBlock.RequestMethod.Name,
		ID:      id,
	}
}

func GetTransactionReceiptRequest(txHash string, id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_getTransactionReceipt.RequestMethod.Name,
		Params:  []interface{}{txHash},
		ID:      id,
	}
}
