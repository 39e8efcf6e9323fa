package ethereum

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupClient(baseUrl string) *Client {
	client := NewClient(&EthereumClientConfig{BaseUrl: baseUrl}, zap.NewNop())
	client.SetHttpClient(&http.Client{Transport: httpmock.DefaultTransport})
	return client
}

func Test_Client(t *testing.T) {
	baseUrl := "http://127.0.0.1:8545"

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	client := setupClient(baseUrl)

	t.Run("Parses the chain id", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", baseUrl,
			httpmock.NewStringResponder(200, `{"jsonrpc":"2.0","id":1,"result":"0x2105"}`))

		chainId, err := client.GetChainId(context.Background())
		assert.Nil(t, err)
		assert.Equal(t, int64(8453), chainId.Int64())
	})
	t.Run("Parses the block number", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", baseUrl,
			httpmock.NewStringResponder(200, `{"jsonrpc":"2.0","id":1,"result":"0x10"}`))

		blockNumber, err := client.GetBlockNumberUint64(context.Background())
		assert.Nil(t, err)
		assert.Equal(t, uint64(16), blockNumber)
	})
	t.Run("Pending receipt is nil", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", baseUrl,
			httpmock.NewStringResponder(200, `{"jsonrpc":"2.0","id":1,"result":null}`))

		receipt, err := client.GetTransactionReceipt(context.Background(), "0xabc")
		assert.Nil(t, err)
		assert.Nil(t, receipt)
	})
	t.Run("Mined receipt reports status", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", baseUrl,
			httpmock.NewStringResponder(200, `{"jsonrpc":"2.0","id":1,"result":{"transactionHash":"0xabc","blockNumber":"0x10","status":"0x1"}}`))

		receipt, err := client.GetTransactionReceipt(context.Background(), "0xabc")
		assert.Nil(t, err)
		assert.True(t, receipt.Succeeded())
	})
	t.Run("Surfaces rpc errors without retrying", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", baseUrl,
			httpmock.NewStringResponder(200, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"boom"}}`))

		_, err := client.GetChainId(context.Background())
		assert.EqualError(t, err, "received error response: boom")
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
	})
	t.Run("Http failures are errors", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", baseUrl, httpmock.NewStringResponder(502, `bad gateway`))

		_, err := client.GetBlockNumber(context.Background())
		assert.EqualError(t, err, "received http error code 502")
	})
}
