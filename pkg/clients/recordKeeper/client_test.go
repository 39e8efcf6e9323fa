package recordKeeper

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/claimstake/console/internal/config"
	"github.com/claimstake/console/internal/metrics"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const baseUrl = "http://records.test/api"

func setup() *Client {
	client := NewClient(&config.BackendConfig{Endpoint: baseUrl + "/"}, metrics.NewNoopMetricsSink(), zap.NewNop())
	client.SetHttpClient(&http.Client{Transport: httpmock.DefaultTransport})
	return client
}

func Test_RecordKeeperClient(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	client := setup()
	ctx := context.Background()

	t.Run("Creates a stake with the expected payload", func(t *testing.T) {
		httpmock.Reset()

		var received map[string]interface{}
		httpmock.RegisterResponder("POST", baseUrl+"/stakes",
			func(req *http.Request) (*http.Response, error) {
				dec := json.NewDecoder(req.Body)
				dec.UseNumber()
				if err := dec.Decode(&received); err != nil {
					return httpmock.NewStringResponse(400, err.Error()), nil
				}
				return httpmock.NewStringResponse(201, `{"id":"abc","user":"0x01","apy":10}`), nil
			})

		created, err := client.CreateStake(ctx, &StakeSummary{
			User:     "0x01",
			Duration: 3,
			Apy:      10,
			TrxHash:  "0xhash",
			Index:    4,
			Amount:   "123456789012345678901234567890",
			StakedOn: 1700000000,
			Rewards:  "0",
		})
		assert.Nil(t, err)
		assert.Equal(t, "abc", created.ID)

		assert.Equal(t, "0x01", received["user"])
		assert.Equal(t, json.Number("3"), received["duration"])
		assert.Equal(t, json.Number("10"), received["apy"])
		assert.Equal(t, "0xhash", received["trx_hash"])
		assert.Equal(t, json.Number("4"), received["index"])
		assert.Equal(t, json.Number("123456789012345678901234567890"), received["amount"])
		assert.Equal(t, json.Number("1700000000"), received["staked_on"])
		assert.Equal(t, json.Number("0"), received["rewards"])
		_, hasId := received["id"]
		assert.False(t, hasId)
	})
	t.Run("Lists stakes for a user", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponderWithQuery("GET", baseUrl+"/stakes", "user=0x01",
			httpmock.NewStringResponder(200, `[{"id":"a","user":"0x01","index":0},{"id":"b","user":"0x01","index":1}]`))

		stakes, err := client.ListStakes(ctx, "0x01")
		assert.Nil(t, err)
		assert.Len(t, stakes, 2)
		assert.Equal(t, uint64(1), stakes[1].Index)
	})
	t.Run("Updates a stake by id", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("PUT", baseUrl+"/stakes/abc",
			httpmock.NewStringResponder(200, `{"id":"abc","rewards":5}`))

		updated, err := client.UpdateStake(ctx, "abc", &StakeSummary{Rewards: "5"})
		assert.Nil(t, err)
		assert.Equal(t, json.Number("5"), updated.Rewards)

		_, err = client.UpdateStake(ctx, "", &StakeSummary{})
		assert.NotNil(t, err)
	})
	t.Run("Non 2xx responses are errors", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", baseUrl+"/stakes", httpmock.NewStringResponder(500, `oops`))

		_, err := client.CreateStake(ctx, &StakeSummary{})
		assert.EqualError(t, err, "API request failed with status 500: oops")
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
	})
	t.Run("Missing endpoint", func(t *testing.T) {
		c := NewClient(&config.BackendConfig{}, metrics.NewNoopMetricsSink(), zap.NewNop())
		assert.False(t, c.Enabled())

		_, err := c.CreateStake(ctx, &StakeSummary{})
		assert.ErrorIs(t, err, ErrNoEndpoint)
	})
}
