package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gathered(t *testing.T, c *Collector) map[string]float64 {
	t.Helper()

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			key := family.GetName()
			for _, label := range metric.GetLabel() {
				key += "/" + label.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				values[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[key] = metric.GetGauge().GetValue()
			}
		}
	}
	return values
}

func TestCollectorRecordsSessionMetrics(t *testing.T) {
	t.Parallel()

	c := New()
	c.MessageMerged(domain.OriginLive)
	c.MessageMerged(domain.OriginLive)
	c.MessageMerged(domain.OriginHistory)
	c.DuplicateSuppressed(domain.OriginLive)
	c.StaleDropped("lookup")
	c.LookupFinished("applied")
	c.RosterSize(3)

	values := gathered(t, c)
	assert.Equal(t, 2.0, values["gchat_messages_merged_total/live"])
	assert.Equal(t, 1.0, values["gchat_messages_merged_total/history"])
	assert.Equal(t, 1.0, values["gchat_messages_duplicate_total/live"])
	assert.Equal(t, 1.0, values["gchat_stale_updates_total/lookup"])
	assert.Equal(t, 1.0, values["gchat_identity_lookups_total/applied"])
	assert.Equal(t, 3.0, values["gchat_roster_size"])
}

func TestCollectorHandlerServesText(t *testing.T) {
	t.Parallel()

	c := New()
	c.RosterSize(2)

	server := httptest.NewServer(c.Handler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gchat_roster_size 2")
}
