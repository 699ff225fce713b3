//go:build integration

package integration

import (
	"barhop/test/common"
	"context"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *common.IntegrationTestSuite {
	t.Helper()
	suite := common.NewIntegrationTestSuite(t)
	suite.ClearBars(t)
	t.Cleanup(func() { suite.ClearBars(t) })
	return suite
}

func TestBars_CRUDLifecycle(t *testing.T) {
	suite := setup(t)
	ctx := context.Background()

	resp, err := suite.Client.Create(ctx, map[string]any{"yelpId": "it-bar-1", "visitors": []string{"alice"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))
	created := common.DecodeBar(t, resp)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.VisitorsCount)

	resp, err = suite.Client.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, common.DecodeBar(t, resp).ID)

	resp, err = suite.Client.Patch(ctx, created.ID, []map[string]any{
		{"op": "add", "path": "/visitors/-", "value": "bob"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	patched := common.DecodeBar(t, resp)
	assert.Equal(t, []string{"alice", "bob"}, patched.Visitors)
	assert.Equal(t, 2, patched.VisitorsCount)

	resp, err = suite.Client.Replace(ctx, created.ID, map[string]any{"yelpId": "it-bar-1", "visitors": []string{}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	assert.Equal(t, 0, common.DecodeBar(t, resp).VisitorsCount)

	resp, err = suite.Client.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = suite.Client.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBars_ToggleVisitor(t *testing.T) {
	suite := setup(t)
	ctx := context.Background()

	resp, err := suite.Client.ToggleVisitor(ctx, "it-toggle", "alice")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))
	bar := common.DecodeBar(t, resp)
	assert.Equal(t, []string{"alice"}, bar.Visitors)

	resp, err = suite.Client.ToggleVisitor(ctx, "it-toggle", "alice")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bar = common.DecodeBar(t, resp)
	assert.Empty(t, bar.Visitors)
	assert.Equal(t, 0, bar.VisitorsCount)
}

func TestBars_ConcurrentFirstCheckInsCreateOneBar(t *testing.T) {
	suite := setup(t)
	ctx := context.Background()

	const users = 8
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = suite.Client.ToggleVisitor(ctx, "it-race", string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	resp, err := suite.Client.List(ctx)
	require.NoError(t, err)
	var bars []map[string]any
	require.NoError(t, resp.DecodeJSON(&bars))
	require.Len(t, bars, 1)
	assert.EqualValues(t, users, bars[0]["visitorsCount"])
}

func TestBars_Search(t *testing.T) {
	location := os.Getenv("TEST_SEARCH_LOCATION")
	if location == "" {
		t.Skip("TEST_SEARCH_LOCATION not set")
	}
	suite := setup(t)

	resp, err := suite.Client.Search(context.Background(), location)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	var venues []map[string]any
	require.NoError(t, resp.DecodeJSON(&venues))
	for _, v := range venues {
		assert.Contains(t, v, "visitors")
		assert.Contains(t, v, "visitorsCount")
	}
}
