package controller_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/models"
	"leadflow/store"
)

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rep, token := createRep(t, env, "Umalee000000000000000000000000000", models.RoleRep)

	first, err := env.leads.CreateFromClick(ctx, store.ClickInput{Email: "a@b.co", Source: "newsletter"})
	require.NoError(t, err)
	_, err = env.leads.CreateFromClick(ctx, store.ClickInput{Email: "b@b.co", Source: "line_ads"})
	require.NoError(t, err)

	_, err = env.leads.Transition(ctx, store.TransitionInput{
		LeadID: first.ID, ExpectedVersion: 1, ToStatus: models.StatusContacted, Actor: rep,
	})
	require.NoError(t, err)
	_, err = env.leads.Transition(ctx, store.TransitionInput{
		LeadID: first.ID, ExpectedVersion: 2, ToStatus: models.StatusClosed, Actor: rep,
	})
	require.NoError(t, err)

	resp := env.apiRequest(t, http.MethodGet, "/api/v1/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := decodeBody(t, resp)["data"].(map[string]interface{})
	assert.EqualValues(t, 2, stats["total"])
	assert.InDelta(t, 0.5, stats["conversion_rate"].(float64), 1e-9)

	counts := map[string]float64{}
	for _, entry := range stats["by_status"].([]interface{}) {
		row := entry.(map[string]interface{})
		counts[row["status"].(string)] = row["count"].(float64)
	}
	assert.EqualValues(t, 1, counts[models.StatusClosed])
	assert.EqualValues(t, 1, counts[models.StatusNew])
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.apiRequest(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "up", body["database"])
	assert.Equal(t, "disabled", body["redis"])
}
