package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/models"
	"leadflow/store"
	"leadflow/utils"
)

func createRep(t *testing.T, env *testEnv, lineID, role string) (*models.SalesRep, string) {
	t.Helper()
	rep := &models.SalesRep{LineUserID: lineID, Name: "rep-" + lineID, Role: role, Active: true}
	require.NoError(t, env.db.Create(rep).Error)
	token, err := utils.GenerateJWTToken(rep)
	require.NoError(t, err)
	return rep, token
}

func (e *testEnv) apiRequest(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeRaw(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestLeadAPIRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.apiRequest(t, http.MethodGet, "/api/v1/leads/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.apiRequest(t, http.MethodGet, "/api/v1/leads/", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateLeadStatusHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, token := createRep(t, env, "Umalee000000000000000000000000000", models.RoleRep)

	lead, err := env.leads.CreateFromClick(ctx, store.ClickInput{Email: "a@b.co", Source: "newsletter"})
	require.NoError(t, err)

	resp := env.apiRequest(t, http.MethodPut, "/api/v1/leads/"+lead.LeadUID+"/status", token, map[string]interface{}{
		"status":           models.StatusContacted,
		"expected_version": 1,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, models.StatusContacted, data["status"])
	assert.EqualValues(t, 2, data["version"])
}

func TestUpdateLeadStatusErrorCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner, ownerToken := createRep(t, env, "Uowner000000000000000000000000000", models.RoleRep)
	_, otherToken := createRep(t, env, "Uother000000000000000000000000000", models.RoleRep)

	lead, err := env.leads.CreateFromClick(ctx, store.ClickInput{Email: "a@b.co", Source: "newsletter"})
	require.NoError(t, err)

	// Stale version: 409.
	_, err = env.leads.Transition(ctx, store.TransitionInput{
		LeadID: lead.ID, ExpectedVersion: 1, ToStatus: models.StatusContacted, Actor: owner,
	})
	require.NoError(t, err)

	resp := env.apiRequest(t, http.MethodPut, "/api/v1/leads/"+lead.LeadUID+"/status", ownerToken, map[string]interface{}{
		"status":           models.StatusClosed,
		"expected_version": 1,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Not the owner: 403.
	resp = env.apiRequest(t, http.MethodPut, "/api/v1/leads/"+lead.LeadUID+"/status", otherToken, map[string]interface{}{
		"status":           models.StatusClosed,
		"expected_version": 2,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Terminal state: 422.
	resp = env.apiRequest(t, http.MethodPut, "/api/v1/leads/"+lead.LeadUID+"/status", ownerToken, map[string]interface{}{
		"status":           models.StatusClosed,
		"expected_version": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.apiRequest(t, http.MethodPut, "/api/v1/leads/"+lead.LeadUID+"/status", ownerToken, map[string]interface{}{
		"status":           models.StatusLost,
		"expected_version": 3,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Unknown lead: 404.
	resp = env.apiRequest(t, http.MethodPut, "/api/v1/leads/"+utils.GenerateLeadUID()+"/status", ownerToken, map[string]interface{}{
		"status":           models.StatusContacted,
		"expected_version": 1,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetLeadsFilterAndPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, token := createRep(t, env, "Umalee000000000000000000000000000", models.RoleRep)

	for _, email := range []string{"a@b.co", "b@b.co", "c@b.co"} {
		_, err := env.leads.CreateFromClick(ctx, store.ClickInput{Email: email, Source: "newsletter"})
		require.NoError(t, err)
	}
	_, err := env.leads.CreateFromClick(ctx, store.ClickInput{Email: "d@b.co", Source: "line_ads"})
	require.NoError(t, err)

	resp := env.apiRequest(t, http.MethodGet, "/api/v1/leads/?source=newsletter&limit=2&page=1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	page := body["data"].(map[string]interface{})
	assert.EqualValues(t, 3, page["total"])
	assert.Len(t, page["data"].([]interface{}), 2)

	resp = env.apiRequest(t, http.MethodGet, "/api/v1/leads/?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetLeadHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rep, token := createRep(t, env, "Umalee000000000000000000000000000", models.RoleRep)

	lead, err := env.leads.CreateFromClick(ctx, store.ClickInput{Email: "a@b.co", Source: "newsletter"})
	require.NoError(t, err)
	_, err = env.leads.Transition(ctx, store.TransitionInput{
		LeadID: lead.ID, ExpectedVersion: 1, ToStatus: models.StatusContacted, Actor: rep,
	})
	require.NoError(t, err)

	resp := env.apiRequest(t, http.MethodGet, "/api/v1/leads/"+lead.LeadUID+"/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	history := body["data"].([]interface{})
	require.Len(t, history, 1)
	entry := history[0].(map[string]interface{})
	assert.Equal(t, models.StatusNew, entry["from_status"])
	assert.Equal(t, models.StatusContacted, entry["to_status"])
}

func TestExportLeadsCSV(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, token := createRep(t, env, "Umalee000000000000000000000000000", models.RoleRep)

	_, err := env.leads.CreateFromClick(ctx, store.ClickInput{
		Email: "a@b.co", Source: "newsletter", Company: "Somchai Logistics",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	raw := decodeRaw(t, resp)
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "lead_uid,email,source"))
	assert.Contains(t, lines[1], "a@b.co")
	assert.Contains(t, lines[1], "Somchai Logistics")
}

func TestExportLeadsSpansPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, token := createRep(t, env, "Umalee000000000000000000000000000", models.RoleRep)

	const total = 105 // more than one export page
	for i := 0; i < total; i++ {
		_, err := env.leads.CreateFromClick(ctx, store.ClickInput{
			Email:  fmt.Sprintf("lead%03d@b.co", i),
			Source: "newsletter",
		})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := strings.Split(strings.TrimSpace(decodeRaw(t, resp)), "\n")
	require.Len(t, lines, total+1, "header plus every lead, no page cap")

	// No row is exported twice across page boundaries.
	seen := map[string]bool{}
	for _, line := range lines[1:] {
		uid := strings.SplitN(line, ",", 2)[0]
		assert.False(t, seen[uid], "duplicate row %s", uid)
		seen[uid] = true
	}
}

func TestTeamManagementAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	_, repToken := createRep(t, env, "Urep00000000000000000000000000000", models.RoleRep)
	_, adminToken := createRep(t, env, "Uadmin000000000000000000000000000", models.RoleAdmin)

	newRep := map[string]interface{}{
		"line_user_id": "Unew00000000000000000000000000000",
		"name":         "prasert",
	}

	resp := env.apiRequest(t, http.MethodPost, "/api/v1/team/", repToken, newRep)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.apiRequest(t, http.MethodPost, "/api/v1/team/", adminToken, newRep)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Duplicate LINE id: 409.
	resp = env.apiRequest(t, http.MethodPost, "/api/v1/team/", adminToken, newRep)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.apiRequest(t, http.MethodGet, "/api/v1/team/", repToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeactivatedRepLosesAccess(t *testing.T) {
	env := newTestEnv(t)
	rep, token := createRep(t, env, "Umalee000000000000000000000000000", models.RoleRep)

	require.NoError(t, env.db.Model(rep).Update("active", false).Error)

	// The token itself is still valid; a deactivated account is forbidden,
	// not unauthenticated.
	resp := env.apiRequest(t, http.MethodGet, "/api/v1/leads/", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
