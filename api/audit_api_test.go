/*
Copyright 2025 Artcurate Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artcurate/curate"
	model2 "github.com/artcurate/curate/api/model"
	"github.com/artcurate/curate/config"
	"github.com/artcurate/curate/internal/request"
	"github.com/artcurate/curate/model"
	"github.com/artcurate/curate/sites"
)

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	err := json.NewDecoder(resp.Body).Decode(&s.Response)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

type stubProvider struct{}

func (stubProvider) Fetch(_ context.Context, contentID string) (*model.ItemSnapshot, []sites.Media, error) {
	return &model.ItemSnapshot{Site: "pixiv", ContentID: contentID, Title: "stub"}, nil, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *curate.Curator, *curate.MockDataSource) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ds := curate.NewMockDataSource()
	registry := sites.NewRegistryWithProviders(stubProvider{}, stubProvider{}, stubProvider{})
	cu, err := curate.NewCuratorWithDependencies(ds, client, registry, curate.NoopScheduler{})
	require.NoError(t, err)

	return NewAPI(cu).Router(), cu, ds
}

func seedRecords(t *testing.T, ds *curate.MockDataSource, status model.Status, ids ...string) {
	t.Helper()
	items := make([]*model.Item, 0, len(ids))
	for i, id := range ids {
		items = append(items, &model.Item{
			Site:      "pixiv",
			ContentID: id,
			Type:      model.CategorySFW,
			Status:    status,
			CreatedAt: time.Date(2025, 3, 10, 8, i, 0, 0, time.UTC),
		})
	}
	require.NoError(t, ds.RecordItems(context.Background(), items))
}

func TestAuditStartEndpoint(t *testing.T) {
	router, _, ds := setupRouter(t)
	seedRecords(t, ds, model.StatusInit, "1", "2")

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "POST",
		Route:    "/audit/sfw/start",
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(2), response["audit_size"])
}

func TestAuditNextAndApproveEndpoints(t *testing.T) {
	router, _, ds := setupRouter(t)
	seedRecords(t, ds, model.StatusInit, "7")

	var packet curate.ReviewPacket
	resp, err := SetUpTestRequest(TestRequest{
		Response: &packet,
		Method:   "POST",
		Route:    "/audit/sfw/next",
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "7", packet.Key.ContentID)

	payload, err := request.ToJsonReq(&model2.ItemRef{Site: packet.Key.Site, ContentID: packet.Key.ContentID})
	require.NoError(t, err)

	var decision model.Decision
	resp, err = SetUpTestRequest(TestRequest{
		Payload:  payload,
		Response: &decision,
		Method:   "POST",
		Route:    "/audit/sfw/approve",
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, model.StatusPass, decision.Status)

	stored, err := ds.GetDecision(context.Background(), packet.Key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPass, stored.Status)
}

func TestAuditRejectEndpointValidation(t *testing.T) {
	router, _, _ := setupRouter(t)

	// missing reason
	payload, err := request.ToJsonReq(&model2.RejectItem{Site: "pixiv", ContentID: "9"})
	require.NoError(t, err)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payload,
		Response: &response,
		Method:   "POST",
		Route:    "/audit/sfw/reject",
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUnknownCategoryEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "POST",
		Route:    "/audit/pg13/start",
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPushEndpoints(t *testing.T) {
	router, _, ds := setupRouter(t)
	seedRecords(t, ds, model.StatusPass, "11")

	var startResp map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Response: &startResp,
		Method:   "POST",
		Route:    "/push/sfw/start",
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(1), startResp["push_size"])

	var packet curate.PushPacket
	resp, err = SetUpTestRequest(TestRequest{
		Response: &packet,
		Method:   "POST",
		Route:    "/push/sfw/next",
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "11", packet.Key.ContentID)

	payload, err := request.ToJsonReq(&model2.ItemRef{Site: "pixiv", ContentID: "11"})
	require.NoError(t, err)

	var finalizeResp map[string]interface{}
	resp, err = SetUpTestRequest(TestRequest{
		Payload:  payload,
		Response: &finalizeResp,
		Method:   "POST",
		Route:    "/push/sfw/finalize",
		Router:   router,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)

	stored, err := ds.GetDecision(context.Background(), model.ItemKey{Site: "pixiv", ContentID: "11"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPush, stored.Status)
}
