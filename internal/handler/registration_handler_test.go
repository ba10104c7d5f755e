package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drl-go-api/internal/dto"
	"github.com/noah-isme/drl-go-api/internal/handler"
	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/repository"
	"github.com/noah-isme/drl-go-api/internal/service"
)

type mockRegistrationService struct {
	response dto.RegistrationResponse
	bulk     dto.BulkApproveResponse
	list     dto.RegistrationListResponse
	err      error

	lastPrincipal models.Principal
	lastID        uint
}

func (m *mockRegistrationService) Register(_ context.Context, principal models.Principal, activityID uint) (dto.RegistrationResponse, error) {
	m.lastPrincipal, m.lastID = principal, activityID
	return m.response, m.err
}

func (m *mockRegistrationService) Cancel(_ context.Context, principal models.Principal, registrationID uint) (dto.RegistrationResponse, error) {
	m.lastPrincipal, m.lastID = principal, registrationID
	return m.response, m.err
}

func (m *mockRegistrationService) Approve(_ context.Context, principal models.Principal, registrationID uint) (dto.RegistrationResponse, error) {
	m.lastPrincipal, m.lastID = principal, registrationID
	return m.response, m.err
}

func (m *mockRegistrationService) Reject(_ context.Context, principal models.Principal, registrationID uint, _ dto.RejectRequest) (dto.RegistrationResponse, error) {
	m.lastPrincipal, m.lastID = principal, registrationID
	return m.response, m.err
}

func (m *mockRegistrationService) BulkApprove(_ context.Context, principal models.Principal, _ dto.BulkApproveRequest) (dto.BulkApproveResponse, error) {
	m.lastPrincipal = principal
	return m.bulk, m.err
}

func (m *mockRegistrationService) MarkAttendance(_ context.Context, principal models.Principal, registrationID uint) (dto.RegistrationResponse, error) {
	m.lastPrincipal, m.lastID = principal, registrationID
	return m.response, m.err
}

func (m *mockRegistrationService) ListByActivity(_ context.Context, principal models.Principal, activityID uint, _ dto.RegistrationListRequest) (dto.RegistrationListResponse, error) {
	m.lastPrincipal, m.lastID = principal, activityID
	return m.list, m.err
}

func newRegistrationApp(svc service.RegistrationService, principal models.Principal) *fiber.App {
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	h := handler.NewRegistrationHandler(svc, logger)
	h.RegisterActivityScoped(app.Group("/api/v1/activities", withPrincipal(principal)))
	h.Register(app.Group("/api/v1/registrations", withPrincipal(principal)))
	return app
}

func TestRegistrationHandler_RegisterSuccess(t *testing.T) {
	svc := &mockRegistrationService{response: dto.RegistrationResponse{ID: 1, ActivityID: 7, StudentID: 42, Status: "cho_duyet"}}
	app := newRegistrationApp(svc, models.Principal{ID: 42, Role: models.RoleStudent})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities/7/registrations", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                     `json:"success"`
		Data    dto.RegistrationResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "cho_duyet", response.Data.Status)
	require.Equal(t, uint(7), svc.lastID)
	require.Equal(t, uint(42), svc.lastPrincipal.ID)
}

func TestRegistrationHandler_RegisterWithoutPrincipal(t *testing.T) {
	svc := &mockRegistrationService{}
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	handler.NewRegistrationHandler(svc, logger).RegisterActivityScoped(app.Group("/api/v1/activities"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities/7/registrations", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRegistrationHandler_InvalidIdentifier(t *testing.T) {
	svc := &mockRegistrationService{}
	app := newRegistrationApp(svc, models.Principal{ID: 1, Role: models.RoleAdmin})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/abc/approve", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRegistrationHandler_DecisionRoutesRequireStaffRole(t *testing.T) {
	svc := &mockRegistrationService{}
	app := newRegistrationApp(svc, models.Principal{ID: 42, Role: models.RoleStudent})

	for _, path := range []string{
		"/api/v1/registrations/5/approve",
		"/api/v1/registrations/5/reject",
		"/api/v1/registrations/5/attendance",
		"/api/v1/registrations/bulk-approve",
	} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode, path)
	}
	require.Zero(t, svc.lastID, "service must not be reached past the role gate")
}

func TestRegistrationHandler_RegisterRejectsStaffRole(t *testing.T) {
	svc := &mockRegistrationService{}
	app := newRegistrationApp(svc, models.Principal{ID: 10, Role: models.RoleTeacher})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities/7/registrations", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Zero(t, svc.lastID)
}

func TestRegistrationHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "forbidden", err: service.ErrForbidden, statusCode: fiber.StatusForbidden},
		{name: "not found", err: service.ErrRegistrationNotFound, statusCode: fiber.StatusNotFound},
		{name: "duplicate", err: service.ErrAlreadyRegistered, statusCode: fiber.StatusConflict},
		{name: "capacity", err: repository.ErrCapacityExceeded, statusCode: fiber.StatusConflict},
		{name: "illegal transition", err: &models.IllegalTransitionError{From: models.RegistrationStatusCancelled, Event: models.EventApprove}, statusCode: fiber.StatusConflict},
		{name: "registration closed", err: service.ErrRegistrationClosed, statusCode: fiber.StatusUnprocessableEntity},
		{name: "activity started", err: service.ErrActivityStarted, statusCode: fiber.StatusUnprocessableEntity},
		{name: "reason required", err: service.ErrReasonRequired, statusCode: fiber.StatusUnprocessableEntity},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockRegistrationService{err: tc.err}
			app := newRegistrationApp(svc, models.Principal{ID: 1, Role: models.RoleAdmin})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/5/approve", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestRegistrationHandler_BulkApprove(t *testing.T) {
	svc := &mockRegistrationService{bulk: dto.BulkApproveResponse{
		Results: []dto.BulkApproveResult{
			{RegistrationID: 1, Success: true, Status: "da_duyet"},
			{RegistrationID: 2, Success: false, Error: "activity capacity exhausted"},
		},
		Approved: 1,
		Failed:   1,
	}}
	app := newRegistrationApp(svc, models.Principal{ID: 1, Role: models.RoleAdmin})

	body, err := json.Marshal(dto.BulkApproveRequest{IDs: []uint{1, 2}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/bulk-approve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "partial failure still returns 200 with per-id results")

	var response struct {
		Data dto.BulkApproveResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Len(t, response.Data.Results, 2)
	require.Equal(t, 1, response.Data.Approved)
	require.Equal(t, 1, response.Data.Failed)
}

func TestRegistrationHandler_ListByActivity(t *testing.T) {
	svc := &mockRegistrationService{list: dto.RegistrationListResponse{
		Items:      []dto.RegistrationResponse{{ID: 1, Status: "cho_duyet"}},
		Pagination: dto.PaginationMeta{Page: 1, PageSize: 20, TotalItems: 1, TotalPages: 1},
	}}
	app := newRegistrationApp(svc, models.Principal{ID: 10, Role: models.RoleTeacher})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities/7/registrations?status=cho_duyet&page=1&page_size=20", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.RegistrationListResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Len(t, response.Data.Items, 1)
	require.Equal(t, int64(1), response.Data.Pagination.TotalItems)
}
