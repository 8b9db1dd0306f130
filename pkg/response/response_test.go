package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/charlesng35/scribekeys/pkg/errors"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	return ctx, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSuccessEnvelopes(t *testing.T) {
	ctx, rec := testContext()
	Success(ctx, http.StatusCreated, gin.H{"shortcut": "ctrl+shift+w"})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode(t, rec)
	require.True(t, resp.Success)
	require.Nil(t, resp.Error)
	require.Equal(t, map[string]any{"shortcut": "ctrl+shift+w"}, resp.Data)

	ctx, rec = testContext()
	SuccessWithMeta(ctx, http.StatusOK, []string{"a", "b"}, NewMeta(1, 10, 20))
	require.Equal(t, &Meta{Page: 1, PerPage: 10, Total: 20, TotalPages: 2}, decode(t, rec).Meta)

	ctx, rec = testContext()
	Acknowledge(ctx)
	require.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestNewMetaComputesPages(t *testing.T) {
	require.Equal(t, 3, NewMeta(2, 20, 41).TotalPages)
	require.Zero(t, NewMeta(1, 0, 10).TotalPages)
}

func TestErrorUsesAppErrorStatusAndCode(t *testing.T) {
	ctx, rec := testContext()
	Error(ctx, appErrors.NewForbidden("platinum tier required"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	resp := decode(t, rec)
	require.False(t, resp.Success)
	require.Equal(t, &ErrorInfo{Code: "FORBIDDEN", Message: "platinum tier required"}, resp.Error)
	require.Empty(t, ctx.Errors)
}

func TestErrorHidesServerFailureDetails(t *testing.T) {
	ctx, rec := testContext()
	cause := errors.New("dial tcp: refused")
	Error(ctx, cause)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	require.Equal(t, appErrors.ErrInternalServer.Code, resp.Error.Code)
	require.Equal(t, appErrors.ErrInternalServer.Message, resp.Error.Message)
	require.NotContains(t, rec.Body.String(), "dial tcp")

	require.Len(t, ctx.Errors, 1)
	require.ErrorIs(t, ctx.Errors[0], cause)
}

func TestErrorWithNil(t *testing.T) {
	ctx, rec := testContext()
	Error(ctx, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
