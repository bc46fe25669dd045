package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, fn func(c *gin.Context)) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestSuccess(t *testing.T) {
	status, body := render(t, func(c *gin.Context) { Success(c, gin.H{"id": 1}) })

	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, CodeOK, body["code"])
	assert.Equal(t, "success", body["message"])
	assert.EqualValues(t, 1, body["data"].(map[string]interface{})["id"])
}

func TestErrorsAlwaysUseHTTP200(t *testing.T) {
	cases := []struct {
		fn   func(c *gin.Context)
		code int
	}{
		{func(c *gin.Context) { BadRequest(c, "x") }, http.StatusBadRequest},
		{func(c *gin.Context) { Unauthorized(c, "x") }, http.StatusUnauthorized},
		{func(c *gin.Context) { Forbidden(c, "x") }, http.StatusForbidden},
		{func(c *gin.Context) { NotFound(c, "x") }, http.StatusNotFound},
		{func(c *gin.Context) { Conflict(c, "x", nil) }, http.StatusConflict},
		{func(c *gin.Context) { TooManyRequests(c, "x") }, http.StatusTooManyRequests},
		{func(c *gin.Context) { InternalError(c, "x") }, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, body := render(t, tc.fn)
		assert.Equal(t, http.StatusOK, status)
		assert.EqualValues(t, tc.code, body["code"])
		_, hasData := body["data"]
		assert.False(t, hasData)
	}
}

func TestInvalidCarriesField(t *testing.T) {
	_, body := render(t, func(c *gin.Context) { Invalid(c, "title", "标题不能为空") })

	assert.EqualValues(t, http.StatusBadRequest, body["code"])
	assert.Equal(t, "title", body["data"].(map[string]interface{})["field"])
}

func TestForbiddenWithData_KeepsEmptyList(t *testing.T) {
	_, body := render(t, func(c *gin.Context) { ForbiddenWithData(c, "x", []int{}) })

	assert.EqualValues(t, http.StatusForbidden, body["code"])
	assert.Equal(t, []interface{}{}, body["data"])
}
