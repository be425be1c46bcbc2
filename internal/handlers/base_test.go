package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeloom/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not valid", errors.NewNotValid(nil, "title is required"), http.StatusBadRequest, "title is required"},
		{"bad request", errors.BadRequestf("bad"), http.StatusBadRequest, ""},
		{"unauthorized", errors.Unauthorizedf("invalid credentials"), http.StatusUnauthorized, ""},
		{"forbidden", errors.Forbiddenf("not yours"), http.StatusForbidden, ""},
		{"not found", errors.NotFoundf("article 7"), http.StatusNotFound, ""},
		{"already exists", errors.AlreadyExistsf("connection request"), http.StatusBadRequest, ""},
		{"traced not found", errors.Trace(errors.NotFoundf("user 3")), http.StatusNotFound, ""},
		{"provider", errors.Trace(&services.ProviderError{Err: errors.New("card_declined: secret detail")}), http.StatusBadGateway, "billing provider error"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["message"])
			if tc.message != "" {
				assert.Equal(t, tc.message, body["message"])
			}
			assert.NotContains(t, body["message"], "secret detail")
			assert.NotContains(t, body["message"], "connection refused")
		})
	}
}

func TestParamID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, status := range map[string]int{"/things/12": http.StatusOK, "/things/x": http.StatusBadRequest, "/things/0": http.StatusBadRequest} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
	}
}
