package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Daysof1/proyecto/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	cases := map[services.Kind]int{
		services.KindNotFound:           http.StatusNotFound,
		services.KindParentNotFound:     http.StatusNotFound,
		services.KindConflict:           http.StatusConflict,
		services.KindTimeout:            http.StatusServiceUnavailable,
		services.KindDuplicateName:      http.StatusBadRequest,
		services.KindParentInactive:     http.StatusBadRequest,
		services.KindHierarchyMismatch:  http.StatusBadRequest,
		services.KindInvalidPrice:       http.StatusBadRequest,
		services.KindInvalidStock:       http.StatusBadRequest,
		services.KindInsufficientStock:  http.StatusBadRequest,
		services.KindHasDependents:      http.StatusBadRequest,
		services.KindProductInactive:    http.StatusBadRequest,
		services.KindProductUnavailable: http.StatusBadRequest,
		services.KindEmptyCart:          http.StatusBadRequest,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), "kind %s", kind)
	}
}

func errorResponse(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	respondError(c, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestRespondErrorDomain(t *testing.T) {
	productID := uuid.New()
	code, body := errorResponse(t, &services.Error{
		Kind:      services.KindInsufficientStock,
		Message:   "insufficient stock",
		ProductID: productID,
		Available: 4,
	})

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "insufficient_stock", body["kind"])
	assert.Equal(t, false, body["retryable"])
	assert.Equal(t, productID.String(), body["product_id"])
	assert.Equal(t, float64(4), body["available"])
}

func TestRespondErrorHidesInternals(t *testing.T) {
	code, body := errorResponse(t, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, body["error"], "pq")
}

func TestAuthRoundtrip(t *testing.T) {
	h := &Handler{JWTSecret: "test-secret"}
	userID := uuid.New().String()

	token, err := h.generateToken(userID, "admin")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/whoami", h.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "role": c.GetString("role")})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, userID, body["user_id"])
	assert.Equal(t, "admin", body["role"])
}

func TestAuthRejections(t *testing.T) {
	h := &Handler{JWTSecret: "test-secret"}
	router := gin.New()
	router.GET("/whoami", h.AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := &Handler{JWTSecret: "other-secret"}
		token, err := other.generateToken(uuid.New().String(), "customer")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRoleRequired(t *testing.T) {
	h := &Handler{JWTSecret: "test-secret"}
	router := gin.New()
	router.GET("/admin", h.AuthRequired(), h.RoleRequired("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	token, err := h.generateToken(uuid.New().String(), "customer")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
