package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"go-gin-event-booking/internal/handler"
	"go-gin-event-booking/internal/service/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var (
	InvalidJSON = `{"invalid": json}`
)

func setupEventTestRouter(t *testing.T) (*gin.Engine, *mocks.EventServiceMock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	mockService := mocks.NewEventServiceMock(t)
	handler.NewEventHandler(mockService).RegisterRoutes(router)
	return router, mockService
}

// create JSON request body
func createJSONRequest(data interface{}) *bytes.Buffer {
	if s, ok := data.(string); ok {
		return bytes.NewBufferString(s)
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

// create HTTP request with JSON body
func createJSONHTTPRequest(method, url string, data interface{}) *http.Request {
	req, err := http.NewRequest(method, url, createJSONRequest(data))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, body *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Bytes(), &out))
	return out
}
