package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Envelope is the JSON shape of every API response
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    json.RawMessage `json:"meta,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Serve sends one request through h. body is JSON-encoded unless it is already a string;
// headers are key, value pairs.
func Serve(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	require.Zero(t, len(headers)%2, "headers must be key, value pairs")

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// DecodeEnvelope parses a response body
func DecodeEnvelope(t *testing.T, body []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

// DecodeData requires a success response and unmarshals its data into T
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	env := DecodeEnvelope(t, w.Body.Bytes())
	require.True(t, env.Success, w.Body.String())

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), w.Body.String())
	return out
}

// ErrorCode requires an error response and returns its code
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := DecodeEnvelope(t, w.Body.Bytes())
	require.False(t, env.Success, w.Body.String())
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}

// TestContext is a gin context for calling one handler directly
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

func NewTestContext(t *testing.T) *TestContext {
	t.Helper()
	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

func (tc *TestContext) SetRequestID(id string) { tc.Context.Set("request_id", id) }

func (tc *TestContext) SetActorID(id string) { tc.Context.Set("actor_id", id) }

func (tc *TestContext) SetHeader(key, value string) { tc.Context.Request.Header.Set(key, value) }

func (tc *TestContext) ResponseBody() []byte { return tc.Recorder.Body.Bytes() }

func (tc *TestContext) ResponseCode() int { return tc.Recorder.Code }

// JSONResponse parses the response body into a generic map
func JSONResponse(t *testing.T, tc *TestContext) map[string]any {
	t.Helper()
	return JSONResponseAs[map[string]any](t, tc)
}

// JSONResponseAs parses the response body into T
func JSONResponseAs[T any](t *testing.T, tc *TestContext) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), &out), string(tc.ResponseBody()))
	return out
}

// AssertSuccessResponse requires a success envelope without an error
func AssertSuccessResponse(t *testing.T, tc *TestContext) {
	t.Helper()
	env := DecodeEnvelope(t, tc.ResponseBody())
	require.True(t, env.Success, string(tc.ResponseBody()))
	require.Nil(t, env.Error)
}

// AssertErrorResponse requires an error envelope carrying code
func AssertErrorResponse(t *testing.T, tc *TestContext, code string) {
	t.Helper()
	require.Equal(t, code, ErrorCode(t, tc.Recorder))
}
