package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/randsearch/internal/logging"
)

var errSentinel = stderrors.New("sentinel")

func TestErrorString(t *testing.T) {
	err := Wrap(errSentinel, "starting search").WithOperation("start").WithComponent("server")
	assert.Equal(t, "server: start: starting search: sentinel", err.Error())
	assert.Equal(t, "plain", New("plain").Error())
	assert.Equal(t, "n=3", Errorf("n=%d", 3).Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, Wrapf(nil, "x %d", 1))
}

func TestChain(t *testing.T) {
	inner := Wrapf(errSentinel, "search %s", "s1")
	outer := fmt.Errorf("rpc: %w", Wrap(inner, "status"))

	assert.True(t, Is(outer, errSentinel))
	var target *Error
	require.True(t, As(outer, &target))
	assert.Equal(t, "status", target.Message)
	assert.Equal(t, inner, Unwrap(target))
	require.NotEmpty(t, target.Stack)
	assert.Contains(t, target.Stack[0], "TestChain")
}

func TestStackTrace(t *testing.T) {
	err := New("boom")
	require.NotEmpty(t, err.StackTrace())
	assert.Contains(t, err.StackTrace()[0], "TestStackTrace")
	for _, frame := range err.StackTrace() {
		assert.NotContains(t, frame, "internal/errors/errors.go")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.InfoLevel, &buf)

	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("objective exploded")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/search", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "objective exploded")
	assert.Contains(t, buf.String(), "Recovered from panic")
}

func TestErrorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.InfoLevel, &buf)

	h := ErrorHandler(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "bad") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/good", nil))
	assert.Empty(t, buf.String())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Contains(t, buf.String(), `"status":400`)
}
