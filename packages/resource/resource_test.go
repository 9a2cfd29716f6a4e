package resource

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajeshsegu/resource-go/packages/dispatch"
)

// sendAndWait dispatches r on a private completion loop and blocks until
// the outcome is pollable.
func sendAndWait(t *testing.T, r *Resource) {
	t.Helper()
	loop := dispatch.NewLoop()
	t.Cleanup(loop.Stop)

	r.CompleteOn(loop).Send()
	require.Eventually(t, r.IsComplete, 5*time.Second, 2*time.Millisecond)
}

func jsonOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"ok":true}`)
}

func TestFactories(t *testing.T) {
	tests := []struct {
		method  string
		factory func(string) *Resource
	}{
		{http.MethodGet, Get},
		{http.MethodPost, Post},
		{http.MethodPut, Put},
		{http.MethodDelete, Delete},
		{http.MethodHead, Head},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			r := tt.factory("http://example.com/users")
			assert.Equal(t, tt.method, r.method)
			assert.Equal(t, "http://example.com/users", r.url)
			assert.Equal(t, DefaultTimeout, r.timeout)
			assert.Equal(t, dispatch.PriorityNormal, r.priority)
			assert.False(t, r.IsComplete())
		})
	}
}

func TestChainingReturnsSameInstance(t *testing.T) {
	r := Post("http://example.com")
	chained := r.
		Basic("joe", "secret").
		Header("X-Token", "abc").
		Param("page", "1").
		Params(map[string]string{"sort": "asc"}).
		Form("name", "joe").
		Image([]byte{1}, "avatar").
		Timeout(5 * time.Second).
		Priority(dispatch.PriorityHigh).
		Log("configured").
		Response(func(bool, map[string]any) {})

	assert.Same(t, r, chained)
}

func TestParamAndParamsMerge(t *testing.T) {
	r := Get("http://example.com").
		Param("a", "1").
		Params(map[string]string{"b": "2", "c": "3"}).
		Param("b", "override")

	assert.Equal(t, map[string]string{"a": "1", "b": "override", "c": "3"}, r.params)
}

func TestImageEmptyIsIgnored(t *testing.T) {
	r := Post("http://example.com").
		Image(nil, "a").
		Image([]byte{}, "b")

	assert.Empty(t, r.parts)
}

func TestGetQueryStringNoBody(t *testing.T) {
	var gotQuery string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.RawQuery
		gotBody, _ = io.ReadAll(req.Body)
		jsonOK(w, req)
	}))
	defer srv.Close()

	r := Get(srv.URL).Params(map[string]string{"a": "1", "b": "x y"})
	sendAndWait(t, r)

	assert.Contains(t, gotQuery, "a=1")
	assert.Contains(t, gotQuery, "b=x+y")
	assert.Empty(t, gotBody)
	assert.True(t, r.IsSuccess())
}

func TestPostFormBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))

		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, "name=joe", string(body))

		jsonOK(w, req)
	}))
	defer srv.Close()

	r := Post(srv.URL).Form("name", "joe")
	sendAndWait(t, r)
	assert.True(t, r.IsSuccess())
}

func TestPostMultipart(t *testing.T) {
	image := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.True(t, strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data"))

		require.NoError(t, req.ParseMultipartForm(1<<20))
		assert.Equal(t, "joe", req.FormValue("name"))

		file, header, err := req.FormFile("avatar")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.True(t, strings.HasSuffix(header.Filename, ".png"))

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, image, data)

		jsonOK(w, req)
	}))
	defer srv.Close()

	r := Post(srv.URL).
		Form("name", "joe").
		Image(image, "avatar")
	sendAndWait(t, r)
	assert.True(t, r.IsSuccess())
}

func TestPostImageOnlyHasNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		assert.Empty(t, body)
		assert.Empty(t, req.Header.Get("Content-Type"))
		jsonOK(w, req)
	}))
	defer srv.Close()

	r := Post(srv.URL).Image([]byte{1, 2, 3}, "avatar")
	sendAndWait(t, r)
	assert.True(t, r.IsSuccess())
}

func TestQueryParamsAppendedForPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "1", req.URL.Query().Get("page"))

		body, _ := io.ReadAll(req.Body)
		assert.Equal(t, "name=joe", string(body))

		jsonOK(w, req)
	}))
	defer srv.Close()

	r := Post(srv.URL).
		Param("page", "1").
		Form("name", "joe")
	sendAndWait(t, r)
	assert.True(t, r.IsSuccess())
}

func TestStatusCodeRecordedOnCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	r := Get(srv.URL)
	assert.Zero(t, r.StatusCode())

	sendAndWait(t, r)

	assert.Equal(t, http.StatusNotFound, r.StatusCode())
	assert.True(t, r.IsFailure())
}

func TestStatusCodeOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(jsonOK))
	defer srv.Close()

	r := Get(srv.URL)
	sendAndWait(t, r)

	assert.Equal(t, http.StatusOK, r.StatusCode())
}

func TestStatusCodeZeroWithoutResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(jsonOK))
	srv.Close() // nothing listening anymore

	r := Get(srv.URL)
	sendAndWait(t, r)

	assert.Zero(t, r.StatusCode())
	assert.True(t, r.IsFailure())
}

func TestBasicAuthHeader(t *testing.T) {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("joe:secret"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, want, req.Header.Get("Authorization"))
		jsonOK(w, req)
	}))
	defer srv.Close()

	r := Get(srv.URL).Basic("joe", "secret")
	sendAndWait(t, r)
	assert.True(t, r.IsSuccess())
}

func TestExplicitAuthorizationHeaderWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer token-123", req.Header.Get("Authorization"))
		jsonOK(w, req)
	}))
	defer srv.Close()

	r := Get(srv.URL).
		Basic("joe", "secret").
		Header("Authorization", "Bearer token-123")
	sendAndWait(t, r)
	assert.True(t, r.IsSuccess())
}

func TestCustomHeadersOnTheWire(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "abc", req.Header.Get("X-Token"))
		assert.Equal(t, "gzip", req.Header.Get("X-Encoding-Hint"))
		jsonOK(w, req)
	}))
	defer srv.Close()

	r := Get(srv.URL).
		Header("X-Token", "abc").
		Header("X-Encoding-Hint", "gzip")
	sendAndWait(t, r)
	assert.True(t, r.IsSuccess())
}

func TestHeadRequestOnTheWire(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotMethod = req.Method
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := Head(srv.URL).Form("ignored", "x")
	sendAndWait(t, r)

	assert.Equal(t, http.MethodHead, gotMethod)
	// HEAD responses carry no body, so decoding cannot succeed.
	assert.True(t, r.IsFailure())
}

func TestValuesSurviveURLEncoding(t *testing.T) {
	params := map[string]string{"q": "a b&c=d", "page": "1"}

	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = req.URL.Query()
		jsonOK(w, req)
	}))
	defer srv.Close()

	r := Get(srv.URL).Params(params)
	sendAndWait(t, r)

	for name, value := range params {
		assert.Equal(t, value, got.Get(name))
	}
}
