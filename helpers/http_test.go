package helpers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/text/encoding/korean"
)

func TestFetchPageSendsBrowserHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	body, err := FetchPage(context.Background(), NewHTTPClient(5*time.Second), server.URL)
	require.NoError(t, err)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ok")

	assert.Contains(t, got.Get("User-Agent"), "Mozilla/5.0")
	assert.NotEmpty(t, got.Get("Referer"))
	assert.NotEmpty(t, got.Get("Accept"))
	assert.Equal(t, "1", got.Get("Upgrade-Insecure-Requests"))
}

func TestFetchPageConvertsToUTF8(t *testing.T) {
	original := "한국어 텍스트"
	encoded, err := korean.EUCKR.NewEncoder().String(original)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		w.Write([]byte(encoded))
	}))
	defer server.Close()

	body, err := FetchPage(context.Background(), NewHTTPClient(5*time.Second), server.URL)
	require.NoError(t, err)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestFetchPageUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := FetchPage(context.Background(), NewHTTPClient(5*time.Second), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")
	assert.False(t, IsRateLimited(err))
}

func TestFetchPageRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := FetchPage(context.Background(), NewHTTPClient(5*time.Second), server.URL)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Contains(t, err.Error(), "retry after 120")
}

func TestFetchPageContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(time.Second)
		w.Write([]byte("too late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := FetchPage(ctx, NewHTTPClient(5*time.Second), server.URL)
	assert.Error(t, err)
}

func TestIsRateLimited(t *testing.T) {
	assert.False(t, IsRateLimited(nil))
	assert.False(t, IsRateLimited(errors.New("connection refused")))
	assert.True(t, IsRateLimited(errors.New("rate limited; retry after 30")))
}

func TestFirstSegment(t *testing.T) {
	assert.Equal(t, "Big Auction", FirstSegment("Big Auction | k-bid", "|"))
	assert.Equal(t, "Big Auction", FirstSegment("  Big Auction  ", "|"))
	assert.Equal(t, "", FirstSegment("", "|"))
}

func TestWindow(t *testing.T) {
	text := "abcdefghij"
	assert.Equal(t, "cdefg", Window(text, 4, 5, 2))
	assert.Equal(t, text, Window(text, 4, 5, 100))
	assert.Equal(t, "ab", Window(text, 0, 1, 1))
	assert.Equal(t, "j", Window(text, 9, 10, 0))
}

func TestWindowKeepsRunesWhole(t *testing.T) {
	text := "가격 15% 수수료"
	start := strings.Index(text, "15")
	end := start + len("15%")

	for radius := 0; radius <= len(text); radius++ {
		window := Window(text, start, end, radius)
		assert.True(t, utf8.ValidString(window), "radius %d: %q", radius, window)
		assert.Contains(t, window, "15%")
	}
}
