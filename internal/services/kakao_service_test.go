package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKakaoServiceFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "https://app/callback", r.PostForm.Get("redirect_uri"))
		assert.Equal(t, "code-1", r.PostForm.Get("code"))
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "kakao-access"})
	})
	mux.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer kakao-access", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":42,"properties":{"nickname":"Kim"},"kakao_account":{"email":"kim@example.com"}}`))
	})
	mux.HandleFunc("/v1/user/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer kakao-access", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":42}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	kakao := NewKakaoService("client-1", server.URL, server.URL+"/")
	ctx := context.Background()

	token, err := kakao.ExchangeCode(ctx, "code-1", "https://app/callback")
	require.NoError(t, err)
	assert.Equal(t, "kakao-access", token)

	profile, err := kakao.Profile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, &SocialProfile{SocialID: "kakao_42", Name: "Kim", Email: "kim@example.com"}, profile)

	require.NoError(t, kakao.Logout(ctx, token))
}

func TestKakaoServiceRejectsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"this access token does not exist"}`))
	}))
	defer server.Close()

	kakao := NewKakaoService("client-1", server.URL, server.URL)
	ctx := context.Background()

	_, err := kakao.ExchangeCode(ctx, "code-1", "https://app/callback")
	assert.ErrorContains(t, err, "empty access token")

	_, err = kakao.Profile(ctx, "stale")
	assert.ErrorContains(t, err, "unexpected status 401")

	assert.Error(t, kakao.Logout(ctx, "stale"))
}
