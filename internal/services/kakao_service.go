package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SocialProfile is the identity returned by a login provider.
type SocialProfile struct {
	SocialID string
	Name     string
	Email    string
}

// SocialProvider performs the OAuth exchange and logout against a login provider.
type SocialProvider interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
	Profile(ctx context.Context, accessToken string) (*SocialProfile, error)
	Logout(ctx context.Context, accessToken string) error
}

// KakaoService talks to the Kakao OAuth and user APIs.
type KakaoService struct {
	clientID string
	authURL  string
	apiURL   string
	client   *http.Client
}

// NewKakaoService creates a new KakaoService.
func NewKakaoService(clientID, authURL, apiURL string) *KakaoService {
	return &KakaoService{
		clientID: clientID,
		authURL:  strings.TrimRight(authURL, "/"),
		apiURL:   strings.TrimRight(apiURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type kakaoTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type kakaoUserResponse struct {
	ID         int64 `json:"id"`
	Properties struct {
		Nickname string `json:"nickname"`
	} `json:"properties"`
	KakaoAccount struct {
		Email string `json:"email"`
	} `json:"kakao_account"`
}

// ExchangeCode trades an authorization code for an access token.
func (s *KakaoService) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {s.clientID},
		"redirect_uri": {redirectURI},
		"code":         {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	var resp kakaoTokenResponse
	if err := s.do(req, &resp); err != nil {
		return "", fmt.Errorf("kakao token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("kakao token: empty access token")
	}
	return resp.AccessToken, nil
}

// Profile fetches the user behind accessToken.
func (s *KakaoService) Profile(ctx context.Context, accessToken string) (*SocialProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/v2/user/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var resp kakaoUserResponse
	if err := s.do(req, &resp); err != nil {
		return nil, fmt.Errorf("kakao profile: %w", err)
	}

	return &SocialProfile{
		SocialID: "kakao_" + strconv.FormatInt(resp.ID, 10),
		Name:     resp.Properties.Nickname,
		Email:    resp.KakaoAccount.Email,
	}, nil
}

// Logout expires accessToken at Kakao.
func (s *KakaoService) Logout(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/v1/user/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	if err := s.do(req, nil); err != nil {
		return fmt.Errorf("kakao logout: %w", err)
	}
	return nil
}

func (s *KakaoService) do(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Kakao] %s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(body))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
