package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/domain/reaction"
)

// API is the part of the ClassHub HTTP API the client uses
type API interface {
	React(ctx context.Context, postID, userID string, isLike bool) (reaction.State, error)
	GetPost(ctx context.Context, postID string) (*dto.PostResponse, error)
	ListComments(ctx context.Context, postID string) ([]dto.CommentResponse, error)
}

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Code       dto.ErrorCode
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("classhub: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("classhub: %d: %s", e.StatusCode, e.Message)
}

// HTTPClient talks to the API over HTTP with a bearer token
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures an HTTPClient
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// WithToken sets the initial access token
func WithToken(token string) Option {
	return func(h *HTTPClient) { h.token = token }
}

// NewHTTPClient creates a client for the API rooted at baseURL, e.g. "http://localhost:8080/api"
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	h := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetToken replaces the access token, e.g. after a refresh
func (h *HTTPClient) SetToken(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

// Login exchanges credentials for a session and keeps the access token
func (h *HTTPClient) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var env struct {
		Data dto.AuthResponse `json:"data"`
	}
	if err := h.do(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{Email: email, Password: password}, &env); err != nil {
		return nil, err
	}
	h.SetToken(env.Data.Token.AccessToken)
	return &env.Data, nil
}

// React sends one like or dislike click
func (h *HTTPClient) React(ctx context.Context, postID, userID string, isLike bool) (reaction.State, error) {
	var resp dto.ReactionResponse
	body := dto.ReactionRequest{UserID: userID, IsLike: &isLike}
	if err := h.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/like", body, &resp); err != nil {
		return reaction.State{}, err
	}
	return reaction.State{
		Counts:      reaction.Counts{Likes: resp.Likes, Dislikes: resp.Dislikes},
		Disposition: resp.UserLike,
	}, nil
}

// GetPost loads one post with the caller's reaction
func (h *HTTPClient) GetPost(ctx context.Context, postID string) (*dto.PostResponse, error) {
	var env struct {
		Data dto.PostResponse `json:"data"`
	}
	if err := h.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID), nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// ListComments loads the comment tree of a post
func (h *HTTPClient) ListComments(ctx context.Context, postID string) ([]dto.CommentResponse, error) {
	var env struct {
		Data []dto.CommentResponse `json:"data"`
	}
	if err := h.do(ctx, http.MethodGet, "/comments?postId="+url.QueryEscape(postID), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (h *HTTPClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	h.mu.RLock()
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	h.mu.RUnlock()

	resp, err := h.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp dto.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != nil {
			apiErr.Code = errResp.Error.Code
			apiErr.Message = errResp.Error.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
