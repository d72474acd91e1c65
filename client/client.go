package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrNotFound = errors.New("not found")

type Client struct {
	http.Client
	Addr string
}

type Article struct {
	ArticleID string `json:"article_id"`
	Status    int    `json:"status"`
	Name      string `json:"name"`
	Body      string `json:"body"`
}

// NewArticle holds the optional fields of POST /article.
type NewArticle struct {
	Status *int    `json:"status,omitempty"`
	Name   *string `json:"name,omitempty"`
	Body   *string `json:"body,omitempty"`
}

func (c *Client) Healthz(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil)

	return err
}

func (c *Client) GetArticle(ctx context.Context, id string) (*Article, error) {
	body, err := c.do(ctx, http.MethodGet, "/article/"+id, nil)
	if err != nil {
		return nil, err
	}

	var article Article
	if err = json.Unmarshal(body, &article); err != nil {
		return nil, fmt.Errorf("decode article: %w", err)
	}

	return &article, nil
}

// CreateArticle posts a new article; a nil in sends an empty body.
func (c *Client) CreateArticle(ctx context.Context, in *NewArticle) error {
	var payload io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	_, err := c.do(ctx, http.MethodPost, "/article", payload)

	return err
}

func (c *Client) ListArticles(ctx context.Context) ([]Article, error) {
	body, err := c.do(ctx, http.MethodGet, "/articles", nil)
	if err != nil {
		return nil, err
	}

	var articles []Article
	if err = json.Unmarshal(body, &articles); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}

	return articles, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.Addr+path, payload)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	return body, nil
}
