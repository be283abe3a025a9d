package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"floorplan/internal/floorplan/models"
)

// ============================================================
// Table Management Client
// ============================================================

const basePath = "/api/v1/restaurant/table-management"

// APIError ответ сервера с кодом не 2xx или success=false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("table api: status %d", e.Status)
	}
	return fmt.Sprintf("table api: status %d: %s", e.Status, e.Message)
}

// IsNotFound сообщает, что сервер ответил 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	org     string
	http    *http.Client
}

// New создает клиент. Пустая организация не передается, сервер подставит default.
func New(baseURL, org string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		org:     org,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Filter фильтр списка столов.
type Filter struct {
	Section string
	Status  models.Status
}

// List возвращает столы и сводку.
func (c *Client) List(ctx context.Context, f Filter) (*models.TableList, error) {
	q := url.Values{}
	if f.Section != "" {
		q.Set("section", f.Section)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	path := basePath
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var list models.TableList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListTables загружает полный список столов в порядке отрисовки.
func (c *Client) ListTables(ctx context.Context) ([]models.Table, error) {
	list, err := c.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return list.Tables, nil
}

func (c *Client) Get(ctx context.Context, id string) (*models.Table, error) {
	var t models.Table
	if err := c.do(ctx, http.MethodGet, basePath+"/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTable создает стол; index >= 0 ставит его на эту позицию в порядке отрисовки.
func (c *Client) CreateTable(ctx context.Context, t models.Table, index int) (*models.Table, error) {
	path := basePath
	if index >= 0 {
		path += "?index=" + strconv.Itoa(index)
	}
	var created models.Table
	if err := c.do(ctx, http.MethodPost, path, t, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateTable(ctx context.Context, id string, patch models.TablePatch) (*models.Table, error) {
	var updated models.Table
	if err := c.do(ctx, http.MethodPatch, basePath+"/"+url.PathEscape(id), patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteTable(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, basePath+"/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Combine(ctx context.Context, ids []string) (*models.CombineResult, error) {
	var res models.CombineResult
	if err := c.do(ctx, http.MethodPost, basePath+"/combine", models.CombineRequest{TableIDs: ids}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Split(ctx context.Context, group string) error {
	return c.do(ctx, http.MethodPost, basePath+"/split", models.SplitRequest{GroupID: group}, nil)
}

// ============================================================
// Transport
// ============================================================

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.org != "" {
		req.Header.Set("X-Organization-ID", c.org)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode/100 != 2 {
			return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode/100 != 2 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode data: %w", err)
		}
	}
	return nil
}
