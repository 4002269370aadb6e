// Package paymentprovider реализует клиент платформы Pi: проверку access token
// пользователя и серверные вызовы жизненного цикла платежа.
//
// Каждый вызов делается одной синхронной попыткой без повторов. Неуспешный статус
// возвращается как *UpstreamError, который раскрывается в sentinel-ошибку операции.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Recorder принимает длительность вызовов платформы для метрик.
type Recorder interface {
	ObserveUpstream(op, outcome string, d time.Duration)
}

// Client клиент API платформы Pi.
type Client struct {
	serverKey  string
	apiURL     string
	httpClient *http.Client
	recorder   Recorder
}

// NewClient создаёт клиент платформы. Нулевой timeout оставляет значение транспорта по умолчанию,
// recorder может быть nil.
func NewClient(apiURL, serverKey string, timeout time.Duration, recorder Recorder) *Client {
	return &Client{
		serverKey:  serverKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		recorder:   recorder,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path, authorization string, body any) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
		reader = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) serverAuth() string {
	return "Key " + c.serverKey
}

// call выполняет запрос и декодирует ответ в out (если out не nil).
// Любой сбой оборачивается в UpstreamError с sentinel-ошибкой fail.
func (c *Client) call(ctx context.Context, op, method, path, authorization string, body, out any, fail error, okStatuses ...int) (err error) {
	start := time.Now()
	defer func() {
		if c.recorder == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.recorder.ObserveUpstream(op, outcome, time.Since(start))
	}()

	req, err := c.newRequest(ctx, method, path, authorization, body)
	if err != nil {
		return &UpstreamError{Op: op, Err: fail, Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Op: op, Err: fail, Cause: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if !statusIn(resp.StatusCode, okStatuses) {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fail, Cause: err}
	}
	return nil
}

func statusIn(code int, codes []int) bool {
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}

func paymentPath(paymentID string, action ...string) string {
	p := "/payments/" + url.PathEscape(paymentID)
	for _, a := range action {
		p += "/" + a
	}
	return p
}

// VerifyToken проверяет access token пользователя через GET /me.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) (*UserInfo, error) {
	const op = "paymentprovider.VerifyToken"
	var me UserInfo
	if err := c.call(ctx, op, http.MethodGet, "/me", "Bearer "+accessToken, nil, &me,
		ErrUnauthorized, http.StatusOK); err != nil {
		return nil, err
	}
	return &me, nil
}

// ApprovePayment одобряет платёж со стороны сервера.
func (c *Client) ApprovePayment(ctx context.Context, paymentID string) error {
	const op = "paymentprovider.ApprovePayment"
	return c.call(ctx, op, http.MethodPost, paymentPath(paymentID, "approve"), c.serverAuth(),
		struct{}{}, nil, ErrApprovalFailed, http.StatusOK, http.StatusCreated)
}

// CompletePayment завершает платёж, передавая txid транзакции в блокчейне.
func (c *Client) CompletePayment(ctx context.Context, paymentID, txid string) error {
	const op = "paymentprovider.CompletePayment"
	return c.call(ctx, op, http.MethodPost, paymentPath(paymentID, "complete"), c.serverAuth(),
		completeRequest{TxID: txid}, nil, ErrCompletionFailed, http.StatusOK, http.StatusCreated)
}

// FetchPayment получает детали платежа.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	const op = "paymentprovider.FetchPayment"
	var p Payment
	if err := c.call(ctx, op, http.MethodGet, paymentPath(paymentID), c.serverAuth(), nil, &p,
		ErrFetchFailed, http.StatusOK); err != nil {
		return nil, err
	}
	return &p, nil
}
