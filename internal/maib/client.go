package maib

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Merchant handler commands.
const (
	cmdRegisterSMS = "v"
	cmdRegisterDMS = "a"
	cmdResult      = "c"
	cmdCompleteDMS = "t"
	cmdReverse     = "r"
	cmdCloseDay    = "b"
)

// Client talks to the MAIB merchant handler. Every call is a single
// request; retrying is left to the caller.
type Client interface {
	RegisterCaptureTransaction(ctx context.Context, req TransactionRequest) (string, error)
	RegisterAuthorizationTransaction(ctx context.Context, req TransactionRequest) (string, error)
	QueryTransactionResult(ctx context.Context, transactionID, clientIP string) (*TransactionResult, error)
	CompleteAuthorization(ctx context.Context, transactionID string, req TransactionRequest) (*TransactionResult, error)
	ReverseTransaction(ctx context.Context, transactionID string, amount decimal.Decimal) (*TransactionResult, error)
	CloseDay(ctx context.Context) (*TransactionResult, error)
}

type TransactionRequest struct {
	Amount      decimal.Decimal
	Currency    int
	ClientIP    string
	Description string
	Language    string
}

// TransactionResult is the parsed reply of a status-bearing command.
type TransactionResult struct {
	Result     string
	ResultCode string
	Fields     map[string]string
	Raw        string
}

type client struct {
	merchantURL string
	httpClient  *http.Client
	log         *zap.Logger
}

func NewClient(merchantURL string, httpClient *http.Client, log *zap.Logger) Client {
	return &client{
		merchantURL: merchantURL,
		httpClient:  httpClient,
		log:         log,
	}
}

func (c *client) RegisterCaptureTransaction(ctx context.Context, req TransactionRequest) (string, error) {
	return c.register(ctx, cmdRegisterSMS, "SMS", req)
}

func (c *client) RegisterAuthorizationTransaction(ctx context.Context, req TransactionRequest) (string, error) {
	return c.register(ctx, cmdRegisterDMS, "DMS", req)
}

func (c *client) register(ctx context.Context, command, msgType string, req TransactionRequest) (string, error) {
	form := transactionForm(command, req)
	form.Set("msg_type", msgType)

	fields, _, err := c.do(ctx, "register "+msgType, form)
	if err != nil {
		return "", err
	}

	id := fields[FieldTransactionID]
	if id == "" {
		c.log.Error("MAIB response without transaction id", zap.String("command", command))
		return "", ErrMissingTransactionID
	}
	return id, nil
}

func (c *client) QueryTransactionResult(ctx context.Context, transactionID, clientIP string) (*TransactionResult, error) {
	form := url.Values{}
	form.Set("command", cmdResult)
	form.Set(FieldTransID, transactionID)
	form.Set("client_ip_addr", clientIP)

	fields, raw, err := c.do(ctx, "transaction result", form)
	if err != nil {
		return nil, err
	}
	return newResult(fields, raw), nil
}

func (c *client) CompleteAuthorization(ctx context.Context, transactionID string, req TransactionRequest) (*TransactionResult, error) {
	form := transactionForm(cmdCompleteDMS, req)
	form.Set(FieldTransID, transactionID)
	form.Set("msg_type", "DMS")

	return c.statusCommand(ctx, "complete DMS", form)
}

func (c *client) ReverseTransaction(ctx context.Context, transactionID string, amount decimal.Decimal) (*TransactionResult, error) {
	form := url.Values{}
	form.Set("command", cmdReverse)
	form.Set(FieldTransID, transactionID)
	form.Set("amount", MinorUnits(amount))

	return c.statusCommand(ctx, "reverse", form)
}

func (c *client) CloseDay(ctx context.Context) (*TransactionResult, error) {
	form := url.Values{}
	form.Set("command", cmdCloseDay)

	return c.statusCommand(ctx, "close day", form)
}

func (c *client) statusCommand(ctx context.Context, op string, form url.Values) (*TransactionResult, error) {
	fields, raw, err := c.do(ctx, op, form)
	if err != nil {
		return nil, err
	}
	if fields[FieldResult] == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingResult)
	}
	return newResult(fields, raw), nil
}

func (c *client) do(ctx context.Context, op string, form url.Values) (map[string]string, string, error) {
	log := c.log.With(zap.String("op", op), zap.String("command", form.Get("command")))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.merchantURL, strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("MAIB request failed", zap.Error(err))
		return nil, "", fmt.Errorf("maib %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		return nil, "", fmt.Errorf("failed to read maib response: %w", err)
	}
	raw := string(body)

	if resp.StatusCode != http.StatusOK {
		log.Error("MAIB returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("response", raw),
		)
		return nil, raw, &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(raw)}
	}

	fields := parseResponse(raw)
	if msg, ok := fields[FieldError]; ok {
		log.Error("MAIB returned error", zap.String("error", msg))
		return nil, raw, &GatewayError{Op: op, Message: msg}
	}

	return fields, raw, nil
}

func transactionForm(command string, req TransactionRequest) url.Values {
	form := url.Values{}
	form.Set("command", command)
	form.Set("amount", MinorUnits(req.Amount))
	form.Set("currency", strconv.Itoa(req.Currency))
	form.Set("client_ip_addr", req.ClientIP)
	form.Set("description", req.Description)
	form.Set("language", req.Language)
	return form
}

// parseResponse reads the "KEY: value" lines of a merchant handler reply.
// A bare "error" prefix without a colon is kept as an error field too.
func parseResponse(body string) map[string]string {
	fields := make(map[string]string)

	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			if strings.HasPrefix(strings.ToLower(line), FieldError) {
				fields[FieldError] = strings.TrimSpace(line[len(FieldError):])
			}
			continue
		}

		key = strings.TrimSpace(key)
		if strings.EqualFold(key, FieldError) {
			key = FieldError
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields
}

func newResult(fields map[string]string, raw string) *TransactionResult {
	return &TransactionResult{
		Result:     fields[FieldResult],
		ResultCode: fields[FieldResultCode],
		Fields:     fields,
		Raw:        raw,
	}
}
