package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	GraphEndpoint = "https://graph.microsoft.com/v1.0"
	graphScope    = "https://graph.microsoft.com/.default"
)

// GraphConfig configures the Microsoft Graph sendMail transport (app-only auth).
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// Sender is the mailbox the app sends as.
	Sender   string
	Endpoint string
	TokenURL string
}

type graphAddress struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type graphHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type graphMessage struct {
	Subject string `json:"subject"`
	Body    struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	ToRecipients           []graphAddress `json:"toRecipients"`
	ReplyTo                []graphAddress `json:"replyTo,omitempty"`
	InternetMessageHeaders []graphHeader  `json:"internetMessageHeaders,omitempty"`
}

type graphSendRequest struct {
	Message         graphMessage `json:"message"`
	SaveToSentItems bool         `json:"saveToSentItems"`
}

// GraphTransport sends mail as a Microsoft 365 mailbox.
type GraphTransport struct {
	cfg        GraphConfig
	httpClient *http.Client
}

// NewGraphTransport builds an oauth2 client-credentials HTTP client. base, when
// non-nil, is used for both token and API calls.
func NewGraphTransport(ctx context.Context, cfg GraphConfig, base *http.Client) (*GraphTransport, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("graph: tenant id, client id and client secret are required")
	}
	if cfg.Sender == "" {
		return nil, errors.New("graph: sender mailbox is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = GraphEndpoint
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", url.PathEscape(cfg.TenantID))
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{graphScope},
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	return &GraphTransport{cfg: cfg, httpClient: cc.Client(ctx)}, nil
}

func (t *GraphTransport) Name() string { return TransportGraph }

// Send calls /users/{sender}/sendMail. Graph answers 202 without a message id, so
// the request-id response header is returned instead.
func (t *GraphTransport) Send(ctx context.Context, msg Message) (string, error) {
	var gm graphMessage
	gm.Subject = sanitizeHeaderValue(msg.Subject)
	if msg.IsHTML {
		gm.Body.ContentType = "HTML"
	} else {
		gm.Body.ContentType = "Text"
	}
	gm.Body.Content = msg.Body
	gm.ToRecipients = []graphAddress{graphAddr(msg.To)}
	if msg.ReplyTo != "" {
		gm.ReplyTo = []graphAddress{graphAddr(sanitizeHeaderValue(msg.ReplyTo))}
	}
	for k, v := range msg.Headers {
		// Graph only accepts custom X- headers.
		if strings.HasPrefix(strings.ToLower(k), "x-") {
			gm.InternetMessageHeaders = append(gm.InternetMessageHeaders, graphHeader{Name: k, Value: sanitizeHeaderValue(v)})
		}
	}

	body, err := json.Marshal(graphSendRequest{Message: gm, SaveToSentItems: false})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/users/%s/sendMail", strings.TrimRight(t.cfg.Endpoint, "/"), url.PathEscape(t.cfg.Sender))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("graph: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("graph: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp.Header.Get("request-id"), nil
}

func graphAddr(addr string) graphAddress {
	var a graphAddress
	a.EmailAddress.Address = addr
	return a
}
