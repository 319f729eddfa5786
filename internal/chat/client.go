// Package chat is a Go client for the messaging API. It keeps the device key
// pair through e2ee.KeyManager and encrypts for friends that published a key.
package chat

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pickYourSocksAPI/internal/e2ee"
	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/types/message"
	"pickYourSocksAPI/internal/types/profile"
)

const (
	SentPlaceholder       = "Encrypted Sent Message"
	DecryptErrorMessage   = "[Decryption Error]"
	defaultRequestTimeout = 10 * time.Second
)

// APIError is a non-2xx response carrying the server's {"error": ...} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	token   string
	userID  uuid.UUID
	http    *http.Client
	keys    *e2ee.KeyManager
}

// NewClient talks to baseURL (".../api/v1") as userID holding token.
func NewClient(baseURL, token string, userID uuid.UUID, store e2ee.KeyStore) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		userID:  userID,
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
	c.keys = e2ee.NewKeyManager(store, c)
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// PublishPublicKey uploads this device's public key to the caller's profile.
func (c *Client) PublishPublicKey(ctx context.Context, userID uuid.UUID, publicKey string) error {
	return c.do(ctx, http.MethodPut, "/profile/public-key", profile.SetPublicKeyRequest{PublicKey: publicKey}, nil)
}

// EnsureKeys generates and publishes a key pair on first use.
func (c *Client) EnsureKeys(ctx context.Context) (string, error) {
	return c.keys.EnsureKeys(ctx, c.userID)
}

// PublicKey returns the friend's published key, or "" when they have none.
func (c *Client) PublicKey(ctx context.Context, friendID uuid.UUID) (string, error) {
	var resp profile.PublicKeyResponse
	if err := c.do(ctx, http.MethodGet, "/profiles/"+friendID.String()+"/public-key", nil, &resp); err != nil {
		return "", err
	}
	if resp.PublicKey == nil {
		return "", nil
	}
	return *resp.PublicKey, nil
}

// Send encrypts text for friendID when they published a key and sends plaintext otherwise.
func (c *Client) Send(ctx context.Context, friendID uuid.UUID, text string) (*message.Message, error) {
	req := message.SendMessageRequest{ReceiverID: friendID.String(), Content: text}

	pub, err := c.PublicKey(ctx, friendID)
	var apiErr *APIError
	switch {
	case err == nil && pub != "":
		cipher, err := e2ee.Encrypt(text, pub)
		if err != nil {
			return nil, err
		}
		req.Content = cipher
		req.IsE2EE = true
	case err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound):
		return nil, err
	}

	var out message.Message
	if err := c.do(ctx, http.MethodPost, "/messages", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Conversation lists the thread with friendID and replaces ciphertext with readable content.
func (c *Client) Conversation(ctx context.Context, friendID uuid.UUID, limit int) ([]*message.Message, error) {
	path := "/messages/" + url.PathEscape(friendID.String())
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var msgs []*message.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}

	for _, m := range msgs {
		if !m.IsE2EE {
			continue
		}
		if m.SenderID == c.userID {
			m.Content = SentPlaceholder
			continue
		}
		plain, err := c.keys.Decrypt(m.Content)
		if err != nil {
			logging.Log.WithFields(logrus.Fields{
				"message_id": m.ID,
				"error":      err,
			}).Warn("Chat: unable to decrypt message")
			m.Content = DecryptErrorMessage
			continue
		}
		m.Content = plain
	}
	return msgs, nil
}
