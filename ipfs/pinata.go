// Package ipfs is a thin client for the Pinata pinning API.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const pinTimeout = 30 * time.Second

// PinResponse is Pinata's answer to a successful pin request.
type PinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Client pins files to IPFS through Pinata. One attempt per call, no retries;
// a failed pin is the caller's problem to surface.
type Client struct {
	endpoint string
	gateway  string
	jwt      string
	http     *http.Client
}

// NewClient requires the bearer JWT; endpoint and gateway fall back to the
// public Pinata URLs when empty.
func NewClient(endpoint, gateway, jwt string) (*Client, error) {
	if jwt == "" {
		return nil, fmt.Errorf("pinata jwt is required")
	}
	if endpoint == "" {
		endpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"
	}
	if gateway == "" {
		gateway = "https://gateway.pinata.cloud/ipfs"
	}
	return &Client{
		endpoint: endpoint,
		gateway:  gateway,
		jwt:      jwt,
		http:     &http.Client{},
	}, nil
}

// PinFile forwards the file bytes to the pinning endpoint and returns the
// content identifier assigned to them.
func (c *Client) PinFile(ctx context.Context, filename string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, pinTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build pin request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post file to pinata: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read pinata response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("pinata returned [%d] %s", resp.StatusCode, string(respBody))
	}

	pinned := new(PinResponse)
	if err := json.Unmarshal(respBody, pinned); err != nil {
		return "", fmt.Errorf("unmarshal pinata response: %w", err)
	}
	if pinned.IpfsHash == "" {
		return "", fmt.Errorf("pinata response missing IpfsHash: %s", string(respBody))
	}
	return pinned.IpfsHash, nil
}

// GatewayURL builds the public gateway link for a content identifier.
func (c *Client) GatewayURL(cid string) string {
	return c.gateway + "/" + cid
}
