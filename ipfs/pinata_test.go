package ipfs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPinFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-jwt", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "report.pdf", header.Filename)

		body, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "hello vault", string(body))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"IpfsHash":"Qm123","PinSize":11,"Timestamp":"2026-01-02T03:04:05Z"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", "test-jwt")
	require.NoError(t, err)

	cid, err := client.PinFile(context.Background(), "report.pdf", strings.NewReader("hello vault"))
	require.NoError(t, err)
	require.Equal(t, "Qm123", cid)
}

func TestPinFileUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", "bad-jwt")
	require.NoError(t, err)

	_, err = client.PinFile(context.Background(), "report.pdf", strings.NewReader("x"))
	require.ErrorContains(t, err, "401")
	require.ErrorContains(t, err, "invalid credentials")
}

func TestPinFileMissingHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", "test-jwt")
	require.NoError(t, err)

	_, err = client.PinFile(context.Background(), "report.pdf", strings.NewReader("x"))
	require.ErrorContains(t, err, "missing IpfsHash")
}

func TestNewClientRequiresJWT(t *testing.T) {
	_, err := NewClient("", "", "")
	require.ErrorContains(t, err, "jwt is required")
}

func TestGatewayURL(t *testing.T) {
	client, err := NewClient("", "https://gateway.pinata.cloud/ipfs", "test-jwt")
	require.NoError(t, err)
	require.Equal(t, "https://gateway.pinata.cloud/ipfs/Qm123", client.GatewayURL("Qm123"))
}
