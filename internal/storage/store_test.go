package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"ws/file.txt":    "ws/file.txt",
		"/ws/file.txt":   "ws/file.txt",
		` ws\file.txt `:  "ws/file.txt",
		"ws/sub/obj.bin": "ws/sub/obj.bin",
	}
	for input, expected := range cases {
		got, err := CleanPath(input)
		require.NoError(t, err, input)
		require.Equal(t, expected, got)
	}

	for _, bad := range []string{"", "/", "..", "ws/../x", "ws//x", "./ws"} {
		_, err := CleanPath(bad)
		require.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestNewS3StoreValidation(t *testing.T) {
	_, err := NewS3Store(S3Config{Bucket: "files"})
	require.Error(t, err)

	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000"})
	require.Error(t, err)
}

func TestS3StorePublicURL(t *testing.T) {
	store, err := NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "files", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9000/files/ws/id_a%20b.png", store.PublicURL("ws/id_a b.png"))

	custom, err := NewS3Store(S3Config{Endpoint: "s3.amazonaws.com", UseSSL: true, Bucket: "files", PublicBaseURL: "https://cdn.example.com"})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/ws/x.txt", custom.PublicURL("ws/x.txt"))
}
