package provider

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeBase64Loose(t *testing.T) {
	payload := []byte("hello wootrico")

	t.Run("bare standard", func(t *testing.T) {
		enc := base64.StdEncoding.EncodeToString(payload)
		got, err := decodeBase64Loose(enc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("got %q, want %q", got, payload)
		}
	})

	t.Run("data uri", func(t *testing.T) {
		enc := base64.StdEncoding.EncodeToString(payload)
		got, err := decodeBase64Loose("data:image/jpeg;base64," + enc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("got %q, want %q", got, payload)
		}
	})

	t.Run("url safe alphabet without padding", func(t *testing.T) {
		enc := base64.RawURLEncoding.EncodeToString(payload)
		got, err := decodeBase64Loose(enc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("got %q, want %q", got, payload)
		}
	})

	t.Run("url safe alphabet with embedded whitespace", func(t *testing.T) {
		enc := base64.RawURLEncoding.EncodeToString(payload)
		got, err := decodeBase64Loose(enc[:4] + "\n  " + enc[4:])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("got %q, want %q", got, payload)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := decodeBase64Loose("!!!not base64!!!"); err == nil {
			t.Fatal("expected an error for invalid base64")
		}
	})
}
