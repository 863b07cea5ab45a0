package gcs

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func testClient(t *testing.T) (*Client, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return &Client{
		defaultBucket: "bucket",
		serviceAccount: &serviceAccountInfo{
			clientEmail: "signer@example.com",
			privateKey:  key,
		},
	}, key
}

func TestSignedUploadURL(t *testing.T) {
	t.Parallel()

	client, key := testClient(t)

	object := "documents/contract/file.pdf"
	contentType := "application/pdf"
	urlStr, err := client.SignedUploadURL("bucket", object, contentType, 5*time.Minute)
	if err != nil {
		t.Fatalf("SignedUploadURL returned error: %v", err)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if !strings.EqualFold(parsed.Host, "storage.googleapis.com") {
		t.Fatalf("unexpected host %s", parsed.Host)
	}

	values := parsed.Query()
	accessID, err := url.QueryUnescape(values.Get("GoogleAccessId"))
	if err != nil {
		t.Fatalf("unescape GoogleAccessId: %v", err)
	}
	if accessID != "signer@example.com" {
		t.Fatalf("unexpected GoogleAccessId %q", accessID)
	}

	expireParam := values.Get("Expires")
	if expireParam == "" {
		t.Fatal("Expires missing")
	}
	expiration, err := strconv.ParseInt(expireParam, 10, 64)
	if err != nil {
		t.Fatalf("parse expires: %v", err)
	}

	signature := values.Get("Signature")
	if signature == "" {
		t.Fatal("signature missing")
	}
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}

	stringToSign := strings.Join([]string{
		"PUT",
		"",
		contentType,
		strconv.FormatInt(expiration, 10),
		"/bucket/" + object,
	}, "\n")
	hash := sha256.Sum256([]byte(stringToSign))
	if err := rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, hash[:], raw); err != nil {
		t.Fatalf("signature does not verify: %v", err)
	}
}

func TestSignedDownloadURLUsesDefaultBucket(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t)

	urlStr, err := client.SignedDownloadURL("", "documents/a/b.pdf", time.Minute)
	if err != nil {
		t.Fatalf("SignedDownloadURL returned error: %v", err)
	}
	if !strings.Contains(urlStr, "/bucket/documents/a/b.pdf?") {
		t.Fatalf("expected default bucket in url, got %s", urlStr)
	}
}

func TestSignedURLErrors(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t)

	if _, err := client.SignedUploadURL("bucket", "", "application/pdf", time.Minute); err == nil {
		t.Fatal("expected error for empty object")
	}
	if _, err := client.SignedUploadURL("bucket", "obj", "application/pdf", 0); err == nil {
		t.Fatal("expected error for zero expiry")
	}

	tokenOnly := &Client{defaultBucket: "bucket"}
	if _, err := tokenOnly.SignedDownloadURL("bucket", "obj", time.Minute); err == nil {
		t.Fatal("expected error without service account credentials")
	}
}
