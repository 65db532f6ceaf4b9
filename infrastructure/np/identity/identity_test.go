package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func writeTestKeyPair(t *testing.T, dir string) (pub, priv string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	privBytes := x509.MarshalPKCS1PrivateKey(key)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: privBytes})
	privPath := filepath.Join(dir, "private.key")
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		t.Fatalf("WriteFile(private): %v", err)
	}

	pubBytes := x509.MarshalPKCS1PublicKey(&key.PublicKey)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: pubBytes})
	pubPath := filepath.Join(dir, "public.key")
	if err := os.WriteFile(pubPath, pubPEM, 0o600); err != nil {
		t.Fatalf("WriteFile(public): %v", err)
	}
	return pubPath, privPath
}

func TestLoadDerivesStableSelfID(t *testing.T) {
	dir := t.TempDir()
	pubPath, privPath := writeTestKeyPair(t, dir)

	id1, err := Load(pubPath, privPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	id2, err := Load(pubPath, privPath)
	if err != nil {
		t.Fatalf("Load (again): %v", err)
	}
	if id1.Self != id2.Self {
		t.Fatal("loading the same key pair twice must yield the same self ID")
	}
	if id1.Self.IsZero() {
		t.Fatal("self ID must not be zero")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "nope.pub"), filepath.Join(dir, "nope.priv")); err == nil {
		t.Fatal("Load should fail when key files are missing")
	}
}
