package findings

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Signer adds integrity hashes to findings artifacts. The hash covers a
// canonical JSON serialization of the artifact with the hash field itself
// excluded, so Verify can recompute it.
type Signer struct {
	Identity string
}

// NewSigner returns a signer with the default identity.
func NewSigner() *Signer {
	return &Signer{Identity: "arcops-mcp"}
}

// ComputeHash returns "sha256:<hex>" over the canonical JSON form of the
// artifact, excluding artifactHash.
func (s *Signer) ComputeHash(f *Findings) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}

	// Round-trip through a map: encoding/json sorts map keys, giving a
	// deterministic serialization independent of struct field order.
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("canonicalize artifact: %w", err)
	}
	delete(m, "artifactHash")

	canonical, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal canonical form: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// Sign stamps signing metadata and the artifact hash onto f.
func (s *Signer) Sign(f *Findings) error {
	f.Signed = &SignedInfo{
		Signer:   s.Identity,
		SignedAt: time.Now().UTC().Format(time.RFC3339),
	}
	hash, err := s.ComputeHash(f)
	if err != nil {
		return err
	}
	f.ArtifactHash = hash
	return nil
}

// FileSHA256 returns the hex sha256 digest of a file, the format used by
// bundle manifests.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify recomputes the hash and compares it to the stored one.
func (s *Signer) Verify(f *Findings) bool {
	if f.ArtifactHash == "" {
		return false
	}
	hash, err := s.ComputeHash(f)
	if err != nil {
		return false
	}
	return hash == f.ArtifactHash
}
