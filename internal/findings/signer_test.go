package findings

import (
	"strings"
	"testing"
)

func signedArtifact(t *testing.T) (*Signer, *Findings) {
	t.Helper()
	s := NewSigner()
	f := New("connectivity", "arc.connectivity.check", "quick")
	f.Add(Check{ID: "dns", Title: "DNS resolution", Severity: SeverityHigh, Status: StatusPass})
	if err := s.Sign(f); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return s, f
}

func TestSign_SetsHashAndMetadata(t *testing.T) {
	_, f := signedArtifact(t)

	if !strings.HasPrefix(f.ArtifactHash, "sha256:") {
		t.Errorf("ArtifactHash %q lacks sha256: prefix", f.ArtifactHash)
	}
	if f.Signed == nil || f.Signed.Signer != "arcops-mcp" {
		t.Errorf("Signed metadata: got %+v", f.Signed)
	}
}

func TestVerify_Valid(t *testing.T) {
	s, f := signedArtifact(t)
	if !s.Verify(f) {
		t.Error("Verify returned false for freshly signed artifact")
	}
}

func TestVerify_Tampered(t *testing.T) {
	s, f := signedArtifact(t)
	f.Checks[0].Status = StatusFail
	f.Summary.Pass--
	f.Summary.Fail++
	if s.Verify(f) {
		t.Error("Verify returned true for tampered artifact")
	}
}

func TestVerify_Unsigned(t *testing.T) {
	s := NewSigner()
	f := New("t", "tool", "")
	if s.Verify(f) {
		t.Error("Verify returned true for unsigned artifact")
	}
}

func TestComputeHash_ExcludesHashField(t *testing.T) {
	s, f := signedArtifact(t)

	before := f.ArtifactHash
	f.ArtifactHash = "sha256:bogus"
	recomputed, err := s.ComputeHash(f)
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	if recomputed != before {
		t.Errorf("hash changed when only artifactHash differed: got %s, want %s", recomputed, before)
	}
}
