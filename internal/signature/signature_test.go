package signature

import (
	"crypto/sha1"
	"crypto/sha256"
	"strings"
	"testing"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testBody   = `{"action":"opened","number":42}`
)

func TestValidateGitHub(t *testing.T) {
	body := []byte(testBody)
	digest := Compute(body, testSecret, sha256.New)

	t.Run("valid with prefix", func(t *testing.T) {
		headers := map[string]string{"x-hub-signature-256": "sha256=" + digest}
		res := Validate(body, headers, testSecret, SourceGitHub, nil)
		if !res.Valid {
			t.Fatalf("expected valid, got error %q", res.Error)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		res := Validate(body, map[string]string{}, testSecret, SourceGitHub, nil)
		if res.Valid {
			t.Fatal("expected invalid")
		}
		if res.Error != "Missing x-hub-signature-256 header" {
			t.Errorf("error = %q", res.Error)
		}
	})

	t.Run("flipped digest byte", func(t *testing.T) {
		headers := map[string]string{"x-hub-signature-256": "sha256=" + flipHexChar(digest)}
		res := Validate(body, headers, testSecret, SourceGitHub, nil)
		if res.Valid {
			t.Fatal("expected invalid")
		}
		if res.Error != "Invalid signature" {
			t.Errorf("error = %q", res.Error)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		headers := map[string]string{"x-hub-signature-256": "sha256=" + digest}
		res := Validate(body, headers, "other-secret", SourceGitHub, nil)
		if res.Valid {
			t.Fatal("expected invalid")
		}
	})

	t.Run("tampered body", func(t *testing.T) {
		headers := map[string]string{"x-hub-signature-256": "sha256=" + digest}
		res := Validate([]byte(testBody+" "), headers, testSecret, SourceGitHub, nil)
		if res.Valid {
			t.Fatal("expected invalid: digest is over the exact bytes")
		}
	})

	t.Run("non-hex digest", func(t *testing.T) {
		headers := map[string]string{"x-hub-signature-256": "sha256=zzzz"}
		res := Validate(body, headers, testSecret, SourceGitHub, nil)
		if res.Valid || res.Error != "Invalid signature" {
			t.Errorf("res = %+v", res)
		}
	})
}

func TestValidateLinear(t *testing.T) {
	body := []byte(testBody)
	digest := Compute(body, testSecret, sha256.New)

	res := Validate(body, map[string]string{"linear-signature": digest}, testSecret, SourceLinear, nil)
	if !res.Valid {
		t.Fatalf("expected valid, got error %q", res.Error)
	}

	res = Validate(body, map[string]string{}, testSecret, SourceLinear, nil)
	if res.Valid || res.Error != "Missing linear-signature header" {
		t.Errorf("res = %+v", res)
	}

	// Linear digests carry no algorithm prefix.
	res = Validate(body, map[string]string{"linear-signature": "sha256=" + digest}, testSecret, SourceLinear, nil)
	if res.Valid {
		t.Error("prefixed digest should not validate for linear")
	}
}

func TestValidateJira(t *testing.T) {
	body := []byte(testBody)
	digest := Compute(body, testSecret, sha256.New)

	res := Validate(body, map[string]string{"x-hub-signature": digest}, testSecret, SourceJira, nil)
	if !res.Valid {
		t.Fatalf("expected valid, got error %q", res.Error)
	}

	res = Validate(body, map[string]string{}, testSecret, SourceJira, nil)
	if res.Valid || res.Error != "Missing x-hub-signature header" {
		t.Errorf("res = %+v", res)
	}
}

func TestValidateGeneric(t *testing.T) {
	body := []byte(testBody)

	t.Run("defaults", func(t *testing.T) {
		digest := Compute(body, testSecret, sha256.New)
		res := Validate(body, map[string]string{"x-webhook-signature": digest}, testSecret, SourceGeneric, nil)
		if !res.Valid {
			t.Fatalf("expected valid, got error %q", res.Error)
		}
	})

	t.Run("custom header", func(t *testing.T) {
		digest := Compute(body, testSecret, sha256.New)
		cfg := &SourceConfig{SignatureHeader: "X-Custom-Sig"}
		res := Validate(body, map[string]string{"x-custom-sig": digest}, testSecret, SourceGeneric, cfg)
		if !res.Valid {
			t.Fatalf("expected valid, got error %q", res.Error)
		}
	})

	t.Run("sha1 method", func(t *testing.T) {
		digest := Compute(body, testSecret, sha1.New)
		cfg := &SourceConfig{HMACMethod: MethodSHA1}
		res := Validate(body, map[string]string{"x-webhook-signature": digest}, testSecret, SourceGeneric, cfg)
		if !res.Valid {
			t.Fatalf("expected valid, got error %q", res.Error)
		}
	})

	t.Run("sha1 digest against sha256 config", func(t *testing.T) {
		digest := Compute(body, testSecret, sha1.New)
		res := Validate(body, map[string]string{"x-webhook-signature": digest}, testSecret, SourceGeneric, nil)
		if res.Valid {
			t.Fatal("expected invalid")
		}
	})

	t.Run("missing custom header names it", func(t *testing.T) {
		cfg := &SourceConfig{SignatureHeader: "X-Custom-Sig"}
		res := Validate(body, map[string]string{}, testSecret, SourceGeneric, cfg)
		if res.Valid || res.Error != "Missing x-custom-sig header" {
			t.Errorf("res = %+v", res)
		}
	})
}

func TestValidateUnknownSource(t *testing.T) {
	res := Validate([]byte(testBody), map[string]string{}, testSecret, Source("gitlab"), nil)
	if res.Valid {
		t.Fatal("expected invalid")
	}
	if res.Error != "Unknown webhook source: gitlab" {
		t.Errorf("error = %q", res.Error)
	}
}

func TestSourceKnown(t *testing.T) {
	for _, s := range []Source{SourceGitHub, SourceLinear, SourceJira, SourceGeneric} {
		if !s.Known() {
			t.Errorf("%q should be known", s)
		}
	}
	if Source("gitlab").Known() {
		t.Error("gitlab should not be known")
	}
}

// flipHexChar changes one hex character so the digest stays well-formed
// but no longer matches.
func flipHexChar(digest string) string {
	c := "0"
	if strings.HasPrefix(digest, "0") {
		c = "1"
	}
	return c + digest[1:]
}
