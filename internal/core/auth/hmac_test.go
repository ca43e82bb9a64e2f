package auth

import (
	"strings"
	"testing"
)

const (
	testSecretID = "0123456789abcdef0123456789abcdef"
	testRandom   = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
)

func TestParseAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", FormatAPIKey(testSecretID, testRandom), false},
		{"wrong prefix", "tk-v1-" + testSecretID + "-" + testRandom, true},
		{"wrong version", "bv-v2-" + testSecretID + "-" + testRandom, true},
		{"short secret id", "bv-v1-0123-" + testRandom, true},
		{"short random", "bv-v1-" + testSecretID + "-abc", true},
		{"uppercase hex", "bv-v1-" + strings.ToUpper(testSecretID) + "-" + testRandom, true},
		{"extra segment", FormatAPIKey(testSecretID, testRandom) + "-x", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, random, err := ParseAPIKey(tt.key)
			if tt.wantErr {
				if err != ErrInvalidKeyFormat {
					t.Errorf("ParseAPIKey() error = %v, want ErrInvalidKeyFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAPIKey() error = %v", err)
			}
			if secretID != testSecretID || random != testRandom {
				t.Errorf("ParseAPIKey() = %q, %q", secretID, random)
			}
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	a, err := GenerateAPIKey(testSecretID)
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	b, err := GenerateAPIKey(testSecretID)
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	if a == b {
		t.Error("two generated keys are identical")
	}
	if !strings.HasPrefix(a, "bv-v1-"+testSecretID+"-") {
		t.Errorf("key %q has wrong prefix", a)
	}

	if _, err := GenerateAPIKey("not-hex"); err == nil {
		t.Error("expected error for invalid secret id")
	}
}

func TestComputeHMAC(t *testing.T) {
	key := FormatAPIKey(testSecretID, testRandom)
	h1 := ComputeHMAC([]byte("secret-one-secret-one-secret-one"), key)
	h2 := ComputeHMAC([]byte("secret-one-secret-one-secret-one"), key)
	h3 := ComputeHMAC([]byte("secret-two-secret-two-secret-two"), key)

	if len(h1) != 32 {
		t.Errorf("len(hash) = %d, want 32", len(h1))
	}
	if !VerifyHMAC(h1, h2) {
		t.Error("same secret and key should verify")
	}
	if VerifyHMAC(h1, h3) {
		t.Error("different secrets should not verify")
	}
}
