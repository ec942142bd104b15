package phone

import "testing"

func TestE164(t *testing.T) {
	n := NewNormalizer("")

	got, ok := n.E164("098765 43210")
	if !ok || got != "+919876543210" {
		t.Fatalf("expected +919876543210, got %q (%v)", got, ok)
	}

	got, ok = n.E164("  not a phone ")
	if ok || got != "not a phone" {
		t.Fatalf("expected trimmed passthrough, got %q (%v)", got, ok)
	}

	if got, ok := n.E164(""); ok || got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
