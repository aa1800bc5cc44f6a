package chat

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOfWrappedError(t *testing.T) {
	base := E(KindQuota, "gemini", errors.New("429"))
	wrapped := fmt.Errorf("round trip: %w", base)
	if KindOf(wrapped) != KindQuota {
		t.Fatalf("kind = %v, want quota", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("plain error must map to the unknown kind")
	}
}

func TestUserFacingMessages(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{KindQuota, "Quota Exceeded"},
		{KindConnectivity, "Connection Error"},
		{KindContextCapture, "Failed to capture page context"},
		{KindContextInvalidated, "reload this page"},
	}
	for _, tc := range cases {
		got := UserFacingMessage(E(tc.kind, "test", errors.New("detail")))
		if !strings.Contains(got, tc.want) {
			t.Fatalf("kind %v: %q does not mention %q", tc.kind, got, tc.want)
		}
	}
}

func TestUserFacingMessageFallbackIncludesDetail(t *testing.T) {
	got := UserFacingMessage(errors.New("odd failure"))
	if !strings.Contains(got, "Sorry, I encountered an error") {
		t.Fatalf("missing fallback prefix in %q", got)
	}
	if !strings.Contains(got, "odd failure") {
		t.Fatalf("missing detail in %q", got)
	}
}
