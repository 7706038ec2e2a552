package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/opsgate/identity/internal/core/domain"
)

type stubSecretWriter struct {
	stored map[string][]byte
	err    error
}

func (s *stubSecretWriter) SetSecret(_ context.Context, tenantID string, secret []byte) error {
	if s.err != nil {
		return s.err
	}
	s.stored[tenantID] = secret
	return nil
}

func TestTenantHandler_SetSecret(t *testing.T) {
	writer := &stubSecretWriter{stored: map[string][]byte{}}
	audit := &stubAudit{}
	h := NewTenantHandler(writer, audit)

	c, rec := adminContext(t, http.MethodPut, "/v1/tenants/acme-co/secret",
		`{"secret":"whsec_9f8e7d6c5b4a"}`, "acme-co", "")
	if err := h.SetSecret(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if string(writer.stored["acme-co"]) != "whsec_9f8e7d6c5b4a" {
		t.Fatalf("secret not stored: %+v", writer.stored)
	}

	if len(audit.changes) != 1 {
		t.Fatalf("rotation not audited")
	}
	change := audit.changes[0]
	if change.Action != "tenant.secret_rotated" {
		t.Fatalf("unexpected action %q", change.Action)
	}
	if !strings.Contains(string(change.NewValue), "[redacted]") {
		t.Fatalf("rotation record must carry redacted markers: %s", change.NewValue)
	}
	if strings.Contains(string(change.NewValue), "whsec_") {
		t.Fatalf("secret material must not enter the audit trail: %s", change.NewValue)
	}
}

func TestTenantHandler_SetSecret_BadTenantID(t *testing.T) {
	h := NewTenantHandler(&stubSecretWriter{stored: map[string][]byte{}}, &stubAudit{})

	c, _ := adminContext(t, http.MethodPut, "/v1/tenants/Acme_Co/secret",
		`{"secret":"whsec_9f8e7d6c5b4a"}`, "Acme_Co", "")
	if err := h.SetSecret(c); !errors.Is(err, domain.ErrInvalidTenantFormat) {
		t.Fatalf("expected ErrInvalidTenantFormat, got %v", err)
	}
}

func TestTenantHandler_SetSecret_TooShort(t *testing.T) {
	h := NewTenantHandler(&stubSecretWriter{stored: map[string][]byte{}}, &stubAudit{})

	c, _ := adminContext(t, http.MethodPut, "/v1/tenants/acme-co/secret",
		`{"secret":"short"}`, "acme-co", "")
	if err := h.SetSecret(c); err == nil {
		t.Fatalf("expected validation error for short secret")
	}
}
