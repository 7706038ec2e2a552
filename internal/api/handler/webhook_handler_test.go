package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

type stubVerifier struct {
	verifyFn func(ctx context.Context, in ports.WebhookInput) (string, error)
}

func (s *stubVerifier) Verify(ctx context.Context, in ports.WebhookInput) (string, error) {
	return s.verifyFn(ctx, in)
}

func webhookRequest(t *testing.T, body, signature string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/grafana", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tool")
	c.SetParamValues("grafana")
	return c, rec
}

func TestWebhookHandler_Accepted(t *testing.T) {
	body := `{"tenant_id":"acme-co","ts":"2026-08-26T10:00:00Z"}`
	verifier := &stubVerifier{
		verifyFn: func(ctx context.Context, in ports.WebhookInput) (string, error) {
			if string(in.Body) != body {
				t.Fatalf("body not passed through raw: %q", in.Body)
			}
			if in.Signature != "deadbeef" {
				t.Fatalf("unexpected signature %q", in.Signature)
			}
			return "acme-co", nil
		},
	}
	h := NewWebhookHandler(verifier)

	c, rec := webhookRequest(t, body, "deadbeef")
	if err := h.Receive(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "acme-co") {
		t.Fatalf("response missing tenant: %s", rec.Body.String())
	}
}

func TestWebhookHandler_StripsHeaderPrefix(t *testing.T) {
	verifier := &stubVerifier{
		verifyFn: func(ctx context.Context, in ports.WebhookInput) (string, error) {
			if in.Signature != "deadbeef" {
				t.Fatalf("prefix not stripped: %q", in.Signature)
			}
			return "acme-co", nil
		},
	}
	h := NewWebhookHandler(verifier)

	c, _ := webhookRequest(t, `{}`, "sha256=deadbeef")
	if err := h.Receive(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	h := NewWebhookHandler(&stubVerifier{
		verifyFn: func(ctx context.Context, in ports.WebhookInput) (string, error) {
			t.Fatalf("verifier must not run without a signature")
			return "", nil
		},
	})

	c, _ := webhookRequest(t, `{}`, "")
	err := h.Receive(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestWebhookHandler_VerificationErrorsPropagate(t *testing.T) {
	for _, sentinel := range []error{
		domain.ErrSignatureMismatch,
		domain.ErrWebhookExpired,
		domain.ErrDuplicateDelivery,
		domain.ErrUnknownTenant,
	} {
		h := NewWebhookHandler(&stubVerifier{
			verifyFn: func(ctx context.Context, in ports.WebhookInput) (string, error) {
				return "", sentinel
			},
		})
		c, _ := webhookRequest(t, `{}`, "deadbeef")
		if err := h.Receive(c); err != sentinel {
			t.Fatalf("expected %v to propagate, got %v", sentinel, err)
		}
	}
}
