package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/blaze-wallet/blaze_wallet/internal/identstore"
	"github.com/blaze-wallet/blaze_wallet/internal/logging"
)

func newTestApp(t *testing.T, extractor *stubExtractor) (*fiber.App, *Service) {
	t.Helper()
	store := identstore.NewMemoryStore()
	svc := newTestService(store, &stubGate{score: 0.1}, extractor)
	h := NewHandler(svc, logging.Discard())

	app := fiber.New()
	app.Post("/register", h.Register)
	app.Post("/login", h.Login)
	app.Get("/dashboard", h.Dashboard)
	app.Post("/send", h.Send)
	app.Get("/receive", h.Receive)
	app.Get("/history", h.History)
	return app, svc
}

func multipartBody(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if withImage {
		part, err := writer.CreateFormFile("image", "face.png")
		if err != nil {
			t.Fatalf("create image part: %v", err)
		}
		if _, err := part.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("write image part: %v", err)
		}
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode body %s: %v", raw, err)
	}
	return decoded
}

func TestRegisterEndpoint(t *testing.T) {
	app, _ := newTestApp(t, &stubExtractor{vector: faceVector(0)})

	body, contentType := multipartBody(t, map[string]string{"name": "Ana"}, true)
	req := httptest.NewRequest(fiber.MethodPost, "/register", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	decoded := decodeBody(t, resp)
	if decoded["success"] != true {
		t.Fatalf("expected success, got %v", decoded)
	}
	address, _ := decoded["wallet_address"].(string)
	if !addressPattern.MatchString(address) {
		t.Fatalf("bad wallet address %q", address)
	}
	if decoded["passphrase"] == "" {
		t.Fatalf("expected a passphrase in the response")
	}
}

func TestRegisterEndpointMissingImage(t *testing.T) {
	app, _ := newTestApp(t, &stubExtractor{vector: faceVector(0)})

	body, contentType := multipartBody(t, map[string]string{"name": "Ana"}, false)
	req := httptest.NewRequest(fiber.MethodPost, "/register", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without image, got %d", resp.StatusCode)
	}
}

func TestLoginEndpointRequiresPassphrase(t *testing.T) {
	app, _ := newTestApp(t, &stubExtractor{vector: faceVector(0)})

	body, contentType := multipartBody(t, nil, true)
	req := httptest.NewRequest(fiber.MethodPost, "/login", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without passphrase, got %d", resp.StatusCode)
	}
}

func TestLoginEndpointRoundTrip(t *testing.T) {
	extractor := &stubExtractor{vector: faceVector(0)}
	app, svc := newTestApp(t, extractor)

	reg, err := svc.Register(context.Background(), []byte("img"), "Ana")
	if err != nil {
		t.Fatalf("seed register: %v", err)
	}

	body, contentType := multipartBody(t, map[string]string{"passphrase": reg.Passphrase}, true)
	req := httptest.NewRequest(fiber.MethodPost, "/login", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	decoded := decodeBody(t, resp)
	if decoded["success"] != true {
		t.Fatalf("expected successful login, got %v", decoded)
	}
	user, _ := decoded["user"].(map[string]any)
	if user["name"] != "Ana" || user["balance"] != DefaultBalance {
		t.Fatalf("unexpected user payload %v", user)
	}
}

func TestDashboardEndpointNotFound(t *testing.T) {
	app, _ := newTestApp(t, &stubExtractor{vector: faceVector(0)})

	req := httptest.NewRequest(fiber.MethodGet, "/dashboard?wallet_address=0xmissing", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSendEndpointInsufficientBalance(t *testing.T) {
	extractor := &stubExtractor{}
	app, svc := newTestApp(t, extractor)

	sender, recipient := registerTwo(t, svc, extractor)

	body, contentType := multipartBody(t, map[string]string{
		"sender_address":    sender.WalletAddress,
		"recipient_address": recipient.WalletAddress,
		"amount":            "9000",
	}, true)
	req := httptest.NewRequest(fiber.MethodPost, "/send", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	decoded := decodeBody(t, resp)
	if decoded["success"] != false || decoded["message"] != "Insufficient balance" {
		t.Fatalf("expected insufficient balance rejection, got %v", decoded)
	}
}

func TestSendEndpointMissingFields(t *testing.T) {
	app, _ := newTestApp(t, &stubExtractor{vector: faceVector(0)})

	body, contentType := multipartBody(t, map[string]string{"sender_address": "0xa"}, true)
	req := httptest.NewRequest(fiber.MethodPost, "/send", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", resp.StatusCode)
	}
}
