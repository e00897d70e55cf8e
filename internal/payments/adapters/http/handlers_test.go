package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	httpadapter "github.com/gocart/payments/internal/payments/adapters/http"
	"github.com/gocart/payments/internal/payments/adapters/memory"
	"github.com/gocart/payments/internal/payments/app"
	"github.com/gocart/payments/internal/payments/domain"
	"github.com/gocart/payments/internal/payments/metrics"
	"github.com/gocart/payments/internal/razorpay"
)

const (
	testSecret = "whsec_test"
	testAppID  = "gocart"
)

type noopEventBus struct{}

func (noopEventBus) PublishPaymentCaptured(_ context.Context, _ []string) error { return nil }
func (noopEventBus) PublishPaymentFailed(_ context.Context, _ []string) error   { return nil }

type fixture struct {
	mux        *http.ServeMux
	orders     *memory.Repository
	users      *memory.UserRepository
	deliveries *memory.DeliveryLog
}

func newFixture(t *testing.T, secret string) *fixture {
	t.Helper()

	orders := memory.NewRepository()
	users := memory.NewUserRepository()
	deliveries := memory.NewDeliveryLog()

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	m, err := metrics.NewMetrics(meter)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := app.NewService(orders, users, noopEventBus{}, deliveries, logger, m)

	mux := http.NewServeMux()
	httpadapter.NewHandler(service, secret, testAppID).Register(mux)

	return &fixture{mux: mux, orders: orders, users: users, deliveries: deliveries}
}

func (f *fixture) seedOrders(ids ...string) {
	for _, id := range ids {
		f.orders.Seed(domain.Order{
			ID:        id,
			UserID:    "u1",
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		})
	}
}

func (f *fixture) seedUser(id string, cart map[string]int) {
	f.users.Seed(domain.User{ID: id, Cart: cart})
}

// post delivers a webhook body, signing it unless a signature override is given.
func (f *fixture) post(t *testing.T, body string, signature *string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/razorpay", bytes.NewReader([]byte(body)))
	sig := razorpay.Signature(testSecret, []byte(body))
	if signature != nil {
		sig = *signature
	}
	if sig != "" {
		req.Header.Set(razorpay.SignatureHeader, sig)
	}

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
	return payload
}

func capturedBody(orderIDs, userID, appID string) string {
	return `{"event":"payment.captured","payload":{"payment":{"entity":{"notes":{"orderIds":"` +
		orderIDs + `","userId":"` + userID + `","appId":"` + appID + `"}}}}}`
}

func failedBody(orderIDs, appID string) string {
	return `{"event":"payment.failed","payload":{"payment":{"entity":{"notes":{"orderIds":"` +
		orderIDs + `","userId":"u1","appId":"` + appID + `"}}}}}`
}

func TestWebhookAuthentication(t *testing.T) {
	t.Run("fails closed when the secret is not configured", func(t *testing.T) {
		f := newFixture(t, "")
		f.seedOrders("ord_1")

		rec := f.post(t, capturedBody("ord_1", "u1", testAppID), nil)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
		if got, _ := f.orders.GetByID(context.Background(), "ord_1"); got.Paid {
			t.Error("expected no mutation without a configured secret")
		}
	})

	t.Run("rejects deliveries without a signature header", func(t *testing.T) {
		f := newFixture(t, testSecret)
		empty := ""

		rec := f.post(t, capturedBody("ord_1", "u1", testAppID), &empty)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if decodeBody(t, rec)["error"] != "missing signature" {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("rejects deliveries with a wrong signature and mutates nothing", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("ord_1", "ord_2")
		f.seedUser("u1", map[string]int{"prod_1": 2})
		wrong := "0000000000000000000000000000000000000000000000000000000000000000"

		rec := f.post(t, capturedBody("ord_1,ord_2", "u1", testAppID), &wrong)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if decodeBody(t, rec)["error"] != "invalid signature" {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}

		for _, id := range []string{"ord_1", "ord_2"} {
			if got, _ := f.orders.GetByID(context.Background(), id); got.Paid {
				t.Errorf("expected %s to stay unpaid", id)
			}
		}
		if user, _ := f.users.Get("u1"); len(user.Cart) != 1 {
			t.Error("expected cart untouched after rejected delivery")
		}
	})

	t.Run("treats signed malformed JSON as a server error", func(t *testing.T) {
		f := newFixture(t, testSecret)

		rec := f.post(t, `{"event":`, nil)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
	})
}

func TestWebhookPaymentCaptured(t *testing.T) {
	t.Run("marks orders paid, clears the cart, and acknowledges", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("ord_1", "ord_2")
		f.seedUser("u1", map[string]int{"prod_1": 2, "prod_2": 1})

		rec := f.post(t, capturedBody("ord_1,ord_2", "u1", testAppID), nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if decodeBody(t, rec)["received"] != true {
			t.Errorf("expected received:true, got %s", rec.Body.String())
		}

		for _, id := range []string{"ord_1", "ord_2"} {
			got, err := f.orders.GetByID(context.Background(), id)
			if err != nil {
				t.Fatalf("expected %s to exist: %v", id, err)
			}
			if !got.Paid {
				t.Errorf("expected %s to be paid", id)
			}
		}

		user, _ := f.users.Get("u1")
		if len(user.Cart) != 0 {
			t.Errorf("expected empty cart, got %v", user.Cart)
		}

		deliveries := f.deliveries.Deliveries()
		if len(deliveries) != 1 || deliveries[0].Outcome != "reconciled" {
			t.Errorf("expected one reconciled delivery record, got %+v", deliveries)
		}
	})

	t.Run("is idempotent across redeliveries", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("ord_1")
		f.seedUser("u1", map[string]int{"prod_1": 1})
		body := capturedBody("ord_1", "u1", testAppID)

		first := f.post(t, body, nil)
		second := f.post(t, body, nil)

		if first.Code != http.StatusOK || second.Code != http.StatusOK {
			t.Fatalf("expected both deliveries to succeed, got %d and %d", first.Code, second.Code)
		}

		got, _ := f.orders.GetByID(context.Background(), "ord_1")
		if !got.Paid {
			t.Error("expected ord_1 to stay paid")
		}
		user, _ := f.users.Get("u1")
		if len(user.Cart) != 0 {
			t.Errorf("expected cart to stay empty, got %v", user.Cart)
		}

		deliveries := f.deliveries.Deliveries()
		if len(deliveries) != 1 {
			t.Errorf("expected the redelivery to collapse into one log entry, got %d", len(deliveries))
		}
	})

	t.Run("trims and drops empty entries in the order id list", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("o1", "o2", "o3", "o4")

		rec := f.post(t, capturedBody("o1, o2,,o3", "", testAppID), nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		for _, id := range []string{"o1", "o2", "o3"} {
			if got, _ := f.orders.GetByID(context.Background(), id); !got.Paid {
				t.Errorf("expected %s to be paid", id)
			}
		}
		if got, _ := f.orders.GetByID(context.Background(), "o4"); got.Paid {
			t.Error("expected o4 to stay unpaid")
		}
	})

	t.Run("acknowledges but ignores events for another app id", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("ord_1")
		f.seedUser("u1", map[string]int{"prod_1": 1})

		rec := f.post(t, capturedBody("ord_1", "u1", "someone-else"), nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		payload := decodeBody(t, rec)
		if payload["received"] != true || payload["message"] != "Invalid app id" {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}

		if got, _ := f.orders.GetByID(context.Background(), "ord_1"); got.Paid {
			t.Error("expected no mutation for mismatched app id")
		}
		if user, _ := f.users.Get("u1"); len(user.Cart) != 1 {
			t.Error("expected cart untouched for mismatched app id")
		}
	})

	t.Run("rejects signed events without notes", func(t *testing.T) {
		f := newFixture(t, testSecret)

		rec := f.post(t, `{"event":"payment.captured","payload":{"payment":{"entity":{}}}}`, nil)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if decodeBody(t, rec)["error"] != "missing notes in payment entity" {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("rejects signed events without order ids", func(t *testing.T) {
		f := newFixture(t, testSecret)

		rec := f.post(t, capturedBody(" , ", "u1", testAppID), nil)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if decodeBody(t, rec)["error"] != "missing orderIds in notes" {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})
}

func TestWebhookPaymentFailed(t *testing.T) {
	t.Run("deletes the named orders", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("ord_1", "ord_2", "ord_3")

		rec := f.post(t, failedBody("ord_1,ord_2", testAppID), nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		for _, id := range []string{"ord_1", "ord_2"} {
			if _, err := f.orders.GetByID(context.Background(), id); err == nil {
				t.Errorf("expected %s to be deleted", id)
			}
		}
		if _, err := f.orders.GetByID(context.Background(), "ord_3"); err != nil {
			t.Error("expected ord_3 to survive")
		}
	})

	t.Run("absorbs redelivery after the orders are gone", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("ord_1")
		body := failedBody("ord_1", testAppID)

		first := f.post(t, body, nil)
		second := f.post(t, body, nil)

		if first.Code != http.StatusOK {
			t.Errorf("expected first delivery to succeed, got %d", first.Code)
		}
		if second.Code != http.StatusOK {
			t.Errorf("expected redelivery to be a no-op, got %d: %s", second.Code, second.Body.String())
		}
	})

	t.Run("acknowledges but ignores events for another app id", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("ord_1")

		rec := f.post(t, failedBody("ord_1", "someone-else"), nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if _, err := f.orders.GetByID(context.Background(), "ord_1"); err != nil {
			t.Error("expected ord_1 to survive a mismatched app id")
		}
	})
}

func TestWebhookUnhandledEvents(t *testing.T) {
	t.Run("acknowledges unknown event types without mutating", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("ord_1")

		body := `{"event":"refund.created","payload":{"payment":{"entity":{"notes":{"orderIds":"ord_1","appId":"gocart"}}}}}`
		rec := f.post(t, body, nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		payload := decodeBody(t, rec)
		if payload["received"] != true || payload["message"] != "Unhandled event" {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}

		got, _ := f.orders.GetByID(context.Background(), "ord_1")
		if got.Paid {
			t.Error("expected no mutation for unhandled event")
		}

		deliveries := f.deliveries.Deliveries()
		if len(deliveries) != 1 || deliveries[0].Outcome != "unhandled" {
			t.Errorf("expected one unhandled delivery record, got %+v", deliveries)
		}
	})

	t.Run("rejects non-POST methods", func(t *testing.T) {
		f := newFixture(t, testSecret)

		req := httptest.NewRequest(http.MethodGet, "/v1/webhooks/razorpay", nil)
		rec := httptest.NewRecorder()
		f.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status 405, got %d", rec.Code)
		}
	})
}

func TestOrderReadAPI(t *testing.T) {
	t.Run("returns a single order", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("ord_1")

		req := httptest.NewRequest(http.MethodGet, "/v1/orders/ord_1", nil)
		rec := httptest.NewRecorder()
		f.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		payload := decodeBody(t, rec)
		order, ok := payload["order"].(map[string]any)
		if !ok || order["id"] != "ord_1" {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("returns 404 for a missing order", func(t *testing.T) {
		f := newFixture(t, testSecret)

		req := httptest.NewRequest(http.MethodGet, "/v1/orders/ord_missing", nil)
		rec := httptest.NewRecorder()
		f.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("filters the list by paid state", func(t *testing.T) {
		f := newFixture(t, testSecret)
		f.seedOrders("ord_1", "ord_2")
		f.post(t, capturedBody("ord_1", "", testAppID), nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/orders?paid=true", nil)
		rec := httptest.NewRecorder()
		f.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		payload := decodeBody(t, rec)
		orders, ok := payload["orders"].([]any)
		if !ok || len(orders) != 1 {
			t.Errorf("expected exactly one paid order, got %s", rec.Body.String())
		}
	})

	t.Run("rejects an invalid paid filter", func(t *testing.T) {
		f := newFixture(t, testSecret)

		req := httptest.NewRequest(http.MethodGet, "/v1/orders?paid=maybe", nil)
		rec := httptest.NewRecorder()
		f.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}
