package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipper/pkg/models"
	"shipper/pkg/services"
	"shipper/pkg/store"
	"shipper/pkg/validation"
	"shipper/pkg/wizard"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLabels struct {
	mu      sync.Mutex
	result  models.ShipmentResult
	calls   []models.ShipmentRequest
	started chan struct{}
	release chan struct{}
}

func (s *stubLabels) CreateShipmentLabel(_ context.Context, req models.ShipmentRequest) models.ShipmentResult {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return s.result
}

func (s *stubLabels) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

var _ services.LabelService = (*stubLabels)(nil)

type browser struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newBrowser(t *testing.T, labels services.LabelService) *browser {
	schema := validation.Strict()
	manager := store.NewManager(store.NewMemoryStore(time.Hour), schema)
	h := NewHandlers(manager, labels, schema)
	return &browser{t: t, router: NewRouter(h, RouterOptions{CORSAllowOrigins: []string{"*"}})}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postJSON(path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func (b *browser) toPackageStep() {
	b.t.Helper()
	require.Equal(b.t, http.StatusOK, b.get("/").Code)
	require.Equal(b.t, http.StatusOK, b.post("/form/next", nil).Code)
	w := b.post("/form/next", nil)
	require.Equal(b.t, http.StatusOK, w.Code)
	require.Contains(b.t, w.Body.String(), `data-step="package"`)
}

func TestHealthCheck(t *testing.T) {
	b := newBrowser(t, &stubLabels{})

	w := b.get("/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestShowFormStartsOnSenderWithDefaults(t *testing.T) {
	b := newBrowser(t, &stubLabels{})

	w := b.get("/")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-step="sender"`)
	assert.Contains(t, body, `value="John Doe"`)
	assert.Contains(t, body, `value="417 MONTGOMERY ST"`)
	assert.NotContains(t, body, "Previous")
	assert.Contains(t, body, `name="fromAddress.name" value="John Doe" aria-required="true"`)
	assert.Contains(t, body, `name="fromAddress.phone" value="" aria-invalid="false"`)
	require.NotNil(t, b.cookie)
	assert.True(t, b.cookie.HttpOnly)
}

func TestSubmitOpensLabelInNewTab(t *testing.T) {
	labels := &stubLabels{result: models.Success("https://label.test")}
	b := newBrowser(t, labels)
	b.toPackageStep()

	w := b.post("/form/submit", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-url="https://label.test"`)
	assert.Contains(t, body, `data-target="_blank"`)
	assert.NotContains(t, body, `class="toast"`)

	require.Equal(t, 1, labels.callCount())
	assert.Equal(t, models.DefaultShipmentRequest(), labels.calls[0])
	assert.Contains(t, body, `data-step="package"`)
}

func TestSubmitFailureShowsToast(t *testing.T) {
	labels := &stubLabels{result: models.Failure(services.ErrNoUSPSRate)}
	b := newBrowser(t, labels)
	b.toPackageStep()

	w := b.post("/form/submit", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, wizard.FailureMessage)
	assert.NotContains(t, body, "data-url=")
	assert.Equal(t, 1, labels.callCount())
}

func TestSubmitUsesPostedParcel(t *testing.T) {
	labels := &stubLabels{result: models.Success("https://label.test")}
	b := newBrowser(t, labels)
	b.toPackageStep()

	w := b.post("/form/submit", url.Values{"parcel.weight": {"12.5"}})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, labels.callCount())
	require.NotNil(t, labels.calls[0].Parcel.Weight)
	assert.Equal(t, 12.5, *labels.calls[0].Parcel.Weight)
}

func TestNextBlockedByInvalidSection(t *testing.T) {
	labels := &stubLabels{}
	b := newBrowser(t, labels)
	b.get("/")

	w := b.post("/form/next", url.Values{"fromAddress.name": {"  "}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-step="sender"`)
	assert.Contains(t, body, "Name is required")
	assert.Contains(t, body, `data-control="next" disabled`)

	w = b.post("/form/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 0, labels.callCount())
}

func TestPreviousKeepsValues(t *testing.T) {
	b := newBrowser(t, &stubLabels{})
	b.get("/")
	require.Equal(t, http.StatusOK, b.post("/form/next", url.Values{"fromAddress.name": {"Jane Roe"}}).Code)

	w := b.post("/form/previous", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-step="sender"`)
	assert.Contains(t, w.Body.String(), `value="Jane Roe"`)
}

func TestResetRestoresDefaults(t *testing.T) {
	b := newBrowser(t, &stubLabels{})
	b.get("/")
	b.post("/form/next", url.Values{"fromAddress.name": {"Jane Roe"}})

	w := b.post("/form/reset", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = b.get("/")
	assert.Contains(t, w.Body.String(), `data-step="sender"`)
	assert.Contains(t, w.Body.String(), `value="John Doe"`)
}

func TestSetField(t *testing.T) {
	b := newBrowser(t, &stubLabels{})
	b.get("/")

	w := b.postJSON("/form/field", `{"path":"fromAddress.name","value":""}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp fieldResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StepSender, resp.Step)
	assert.False(t, resp.CanAdvance)
	assert.Equal(t, "Name is required", resp.Errors["fromAddress.name"])

	w = b.postJSON("/form/field", `{"path":"fromAddress.name","value":"Jane"}`)
	var fixed fieldResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fixed))
	assert.True(t, fixed.CanAdvance)
	assert.Empty(t, fixed.Errors)
}

func TestSetFieldUnknownPath(t *testing.T) {
	b := newBrowser(t, &stubLabels{})

	w := b.postJSON("/form/field", `{"path":"fromAddress.country","value":"US"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = b.postJSON("/form/field", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitWhileInFlight(t *testing.T) {
	labels := &stubLabels{
		result:  models.Success("https://label.test"),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	b := newBrowser(t, labels)
	b.toPackageStep()

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/form/submit", nil)
		req.AddCookie(b.cookie)
		w := httptest.NewRecorder()
		b.router.ServeHTTP(w, req)
		done <- w
	}()
	<-labels.started

	w := b.post("/form/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `data-control="submit" disabled`)

	close(labels.release)
	first := <-done
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, labels.callCount())
}

func TestResetWhileInFlightDoesNotAllowSecondPurchase(t *testing.T) {
	labels := &stubLabels{
		result:  models.Success("https://label.test"),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	b := newBrowser(t, labels)
	b.toPackageStep()

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/form/submit", nil)
		req.AddCookie(b.cookie)
		w := httptest.NewRecorder()
		b.router.ServeHTTP(w, req)
		done <- w
	}()
	<-labels.started

	w := b.post("/form/reset", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `data-step="package"`)

	b.post("/form/next", nil)
	b.post("/form/next", nil)
	w = b.post("/form/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(labels.release)
	assert.Equal(t, http.StatusOK, (<-done).Code)
	assert.Equal(t, 1, labels.callCount())

	// Once the purchase is done the form can be reset again
	w = b.post("/form/reset", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestCreateLabelAPI(t *testing.T) {
	valid, err := json.Marshal(models.DefaultShipmentRequest())
	require.NoError(t, err)

	invalid := models.DefaultShipmentRequest()
	invalid.ToAddress.State = "XX"
	invalidBody, err := json.Marshal(invalid)
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       string
		result     models.ShipmentResult
		wantStatus int
		wantCalls  int
		check      func(t *testing.T, body map[string]any)
	}{
		{
			name:       "success",
			body:       string(valid),
			result:     models.Success("https://label.test"),
			wantStatus: http.StatusOK,
			wantCalls:  1,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "https://label.test", body["data"])
			},
		},
		{
			name:       "pipeline failure",
			body:       string(valid),
			result:     models.Failure(services.ErrBuyingShipment),
			wantStatus: http.StatusBadGateway,
			wantCalls:  1,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, services.ErrBuyingShipment, body["error"])
			},
		},
		{
			name:       "validation failure",
			body:       string(invalidBody),
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]any) {
				fields, ok := body["fields"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "State must be a valid 2-letter code", fields["toAddress.state"])
			},
		},
		{
			name:       "malformed json",
			body:       `{"fromAddress":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := &stubLabels{result: tt.result}
			b := newBrowser(t, labels)

			w := b.postJSON("/api/labels", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, labels.callCount())
			if tt.check != nil {
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				tt.check(t, body)
			}
		})
	}
}

func TestCreateLabelPreflight(t *testing.T) {
	b := newBrowser(t, &stubLabels{})

	req := httptest.NewRequest(http.MethodOptions, "/api/labels", nil)
	req.Header.Set("Origin", "https://example.com")
	w := b.do(req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
