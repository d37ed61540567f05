package public

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/xiuda-next/internal/constants"
	"github.com/xiuda-next/internal/http/response"
)

func postJSON(t *testing.T, path, body string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return w, c
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return resp
}

func TestPaymentNotifyRejectsMissingOrderNo(t *testing.T) {
	w, c := postJSON(t, "/api/v1/payments/notify", `{"amount":"100.00"}`)

	h := &Handler{}
	h.PaymentNotify(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected http 200 envelope, got %d", w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected code %d, got %d", response.CodeBadRequest, resp.StatusCode)
	}
}

func TestPaymentNotifyRejectsMalformedAmount(t *testing.T) {
	w, c := postJSON(t, "/api/v1/payments/notify", `{"order_no":"RO-1","amount":"abc"}`)

	h := &Handler{}
	h.PaymentNotify(c)

	resp := decodeEnvelope(t, w)
	if resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected code %d, got %d", response.CodeBadRequest, resp.StatusCode)
	}
}

func TestPreviewCommissionsRequiresLogin(t *testing.T) {
	w, c := postJSON(t, "/api/v1/me/referrals/preview", `{"amount":"100"}`)

	h := &Handler{}
	h.PreviewCommissions(c)

	resp := decodeEnvelope(t, w)
	if resp.StatusCode != response.CodeUnauthorized {
		t.Fatalf("expected code %d, got %d", response.CodeUnauthorized, resp.StatusCode)
	}
}

func TestPreviewCommissionsRejectsNonPositiveAmount(t *testing.T) {
	w, c := postJSON(t, "/api/v1/me/referrals/preview", `{"amount":"-5"}`)
	c.Set(constants.CtxUserIDKey, uint(1))

	h := &Handler{}
	h.PreviewCommissions(c)

	resp := decodeEnvelope(t, w)
	if resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected code %d, got %d", response.CodeBadRequest, resp.StatusCode)
	}
}

func TestBindReferrerRequiresTarget(t *testing.T) {
	w, c := postJSON(t, "/api/v1/me/referrals/bind", `{}`)
	c.Set(constants.CtxUserIDKey, uint(1))

	h := &Handler{}
	h.BindReferrer(c)

	resp := decodeEnvelope(t, w)
	if resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected code %d, got %d", response.CodeBadRequest, resp.StatusCode)
	}
}
