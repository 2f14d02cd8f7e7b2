package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gradfund/counselor/internal/chatlog"
	"github.com/gradfund/counselor/internal/config"
	"github.com/gradfund/counselor/internal/counsel"
	"github.com/gradfund/counselor/internal/observability"
)

var metricsSeq atomic.Int64

func testServer(c Counselor, archive *chatlog.Log) *httptest.Server {
	cfg := config.Config{
		RequestTimeout: 5 * time.Second,
	}
	if archive == nil {
		archive = chatlog.New()
	}
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%d", metricsSeq.Add(1)))
	return httptest.NewServer(New(cfg, c, archive, metrics).Router())
}

type stubCounselor struct {
	recommendations atomic.Int64
	resets          atomic.Int64
	failWith        error
}

func (s *stubCounselor) GetRecommendation(_ context.Context, _ counsel.StudentDetails, message, userID string) (counsel.Result, error) {
	s.recommendations.Add(1)
	if s.failWith != nil {
		return counsel.Result{}, s.failWith
	}
	return counsel.Result{
		Response:            "advice for " + userID + ": " + message,
		QueryRecommendation: "ask about collateral",
	}, nil
}

func (s *stubCounselor) ResetConversation(context.Context, string) {
	s.resets.Add(1)
}

func (s *stubCounselor) PersistFailures() int64 { return 2 }

func validChatBody() map[string]any {
	return map[string]any{
		"message": "What are my options?",
		"userId":  "u1",
		"student_details": map[string]any{
			"name":                "Asha",
			"origin_country":      "India",
			"destination_country": "USA",
			"loan_amount_needed":  "50000",
			"course_of_study":     "MS CS",
		},
	}
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	t.Cleanup(func() { res.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return res, decoded
}

func TestChatHappyPath(t *testing.T) {
	stub := &stubCounselor{}
	ts := testServer(stub, nil)
	defer ts.Close()

	res, body := postJSON(t, ts.URL+"/chat", validChatBody())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	inner, ok := body["response"].(map[string]any)
	if !ok {
		t.Fatalf("response field = %v, want object", body["response"])
	}
	if inner["response"] != "advice for u1: What are my options?" {
		t.Fatalf("response text = %v", inner["response"])
	}
	if inner["query_recommendation"] != "ask about collateral" {
		t.Fatalf("query_recommendation = %v", inner["query_recommendation"])
	}
}

func TestChatValidation(t *testing.T) {
	stub := &stubCounselor{}
	ts := testServer(stub, nil)
	defer ts.Close()

	body := validChatBody()
	delete(body, "userId")
	res, decoded := postJSON(t, ts.URL+"/chat", body)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if msg, _ := decoded["error"].(string); !strings.Contains(msg, "userId") {
		t.Fatalf("error = %q, want missing userId", msg)
	}

	body = validChatBody()
	details := body["student_details"].(map[string]any)
	delete(details, "loan_amount_needed")
	delete(details, "course_of_study")
	res, decoded = postJSON(t, ts.URL+"/chat", body)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	msg, _ := decoded["error"].(string)
	if !strings.Contains(msg, "loan_amount_needed") || !strings.Contains(msg, "course_of_study") {
		t.Fatalf("error = %q, want missing student fields", msg)
	}

	if stub.recommendations.Load() != 0 {
		t.Fatalf("counselor invoked %d times on invalid input, want 0", stub.recommendations.Load())
	}
}

func TestChatEmptyBody(t *testing.T) {
	ts := testServer(&stubCounselor{}, nil)
	defer ts.Close()

	res, err := http.Post(ts.URL+"/chat", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("POST /chat error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestChatResetShortCircuit(t *testing.T) {
	stub := &stubCounselor{}
	ts := testServer(stub, nil)
	defer ts.Close()

	body := validChatBody()
	body["message"] = "  ReSeT  "
	res, decoded := postJSON(t, ts.URL+"/chat", body)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if decoded["response"] != "Conversation reset successfully" {
		t.Fatalf("response = %v, want reset confirmation", decoded["response"])
	}
	if stub.resets.Load() != 1 {
		t.Fatalf("resets = %d, want 1", stub.resets.Load())
	}
	if stub.recommendations.Load() != 0 {
		t.Fatalf("model pipeline invoked %d times on reset, want 0", stub.recommendations.Load())
	}
}

func TestChatPipelineFailure(t *testing.T) {
	stub := &stubCounselor{failWith: &counsel.PipelineError{
		Stage: "generate recommendation",
		Err:   errors.New("provider down"),
	}}
	ts := testServer(stub, nil)
	defer ts.Close()

	res, decoded := postJSON(t, ts.URL+"/chat", validChatBody())
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadGateway)
	}
	msg, _ := decoded["error"].(string)
	if !strings.Contains(msg, "An error occurred while generating a recommendation") {
		t.Fatalf("error = %q", msg)
	}
}

func TestResetEndpoint(t *testing.T) {
	stub := &stubCounselor{}
	ts := testServer(stub, nil)
	defer ts.Close()

	res, decoded := postJSON(t, ts.URL+"/reset", map[string]string{"userId": "u1"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if decoded["message"] != "Conversation history cleared successfully" {
		t.Fatalf("message = %v", decoded["message"])
	}
	if stub.resets.Load() != 1 {
		t.Fatalf("resets = %d, want 1", stub.resets.Load())
	}

	res, decoded = postJSON(t, ts.URL+"/reset", map[string]string{})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status without userId = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if msg, _ := decoded["error"].(string); !strings.Contains(msg, "userId") {
		t.Fatalf("error = %q, want missing userId", msg)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	archive := chatlog.New()
	archive.Add("u1", "q", "a")
	ts := testServer(&stubCounselor{}, archive)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/history/u1")
	if err != nil {
		t.Fatalf("GET history error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var decoded struct {
		UserID    string             `json:"user_id"`
		Exchanges []chatlog.Exchange `json:"exchanges"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if decoded.UserID != "u1" || len(decoded.Exchanges) != 1 {
		t.Fatalf("unexpected history payload: %+v", decoded)
	}
}

func TestHealthReportsPersistFailures(t *testing.T) {
	ts := testServer(&stubCounselor{}, nil)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer res.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if decoded["status"] != "ok" {
		t.Fatalf("status field = %v", decoded["status"])
	}
	if decoded["persist_failures"] != float64(2) {
		t.Fatalf("persist_failures = %v, want 2", decoded["persist_failures"])
	}
}
