//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Exercises a running server end to end. Start one first, e.g.:
//
//	STORE_DRIVER=memory go run ./cmd/server
//	go test -tags e2e ./test/e2e
const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	defaultSecret  = "change-this-to-a-secure-random-string"
	tenantID       = "e2e-tenant"
	companyID      = "e2e-company"
	userID         = "e2e-author"
)

var (
	baseURL   string
	authToken string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = defaultSecret
	}

	token, err := mintToken(secret)
	if err != nil {
		fmt.Printf("Token setup failed: %v\n", err)
		os.Exit(1)
	}
	authToken = token

	os.Exit(m.Run())
}

func mintToken(secret string) (string, error) {
	claims := jwt.MapClaims{
		"tenant_id":  tenantID,
		"company_id": companyID,
		"user_id":    userID,
		"role":       "author",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// doJSON issues an authenticated request and decodes the response envelope.
func doJSON(t *testing.T, method, path string, payload any) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var envelope map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, envelope
}

func TestHealth(t *testing.T) {
	resp, err := http.Get(baseURL[:len(baseURL)-len("/api/v1")] + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	resp, err := http.Get(baseURL + "/papers")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}
}

func TestPaperLifecycle(t *testing.T) {
	// Create a draft paper.
	status, env := doJSON(t, http.MethodPost, "/papers", map[string]any{
		"title": "E2E Lifecycle Paper",
	})
	if status != http.StatusCreated {
		t.Fatalf("create status = %d: %v", status, env)
	}
	paper := env["data"].(map[string]any)["paper"].(map[string]any)
	paperID := paper["id"].(string)
	if paper["status"] != "draft" {
		t.Fatalf("new paper status = %v, want draft", paper["status"])
	}

	// Add a section.
	status, env = doJSON(t, http.MethodPost, "/papers/"+paperID+"/sections", map[string]any{
		"name":       "Section A",
		"time_limit": 30,
	})
	if status != http.StatusOK {
		t.Fatalf("add section status = %d: %v", status, env)
	}

	// Finalizing with an empty section must name the offender.
	status, env = doJSON(t, http.MethodPost, "/papers/"+paperID+"/finalize", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("finalize status = %d, want 400: %v", status, env)
	}
	errBody := env["error"].(map[string]any)
	if msg := errBody["message"].(string); msg != `Section "Section A" has no questions` {
		t.Fatalf("finalize message = %q", msg)
	}

	// Delete the draft.
	status, env = doJSON(t, http.MethodDelete, "/papers/"+paperID, nil)
	if status != http.StatusOK {
		t.Fatalf("delete status = %d: %v", status, env)
	}

	status, _ = doJSON(t, http.MethodGet, "/papers/"+paperID, nil)
	if status != http.StatusNotFound {
		t.Fatalf("get deleted status = %d, want 404", status)
	}
}

func TestGradeAttemptWithStaleReference(t *testing.T) {
	status, env := doJSON(t, http.MethodPost, "/attempts/grade", map[string]any{
		"answers": []map[string]any{
			{"question_id": uuid.NewString(), "answer": float64(1), "max_marks": 4},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("grade status = %d: %v", status, env)
	}

	answers := env["data"].(map[string]any)["attempt"].(map[string]any)["answers"].([]any)
	first := answers[0].(map[string]any)
	if first["is_correct"] != nil || first["marks_awarded"] != nil {
		t.Fatalf("stale reference should grade to nil verdicts, got %v", first)
	}
}
