package vision

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestDescribe(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "A pile of Plastic bottles and Glass jars."}},
			},
		})
	}))
	defer server.Close()

	c := NewClassifier(server.Client(), ClassifierConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
		Model:    "gpt-4o",
	}, nil)

	desc, err := c.Describe(context.Background(), []byte("fake-image"))
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if desc != "A pile of Plastic bottles and Glass jars." {
		t.Fatalf("unexpected description: %q", desc)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if got := gjson.GetBytes(gotBody, "model").String(); got != "gpt-4o" {
		t.Fatalf("request model = %q, want gpt-4o", got)
	}
	if got := gjson.GetBytes(gotBody, "max_tokens").Int(); got != 300 {
		t.Fatalf("request max_tokens = %d, want default 300", got)
	}
	prompt := gjson.GetBytes(gotBody, "messages.0.content.0.text").String()
	if !strings.Contains(prompt, "Hazardous Household Waste (5 tokens)") {
		t.Fatalf("request prompt missing taxonomy entries: %q", prompt)
	}
	imageURL := gjson.GetBytes(gotBody, "messages.0.content.1.image_url.url").String()
	if !strings.HasPrefix(imageURL, "data:image/jpeg;base64,") {
		t.Fatalf("image not sent as a data URL: %q", imageURL)
	}
}

func TestDescribeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limit"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClassifier(server.Client(), ClassifierConfig{Endpoint: server.URL, APIKey: "k", Model: "m"}, nil)
	if _, err := c.Describe(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected an error for a 429 response")
	}
}

func TestDescribeEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	c := NewClassifier(server.Client(), ClassifierConfig{Endpoint: server.URL, APIKey: "k", Model: "m"}, nil)
	if _, err := c.Describe(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected an error when the response carries no content")
	}
}
