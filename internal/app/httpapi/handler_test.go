package httpapi

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/greenloop/ecobot/internal/app/services/vision"
	"github.com/greenloop/ecobot/internal/app/services/wallet"
	"github.com/greenloop/ecobot/internal/app/storage"
	"github.com/greenloop/ecobot/internal/config"
	"github.com/greenloop/ecobot/internal/discord"
	"github.com/greenloop/ecobot/internal/metrics"
)

type fakeResponder struct {
	responses []discord.InteractionResponse
	dms       []discord.Embed
	dmUsers   []string
	failWith  error
	dmErr     error
}

func (f *fakeResponder) RespondInteraction(ctx context.Context, interactionID, token string, response discord.InteractionResponse) (int, []byte, error) {
	if f.failWith != nil {
		return 0, nil, f.failWith
	}
	f.responses = append(f.responses, response)
	return http.StatusNoContent, nil, nil
}

func (f *fakeResponder) SendDM(ctx context.Context, recipientID string, embed discord.Embed) error {
	if f.dmErr != nil {
		return f.dmErr
	}
	f.dmUsers = append(f.dmUsers, recipientID)
	f.dms = append(f.dms, embed)
	return nil
}

type fakeAnalyzer struct {
	description string
	award       int64
	err         error
	calls       int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, url string) (string, int64, error) {
	f.calls++
	return f.description, f.award, f.err
}

type testEnv struct {
	handler   *Handler
	responder *fakeResponder
	analyzer  *fakeAnalyzer
	store     *storage.Memory
	priv      ed25519.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	responder := &fakeResponder{}
	analyzer := &fakeAnalyzer{}
	store := storage.NewMemory()
	walletSvc := wallet.New(store, nil)
	handler := NewHandler(hex.EncodeToString(pub), config.DefaultCatalog(), walletSvc, responder, analyzer, metrics.New(), nil)

	return &testEnv{
		handler:   handler,
		responder: responder,
		analyzer:  analyzer,
		store:     store,
		priv:      priv,
	}
}

// signedRequest builds a webhook request whose signature covers
// timestamp plus body.
func (e *testEnv) signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()

	timestamp := "1700000000"
	sig := ed25519.Sign(e.priv, append([]byte(timestamp), []byte(body)...))

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", timestamp)
	return req
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.Interactions(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, userID string, tokens int64) {
	t.Helper()
	if _, err := e.store.AdjustBalance(context.Background(), userID, tokens); err != nil {
		t.Fatalf("seed balance: %v", err)
	}
}

func commandBody(name, userID string, options ...discord.Option) string {
	interaction := discord.Interaction{
		Type:   discord.InteractionApplicationCommand,
		ID:     "inter-1",
		Token:  "tok-1",
		Member: &discord.Member{User: discord.User{ID: userID}},
		Data:   &discord.CommandData{Name: name, Options: options},
	}
	raw, _ := json.Marshal(interaction)
	return string(raw)
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload["error"]
}

func lastContent(t *testing.T, responder *fakeResponder) string {
	t.Helper()
	if len(responder.responses) == 0 {
		t.Fatal("no interaction response was sent")
	}
	resp := responder.responses[len(responder.responses)-1]
	if resp.Type != discord.ResponseChannelMessage {
		t.Fatalf("response type = %d, want %d", resp.Type, discord.ResponseChannelMessage)
	}
	if resp.Data == nil {
		t.Fatal("response carries no data")
	}
	return resp.Data.Content
}

func TestInteractionsMissingSignatureHeaders(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(`{"type":1}`))
	rec := env.serve(req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Missing signature or timestamp" {
		t.Fatalf("unexpected error message: %q", got)
	}
	if len(env.responder.responses) != 0 {
		t.Fatal("no callback should fire for an unauthenticated request")
	}
}

func TestInteractionsInvalidSignature(t *testing.T) {
	env := newTestEnv(t)

	req := env.signedRequest(t, commandBody("balance", "u1"))
	req.Header.Set("X-Signature-Timestamp", "1700000099")
	rec := env.serve(req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Invalid request signature" {
		t.Fatalf("unexpected error message: %q", got)
	}
	if len(env.responder.responses) != 0 || env.analyzer.calls != 0 {
		t.Fatal("rejected request must not reach command handlers")
	}
}

func TestInteractionsPing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(env.signedRequest(t, `{"type":1}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode pong: %v", err)
	}
	if payload["type"] != 1 {
		t.Fatalf("pong type = %d, want 1", payload["type"])
	}
	if len(env.responder.responses) != 0 {
		t.Fatal("pings are answered inline, not through the callback")
	}
}

func TestInteractionsBase64Body(t *testing.T) {
	env := newTestEnv(t)

	raw := `{"type":1}`
	timestamp := "1700000000"
	sig := ed25519.Sign(env.priv, append([]byte(timestamp), []byte(raw)...))

	encoded := base64.StdEncoding.EncodeToString([]byte(raw))
	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(encoded))
	req.Header.Set("Content-Transfer-Encoding", "base64")
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", timestamp)

	rec := env.serve(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
}

func TestInteractionsMalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(env.signedRequest(t, `{"type":`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Invalid JSON" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestInteractionsUnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "u1", 15)

	rec := env.serve(env.signedRequest(t, commandBody("foo", "u1")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Unknown command" {
		t.Fatalf("unexpected error message: %q", got)
	}
	if len(env.responder.responses) != 0 || env.analyzer.calls != 0 {
		t.Fatal("unknown commands must not reach any adapter")
	}
	if got := env.handler.wallet.Balance(context.Background(), "u1"); got != 15 {
		t.Fatalf("balance changed on unknown command: %d", got)
	}
}

func TestHandleBalance(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "u1", 15)

	rec := env.serve(env.signedRequest(t, commandBody("balance", "u1")))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want the callback status mirrored", rec.Code)
	}
	if got := lastContent(t, env.responder); got != "<@u1>, you have 15 tokens." {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestHandleBalanceUnknownUserReadsZero(t *testing.T) {
	env := newTestEnv(t)

	env.serve(env.signedRequest(t, commandBody("balance", "nobody")))

	if got := lastContent(t, env.responder); got != "<@nobody>, you have 0 tokens." {
		t.Fatalf("unexpected reply: %q", got)
	}
	if env.store.Len() != 0 {
		t.Fatal("a balance read must not create a record")
	}
}

func TestHandleBalanceMissingUser(t *testing.T) {
	env := newTestEnv(t)

	body := `{"type":2,"id":"i","token":"t","data":{"name":"balance"}}`
	rec := env.serve(env.signedRequest(t, body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Invalid user information" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestHandleShop(t *testing.T) {
	env := newTestEnv(t)

	env.serve(env.signedRequest(t, commandBody("shop", "u1")))

	want := "**Shop Items:**\nitem1: 10 tokens\nitem2: 20 tokens\nitem3: 30 tokens"
	if got := lastContent(t, env.responder); got != want {
		t.Fatalf("unexpected shop listing:\n got %q\nwant %q", got, want)
	}
}

func TestHandleBuySuccess(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "u1", 15)

	rec := env.serve(env.signedRequest(t, commandBody("buy", "u1", discord.Option{Name: "item", Value: "item1"})))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want the callback status mirrored", rec.Code)
	}
	if got := lastContent(t, env.responder); got != "<@u1>, you bought item1 for 10 tokens!" {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := env.handler.wallet.Balance(context.Background(), "u1"); got != 5 {
		t.Fatalf("balance after purchase = %d, want 5", got)
	}
	if len(env.responder.dms) != 1 {
		t.Fatalf("expected one receipt DM, got %d", len(env.responder.dms))
	}
	if env.responder.dmUsers[0] != "u1" {
		t.Fatalf("receipt sent to %q, want u1", env.responder.dmUsers[0])
	}
	receipt := env.responder.dms[0]
	if receipt.Title != "Transaction Receipt" {
		t.Fatalf("receipt title = %q", receipt.Title)
	}
	if !strings.Contains(receipt.Description, "**item1**") || !strings.Contains(receipt.Description, "**10 tokens**") {
		t.Fatalf("receipt description = %q", receipt.Description)
	}
}

func TestHandleBuyInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "u1", 5)

	rec := env.serve(env.signedRequest(t, commandBody("buy", "u1", discord.Option{Name: "item", Value: "item1"})))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, rejection is still a normal reply", rec.Code)
	}
	if got := lastContent(t, env.responder); got != "<@u1>, you don't have enough tokens to buy item1!" {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := env.handler.wallet.Balance(context.Background(), "u1"); got != 5 {
		t.Fatalf("rejected purchase changed the balance: %d", got)
	}
	if len(env.responder.dms) != 0 {
		t.Fatal("no receipt should be sent for a rejected purchase")
	}
}

func TestHandleBuyUnknownItem(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "u1", 100)

	env.serve(env.signedRequest(t, commandBody("buy", "u1", discord.Option{Name: "item", Value: "item9"})))

	if got := lastContent(t, env.responder); got != "<@u1>, the item item9 does not exist in the shop." {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := env.handler.wallet.Balance(context.Background(), "u1"); got != 100 {
		t.Fatalf("unknown item changed the balance: %d", got)
	}
}

func TestHandleBuyMissingOption(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(env.signedRequest(t, commandBody("buy", "u1")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Invalid item" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestHandleBuyReceiptFailureDoesNotFailPurchase(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "u1", 15)
	env.responder.dmErr = errors.New("dm channel closed")

	rec := env.serve(env.signedRequest(t, commandBody("buy", "u1", discord.Option{Name: "item", Value: "item1"})))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, receipt failure must not fail the purchase", rec.Code)
	}
	if got := lastContent(t, env.responder); got != "<@u1>, you bought item1 for 10 tokens!" {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := env.handler.wallet.Balance(context.Background(), "u1"); got != 5 {
		t.Fatalf("balance after purchase = %d, want 5", got)
	}
}

func TestHandleSubmitImageSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "u1", 2)
	env.analyzer.description = "Plastic bottles and Glass jars."
	env.analyzer.award = 3

	rec := env.serve(env.signedRequest(t, commandBody("submit_image", "u1", discord.Option{Name: "url", Value: "https://example.com/photo.jpg"})))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want the callback status mirrored", rec.Code)
	}
	want := fmt.Sprintf(
		"<@u1>, here is what I found in the image:\n%s\nYou have earned 3 tokens. Your new balance is 5 tokens.",
		env.analyzer.description,
	)
	if got := lastContent(t, env.responder); got != want {
		t.Fatalf("unexpected reply:\n got %q\nwant %q", got, want)
	}
	if got := env.handler.wallet.Balance(context.Background(), "u1"); got != 5 {
		t.Fatalf("balance after award = %d, want 5", got)
	}
}

func TestHandleSubmitImageNotImage(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.err = fmt.Errorf("wrapped: %w", vision.ErrNotImage)

	rec := env.serve(env.signedRequest(t, commandBody("submit_image", "u1", discord.Option{Name: "url", Value: "https://example.com/page.html"})))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, a non-image link is a normal reply", rec.Code)
	}
	if got := lastContent(t, env.responder); got != "<@u1>, that link does not point to an image, so I could not analyze it." {
		t.Fatalf("unexpected reply: %q", got)
	}
	if env.store.Len() != 0 {
		t.Fatal("no tokens should be credited for a rejected submission")
	}
}

func TestHandleSubmitImageAnalyzerError(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.err = errors.New("classification call failed")

	rec := env.serve(env.signedRequest(t, commandBody("submit_image", "u1", discord.Option{Name: "url", Value: "https://example.com/photo.jpg"})))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Failed to analyze the image" {
		t.Fatalf("unexpected error message: %q", got)
	}
	if env.store.Len() != 0 {
		t.Fatal("no tokens should be credited when analysis fails")
	}
}

func TestHandleSubmitImageMissingOption(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(env.signedRequest(t, commandBody("submit_image", "u1")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Invalid request payload" {
		t.Fatalf("unexpected error message: %q", got)
	}
	if env.analyzer.calls != 0 {
		t.Fatal("analyzer must not run without a url option")
	}
}

func TestRespondCallbackFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "u1", 15)
	env.responder.failWith = errors.New("discord unreachable")

	rec := env.serve(env.signedRequest(t, commandBody("balance", "u1")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Failed to send interaction response" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestWriteErrorUnclassifiedFailure(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.writeError(context.Background(), rec, errors.New("torn cable"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Internal server error" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if payload["status"] != "healthy" {
		t.Fatalf("unexpected health payload: %v", payload)
	}
}
