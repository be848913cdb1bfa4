package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const testClientJSON = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{}, nil)
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing spreadsheet id" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_InvalidOAuthClient(t *testing.T) {
	_, err := New(context.Background(), Options{
		SpreadsheetID:   "test-id",
		OAuthClientJSON: "invalid-json",
		OAuthTokenJSON:  `{"access_token":"test"}`,
	}, nil)
	if err == nil {
		t.Fatal("expected error with invalid JSON")
	}
	if !strings.Contains(err.Error(), "oauth config") {
		t.Errorf("expected oauth config error, got: %v", err)
	}
}

func TestNewSheetsService_MissingOAuthClient(t *testing.T) {
	_, err := newSheetsService(context.Background(), Options{}, log.Discard())
	if err == nil {
		t.Fatal("expected error for missing oauth client")
	}
	expectedMsg := "missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)"
	if err.Error() != expectedMsg {
		t.Errorf("expected %q, got %q", expectedMsg, err.Error())
	}
}

func TestNewSheetsService_MissingOAuthToken(t *testing.T) {
	_, err := newSheetsService(context.Background(), Options{OAuthClientJSON: testClientJSON}, log.Discard())
	if err == nil {
		t.Fatal("expected error for missing oauth token")
	}
	expectedMsg := "missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)"
	if err.Error() != expectedMsg {
		t.Errorf("expected %q, got %q", expectedMsg, err.Error())
	}
}

func TestNewSheetsService_InvalidToken(t *testing.T) {
	_, err := newSheetsService(context.Background(), Options{
		OAuthClientJSON: testClientJSON,
		OAuthTokenJSON:  "invalid-json",
	}, log.Discard())
	if err == nil || !strings.Contains(err.Error(), "oauth token") {
		t.Errorf("expected token parsing error, got: %v", err)
	}
}

func TestNewSheetsService_OAuthFromFiles(t *testing.T) {
	dir := t.TempDir()
	clientFile := filepath.Join(dir, "client.json")
	tokenFile := filepath.Join(dir, "token.json")
	if err := os.WriteFile(clientFile, []byte(testClientJSON), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tokenFile, []byte(`{"access_token":"test","token_type":"Bearer"}`), 0600); err != nil {
		t.Fatal(err)
	}

	svc, err := newSheetsService(context.Background(), Options{OAuthClientFile: clientFile, OAuthTokenFile: tokenFile}, log.Discard())
	if err != nil {
		t.Fatalf("newSheetsService() error = %v", err)
	}
	if svc == nil {
		t.Fatal("expected a service")
	}
}

func TestNewSheetsService_MissingServiceAccountFile(t *testing.T) {
	_, err := newSheetsService(context.Background(), Options{ServiceAccountFile: "/nonexistent/sa.json"}, log.Discard())
	if err == nil || !strings.Contains(err.Error(), "service account file") {
		t.Errorf("expected file error, got: %v", err)
	}
}

func TestJsonUnmarshalIndirection(t *testing.T) {
	data := []byte(`{"access_token":"test","token_type":"Bearer"}`)
	var token oauth2.Token

	if err := jsonUnmarshal(data, &token); err != nil {
		t.Fatalf("jsonUnmarshal failed: %v", err)
	}
	if token.AccessToken != "test" {
		t.Errorf("expected access token 'test', got %s", token.AccessToken)
	}

	if err := jsonUnmarshal([]byte(`{invalid json}`), &token); err == nil {
		t.Fatal("expected error with invalid JSON")
	}
}

func TestExportTransactions_Uninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Transactions", logger: log.Discard()}
	err := c.ExportTransactions(context.Background(), []core.Transaction{{ID: 1}})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got: %v", err)
	}
}

func TestQuoteSheet(t *testing.T) {
	tests := map[string]string{
		"Transactions":  "Transactions",
		"2024 Ledger":   "'2024 Ledger'",
		"Ann's ledger":  "'Ann''s ledger'",
		"Ledger!Mirror": "'Ledger!Mirror'",
	}
	for in, want := range tests {
		if got := quoteSheet(in); got != want {
			t.Errorf("quoteSheet(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTableValuesHasHeader(t *testing.T) {
	values := tableValues([]core.Transaction{{ID: 3, Type: core.Expense}})
	if len(values) != 2 {
		t.Fatalf("rows = %d, want 2", len(values))
	}
	if values[0][0] != "ID" || values[1][0] != int64(3) {
		t.Errorf("values = %v", values)
	}
}
