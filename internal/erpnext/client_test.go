// Package erpnext_test tests the ERPNext client against a local test server.
package erpnext_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edgard/salesbridge/internal/config"
	"github.com/edgard/salesbridge/internal/erpnext"
)

const (
	testKey    = "3739e78cec4e139"
	testSecret = "2a428d03deaceb8"
)

func newTestClient(t *testing.T, handler http.Handler) *erpnext.HTTPClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.ERPNextConfig{
		BaseURL:        srv.URL,
		VerifyEndpoint: "/api/method/frappe.auth.get_logged_user",
		CustomerGroup:  "Commercial",
		CustomerType:   "Company",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return erpnext.NewHTTPClient(cfg, logger)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encoding test response: %v", err)
	}
}

func TestVerifyCredentials(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		var gotAuth string
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			if r.URL.Path != "/api/method/frappe.auth.get_logged_user" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			writeJSON(t, w, http.StatusOK, map[string]string{"message": "manager@example.com"})
		}))

		if err := client.VerifyCredentials(context.Background(), testKey, testSecret); err != nil {
			t.Fatalf("VerifyCredentials() error = %v", err)
		}
		if want := "token " + testKey + ":" + testSecret; gotAuth != want {
			t.Errorf("Authorization header = %q, want %q", gotAuth, want)
		}
	})

	t.Run("rejected with message", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "Invalid API Key"})
		}))

		err := client.VerifyCredentials(context.Background(), testKey, "wrong")

		var apiErr *erpnext.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("VerifyCredentials() error = %v, want *APIError", err)
		}
		if apiErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", apiErr.StatusCode, http.StatusUnauthorized)
		}
		if apiErr.Detail != "Invalid API Key" {
			t.Errorf("detail = %q, want %q", apiErr.Detail, "Invalid API Key")
		}
		if got := apiErr.Error(); got != "HTTP 401: Invalid API Key" {
			t.Errorf("Error() = %q", got)
		}
	})

	t.Run("skipped without base url", func(t *testing.T) {
		t.Parallel()

		cfg := config.ERPNextConfig{VerifyEndpoint: "/api/method/frappe.auth.get_logged_user"}
		client := erpnext.NewHTTPClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

		if err := client.VerifyCredentials(context.Background(), testKey, testSecret); err != nil {
			t.Errorf("VerifyCredentials() without base URL error = %v", err)
		}
	})
}

func TestListResourceNames(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/resource/Item Group" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		query := r.URL.Query()
		if got := query.Get("fields"); got != `["name"]` {
			t.Errorf("fields = %q", got)
		}
		if got := query.Get("limit_page_length"); got != "500" {
			t.Errorf("limit_page_length = %q", got)
		}
		if got := query.Get("order_by"); got != "name asc" {
			t.Errorf("order_by = %q", got)
		}

		writeJSON(t, w, http.StatusOK, map[string]any{
			"data": []map[string]string{
				{"name": "Consumables"},
				{"name": "Products"},
				{"name": ""},
			},
		})
	}))

	names, err := client.ListResourceNames(context.Background(), testKey, testSecret, "Item Group", 500)
	if err != nil {
		t.Fatalf("ListResourceNames() error = %v", err)
	}

	want := []string{"Consumables", "Products"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFindCustomer(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var filters [][]any
			if err := json.Unmarshal([]byte(r.URL.Query().Get("filters")), &filters); err != nil {
				t.Errorf("decoding filters: %v", err)
			} else if len(filters) != 1 || len(filters[0]) != 4 || filters[0][3] != "Wholesale Buyers" {
				t.Errorf("unexpected filters %v", filters)
			}
			if got := r.URL.Query().Get("limit_page_length"); got != "1" {
				t.Errorf("limit_page_length = %q", got)
			}

			writeJSON(t, w, http.StatusOK, map[string]any{
				"data": []map[string]string{{"name": "CUST-00042"}},
			})
		}))

		docname, err := client.FindCustomer(context.Background(), testKey, testSecret, "Wholesale Buyers")
		if err != nil {
			t.Fatalf("FindCustomer() error = %v", err)
		}
		if docname != "CUST-00042" {
			t.Errorf("docname = %q, want %q", docname, "CUST-00042")
		}
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{"data": []any{}})
		}))

		docname, err := client.FindCustomer(context.Background(), testKey, testSecret, "Nobody")
		if err != nil {
			t.Fatalf("FindCustomer() error = %v", err)
		}
		if docname != "" {
			t.Errorf("docname = %q, want empty", docname)
		}
	})
}

func TestCreateCustomer(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/resource/Customer" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if payload["customer_name"] != "Wholesale Buyers" ||
			payload["customer_group"] != "Commercial" ||
			payload["customer_type"] != "Company" {
			t.Errorf("unexpected payload %v", payload)
		}

		writeJSON(t, w, http.StatusOK, map[string]any{
			"data": map[string]string{"name": "CUST-00042"},
		})
	}))

	docname, err := client.CreateCustomer(context.Background(), testKey, testSecret, "Wholesale Buyers")
	if err != nil {
		t.Fatalf("CreateCustomer() error = %v", err)
	}
	if docname != "CUST-00042" {
		t.Errorf("docname = %q, want %q", docname, "CUST-00042")
	}
}

func TestCreateItem(t *testing.T) {
	t.Parallel()

	t.Run("success issues one insert", func(t *testing.T) {
		t.Parallel()

		var posts int
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/resource/Item" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			posts++

			var payload map[string]string
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decoding body: %v", err)
			}
			if payload["item_code"] != "SKU-001" ||
				payload["item_name"] != "Hand Soap" ||
				payload["item_group"] != "Consumables" ||
				payload["stock_uom"] != "Nos" {
				t.Errorf("unexpected payload %v", payload)
			}

			writeJSON(t, w, http.StatusOK, map[string]any{
				"data": map[string]string{"name": "SKU-001"},
			})
		}))

		item := erpnext.Item{Code: "SKU-001", Name: "Hand Soap", Group: "Consumables", Unit: "Nos"}
		if err := client.CreateItem(context.Background(), testKey, testSecret, item); err != nil {
			t.Fatalf("CreateItem() error = %v", err)
		}
		if posts != 1 {
			t.Errorf("insert issued %d times, want exactly 1", posts)
		}
	})

	t.Run("validation failure surfaces server messages", func(t *testing.T) {
		t.Parallel()

		inner, err := json.Marshal(map[string]string{"message": "Item Code is required"})
		if err != nil {
			t.Fatalf("building server message: %v", err)
		}
		outer, err := json.Marshal([]string{string(inner)})
		if err != nil {
			t.Fatalf("building server messages list: %v", err)
		}

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusExpectationFailed, map[string]string{
				"exc_type":         "ValidationError",
				"_server_messages": string(outer),
			})
		}))

		item := erpnext.Item{Code: "", Name: "Hand Soap", Group: "Consumables", Unit: "Nos"}
		createErr := client.CreateItem(context.Background(), testKey, testSecret, item)

		var apiErr *erpnext.APIError
		if !errors.As(createErr, &apiErr) {
			t.Fatalf("CreateItem() error = %v, want *APIError", createErr)
		}
		if apiErr.Detail != "Item Code is required" {
			t.Errorf("detail = %q, want %q", apiErr.Detail, "Item Code is required")
		}
	})
}

func TestFetchReportRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		payload  string
		wantRows int
	}{
		{
			name:     "object with data list",
			payload:  `{"data": [{"name": "LEAD-001"}, {"name": "LEAD-002"}]}`,
			wantRows: 2,
		},
		{
			name:     "bare list",
			payload:  `[{"name": "LEAD-001"}]`,
			wantRows: 1,
		},
		{
			name:     "single object",
			payload:  `{"name": "LEAD-001"}`,
			wantRows: 1,
		},
		{
			name:     "empty data",
			payload:  `{"data": []}`,
			wantRows: 0,
		},
		{
			name:     "list with non-object entries",
			payload:  `{"data": [{"name": "LEAD-001"}, "noise", 42]}`,
			wantRows: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/resource/Lead" {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				if got := r.URL.Query().Get("order_by"); got != "modified desc" {
					t.Errorf("order_by = %q", got)
				}

				w.Header().Set("Content-Type", "application/json")
				if _, err := io.WriteString(w, tc.payload); err != nil {
					t.Errorf("writing test response: %v", err)
				}
			}))

			rows, err := client.FetchReportRows(context.Background(), testKey, testSecret,
				"Lead", []string{"name", "owner", "status", "creation"}, 5)
			if err != nil {
				t.Fatalf("FetchReportRows() error = %v", err)
			}
			if len(rows) != tc.wantRows {
				t.Errorf("rows = %d, want %d", len(rows), tc.wantRows)
			}
		})
	}
}

func TestErrorDetailFallsBackToRawBody(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		if _, err := io.WriteString(w, "  upstream exploded  "); err != nil {
			t.Errorf("writing test response: %v", err)
		}
	}))

	_, err := client.ListResourceNames(context.Background(), testKey, testSecret, "Item Group", 500)

	var apiErr *erpnext.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Detail != "upstream exploded" {
		t.Errorf("detail = %q, want trimmed raw body", apiErr.Detail)
	}
	if !strings.HasPrefix(apiErr.Error(), "HTTP 502: ") {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}
