package tenant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Credentials{
		Endpoint: server.URL,
		Account:  "acct_test",
		Token:    "tok_test",
	})
}

func TestClient_ListObjects(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/objects", r.URL.Path)
		assert.Equal(t, "script", r.URL.Query().Get("family"))
		assert.Equal(t, "Bearer tok_test", r.Header.Get("Authorization"))
		assert.Equal(t, "acct_test", r.Header.Get("X-Tenant-Account"))

		json.NewEncoder(w).Encode([]RemoteObject{
			{Family: "script", Key: "custscript_a", Name: "a", Digest: "d1"},
		})
	})

	objects, err := client.ListObjects(context.Background(), "script")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "custscript_a", objects[0].Key)
}

func TestClient_SubmitBundle(t *testing.T) {
	bundle := &Bundle{
		Manifest: Manifest{ObjectKeys: []string{"custscript_a"}},
		Objects:  []json.RawMessage{json.RawMessage(`{"key":"custscript_a"}`)},
	}

	t.Run("accepted", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/bundles", r.URL.Path)
			assert.Equal(t, "run-1", r.Header.Get("X-Run-Id"))

			var got Bundle
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, []string{"custscript_a"}, got.Manifest.ObjectKeys)

			w.WriteHeader(http.StatusOK)
		})

		err := client.SubmitBundle(context.Background(), bundle, SubmitOptions{RunID: "run-1"})
		assert.NoError(t, err)
	})

	t.Run("validate only flag", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "true", r.URL.Query().Get("validate_only"))
			w.WriteHeader(http.StatusOK)
		})

		err := client.SubmitBundle(context.Background(), bundle, SubmitOptions{ValidateOnly: true})
		assert.NoError(t, err)
	})

	t.Run("classified rejection", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"kind":"objects_deploy","failed_objects":["custscript_a"]}`))
		})

		err := client.SubmitBundle(context.Background(), bundle, SubmitOptions{})
		require.Error(t, err)

		failure, ok := Classify(err)
		require.True(t, ok)
		assert.Equal(t, KindObjectsDeploy, failure.FailureKind())
	})

	t.Run("unclassifiable rejection", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"kind":"brand_new_failure_mode"}`))
		})

		err := client.SubmitBundle(context.Background(), bundle, SubmitOptions{})
		require.Error(t, err)
		_, ok := Classify(err)
		assert.False(t, ok)
	})

	t.Run("server error", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		err := client.SubmitBundle(context.Background(), bundle, SubmitOptions{})
		require.Error(t, err)
		_, ok := Classify(err)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("cancellation propagates", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := client.SubmitBundle(ctx, bundle, SubmitOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_ImportObjects(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/objects/import", r.URL.Path)
		var req struct {
			Family string   `json:"family"`
			Keys   []string `json:"keys"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "form", req.Family)

		json.NewEncoder(w).Encode(map[string]any{
			"documents": []map[string]string{{"key": "custform_x"}},
		})
	})

	docs, err := client.ImportObjects(context.Background(), "form", []string{"custform_x"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Run("plain env", func(t *testing.T) {
		t.Setenv(envEndpoint, "https://acme.example.com")
		t.Setenv(envAccount, "acme")
		t.Setenv(envToken, "secret")

		creds, err := CredentialsFromEnv(nil)
		require.NoError(t, err)
		assert.Equal(t, "https://acme.example.com", creds.Endpoint)
		assert.Equal(t, "acme", creds.Account)
	})

	t.Run("profile redirects env names", func(t *testing.T) {
		t.Setenv("ACME_PROD_ACCOUNT", "acme-prod")
		t.Setenv("ACME_PROD_TOKEN", "prod-secret")

		creds, err := CredentialsFromEnv(&Profile{
			Endpoint:   "https://prod.example.com",
			AccountEnv: "ACME_PROD_ACCOUNT",
			TokenEnv:   "ACME_PROD_TOKEN",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://prod.example.com", creds.Endpoint)
		assert.Equal(t, "acme-prod", creds.Account)
		assert.Equal(t, "prod-secret", creds.Token)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Setenv(envEndpoint, "https://acme.example.com")
		t.Setenv(envAccount, "acme")
		t.Setenv(envToken, "")

		_, err := CredentialsFromEnv(nil)
		assert.ErrorContains(t, err, "token not configured")
	})
}
