package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/evekey-api/internal/config"
	"github.com/phrazzld/evekey-api/internal/domain"
	"github.com/phrazzld/evekey-api/internal/platform/eveapi"
	"github.com/phrazzld/evekey-api/internal/task"
)

func newAdapterAgainst(t *testing.T, handler http.HandlerFunc) (*VerifierAdapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := eveapi.NewClient(config.EveAPIConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, nil, nil)
	require.NoError(t, err)

	adapter, err := NewVerifierAdapter(client)
	require.NoError(t, err)
	return adapter, server
}

func TestNewVerifierAdapter_NilClient(t *testing.T) {
	_, err := NewVerifierAdapter(nil)
	assert.Error(t, err)
}

func TestVerifierAdapter_SortsByName(t *testing.T) {
	adapter, _ := newAdapterAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<eveapi version="2"><result><key>
			<rowset name="characters">
				<row characterName="Zed" corporationName="Corp Z"/>
				<row characterName="Alice" corporationName="Corp A"/>
			</rowset>
		</key></result></eveapi>`))
	})

	chars, err := adapter.VerifyKey(context.Background(), 42, "abc")
	require.NoError(t, err)
	assert.Equal(t, []domain.Character{
		{Name: "Alice", Corporation: "Corp A"},
		{Name: "Zed", Corporation: "Corp Z"},
	}, chars)
}

func TestVerifierAdapter_TranslatesInvalidKey(t *testing.T) {
	adapter, _ := newAdapterAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<eveapi version="2"><result><key>
			<rowset name="characters"/>
		</key></result></eveapi>`))
	})

	_, err := adapter.VerifyKey(context.Background(), 42, "abc")
	assert.ErrorIs(t, err, task.ErrInvalidKey)
}

func TestVerifierAdapter_TranslatesUnreachable(t *testing.T) {
	adapter, server := newAdapterAgainst(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close() // nothing is listening

	_, err := adapter.VerifyKey(context.Background(), 42, "abc")
	assert.ErrorIs(t, err, task.ErrProviderUnreachable)
}
