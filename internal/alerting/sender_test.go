package alerting

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanley1208/ADK/internal/alertsubscription"
	"github.com/stanley1208/ADK/internal/alertsubscription/repositoryimpl"
	"github.com/stanley1208/ADK/internal/config"
	"github.com/stanley1208/ADK/pkg/storage"
)

func newTestRepo(t *testing.T) alertsubscription.Repository {
	t.Helper()
	store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	return repositoryimpl.NewYAMLRepository(store)
}

// subscriptionKeys builds a valid browser key pair for payload encryption.
func subscriptionKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	authBytes := make([]byte, 16)
	_, err = rand.Read(authBytes)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(authBytes)
}

func testVAPIDEnv(t *testing.T) *config.VAPIDEnv {
	t.Helper()
	private, public, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return &config.VAPIDEnv{
		VAPIDPublicKey:  public,
		VAPIDPrivateKey: private,
		VAPIDContact:    "mailto:ops@example.com",
	}
}

func TestSendToAllPrunesExpiredSubscriptions(t *testing.T) {
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer gone.Close()

	var delivered atomic.Int32
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer live.Close()

	repo := newTestRepo(t)
	ctx := context.Background()
	p256dh, auth := subscriptionKeys(t)
	expiredSub := &alertsubscription.Subscription{
		ID: "01EXPIRED", Endpoint: gone.URL, P256dhKey: p256dh, AuthKey: auth, CreatedAt: time.Now(),
	}
	liveSub := &alertsubscription.Subscription{
		ID: "01LIVE", Endpoint: live.URL, P256dhKey: p256dh, AuthKey: auth, CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, expiredSub))
	require.NoError(t, repo.Create(ctx, liveSub))

	s := NewSender(testVAPIDEnv(t), repo)
	s.SendToAll(ctx, &NotificationPayload{Title: "Disaster Response Alert", Body: "test"})

	// The 410 Gone endpoint's subscription is removed, the live one stays.
	subs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, liveSub.ID, subs[0].ID)
	assert.EqualValues(t, 1, delivered.Load())
}

func TestSendToAllWithoutVAPIDKeys(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no push should be attempted without VAPID keys")
	}))
	defer endpoint.Close()

	repo := newTestRepo(t)
	p256dh, auth := subscriptionKeys(t)
	require.NoError(t, repo.Create(context.Background(), &alertsubscription.Subscription{
		ID: "01SUB", Endpoint: endpoint.URL, P256dhKey: p256dh, AuthKey: auth, CreatedAt: time.Now(),
	}))

	s := NewSender(&config.VAPIDEnv{}, repo)
	s.SendToAll(context.Background(), &NotificationPayload{Title: "t", Body: "b"})
}
