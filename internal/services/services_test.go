package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradejournal/internal/models"
	"tradejournal/internal/store/filestore"
)

type env struct {
	store     *filestore.Store
	auth      *AuthService
	users     *UserService
	journals  *JournalService
	trades    *TradeService
	playbooks *PlaybookService
	analytics *AnalyticsService
	imports   *ImportService
}

var testKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

func newEnv(t *testing.T, notesKey string) *env {
	t.Helper()
	st, err := filestore.Open(t.TempDir(), filestore.Options{})
	require.NoError(t, err)
	enc, err := NewEncryptionService(notesKey)
	require.NoError(t, err)

	log := zap.NewNop()
	journals := NewJournalService(st, enc, log)
	return &env{
		store:     st,
		auth:      NewAuthService(st, []byte("test-secret"), time.Hour, log),
		users:     NewUserService(st, log),
		journals:  journals,
		trades:    NewTradeService(st, journals, enc, log),
		playbooks: NewPlaybookService(st, log),
		analytics: NewAnalyticsService(st, enc, log),
		imports:   NewImportService(st, enc, log),
	}
}

// signup creates an approved account.
func (e *env) signup(t *testing.T, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	u, err := e.auth.Signup(ctx, Credentials{Email: email, Password: "password1"})
	require.NoError(t, err)
	if !u.IsApproved {
		u, err = e.users.Approve(ctx, u.ID)
		require.NoError(t, err)
	}
	return u
}

func (e *env) defaultJournal(t *testing.T, userID string) models.Journal {
	t.Helper()
	js, err := e.journals.List(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, js)
	return js[0]
}

func ptr[T any](v T) *T { return &v }
