package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mzhuravlev/fittrack/internal/config"
	"github.com/mzhuravlev/fittrack/internal/handlers"
	"github.com/mzhuravlev/fittrack/internal/hash"
	"github.com/mzhuravlev/fittrack/internal/models"
	"github.com/mzhuravlev/fittrack/internal/token"
	httpserver "github.com/mzhuravlev/fittrack/internal/transport/http"
)

type testEnv struct {
	e      *echo.Echo
	db     *gorm.DB
	tokens *token.Service
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithEcho(t, echo.New())
}

// newTestEnvWithEcho registers the router on a caller-provided echo
// instance, so tests can carry the server's middleware stack.
func newTestEnvWithEcho(t *testing.T, e *echo.Echo) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	tokens := &token.Service{
		DB: db,
		Cfg: token.Config{
			Secret:     []byte("test-secret"),
			Issuer:     "fittrack",
			Audience:   "fittrack-api",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
	}

	deps := httpserver.Deps{
		Tokens:          tokens,
		AuthHandler:     &handlers.AuthHandler{DB: db, Tokens: tokens},
		PlanHandler:     &handlers.PlanHandler{DB: db},
		WorkoutHandler:  &handlers.WorkoutHandler{DB: db},
		ExerciseHandler: &handlers.ExerciseHandler{DB: db},
		CommentHandler:  &handlers.CommentHandler{DB: db},
		RatingHandler:   &handlers.RatingHandler{DB: db},
		SearchHandler:   handlers.NewSearchHandler(nil, "training_plans"),
	}
	httpserver.Register(e, &deps)

	return &testEnv{e: e, db: db, tokens: tokens}
}

// seedUser creates a user with the given role and returns a valid access
// token for it.
func (env *testEnv) seedUser(t *testing.T, username, password, role string) string {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(t, env.db.Create(&user).Error)

	access, _, err := env.tokens.IssueAccessToken(user)
	require.NoError(t, err)
	return access
}

func (env *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
