package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/store/memstore"
	"github.com/cppla/blogapi/utils"
)

type apiClient struct {
	t *testing.T
	r *gin.Engine
}

func newAPI(t *testing.T, cfg config.AppConfig) *apiClient {
	t.Helper()
	if cfg.GinMode == "" {
		cfg.GinMode = "test"
	}
	r := SetupRouter(cfg, Dependencies{
		Store:  memstore.New(),
		Tokens: utils.NewTokenService("test-secret", time.Hour),
		Hasher: utils.NewBcryptHasher(bcrypt.MinCost),
	})
	return &apiClient{t: t, r: r}
}

func (c *apiClient) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (c *apiClient) register(name string) services.AuthResult {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret1",
	})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[services.AuthResult](c.t, w)
}

func (c *apiClient) createPost(token, title string) services.PostView {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/blogs", token, gin.H{"title": title, "content": "body of " + title})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[services.PostView](c.t, w)
}

func (c *apiClient) addComment(token, postID, content string) services.CommentView {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/blogs/"+postID+"/comments", token, gin.H{"content": content})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[services.CommentView](c.t, w)
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[utils.MessageResponse](t, w).Message
}

func TestRootAndHealth(t *testing.T) {
	api := newAPI(t, config.AppConfig{})

	w := api.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Blogging API is running", w.Body.String())

	w = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestUnknownRoute(t *testing.T) {
	api := newAPI(t, config.AppConfig{})

	w := api.do(http.MethodGet, "/api/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", messageOf(t, w))
}

func TestRegisterAndLogin(t *testing.T) {
	api := newAPI(t, config.AppConfig{})

	reg := api.register("alice")
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "alice@example.com", reg.User.Email)
	assert.NotContains(t, api.do(http.MethodGet, "/api/auth/me", reg.Token, nil).Body.String(), "password")

	w := api.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "again", "email": "ALICE@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", messageOf(t, w))

	w = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[services.AuthResult](t, w)
	assert.Equal(t, reg.User, login.User)

	wrong := api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "nope-nope"})
	unknown := api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "bob@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
}

func TestValidationErrorsAreFieldAddressable(t *testing.T) {
	api := newAPI(t, config.AppConfig{})

	w := api.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "a", "email": "bad", "password": "1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[utils.ValidationResponse](t, w)
	fields := []string{}
	for _, e := range body.Errors {
		fields = append(fields, e.Field)
		assert.NotEmpty(t, e.Message)
	}
	assert.ElementsMatch(t, []string{"name", "email", "password"}, fields)

	w = api.do(http.MethodPost, "/api/auth/register", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode[utils.ValidationResponse](t, w).Errors)
}

func TestMalformedJSON(t *testing.T) {
	api := newAPI(t, config.AppConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	api.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request payload", messageOf(t, w))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newAPI(t, config.AppConfig{})

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/blogs"},
		{http.MethodPut, "/api/blogs/x"},
		{http.MethodDelete, "/api/blogs/x"},
		{http.MethodPost, "/api/blogs/x/comments"},
		{http.MethodDelete, "/api/blogs/x/comments/y"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPost, "/api/auth/logout"},
	}
	for _, rt := range routes {
		w := api.do(rt.method, rt.path, "", gin.H{})
		assert.Equal(t, http.StatusUnauthorized, w.Code, rt.path)
		assert.Equal(t, "No token provided", messageOf(t, w), rt.path)

		w = api.do(rt.method, rt.path, "garbage", gin.H{})
		assert.Equal(t, http.StatusUnauthorized, w.Code, rt.path)
		assert.Equal(t, "Token invalid or expired", messageOf(t, w), rt.path)
	}
}

func TestPostLifecycle(t *testing.T) {
	api := newAPI(t, config.AppConfig{})
	alice := api.register("alice")
	bob := api.register("bob")

	post := api.createPost(alice.Token, "Hello")
	assert.Equal(t, services.AuthorView{ID: alice.User.ID, Name: "alice", Email: "alice@example.com"}, post.Author)
	assert.Empty(t, post.Comments)

	w := api.do(http.MethodGet, "/api/blogs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]services.PostView](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, post.ID, list[0].ID)

	w = api.do(http.MethodPut, "/api/blogs/"+post.ID, bob.Token, gin.H{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPut, "/api/blogs/"+post.ID, alice.Token, gin.H{"title": "Edited"})
	require.Equal(t, http.StatusOK, w.Code)
	edited := decode[services.PostView](t, w)
	assert.Equal(t, "Edited", edited.Title)
	assert.Equal(t, "body of Hello", edited.Content)

	w = api.do(http.MethodPut, "/api/blogs/"+post.ID, alice.Token, gin.H{"content": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode[services.PostView](t, w).Content)

	w = api.do(http.MethodDelete, "/api/blogs/"+post.ID, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodDelete, "/api/blogs/"+post.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Blog removed", messageOf(t, w))

	w = api.do(http.MethodGet, "/api/blogs/"+post.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodDelete, "/api/blogs/"+post.ID, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePostValidation(t *testing.T) {
	api := newAPI(t, config.AppConfig{})
	alice := api.register("alice")

	w := api.do(http.MethodPost, "/api/blogs", alice.Token, gin.H{"title": "only a title"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[utils.ValidationResponse](t, w).Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "content", errs[0].Field)
}

func TestComments(t *testing.T) {
	api := newAPI(t, config.AppConfig{})
	alice := api.register("alice")
	bob := api.register("bob")
	carol := api.register("carol")
	post := api.createPost(bob.Token, "Post")

	first := api.addComment(alice.Token, post.ID, "first")
	assert.Equal(t, services.AuthorView{ID: alice.User.ID, Name: "alice", Email: "alice@example.com"}, first.Author)
	second := api.addComment(carol.Token, post.ID, "second")

	w := api.do(http.MethodGet, "/api/blogs/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[services.PostView](t, w)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, second.ID, got.Comments[0].ID)
	assert.Equal(t, first.ID, got.Comments[1].ID)
	assert.Equal(t, "carol", got.Comments[0].Author.Name)

	w = api.do(http.MethodPost, "/api/blogs/"+post.ID+"/comments", alice.Token, gin.H{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodDelete, "/api/blogs/"+post.ID+"/comments/"+first.ID, carol.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodDelete, "/api/blogs/"+post.ID+"/comments/"+first.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Comment deleted", messageOf(t, w))

	w = api.do(http.MethodDelete, "/api/blogs/"+post.ID+"/comments/"+second.ID, bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodDelete, "/api/blogs/"+post.ID+"/comments/"+second.ID, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Comment not found", messageOf(t, w))

	w = api.do(http.MethodPost, "/api/blogs/missing/comments", alice.Token, gin.H{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Blog not found", messageOf(t, w))
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newAPI(t, config.AppConfig{})
	alice := api.register("alice")

	w := api.do(http.MethodGet, "/api/auth/me", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, alice.User, decode[services.UserView](t, w))

	w = api.do(http.MethodPost, "/api/auth/logout", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out", messageOf(t, w))

	w = api.do(http.MethodGet, "/api/auth/me", alice.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token revoked", messageOf(t, w))
}

func TestAuthRateLimit(t *testing.T) {
	api := newAPI(t, config.AppConfig{RateLimitPerMinute: 2})

	first := api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@example.com", "password": "x"})
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)

	w := api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@example.com", "password": "x"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", messageOf(t, w))

	// blog routes are not limited
	w = api.do(http.MethodGet, "/api/blogs", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	api := newAPI(t, config.AppConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/api/blogs", nil)
	req.Header.Set("Origin", "https://client.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	api.r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
