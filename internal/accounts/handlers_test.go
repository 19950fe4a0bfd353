package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/example/movie-platform/internal/platform/auth"
)

type recordingMailer struct {
	verifyTo   string
	verifyLink string
	resetTo    string
	resetLink  string
}

func (m *recordingMailer) SendVerificationEmail(to, link string) {
	m.verifyTo, m.verifyLink = to, link
}

func (m *recordingMailer) SendPasswordResetEmail(to, link string) {
	m.resetTo, m.resetLink = to, link
}

func setupReq(method, url, body string, params map[string]string, userID int64) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != 0 {
		ctx = auth.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

// tokenFromLink pulls the trailing path segment out of an emailed link.
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	i := strings.LastIndex(link, "/")
	if i < 0 || i == len(link)-1 {
		t.Fatalf("no token in link %q", link)
	}
	return link[i+1:]
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	us := NewInMemoryUserStore()
	ts := TokenService{Secret: []byte("test-secret")}
	mail := &recordingMailer{}

	register := Register(us, ts, mail, "http://localhost:5173", nil)
	req := setupReq(http.MethodPost, "/api/register",
		`{"username":"alice","email":"alice@example.com","password":"hunter22"}`, nil, 0)
	rr := httptest.NewRecorder()
	register.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if mail.verifyTo != "alice@example.com" || !strings.HasPrefix(mail.verifyLink, "http://localhost:5173/verify-email/") {
		t.Fatalf("unexpected verification email: to=%q link=%q", mail.verifyTo, mail.verifyLink)
	}

	// Login before verification is refused.
	login := Login(us, ts, nil)
	req = setupReq(http.MethodPost, "/api/login",
		`{"email":"alice@example.com","password":"hunter22"}`, nil, 0)
	rr = httptest.NewRecorder()
	login.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unverified login: expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "verify your email") {
		t.Fatalf("expected verification message, got %s", rr.Body.String())
	}

	verify := VerifyEmail(us, ts)
	token := tokenFromLink(t, mail.verifyLink)
	req = setupReq(http.MethodGet, "/api/verify-email/"+token, "",
		map[string]string{"token": token}, 0)
	rr = httptest.NewRecorder()
	verify.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	req = setupReq(http.MethodPost, "/api/login",
		`{"email":"alice@example.com","password":"hunter22"}`, nil, 0)
	rr = httptest.NewRecorder()
	login.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp loginResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if !resp.Success || resp.Token == "" || resp.Username != "alice" || resp.UserID == 0 {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	// The issued token passes the middleware verifier.
	claims, err := auth.JWTVerifier{Secret: []byte("test-secret")}.Parse(resp.Token)
	if err != nil {
		t.Fatalf("issued token rejected: %v", err)
	}
	if claims.Username != "alice" {
		t.Fatalf("expected username claim, got %q", claims.Username)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	us := NewInMemoryUserStore()
	ts := TokenService{Secret: []byte("test-secret")}
	register := Register(us, ts, &recordingMailer{}, "http://localhost:5173", nil)

	body := `{"username":"alice","email":"alice@example.com","password":"hunter22"}`
	rr := httptest.NewRecorder()
	register.ServeHTTP(rr, setupReq(http.MethodPost, "/api/register", body, nil, 0))
	if rr.Code != http.StatusOK {
		t.Fatalf("first register: expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	register.ServeHTTP(rr, setupReq(http.MethodPost, "/api/register", body, nil, 0))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "already exists") {
		t.Fatalf("expected conflict message, got %s", rr.Body.String())
	}
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	us := NewInMemoryUserStore()
	ts := TokenService{Secret: []byte("test-secret")}
	registerUser(t, us, ts, "alice", "alice@example.com", "hunter22")

	login := Login(us, ts, nil)

	wrong := httptest.NewRecorder()
	login.ServeHTTP(wrong, setupReq(http.MethodPost, "/api/login",
		`{"email":"alice@example.com","password":"nope"}`, nil, 0))
	unknown := httptest.NewRecorder()
	login.ServeHTTP(unknown, setupReq(http.MethodPost, "/api/login",
		`{"email":"ghost@example.com","password":"nope"}`, nil, 0))

	if wrong.Code != http.StatusBadRequest || unknown.Code != http.StatusBadRequest {
		t.Fatalf("expected 400/400, got %d/%d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("wrong password and unknown email must be indistinguishable:\n%s\n%s",
			wrong.Body.String(), unknown.Body.String())
	}
}

func TestPasswordResetFlow(t *testing.T) {
	us := NewInMemoryUserStore()
	ts := TokenService{Secret: []byte("test-secret")}
	mail := &recordingMailer{}
	registerUser(t, us, ts, "alice", "alice@example.com", "hunter22")

	request := ResetPasswordRequest(us, ts, mail, "http://localhost:5173")
	rr := httptest.NewRecorder()
	request.ServeHTTP(rr, setupReq(http.MethodPost, "/api/reset-password-request",
		`{"email":"alice@example.com"}`, nil, 0))
	if rr.Code != http.StatusOK {
		t.Fatalf("request: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if mail.resetTo != "alice@example.com" {
		t.Fatalf("expected reset email, got %q", mail.resetTo)
	}

	// Unknown email is a 404, not a silent success.
	rr = httptest.NewRecorder()
	request.ServeHTTP(rr, setupReq(http.MethodPost, "/api/reset-password-request",
		`{"email":"ghost@example.com"}`, nil, 0))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown email: expected 404, got %d", rr.Code)
	}

	reset := ResetPassword(us, ts)
	token := tokenFromLink(t, mail.resetLink)
	rr = httptest.NewRecorder()
	reset.ServeHTTP(rr, setupReq(http.MethodPost, "/api/reset-password",
		`{"token":"`+token+`","newPassword":"newpass99"}`, nil, 0))
	if rr.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	login := Login(us, ts, nil)
	rr = httptest.NewRecorder()
	login.ServeHTTP(rr, setupReq(http.MethodPost, "/api/login",
		`{"email":"alice@example.com","password":"hunter22"}`, nil, 0))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("old password should no longer work, got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	login.ServeHTTP(rr, setupReq(http.MethodPost, "/api/login",
		`{"email":"alice@example.com","password":"newpass99"}`, nil, 0))
	if rr.Code != http.StatusOK {
		t.Fatalf("new password should work, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestResetPassword_BadToken(t *testing.T) {
	us := NewInMemoryUserStore()
	ts := TokenService{Secret: []byte("test-secret")}
	reset := ResetPassword(us, ts)

	rr := httptest.NewRecorder()
	reset.ServeHTTP(rr, setupReq(http.MethodPost, "/api/reset-password",
		`{"token":"garbage","newPassword":"newpass99"}`, nil, 0))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetAccount(t *testing.T) {
	us := NewInMemoryUserStore()
	ts := TokenService{Secret: []byte("test-secret")}
	uid := registerUser(t, us, ts, "alice", "alice@example.com", "hunter22")

	handler := GetAccount(us)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodGet, "/api/edit-account", "", nil, uid))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp accountResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if !resp.Success || resp.User.Username != "alice" || resp.User.Email != "alice@example.com" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUpdateAccount(t *testing.T) {
	us := NewInMemoryUserStore()
	ts := TokenService{Secret: []byte("test-secret")}
	uid := registerUser(t, us, ts, "alice", "alice@example.com", "hunter22")
	avatars := AvatarStore{Dir: t.TempDir()}
	handler := UpdateAccount(us, avatars)

	form := func(fields map[string]string, avatarName string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range fields {
			_ = mw.WriteField(k, v)
		}
		if avatarName != "" {
			fw, _ := mw.CreateFormFile("avatar", avatarName)
			_, _ = fw.Write([]byte("not really a png"))
		}
		mw.Close()
		return &buf, mw.FormDataContentType()
	}

	// Wrong current password is refused.
	body, contentType := form(map[string]string{
		"username": "alicia", "email": "alice@example.com", "currentPassword": "nope",
	}, "")
	req := httptest.NewRequest(http.MethodPut, "/api/edit-account", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithUserID(req.Context(), uid))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("wrong password: expected 400, got %d: %s", rr.Code, rr.Body.String())
	}

	// Correct password updates profile and stores the avatar.
	body, contentType = form(map[string]string{
		"username": "alicia", "email": "alice@example.com", "currentPassword": "hunter22",
	}, "face.png")
	req = httptest.NewRequest(http.MethodPut, "/api/edit-account", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithUserID(req.Context(), uid))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp updateAccountResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Avatar == nil || !strings.HasPrefix(*resp.Avatar, "/uploads/avatars/") {
		t.Fatalf("expected avatar path, got %+v", resp)
	}

	u, _ := us.ByID(context.Background(), uid)
	if u.Username != "alicia" {
		t.Fatalf("expected updated username, got %q", u.Username)
	}
}

func TestValidAvatarExt(t *testing.T) {
	if !ValidAvatarExt("face.PNG") || !ValidAvatarExt("face.jpg") {
		t.Fatal("expected image extensions to pass")
	}
	if ValidAvatarExt("script.exe") || ValidAvatarExt("noext") {
		t.Fatal("expected non-image extensions to fail")
	}
}

// registerUser creates a verified user directly through the handlers and
// returns its id.
func registerUser(t *testing.T, us *InMemoryUserStore, ts TokenService, username, email, password string) int64 {
	t.Helper()
	mail := &recordingMailer{}
	rr := httptest.NewRecorder()
	Register(us, ts, mail, "http://localhost:5173", nil).ServeHTTP(rr, setupReq(http.MethodPost, "/api/register",
		`{"username":"`+username+`","email":"`+email+`","password":"`+password+`"}`, nil, 0))
	if rr.Code != http.StatusOK {
		t.Fatalf("register %s: %d %s", username, rr.Code, rr.Body.String())
	}
	token := tokenFromLink(t, mail.verifyLink)
	rr = httptest.NewRecorder()
	VerifyEmail(us, ts).ServeHTTP(rr, setupReq(http.MethodGet, "/api/verify-email/"+token, "",
		map[string]string{"token": token}, 0))
	if rr.Code != http.StatusOK {
		t.Fatalf("verify %s: %d %s", username, rr.Code, rr.Body.String())
	}
	u, err := us.ByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("lookup %s: %v", email, err)
	}
	return u.ID
}
