package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

type fakeExchanger struct {
	token *oauth2.Token
	err   error

	gotCode     string
	gotVerifier string
}

func (f *fakeExchanger) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	f.gotCode = code
	f.gotVerifier = verifier
	return f.token, f.err
}

func TestCallbackHandler(t *testing.T) {
	t.Run("exchanges the code with the verifier", func(t *testing.T) {
		exchanger := &fakeExchanger{token: &oauth2.Token{AccessToken: "tok"}}
		handler := NewCallbackHandler(exchanger, "state123", "verifier456")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=code789", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if exchanger.gotCode != "code789" || exchanger.gotVerifier != "verifier456" {
			t.Errorf("Exchange called with code=%q verifier=%q", exchanger.gotCode, exchanger.gotVerifier)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Error("Expected the success page")
		}

		select {
		case result := <-handler.Result():
			if result.Error() != nil {
				t.Errorf("Unexpected result error: %v", result.Error())
			}
			if result.Token == nil || result.Token.AccessToken != "tok" {
				t.Errorf("Unexpected token: %+v", result.Token)
			}
		case <-time.After(time.Second):
			t.Fatal("Expected a result on the channel")
		}
	})

	t.Run("rejects a mismatched state", func(t *testing.T) {
		handler := NewCallbackHandler(&fakeExchanger{}, "expected", "v")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=c", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("Expected an error result for a forged state")
		}
	})

	t.Run("reports a denied authorization", func(t *testing.T) {
		handler := NewCallbackHandler(&fakeExchanger{}, "s", "v")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied&error_description=denied", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("Expected the provider error in the result, got %v", result.Error())
		}
	})

	t.Run("surfaces exchange failures", func(t *testing.T) {
		exchanger := &fakeExchanger{err: fmt.Errorf("exchange broke")}
		handler := NewCallbackHandler(exchanger, "s", "v")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=s&code=c", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("Expected an error result")
		}
	})

	t.Run("processes the callback only once", func(t *testing.T) {
		exchanger := &fakeExchanger{token: &oauth2.Token{AccessToken: "tok"}}
		handler := NewCallbackHandler(exchanger, "s", "v")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=c", nil))

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=c", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("Expected replay to be rejected with 400, got %d", second.Code)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("filters by method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405 for POST, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("Expected pong, got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("applies middleware in registration order", func(t *testing.T) {
		router := NewBasicRouter()
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		router.Use(mw("outer"), mw("inner"))
		router.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
			t.Errorf("Expected outer then inner, got %v", order)
		}
	})

	t.Run("registers every route of a Handler", func(t *testing.T) {
		router := NewBasicRouter()
		handler := NewCallbackHandler(&fakeExchanger{}, "s", "v")
		router.Handler(handler)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=wrong", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected the callback handler to answer, got %d", rec.Code)
		}
	})
}
