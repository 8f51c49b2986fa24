package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hotstinder/hotstinder/internal/adapters/auth"
	"github.com/hotstinder/hotstinder/internal/adapters/http/api"
	"github.com/hotstinder/hotstinder/internal/adapters/repository"
	service "github.com/hotstinder/hotstinder/internal/app"
	"github.com/hotstinder/hotstinder/internal/domain/model"
	"github.com/hotstinder/hotstinder/internal/domain/session"
	"github.com/hotstinder/hotstinder/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDependencies struct {
	users       map[string]model.User
	matches     []model.Match
	entries     []types.Entry
	joinErr     error
	generateErr error
	lastUpdate  model.ProfileUpdate
	lastFilter  model.MatchFilter
	lastLimit   int
	lastOffset  int
	logins      int
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		users: map[string]model.User{
			"u1": {ID: "u1", DisplayName: "Alpha", MMR: 1600},
			"u2": {ID: "u2", DisplayName: "Beta", MMR: 1400, IsAdmin: true},
		},
		matches: []model.Match{{ID: "m1", Source: model.SourceQueue, Map: "Cursed Hollow"}},
		entries: []types.Entry{
			{Rank: 1, UserID: "u1", MMR: 1600},
			{Rank: 2, UserID: "u2", MMR: 1400},
		},
	}
}

func (m *mockDependencies) Login(_ context.Context, id auth.Identity) (model.User, bool, error) {
	m.logins++
	u := model.User{ID: "bnet-" + id.ID, BattleTag: id.BattleTag, MMR: 1500}
	m.users[u.ID] = u
	return u, m.logins == 1, nil
}

func (m *mockDependencies) GetUser(_ context.Context, id string) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	return u, nil
}

func (m *mockDependencies) UpdateProfile(_ context.Context, id string, upd model.ProfileUpdate) (model.User, error) {
	m.lastUpdate = upd
	u := m.users[id]
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	return u, nil
}

func (m *mockDependencies) JoinQueue(_ context.Context, userID string) (session.Session, error) {
	if m.joinErr != nil {
		return session.Session{}, m.joinErr
	}
	return session.Session{UserID: userID, State: session.Searching}, nil
}

func (m *mockDependencies) LeaveQueue(_ context.Context, userID string) (session.Session, error) {
	return session.Session{UserID: userID, State: session.Cancelled}, nil
}

func (m *mockDependencies) QueueStatus(_ context.Context, userID string) session.Session {
	return session.Session{UserID: userID, State: session.Idle}
}

func (m *mockDependencies) GetMatch(_ context.Context, id string) (model.Match, error) {
	for _, match := range m.matches {
		if match.ID == id {
			return match, nil
		}
	}
	return model.Match{}, repository.ErrNotFound
}

func (m *mockDependencies) ListMatches(_ context.Context, filter model.MatchFilter) ([]model.Match, int, error) {
	m.lastFilter = filter
	return m.matches, len(m.matches), nil
}

func (m *mockDependencies) TopN(_ context.Context, limit, offset int) ([]types.Entry, error) {
	m.lastLimit, m.lastOffset = limit, offset
	return m.entries, nil
}

func (m *mockDependencies) Rank(_ context.Context, userID string) (types.Entry, error) {
	for _, e := range m.entries {
		if e.UserID == userID {
			return e, nil
		}
	}
	return types.Entry{}, repository.ErrNotFound
}

func (m *mockDependencies) ListUsers(_ context.Context, page model.Page) ([]model.User, int, error) {
	return []model.User{m.users["u1"]}, len(m.users), nil
}

func (m *mockDependencies) DeleteUser(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockDependencies) DeleteMatch(_ context.Context, id string) error {
	return nil
}

func (m *mockDependencies) GenerateUsers(_ context.Context, count int) ([]model.User, error) {
	if count > 100 {
		return nil, service.ErrLimitExceeded
	}
	return make([]model.User, count), nil
}

func (m *mockDependencies) GenerateMatches(_ context.Context, count int, useRealUsers bool) (service.BatchResult, error) {
	if m.generateErr != nil {
		return service.BatchResult{}, m.generateErr
	}
	return service.BatchResult{Requested: count, Created: count, MatchIDs: []string{"m1"}}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type mockProvider struct{}

func (mockProvider) Configured() bool { return true }

func (mockProvider) AuthCodeURL(state string) string {
	return "https://oauth.battle.net/authorize?state=" + url.QueryEscape(state)
}

func (mockProvider) Authenticate(_ context.Context, code string) (auth.Identity, error) {
	if code != "good-code" {
		return auth.Identity{}, auth.ErrExchange
	}
	return auth.Identity{ID: "42", BattleTag: "Tyrael#4242"}, nil
}

type fixture struct {
	deps   *mockDependencies
	tokens *auth.Manager
	mux    *http.ServeMux
}

func newFixture(opts ...api.Option) fixture {
	deps := newMockDependencies()
	tokens := auth.NewManager("test-secret")
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, tokens,
		append([]api.Option{api.WithMaxLeaderboardLimit(50), api.WithMaxPageSize(25)}, opts...)...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return fixture{deps: deps, tokens: tokens, mux: mux}
}

func (f fixture) do(method, target, body, userID string, admin bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, http.NoBody)
	}
	if userID != "" {
		token, _, err := f.tokens.IssueSession(userID, admin)
		So(err, ShouldBeNil)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body.Code
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		f := newFixture()

		Convey("Then health endpoint should serve metrics", func() {
			w := f.do("GET", "/healthz", "", "", false)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And stats endpoint should be accessible", func() {
			w := f.do("GET", "/stats", "", "", false)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
			So(w.Body.String(), ShouldContainSubstring, `"uptimeSeconds":`)
		})

		Convey("And catalog endpoint should list roles, maps and heroes", func() {
			w := f.do("GET", "/catalog", "", "", false)
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				Roles  []string `json:"roles"`
				Maps   []string `json:"maps"`
				Heroes []string `json:"heroes"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(len(body.Roles), ShouldEqual, 6)
			So(len(body.Maps), ShouldBeGreaterThan, 0)
			So(len(body.Heroes), ShouldBeGreaterThan, 0)
		})

		Convey("And wrong methods should be rejected", func() {
			w := f.do("POST", "/leaderboard", "", "", false)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given a leaderboard endpoint capped at 50", t, func() {
		f := newFixture()

		Convey("When requesting a valid window", func() {
			w := f.do("GET", "/leaderboard?limit=10&offset=5", "", "", false)

			Convey("Then it should return the entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(f.deps.lastLimit, ShouldEqual, 10)
				So(f.deps.lastOffset, ShouldEqual, 5)
				var entries []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
			})
		})

		Convey("When the limit is above the cap", func() {
			w := f.do("GET", "/leaderboard?limit=51", "", "", false)

			Convey("Then it should be rejected as limit_exceeded", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When the limit is not a positive integer", func() {
			for _, q := range []string{"0", "-1", "abc"} {
				w := f.do("GET", "/leaderboard?limit="+q, "", "", false)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			}
		})
	})
}

func TestRankHandler(t *testing.T) {
	Convey("Given a rank endpoint", t, func() {
		f := newFixture()

		Convey("When the user is ranked", func() {
			w := f.do("GET", "/rank/u2", "", "", false)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"rank":2`)
		})

		Convey("When the user is unknown", func() {
			w := f.do("GET", "/rank/nobody", "", "", false)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})
	})
}

func TestAuthHandler(t *testing.T) {
	Convey("Given auth routes with a configured provider and no front end", t, func() {
		f := newFixture(api.WithIdentityProvider(mockProvider{}), api.WithFrontendURL(""))

		Convey("When starting a login", func() {
			w := f.do("GET", "/auth/bnet/login", "", "", false)

			Convey("Then it should redirect with a signed state", func() {
				So(w.Code, ShouldEqual, http.StatusFound)
				loc, err := url.Parse(w.Header().Get("Location"))
				So(err, ShouldBeNil)
				So(loc.Query().Get("state"), ShouldNotBeEmpty)
			})
		})

		Convey("When the callback carries a valid state and code", func() {
			state, err := f.tokens.IssueState()
			So(err, ShouldBeNil)
			w := f.do("GET", "/auth/bnet/callback?code=good-code&state="+url.QueryEscape(state), "", "", false)

			Convey("Then a session is issued", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Set-Cookie"), ShouldContainSubstring, auth.SessionCookie+"=")
				var body struct {
					Token string     `json:"token"`
					User  model.User `json:"user"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				p, err := f.tokens.ParseSession(body.Token)
				So(err, ShouldBeNil)
				So(p.UserID, ShouldEqual, "bnet-42")
				So(body.User.BattleTag, ShouldEqual, "Tyrael#4242")
			})

			Convey("And replaying the state is rejected", func() {
				again := f.do("GET", "/auth/bnet/callback?code=good-code&state="+url.QueryEscape(state), "", "", false)
				So(again.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the callback has a forged state", func() {
			w := f.do("GET", "/auth/bnet/callback?code=good-code&state=forged", "", "", false)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(f.deps.logins, ShouldEqual, 0)
		})

		Convey("When the code exchange fails", func() {
			state, err := f.tokens.IssueState()
			So(err, ShouldBeNil)
			w := f.do("GET", "/auth/bnet/callback?code=bad&state="+url.QueryEscape(state), "", "", false)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When asking who is logged in", func() {
			So(f.do("GET", "/auth/me", "", "", false).Code, ShouldEqual, http.StatusUnauthorized)
			w := f.do("GET", "/auth/me", "", "u1", false)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"display_name":"Alpha"`)
		})

		Convey("When logging out", func() {
			w := f.do("POST", "/auth/logout", "", "", false)
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get("Set-Cookie"), ShouldContainSubstring, "Max-Age=0")
		})
	})

	Convey("Given auth routes without Battle.net credentials", t, func() {
		f := newFixture()

		Convey("When starting a login", func() {
			w := f.do("GET", "/auth/bnet/login", "", "", false)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestProfileHandler(t *testing.T) {
	Convey("Given profile routes", t, func() {
		f := newFixture()

		Convey("When updating with valid fields", func() {
			w := f.do("PUT", "/profile", `{"displayName":"Gamma","favoriteHeroes":["Anduin"]}`, "u1", false)

			Convey("Then the update is passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(*f.deps.lastUpdate.DisplayName, ShouldEqual, "Gamma")
				So(f.deps.lastUpdate.SetFavorites, ShouldBeTrue)
				So(f.deps.lastUpdate.PreferredRole, ShouldBeNil)
			})
		})

		Convey("When the display name is too short", func() {
			w := f.do("PUT", "/profile", `{"displayName":"ab"}`, "u1", false)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "displayName")
		})

		Convey("When too many heroes are sent", func() {
			w := f.do("PUT", "/profile", `{"favoriteHeroes":["a","b","c","d","e","f"]}`, "u1", false)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body has unknown fields", func() {
			w := f.do("PUT", "/profile", `{"mmr":9000}`, "u1", false)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When fetching a public profile", func() {
			w := f.do("GET", "/users/u2", "", "", false)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldNotContainSubstring, "is_admin")
		})
	})
}

func TestQueueHandler(t *testing.T) {
	Convey("Given queue routes", t, func() {
		f := newFixture()

		Convey("When joining", func() {
			w := f.do("POST", "/queue", "", "u1", false)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Body.String(), ShouldContainSubstring, `"state":"searching"`)
		})

		Convey("When the queue is full", func() {
			f.deps.joinErr = service.ErrQueueFull
			w := f.do("POST", "/queue", "", "u1", false)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(w), ShouldEqual, "backpressure")
		})

		Convey("When already searching", func() {
			f.deps.joinErr = fmt.Errorf("join queue: %w", session.ErrInvalidTransition)
			w := f.do("POST", "/queue", "", "u1", false)
			So(w.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When not logged in", func() {
			w := f.do("POST", "/queue", "", "", false)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When leaving and checking status", func() {
			So(f.do("DELETE", "/queue", "", "u1", false).Code, ShouldEqual, http.StatusOK)
			So(f.do("GET", "/queue", "", "u1", false).Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestMatchesHandler(t *testing.T) {
	Convey("Given match routes with page size 25", t, func() {
		f := newFixture()

		Convey("When listing a user's matches", func() {
			w := f.do("GET", "/matches?user_id=u1&page=3&limit=10", "", "", false)

			Convey("Then the page is translated to an offset", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(f.deps.lastFilter.UserID, ShouldEqual, "u1")
				So(f.deps.lastFilter.Page, ShouldResemble, model.Page{Offset: 20, Limit: 10})
				So(w.Body.String(), ShouldContainSubstring, `"total":1`)
			})
		})

		Convey("When the page size is too large", func() {
			w := f.do("GET", "/matches?limit=26", "", "", false)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "limit_exceeded")
		})

		Convey("When fetching a match", func() {
			So(f.do("GET", "/matches/m1", "", "", false).Code, ShouldEqual, http.StatusOK)
			So(f.do("GET", "/matches/m2", "", "", false).Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAdminHandler(t *testing.T) {
	Convey("Given admin routes", t, func() {
		f := newFixture()

		Convey("When a regular user calls them", func() {
			w := f.do("GET", "/admin/users", "", "u1", false)
			So(w.Code, ShouldEqual, http.StatusForbidden)
			So(errorCode(w), ShouldEqual, "forbidden")
		})

		Convey("When an admin lists users", func() {
			w := f.do("GET", "/admin/users?page=1&limit=5", "", "u2", true)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"total":2`)
		})

		Convey("When an admin lists matches", func() {
			w := f.do("GET", "/admin/matches?page=2&limit=5", "", "u2", true)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"total":1`)
			So(f.deps.lastFilter, ShouldResemble, model.MatchFilter{Page: model.Page{Offset: 5, Limit: 5}})
		})

		Convey("When the admin handler only has the admin operations", func() {
			h := api.NewAdminHandler(struct{ api.AdminDependencies }{f.deps}, 25)
			w := httptest.NewRecorder()
			h.HandleListMatches(w, httptest.NewRequest("GET", "/admin/matches?limit=3", nil))

			Convey("Then matches are still listed without a user filter", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(f.deps.lastFilter.UserID, ShouldBeEmpty)
				So(f.deps.lastFilter.Page.Limit, ShouldEqual, 3)
			})
		})

		Convey("When an admin deletes a user", func() {
			So(f.do("DELETE", "/admin/users/u1", "", "u2", true).Code, ShouldEqual, http.StatusNoContent)
			So(f.do("DELETE", "/admin/users/u1", "", "u2", true).Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When an admin generates users", func() {
			w := f.do("POST", "/admin/users/generate", `{"count":3}`, "u2", true)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Body.String(), ShouldContainSubstring, `"created":3`)

			over := f.do("POST", "/admin/users/generate", `{"count":101}`, "u2", true)
			So(over.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(over), ShouldEqual, "limit_exceeded")
		})

		Convey("When an admin generates matches", func() {
			w := f.do("POST", "/admin/matches/generate", `{"count":2,"useRealUsers":false}`, "u2", true)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Body.String(), ShouldContainSubstring, `"match_ids":["m1"]`)
		})

		Convey("When there are too few real users", func() {
			f.deps.generateErr = &service.RosterError{Available: 8, Required: 10}
			w := f.do("POST", "/admin/matches/generate", `{"count":1,"useRealUsers":true}`, "u2", true)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "insufficient_roster")
		})

		Convey("When the count is missing", func() {
			w := f.do("POST", "/admin/matches/generate", `{}`, "u2", true)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "bad_request")
		})
	})
}
