// Package auth implements Battle.net login and the session tokens that
// identify users on later requests.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const userInfoTimeout = 10 * time.Second

// Identity is the Battle.net account behind a login.
type Identity struct {
	ID        string
	BattleTag string
}

// BattleNet drives the OAuth2 authorization code flow against Battle.net.
type BattleNet struct {
	conf        *oauth2.Config
	userInfoURL string
	client      *http.Client
}

// BattleNetOption configures a BattleNet client.
type BattleNetOption func(*BattleNet)

// WithBaseURL points every endpoint at base, e.g. a test server.
func WithBaseURL(base string) BattleNetOption {
	return func(b *BattleNet) {
		base = strings.TrimRight(base, "/")
		b.conf.Endpoint.AuthURL = base + "/oauth/authorize"
		b.conf.Endpoint.TokenURL = base + "/oauth/token"
		b.userInfoURL = base + "/oauth/userinfo"
	}
}

// WithHTTPClient sets the client used for the token exchange and userinfo.
func WithHTTPClient(c *http.Client) BattleNetOption {
	return func(b *BattleNet) {
		if c != nil {
			b.client = c
		}
	}
}

// RegionHost returns the OAuth host for a Battle.net region.
func RegionHost(region string) string {
	switch strings.ToLower(region) {
	case "cn":
		return "https://www.battlenet.com.cn"
	case "eu", "kr", "tw":
		return "https://" + strings.ToLower(region) + ".battle.net"
	default:
		return "https://us.battle.net"
	}
}

// NewBattleNet builds a client for region with the given app credentials.
func NewBattleNet(clientID, clientSecret, redirectURL, region string, opts ...BattleNetOption) *BattleNet {
	host := RegionHost(region)
	b := &BattleNet{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   host + "/oauth/authorize",
				TokenURL:  host + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		userInfoURL: host + "/oauth/userinfo",
		client:      &http.Client{Timeout: userInfoTimeout},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Configured reports whether client credentials are present.
func (b *BattleNet) Configured() bool {
	return b.conf.ClientID != "" && b.conf.ClientSecret != ""
}

// AuthCodeURL returns the Battle.net consent URL carrying state.
func (b *BattleNet) AuthCodeURL(state string) string {
	return b.conf.AuthCodeURL(state)
}

// Authenticate exchanges code for a token and fetches the account identity.
func (b *BattleNet) Authenticate(ctx context.Context, code string) (Identity, error) {
	if !b.Configured() {
		return Identity{}, ErrNotConfigured
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.client)

	token, err := b.conf.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrExchange, err)
	}
	return b.userInfo(ctx, token)
}

type userInfo struct {
	Sub       string `json:"sub"`
	ID        int64  `json:"id"`
	BattleTag string `json:"battletag"`
}

func (b *BattleNet) userInfo(ctx context.Context, token *oauth2.Token) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.userInfoURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUserInfo, err)
	}
	token.SetAuthHeader(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: status %d", ErrUserInfo, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("%w: decode: %w", ErrUserInfo, err)
	}

	id := info.Sub
	if id == "" && info.ID != 0 {
		id = strconv.FormatInt(info.ID, 10)
	}
	if id == "" || info.BattleTag == "" {
		return Identity{}, fmt.Errorf("%w: incomplete identity", ErrUserInfo)
	}
	return Identity{ID: id, BattleTag: info.BattleTag}, nil
}
