package slots

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"aurex/providers"
)

// ApichannelLauncher talks to the apichannel slots aggregator: games
// catalogue over the cmd envelope and signed launch URLs for the client.
type ApichannelLauncher struct {
	BaseURL    string
	OperatorID string
	HomeURL    string
}

type GameInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	GameURL  string `json:"game_url"`
	Lines    int    `json:"lines"`
	IsNew    bool   `json:"is_new"`
}

var apichannelHTTP = &http.Client{Timeout: 10 * time.Second}

// GamesList fetches the operator's game catalogue. The aggregator expects
// the request as a JSON command serialized into the cmd query parameter.
func (p *ApichannelLauncher) GamesList() ([]GameInfo, error) {
	cmd, err := json.Marshal(map[string]any{
		"api":         "ls-games-by-operator-id-get",
		"operator_id": p.OperatorID,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/frontendsrv/apihandler.api?cmd=%s",
		p.BaseURL, url.QueryEscape(string(cmd)))
	resp, err := apichannelHTTP.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("games list failed, status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Locator struct {
			Groups []struct {
				Title string `json:"gr_title"`
				Games []struct {
					ID    int64  `json:"gm_bk_id"`
					Title string `json:"gm_title"`
					URL   string `json:"gm_url"`
					Lines int    `json:"gm_ln"`
					New   bool   `json:"gm_new"`
				} `json:"games"`
			} `json:"groups"`
		} `json:"locator"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	var games []GameInfo
	for _, group := range payload.Locator.Groups {
		for _, g := range group.Games {
			games = append(games, GameInfo{
				ID: g.ID, Name: g.Title, Provider: group.Title,
				GameURL: g.URL, Lines: g.Lines, IsNew: g.New,
			})
		}
	}
	return games, nil
}

// StartGame builds the launch URL the client iframe opens. The auth token in
// the URL is what the provider later echoes back on do-auth-user-ingame.
func (p *ApichannelLauncher) StartGame(req providers.LaunchRequest) (string, error) {
	lang := req.Lang
	if lang == "" {
		lang = "ru"
	}

	params := url.Values{}
	params.Set("operator_id", p.OperatorID)
	params.Set("user_id", req.UserCode)
	params.Set("auth_token", AuthToken(req.UserCode))
	params.Set("currency", req.Currency)
	params.Set("language", lang)
	params.Set("home_url", p.HomeURL)

	return fmt.Sprintf("%s/games/%s/game?%s", p.BaseURL, req.GameCode, params.Encode()), nil
}

// AuthToken derives the per-launch token: sha256 over user, timestamp and
// the shared secret.
func AuthToken(userCode string) string {
	data := fmt.Sprintf("%s:%d:%s", userCode, time.Now().UnixMilli(), os.Getenv("APICHANNEL_SECRET"))
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func init() {
	providers.RegisterProvider("APICHANNEL", &ApichannelLauncher{
		BaseURL:    envOr("APICHANNEL_API_URL", "https://int.apichannel.cloud"),
		OperatorID: os.Getenv("APICHANNEL_OPERATOR_ID"),
		HomeURL:    os.Getenv("FRONTEND_URL"),
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
