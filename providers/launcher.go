package providers

import (
	"strings"
)

type LaunchRequest struct {
	UserCode     string `json:"user_code"`
	ProviderCode string `json:"provider_code"`
	GameCode     string `json:"game_code"`
	Currency     string `json:"currency"`
	Lang         string `json:"lang"`
	Platform     string `json:"platform"`
	IP           string `json:"ip"`
}

type GameProviderLauncher interface {
	StartGame(req LaunchRequest) (string, error)
}

var GameLaunchers = map[string]GameProviderLauncher{}

func RegisterProvider(name string, launcher GameProviderLauncher) {
	GameLaunchers[strings.ToLower(name)] = launcher
}

func GetProvider(name string) GameProviderLauncher {
	return GameLaunchers[strings.ToLower(name)]
}
