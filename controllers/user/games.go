package user

import (
	"aurex/helpers"
	"aurex/providers"
	providerslots "aurex/providers/slots"

	"github.com/gofiber/fiber/v2"
)

// ListGames proxies the aggregator's game catalogue.
func ListGames(c *fiber.Ctx) error {
	launcher, ok := providers.GetProvider("APICHANNEL").(*providerslots.ApichannelLauncher)
	if !ok {
		return helpers.JSONError(c, "UNSUPPORTED_PROVIDER")
	}

	games, err := launcher.GamesList()
	if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_GAMES")
	}

	return helpers.JSONSuccess(c, "Games fetched", fiber.Map{
		"games": games,
		"total": len(games),
	})
}
