package routes

import (
	"aurex/controllers/bonus"
	"aurex/controllers/callback/slots/apichannel"
	"aurex/controllers/cashback"
	"aurex/controllers/payment"
	"aurex/controllers/user"
	"aurex/middlewares"

	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App) {
	userroutes := app.Group("/user", middlewares.OperatorAuth())
	userroutes.Post("/register", user.Register)
	userroutes.Post("/balance", user.CheckBalance)
	userroutes.Post("/transactions", user.ListTransactions)
	userroutes.Get("/games", user.ListGames)
	userroutes.Post("/games/start", user.LaunchGame)

	bonusroutes := app.Group("/bonuses", middlewares.OperatorAuth())
	bonusroutes.Post("/list", bonus.List)
	bonusroutes.Post("/active", bonus.Active)
	bonusroutes.Post("/activate", bonus.Activate)
	bonusroutes.Post("/deactivate", bonus.Deactivate)
	bonusroutes.Post("/history", bonus.History)

	cashbackroutes := app.Group("/cashback", middlewares.OperatorAuth())
	cashbackroutes.Post("/available", cashback.Available)
	cashbackroutes.Post("/claim", cashback.Claim)
	cashbackroutes.Post("/history", cashback.History)

	paymentroutes := app.Group("/payments", middlewares.OperatorAuth())
	paymentroutes.Post("/deposit", payment.Deposit)
	paymentroutes.Post("/withdraw", payment.Withdraw)
	paymentroutes.Get("/methods", payment.Methods)
	paymentroutes.Post("/history", payment.History)

	// processor webhooks, authenticated by payload signature
	app.Post("/payments/lava-callback", payment.LavaCallback)
	app.Post("/payments/lava-payout-callback", payment.LavaPayoutCallback)

	// apichannel seamless wallet
	apiroutes := app.Group("/seamless/slot/apichannel", middlewares.ApichannelAuth())
	apiroutes.Post("/do-auth-user-ingame", apichannel.DoAuthUserIngame)
	apiroutes.Post("/get-balance", apichannel.GetBalance)
	apiroutes.Post("/make-bet", apichannel.MakeBet)
	apiroutes.Post("/win", apichannel.Win)
	apiroutes.Post("/cancel-bet", apichannel.CancelBet)
	apiroutes.Post("/game-end", apichannel.GameEnd)
	apiroutes.Post("/gateway", apichannel.Gateway)
}
