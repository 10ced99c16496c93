package session

import (
	"github.com/samber/do/v2"
	"github.com/sunny-bot/sunny/internal/config"
	"github.com/sunny-bot/sunny/internal/discord"
	"github.com/sunny-bot/sunny/internal/playback"
	"github.com/sunny-bot/sunny/internal/repository"
	"github.com/sunny-bot/sunny/internal/webhook"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*playback.Board, error) {
		return playback.NewBoard(), nil
	})
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		dc := do.MustInvoke[discord.Client](i)
		repo := do.MustInvoke[repository.Repository](i)
		wh := do.MustInvoke[webhook.Sender](i)
		board := do.MustInvoke[*playback.Board](i)
		return NewManager(cfg, dc, repo, wh, board), nil
	})
	do.Provide(injector, func(i do.Injector) (*Router, error) {
		cfg := do.MustInvoke[*config.Config](i)
		dc := do.MustInvoke[discord.Client](i)
		manager := do.MustInvoke[*Manager](i)
		return NewRouter(dc, manager, discord.Presence{
			Name:   cfg.PresenceText,
			URL:    cfg.PresenceURL,
			Status: discord.StatusDoNotDisturb,
		}), nil
	})
}
