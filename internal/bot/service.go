package bot

import (
	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/floodgate/internal/config"
	"github.com/iamwavecut/floodgate/internal/db"
)

type (
	ServiceBot interface {
		GetBot() *api.BotAPI
	}

	ServiceDB interface {
		GetDB() db.Client
	}

	ServiceConfig interface {
		GetConfig() *config.Config
	}

	Service interface {
		ServiceBot
		ServiceDB
		ServiceConfig
	}
)

type service struct {
	bot *api.BotAPI
	db  db.Client
	cfg *config.Config
}

func NewService(bot *api.BotAPI, db db.Client, cfg *config.Config) *service {
	return &service{
		bot: bot,
		db:  db,
		cfg: cfg,
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetDB() db.Client {
	return s.db
}

func (s *service) GetConfig() *config.Config {
	return s.cfg
}
