package app

import (
	"slidecraft/internal/deck"
	"slidecraft/internal/imagery"
	"slidecraft/internal/llm"
	"slidecraft/internal/storage"
	"slidecraft/internal/store"
	"slidecraft/internal/telegram"
	"slidecraft/pkg/config"
)

type Service struct {
	cfg      *config.Config
	llm      llm.Client
	resolver *imagery.Resolver
	deck     *deck.Builder
	store    *store.Store
	catalog  storage.CatalogSyncer
	telegram *telegram.Client
}

type ServiceOptions struct {
	Config   *config.Config
	LLM      llm.Client
	Resolver *imagery.Resolver
	Deck     *deck.Builder
	Store    *store.Store
	Catalog  storage.CatalogSyncer
	Telegram *telegram.Client
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:      opts.Config,
		llm:      opts.LLM,
		resolver: opts.Resolver,
		deck:     opts.Deck,
		store:    opts.Store,
		catalog:  opts.Catalog,
		telegram: opts.Telegram,
	}
}

func (s *Service) Config() *config.Config      { return s.cfg }
func (s *Service) LLM() llm.Client             { return s.llm }
func (s *Service) Resolver() *imagery.Resolver { return s.resolver }
func (s *Service) Deck() *deck.Builder         { return s.deck }
func (s *Service) Store() *store.Store         { return s.store }
func (s *Service) Catalog() storage.CatalogSyncer { return s.catalog }
func (s *Service) Telegram() *telegram.Client  { return s.telegram }
