package service

import (
	"github.com/Astemirdum/library-lending/lending/internal/repository"
	"github.com/Astemirdum/library-lending/pkg/kafka"
	"go.uber.org/zap"
)

// Rules are the lending limits applied by Borrow.
type Rules struct {
	LoanPeriodDays int `envconfig:"LOAN_PERIOD_DAYS" default:"15"`
	MaxActiveLoans int `envconfig:"MAX_ACTIVE_LOANS" default:"3"`
}

var DefaultRules = Rules{
	LoanPeriodDays: 15,
	MaxActiveLoans: 3,
}

type Service struct {
	log       *zap.Logger
	repo      repository.Repository
	dashboard repository.DashboardRepository
	accounts  repository.AccountRepository
	publisher kafka.Publisher
	rules     Rules
	hooks     []PostCreateHook
}

type Option func(*Service)

func WithRules(rules Rules) Option {
	return func(s *Service) {
		if rules.LoanPeriodDays > 0 {
			s.rules.LoanPeriodDays = rules.LoanPeriodDays
		}
		if rules.MaxActiveLoans > 0 {
			s.rules.MaxActiveLoans = rules.MaxActiveLoans
		}
	}
}

func WithPublisher(p kafka.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithPostCreateHooks replaces the hooks run after an account is created.
func WithPostCreateHooks(hooks ...PostCreateHook) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

func NewService(
	repo repository.Repository,
	dashboard repository.DashboardRepository,
	accounts repository.AccountRepository,
	log *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		log:       log.Named("service"),
		repo:      repo,
		dashboard: dashboard,
		accounts:  accounts,
		publisher: kafka.NopPublisher(),
		rules:     DefaultRules,
		hooks:     []PostCreateHook{CreateProfile},
	}
	for _, op := range opts {
		op(s)
	}
	return s
}
