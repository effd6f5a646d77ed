package app

import (
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/grpc/health"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/chat"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/climate"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/fertilizer"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/guides"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/scoring"
)

const (
	scorerName    = "remote-scorer"
	assistantName = "remote-assistant"
)

type RemoteConfig struct {
	BaseURL   string        `koanf:"base_url"`
	ScorePath string        `koanf:"score_path"`
	ChatPath  string        `koanf:"chat_path"`
	Timeout   time.Duration `koanf:"timeout"`
	Breaker   BreakerConfig `koanf:"breaker"`
}

type Config struct {
	Remote RemoteConfig `koanf:"remote"`
	// ResultDelay holds crop and fertilizer answers back for presentation.
	ResultDelay time.Duration `koanf:"result_delay"`
}

// Publisher is the event sink. A nil Publisher disables publication.
type Publisher interface {
	PublishJSON(topic string, qos byte, v any) error
	Connected() bool
}

type Advisor struct {
	cfg        Config
	crops      *scoring.Table
	fertilizer *fertilizer.Advisor
	chat       *chat.Responder
	guides     *guides.Library
	climate    *climate.Client
	scorer     *Upstream
	assistant  *Upstream
	publisher  Publisher
	health     *health.Server
}

// NewAdvisor wires the embedded tables with the optional collaborators.
// pub and cl may be nil.
func NewAdvisor(cfg Config, pub Publisher, cl *climate.Client) *Advisor {
	a := &Advisor{
		cfg:        cfg,
		crops:      scoring.Default(),
		fertilizer: fertilizer.NewAdvisor(fertilizer.DefaultTable()),
		guides:     guides.Default(),
		climate:    cl,
		publisher:  pub,
		health:     newHealthServer(),
	}

	rc := cfg.Remote
	scorePath := rc.ScorePath
	if scorePath == "" {
		scorePath = "/predict"
	}
	a.scorer = NewUpstream(scorerName, rc.BaseURL, scorePath, rc.Timeout,
		newBreaker(scorerName, rc.Breaker, a.onBreakerChange))

	var asker chat.Asker
	if rc.BaseURL != "" && rc.ChatPath != "" {
		a.assistant = NewUpstream(assistantName, rc.BaseURL, rc.ChatPath, rc.Timeout,
			newBreaker(assistantName, rc.Breaker, nil))
		asker = remoteAssistant{up: a.assistant}
	}
	a.chat = chat.NewResponder(chat.DefaultKnowledgeBase(), asker)

	if a.scorer.Enabled() {
		a.setScorerHealth(gobreaker.StateClosed)
	}
	return a
}

// Health is the gRPC health server to register on the gRPC listener.
func (a *Advisor) Health() *health.Server { return a.health }

func (a *Advisor) onBreakerChange(_ string, to gobreaker.State) {
	a.setScorerHealth(to)
}
