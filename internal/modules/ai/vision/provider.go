package vision

import (
	"context"
	"errors"
	"time"

	"github.com/reusedev/doc-hub/internal/consts"
	"github.com/reusedev/doc-hub/internal/modules/ai"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"github.com/reusedev/doc-hub/internal/modules/observer"
	"github.com/reusedev/doc-hub/internal/modules/ratelimit"
)

const banDuration = 10 * time.Minute

// Provider sends a request to each supplier of a model in order until one answers.
type Provider struct {
	Ctx       context.Context
	Manager   *ai.TokenManager
	Limiter   *ratelimit.Window // admits every supplier call, nil for none
	Observers []observer.Observer
	// BaseURLs overrides the supplier endpoints, mainly for tests.
	BaseURLs map[consts.ModelSupplier]string
}

func NewProvider(ctx context.Context, manager *ai.TokenManager, limiter *ratelimit.Window, observers []observer.Observer) *Provider {
	return &Provider{
		Ctx:       ctx,
		Manager:   manager,
		Limiter:   limiter,
		Observers: observers,
		BaseURLs:  map[consts.ModelSupplier]string{},
	}
}

func (p *Provider) Notify(event int, data interface{}) {
	for _, o := range p.Observers {
		o.Update(event, data)
	}
}

func (p *Provider) call(token ai.TokenWithModel, analysisID int, request Request) Response {
	baseURL := p.BaseURLs[token.Supplier]
	if token.Temperature != nil {
		request.Temperature = token.Temperature
	}
	if !token.Supplier.OpenAICompatible() {
		return NewGeminiRequester(p.Ctx, token, baseURL, request).SetAnalysisID(analysisID).Do()
	}
	request.Stream = token.Stream
	body := NewChatCompletionRequest(token.Model, request)
	return NewRequester(p.Ctx, token, baseURL, body).SetAnalysisID(analysisID).Do()
}

// wait blocks until the limiter admits one more supplier call.
func (p *Provider) wait() error {
	if p.Limiter == nil {
		return nil
	}
	return p.Limiter.Wait(p.Ctx)
}

// Analyze returns every attempt in order; the last one is the only one that
// can have succeeded.
func (p *Provider) Analyze(analysisID int, request Request) []Response {
	ret := make([]Response, 0)
	ctx, cancel := context.WithCancel(p.Ctx)
	defer cancel()
	consumeSignal := make(chan struct{}, 1)
	consumeSignal <- struct{}{}
	for token := range p.Manager.GetToken(ctx, consumeSignal) {
		if err := p.wait(); err != nil {
			logs.Logger.Warn().Err(err).Int("analysis_id", analysisID).Msg("rate limit wait aborted")
			p.Notify(observer.EventSysExit, analysisID)
			break
		}
		inFlight := 0
		if p.Limiter != nil {
			inFlight = p.Limiter.InFlight()
		}
		logs.Logger.Info().Int("analysis_id", analysisID).Str("supplier", token.GetSupplier().String()).
			Str("token_desc", token.Desc).Str("model", token.Model).Int("in_flight", inFlight).
			Msg("attempting vision request")
		response := p.call(token, analysisID, request)
		ret = append(ret, response)
		p.Notify(observer.EventAttempt, response)
		if response.Succeed() {
			logs.Logger.Info().Int("analysis_id", analysisID).Str("supplier", token.Supplier.String()).
				Str("model", token.Model).Msg("vision request succeeded, stopping iteration")
			break
		}
		logs.Logger.Warn().Err(response.GetError()).Int("analysis_id", analysisID).
			Str("supplier", token.Supplier.String()).Str("model", token.Model).
			Msg("vision request failed, continuing")
		if errors.Is(response.GetError(), ErrPolicy) {
			break
		}
		if ShouldBanToken(response) {
			p.Manager.Ban(token.Supplier, time.Now().Add(banDuration))
		}
		if p.Ctx.Err() != nil {
			p.Notify(observer.EventSysExit, analysisID)
			break
		}
		consumeSignal <- struct{}{}
	}
	p.Notify(observer.EventFinished, ret)
	return ret
}

// Last returns the final attempt, or nil when no supplier was tried.
func Last(responses []Response) Response {
	if len(responses) == 0 {
		return nil
	}
	return responses[len(responses)-1]
}
