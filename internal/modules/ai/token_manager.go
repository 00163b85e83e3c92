package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/consts"
)

type TokenWithModel struct {
	Token
	Model       string // supplier model
	Stream      bool
	Temperature *float32
}

type Client struct {
	Id       string
	TryIndex [][]int
}

func (c *Client) CanTry(i, j int) bool {
	return c.TryIndex[i][j] == 0
}

func (c *Client) FirstRequest() bool {
	for _, row := range c.TryIndex {
		for _, column := range row {
			if column != 0 {
				return false
			}
		}
	}
	return true
}

type TokenManager struct {
	BanSupplier []consts.ModelSupplier
	ExpiredAt   []time.Time
	Token       [][]TokenWithModel
	Lock        *sync.Mutex

	Client []*Client
}

// GTokenManager maps a public model name to its ordered supplier tokens.
var GTokenManager map[string]*TokenManager

func NewTokenManager(tokens [][]TokenWithModel) *TokenManager {
	return &TokenManager{
		Token:  tokens,
		Lock:   &sync.Mutex{},
		Client: make([]*Client, 0),
	}
}

// InitTokenManager builds one manager per request_order entry. Each entry
// becomes its own row so the configured order is the try order.
func InitTokenManager(ctx context.Context, cfg *config.Config) error {
	managers := make(map[string]*TokenManager, len(cfg.RequestOrder))
	for model, requests := range cfg.RequestOrder {
		if len(requests) == 0 {
			return fmt.Errorf("init token manager error: model %s has no supplier", model)
		}
		tokens := make([][]TokenWithModel, 0, len(requests))
		for _, r := range requests {
			secret, err := cfg.TokenByName(r.Supplier, r.TokenName)
			if err != nil {
				return fmt.Errorf("init token manager error: %w", err)
			}
			tokens = append(tokens, []TokenWithModel{{
				Token: Token{Token: secret, Desc: r.TokenName, Supplier: consts.ModelSupplier(r.Supplier)},
				Model:       r.Model,
				Stream:      r.Stream,
				Temperature: r.Temperature,
			}})
		}
		managers[model] = NewTokenManager(tokens)
	}
	GTokenManager = managers
	go func() {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				for _, manager := range managers {
					manager.tidy()
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func Manager(model string) (*TokenManager, bool) {
	m, ok := GTokenManager[model]
	return m, ok
}

func (t *TokenManager) getToken(clientId string) *TokenWithModel {
	t.Lock.Lock()
	defer t.Lock.Unlock()

	var client *Client
	for _, v := range t.Client {
		if v.Id == clientId {
			client = v
			break
		}
	}
	if client == nil {
		client = &Client{Id: clientId, TryIndex: make([][]int, len(t.Token))}
		for i := range client.TryIndex {
			client.TryIndex[i] = make([]int, len(t.Token[i]))
		}
		t.Client = append(t.Client, client)
	}

	token := t.getValidToken(client)
	if token != nil {
		return token
	}
	if client.FirstRequest() {
		t.popBanSupplierIfAllBan()
		token := t.getValidToken(client)
		return token
	}
	return nil
}

func (t *TokenManager) release(clientId string) {
	t.Lock.Lock()
	defer t.Lock.Unlock()
	for i, v := range t.Client {
		if v.Id == clientId {
			t.Client = append(t.Client[:i], t.Client[i+1:]...)
			return
		}
	}
}

// popBanSupplierIfAllBan lifts the oldest ban when nothing is usable, so a
// fresh caller always gets at least one attempt.
func (t *TokenManager) popBanSupplierIfAllBan() {
	var hasValidToken bool
	for _, tokens := range t.Token {
		for _, token := range tokens {
			if t.validToken(token) {
				hasValidToken = true
				break
			}
		}
	}
	if !hasValidToken && len(t.BanSupplier) > 0 {
		t.BanSupplier = t.BanSupplier[1:]
		t.ExpiredAt = t.ExpiredAt[1:]
	}
}

func (t *TokenManager) getValidToken(client *Client) *TokenWithModel {
	for i, tokens := range t.Token {
		for j, token := range tokens {
			if client.CanTry(i, j) && t.validToken(token) {
				client.TryIndex[i][j] = 1
				return &token
			}
		}
	}
	return nil
}

// GetToken yields untried tokens in order. The next token is produced only
// after the caller signals on consumeSignal.
func (t *TokenManager) GetToken(ctx context.Context, consumeSignal chan struct{}) chan TokenWithModel {
	tokenCh := make(chan TokenWithModel)
	clientId := uuid.NewString()
	go func() {
		defer t.release(clientId)
		defer close(tokenCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-consumeSignal:
			}
			token := t.getToken(clientId)
			if token == nil {
				return
			}
			select {
			case tokenCh <- *token:
			case <-ctx.Done():
				return
			}
		}
	}()
	return tokenCh
}

func (t *TokenManager) Ban(supplier consts.ModelSupplier, until time.Time) {
	t.Lock.Lock()
	defer t.Lock.Unlock()
	for i, s := range t.BanSupplier {
		if s == supplier {
			if until.After(t.ExpiredAt[i]) {
				t.ExpiredAt[i] = until
			}
			return
		}
	}
	t.BanSupplier = append(t.BanSupplier, supplier)
	t.ExpiredAt = append(t.ExpiredAt, until)
}

func (t *TokenManager) validToken(token TokenWithModel) bool {
	for _, supplier := range t.BanSupplier {
		if token.GetSupplier() == supplier {
			return false
		}
	}
	return true
}

func (t *TokenManager) tidy() {
	t.Lock.Lock()
	defer t.Lock.Unlock()
	for i := len(t.ExpiredAt) - 1; i >= 0; i-- {
		if t.ExpiredAt[i].Before(time.Now()) {
			t.BanSupplier = append(t.BanSupplier[:i], t.BanSupplier[i+1:]...)
			t.ExpiredAt = append(t.ExpiredAt[:i], t.ExpiredAt[i+1:]...)
		}
	}
}
