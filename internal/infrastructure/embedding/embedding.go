// Package embedding implements embedding.Provider by composing a
// remote HTTP-backed model and a local placeholder model under a
// configurable priority, with a result cache and in-flight request
// dedup. Mirrors a provider-with-fallback-chain pattern
// (hashicorp/golang-lru/v2 result cache keyed by a string) generalized
// to an (model_id, text) composite key, plus golang.org/x/sync/
// singleflight for the in-flight collapse named in the DOMAIN STACK.
package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"brokle/internal/config"
	"brokle/internal/core/domain/embedding"
)

// LocalModel is the narrow seam a concrete in-process embedding model
// would satisfy; no local runtime ships in this repo (out of scope per
// the embedding-model-execution-internals non-goal), so localStub below
// stands in for one.
type LocalModel interface {
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Available() bool
}

// localStub is a deterministic hash-based stand-in for an in-process
// embedding model. It derives a reproducible pseudo-embedding from a
// PRNG seeded by the SHA-256 digest of the input text, so the
// composition/fallback/dimension-alignment logic around the local
// provider is exercised without depending on an actual ML runtime.
type localStub struct {
	dimension int
}

func (s localStub) Dimension() int { return s.dimension }

func (s localStub) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashEmbed(t, s.dimension)
	}
	return out, nil
}

func (localStub) Available() bool { return true }

// hashEmbed seeds a PRNG from the first 8 bytes of sha256(text) and
// draws d values in [-1, 1), so the same text always yields the same
// vector and distinct texts yield (with overwhelming probability)
// distinct vectors.
func hashEmbed(text string, d int) []float32 {
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))
	v := make([]float32, d)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}

// remoteClient is a minimal OpenAI-compatible embeddings HTTP client.
type remoteClient struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
}

type remoteRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type remoteResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (r *remoteClient) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if r.apiURL == "" {
		return nil, errors.New("remote embedding provider not configured")
	}
	body, err := json.Marshal(remoteRequest{Model: r.model, Input: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("remote embedding provider returned %d: %s", resp.StatusCode, string(b))
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// Provider implements embedding.Provider, composing remote and local
// under cfg.Vector.ProviderPriority.
type Provider struct {
	cfg    config.VectorConfig
	logger *slog.Logger
	remote *remoteClient
	local  LocalModel

	dimension   int
	dimResolved bool

	cache       *lru.Cache[string, []float32]
	flightGroup singleflight.Group
}

// NewProvider builds the composed embedding provider.
func NewProvider(cfg config.VectorConfig, logger *slog.Logger) *Provider {
	cache, _ := lru.New[string, []float32](4096)
	localDim := cfg.Dimension
	if localDim <= 0 {
		localDim = embedding.DefaultDimension
	}
	return &Provider{
		cfg:    cfg,
		logger: logger,
		remote: &remoteClient{
			httpClient: &http.Client{Timeout: 20 * time.Second},
			apiURL:     cfg.EmbeddingAPIURL,
			apiKey:     cfg.EmbeddingAPIKey,
			model:      cfg.EmbeddingModel,
		},
		local: localStub{dimension: localDim},
		cache: cache,
	}
}

// Dimension resolves D through the configured priority chain:
// explicit config, local model probe, remote model name inference,
// remote dummy-input probe, compile-time default.
func (p *Provider) Dimension(ctx context.Context) (int, error) {
	if p.dimResolved {
		return p.dimension, nil
	}
	if p.cfg.Dimension > 0 {
		p.dimension = p.cfg.Dimension
		p.dimResolved = true
		return p.dimension, nil
	}
	if p.local.Available() {
		if d := p.local.Dimension(); d > 0 {
			p.dimension = d
			p.dimResolved = true
			return p.dimension, nil
		}
	}
	if d, ok := inferDimensionFromModelName(p.cfg.EmbeddingModel); ok {
		p.dimension = d
		p.dimResolved = true
		return p.dimension, nil
	}
	if vecs, err := p.remote.embed(ctx, []string{"dimension probe"}); err == nil && len(vecs) == 1 && len(vecs[0]) > 0 {
		p.dimension = len(vecs[0])
		p.dimResolved = true
		return p.dimension, nil
	}
	p.dimension = embedding.DefaultDimension
	p.dimResolved = true
	return p.dimension, nil
}

var knownModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

func inferDimensionFromModelName(model string) (int, bool) {
	d, ok := knownModelDimensions[model]
	return d, ok
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	d, err := p.Dimension(ctx)
	if err != nil {
		return nil, err
	}

	key := p.cfg.EmbeddingModel + "\x00" + text
	if v, ok := p.cache.Get(key); ok {
		return v, nil
	}

	v, err, _ := p.flightGroup.Do(key, func() (any, error) {
		return p.embedUncached(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	aligned := alignDimension(v.([]float32), d)
	p.cache.Add(key, aligned)
	return aligned, nil
}

func (p *Provider) embedUncached(ctx context.Context, text string) ([]float32, error) {
	priority := p.cfg.ProviderPriority
	tryRemoteFirst := priority != config.PriorityLocalFirst

	var firstErr error
	if tryRemoteFirst {
		if vecs, err := p.remote.embed(ctx, []string{text}); err == nil && len(vecs) == 1 {
			return vecs[0], nil
		} else {
			firstErr = err
		}
		if p.local.Available() {
			if vecs, err := p.local.Embed(ctx, []string{text}); err == nil && len(vecs) == 1 {
				return vecs[0], nil
			}
		}
	} else {
		if p.local.Available() {
			if vecs, err := p.local.Embed(ctx, []string{text}); err == nil && len(vecs) == 1 {
				return vecs[0], nil
			}
		}
		if vecs, err := p.remote.embed(ctx, []string{text}); err == nil && len(vecs) == 1 {
			return vecs[0], nil
		} else {
			firstErr = err
		}
	}

	p.logger.Warn("embedding: all providers exhausted", "error", firstErr)
	return nil, embedding.ErrExhausted
}

func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// alignDimension truncates or zero-pads v to exactly d entries.
func alignDimension(v []float32, d int) []float32 {
	if len(v) == d {
		return v
	}
	aligned := make([]float32, d)
	copy(aligned, v)
	return aligned
}
