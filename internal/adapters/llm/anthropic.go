// Package llm implements the correction engine client over the Anthropic
// messages API. It holds no state of its own beyond the HTTP client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/corrigo/corrigo/internal/config"
	"github.com/corrigo/corrigo/internal/core/domain"
)

const (
	anthropicVersion = "2023-06-01"

	// maxInputTokens is the request ceiling, estimated at length/4.
	maxInputTokens = 95000

	// probeTimeout bounds the connection test call.
	probeTimeout = 30 * time.Second
)

// defaultDirective is the correction prompt used when the caller supplies no
// custom instructions. Kept in French verbatim: the tool serves a French
// editorial workflow and the directive is configuration, not logic.
const defaultDirective = `Tu es un correcteur expert pour un média français.

Corrige cet article en appliquant :
- Correction orthographique et grammaticale
- Amélioration de la clarté et du style
- Vérification des données factuelles avec sources

IMPORTANT: Retourne le texte corrigé au format HTML. Utilise :
- <strong> pour mettre en valeur les points importants
- <em> pour les nuances
- <h2> pour les titres si nécessaire
- <blockquote> pour les citations importantes
- <a href="URL" class="source">Source: description</a> pour les références
- <mark class="correction"> pour surligner les corrections importantes
- <p> pour structurer les paragraphes

RÈGLES IMPORTANTES:
- Garde le même ton et style journalistique original
- Ne modifie pas le sens des informations
- Traite l'INTÉGRALITÉ du texte fourni, du début à la fin
- Conserve la longueur totale de l'article (ne tronque JAMAIS)
- Respecte la mise en forme des paragraphes
- RETOURNE: Le texte COMPLET corrigé en HTML`

// factCheckRe matches the labeled trailing fact-check section of the engine
// output, up to a blank line, divider, heading, RETOUR marker, or end of text.
var factCheckRe = regexp.MustCompile(`(?is)VÉRIFICATIONS FACTUELLES?\s*:\s*(.*?)\s*(\n\n|\n---|\n#|\nRETOUR|$)`)

// Engine calls the upstream correction service. Correct is bounded by the
// short synchronous timeout; CorrectWithProgress by the longer background
// one.
type Engine struct {
	logger *slog.Logger
	client *http.Client

	baseURL         string
	apiKey          string
	model           string
	maxOutputTokens int
	temperature     float64

	syncTimeout  time.Duration
	asyncTimeout time.Duration
}

// NewEngine builds the engine client. A missing credential is a
// configuration failure surfaced here, at startup.
func NewEngine(logger *slog.Logger, cfg config.EngineConfig) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewError(domain.CategoryConfig,
			"engine API key is not configured",
			"set CLAUDE_API_KEY in the environment")
	}
	return &Engine{
		logger:          logger,
		client:          &http.Client{}, // per-call timeouts via context
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
		temperature:     cfg.Temperature,
		syncTimeout:     cfg.SyncTimeout,
		asyncTimeout:    cfg.AsyncTimeout,
	}, nil
}

// Correct runs one synchronous correction call.
func (e *Engine) Correct(ctx context.Context, content, instructions string) (*domain.CorrectionResult, error) {
	return e.correct(ctx, content, instructions, e.syncTimeout, nil)
}

// CorrectWithProgress runs the same computation with the background timeout,
// reporting checkpoints to onProgress before and around the upstream call.
func (e *Engine) CorrectWithProgress(ctx context.Context, content, instructions string, onProgress domain.ProgressFunc) (*domain.CorrectionResult, error) {
	return e.correct(ctx, content, instructions, e.asyncTimeout, onProgress)
}

func (e *Engine) correct(ctx context.Context, content, instructions string, timeout time.Duration, onProgress domain.ProgressFunc) (*domain.CorrectionResult, error) {
	progress := func(stage, detail string) {
		if onProgress != nil {
			onProgress(stage, detail)
		}
	}

	progress("init", "validating article content")
	if est := estimateTokens(content); est > maxInputTokens {
		return nil, domain.NewError(domain.CategoryValidation,
			fmt.Sprintf("article too long: %d estimated tokens (max: %d)", est, maxInputTokens),
			"shorten the article or split it before correcting")
	}

	directive := defaultDirective
	if trimmed := strings.TrimSpace(instructions); trimmed != "" {
		directive = trimmed
	}
	progress("prompt_ready", "correction directive prepared")

	payload := map[string]any{
		"model":       e.model,
		"max_tokens":  e.maxOutputTokens,
		"temperature": e.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": directive + "\n\nTexte à corriger:\n" + content},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal engine request: %w", err)
	}
	progress("preparation", "upstream request assembled")

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, e.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build engine request: %w", err)
	}
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	progress("api_call", fmt.Sprintf("calling correction engine (%d characters)", len(content)))
	start := time.Now()

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewError(domain.CategoryTimeout,
				fmt.Sprintf("engine call exceeded %s", timeout),
				"retry with a shorter article or try again later")
		}
		return nil, domain.NewError(domain.CategoryNetwork,
			"no response from the correction engine",
			"check the network connection and the engine endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, resp.Body)
	}

	progress("processing", "parsing engine response")

	var decoded struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage json.RawMessage `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, domain.NewError(domain.CategoryUpstream,
			"malformed engine response: "+err.Error(), "")
	}

	corrected := ""
	for _, block := range decoded.Content {
		if block.Type == "text" {
			corrected = block.Text
			break
		}
	}
	if corrected == "" {
		return nil, domain.NewError(domain.CategoryUpstream,
			"engine response contained no text block", "")
	}

	elapsed := time.Since(start)
	e.logger.Info("engine call finished", "duration_ms", elapsed.Milliseconds(), "length", len(content))

	corrected, factChecks := splitFactChecks(corrected)
	factChecks = applyTruncationWarning(factChecks, len(content), len(corrected))
	if factChecks == "" {
		factChecks = domain.FactChecksNone
	}

	return &domain.CorrectionResult{
		OriginalText:     content,
		CorrectedText:    corrected,
		FactChecks:       factChecks,
		UsageStats:       decoded.Usage,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Changes:          domain.ComputeChangeStats(content, corrected),
		Timestamp:        time.Now(),
	}, nil
}

// TestConnection sends a minimal prompt upstream and reports whether the
// engine answered it as expected. Any failure reads as unreachable; the
// caller only needs a yes/no.
func (e *Engine) TestConnection(ctx context.Context) bool {
	payload := map[string]any{
		"model":       e.model,
		"max_tokens":  100,
		"temperature": 0,
		"messages": []map[string]string{
			{"role": "user", "content": `Réponds simplement "Connexion réussie" pour tester l'API.`},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, e.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("engine connection test failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Warn("engine connection test failed", "status", resp.StatusCode)
		return false
	}

	var decoded struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil || len(decoded.Content) == 0 {
		return false
	}
	return strings.Contains(decoded.Content[0].Text, "Connexion réussie")
}

// splitFactChecks extracts the labeled trailing fact-check section from the
// corrected output, returning the cleaned text and the section body. The
// terminator that ends the section stays in the corrected text.
func splitFactChecks(text string) (corrected, factChecks string) {
	loc := factCheckRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return strings.TrimSpace(text), ""
	}
	factChecks = strings.TrimSpace(text[loc[2]:loc[3]])
	corrected = strings.TrimSpace(text[:loc[0]] + text[loc[4]:])
	return corrected, factChecks
}

// applyTruncationWarning flags a likely truncation defect: a corrected text
// more than 50% shorter than the original. Non-fatal; the warning is
// prepended to the fact-check text so the caller still gets a usable result.
func applyTruncationWarning(factChecks string, originalLen, correctedLen int) string {
	if originalLen == 0 {
		return factChecks
	}
	reduction := float64(originalLen-correctedLen) / float64(originalLen)
	if reduction <= 0.5 {
		return factChecks
	}
	warning := fmt.Sprintf(
		"⚠️ ATTENTION: Le texte semble avoir été tronqué (réduction de %d%%). Longueur originale: %d caractères, corrigé: %d caractères.",
		int(reduction*100+0.5), originalLen, correctedLen)
	if factChecks == "" {
		return warning
	}
	return warning + "\n\n" + factChecks
}

// classifyStatus maps an upstream HTTP status to a typed domain error.
func classifyStatus(status int, body io.Reader) error {
	switch status {
	case http.StatusBadRequest:
		return domain.NewError(domain.CategoryBadRequest,
			"invalid request format or content too long",
			"shorten the article and retry")
	case http.StatusUnauthorized:
		return domain.NewError(domain.CategoryAuth,
			"invalid or expired engine API key",
			"an operator must update the credential")
	case http.StatusForbidden:
		return domain.NewError(domain.CategoryForbidden,
			"access to the correction engine was denied",
			"check the API key permissions")
	case http.StatusTooManyRequests:
		return domain.NewError(domain.CategoryRateLimit,
			"engine rate limit reached",
			"wait a moment and retry")
	case http.StatusInternalServerError:
		return domain.NewError(domain.CategoryUpstream,
			"correction engine server error",
			"retry later")
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return domain.NewError(domain.CategoryUpstream,
			"correction engine temporarily unavailable",
			"retry later")
	}

	// Unknown status: surface the upstream message when one is present.
	msg := fmt.Sprintf("engine returned status %d", status)
	var upstream struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if raw, err := io.ReadAll(io.LimitReader(body, 8<<10)); err == nil {
		if json.Unmarshal(raw, &upstream) == nil && upstream.Error.Message != "" {
			msg = fmt.Sprintf("engine returned status %d: %s", status, upstream.Error.Message)
		}
	}
	return domain.NewError(domain.CategoryUpstream, msg, "")
}

func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}
