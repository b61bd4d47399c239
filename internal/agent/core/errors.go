package core

import (
	"errors"
	"fmt"
)

// FailureKind labels the degraded paths a chat turn can take. Empty means
// the turn completed normally.
type FailureKind string

const (
	FailureNone                   FailureKind = ""
	FailureClassificationDegraded FailureKind = "classification_degraded"
	FailureAgentDomainMismatch    FailureKind = "agent_domain_mismatch"
	FailureAgentFailure           FailureKind = "agent_failure"
	FailureAllAgentsFailed        FailureKind = "all_agents_failed"
	FailureSynthesisFailure       FailureKind = "synthesis_failure"
	FailureProviderError          FailureKind = "provider_error"
)

// ErrQuotaExceeded is returned by metrics providers when the upstream API
// quota is exhausted.
var ErrQuotaExceeded = errors.New("metrics provider quota exceeded")

// ErrChannelNotFound is returned when the requested channel does not exist.
var ErrChannelNotFound = errors.New("channel not found")

// ProviderError wraps a completion-provider failure with the provider and
// model that produced it.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
