package ports

import "github.com/bnema/groupchat-cli/internal/domain"

type SessionMetrics interface {
	MessageMerged(origin domain.Origin)
	DuplicateSuppressed(origin domain.Origin)
	StaleDropped(op string)
	LookupFinished(outcome string)
	RosterSize(n int)
}

type NopMetrics struct{}

func (NopMetrics) MessageMerged(domain.Origin)       {}
func (NopMetrics) DuplicateSuppressed(domain.Origin) {}
func (NopMetrics) StaleDropped(string)               {}
func (NopMetrics) LookupFinished(string)             {}
func (NopMetrics) RosterSize(int)                    {}
