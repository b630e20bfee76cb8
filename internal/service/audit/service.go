package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/sse"
)

// TopicAudit carries every committed entry; TopicFor(actor) only that actor's entries.
const TopicAudit = "audit"

func TopicFor(actorID string) string {
	return TopicAudit + ":" + actorID
}

// Publisher returns the post-commit hook that fans committed entries out on hub.
// Wire it with state.WithAuditObserver.
func Publisher(hub *sse.Hub) func(audit.Entry) {
	return func(e audit.Entry) {
		hub.PublishToMany([]string{TopicAudit, TopicFor(e.Actor)}, sse.Event{
			Event: string(e.Action),
			ID:    fmt.Sprintf("%d", e.Seq),
			Data:  e,
		})
	}
}

type AuditServiceImpl struct {
	store state.Store
	clock clock.Clock
	hub   *sse.Hub
}

func NewAuditService(store state.Store, clk clock.Clock, hub *sse.Hub) audit.Service {
	return &AuditServiceImpl{
		store: store,
		clock: clk,
		hub:   hub,
	}
}

// Append implements audit.Service.
func (s *AuditServiceImpl) Append(ctx context.Context, actor audit.Actor, action audit.Action, detail string) (audit.Entry, error) {
	req := audit.AppendRequest{Action: action, Detail: detail}
	if err := req.Validate(); err != nil {
		return audit.Entry{}, err
	}

	var entry audit.Entry
	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		entry = cur.AppendAudit(actor, req.Action, req.Detail, s.clock.Now())
		return cur, nil
	})
	if err != nil {
		return audit.Entry{}, err
	}
	return entry, nil
}

// List implements audit.Service.
func (s *AuditServiceImpl) List(ctx context.Context, filter audit.Filter) (audit.ListResponse, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return audit.ListResponse{}, fmt.Errorf("failed to read audit log: %w", err)
	}

	limit := filter.Limit
	filter.Limit = 0
	matched := filter.Apply(snap.Audit)
	total := len(matched)
	if limit > 0 && total > limit {
		matched = matched[total-limit:]
	}
	return audit.ListResponse{Entries: matched, Total: total}, nil
}

// Subscribe implements audit.Service.
func (s *AuditServiceImpl) Subscribe() (<-chan audit.Entry, func()) {
	events, cancel := s.hub.Subscribe(TopicAudit)
	out := make(chan audit.Entry, 16)
	done := make(chan struct{})

	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				e, ok := ev.Data.(audit.Entry)
				if !ok {
					continue
				}
				select {
				case out <- e:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			close(done)
			cancel()
		})
	}
}
