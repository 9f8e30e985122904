package realtime

import (
	"context"
	"errors"
)

// Publisher is the hand-off point mutation handlers call after a commit.
type Publisher interface {
	Publish(ctx context.Context, listID uint, event Event) error
}

// MultiPublisher forwards every event to each publisher in order. A failing
// publisher does not stop the others; all errors are joined.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, listID uint, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, listID, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AccessChecker answers whether a user may view a list (owner or collaborator).
type AccessChecker interface {
	CanView(ctx context.Context, userID, listID uint) (bool, error)
}
