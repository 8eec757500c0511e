// Package adapters decorates repositories with side effects that the core
// should not know about.
package adapters

import (
	"context"

	"budgetai/internal/amqp"
	"budgetai/internal/core"
	"budgetai/internal/log"
	"budgetai/internal/store"
)

// Publisher sends snapshot messages. *amqp.Client implements it.
type Publisher interface {
	PublishSnapshot(ctx context.Context, msg *amqp.SnapshotMessage) error
}

// VersionedRepository reports the version of a stored document.
type VersionedRepository interface {
	store.Repository
	DocumentVersion(ctx context.Context, userID, kind string) (int64, error)
}

// PublishingRepository announces each successful save. Publishing is best
// effort: the save already succeeded, so failures are only logged.
type PublishingRepository struct {
	VersionedRepository
	publisher Publisher
	kinds     map[string]bool
	logger    *log.Logger
}

// NewPublishingRepository publishes after saves of the given document
// kinds; with no kinds every save is published.
func NewPublishingRepository(repo VersionedRepository, publisher Publisher, kinds ...string) *PublishingRepository {
	p := &PublishingRepository{
		VersionedRepository: repo,
		publisher:           publisher,
		logger:              log.Default(log.ComponentAMQP),
	}
	if len(kinds) > 0 {
		p.kinds = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			p.kinds[k] = true
		}
	}
	return p
}

func (p *PublishingRepository) SaveConfig(ctx context.Context, userID string, patch core.ConfigPatch) error {
	if err := p.VersionedRepository.SaveConfig(ctx, userID, patch); err != nil {
		return err
	}
	p.publish(ctx, userID, "config")
	return nil
}

func (p *PublishingRepository) SaveProfile(ctx context.Context, userID string, patch core.ProfilePatch) error {
	if err := p.VersionedRepository.SaveProfile(ctx, userID, patch); err != nil {
		return err
	}
	p.publish(ctx, userID, "profile")
	return nil
}

func (p *PublishingRepository) SaveCart(ctx context.Context, userID string, items []core.CartItem) error {
	if err := p.VersionedRepository.SaveCart(ctx, userID, items); err != nil {
		return err
	}
	p.publish(ctx, userID, "cart")
	return nil
}

func (p *PublishingRepository) publish(ctx context.Context, userID, kind string) {
	if p.publisher == nil || (p.kinds != nil && !p.kinds[kind]) {
		return
	}
	version, err := p.DocumentVersion(ctx, userID, kind)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to read document version",
			log.FieldUserID, userID, log.FieldDocument, kind, log.FieldError, err)
		return
	}
	if err := p.publisher.PublishSnapshot(ctx, amqp.NewSnapshotMessage(userID, kind, version)); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish snapshot message",
			log.FieldUserID, userID, log.FieldDocument, kind, log.FieldError, err)
	}
}
