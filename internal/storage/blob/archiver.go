package blob

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kinotools/kinoscraper/internal/hash/sha256"
)

// Archiver names snapshots by content hash and saves them best-effort: an
// archive failure is logged and never fails the scrape that produced the
// markup.
type Archiver struct {
	provider Provider
	hasher   *sha256.Hasher
	prefix   string
	logger   *zap.Logger
}

// NewArchiver builds an Archiver storing objects under prefix.
func NewArchiver(provider Provider, prefix string, logger *zap.Logger) *Archiver {
	return &Archiver{
		provider: provider,
		hasher:   sha256.New(),
		prefix:   prefix,
		logger:   logger,
	}
}

// Archive stores one markup snapshot for the given operation tag.
func (a *Archiver) Archive(ctx context.Context, operation string, markup []byte) {
	objectName := a.ObjectName(operation, markup)
	if err := a.provider.Save(ctx, objectName, markup); err != nil {
		a.logger.Warn("snapshot archive failed",
			zap.String("object", objectName),
			zap.Error(err),
		)
	}
}

// ObjectName derives the snapshot path: {prefix}/{operation}/{hash}.html.
func (a *Archiver) ObjectName(operation string, markup []byte) string {
	return fmt.Sprintf("%s/%s/%s.html", a.prefix, operation, a.hasher.Hash(markup))
}
