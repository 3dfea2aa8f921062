// Package directory manages per-user directory trees.
//
// Every user has at most one active root ("base directory"). Provisioner
// creates it on first use and tolerates concurrent first uses; Service
// implements the tree operations on top of it.
package directory

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ILGurin/spp-course-work/entity"
	"github.com/ILGurin/spp-course-work/metadata"
	"github.com/ILGurin/spp-course-work/observability/logger"
)

const (
	rootName = "/"
	rootPath = "/"

	anomalyEvent = "base_directory.anomaly"
)

// Provisioner resolves a user's root directory.
//
// Mutual exclusion between concurrent creators is left to the storage
// uniqueness rule on active roots: exactly one insert wins and the others
// observe metadata.CodeBaseDirectoryConflict, re-query and return the winner.
type Provisioner struct {
	repo     metadata.DirectoryRepo
	attempts uint
	delay    time.Duration
	now      func() time.Time
	tracer   trace.Tracer
	logger   logger.Logger
}

func NewProvisioner(repo metadata.DirectoryRepo, opts ...Option) *Provisioner {
	o := applyOptions(opts)
	return &Provisioner{
		repo:     repo,
		attempts: o.attempts,
		delay:    o.delay,
		now:      o.now,
		tracer:   otel.Tracer("directory"),
		logger:   o.logger.Named("provisioner"),
	}
}

// GetOrCreateBase returns the id of the user's root directory, creating it
// when the user has none.
func (p *Provisioner) GetOrCreateBase(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	ctx, span := p.tracer.Start(ctx, "directory.GetOrCreateBase",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	var rootID uuid.UUID
	err := retry.Do(
		func() error {
			root, err := p.oldestRoot(ctx, userID)
			if err != nil {
				return err
			}
			if root != nil {
				rootID = root.ID
				return nil
			}

			created, err := p.repo.Create(ctx, newRoot(userID, p.now()))
			if err != nil {
				return err
			}
			rootID = created.ID
			return nil
		},
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errx.IsCodeIn(err, metadata.CodeBaseDirectoryConflict)
		}),
		retry.OnRetry(func(n uint, _ error) {
			p.logger.WithContext(ctx).
				With("user_id", userID).
				With("attempt", n+1).
				Debug("base directory created concurrently, re-querying")
		}),
		retry.Context(ctx),
	)
	if err == nil {
		return rootID, nil
	}

	// The last attempt ends on the conflicting insert; the winner may be visible now.
	if errx.IsCodeIn(err, metadata.CodeBaseDirectoryConflict) {
		root, lookupErr := p.oldestRoot(ctx, userID)
		if lookupErr == nil && root != nil {
			return root.ID, nil
		}
	}

	if errx.IsCodeIn(err, metadata.CodeBaseDirectoryConflict) {
		err = errx.New(
			"base directory could not be provisioned",
			errx.WithCode(CodeProvisioningExhausted),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"user_id": userID, "attempts": p.attempts}),
		)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return uuid.Nil, errx.Wrap(err)
}

// FindBase returns the user's root directory, or nil when the user has none.
// Nothing is created.
func (p *Provisioner) FindBase(ctx context.Context, userID uuid.UUID) (*entity.Directory, error) {
	ctx, span := p.tracer.Start(ctx, "directory.FindBase",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	root, err := p.oldestRoot(ctx, userID)
	return root, errx.Wrap(err)
}

// oldestRoot returns the oldest active root of the user, or nil.
// More than one active root means the uniqueness rule was bypassed; the
// oldest one wins and the anomaly is reported without failing the caller.
func (p *Provisioner) oldestRoot(ctx context.Context, userID uuid.UUID) (*entity.Directory, error) {
	roots, err := p.repo.List(ctx, metadata.DirectoryFilter{
		UserID:     &userID,
		RootOnly:   true,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	switch len(roots) {
	case 0:
		return nil, nil //nolint:nilnil // no root yet
	case 1:
		return &roots[0], nil
	}

	ids := lo.Map(roots, func(d entity.Directory, _ int) string { return d.ID.String() })
	p.logger.WithContext(ctx).
		With("user_id", userID).
		With("count", len(roots)).
		With("directory_ids", ids).
		Warn("user has more than one active base directory, using the oldest")
	trace.SpanFromContext(ctx).AddEvent(anomalyEvent, trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.Int("count", len(roots)),
		attribute.StringSlice("directory_ids", ids),
	))

	return &roots[0], nil
}

func newRoot(userID uuid.UUID, now time.Time) *entity.Directory {
	d := &entity.Directory{
		Base:   entity.NewBase(),
		UserID: userID,
		Name:   rootName,
		Path:   lo.ToPtr(rootPath),
	}
	d.Touch(now)
	return d
}
