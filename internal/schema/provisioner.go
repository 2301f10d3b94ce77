package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/linkshare/linkshare/backend/session-store/pkg/logger"
	"github.com/linkshare/linkshare/backend/session-store/pkg/metrics"
)

// ConflictError reports a declared index that cannot be reconciled without
// dropping an existing one. The provisioner never drops indexes.
type ConflictError struct {
	Collection string
	Index      string
	Reason     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schema: %s.%s: %s", e.Collection, e.Index, e.Reason)
}

// Provisioner converges a database towards a Layout.
type Provisioner struct {
	admin  Admin
	layout Layout
}

func NewProvisioner(admin Admin, layout Layout) (*Provisioner, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Provisioner{admin: admin, layout: layout}, nil
}

func (p *Provisioner) Layout() Layout { return p.layout }

// Apply creates missing collections and indexes and fixes TTL drift. Running it
// against an already provisioned database is a no-op that reports every entry
// as unchanged. Conflicts are collected and returned together once every
// collection has been visited; other server errors abort immediately.
func (p *Provisioner) Apply(ctx context.Context) (*Report, error) {
	report := &Report{Database: p.layout.Database}
	existing, err := p.existingCollections(ctx)
	if err != nil {
		return report, err
	}

	var conflicts *multierror.Error
	for _, c := range p.layout.Collections {
		if existing[c.Name] {
			p.record(report, Entry{Collection: c.Name, Action: ActionUnchanged})
		} else {
			if err := p.admin.CreateCollection(ctx, c.Name); err != nil {
				return report, err
			}
			p.record(report, Entry{Collection: c.Name, Action: ActionCreated})
		}

		current, err := p.admin.ListIndexes(ctx, c.Name)
		if err != nil {
			return report, err
		}
		for _, idx := range c.Indexes {
			entry, err := p.ensureIndex(ctx, c.Name, idx, current)
			if err != nil {
				var ce *ConflictError
				if !errors.As(err, &ce) {
					return report, err
				}
				conflicts = multierror.Append(conflicts, err)
				entry = Entry{Collection: c.Name, Index: idx.Name, Action: ActionDrifted, Detail: ce.Reason}
			}
			p.record(report, entry)
		}
	}
	return report, conflicts.ErrorOrNil()
}

// Verify compares the declared layout with the server without changing anything.
func (p *Provisioner) Verify(ctx context.Context) (*Report, error) {
	report := &Report{Database: p.layout.Database}
	existing, err := p.existingCollections(ctx)
	if err != nil {
		return report, err
	}
	for _, c := range p.layout.Collections {
		if !existing[c.Name] {
			report.add(Entry{Collection: c.Name, Action: ActionMissing})
			for _, idx := range c.Indexes {
				report.add(Entry{Collection: c.Name, Index: idx.Name, Action: ActionMissing})
			}
			continue
		}
		report.add(Entry{Collection: c.Name, Action: ActionUnchanged})

		current, err := p.admin.ListIndexes(ctx, c.Name)
		if err != nil {
			return report, err
		}
		for _, idx := range c.Indexes {
			state, reason := compare(idx, current)
			e := Entry{Collection: c.Name, Index: idx.Name, Detail: reason}
			switch state {
			case absent:
				e.Action = ActionMissing
			case same:
				e.Action = ActionUnchanged
			default:
				e.Action = ActionDrifted
			}
			report.add(e)
		}
	}
	return report, nil
}

func (p *Provisioner) existingCollections(ctx context.Context) (map[string]bool, error) {
	names, err := p.admin.ListCollectionNames(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

func (p *Provisioner) ensureIndex(ctx context.Context, collection string, idx Index, current []ExistingIndex) (Entry, error) {
	e := Entry{Collection: collection, Index: idx.Name}
	state, reason := compare(idx, current)
	switch state {
	case same:
		e.Action = ActionUnchanged
		return e, nil
	case ttlDiffers:
		if err := p.admin.SetExpireAfter(ctx, collection, idx); err != nil {
			return e, err
		}
		e.Action, e.Detail = ActionUpdated, reason
		return e, nil
	case incompatible:
		return e, &ConflictError{Collection: collection, Index: idx.Name, Reason: reason}
	}

	if err := p.admin.CreateIndex(ctx, collection, idx); err != nil {
		if errors.Is(err, ErrIndexConflict) {
			return e, &ConflictError{Collection: collection, Index: idx.Name, Reason: err.Error()}
		}
		return e, err
	}
	e.Action = ActionCreated
	return e, nil
}

func (p *Provisioner) record(r *Report, e Entry) {
	r.add(e)
	metrics.SchemaActions.WithLabelValues(e.Collection, string(e.Action)).Inc()
	fields := map[string]interface{}{"database": r.Database, "collection": e.Collection, "action": e.Action}
	if e.Index != "" {
		fields["index"] = e.Index
	}
	if e.Detail != "" {
		fields["detail"] = e.Detail
	}
	if e.Action == ActionDrifted {
		logger.With(fields).Warn("schema drift")
		return
	}
	logger.With(fields).Info("schema ensured")
}

type comparison int

const (
	absent comparison = iota
	same
	ttlDiffers
	incompatible
)

func compare(idx Index, current []ExistingIndex) (comparison, string) {
	var found *ExistingIndex
	for i := range current {
		if current[i].On(idx.Field) && (found == nil || current[i].Name == idx.Name) {
			found = &current[i]
		}
	}
	if found == nil {
		for _, e := range current {
			if e.Name == idx.Name {
				return incompatible, fmt.Sprintf("name %q is taken by an index on %v", idx.Name, e.Fields)
			}
		}
		return absent, ""
	}
	if found.Unique != idx.Unique {
		return incompatible, fmt.Sprintf("existing index %q has unique=%t", found.Name, found.Unique)
	}
	switch {
	case !idx.TTL() && found.ExpireAfterSeconds != nil:
		return incompatible, fmt.Sprintf("existing index %q expires documents after %ds", found.Name, *found.ExpireAfterSeconds)
	case idx.TTL() && found.ExpireAfterSeconds == nil:
		return ttlDiffers, fmt.Sprintf("existing index %q has no TTL", found.Name)
	case idx.TTL() && *found.ExpireAfterSeconds != int64(idx.ExpireAfterSeconds()):
		return ttlDiffers, fmt.Sprintf("expireAfterSeconds %d, want %d", *found.ExpireAfterSeconds, idx.ExpireAfterSeconds())
	}
	return same, ""
}
