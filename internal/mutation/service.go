package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace/storefront/internal/client"
	"marketplace/storefront/internal/debounce"
	"marketplace/storefront/internal/domain"
	"marketplace/storefront/internal/normalize"
	"marketplace/storefront/internal/ownership"
	"marketplace/storefront/internal/state"

	log "github.com/sirupsen/logrus"
)

const (
	MsgInProgress = "submission in progress"
	MsgInvalid    = "please correct the highlighted fields"
	MsgNotApplied = "saved but not all changes applied"
	MsgCancelled  = "delete cancelled"
)

// API is the subset of the REST client mutations need
type API interface {
	Me(ctx context.Context) (string, error)
	Get(ctx context.Context, res client.Resource, id string) (map[string]any, error)
	Do(ctx context.Context, method, endpoint string, form *client.Form) (json.RawMessage, error)
	WithFallback(ctx context.Context, res client.Resource, fn func(base string) (json.RawMessage, error)) (json.RawMessage, error)
}

// View is a rendered listing that mutations patch in place
type View interface {
	Tentative(id string, change func(*domain.CatalogItem)) (commit func(), rollback func())
	Remove(id string) bool
}

// Confirmer asks the user before a destructive call; false cancels
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

type Options struct {
	API            API
	Resource       client.Resource
	Kind           domain.ItemKind
	Normalizer     *normalize.Normalizer
	Ownership      *ownership.Cache
	Store          state.Store // field map overrides
	Limits         Limits
	Views          []View
	Confirmer      Confirmer
	Reload         []func(ctx context.Context)
	ReloadDebounce time.Duration
}

// Service creates, updates and deletes catalog items. Every operation
// returns a domain.Result; failures never escape as errors.
type Service struct {
	api        API
	resource   client.Resource
	kind       domain.ItemKind
	normalizer *normalize.Normalizer
	ownership  *ownership.Cache
	store      state.Store
	limits     Limits
	views      []View
	confirmer  Confirmer
	reloads    []func(ctx context.Context)
	reload     *debounce.Debouncer
}

func NewService(opts Options) *Service {
	if opts.ReloadDebounce <= 0 {
		opts.ReloadDebounce = 300 * time.Millisecond
	}
	return &Service{
		api:        opts.API,
		resource:   opts.Resource,
		kind:       opts.Kind,
		normalizer: opts.Normalizer,
		ownership:  opts.Ownership,
		store:      opts.Store,
		limits:     opts.Limits,
		views:      opts.Views,
		confirmer:  opts.Confirmer,
		reloads:    opts.Reload,
		reload:     debounce.New(opts.ReloadDebounce),
	}
}

// Close drops a pending background reload
func (s *Service) Close() {
	s.reload.Stop()
}

// Create validates and submits a new item on behalf of the current actor,
// then records its id in the ownership cache.
func (s *Service) Create(ctx context.Context, session *Session, form *client.Form) (result domain.Result) {
	if session == nil {
		session = NewSession()
	}
	if !session.begin() {
		return domain.Fail(MsgInProgress)
	}
	defer func() { session.end(result.Success) }()

	if errs := Validate(s.kind, form, s.limits); len(errs) > 0 {
		return domain.Fail(MsgInvalid, errs...)
	}

	out := form.Clone()
	actor, err := s.api.Me(ctx)
	if err != nil {
		log.Warnf("⚠️ Creating %s without owner: %v", s.kind, err)
	} else {
		for _, name := range OwnerFields {
			out.Set(name, actor)
		}
	}

	raw, err := s.api.WithFallback(ctx, s.resource, func(base string) (json.RawMessage, error) {
		return s.api.Do(ctx, http.MethodPost, client.Path(base, ""), out)
	})
	if err == nil {
		if msg, failed := reportedFailure(raw); failed {
			err = errors.New(msg)
		}
	}
	if err != nil {
		log.Errorf("❌ Failed to create %s: %v", s.kind, err)
		return failure("could not create item", err)
	}

	var created *domain.CatalogItem
	if record, err := client.NormalizeOne(raw); err == nil {
		item := s.normalizer.Item(record)
		if item.OwnerID == "" {
			item.OwnerID = actor
		}
		created = &item
		if actor != "" && item.ID != "" {
			if err := s.ownership.Add(ctx, actor, item.ID); err != nil {
				log.Warnf("⚠️ Failed to record ownership of %s: %v", item.ID, err)
			}
		}
		log.Infof("✅ Created %s %s", s.kind, item.ID)
	} else {
		log.Warnf("⚠️ Create response carried no record: %v", err)
	}

	s.scheduleReload(ctx)
	return domain.Ok("item created", created)
}

// Update submits changes and only reports success once a re-fetch shows
// every submitted field persisted. Views are patched provisionally and
// rolled back when verification fails; the session stays open then.
func (s *Service) Update(ctx context.Context, session *Session, id string, form *client.Form) (result domain.Result) {
	if session == nil {
		session = NewSession()
	}
	if !session.begin() {
		return domain.Fail(MsgInProgress)
	}
	defer func() { session.end(result.Success) }()

	if errs := Validate(s.kind, form, s.limits); len(errs) > 0 {
		return domain.Fail(MsgInvalid, errs...)
	}

	out := LoadFieldMap(ctx, s.store).Augment(form)
	if err := s.submitUpdate(ctx, id, out); err != nil {
		log.Errorf("❌ Failed to update %s %s: %v", s.kind, id, err)
		return failure("could not save changes", err)
	}

	commit, rollback := s.tentative(id, provisional(form))

	raw, err := s.api.Get(ctx, s.resource, id)
	if err != nil {
		rollback()
		log.Warnf("⚠️ Could not verify update of %s: %v", id, err)
		return domain.Fail(MsgNotApplied, err.Error())
	}

	got := s.normalizer.Item(raw)
	if bad := mismatches(form, got, raw); len(bad) > 0 {
		rollback()
		log.Warnf("⚠️ Update of %s %s accepted but not persisted: %s", s.kind, id, strings.Join(bad, ", "))
		return domain.Fail(MsgNotApplied, bad...)
	}

	commit()
	log.Infof("✅ Updated %s %s", s.kind, id)
	return domain.Ok("changes saved", &got)
}

type updateAttempt struct {
	method   string
	override bool
}

var updateAttempts = []updateAttempt{
	{method: http.MethodPost, override: true},
	{method: http.MethodPut},
	{method: http.MethodPatch},
}

// submitUpdate walks every route variant with POST+_method, PUT and PATCH
// until one succeeds. Errors other than 404, 405 or transport are final.
func (s *Service) submitUpdate(ctx context.Context, id string, form *client.Form) error {
	var lastErr error
	for _, path := range s.resource.Paths(id) {
		for _, a := range updateAttempts {
			body := form
			if a.override {
				body = form.Clone()
				body.Set("_method", http.MethodPut)
			}

			raw, err := s.api.Do(ctx, a.method, path, body)
			if err == nil {
				msg, failed := reportedFailure(raw)
				if !failed {
					return nil
				}
				err = errors.New(msg)
			} else if !tryNext(err) {
				return err
			}

			lastErr = err
			log.Debugf("Update via %s %s failed: %v", a.method, path, err)
		}
	}
	return lastErr
}

// Delete asks for confirmation, deletes the item, drops it from every view
// and the ownership cache, and schedules a background reload.
func (s *Service) Delete(ctx context.Context, id string) domain.Result {
	prompt := fmt.Sprintf("Delete %s %s? This cannot be undone.", s.kind, id)
	if s.confirmer == nil || !s.confirmer.Confirm(ctx, prompt) {
		log.Infof("Delete of %s %s cancelled", s.kind, id)
		return domain.Fail(MsgCancelled)
	}

	_, err := s.api.WithFallback(ctx, s.resource, func(base string) (json.RawMessage, error) {
		return s.api.Do(ctx, http.MethodDelete, client.Path(base, id), nil)
	})
	if err != nil {
		log.Errorf("❌ Failed to delete %s %s: %v", s.kind, id, err)
		return failure("could not delete item", err)
	}

	for _, v := range s.views {
		v.Remove(id)
	}
	if actor, err := s.api.Me(ctx); err == nil {
		if err := s.ownership.Remove(ctx, actor, id); err != nil {
			log.Warnf("⚠️ Failed to prune ownership of %s: %v", id, err)
		}
	}

	log.Infof("🗑️ Deleted %s %s", s.kind, id)
	s.scheduleReload(ctx)
	return domain.Ok("item deleted", nil)
}

func (s *Service) tentative(id string, change func(*domain.CatalogItem)) (commit func(), rollback func()) {
	commits := make([]func(), 0, len(s.views))
	rollbacks := make([]func(), 0, len(s.views))
	for _, v := range s.views {
		c, r := v.Tentative(id, change)
		commits = append(commits, c)
		rollbacks = append(rollbacks, r)
	}
	return runAll(commits), runAll(rollbacks)
}

// scheduleReload refreshes the listings once a burst of mutations settles
func (s *Service) scheduleReload(ctx context.Context) {
	if len(s.reloads) == 0 {
		return
	}
	bg := context.WithoutCancel(ctx)
	s.reload.Trigger(func() {
		for _, reload := range s.reloads {
			reload(bg)
		}
	})
}

func runAll(fns []func()) func() {
	return func() {
		for _, fn := range fns {
			fn()
		}
	}
}

// reportedFailure detects 2xx bodies that still say {"success": false}
func reportedFailure(raw json.RawMessage) (string, bool) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", false
	}
	if success, isBool := body["success"].(bool); !isBool || success {
		return "", false
	}
	if msg, _ := body["message"].(string); msg != "" {
		return msg, true
	}
	return "backend reported failure", true
}

func tryNext(err error) bool {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusMethodNotAllowed
}

func failure(message string, err error) domain.Result {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return domain.Fail(apiErr.Message, apiErr.Errors...)
	}
	return domain.Fail(fmt.Sprintf("%s: %v", message, err))
}
